package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"storefront/internal/aggregator"
	"storefront/internal/domain"
	cartrepo "storefront/internal/repository/cart"
)

// maxSaveAttempts bounds retries of an unpinned update that lost a version race.
const maxSaveAttempts = 3

const (
	ActionAddLineItem       = "addLineItem"
	ActionIncrementLineItem = "incrementLineItem"
	ActionDecrementLineItem = "decrementLineItem"
	ActionRemoveLineItem    = "removeLineItem"
)

// ErrCurrencyMismatch rejects merchandise priced in a currency other than the cart's.
var ErrCurrencyMismatch = fmt.Errorf("%w: currency mismatch", domain.ErrInvalidInput)

type Service struct {
	repo            cartrepo.Repository
	catalog         Catalog
	agg             *aggregator.Aggregator
	validate        *validator.Validate
	checkoutBaseURL string
	logger          *zap.Logger
	newID           func() string
}

// Catalog resolves merchandise ids to variants for addLineItem.
type Catalog interface {
	GetVariant(ctx context.Context, variantID string) (*domain.ProductVariant, *domain.Product, error)
}

func New(repo cartrepo.Repository, catalog Catalog, agg *aggregator.Aggregator, checkoutBaseURL string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repo:            repo,
		catalog:         catalog,
		agg:             agg,
		validate:        validator.New(),
		checkoutBaseURL: strings.TrimRight(checkoutBaseURL, "/"),
		logger:          logger,
		newID:           uuid.NewString,
	}
}

type CreateInput struct {
	Currency string `json:"currency" validate:"omitempty,len=3,alpha"`
}

type UpdateInput struct {
	// Version pins the update to a cart version; 0 applies to the latest.
	Version int            `json:"version" validate:"gte=0"`
	Actions []UpdateAction `json:"actions" validate:"required,min=1,dive"`
}

type UpdateAction struct {
	Action        string `json:"action" validate:"required"`
	MerchandiseID string `json:"merchandiseId" validate:"required"`
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*domain.Cart, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, invalid(err)
	}
	agg := s.agg
	if in.Currency != "" {
		agg = aggregator.New(strings.ToUpper(in.Currency))
	}
	cart := agg.Empty()
	cart.ID = s.newID()
	cart.CheckoutURL = s.checkoutBaseURL + "/" + cart.ID
	created, err := s.repo.Create(ctx, cart)
	if err != nil {
		return nil, err
	}
	s.logger.Info("cart created", zap.String("cart_id", created.ID), zap.String("currency", created.Cost.TotalAmount.CurrencyCode))
	return created, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Cart, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: cart id required", domain.ErrInvalidInput)
	}
	return s.repo.GetByID(ctx, id)
}

// Update folds the actions into the cart in order and saves the result. With
// Version 0 a concurrent write is retried against the fresh cart; with a pinned
// version it is reported as domain.ErrConflict.
func (s *Service) Update(ctx context.Context, cartID string, in UpdateInput) (*domain.Cart, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, invalid(err)
	}
	mutations, err := s.mutations(ctx, in.Actions)
	if err != nil {
		return nil, err
	}

	for attempt := 1; ; attempt++ {
		current, err := s.repo.GetByID(ctx, cartID)
		if err != nil {
			return nil, err
		}
		if in.Version != 0 && current.Version != in.Version {
			return nil, domain.ErrConflict
		}

		agg := s.aggregatorFor(*current)
		if err := checkCurrency(agg.FallbackCurrency, mutations); err != nil {
			return nil, err
		}
		next, err := agg.ApplyAll(*current, mutations...)
		if err != nil {
			return nil, err
		}
		next.ID = current.ID
		next.CheckoutURL = current.CheckoutURL
		for i := range next.Lines {
			if next.Lines[i].ID == "" {
				next.Lines[i].ID = s.newID()
			}
		}

		saved, err := s.repo.Save(ctx, next, current.Version)
		if errors.Is(err, domain.ErrConflict) && in.Version == 0 && attempt < maxSaveAttempts {
			s.logger.Debug("cart update retry", zap.String("cart_id", cartID), zap.Int("attempt", attempt))
			continue
		}
		if err != nil {
			return nil, err
		}
		return saved, nil
	}
}

// aggregatorFor keeps totals in the currency the cart was created with, also
// once the cart has been emptied again.
func (s *Service) aggregatorFor(cart domain.Cart) *aggregator.Aggregator {
	currency := cart.Cost.TotalAmount.CurrencyCode
	if currency == "" || currency == s.agg.FallbackCurrency {
		return s.agg
	}
	return aggregator.New(currency)
}

func checkCurrency(currency string, mutations []aggregator.Mutation) error {
	for _, m := range mutations {
		if m.Kind != aggregator.MutationAdd {
			continue
		}
		if got := m.Variant.Price.CurrencyCode; !strings.EqualFold(got, currency) {
			return fmt.Errorf("merchandise %s priced in %s, cart in %s: %w", m.Variant.ID, got, currency, ErrCurrencyMismatch)
		}
	}
	return nil
}

// AddLine, IncrementLine, DecrementLine and RemoveLine are single-action updates
// against the latest cart version.
func (s *Service) AddLine(ctx context.Context, cartID, merchandiseID string) (*domain.Cart, error) {
	return s.single(ctx, cartID, ActionAddLineItem, merchandiseID)
}

func (s *Service) IncrementLine(ctx context.Context, cartID, merchandiseID string) (*domain.Cart, error) {
	return s.single(ctx, cartID, ActionIncrementLineItem, merchandiseID)
}

func (s *Service) DecrementLine(ctx context.Context, cartID, merchandiseID string) (*domain.Cart, error) {
	return s.single(ctx, cartID, ActionDecrementLineItem, merchandiseID)
}

func (s *Service) RemoveLine(ctx context.Context, cartID, merchandiseID string) (*domain.Cart, error) {
	return s.single(ctx, cartID, ActionRemoveLineItem, merchandiseID)
}

func (s *Service) single(ctx context.Context, cartID, action, merchandiseID string) (*domain.Cart, error) {
	return s.Update(ctx, cartID, UpdateInput{Actions: []UpdateAction{{Action: action, MerchandiseID: merchandiseID}}})
}

func (s *Service) mutations(ctx context.Context, actions []UpdateAction) ([]aggregator.Mutation, error) {
	out := make([]aggregator.Mutation, 0, len(actions))
	for _, action := range actions {
		id := strings.TrimSpace(action.MerchandiseID)
		switch strings.ToLower(strings.TrimSpace(action.Action)) {
		case "addlineitem":
			if s.catalog == nil {
				return nil, errors.New("catalog unavailable")
			}
			v, p, err := s.catalog.GetVariant(ctx, id)
			if err != nil {
				if errors.Is(err, domain.ErrNotFound) {
					return nil, fmt.Errorf("merchandise %s: %w", id, domain.ErrNotFound)
				}
				return nil, err
			}
			if !v.AvailableForSale {
				return nil, fmt.Errorf("merchandise %s: %w", id, domain.ErrVariantUnavailable)
			}
			out = append(out, aggregator.AddMutation(*v, *p))
		case "incrementlineitem":
			out = append(out, aggregator.IncrementMutation(id))
		case "decrementlineitem":
			out = append(out, aggregator.DecrementMutation(id))
		case "removelineitem":
			out = append(out, aggregator.RemoveMutation(id))
		default:
			return nil, fmt.Errorf("%w: unsupported action %q", domain.ErrInvalidInput, action.Action)
		}
	}
	return out, nil
}

func invalid(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
		}
		return fmt.Errorf("%w: %s", domain.ErrInvalidInput, strings.Join(msgs, "; "))
	}
	return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
}
