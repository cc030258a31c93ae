package aggregator

import (
	"errors"
	"fmt"

	"storefront/internal/domain"
)

// ErrUnknownMutation is returned by Apply for a kind it does not handle.
var ErrUnknownMutation = errors.New("unknown cart mutation")

type MutationKind string

const (
	MutationAdd       MutationKind = "add"
	MutationIncrement MutationKind = "increment"
	MutationDecrement MutationKind = "decrement"
	MutationRemove    MutationKind = "remove"
)

// Mutation is one cart transition. Add needs Variant and Product; the others
// need MerchandiseID.
type Mutation struct {
	Kind          MutationKind
	MerchandiseID string
	Variant       domain.ProductVariant
	Product       domain.Product
}

func AddMutation(v domain.ProductVariant, p domain.Product) Mutation {
	return Mutation{Kind: MutationAdd, MerchandiseID: v.ID, Variant: v, Product: p}
}

func IncrementMutation(merchandiseID string) Mutation {
	return Mutation{Kind: MutationIncrement, MerchandiseID: merchandiseID}
}

func DecrementMutation(merchandiseID string) Mutation {
	return Mutation{Kind: MutationDecrement, MerchandiseID: merchandiseID}
}

func RemoveMutation(merchandiseID string) Mutation {
	return Mutation{Kind: MutationRemove, MerchandiseID: merchandiseID}
}

// Apply folds one mutation into cart.
func (a *Aggregator) Apply(cart domain.Cart, m Mutation) (domain.Cart, error) {
	switch m.Kind {
	case MutationAdd:
		return a.Add(cart, m.Variant, m.Product), nil
	case MutationIncrement:
		return a.Increment(cart, m.MerchandiseID), nil
	case MutationDecrement:
		return a.Decrement(cart, m.MerchandiseID), nil
	case MutationRemove:
		return a.Remove(cart, m.MerchandiseID), nil
	default:
		return cart, fmt.Errorf("%w: %q", ErrUnknownMutation, m.Kind)
	}
}

// ApplyAll folds mutations in order, stopping at the first error.
func (a *Aggregator) ApplyAll(cart domain.Cart, mutations ...Mutation) (domain.Cart, error) {
	out := cart
	for _, m := range mutations {
		next, err := a.Apply(out, m)
		if err != nil {
			return cart, err
		}
		out = next
	}
	return out, nil
}
