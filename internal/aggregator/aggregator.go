// Package aggregator folds line-item mutations into cart snapshots.
//
// Every operation returns a new domain.Cart; the input cart is never modified.
// Lines are keyed by merchandise (variant) id.
package aggregator

import (
	"github.com/shopspring/decimal"

	"storefront/internal/domain"
)

const minorUnitPlaces = 2

type Aggregator struct {
	// FallbackCurrency is used for totals when the cart has no lines.
	FallbackCurrency string
}

func New(fallbackCurrency string) *Aggregator {
	return &Aggregator{FallbackCurrency: fallbackCurrency}
}

// Empty returns a cart with no id, no checkout URL and zero totals.
func (a *Aggregator) Empty() domain.Cart {
	return a.withTotals(domain.Cart{Lines: []domain.CartLine{}})
}

// Add increments the line for variant if present, otherwise appends a new line
// with quantity 1 priced at the variant's current price.
func (a *Aggregator) Add(cart domain.Cart, variant domain.ProductVariant, product domain.Product) domain.Cart {
	if _, ok := cart.Line(variant.ID); ok {
		return a.Increment(cart, variant.ID)
	}
	lines := make([]domain.CartLine, 0, len(cart.Lines)+1)
	lines = append(lines, cart.Lines...)
	lines = append(lines, domain.CartLine{
		Quantity: 1,
		Merchandise: domain.Merchandise{
			ID:              variant.ID,
			Title:           variant.Title,
			SelectedOptions: append([]domain.SelectedOption(nil), variant.SelectedOptions...),
			Product: domain.MerchandiseProduct{
				ID:            product.ID,
				Handle:        product.Handle,
				Title:         product.Title,
				FeaturedImage: product.FeaturedImage,
			},
		},
		Cost: domain.LineCost{TotalAmount: variant.Price},
	})
	out := cart
	out.Lines = lines
	return a.withTotals(out)
}

// Increment adds one unit to the line. Unknown ids return cart unchanged.
func (a *Aggregator) Increment(cart domain.Cart, merchandiseID string) domain.Cart {
	return a.adjust(cart, merchandiseID, 1)
}

// Decrement removes one unit; a line reaching zero is dropped.
// Unknown ids return cart unchanged.
func (a *Aggregator) Decrement(cart domain.Cart, merchandiseID string) domain.Cart {
	return a.adjust(cart, merchandiseID, -1)
}

// Remove drops the line whatever its quantity. Unknown ids return cart unchanged.
func (a *Aggregator) Remove(cart domain.Cart, merchandiseID string) domain.Cart {
	idx := lineIndex(cart, merchandiseID)
	if idx < 0 {
		return cart
	}
	out := cart
	out.Lines = without(cart.Lines, idx)
	return a.withTotals(out)
}

func (a *Aggregator) adjust(cart domain.Cart, merchandiseID string, delta int) domain.Cart {
	idx := lineIndex(cart, merchandiseID)
	if idx < 0 {
		return cart
	}
	line := cart.Lines[idx]
	quantity := line.Quantity + delta
	out := cart
	if quantity <= 0 {
		out.Lines = without(cart.Lines, idx)
		return a.withTotals(out)
	}

	// The unit price is derived from the line itself so the price at time of
	// add sticks even if the catalog price changed since.
	unit := unitPrice(line)
	line.Quantity = quantity
	line.Cost.TotalAmount = domain.Money{
		Amount:       unit.Mul(decimal.NewFromInt(int64(quantity))),
		CurrencyCode: line.Cost.TotalAmount.CurrencyCode,
	}

	lines := make([]domain.CartLine, len(cart.Lines))
	copy(lines, cart.Lines)
	lines[idx] = line
	out.Lines = lines
	return a.withTotals(out)
}

func unitPrice(line domain.CartLine) decimal.Decimal {
	if line.Quantity <= 0 {
		return decimal.Zero
	}
	total := line.Cost.TotalAmount.Amount
	return total.DivRound(decimal.NewFromInt(int64(line.Quantity)), unitPlaces(total))
}

// unitPlaces is the scale a derived unit price is rounded to: the line total's
// own scale, and at least minorUnitPlaces.
func unitPlaces(total decimal.Decimal) int32 {
	if places := -total.Exponent(); places > minorUnitPlaces {
		return places
	}
	return minorUnitPlaces
}

// withTotals recomputes cart-level quantity and cost from the lines.
func (a *Aggregator) withTotals(cart domain.Cart) domain.Cart {
	currency := a.FallbackCurrency
	if len(cart.Lines) > 0 {
		currency = cart.Lines[0].Cost.TotalAmount.CurrencyCode
	}
	quantity := 0
	total := decimal.Zero
	for _, l := range cart.Lines {
		quantity += l.Quantity
		total = total.Add(l.Cost.TotalAmount.Amount)
	}
	cart.TotalQuantity = quantity
	cart.Cost = domain.CartCost{
		SubtotalAmount: domain.Money{Amount: total, CurrencyCode: currency},
		TotalAmount:    domain.Money{Amount: total, CurrencyCode: currency},
		TotalTaxAmount: domain.ZeroMoney(currency),
	}
	return cart
}

func lineIndex(cart domain.Cart, merchandiseID string) int {
	for i, l := range cart.Lines {
		if l.Merchandise.ID == merchandiseID {
			return i
		}
	}
	return -1
}

func without(lines []domain.CartLine, idx int) []domain.CartLine {
	out := make([]domain.CartLine, 0, len(lines)-1)
	out = append(out, lines[:idx]...)
	return append(out, lines[idx+1:]...)
}
