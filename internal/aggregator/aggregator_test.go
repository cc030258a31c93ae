package aggregator

import (
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/domain"
)

func vaseProduct() domain.Product {
	return domain.Product{
		ID:            "prod-vase",
		Handle:        "stoneware-vase",
		Title:         "Stoneware Vase",
		FeaturedImage: &domain.Image{URL: "https://cdn.example.com/vase.jpg"},
	}
}

func vaseVariant(id, price string) domain.ProductVariant {
	return domain.ProductVariant{
		ID:               id,
		Title:            "Tall / " + id,
		Price:            domain.MustMoney(price, "USD"),
		AvailableForSale: true,
		SelectedOptions:  []domain.SelectedOption{{Name: "Height", Value: "Tall"}},
	}
}

func lineFor(id string, quantity int, total string) domain.CartLine {
	return domain.CartLine{
		ID:          "line-" + id,
		Quantity:    quantity,
		Merchandise: domain.Merchandise{ID: id, Title: id},
		Cost:        domain.LineCost{TotalAmount: domain.MustMoney(total, "USD")},
	}
}

func amount(m domain.Money) string {
	return m.Amount.String()
}

func TestEmpty(t *testing.T) {
	cart := New("EUR").Empty()
	assert.Empty(t, cart.ID)
	assert.Empty(t, cart.CheckoutURL)
	assert.Equal(t, 0, cart.TotalQuantity)
	assert.Equal(t, "0", amount(cart.Cost.TotalAmount))
	assert.Equal(t, "0", amount(cart.Cost.SubtotalAmount))
	assert.Equal(t, "0", amount(cart.Cost.TotalTaxAmount))
	assert.Equal(t, "EUR", cart.Cost.TotalAmount.CurrencyCode)
}

func TestAdd_NewLine(t *testing.T) {
	agg := New("USD")
	v := vaseVariant("var-a", "42.50")
	cart := agg.Add(agg.Empty(), v, vaseProduct())

	require.Len(t, cart.Lines, 1)
	line := cart.Lines[0]
	assert.Equal(t, 1, line.Quantity)
	assert.Empty(t, line.ID)
	assert.Equal(t, "var-a", line.Merchandise.ID)
	assert.Equal(t, "stoneware-vase", line.Merchandise.Product.Handle)
	assert.Equal(t, v.SelectedOptions, line.Merchandise.SelectedOptions)
	assert.Equal(t, "42.5", amount(line.Cost.TotalAmount))
	assert.Equal(t, 1, cart.TotalQuantity)
	assert.Equal(t, "42.5", amount(cart.Cost.TotalAmount))
}

func TestAdd_ExistingLineIncrements(t *testing.T) {
	agg := New("USD")
	v := vaseVariant("var-a", "10")
	cart := agg.Add(agg.Add(agg.Empty(), v, vaseProduct()), v, vaseProduct())

	require.Len(t, cart.Lines, 1)
	assert.Equal(t, 2, cart.Lines[0].Quantity)
	assert.Equal(t, "20", amount(cart.Lines[0].Cost.TotalAmount))
	assert.Equal(t, 2, cart.TotalQuantity)
}

func TestAdd_AppendsInInsertionOrder(t *testing.T) {
	agg := New("USD")
	cart := agg.Empty()
	cart = agg.Add(cart, vaseVariant("b", "99"), vaseProduct())
	cart = agg.Add(cart, vaseVariant("a", "1"), vaseProduct())
	cart = agg.Add(cart, vaseVariant("c", "50"), vaseProduct())

	ids := []string{}
	for _, l := range cart.Lines {
		ids = append(ids, l.Merchandise.ID)
	}
	assert.Equal(t, []string{"b", "a", "c"}, ids)
	assert.Equal(t, "150", amount(cart.Cost.TotalAmount))
}

func TestIncrement_UsesPriceAtAdd(t *testing.T) {
	agg := New("USD")
	cart := agg.withTotals(domain.Cart{Lines: []domain.CartLine{lineFor("var-a", 2, "20")}})

	got := agg.Increment(cart, "var-a")

	require.Len(t, got.Lines, 1)
	assert.Equal(t, 3, got.Lines[0].Quantity)
	assert.Equal(t, "30", amount(got.Lines[0].Cost.TotalAmount))
	assert.Equal(t, "30", amount(got.Cost.TotalAmount))
	assert.Equal(t, 3, got.TotalQuantity)

	// Adding again after a catalog price change keeps the first unit price.
	got = agg.Add(got, vaseVariant("var-a", "15"), vaseProduct())
	assert.Equal(t, "40", amount(got.Lines[0].Cost.TotalAmount))
}

func TestDecrement_ToZeroRemovesLine(t *testing.T) {
	agg := New("USD")
	cart := agg.withTotals(domain.Cart{ID: "cart-1", CheckoutURL: "https://shop/checkout/1", Lines: []domain.CartLine{lineFor("var-a", 1, "10")}})

	got := agg.Decrement(cart, "var-a")

	assert.Empty(t, got.Lines)
	assert.Equal(t, 0, got.TotalQuantity)
	assert.Equal(t, "0", amount(got.Cost.TotalAmount))
	assert.Equal(t, "USD", got.Cost.TotalAmount.CurrencyCode)
	assert.Equal(t, "cart-1", got.ID)
	assert.Equal(t, "https://shop/checkout/1", got.CheckoutURL)
}

func TestDecrement_KeepsUnitPrice(t *testing.T) {
	agg := New("USD")
	cart := agg.withTotals(domain.Cart{Lines: []domain.CartLine{lineFor("var-a", 3, "29.97")}})
	got := agg.Decrement(cart, "var-a")
	assert.Equal(t, 2, got.Lines[0].Quantity)
	assert.Equal(t, "19.98", amount(got.Lines[0].Cost.TotalAmount))
}

func TestDecrement_UnevenTotalRoundsUnitPrice(t *testing.T) {
	agg := New("USD")
	cart := agg.withTotals(domain.Cart{Lines: []domain.CartLine{lineFor("var-a", 3, "10")}})

	got := agg.Decrement(cart, "var-a")
	assert.Equal(t, "6.66", amount(got.Lines[0].Cost.TotalAmount))
	assert.Equal(t, "6.66", amount(got.Cost.TotalAmount))

	// Once rounded the unit price is stable.
	got = agg.Increment(got, "var-a")
	assert.Equal(t, "9.99", amount(got.Lines[0].Cost.TotalAmount))
}

func TestDecrement_KeepsFinerScale(t *testing.T) {
	agg := New("KWD")
	line := lineFor("var-a", 2, "2.250")
	line.Cost.TotalAmount.CurrencyCode = "KWD"
	cart := agg.withTotals(domain.Cart{Lines: []domain.CartLine{line}})

	got := agg.Decrement(cart, "var-a")
	assert.Equal(t, "1.125", amount(got.Lines[0].Cost.TotalAmount))
}

func TestRemove_DropsLineRegardlessOfQuantity(t *testing.T) {
	agg := New("USD")
	cart := agg.withTotals(domain.Cart{Lines: []domain.CartLine{lineFor("a", 5, "50"), lineFor("b", 1, "7")}})
	got := agg.Remove(cart, "a")
	require.Len(t, got.Lines, 1)
	assert.Equal(t, "b", got.Lines[0].Merchandise.ID)
	assert.Equal(t, 1, got.TotalQuantity)
	assert.Equal(t, "7", amount(got.Cost.TotalAmount))
}

func TestUnknownLineIsNoop(t *testing.T) {
	agg := New("USD")
	cart := agg.withTotals(domain.Cart{ID: "c", Lines: []domain.CartLine{lineFor("a", 2, "20")}})

	assert.Equal(t, cart, agg.Remove(cart, "missing"))
	assert.Equal(t, cart, agg.Increment(cart, "missing"))
	assert.Equal(t, cart, agg.Decrement(cart, "missing"))
}

func TestRemove_Idempotent(t *testing.T) {
	agg := New("USD")
	cart := agg.withTotals(domain.Cart{Lines: []domain.CartLine{lineFor("a", 1, "5")}})
	once := agg.Remove(cart, "a")
	twice := agg.Remove(once, "a")
	assert.Equal(t, once, twice)
}

func TestOperationsDoNotMutateInput(t *testing.T) {
	agg := New("USD")
	cart := agg.withTotals(domain.Cart{Lines: []domain.CartLine{lineFor("a", 2, "20"), lineFor("b", 1, "5")}})
	before := cart.Lines[0]

	_ = agg.Increment(cart, "a")
	_ = agg.Decrement(cart, "a")
	_ = agg.Remove(cart, "b")
	_ = agg.Add(cart, vaseVariant("c", "1"), vaseProduct())

	assert.Equal(t, before, cart.Lines[0])
	assert.Len(t, cart.Lines, 2)
	assert.Equal(t, 3, cart.TotalQuantity)
}

func TestUnaffectedLinesPassThrough(t *testing.T) {
	agg := New("USD")
	cart := agg.withTotals(domain.Cart{Lines: []domain.CartLine{lineFor("a", 2, "20"), lineFor("b", 1, "5")}})
	got := agg.Increment(cart, "a")
	assert.Equal(t, cart.Lines[1], got.Lines[1])
}

func TestCurrencyFromFirstLine(t *testing.T) {
	agg := New("USD")
	line := lineFor("a", 1, "12")
	line.Cost.TotalAmount.CurrencyCode = "CAD"
	got := agg.withTotals(domain.Cart{Lines: []domain.CartLine{line}})
	assert.Equal(t, "CAD", got.Cost.TotalAmount.CurrencyCode)
	assert.Equal(t, "CAD", got.Cost.SubtotalAmount.CurrencyCode)
}

func TestApply_UnknownKind(t *testing.T) {
	agg := New("USD")
	cart := agg.Empty()
	got, err := agg.Apply(cart, Mutation{Kind: "explode"})
	assert.ErrorIs(t, err, ErrUnknownMutation)
	assert.Equal(t, cart, got)
}

func TestApplyAll(t *testing.T) {
	agg := New("USD")
	a := vaseVariant("a", "10")
	b := vaseVariant("b", "4")
	cart, err := agg.ApplyAll(agg.Empty(),
		AddMutation(a, vaseProduct()),
		AddMutation(b, vaseProduct()),
		IncrementMutation("a"),
		DecrementMutation("b"),
		IncrementMutation("missing"),
	)
	require.NoError(t, err)
	require.Len(t, cart.Lines, 1)
	assert.Equal(t, 2, cart.TotalQuantity)
	assert.Equal(t, "20", amount(cart.Cost.TotalAmount))
}

// Random sequences of mutations must keep cart totals equal to the sum of lines
// and never leave a line with quantity below one.
func TestRandomMutationSequences(t *testing.T) {
	agg := New("USD")
	variants := []domain.ProductVariant{
		vaseVariant("a", "12.5"),
		vaseVariant("b", "3"),
		vaseVariant("c", "0.99"),
		vaseVariant("d", "100"),
	}
	rng := rand.New(rand.NewSource(42))

	for run := 0; run < 200; run++ {
		cart := agg.Empty()
		for step := 0; step < 40; step++ {
			v := variants[rng.Intn(len(variants))]
			var m Mutation
			switch rng.Intn(4) {
			case 0:
				m = AddMutation(v, vaseProduct())
			case 1:
				m = IncrementMutation(v.ID)
			case 2:
				m = DecrementMutation(v.ID)
			default:
				m = RemoveMutation(v.ID)
			}
			next, err := agg.Apply(cart, m)
			require.NoError(t, err)
			cart = next

			quantity := 0
			total := decimal.Zero
			seen := map[string]bool{}
			for _, l := range cart.Lines {
				require.GreaterOrEqual(t, l.Quantity, 1)
				require.False(t, seen[l.Merchandise.ID], "duplicate line for %s", l.Merchandise.ID)
				seen[l.Merchandise.ID] = true
				quantity += l.Quantity
				total = total.Add(l.Cost.TotalAmount.Amount)

				var price decimal.Decimal
				for _, candidate := range variants {
					if candidate.ID == l.Merchandise.ID {
						price = candidate.Price.Amount
					}
				}
				require.True(t, price.Mul(decimal.NewFromInt(int64(l.Quantity))).Equal(l.Cost.TotalAmount.Amount))
			}
			require.Equal(t, quantity, cart.TotalQuantity)
			require.True(t, total.Equal(cart.Cost.TotalAmount.Amount))
			require.True(t, cart.Cost.SubtotalAmount.Amount.Equal(cart.Cost.TotalAmount.Amount))
			if len(cart.Lines) == 0 {
				require.Equal(t, "0", amount(cart.Cost.TotalAmount))
			}
		}
	}
}
