package domain

// Cart is an immutable snapshot. ID and CheckoutURL are assigned by the cart store.
type Cart struct {
	ID            string     `json:"id,omitempty"`
	CheckoutURL   string     `json:"checkoutUrl"`
	TotalQuantity int        `json:"totalQuantity"`
	Lines         []CartLine `json:"lines"`
	Cost          CartCost   `json:"cost"`
	Version       int        `json:"version"`
}

type CartCost struct {
	SubtotalAmount Money `json:"subtotalAmount"`
	TotalAmount    Money `json:"totalAmount"`
	TotalTaxAmount Money `json:"totalTaxAmount"`
}

// CartLine is a quantity of one variant. Cost.TotalAmount is quantity times unit price.
type CartLine struct {
	ID          string      `json:"id,omitempty"`
	Quantity    int         `json:"quantity"`
	Merchandise Merchandise `json:"merchandise"`
	Cost        LineCost    `json:"cost"`
}

type LineCost struct {
	TotalAmount Money `json:"totalAmount"`
}

// Merchandise is the variant and product identity attached to a line.
type Merchandise struct {
	ID              string             `json:"id"`
	Title           string             `json:"title"`
	SelectedOptions []SelectedOption   `json:"selectedOptions"`
	Product         MerchandiseProduct `json:"product"`
}

type MerchandiseProduct struct {
	ID            string `json:"id"`
	Handle        string `json:"handle"`
	Title         string `json:"title"`
	FeaturedImage *Image `json:"featuredImage,omitempty"`
}

// Line returns the line holding the given variant.
func (c Cart) Line(merchandiseID string) (CartLine, bool) {
	for _, l := range c.Lines {
		if l.Merchandise.ID == merchandiseID {
			return l, true
		}
	}
	return CartLine{}, false
}
