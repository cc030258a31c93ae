package domain

import "time"

// ProductOption is one axis of configuration, e.g. Size. Values are in display order.
type ProductOption struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Values []string `json:"values"`
}

type SelectedOption struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// ProductVariant is one purchasable SKU: exactly one value per product option.
type ProductVariant struct {
	ID                string           `json:"id"`
	Title             string           `json:"title"`
	Price             Money            `json:"price"`
	AvailableForSale  bool             `json:"availableForSale"`
	SelectedOptions   []SelectedOption `json:"selectedOptions"`
	SKU               string           `json:"sku,omitempty"`
	QuantityAvailable *int             `json:"quantityAvailable,omitempty"`
}

// OptionValue returns the variant's value for the named option.
func (v ProductVariant) OptionValue(name string) (string, bool) {
	for _, o := range v.SelectedOptions {
		if o.Name == name {
			return o.Value, true
		}
	}
	return "", false
}

type Image struct {
	URL     string `json:"url"`
	AltText string `json:"altText,omitempty"`
	Width   int    `json:"width,omitempty"`
	Height  int    `json:"height,omitempty"`
}

type Product struct {
	ID            string           `json:"id"`
	Handle        string           `json:"handle"`
	Title         string           `json:"title"`
	Description   string           `json:"description,omitempty"`
	Options       []ProductOption  `json:"options"`
	Variants      []ProductVariant `json:"variants"`
	FeaturedImage *Image           `json:"featuredImage,omitempty"`
	Images        []Image          `json:"images,omitempty"`
	Collections   []string         `json:"collections,omitempty"`
	UpdatedAt     time.Time        `json:"updatedAt"`
}

// AvailableForSale reports whether any variant can be bought.
func (p Product) AvailableForSale() bool {
	for _, v := range p.Variants {
		if v.AvailableForSale {
			return true
		}
	}
	return false
}

// PriceRange returns the lowest and highest variant prices. ok is false without variants.
func (p Product) PriceRange() (minPrice, maxPrice Money, ok bool) {
	for i, v := range p.Variants {
		if i == 0 {
			minPrice, maxPrice = v.Price, v.Price
			continue
		}
		if v.Price.Amount.LessThan(minPrice.Amount) {
			minPrice = v.Price
		}
		if v.Price.Amount.GreaterThan(maxPrice.Amount) {
			maxPrice = v.Price
		}
	}
	return minPrice, maxPrice, len(p.Variants) > 0
}
