// Package variant maps option selections to product variants and computes
// which option values remain purchasable. All functions are pure.
package variant

import (
	"errors"
	"fmt"
	"strings"

	"storefront/internal/domain"
)

// ErrAmbiguousVariant means two variants share an identical option assignment.
var ErrAmbiguousVariant = errors.New("ambiguous variant selection")

// AmbiguousVariantError reports the variants matched by a full selection.
type AmbiguousVariantError struct {
	Selection  Selection
	VariantIDs []string
}

func (e *AmbiguousVariantError) Error() string {
	return fmt.Sprintf("%v: selection %s matches variants %s", ErrAmbiguousVariant, e.Selection, strings.Join(e.VariantIDs, ", "))
}

func (e *AmbiguousVariantError) Unwrap() error {
	return ErrAmbiguousVariant
}

// Resolve returns the variant matching every entry of sel.
//
// A partial selection resolves to the first matching variant in input order.
// A full selection (an entry for every option) matching more than one variant
// returns an *AmbiguousVariantError. No match is (nil, nil).
func Resolve(options []domain.ProductOption, variants []domain.ProductVariant, sel Selection) (*domain.ProductVariant, error) {
	if len(options) == 0 {
		switch len(variants) {
		case 0:
			return nil, nil
		case 1:
			v := variants[0]
			return &v, nil
		default:
			return nil, &AmbiguousVariantError{Selection: sel.Clone(), VariantIDs: variantIDs(variants)}
		}
	}

	full := sel.Covers(options)
	var matched []domain.ProductVariant
	for _, v := range variants {
		if !Matches(v, sel) {
			continue
		}
		if !full {
			return &v, nil
		}
		matched = append(matched, v)
	}

	switch len(matched) {
	case 0:
		return nil, nil
	case 1:
		return &matched[0], nil
	default:
		return nil, &AmbiguousVariantError{Selection: sel.Clone(), VariantIDs: variantIDs(matched)}
	}
}

// Matches reports whether v carries an equal value for every entry in sel.
// A variant missing one of the selected options never matches.
func Matches(v domain.ProductVariant, sel Selection) bool {
	for name, want := range sel {
		got, ok := v.OptionValue(name)
		if !ok || got != want {
			return false
		}
	}
	return true
}

// IsOptionValueAvailable forces optionName to candidate on top of sel and reports
// whether some variant for sale matches the result.
func IsOptionValueAvailable(variants []domain.ProductVariant, sel Selection, optionName, candidate string) bool {
	trial := sel.With(optionName, candidate)
	for _, v := range variants {
		if v.AvailableForSale && Matches(v, trial) {
			return true
		}
	}
	return false
}

// AvailableValues filters an option's declared values to the available ones,
// keeping declaration order. An unknown option yields nil.
func AvailableValues(variants []domain.ProductVariant, options []domain.ProductOption, sel Selection, optionName string) []string {
	opt, ok := findOption(options, optionName)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(opt.Values))
	for _, value := range opt.Values {
		if IsOptionValueAvailable(variants, sel, optionName, value) {
			out = append(out, value)
		}
	}
	return out
}

func findOption(options []domain.ProductOption, name string) (domain.ProductOption, bool) {
	for _, o := range options {
		if o.Name == name {
			return o, true
		}
	}
	return domain.ProductOption{}, false
}

func variantIDs(variants []domain.ProductVariant) []string {
	ids := make([]string, 0, len(variants))
	for _, v := range variants {
		ids = append(ids, v.ID)
	}
	return ids
}
