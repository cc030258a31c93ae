package variant

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/domain"
)

func sizeOptions() []domain.ProductOption {
	return []domain.ProductOption{{ID: "opt-size", Name: "Size", Values: []string{"S", "M", "L"}}}
}

func sizeVariants() []domain.ProductVariant {
	return []domain.ProductVariant{
		newVariant("v-s", true, "Size", "S"),
		newVariant("v-m", false, "Size", "M"),
		newVariant("v-l", true, "Size", "L"),
	}
}

// mugOptions models a two-axis product: Size x Glaze.
func mugOptions() []domain.ProductOption {
	return []domain.ProductOption{
		{Name: "Size", Values: []string{"Small", "Large"}},
		{Name: "Glaze", Values: []string{"Speckled", "Celadon", "Tenmoku"}},
	}
}

func mugVariants() []domain.ProductVariant {
	return []domain.ProductVariant{
		newVariant("small-speckled", true, "Size", "Small", "Glaze", "Speckled"),
		newVariant("small-celadon", false, "Size", "Small", "Glaze", "Celadon"),
		newVariant("small-tenmoku", true, "Size", "Small", "Glaze", "Tenmoku"),
		newVariant("large-speckled", false, "Size", "Large", "Glaze", "Speckled"),
		newVariant("large-celadon", true, "Size", "Large", "Glaze", "Celadon"),
	}
}

func newVariant(id string, available bool, pairs ...string) domain.ProductVariant {
	v := domain.ProductVariant{
		ID:               id,
		Title:            id,
		Price:            domain.MustMoney("10", "USD"),
		AvailableForSale: available,
	}
	for i := 0; i+1 < len(pairs); i += 2 {
		v.SelectedOptions = append(v.SelectedOptions, domain.SelectedOption{Name: pairs[i], Value: pairs[i+1]})
	}
	return v
}

func TestAvailableValues_SkipsSoldOut(t *testing.T) {
	got := AvailableValues(sizeVariants(), sizeOptions(), Selection{}, "Size")
	assert.Equal(t, []string{"S", "L"}, got)
}

func TestAvailableValues_KeepsDeclarationOrder(t *testing.T) {
	options := []domain.ProductOption{{Name: "Size", Values: []string{"L", "S", "M"}}}
	got := AvailableValues(sizeVariants(), options, Selection{}, "Size")
	assert.Equal(t, []string{"L", "S"}, got)
}

func TestAvailableValues_UnknownOption(t *testing.T) {
	assert.Nil(t, AvailableValues(sizeVariants(), sizeOptions(), Selection{}, "Color"))
}

func TestAvailableValues_RespectsSiblingSelection(t *testing.T) {
	got := AvailableValues(mugVariants(), mugOptions(), Selection{"Size": "Small"}, "Glaze")
	assert.Equal(t, []string{"Speckled", "Tenmoku"}, got)

	got = AvailableValues(mugVariants(), mugOptions(), Selection{"Size": "Large"}, "Glaze")
	assert.Equal(t, []string{"Celadon"}, got)
}

func TestAvailableValues_OverridesCurrentValueOfSameOption(t *testing.T) {
	got := AvailableValues(mugVariants(), mugOptions(), Selection{"Size": "Small", "Glaze": "Celadon"}, "Size")
	assert.Equal(t, []string{"Large"}, got)
}

func TestResolve_ReturnsUnavailableVariant(t *testing.T) {
	got, err := Resolve(sizeOptions(), sizeVariants(), Selection{"Size": "M"})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "v-m", got.ID)
	assert.False(t, got.AvailableForSale)
}

func TestResolve_NoMatch(t *testing.T) {
	got, err := Resolve(sizeOptions(), sizeVariants(), Selection{"Size": "XL"})
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestResolve_PartialSelectionReturnsFirstMatch(t *testing.T) {
	got, err := Resolve(mugOptions(), mugVariants(), Selection{"Size": "Large"})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "large-speckled", got.ID)
}

func TestResolve_EmptySelectionReturnsFirstVariant(t *testing.T) {
	got, err := Resolve(mugOptions(), mugVariants(), Selection{})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "small-speckled", got.ID)
}

func TestResolve_FullSelectionDuplicateIsReported(t *testing.T) {
	variants := append(mugVariants(), newVariant("dup", true, "Size", "Small", "Glaze", "Tenmoku"))
	got, err := Resolve(mugOptions(), variants, Selection{"Size": "Small", "Glaze": "Tenmoku"})
	assert.Nil(t, got)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAmbiguousVariant))

	var ambiguous *AmbiguousVariantError
	require.True(t, errors.As(err, &ambiguous))
	assert.Equal(t, []string{"small-tenmoku", "dup"}, ambiguous.VariantIDs)
}

func TestResolve_PartialSelectionToleratesDuplicates(t *testing.T) {
	variants := append(mugVariants(), newVariant("dup", true, "Size", "Small", "Glaze", "Tenmoku"))
	got, err := Resolve(mugOptions(), variants, Selection{"Glaze": "Tenmoku"})
	require.NoError(t, err)
	assert.Equal(t, "small-tenmoku", got.ID)
}

func TestResolve_MalformedVariantNeverMatches(t *testing.T) {
	variants := []domain.ProductVariant{
		newVariant("broken", true, "Size", "Small"),
		newVariant("ok", true, "Size", "Small", "Glaze", "Speckled"),
	}
	got, err := Resolve(mugOptions(), variants, Selection{"Size": "Small", "Glaze": "Speckled"})
	require.NoError(t, err)
	assert.Equal(t, "ok", got.ID)

	assert.False(t, IsOptionValueAvailable(variants[:1], Selection{"Size": "Small"}, "Glaze", "Speckled"))
}

func TestResolve_ZeroOptions(t *testing.T) {
	single := []domain.ProductVariant{newVariant("only", true)}

	got, err := Resolve(nil, single, Selection{})
	require.NoError(t, err)
	assert.Equal(t, "only", got.ID)

	got, err = Resolve(nil, nil, Selection{})
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = Resolve(nil, append(single, newVariant("other", true)), Selection{})
	assert.ErrorIs(t, err, ErrAmbiguousVariant)
}

func TestResolve_IsPure(t *testing.T) {
	sel := Selection{"Size": "Small", "Glaze": "Celadon"}
	first, err1 := Resolve(mugOptions(), mugVariants(), sel)
	second, err2 := Resolve(mugOptions(), mugVariants(), sel)
	assert.Equal(t, err1, err2)
	assert.Equal(t, first, second)
	assert.Equal(t, Selection{"Size": "Small", "Glaze": "Celadon"}, sel)
}

func TestResolve_FullSelectionMatchesAtMostOne(t *testing.T) {
	options := mugOptions()
	variants := mugVariants()
	for _, size := range options[0].Values {
		for _, glaze := range options[1].Values {
			sel := Selection{"Size": size, "Glaze": glaze}
			count := 0
			for _, v := range variants {
				if Matches(v, sel) {
					count++
				}
			}
			assert.LessOrEqual(t, count, 1, "selection %s", sel)
			_, err := Resolve(options, variants, sel)
			assert.NoError(t, err)
		}
	}
}

func TestIsOptionValueAvailable_ImpliesPurchasableVariant(t *testing.T) {
	options := mugOptions()
	variants := mugVariants()
	selections := []Selection{{}, {"Size": "Small"}, {"Glaze": "Celadon"}, {"Size": "Large", "Glaze": "Tenmoku"}}
	for _, sel := range selections {
		for _, o := range options {
			for _, value := range o.Values {
				if !IsOptionValueAvailable(variants, sel, o.Name, value) {
					continue
				}
				trial := sel.With(o.Name, value)
				found := false
				for _, v := range variants {
					if v.AvailableForSale && Matches(v, trial) {
						found = true
					}
				}
				assert.True(t, found, "%s=%s on %s", o.Name, value, sel)
			}
		}
	}
}

func TestIsOptionValueAvailable_DoesNotMutateSelection(t *testing.T) {
	sel := Selection{"Size": "Small"}
	IsOptionValueAvailable(mugVariants(), sel, "Size", "Large")
	assert.Equal(t, "Small", sel["Size"])
}
