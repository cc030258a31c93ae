package variant

import "storefront/internal/domain"

// ValueState is the display state of one option value.
type ValueState struct {
	Value     string `json:"value"`
	Selected  bool   `json:"selected"`
	Available bool   `json:"available"`
}

// OptionState is one option with the state of each of its values.
type OptionState struct {
	Name   string       `json:"name"`
	Values []ValueState `json:"values"`
}

// Matrix computes selected and available flags for every declared option value.
func Matrix(options []domain.ProductOption, variants []domain.ProductVariant, sel Selection) []OptionState {
	out := make([]OptionState, 0, len(options))
	for _, o := range options {
		state := OptionState{Name: o.Name, Values: make([]ValueState, 0, len(o.Values))}
		for _, value := range o.Values {
			state.Values = append(state.Values, ValueState{
				Value:     value,
				Selected:  sel[o.Name] == value,
				Available: IsOptionValueAvailable(variants, sel, o.Name, value),
			})
		}
		out = append(out, state)
	}
	return out
}
