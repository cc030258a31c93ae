package variant

import (
	"net/url"
	"sort"
	"strings"

	"storefront/internal/domain"
)

// Selection maps option name to chosen value. It may be partial.
type Selection map[string]string

// Clone returns an independent copy.
func (s Selection) Clone() Selection {
	out := make(Selection, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// With returns a copy with name set to value.
func (s Selection) With(name, value string) Selection {
	out := s.Clone()
	out[name] = value
	return out
}

// Covers reports whether every option has an entry.
func (s Selection) Covers(options []domain.ProductOption) bool {
	for _, o := range options {
		if _, ok := s[o.Name]; !ok {
			return false
		}
	}
	return true
}

func (s Selection) String() string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+s[k])
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// Select sets one option, replacing any prior value for it. Sibling entries are
// kept even if the combination is no longer available.
func Select(sel Selection, optionName, value string) Selection {
	return sel.With(optionName, value)
}

// FromVariant builds the selection a variant represents.
func FromVariant(v domain.ProductVariant) Selection {
	out := make(Selection, len(v.SelectedOptions))
	for _, o := range v.SelectedOptions {
		out[o.Name] = o.Value
	}
	return out
}

// InitialSelection seeds the selection when a product page loads. Sources are
// tried in order and never merged: requested values when every one is a valid
// option value, then the current variant, then each option's first value.
func InitialSelection(options []domain.ProductOption, requested map[string]string, current *domain.ProductVariant) Selection {
	if len(requested) > 0 && validRequest(options, requested) {
		out := make(Selection, len(requested))
		for k, v := range requested {
			out[k] = v
		}
		return out
	}
	if current != nil {
		return FromVariant(*current)
	}
	out := make(Selection, len(options))
	for _, o := range options {
		if len(o.Values) > 0 {
			out[o.Name] = o.Values[0]
		}
	}
	return out
}

func validRequest(options []domain.ProductOption, requested map[string]string) bool {
	for name, value := range requested {
		opt, ok := findOption(options, name)
		if !ok || !contains(opt.Values, value) {
			return false
		}
	}
	return true
}

// SelectionFromQuery picks query parameters named after product options.
// Names match case-insensitively; the option's declared name is used as key.
func SelectionFromQuery(options []domain.ProductOption, query url.Values) map[string]string {
	out := map[string]string{}
	for key, values := range query {
		if len(values) == 0 {
			continue
		}
		for _, o := range options {
			if strings.EqualFold(o.Name, key) {
				out[o.Name] = values[0]
				break
			}
		}
	}
	return out
}

// Query renders a selection as URL query values.
func (s Selection) Query() url.Values {
	q := url.Values{}
	for k, v := range s {
		q.Set(strings.ToLower(k), v)
	}
	return q
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
