package domain

import "github.com/shopspring/decimal"

// Money is an amount in a single currency. Amount marshals as a JSON string.
type Money struct {
	Amount       decimal.Decimal `json:"amount"`
	CurrencyCode string          `json:"currencyCode"`
}

// ZeroMoney returns "0" in the given currency.
func ZeroMoney(currency string) Money {
	return Money{Amount: decimal.Zero, CurrencyCode: currency}
}

// NewMoney parses a decimal string amount.
func NewMoney(amount, currency string) (Money, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return Money{}, err
	}
	return Money{Amount: d, CurrencyCode: currency}, nil
}

// MustMoney is NewMoney for literals in seeds and tests.
func MustMoney(amount, currency string) Money {
	m, err := NewMoney(amount, currency)
	if err != nil {
		panic(err)
	}
	return m
}

func (m Money) String() string {
	return m.Amount.String() + " " + m.CurrencyCode
}
