package envelope

import "fmt"

// Money represents a monetary amount in minor units (eg. cents)
// of a given currency
type Money struct {
	Amount   int64
	Currency string
}

// NewMoney constructs Money from an amount in minor units
func NewMoney(amount int64, currency string) Money {
	return Money{
		Amount:   amount,
		Currency: currency,
	}
}

// Add returns the sum of two amounts (currencies are checked by the
// aggregate before arithmetic ever happens)
func (m Money) Add(other Money) Money {
	return Money{
		Amount:   m.Amount + other.Amount,
		Currency: m.Currency,
	}
}

// Sub returns the difference of two amounts
func (m Money) Sub(other Money) Money {
	return Money{
		Amount:   m.Amount - other.Amount,
		Currency: m.Currency,
	}
}

// GreaterThan reports whether m is strictly greater than other
func (m Money) GreaterThan(other Money) bool {
	return m.Amount > other.Amount
}

// IsNegative reports whether the amount is below zero
func (m Money) IsNegative() bool {
	return m.Amount < 0
}

// IsPositive reports whether the amount is above zero
func (m Money) IsPositive() bool {
	return m.Amount > 0
}

// String renders the amount with two decimal places
func (m Money) String() string {
	return fmt.Sprintf("%d.%02d %s", m.Amount/100, m.Amount%100, m.Currency)
}
