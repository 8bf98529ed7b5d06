package valueobject

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Currency represents a currency code (ISO 4217)
type Currency string

const (
	USD Currency = "USD" // US Dollar
	EUR Currency = "EUR" // Euro
	GBP Currency = "GBP" // British Pound
	JPY Currency = "JPY" // Japanese Yen
	CNY Currency = "CNY" // Chinese Yuan
)

// DefaultCurrency is the default currency for the system
const DefaultCurrency = USD

// minorUnitExponents maps a currency to the number of digits after the
// decimal point in its minor unit (ISO 4217 exponent).
var minorUnitExponents = map[Currency]int32{
	USD: 2,
	EUR: 2,
	GBP: 2,
	JPY: 0,
	CNY: 2,
}

// Exponent returns the ISO 4217 minor-unit exponent for the currency.
// Unknown currencies default to 2.
func (c Currency) Exponent() int32 {
	if exp, ok := minorUnitExponents[c]; ok {
		return exp
	}
	return 2
}

// IsValid checks whether the currency is one the system knows about
func (c Currency) IsValid() bool {
	_, ok := minorUnitExponents[c]
	return ok
}

// Money is a value object representing a monetary amount in integer minor
// units (cents for USD). It is immutable - all operations return new Money
// instances. Storing integers avoids rounding drift on persisted totals;
// decimal conversion is only for display and parsing.
type Money struct {
	cents    int64
	currency Currency
}

// NewMoney creates a new Money with the specified minor-unit amount and currency
func NewMoney(cents int64, currency Currency) (Money, error) {
	if currency == "" {
		return Money{}, errors.New("currency cannot be empty")
	}
	return Money{cents: cents, currency: currency}, nil
}

// MustMoney creates Money and panics on invalid currency. For literals in tests.
func MustMoney(cents int64, currency Currency) Money {
	m, err := NewMoney(cents, currency)
	if err != nil {
		panic(err)
	}
	return m
}

// NewMoneyFromDecimal creates Money from a decimal major-unit amount,
// e.g. 19.99 USD -> 1999 cents. Fails if the amount has more precision
// than the currency's minor unit can hold.
func NewMoneyFromDecimal(amount decimal.Decimal, currency Currency) (Money, error) {
	if currency == "" {
		return Money{}, errors.New("currency cannot be empty")
	}
	shifted := amount.Shift(currency.Exponent())
	if !shifted.IsInteger() {
		return Money{}, fmt.Errorf("amount %s has sub-minor-unit precision for %s", amount, currency)
	}
	return Money{cents: shifted.IntPart(), currency: currency}, nil
}

// NewMoneyFromString creates Money from a major-unit string representation
func NewMoneyFromString(amount string, currency Currency) (Money, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return Money{}, fmt.Errorf("invalid amount string: %w", err)
	}
	return NewMoneyFromDecimal(d, currency)
}

// Zero returns a zero-value Money in the specified currency
func Zero(currency Currency) Money {
	return Money{cents: 0, currency: currency}
}

// Cents returns the amount in integer minor units
func (m Money) Cents() int64 {
	return m.cents
}

// Currency returns the currency code
func (m Money) Currency() Currency {
	return m.currency
}

// Decimal returns the amount as a major-unit decimal, e.g. 1999 -> 19.99
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.cents, -m.currency.Exponent())
}

// Add returns the sum of two Money values. Currencies must match.
func (m Money) Add(other Money) (Money, error) {
	if m.currency != other.currency {
		return Money{}, fmt.Errorf("currency mismatch: %s vs %s", m.currency, other.currency)
	}
	return Money{cents: m.cents + other.cents, currency: m.currency}, nil
}

// Sub returns the difference of two Money values. Currencies must match.
func (m Money) Sub(other Money) (Money, error) {
	if m.currency != other.currency {
		return Money{}, fmt.Errorf("currency mismatch: %s vs %s", m.currency, other.currency)
	}
	return Money{cents: m.cents - other.cents, currency: m.currency}, nil
}

// MulInt returns the Money multiplied by an integer factor
func (m Money) MulInt(factor int64) Money {
	return Money{cents: m.cents * factor, currency: m.currency}
}

// IsZero reports whether the amount is zero
func (m Money) IsZero() bool {
	return m.cents == 0
}

// IsNegative reports whether the amount is negative
func (m Money) IsNegative() bool {
	return m.cents < 0
}

// Equal reports whether two Money values have the same amount and currency
func (m Money) Equal(other Money) bool {
	return m.cents == other.cents && m.currency == other.currency
}

// GreaterThanOrEqual reports whether m >= other. Currencies must match for a
// meaningful comparison; mismatched currencies compare false.
func (m Money) GreaterThanOrEqual(other Money) bool {
	return m.currency == other.currency && m.cents >= other.cents
}

// String returns a human-readable representation, e.g. "19.99 USD"
func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.Decimal().StringFixed(m.currency.Exponent()), m.currency)
}

// moneyJSON is the JSON wire shape for Money
type moneyJSON struct {
	Cents    int64    `json:"cents"`
	Currency Currency `json:"currency"`
}

// MarshalJSON implements json.Marshaler
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(moneyJSON{Cents: m.cents, Currency: m.currency})
}

// UnmarshalJSON implements json.Unmarshaler
func (m *Money) UnmarshalJSON(data []byte) error {
	var raw moneyJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	m.cents = raw.Cents
	m.currency = raw.Currency
	return nil
}

// Value implements driver.Valuer, persisting the minor-unit amount
func (m Money) Value() (driver.Value, error) {
	return m.cents, nil
}

// Scan implements sql.Scanner for the minor-unit amount. The currency must be
// restored by the owning aggregate's row.
func (m *Money) Scan(value interface{}) error {
	switch v := value.(type) {
	case int64:
		m.cents = v
		return nil
	case nil:
		m.cents = 0
		return nil
	default:
		return fmt.Errorf("cannot scan %T into Money", value)
	}
}
