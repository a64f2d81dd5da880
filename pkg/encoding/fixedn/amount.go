package fixedn

import (
	"encoding/json"
	"fmt"
	"math/big"
)

// Amount is an integer value scaled by 10^Decimals, like a wei amount
// (Decimals 18) or a token balance. Zero Amount is a zero with no decimals.
type Amount struct {
	Value    *big.Int
	Decimals int
}

// NewAmount returns an Amount of the given whole units, that is
// amount*10^decimals.
func NewAmount(amount int64, decimals int) Amount {
	return Amount{Value: ScaleInt64(amount, decimals), Decimals: decimals}
}

// Ether returns an Amount of the given whole ether in wei.
func Ether(amount int64) Amount {
	return NewAmount(amount, DefaultDecimals)
}

// AmountFromString parses a decimal string into an Amount with the given
// precision.
func AmountFromString(s string, decimals int) (Amount, error) {
	v, err := FromString(s, decimals)
	if err != nil {
		return Amount{}, err
	}
	return Amount{Value: v, Decimals: decimals}, nil
}

// Int returns the scaled integer value (never nil).
func (a Amount) Int() *big.Int {
	if a.Value == nil {
		return new(big.Int)
	}
	return a.Value
}

// IntegralValue returns the integer part of the unscaled value.
func (a Amount) IntegralValue() *big.Int {
	return Unscale(a.Int(), a.Decimals)
}

// String implements the fmt.Stringer interface, it returns the unscaled
// decimal value ("1.5" for 1500000000000000000 with 18 decimals).
func (a Amount) String() string {
	return ToString(a.Int(), a.Decimals)
}

// Cmp compares two amounts with the same precision.
func (a Amount) Cmp(b Amount) int {
	return a.Int().Cmp(b.Int())
}

func (a *Amount) setFromString(s string) error {
	if a.Decimals == 0 {
		a.Decimals = DefaultDecimals
	}
	v, err := FromString(s, a.Decimals)
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", s, err)
	}
	a.Value = v
	return nil
}

// UnmarshalJSON implements the json.Unmarshaler interface. Both numbers and
// strings are accepted, an Amount without Decimals set is parsed as ether.
func (a *Amount) UnmarshalJSON(data []byte) error {
	if len(data) > 2 && data[0] == '"' && data[len(data)-1] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		return a.setFromString(s)
	}
	return a.setFromString(string(data))
}

// MarshalJSON implements the json.Marshaler interface.
func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalYAML implements the yaml.Unmarshaler interface.
func (a *Amount) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	return a.setFromString(s)
}

// MarshalYAML implements the yaml.Marshaler interface.
func (a Amount) MarshalYAML() (any, error) {
	return a.String(), nil
}
