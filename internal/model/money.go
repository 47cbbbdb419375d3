package model

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// Money is a fixed-point currency amount in cents. All bid math is integer
// arithmetic so repeated re-analysis of the same fact sheet never drifts.
type Money int64

// Cents constructs a Money from a raw cent count.
func Cents(c int64) Money { return Money(c) }

// Dollars constructs a Money from whole dollars.
func Dollars(d int64) Money { return Money(d * 100) }

// FromFloat converts a dollar float (as found in raw fact sheets) to Money,
// rounding half away from zero at the cent.
func FromFloat(dollars float64) Money {
	return Money(math.Round(dollars * 100))
}

// Cents returns the raw cent count.
func (m Money) Cents() int64 { return int64(m) }

// Float64 returns the amount in dollars. For display and ratio math only;
// never feed the result back into currency arithmetic.
func (m Money) Float64() float64 { return float64(m) / 100 }

// MulBasisPoints scales the amount by bp/10000 using integer arithmetic,
// truncating toward zero. 7000 bp = 70%.
func (m Money) MulBasisPoints(bp int64) Money {
	return Money(int64(m) * bp / 10_000)
}

// Min returns the smaller of m and other.
func (m Money) Min(other Money) Money {
	if other < m {
		return other
	}
	return m
}

// IsZero reports whether the amount is exactly zero.
func (m Money) IsZero() bool { return m == 0 }

// String renders the amount as a plain dollar string, e.g. "135000.00".
func (m Money) String() string {
	sign := ""
	c := int64(m)
	if c < 0 {
		sign = "-"
		c = -c
	}
	return fmt.Sprintf("%s%d.%02d", sign, c/100, c%100)
}

// MarshalJSON encodes the amount as a dollar number, the fact-sheet wire
// convention.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON accepts a dollar number or a dollar string.
func (m *Money) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if len(s) > 1 && s[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return eris.Wrap(err, "money: decode string")
		}
		v, err := ParseMoney(str)
		if err != nil {
			return err
		}
		*m = v
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return eris.Wrapf(err, "money: parse %q", s)
	}
	*m = FromFloat(f)
	return nil
}

// ParseMoney parses a dollar string such as "135000", "135,000.50" or
// "$135,000.50" into Money. At most two decimal places are accepted.
func ParseMoney(s string) (Money, error) {
	raw := strings.TrimSpace(s)
	raw = strings.TrimPrefix(raw, "$")
	raw = strings.ReplaceAll(raw, ",", "")
	if raw == "" {
		return 0, eris.New("money: empty amount")
	}

	neg := false
	if strings.HasPrefix(raw, "-") {
		neg = true
		raw = raw[1:]
	}

	whole, frac := raw, ""
	if i := strings.IndexByte(raw, '.'); i >= 0 {
		whole, frac = raw[:i], raw[i+1:]
	}
	if len(frac) > 2 {
		return 0, eris.Errorf("money: too many decimal places in %q", s)
	}
	for len(frac) < 2 {
		frac += "0"
	}
	if whole == "" {
		whole = "0"
	}

	w, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, eris.Wrapf(err, "money: parse %q", s)
	}
	f, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return 0, eris.Wrapf(err, "money: parse %q", s)
	}

	cents := w*100 + f
	if neg {
		cents = -cents
	}
	return Money(cents), nil
}
