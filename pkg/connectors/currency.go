package connectors

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Currency is an ISO-4217 alphabetic code.
type Currency string

type currencyInfo struct {
	numeric  uint16
	exponent int
}

var currencies = map[Currency]currencyInfo{
	"ARS": {32, 2},
	"BRL": {986, 2},
	"CLP": {152, 0},
	"COP": {170, 2},
	"EUR": {978, 2},
	"GBP": {826, 2},
	"JPY": {392, 0},
	"MXN": {484, 2},
	"PEN": {604, 2},
	"USD": {840, 2},
}

func (c Currency) Valid() bool {
	_, ok := currencies[c]
	return ok
}

// NumericCode returns the ISO-4217 numeric code, 0 when unknown.
func (c Currency) NumericCode() uint16 { return currencies[c].numeric }

// Exponent returns the number of minor-unit digits.
func (c Currency) Exponent() int {
	if i, ok := currencies[c]; ok {
		return i.exponent
	}
	return 2
}

func (c *Currency) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	cur := Currency(strings.ToUpper(s))
	if !cur.Valid() {
		return fmt.Errorf("unsupported currency %q", s)
	}
	*c = cur
	return nil
}

// CurrencyUnit is how a connector expects amounts on the wire.
type CurrencyUnit int

const (
	CurrencyUnitMinor CurrencyUnit = iota
	CurrencyUnitBase
)

// FormatAmount renders a minor-unit amount in the connector's unit.
func FormatAmount(unit CurrencyUnit, amount int64, c Currency) string {
	if unit == CurrencyUnitMinor {
		return strconv.FormatInt(amount, 10)
	}
	exp := c.Exponent()
	if exp == 0 {
		return strconv.FormatInt(amount, 10)
	}
	div := int64(1)
	for i := 0; i < exp; i++ {
		div *= 10
	}
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	return fmt.Sprintf("%s%d.%0*d", sign, amount/div, exp, amount%div)
}

// ConvertAmount is FormatAmount for the adapter's unit, as a JSON number.
func ConvertAmount(a Adapter, amount int64, c Currency) json.Number {
	return json.Number(FormatAmount(a.CurrencyUnit(), amount, c))
}
