// notes/totals.go
package notes

import (
	"regexp"
	"strings"

	"github.com/ViniZap4/lumi-estimates/domain"
	"github.com/shopspring/decimal"
)

// amountPattern matches the first money-looking number, e.g. "$1,234.50".
var amountPattern = regexp.MustCompile(`\d[\d,]*(?:\.\d+)?|\.\d+`)

type Amount struct {
	Raw   string          `json:"raw,omitempty"`
	Value decimal.Decimal `json:"value"`
	Valid bool            `json:"valid"`
}

// Summary is the arithmetic view of the totals group.
type Summary struct {
	Subtotal Amount          `json:"subtotal"`
	Tax      Amount          `json:"tax"`
	Total    Amount          `json:"total"`
	Computed decimal.Decimal `json:"computed"`
	// Balanced is true when the stated total equals subtotal plus tax.
	Balanced bool `json:"balanced"`
}

// Summarize reads Subtotal, Sales Tax and Total out of the totals group.
// Missing or unreadable amounts stay zero with Valid unset.
func Summarize(p domain.ParsedNote) Summary {
	var s Summary
	for _, e := range p.Totals {
		switch e.Label {
		case "Subtotal":
			s.Subtotal = firstAmount(s.Subtotal, e)
		case "Sales Tax", "Sales Tax (3.965%)":
			s.Tax = firstAmount(s.Tax, e)
		case "Total":
			s.Total = firstAmount(s.Total, e)
		}
	}

	s.Computed = s.Subtotal.Value.Add(s.Tax.Value)
	s.Balanced = s.Total.Valid && s.Subtotal.Valid && s.Total.Value.Equal(s.Computed)
	return s
}

func firstAmount(current Amount, e domain.Entry) Amount {
	if current.Valid {
		return current
	}
	return ParseAmount(e.Value.Text())
}

// ParseAmount reads a money amount such as "$1,234.50", "-$12", "$-12" or
// "(40.00)".
func ParseAmount(raw string) Amount {
	a := Amount{Raw: raw}
	text := strings.TrimSpace(raw)
	loc := amountPattern.FindStringIndex(text)
	if loc == nil {
		return a
	}
	number := text[loc[0]:loc[1]]

	value, err := decimal.NewFromString(strings.ReplaceAll(number, ",", ""))
	if err != nil {
		return a
	}
	negative := strings.HasPrefix(text, "-") || (loc[0] > 0 && text[loc[0]-1] == '-') ||
		(strings.HasPrefix(text, "(") && strings.HasSuffix(text, ")"))
	if negative {
		value = value.Neg()
	}

	a.Value = value
	a.Valid = true
	return a
}
