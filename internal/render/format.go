package render

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// PriceFormatter prints prices with exactly two decimals using the decimal
// separator of its locale and no grouping separator: 1234.5 is "1234,50"
// in pt-BR and "1234.50" in English.
type PriceFormatter struct {
	separator string
}

// NewPriceFormatter creates a formatter for tag.
func NewPriceFormatter(tag language.Tag) *PriceFormatter {
	// "1.5" printed in the locale yields the separator between its digits.
	sample := message.NewPrinter(tag).Sprintf("%v", number.Decimal(1.5, number.Scale(1), number.NoSeparator()))
	sep := strings.TrimSuffix(strings.TrimPrefix(sample, "1"), "5")
	if sep == "" {
		sep = "."
	}
	return &PriceFormatter{separator: sep}
}

// Format renders d rounded half away from zero to two decimals, without
// going through a float.
func (f *PriceFormatter) Format(d decimal.Decimal) string {
	return strings.Replace(d.StringFixed(2), ".", f.separator, 1)
}
