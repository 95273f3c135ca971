package reports

import (
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	million  = decimal.NewFromInt(1_000_000)
	thousand = decimal.NewFromInt(1_000)
)

// FormatLbs renders a pound figure for dashboard cells: 1.5M, 250.0K, or a
// whole number under a thousand. Negative overage keeps its sign.
func FormatLbs(value decimal.Decimal) string {
	abs := value.Abs()
	sign := ""
	if value.IsNegative() {
		sign = "-"
	}
	switch {
	case abs.GreaterThanOrEqual(million):
		return fmt.Sprintf("%s%sM", sign, abs.Div(million).StringFixed(1))
	case abs.GreaterThanOrEqual(thousand):
		return fmt.Sprintf("%s%sK", sign, abs.Div(thousand).StringFixed(1))
	default:
		return value.StringFixed(0)
	}
}
