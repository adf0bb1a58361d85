package tui

import (
	"strings"

	"github.com/andy/billbook/internal/render"
	"github.com/shopspring/decimal"
)

// formatMoney formats money as "$X,XXX.XX" with comma separators
func formatMoney(amount decimal.Decimal) string {
	return render.FormatMoney(amount)
}

// truncateStr truncates a string to the specified length with ellipsis
func truncateStr(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}

// bar draws value as a run of blocks scaled so that max fills width
func bar(value, max decimal.Decimal, width int) string {
	if !max.IsPositive() || !value.IsPositive() {
		return ""
	}
	n := int(value.Div(max).Mul(decimal.NewFromInt(int64(width))).IntPart())
	if n < 1 {
		n = 1
	}
	return strings.Repeat("█", n)
}

