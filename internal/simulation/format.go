package simulation

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// FormatKRW renders a cost given in units of 10,000 KRW (만원).
// Amounts of 1억 or more are split into 억 and 만원 parts.
func FormatKRW(v float64) string {
	p := message.NewPrinter(language.Korean)
	if v >= 10000 {
		eok := math.Floor(v / 10000)
		man := math.Mod(v, 10000)
		if man == 0 {
			return p.Sprintf("₩%v억원", number.Decimal(eok))
		}
		return p.Sprintf("₩%v억 %v만원", number.Decimal(eok), number.Decimal(man, number.MaxFractionDigits(2)))
	}
	return p.Sprintf("₩%v만원", number.Decimal(v, number.MaxFractionDigits(2)))
}

// RiskLevel labels a risk index for display.
func RiskLevel(risk int) string {
	if risk > 50 {
		return "High Risk"
	}
	return "Stable"
}
