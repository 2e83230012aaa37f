package expense

import (
	"github.com/garyjia/field-expense/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// Totals is the part of a computed expense that summaries need
type Totals struct {
	CalculatedDA decimal.Decimal
	CalculatedTA decimal.Decimal
	TotalExpense decimal.Decimal
}

// Summary aggregates a list of computed expenses
type Summary struct {
	TotalExpenses  decimal.Decimal `json:"total_expenses"`
	TotalDA        decimal.Decimal `json:"total_da"`
	TotalTA        decimal.Decimal `json:"total_ta"`
	TotalHotel     decimal.Decimal `json:"total_hotel"`
	Count          int             `json:"count"`
	AverageExpense decimal.Decimal `json:"average_expense"`
}

// TotalsOf extracts summary totals from a stored expense
func TotalsOf(e *entity.Expense) Totals {
	return Totals{
		CalculatedDA: e.CalculatedDA,
		CalculatedTA: e.CalculatedTA,
		TotalExpense: e.TotalExpense,
	}
}

// Summarize reduces a list of totals. TotalHotel is derived from the other
// sums rather than added up, so it always reconciles with TotalExpenses.
func Summarize(items []Totals) Summary {
	if len(items) == 0 {
		return Summary{
			TotalExpenses:  decimal.Zero,
			TotalDA:        decimal.Zero,
			TotalTA:        decimal.Zero,
			TotalHotel:     decimal.Zero,
			AverageExpense: decimal.Zero,
		}
	}

	totalDA, totalTA, totalExpenses := decimal.Zero, decimal.Zero, decimal.Zero
	for _, item := range items {
		totalDA = totalDA.Add(item.CalculatedDA)
		totalTA = totalTA.Add(item.CalculatedTA)
		totalExpenses = totalExpenses.Add(item.TotalExpense)
	}
	totalHotel := totalExpenses.Sub(totalDA).Sub(totalTA)
	count := decimal.NewFromInt(int64(len(items)))

	return Summary{
		TotalExpenses:  RoundMoney(totalExpenses),
		TotalDA:        RoundMoney(totalDA),
		TotalTA:        RoundMoney(totalTA),
		TotalHotel:     RoundMoney(totalHotel),
		Count:          len(items),
		AverageExpense: RoundMoney(totalExpenses.Div(count)),
	}
}

// SummarizeExpenses summarizes stored expense records
func SummarizeExpenses(expenses []*entity.Expense) Summary {
	items := make([]Totals, 0, len(expenses))
	for _, e := range expenses {
		items = append(items, TotalsOf(e))
	}
	return Summarize(items)
}
