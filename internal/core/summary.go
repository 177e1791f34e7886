package core

// FinanceSummary totals a set of finance records.
type FinanceSummary struct {
	Income  int64 `json:"income"`
	Expense int64 `json:"expense"`
}

// Add folds one record into the summary.
func (s *FinanceSummary) Add(f Finance) {
	if f.Type == Income {
		s.Income += f.Amount
		return
	}
	s.Expense += f.Amount
}

// Balance is income minus expense.
func (s FinanceSummary) Balance() int64 {
	return s.Income - s.Expense
}

// Summarize totals records without touching them.
func Summarize(records []Finance) FinanceSummary {
	var s FinanceSummary
	for _, f := range records {
		s.Add(f)
	}
	return s
}

// MonthlyRecap is a compact report for a specific year+month.
type MonthlyRecap struct {
	Year                int   `json:"year"`
	Month               int   `json:"month"` // 1-12
	TotalActivities     int   `json:"totalActivities"`
	CompletedActivities int   `json:"completedActivities"`
	TotalIncome         int64 `json:"totalIncome"`
	TotalExpense        int64 `json:"totalExpense"`
	Balance             int64 `json:"balance"`
}
