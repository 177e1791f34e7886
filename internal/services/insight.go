package services

import (
	"context"
	"fmt"
	"time"

	"dailymeow/internal/core"
	"dailymeow/internal/store"
)

type Mood string

const (
	MoodPositive Mood = "positive"
	MoodCaution  Mood = "caution"
	MoodNegative Mood = "negative"
)

// weekdayNames are indexed by time.Weekday, Sunday first.
var weekdayNames = map[string][7]string{
	"id": {"Minggu", "Senin", "Selasa", "Rabu", "Kamis", "Jumat", "Sabtu"},
	"en": {"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"},
}

// WeekdaySpend is the expense total of one weekday.
type WeekdaySpend struct {
	Day    string `json:"day"`
	Amount int64  `json:"amount"`
}

// Insight is the whole-history financial health report.
type Insight struct {
	Mood            Mood           `json:"mood"`
	TotalIncome     int64          `json:"totalIncome"`
	TotalExpense    int64          `json:"totalExpense"`
	Balance         int64          `json:"balance"`
	RiskiestWeekday *WeekdaySpend  `json:"riskiestWeekday,omitempty"`
	Weekdays        []WeekdaySpend `json:"weekdays"`
	Projection      []Projected    `json:"projection,omitempty"`
}

// Projected is a daily income carried over a horizon of Days.
type Projected struct {
	Days      int    `json:"days"`
	Amount    int64  `json:"amount"`
	Formatted string `json:"formatted"`
}

// ProjectionHorizons are in days.
var ProjectionHorizons = []int{7, 30, 365}

// Projection multiplies a daily income over each horizon. It is empty for a
// non-positive amount.
func Projection(daily int64) []Projected {
	if daily <= 0 {
		return nil
	}
	out := make([]Projected, 0, len(ProjectionHorizons))
	for _, days := range ProjectionHorizons {
		amount := daily * int64(days)
		out = append(out, Projected{Days: days, Amount: amount, Formatted: core.FormatRupiah(amount)})
	}
	return out
}

// Calculate is a pure function of its input; records are not modified.
func Calculate(records []core.Finance, loc *time.Location, locale string) Insight {
	names, ok := weekdayNames[locale]
	if !ok {
		names = weekdayNames["id"]
	}
	if loc == nil {
		loc = time.UTC
	}

	var (
		summary core.FinanceSummary
		buckets [7]int64
	)
	for _, f := range records {
		summary.Add(f)
		if f.Type == core.Expense {
			buckets[f.Date.In(loc).Weekday()] += f.Amount
		}
	}

	out := Insight{
		Mood:         moodFor(summary.Income, summary.Expense),
		TotalIncome:  summary.Income,
		TotalExpense: summary.Expense,
		Balance:      summary.Balance(),
		Weekdays:     make([]WeekdaySpend, 7),
	}

	maxIdx := -1
	var maxAmount int64
	for i, amount := range buckets {
		out.Weekdays[i] = WeekdaySpend{Day: names[i], Amount: amount}
		// strict comparison keeps the earliest weekday on ties
		if amount > maxAmount {
			maxAmount = amount
			maxIdx = i
		}
	}
	if maxIdx >= 0 {
		out.RiskiestWeekday = &WeekdaySpend{Day: names[maxIdx], Amount: maxAmount}
	}
	return out
}

// moodFor compares income against 1.2x expense in integer arithmetic.
func moodFor(income, expense int64) Mood {
	switch {
	case income*10 > expense*12:
		return MoodPositive
	case income >= expense:
		return MoodCaution
	default:
		return MoodNegative
	}
}

type InsightService struct {
	finances store.FinanceStore
	locale   string
}

func NewInsightService(finances store.FinanceStore, locale string) *InsightService {
	return &InsightService{finances: finances, locale: locale}
}

// Compute scans the session user's full finance history.
func (s *InsightService) Compute(ctx context.Context, sess core.Session) (Insight, error) {
	if !sess.Valid() {
		return Insight{}, core.ErrNotAuthenticated
	}
	records, err := s.finances.ListFinances(ctx, store.Query{UserID: sess.UserID, Sort: store.SortDateDesc})
	if err != nil {
		return Insight{}, fmt.Errorf("load finance history: %w", err)
	}
	return Calculate(records, sess.Loc(), s.locale), nil
}
