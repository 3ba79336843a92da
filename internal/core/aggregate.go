package core

import (
	"math"
	"time"
)

// RecentLimit is how many transactions the dashboard lists.
const RecentLimit = 5

// FilterByWindow keeps the transactions that fall in w relative to now.
// Daily and Monthly are calendar aligned in now's location; Weekly is a
// rolling seven days. Transactions with unparsable dates never match.
func FilterByWindow(txs []Transaction, w Window, now time.Time) []Transaction {
	out := make([]Transaction, 0, len(txs))
	weekAgo := now.AddDate(0, 0, -7)
	for _, t := range txs {
		ts, err := t.Time()
		if err != nil {
			continue
		}
		ts = ts.In(now.Location())
		keep := true
		switch w {
		case Daily:
			keep = ts.Day() == now.Day() && ts.Month() == now.Month() && ts.Year() == now.Year()
		case Weekly:
			keep = !ts.Before(weekAgo)
		case Monthly:
			keep = ts.Month() == now.Month() && ts.Year() == now.Year()
		}
		if keep {
			out = append(out, t)
		}
	}
	return out
}

// ComputeTotals sums income and expense amounts; the balance is their
// difference. No rounding happens here.
func ComputeTotals(txs []Transaction) Totals {
	var tot Totals
	for _, t := range txs {
		switch t.Type {
		case Income:
			tot.Income += t.Amount
		case Expense:
			tot.Expense += t.Amount
		}
	}
	tot.Balance = tot.Income - tot.Expense
	return tot
}

// CategoryBreakdown sums expense amounts per category, in the order the
// categories are first seen.
func CategoryBreakdown(txs []Transaction) []CategoryAmount {
	index := map[string]int{}
	out := []CategoryAmount{}
	for _, t := range txs {
		if t.Type != Expense {
			continue
		}
		i, ok := index[t.Category]
		if !ok {
			i = len(out)
			index[t.Category] = i
			out = append(out, CategoryAmount{Name: t.Category})
		}
		out[i].Amount += t.Amount
	}
	return out
}

// GoalProgress returns the completion percentage clamped to 100. A goal
// without a positive target has no meaningful progress and reports 0.
func GoalProgress(g Goal) float64 {
	if !(g.TargetAmount > 0) {
		return 0
	}
	return math.Min(g.CurrentAmount/g.TargetAmount*100, 100)
}

// GoalRemaining is what is still missing to reach the target. Overfunded
// goals yield a negative value.
func GoalRemaining(g Goal) float64 {
	return g.TargetAmount - g.CurrentAmount
}

func StatusOf(g Goal) GoalStatus {
	return GoalStatus{Goal: g, Progress: GoalProgress(g), Remaining: GoalRemaining(g)}
}

// Recent returns at most n leading transactions.
func Recent(txs []Transaction, n int) []Transaction {
	if n < 0 {
		n = 0
	}
	if len(txs) < n {
		n = len(txs)
	}
	return append([]Transaction(nil), txs[:n]...)
}

// Summarize builds the dashboard for w.
func Summarize(txs []Transaction, w Window, now time.Time) DashboardSummary {
	filtered := FilterByWindow(txs, w, now)
	return DashboardSummary{
		Window:     w,
		Totals:     ComputeTotals(filtered),
		ByCategory: CategoryBreakdown(filtered),
		Recent:     Recent(filtered, RecentLimit),
		Count:      len(filtered),
	}
}
