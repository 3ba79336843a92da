package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func txAt(id string, typ TransactionType, amount float64, category string, at time.Time) Transaction {
	return Transaction{
		ID:            id,
		Amount:        amount,
		Category:      category,
		Date:          FormatDate(at),
		Type:          typ,
		PaymentMethod: Cash,
	}
}

func ids(txs []Transaction) []string {
	out := make([]string, len(txs))
	for i, t := range txs {
		out[i] = t.ID
	}
	return out
}

func TestFilterByWindow(t *testing.T) {
	lima := time.FixedZone("PET", -5*3600)
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, lima)

	txs := []Transaction{
		txAt("today", Expense, 1, "Salud", now.Add(-2*time.Hour)),
		txAt("six-days", Expense, 1, "Salud", now.AddDate(0, 0, -6)),
		txAt("eight-days", Expense, 1, "Salud", now.AddDate(0, 0, -8)),
		txAt("month-start", Expense, 1, "Salud", time.Date(2025, 6, 1, 0, 30, 0, 0, lima)),
		txAt("prev-month", Expense, 1, "Salud", now.AddDate(0, -1, 0)),
		txAt("last-year", Expense, 1, "Salud", now.AddDate(-1, 0, 0)),
		{ID: "garbage", Date: "not a date", Type: Expense, Amount: 1},
	}

	t.Run("daily", func(t *testing.T) {
		assert.Equal(t, []string{"today"}, ids(FilterByWindow(txs, Daily, now)))
	})

	t.Run("weekly is rolling", func(t *testing.T) {
		got := ids(FilterByWindow(txs, Weekly, now))
		assert.Contains(t, got, "six-days")
		assert.NotContains(t, got, "eight-days")
		assert.Equal(t, []string{"today", "six-days"}, got)
	})

	t.Run("monthly is calendar aligned", func(t *testing.T) {
		got := ids(FilterByWindow(txs, Monthly, now))
		assert.Equal(t, []string{"today", "six-days", "eight-days", "month-start"}, got)
	})

	t.Run("unknown window keeps everything parsable", func(t *testing.T) {
		assert.Len(t, FilterByWindow(txs, "all", now), 6)
	})
}

func TestFilterByWindowMonthlyExcludesPreviousMonthWithin31Days(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	lastMonth := txAt("feb", Expense, 5, "Ropa", time.Date(2025, 2, 28, 10, 0, 0, 0, time.UTC))
	assert.Empty(t, FilterByWindow([]Transaction{lastMonth}, Monthly, now))
	assert.Len(t, FilterByWindow([]Transaction{lastMonth}, Weekly, now), 1)
}

func TestFilterByWindowDailyUsesLocalCalendar(t *testing.T) {
	lima := time.FixedZone("PET", -5*3600)
	now := time.Date(2025, 6, 15, 22, 0, 0, 0, lima)
	// 02:00 UTC on the 16th is still the 15th in Lima.
	late := Transaction{ID: "late", Date: "2025-06-16T02:00:00.000Z", Type: Expense, Amount: 1}
	assert.Len(t, FilterByWindow([]Transaction{late}, Daily, now), 1)
}

func TestComputeTotals(t *testing.T) {
	assert.Equal(t, Totals{}, ComputeTotals(nil))

	now := time.Now()
	txs := []Transaction{
		txAt("1", Income, 1000, "Sueldo", now),
		txAt("2", Expense, 120.25, "Alimentos", now),
		txAt("3", Expense, 79.75, "Transporte", now),
		txAt("4", Income, 50, "Ventas", now),
	}
	tot := ComputeTotals(txs)
	assert.InDelta(t, 1050, tot.Income, 1e-9)
	assert.InDelta(t, 200, tot.Expense, 1e-9)
	assert.Equal(t, tot.Income-tot.Expense, tot.Balance)
}

func TestCategoryBreakdown(t *testing.T) {
	now := time.Now()
	txs := []Transaction{
		txAt("1", Expense, 10, "Salud", now),
		txAt("2", Income, 999, "Sueldo", now),
		txAt("3", Expense, 5, "Alimentos", now),
		txAt("4", Expense, 2.5, "Salud", now),
		txAt("5", Income, 1, "Otros", now),
		txAt("6", Expense, 1, "Otros", now),
	}
	got := CategoryBreakdown(txs)
	require.Equal(t, []CategoryAmount{
		{Name: "Salud", Amount: 12.5},
		{Name: "Alimentos", Amount: 5},
		{Name: "Otros", Amount: 1},
	}, got)

	var sum float64
	for _, c := range got {
		sum += c.Amount
	}
	assert.InDelta(t, ComputeTotals(txs).Expense, sum, 1e-9)

	assert.Empty(t, CategoryBreakdown([]Transaction{txAt("x", Income, 3, "Sueldo", now)}))
}

func TestGoalProgress(t *testing.T) {
	cases := []struct {
		current, target, want float64
	}{
		{50, 100, 50},
		{150, 100, 100},
		{0, 100, 0},
		{25, 0, 0},
		{25, -10, 0},
	}
	for _, tc := range cases {
		got := GoalProgress(Goal{CurrentAmount: tc.current, TargetAmount: tc.target})
		assert.Equal(t, tc.want, got, "current=%v target=%v", tc.current, tc.target)
	}
}

func TestGoalRemainingAndStatus(t *testing.T) {
	g := Goal{ID: "g", TargetAmount: 100, CurrentAmount: 130}
	assert.Equal(t, -30.0, GoalRemaining(g))
	st := StatusOf(g)
	assert.Equal(t, 100.0, st.Progress)
	assert.Equal(t, g, st.Goal)
}

func TestRecent(t *testing.T) {
	txs := make([]Transaction, 8)
	for i := range txs {
		txs[i].ID = string(rune('a' + i))
	}
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, ids(Recent(txs, RecentLimit)))
	assert.Len(t, Recent(txs[:2], RecentLimit), 2)
	assert.Empty(t, Recent(txs, -1))
}

func TestSummarize(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	txs := []Transaction{
		txAt("1", Income, 300, "Sueldo", now),
		txAt("2", Expense, 100, "Vivienda", now.Add(-time.Hour)),
		txAt("3", Expense, 40, "Vivienda", now.AddDate(0, -2, 0)),
	}
	s := Summarize(txs, Monthly, now)
	assert.Equal(t, Monthly, s.Window)
	assert.Equal(t, 2, s.Count)
	assert.Equal(t, Totals{Income: 300, Expense: 100, Balance: 200}, s.Totals)
	assert.Equal(t, []CategoryAmount{{Name: "Vivienda", Amount: 100}}, s.ByCategory)
	assert.Equal(t, []string{"1", "2"}, ids(s.Recent))
}

func TestParseWindow(t *testing.T) {
	cases := map[string]Window{
		"daily":   Daily,
		"Diario":  Daily,
		"WEEKLY":  Weekly,
		"semanal": Weekly,
		"mensual": Monthly,
		"":        Monthly,
	}
	for in, want := range cases {
		got, err := ParseWindow(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseWindow("yearly")
	assert.Error(t, err)
	assert.Equal(t, "Semanal", Weekly.Label())
}
