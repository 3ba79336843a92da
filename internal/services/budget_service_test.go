package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"growly/internal/amqp"
	"growly/internal/core"
	"growly/internal/persistence"
	"growly/internal/storage/memory"
)

type recordingPublisher struct {
	events []*amqp.ChangeEvent
	err    error
}

func (p *recordingPublisher) PublishChange(_ context.Context, ev *amqp.ChangeEvent) error {
	p.events = append(p.events, ev)
	return p.err
}

var fixedNow = time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)

func clock(t *time.Time) func() time.Time {
	return func() time.Time { return *t }
}

func openService(t *testing.T, kv *memory.Store, opts Options) *BudgetService {
	t.Helper()
	if opts.Now == nil {
		opts.Now = func() time.Time { return fixedNow }
	}
	svc := NewBudgetService(persistence.NewAdapter(kv, "", nil), opts)
	require.NoError(t, svc.Open(context.Background()))
	t.Cleanup(func() { svc.Close() })
	return svc
}

func lunch(amount float64) core.TransactionInput {
	return core.TransactionInput{
		Type:          core.Expense,
		Amount:        amount,
		Category:      "Alimentos",
		Note:          " menú ",
		PaymentMethod: core.Yape,
	}
}

func TestOperationsRequireOpen(t *testing.T) {
	svc := NewBudgetService(persistence.NewAdapter(memory.New(0), "", nil), Options{})
	ctx := context.Background()

	_, err := svc.RecordTransaction(ctx, lunch(5))
	assert.ErrorIs(t, err, ErrNotOpen)
	_, err = svc.Dashboard(ctx, core.Monthly)
	assert.ErrorIs(t, err, ErrNotOpen)
	assert.Nil(t, svc.Transactions())

	require.NoError(t, svc.Open(ctx))
	assert.ErrorIs(t, svc.Open(ctx), ErrAlreadyOpen)
}

func TestRecordTransactionPersists(t *testing.T) {
	ctx := context.Background()
	kv := memory.New(0)
	svc := openService(t, kv, Options{})

	tx, err := svc.RecordTransaction(ctx, lunch(12.5))
	require.NoError(t, err)
	assert.NotEmpty(t, tx.ID)
	assert.Equal(t, "menú", tx.Note)
	assert.Equal(t, core.FormatDate(fixedNow), tx.Date)

	reopened := openService(t, kv, Options{})
	require.Len(t, reopened.Transactions(), 1)
	assert.Equal(t, tx, reopened.Transactions()[0])
}

func TestRecordTransactionRejectsInvalidInput(t *testing.T) {
	svc := openService(t, memory.New(0), Options{})
	_, err := svc.RecordTransaction(context.Background(), lunch(0))
	assert.ErrorIs(t, err, core.ErrInvalidAmount)
	assert.Empty(t, svc.Transactions())
	assert.Equal(t, uint64(0), svc.Revision())
}

func TestSaveFailureKeepsInMemoryChange(t *testing.T) {
	ctx := context.Background()
	kv := memory.New(40)
	svc := openService(t, kv, Options{})

	_, err := svc.RecordTransaction(ctx, lunch(3))
	require.NoError(t, err, "quota errors never reach the caller")
	assert.Len(t, svc.Transactions(), 1)

	_, ok, err := kv.Get(ctx, persistence.DefaultKey)
	require.NoError(t, err)
	assert.False(t, ok, "nothing fit in the quota")
}

func TestGoalLifecycle(t *testing.T) {
	ctx := context.Background()
	svc := openService(t, memory.New(0), Options{})

	g, err := svc.CreateGoal(ctx, core.GoalInput{ID: "ignored", Name: "Viaje", TargetAmount: 1000})
	require.NoError(t, err)
	assert.NotEqual(t, "ignored", g.ID)
	assert.Equal(t, core.DefaultColor(), g.Color)

	edited, err := svc.EditGoal(ctx, g.ID, core.GoalInput{Name: "Viaje a Cusco", TargetAmount: 1000, CurrentAmount: 250, Color: g.Color})
	require.NoError(t, err)
	assert.Equal(t, g.ID, edited.ID)

	statuses := svc.GoalStatuses()
	require.Len(t, statuses, 1)
	assert.Equal(t, 25.0, statuses[0].Progress)
	assert.Equal(t, 750.0, statuses[0].Remaining)

	got, ok := svc.Goal(g.ID)
	require.True(t, ok)
	assert.Equal(t, "Viaje a Cusco", got.Name)

	_, err = svc.EditGoal(ctx, "missing", core.GoalInput{Name: "X", TargetAmount: 1})
	assert.ErrorIs(t, err, ErrGoalNotFound)
	assert.ErrorIs(t, svc.RemoveGoal(ctx, "missing"), ErrGoalNotFound)

	require.NoError(t, svc.RemoveGoal(ctx, g.ID))
	assert.Empty(t, svc.Goals())
}

func TestDashboardRefreshesAfterMutation(t *testing.T) {
	ctx := context.Background()
	now := fixedNow
	svc := openService(t, memory.New(0), Options{Now: clock(&now), CacheTTL: time.Hour})

	sum, err := svc.Dashboard(ctx, core.Monthly)
	require.NoError(t, err)
	assert.Equal(t, core.Totals{}, sum.Totals)

	_, err = svc.RecordTransaction(ctx, lunch(20))
	require.NoError(t, err)
	_, err = svc.RecordTransaction(ctx, core.TransactionInput{Type: core.Income, Amount: 100, Category: "Sueldo", PaymentMethod: core.BankTransfer})
	require.NoError(t, err)

	sum, err = svc.Dashboard(ctx, core.Monthly)
	require.NoError(t, err)
	assert.Equal(t, core.Totals{Income: 100, Expense: 20, Balance: 80}, sum.Totals)
	assert.Equal(t, []core.CategoryAmount{{Name: "Alimentos", Amount: 20}}, sum.ByCategory)
	assert.Len(t, sum.Recent, 2)

	sum.Recent[0].Amount = -1
	hits := svc.CacheStats().Hits
	again, err := svc.Dashboard(ctx, core.Monthly)
	require.NoError(t, err)
	assert.NotEqual(t, -1.0, again.Recent[0].Amount, "cached summaries are copied out")
	assert.Equal(t, hits+1, svc.CacheStats().Hits)

	now = now.AddDate(0, 0, 1)
	daily, err := svc.Dashboard(ctx, core.Daily)
	require.NoError(t, err)
	assert.Equal(t, 0, daily.Count, "a new day has no transactions yet")

	_, err = svc.Dashboard(ctx, core.Window("yearly"))
	assert.Error(t, err)
}

func TestWeeklyDashboardFollowsRollingWindow(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 8, 10, 0, 0, 0, time.UTC)
	svc := openService(t, memory.New(0), Options{Now: clock(&now)})

	_, err := svc.RecordTransaction(ctx, lunch(15))
	require.NoError(t, err)

	now = time.Date(2025, 3, 15, 9, 0, 0, 0, time.UTC)
	sum, err := svc.Dashboard(ctx, core.Weekly)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Count)

	now = time.Date(2025, 3, 15, 11, 0, 0, 0, time.UTC)
	sum, err = svc.Dashboard(ctx, core.Weekly)
	require.NoError(t, err)
	assert.Equal(t, 0, sum.Count, "the transaction left the last seven days")
	assert.Equal(t, core.Summarize(svc.Transactions(), core.Weekly, now), sum)
}

func TestDashboardDropsExpiredEntries(t *testing.T) {
	ctx := context.Background()
	now := fixedNow
	svc := openService(t, memory.New(0), Options{Now: clock(&now), CacheTTL: time.Minute})

	_, err := svc.Dashboard(ctx, core.Monthly)
	require.NoError(t, err)
	_, err = svc.Dashboard(ctx, core.Daily)
	require.NoError(t, err)
	assert.Equal(t, 2, svc.dashboards.Size())

	now = now.Add(2 * time.Minute)
	_, err = svc.Dashboard(ctx, core.Monthly)
	require.NoError(t, err)
	assert.Equal(t, 1, svc.dashboards.Size(), "stale daily entry is gone")
}

func TestChangesArePublished(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{err: errors.New("broker down")}
	svc := openService(t, memory.New(0), Options{Publisher: pub})

	_, err := svc.RecordTransaction(ctx, lunch(1))
	require.NoError(t, err, "publish failures do not fail the mutation")
	_, err = svc.CreateGoal(ctx, core.GoalInput{Name: "A", TargetAmount: 10})
	require.NoError(t, err)

	require.Len(t, pub.events, 2)
	assert.Equal(t, uint64(1), pub.events[0].Revision)
	assert.Equal(t, "transaction_added", pub.events[0].Kind)
	assert.Equal(t, "goal_added", pub.events[1].Kind)
	assert.Equal(t, 1, pub.events[1].Transactions)
	assert.Equal(t, 1, pub.events[1].Goals)
}

func TestExportImport(t *testing.T) {
	ctx := context.Background()
	svc := openService(t, memory.New(0), Options{})
	_, err := svc.RecordTransaction(ctx, lunch(9))
	require.NoError(t, err)

	path, err := svc.ExportTo(ctx, t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "growly_backup_2025-03-15.json", filepath.Base(path))

	other := openService(t, memory.New(0), Options{})
	_, err = other.CreateGoal(ctx, core.GoalInput{Name: "B", TargetAmount: 5})
	require.NoError(t, err)

	t.Run("declined", func(t *testing.T) {
		var offered core.AppData
		ok, err := other.ImportFrom(ctx, path, func(d core.AppData) bool { offered = d; return false })
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Len(t, offered.Transactions, 1)
		assert.Len(t, other.Goals(), 1)
		assert.Empty(t, other.Transactions())
	})

	t.Run("invalid file", func(t *testing.T) {
		bad := filepath.Join(t.TempDir(), "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{"transactions":{}}`), 0o644))
		ok, err := other.ImportFrom(ctx, bad, nil)
		assert.False(t, ok)
		assert.ErrorIs(t, err, persistence.ErrInvalidFormat)
		assert.Len(t, other.Goals(), 1)
	})

	t.Run("accepted", func(t *testing.T) {
		ok, err := other.ImportFrom(ctx, path, func(core.AppData) bool { return true })
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, svc.Transactions(), other.Transactions())
		assert.Empty(t, other.Goals())
	})
}

func TestCloseDetachesPersistence(t *testing.T) {
	ctx := context.Background()
	kv := memory.New(0)
	svc := NewBudgetService(persistence.NewAdapter(kv, "", nil), Options{})
	require.NoError(t, svc.Open(ctx))
	require.NoError(t, svc.Close())

	_, err := svc.CreateGoal(ctx, core.GoalInput{Name: "A", TargetAmount: 1})
	require.NoError(t, err)
	_, ok, _ := kv.Get(ctx, persistence.DefaultKey)
	assert.False(t, ok)
}
