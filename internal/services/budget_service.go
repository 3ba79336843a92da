package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"growly/internal/amqp"
	"growly/internal/cache"
	"growly/internal/core"
	"growly/internal/log"
	"growly/internal/persistence"
	"growly/internal/store"
)

var (
	ErrNotOpen      = errors.New("budget service not open")
	ErrAlreadyOpen  = errors.New("budget service already open")
	ErrGoalNotFound = errors.New("goal not found")
)

// ChangePublisher announces applied mutations to other processes.
type ChangePublisher interface {
	PublishChange(ctx context.Context, ev *amqp.ChangeEvent) error
}

// Options tune a BudgetService. Zero values are usable.
type Options struct {
	Publisher ChangePublisher
	CacheSize int
	CacheTTL  time.Duration
	Now       func() time.Time
	Logger    *log.Logger
}

// BudgetService owns the live store for one session and wires it to
// persistence, the change feed and the dashboard cache.
type BudgetService struct {
	adapter    *persistence.Adapter
	publisher  ChangePublisher
	dashboards *cache.LRUCache[core.DashboardSummary]
	now        func() time.Time
	logger     *log.Logger

	ctx          context.Context
	store        *store.Store
	unsubscribes []func()
}

func NewBudgetService(adapter *persistence.Adapter, opts Options) *BudgetService {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = log.Discard()
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = 16
	}
	return &BudgetService{
		adapter:    adapter,
		publisher:  opts.Publisher,
		dashboards: cache.NewLRUCache[core.DashboardSummary](opts.CacheSize, opts.CacheTTL).WithClock(opts.Now),
		now:        opts.Now,
		logger:     opts.Logger.WithComponent(log.ComponentBudget),
	}
}

// Open loads the persisted data and subscribes persistence, the change feed
// and cache invalidation to the store, in that order.
func (s *BudgetService) Open(ctx context.Context) error {
	if s.store != nil {
		return ErrAlreadyOpen
	}
	// Subscribers run after the call that triggered them returns to its
	// caller, so they must not inherit its cancellation.
	s.ctx = context.WithoutCancel(ctx)

	data := s.adapter.Load(ctx)
	s.store = store.New(data)
	s.unsubscribes = append(s.unsubscribes,
		s.store.Subscribe(s.persist),
		s.store.Subscribe(s.publish),
		s.store.Subscribe(func(store.Change) { s.dashboards.Purge() }),
	)

	s.logger.InfoContext(ctx, "Budget opened",
		log.NewFields().WithOperation(log.OpLoad).WithData(len(data.Transactions), len(data.Goals)).ToSlice()...)
	return nil
}

func (s *BudgetService) persist(c store.Change) {
	// Failures are already logged by the adapter; the store keeps the change.
	_ = s.adapter.Save(s.ctx, c.Data)
}

func (s *BudgetService) publish(c store.Change) {
	if s.publisher == nil {
		return
	}
	ev := amqp.NewChangeEvent(c.Revision, string(c.Kind), len(c.Data.Transactions), len(c.Data.Goals))
	if err := s.publisher.PublishChange(s.ctx, ev); err != nil {
		s.logger.ErrorContext(s.ctx, "Failed to publish change event",
			log.FieldRevision, c.Revision,
			log.FieldChangeKind, c.Kind,
			log.FieldError, err)
	}
}

// RecordTransaction builds a transaction dated now and stores it.
func (s *BudgetService) RecordTransaction(ctx context.Context, in core.TransactionInput) (core.Transaction, error) {
	if s.store == nil {
		return core.Transaction{}, ErrNotOpen
	}
	t, err := core.NewTransaction(in, s.now())
	if err != nil {
		return core.Transaction{}, fmt.Errorf("new transaction: %w", err)
	}
	s.store.AddTransaction(t)

	s.logger.DebugContext(ctx, "Transaction recorded",
		log.FieldTxID, t.ID,
		log.FieldTxType, t.Type,
		log.FieldAmount, t.Amount,
		log.FieldCategory, t.Category)
	return t, nil
}

func (s *BudgetService) CreateGoal(ctx context.Context, in core.GoalInput) (core.Goal, error) {
	if s.store == nil {
		return core.Goal{}, ErrNotOpen
	}
	in.ID = ""
	g, err := core.NewGoal(in)
	if err != nil {
		return core.Goal{}, fmt.Errorf("new goal: %w", err)
	}
	s.store.AddGoal(g)
	s.logger.DebugContext(ctx, "Goal created", log.FieldGoalID, g.ID)
	return g, nil
}

// EditGoal replaces the goal with the given id. Unlike the store, it reports
// a missing goal as ErrGoalNotFound.
func (s *BudgetService) EditGoal(ctx context.Context, id string, in core.GoalInput) (core.Goal, error) {
	if s.store == nil {
		return core.Goal{}, ErrNotOpen
	}
	in.ID = id
	g, err := core.NewGoal(in)
	if err != nil {
		return core.Goal{}, fmt.Errorf("edit goal: %w", err)
	}
	if !s.store.UpdateGoal(g) {
		return core.Goal{}, fmt.Errorf("%w: %s", ErrGoalNotFound, id)
	}
	s.logger.DebugContext(ctx, "Goal updated", log.FieldGoalID, g.ID)
	return g, nil
}

func (s *BudgetService) RemoveGoal(ctx context.Context, id string) error {
	if s.store == nil {
		return ErrNotOpen
	}
	if !s.store.DeleteGoal(id) {
		return fmt.Errorf("%w: %s", ErrGoalNotFound, id)
	}
	s.logger.DebugContext(ctx, "Goal deleted", log.FieldGoalID, id)
	return nil
}

// Goal returns the first goal with the given id.
func (s *BudgetService) Goal(id string) (core.Goal, bool) {
	for _, g := range s.Goals() {
		if g.ID == id {
			return g, true
		}
	}
	return core.Goal{}, false
}

// Transactions returns every transaction, most recent first.
func (s *BudgetService) Transactions() []core.Transaction {
	if s.store == nil {
		return nil
	}
	return s.store.Snapshot().Transactions
}

func (s *BudgetService) Goals() []core.Goal {
	if s.store == nil {
		return nil
	}
	return s.store.Snapshot().Goals
}

// Dashboard aggregates the transactions of window. Daily and Monthly results
// are cached per window, store revision and local day, so a mutation or a day
// change always produces a fresh summary. Weekly is a rolling window that
// moves with every instant of now, so it is always recomputed.
func (s *BudgetService) Dashboard(ctx context.Context, w core.Window) (core.DashboardSummary, error) {
	if s.store == nil {
		return core.DashboardSummary{}, ErrNotOpen
	}
	if !w.Valid() {
		return core.DashboardSummary{}, fmt.Errorf("unknown window %q", w)
	}

	now := s.now()
	data, rev := s.store.View()
	if w == core.Weekly {
		return core.Summarize(data.Transactions, w, now), nil
	}
	key := fmt.Sprintf("%s|%d|%s", w, rev, now.Format("2006-01-02"))

	if sum, ok := s.dashboards.Get(key); ok {
		s.logger.DebugContext(ctx, "Dashboard served from cache", log.FieldWindow, w, log.FieldCacheHit, true)
		return copySummary(sum), nil
	}

	sum := core.Summarize(data.Transactions, w, now)
	if n := s.dashboards.CleanExpired(); n > 0 {
		s.logger.DebugContext(ctx, "Expired dashboards dropped", log.FieldCount, n)
	}
	s.dashboards.Set(key, sum)

	stats := s.dashboards.Stats()
	s.logger.DebugContext(ctx, "Dashboard computed",
		log.FieldWindow, w,
		log.FieldRevision, rev,
		log.FieldCacheHit, false,
		"hit_ratio", stats.HitRatio())
	return copySummary(sum), nil
}

func copySummary(sum core.DashboardSummary) core.DashboardSummary {
	sum.ByCategory = append([]core.CategoryAmount(nil), sum.ByCategory...)
	sum.Recent = append([]core.Transaction(nil), sum.Recent...)
	return sum
}

// GoalStatuses returns every goal with its progress and remaining amount.
func (s *BudgetService) GoalStatuses() []core.GoalStatus {
	goals := s.Goals()
	out := make([]core.GoalStatus, len(goals))
	for i, g := range goals {
		out[i] = core.StatusOf(g)
	}
	return out
}

// ExportTo writes today's backup into dir and returns the file path.
func (s *BudgetService) ExportTo(ctx context.Context, dir string) (string, error) {
	if s.store == nil {
		return "", ErrNotOpen
	}
	path, err := persistence.WriteExport(dir, s.store.Snapshot(), s.now())
	if err != nil {
		return "", err
	}
	s.logger.InfoContext(ctx, "Backup exported", log.FieldOperation, log.OpExport, log.FieldPath, path)
	return path, nil
}

// ImportFrom reads the backup at path and, once confirm agrees, replaces all
// current data with it. A nil confirm accepts. Declining reports false with
// no error and leaves the data untouched.
func (s *BudgetService) ImportFrom(ctx context.Context, path string, confirm func(core.AppData) bool) (bool, error) {
	if s.store == nil {
		return false, ErrNotOpen
	}
	data, err := persistence.ReadImportFile(ctx, path)
	if err != nil {
		s.logger.WarnContext(ctx, "Import rejected", log.FieldOperation, log.OpImport, log.FieldPath, path, log.FieldError, err)
		return false, err
	}
	if confirm != nil && !confirm(data) {
		return false, nil
	}
	s.store.ReplaceAll(data)

	s.logger.InfoContext(ctx, "Backup imported",
		log.NewFields().WithOperation(log.OpImport).WithData(len(data.Transactions), len(data.Goals)).ToSlice()...)
	return true, nil
}

// CacheStats reports dashboard cache usage.
func (s *BudgetService) CacheStats() cache.Stats {
	return s.dashboards.Stats()
}

// Revision reports the store revision, zero before Open.
func (s *BudgetService) Revision() uint64 {
	if s.store == nil {
		return 0
	}
	return s.store.Revision()
}

// Close detaches every subscriber. The storage backend and publisher belong
// to the caller.
func (s *BudgetService) Close() error {
	for _, unsubscribe := range s.unsubscribes {
		unsubscribe()
	}
	s.unsubscribes = nil
	s.dashboards.Purge()
	return nil
}
