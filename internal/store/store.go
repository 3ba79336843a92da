// Package store holds the live AppData and notifies subscribers after every
// mutation. It performs no validation; entities arrive already built.
package store

import (
	"sort"
	"sync"

	"growly/internal/core"
)

const (
	KindTransactionAdded ChangeKind = "transaction_added"
	KindGoalAdded        ChangeKind = "goal_added"
	KindGoalUpdated      ChangeKind = "goal_updated"
	KindGoalDeleted      ChangeKind = "goal_deleted"
	KindReplaced         ChangeKind = "replaced"
)

type (
	ChangeKind string

	// Change describes one applied mutation. Data is a snapshot taken right
	// after the mutation and is owned by the receiver.
	Change struct {
		Kind     ChangeKind
		Revision uint64
		Data     core.AppData
	}

	// Subscriber is called synchronously after each mutation, in
	// subscription order.
	Subscriber func(Change)

	Store struct {
		mu       sync.Mutex
		data     core.AppData
		revision uint64
		nextSub  int
		subs     []subscription
	}

	subscription struct {
		id int
		fn Subscriber
	}
)

// New returns a store seeded with data, typically what the persistence
// adapter loaded.
func New(data core.AppData) *Store {
	return &Store{data: data.Normalize().Clone()}
}

// Subscribe registers fn and returns a function that removes it.
func (s *Store) Subscribe(fn Subscriber) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSub++
	id := s.nextSub
	s.subs = append(s.subs, subscription{id: id, fn: fn})
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, sub := range s.subs {
			if sub.id == id {
				s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

// Snapshot returns a copy of the current data.
func (s *Store) Snapshot() core.AppData {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.Clone()
}

// Revision counts the mutations applied so far.
func (s *Store) Revision() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revision
}

// View returns a snapshot together with the revision it reflects.
func (s *Store) View() (core.AppData, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.Clone(), s.revision
}

// AddTransaction inserts t and keeps transactions sorted by date, most
// recent first. Among equal dates the latest insertion comes first. Ids are
// not checked for duplicates.
func (s *Store) AddTransaction(t core.Transaction) {
	s.mutate(KindTransactionAdded, func(d *core.AppData) bool {
		txs := make([]core.Transaction, 0, len(d.Transactions)+1)
		txs = append(txs, t)
		txs = append(txs, d.Transactions...)
		sortByDateDesc(txs)
		d.Transactions = txs
		return true
	})
}

// AddGoal appends g without any uniqueness check.
func (s *Store) AddGoal(g core.Goal) {
	s.mutate(KindGoalAdded, func(d *core.AppData) bool {
		d.Goals = append(d.Goals, g)
		return true
	})
}

// UpdateGoal replaces the first goal with g's id. It reports false, and
// notifies nobody, when no goal matches.
func (s *Store) UpdateGoal(g core.Goal) bool {
	return s.mutate(KindGoalUpdated, func(d *core.AppData) bool {
		for i := range d.Goals {
			if d.Goals[i].ID == g.ID {
				d.Goals[i] = g
				return true
			}
		}
		return false
	})
}

// DeleteGoal removes every goal with the given id and reports whether any
// was removed.
func (s *Store) DeleteGoal(id string) bool {
	return s.mutate(KindGoalDeleted, func(d *core.AppData) bool {
		kept := make([]core.Goal, 0, len(d.Goals))
		for _, g := range d.Goals {
			if g.ID != id {
				kept = append(kept, g)
			}
		}
		if len(kept) == len(d.Goals) {
			return false
		}
		d.Goals = kept
		return true
	})
}

// ReplaceAll swaps the whole state, as an import does. Nothing is merged or
// validated.
func (s *Store) ReplaceAll(data core.AppData) {
	s.mutate(KindReplaced, func(d *core.AppData) bool {
		*d = data.Normalize().Clone()
		return true
	})
}

func (s *Store) mutate(kind ChangeKind, apply func(*core.AppData) bool) bool {
	s.mu.Lock()
	if !apply(&s.data) {
		s.mu.Unlock()
		return false
	}
	s.revision++
	subs := append([]subscription(nil), s.subs...)
	change := Change{Kind: kind, Revision: s.revision, Data: s.data.Clone()}
	s.mu.Unlock()

	for _, sub := range subs {
		c := change
		c.Data = change.Data.Clone()
		sub.fn(c)
	}
	return true
}

// sortByDateDesc orders by parsed timestamp; dates that do not parse sink to
// the end, compared as plain strings.
func sortByDateDesc(txs []core.Transaction) {
	type keyed struct {
		unix  int64
		valid bool
	}
	keys := make(map[int]keyed, len(txs))
	idx := make([]int, len(txs))
	for i, t := range txs {
		idx[i] = i
		if ts, err := t.Time(); err == nil {
			keys[i] = keyed{unix: ts.UnixNano(), valid: true}
		}
	}
	sort.SliceStable(idx, func(a, b int) bool {
		ka, kb := keys[idx[a]], keys[idx[b]]
		switch {
		case ka.valid && kb.valid:
			return ka.unix > kb.unix
		case ka.valid != kb.valid:
			return ka.valid
		default:
			return txs[idx[a]].Date > txs[idx[b]].Date
		}
	})
	sorted := make([]core.Transaction, len(txs))
	for i, j := range idx {
		sorted[i] = txs[j]
	}
	copy(txs, sorted)
}
