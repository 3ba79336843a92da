package worker

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"growly/internal/amqp"
	"growly/internal/log"
	"growly/internal/persistence"
)

// BackupWorker writes dated backup files of the stored data and keeps only
// the newest ones.
type BackupWorker struct {
	adapter *persistence.Adapter
	dir     string
	retain  int
	now     func() time.Time
	remove  func(string) error
	logger  *log.Logger
}

func NewBackupWorker(adapter *persistence.Adapter, dir string, retain int, logger *log.Logger) *BackupWorker {
	if logger == nil {
		logger = log.Discard()
	}
	return &BackupWorker{
		adapter: adapter,
		dir:     dir,
		retain:  retain,
		now:     time.Now,
		remove:  os.Remove,
		logger:  logger.WithComponent(log.ComponentWorker),
	}
}

// HandleChange processes a single change event from AMQP.
func (w *BackupWorker) HandleChange(ctx context.Context, ev *amqp.ChangeEvent) error {
	w.logger.InfoContext(ctx, "Processing change event",
		log.FieldRevision, ev.Revision,
		log.FieldChangeKind, ev.Kind)

	if _, err := w.Backup(ctx); err != nil {
		return fmt.Errorf("backup after %s: %w", ev.Kind, err)
	}
	return nil
}

// Backup writes today's backup file and prunes old ones. It returns the
// written path, or "" when the backup was skipped.
func (w *BackupWorker) Backup(ctx context.Context) (string, error) {
	data := w.adapter.Load(ctx)

	// Load reports unreadable storage as empty data; never let that replace
	// a real backup from the same day.
	if len(data.Transactions) == 0 && len(data.Goals) == 0 {
		existing := filepath.Join(w.dir, persistence.BackupFilename(w.now()))
		if _, err := os.Stat(existing); err == nil {
			w.logger.WarnContext(ctx, "Stored data is empty, keeping existing backup", log.FieldPath, existing)
			return "", nil
		}
	}

	path, err := persistence.WriteExport(w.dir, data, w.now())
	if err != nil {
		return "", err
	}

	w.logger.InfoContext(ctx, "Backup written",
		append(log.NewFields().WithOperation(log.OpBackup).WithData(len(data.Transactions), len(data.Goals)).ToSlice(),
			log.FieldPath, path)...)

	if _, err := w.Prune(ctx); err != nil {
		// The new backup is on disk; stale files can go next time.
		w.logger.ErrorContext(ctx, "Failed to prune backups", log.FieldError, err)
	}
	return path, nil
}

// Prune removes all but the newest retain backup files and returns how many
// were removed. A retain of zero or less keeps everything. Files not written
// by the exporter are ignored, as are files already gone by the time they are
// removed.
func (w *BackupWorker) Prune(ctx context.Context) (int, error) {
	if w.retain <= 0 {
		return 0, nil
	}
	entries, err := os.ReadDir(w.dir)
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read backup dir: %w", err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && persistence.IsBackupFilename(e.Name()) {
			names = append(names, e.Name())
		}
	}
	if len(names) <= w.retain {
		return 0, nil
	}

	// Dates are zero-padded, so lexical order is chronological.
	sort.Sort(sort.Reverse(sort.StringSlice(names)))

	removed := 0
	var errs []error
	for _, name := range names[w.retain:] {
		err := w.remove(filepath.Join(w.dir, name))
		if errors.Is(err, os.ErrNotExist) {
			// A concurrent prune got there first.
			continue
		}
		if err != nil {
			errs = append(errs, err)
			continue
		}
		removed++
	}

	w.logger.InfoContext(ctx, "Pruned old backups", log.FieldOperation, log.OpPrune, log.FieldCount, removed)
	return removed, errors.Join(errs...)
}

// RunPeriodic writes a backup every interval until ctx is done. A failed
// backup is logged and retried on the next tick.
func (w *BackupWorker) RunPeriodic(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("invalid backup interval %s", interval)
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.InfoContext(ctx, "Periodic backup stopped", "reason", ctx.Err())
			return nil
		case <-ticker.C:
			if _, err := w.Backup(ctx); err != nil {
				w.logger.ErrorContext(ctx, "Periodic backup failed", log.FieldError, err)
			}
		}
	}
}

// StartupBackup writes a backup at worker startup when none exists for
// today. This covers change events missed while the worker was down.
func (w *BackupWorker) StartupBackup(ctx context.Context) error {
	today := filepath.Join(w.dir, persistence.BackupFilename(w.now()))
	if _, err := os.Stat(today); err == nil {
		w.logger.InfoContext(ctx, "Backup for today already present", log.FieldPath, today)
		return nil
	}
	_, err := w.Backup(ctx)
	return err
}
