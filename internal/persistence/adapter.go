// Package persistence stores AppData under a single key and handles backup
// files.
package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"growly/internal/core"
	"growly/internal/log"
	"growly/internal/storage"
)

// DefaultKey is the storage key the data blob lives under.
const DefaultKey = "growly_data_v1"

const (
	backupPrefix = "growly_backup_"
	backupSuffix = ".json"
)

var (
	ErrRead          = errors.New("read import file")
	ErrParse         = errors.New("parse import file")
	ErrInvalidFormat = errors.New("invalid backup format")
)

// Adapter reads and writes the AppData blob. It never holds a copy of the
// data between calls.
type Adapter struct {
	kv     storage.KeyValue
	key    string
	logger *log.Logger
}

func NewAdapter(kv storage.KeyValue, key string, logger *log.Logger) *Adapter {
	if key == "" {
		key = DefaultKey
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &Adapter{kv: kv, key: key, logger: logger.WithComponent(log.ComponentPersistence)}
}

func (a *Adapter) Key() string {
	return a.key
}

// Load returns the persisted data, or empty data when nothing usable is
// stored. Failures are logged, never returned.
func (a *Adapter) Load(ctx context.Context) core.AppData {
	raw, ok, err := a.kv.Get(ctx, a.key)
	if err != nil {
		a.logger.ErrorContext(ctx, "Error reading from storage", log.FieldKey, a.key, log.FieldError, err)
		return core.Empty()
	}
	if !ok || len(raw) == 0 {
		return core.Empty()
	}

	var data core.AppData
	if err := json.Unmarshal(raw, &data); err != nil {
		a.logger.ErrorContext(ctx, "Stored data is not valid JSON", log.FieldKey, a.key, log.FieldError, err)
		return core.Empty()
	}
	data = data.Normalize()
	a.logger.DebugContext(ctx, "Data loaded", log.NewFields().WithOperation(log.OpLoad).WithData(len(data.Transactions), len(data.Goals)).ToSlice()...)
	return data
}

// Save writes the whole blob in one key write. The error is logged and also
// returned; callers on the mutation path ignore it.
func (a *Adapter) Save(ctx context.Context, data core.AppData) error {
	raw, err := json.Marshal(data.Normalize())
	if err != nil {
		a.logger.ErrorContext(ctx, "Error encoding data", log.FieldError, err)
		return fmt.Errorf("encode data: %w", err)
	}
	if err := a.kv.Set(ctx, a.key, raw); err != nil {
		a.logger.ErrorContext(ctx, "Error saving to storage", log.FieldKey, a.key, log.FieldBytes, len(raw), log.FieldError, err)
		return fmt.Errorf("save data: %w", err)
	}
	return nil
}

// Export renders data as an indented backup and names the file after the
// UTC date of now.
func Export(data core.AppData, now time.Time) (filename string, body []byte, err error) {
	body, err = json.MarshalIndent(data.Normalize(), "", "  ")
	if err != nil {
		return "", nil, fmt.Errorf("encode backup: %w", err)
	}
	return BackupFilename(now), body, nil
}

func BackupFilename(now time.Time) string {
	return backupPrefix + now.UTC().Format("2006-01-02") + backupSuffix
}

// IsBackupFilename reports whether name looks like a file written by Export.
func IsBackupFilename(name string) bool {
	if !strings.HasPrefix(name, backupPrefix) || !strings.HasSuffix(name, backupSuffix) {
		return false
	}
	date := strings.TrimSuffix(strings.TrimPrefix(name, backupPrefix), backupSuffix)
	_, err := time.Parse("2006-01-02", date)
	return err == nil
}

// WriteExport writes the backup for data into dir and returns its path. A
// backup from the same day is overwritten.
func WriteExport(dir string, data core.AppData, now time.Time) (string, error) {
	name, body, err := Export(data, now)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create backup dir: %w", err)
	}
	path := filepath.Join(dir, name)
	tmp, err := os.CreateTemp(dir, "."+name+".*")
	if err != nil {
		return "", fmt.Errorf("create temp backup: %w", err)
	}
	if _, err := tmp.Write(body); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("write backup: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("close backup: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("rename backup: %w", err)
	}
	return path, nil
}

// Validate is a shallow shape check: candidate must be an object whose
// transactions and goals fields are arrays. Elements are not inspected.
func Validate(candidate any) bool {
	obj, ok := candidate.(map[string]any)
	if !ok {
		return false
	}
	if _, ok := obj["transactions"].([]any); !ok {
		return false
	}
	_, ok = obj["goals"].([]any)
	return ok
}

// Import parses a backup file. The result is meant to replace the current
// state wholesale. Past the shallow Validate check, every array element must
// decode into its model type, so non-object elements such as
// {"transactions":[1],"goals":[]} are rejected with ErrInvalidFormat.
func Import(body []byte) (core.AppData, error) {
	var candidate any
	if err := json.Unmarshal(body, &candidate); err != nil {
		return core.AppData{}, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if !Validate(candidate) {
		return core.AppData{}, ErrInvalidFormat
	}
	var data core.AppData
	if err := json.Unmarshal(body, &data); err != nil {
		// Shaped correctly but a field has a JSON type the model cannot hold.
		return core.AppData{}, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	return data.Normalize(), nil
}

// ReadImportFile reads and parses the backup at path.
func ReadImportFile(ctx context.Context, path string) (core.AppData, error) {
	type result struct {
		body []byte
		err  error
	}
	done := make(chan result, 1)
	go func() {
		b, err := os.ReadFile(path)
		done <- result{body: b, err: err}
	}()

	select {
	case <-ctx.Done():
		return core.AppData{}, fmt.Errorf("%w: %v", ErrRead, ctx.Err())
	case r := <-done:
		if r.err != nil {
			return core.AppData{}, fmt.Errorf("%w: %v", ErrRead, r.err)
		}
		return Import(r.body)
	}
}

// Message turns import errors into the text shown to the user.
func Message(err error) string {
	switch {
	case err == nil:
		return "Datos restaurados con éxito."
	case errors.Is(err, ErrInvalidFormat):
		return "El archivo no tiene el formato válido de Growly."
	case errors.Is(err, ErrParse), errors.Is(err, ErrRead):
		return "Error al leer el archivo."
	}
	return "Ocurrió un error inesperado."
}
