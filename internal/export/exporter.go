package export

import (
	"context"
	"io"

	"botcheck/internal/store"
	errs "botcheck/pkg/errors"
	"botcheck/pkg/logger"
)

// SnapshotReader reads the store as it is now
type SnapshotReader interface {
	Snapshot(ctx context.Context) ([]store.Follower, error)
}

// Layout resolves and atomically writes export files
type Layout interface {
	ExportPath(account string) string
	WriteAtomic(path string, write func(w io.Writer) error) error
}

// Exporter writes an account's store to its CSV file
type Exporter struct {
	source SnapshotReader
	layout Layout
	logger logger.Logger
}

// NewExporter creates an Exporter
func NewExporter(source SnapshotReader, layout Layout, log logger.Logger) *Exporter {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Exporter{source: source, layout: layout, logger: log}
}

// Export replaces the account's CSV with the store's current contents and
// returns the file path and row count.
func (e *Exporter) Export(ctx context.Context, account string) (string, int, error) {
	if account == "" {
		return "", 0, errs.Config(errs.ErrEmptyAccount, "export needs a target account")
	}

	records, err := e.source.Snapshot(ctx)
	if err != nil {
		return "", 0, errs.Storage(err, "read followers for export")
	}

	table := Project(records)
	path := e.layout.ExportPath(account)
	if err := e.layout.WriteAtomic(path, func(w io.Writer) error {
		return WriteCSV(w, table)
	}); err != nil {
		return "", 0, errs.Storage(err, "write export")
	}

	e.logger.InfoWithFields("Followers exported", map[string]interface{}{
		"account": account,
		"path":    path,
		"rows":    len(table.Rows),
	})
	return path, len(table.Rows), nil
}
