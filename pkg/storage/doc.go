// Package storage decides where each tracked account's files live.
//
// Every account owns two files:
//   - <data_dir>/<account>_followers.db, the follower store
//   - <export_dir>/<account>_followers.csv, the latest export
//
// The Manager scans the data directory on creation so the CLI can list the
// accounts it already tracks, and WriteAtomic replaces a file via a
// temporary sibling and rename so a crash never leaves a truncated export.
//
// Usage:
//
//	manager, err := storage.NewManager("data", "")
//	if err != nil {
//	    return err
//	}
//
//	dbPath := manager.DatabasePath("alice")
//	err = manager.WriteAtomic(manager.ExportPath("alice"), func(w io.Writer) error {
//	    _, err := io.WriteString(w, "header\n")
//	    return err
//	})
package storage
