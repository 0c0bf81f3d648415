package ingest

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrImportAlreadyRunning means the per-supplier guard is held by another
	// run. Nothing has been written when this is returned.
	ErrImportAlreadyRunning = errors.New("an import is already running for this supplier")

	// ErrSourceUnavailable wraps file-source failures (unreadable upload,
	// FTP fetch error). No destructive write has happened yet.
	ErrSourceUnavailable = errors.New("import source unavailable")

	// ErrWriteFailure wraps backend insert/delete errors; it aborts the
	// remaining chunks of a run.
	ErrWriteFailure = errors.New("backend write failed")

	// ErrRunFinalized is returned for any mutation attempted after a run
	// reached completed or failed.
	ErrRunFinalized = errors.New("import run already finalized")
)

// MappingIncompleteError reports which canonical fields have no source column.
type MappingIncompleteError struct {
	Missing []string
}

func (e *MappingIncompleteError) Error() string {
	return fmt.Sprintf("field mapping incomplete: missing %s", strings.Join(e.Missing, ", "))
}

func IsMappingIncomplete(err error) bool {
	var target *MappingIncompleteError
	return errors.As(err, &target)
}
