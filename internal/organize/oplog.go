package organize

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// OpLog is the append-only operations log: one line per file relocation.
type OpLog struct {
	dir   string
	runID string
	now   func() time.Time
}

// NewOpLog creates an operations log writing daily files under dir. runID is
// stamped on every line so the runs in a shared log can be told apart.
func NewOpLog(dir, runID string, now func() time.Time) (*OpLog, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}
	if now == nil {
		now = time.Now
	}
	return &OpLog{dir: dir, runID: runID, now: now}, nil
}

// Append writes one relocation line:
// timestamp | KIND | filename | source → destination | detail
func (l *OpLog) Append(kind, filename, source, destination, detail string) error {
	ts := l.now()
	path := filepath.Join(l.dir, fmt.Sprintf("file_operations_%s.log", ts.Format("20060102")))

	line := fmt.Sprintf("%s | %s | %s | %s → %s", ts.Format("2006-01-02 15:04:05"), kind, filename, source, destination)
	if detail != "" {
		line += " | " + detail
	}
	if l.runID != "" {
		line += " | run=" + l.runID
	}
	line += "\n"

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("opening operations log: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("writing operations log: %w", err)
	}
	return nil
}
