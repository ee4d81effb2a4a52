package errs

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
)

// Reporter receives errors that fall outside the typed error set. The
// production implementation forwards them to the crash reporting channel;
// tests substitute a recording stub.
type Reporter interface {
	ReportUnexpected(action string, err error)
}

// NopReporter discards unexpected errors. Useful when no observability
// channel is configured.
type NopReporter struct{}

func (NopReporter) ReportUnexpected(action string, err error) {}

// Manager converts errors into user-visible outcomes. Typed errors become
// messages; anything else is logged with context, reported, and rendered
// as a generic failure.
type Manager struct {
	logger   *slog.Logger
	reporter Reporter
}

// NewManager creates an error manager. A nil reporter falls back to
// NopReporter.
func NewManager(logger *slog.Logger, reporter Reporter) *Manager {
	if reporter == nil {
		reporter = NopReporter{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{logger: logger, reporter: reporter}
}

// RunAction runs a single user action and returns the message to surface,
// if any. Typed errors pass through as their own message; unknown errors
// are reported and wrapped.
func (m *Manager) RunAction(action string, fn func() error) (string, bool) {
	err := fn()
	if err == nil {
		return "", false
	}
	return m.Message(action, err), true
}

// Message renders err for the user, reporting it first when it is not one
// of the typed engine errors.
func (m *Manager) Message(action string, err error) string {
	if IsLanguageTools(err) {
		return err.Error()
	}
	m.logger.Error("unexpected error", "action", action, "error", err)
	m.reporter.ReportUnexpected(action, err)
	return fmt.Sprintf("Unknown Error: %v", err)
}

// NewBatch creates a histogram collector bound to this manager.
func (m *Manager) NewBatch(action string) *BatchErrorManager {
	return &BatchErrorManager{manager: m, action: action, counts: map[string]int{}}
}

// BatchErrorManager aggregates per-item errors of a batch operation into a
// message frequency histogram so that a thousand identical failures render
// as one line.
type BatchErrorManager struct {
	manager *Manager
	action  string
	counts  map[string]int
	total   int
}

// Record folds one error into the histogram.
func (b *BatchErrorManager) Record(err error) {
	b.counts[b.manager.Message(b.action, err)]++
	b.total++
}

// Counts returns the message frequency histogram.
func (b *BatchErrorManager) Counts() map[string]int {
	return b.counts
}

// Total returns the number of recorded errors.
func (b *BatchErrorManager) Total() int {
	return b.total
}

// Summary renders the histogram in a stable order, most frequent first.
func (b *BatchErrorManager) Summary() string {
	if len(b.counts) == 0 {
		return ""
	}
	type entry struct {
		message string
		count   int
	}
	entries := make([]entry, 0, len(b.counts))
	for message, count := range b.counts {
		entries = append(entries, entry{message, count})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].count != entries[j].count {
			return entries[i].count > entries[j].count
		}
		return entries[i].message < entries[j].message
	})
	parts := make([]string, 0, len(entries))
	for _, e := range entries {
		parts = append(parts, fmt.Sprintf("%s (%d times)", e.message, e.count))
	}
	return "Errors: " + strings.Join(parts, ", ")
}
