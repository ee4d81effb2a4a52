package batch

import (
	"context"
	"errors"
	"log/slog"

	"codeberg.org/snonux/lingotools/internal/deckmodel"
	"codeberg.org/snonux/lingotools/internal/errs"
	"codeberg.org/snonux/lingotools/internal/notestore"
	"codeberg.org/snonux/lingotools/internal/rules"
	"codeberg.org/snonux/lingotools/internal/textproc"
)

// Progress is called after every attempt with the number of attempts
// completed so far and the fixed total.
type Progress func(done, total int)

// Summary is the outcome of one batch run. Attempts always equals
// notes times rules; an attempt is exactly one of a success, a skip or a
// failure.
type Summary struct {
	Attempts     int
	Successes    int
	Skipped      int
	Failures     int
	ErrorCounts  map[string]int
	ErrorSummary string
}

// Executor runs every stored rule of a deck/notetype over a list of notes.
type Executor struct {
	collection notestore.Collection
	store      *rules.Store
	applier    *RuleApplier
	errors     *errs.Manager
	logger     *slog.Logger
}

// NewExecutor creates a batch executor.
func NewExecutor(collection notestore.Collection, store *rules.Store, applier *RuleApplier, manager *errs.Manager, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	if manager == nil {
		manager = errs.NewManager(nil, nil)
	}
	return &Executor{
		collection: collection,
		store:      store,
		applier:    applier,
		errors:     manager,
		logger:     logger,
	}
}

// Run applies all stored rules to the given notes in list order. Rules
// execute in the fixed kind order, translations first and audio last, with
// a stable field order within each kind, so a run over the same collection
// state is reproducible. A failed attempt is folded into the error
// histogram and the run continues; only context cancellation aborts.
// Each note is persisted at most once, after all its rules ran.
func (e *Executor) Run(ctx context.Context, dnt deckmodel.DeckNoteType, noteIDs []int64, progress Progress) (Summary, error) {
	ruleSet := e.store.AllRules(dnt)
	total := len(noteIDs) * len(ruleSet)
	batchErrors := e.errors.NewBatch("batch transformation")

	var summary Summary
	report := func() {
		if progress != nil {
			progress(summary.Attempts, total)
		}
	}

	for _, noteID := range noteIDs {
		if err := ctx.Err(); err != nil {
			return e.finish(summary, batchErrors), err
		}

		note, err := e.collection.NoteByID(noteID)
		if err != nil {
			// every rule attempt against this note fails the same way
			for range ruleSet {
				summary.Attempts++
				batchErrors.Record(err)
				report()
			}
			continue
		}

		modified := false
		for _, rule := range ruleSet {
			summary.Attempts++
			if e.runAttempt(ctx, dnt, note, rule, &summary, batchErrors) {
				modified = true
			}
			report()
		}

		if modified {
			if err := e.collection.UpdateNote(note); err != nil {
				batchErrors.Record(err)
			}
		}
	}
	return e.finish(summary, batchErrors), nil
}

// runAttempt applies one rule to one note and reports whether the note was
// modified.
func (e *Executor) runAttempt(ctx context.Context, dnt deckmodel.DeckNoteType, note *notestore.Note, rule rules.Rule, summary *Summary, batchErrors *errs.BatchErrorManager) bool {
	source, err := note.Field(rule.FromField)
	if err != nil {
		batchErrors.Record(err)
		return false
	}

	value, err := e.applier.Apply(ctx, dnt, rule, source)
	if err != nil {
		var fieldEmpty *errs.FieldEmptyError
		if errors.As(err, &fieldEmpty) {
			summary.Skipped++
			return false
		}
		batchErrors.Record(err)
		return false
	}

	if err := note.SetField(rule.ToField, value); err != nil {
		batchErrors.Record(err)
		return false
	}
	summary.Successes++
	return true
}

func (e *Executor) finish(summary Summary, batchErrors *errs.BatchErrorManager) Summary {
	summary.Failures = batchErrors.Total()
	summary.ErrorCounts = batchErrors.Counts()
	summary.ErrorSummary = batchErrors.Summary()
	return summary
}

// TargetsNonEmpty reports whether any rule target field of any given note
// already holds visible text. Callers use it to ask for overwrite
// confirmation before a run.
func (e *Executor) TargetsNonEmpty(dnt deckmodel.DeckNoteType, noteIDs []int64) (bool, error) {
	ruleSet := e.store.AllRules(dnt)
	for _, noteID := range noteIDs {
		note, err := e.collection.NoteByID(noteID)
		if err != nil {
			return false, err
		}
		for _, rule := range ruleSet {
			value, err := note.Field(rule.ToField)
			if err != nil {
				continue
			}
			if !textproc.IsEmpty(value) {
				return true, nil
			}
		}
	}
	return false, nil
}
