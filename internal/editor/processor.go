package editor

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"codeberg.org/snonux/lingotools/internal/batch"
	"codeberg.org/snonux/lingotools/internal/deckmodel"
	"codeberg.org/snonux/lingotools/internal/errs"
	"codeberg.org/snonux/lingotools/internal/notestore"
	"codeberg.org/snonux/lingotools/internal/rules"
	"codeberg.org/snonux/lingotools/internal/textproc"
)

// errSuperseded marks work made obsolete by a newer edit of the same
// field before the remote call started.
var errSuperseded = errors.New("superseded by newer edit")

// Notifier surfaces messages to the user while they type.
type Notifier interface {
	Info(message string)
	Error(message string)
}

// nopNotifier discards messages. It backs a nil Notifier argument.
type nopNotifier struct{}

func (nopNotifier) Info(string)  {}
func (nopNotifier) Error(string) {}

// Processor reacts to single-field edits by re-running the rules sourced
// from the edited field. Remote calls run on the runner's workers; all
// note mutation happens in completion callbacks, which the runner delivers
// on one foreground goroutine.
type Processor struct {
	collection notestore.Collection
	store      *rules.Store
	applier    *batch.RuleApplier
	errors     *errs.Manager
	notifier   Notifier
	runner     *Runner
	logger     *slog.Logger
	delay      time.Duration

	mu            sync.Mutex
	currentNoteID int64
	editSeqs      map[deckmodel.FieldKey]uint64
	lastText      map[deckmodel.FieldKey]string
}

// NewProcessor creates an incremental processor. The debounce delay comes
// from the stored live-update setting.
func NewProcessor(collection notestore.Collection, store *rules.Store, applier *batch.RuleApplier, manager *errs.Manager, notifier Notifier, runner *Runner, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if manager == nil {
		manager = errs.NewManager(nil, nil)
	}
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &Processor{
		collection: collection,
		store:      store,
		applier:    applier,
		errors:     manager,
		notifier:   notifier,
		runner:     runner,
		logger:     logger,
		delay:      time.Duration(store.LiveUpdateDelay()) * time.Millisecond,
		editSeqs:   map[deckmodel.FieldKey]uint64{},
		lastText:   map[deckmodel.FieldKey]string{},
	}
}

// NoteOpened records the note now being edited and seeds the per-field
// committed values, so editor events that repeat the stored value do not
// trigger work.
func (p *Processor) NoteOpened(note *notestore.Note) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.currentNoteID = note.ID()
	p.lastText = map[deckmodel.FieldKey]string{}
	for _, name := range note.FieldNames() {
		value, err := note.Field(name)
		if err != nil {
			continue
		}
		p.lastText[deckmodel.FieldKey{Key: note.Key(), FieldName: name}] = value
	}
}

// NoteClosed marks that no note is open. Completions arriving afterwards
// are dropped.
func (p *Processor) NoteClosed() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.currentNoteID = 0
}

// FieldEdited handles an as-you-type change to one field. Unchanged text
// is a no-op. An empty source clears every dependent target at once with
// no remote call. Otherwise one task per dependent rule is scheduled; a
// completion only lands while its note is still the open one and no newer
// edit of the field has been dispatched since.
func (p *Processor) FieldEdited(ctx context.Context, dnt deckmodel.DeckNoteType, noteID int64, fieldIndex int, newText string) error {
	dntf, err := notestore.FieldFromIndex(p.collection, dnt, fieldIndex)
	if err != nil {
		return err
	}
	key := dntf.Key()

	p.mu.Lock()
	last, seen := p.lastText[key]
	if seen && last == newText {
		p.mu.Unlock()
		return nil
	}
	p.lastText[key] = newText
	p.editSeqs[key]++
	seq := p.editSeqs[key]
	p.mu.Unlock()

	ruleSet := p.store.RulesFromSource(dnt, dntf.FieldName)
	if len(ruleSet) == 0 {
		return nil
	}

	if textproc.IsEmpty(newText) {
		return p.clearTargets(noteID, ruleSet)
	}

	// shared across this edit's completions; completions run on one
	// goroutine so plain access is fine
	surfaced := false
	for _, rule := range ruleSet {
		rule := rule
		p.runner.Submit(func() (string, error) {
			if p.delay > 0 {
				select {
				case <-ctx.Done():
					return "", ctx.Err()
				case <-time.After(p.delay):
				}
			}
			if p.supersededEdit(key, seq) {
				return "", errSuperseded
			}
			return p.applier.Apply(ctx, dnt, rule, newText)
		}, func(result string, err error) {
			p.completeRule(noteID, key, seq, rule, result, err, &surfaced)
		})
	}
	return nil
}

// TranslationChoices collects every service's translation of the value
// currently feeding targetField, so a choose-translation dialog can offer
// alternatives to the rule's configured service. It runs synchronously;
// dialogs block on the user anyway.
func (p *Processor) TranslationChoices(ctx context.Context, dnt deckmodel.DeckNoteType, noteID int64, targetField string) (map[string]string, error) {
	target := deckmodel.DeckNoteTypeField{DeckNoteType: dnt, FieldName: targetField}
	rule, ok := p.store.RuleForTarget(textproc.Translation, target)
	if !ok {
		return nil, &errs.ItemNotFoundError{Kind: "translation rule", Name: target.String()}
	}
	note, err := p.collection.NoteByID(noteID)
	if err != nil {
		return nil, err
	}
	source, err := note.Field(rule.FromField)
	if err != nil {
		return nil, err
	}
	return p.applier.TranslationChoices(ctx, target, source)
}

func (p *Processor) supersededEdit(key deckmodel.FieldKey, seq uint64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.editSeqs[key] != seq
}

// completeRule lands one finished transformation: drop when stale, surface
// at most one error per edit, otherwise write the target field.
func (p *Processor) completeRule(noteID int64, key deckmodel.FieldKey, seq uint64, rule rules.Rule, result string, err error, surfaced *bool) {
	if errors.Is(err, errSuperseded) || errors.Is(err, context.Canceled) {
		return
	}

	p.mu.Lock()
	stale := p.currentNoteID != noteID || p.editSeqs[key] != seq
	p.mu.Unlock()
	if stale {
		return
	}

	if err != nil {
		var fieldEmpty *errs.FieldEmptyError
		if errors.As(err, &fieldEmpty) {
			return
		}
		if *surfaced {
			p.logger.Warn("live update failed", "field", rule.ToField, "error", err)
			return
		}
		*surfaced = true
		p.notifier.Error(p.errors.Message("as-you-type update", err))
		return
	}

	p.writeTarget(noteID, rule.ToField, result)
}

func (p *Processor) writeTarget(noteID int64, field, value string) {
	note, err := p.collection.NoteByID(noteID)
	if err != nil {
		p.logger.Warn("note vanished before live update landed", "note", noteID, "error", err)
		return
	}
	if err := note.SetField(field, value); err != nil {
		p.logger.Warn("target field vanished before live update landed", "field", field, "error", err)
		return
	}
	if err := p.collection.UpdateNote(note); err != nil {
		p.notifier.Error(p.errors.Message("as-you-type update", err))
	}
}

// clearTargets blanks every target of the given rules in one write. Runs
// synchronously: there is nothing to wait for when the source is empty.
func (p *Processor) clearTargets(noteID int64, ruleSet []rules.Rule) error {
	note, err := p.collection.NoteByID(noteID)
	if err != nil {
		return err
	}
	modified := false
	for _, rule := range ruleSet {
		if err := note.SetField(rule.ToField, ""); err != nil {
			continue
		}
		modified = true
	}
	if !modified {
		return nil
	}
	return p.collection.UpdateNote(note)
}
