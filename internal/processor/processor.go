package processor

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"codeberg.org/snonux/lingotools/internal/batch"
	"codeberg.org/snonux/lingotools/internal/cli"
	"codeberg.org/snonux/lingotools/internal/deckmodel"
	"codeberg.org/snonux/lingotools/internal/errs"
	"codeberg.org/snonux/lingotools/internal/langsvc"
	"codeberg.org/snonux/lingotools/internal/notestore"
	"codeberg.org/snonux/lingotools/internal/rules"
	"codeberg.org/snonux/lingotools/internal/textproc"
)

// detectionSampleSize caps the number of field values sent per detection
// request.
const detectionSampleSize = 100

// Processor handles the main collection processing logic
type Processor struct {
	flags      *cli.Flags
	collection notestore.Collection
	store      *rules.Store
	client     *langsvc.Client
	logger     *slog.Logger
	out        io.Writer
	in         io.Reader
	closer     io.Closer
}

// NewProcessor creates a processor wired to the collection and rule file
// named by the flags.
func NewProcessor(flags *cli.Flags) (*Processor, error) {
	if flags.Collection == "" {
		return nil, fmt.Errorf("no collection file given, use --collection")
	}
	collection, err := notestore.OpenSQLite(flags.Collection)
	if err != nil {
		return nil, err
	}

	store, err := rules.NewStore(rules.NewFileStore(flags.RulesFile))
	if err != nil {
		collection.Close()
		return nil, err
	}

	mediaDir := flags.MediaDir
	if mediaDir == "" {
		mediaDir = filepath.Join(filepath.Dir(flags.Collection), "collection.media")
	}
	if err := os.MkdirAll(mediaDir, 0755); err != nil {
		collection.Close()
		return nil, fmt.Errorf("failed to create media directory: %w", err)
	}

	apiKey := flags.APIKey
	if apiKey == "" {
		apiKey = cli.GetAPIKey()
	}
	logger := slog.Default()
	client := langsvc.NewClient(flags.BaseURL, apiKey, mediaDir, logger)

	return &Processor{
		flags:      flags,
		collection: collection,
		store:      store,
		client:     client,
		logger:     logger,
		out:        os.Stdout,
		in:         os.Stdin,
		closer:     collection,
	}, nil
}

// Close releases the collection.
func (p *Processor) Close() error {
	if p.closer == nil {
		return nil
	}
	return p.closer.Close()
}

// RunDetection samples every field of every populated deck/notetype pair
// and stores the detected language for fields that have none yet.
func (p *Processor) RunDetection(ctx context.Context) error {
	pairs, err := p.collection.PopulatedDeckNoteTypes()
	if err != nil {
		return err
	}
	textProcessor := textproc.NewProcessor(p.store.ReplacementRules(), p.logger)

	detected := 0
	for _, dnt := range pairs {
		fieldNames, err := p.collection.FieldNames(dnt.ModelID)
		if err != nil {
			return err
		}
		noteIDs, err := p.collection.NoteIDs(dnt.Key())
		if err != nil {
			return err
		}

		for _, fieldName := range fieldNames {
			dntf := deckmodel.DeckNoteTypeField{DeckNoteType: dnt, FieldName: fieldName}
			if language, ok := p.store.Language(dntf); ok && language != "" {
				continue
			}

			sample := p.sampleFieldValues(textProcessor, noteIDs, fieldName)
			if len(sample) == 0 {
				fmt.Fprintf(p.out, "%s: no text to sample, skipping\n", dntf)
				continue
			}

			language, err := p.client.Detect(ctx, sample)
			if err != nil {
				fmt.Fprintf(p.out, "%s: detection failed: %v\n", dntf, err)
				continue
			}
			if language == "" {
				continue
			}
			if err := p.store.SetLanguage(dntf, language); err != nil {
				return err
			}
			fmt.Fprintf(p.out, "%s: %s\n", dntf, language)
			detected++
		}
	}

	fmt.Fprintf(p.out, "\nDetected %d field languages. Wanted languages: %s\n",
		detected, strings.Join(p.store.WantedLanguages(), ", "))
	return nil
}

// sampleFieldValues collects up to detectionSampleSize non-empty processed
// values of one field across the given notes.
func (p *Processor) sampleFieldValues(textProcessor *textproc.Processor, noteIDs []int64, fieldName string) []string {
	var sample []string
	for _, noteID := range noteIDs {
		if len(sample) >= detectionSampleSize {
			break
		}
		note, err := p.collection.NoteByID(noteID)
		if err != nil {
			continue
		}
		value, err := note.Field(fieldName)
		if err != nil {
			continue
		}
		processed := textProcessor.Process(value, textproc.Translation)
		if processed == "" {
			continue
		}
		sample = append(sample, processed)
	}
	return sample
}

// RunBatch applies every stored rule to the deck/notetype named by the
// flags. Unless --force is given, populated target fields trigger an
// overwrite prompt first.
func (p *Processor) RunBatch(ctx context.Context) error {
	if p.flags.Deck == "" || p.flags.NoteType == "" {
		return fmt.Errorf("--apply-rules requires --deck and --note-type")
	}
	dnt, err := p.findDeckNoteType(p.flags.Deck, p.flags.NoteType)
	if err != nil {
		return err
	}
	noteIDs, err := p.collection.NoteIDs(dnt.Key())
	if err != nil {
		return err
	}
	if len(noteIDs) == 0 {
		fmt.Fprintf(p.out, "No notes in %s\n", dnt)
		return nil
	}

	textProcessor := textproc.NewProcessor(p.store.ReplacementRules(), p.logger)
	applier := batch.NewRuleApplier(p.store, textProcessor, p.client, mediaImporter{})
	executor := batch.NewExecutor(p.collection, p.store, applier, errs.NewManager(p.logger, nil), p.logger)

	if !p.flags.Force {
		nonEmpty, err := executor.TargetsNonEmpty(dnt, noteIDs)
		if err != nil {
			return err
		}
		if nonEmpty && !p.confirm("Some target fields already contain text. Overwrite?") {
			fmt.Fprintln(p.out, "Aborted.")
			return nil
		}
	}

	summary, err := executor.Run(ctx, dnt, noteIDs, func(done, total int) {
		fmt.Fprintf(p.out, "\rProcessing %d/%d", done, total)
	})
	fmt.Fprintln(p.out)
	if err != nil {
		return err
	}

	fmt.Fprintf(p.out, "Done: %d attempts, %d updated, %d skipped, %d failed\n",
		summary.Attempts, summary.Successes, summary.Skipped, summary.Failures)
	if summary.ErrorSummary != "" {
		fmt.Fprintln(p.out, summary.ErrorSummary)
	}
	return nil
}

func (p *Processor) findDeckNoteType(deckName, noteTypeName string) (deckmodel.DeckNoteType, error) {
	pairs, err := p.collection.PopulatedDeckNoteTypes()
	if err != nil {
		return deckmodel.DeckNoteType{}, err
	}
	for _, dnt := range pairs {
		if dnt.DeckName == deckName && dnt.ModelName == noteTypeName {
			return dnt, nil
		}
	}
	return deckmodel.DeckNoteType{}, &errs.ItemNotFoundError{
		Kind: "deck",
		Name: fmt.Sprintf("%s / %s", noteTypeName, deckName),
	}
}

func (p *Processor) confirm(question string) bool {
	fmt.Fprintf(p.out, "%s [y/N] ", question)
	reader := bufio.NewReader(p.in)
	answer, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

// mediaImporter names the media file for field references. The client
// already writes synthesized audio into the collection media folder, so
// importing reduces to taking the base name.
type mediaImporter struct{}

func (mediaImporter) Import(path string) (string, error) {
	return filepath.Base(path), nil
}
