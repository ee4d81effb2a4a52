package processor

import (
	"context"
	"fmt"
	"io"
	"sort"

	"codeberg.org/snonux/lingotools/internal/langsvc"
)

// catalogFetcher is the slice of the service client the listings need.
type catalogFetcher interface {
	FetchCatalog(ctx context.Context) (*langsvc.Catalog, error)
}

// Lister handles listing the service catalog
type Lister struct {
	fetcher catalogFetcher
	out     io.Writer
}

// NewLister creates a new catalog lister
func NewLister(fetcher catalogFetcher, out io.Writer) *Lister {
	return &Lister{fetcher: fetcher, out: out}
}

// ListLanguages lists every language the service knows, sorted by name
func (l *Lister) ListLanguages(ctx context.Context) error {
	catalog, err := l.fetcher.FetchCatalog(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch catalog: %w", err)
	}

	languages := catalog.Languages()
	codes := make([]string, 0, len(languages))
	for code := range languages {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool {
		if languages[codes[i]] != languages[codes[j]] {
			return languages[codes[i]] < languages[codes[j]]
		}
		return codes[i] < codes[j]
	})

	fmt.Fprintln(l.out, "Available Languages:")
	for _, code := range codes {
		fmt.Fprintf(l.out, "  %-10s %s\n", code, languages[code])
	}
	return nil
}

// ListVoices lists the text-to-speech voice catalog grouped by language
func (l *Lister) ListVoices(ctx context.Context) error {
	catalog, err := l.fetcher.FetchCatalog(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch catalog: %w", err)
	}

	voices := catalog.Voices()
	byLanguage := map[string][]langsvc.Voice{}
	for _, voice := range voices {
		byLanguage[voice.LanguageCode] = append(byLanguage[voice.LanguageCode], voice)
	}

	codes := make([]string, 0, len(byLanguage))
	for code := range byLanguage {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	fmt.Fprintln(l.out, "Available Voices:")
	for _, code := range codes {
		group := byLanguage[code]
		sort.Slice(group, func(i, j int) bool {
			if group[i].Service != group[j].Service {
				return group[i].Service < group[j].Service
			}
			return group[i].VoiceDescription < group[j].VoiceDescription
		})

		fmt.Fprintf(l.out, "\n%s (%s):\n", catalog.LanguageName(code), code)
		for _, voice := range group {
			fmt.Fprintf(l.out, "  %s: %s (%s)\n", voice.Service, voice.VoiceDescription, voice.Gender)
		}
	}
	return nil
}
