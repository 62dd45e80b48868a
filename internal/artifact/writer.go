// Package artifact persists the updater's output files under the data
// directory consumed by the site.
package artifact

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/mosestyle/warframe-relic-data/pkg/catalog"
	"github.com/mosestyle/warframe-relic-data/pkg/logging"
)

// Output file names under the data directory.
const (
	RelicsFile      = "Relics.min.json"
	PricesFile      = "prices.json"
	MissingTextFile = "missing_prices.txt"
	MissingJSONFile = "missing_prices.json"
)

// Writer writes output artifacts into a single data directory, creating it
// on first use.
type Writer struct {
	dir    string
	logger zerolog.Logger
}

// NewWriter creates a writer rooted at dir.
func NewWriter(dir string) *Writer {
	return &Writer{dir: dir, logger: logging.NewLogger("artifact")}
}

// WriteRelics writes the catalog as compact JSON.
func (w *Writer) WriteRelics(relics []catalog.Relic) error {
	if err := w.writeJSON(RelicsFile, relics, false); err != nil {
		return err
	}
	w.logger.Info().Int("relics", len(relics)).Str("file", RelicsFile).Msg("Relics written")
	return nil
}

// WritePrices writes the item -> platinum price map as compact JSON.
func (w *Writer) WritePrices(prices map[string]int) error {
	if err := w.writeJSON(PricesFile, prices, false); err != nil {
		return err
	}
	w.logger.Info().Int("prices", len(prices)).Str("file", PricesFile).Msg("Prices written")
	return nil
}

// WriteMissing writes the unpriced item names twice: a text file for quick
// eyeballing and an indented JSON file for tooling. Names are sorted and
// deduplicated.
func (w *Writer) WriteMissing(missing []string) error {
	names := distinctSorted(missing)

	var sb strings.Builder
	for _, name := range names {
		sb.WriteString(name)
		sb.WriteByte('\n')
	}
	if err := w.writeFile(MissingTextFile, []byte(sb.String())); err != nil {
		return err
	}
	if err := w.writeJSON(MissingJSONFile, names, true); err != nil {
		return err
	}

	w.logger.Info().Int("missing", len(names)).Str("file", MissingTextFile).Msg("Missing prices written")
	return nil
}

func (w *Writer) writeJSON(name string, v any, indent bool) error {
	var data []byte
	var err error
	if indent {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}
	return w.writeFile(name, data)
}

func (w *Writer) writeFile(name string, data []byte) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	path := filepath.Join(w.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func distinctSorted(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
