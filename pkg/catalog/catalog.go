// Package catalog builds the relic catalog from the WFCD drop tables,
// annotated with vault flags from the relic-data project.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/mosestyle/warframe-relic-data/pkg/fetch"
	"github.com/mosestyle/warframe-relic-data/pkg/logging"
)

const (
	// RelicsURL serves the full relic reward tables, vaulted and retired
	// relics included.
	RelicsURL = "https://raw.githubusercontent.com/WFCD/warframe-drop-data/master/data/relics.json"

	// VaultMapURL serves a smaller relic list that carries vaulted flags.
	VaultMapURL = "https://raw.githubusercontent.com/WFCD/warframe-relic-data/master/data/Relics.min.json"
)

// defaultVaulted applies to relics absent from the vault-flag source:
// assume vaulted until proven otherwise.
const defaultVaulted = true

var tierOrder = map[string]int{"Lith": 0, "Meso": 1, "Neo": 2, "Axi": 3}

// ErrEmptyCatalog guards against publishing an empty relic list when the
// upstream document changed shape.
var ErrEmptyCatalog = errors.New("relic catalog is empty after filtering")

// Reward is one item a relic can yield.
type Reward struct {
	Item   string   `json:"item"`
	Chance *float64 `json:"chance"`
	Type   string   `json:"type"`
}

// Relic is a catalog entry in the UI-facing shape.
type Relic struct {
	Tier    string   `json:"tier"`
	Name    string   `json:"name"`
	Vaulted bool     `json:"vaulted"`
	Rewards []Reward `json:"rewards"`
}

// Upstream drop-table shapes. Reward fields carry the alternate key
// spellings seen across WFCD data revisions.
type dropTableDocument struct {
	Relics []dropTableRelic `json:"relics"`
}

type dropTableRelic struct {
	Tier      string            `json:"tier"`
	RelicName string            `json:"relicName"`
	State     string            `json:"state"`
	Rewards   []dropTableReward `json:"rewards"`
}

type dropTableReward struct {
	ItemName string          `json:"itemName"`
	Item     string          `json:"item"`
	Name     string          `json:"name"`
	Chance   json.RawMessage `json:"chance"`
	Rarity   string          `json:"rarity"`
	Type     string          `json:"type"`
}

type vaultEntry struct {
	Name    string `json:"name"`
	Vaulted *bool  `json:"vaulted"`
}

// Builder fetches and normalizes the relic catalog.
type Builder struct {
	fetcher     *fetch.Client
	relicsURL   string
	vaultMapURL string
	logger      zerolog.Logger
}

// NewBuilder creates a builder against the production sources.
func NewBuilder(fetcher *fetch.Client) *Builder {
	return NewBuilderWithURLs(fetcher, RelicsURL, VaultMapURL)
}

// NewBuilderWithURLs creates a builder against custom sources (tests).
func NewBuilderWithURLs(fetcher *fetch.Client, relicsURL, vaultMapURL string) *Builder {
	return &Builder{
		fetcher:     fetcher,
		relicsURL:   relicsURL,
		vaultMapURL: vaultMapURL,
		logger:      logging.NewLogger("catalog"),
	}
}

// Build fetches the full drop tables and produces the deduplicated Intact
// relic list, vault-annotated and sorted by tier then code. A catalog that
// comes out empty is an error: better to abort the run than publish [].
func (b *Builder) Build(ctx context.Context) ([]Relic, error) {
	b.logger.Info().Str("url", b.relicsURL).Msg("Downloading relic drop tables")

	var doc dropTableDocument
	if err := b.fetcher.GetJSON(ctx, b.relicsURL, &doc); err != nil {
		return nil, fmt.Errorf("fetch relic drop tables: %w", err)
	}

	vaultMap := b.vaultedMap(ctx)

	seen := make(map[string]struct{})
	var out []Relic

	for _, r := range doc.Relics {
		// Only Intact entries; the refined states duplicate the same relic.
		if strings.TrimSpace(r.State) != "Intact" {
			continue
		}

		tier := strings.TrimSpace(r.Tier)
		code := strings.TrimSpace(r.RelicName)
		if tier == "" || code == "" {
			continue
		}

		fullName := tier + " " + code
		if _, ok := seen[fullName]; ok {
			continue
		}
		seen[fullName] = struct{}{}

		rewards := convertRewards(r.Rewards)
		if len(rewards) == 0 {
			continue
		}

		vaulted, ok := vaultMap[fullName]
		if !ok {
			vaulted = defaultVaulted
		}

		out = append(out, Relic{Tier: tier, Name: code, Vaulted: vaulted, Rewards: rewards})
	}

	sort.Slice(out, func(i, j int) bool {
		ti, tj := tierRank(out[i].Tier), tierRank(out[j].Tier)
		if ti != tj {
			return ti < tj
		}
		return out[i].Name < out[j].Name
	})

	if len(out) == 0 {
		return nil, ErrEmptyCatalog
	}

	b.logger.Info().Int("relics", len(out)).Msg("Relic catalog built")
	return out, nil
}

// vaultedMap fetches the vault-flag source. The source is best effort: on
// any failure every relic falls back to the vaulted default.
func (b *Builder) vaultedMap(ctx context.Context) map[string]bool {
	var entries []vaultEntry
	if err := b.fetcher.GetJSON(ctx, b.vaultMapURL, &entries); err != nil {
		b.logger.Warn().Err(err).Msg("Vault map unavailable, defaulting unknown relics to vaulted")
		return map[string]bool{}
	}

	m := make(map[string]bool, len(entries))
	for _, e := range entries {
		name := strings.TrimSpace(e.Name)
		if name == "" || e.Vaulted == nil {
			continue
		}
		m[name] = *e.Vaulted
	}

	b.logger.Info().Int("entries", len(m)).Msg("Vault map loaded")
	return m
}

// UniqueRewardItems returns the sorted distinct reward item names across
// the catalog: the unit of pricing.
func UniqueRewardItems(relics []Relic) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0, len(relics))

	for _, r := range relics {
		for _, rw := range r.Rewards {
			if rw.Item == "" {
				continue
			}
			if _, ok := seen[rw.Item]; ok {
				continue
			}
			seen[rw.Item] = struct{}{}
			out = append(out, rw.Item)
		}
	}

	sort.Strings(out)
	return out
}

func convertRewards(rewards []dropTableReward) []Reward {
	out := make([]Reward, 0, len(rewards))
	for _, rw := range rewards {
		item := firstNonEmpty(rw.ItemName, rw.Item, rw.Name)
		if item == "" {
			continue
		}
		out = append(out, Reward{
			Item:   item,
			Chance: parseChance(rw.Chance),
			Type:   firstNonEmpty(rw.Rarity, rw.Type),
		})
	}
	return out
}

// parseChance accepts the numeric and string spellings seen in the drop
// data; anything else becomes a null chance rather than an error.
func parseChance(raw json.RawMessage) *float64 {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}

	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return &f
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return &f
		}
	}
	return nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}

func tierRank(tier string) int {
	if rank, ok := tierOrder[tier]; ok {
		return rank
	}
	return len(tierOrder) + 1
}
