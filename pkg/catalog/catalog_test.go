package catalog

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mosestyle/warframe-relic-data/internal/testutil"
	"github.com/mosestyle/warframe-relic-data/pkg/fetch"
)

const dropTableBody = `{
  "relics": [
    {"tier": "Axi", "relicName": "A1", "state": "Intact", "rewards": [
      {"itemName": "Akstiletto Prime Link", "chance": 25.33, "rarity": "Uncommon"},
      {"itemName": "Forma Blueprint", "chance": "11.00", "rarity": "Uncommon"}
    ]},
    {"tier": "Axi", "relicName": "A1", "state": "Exceptional", "rewards": [
      {"itemName": "Akstiletto Prime Link", "chance": 28.0, "rarity": "Uncommon"}
    ]},
    {"tier": "Lith", "relicName": "B4", "state": "Intact", "rewards": [
      {"item": "Braton Prime Stock", "chance": 2.0, "type": "Rare"}
    ]},
    {"tier": "Lith", "relicName": "B4", "state": "Intact", "rewards": [
      {"itemName": "Braton Prime Stock", "chance": 2.0, "rarity": "Rare"}
    ]},
    {"tier": "Meso", "relicName": "E1", "state": "Intact", "rewards": []},
    {"tier": "", "relicName": "X9", "state": "Intact", "rewards": [
      {"itemName": "Ghost", "chance": 1.0, "rarity": "Rare"}
    ]}
  ]
}`

const vaultMapBody = `[
  {"name": "Axi A1", "vaulted": false},
  {"name": "  ", "vaulted": true},
  {"name": "Lith Z9"}
]`

func testFetcher() *fetch.Client {
	cfg := fetch.DefaultConfig()
	cfg.BackoffUnit = time.Millisecond
	return fetch.New(cfg)
}

func TestBuild(t *testing.T) {
	up := testutil.NewMockUpstream()
	defer up.Close()
	up.Respond("/relics.json", http.StatusOK, dropTableBody)
	up.Respond("/vault.json", http.StatusOK, vaultMapBody)

	b := NewBuilderWithURLs(testFetcher(), up.URL()+"/relics.json", up.URL()+"/vault.json")
	relics, err := b.Build(context.Background())
	require.NoError(t, err)

	// Intact only, deduplicated, tier-less entry dropped, empty rewards dropped.
	require.Len(t, relics, 2)

	// Sorted by tier order: Lith before Axi.
	assert.Equal(t, "Lith", relics[0].Tier)
	assert.Equal(t, "B4", relics[0].Name)
	assert.Equal(t, "Axi", relics[1].Tier)
	assert.Equal(t, "A1", relics[1].Name)

	// Vault flag from the map where present, default true elsewhere.
	assert.False(t, relics[1].Vaulted, "Axi A1 is unvaulted per the map")
	assert.True(t, relics[0].Vaulted, "Lith B4 is absent from the map")

	// Alternate reward keys accepted.
	require.Len(t, relics[0].Rewards, 1)
	assert.Equal(t, "Braton Prime Stock", relics[0].Rewards[0].Item)
	assert.Equal(t, "Rare", relics[0].Rewards[0].Type)

	// String chance parsed, numeric chance kept.
	rewards := relics[1].Rewards
	require.Len(t, rewards, 2)
	require.NotNil(t, rewards[0].Chance)
	assert.InDelta(t, 25.33, *rewards[0].Chance, 1e-9)
	require.NotNil(t, rewards[1].Chance)
	assert.InDelta(t, 11.0, *rewards[1].Chance, 1e-9)
}

func TestBuild_VaultSourceUnavailable(t *testing.T) {
	up := testutil.NewMockUpstream()
	defer up.Close()
	up.Respond("/relics.json", http.StatusOK, dropTableBody)
	up.Respond("/vault.json", http.StatusInternalServerError, "")

	b := NewBuilderWithURLs(testFetcher(), up.URL()+"/relics.json", up.URL()+"/vault.json")
	relics, err := b.Build(context.Background())
	require.NoError(t, err)

	// Without the map every relic defaults to vaulted.
	for _, r := range relics {
		assert.True(t, r.Vaulted, "relic %s %s should default to vaulted", r.Tier, r.Name)
	}
}

func TestBuild_EmptyCatalogFails(t *testing.T) {
	up := testutil.NewMockUpstream()
	defer up.Close()
	up.Respond("/relics.json", http.StatusOK, `{"relics":[]}`)
	up.Respond("/vault.json", http.StatusOK, `[]`)

	b := NewBuilderWithURLs(testFetcher(), up.URL()+"/relics.json", up.URL()+"/vault.json")
	_, err := b.Build(context.Background())
	assert.ErrorIs(t, err, ErrEmptyCatalog)
}

func TestBuild_DropTableFetchFails(t *testing.T) {
	up := testutil.NewMockUpstream()
	defer up.Close()
	up.Respond("/relics.json", http.StatusServiceUnavailable, "")
	up.Respond("/vault.json", http.StatusOK, `[]`)

	b := NewBuilderWithURLs(testFetcher(), up.URL()+"/relics.json", up.URL()+"/vault.json")
	_, err := b.Build(context.Background())
	assert.Error(t, err)
}

func TestUniqueRewardItems(t *testing.T) {
	relics := []Relic{
		{Tier: "Lith", Name: "B4", Rewards: []Reward{
			{Item: "Forma Blueprint"},
			{Item: "Braton Prime Stock"},
		}},
		{Tier: "Axi", Name: "A1", Rewards: []Reward{
			{Item: "Forma Blueprint"},
			{Item: "Akstiletto Prime Link"},
		}},
	}

	items := UniqueRewardItems(relics)
	assert.Equal(t, []string{"Akstiletto Prime Link", "Braton Prime Stock", "Forma Blueprint"}, items)
}

func TestParseChance(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected *float64
	}{
		{"number", "25.33", ptr(25.33)},
		{"numeric string", `"11.00"`, ptr(11.0)},
		{"null", "null", nil},
		{"absent", "", nil},
		{"garbage", `"often"`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseChance([]byte(tt.raw))
			if tt.expected == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.InDelta(t, *tt.expected, *got, 1e-9)
		})
	}
}

func ptr(v float64) *float64 {
	return &v
}
