package configstore_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lllypuk/statuswatch/internal/infrastructure/configstore"
)

func TestEntryValidator(t *testing.T) {
	validator, err := configstore.NewEntryValidator()
	require.NoError(t, err)

	tests := []struct {
		name  string
		entry map[string]any
		valid bool
	}{
		{name: "minimal", entry: map[string]any{"name": "Billing", "url": "https://b.example.com"}, valid: true},
		{name: "full", entry: map[string]any{
			"_id": appID1, "appKey": "acme-billing", "name": "Billing",
			"url": "https://b.example.com", "description": "d",
		}, valid: true},
		{name: "missing url", entry: map[string]any{"name": "Billing"}},
		{name: "empty name", entry: map[string]any{"name": "", "url": "https://b.example.com"}},
		{name: "unknown field", entry: map[string]any{"name": "B", "url": "u", "owner": "x"}},
		{name: "wrong type", entry: map[string]any{"name": "B", "url": 42.0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.Validate(tt.entry)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestParseConfiguration_SkipsUnrelatedKeys(t *testing.T) {
	validator, err := configstore.NewEntryValidator()
	require.NoError(t, err)

	doc := `{
		"contact": {"contactEmail": "ops@example.com"},
		"` + appID2 + `": {"name": "Search", "url": "https://s.example.com"},
		"` + appID1 + `": {"name": "Billing", "url": "https://b.example.com", "extra": true}
	}`

	configs, skipped, err := configstore.ParseConfiguration(strings.NewReader(doc), validator)
	require.NoError(t, err)

	require.Len(t, configs, 1)
	assert.Equal(t, appID2, configs[0].ID.String())
	assert.Equal(t, "Search", configs[0].Name)

	require.Len(t, skipped, 2)
	keys := []string{skipped[0].Key, skipped[1].Key}
	assert.ElementsMatch(t, []string{"contact", appID1}, keys)
}
