package normalize

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/venari/internal/adapters"
	"github.com/ternarybob/venari/internal/models"
)

func rawEntry(name, valueJSON, valueType string) adapters.RawMetadataEntry {
	return adapters.RawMetadataEntry{
		Name:      name,
		Value:     json.RawMessage(valueJSON),
		ValueType: valueType,
	}
}

func TestNormalizeMetadata_TextTrimmed(t *testing.T) {
	entries, kv := NormalizeMetadata([]adapters.RawMetadataEntry{
		rawEntry("Team", `"  Platform  "`, "value_short_text"),
	})

	require.Len(t, entries, 1)
	assert.Equal(t, "Platform", entries[0].Value.Text)
	assert.Equal(t, models.MetadataKindText, kv["Team"].Kind)
}

func TestNormalizeMetadata_CurrencyPreserved(t *testing.T) {
	entries, kv := NormalizeMetadata([]adapters.RawMetadataEntry{
		rawEntry("Salary", `{"unit": "USD", "amount": 185000}`, "value_currency"),
	})

	require.Len(t, entries, 1)
	value := kv["Salary"]
	assert.Equal(t, models.MetadataKindCurrency, value.Kind)
	assert.Equal(t, "USD", value.Unit)
	assert.Equal(t, 185000.0, value.Amount)
}

func TestNormalizeMetadata_ListAndNumber(t *testing.T) {
	entries, kv := NormalizeMetadata([]adapters.RawMetadataEntry{
		rawEntry("Offices", `["NYC", "  SF  ", ""]`, "value_multi_select"),
		rawEntry("Headcount", `12`, "value_number"),
	})

	require.Len(t, entries, 2)
	assert.Equal(t, []string{"NYC", "SF"}, kv["Offices"].List)
	assert.Equal(t, 12.0, kv["Headcount"].Number)
}

func TestNormalizeMetadata_EmptyValuesDropped(t *testing.T) {
	entries, kv := NormalizeMetadata([]adapters.RawMetadataEntry{
		rawEntry("Blank", `"   "`, "value_short_text"),
		rawEntry("Null", `null`, "value_short_text"),
		rawEntry("", `"orphan"`, "value_short_text"),
	})

	assert.Nil(t, entries)
	assert.Nil(t, kv)
}

func TestNormalizeMetadata_FirstWinsOnDuplicate(t *testing.T) {
	entries, kv := NormalizeMetadata([]adapters.RawMetadataEntry{
		rawEntry("Team", `"Platform"`, "value_short_text"),
		rawEntry("Team", `"Infra"`, "value_short_text"),
	})

	require.Len(t, entries, 1)
	assert.Equal(t, "Platform", kv["Team"].Text)
}

func TestNormalizeMetadata_OrderPreserved(t *testing.T) {
	entries, _ := NormalizeMetadata([]adapters.RawMetadataEntry{
		rawEntry("Zeta", `"1"`, "value_short_text"),
		rawEntry("Alpha", `"2"`, "value_short_text"),
	})

	require.Len(t, entries, 2)
	assert.Equal(t, "Zeta", entries[0].Name)
	assert.Equal(t, "Alpha", entries[1].Name)
}

func TestNormalizeMetadata_Empty(t *testing.T) {
	entries, kv := NormalizeMetadata(nil)
	assert.Nil(t, entries)
	assert.Nil(t, kv)
}
