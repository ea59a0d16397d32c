package normalize

import (
	"encoding/json"
	"strings"

	"github.com/ternarybob/venari/internal/adapters"
	"github.com/ternarybob/venari/internal/models"
)

// currencyValue is the upstream {unit, amount} shape for currency metadata.
type currencyValue struct {
	Unit   string  `json:"unit"`
	Amount float64 `json:"amount"`
}

// NormalizeMetadata maps upstream metadata[{name,value,value_type}] into an
// ordered entry list plus a name-to-value map. Strings are trimmed, the
// {unit, amount} currency shape is preserved, empty values are dropped, and
// on duplicate names the first wins.
func NormalizeMetadata(raw []adapters.RawMetadataEntry) ([]models.MetadataEntry, map[string]models.MetadataValue) {
	if len(raw) == 0 {
		return nil, nil
	}

	entries := make([]models.MetadataEntry, 0, len(raw))
	kv := make(map[string]models.MetadataValue, len(raw))

	for _, entry := range raw {
		name := strings.TrimSpace(entry.Name)
		if name == "" {
			continue
		}
		if _, exists := kv[name]; exists {
			continue
		}

		value, ok := decodeValue(entry.Value, entry.ValueType)
		if !ok || value.Empty() {
			continue
		}

		entries = append(entries, models.MetadataEntry{Name: name, Value: value})
		kv[name] = value
	}

	if len(entries) == 0 {
		return nil, nil
	}
	return entries, kv
}

func decodeValue(raw json.RawMessage, valueType string) (models.MetadataValue, bool) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return models.MetadataValue{}, false
	}

	if strings.Contains(valueType, "currency") {
		var cur currencyValue
		if err := json.Unmarshal(raw, &cur); err == nil {
			return models.MetadataValue{
				Kind:   models.MetadataKindCurrency,
				Unit:   strings.TrimSpace(cur.Unit),
				Amount: cur.Amount,
			}, true
		}
	}

	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return models.MetadataValue{
			Kind: models.MetadataKindText,
			Text: strings.TrimSpace(text),
		}, true
	}

	var number float64
	if err := json.Unmarshal(raw, &number); err == nil {
		return models.MetadataValue{
			Kind:   models.MetadataKindNumber,
			Number: number,
		}, true
	}

	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		cleaned := make([]string, 0, len(list))
		for _, item := range list {
			if item = strings.TrimSpace(item); item != "" {
				cleaned = append(cleaned, item)
			}
		}
		return models.MetadataValue{
			Kind: models.MetadataKindList,
			List: cleaned,
		}, true
	}

	var cur currencyValue
	if err := json.Unmarshal(raw, &cur); err == nil && (cur.Unit != "" || cur.Amount != 0) {
		return models.MetadataValue{
			Kind:   models.MetadataKindCurrency,
			Unit:   strings.TrimSpace(cur.Unit),
			Amount: cur.Amount,
		}, true
	}

	return models.MetadataValue{}, false
}
