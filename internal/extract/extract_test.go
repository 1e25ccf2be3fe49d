package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/scour-io/scour/internal/consume"
)

func batchOf(payloads ...map[string]any) consume.Batch {
	msgs := make([]consume.Message, len(payloads))
	for i, p := range payloads {
		msgs[i] = consume.Message{Partition: 0, Offset: int64(i), Payload: p}
	}
	return consume.Batch{Topic: "privacy.deletion.requests", Messages: msgs}
}

func erasure(guid string) map[string]any {
	return map[string]any{"right_type": "ERASURE", "guid": guid}
}

func TestUniqueGUIDsDeduplicates(t *testing.T) {
	batches := []consume.Batch{
		batchOf(erasure("a"), erasure("b"), erasure("a")),
	}
	assert.Equal(t, []string{"a", "b"}, UniqueGUIDs(batches))
}

func TestUniqueGUIDsSorted(t *testing.T) {
	batches := []consume.Batch{
		batchOf(erasure("zulu"), erasure("alpha"), erasure("mike")),
	}
	assert.Equal(t, []string{"alpha", "mike", "zulu"}, UniqueGUIDs(batches))
}

func TestUniqueGUIDsAcrossBatches(t *testing.T) {
	batches := []consume.Batch{
		batchOf(erasure("b"), erasure("c")),
		batchOf(erasure("a"), erasure("c")),
	}
	assert.Equal(t, []string{"a", "b", "c"}, UniqueGUIDs(batches))
}

func TestUniqueGUIDsFilters(t *testing.T) {
	tests := []struct {
		name    string
		payload map[string]any
	}{
		{"nil payload", nil},
		{"wrong right type", map[string]any{"right_type": "ACCESS", "guid": "x"}},
		{"lowercase right type", map[string]any{"right_type": "erasure", "guid": "x"}},
		{"missing right type", map[string]any{"guid": "x"}},
		{"missing guid", map[string]any{"right_type": "ERASURE"}},
		{"empty guid", map[string]any{"right_type": "ERASURE", "guid": ""}},
		{"non-string guid", map[string]any{"right_type": "ERASURE", "guid": 42.0}},
		{"non-string right type", map[string]any{"right_type": 1.0, "guid": "x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := UniqueGUIDs([]consume.Batch{batchOf(tt.payload)})
			assert.Empty(t, got)
		})
	}
}

func TestUniqueGUIDsMixed(t *testing.T) {
	batches := []consume.Batch{
		batchOf(
			erasure("keep-1"),
			map[string]any{"right_type": "ACCESS", "guid": "drop"},
			nil,
			erasure(""),
			erasure("keep-2"),
		),
	}
	assert.Equal(t, []string{"keep-1", "keep-2"}, UniqueGUIDs(batches))
}

func TestUniqueGUIDsEmptyInput(t *testing.T) {
	assert.Empty(t, UniqueGUIDs(nil))
	assert.Empty(t, UniqueGUIDs([]consume.Batch{}))
	assert.Empty(t, UniqueGUIDs([]consume.Batch{batchOf()}))
}
