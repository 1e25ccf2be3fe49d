// Package extract derives the set of erasure identifiers from consumed
// batches.
package extract

import (
	"sort"

	"github.com/scour-io/scour/internal/consume"
)

// RightTypeErasure is the right_type value that marks a deletion request.
const RightTypeErasure = "ERASURE"

// UniqueGUIDs walks every message across every batch in order and collects
// the guid of each erasure request. A message contributes only when its
// payload is an object, its right_type is exactly "ERASURE", and its guid
// is a non-empty string. The result is deduplicated and sorted.
func UniqueGUIDs(batches []consume.Batch) []string {
	seen := make(map[string]struct{})
	for _, batch := range batches {
		for _, msg := range batch.Messages {
			if msg.Payload == nil {
				continue
			}
			rightType, _ := msg.Payload["right_type"].(string)
			if rightType != RightTypeErasure {
				continue
			}
			guid, _ := msg.Payload["guid"].(string)
			if guid == "" {
				continue
			}
			seen[guid] = struct{}{}
		}
	}

	guids := make([]string, 0, len(seen))
	for guid := range seen {
		guids = append(guids, guid)
	}
	sort.Strings(guids)
	return guids
}
