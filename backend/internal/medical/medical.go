// Package medical holds the ingestion services that turn clinical
// inputs (reports, profile imports, consultations, document
// interpretations) into graph writes and memory entries. Each service
// takes the graph store as optional; with a nil store the memory write
// still happens.
package medical

import (
	"strconv"
	"strings"
	"time"

	"askbob-medical/backend/internal/model"
)

// compactParts joins the non-empty parts with "; "
func compactParts(parts []string) string {
	kept := parts[:0]
	for _, part := range parts {
		if part != "" {
			kept = append(kept, part)
		}
	}
	return strings.Join(kept, "; ")
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// buildMetadata assembles the flat provenance map attached to every
// memory written by the services
func buildMetadata(userID string, meta model.Metadata) map[string]any {
	meta.UserID = userID
	return meta.Flatten()
}
