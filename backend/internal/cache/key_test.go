package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKey_DeterministicAcrossMapOrder(t *testing.T) {
	a := Key(KeyParams{
		Query:  "headache history",
		UserID: "u1",
		Limit:  5,
		Filters: map[string]any{
			"patient_id":   "p1",
			"encounter_id": "e1",
		},
	})
	b := Key(KeyParams{
		Query:  "headache history",
		UserID: "u1",
		Limit:  5,
		Filters: map[string]any{
			"encounter_id": "e1",
			"patient_id":   "p1",
		},
	})
	assert.Equal(t, a, b, "filter insertion order must not change the key")
}

func TestKey_SensitiveToEveryParameter(t *testing.T) {
	base := KeyParams{Query: "q", UserID: "u", Limit: 3}
	baseKey := Key(base)

	variants := []KeyParams{
		{Query: "q2", UserID: "u", Limit: 3},
		{Query: "q", UserID: "u2", Limit: 3},
		{Query: "q", UserID: "u", Limit: 4},
		{Query: "q", UserID: "u", Limit: 3, Filters: map[string]any{"patient_id": "p"}},
		{Query: "q", UserID: "u", Limit: 3, Threshold: ptr(0.5)},
		{Query: "q", UserID: "u", Limit: 3, Extra: map[string]any{"rerank": true}},
	}
	for _, v := range variants {
		assert.NotEqual(t, baseKey, Key(v), "parameter change must change the key: %+v", v)
	}
}

func TestKey_NilAndEmptyMapsEquivalent(t *testing.T) {
	a := Key(KeyParams{Query: "q", UserID: "u", Limit: 3})
	b := Key(KeyParams{Query: "q", UserID: "u", Limit: 3, Filters: map[string]any{}, Extra: map[string]any{}})
	assert.Equal(t, a, b)
}

func ptr(f float64) *float64 { return &f }
