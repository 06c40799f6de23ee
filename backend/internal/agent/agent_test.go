package agent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"askbob-medical/backend/internal/memory"
	"askbob-medical/backend/internal/model"
)

// scriptedLLM records prompts and returns a fixed reply
type scriptedLLM struct {
	reply         string
	systemPrompts []string
}

func (s *scriptedLLM) Chat(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	s.systemPrompts = append(s.systemPrompts, systemPrompt)
	return s.reply, nil
}

func TestMemoryAgent_RespondStoresTurn(t *testing.T) {
	ctx := context.Background()
	backend := memory.NewInMemoryBackend()
	llm := &scriptedLLM{reply: "You take metformin 500mg twice daily."}
	a := NewMemoryAgent(backend, llm)

	result, err := a.Respond(ctx, "u1", "what do I take?", RespondOptions{})
	require.NoError(t, err)
	assert.Equal(t, "You take metformin 500mg twice daily.", result.Content)

	// The assistant reply is now a memory for the next turn
	found, err := backend.Search(ctx, memory.SearchParams{Query: "metformin", UserID: "u1", Limit: 5})
	require.NoError(t, err)
	require.Len(t, found.Results, 1)
	assert.Equal(t, "You take metformin 500mg twice daily.", found.Results[0].Memory)
}

func TestMemoryAgent_MemoriesEnterSystemPrompt(t *testing.T) {
	ctx := context.Background()
	backend := memory.NewInMemoryBackend()
	require.NoError(t, backend.Add(ctx, []memory.Message{
		{Role: model.RoleAssistant, Content: "Patient is allergic to penicillin"},
	}, "u1", nil))

	llm := &scriptedLLM{reply: "noted"}
	a := NewMemoryAgent(backend, llm)

	result, err := a.Respond(ctx, "u1", "can I take penicillin?", RespondOptions{})
	require.NoError(t, err)

	require.Len(t, llm.systemPrompts, 1)
	assert.Contains(t, llm.systemPrompts[0], "- Patient is allergic to penicillin")
	require.Len(t, result.Memories, 1)
}

func TestMemoryAgent_EmptyMemoriesPlaceholder(t *testing.T) {
	ctx := context.Background()
	llm := &scriptedLLM{reply: "hello"}
	a := NewMemoryAgent(memory.NewInMemoryBackend(), llm)

	_, err := a.Respond(ctx, "u1", "hi", RespondOptions{})
	require.NoError(t, err)
	require.Len(t, llm.systemPrompts, 1)
	assert.Contains(t, llm.systemPrompts[0], "- (none)")
}

func TestMemoryAgent_MetadataAttachedToStoredTurn(t *testing.T) {
	ctx := context.Background()
	backend := memory.NewInMemoryBackend()
	a := NewMemoryAgent(backend, &scriptedLLM{reply: "ok"})

	_, err := a.Respond(ctx, "u1", "hello", RespondOptions{
		Metadata: map[string]any{"patient_id": "p1"},
	})
	require.NoError(t, err)

	found, err := backend.Search(ctx, memory.SearchParams{Query: "ok", UserID: "u1", Limit: 5})
	require.NoError(t, err)
	require.Len(t, found.Results, 1)
	assert.Equal(t, "p1", found.Results[0].Metadata["patient_id"])
}
