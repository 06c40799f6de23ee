// Package agent implements the conversational memory agent: each turn
// searches stored memories, folds them into the system prompt, asks the
// LLM, and stores the exchange back as new memories.
package agent

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"askbob-medical/backend/internal/adapter"
	"askbob-medical/backend/internal/memory"
	"askbob-medical/backend/internal/model"
	"askbob-medical/backend/pkg/logger"
)

const searchLimit = 3

const systemPromptTemplate = "You are a helpful agent. Use the memories when relevant.\nMemories:\n%s"

// TurnResult is the outcome of one agent turn
type TurnResult struct {
	Content  string         `json:"content"`
	Memories []memory.Entry `json:"memories"`
}

// RespondOptions carries the optional parameters of a turn
type RespondOptions struct {
	Metadata map[string]any
	Filters  map[string]any
}

// MemoryAgent runs the search, prompt, complete, store loop
type MemoryAgent struct {
	memory memory.Backend
	llm    adapter.Client
	logger *zap.Logger
}

func NewMemoryAgent(backend memory.Backend, llm adapter.Client) *MemoryAgent {
	return &MemoryAgent{
		memory: backend,
		llm:    llm,
		logger: logger.Get(),
	}
}

// Respond runs one turn for userID. The turn is stored even when the
// caller discards the result, so the next search sees it.
func (a *MemoryAgent) Respond(ctx context.Context, userID, message string, opts RespondOptions) (*TurnResult, error) {
	found, err := a.memory.Search(ctx, memory.SearchParams{
		Query:   message,
		UserID:  userID,
		Limit:   searchLimit,
		Filters: opts.Filters,
	})
	if err != nil {
		return nil, err
	}

	systemPrompt := fmt.Sprintf(systemPromptTemplate, formatMemories(found.Results))
	content, err := a.llm.Chat(ctx, systemPrompt, message)
	if err != nil {
		return nil, err
	}

	turn := []memory.Message{
		{Role: model.RolePatient, Content: message},
		{Role: model.RoleAssistant, Content: content},
	}
	if err := a.memory.Add(ctx, turn, userID, opts.Metadata); err != nil {
		return nil, err
	}

	a.logger.Debug("agent turn completed",
		zap.String("user_id", userID),
		zap.Int("memories", len(found.Results)))
	return &TurnResult{Content: content, Memories: found.Results}, nil
}

// formatMemories renders the search results as a bulleted list for the
// system prompt
func formatMemories(entries []memory.Entry) string {
	var lines []string
	for _, entry := range entries {
		if entry.Memory != "" {
			lines = append(lines, "- "+entry.Memory)
		}
	}
	if len(lines) == 0 {
		return "- (none)"
	}
	return strings.Join(lines, "\n")
}
