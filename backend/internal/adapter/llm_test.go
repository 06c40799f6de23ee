package adapter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"askbob-medical/backend/pkg/config"
)

func TestLLMClient_StubMode(t *testing.T) {
	client := NewLLMClient(&config.Config{
		LLMBaseURL: "http://localhost:1",
		LLMModel:   "qwen-plus",
		LLMStub:    true,
	})

	reply, err := client.Chat(context.Background(), "system", "what medications am I on?")
	require.NoError(t, err)
	assert.Equal(t, "(stub) what medications am I on?", reply)
}

func TestLLMClient_FailsFastOnCancelledContext(t *testing.T) {
	client := NewLLMClient(&config.Config{
		// Unroutable address, first attempt errors immediately
		LLMBaseURL: "http://127.0.0.1:1/v1",
		LLMModel:   "qwen-plus",
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Chat(ctx, "system", "hello")
	assert.Error(t, err)
}
