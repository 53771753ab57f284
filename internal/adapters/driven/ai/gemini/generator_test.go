package gemini

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/infobot/internal/core/domain"
)

func newTestServer(t *testing.T, answer string, status int) (*httptest.Server, *generateRequest) {
	t.Helper()

	var captured generateRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Contains(t, r.URL.RawQuery, "key=test-key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		body := map[string]any{
			"candidates": []any{
				map[string]any{"content": map[string]any{"parts": []any{map[string]any{"text": answer}}}},
			},
		}
		json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(server.Close)
	return server, &captured
}

func TestGenerator_AnswerGeneral(t *testing.T) {
	server, captured := newTestServer(t, "forty-two", http.StatusOK)
	g := New(Config{APIKey: "test-key", BaseURL: server.URL})

	got, err := g.AnswerGeneral(context.Background(), "what is the answer")
	require.NoError(t, err)
	assert.Equal(t, "forty-two", got)

	require.Len(t, captured.Contents, 1)
	prompt := captured.Contents[0].Parts[0].Text
	assert.Contains(t, prompt, "what is the answer")
	assert.Equal(t, DefaultTemperature, captured.GenerationConfig.Temperature)
	assert.Len(t, captured.SafetySettings, 4)
}

func TestGenerator_AnswerWithContext(t *testing.T) {
	server, captured := newTestServer(t, "Leave accrues monthly.", http.StatusOK)
	g := New(Config{APIKey: "test-key", BaseURL: server.URL})

	chunks := []domain.RetrievedChunk{
		{
			Chunk: domain.Chunk{
				ParentName:  "Leave Policy",
				SourceLabel: domain.SourceLabelDrive,
				Text:        "Annual leave accrues monthly.",
				ViewURL:     "https://drive.example.com/doc-leave",
			},
			Score: 4.2,
		},
		{
			Chunk: domain.Chunk{
				ParentName: "Leave Policy",
				ViewURL:    "https://drive.example.com/doc-leave", // duplicate URL
			},
			Score: 2.0,
		},
	}

	got, err := g.AnswerWithContext(context.Background(), "leave policy?", chunks)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(got, "Leave accrues monthly."))
	assert.Contains(t, got, "Here are the references:")
	assert.Equal(t, 1, strings.Count(got, "https://drive.example.com/doc-leave"))

	prompt := captured.Contents[0].Parts[0].Text
	assert.Contains(t, prompt, "Document 1:")
	assert.Contains(t, prompt, "Title: Leave Policy")
	assert.Contains(t, prompt, "Relevance Score: 4.20")
}

func TestGenerator_NotConfigured(t *testing.T) {
	g := New(Config{})

	assert.False(t, g.IsAvailable(context.Background()))

	got, err := g.AnswerGeneral(context.Background(), "anything")
	require.NoError(t, err)
	assert.Equal(t, notConfiguredMessage, got)

	got, err = g.AnswerWithContext(context.Background(), "anything", nil)
	require.NoError(t, err)
	assert.Equal(t, notConfiguredMessage, got)
}

func TestGenerator_APIError(t *testing.T) {
	server, _ := newTestServer(t, "", http.StatusTooManyRequests)
	g := New(Config{APIKey: "test-key", BaseURL: server.URL})

	_, err := g.AnswerGeneral(context.Background(), "anything")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 429")
}

func TestBuildContext_TruncatesLongChunks(t *testing.T) {
	chunks := []domain.RetrievedChunk{{
		Chunk: domain.Chunk{Text: strings.Repeat("x", 3000)},
	}}

	got := buildContext(chunks)
	assert.Contains(t, got, strings.Repeat("x", maxContextCharsPerChunk)+"...")
	assert.NotContains(t, got, strings.Repeat("x", maxContextCharsPerChunk+1))
}
