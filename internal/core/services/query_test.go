package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/infobot/internal/core/domain"
	"github.com/custodia-labs/infobot/internal/core/ports/driven"
)

// mockAnswerer records what it was asked and returns canned prose.
type mockAnswerer struct {
	available   bool
	generalErr  error
	contextErr  error
	lastChunks  []domain.RetrievedChunk
	generalUsed bool
	contextUsed bool
}

var _ driven.AnswerGenerator = (*mockAnswerer)(nil)

func (m *mockAnswerer) AnswerWithContext(_ context.Context, _ string, chunks []domain.RetrievedChunk) (string, error) {
	m.contextUsed = true
	m.lastChunks = chunks
	if m.contextErr != nil {
		return "", m.contextErr
	}
	return "grounded answer", nil
}

func (m *mockAnswerer) AnswerGeneral(_ context.Context, _ string) (string, error) {
	m.generalUsed = true
	if m.generalErr != nil {
		return "", m.generalErr
	}
	return "general answer", nil
}

func (m *mockAnswerer) IsAvailable(_ context.Context) bool { return m.available }

func retrieved(n int) []domain.RetrievedChunk {
	chunks := make([]domain.RetrievedChunk, n)
	for i := range chunks {
		chunks[i] = domain.RetrievedChunk{
			Chunk: domain.Chunk{ParentID: "d1", Sequence: i, Text: "chunk"},
			Score: float64(n - i),
		}
	}
	return chunks
}

func newTestQuery(index *mockIndex, answerer *mockAnswerer) *QueryService {
	return NewQueryService(index, answerer, domain.DefaultSearchSettings())
}

func TestQueryService_Answer(t *testing.T) {
	t.Run("grounded answer from retrieved chunks", func(t *testing.T) {
		index := newMockIndex()
		index.queryResp = &domain.SearchResponse{Chunks: retrieved(3)}
		answerer := &mockAnswerer{available: true}
		svc := newTestQuery(index, answerer)

		got := svc.Answer(context.Background(), "What is the leave policy?")

		assert.Equal(t, "grounded answer", got)
		assert.True(t, answerer.contextUsed)
		assert.False(t, answerer.generalUsed)
	})

	t.Run("context is capped at the limit", func(t *testing.T) {
		index := newMockIndex()
		index.queryResp = &domain.SearchResponse{Chunks: retrieved(15)}
		answerer := &mockAnswerer{available: true}
		svc := newTestQuery(index, answerer)

		svc.Answer(context.Background(), "What is the leave policy?")

		assert.Len(t, answerer.lastChunks, 10)
		// Top-scored chunks survive the cap.
		assert.Equal(t, 15.0, answerer.lastChunks[0].Score)
	})

	t.Run("weak scores are cut off for topical queries", func(t *testing.T) {
		index := newMockIndex()
		index.queryResp = &domain.SearchResponse{Chunks: []domain.RetrievedChunk{
			{Chunk: domain.Chunk{ParentID: "d1"}, Score: 0.5},
			{Chunk: domain.Chunk{ParentID: "d2"}, Score: 0.05},
		}}
		answerer := &mockAnswerer{available: true}
		svc := newTestQuery(index, answerer)

		svc.Answer(context.Background(), "What is the leave policy?")

		require.Len(t, answerer.lastChunks, 1)
		assert.Equal(t, "d1", answerer.lastChunks[0].ParentID)
	})

	t.Run("no cutoff for name lookups", func(t *testing.T) {
		index := newMockIndex()
		index.queryResp = &domain.SearchResponse{Chunks: []domain.RetrievedChunk{
			{Chunk: domain.Chunk{ParentID: "d2"}, Score: 0.05},
		}}
		answerer := &mockAnswerer{available: true}
		svc := newTestQuery(index, answerer)

		svc.Answer(context.Background(), "file url of Practice_Note_31A.pdf")

		require.Len(t, answerer.lastChunks, 1)
	})

	t.Run("empty retrieval falls back to general answer", func(t *testing.T) {
		index := newMockIndex()
		answerer := &mockAnswerer{available: true}
		svc := newTestQuery(index, answerer)

		got := svc.Answer(context.Background(), "What is the meaning of life?")

		assert.Equal(t, "general answer", got)
		assert.True(t, answerer.generalUsed)
	})

	t.Run("index error degrades to apology", func(t *testing.T) {
		index := newMockIndex()
		index.queryErr = errors.New("backend down")
		svc := newTestQuery(index, &mockAnswerer{available: true})

		got := svc.Answer(context.Background(), "What is the leave policy?")

		assert.True(t, strings.HasPrefix(got, "I encountered an error processing your question:"))
		assert.Contains(t, got, "backend down")
	})

	t.Run("answerer error degrades to apology", func(t *testing.T) {
		index := newMockIndex()
		index.queryResp = &domain.SearchResponse{Chunks: retrieved(1)}
		svc := newTestQuery(index, &mockAnswerer{available: true, contextErr: errors.New("quota exceeded")})

		got := svc.Answer(context.Background(), "What is the leave policy?")

		assert.Contains(t, got, "quota exceeded")
	})
}

func TestQueryService_SpecialQueries(t *testing.T) {
	index := newMockIndex()
	answerer := &mockAnswerer{available: true}
	svc := newTestQuery(index, answerer)

	t.Run("greeting", func(t *testing.T) {
		got := svc.Answer(context.Background(), "Hello there")
		assert.Contains(t, got, "I'm InfoBot")
		assert.False(t, answerer.contextUsed)
	})

	t.Run("hi is a greeting but history is not", func(t *testing.T) {
		assert.Contains(t, svc.Answer(context.Background(), "hi"), "InfoBot")
		index.queryResp = &domain.SearchResponse{Chunks: retrieved(1)}
		assert.Equal(t, "grounded answer", svc.Answer(context.Background(), "history of the company"))
		index.queryResp = nil
	})

	t.Run("help", func(t *testing.T) {
		got := svc.Answer(context.Background(), "help")
		assert.Contains(t, got, "Example queries")
	})

	t.Run("status reports health and counts", func(t *testing.T) {
		index.chunks["d1"] = []domain.Chunk{{ParentID: "d1"}, {ParentID: "d1"}}
		got := svc.Answer(context.Background(), "status")
		assert.Contains(t, got, "healthy")
		assert.Contains(t, got, "available")
		assert.Contains(t, got, "2")
	})
}

func TestQueryService_RequestShaping(t *testing.T) {
	t.Run("general query removes stop words", func(t *testing.T) {
		index := newMockIndex()
		svc := newTestQuery(index, &mockAnswerer{available: true})

		svc.Answer(context.Background(), "What is the leave policy?")

		assert.Equal(t, "leave policy?", index.lastQuery.Query)
		assert.Equal(t, 50.0, index.lastQuery.TitleBoost)
		assert.Equal(t, 1.0, index.lastQuery.BodyBoost)
		assert.Equal(t, 0.1, index.lastQuery.TieBreaker)
		assert.True(t, index.lastQuery.Highlight)
		require.Len(t, index.lastQuery.PhraseTiers, 3)
		assert.Equal(t, 100.0, index.lastQuery.PhraseTiers[0].TitleBoost)
		assert.Equal(t, 6, index.lastQuery.PhraseTiers[2].Slop)
	})

	t.Run("all-stop-word query falls back to the original", func(t *testing.T) {
		index := newMockIndex()
		svc := newTestQuery(index, &mockAnswerer{available: true})

		svc.Answer(context.Background(), "what is this about")

		assert.Equal(t, "what is this about", index.lastQuery.Query)
	})

	t.Run("minimum should match scales with length", func(t *testing.T) {
		index := newMockIndex()
		svc := newTestQuery(index, &mockAnswerer{available: true})

		svc.Answer(context.Background(), "leave")
		assert.Equal(t, 1.0, index.lastQuery.MinShouldMatch)

		svc.Answer(context.Background(), "annual leave carryover policy")
		assert.Equal(t, 0.5, index.lastQuery.MinShouldMatch)

		svc.Answer(context.Background(), "annual leave carryover policy probation rules overview")
		assert.Equal(t, 0.4, index.lastQuery.MinShouldMatch)
	})

	t.Run("filename query becomes a name lookup", func(t *testing.T) {
		index := newMockIndex()
		svc := newTestQuery(index, &mockAnswerer{available: true})

		svc.Answer(context.Background(), "give me the file url of Practice_Note_31A.pdf")

		assert.Equal(t, "Practice_Note_31A.pdf", index.lastQuery.Query)
		assert.Equal(t, 50.0, index.lastQuery.TitleBoost)
		assert.Equal(t, 0.75, index.lastQuery.MinShouldMatch)
		assert.Empty(t, index.lastQuery.PhraseTiers)
	})

	t.Run("underscore name after lookup phrase becomes a name lookup", func(t *testing.T) {
		index := newMockIndex()
		svc := newTestQuery(index, &mockAnswerer{available: true})

		svc.Answer(context.Background(), "tell me about Employee_Handbook")

		assert.Equal(t, "Employee_Handbook", index.lastQuery.Query)
	})
}

func TestIsDocumentNameQuery(t *testing.T) {
	cases := []struct {
		question string
		want     bool
	}{
		{"give me Practice_Note_31A.pdf", true},
		{"file url of the handbook", true},
		{"link of onboarding guide", true},
		{"tell me about Employee_Handbook", true},
		{"tell me about the leave policy", false},
		{"What is the leave policy?", false},
		{"how do I request leave", false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, isDocumentNameQuery(tc.question), tc.question)
	}
}

func TestExtractDocumentName(t *testing.T) {
	cases := []struct {
		question string
		want     string
	}{
		{"give me the file url of Practice_Note_31A.pdf", "Practice_Note_31A.pdf"},
		{"url of onboarding guide", "onboarding guide"},
		{"tell me about Employee_Handbook please", "Employee_Handbook"},
		{`find "quarterly report"`, "quarterly report"},
		{"something else entirely", "something else entirely"},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, extractDocumentName(tc.question), tc.question)
	}
}

func TestPreprocessQuery(t *testing.T) {
	t.Run("expands filename separators", func(t *testing.T) {
		got := preprocessQuery("summarise Practice_Note_31A.pdf")
		assert.Contains(t, got, "Practice_Note_31A.pdf")
		assert.Contains(t, got, "Practice Note 31A.pdf")
	})

	t.Run("url request reduces to its target", func(t *testing.T) {
		got := preprocessQuery("file url of Practice_Note_31A.pdf")
		assert.Equal(t, "Practice_Note_31A.pdf Practice Note 31A.pdf", got)
	})

	t.Run("plain question passes through", func(t *testing.T) {
		assert.Equal(t, "What is the leave policy?", preprocessQuery("What is the leave policy?"))
	})
}
