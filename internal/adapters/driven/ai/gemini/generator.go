// Package gemini provides the answer generator adapter using the
// Google Gemini REST API.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/custodia-labs/infobot/internal/core/domain"
	"github.com/custodia-labs/infobot/internal/core/ports/driven"
	"github.com/custodia-labs/infobot/internal/logger"
)

// Ensure Generator implements the interface.
var _ driven.AnswerGenerator = (*Generator)(nil)

// Default configuration values.
const (
	DefaultBaseURL         = "https://generativelanguage.googleapis.com/v1beta"
	DefaultModel           = "gemini-2.0-flash"
	DefaultTemperature     = 0.3
	DefaultMaxOutputTokens = 2048
	DefaultTimeout         = 60 * time.Second
)

// maxContextCharsPerChunk bounds how much of each retrieved chunk goes
// into the prompt.
const maxContextCharsPerChunk = 2000

// maxSourceReferences bounds the reference list appended to answers.
const maxSourceReferences = 5

// notConfiguredMessage is returned verbatim when no API key is set.
const notConfiguredMessage = "Gemini AI is not configured. Please set GEMINI_API_KEY."

// Config holds configuration for the Gemini generator.
type Config struct {
	// APIKey is the Gemini API key. Empty disables the generator.
	APIKey string

	// BaseURL is the API base URL (default: the public endpoint).
	BaseURL string

	// Model is the generation model (default: gemini-2.0-flash).
	Model string

	// Temperature is the sampling temperature (default: 0.3).
	Temperature float64

	// MaxOutputTokens caps the response length (default: 2048).
	MaxOutputTokens int

	// Timeout is the request timeout (default: 60s).
	Timeout time.Duration
}

// Generator produces answers with the Gemini generateContent endpoint.
type Generator struct {
	client          *http.Client
	apiKey          string
	baseURL         string
	model           string
	temperature     float64
	maxOutputTokens int
}

// generateRequest is the generateContent request format.
type generateRequest struct {
	Contents         []content       `json:"contents"`
	GenerationConfig generationCfg   `json:"generationConfig"`
	SafetySettings   []safetySetting `json:"safetySettings"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationCfg struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type safetySetting struct {
	Category  string `json:"category"`
	Threshold string `json:"threshold"`
}

// generateResponse is the generateContent response format.
type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// New creates a Gemini answer generator.
func New(cfg Config) *Generator {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = DefaultTemperature
	}
	if cfg.MaxOutputTokens == 0 {
		cfg.MaxOutputTokens = DefaultMaxOutputTokens
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	if cfg.APIKey == "" {
		logger.Warn("Gemini API key not configured")
	} else {
		logger.Info("Gemini generator initialised with model: %s", cfg.Model)
	}

	return &Generator{
		client:          &http.Client{Timeout: cfg.Timeout},
		apiKey:          cfg.APIKey,
		baseURL:         cfg.BaseURL,
		model:           cfg.Model,
		temperature:     cfg.Temperature,
		maxOutputTokens: cfg.MaxOutputTokens,
	}
}

// AnswerWithContext generates an answer grounded in the given chunks
// and appends source references.
func (g *Generator) AnswerWithContext(ctx context.Context, question string, chunks []domain.RetrievedChunk) (string, error) {
	if g.apiKey == "" {
		return notConfiguredMessage, nil
	}

	prompt := buildContextPrompt(question, buildContext(chunks))
	answer, err := g.generate(ctx, prompt)
	if err != nil {
		return "", err
	}

	return answer + buildSourceReferences(chunks), nil
}

// AnswerGeneral generates a context-free answer.
func (g *Generator) AnswerGeneral(ctx context.Context, question string) (string, error) {
	if g.apiKey == "" {
		return notConfiguredMessage, nil
	}

	prompt := "You are InfoBot, a helpful AI assistant. Answer the following question concisely:\n\n" +
		"Question: " + question + "\n\nAnswer:"
	return g.generate(ctx, prompt)
}

// IsAvailable reports whether an API key is configured.
func (g *Generator) IsAvailable(_ context.Context) bool {
	return g.apiKey != ""
}

// generate calls the generateContent endpoint with one prompt.
func (g *Generator) generate(ctx context.Context, prompt string) (string, error) {
	reqBody := generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
		GenerationConfig: generationCfg{
			Temperature:     g.temperature,
			MaxOutputTokens: g.maxOutputTokens,
		},
		SafetySettings: []safetySetting{
			{Category: "HARM_CATEGORY_HARASSMENT", Threshold: "BLOCK_NONE"},
			{Category: "HARM_CATEGORY_HATE_SPEECH", Threshold: "BLOCK_NONE"},
			{Category: "HARM_CATEGORY_SEXUALLY_EXPLICIT", Threshold: "BLOCK_NONE"},
			{Category: "HARM_CATEGORY_DANGEROUS_CONTENT", Threshold: "BLOCK_NONE"},
		},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", g.baseURL, g.model, g.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return "", fmt.Errorf("gemini error (status %d): failed to read response", resp.StatusCode)
		}
		return "", fmt.Errorf("gemini error (status %d): %s", resp.StatusCode, string(body))
	}

	var genResp generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&genResp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	if len(genResp.Candidates) == 0 || len(genResp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini returned no candidates")
	}
	return genResp.Candidates[0].Content.Parts[0].Text, nil
}

// buildContext renders the retrieved chunks as numbered context blocks.
func buildContext(chunks []domain.RetrievedChunk) string {
	var b strings.Builder
	for i, chunk := range chunks {
		text := chunk.Text
		if len(text) > maxContextCharsPerChunk {
			text = text[:maxContextCharsPerChunk] + "..."
		}

		fmt.Fprintf(&b, "---\nDocument %d:\n", i+1)
		fmt.Fprintf(&b, "Title: %s\n", chunk.ParentName)
		fmt.Fprintf(&b, "Source: %s\n", chunk.SourceLabel)
		fmt.Fprintf(&b, "Relevance Score: %.2f\n", chunk.Score)
		fmt.Fprintf(&b, "\nContent:\n%s\n---\n\n", text)
	}
	return b.String()
}

// buildContextPrompt assembles the grounded-answer prompt. The
// instructions push the model to refuse rather than guess when the
// context misses the topic.
func buildContextPrompt(question, context string) string {
	return fmt.Sprintf(`You are InfoBot, an intelligent AI assistant that answers questions based on document context.

**Context Documents:**
%s

**User Question:** %s

**Critical Instructions:**
1. **First, carefully check if ANY of the provided context documents contain relevant information about the question.**
2. **If the documents ARE relevant**: Answer using ONLY the information from these documents. Cite specific document sources.
3. **If the documents are NOT relevant**: Clearly state "The provided context documents do not contain information about [topic]."
4. **DO NOT make assumptions** - if the documents mention something vaguely related but don't actually answer the question, say so.
5. **Be strict about relevance** - only use documents that directly address the user's question.
6. If the user is asking for a file URL, provide it from the document metadata.

**Answer:**
`, context, question)
}

// buildSourceReferences appends the distinct view URLs of the context
// chunks, best-ranked first.
func buildSourceReferences(chunks []domain.RetrievedChunk) string {
	var urls []string
	seen := make(map[string]struct{})
	for _, chunk := range chunks {
		if chunk.ViewURL == "" {
			continue
		}
		if _, ok := seen[chunk.ViewURL]; ok {
			continue
		}
		seen[chunk.ViewURL] = struct{}{}
		urls = append(urls, chunk.ViewURL)
		if len(urls) == maxSourceReferences {
			break
		}
	}
	if len(urls) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("\n\nHere are the references:\n")
	for i, url := range urls {
		fmt.Fprintf(&b, "%d. %s\n", i+1, url)
	}
	return b.String()
}
