package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/custodia-labs/infobot/internal/core/domain"
	"github.com/custodia-labs/infobot/internal/core/ports/driven"
	"github.com/custodia-labs/infobot/internal/core/ports/driving"
	"github.com/custodia-labs/infobot/internal/logger"
)

// Ensure QueryService implements the interface.
var _ driving.QueryEngine = (*QueryService)(nil)

// Question classification patterns.
var (
	// docNamePattern matches explicit filenames with a known extension.
	docNamePattern = regexp.MustCompile(`(?i)\b[\w\-]+\.(doc|docx|pdf|txt|xlsx|pptx|csv)\b`)

	// fileURLPattern captures the target of "file url of X" style requests.
	fileURLPattern = regexp.MustCompile(`(?i)(?:file\s*url|url|link)\s+(?:of|for)?\s*(.+)`)

	// underscoreNamePattern matches underscore-joined identifiers, which
	// are almost always document names rather than prose.
	underscoreNamePattern = regexp.MustCompile(`\b([A-Za-z0-9]+(?:_[A-Za-z0-9]+)+)\b`)

	// greetingPattern matches conversational openers.
	greetingPattern = regexp.MustCompile(`^(hi|hello|hey|good morning|good afternoon|good evening)\b`)

	// separatorPattern converts underscores and hyphens in a document name
	// into spaces for query expansion.
	separatorPattern = regexp.MustCompile(`[_-]`)

	// quotingPattern strips quotes and asterisks from an extracted name.
	quotingPattern = regexp.MustCompile(`["*]`)
)

// lookupPrefixes are tried in order when no stronger extraction matches.
var lookupPrefixes = []string{"tell me about", "what is", "find", "about", "url of", "file url of"}

// stopWords are removed from general queries before retrieval. The list
// leans conversational: terms like "document" and "find" carry no
// signal in a corpus where every record is a document.
var stopWords = map[string]struct{}{}

func init() {
	for _, w := range strings.Fields(
		"a an the and or but is are was were be been being have has had do does did " +
			"will would could should may might must shall can need dare ought used " +
			"to of in for on with at by from as into through during before after " +
			"above below between under again further then once here there when where " +
			"why how all each few more most other some such no nor not only own same " +
			"so than too very just also now i me my myself we our ours ourselves you " +
			"your yours yourself he him his himself she her hers herself it its itself " +
			"they them their theirs themselves what which who whom this that these " +
			"those am about against any because both if while until up down out off " +
			"over get give go find file document documents files want need please " +
			"help show tell") {
		stopWords[w] = struct{}{}
	}
}

// Phrase boost tiers for general queries. Shorter windows score higher
// with tighter slop.
var generalPhraseTiers = []domain.PhraseTier{
	{Words: 1, TitleBoost: 100, BodyBoost: 50, Slop: 2},
	{Words: 2, TitleBoost: 50, BodyBoost: 25, Slop: 4},
	{Words: 3, TitleBoost: 25, BodyBoost: 10, Slop: 6},
}

// Name-lookup retrieval constants.
const (
	nameLookupTitleBoost     = 50.0
	nameLookupBodyBoost      = 1.0
	nameLookupMinShouldMatch = 0.75
)

// QueryService orchestrates retrieval and answer generation for one
// natural-language question at a time.
type QueryService struct {
	index    driven.Index
	answerer driven.AnswerGenerator
	settings domain.SearchSettings
}

// NewQueryService creates a query engine.
func NewQueryService(index driven.Index, answerer driven.AnswerGenerator, settings domain.SearchSettings) *QueryService {
	return &QueryService{
		index:    index,
		answerer: answerer,
		settings: settings,
	}
}

// Answer produces a best-effort text answer. Pipeline failures degrade
// to explicit error text rather than propagating.
func (s *QueryService) Answer(ctx context.Context, question string) string {
	logger.Info("Processing query: %s", truncate(question, 100))

	if special := s.handleSpecialQueries(ctx, question); special != "" {
		return special
	}

	var response *domain.SearchResponse
	var err error
	nameLookup := isDocumentNameQuery(question)

	if nameLookup {
		name := extractDocumentName(question)
		logger.Info("Detected document name query for: %s", name)
		response, err = s.index.Query(ctx, s.nameLookupRequest(name))
	} else {
		processed := preprocessQuery(question)
		logger.Info("Processed query: %s", truncate(processed, 150))
		response, err = s.index.Query(ctx, s.generalRequest(processed))
	}
	if err != nil {
		logger.Error("Error processing query: %v", err)
		return "I encountered an error processing your question: " + err.Error()
	}

	chunks := response.Chunks
	// The absolute score cutoff applies to topical queries only. A user
	// asking for a named document wants the closest match however weak.
	if !nameLookup {
		chunks = filterByScore(chunks, s.settings.MinScore)
	}
	logger.Info("Found %d chunks", len(chunks))

	var answer string
	if len(chunks) == 0 {
		answer, err = s.answerer.AnswerGeneral(ctx, question)
	} else {
		if len(chunks) > s.settings.ContextLimit {
			chunks = chunks[:s.settings.ContextLimit]
		}
		answer, err = s.answerer.AnswerWithContext(ctx, question, chunks)
	}
	if err != nil {
		logger.Error("Error generating answer: %v", err)
		return "I encountered an error processing your question: " + err.Error()
	}

	return answer
}

// generalRequest builds the ranked-retrieval request for a free-text
// question: stop words removed, title matches an order of magnitude
// above body, phrase tiers layered on top, length-dependent minimum
// match and the absolute score cutoff applied by the adapter.
func (s *QueryService) generalRequest(query string) domain.SearchRequest {
	filtered := removeStopWords(query)
	if strings.TrimSpace(filtered) == "" {
		// Every term was a stop word; better to search the original than
		// nothing at all.
		filtered = query
	}
	logger.Info("Original query: '%s' -> Filtered query: '%s'", query, filtered)

	req := domain.SearchRequest{
		Query:       filtered,
		Limit:       s.settings.MaxResults,
		TitleBoost:  s.settings.TitleBoost,
		BodyBoost:   s.settings.BodyBoost,
		PhraseTiers: generalPhraseTiers,
		TieBreaker:  0.1,
		Highlight:   true,
	}

	// Lenient thresholds for recall: one- and two-term queries need every
	// term, then half the terms, then 40% once the query passes four.
	switch n := req.TermCount(); {
	case n <= 2:
		req.MinShouldMatch = 1.0
	case n <= 4:
		req.MinShouldMatch = 0.5
	default:
		req.MinShouldMatch = 0.4
	}

	return req
}

// nameLookupRequest builds the retrieval request for an explicit
// document-name question. The title field dominates and no score cutoff
// applies; a user asking for a named document wants the closest match
// however weak.
func (s *QueryService) nameLookupRequest(name string) domain.SearchRequest {
	return domain.SearchRequest{
		Query:          name,
		Limit:          s.settings.MaxResults,
		TitleBoost:     nameLookupTitleBoost,
		BodyBoost:      nameLookupBodyBoost,
		MinShouldMatch: nameLookupMinShouldMatch,
	}
}

// handleSpecialQueries intercepts greetings, help and status questions
// before retrieval. Returns empty when the question is a real query.
func (s *QueryService) handleSpecialQueries(ctx context.Context, question string) string {
	lower := strings.ToLower(strings.TrimSpace(question))

	if greetingPattern.MatchString(lower) {
		return "Hello! I'm InfoBot, your document assistant. I can help you find information from your Google Drive documents. What would you like to know?"
	}

	if lower == "help" || lower == "?" {
		return `I'm InfoBot! I can help you with:
- Finding information in your documents
- Getting file URLs
- Answering questions about document content

Example queries:
- "Tell me about Practice Note 31A"
- "What is the leave policy?"
- "Give me the file url of [document name]"`
	}

	if lower == "status" || strings.Contains(lower, "how many documents") {
		count, err := s.index.DocumentCount(ctx)
		if err != nil {
			logger.Warn("Could not read document count: %v", err)
		}
		return fmt.Sprintf(`InfoBot Status:
- Index: %s
- AI: %s
- Chunks indexed: %d`,
			healthWord(s.index.HealthCheck(ctx)),
			availabilityWord(s.answerer.IsAvailable(ctx)),
			count)
	}

	return ""
}

// isDocumentNameQuery reports whether the user is asking about one
// specific document rather than a topic.
func isDocumentNameQuery(question string) bool {
	if docNamePattern.MatchString(question) {
		return true
	}

	lower := strings.ToLower(question)
	if strings.Contains(lower, "file url") || strings.Contains(lower, "link of") || strings.Contains(lower, "url of") {
		return true
	}

	// "tell me about X" is only a name lookup when X looks like an
	// identifier, not prose.
	if strings.Contains(lower, "tell me about") || strings.Contains(lower, "what is") || strings.Contains(lower, "find") {
		if underscoreNamePattern.MatchString(question) {
			return true
		}
	}

	return false
}

// extractDocumentName pulls the document name out of the question,
// trying the strongest signal first: an explicit filename, then a
// "file url of X" target, then an underscore-joined identifier, then
// whatever follows a known lookup prefix. Falls back to the whole
// question.
func extractDocumentName(question string) string {
	if m := docNamePattern.FindString(question); m != "" {
		return m
	}

	if m := fileURLPattern.FindStringSubmatch(question); m != nil {
		return strings.TrimSpace(m[1])
	}

	if m := underscoreNamePattern.FindStringSubmatch(question); m != nil {
		return m[1]
	}

	lower := strings.ToLower(question)
	for _, prefix := range lookupPrefixes {
		idx := strings.Index(lower, prefix)
		if idx < 0 {
			continue
		}
		remainder := strings.TrimSpace(question[idx+len(prefix):])
		remainder = strings.TrimSpace(quotingPattern.ReplaceAllString(remainder, ""))
		if remainder != "" {
			return remainder
		}
	}

	return question
}

// preprocessQuery expands the question for retrieval: filenames gain a
// separator-free variant so "Practice_Note_31A.pdf" also matches
// "Practice Note 31A", and URL requests are reduced to their target.
func preprocessQuery(question string) string {
	processed := question

	for _, name := range docNamePattern.FindAllString(question, -1) {
		expanded := separatorPattern.ReplaceAllString(name, " ")
		if expanded != name {
			processed += " " + expanded
		}
	}

	if m := fileURLPattern.FindStringSubmatch(question); m != nil {
		target := strings.TrimSpace(m[1])
		processed = target + " " + separatorPattern.ReplaceAllString(target, " ")
	}

	return processed
}

// filterByScore drops chunks scoring below the cutoff.
func filterByScore(chunks []domain.RetrievedChunk, minScore float64) []domain.RetrievedChunk {
	if minScore <= 0 {
		return chunks
	}
	kept := chunks[:0:len(chunks)]
	for _, c := range chunks {
		if c.Score >= minScore {
			kept = append(kept, c)
		}
	}
	return kept
}

// removeStopWords drops conversational filler from the query.
func removeStopWords(query string) string {
	var kept []string
	for _, word := range strings.Fields(strings.ToLower(query)) {
		if _, ok := stopWords[word]; !ok {
			kept = append(kept, word)
		}
	}
	return strings.Join(kept, " ")
}

func healthWord(healthy bool) string {
	if healthy {
		return "healthy"
	}
	return "unhealthy"
}

func availabilityWord(available bool) string {
	if available {
		return "available"
	}
	return "not configured"
}

// truncate bounds a string for logging.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
