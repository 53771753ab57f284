package bleveindex

import (
	"context"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/custodia-labs/infobot/internal/core/domain"
)

// storedFields are requested back on every hit to reconstruct chunks.
var storedFields = []string{
	"parent_id", "sequence", "text", "parent_name",
	"source_label", "content_type", "view_url", "modified_at", "created_at",
}

// Query executes a ranked-retrieval request.
//
// The request's boost structure maps onto a boolean query: one
// disjunction per query term across the name and body fields (with the
// minimum-should-match threshold on the outer disjunction), phrase
// windows from the tiers as optional scoring clauses, and failure
// markers excluded outright. Disjunction scoring sums contributing
// fields, so the tie-breaker is inherent rather than a parameter, and
// phrase windows match contiguously; tier slop is not enforced.
func (b *Index) Query(_ context.Context, req domain.SearchRequest) (*domain.SearchResponse, error) {
	terms := strings.Fields(req.Query)
	if len(terms) == 0 {
		return &domain.SearchResponse{}, nil
	}

	root := bleve.NewBooleanQuery()
	root.AddMust(termsQuery(terms, req))
	root.AddMustNot(markersOnlyQuery())
	for _, phrase := range phraseQueries(terms, req.PhraseTiers) {
		root.AddShould(phrase)
	}

	limit := req.Limit
	if limit <= 0 {
		limit = pageSize
	}

	sreq := bleve.NewSearchRequestOptions(root, limit, 0, false)
	sreq.Fields = storedFields
	if req.Highlight {
		sreq.Highlight = bleve.NewHighlightWithStyle("html")
		sreq.Highlight.AddField("text")
	}

	result, err := b.idx.Search(sreq)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	resp := &domain.SearchResponse{
		TotalFound: result.Total,
		Took:       result.Took,
	}
	for _, hit := range result.Hits {
		chunk := domain.RetrievedChunk{
			Chunk: domain.Chunk{
				ParentID:    stringField(hit.Fields, "parent_id"),
				Sequence:    intField(hit.Fields, "sequence"),
				Text:        stringField(hit.Fields, "text"),
				ParentName:  stringField(hit.Fields, "parent_name"),
				SourceLabel: stringField(hit.Fields, "source_label"),
				ContentType: stringField(hit.Fields, "content_type"),
				ViewURL:     stringField(hit.Fields, "view_url"),
				ModifiedAt:  stringField(hit.Fields, "modified_at"),
				CreatedAt:   stringField(hit.Fields, "created_at"),
			},
			Score:      hit.Score,
			Highlights: hit.Fragments["text"],
		}
		resp.Chunks = append(resp.Chunks, chunk)
	}

	return resp, nil
}

// termsQuery builds the required clause: each term may match the name
// or the body at its respective boost, and at least MinMatchTerms of
// the per-term disjunctions must fire.
func termsQuery(terms []string, req domain.SearchRequest) query.Query {
	perTerm := make([]query.Query, 0, len(terms))
	for _, term := range terms {
		title := bleve.NewMatchQuery(term)
		title.SetField("parent_name")
		title.SetBoost(req.TitleBoost)

		body := bleve.NewMatchQuery(term)
		body.SetField("text")
		body.SetBoost(req.BodyBoost)

		perTerm = append(perTerm, bleve.NewDisjunctionQuery(title, body))
	}

	outer := bleve.NewDisjunctionQuery(perTerm...)
	if min := req.MinMatchTerms(); min > 0 {
		outer.SetMin(float64(min))
	}
	return outer
}

// phraseQueries expands the boost tiers into sliding phrase windows
// over the query terms, one name clause and one body clause per window.
func phraseQueries(terms []string, tiers []domain.PhraseTier) []query.Query {
	var queries []query.Query
	for _, tier := range tiers {
		if tier.Words < 1 || len(terms) < tier.Words {
			continue
		}
		for i := 0; i+tier.Words <= len(terms); i++ {
			phrase := strings.Join(terms[i:i+tier.Words], " ")

			title := bleve.NewMatchPhraseQuery(phrase)
			title.SetField("parent_name")
			title.SetBoost(tier.TitleBoost)
			queries = append(queries, title)

			body := bleve.NewMatchPhraseQuery(phrase)
			body.SetField("text")
			body.SetBoost(tier.BodyBoost)
			queries = append(queries, body)
		}
	}
	return queries
}

func stringField(fields map[string]interface{}, name string) string {
	if v, ok := fields[name].(string); ok {
		return v
	}
	return ""
}

func intField(fields map[string]interface{}, name string) int {
	if v, ok := fields[name].(float64); ok {
		return int(v)
	}
	return 0
}
