package retriever

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"legid-backend/models"

	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	wvmodels "github.com/weaviate/weaviate/entities/models"
)

const DefaultWeaviateClass = "LegalChunk"

// Weaviate runs nearText queries against a class holding legal passages.
// The class is expected to carry the properties content, source, url,
// authorityLevel and jurisdiction, with a text vectorizer configured.
type Weaviate struct {
	client *weaviate.Client
	class  string
}

// NewWeaviate connects to the Weaviate instance at rawURL (http://host:port)
func NewWeaviate(rawURL, class string) (*Weaviate, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("invalid WEAVIATE_URL %q", rawURL)
	}
	client, err := weaviate.NewClient(weaviate.Config{
		Host:   u.Host,
		Scheme: u.Scheme,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create weaviate client: %w", err)
	}
	if class == "" {
		class = DefaultWeaviateClass
	}
	return &Weaviate{client: client, class: class}, nil
}

// Search implements Retriever
func (w *Weaviate) Search(ctx context.Context, query string, k int) ([]models.SearchHit, error) {
	nearText := w.client.GraphQL().NearTextArgBuilder().
		WithConcepts([]string{query})

	fields := []graphql.Field{
		{Name: "content"},
		{Name: "source"},
		{Name: "url"},
		{Name: "authorityLevel"},
		{Name: "jurisdiction"},
		{Name: "_additional { id certainty distance }"},
	}

	result, err := w.client.GraphQL().Get().
		WithClassName(w.class).
		WithFields(fields...).
		WithNearText(nearText).
		WithLimit(k).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("weaviate search: %w", err)
	}
	if len(result.Errors) > 0 {
		return nil, fmt.Errorf("weaviate search error: %s", result.Errors[0].Message)
	}

	hits := parseHits(result, w.class)
	slog.Debug("weaviate search", "class", w.class, "hits", len(hits))
	return hits, nil
}

func parseHits(result *wvmodels.GraphQLResponse, class string) []models.SearchHit {
	data, ok := result.Data["Get"].(map[string]interface{})
	if !ok {
		return []models.SearchHit{}
	}
	objects, ok := data[class].([]interface{})
	if !ok {
		return []models.SearchHit{}
	}

	hits := make([]models.SearchHit, 0, len(objects))
	for _, obj := range objects {
		m, ok := obj.(map[string]interface{})
		if !ok {
			continue
		}
		text := getString(m, "content")
		if strings.TrimSpace(text) == "" {
			continue
		}

		hit := models.SearchHit{
			Text:   text,
			Source: getString(m, "source"),
			Metadata: map[string]interface{}{
				MetaAuthority: getString(m, "authorityLevel"),
			},
		}
		if u := getString(m, "url"); u != "" {
			hit.Metadata[MetaURL] = u
		}
		if j := getString(m, "jurisdiction"); j != "" {
			hit.Metadata[MetaJurisdiction] = j
		}
		if add, ok := m["_additional"].(map[string]interface{}); ok {
			hit.ID = getString(add, "id")
			if c, ok := add["certainty"].(float64); ok {
				hit.Score = c
			} else if d, ok := add["distance"].(float64); ok {
				hit.Score = 1 - d
			}
		}
		hits = append(hits, hit)
	}
	return hits
}

func getString(m map[string]interface{}, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}
