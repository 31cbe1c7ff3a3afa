package vectorstore

import (
	"context"
	"fmt"
	"strings"

	"ai_hoi/src/logger"
	"ai_hoi/src/model"

	"github.com/bytedance/sonic"
	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/filters"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"
)

const (
	propNamespace = "namespace"
	propDocID     = "docId"
	propText      = "text"
	propMetadata  = "metadata"
)

// WeaviateStore keeps every namespace in one class, filtered by a namespace property
type WeaviateStore struct {
	client *weaviate.Client
	class  string
	log    zerolog.Logger
}

type weaviateHit struct {
	DocID      string `json:"docId"`
	Text       string `json:"text"`
	Metadata   string `json:"metadata"`
	Additional struct {
		Certainty float64   `json:"certainty"`
		Vector    []float32 `json:"vector"`
	} `json:"_additional"`
}

type weaviateGet struct {
	Get map[string][]weaviateHit `json:"Get"`
}

// NewWeaviateStore connects and creates the class when it does not exist yet
func NewWeaviateStore(ctx context.Context, config model.VectorConfig) (*WeaviateStore, error) {
	cfg := weaviate.Config{Host: config.URL, Scheme: "http"}
	switch {
	case strings.HasPrefix(config.URL, "https://"):
		cfg.Scheme = "https"
		cfg.Host = strings.TrimPrefix(config.URL, "https://")
	case strings.HasPrefix(config.URL, "http://"):
		cfg.Host = strings.TrimPrefix(config.URL, "http://")
	}
	if config.APIKey != "" {
		cfg.Headers = map[string]string{"Authorization": "Bearer " + config.APIKey}
	}

	client, err := weaviate.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("create weaviate client: %w", err)
	}

	s := &WeaviateStore{client: client, class: config.Class, log: logger.With("weaviate")}
	if err := s.ensureSchema(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *WeaviateStore) ensureSchema(ctx context.Context) error {
	if _, err := s.client.Schema().ClassGetter().WithClassName(s.class).Do(ctx); err == nil {
		return nil
	}

	filterable := new(bool)
	*filterable = true
	class := &models.Class{
		Class:       s.class,
		Description: "Food and restaurant knowledge snippets",
		Vectorizer:  "none",
		Properties: []*models.Property{
			{Name: propNamespace, DataType: []string{"text"}, IndexFilterable: filterable, Tokenization: "field"},
			{Name: propDocID, DataType: []string{"text"}, IndexFilterable: filterable, Tokenization: "field"},
			{Name: propText, DataType: []string{"text"}},
			{Name: propMetadata, DataType: []string{"text"}},
		},
	}
	if err := s.client.Schema().ClassCreator().WithClass(class).Do(ctx); err != nil {
		return fmt.Errorf("creating %s schema: %w", s.class, err)
	}
	s.log.Info().Str("class", s.class).Msg("Weaviate class created")
	return nil
}

// objectID is stable per (namespace, id) so re-upserting overwrites
func objectID(namespace, id string) strfmt.UUID {
	return strfmt.UUID(uuid.NewSHA1(uuid.NameSpaceURL, []byte(namespace+"/"+id)).String())
}

func (s *WeaviateStore) Upsert(ctx context.Context, namespace string, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}

	objects := make([]*models.Object, 0, len(docs))
	for _, d := range docs {
		extra := make(map[string]string, len(d.Metadata))
		for k, v := range d.Metadata {
			if k != TextKey {
				extra[k] = v
			}
		}
		encoded, err := sonic.MarshalString(extra)
		if err != nil {
			return fmt.Errorf("encode metadata for %s: %w", d.ID, err)
		}
		objects = append(objects, &models.Object{
			Class:  s.class,
			ID:     objectID(namespace, d.ID),
			Vector: d.Vector,
			Properties: map[string]interface{}{
				propNamespace: namespace,
				propDocID:     d.ID,
				propText:      d.Text(),
				propMetadata:  encoded,
			},
		})
	}

	result, err := s.client.Batch().ObjectsBatcher().WithObjects(objects...).Do(ctx)
	if err != nil {
		return fmt.Errorf("weaviate batch import failed: %w", err)
	}
	for _, obj := range result {
		if obj.Result != nil && obj.Result.Errors != nil && len(obj.Result.Errors.Error) > 0 {
			return fmt.Errorf("weaviate rejected object %s: %s", obj.ID, obj.Result.Errors.Error[0].Message)
		}
	}
	return nil
}

func (s *WeaviateStore) Fetch(ctx context.Context, namespace string, ids []string) (map[string]Document, error) {
	out := make(map[string]Document, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	where := filters.Where().
		WithOperator(filters.And).
		WithOperands([]*filters.WhereBuilder{
			namespaceFilter(namespace),
			filters.Where().
				WithPath([]string{propDocID}).
				WithOperator(filters.ContainsAny).
				WithValueText(ids...),
		})

	hits, err := s.get(ctx, s.client.GraphQL().Get().
		WithClassName(s.class).
		WithFields(hitFields("vector")...).
		WithWhere(where).
		WithLimit(len(ids)))
	if err != nil {
		return nil, err
	}

	for _, h := range hits {
		out[h.DocID] = Document{ID: h.DocID, Vector: h.Additional.Vector, Metadata: s.hitMetadata(h)}
	}
	return out, nil
}

func (s *WeaviateStore) Query(ctx context.Context, namespace string, vector []float32, topK int) ([]Match, error) {
	nearVector := s.client.GraphQL().NearVectorArgBuilder().WithVector(vector)

	hits, err := s.get(ctx, s.client.GraphQL().Get().
		WithClassName(s.class).
		WithFields(hitFields("certainty")...).
		WithWhere(namespaceFilter(namespace)).
		WithNearVector(nearVector).
		WithLimit(topK))
	if err != nil {
		return nil, err
	}

	matches := make([]Match, 0, len(hits))
	for _, h := range hits {
		matches = append(matches, Match{ID: h.DocID, Score: h.Additional.Certainty, Metadata: s.hitMetadata(h)})
	}
	return matches, nil
}

func (s *WeaviateStore) get(ctx context.Context, builder *graphql.GetBuilder) ([]weaviateHit, error) {
	result, err := builder.Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("weaviate search failed: %w", err)
	}
	if len(result.Errors) > 0 {
		return nil, fmt.Errorf("weaviate search error: %s", result.Errors[0].Message)
	}

	raw, err := sonic.Marshal(result.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal GraphQL response data: %w", err)
	}
	var parsed weaviateGet
	if err := sonic.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode GraphQL response: %w", err)
	}
	return parsed.Get[s.class], nil
}

func namespaceFilter(namespace string) *filters.WhereBuilder {
	return filters.Where().
		WithPath([]string{propNamespace}).
		WithOperator(filters.Equal).
		WithValueString(namespace)
}

func hitFields(additional string) []graphql.Field {
	return []graphql.Field{
		{Name: propDocID},
		{Name: propText},
		{Name: propMetadata},
		{Name: "_additional", Fields: []graphql.Field{{Name: additional}}},
	}
}

// hitMetadata decodes the stored metadata; a corrupt payload is logged and
// leaves only the text.
func (s *WeaviateStore) hitMetadata(h weaviateHit) map[string]string {
	md := map[string]string{}
	if h.Metadata != "" {
		if err := sonic.UnmarshalString(h.Metadata, &md); err != nil {
			s.log.Warn().Err(err).Str("doc_id", h.DocID).Msg("Corrupt document metadata")
			md = map[string]string{}
		}
	}
	if h.Text != "" {
		md[TextKey] = h.Text
	}
	return md
}
