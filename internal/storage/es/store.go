package es

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/DjordjeVuckovic/modelcfg/internal/check"
	"github.com/DjordjeVuckovic/modelcfg/internal/storage"
	"github.com/DjordjeVuckovic/modelcfg/pkg/pagination"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/typedapi/types"
	"github.com/elastic/go-elasticsearch/v8/typedapi/types/enums/refresh"
	"github.com/elastic/go-elasticsearch/v8/typedapi/types/enums/sortorder"
	"github.com/google/uuid"
)

type Store struct {
	client    *elasticsearch.TypedClient
	indexName string
}

func NewStore(ctx context.Context, config ClientConfig) (*Store, error) {
	client, err := newClient(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Elasticsearch client: %w", err)
	}

	s := &Store{
		client:    client,
		indexName: config.IndexName,
	}
	if err := s.EnsureIndex(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure index exists: %w", err)
	}
	return s, nil
}

func (s *Store) EnsureIndex(ctx context.Context) error {
	exists, err := s.client.Indices.Exists(s.indexName).Do(ctx)
	if err != nil {
		return fmt.Errorf("failed to check if index exists: %w", err)
	}
	if exists {
		slog.Info("Index already exists", "index", s.indexName)
		return nil
	}

	mappings := buildMapping()
	res, err := s.client.Indices.Create(s.indexName).
		Mappings(&mappings).
		Do(ctx)
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	if !res.Acknowledged {
		return fmt.Errorf("index creation was not acknowledged")
	}

	slog.Info("Index created successfully", "index", s.indexName)
	return nil
}

func (s *Store) Save(ctx context.Context, r check.Result) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	doc := toDocument(r)

	res, err := s.client.Index(s.indexName).
		Id(doc.ID).
		Document(doc).
		Refresh(refresh.Waitfor).
		Do(ctx)
	if err != nil {
		return fmt.Errorf("failed to index check result: %w", err)
	}

	slog.DebugContext(ctx, "check result indexed", "id", doc.ID, "index", s.indexName, "result", res.Result)
	return nil
}

func (s *Store) Get(ctx context.Context, id uuid.UUID) (check.Result, error) {
	res, err := s.client.Get(s.indexName, id.String()).Do(ctx)
	if err != nil {
		return check.Result{}, fmt.Errorf("failed to get check result: %w", err)
	}
	if !res.Found {
		return check.Result{}, storage.NotFound(id)
	}
	return decodeSource(res.Source_)
}

func (s *Store) List(ctx context.Context, f storage.Filter) ([]check.Result, error) {
	page := pagination.OffsetRequest{Limit: f.Limit, Offset: f.Offset}
	page.Normalize()

	desc := sortorder.Desc
	res, err := s.client.Search().
		Index(s.indexName).
		Query(buildQuery(f)).
		From(page.Offset).
		Size(page.Limit).
		Sort(
			&types.SortOptions{
				SortOptions: map[string]types.FieldSort{
					"checked_at": {Order: &desc},
				},
			},
			&types.SortOptions{
				SortOptions: map[string]types.FieldSort{
					"id": {Order: &desc},
				},
			},
		).
		Do(ctx)
	if err != nil {
		slog.Error("Elasticsearch query failed", "error", err, "kind", f.Kind, "status", f.Status)
		return nil, fmt.Errorf("failed to search check results: %w", err)
	}

	results := make([]check.Result, 0, len(res.Hits.Hits))
	for _, hit := range res.Hits.Hits {
		r, err := decodeSource(hit.Source_)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, nil
}

func buildQuery(f storage.Filter) *types.Query {
	var filters []types.Query
	term := func(field, value string) {
		filters = append(filters, types.Query{
			Term: map[string]types.TermQuery{field: {Value: value}},
		})
	}
	if f.Kind != "" {
		term("kind", string(f.Kind))
	}
	if f.Status != "" {
		term("status", string(f.Status))
	}
	if f.Name != "" {
		term("name", f.Name)
	}

	if len(filters) == 0 {
		return &types.Query{MatchAll: &types.MatchAllQuery{}}
	}
	return &types.Query{Bool: &types.BoolQuery{Filter: filters}}
}

func decodeSource(src json.RawMessage) (check.Result, error) {
	var doc ResultDocument
	if err := json.Unmarshal(src, &doc); err != nil {
		return check.Result{}, fmt.Errorf("failed to unmarshal check result: %w", err)
	}
	r, err := doc.toResult()
	if err != nil {
		return check.Result{}, fmt.Errorf("invalid check result id %q: %w", doc.ID, err)
	}
	return r, nil
}

func (s *Store) Ping(ctx context.Context) error {
	ok, err := s.client.Ping().Do(ctx)
	if err != nil {
		return fmt.Errorf("failed to ping Elasticsearch: %w", err)
	}
	if !ok {
		return fmt.Errorf("elasticsearch ping returned an unhealthy status")
	}
	return nil
}

func (s *Store) Close() error {
	return nil
}
