package searchinfra

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/ElMansouri-cpu/ShelfLinkbackend-sub000/search/query"
)

// ElasticConfig configures the Elasticsearch client.
type ElasticConfig struct {
	Addresses []string
	Username  string
	Password  string
	// Refresh makes writes visible to searches before returning.
	Refresh bool
}

// ElasticEngine talks to Elasticsearch.
type ElasticEngine struct {
	client  *elasticsearch.Client
	refresh bool
}

// NewElasticEngine creates a client for cfg.
func NewElasticEngine(cfg ElasticConfig) (*ElasticEngine, error) {
	if len(cfg.Addresses) == 0 {
		return nil, fmt.Errorf("elasticsearch: at least one address is required")
	}
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch: create client: %w", err)
	}
	return &ElasticEngine{client: client, refresh: cfg.Refresh}, nil
}

func (e *ElasticEngine) refreshParam() string {
	if e.refresh {
		return "true"
	}
	return "false"
}

// responseError turns an error response into an error, reading the body.
func responseError(op string, res *esapi.Response) error {
	body, _ := io.ReadAll(res.Body)
	return fmt.Errorf("elasticsearch %s: %s: %s", op, res.Status(), bytes.TrimSpace(body))
}

func encode(v any) (*bytes.Reader, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(data), nil
}

func (e *ElasticEngine) IndexExists(ctx context.Context, index string) (bool, error) {
	res, err := e.client.Indices.Exists([]string{index}, e.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return false, fmt.Errorf("elasticsearch index exists: %w", err)
	}
	defer res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, responseError("index exists", res)
	}
}

func (e *ElasticEngine) CreateIndex(ctx context.Context, index string, schema query.Schema) error {
	body, err := encode(renderSchema(schema))
	if err != nil {
		return err
	}
	res, err := e.client.Indices.Create(index,
		e.client.Indices.Create.WithBody(body),
		e.client.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch create index: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return responseError("create index", res)
	}
	return nil
}

func (e *ElasticEngine) IndexDocument(ctx context.Context, index, id string, doc query.Document) error {
	body, err := encode(doc)
	if err != nil {
		return err
	}
	res, err := e.client.Index(index, body,
		e.client.Index.WithDocumentID(id),
		e.client.Index.WithRefresh(e.refreshParam()),
		e.client.Index.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch index: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return responseError("index", res)
	}
	return nil
}

// DeleteDocument deletes id. A missing document is not an error.
func (e *ElasticEngine) DeleteDocument(ctx context.Context, index, id string) error {
	res, err := e.client.Delete(index, id,
		e.client.Delete.WithRefresh(e.refreshParam()),
		e.client.Delete.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch delete: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return responseError("delete", res)
	}
	return nil
}

type bulkResponse struct {
	Errors bool `json:"errors"`
	Items  []map[string]struct {
		ID     string `json:"_id"`
		Status int    `json:"status"`
		Error  *struct {
			Type   string `json:"type"`
			Reason string `json:"reason"`
		} `json:"error"`
	} `json:"items"`
}

// Bulk sends every op in one NDJSON request.
func (e *ElasticEngine) Bulk(ctx context.Context, index string, ops []query.BulkOp) (query.BulkResult, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, op := range ops {
		meta := map[string]any{string(op.Action): map[string]any{"_id": op.ID}}
		if err := enc.Encode(meta); err != nil {
			return query.BulkResult{}, err
		}
		if op.Action == query.BulkIndex {
			if err := enc.Encode(op.Doc); err != nil {
				return query.BulkResult{}, err
			}
		}
	}

	res, err := e.client.Bulk(bytes.NewReader(buf.Bytes()),
		e.client.Bulk.WithIndex(index),
		e.client.Bulk.WithRefresh(e.refreshParam()),
		e.client.Bulk.WithContext(ctx),
	)
	if err != nil {
		return query.BulkResult{}, fmt.Errorf("elasticsearch bulk: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return query.BulkResult{}, responseError("bulk", res)
	}

	var parsed bulkResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return query.BulkResult{}, fmt.Errorf("elasticsearch bulk: decode response: %w", err)
	}

	result := query.BulkResult{Items: make([]query.BulkItem, 0, len(parsed.Items))}
	for _, entry := range parsed.Items {
		for _, item := range entry {
			out := query.BulkItem{ID: item.ID, Status: item.Status}
			if item.Error != nil {
				out.Error = item.Error.Type + ": " + item.Error.Reason
			}
			result.Items = append(result.Items, out)
		}
	}
	return result, nil
}

func (e *ElasticEngine) DeleteByQuery(ctx context.Context, index string, q query.Bool) (int64, error) {
	body, err := encode(map[string]any{"query": map[string]any{"bool": renderBool(q)}})
	if err != nil {
		return 0, err
	}
	res, err := e.client.DeleteByQuery([]string{index}, body,
		e.client.DeleteByQuery.WithRefresh(e.refresh),
		e.client.DeleteByQuery.WithConflicts("proceed"),
		e.client.DeleteByQuery.WithContext(ctx),
	)
	if err != nil {
		return 0, fmt.Errorf("elasticsearch delete by query: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode == http.StatusNotFound {
		return 0, nil
	}
	if res.IsError() {
		return 0, responseError("delete by query", res)
	}

	var parsed struct {
		Deleted int64 `json:"deleted"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return 0, fmt.Errorf("elasticsearch delete by query: decode response: %w", err)
	}
	return parsed.Deleted, nil
}

type searchResponse struct {
	Hits struct {
		Total json.RawMessage `json:"total"`
		Hits  []struct {
			ID     string         `json:"_id"`
			Score  *float64       `json:"_score"`
			Source query.Document `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

func (e *ElasticEngine) Search(ctx context.Context, index string, req query.Request) (query.Response, error) {
	body, err := encode(renderRequest(req))
	if err != nil {
		return query.Response{}, err
	}
	res, err := e.client.Search(
		e.client.Search.WithIndex(index),
		e.client.Search.WithBody(body),
		e.client.Search.WithContext(ctx),
	)
	if err != nil {
		return query.Response{}, fmt.Errorf("elasticsearch search: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return query.Response{}, responseError("search", res)
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return query.Response{}, fmt.Errorf("elasticsearch search: decode response: %w", err)
	}

	total, err := query.ParseTotal(parsed.Hits.Total)
	if err != nil {
		return query.Response{}, fmt.Errorf("elasticsearch search: %w", err)
	}

	out := query.Response{Total: total, Hits: make([]query.Hit, 0, len(parsed.Hits.Hits))}
	for _, h := range parsed.Hits.Hits {
		hit := query.Hit{ID: h.ID, Source: h.Source}
		if h.Score != nil {
			hit.Score = *h.Score
		}
		out.Hits = append(out.Hits, hit)
	}
	return out, nil
}
