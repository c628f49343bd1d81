// internal/store/elastic.go
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"resource-scheduling/internal/assistant/querybuilder"
	"resource-scheduling/internal/common/config"
	"resource-scheduling/internal/common/logger"
	"resource-scheduling/internal/common/metrics"
	"resource-scheduling/internal/models"
)

// ElasticStore runs query specs against a meetings index. Equality
// predicates become term filters and comparisons become range filters, so
// string fields are expected to be mapped as keyword.
type ElasticStore struct {
	client *elasticsearch.Client
	index  string
	logger logger.Logger
}

func NewElasticStore(client *elasticsearch.Client, index string, log logger.Logger) *ElasticStore {
	return &ElasticStore{
		client: client,
		index:  index,
		logger: log.WithFields(map[string]interface{}{"store": config.BackendElasticsearch, "index": index}),
	}
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			Source models.MeetingRecord `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

func (s *ElasticStore) FetchMeetings(ctx context.Context, spec querybuilder.QuerySpec) ([]models.MeetingRecord, error) {
	body, err := BuildSearchBody(spec)
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode search body: %w", err)
	}

	size := spec.Limit()
	req := esapi.SearchRequest{
		Index: []string{s.index},
		Body:  bytes.NewReader(payload),
		Size:  &size,
	}

	start := time.Now()
	res, err := req.Do(ctx, s.client)
	if err != nil {
		return nil, fmt.Errorf("search meetings: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrIndexNotFound, s.index)
	}
	if res.IsError() {
		return nil, fmt.Errorf("search meetings failed: %s", res.String())
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	records := make([]models.MeetingRecord, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		records = append(records, hit.Source)
	}

	elapsed := time.Since(start)
	metrics.StoreQueryDuration.WithLabelValues(config.BackendElasticsearch).Observe(elapsed.Seconds())
	metrics.StoreQueryRows.WithLabelValues(config.BackendElasticsearch).Observe(float64(len(records)))

	s.logger.Debug("meetings fetched", map[string]interface{}{
		"rows":       len(records),
		"durationMs": elapsed.Milliseconds(),
	})

	return records, nil
}

// BuildSearchBody translates a spec into a bool filter query with sort.
func BuildSearchBody(spec querybuilder.QuerySpec) (map[string]interface{}, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	filterClauses := []interface{}{}
	for _, p := range spec.Predicates() {
		value, _ := spec.Param(p.Param)
		field := string(p.Field)

		switch p.Operator {
		case querybuilder.OpEqual:
			filterClauses = append(filterClauses, map[string]interface{}{
				"term": map[string]interface{}{field: value},
			})
		case querybuilder.OpGreaterEqual:
			filterClauses = append(filterClauses, map[string]interface{}{
				"range": map[string]interface{}{field: map[string]interface{}{"gte": value}},
			})
		case querybuilder.OpLessEqual:
			filterClauses = append(filterClauses, map[string]interface{}{
				"range": map[string]interface{}{field: map[string]interface{}{"lte": value}},
			})
		default:
			return nil, fmt.Errorf("%w: operator %q", querybuilder.ErrInvalidQuerySpec, p.Operator)
		}
	}

	var query map[string]interface{}
	if len(filterClauses) == 0 {
		query = map[string]interface{}{"match_all": map[string]interface{}{}}
	} else {
		query = map[string]interface{}{
			"bool": map[string]interface{}{"filter": filterClauses},
		}
	}

	sort := []interface{}{}
	for _, o := range spec.OrderBy() {
		sort = append(sort, map[string]interface{}{
			string(o.Field): map[string]interface{}{"order": strings.ToLower(string(o.Direction))},
		})
	}

	return map[string]interface{}{
		"query": query,
		"sort":  sort,
		"size":  spec.Limit(),
	}, nil
}
