package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/elastic/go-elasticsearch/v8"

	"fleet-insights/internal/common/errors"
	"fleet-insights/internal/common/logger"
	"fleet-insights/internal/models"
)

const defaultScanSize = 10000

// ElasticStore reads events from an Elasticsearch index holding the raw
// legacy documents.
type ElasticStore struct {
	client   *elasticsearch.Client
	index    string
	scanSize int
	logger   logger.Logger
}

// NewElasticStore wraps an Elasticsearch client for one index.
func NewElasticStore(client *elasticsearch.Client, index string, log logger.Logger) *ElasticStore {
	return &ElasticStore{
		client:   client,
		index:    index,
		scanSize: defaultScanSize,
		logger:   log,
	}
}

// dateFieldCandidates are the raw document paths a business date can live
// under, newest-precedence first.
var dateFieldCandidates = []string{
	"context.extensions.operationDate",
	"context.extensions.recordDate",
	"statement.context.extensions.operationDate",
	"statement.context.extensions.recordDate",
}

// buildQuery translates the coarse query into a bool filter. Both legacy
// roots get a should clause per condition; minimum_should_match keeps the
// semantics of "matches under either root".
func (s *ElasticStore) buildQuery(q Query) map[string]interface{} {
	var filters []map[string]interface{}

	if q.VehicleID != "" {
		// some records only carry the vehicle in the context extension, with
		// or without the account prefix; over-returning is safe because the
		// engine re-checks equality in process
		name := "vehicle/" + q.VehicleID
		filters = append(filters, shouldAny(
			term("actor.account.name.keyword", name),
			term("statement.actor.account.name.keyword", name),
			term("context.extensions.vehicleId.keyword", q.VehicleID),
			term("context.extensions.vehicleId.keyword", name),
			term("statement.context.extensions.vehicleId.keyword", q.VehicleID),
			term("statement.context.extensions.vehicleId.keyword", name),
		))
	}

	if len(q.Verbs) > 0 {
		var clauses []map[string]interface{}
		for _, v := range q.Verbs {
			suffix := verbSuffix(v)
			if suffix == "" {
				continue
			}
			clauses = append(clauses,
				wildcard("verb.id.keyword", "*/"+suffix),
				wildcard("statement.verb.id.keyword", "*/"+suffix),
			)
		}
		if len(clauses) > 0 {
			filters = append(filters, shouldAny(clauses...))
		}
	}

	if q.TimeRange != nil {
		var clauses []map[string]interface{}
		for _, field := range dateFieldCandidates {
			clauses = append(clauses, map[string]interface{}{
				"range": map[string]interface{}{
					field: map[string]interface{}{
						"gte": q.TimeRange.Start.Format(time.RFC3339),
						"lt":  q.TimeRange.End.Format(time.RFC3339),
					},
				},
			})
		}
		filters = append(filters, shouldAny(clauses...))
	}

	if len(filters) == 0 {
		return map[string]interface{}{"match_all": map[string]interface{}{}}
	}
	return map[string]interface{}{
		"bool": map[string]interface{}{"filter": filters},
	}
}

func verbSuffix(v models.VerbType) string {
	switch v {
	case models.VerbMaintain:
		return "maintained"
	case models.VerbRepair:
		return "repaired"
	case models.VerbInspect:
		return "inspected"
	}
	return ""
}

func term(field, value string) map[string]interface{} {
	return map[string]interface{}{
		"term": map[string]interface{}{field: value},
	}
}

func wildcard(field, pattern string) map[string]interface{} {
	return map[string]interface{}{
		"wildcard": map[string]interface{}{field: pattern},
	}
}

func shouldAny(clauses ...map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{
		"bool": map[string]interface{}{
			"should":               clauses,
			"minimum_should_match": 1,
		},
	}
}

// Scan runs the search and decodes every hit into an Event.
func (s *ElasticStore) Scan(ctx context.Context, q Query) ([]models.Event, error) {
	size := s.scanSize
	if q.Limit > 0 && q.Limit < size {
		size = q.Limit
	}
	body := map[string]interface{}{
		"query": s.buildQuery(q),
		"size":  size,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, err
	}

	res, err := s.client.Search(
		s.client.Search.WithContext(ctx),
		s.client.Search.WithIndex(s.index),
		s.client.Search.WithBody(&buf),
	)
	if err != nil {
		return nil, errors.New(errors.ErrStoreUnavailable, "event search failed", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		if res.StatusCode == 404 {
			return nil, errors.New(errors.ErrIndexNotFound,
				fmt.Sprintf("index %s not found", s.index), nil)
		}
		return nil, errors.New(errors.ErrSearchFailed,
			fmt.Sprintf("event search returned %s", res.Status()), nil)
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				Source map[string]interface{} `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, errors.New(errors.ErrSearchFailed, "decoding search response", err)
	}

	out := make([]models.Event, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		out = append(out, DecodeDocument(hit.Source))
	}
	s.logger.Debug("scan complete", map[string]interface{}{
		"index": s.index,
		"hits":  len(out),
	})
	return out, nil
}

// Count returns the index document count.
func (s *ElasticStore) Count(ctx context.Context) (int64, error) {
	res, err := s.client.Count(
		s.client.Count.WithContext(ctx),
		s.client.Count.WithIndex(s.index),
	)
	if err != nil {
		return 0, errors.New(errors.ErrStoreUnavailable, "event count failed", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return 0, errors.New(errors.ErrSearchFailed,
			fmt.Sprintf("event count returned %s", res.Status()), nil)
	}
	var parsed struct {
		Count int64 `json:"count"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return 0, err
	}
	return parsed.Count, nil
}

// AnchorDate asks the index for the newest business date under any of the
// candidate fields.
func (s *ElasticStore) AnchorDate(ctx context.Context) (time.Time, bool, error) {
	aggs := map[string]interface{}{}
	for i, field := range dateFieldCandidates {
		aggs[fmt.Sprintf("max_%d", i)] = map[string]interface{}{
			"max": map[string]interface{}{"field": field},
		}
	}
	body := map[string]interface{}{"size": 0, "aggs": aggs}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return time.Time{}, false, err
	}

	res, err := s.client.Search(
		s.client.Search.WithContext(ctx),
		s.client.Search.WithIndex(s.index),
		s.client.Search.WithBody(&buf),
	)
	if err != nil {
		return time.Time{}, false, errors.New(errors.ErrAnchorUnavailable, "anchor date query failed", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return time.Time{}, false, errors.New(errors.ErrAnchorUnavailable,
			fmt.Sprintf("anchor date query returned %s", res.Status()), nil)
	}

	var parsed struct {
		Aggregations map[string]struct {
			ValueAsString string `json:"value_as_string"`
		} `json:"aggregations"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return time.Time{}, false, err
	}

	var max time.Time
	found := false
	for _, agg := range parsed.Aggregations {
		if agg.ValueAsString == "" {
			continue
		}
		t, ok := parseDate(agg.ValueAsString)
		if !ok {
			continue
		}
		if !found || t.After(max) {
			max = t
			found = true
		}
	}
	return max, found, nil
}
