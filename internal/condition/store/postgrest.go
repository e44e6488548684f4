package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/2beens/teamcondition/internal/condition/records"
	"github.com/2beens/teamcondition/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

const DefaultPageSize = 1000

// PostgRESTStore reads the condition table through a Supabase style REST API.
type PostgRESTStore struct {
	httpClient  *http.Client
	baseURL     string
	apiKey      string
	table       string
	tenantField string
	pageSize    int
}

type PostgRESTParams struct {
	HttpClient  *http.Client
	BaseURL     string
	APIKey      string
	Table       string
	TenantField string
	PageSize    int
}

func NewPostgRESTStore(params PostgRESTParams) (*PostgRESTStore, error) {
	if params.BaseURL == "" {
		return nil, errors.New("postgrest store: base url is empty")
	}
	if params.Table == "" {
		return nil, errors.New("postgrest store: table name is empty")
	}
	if params.HttpClient == nil {
		params.HttpClient = http.DefaultClient
	}
	if params.PageSize <= 0 {
		params.PageSize = DefaultPageSize
	}
	return &PostgRESTStore{
		httpClient:  params.HttpClient,
		baseURL:     strings.TrimRight(params.BaseURL, "/"),
		apiKey:      params.APIKey,
		table:       params.Table,
		tenantField: params.TenantField,
		pageSize:    params.PageSize,
	}, nil
}

func (s *PostgRESTStore) Source() string {
	return SourcePostgREST
}

func (s *PostgRESTStore) endpoint(tenant string) string {
	q := url.Values{}
	q.Set("select", "*")
	if s.tenantField != "" && tenant != "" {
		q.Set(s.tenantField, "eq."+tenant)
	}
	return fmt.Sprintf("%s/rest/v1/%s?%s", s.baseURL, url.PathEscape(s.table), q.Encode())
}

func (s *PostgRESTStore) FetchAll(ctx context.Context, tenant string) (_ *records.Snapshot, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "store.postgrest.fetchAll")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(
		attribute.String("table", s.table),
		attribute.String("tenant", tenant),
	)

	endpoint := s.endpoint(tenant)
	var all []records.Row
	pages := 0
	for offset := 0; ; offset += s.pageSize {
		page, done, err := s.fetchPage(ctx, endpoint, offset)
		if err != nil {
			return nil, err
		}
		pages++
		all = append(all, page...)
		if done || len(page) < s.pageSize {
			break
		}
	}

	log.Debugf("postgrest: fetched %d rows in %d pages for tenant [%s]", len(all), pages, tenant)
	span.SetAttributes(
		attribute.Int("rows", len(all)),
		attribute.Int("pages", pages),
	)
	return records.NewSnapshot(tenant, SourcePostgREST, records.ColumnsFromRows(all), all), nil
}

// fetchPage requests rows [offset, offset+pageSize). done is set when the
// server reports the range reaches the end of the table, or when it did not
// honor the Range header at all.
func (s *PostgRESTStore) fetchPage(ctx context.Context, endpoint string, offset int) ([]records.Row, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, false, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("apikey", s.apiKey)
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Range-Unit", "items")
	req.Header.Set("Range", fmt.Sprintf("%d-%d", offset, offset+s.pageSize-1))

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, false, unavailable("get page", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusPartialContent:
	case http.StatusRequestedRangeNotSatisfiable:
		return nil, true, nil
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, false, unavailable("get page", fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
	}

	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	var raw []map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, false, unavailable("decode page", err)
	}

	rows := make([]records.Row, 0, len(raw))
	for _, r := range raw {
		row := make(records.Row, len(r))
		for k, v := range r {
			row[k] = records.NormalizeRawValue(v)
		}
		rows = append(rows, row)
	}

	start, total, ok := parseContentRange(resp.Header.Get("Content-Range"))
	if !ok || start != offset {
		if offset > 0 {
			log.Warnf("postgrest: range %d- ignored by server (content range %q), stopping", offset, resp.Header.Get("Content-Range"))
			return nil, true, nil
		}
		return rows, true, nil
	}
	if total >= 0 {
		return rows, offset+len(rows) >= total, nil
	}
	return rows, false, nil
}

// parseContentRange reads "start-end/total" as sent by PostgREST. total is -1
// when the server answers with "*". A "*" range yields ok == false.
func parseContentRange(header string) (start, total int, ok bool) {
	rng, size, found := strings.Cut(strings.TrimSpace(header), "/")
	if !found {
		return 0, 0, false
	}
	from, _, found := strings.Cut(rng, "-")
	if !found {
		return 0, 0, false
	}
	start, err := strconv.Atoi(from)
	if err != nil {
		return 0, 0, false
	}
	total = -1
	if size != "*" {
		if total, err = strconv.Atoi(size); err != nil {
			return 0, 0, false
		}
	}
	return start, total, true
}
