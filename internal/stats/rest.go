package stats

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// RESTSource reads events from a PostgREST endpoint such as Supabase.
type RESTSource struct {
	baseURL string
	table   string
	apiKey  string
	client  *http.Client
}

// NewRESTSource constructs a RESTSource for {baseURL}/rest/v1/{table}.
func NewRESTSource(baseURL, table, apiKey string, timeout time.Duration) *RESTSource {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &RESTSource{
		baseURL: strings.TrimRight(baseURL, "/"),
		table:   table,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

// Page implements Source.
func (s *RESTSource) Page(ctx context.Context, offset, limit int) ([]Event, error) {
	q := url.Values{}
	q.Set("select", "component_type,component_name,category")
	q.Set("order", "id.asc")
	q.Set("offset", strconv.Itoa(offset))
	q.Set("limit", strconv.Itoa(limit))
	endpoint := s.baseURL + "/rest/v1/" + url.PathEscape(s.table) + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("apikey", s.apiKey)
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("stats: request: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("stats: http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var rows []struct {
		Type     string  `json:"component_type"`
		Name     string  `json:"component_name"`
		Category *string `json:"category"`
	}
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("stats: decode: %w", err)
	}
	out := make([]Event, 0, len(rows))
	for _, r := range rows {
		e := Event{Type: r.Type, Name: r.Name}
		if r.Category != nil {
			e.Category = *r.Category
		}
		out = append(out, e)
	}
	return out, nil
}
