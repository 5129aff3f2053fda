// Package hh implements a typed client for the hh.ru vacancies API.
//
// The API is paginated and capped: at most 20 pages and 2000 results are
// retrievable per query regardless of how many matches exist. Callers can
// detect the ceiling via Page.Found and the package constants.
package hh

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

	"github.com/KorotaevvEgor/Scripts-Hub/internal/model"
)

const (
	defaultBaseURL = "https://api.hh.ru"

	// PageSize is the number of items requested per page.
	PageSize = 100
	// MaxPages is the hh.ru pagination ceiling.
	MaxPages = 20
	// MaxResults is the hh.ru retrievable-results ceiling.
	MaxResults = 2000

	defaultTimeout = 15 * time.Second
)

// Config configures a Client. Zero values fall back to defaults.
type Config struct {
	BaseURL    string
	UserAgent  string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client fetches vacancy search pages from hh.ru.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
}

// NewClient constructs a Client with a shared HTTP client.
func NewClient(cfg Config) *Client {
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		baseURL:    baseURL,
		userAgent:  cfg.UserAgent,
		httpClient: httpClient,
	}
}

// Page is one page of search results, already normalised to listings.
type Page struct {
	Found int // total matches the API reports for the query
	Pages int // total pages the API would serve (pre-ceiling)
	Items []model.Listing
}

// CappedByAPI reports whether the query has more matches than hh.ru
// will ever return.
func (p *Page) CappedByAPI() bool {
	return p.Found > MaxResults
}

// SearchPage fetches one page of vacancies matching query. The search is
// restricted to the vacancy name field and ordered by publication time,
// newest first. An empty areas slice means no region filter.
func (c *Client) SearchPage(ctx context.Context, query string, areas []string, page int) (*Page, error) {
	params := url.Values{}
	params.Set("text", query)
	params.Set("search_field", "name")
	params.Set("per_page", strconv.Itoa(PageSize))
	params.Set("page", strconv.Itoa(page))
	params.Set("order_by", "publication_time")
	for _, area := range areas {
		params.Add("area", area)
	}

	reqURL := c.baseURL + "/vacancies?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http GET: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("hh.ru returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	items := make([]model.Listing, 0, len(payload.Items))
	for _, it := range payload.Items {
		items = append(items, mapItem(it))
	}

	return &Page{
		Found: payload.Found,
		Pages: payload.Pages,
		Items: items,
	}, nil
}

func mapItem(it vacancyItem) model.Listing {
	snippetText := strings.TrimSpace(strings.Join([]string{
		it.Snippet.Requirement,
		it.Snippet.Responsibility,
	}, " "))

	return model.Listing{
		ExternalID:  it.ID,
		Title:       it.Name,
		Company:     it.Employer.Name,
		Salary:      FormatSalary(it.Salary),
		URL:         it.AlternateURL,
		Region:      it.Area.Name,
		PublishedAt: parsePublishedAt(it.PublishedAt),
		Snippet:     snippetText,
	}
}

// FormatSalary renders a salary range the way the hh.ru web UI does,
// with space-grouped thousands: "50 000 - 70 000 RUR", "от 50 000 RUR",
// "до 70 000 RUR" or "Не указана".
func FormatSalary(s *Salary) string {
	if s == nil {
		return "Не указана"
	}

	currency := s.Currency
	if currency == "" {
		currency = "RUR"
	}

	switch {
	case s.From != nil && s.To != nil:
		return fmt.Sprintf("%s - %s %s", groupDigits(*s.From), groupDigits(*s.To), currency)
	case s.From != nil:
		return fmt.Sprintf("от %s %s", groupDigits(*s.From), currency)
	case s.To != nil:
		return fmt.Sprintf("до %s %s", groupDigits(*s.To), currency)
	default:
		return "Не указана"
	}
}

// groupDigits formats n with a space every three digits: 1234567 → "1 234 567".
func groupDigits(n int) string {
	s := strconv.Itoa(n)
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}

	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(s[i : i+3])
	}

	if neg {
		return "-" + b.String()
	}
	return b.String()
}

// publishedAtLayout matches hh.ru timestamps: "2024-05-07T10:00:00+0300".
const publishedAtLayout = "2006-01-02T15:04:05-0700"

func parsePublishedAt(raw string) *time.Time {
	if raw == "" {
		return nil
	}
	ts, err := time.Parse(publishedAtLayout, raw)
	if err != nil {
		ts, err = time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil
		}
	}
	return &ts
}
