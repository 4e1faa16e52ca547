package catalog

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

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"

	"ytplayer/internal/services"
)

const maxPageSize = 50

// PlaylistPage is one page of the playlistItems endpoint.
type PlaylistPage struct {
	NextPageToken string         `json:"nextPageToken"`
	Items         []PlaylistItem `json:"items"`
}

// PlaylistItem wraps the snippet of one playlist entry.
type PlaylistItem struct {
	Snippet Snippet `json:"snippet"`
}

// Snippet carries the descriptive fields of a playlist entry.
type Snippet struct {
	Title                  string               `json:"title"`
	Description            string               `json:"description"`
	VideoOwnerChannelTitle string               `json:"videoOwnerChannelTitle"`
	VideoOwnerChannelID    string               `json:"videoOwnerChannelId"`
	ResourceID             ResourceID           `json:"resourceId"`
	Thumbnails             map[string]Thumbnail `json:"thumbnails"`
}

// ResourceID identifies the video an entry points at.
type ResourceID struct {
	VideoID string `json:"videoId"`
}

// Thumbnail is one artwork variant as reported by the API.
type Thumbnail struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

type videosResponse struct {
	Items []struct {
		ID             string `json:"id"`
		ContentDetails struct {
			Duration string `json:"duration"`
		} `json:"contentDetails"`
	} `json:"items"`
}

// Client provides access to the YouTube Data API endpoints used for playlists.
type Client struct {
	apiKey     string
	baseURL    string
	pageSize   int
	httpClient *http.Client
	limiter    *rate.Limiter
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default instrumented HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithRateLimit paces outgoing requests to rps per second. Zero disables pacing.
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// WithPageSize sets maxResults for playlist pages, clamped to 1..50.
func WithPageSize(n int) Option {
	return func(c *Client) {
		c.pageSize = min(max(n, 1), maxPageSize)
	}
}

// NewHTTPClient returns an HTTP client whose transport emits OpenTelemetry spans.
func NewHTTPClient() *http.Client {
	return &http.Client{
		Timeout:   30 * time.Second,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
}

// New creates a catalog client.
func New(apiKey, baseURL string, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, services.Wrap(services.ErrConfiguration, "catalog", "client", "youtube api key required", nil)
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, services.Wrap(services.ErrConfiguration, "catalog", "client", "youtube base url required", nil)
	}
	client := &Client{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		pageSize:   maxPageSize,
		httpClient: NewHTTPClient(),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// PlaylistPage fetches one page of snippets. An empty pageToken requests the first page.
func (c *Client) PlaylistPage(ctx context.Context, playlistID, pageToken string) (*PlaylistPage, error) {
	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("playlistId", playlistID)
	params.Set("maxResults", strconv.Itoa(c.pageSize))
	if pageToken != "" {
		params.Set("pageToken", pageToken)
	}
	var page PlaylistPage
	if err := c.get(ctx, "/playlistItems", params, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// VideoDurations returns the ISO-8601 duration for each requested video id.
// Ids the API omits (private or removed videos) are absent from the map.
func (c *Client) VideoDurations(ctx context.Context, ids []string) (map[string]string, error) {
	durations := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return durations, nil
	}
	params := url.Values{}
	params.Set("part", "contentDetails")
	params.Set("id", strings.Join(ids, ","))
	var payload videosResponse
	if err := c.get(ctx, "/videos", params, &payload); err != nil {
		return nil, err
	}
	for _, item := range payload.Items {
		durations[item.ID] = item.ContentDetails.Duration
	}
	return durations, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, dst any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return services.Wrap(services.ErrTimeout, "catalog", path, "rate limiter", err)
		}
	}
	endpoint := c.baseURL + path + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	// Kept out of the query so transport errors, which quote the URL, never carry it.
	req.Header.Set("X-Goog-Api-Key", c.apiKey)

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		marker := services.ErrTransient
		if ctx.Err() != nil {
			marker = services.ErrTimeout
		}
		return services.Wrap(marker, "catalog", path, fmt.Sprintf("request failed (latency=%v)", latency), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return services.Wrap(services.ErrTransient, "catalog", path,
			fmt.Sprintf("returned %d (latency=%v): %s", resp.StatusCode, latency, strings.TrimSpace(string(body))), nil)
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return services.Wrap(services.ErrTransient, "catalog", path, "decode response", err)
	}
	return nil
}
