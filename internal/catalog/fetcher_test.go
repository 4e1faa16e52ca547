package catalog_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ytplayer/internal/catalog"
	"ytplayer/internal/logging"
)

type sliceSink struct {
	items []catalog.Item
	err   error
}

func (s *sliceSink) Append(item catalog.Item) error {
	if s.err != nil {
		return s.err
	}
	s.items = append(s.items, item)
	return nil
}

func snippetJSON(id, title string) string {
	return fmt.Sprintf(`{"snippet":{"title":%q,"description":"","videoOwnerChannelTitle":"Channel  %s","videoOwnerChannelId":"UC%s","resourceId":{"videoId":%q},"thumbnails":{"default":{"url":"https://img/%s/d","height":90},"high":{"url":"https://img/%s/h","height":360}}}}`,
		title, id, id, id, id, id)
}

func newPagedServer(t *testing.T) *httptest.Server {
	t.Helper()
	pages := map[string]string{
		"": `{"nextPageToken":"p2","items":[` + strings.Join([]string{
			snippetJSON("v1", "First"),
			`{"snippet":{"title":"Deleted video","resourceId":{"videoId":"gone"}}}`,
			snippetJSON("v2", "Too Long"),
			snippetJSON("v3", "Boundary"),
		}, ",") + `]}`,
		"p2": `{"nextPageToken":"p3","items":[` + snippetJSON("v4", "Lost Page") + `]}`,
		"p3": `{"items":[` + snippetJSON("v5", "Ｌａｓｔ") + `]}`,
	}
	durations := map[string]string{"v1": "PT3M", "v2": "PT46M", "v3": "PT45M59S", "v5": "PT1M"}

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/playlistItems":
			body, ok := pages[r.URL.Query().Get("pageToken")]
			if !ok {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			_, _ = w.Write([]byte(body))
		case "/videos":
			ids := strings.Split(r.URL.Query().Get("id"), ",")
			var parts []string
			for _, id := range ids {
				if id == "v4" {
					w.WriteHeader(http.StatusServiceUnavailable)
					return
				}
				if d, ok := durations[id]; ok {
					parts = append(parts, fmt.Sprintf(`{"id":%q,"contentDetails":{"duration":%q}}`, id, d))
				}
			}
			_, _ = w.Write([]byte(`{"items":[` + strings.Join(parts, ",") + `]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func TestFetchStagesFiltersAndSkipsFailedPages(t *testing.T) {
	server := newPagedServer(t)
	t.Cleanup(server.Close)

	client, err := catalog.New("key", server.URL, catalog.WithHTTPClient(server.Client()))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	fetcher := catalog.NewFetcher(client, catalog.FetcherOptions{
		SnippetTimeout: time.Second,
		DetailsTimeout: time.Second,
		Prober:         stubProber{"https://img/v1/d": true, "https://img/v1/h": true},
	}, logging.NewNop())

	sink := &sliceSink{}
	result, err := fetcher.Fetch(context.Background(), "PL1", 45, sink)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	if result.Staged != 3 || result.Excluded != 1 || result.Unavailable != 1 || result.DroppedPages != 1 || result.Pages != 2 {
		t.Fatalf("unexpected result %+v", result)
	}
	var urls []string
	for _, item := range sink.items {
		urls = append(urls, item.SourceURL)
	}
	want := "https://www.youtube.com/watch?v=v1,https://www.youtube.com/watch?v=v3,https://www.youtube.com/watch?v=v5"
	if got := strings.Join(urls, ","); got != want {
		t.Fatalf("staged %s, want %s", got, want)
	}

	first := sink.items[0]
	if first.Title != "First" || first.ChannelName != "Channel v1" {
		t.Fatalf("unexpected normalized text %+v", first)
	}
	if first.ChannelURL != "https://www.youtube.com/channel/UCv1" {
		t.Fatalf("unexpected channel url %q", first.ChannelURL)
	}
	if first.Thumbnails.Low != "https://img/v1/d" || first.Thumbnails.High != "https://img/v1/h" {
		t.Fatalf("unexpected thumbnails %+v", first.Thumbnails)
	}
	if sink.items[2].Title != "Last" {
		t.Fatalf("expected NFKC title, got %q", sink.items[2].Title)
	}
}

func TestFetchStopsWhenSnippetsFail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(server.Close)

	client, err := catalog.New("key", server.URL)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	fetcher := catalog.NewFetcher(client, catalog.FetcherOptions{}, logging.NewNop())
	result, err := fetcher.Fetch(context.Background(), "PL1", 45, &sliceSink{})
	if err != nil {
		t.Fatalf("page failures must not fail the fetch: %v", err)
	}
	if result.DroppedPages != 1 || result.Staged != 0 || result.Pages != 0 {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestFetchSinkFailureAborts(t *testing.T) {
	server := newPagedServer(t)
	t.Cleanup(server.Close)

	client, err := catalog.New("key", server.URL)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	fetcher := catalog.NewFetcher(client, catalog.FetcherOptions{}, logging.NewNop())
	diskFull := errors.New("disk full")
	_, err = fetcher.Fetch(context.Background(), "PL1", 45, &sliceSink{err: diskFull})
	if !errors.Is(err, diskFull) {
		t.Fatalf("expected sink error, got %v", err)
	}
}

func TestFetchHonoursCancellation(t *testing.T) {
	server := newPagedServer(t)
	t.Cleanup(server.Close)

	client, err := catalog.New("key", server.URL)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	fetcher := catalog.NewFetcher(client, catalog.FetcherOptions{}, logging.NewNop())
	if _, err := fetcher.Fetch(ctx, "PL1", 45, &sliceSink{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
}

func TestFetchTimeoutLogOmitsAPIKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(300 * time.Millisecond):
		case <-r.Context().Done():
		}
		_, _ = w.Write([]byte(`{"items":[]}`))
	}))
	t.Cleanup(server.Close)

	client, err := catalog.New("SUPERSECRETKEY", server.URL, catalog.WithHTTPClient(server.Client()))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	fetcher := catalog.NewFetcher(client, catalog.FetcherOptions{SnippetTimeout: 50 * time.Millisecond}, logger)

	result, err := fetcher.Fetch(context.Background(), "PL1", 0, &sliceSink{})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if result.DroppedPages != 1 {
		t.Fatalf("expected the timed out page to be dropped, got %+v", result)
	}
	if !strings.Contains(buf.String(), "playlist page dropped") {
		t.Fatalf("expected a dropped page warning, got %q", buf.String())
	}
	if strings.Contains(buf.String(), "SUPERSECRETKEY") {
		t.Fatalf("api key leaked into log: %s", buf.String())
	}
}
