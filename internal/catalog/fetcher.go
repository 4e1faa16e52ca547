package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"ytplayer/internal/logging"
	"ytplayer/internal/services"
	"ytplayer/internal/textutil"
)

// Sink receives staged items in playlist order.
type Sink interface {
	Append(item Item) error
}

// Result summarizes one playlist fetch.
type Result struct {
	Pages        int
	Staged       int
	Excluded     int
	Unavailable  int
	DroppedPages int
}

// FetcherOptions tunes remote call budgets.
type FetcherOptions struct {
	SnippetTimeout time.Duration
	DetailsTimeout time.Duration
	Prober         ThumbnailProber
}

// Fetcher pages through a playlist and stages every usable entry.
type Fetcher struct {
	client *Client
	opts   FetcherOptions
	logger *slog.Logger
}

// NewFetcher wires a Fetcher around client.
func NewFetcher(client *Client, opts FetcherOptions, logger *slog.Logger) *Fetcher {
	if opts.SnippetTimeout <= 0 {
		opts.SnippetTimeout = 1500 * time.Millisecond
	}
	if opts.DetailsTimeout <= 0 {
		opts.DetailsTimeout = 3500 * time.Millisecond
	}
	return &Fetcher{
		client: client,
		opts:   opts,
		logger: logging.NewComponentLogger(logger, "catalog"),
	}
}

// Fetch stages the entries of playlistID into sink. Entries longer than
// maxMinutes are excluded; zero disables the limit.
//
// A page whose snippet request fails ends pagination because no next-page
// token is known. A page whose duration request fails is skipped and
// pagination continues with the token from its snippets. Neither is retried,
// and both are counted in Result.DroppedPages. Only a sink write failure or
// context cancellation aborts the fetch.
func (f *Fetcher) Fetch(ctx context.Context, playlistID string, maxMinutes int, sink Sink) (Result, error) {
	var result Result
	logger := logging.WithContext(ctx, f.logger)
	token := ""
	for {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		pageNumber := result.Pages + result.DroppedPages

		page, err := f.playlistPage(ctx, playlistID, token)
		if err != nil {
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			result.DroppedPages++
			f.warnDropped(logger, pageNumber, "snippets", err, "remaining pages not fetched")
			break
		}

		durations, err := f.durations(ctx, page)
		if err != nil {
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			result.DroppedPages++
			f.warnDropped(logger, pageNumber, "durations", err, "entries on this page skipped")
		} else {
			result.Pages++
			if err := f.stagePage(ctx, logger, page, durations, maxMinutes, sink, &result); err != nil {
				return result, err
			}
		}

		token = page.NextPageToken
		if token == "" {
			break
		}
	}

	logger.Info("playlist metadata fetched",
		logging.Int("pages", result.Pages),
		logging.Int("staged", result.Staged),
		logging.Int("excluded", result.Excluded),
		logging.Int("unavailable", result.Unavailable),
		logging.Int("dropped_pages", result.DroppedPages),
		logging.String(logging.FieldEventType, "catalog_fetch_complete"),
	)
	return result, nil
}

func (f *Fetcher) playlistPage(ctx context.Context, playlistID, token string) (*PlaylistPage, error) {
	ctx, cancel := context.WithTimeout(ctx, f.opts.SnippetTimeout)
	defer cancel()
	return f.client.PlaylistPage(ctx, playlistID, token)
}

func (f *Fetcher) durations(ctx context.Context, page *PlaylistPage) (map[string]string, error) {
	ids := make([]string, 0, len(page.Items))
	for _, item := range page.Items {
		if id := item.Snippet.ResourceID.VideoID; id != "" {
			ids = append(ids, id)
		}
	}
	ctx, cancel := context.WithTimeout(ctx, f.opts.DetailsTimeout)
	defer cancel()
	return f.client.VideoDurations(ctx, ids)
}

func (f *Fetcher) stagePage(ctx context.Context, logger *slog.Logger, page *PlaylistPage, durations map[string]string, maxMinutes int, sink Sink, result *Result) error {
	for _, entry := range page.Items {
		snippet := entry.Snippet
		videoID := snippet.ResourceID.VideoID
		if videoID == "" || isUnavailable(snippet) {
			result.Unavailable++
			continue
		}
		if raw, ok := durations[videoID]; ok {
			minutes, err := ParseDurationMinutes(raw)
			if err != nil {
				logger.Debug("unparseable duration; keeping entry",
					logging.String("video_id", videoID),
					logging.Error(err),
				)
			} else if exceedsLimit(minutes, maxMinutes) {
				result.Excluded++
				logger.Debug("entry exceeds length limit",
					logging.String("video_id", videoID),
					logging.Int("minutes", minutes),
					logging.Int("limit", maxMinutes),
				)
				continue
			}
		}

		item := Item{
			Title:       textutil.Normalize(snippet.Title),
			ChannelName: textutil.Normalize(snippet.VideoOwnerChannelTitle),
			SourceURL:   watchURLPrefix + videoID,
			Thumbnails:  ResolveThumbnails(ctx, f.opts.Prober, snippet.Thumbnails),
		}
		if snippet.VideoOwnerChannelID != "" {
			item.ChannelURL = channelURLPrefix + snippet.VideoOwnerChannelID
		}
		if err := sink.Append(item); err != nil {
			return fmt.Errorf("stage %s: %w", item.SourceURL, err)
		}
		result.Staged++
	}
	return nil
}

func (f *Fetcher) warnDropped(logger *slog.Logger, page int, call string, err error, impact string) {
	logging.WarnWithContext(logger, "playlist page dropped", "catalog_page_dropped",
		logging.Int("page", page),
		logging.String("call", call),
		logging.String("category", services.Category(err)),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "check network access and the YouTube API quota"),
		logging.String(logging.FieldImpact, impact),
	)
}

func isUnavailable(snippet Snippet) bool {
	if _, ok := unavailableTitles[snippet.Title]; ok {
		return true
	}
	return snippet.Description == unavailableDescription
}
