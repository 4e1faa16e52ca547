package catalog

import (
	"context"
	"io"
	"net/http"
	"sort"
	"time"
)

// ThumbnailProber checks whether a thumbnail URL can actually be fetched.
type ThumbnailProber interface {
	Reachable(ctx context.Context, rawURL string) bool
}

// HTTPProber probes thumbnails with a HEAD request, falling back to GET for
// hosts that reject HEAD.
type HTTPProber struct {
	Client  *http.Client
	Timeout time.Duration
}

// Reachable reports whether rawURL answers with a 2xx status within the timeout.
func (p HTTPProber) Reachable(ctx context.Context, rawURL string) bool {
	if rawURL == "" {
		return false
	}
	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = 1500 * time.Millisecond
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	for _, method := range []string{http.MethodHead, http.MethodGet} {
		req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
		if err != nil {
			return false
		}
		resp, err := client.Do(req)
		if err != nil {
			return false
		}
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		_ = resp.Body.Close()
		if resp.StatusCode == http.StatusMethodNotAllowed {
			continue
		}
		return resp.StatusCode >= 200 && resp.StatusCode < 300
	}
	return false
}

// ResolveThumbnails orders the reachable variants by ascending height and
// picks the smallest, the middle (index (n-1)/2), and the largest. When no
// variant is reachable every variant is considered instead so the item
// still carries artwork links.
func ResolveThumbnails(ctx context.Context, prober ThumbnailProber, variants map[string]Thumbnail) Thumbnails {
	all := make([]Thumbnail, 0, len(variants))
	for _, v := range variants {
		if v.URL != "" {
			all = append(all, v)
		}
	}
	if len(all) == 0 {
		return Thumbnails{}
	}

	candidates := all
	if prober != nil {
		reachable := make([]Thumbnail, 0, len(all))
		for _, v := range all {
			if prober.Reachable(ctx, v.URL) {
				reachable = append(reachable, v)
			}
		}
		if len(reachable) > 0 {
			candidates = reachable
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Height != candidates[j].Height {
			return candidates[i].Height < candidates[j].Height
		}
		return candidates[i].URL < candidates[j].URL
	})
	n := len(candidates)
	return Thumbnails{
		Low:    candidates[0].URL,
		Medium: candidates[(n-1)/2].URL,
		High:   candidates[n-1].URL,
	}
}
