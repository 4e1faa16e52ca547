package catalog

import (
	"net/url"
	"strings"

	"ytplayer/internal/services"
	"ytplayer/internal/textutil"
)

const playlistPrefix = "youtube.com/playlist?list="

// ParsePlaylistURL extracts the playlist identifier from a shared playlist
// link. The scheme and a www., m., or music. host prefix are optional; the
// "si" tracking parameter and any other query parameters are discarded.
func ParsePlaylistURL(raw string) (string, error) {
	link := textutil.Normalize(raw)
	if idx := strings.IndexByte(link, '#'); idx >= 0 {
		link = link[:idx]
	}
	lower := strings.ToLower(link)
	for _, scheme := range []string{"https://", "http://"} {
		if strings.HasPrefix(lower, scheme) {
			link = link[len(scheme):]
			lower = lower[len(scheme):]
			break
		}
	}
	for _, host := range []string{"www.", "m.", "music."} {
		if strings.HasPrefix(lower, host) {
			link = link[len(host):]
			lower = lower[len(host):]
			break
		}
	}
	if !strings.HasPrefix(lower, playlistPrefix) {
		return "", services.Wrap(services.ErrValidation, "catalog", "parse playlist url",
			"expected youtube.com/playlist?list=<id>", nil)
	}

	query, err := url.ParseQuery(link[len("youtube.com/playlist?"):])
	if err != nil {
		return "", services.Wrap(services.ErrValidation, "catalog", "parse playlist url", "malformed query", err)
	}
	id := strings.TrimSpace(query.Get("list"))
	if id == "" || strings.ContainsAny(id, "/?#& ") {
		return "", services.Wrap(services.ErrValidation, "catalog", "parse playlist url", "missing playlist id", nil)
	}
	return id, nil
}
