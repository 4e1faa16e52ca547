package catalog

// Thumbnails holds three resolution variants of an item's artwork.
type Thumbnails struct {
	Low    string `json:"low"`
	Medium string `json:"medium"`
	High   string `json:"high"`
}

// Item is one playable playlist entry as staged for download.
type Item struct {
	Title       string     `json:"title"`
	ChannelName string     `json:"channelName"`
	ChannelURL  string     `json:"channelUrl"`
	SourceURL   string     `json:"sourceUrl"`
	Thumbnails  Thumbnails `json:"thumbnails"`
}

const (
	watchURLPrefix   = "https://www.youtube.com/watch?v="
	channelURLPrefix = "https://www.youtube.com/channel/"
)

// unavailableTitles are placeholder titles the API returns for entries that
// can no longer be played.
var unavailableTitles = map[string]struct{}{
	"Deleted video": {},
	"Private video": {},
}

const unavailableDescription = "This video is unavailable."
