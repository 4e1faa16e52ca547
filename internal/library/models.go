package library

import (
	"encoding/json"
	"time"

	"ytplayer/internal/catalog"
)

// RecordVersion is written into every playlist record.
const RecordVersion = 2

// Status describes how a playlist download ended.
type Status string

const (
	StatusDownloading Status = "downloading"
	StatusComplete    Status = "complete"
	StatusPartial     Status = "partial"
	StatusFailed      Status = "failed"
)

// StagedItem is a catalog item that finished downloading.
type StagedItem struct {
	catalog.Item
	Filename string `json:"filename"`
	// Length is the probed duration in seconds as a decimal string.
	Length string `json:"length"`
}

// PlaylistRecord is one playlist inside a user's playlists column.
type PlaylistRecord struct {
	SchemaVersion int          `json:"schemaVersion"`
	Name          string       `json:"name"`
	Progress      int          `json:"progress"`
	Done          bool         `json:"done"`
	Status        Status       `json:"status"`
	DroppedPages  int          `json:"droppedPages"`
	Items         []StagedItem `json:"items"`
}

// storedRecord accepts both the current layout and older rows that kept
// items under "songs" and had no status.
type storedRecord struct {
	PlaylistRecord
	Songs []StagedItem `json:"songs,omitempty"`
}

func (r storedRecord) upgrade() PlaylistRecord {
	rec := r.PlaylistRecord
	if len(rec.Items) == 0 && len(r.Songs) > 0 {
		rec.Items = r.Songs
	}
	if rec.Items == nil {
		rec.Items = []StagedItem{}
	}
	if rec.Status == "" {
		if rec.Done {
			rec.Status = StatusComplete
		} else {
			rec.Status = StatusDownloading
		}
	}
	rec.SchemaVersion = RecordVersion
	return rec
}

// User is an account row without its credential.
type User struct {
	Username   string
	FolderName string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func decodePlaylists(raw string) ([]PlaylistRecord, error) {
	if raw == "" {
		return []PlaylistRecord{}, nil
	}
	var stored []storedRecord
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		// Some rows wrap the array in {"playlists": [...]}.
		var wrapped struct {
			Playlists []storedRecord `json:"playlists"`
		}
		if wrapErr := json.Unmarshal([]byte(raw), &wrapped); wrapErr != nil {
			return nil, invalid(ErrMalformedRecord, err.Error())
		}
		stored = wrapped.Playlists
	}
	records := make([]PlaylistRecord, 0, len(stored))
	for _, r := range stored {
		records = append(records, r.upgrade())
	}
	return records, nil
}

func encodePlaylists(records []PlaylistRecord) (string, error) {
	if records == nil {
		records = []PlaylistRecord{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
