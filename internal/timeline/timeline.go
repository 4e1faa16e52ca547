package timeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"

	"github.com/cockroachdb/apd/v3"

	"ytplayer/internal/fileutil"
	"ytplayer/internal/services"
)

// FileName is the timeline file kept in each playlist directory.
const FileName = "timeline.json"

// Entry places one item on the playlist timeline. StartTime stays empty
// until offsets are finalized.
type Entry struct {
	Filename  string `json:"filename"`
	StartTime string `json:"startTime"`
	Length    string `json:"length"`
}

// Prober reports a media file's duration in seconds as a decimal string.
type Prober interface {
	DurationString(ctx context.Context, path string) (string, error)
}

// Timeline is the persisted, ordered entry list of one playlist.
type Timeline struct {
	path    string
	entries []Entry
}

// Load reads the timeline at path. A missing file yields an empty timeline.
func Load(path string) (*Timeline, error) {
	t := &Timeline{path: path}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return t, nil
		}
		return nil, fmt.Errorf("read timeline: %w", err)
	}
	if err := json.Unmarshal(data, &t.entries); err != nil {
		return nil, fmt.Errorf("decode timeline %s: %w", path, err)
	}
	return t, nil
}

// Entries returns a copy of the current entries.
func (t *Timeline) Entries() []Entry {
	return append([]Entry(nil), t.entries...)
}

// Len returns the number of recorded items.
func (t *Timeline) Len() int {
	return len(t.entries)
}

// RecordDuration probes manifestPath, appends an entry for filename with the
// measured length, and rewrites the timeline file.
func (t *Timeline) RecordDuration(ctx context.Context, prober Prober, filename, manifestPath string) (Entry, error) {
	entry, err := Probe(ctx, prober, filename, manifestPath)
	if err != nil {
		return Entry{}, err
	}
	if err := t.Append(entry); err != nil {
		return Entry{}, err
	}
	return entry, nil
}

// Probe measures manifestPath and returns an unplaced entry for filename.
func Probe(ctx context.Context, prober Prober, filename, manifestPath string) (Entry, error) {
	raw, err := prober.DurationString(ctx, manifestPath)
	if err != nil {
		return Entry{}, services.Wrap(services.ErrExternalTool, "timeline", "probe duration", filename, err)
	}
	length, err := parseLength(raw)
	if err != nil {
		return Entry{}, err
	}
	return Entry{Filename: filename, Length: format(length)}, nil
}

// Append adds entry at the end with an empty start time and saves.
func (t *Timeline) Append(entry Entry) error {
	if _, err := parseLength(entry.Length); err != nil {
		return err
	}
	entry.StartTime = ""
	t.entries = append(t.entries, entry)
	if err := t.Save(); err != nil {
		t.entries = t.entries[:len(t.entries)-1]
		return err
	}
	return nil
}

// Finalize assigns start offsets in the current order, saves, and returns
// the total length.
func (t *Timeline) Finalize() (string, error) {
	entries, total, err := FinalizeOffsets(t.entries)
	if err != nil {
		return "", err
	}
	t.entries = entries
	return total, t.Save()
}

// Reorder applies order (a permutation of entry indexes), re-derives offsets,
// saves, and returns the total length.
func (t *Timeline) Reorder(order []int) (string, error) {
	entries, total, err := Reorder(t.entries, order)
	if err != nil {
		return "", err
	}
	t.entries = entries
	return total, t.Save()
}

// Shuffle randomizes the order using rng, re-derives offsets, and saves.
func (t *Timeline) Shuffle(rng *rand.Rand) (string, error) {
	entries, total, err := Shuffle(t.entries, rng)
	if err != nil {
		return "", err
	}
	t.entries = entries
	return total, t.Save()
}

// Save rewrites the timeline file wholesale.
func (t *Timeline) Save() error {
	entries := t.entries
	if entries == nil {
		entries = []Entry{}
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encode timeline: %w", err)
	}
	if err := fileutil.WriteFileAtomic(t.path, data, 0o644); err != nil {
		return fmt.Errorf("write timeline: %w", err)
	}
	return nil
}

// FinalizeOffsets returns a copy of entries where each StartTime is the
// exact sum of the lengths before it, plus the total of all lengths.
func FinalizeOffsets(entries []Entry) ([]Entry, string, error) {
	out := make([]Entry, len(entries))
	total := apd.New(0, 0)
	for i, entry := range entries {
		length, err := parseLength(entry.Length)
		if err != nil {
			return nil, "", fmt.Errorf("entry %d (%s): %w", i, entry.Filename, err)
		}
		entry.StartTime = format(total)
		out[i] = entry
		if err := add(total, length); err != nil {
			return nil, "", err
		}
	}
	return out, format(total), nil
}

// Reorder returns entries rearranged so that position i holds
// entries[order[i]], with offsets re-derived.
func Reorder(entries []Entry, order []int) ([]Entry, string, error) {
	if len(order) != len(entries) {
		return nil, "", services.Wrap(services.ErrValidation, "timeline", "reorder",
			fmt.Sprintf("order has %d positions for %d entries", len(order), len(entries)), nil)
	}
	seen := make([]bool, len(entries))
	reordered := make([]Entry, len(entries))
	for i, idx := range order {
		if idx < 0 || idx >= len(entries) || seen[idx] {
			return nil, "", services.Wrap(services.ErrValidation, "timeline", "reorder",
				fmt.Sprintf("invalid or repeated index %d", idx), nil)
		}
		seen[idx] = true
		reordered[i] = entries[idx]
	}
	return FinalizeOffsets(reordered)
}

// Shuffle returns entries in a random order drawn from rng, with offsets
// re-derived.
func Shuffle(entries []Entry, rng *rand.Rand) ([]Entry, string, error) {
	if rng == nil {
		return Reorder(entries, rand.Perm(len(entries)))
	}
	return Reorder(entries, rng.Perm(len(entries)))
}
