package timeline

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/apd/v3"

	"ytplayer/internal/fileutil"
	"ytplayer/internal/services"
)

// PlaylistManifest is the combined manifest written to each playlist
// directory.
const PlaylistManifest = "playlist.m3u8"

const (
	tagHeader        = "#EXTM3U"
	tagVersion       = "#EXT-X-VERSION:3"
	tagTarget        = "#EXT-X-TARGETDURATION:"
	tagSequence      = "#EXT-X-MEDIA-SEQUENCE:0"
	tagDiscontinuity = "#EXT-X-DISCONTINUITY"
	tagInf           = "#EXTINF:"
	tagEnd           = "#EXT-X-ENDLIST"
)

// ManifestLookup returns the per-item manifest for filename.
type ManifestLookup func(filename string) ([]byte, error)

// DirLookup reads <dir>/<filename>/<filename>.m3u8, the layout the
// transcode stage produces.
func DirLookup(dir string) ManifestLookup {
	return func(filename string) ([]byte, error) {
		return os.ReadFile(filepath.Join(dir, filename, filename+".m3u8"))
	}
}

// AssembleManifest concatenates the per-item manifests of entries, in
// order, into one HLS playlist. Segment URIs are prefixed with the item's
// directory and each item is preceded by a discontinuity tag. The target
// duration is the ceiling of the longest segment across all items.
func AssembleManifest(entries []Entry, lookup ManifestLookup) ([]byte, error) {
	bodies := make([][]string, 0, len(entries))
	longest := apd.New(0, 0)
	for _, entry := range entries {
		raw, err := lookup(entry.Filename)
		if err != nil {
			return nil, fmt.Errorf("read manifest for %s: %w", entry.Filename, err)
		}
		body, maxInf, err := itemBody(entry.Filename, raw)
		if err != nil {
			return nil, err
		}
		if maxInf.Cmp(longest) > 0 {
			longest.Set(maxInf)
		}
		bodies = append(bodies, body)
	}

	target := new(apd.Decimal)
	if _, err := decimalCtx.Ceil(target, longest); err != nil {
		return nil, fmt.Errorf("target duration: %w", err)
	}
	targetSeconds, err := target.Int64()
	if err != nil {
		return nil, fmt.Errorf("target duration: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString(tagHeader + "\n")
	buf.WriteString(tagVersion + "\n")
	fmt.Fprintf(&buf, "%s%d\n", tagTarget, targetSeconds)
	buf.WriteString(tagSequence + "\n")
	for _, body := range bodies {
		buf.WriteString(tagDiscontinuity + "\n")
		for _, line := range body {
			buf.WriteString(line)
			buf.WriteByte('\n')
		}
	}
	buf.WriteString(tagEnd + "\n")
	return buf.Bytes(), nil
}

// itemBody extracts the lines from the first #EXTINF up to #EXT-X-ENDLIST,
// rewriting segment URIs relative to the parent directory, and returns the
// longest segment duration seen.
func itemBody(filename string, manifest []byte) ([]string, *apd.Decimal, error) {
	var body []string
	longest := apd.New(0, 0)
	started := false

	scanner := bufio.NewScanner(bytes.NewReader(manifest))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == tagEnd {
			break
		}
		if strings.HasPrefix(line, tagInf) {
			started = true
			d, err := extinfDuration(line)
			if err != nil {
				return nil, nil, fmt.Errorf("manifest for %s: %w", filename, err)
			}
			if d.Cmp(longest) > 0 {
				longest.Set(d)
			}
		}
		if !started || line == "" {
			continue
		}
		if !strings.HasPrefix(line, "#") {
			line = filename + "/" + line
		}
		body = append(body, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("scan manifest for %s: %w", filename, err)
	}
	if !started {
		return nil, nil, services.Wrap(services.ErrValidation, "timeline", "assemble manifest",
			fmt.Sprintf("%s has no segments", filename), nil)
	}
	return body, longest, nil
}

func extinfDuration(line string) (*apd.Decimal, error) {
	value := strings.TrimPrefix(line, tagInf)
	if idx := strings.IndexByte(value, ','); idx >= 0 {
		value = value[:idx]
	}
	return parseLength(value)
}

// SumSegmentDurations adds every #EXTINF duration in manifest exactly. The
// result is what the container claims; probed durations remain the figure
// used for offsets.
func SumSegmentDurations(manifest []byte) (string, error) {
	total := apd.New(0, 0)
	scanner := bufio.NewScanner(bytes.NewReader(manifest))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, tagInf) {
			continue
		}
		d, err := extinfDuration(line)
		if err != nil {
			return "", err
		}
		if err := add(total, d); err != nil {
			return "", err
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("scan manifest: %w", err)
	}
	return format(total), nil
}

// WriteManifest replaces the manifest at path atomically.
func WriteManifest(path string, data []byte) error {
	if err := fileutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("write playlist manifest: %w", err)
	}
	return nil
}
