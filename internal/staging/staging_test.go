package staging_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ytplayer/internal/catalog"
	"ytplayer/internal/logging"
	"ytplayer/internal/staging"
)

func sampleItem(id string) catalog.Item {
	return catalog.Item{
		Title:       "Track " + id,
		ChannelName: "Channel",
		ChannelURL:  "https://www.youtube.com/channel/UC" + id,
		SourceURL:   "https://www.youtube.com/watch?v=" + id,
		Thumbnails: catalog.Thumbnails{
			Low:    "https://i.ytimg.com/vi/" + id + "/default.jpg",
			Medium: "https://i.ytimg.com/vi/" + id + "/mqdefault.jpg",
			High:   "https://i.ytimg.com/vi/" + id + "/hqdefault.jpg",
		},
	}
}

func writeItems(t *testing.T, path string, ids ...string) {
	t.Helper()
	w, err := staging.Create(path)
	require.NoError(t, err)
	for _, id := range ids {
		require.NoError(t, w.Append(sampleItem(id)))
	}
	assert.Equal(t, len(ids), w.Count())
	require.NoError(t, w.Close())
}

func TestCursorReadsEveryLineThenEOF(t *testing.T) {
	path := filepath.Join(t.TempDir(), staging.FileName)
	ids := []string{"a1", "b2", "c3", "d4"}
	writeItems(t, path, ids...)

	cursor := staging.NewCursor(path)
	ctx := context.Background()
	for _, id := range ids {
		item, err := cursor.ReadNext(ctx, "")
		require.NoError(t, err)
		require.NotNil(t, item)
		assert.Equal(t, sampleItem(id), *item)
	}

	item, err := cursor.ReadNext(ctx, "")
	require.NoError(t, err)
	assert.Nil(t, item)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, info.Size(), cursor.Offset())
}

func TestCursorMatchURLSkipsOtherLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), staging.FileName)
	writeItems(t, path, "a1", "b2", "c3")

	cursor := staging.NewCursor(path)
	item, err := cursor.ReadNext(context.Background(), "https://www.youtube.com/watch?v=c3")
	require.NoError(t, err)
	require.NotNil(t, item)
	assert.Equal(t, "Track c3", item.Title)

	item, err = cursor.ReadNext(context.Background(), "")
	require.NoError(t, err)
	assert.Nil(t, item)
}

func TestCursorLeavesUnterminatedLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), staging.FileName)
	writeItems(t, path, "a1")

	info, err := os.Stat(path)
	require.NoError(t, err)
	complete := info.Size()

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString(`{"title":"partial"`)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	cursor := staging.NewCursor(path)
	item, err := cursor.ReadNext(context.Background(), "")
	require.NoError(t, err)
	require.NotNil(t, item)

	item, err = cursor.ReadNext(context.Background(), "")
	require.NoError(t, err)
	assert.Nil(t, item)
	assert.Equal(t, complete, cursor.Offset())

	// Finishing the line makes it readable from the saved offset.
	f, err = os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString(`,"sourceUrl":"x"}` + "\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	item, err = cursor.ReadNext(context.Background(), "")
	require.NoError(t, err)
	require.NotNil(t, item)
	assert.Equal(t, "partial", item.Title)
}

func TestCursorMalformedLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), staging.FileName)
	require.NoError(t, os.WriteFile(path, []byte("not json\n"), 0o644))

	_, err := staging.NewCursor(path).ReadNext(context.Background(), "")
	require.Error(t, err)
}

func TestCursorMissingFile(t *testing.T) {
	_, err := staging.NewCursor(filepath.Join(t.TempDir(), "absent.jsonl")).ReadNext(context.Background(), "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestCursorHonoursCancellation(t *testing.T) {
	path := filepath.Join(t.TempDir(), staging.FileName)
	writeItems(t, path, "a1")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := staging.NewCursor(path).ReadNext(ctx, "")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWriterAppendsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), staging.FileName)
	writeItems(t, path, "a1")
	writeItems(t, path, "b2")

	cursor := staging.NewCursor(path)
	var titles []string
	for {
		item, err := cursor.ReadNext(context.Background(), "")
		require.NoError(t, err)
		if item == nil {
			break
		}
		titles = append(titles, item.Title)
	}
	assert.Equal(t, []string{"Track a1", "Track b2"}, titles)
}

func TestWriterRejectsAppendAfterClose(t *testing.T) {
	w, err := staging.Create(filepath.Join(t.TempDir(), staging.FileName))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
	assert.Error(t, w.Append(sampleItem("z9")))
}

func TestCleanStaleInvalidPaths(t *testing.T) {
	for _, dir := range []string{"", "   ", "/nonexistent/path/12345"} {
		result := staging.CleanStale(context.Background(), dir, time.Hour, logging.NewNop())
		if len(result.Removed) != 0 || len(result.Errors) != 0 {
			t.Errorf("expected empty result for path %q", dir)
		}
	}
}

func TestCleanStaleRemovesOldStagingFiles(t *testing.T) {
	root := t.TempDir()

	oldDir := filepath.Join(root, "alice", "playlist_0")
	recentDir := filepath.Join(root, "alice", "playlist_1")
	for _, dir := range []string{oldDir, recentDir} {
		require.NoError(t, os.MkdirAll(dir, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, staging.FileName), []byte("{}\n"), 0o644))
	}
	// Unrelated old files are left alone.
	other := filepath.Join(oldDir, "timeline.json")
	require.NoError(t, os.WriteFile(other, []byte("[]"), 0o644))

	oldTime := time.Now().Add(-2 * time.Hour)
	oldFile := filepath.Join(oldDir, staging.FileName)
	require.NoError(t, os.Chtimes(oldFile, oldTime, oldTime))
	require.NoError(t, os.Chtimes(other, oldTime, oldTime))

	result := staging.CleanStale(context.Background(), root, time.Hour, logging.NewNop())
	require.Empty(t, result.Errors)
	require.Equal(t, []string{oldFile}, result.Removed)

	_, err := os.Stat(oldFile)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(recentDir, staging.FileName))
	assert.NoError(t, err)
	_, err = os.Stat(other)
	assert.NoError(t, err)
}

func TestList(t *testing.T) {
	root := t.TempDir()
	for i := range 3 {
		dir := filepath.Join(root, "bob", fmt.Sprintf("playlist_%d", i))
		require.NoError(t, os.MkdirAll(dir, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, staging.FileName), []byte("{}\n"), 0o644))
	}

	files, err := staging.List(root)
	require.NoError(t, err)
	require.Len(t, files, 3)
	for _, f := range files {
		assert.Equal(t, int64(3), f.Size)
	}

	files, err = staging.List("")
	require.NoError(t, err)
	assert.Empty(t, files)
}
