package timeline_test

import (
	"context"
	"errors"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ytplayer/internal/services"
	"ytplayer/internal/timeline"
)

type fakeProber map[string]string

func (f fakeProber) DurationString(_ context.Context, path string) (string, error) {
	v, ok := f[path]
	if !ok {
		return "", errors.New("probe failed")
	}
	return v, nil
}

func entries(lengths ...string) []timeline.Entry {
	out := make([]timeline.Entry, len(lengths))
	for i, l := range lengths {
		out[i] = timeline.Entry{Filename: string(rune('a' + i)), Length: l}
	}
	return out
}

func TestFinalizeOffsetsIsExact(t *testing.T) {
	got, total, err := timeline.FinalizeOffsets(entries("10.0", "20.5", "5.25"))
	require.NoError(t, err)
	assert.Equal(t, "35.75", total)
	require.Len(t, got, 3)
	assert.Equal(t, "0", got[0].StartTime)
	assert.Equal(t, "10.0", got[1].StartTime)
	assert.Equal(t, "30.5", got[2].StartTime)
}

func TestFinalizeOffsetsNoDriftOverManyItems(t *testing.T) {
	lengths := make([]string, 10000)
	for i := range lengths {
		lengths[i] = "0.1"
	}
	got, total, err := timeline.FinalizeOffsets(entries(lengths...))
	require.NoError(t, err)
	assert.Equal(t, "1000.0", total)
	assert.Equal(t, "999.9", got[len(got)-1].StartTime)
	assert.Equal(t, "500.0", got[5000].StartTime)
}

func TestFinalizeOffsetsRejectsBadLengths(t *testing.T) {
	for _, bad := range []string{"", "abc", "-1.5", "NaN", "Infinity"} {
		_, _, err := timeline.FinalizeOffsets(entries("1.0", bad))
		assert.True(t, errors.Is(err, services.ErrValidation), "length %q: %v", bad, err)
	}
}

func TestFinalizeOffsetsEmpty(t *testing.T) {
	got, total, err := timeline.FinalizeOffsets(nil)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, "0", total)
}

func TestReorderRederivesOffsets(t *testing.T) {
	got, total, err := timeline.Reorder(entries("10.0", "20.5", "5.25"), []int{2, 0, 1})
	require.NoError(t, err)
	assert.Equal(t, "35.75", total)
	assert.Equal(t, []string{"c", "a", "b"}, []string{got[0].Filename, got[1].Filename, got[2].Filename})
	assert.Equal(t, "0", got[0].StartTime)
	assert.Equal(t, "5.25", got[1].StartTime)
	assert.Equal(t, "15.25", got[2].StartTime)
}

func TestReorderRejectsInvalidOrder(t *testing.T) {
	in := entries("1", "2", "3")
	for _, order := range [][]int{{0, 1}, {0, 0, 1}, {0, 1, 3}, {-1, 0, 1}} {
		_, _, err := timeline.Reorder(in, order)
		assert.True(t, errors.Is(err, services.ErrValidation), "order %v", order)
	}
}

func TestShuffleKeepsEveryEntry(t *testing.T) {
	in := entries("1", "2", "3", "4", "5")
	got, total, err := timeline.Shuffle(in, rand.New(rand.NewPCG(1, 2)))
	require.NoError(t, err)
	assert.Equal(t, "15", total)
	assert.ElementsMatch(t, []string{"a", "b", "c", "d", "e"}, []string{
		got[0].Filename, got[1].Filename, got[2].Filename, got[3].Filename, got[4].Filename,
	})
	assert.Equal(t, "0", got[0].StartTime)
}

func TestTimelineRecordAndFinalizePersist(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, timeline.FileName)

	tl, err := timeline.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0, tl.Len())

	prober := fakeProber{"/m/a.m3u8": "10.0", "/m/b.m3u8": "20.5", "/m/c.m3u8": "5.25"}
	for _, name := range []string{"a", "b", "c"} {
		entry, err := tl.RecordDuration(context.Background(), prober, name, "/m/"+name+".m3u8")
		require.NoError(t, err)
		assert.Equal(t, "", entry.StartTime)
	}

	_, err = tl.RecordDuration(context.Background(), prober, "z", "/m/missing.m3u8")
	require.Error(t, err)
	assert.True(t, errors.Is(err, services.ErrExternalTool))
	assert.Equal(t, 3, tl.Len())

	total, err := tl.Finalize()
	require.NoError(t, err)
	assert.Equal(t, "35.75", total)

	reloaded, err := timeline.Load(path)
	require.NoError(t, err)
	got := reloaded.Entries()
	require.Len(t, got, 3)
	assert.Equal(t, timeline.Entry{Filename: "b", StartTime: "10.0", Length: "20.5"}, got[1])
}

func TestTimelineRejectsNegativeProbe(t *testing.T) {
	tl, err := timeline.Load(filepath.Join(t.TempDir(), timeline.FileName))
	require.NoError(t, err)
	_, err = tl.RecordDuration(context.Background(), fakeProber{"p": "-3"}, "x", "p")
	assert.True(t, errors.Is(err, services.ErrValidation))
	assert.Equal(t, 0, tl.Len())
}

func TestLoadRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), timeline.FileName)
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
	_, err := timeline.Load(path)
	assert.Error(t, err)
}

func TestSaveWritesEmptyArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), timeline.FileName)
	tl, err := timeline.Load(path)
	require.NoError(t, err)
	require.NoError(t, tl.Save())
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[]", strings.TrimSpace(string(data)))
}
