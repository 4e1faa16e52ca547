package timeline_test

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ytplayer/internal/timeline"
)

func itemManifest(name string, durations ...string) string {
	out := "#EXTM3U\n#EXT-X-VERSION:3\n#EXT-X-TARGETDURATION:10\n#EXT-X-MEDIA-SEQUENCE:0\n"
	for i, d := range durations {
		out += fmt.Sprintf("#EXTINF:%s,\n%s_%05d.ts\n", d, name, i)
	}
	return out + "#EXT-X-ENDLIST\n"
}

func TestAssembleManifestEmpty(t *testing.T) {
	got, err := timeline.AssembleManifest(nil, func(string) ([]byte, error) {
		t.Fatal("lookup must not be called")
		return nil, nil
	})
	require.NoError(t, err)
	assert.Equal(t,
		"#EXTM3U\n#EXT-X-VERSION:3\n#EXT-X-TARGETDURATION:0\n#EXT-X-MEDIA-SEQUENCE:0\n#EXT-X-ENDLIST\n",
		string(got))
}

func TestAssembleManifestConcatenatesItems(t *testing.T) {
	manifests := map[string]string{
		"one": itemManifest("one", "10.000000", "4.2"),
		"two": itemManifest("two", "10.4"),
	}
	lookup := func(name string) ([]byte, error) { return []byte(manifests[name]), nil }

	got, err := timeline.AssembleManifest([]timeline.Entry{{Filename: "one"}, {Filename: "two"}}, lookup)
	require.NoError(t, err)

	want := "#EXTM3U\n" +
		"#EXT-X-VERSION:3\n" +
		"#EXT-X-TARGETDURATION:11\n" +
		"#EXT-X-MEDIA-SEQUENCE:0\n" +
		"#EXT-X-DISCONTINUITY\n" +
		"#EXTINF:10.000000,\n" +
		"one/one_00000.ts\n" +
		"#EXTINF:4.2,\n" +
		"one/one_00001.ts\n" +
		"#EXT-X-DISCONTINUITY\n" +
		"#EXTINF:10.4,\n" +
		"two/two_00000.ts\n" +
		"#EXT-X-ENDLIST\n"
	assert.Equal(t, want, string(got))
}

func TestAssembleManifestRejectsItemWithoutSegments(t *testing.T) {
	lookup := func(string) ([]byte, error) { return []byte("#EXTM3U\n#EXT-X-ENDLIST\n"), nil }
	_, err := timeline.AssembleManifest([]timeline.Entry{{Filename: "x"}}, lookup)
	assert.Error(t, err)
}

func TestAssembleManifestLookupFailure(t *testing.T) {
	dir := t.TempDir()
	_, err := timeline.AssembleManifest([]timeline.Entry{{Filename: "absent"}}, timeline.DirLookup(dir))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestDirLookupAndWriteManifest(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "abc"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "abc", "abc.m3u8"), []byte(itemManifest("abc", "3.5")), 0o644))

	data, err := timeline.AssembleManifest([]timeline.Entry{{Filename: "abc"}}, timeline.DirLookup(dir))
	require.NoError(t, err)

	path := filepath.Join(dir, timeline.PlaylistManifest)
	require.NoError(t, timeline.WriteManifest(path, data))
	written, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(written), "abc/abc_00000.ts")
	assert.Contains(t, string(written), "#EXT-X-TARGETDURATION:4\n")
}

func TestSumSegmentDurations(t *testing.T) {
	got, err := timeline.SumSegmentDurations([]byte(itemManifest("x", "10.000000", "10.000000", "3.333333")))
	require.NoError(t, err)
	assert.Equal(t, "23.333333", got)

	got, err = timeline.SumSegmentDurations([]byte("#EXTM3U\n"))
	require.NoError(t, err)
	assert.Equal(t, "0", got)

	_, err = timeline.SumSegmentDurations([]byte("#EXTINF:oops,\n"))
	assert.Error(t, err)
}
