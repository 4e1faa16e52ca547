// Package transcode turns one remote item into a directory of HLS segments.
//
// Each item runs three external stages joined by pipes: the fetch tool
// streams the best audio rendition to stdout, a first ffmpeg applies the
// configured filter chain and emits raw PCM, and a second ffmpeg encodes the
// PCM to MP3 HLS segments inside the item directory. The stages share one
// thread allotment taken from the workers budget for the item's lifetime.
//
// A failed item leaves its directory behind; callers hand it to
// ScheduleCleanup, which removes it after a short delay.
package transcode
