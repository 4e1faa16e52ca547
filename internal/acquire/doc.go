// Package acquire drives one playlist download from URL to finished
// manifest.
//
// A Downloader validates the playlist URL, takes the user's download lock,
// allocates a playlist folder and record, stages catalog metadata, then
// walks the staged items one at a time: transcode, probe, record. Item
// failures are logged, counted, and cleaned up without stopping the loop.
// Once the items are exhausted or the success cap is reached, offsets are
// finalized, the combined manifest is written, and the record is marked done
// with a status that says whether anything was lost along the way.
package acquire
