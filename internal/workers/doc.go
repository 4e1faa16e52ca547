// Package workers splits a fixed thread budget among concurrently running
// transcodes.
//
// A Budget is created once by the composition root and shared by every
// pipeline instance. Each transcode calls Acquire before launching its
// external tools and Release when they finish; Acquire returns the thread
// count that transcode should pass to its encoder. Early starters keep their
// larger share when more consumers join later.
package workers
