// Package deps checks that the external tools and directories a download
// needs are present before any work starts.
package deps
