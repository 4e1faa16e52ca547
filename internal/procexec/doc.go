// Package procexec launches external tools with explicit ownership of their
// standard streams.
//
// Start returns a Process whose stdin and stdout are exposed as plain pipe
// ends so callers can chain several tools together with io.Copy. Stderr is
// always drained into a bounded tail buffer that is attached to exit errors.
// Close is idempotent and kills the whole process group of a tool that is
// still running, so a failed pipeline never leaves children behind.
package procexec
