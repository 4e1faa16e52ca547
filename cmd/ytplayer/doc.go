// Package main hosts the ytplayer CLI entrypoint and command graph.
//
// The Cobra command tree resolves configuration once, builds the logger,
// library store, and thread budget, then hands off to the internal packages:
// downloads run through acquire, account management through library, and
// maintenance commands through staging and deps. Keep commands thin; new
// behavior belongs in internal packages first.
package main
