// Package main hosts the clipreel CLI entrypoint and command graph.
//
// The Cobra command tree loads configuration once, builds the console logger,
// and hands off to internal/pipeline for runs. Inspection commands (ledger,
// history, status) read the same state the pipeline writes and never modify
// it.
//
// Keep this package lean: behaviour belongs in the internal packages and is
// only surfaced here through commands and flags.
package main
