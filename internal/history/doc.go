// Package history persists a record of each pipeline run in SQLite so past
// runs can be listed and inspected from the CLI.
//
// The store is write-mostly and advisory: nothing in the pipeline reads it
// back to decide what to copy or encode. The ledger alone governs that.
package history
