// Package pipeline runs one project end to end: ingest new clips from the
// SD card, caption every backup clip, order them by capture time and join
// them into the project's compilation.
//
// Stages run strictly one after another and ffmpeg runs one clip at a time.
// Only setup problems (run lock, directories, ledger, a missing SD card)
// abort a run; per-clip failures and an empty or failed concatenation are
// reported in the Summary and the run log.
package pipeline
