// Package encoder builds and runs the two ffmpeg invocations the pipeline
// needs: burning the caption into a single clip and concatenating the
// annotated clips listed in a manifest.
//
// Arguments are passed as a slice; no shell is involved. Each call blocks
// until ffmpeg exits and reports a Result the caller inspects immediately.
// Cancelling the context kills the process.
package encoder
