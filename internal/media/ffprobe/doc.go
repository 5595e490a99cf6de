// Package ffprobe wraps ffprobe's JSON output for the fields the pipeline
// reads: stream layout, duration and the creation_time tag cameras write
// into the container.
//
// Primary entry point:
//   - Inspect: executes ffprobe and returns the parsed Result
//
// Result.CreationTime looks at stream tags before format tags, which is the
// order cameras that write both are most accurate in.
package ffprobe
