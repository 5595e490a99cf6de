// Package preflight checks the filesystem paths and external tools a run
// depends on.
//
// These checks run in two contexts:
//   - The pipeline logs failed checks at run start. Only the ones that make a
//     run impossible (an unreadable SD card) stop it; a missing ffmpeg still
//     lets ingest back clips up.
//   - The CLI "clipreel status" command renders every result.
package preflight
