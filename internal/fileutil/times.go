package fileutil

import "time"

// Times holds the timestamps the filesystem reports for a file. Birth is the
// zero time when the platform or filesystem does not record creation time.
type Times struct {
	Access time.Time
	Modify time.Time
	Birth  time.Time
}

// Created returns the best available creation timestamp: the birth time when
// it is recorded and not later than the modification time, otherwise the
// modification time. Copies made with CopyPreserving carry their source's
// modification time, so they report the source's creation time rather than
// the moment they were copied.
func (t Times) Created() time.Time {
	if !t.Birth.IsZero() && !t.Birth.After(t.Modify) {
		return t.Birth
	}
	return t.Modify
}
