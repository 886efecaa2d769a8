package domain

import "errors"

// ErrRevisionConflict is returned by SaveIfRevision when the stored revision moved on.
var ErrRevisionConflict = errors.New("note revision conflict")
