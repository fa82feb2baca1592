package record

import "errors"

// ErrNotFound is returned by Store implementations when no record matches
// the lookup, including ownership mismatches. Callers cannot distinguish a
// missing record from someone else's record.
var ErrNotFound = errors.New("certificate record not found")
