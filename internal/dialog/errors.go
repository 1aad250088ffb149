package dialog

import "errors"

// permanenter marks provider errors that stem from configuration rather than
// a transient fault (e.g. a missing voice mapping). Such failures must not be
// presented as retryable.
type permanenter interface {
	Permanent() bool
}

func isPermanent(err error) bool {
	var p permanenter
	if !errors.As(err, &p) {
		return false
	}
	return p.Permanent()
}
