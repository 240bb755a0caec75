package stats

import "errors"

var (
	ErrStatsNotFound = errors.New("monthly stats not found")
)
