// Package time contains time related helpers
package time

import "time"

// Ptr returns a pointer to t, or nil when t is the zero time so optional
// timestamps marshal as absent instead of 0001-01-01
func Ptr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
