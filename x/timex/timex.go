package timex

import "time"

// NowMs returns Unix milliseconds as int64.
func NowMs() int64 { return time.Now().UnixMilli() }

// SinceMs returns now-then in the firmware's wrapping u32 millisecond space.
// Wrap-around subtraction is well defined for unsigned arithmetic, matching
// how tick deltas are taken against a free-running millisecond counter.
func SinceMs(now, then uint32) uint32 { return now - then }
