package main

import "time"

// frameLimiter paces the loop to a fixed frame rate.
type frameLimiter struct {
	target time.Duration
	next   time.Time
}

func newFrameLimiter(fps int) *frameLimiter {
	if fps <= 0 {
		return &frameLimiter{}
	}
	return &frameLimiter{target: time.Second / time.Duration(fps)}
}

// Wait blocks until the next frame is due. Sleeping stops short of the
// deadline and the rest is spun for precision.
func (f *frameLimiter) Wait() {
	if f.target == 0 {
		return
	}
	if f.next.IsZero() {
		f.next = time.Now().Add(f.target)
	} else {
		f.next = f.next.Add(f.target)
	}
	for {
		remaining := time.Until(f.next)
		if remaining <= 0 {
			break
		}
		if remaining > 200*time.Microsecond {
			time.Sleep(remaining - 200*time.Microsecond)
		}
	}
	// Resync after a hitch rather than racing to catch up.
	if late := -time.Until(f.next); late > f.target {
		f.next = time.Now().Add(f.target)
	}
}
