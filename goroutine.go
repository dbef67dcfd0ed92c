package governor

import "runtime"

// getGoroutineID returns the current goroutine's id, parsed out of the
// header line of runtime.Stack. Used to recognize whichever goroutine
// currently holds the baton (see scheduler.go): many goroutines take turns
// being "the" privileged one rather than there being exactly one forever.
func getGoroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	var id uint64
	for i := len("goroutine "); i < n; i++ {
		if buf[i] >= '0' && buf[i] <= '9' {
			id = id*10 + uint64(buf[i]-'0')
		} else {
			break
		}
	}
	return id
}
