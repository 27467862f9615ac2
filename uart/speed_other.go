//go:build !linux

package uart

// Speed is the line speed value stored in termios. BSD derived systems
// store the numeric rate directly.
type Speed uint32

var baudToSpeed = func() map[int]Speed {
	ret := make(map[int]Speed, len(supportedBauds))
	for _, b := range supportedBauds {
		ret[b] = Speed(b)
	}
	return ret
}()
