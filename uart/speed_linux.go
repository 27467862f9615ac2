//go:build linux

package uart

import "golang.org/x/sys/unix"

// Speed is a termios line speed constant (the CBAUD bits of c_cflag).
type Speed uint32

var baudToSpeed = map[int]Speed{
	300:    unix.B300,
	1200:   unix.B1200,
	2400:   unix.B2400,
	4800:   unix.B4800,
	9600:   unix.B9600,
	19200:  unix.B19200,
	38400:  unix.B38400,
	57600:  unix.B57600,
	115200: unix.B115200,
	230400: unix.B230400,
	460800: unix.B460800,
	921600: unix.B921600,
}
