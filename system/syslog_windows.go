package system

import "errors"

// EnableSyslog is not supported on windows
func EnableSyslog(tag string) error {
	return errors.New("Syslog not supported on windows")
}
