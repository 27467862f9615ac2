//go:build !windows

package system

import (
	"log"
	"log/syslog"
)

// EnableSyslog sends the standard logger output to syslog under tag.
func EnableSyslog(tag string) error {
	lgr, err := syslog.New(syslog.LOG_NOTICE|syslog.LOG_DAEMON, tag)
	if err != nil {
		return err
	}

	log.SetOutput(lgr)
	log.SetFlags(0)

	return nil
}
