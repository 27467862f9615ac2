package test

import (
	"fmt"
	"strconv"
)

// HexDump provides a string of bytes in hex format
func HexDump(data []byte) string {
	return fmt.Sprintf("% x", data)
}

// Printable renders data as a quoted string with control characters
// escaped, for logging modem traffic.
func Printable(data []byte) string {
	return strconv.Quote(string(data))
}
