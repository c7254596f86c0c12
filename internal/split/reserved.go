package split

import (
	"strings"
	"unicode/utf8"
)

// ReservedNames are device names that cannot be used as a bare file stem on
// Windows, whatever the extension. Matching is case-insensitive.
var ReservedNames = []string{
	"CON", "PRN", "AUX", "NUL",
	"COM0", "COM1", "COM2", "COM3", "COM4", "COM5", "COM6", "COM7", "COM8", "COM9",
	"LPT0", "LPT1", "LPT2", "LPT3", "LPT4", "LPT5", "LPT6", "LPT7", "LPT8", "LPT9",
}

// IsReserved reports whether name collides with a reserved device name.
func IsReserved(name string) bool {
	for _, reserved := range ReservedNames {
		if strings.EqualFold(name, reserved) {
			return true
		}
	}
	return false
}

// FSName returns the file stem used for a module named name, and whether
// the name had to be changed. Reserved names get a trailing underscore.
func FSName(name string) (string, bool) {
	if IsReserved(name) {
		return name + "_", true
	}
	return name, false
}

// isASCII reports whether name is plain ASCII. rustc only discovers module
// files implicitly for ASCII names; any other name needs a path attribute.
func isASCII(name string) bool {
	return strings.IndexFunc(name, func(r rune) bool { return r >= utf8.RuneSelf }) < 0
}
