package csv

import "strings"

const utf8BOM = "\uFEFF"

// StripBOM removes a UTF-8 byte order mark from the start of the first line.
func StripBOM(line string) string {
	return strings.TrimPrefix(line, utf8BOM)
}
