package csv

import "strings"

const utf8BOM = "\uFEFF"

// stripBOM removes a UTF-8 BOM from the first physical line if present.
func stripBOM(line string) string {
	return strings.TrimPrefix(line, utf8BOM)
}
