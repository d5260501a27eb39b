package file

import (
	"bufio"
	"context"
	"strings"
)

// ReadList reads a newline-separated list (for example language names) and
// returns its entries in order. Blank lines and lines starting with '#' are
// skipped; a line may also hold several comma-separated entries.
func ReadList(ctx context.Context, path string) ([]string, error) {
	rc, err := NewLocal(path).Open(ctx)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var out []string
	scanner := bufio.NewScanner(rc)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		for _, item := range strings.Split(line, ",") {
			if item = strings.TrimSpace(item); item != "" {
				out = append(out, item)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
