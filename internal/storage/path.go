package storage

import (
	"fmt"
	"path"
	"regexp"
	"strings"
	"time"
)

var pathComponentPattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]{0,127}$`)

// BuildArchivePath lays history batches out by UTC day, named by the id
// range they cover:
//
//	<prefix>/date=YYYY-MM-DD/history-<firstID>-<lastID>.parquet
func BuildArchivePath(prefix string, at time.Time, firstID, lastID int64) (string, error) {
	components := make([]string, 0, 4)
	for _, part := range strings.Split(strings.Trim(prefix, "/"), "/") {
		if part == "" {
			continue
		}
		if err := validatePathComponent(part, "archive prefix"); err != nil {
			return "", err
		}
		components = append(components, part)
	}
	if firstID <= 0 || lastID < firstID {
		return "", fmt.Errorf("invalid id range %d-%d", firstID, lastID)
	}

	ts := at.UTC()
	components = append(components,
		fmt.Sprintf("date=%04d-%02d-%02d", ts.Year(), ts.Month(), ts.Day()),
		fmt.Sprintf("history-%010d-%010d.parquet", firstID, lastID),
	)
	return path.Join(components...), nil
}

func validatePathComponent(value, field string) error {
	if !pathComponentPattern.MatchString(value) {
		return fmt.Errorf("invalid %s: %q", field, value)
	}
	return nil
}
