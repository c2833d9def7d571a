package askdbctl

import (
	"fmt"
	"strings"
	"time"

	"github.com/askdb/askdb/internal/config"
)

const defaultTimeout = 60 * time.Second

// OptionsFromEnv reads ASKDB_API_URL and ASKDB_CLI_TIMEOUT. Blank values fall
// back to the flag defaults; a timeout that does not parse is an error.
func OptionsFromEnv(lookup config.LookupFunc) (Options, error) {
	var opts Options
	if raw, ok := lookup("ASKDB_API_URL"); ok {
		opts.BaseURL = strings.TrimSpace(raw)
	}
	if raw, ok := lookup("ASKDB_CLI_TIMEOUT"); ok && strings.TrimSpace(raw) != "" {
		parsed, err := time.ParseDuration(strings.TrimSpace(raw))
		if err != nil || parsed <= 0 {
			return Options{}, fmt.Errorf("invalid ASKDB_CLI_TIMEOUT %q", raw)
		}
		opts.Timeout = parsed
	}
	return opts, nil
}
