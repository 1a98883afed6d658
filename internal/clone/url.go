package clone

import (
	"fmt"
	"net/url"
)

// ValidateURL checks that the raw URL parses and carries both a scheme and a
// host. Invalid URLs must fail fast, before any network action and without
// consuming a retry attempt.
func ValidateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("parse url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid url %q: scheme and host are required", raw)
	}
	return nil
}
