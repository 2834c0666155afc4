package util

import (
	"fmt"
	"regexp"
	"strings"
)

// hostnameLabel matches one dot-separated label: alphanumerics and hyphens,
// neither starting nor ending with a hyphen.
var hostnameLabel = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9-]*[a-zA-Z0-9])?$`)

const (
	maxHostnameLen = 253
	maxLabelLen    = 63
)

// ValidateHostname checks that name is a valid RFC 1123 hostname:
//   - 1 to 253 characters in total
//   - dot-separated labels of 1 to 63 characters
//   - labels contain only a-z, A-Z, 0-9 and hyphens
//   - labels neither start nor end with a hyphen
func ValidateHostname(name string) error {
	if name == "" {
		return fmt.Errorf("hostname must not be empty")
	}
	if len(name) > maxHostnameLen {
		return fmt.Errorf("hostname must be at most %d characters, got %d", maxHostnameLen, len(name))
	}

	for _, label := range strings.Split(name, ".") {
		if label == "" {
			return fmt.Errorf("hostname %q contains an empty label", name)
		}
		if len(label) > maxLabelLen {
			return fmt.Errorf("hostname label %q exceeds %d characters", label, maxLabelLen)
		}
		if !hostnameLabel.MatchString(label) {
			return fmt.Errorf("hostname label %q contains invalid characters or starts/ends with a hyphen", label)
		}
	}
	return nil
}
