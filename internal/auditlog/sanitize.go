package auditlog

import "strings"

var sensitiveFlags = map[string]struct{}{
	"--token":           {},
	"--vault-password":  {},
	"--become-password": {},
}

// sensitiveNames marks Terraform -var assignments and KEY=VALUE pairs whose
// values must not be stored.
var sensitiveNames = []string{"token", "password", "secret"}

// SanitizeArgs redacts sensitive flag values for audit storage.
func SanitizeArgs(args []string) []string {
	sanitized := make([]string, 0, len(args))
	skipNext := false

	for _, arg := range args {
		if skipNext {
			sanitized = append(sanitized, "<redacted>")
			skipNext = false
			continue
		}

		if _, ok := sensitiveFlags[arg]; ok {
			sanitized = append(sanitized, arg)
			skipNext = true
			continue
		}

		if key, _, ok := strings.Cut(arg, "="); ok {
			if _, ok := sensitiveFlags[key]; ok {
				sanitized = append(sanitized, key+"=<redacted>")
				continue
			}
		}

		if prefix, ok := sensitiveAssignment(arg); ok {
			sanitized = append(sanitized, prefix+"<redacted>")
			continue
		}

		sanitized = append(sanitized, arg)
	}

	if skipNext {
		sanitized = append(sanitized, "<redacted>")
	}

	return sanitized
}

// sensitiveAssignment matches "-var=name=value" and "name=value" where name
// looks like a credential, returning everything up to the value.
func sensitiveAssignment(arg string) (string, bool) {
	rest := strings.TrimPrefix(arg, "-var=")
	name, _, ok := strings.Cut(rest, "=")
	if !ok || strings.HasPrefix(name, "-") {
		return "", false
	}
	lower := strings.ToLower(name)
	for _, s := range sensitiveNames {
		if strings.Contains(lower, s) {
			return arg[:len(arg)-len(rest)] + name + "=", true
		}
	}
	return "", false
}
