package auditlog

import "time"

const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// AuditEntry is one recorded Terraform or Ansible run.
type AuditEntry struct {
	ID          int64     `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	Command     string    `json:"command"`
	Args        string    `json:"args,omitempty"`
	Environment string    `json:"environment,omitempty"`
	Tool        string    `json:"tool,omitempty"`
	Target      string    `json:"target,omitempty"`
	Outcome     string    `json:"outcome"`
	ExitCode    int       `json:"exit_code"`
	LogFile     string    `json:"log_file,omitempty"`
	Detail      string    `json:"detail,omitempty"`
	DurationMs  int64     `json:"duration_ms"`
}
