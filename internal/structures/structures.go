package structures

import "time"

// Config holds the application configuration
type Config struct {
	SendGridHook       string        `yaml:"sendgrid_hook,omitempty"`
	SendGridAuthPrefix string        `yaml:"sendgrid_auth_prefix,omitempty"`
	SendGridAuth       string        `yaml:"sendgrid_auth,omitempty"`
	EmailFrom          string        `yaml:"email_from,omitempty"`
	CredentialsPath    string        `yaml:"credentials_path,omitempty"`
	LogLevel           string        `yaml:"log_level,omitempty"`
	LogFile            string        `yaml:"log_file,omitempty"`
	HTTPTimeout        time.Duration `yaml:"http_timeout,omitempty"`
}

// Recipient is one entry of the --email.to list. Role is the Drive
// permission role granted on the uploaded artifact.
type Recipient struct {
	Email string `json:"email"`
	Role  string `json:"role,omitempty"`
}

// Artifact is the build output described by the release directory's descriptor.
type Artifact struct {
	Version string
	Path    string
}

// GrantReport collects the per-recipient outcome of sharing a file.
type GrantReport struct {
	Granted []string
	Failed  map[string]error
}

// OK reports whether every recipient was granted access.
func (r GrantReport) OK() bool {
	return len(r.Failed) == 0
}
