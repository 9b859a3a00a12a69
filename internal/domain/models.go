package domain

import "time"

type TargetID string

// Target is a monitored network endpoint. ID is the identity; Name and IP
// are display attributes the user may change.
type Target struct {
	ID   TargetID `json:"id"`
	Name string   `json:"name"`
	IP   string   `json:"ip"`
}

// ProbeResult is the outcome of one reachability check against a target.
type ProbeResult struct {
	TargetID  TargetID       `json:"target_id"`
	Alive     bool           `json:"alive"`
	Latency   *time.Duration `json:"latency,omitempty"` // nil when the probe failed or gave no timing
	RawOutput string         `json:"raw_output,omitempty"`
	CheckedAt time.Time      `json:"checked_at"`
}

// LatencyMS returns the latency in milliseconds and whether one was measured.
func (r ProbeResult) LatencyMS() (float64, bool) {
	if r.Latency == nil {
		return 0, false
	}
	return float64(*r.Latency) / float64(time.Millisecond), true
}

// SMTPConfig holds the credentials used for alert and test emails.
type SMTPConfig struct {
	Host   string `json:"host" yaml:"host"`
	Port   int    `json:"port" yaml:"port"`
	Secure bool   `json:"secure" yaml:"secure"` // implicit TLS (usually port 465)
	User   string `json:"user" yaml:"user"`
	Pass   string `json:"pass" yaml:"pass"`
	From   string `json:"from" yaml:"from"`
	To     string `json:"to" yaml:"to"`
}

// Configured reports whether enough fields are set to attempt a send.
func (c SMTPConfig) Configured() bool {
	return c.Host != "" && c.From != "" && c.To != ""
}
