package security

import "time"

// Fingerprint is the normalized per-request feature snapshot consumed by the scorers.
type Fingerprint struct {
	ClientIP      string    `json:"client_ip"`
	UserAgent     string    `json:"user_agent"`
	Path          string    `json:"path"`
	Query         string    `json:"query,omitempty"`
	Method        string    `json:"method"`
	ContentLength int       `json:"content_length"`
	Referer       string    `json:"referer"`
	Accept        string    `json:"accept,omitempty"`
	Timestamp     time.Time `json:"timestamp"`

	Device  string `json:"device,omitempty"`
	Browser string `json:"browser,omitempty"`
	OS      string `json:"os,omitempty"`
}

// InspectedContent is the text the static rules are matched against. The
// raw query string is inspected with the path; honeypots and the behavior
// window only see the path.
func (f *Fingerprint) InspectedContent() string {
	target := f.Path
	if f.Query != "" {
		target += "?" + f.Query
	}
	return target + " " + f.UserAgent + " " + f.Referer
}
