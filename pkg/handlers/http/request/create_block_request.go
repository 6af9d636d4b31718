package request

import (
	"fmt"
	"net"
	"strings"
	"time"
)

type CreateBlockRequest struct {
	IP       string `json:"ip"`
	Detail   string `json:"detail,omitempty"`
	Duration string `json:"duration,omitempty"`
}

func (r *CreateBlockRequest) Validate() error {
	r.IP = strings.TrimSpace(r.IP)
	if r.IP == "" {
		return fmt.Errorf("ip is required")
	}
	if net.ParseIP(r.IP) == nil {
		return fmt.Errorf("invalid ip address %q", r.IP)
	}
	if _, err := r.ParsedDuration(); err != nil {
		return err
	}
	return nil
}

// ParsedDuration returns zero when no duration was given, which selects the
// configured block duration.
func (r *CreateBlockRequest) ParsedDuration() (time.Duration, error) {
	if strings.TrimSpace(r.Duration) == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(strings.TrimSpace(r.Duration))
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", r.Duration, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("duration must be positive")
	}
	return d, nil
}
