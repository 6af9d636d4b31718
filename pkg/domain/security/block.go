package security

import (
	"context"
	"time"
)

type BlockReason string

const (
	BlockReasonGeo      BlockReason = "GEO_BLOCK"
	BlockReasonHoneypot BlockReason = "HONEYPOT"
	BlockReasonHighRisk BlockReason = "HIGH_RISK"
	BlockReasonManual   BlockReason = "MANUAL"
)

func (r BlockReason) Valid() bool {
	switch r {
	case BlockReasonGeo, BlockReasonHoneypot, BlockReasonHighRisk, BlockReasonManual:
		return true
	}
	return false
}

// BlockEntry marks an IP as blocked until ExpiresAt.
type BlockEntry struct {
	IP        string      `json:"ip"`
	Reason    BlockReason `json:"reason"`
	Detail    string      `json:"detail,omitempty"`
	BlockedAt time.Time   `json:"blocked_at"`
	ExpiresAt time.Time   `json:"expires_at"`
}

func NewBlockEntry(ip string, reason BlockReason, detail string, now time.Time, duration time.Duration) *BlockEntry {
	return &BlockEntry{
		IP:        ip,
		Reason:    reason,
		Detail:    detail,
		BlockedAt: now,
		ExpiresAt: now.Add(duration),
	}
}

// ActiveAt reports whether the entry still blocks at t. An entry stops
// blocking at exactly ExpiresAt.
func (b *BlockEntry) ActiveAt(t time.Time) bool {
	return t.Before(b.ExpiresAt)
}

//go:generate mockery --name=BlockStore --dir=. --output=./mocks --filename=block_store_mock.go --case=underscore
type BlockStore interface {
	Block(ctx context.Context, entry *BlockEntry) error
	Get(ctx context.Context, ip string) (*BlockEntry, error)
	Unblock(ctx context.Context, ip string) error
	List(ctx context.Context) ([]*BlockEntry, error)
	Count(ctx context.Context) (int, error)
}
