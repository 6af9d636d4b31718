package response

import (
	"github.com/rimareum/gatekeeper/pkg/app/gatekeeper"
	"github.com/rimareum/gatekeeper/pkg/domain/security"
)

type StatusOutput struct {
	Status         string              `json:"status"`
	Version        string              `json:"version"`
	ActiveBlocks   int                 `json:"active_blocks"`
	RecordedEvents int64               `json:"recorded_events"`
	Settings       gatekeeper.Settings `json:"settings"`
}

type EventsOutput struct {
	Events []*security.Event `json:"events"`
	Count  int               `json:"count"`
}

type BlocksOutput struct {
	Blocks []*security.BlockEntry `json:"blocks"`
	Count  int                    `json:"count"`
}
