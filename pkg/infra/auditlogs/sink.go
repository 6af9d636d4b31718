package auditlogs

import (
	"context"

	"github.com/rimareum/gatekeeper/pkg/domain/security"
)

const (
	SinkLog      = "log"
	SinkDatabase = "database"
	SinkKafka    = "kafka"
	SinkMemory   = "memory"
)

// Sink persists audit events. Write is called from the audit workers, never
// from the request path.
//
//go:generate mockery --name=Sink --dir=. --output=./mocks --filename=sink_mock.go --case=underscore
type Sink interface {
	Name() string
	Write(ctx context.Context, evt *security.Event) error
	Close() error
}

// Reader serves recorded events back to the admin API.
//
//go:generate mockery --name=Reader --dir=. --output=./mocks --filename=reader_mock.go --case=underscore
type Reader interface {
	Recent(ctx context.Context, limit int) ([]*security.Event, error)
	Count(ctx context.Context) (int64, error)
}
