package auditlogs

import (
	"context"
	"errors"

	"github.com/rimareum/gatekeeper/pkg/domain/security"
)

type DatabaseSink struct {
	repo security.EventRepository
}

func NewDatabaseSink(repo security.EventRepository) (*DatabaseSink, error) {
	if repo == nil {
		return nil, errors.New("database sink requires an event repository")
	}
	return &DatabaseSink{repo: repo}, nil
}

func (s *DatabaseSink) Name() string {
	return SinkDatabase
}

func (s *DatabaseSink) Write(ctx context.Context, evt *security.Event) error {
	return s.repo.Save(ctx, evt)
}

func (s *DatabaseSink) Recent(ctx context.Context, limit int) ([]*security.Event, error) {
	return s.repo.Recent(ctx, limit)
}

func (s *DatabaseSink) Count(ctx context.Context) (int64, error) {
	return s.repo.Count(ctx)
}

func (s *DatabaseSink) Close() error {
	return nil
}
