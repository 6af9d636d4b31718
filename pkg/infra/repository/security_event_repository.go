package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/rimareum/gatekeeper/pkg/domain/security"
	"github.com/rimareum/gatekeeper/pkg/infra/database/types"
	"gorm.io/gorm"
)

const maxRecentEvents = 1000

type securityEventModel struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey"`
	TraceID    string         `gorm:"column:trace_id"`
	OccurredAt time.Time      `gorm:"column:occurred_at"`
	IP         string         `gorm:"column:ip"`
	UserAgent  string         `gorm:"column:user_agent"`
	Path       string         `gorm:"column:path"`
	Method     string         `gorm:"column:method"`
	ThreatType string         `gorm:"column:threat_type"`
	Severity   string         `gorm:"column:severity"`
	Blocked    bool           `gorm:"column:blocked"`
	RiskScore  float64        `gorm:"column:risk_score"`
	Reasons    pq.StringArray `gorm:"column:reasons;type:text[]"`
	Details    types.JSONMap  `gorm:"column:details;type:jsonb"`
}

func (securityEventModel) TableName() string {
	return "security_events"
}

func toEventModel(evt *security.Event) *securityEventModel {
	return &securityEventModel{
		ID:         evt.ID,
		TraceID:    evt.TraceID,
		OccurredAt: evt.Timestamp.UTC(),
		IP:         evt.IP,
		UserAgent:  evt.UserAgent,
		Path:       evt.Path,
		Method:     evt.Method,
		ThreatType: evt.ThreatType,
		Severity:   string(evt.Severity),
		Blocked:    evt.Blocked,
		RiskScore:  evt.RiskScore,
		Reasons:    pq.StringArray(evt.Reasons),
		Details:    types.JSONMap(evt.Details),
	}
}

func (m *securityEventModel) toDomain() *security.Event {
	return &security.Event{
		ID:         m.ID,
		TraceID:    m.TraceID,
		Timestamp:  m.OccurredAt,
		IP:         m.IP,
		UserAgent:  m.UserAgent,
		Path:       m.Path,
		Method:     m.Method,
		ThreatType: m.ThreatType,
		Severity:   security.Severity(m.Severity),
		Blocked:    m.Blocked,
		RiskScore:  m.RiskScore,
		Reasons:    []string(m.Reasons),
		Details:    map[string]interface{}(m.Details),
	}
}

type securityEventRepository struct {
	db *gorm.DB
}

func NewSecurityEventRepository(db *gorm.DB) security.EventRepository {
	return &securityEventRepository{db: db}
}

// Save appends an event. Events are never updated.
func (r *securityEventRepository) Save(ctx context.Context, evt *security.Event) error {
	if evt.ID == uuid.Nil {
		evt.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(toEventModel(evt)).Error; err != nil {
		return fmt.Errorf("failed to save security event: %w", err)
	}
	return nil
}

func (r *securityEventRepository) Recent(ctx context.Context, limit int) ([]*security.Event, error) {
	limit = clampLimit(limit)
	var rows []securityEventModel
	if err := r.db.WithContext(ctx).
		Order("occurred_at DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list security events: %w", err)
	}
	events := make([]*security.Event, 0, len(rows))
	for i := range rows {
		events = append(events, rows[i].toDomain())
	}
	return events, nil
}

func (r *securityEventRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&securityEventModel{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count security events: %w", err)
	}
	return n, nil
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > maxRecentEvents {
		return maxRecentEvents
	}
	return limit
}
