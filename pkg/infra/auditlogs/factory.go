package auditlogs

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
	"github.com/rimareum/gatekeeper/pkg/config"
	"github.com/rimareum/gatekeeper/pkg/domain/security"
	"github.com/sirupsen/logrus"
)

type SinkDeps struct {
	Logger       *logrus.Logger
	Repository   security.EventRepository
	MemoryEvents int
}

type memorySettings struct {
	Capacity int `mapstructure:"capacity"`
}

// BuildSinks instantiates the configured sinks and picks the reader the admin
// API serves events from: the database when configured, otherwise a memory
// ring. A memory ring is added when no configured sink can be read back.
func BuildSinks(cfgs []config.AuditSinkConfig, deps SinkDeps) ([]Sink, Reader, error) {
	var (
		sinks  []Sink
		reader Reader
		memory *MemorySink
		seen   = make(map[string]bool, len(cfgs))
	)
	for _, cfg := range cfgs {
		if seen[cfg.Type] {
			return nil, nil, fmt.Errorf("audit sink %q configured twice", cfg.Type)
		}
		seen[cfg.Type] = true

		switch cfg.Type {
		case SinkLog:
			sinks = append(sinks, NewLogSink(deps.Logger))
		case SinkMemory:
			var settings memorySettings
			if err := mapstructure.Decode(cfg.Settings, &settings); err != nil {
				return nil, nil, fmt.Errorf("invalid memory sink settings: %w", err)
			}
			if settings.Capacity <= 0 {
				settings.Capacity = deps.MemoryEvents
			}
			memory = NewMemorySink(settings.Capacity)
			sinks = append(sinks, memory)
		case SinkDatabase:
			db, err := NewDatabaseSink(deps.Repository)
			if err != nil {
				return nil, nil, err
			}
			sinks = append(sinks, db)
			reader = db
		case SinkKafka:
			var settings KafkaConfig
			if err := mapstructure.Decode(cfg.Settings, &settings); err != nil {
				return nil, nil, fmt.Errorf("invalid kafka sink settings: %w", err)
			}
			k, err := NewKafkaSink(settings)
			if err != nil {
				return nil, nil, err
			}
			sinks = append(sinks, k)
		default:
			return nil, nil, fmt.Errorf("unknown audit sink type %q", cfg.Type)
		}
	}

	if reader == nil {
		if memory == nil {
			memory = NewMemorySink(deps.MemoryEvents)
			sinks = append(sinks, memory)
		}
		reader = memory
	}
	return sinks, reader, nil
}
