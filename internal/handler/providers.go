package handler

import (
	"context"
	"time"

	"github.com/radioafrica/internal/service"
)

type presenceRecorder interface {
	RecordHeartbeat(ctx context.Context, visitorID string) error
}

type statsReader interface {
	GetStats(ctx context.Context, window time.Duration) (service.Stats, error)
	DefaultWindow() time.Duration
}

type blogProvider interface {
	List(ctx context.Context, limit int) ([]service.BlogPost, error)
	Create(ctx context.Context, input service.BlogInput) (*service.BlogPost, error)
	Get(ctx context.Context, id string) (*service.BlogPost, error)
}

type diagnosticsProvider interface {
	Report(ctx context.Context) service.DatabaseReport
	Ping(ctx context.Context) error
}
