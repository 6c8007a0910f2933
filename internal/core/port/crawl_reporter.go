package port

import (
	"context"

	"leboncoin-parser-service/internal/core/domain"

	"github.com/google/uuid"
)

// CrawlReporterPort публикует итог обхода одного города.
type CrawlReporterPort interface {
	ReportResult(ctx context.Context, taskID uuid.UUID, report domain.CrawlReport) error
}

// CrawlTaskQueuePort ставит задачу обхода города в очередь.
type CrawlTaskQueuePort interface {
	Enqueue(ctx context.Context, task domain.CrawlTask) error
}

// EventListenerPort - входящий слушатель событий (очередь задач).
type EventListenerPort interface {
	Start(ctx context.Context) error
	Close() error
}
