package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"leboncoin-parser-service/internal/contextkeys"
	"leboncoin-parser-service/internal/core/domain"
	"leboncoin-parser-service/internal/core/port"
	"leboncoin-parser-service/pkg/rabbitmq/rabbitmq_producer"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// CrawlReporterAdapter публикует отчеты о выполнении задач обхода.
type CrawlReporterAdapter struct {
	producer   *rabbitmq_producer.Publisher
	routingKey string
}

func NewCrawlReporterAdapter(producer *rabbitmq_producer.Publisher, routingKey string) (*CrawlReporterAdapter, error) {
	if producer == nil {
		return nil, fmt.Errorf("rabbitmq adapter: producer cannot be nil")
	}
	if routingKey == "" {
		return nil, fmt.Errorf("rabbitmq adapter: routingKey cannot be empty")
	}
	return &CrawlReporterAdapter{
		producer:   producer,
		routingKey: routingKey,
	}, nil
}

// ReportResult реализует CrawlReporterPort.
func (a *CrawlReporterAdapter) ReportResult(ctx context.Context, taskID uuid.UUID, report domain.CrawlReport) error {
	logger := contextkeys.LoggerFromContext(ctx)
	adapterLogger := logger.WithFields(port.Fields{
		"component":   "CrawlReporterAdapter",
		"routing_key": a.routingKey,
	})

	dto := CrawlReportDTO{
		TaskID:       taskID,
		InseeCode:    report.InseeCode,
		AdsProcessed: report.AdsProcessed,
		Status:       report.Status,
		Error:        report.Error,
	}

	body, _ := json.Marshal(dto)

	msg := amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent, // Для сохранения сообщений при перезапуске брокера
		Timestamp:    time.Now(),
		Headers:      make(amqp.Table),
	}

	traceID := contextkeys.TraceIDFromContext(ctx)
	if traceID != "" {
		msg.Headers["x-trace-id"] = traceID
	}

	publishCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	adapterLogger.Info("Publishing crawl report", nil)
	if err := a.producer.Publish(publishCtx, a.routingKey, msg); err != nil {
		adapterLogger.Error("Failed to publish crawl report", err, nil)
		return fmt.Errorf("rabbitmq adapter: failed to publish report for task %s: %w", taskID, err)
	}

	adapterLogger.Info("Successfully published crawl report", nil)
	return nil
}
