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

	amqp "github.com/rabbitmq/amqp091-go"
)

// CrawlTaskQueueAdapter ставит задачи обхода в очередь. Используется
// REST-слоем: запрос на обход города превращается в сообщение,
// которое заберет потребитель этого же или другого экземпляра.
type CrawlTaskQueueAdapter struct {
	producer   *rabbitmq_producer.Publisher
	routingKey string
}

func NewCrawlTaskQueueAdapter(producer *rabbitmq_producer.Publisher, routingKey string) (*CrawlTaskQueueAdapter, error) {
	if producer == nil {
		return nil, fmt.Errorf("rabbitmq adapter: producer cannot be nil")
	}
	if routingKey == "" {
		return nil, fmt.Errorf("rabbitmq adapter: routingKey cannot be empty")
	}
	return &CrawlTaskQueueAdapter{
		producer:   producer,
		routingKey: routingKey,
	}, nil
}

// Enqueue реализует CrawlTaskQueuePort.
func (a *CrawlTaskQueueAdapter) Enqueue(ctx context.Context, task domain.CrawlTask) error {
	logger := contextkeys.LoggerFromContext(ctx)
	adapterLogger := logger.WithFields(port.Fields{
		"component":   "CrawlTaskQueueAdapter",
		"routing_key": a.routingKey,
		"task_id":     task.TaskID.String(),
	})

	dto := CrawlTaskDTO{
		TaskID:    task.TaskID,
		InseeCode: task.InseeCode,
		StartURL:  task.StartURL,
	}

	body, _ := json.Marshal(dto)

	msg := amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Headers:      make(amqp.Table),
	}

	traceID := contextkeys.TraceIDFromContext(ctx)
	if traceID != "" {
		msg.Headers["x-trace-id"] = traceID
	}

	publishCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := a.producer.Publish(publishCtx, a.routingKey, msg); err != nil {
		adapterLogger.Error("Failed to enqueue crawl task", err, nil)
		return fmt.Errorf("rabbitmq adapter: failed to enqueue crawl task %s: %w", task.TaskID, err)
	}

	adapterLogger.Info("Crawl task enqueued", nil)
	return nil
}
