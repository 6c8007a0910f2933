package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	"leboncoin-parser-service/internal/contextkeys"
	"leboncoin-parser-service/internal/core/domain"
	"leboncoin-parser-service/internal/core/port"
	usecases_port "leboncoin-parser-service/internal/core/port/usecases"
	"leboncoin-parser-service/pkg/rabbitmq/rabbitmq_common"
	"leboncoin-parser-service/pkg/rabbitmq/rabbitmq_consumer"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// CrawlTasksConsumerAdapter слушает очередь задач обхода: одно сообщение -
// один город. Результат обхода уходит в очередь отчетов.
type CrawlTasksConsumerAdapter struct {
	consumer    *rabbitmq_consumer.Consumer
	crawlCityUC usecases_port.CrawlCityUseCasePort
	reporter    port.CrawlReporterPort
	logger      port.LoggerPort
}

func NewCrawlTasksConsumerAdapter(
	consumerCfg rabbitmq_consumer.ConsumerConfig,
	crawlCityUC usecases_port.CrawlCityUseCasePort,
	reporter port.CrawlReporterPort,
	logger port.LoggerPort,
	connManager *rabbitmq_common.ConnectionManager,
) (*CrawlTasksConsumerAdapter, error) {

	adapter := &CrawlTasksConsumerAdapter{
		crawlCityUC: crawlCityUC,
		reporter:    reporter,
		logger:      logger,
	}

	// Создаем логгер для pkg-уровня с контекстом нашего компонента
	pkgLogger := logger.WithFields(port.Fields{"component": "rabbitmq_consumer", "consumer_tag": consumerCfg.ConsumerTag})
	consumerCfg.Logger = NewPkgLoggerBridge(pkgLogger)

	consumer, err := rabbitmq_consumer.NewConsumer(consumerCfg, connManager)
	if err != nil {
		return nil, fmt.Errorf("failed to create RabbitMQ consumer for crawl tasks: %w", err)
	}
	adapter.consumer = consumer

	return adapter, nil
}

// messageHandler - приватный метод адаптера
func (a *CrawlTasksConsumerAdapter) messageHandler(d amqp.Delivery) error {
	traceID, ok := d.Headers["x-trace-id"].(string)
	if !ok || traceID == "" {
		traceID = uuid.New().String()
	}

	msgLogger := a.logger.WithFields(port.Fields{
		"trace_id":     traceID,
		"delivery_tag": d.DeliveryTag,
	})

	ctx := context.Background()
	ctx = contextkeys.ContextWithLogger(ctx, msgLogger)
	ctx = contextkeys.ContextWithTraceID(ctx, traceID)

	msgLogger.Info("Received new crawl task", nil)

	var taskDTO CrawlTaskDTO
	if err := json.Unmarshal(d.Body, &taskDTO); err != nil {
		// Ошибка разбора JSON постоянная, повторять обработку нет смысла
		msgLogger.Error("Error unmarshalling crawl task DTO, NACKing message", err, nil)
		return fmt.Errorf("unmarshal error: %w", err)
	}
	if taskDTO.InseeCode == "" {
		msgLogger.Error("Crawl task without insee code, NACKing message", nil, nil)
		return fmt.Errorf("crawl task %s has no insee code", taskDTO.TaskID)
	}

	taskLogger := msgLogger.WithFields(port.Fields{"task_id": taskDTO.TaskID.String()})
	ctx = contextkeys.ContextWithLogger(ctx, taskLogger)

	processed, crawlErr := a.crawlCityUC.Execute(ctx, taskDTO.InseeCode, taskDTO.StartURL, taskDTO.TaskID)

	report := domain.CrawlReport{
		InseeCode:    taskDTO.InseeCode,
		AdsProcessed: processed,
		Status:       domain.CrawlStatusCompleted,
	}
	if crawlErr != nil {
		report.Status = domain.CrawlStatusFailed
		report.Error = crawlErr.Error()
	}

	if reportErr := a.reporter.ReportResult(ctx, taskDTO.TaskID, report); reportErr != nil {
		taskLogger.Error("Failed to publish crawl report", reportErr, nil)
		return reportErr // Возвращаем ошибку, чтобы сообщение не потерялось молча
	}

	if crawlErr != nil {
		taskLogger.Error("Crawl task failed", crawlErr, port.Fields{"ads_processed": processed})
		return crawlErr
	}

	taskLogger.Info("Crawl task completed", port.Fields{"ads_processed": processed})
	return nil
}

// Start реализует EventListenerPort
func (a *CrawlTasksConsumerAdapter) Start(ctx context.Context) error {
	return a.consumer.StartConsuming(ctx, a.messageHandler)
}

// Close реализует EventListenerPort
func (a *CrawlTasksConsumerAdapter) Close() error {
	return a.consumer.Close()
}
