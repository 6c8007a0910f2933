package internal

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"leboncoin-parser-service/internal/adapters/geoadresse"
	"leboncoin-parser-service/internal/adapters/leboncoinfetcher"
	logger_adapter "leboncoin-parser-service/internal/adapters/logger"
	postgres_adapter "leboncoin-parser-service/internal/adapters/postgres"
	rabbitmq_adapter "leboncoin-parser-service/internal/adapters/rabbitmq"
	"leboncoin-parser-service/internal/adapters/rest"
	"leboncoin-parser-service/internal/configs"
	"leboncoin-parser-service/internal/constants"
	"leboncoin-parser-service/internal/core/port"
	"leboncoin-parser-service/internal/core/usecase"
	fluentlogger "leboncoin-parser-service/pkg/fluent_logger"
	"leboncoin-parser-service/pkg/postgres"
	"leboncoin-parser-service/pkg/rabbitmq/rabbitmq_common"
	"leboncoin-parser-service/pkg/rabbitmq/rabbitmq_consumer"
	"leboncoin-parser-service/pkg/rabbitmq/rabbitmq_producer"

	"github.com/fluent/fluent-logger-golang/fluent"
	"github.com/jackc/pgx/v5/pgxpool"
)

// App – структура приложения
type App struct {
	config          *configs.AppConfig
	dbPool          *pgxpool.Pool
	connManager     *rabbitmq_common.ConnectionManager
	tasksProducer   *rabbitmq_producer.Publisher
	reportsProducer *rabbitmq_producer.Publisher
	fluentClient    *fluent.Fluent
	logger          port.LoggerPort

	// Входящие порты
	tasksListener port.EventListenerPort
	restServer    *rest.Server
}

// NewApp создает новый экземпляр приложения.
// Это "Composition Root", где все зависимости создаются и связываются.
func NewApp() (*App, error) {
	appConfig, err := configs.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("error loading application configuration: %w", err)
	}

	// --- 1. ИНИЦИАЛИЗАЦИЯ ЛОГГЕРОВ ---
	var activeLoggers []port.LoggerPort

	slogCfg := logger_adapter.SlogConfig{
		Level:    parseLogLevel(appConfig.StdoutLogger.Level),
		IsJSON:   false, // текстовый формат
		UseColor: true,
	}
	stdoutLogger := logger_adapter.NewSlogAdapter(slogCfg)
	activeLoggers = append(activeLoggers, stdoutLogger)

	// Добавляем Fluent Bit логгер, если он включен в конфигурации
	var fluentClient *fluent.Fluent
	if appConfig.FluentBit.Enabled {
		fluentClient, err = fluentlogger.NewClient(fluentlogger.Config{
			Host:      appConfig.FluentBit.Host,
			Port:      appConfig.FluentBit.Port,
			TagPrefix: appConfig.AppName, // Используем имя приложения как префикс
		})
		if err != nil {
			stdoutLogger.Error("Failed to create fluentbit client", err, nil)
			return nil, fmt.Errorf("failed to create fluentbit client: %w", err)
		}

		fluentAdapter, err := logger_adapter.NewFluentLoggerAdapter(fluentClient, parseLogLevel(appConfig.FluentBit.Level))
		if err != nil {
			stdoutLogger.Error("Failed to create fluentbit adapter", err, nil)
			fluentClient.Close()
			return nil, err
		}
		activeLoggers = append(activeLoggers, fluentAdapter)
	}

	// Создаем наш композитный логгер
	multiLogger, err := logger_adapter.NewMultiloggerAdapter(activeLoggers...)
	if err != nil {
		return nil, fmt.Errorf("failed to create multi-logger: %w", err)
	}

	// --- 2. СОЗДАЕМ БАЗОВЫЙ ЛОГГЕР ПРИЛОЖЕНИЯ С КОНТЕКСТОМ ---
	baseLogger := multiLogger.WithFields(port.Fields{
		"service_name": appConfig.AppName,
	})

	appLogger := baseLogger.WithFields(port.Fields{"component": "app"})
	appLogger.Info("Logger system initialized", port.Fields{
		"active_loggers": len(activeLoggers), "fluent_enabled": appConfig.FluentBit.Enabled,
	})

	connManagerLogger := baseLogger.WithFields(port.Fields{"component": "rabbitmq_conn_manager"})
	connManagerBridge := rabbitmq_adapter.NewPkgLoggerBridge(connManagerLogger)
	connManager, err := rabbitmq_common.NewManager(appConfig.RabbitMQ.URL, connManagerBridge)
	if err != nil {
		appLogger.Error("Failed to create connection manager", err, nil)
		return nil, fmt.Errorf("failed to create connection manager: %w", err)
	}
	appLogger.Info("RabbitMQ Connection Manager initialized.", nil)

	// --- 3. НИЗКОУРОВНЕВЫЕ ЗАВИСИМОСТИ ---
	dbPool, err := postgres.NewClient(context.Background(), postgres.Config{DatabaseURL: appConfig.Database.URL})
	if err != nil {
		appLogger.Error("Failed to connect to PostgreSQL", err, nil)
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	appLogger.Info("Successfully connected to PostgreSQL pool!", nil)

	producerLogger := baseLogger.WithFields(port.Fields{"component": "rabbitmq_producer"})
	pkgLoggerBridge := rabbitmq_adapter.NewPkgLoggerBridge(producerLogger)

	tasksProducerCfg := rabbitmq_producer.PublisherConfig{
		Config:                   rabbitmq_common.Config{URL: appConfig.RabbitMQ.URL},
		ExchangeName:             constants.CrawlTasksExchange,
		ExchangeType:             "direct",
		DurableExchange:          true,
		DeclareExchangeIfMissing: true,
		Logger:                   pkgLoggerBridge,
	}
	tasksProducer, err := rabbitmq_producer.NewPublisher(tasksProducerCfg, connManager)
	if err != nil {
		appLogger.Error("Failed to create crawl tasks producer", err, port.Fields{"exchange": constants.CrawlTasksExchange})
		dbPool.Close()
		return nil, fmt.Errorf("failed to create crawl tasks producer: %w", err)
	}

	reportsProducerCfg := rabbitmq_producer.PublisherConfig{
		Config:                   rabbitmq_common.Config{URL: appConfig.RabbitMQ.URL},
		ExchangeName:             constants.CrawlReportsExchange,
		ExchangeType:             "direct",
		DurableExchange:          true,
		DeclareExchangeIfMissing: true,
		Logger:                   pkgLoggerBridge,
	}
	reportsProducer, err := rabbitmq_producer.NewPublisher(reportsProducerCfg, connManager)
	if err != nil {
		appLogger.Error("Failed to create crawl reports producer", err, port.Fields{"exchange": constants.CrawlReportsExchange})
		tasksProducer.Close()
		dbPool.Close()
		return nil, fmt.Errorf("failed to create crawl reports producer: %w", err)
	}
	appLogger.Info("RabbitMQ producers initialized.", nil)

	// --- 4. ИСХОДЯЩИЕ АДАПТЕРЫ ---
	fetcherAdapter, err := leboncoinfetcher.NewLeboncoinFetcherAdapter(appConfig.Proxy.URL, appConfig.Proxy.MaxRetries)
	if err != nil {
		appLogger.Error("Failed to create Leboncoin Fetcher Adapter", err, nil)
		reportsProducer.Close()
		tasksProducer.Close()
		dbPool.Close()
		return nil, fmt.Errorf("failed to initialize leboncoin fetcher: %w", err)
	}
	extractorAdapter := leboncoinfetcher.NewAdExtractorAdapter()
	appLogger.Info("Leboncoin Fetcher Adapter initialized.", port.Fields{"proxy_enabled": appConfig.Proxy.URL != ""})

	geoAdapter, err := geoadresse.NewGeoAdresseAdapter()
	if err != nil {
		appLogger.Error("Failed to create GeoAdresse Adapter", err, nil)
		reportsProducer.Close()
		tasksProducer.Close()
		dbPool.Close()
		return nil, fmt.Errorf("failed to initialize geoadresse adapter: %w", err)
	}

	listingStorage, _ := postgres_adapter.NewListingStorageAdapter(dbPool)
	cityRepo, _ := postgres_adapter.NewCityRepositoryAdapter(dbPool)

	taskQueueAdapter, _ := rabbitmq_adapter.NewCrawlTaskQueueAdapter(tasksProducer, constants.CrawlTasksRoutingKey)
	crawlReporterAdapter, _ := rabbitmq_adapter.NewCrawlReporterAdapter(reportsProducer, constants.CrawlReportsRoutingKey)

	appLogger.Info("All outgoing adapters initialized.", nil)

	// --- 5. ИНИЦИАЛИЗАЦИЯ USE CASES (ядра бизнес-логики) ---
	normalizeAdUseCase := usecase.NewNormalizeAdUseCase(cityRepo, appConfig.StrictValidation)
	upsertListingUseCase := usecase.NewUpsertListingUseCase(listingStorage)
	crawlCityUseCase := usecase.NewCrawlCityUseCase(
		fetcherAdapter,
		extractorAdapter,
		normalizeAdUseCase,
		upsertListingUseCase,
		listingStorage,
		cityRepo,
	)
	registerCityUseCase := usecase.NewRegisterCityUseCase(geoAdapter, fetcherAdapter, cityRepo)
	appLogger.Info("All use cases initialized.", nil)

	// --- 6. ВХОДЯЩИЕ АДАПТЕРЫ (те, которые ВЫЗЫВАЮТ наше ядро) ---
	tasksConsumerCfg := rabbitmq_consumer.ConsumerConfig{
		Config:                 rabbitmq_common.Config{URL: appConfig.RabbitMQ.URL},
		QueueName:              constants.CrawlTasksQueue,
		RoutingKeyForBind:      constants.CrawlTasksRoutingKey,
		ExchangeNameForBind:    constants.CrawlTasksExchange,
		DeclareExchangeForBind: true,
		ExchangeTypeForBind:    "direct",
		DurableExchangeForBind: true,
		PrefetchCount:          1,
		DurableQueue:           true,
		ConsumerTag:            "crawl-tasks-processor-adapter",
		DeclareQueue:           true,
	}
	tasksListener, err := rabbitmq_adapter.NewCrawlTasksConsumerAdapter(tasksConsumerCfg, crawlCityUseCase, crawlReporterAdapter, baseLogger, connManager)
	if err != nil {
		appLogger.Error("Failed to initialize Crawl Tasks Listener", err, nil)
		reportsProducer.Close()
		tasksProducer.Close()
		dbPool.Close()
		return nil, err
	}
	appLogger.Info("Crawl Tasks Listener initialized.", nil)

	crawlHandler := rest.NewCrawlHandler(taskQueueAdapter, registerCityUseCase)
	restServer := rest.NewServer(appConfig.HTTPPort, crawlHandler, baseLogger)
	appLogger.Info("REST API server initialized.", port.Fields{"port": appConfig.HTTPPort})

	// --- 7. Собираем приложение ---
	application := &App{
		config:          appConfig,
		dbPool:          dbPool,
		connManager:     connManager,
		tasksProducer:   tasksProducer,
		reportsProducer: reportsProducer,
		fluentClient:    fluentClient,
		logger:          appLogger,
		tasksListener:   tasksListener,
		restServer:      restServer,
	}

	return application, nil
}

// Run запускает все компоненты приложения и управляет их жизненным циклом.
func (a *App) Run() error {
	// Создаем единый контекст для всего приложения для управления graceful shutdown
	appCtx, cancelApp := context.WithCancel(context.Background())

	// Используем WaitGroup для ожидания завершения всех фоновых задач
	var wg sync.WaitGroup

	defer func() {
		a.logger.Info("Shutdown sequence initiated...", nil)

		// Останавливаем HTTP-сервер, давая ему время дообработать запросы
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancelShutdown()
		if err := a.restServer.Stop(shutdownCtx); err != nil {
			a.logger.Error("Error stopping REST server", err, nil)
		}

		// Ждем завершения всех запущенных горутин (слушателей)
		a.logger.Info("Waiting for background processes to finish...", nil)
		wg.Wait()
		a.logger.Info("All background processes finished.", nil)

		// Теперь безопасно закрываем ресурсы
		if a.tasksListener != nil {
			if err := a.tasksListener.Close(); err != nil {
				a.logger.Error("Error closing crawl tasks listener", err, nil)
			}
		}
		if a.tasksProducer != nil {
			if err := a.tasksProducer.Close(); err != nil {
				a.logger.Error("Error closing crawl tasks producer", err, nil)
			}
		}
		if a.reportsProducer != nil {
			if err := a.reportsProducer.Close(); err != nil {
				a.logger.Error("Error closing crawl reports producer", err, nil)
			}
		}

		if a.connManager != nil {
			if err := a.connManager.Close(); err != nil {
				a.logger.Error("Error closing RabbitMQ connection manager", err, nil)
			}
		}

		if a.dbPool != nil {
			a.dbPool.Close()
			a.logger.Info("PostgreSQL pool closed.", nil)
		}

		a.logger.Info("Application shut down gracefully.", nil)

		if a.fluentClient != nil {
			a.logger.Info("Closing Fluent Bit connection...", nil)
			if err := a.fluentClient.Close(); err != nil {
				log.Printf("App: Error closing fluent client: %v\n", err)
			}
		}
	}()

	a.logger.Info("Application is starting...", nil)

	componentErrors := make(chan error, 2)

	// Функция-хелпер для запуска слушателей
	startListener := func(name string, listener port.EventListenerPort) {
		defer wg.Done()
		listenerLogger := a.logger.WithFields(port.Fields{"listener_name": name})
		listenerLogger.Info("Starting listener...", nil)

		if err := listener.Start(appCtx); err != nil {
			listenerLogger.Error("Listener stopped with an unexpected error", err, nil)
			componentErrors <- fmt.Errorf("%s error: %w", name, err)
		} else {
			listenerLogger.Info("Listener stopped gracefully due to context cancellation.", nil)
		}
	}

	wg.Add(1)
	go startListener("Crawl Tasks Listener", a.tasksListener)

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := a.restServer.Start(); err != nil {
			componentErrors <- fmt.Errorf("REST server error: %w", err)
		}
	}()

	// Ожидание сигнала на завершение или ошибки от одного из компонентов
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	a.logger.Info("Application running. Waiting for signals or component error...", nil)
	select {
	case receivedSignal := <-quit:
		a.logger.Warn("Received signal, shutting down", port.Fields{"signal": receivedSignal.String()})
	case err := <-componentErrors:
		a.logger.Error("A critical component failed, shutting down", err, nil)
	case <-appCtx.Done():
		a.logger.Warn("Context was cancelled unexpectedly, shutting down", nil)
	}

	// Инициируем graceful shutdown, отменяя главный контекст
	cancelApp()

	return nil
}

func parseLogLevel(levelStr string) slog.Level {
	switch strings.ToLower(levelStr) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		// Возвращаем безопасное значение по умолчанию и логируем предупреждение
		log.Printf("Warning: Unknown log level '%s'. Defaulting to 'info'.", levelStr)
		return slog.LevelInfo
	}
}
