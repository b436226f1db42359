package app

import (
	"context"
	"fmt"
	"log/slog"

	availabilityServices "github.com/felixgeelhaar/preflight/internal/availability/application/services"
	availabilityDomain "github.com/felixgeelhaar/preflight/internal/availability/domain"
	bookingCommands "github.com/felixgeelhaar/preflight/internal/booking/application/commands"
	bookingQueries "github.com/felixgeelhaar/preflight/internal/booking/application/queries"
	bookingDomain "github.com/felixgeelhaar/preflight/internal/booking/domain"
	notificationSubs "github.com/felixgeelhaar/preflight/internal/notification/application/subscribers"
	notificationDomain "github.com/felixgeelhaar/preflight/internal/notification/domain"
	"github.com/felixgeelhaar/preflight/internal/notification/infrastructure/dedupe"
	"github.com/felixgeelhaar/preflight/internal/notification/infrastructure/delivery"
	"github.com/felixgeelhaar/preflight/internal/rescheduling/application/commands"
	"github.com/felixgeelhaar/preflight/internal/rescheduling/application/queries"
	"github.com/felixgeelhaar/preflight/internal/rescheduling/application/services"
	"github.com/felixgeelhaar/preflight/internal/rescheduling/application/workers"
	reschedulingDomain "github.com/felixgeelhaar/preflight/internal/rescheduling/domain"
	sharedApplication "github.com/felixgeelhaar/preflight/internal/shared/application"
	"github.com/felixgeelhaar/preflight/internal/shared/infrastructure/database"
	_ "github.com/felixgeelhaar/preflight/internal/shared/infrastructure/database/postgres" // Register PostgreSQL driver
	_ "github.com/felixgeelhaar/preflight/internal/shared/infrastructure/database/sqlite"   // Register SQLite driver
	"github.com/felixgeelhaar/preflight/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/preflight/internal/shared/infrastructure/migrations"
	"github.com/felixgeelhaar/preflight/internal/shared/infrastructure/outbox"
	weatherServices "github.com/felixgeelhaar/preflight/internal/weather/application/services"
	weatherDomain "github.com/felixgeelhaar/preflight/internal/weather/domain"
	"github.com/felixgeelhaar/preflight/internal/weather/infrastructure/cache"
	"github.com/felixgeelhaar/preflight/internal/weather/infrastructure/minimums"
	"github.com/felixgeelhaar/preflight/internal/weather/infrastructure/providers"
	"github.com/felixgeelhaar/preflight/pkg/config"
	"github.com/felixgeelhaar/preflight/pkg/observability"
	"github.com/redis/go-redis/v9"
)

// Container holds all application dependencies.
type Container struct {
	Config *config.Config
	Logger *slog.Logger

	// Database
	DBConn   database.Connection
	DBDriver database.Driver

	// Redis
	RedisClient *redis.Client

	// Observability
	Metrics *observability.PrometheusMetrics
	Health  *observability.HealthRegistry

	// Repositories (use interfaces for driver-agnostic access)
	BookingRepo      bookingDomain.Repository
	AvailabilityRepo availabilityDomain.Repository
	OptionRepo       reschedulingDomain.OptionRepository
	PreferenceRepo   reschedulingDomain.PreferenceRepository
	AuditRepo        reschedulingDomain.AuditRepository
	OutboxRepo       outbox.Repository

	// Unit of Work
	UnitOfWork sharedApplication.UnitOfWork

	// Publishers. EventBus is set when notifications are delivered in
	// process rather than through RabbitMQ.
	EventPublisher eventbus.Publisher
	EventBus       *eventbus.InProcessEventBus

	// Notifications
	Deduplicator           notificationDomain.Deduplicator
	NotificationSubscriber *notificationSubs.NotificationSubscriber

	// Weather
	WeatherCache     *cache.Memory
	WeatherGateway   *weatherServices.Gateway
	WeatherValidator *weatherServices.Validator
	Minimums         weatherDomain.MinimumsTable

	// Availability
	AvailabilityService *availabilityServices.Service

	// Rescheduling services
	ConflictDetector *services.ConflictDetector
	RescheduleEngine *services.Engine

	// Booking Command Handlers
	CreateBookingHandler *bookingCommands.CreateBookingHandler
	CancelBookingHandler *bookingCommands.CancelBookingHandler

	// Booking Query Handlers
	GetBookingHandler   *bookingQueries.GetBookingHandler
	ListUpcomingHandler *bookingQueries.ListUpcomingHandler

	// Rescheduling Command Handlers
	ScanConflictsHandler    *commands.ScanConflictsHandler
	GenerateOptionsHandler  *commands.GenerateOptionsHandler
	SubmitPreferenceHandler *commands.SubmitPreferenceHandler
	ConfirmSelectionHandler *commands.ConfirmSelectionHandler

	// Rescheduling Query Handlers
	ListOptionsHandler         *queries.ListOptionsHandler
	GetPreferenceStatusHandler *queries.GetPreferenceStatusHandler
	ListAuditHandler           *queries.ListAuditHandler

	// Background workers
	ScanWorker      *workers.ScanWorker
	OutboxProcessor *outbox.Processor
}

// ContainerOption customizes NewContainer.
type ContainerOption func(*containerOptions)

type containerOptions struct {
	primary   weatherDomain.Provider
	secondary weatherDomain.Provider
	sender    notificationDomain.Sender
}

// WithWeatherProviders replaces the HTTP weather providers.
func WithWeatherProviders(primary, secondary weatherDomain.Provider) ContainerOption {
	return func(o *containerOptions) {
		o.primary = primary
		o.secondary = secondary
	}
}

// WithNotificationSender replaces the log-backed notification sender.
func WithNotificationSender(sender notificationDomain.Sender) ContainerOption {
	return func(o *containerOptions) { o.sender = sender }
}

// NewContainer creates a new dependency container. The database backend
// follows cfg.DatabaseDriver; Redis and RabbitMQ are optional in
// development.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts ...ContainerOption) (*Container, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var o containerOptions
	for _, opt := range opts {
		opt(&o)
	}

	c := &Container{
		Config:  cfg,
		Logger:  logger,
		Metrics: observability.NewPrometheusMetrics(),
		Health:  observability.NewHealthRegistry(),
	}

	// Connect to the database and bring the schema up to date
	conn, err := database.NewConnection(ctx, database.Config{
		Driver:     database.Driver(cfg.DatabaseDriver),
		URL:        cfg.DatabaseURL,
		SQLitePath: cfg.SQLitePath,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := migrations.Run(ctx, conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	c.DBConn = conn
	c.DBDriver = conn.Driver()
	c.Health.Register("database", observability.DatabaseHealthChecker(conn.Ping))
	logger.Info("connected to database", "driver", c.DBDriver)

	if err := c.initRepositories(); err != nil {
		c.Close()
		return nil, err
	}

	// Connect to Redis (optional in development)
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			if !cfg.IsDevelopment() {
				c.Close()
				return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
			}
			logger.Warn("invalid Redis URL, notification dedupe will use in-memory fallback", "error", err)
		} else {
			redisClient := redis.NewClient(opt)
			if err := redisClient.Ping(ctx).Err(); err != nil {
				redisClient.Close()
				if !cfg.IsDevelopment() {
					c.Close()
					return nil, fmt.Errorf("failed to connect to Redis: %w", err)
				}
				logger.Warn("Redis not available, notification dedupe will use in-memory fallback", "error", err)
			} else {
				c.RedisClient = redisClient
				c.Health.Register("redis", observability.RedisHealthChecker(func(ctx context.Context) error {
					return redisClient.Ping(ctx).Err()
				}))
				logger.Info("connected to Redis")
			}
		}
	}
	if c.RedisClient != nil {
		c.Deduplicator = dedupe.NewRedisDeduplicator(c.RedisClient, cfg.NotifyDedupeWindow)
	} else {
		c.Deduplicator = dedupe.NewMemoryDeduplicator(cfg.NotifyDedupeWindow)
	}

	// Notifications are delivered by whoever consumes the outbox
	sender := o.sender
	if sender == nil {
		sender = delivery.NewLogSender(logger)
	}
	c.NotificationSubscriber = notificationSubs.NewNotificationSubscriber(sender, c.Metrics, logger)

	if err := c.initPublisher(); err != nil {
		c.Close()
		return nil, err
	}

	if err := c.initWeather(o); err != nil {
		c.Close()
		return nil, err
	}

	c.initHandlers()
	return c, nil
}

// NewLocalContainer creates a container backed by a SQLite database and
// in-process event delivery, whatever the environment says.
func NewLocalContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts ...ContainerOption) (*Container, error) {
	local := *cfg
	local.DatabaseDriver = string(database.DriverSQLite)
	local.DatabaseURL = ""
	local.LocalMode = true
	local.RedisURL = ""
	local.RabbitMQURL = ""
	return NewContainer(ctx, &local, logger, opts...)
}

func (c *Container) initRepositories() error {
	factory := NewRepositoryFactory(c.DBConn)

	var err error
	if c.BookingRepo, err = factory.BookingRepository(); err != nil {
		return fmt.Errorf("failed to create booking repository: %w", err)
	}
	if c.AvailabilityRepo, err = factory.AvailabilityRepository(); err != nil {
		return fmt.Errorf("failed to create availability repository: %w", err)
	}
	if c.OptionRepo, err = factory.OptionRepository(); err != nil {
		return fmt.Errorf("failed to create option repository: %w", err)
	}
	if c.PreferenceRepo, err = factory.PreferenceRepository(); err != nil {
		return fmt.Errorf("failed to create preference repository: %w", err)
	}
	if c.AuditRepo, err = factory.AuditRepository(); err != nil {
		return fmt.Errorf("failed to create audit repository: %w", err)
	}
	if c.OutboxRepo, err = factory.OutboxRepository(); err != nil {
		return fmt.Errorf("failed to create outbox repository: %w", err)
	}
	if c.UnitOfWork, err = factory.UnitOfWork(); err != nil {
		return fmt.Errorf("failed to create unit of work: %w", err)
	}
	return nil
}

// initPublisher publishes to RabbitMQ when configured. Otherwise, and as the
// development fallback, outbox messages go straight to the in-process
// notification subscriber.
func (c *Container) initPublisher() error {
	cfg, logger := c.Config, c.Logger

	if cfg.RabbitMQURL != "" {
		publisher, err := eventbus.NewRabbitMQPublisher(cfg.RabbitMQURL, logger)
		if err == nil {
			c.EventPublisher = publisher
			c.Health.Register("rabbitmq", observability.RabbitMQHealthChecker(publisher.Ping))
			return nil
		}
		if !cfg.IsDevelopment() {
			return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
		}
		logger.Warn("RabbitMQ not available, delivering notifications in process", "error", err)
	}

	bus := eventbus.NewInProcessEventBus(logger)
	bus.RegisterConsumer(c.NotificationSubscriber)
	c.EventBus = bus
	c.EventPublisher = bus
	return nil
}

func (c *Container) initWeather(o containerOptions) error {
	cfg, logger := c.Config, c.Logger

	table, err := minimums.LoadFile(cfg.MinimumsFile)
	if err != nil {
		return fmt.Errorf("failed to load certification minimums: %w", err)
	}
	c.Minimums = table

	primary, secondary := o.primary, o.secondary
	if primary == nil {
		primary = providers.NewOpenWeather(providers.ClientConfig{
			BaseURL:   cfg.WeatherPrimaryURL,
			APIKey:    cfg.WeatherPrimaryAPIKey,
			Timeout:   cfg.WeatherHTTPTimeout,
			RateLimit: cfg.WeatherRateLimitRPS,
		})
	}
	if secondary == nil {
		secondary = providers.NewWeatherAPI(providers.ClientConfig{
			BaseURL:   cfg.WeatherSecondaryURL,
			APIKey:    cfg.WeatherSecondaryAPIKey,
			Timeout:   cfg.WeatherHTTPTimeout,
			RateLimit: cfg.WeatherRateLimitRPS,
		})
	}

	c.WeatherCache = cache.NewMemory(
		cache.Config{TTL: cfg.WeatherCacheTTL, MaxEntries: cfg.WeatherCacheMaxEntries},
		cache.WithMetrics(c.Metrics),
		cache.WithLogger(logger),
	)
	c.WeatherGateway = weatherServices.NewGateway(primary, secondary, c.WeatherCache, gatewayConfig(cfg), c.Metrics, logger)
	c.WeatherValidator = weatherServices.NewValidator(c.WeatherGateway, table, cfg.CorridorSamples, logger)
	c.Health.Register("weather_providers", observability.CircuitBreakerHealthChecker(c.WeatherGateway.BreakerStates))
	return nil
}

func (c *Container) initHandlers() {
	cfg, logger := c.Config, c.Logger
	loc := cfg.Location()

	c.AvailabilityService = availabilityServices.NewService(c.AvailabilityRepo, loc, logger)

	engineConfig := services.DefaultEngineConfig()
	engineConfig.HorizonDays = cfg.RescheduleHorizonDays
	engineConfig.TopN = cfg.RescheduleTopN
	engineConfig.Location = loc
	c.RescheduleEngine = services.NewEngine(c.WeatherValidator, c.AvailabilityService, engineConfig, logger)

	c.ConflictDetector = services.NewConflictDetector(
		c.BookingRepo,
		c.WeatherValidator,
		c.OutboxRepo,
		c.UnitOfWork,
		logger,
		services.WithNotificationGate(c.Deduplicator),
		services.WithDetectorMetrics(c.Metrics),
	)

	// Create booking handlers
	c.CreateBookingHandler = bookingCommands.NewCreateBookingHandler(c.BookingRepo, c.UnitOfWork, logger)
	c.CancelBookingHandler = bookingCommands.NewCancelBookingHandler(c.BookingRepo, c.OutboxRepo, c.UnitOfWork)
	c.GetBookingHandler = bookingQueries.NewGetBookingHandler(c.BookingRepo)
	c.ListUpcomingHandler = bookingQueries.NewListUpcomingHandler(c.BookingRepo)

	// Create rescheduling command handlers
	c.GenerateOptionsHandler = commands.NewGenerateOptionsHandler(
		c.BookingRepo, c.OptionRepo, c.PreferenceRepo, c.AuditRepo,
		c.OutboxRepo, c.UnitOfWork, c.RescheduleEngine, c.Metrics, logger,
	)
	c.SubmitPreferenceHandler = commands.NewSubmitPreferenceHandler(
		c.BookingRepo, c.OptionRepo, c.PreferenceRepo, c.AuditRepo, c.UnitOfWork, logger,
	)
	c.ConfirmSelectionHandler = commands.NewConfirmSelectionHandler(
		c.BookingRepo, c.OptionRepo, c.PreferenceRepo, c.AuditRepo,
		c.OutboxRepo, c.UnitOfWork, c.Metrics, logger,
	)
	c.ScanConflictsHandler = commands.NewScanConflictsHandler(
		c.ConflictDetector, c.BookingRepo, c.GenerateOptionsHandler, c.ConfirmSelectionHandler, logger,
	)

	// Create rescheduling query handlers
	c.ListOptionsHandler = queries.NewListOptionsHandler(c.OptionRepo)
	c.GetPreferenceStatusHandler = queries.NewGetPreferenceStatusHandler(c.BookingRepo, c.PreferenceRepo)
	c.ListAuditHandler = queries.NewListAuditHandler(c.AuditRepo)

	// Create background workers
	c.ScanWorker = workers.NewScanWorker(c.ScanConflictsHandler, workers.ScanWorkerConfig{
		Interval:  cfg.ScanInterval,
		Lookahead: cfg.ScanLookahead,
	}, c.Metrics, logger)

	c.OutboxProcessor = outbox.NewProcessor(c.OutboxRepo, c.EventPublisher, outbox.ProcessorConfig{
		PollInterval:     cfg.OutboxPollInterval,
		BatchSize:        cfg.OutboxBatchSize,
		MaxRetries:       cfg.OutboxMaxRetries,
		RetryBackoffBase: outbox.DefaultProcessorConfig().RetryBackoffBase,
		RetryBackoffMax:  outbox.DefaultProcessorConfig().RetryBackoffMax,
	}, logger, outbox.WithMetrics(c.Metrics))
}

func gatewayConfig(cfg *config.Config) weatherServices.GatewayConfig {
	gc := weatherServices.DefaultGatewayConfig()
	if cfg.RetryMaxRetries >= 0 {
		gc.Retry.MaxRetries = cfg.RetryMaxRetries
	}
	if cfg.RetryInitialDelay > 0 {
		gc.Retry.InitialDelay = cfg.RetryInitialDelay
	}
	if cfg.RetryMaxDelay > 0 {
		gc.Retry.MaxDelay = cfg.RetryMaxDelay
	}
	if cfg.RetryBackoffFactor > 0 {
		gc.Retry.BackoffFactor = cfg.RetryBackoffFactor
	}
	if cfg.BreakerFailureThreshold > 0 {
		gc.Breaker.FailureThreshold = uint32(cfg.BreakerFailureThreshold)
	}
	if cfg.BreakerResetTimeout > 0 {
		gc.Breaker.ResetTimeout = cfg.BreakerResetTimeout
	}
	return gc
}

// Close releases all resources held by the container.
func (c *Container) Close() {
	if c.ScanWorker != nil && c.ScanWorker.IsRunning() {
		c.ScanWorker.Stop()
		c.Logger.Info("scan worker stopped")
	}

	if c.OutboxProcessor != nil {
		c.OutboxProcessor.Stop()
	}

	if c.EventPublisher != nil {
		if err := c.EventPublisher.Close(); err != nil {
			c.Logger.Warn("error closing event publisher", "error", err)
		}
	}

	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			c.Logger.Warn("error closing Redis connection", "error", err)
		} else {
			c.Logger.Info("Redis connection closed")
		}
	}

	if c.DBConn != nil {
		if err := c.DBConn.Close(); err != nil {
			c.Logger.Warn("error closing database connection", "error", err)
		} else {
			c.Logger.Info("database connection closed", "driver", c.DBDriver)
		}
	}
}
