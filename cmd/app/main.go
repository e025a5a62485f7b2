package main

import (
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/sushihentaime/lessonhub/internal/common"
	"github.com/sushihentaime/lessonhub/internal/lessonservice"
	"github.com/sushihentaime/lessonhub/internal/mailservice"
)

type application struct {
	config        *Config
	logger        *zap.Logger
	limiter       common.RateLimiter
	lessonService *lessonservice.LessonService
}

func main() {
	cfg, err := loadConfig(".env")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := common.NewLogger(cfg.Environment, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Error("application stopped", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg *Config, logger *zap.Logger) error {
	db, err := common.NewDB(common.DBConfig{
		Host:         cfg.DB.Host,
		Port:         cfg.DB.Port,
		User:         cfg.DB.User,
		Password:     cfg.DB.Password,
		Name:         cfg.DB.Name,
		MaxOpenConns: cfg.DB.MaxOpenConns,
		MaxIdleConns: cfg.DB.MaxIdleConns,
		MaxIdleTime:  cfg.DB.MaxIdleTime,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to the database: %w", err)
	}
	defer common.CloseDB(db)

	var (
		store   common.Store
		limiter common.RateLimiter
	)
	switch cfg.CacheBackend {
	case cacheBackendMemory:
		store = common.NewMemoryStore(common.TTLDefault, 10*time.Minute)
		limiter = common.NewLocalLimiter(cfg.RateLimitRPM, time.Minute)
	default:
		client, err := common.NewRedisClient(common.RedisConfig{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return err
		}
		defer client.Close()

		store = common.NewRedisStore(client)
		limiter = common.NewRedisLimiter(client, cfg.RateLimitRPM, time.Minute)
	}
	cache := common.NewCacheAside(store, logger.Named("cache"))

	var producer common.MessageProducer
	if cfg.RabbitMQ.Host != "" {
		URI := fmt.Sprintf("amqp://%s:%s@%s:%s/", cfg.RabbitMQ.User, cfg.RabbitMQ.Password, cfg.RabbitMQ.Host, cfg.RabbitMQ.Port)
		broker, err := common.NewMessageBroker(URI)
		if err != nil {
			return fmt.Errorf("failed to connect to the message broker: %w", err)
		}
		defer broker.Close()

		if err := common.SetupLessonExchange(broker); err != nil {
			return fmt.Errorf("failed to setup the lesson exchange: %w", err)
		}
		producer = broker

		mailService := mailservice.NewMailService(db, broker, mailservice.MailConfig{
			Host:     cfg.Mail.Host,
			Port:     cfg.Mail.Port,
			Username: cfg.Mail.User,
			Password: cfg.Mail.Password,
			Sender:   cfg.Mail.Sender,
			BaseURL:  cfg.BaseURL,
		}, logger.Named("mail"))
		defer mailService.Close()

		if err := mailService.NotifyLessonPublished(); err != nil {
			return err
		}
	} else {
		logger.Warn("RABBITMQ_HOST is not set, lesson events are disabled")
	}

	app := &application{
		config:        cfg,
		logger:        logger,
		limiter:       limiter,
		lessonService: lessonservice.NewLessonService(db, cache, producer, logger.Named("lessons")),
	}

	return app.serve(cfg.Port)
}
