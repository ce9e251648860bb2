package di

import (
	"github.com/prohmpiriya/gym-booking/internal/handler"
	"github.com/prohmpiriya/gym-booking/internal/repository"
	"github.com/prohmpiriya/gym-booking/internal/service"
	"github.com/prohmpiriya/gym-booking/pkg/config"
	"github.com/prohmpiriya/gym-booking/pkg/database"
	pkgredis "github.com/prohmpiriya/gym-booking/pkg/redis"
)

// Container holds all dependencies of the API server
type Container struct {
	// Infrastructure
	DB    *database.PostgresDB
	Redis *pkgredis.Client

	// Repositories
	ClassRepo    repository.ClassRepository
	ScheduleRepo repository.ScheduleRepository
	PackageRepo  repository.PackageRepository
	RuleRepo     repository.RuleRepository
	BookingRepo  repository.BookingRepository
	OutboxRepo   repository.OutboxRepository
	CreditCache  repository.CreditCache

	// Services
	CreditService   service.CreditService
	BookingService  service.BookingService
	ScheduleService service.ScheduleService
	ClassService    service.ClassService
	PackageService  service.PackageService
	RuleService     service.RuleService

	// Handlers
	Handlers *handler.Handlers
}

// ContainerConfig contains configuration for building the container
type ContainerConfig struct {
	Config *config.Config
	DB     *database.PostgresDB
	// Redis is optional; without it the credit cache is disabled
	Redis *pkgredis.Client
}

// NewContainer creates a new dependency injection container
func NewContainer(cfg *ContainerConfig) *Container {
	appCfg := cfg.Config
	loc := appCfg.Location()
	pool := cfg.DB.Pool()

	c := &Container{
		DB:    cfg.DB,
		Redis: cfg.Redis,
	}

	// Initialize repositories
	outbox := repository.NewPostgresOutboxRepository(pool)
	c.OutboxRepo = outbox
	c.ClassRepo = repository.NewPostgresClassRepository(pool)
	c.ScheduleRepo = repository.NewPostgresScheduleRepository(pool, outbox)
	c.PackageRepo = repository.NewPostgresPackageRepository(pool)
	c.RuleRepo = repository.NewPostgresRuleRepository(pool)
	c.BookingRepo = repository.NewPostgresBookingRepository(pool, outbox, appCfg.Kafka.BookingTopic, loc)
	if cfg.Redis != nil {
		c.CreditCache = repository.NewRedisCreditCache(cfg.Redis, appCfg.Booking.CreditCacheTTL)
	}

	// Initialize services
	c.CreditService = service.NewCreditService(c.PackageRepo, c.BookingRepo, c.CreditCache, loc)
	c.BookingService = service.NewBookingService(c.BookingRepo, c.ScheduleRepo, c.CreditService, &service.BookingServiceConfig{
		EnforceCredits: appCfg.Booking.EnforceCredits,
		Location:       loc,
	})
	c.ScheduleService = service.NewScheduleService(c.ScheduleRepo, c.ClassRepo, c.RuleRepo, c.CreditService, &service.ScheduleServiceConfig{
		Location:        loc,
		MaxGenerateDays: appCfg.Booking.MaxGenerateDays,
		Topic:           appCfg.Kafka.ScheduleTopic,
	})
	c.ClassService = service.NewClassService(c.ClassRepo)
	c.PackageService = service.NewPackageService(c.PackageRepo, c.CreditService, loc)
	c.RuleService = service.NewRuleService(c.RuleRepo, c.ClassRepo)

	// Initialize handlers
	var redisHealth handler.HealthChecker
	if cfg.Redis != nil {
		redisHealth = cfg.Redis
	}
	c.Handlers = &handler.Handlers{
		Health:   handler.NewHealthHandler(cfg.DB, redisHealth, cfg.DB),
		Booking:  handler.NewBookingHandler(c.BookingService),
		Credit:   handler.NewCreditHandler(c.CreditService),
		Schedule: handler.NewScheduleHandler(c.ScheduleService),
		Catalog:  handler.NewCatalogHandler(c.ClassService, c.PackageService, c.RuleService),
	}

	return c
}
