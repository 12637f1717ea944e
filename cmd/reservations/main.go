package main

import (
	"context"
	"time"

	"roombook/internal/engine"
	"roombook/internal/migrations/seed"
	"roombook/internal/reservations/events"
	"roombook/internal/reservations/handler"
	"roombook/internal/reservations/locker"
	"roombook/internal/reservations/repository"
	"roombook/internal/reservations/service"
	"roombook/internal/reservations/validator"
	"roombook/pkg/app"
	"roombook/pkg/clock"
	"roombook/pkg/config"
	"roombook/pkg/kafka"
	kafka_config "roombook/pkg/kafka/config"
	kafka_middleware "roombook/pkg/kafka/middleware"
)

const ServiceName = "reservations"

type repositories struct {
	rooms        repository.RoomRepository
	reservations repository.ReservationRepository
	locks        repository.LockRepository
}

func main() {
	cfg := config.Load(ServiceName)
	if cfg.StorageBackend == config.BackendMongo || cfg.LockBackend == config.BackendMongo {
		cfg.SetMongo()
	}
	if cfg.LockBackend == config.BackendRedis {
		cfg.SetRedis()
	}

	cfg.Log.Info("Starting Reservations service",
		"storage_backend", cfg.StorageBackend,
		"lock_backend", cfg.LockBackend,
	)

	repos := initRepositories(cfg)
	seedRooms(cfg, repos.rooms)

	publisher := initPublisher(cfg)
	e := initEngine(cfg, repos, publisher)

	serverApp := app.NewApplication()
	serverApp.SetApp(cfg,
		handler.NewReservationHandler(e, cfg.Log),
		handler.NewRoomHandler(e, cfg.Location(), cfg.Log),
	)
	serverApp.OnShutdown(func() {
		if err := publisher.Close(); err != nil {
			cfg.Log.Error("Failed to close event publisher", "error", err)
		}
	})
	serverApp.Run()
}

func initRepositories(cfg *config.Config) repositories {
	var repos repositories

	switch cfg.StorageBackend {
	case config.BackendMongo:
		repos.rooms = repository.NewMongoRoomRepository(cfg)
		repos.reservations = repository.NewMongoReservationRepository(cfg)
	default:
		store := repository.NewStore()
		repos.rooms = store.Rooms()
		repos.reservations = store.Reservations()
	}

	switch cfg.LockBackend {
	case config.BackendMongo:
		repos.locks = repository.NewMongoLockRepository(cfg)
	case config.BackendRedis:
		repos.locks = repository.NewRedisLockRepository(cfg.Clients.Redis)
	default:
		repos.locks = repository.NewMemoryLockRepository()
	}

	return repos
}

func seedRooms(cfg *config.Config, rooms repository.RoomRepository) {
	if cfg.RoomsSeedFile == "" {
		return
	}
	f, err := seed.Load(cfg.RoomsSeedFile)
	if err != nil {
		cfg.Log.Fatal("Failed to load rooms seed file", "path", cfg.RoomsSeedFile, "error", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	created, err := seed.Apply(ctx, rooms, f, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to seed rooms", "error", err)
	}
	cfg.Log.Info("Rooms seeded", "created", created, "total", len(f.Rooms))
}

func initPublisher(cfg *config.Config) events.Publisher {
	if !cfg.KafkaEnabled {
		cfg.Log.Info("Kafka disabled, domain events are dropped")
		return events.NoopPublisher{}
	}

	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}
	kafkaCfg.LogConfiguration(cfg.Log.Info)

	producer, err := kafka.NewProducer(kafkaCfg, cfg.KafkaEventsTopic, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
	}
	if kafkaCfg.EnableMiddleware {
		producer.Use(kafka_middleware.LoggingProducerMiddleware(cfg.Log))
	}

	cfg.Log.Info("Kafka event publisher initialized", "topic", cfg.KafkaEventsTopic)
	return events.NewKafkaPublisher(producer)
}

func initEngine(cfg *config.Config, repos repositories, publisher events.Publisher) *engine.Engine {
	policy, err := validator.PolicyFromConfig(cfg)
	if err != nil {
		cfg.Log.Fatal("Invalid reservation policy", "error", err)
	}
	policyValidator := validator.NewPolicyValidator(policy)
	roomLocker := locker.NewFromConfig(cfg, repos.locks)

	reservationService := service.NewReservationService(
		repos.reservations,
		repos.rooms,
		roomLocker,
		validator.NewReservationValidator(cfg.Log),
		policyValidator,
		publisher,
		cfg,
	)
	roomService := service.NewRoomService(
		repos.rooms,
		repos.reservations,
		roomLocker,
		validator.NewRoomValidator(cfg.Log),
		policyValidator,
		publisher,
		cfg,
	)

	cfg.Log.Info("Reservations service initialized",
		"time_zone", cfg.TimeZone,
		"business_hours", cfg.BusinessHoursStart+"-"+cfg.BusinessHoursEnd,
	)
	return engine.New(reservationService, roomService, clock.RealClock{}, cfg.Log)
}
