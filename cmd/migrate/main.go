package main

import (
	"context"
	"time"

	"github.com/spf13/pflag"

	mongoMigration "roombook/internal/migrations/mongo"
	"roombook/internal/migrations/seed"
	"roombook/internal/reservations/repository"
	"roombook/pkg/config"
)

const JobName = "mongo-migration"

func main() {
	seedFile := pflag.String("seed", "", "YAML file with rooms to create after migrating (defaults to ROOMS_SEED_FILE)")
	timeout := pflag.Duration("timeout", 120*time.Second, "overall time limit for the job")
	pflag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	cfg := config.Load(JobName)
	cfg.StorageBackend = config.BackendMongo
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	cfg.Log.Info("Starting Mongo migration job", "database", cfg.MongoDatabaseName)
	if err := mongoMigration.RunMigration(ctx, cfg.Clients.Mongo, cfg.MongoDatabaseName, cfg.Log); err != nil {
		cfg.Log.Fatal("Migration failed", "error", err)
	}

	path := *seedFile
	if path == "" {
		path = cfg.RoomsSeedFile
	}
	if path != "" {
		seedRooms(ctx, cfg, path)
	}

	cfg.Log.Info("Migration completed successfully")
}

func seedRooms(ctx context.Context, cfg *config.Config, path string) {
	f, err := seed.Load(path)
	if err != nil {
		cfg.Log.Fatal("Failed to load seed file", "path", path, "error", err)
	}
	created, err := seed.Apply(ctx, repository.NewMongoRoomRepository(cfg), f, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Seeding failed", "error", err)
	}
	cfg.Log.Info("Rooms seeded", "path", path, "created", created)
}
