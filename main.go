package main

import (
	"context"
	"log"
	"os"
	"strings"

	"Trivio/config"
	game_constants "Trivio/constants/game"
	"Trivio/routes"
	"Trivio/services/game_flow"
	"Trivio/services/moderation"
	"Trivio/services/questions"
	"Trivio/services/ratelimit"
	"Trivio/services/socket_io"
	"Trivio/services/socket_io/handlers"
	socketio_types "Trivio/services/socket_io/types"
	"Trivio/services/store"
	gamesync "Trivio/sync"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	_ "github.com/lib/pq"
)

func main() {
	godotenv.Load()
	log.Println("Setting up server...")

	if os.Getenv("PROD") == "true" {
		gin.SetMode(gin.ReleaseMode)
	}

	gormDB, err := config.ConnectGORM()
	if err != nil {
		log.Fatalf("Error connecting to PostgreSQL: %v", err)
	}

	if os.Getenv("MIGRATE_POSTGRES") == "true" {
		log.Println("Migrating PostgreSQL database...")
		if err := config.MigrateDatabase(gormDB); err != nil {
			log.Printf("Warning: Database migration failed: %v", err)
		}
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		log.Fatalf("Error reading GORM PostgreSQL instance: %v", err)
	}
	defer sqlDB.Close()

	ctx := context.Background()

	// Live state lives in Redis when REDIS_URL is set; the in-memory store
	// covers single-node and development runs.
	var sessionStore store.Store
	redisClient, err := config.ConnectRedis(ctx)
	if err != nil {
		log.Fatalf("Error connecting to Redis: %v", err)
	}
	if redisClient != nil {
		sessionStore = store.NewRedisStore(redisClient)
		defer redisClient.Close()
	} else {
		log.Println("REDIS_URL not set, using in-memory session store")
		sessionStore = store.NewMemoryStore()
	}

	clock := clockwork.NewRealClock()

	limiter := ratelimit.NewLimiter(clock)
	limiter.StartSweep(game_constants.CLEANUP_SWEEP_PERIOD)

	var blocklist []string
	if raw := os.Getenv("MODERATION_BLOCKLIST"); raw != "" {
		blocklist = strings.Split(raw, ",")
	}
	filter := moderation.NewWordlistFilter(blocklist)

	provider := questions.NewPostgresProvider(gormDB)
	ledger := gamesync.NewSyncManager(sqlDB)

	sio := socketio_types.NewSocketServer()
	flow := game_flow.New(sessionStore, sio, provider, ledger, clock)
	flow.StartCleanupSweep()

	deps := &handlers.Deps{
		Store:     sessionStore,
		Limiter:   limiter,
		Flow:      flow,
		Sio:       sio,
		Questions: provider,
		Ledger:    ledger,
		Filter:    filter,
		Clock:     clock,
	}

	r := gin.Default()
	routes.SetupRoutes(r, sessionStore)
	socket_io.Start(sio, r, deps)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Printf("Server listening on port %s (capacity %d players per room)",
		port, game_constants.MAX_PLAYERS_PER_ROOM)

	if err := r.Run(":" + port); err != nil {
		log.Fatalf("Error starting server: %v", err)
	}
}
