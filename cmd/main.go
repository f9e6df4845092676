package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/graceful"
	"github.com/gin-gonic/gin"

	"fieldops"
	"fieldops/internal/api/handler/endpoints"
	"fieldops/internal/api/handler/websocket"
	"fieldops/internal/api/models"
	"fieldops/internal/api/service"
	"fieldops/internal/feed"
)

func main() {
	fieldops.InitConfig(".env")
	gin.SetMode(gin.ReleaseMode)

	if fieldops.GetConfig().Mode == "dev" {
		if err := fieldops.DB.AutoMigrate(
			&models.Employee{},
			&models.Job{},
			&models.Assignment{},
			&models.LabourEntry{},
			&models.UnchargedTimeRow{},
			&models.UnchargedReason{},
		); err != nil {
			fieldops.Logger.Fatal().Err(err).Msg("Failed to migrate database")
		}
		fieldops.Logger.Info().Msg("Database migrated successfully")
		gin.SetMode(gin.DebugMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	router, err := graceful.Default(graceful.WithAddr(fieldops.GetConfig().ApiPort))
	if err != nil {
		panic(err)
	}
	defer stop()
	defer router.Close()

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	tenant := models.NewTenantContext(fieldops.GetConfig().TenantID)
	changeFeed := openFeed(tenant)

	jobService := service.NewJobService(tenant, changeFeed)
	employeeService := service.NewEmployeeService(tenant)
	labourService := service.NewLabourService()

	processor := websocket.NewMessageProcessor(jobService, labourService, fieldops.Logger)
	hub := websocket.NewHub(fieldops.Logger)
	go hub.Run()
	fieldops.Logger.Info().Msg("WebSocket hub started")

	bridgeFeedToHub(changeFeed, hub)

	initAPI(router, hub, processor, jobService, employeeService, labourService)

	fieldops.Logger.Debug().Msgf("Starting CORE API on port %s", fieldops.GetConfig().ApiPort)
	if err = router.RunWithContext(ctx); err != nil && !errors.Is(err, context.Canceled) {
		fieldops.Logger.Fatal().Msg(err.Error())
		panic(err)
	}
}

// scheduleFeed is both halves of the change feed: the job service publishes
// into it, the WebSocket hub consumes from it.
type scheduleFeed interface {
	feed.Feed
	feed.Publisher
}

// openFeed connects to NATS when a broker is configured; otherwise snapshots
// stay in-process, which is enough for a single API instance.
func openFeed(tenant models.TenantContext) scheduleFeed {
	cfg := fieldops.GetConfig()
	natsFeed, err := feed.NewNATSFeed(cfg.NatsURL, tenant, fieldops.Logger)
	if err != nil {
		fieldops.Logger.Warn().Err(err).Str("url", cfg.NatsURL).Msg("NATS unavailable, using in-process feed")
		return feed.NewMemoryFeed()
	}
	fieldops.Logger.Info().Str("url", cfg.NatsURL).Msg("Connected to NATS feed")
	return natsFeed
}

// bridgeFeedToHub pushes every feed snapshot into the board room so connected
// schedule views re-render without polling.
func bridgeFeedToHub(f feed.Feed, hub *websocket.Hub) {
	_, err := f.SubscribeJobs(func(event feed.JobsEvent) {
		hub.Broadcast <- websocket.NewJobsSnapshotMessage(event)
	}, func(err error) {
		fieldops.Logger.Error().Err(err).Msg("Jobs feed error")
	})
	if err != nil {
		fieldops.Logger.Fatal().Err(err).Msg("Failed to subscribe to jobs feed")
	}

	_, err = f.SubscribeAssignments(feed.AllJobs, func(event feed.AssignmentsEvent) {
		hub.Broadcast <- websocket.NewAssignmentsSnapshotMessage(event)
	}, func(err error) {
		fieldops.Logger.Error().Err(err).Msg("Assignments feed error")
	})
	if err != nil {
		fieldops.Logger.Fatal().Err(err).Msg("Failed to subscribe to assignments feed")
	}
}

func initAPI(router *graceful.Graceful, hub *websocket.Hub, processor *websocket.MessageProcessor,
	jobService *service.JobService, employeeService *service.EmployeeService, labourService *service.LabourService) {
	endpoints.JobHandler(router, jobService)
	endpoints.ScheduleHandler(router, jobService, employeeService)
	endpoints.EmployeeHandler(router, employeeService)
	endpoints.LabourHandler(router, labourService)
	endpoints.WebSocketHandler(router, hub, processor)
}
