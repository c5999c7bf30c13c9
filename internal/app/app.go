// internal/app/app.go
package app

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	middleware "github.com/pharmaciedusoleil/portal/internal/api/middlewares"
	"github.com/pharmaciedusoleil/portal/internal/api/handlers"
	"github.com/pharmaciedusoleil/portal/internal/config"
	"github.com/pharmaciedusoleil/portal/internal/content"
	"github.com/pharmaciedusoleil/portal/internal/core/assistant"
	"github.com/pharmaciedusoleil/portal/internal/core/contact"
	"github.com/pharmaciedusoleil/portal/internal/core/conversation"
	objectclient "github.com/pharmaciedusoleil/portal/internal/core/object-client"
	"github.com/pharmaciedusoleil/portal/internal/core/timeline"
	"github.com/pharmaciedusoleil/portal/internal/metrics"
	"github.com/pharmaciedusoleil/portal/internal/services"
)

type App struct {
	Config       *config.Config
	Site         *content.Site
	Loop         *timeline.Loop
	ObjectClient objectclient.ObjectClient
	Metrics      *metrics.Metrics
	Assistant    *assistant.Assistant
	Workspaces   *services.WorkspaceService
	Server       *Server
}

// NewApp wires every component from the configuration. The loop is built on
// clock, which is the system clock in the configured time zone when nil.
func NewApp(ctx context.Context, cfg *config.Config, clock timeline.Clock) (*App, error) {
	appCtx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	site, err := content.Load()
	if err != nil {
		return nil, err
	}
	site.Contact(cfg.PharmacyPhone, cfg.WhatsAppNumber, cfg.PharmacyEmail, cfg.PharmacyAddress)

	if clock == nil {
		clock = timeline.SystemClock{Location: cfg.Location()}
	}
	loop := timeline.NewLoop(clock, config.Component("timeline"))

	objClient, err := newObjectClient(appCtx, cfg)
	if err != nil {
		return nil, err
	}
	config.Logger.WithField("backend", cfg.StorageBackend).Info("Object client initialized and ready.")

	m := metrics.New()
	links := contact.Links{Phone: cfg.PharmacyPhone, WhatsAppNumber: cfg.WhatsAppNumber}
	bot := assistant.New(assistant.NewMatcher(assistant.DefaultRules()), &assistant.Responder{Info: site.Pharmacy, Links: links})

	workspaces, err := services.NewWorkspaceService(loop, bot, services.WorkspaceOptions{
		MaxWorkspaces:   cfg.MaxWorkspaces,
		ReplyDelay:      conversation.RandomDelay(cfg.ReplyDelayMin, cfg.ReplyDelayMax),
		ReminderTick:    cfg.ReminderTick,
		SnoozeDelay:     cfg.SnoozeDelay,
		ValidatingAfter: cfg.UploadValidatingAfter,
		ApprovedAfter:   cfg.UploadApprovedAfter,
		SeedReminders:   cfg.SeedSampleReminders,
		Storage:         objClient,
		Links:           links,
		Metrics:         m,
		Log:             config.Component("workspace"),
	})
	if err != nil {
		return nil, fmt.Errorf("couldn't initialize the workspace registry, %w", err)
	}

	api := &handlers.API{
		Chat:          handlers.NewChatHandler(loop, workspaces),
		Reminders:     handlers.NewReminderHandler(loop, workspaces),
		Prescriptions: handlers.NewPrescriptionHandler(workspaces, cfg.MaxUploadMB, config.Component("prescriptions")),
		Site: handlers.NewSiteHandler(loop,
			services.NewCatalogService(site, links),
			services.NewDashboardService(site),
			workspaces, links),
	}
	visitors := middleware.NewVisitors(cfg.SessionSecret, cfg.IsProduction(), config.Component("visitors"))
	server := NewServer(cfg, api, visitors, m)

	return &App{
		Config:       cfg,
		Site:         site,
		Loop:         loop,
		ObjectClient: objClient,
		Metrics:      m,
		Assistant:    bot,
		Workspaces:   workspaces,
		Server:       server,
	}, nil
}

func newObjectClient(ctx context.Context, cfg *config.Config) (objectclient.ObjectClient, error) {
	switch cfg.StorageBackend {
	case "s3":
		client, err := objectclient.NewS3Client(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return client, nil
	case "memory", "":
		return objectclient.NewMemoryClient(), nil
	default:
		return nil, fmt.Errorf("unknown STORAGE_BACKEND %q", cfg.StorageBackend)
	}
}

// Run drives the timeline and the HTTP server until ctx is cancelled or one
// of them fails.
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.Loop.Run(gctx)
	})
	g.Go(func() error {
		return a.Server.Start()
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return a.Server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func (a *App) Close() {
	if a.Workspaces != nil {
		a.Workspaces.Close()
	}
}
