package main

import (
	aftercarehandler "beroepsbelg/internal/aftercare/handler"
	aftercareservice "beroepsbelg/internal/aftercare/service"
	"beroepsbelg/internal/aftercare/storage"
	assignmentshandler "beroepsbelg/internal/assignments/handler"
	assignmentsservice "beroepsbelg/internal/assignments/service"
	"beroepsbelg/internal/auth"
	authrepo "beroepsbelg/internal/auth/repository"
	bookingshandler "beroepsbelg/internal/bookings/handler"
	bookingsrepo "beroepsbelg/internal/bookings/repository"
	bookingsservice "beroepsbelg/internal/bookings/service"
	bookingsvalidator "beroepsbelg/internal/bookings/validator"
	calendarhandler "beroepsbelg/internal/calendar/handler"
	guideshandler "beroepsbelg/internal/guides/handler"
	guidesrepo "beroepsbelg/internal/guides/repository"
	guidesservice "beroepsbelg/internal/guides/service"
	guidesvalidator "beroepsbelg/internal/guides/validator"
	"beroepsbelg/pkg/app"
	"beroepsbelg/pkg/config"
	"beroepsbelg/pkg/contracts"
	"beroepsbelg/pkg/events"
	"beroepsbelg/pkg/middleware"
	"beroepsbelg/pkg/sealer"
	"beroepsbelg/pkg/webhook"
)

const ServiceName = "bookings"

func main() {
	cfg := config.Load(ServiceName)
	if cfg.JWTSecret == "" {
		cfg.Log.Fatal("JWT_SECRET is required")
	}

	cfg.SetMongo()
	cfg.SetRedis()

	cfg.Log.Info("Starting Bookings service")
	serverApp := app.NewApplication(cfg)
	handlers := initHandlers(cfg, serverApp)

	profiles := authrepo.NewMongoProfileRepository(cfg)
	authenticator := auth.NewAuthenticator(cfg.JWTSecret, profiles, cfg.Log)
	serverApp.SetApp(app.Options{
		Authenticate: auth.Middleware(authenticator, cfg.Log),
		RateLimitKey: auth.PrincipalKey,
	}, handlers...)
	serverApp.Run()
}

func initHandlers(cfg *config.Config, serverApp *app.Application) []contracts.Handler {
	bookingRepo := bookingsrepo.NewMongoBookingRepository(cfg)
	guideRepo := guidesrepo.NewMongoGuideRepository(cfg)

	bookingService := bookingsservice.NewBookingService(bookingRepo, bookingsvalidator.NewBookingValidator(cfg.Log), cfg)
	guideService := guidesservice.NewGuideService(guideRepo, guidesvalidator.NewGuideValidator(cfg.Log), cfg)

	sender := webhook.NewSender(cfg.WebhookTimeout, cfg.WebhookSecret, cfg.Log)
	publisher, err := events.New(cfg, sender)
	if err != nil {
		cfg.Log.Fatal("Failed to initialize event publisher", "backend", cfg.EventsBackend, "error", err)
	}
	serverApp.OnShutdown(publisher)

	var tokens assignmentsservice.TokenSealer
	if cfg.ResponseTokenKey != "" {
		s, err := sealer.New(cfg.ResponseTokenKey)
		if err != nil {
			cfg.Log.Fatal("Invalid response token key", "error", err)
		}
		tokens = s
	} else {
		cfg.Log.Warn("RESPONSE_TOKEN_KEY not set, offers are sent without response links")
	}

	assignmentService := assignmentsservice.NewAssignmentService(bookingRepo, guideRepo, sender, tokens, publisher, cfg)
	assignmentHandler := assignmentshandler.NewAssignmentHandler(assignmentService, cfg.Log)
	if cfg.InboundWebhookSecret != "" {
		assignmentHandler.GuardTokenRoute(middleware.SignatureVerification(cfg.InboundWebhookSecret, cfg.Log))
		cfg.Log.Info("Signature verification enabled for guide responses")
	}

	photos := storage.NewDiskStore(cfg.PhotoDir)
	aftercareService := aftercareservice.NewAftercareService(bookingRepo, guideRepo, photos, publisher, cfg)

	cfg.Log.Info("Services initialized", "database", cfg.MongoDatabaseName, "events_backend", cfg.EventsBackend)

	return []contracts.Handler{
		bookingshandler.NewBookingHandler(bookingService, cfg.Log),
		guideshandler.NewGuideHandler(guideService, cfg.Log),
		assignmentHandler,
		aftercarehandler.NewAftercareHandler(aftercareService, int64(cfg.MaxPhotoSize), cfg.Log),
		calendarhandler.NewCalendarHandler(bookingService, calendarhandler.Options{
			Domain:          cfg.CalendarDomain,
			Location:        cfg.CalendarLocation,
			DefaultDuration: cfg.DefaultTourDuration,
		}, cfg.Log),
	}
}
