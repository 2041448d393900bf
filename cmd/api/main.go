package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/stripe/stripe-go/v76/client"

	"github.com/sventena/guestlist/internal/blob"
	"github.com/sventena/guestlist/internal/handlers"
	"github.com/sventena/guestlist/internal/mailer"
	"github.com/sventena/guestlist/internal/repository"
	"github.com/sventena/guestlist/internal/service"
	"github.com/sventena/guestlist/pkg/config"
	"github.com/sventena/guestlist/pkg/database"
	"github.com/sventena/guestlist/pkg/events"
	"github.com/sventena/guestlist/pkg/logger"
	mw "github.com/sventena/guestlist/pkg/middleware"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	ctx := context.Background()
	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	redisOpts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		logger.Error("Invalid Redis URL", "error", err)
		os.Exit(1)
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()

	eventBus, err := events.NewNATSEventBus(cfg.NATS.URL)
	if err != nil {
		logger.Error("Failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer eventBus.Close()

	store, err := blob.NewGCS(ctx, cfg.Storage.Bucket, cfg.Storage.CredentialsFile)
	if err != nil {
		logger.Error("Failed to initialize blob storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	sc := &client.API{}
	sc.Init(cfg.Stripe.SecretKey, nil)

	var mail mailer.Service
	if cfg.Email.DevMode {
		mail = mailer.NewDevMailer()
	} else {
		mail = mailer.NewMailerSend(cfg.Email.MailerSendKey, cfg.Email.FromName, cfg.Email.FromEmail)
	}

	// Repositories
	eventRepo := repository.NewEventRepository(pool)
	guestRepo := repository.NewGuestRepository(pool)
	menuRepo := repository.NewMenuRepository(pool)
	photoRepo := repository.NewPhotoRepository(pool)
	attemptStore := repository.NewRedisAttemptStore(redisClient, cfg.Verification.AttemptTTL)

	// Services
	verificationService := service.NewVerificationService(eventRepo, guestRepo, attemptStore, eventBus, cfg)
	guestService := service.NewGuestService(eventRepo, guestRepo, eventBus)
	rsvpService := service.NewRSVPService(eventRepo, guestRepo, menuRepo, eventBus, mail)
	eventService := service.NewEventService(eventRepo, guestRepo, menuRepo, eventBus)
	photoService := service.NewPhotoService(eventRepo, photoRepo, store, eventBus, cfg.Storage.SignedURLTTL)
	paymentService := service.NewPaymentService(eventService, sc, cfg)

	h := handlers.New(verificationService, guestService, rsvpService, eventService, photoService, paymentService, cfg)

	r := chi.NewRouter()

	r.Use(mw.RequestID)
	r.Use(mw.ServiceName("api"))
	r.Use(mw.Logging)
	r.Use(mw.Health)
	r.Use(mw.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.SiteURL},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Guest-Session", "X-Client-Session"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Route("/api", func(r chi.Router) {
		// Guest-facing routes
		r.Get("/events/slug/{slug}", h.GetPublicEvent)
		r.Route("/events/{eventID}", func(r chi.Router) {
			r.Post("/verify", h.VerifyGuest)

			r.Group(func(r chi.Router) {
				r.Use(h.OptionalGuestRecord)
				r.Post("/guests/resolve", h.ResolveGuest)
				r.Get("/guests/{guestID}", h.GetGuest)
				r.Post("/rsvp", h.SubmitRSVP)
				r.Put("/guests/{guestID}/menu", h.UpdateMenuChoice)
				r.Post("/guests/{guestID}/ack-update", h.AcknowledgeUpdate)
				r.Get("/photos", h.ListPhotos)
				r.Post("/photos", h.UploadPhoto)
			})
		})

		// Host routes (JWT required)
		r.Route("/host/events", func(r chi.Router) {
			r.Use(h.RequireHostJWT)
			r.Post("/", h.CreateEvent)
			r.Get("/", h.ListEvents)
			r.Route("/{eventID}", func(r chi.Router) {
				r.Get("/", h.GetHostEvent)
				r.Post("/activate", h.ActivateEvent)
				r.Put("/rsvp-deadline", h.SetRSVPDeadline)
				r.Put("/guest-access", h.UpdateGuestAccess)
				r.Put("/post-event-settings", h.UpdatePostEventSettings)

				r.Post("/checkout", h.CreateCheckout)
				r.Post("/storage-renewal", h.CreateStorageRenewalCheckout)

				r.Get("/menu", h.ListMenu)
				r.Post("/menu", h.CreateMenuOption)
				r.Put("/menu/{menuID}", h.UpdateMenuOption)
				r.Delete("/menu/{menuID}", h.DeleteMenuOption)

				r.Get("/guests", h.ListGuests)
				r.Post("/guests", h.CreateGuest)
				r.Put("/guests/{guestID}", h.UpdateGuest)
				r.Delete("/guests/{guestID}", h.DeleteGuest)
				r.Get("/guests/export", h.ExportGuestsCSV)

				r.Delete("/photos/{photoID}", h.DeletePhoto)
			})
		})

		// Payment provider webhooks (signature-verified, no JWT)
		r.Post("/webhooks/stripe", h.StripeWebhook)
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down api service...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("API service shutdown error", "error", err)
		}
	}()

	logger.Info("Starting api service", "port", cfg.Server.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("API service error", "error", err)
		os.Exit(1)
	}
}
