package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/georgemunganga/evendi-backend/internal/config"
	"github.com/georgemunganga/evendi-backend/internal/modules/auth"
	"github.com/georgemunganga/evendi-backend/internal/modules/availability"
	"github.com/georgemunganga/evendi-backend/internal/modules/contract"
	"github.com/georgemunganga/evendi-backend/internal/modules/couple"
	"github.com/georgemunganga/evendi-backend/internal/modules/inventory"
	"github.com/georgemunganga/evendi-backend/internal/modules/messaging"
	"github.com/georgemunganga/evendi-backend/internal/modules/offer"
	"github.com/georgemunganga/evendi-backend/internal/modules/vendor"
	"github.com/georgemunganga/evendi-backend/internal/platform/database"
	"github.com/georgemunganga/evendi-backend/internal/platform/httpx"
	"github.com/georgemunganga/evendi-backend/internal/platform/logger"
	"github.com/georgemunganga/evendi-backend/internal/storage/memory"
)

// stores is one storage backend: every repository plus its transaction runner.
type stores struct {
	vendors       vendor.Repository
	couples       couple.Repository
	availability  availability.Repository
	products      inventory.Repository
	offers        offer.Repository
	contracts     contract.Repository
	conversations messaging.ConversationSink
	tx            database.TxManager
	close         func() error
}

func openStores(ctx context.Context, cfg *config.Config, log *zap.Logger) (*stores, error) {
	if cfg.StorageDriver == config.DriverMemory {
		log.Warn("using in-memory storage, data is lost on restart")
		m := memory.New()
		return &stores{
			vendors:       m.Vendors(),
			couples:       m.Couples(),
			availability:  m.Availability(),
			products:      m.Products(),
			offers:        m.Offers(),
			contracts:     m.Contracts(),
			conversations: messaging.NewLogSink(log),
			tx:            m,
			close:         func() error { return nil },
		}, nil
	}

	db, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(ctx, db.DB); err != nil {
		db.Close()
		return nil, err
	}
	log.Info("connected to postgres, migrations applied")
	return &stores{
		vendors:       vendor.NewPostgresRepository(db),
		couples:       couple.NewPostgresRepository(db),
		availability:  availability.NewPostgresRepository(db),
		products:      inventory.NewPostgresRepository(db),
		offers:        offer.NewPostgresRepository(db),
		contracts:     contract.NewPostgresRepository(db),
		conversations: messaging.NewPostgresConversations(db),
		tx:            database.NewTxManager(db, cfg.TxTimeout, cfg.LockTimeout),
		close:         db.Close,
	}, nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	zl, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatal(err)
	}
	defer zl.Sync()

	if err := run(cfg, zl); err != nil {
		zl.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.close()

	// ── Notifications ───────────────────────────────────────
	var notifier messaging.Notifier = messaging.NewLogSink(log)
	if len(cfg.KafkaBrokers) > 0 {
		kafka := messaging.NewKafkaNotifier(cfg.KafkaBrokers, cfg.NotificationsTopic)
		defer kafka.Close()
		notifier = kafka
		log.Info("publishing notifications to kafka",
			zap.Strings("brokers", cfg.KafkaBrokers), zap.String("topic", cfg.NotificationsTopic))
	}
	dispatch := messaging.NewDispatcher(st.conversations, notifier, log, cfg.SinkTimeout)

	// ── Profiles & Calendar ─────────────────────────────────
	vendorService := vendor.NewService(st.vendors)
	coupleService := couple.NewService(st.couples)
	availabilityService := availability.NewService(st.availability, st.tx)

	// ── Inventory, Contracts & Offers ───────────────────────
	inventoryService := inventory.NewService(st.products, st.tx)
	contractService := contract.NewService(st.contracts, st.offers, inventoryService, st.tx, dispatch)
	offerService := offer.NewService(offer.Deps{
		Repo:         st.offers,
		Vendors:      vendorService,
		Couples:      coupleService,
		Availability: availabilityService,
		Inventory:    inventoryService,
		Contracts:    contractService,
		Tx:           st.tx,
		Dispatch:     dispatch,
		Log:          log.Named("offer"),
		Currency:     cfg.DefaultCurrency,
	})
	sweeper := offer.NewSweeper(st.offers, dispatch, log, cfg.SweepBatchSize, cfg.SweepConcurrency)
	offerHandler := offer.NewHandler(offerService, sweeper, log)

	// ── Router ──────────────────────────────────────────────
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(httpx.RequestLogger(log))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.Respond(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	router.Route("/api", func(r chi.Router) {
		r.Route("/admin", func(r chi.Router) {
			r.Use(auth.AdminKey(cfg.AdminKeyHash))
			offerHandler.RegisterAdminRoutes(r)
		})
		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(auth.NewJWTResolver(cfg.JWTSecret)))
			vendor.NewHandler(vendorService, log).RegisterRoutes(r)
			couple.NewHandler(coupleService, log).RegisterRoutes(r)
			availability.NewHandler(availabilityService, log).RegisterRoutes(r)
			inventory.NewHandler(inventoryService, log).RegisterRoutes(r)
			contract.NewHandler(contractService, log).RegisterRoutes(r)
			offerHandler.RegisterRoutes(r)
		})
	})

	// ── Background expiry ───────────────────────────────────
	if cfg.SweepInterval > 0 {
		go sweeper.Run(ctx, cfg.SweepInterval)
	}

	// ── Start Server ────────────────────────────────────────
	srv := &http.Server{Addr: ":" + cfg.Port, Handler: router}
	errCh := make(chan error, 1)
	go func() {
		log.Info("evendi API server starting", zap.String("addr", srv.Addr), zap.String("storage", cfg.StorageDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
