package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/helio/telemed/internal/config"
	"github.com/helio/telemed/internal/domain/identity"
	"github.com/helio/telemed/internal/domain/pharmacy"
	"github.com/helio/telemed/internal/domain/scheduling"
	"github.com/helio/telemed/internal/platform/auth"
	"github.com/helio/telemed/internal/platform/db"
	"github.com/helio/telemed/internal/platform/middleware"
	"github.com/helio/telemed/internal/platform/uploads"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "telemed-server",
		Short: "Telemedicine API Server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			count, err := migrator.Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			statuses, err := migrator.Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			fmt.Println("---------- ---------------------------------------- ---------- --------------------")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load a starter medicine catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg)
			if err != nil {
				return err
			}
			defer pool.Close()

			medicines := pharmacy.NewMedicineRepoPG(pool)
			catalog := []*pharmacy.Medicine{
				{Name: "Paracetamol 500mg", GenericName: "Acetaminophen", Manufacturer: "Cipla", Price: 2.50, StockQuantity: 120, Category: "Analgesic"},
				{Name: "Amoxicillin 250mg", GenericName: "Amoxicillin", Manufacturer: "GSK", Price: 8.00, StockQuantity: 45, Category: "Antibiotic", RequiresPrescription: true},
				{Name: "Cetirizine 10mg", GenericName: "Cetirizine", Manufacturer: "Dr. Reddy's", Price: 3.20, StockQuantity: 8, Category: "Antihistamine"},
				{Name: "Metformin 500mg", GenericName: "Metformin", Manufacturer: "Sun Pharma", Price: 4.10, StockQuantity: 60, Category: "Antidiabetic", RequiresPrescription: true},
				{Name: "Omeprazole 20mg", GenericName: "Omeprazole", Manufacturer: "AstraZeneca", Price: 6.75, StockQuantity: 0, Category: "Antacid"},
			}
			for _, m := range catalog {
				if err := medicines.Create(ctx, m); err != nil {
					return fmt.Errorf("seed %s: %w", m.Name, err)
				}
			}

			fmt.Printf("Seeded %d medicines.\n", len(catalog))
			return nil
		},
	}
}

func runServer() error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	fileStore, err := uploads.NewDiskStore(cfg.UploadDir)
	if err != nil {
		logger.Fatal().Err(err).Str("dir", cfg.UploadDir).Msg("failed to open upload directory")
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	issuer := auth.NewIssuer(cfg.JWTSecret, time.Duration(cfg.TokenTTL())*time.Hour)

	// /api is public; /api plus JWT middleware is the authenticated surface.
	public := e.Group("/api")
	authed := e.Group("/api", auth.JWTMiddleware(issuer))

	public.GET("/health", db.HealthHandler(pool))

	// Identity
	accountRepo := identity.NewAccountRepoPG(pool)
	profileRepo := identity.NewProfileRepoPG(pool)
	txRunner := func(ctx context.Context, fn func(ctx context.Context) error) error {
		return db.WithTx(ctx, pool, fn)
	}
	identitySvc := identity.NewService(accountRepo, profileRepo, txRunner, logger)
	identityHandler := identity.NewHandler(identitySvc, issuer)
	identityHandler.RegisterRoutes(public, authed)

	// Scheduling
	apptRepo := scheduling.NewAppointmentRepoPG(pool)
	schedSvc := scheduling.NewService(apptRepo, identitySvc)
	schedHandler := scheduling.NewHandler(schedSvc)
	schedHandler.RegisterRoutes(public, authed)

	// Pharmacy
	medicineRepo := pharmacy.NewMedicineRepoPG(pool)
	prescriptionRepo := pharmacy.NewPrescriptionRepoPG(pool)
	requestRepo := pharmacy.NewMedicineRequestRepoPG(pool)
	pharmacySvc := pharmacy.NewService(medicineRepo, prescriptionRepo, requestRepo, identitySvc)
	pharmacyHandler := pharmacy.NewHandler(pharmacySvc)
	pharmacyHandler.RegisterRoutes(public, authed)

	// Uploads
	uploadHandler := uploads.NewHandler(fileStore, cfg.MaxUploadBytes)
	uploadHandler.RegisterRoutes(public, authed)

	// Start server with graceful shutdown.
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("forced shutdown")
		return err
	}
	return nil
}
