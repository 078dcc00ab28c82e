package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/medrec/medrec/internal/config"
	"github.com/medrec/medrec/internal/domain/patient"
	"github.com/medrec/medrec/internal/platform/auth"
	"github.com/medrec/medrec/internal/platform/db"
	"github.com/medrec/medrec/internal/platform/filestore"
	"github.com/medrec/medrec/internal/platform/middleware"
	"github.com/medrec/medrec/pkg/client"
	"github.com/medrec/medrec/pkg/patientview"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "medrec-server",
		Short: "Patient records API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(patientsCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the patient records API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func runServer() error {
	// Logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	// Database
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	// API group, behind bearer auth when a secret is configured
	api := e.Group("/api")
	if cfg.AuthSecret != "" {
		api.Use(auth.Middleware([]byte(cfg.AuthSecret)))
	} else if cfg.IsDev() {
		api.Use(auth.DevAuthMiddleware())
	}

	// Patient domain
	files := filestore.NewDiskStore(cfg.UploadDir, cfg.MaxFileSize)
	repo := patient.NewRepoPG(pool)
	svc := patient.NewService(repo, files, logger)
	patient.NewHandler(svc).RegisterRoutes(api)

	// Uploaded pictures are served as static files
	e.Static("/uploads", cfg.UploadDir)

	// Health checks
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		})
	})
	e.GET("/health/db", db.HealthHandler(pool))

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
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
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
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
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
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

// patientsCmd lists patients from a running server, with the same in-memory
// filtering the web frontend applies.
func patientsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "patients",
		Short: "Query a running patient records server",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List patients",
		RunE: func(cmd *cobra.Command, args []string) error {
			baseURL, _ := cmd.Flags().GetString("server")
			token, _ := cmd.Flags().GetString("token")
			search, _ := cmd.Flags().GetString("search")
			diagnosis, _ := cmd.Flags().GetString("diagnosis")
			operation, _ := cmd.Flags().GetString("operation")
			minAge, _ := cmd.Flags().GetInt("min-age")
			maxAge, _ := cmd.Flags().GetInt("max-age")
			sortBy, _ := cmd.Flags().GetString("sort")
			desc, _ := cmd.Flags().GetBool("desc")

			var opts []client.Option
			if token != "" {
				opts = append(opts, client.WithToken(token))
			}
			api := client.New(baseURL, opts...)

			ctx := context.Background()
			page, err := api.List(ctx, client.ListOptions{Limit: 100})
			if err != nil {
				return err
			}

			filter := patientview.Filter{
				Search:     search,
				Diagnosis:  diagnosis,
				Operation:  operation,
				SortBy:     patientview.SortKey(sortBy),
				Descending: desc,
			}
			if minAge >= 0 {
				filter.MinAge = &minAge
			}
			if maxAge >= 0 {
				filter.MaxAge = &maxAge
			}
			patients := filter.Apply(page.Data)

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tAGE\tDIAGNOSIS\tOPERATION\tRELATIVES")
			for _, p := range patients {
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%s\n",
					p.ID, p.Name, p.Age, p.Diagnosis, p.Operation, strings.Join(p.Relatives, ", "))
			}
			return w.Flush()
		},
	}
	listCmd.Flags().String("server", "http://localhost:8080", "Server base URL")
	listCmd.Flags().String("token", "", "Bearer token")
	listCmd.Flags().String("search", "", "Substring match on name or relatives")
	listCmd.Flags().String("diagnosis", "", "Substring match on diagnosis")
	listCmd.Flags().String("operation", "", "Substring match on operation")
	listCmd.Flags().Int("min-age", -1, "Minimum age, inclusive")
	listCmd.Flags().Int("max-age", -1, "Maximum age, inclusive")
	listCmd.Flags().String("sort", "name", "Sort key: name, age, diagnosis, operation")
	listCmd.Flags().Bool("desc", false, "Sort descending")
	cmd.AddCommand(listCmd)

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Show population statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			baseURL, _ := cmd.Flags().GetString("server")
			token, _ := cmd.Flags().GetString("token")

			var opts []client.Option
			if token != "" {
				opts = append(opts, client.WithToken(token))
			}
			api := client.New(baseURL, opts...)

			stats, err := api.Stats(context.Background())
			if err != nil {
				return err
			}
			fmt.Printf("Total patients:  %d\n", stats.TotalPatients)
			fmt.Printf("Average age:     %d\n", stats.AverageAge)
			fmt.Printf("Total relatives: %d\n", stats.TotalRelatives)
			return nil
		},
	}
	statsCmd.Flags().String("server", "http://localhost:8080", "Server base URL")
	statsCmd.Flags().String("token", "", "Bearer token")
	cmd.AddCommand(statsCmd)

	return cmd
}
