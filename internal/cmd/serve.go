package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/webtray/webtray/internal/database"
	"github.com/webtray/webtray/internal/server"
)

var serveSeed string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the WebTray development backend",
	Long: `Start an in-memory WebTray backend which provides:
- the /api/v1 REST API with the standard response envelope
- JWT route guarding when auth.jwt_secret is set
- /api/health and /metrics for monitoring`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveSeed, "seed", "", "YAML fixture to load (default: server.seed_file)")
}

func runServer(cmd *cobra.Command, args []string) error {
	fmt.Println("🚀 WebTray backend starting...")

	fmt.Println("📝 Loading configuration...")
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	repo := server.NewRepository(nil)
	seedFile := cfg.Server.SeedFile
	if serveSeed != "" {
		seedFile = serveSeed
	}
	if seedFile != "" {
		fmt.Printf("🌱 Loading seed data from %s...\n", seedFile)
		seed, err := server.LoadSeed(seedFile)
		if err != nil {
			return err
		}
		if err := repo.Apply(seed); err != nil {
			return fmt.Errorf("failed to apply seed: %w", err)
		}
	}

	opts := server.Options{JWTSecret: cfg.Auth.JWTSecret}
	if cfg.Storage.Driver == "mysql" || cfg.Storage.Driver == "sqlite3" {
		fmt.Println("🔌 Connecting to database...")
		db, err := database.NewConnection(cmd.Context(), &cfg.Storage)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer db.Close()
		fmt.Println("✅ Database connected successfully")
		opts.DB = db
	}
	if !cfg.GuardRoutes() {
		fmt.Println("⚠️  auth.jwt_secret is empty, route guarding is disabled")
	}

	fmt.Println("⚙️  Setting up server...")
	srv := server.NewServer(repo, opts)

	fmt.Printf("🌐 Starting server on %s...\n", cfg.Server.Addr)
	if err := srv.Start(cfg.Server.Addr); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}
