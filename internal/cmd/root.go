package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/juju/loggo/v2"
	"github.com/spf13/cobra"

	"github.com/webtray/webtray/internal/api"
	"github.com/webtray/webtray/internal/catalog"
	"github.com/webtray/webtray/internal/checkout"
	"github.com/webtray/webtray/internal/config"
	"github.com/webtray/webtray/internal/notify"
	"github.com/webtray/webtray/internal/query"
	"github.com/webtray/webtray/internal/session"
	"github.com/webtray/webtray/internal/storage"
	"github.com/webtray/webtray/internal/types"
)

var logger = loggo.GetLogger("webtray.cmd")

var (
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "webtray",
	Short: "WebTray - commerce for small businesses",
	Long: `WebTray manages stores, inventory, orders and customers against the
WebTray REST API, and keeps a shopping cart per store.

Run "webtray serve" to start a local development backend, then
"webtray login" and "webtray store use <id>" to pick the store every
other command works on.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default: ./deploy/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "loggo logging config, e.g. '<root>=DEBUG'")
}

// Execute runs the root command
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	level := cfg.Log.Level
	if logLevel != "" {
		level = logLevel
	}
	if err := loggo.ConfigureLoggers(level); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return cfg, nil
}

// app is everything a client command needs, built from config.
type app struct {
	cfg      *config.Config
	blobs    types.BlobStore
	closer   io.Closer
	session  *session.Manager
	client   *api.Client
	cache    *query.Cache
	catalog  *catalog.Catalog
	notifier types.Notifier
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	blobs, closer, err := storage.New(ctx, &cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}
	sess := session.NewManager(blobs)
	if err := sess.Load(ctx); err != nil {
		closer.Close()
		return nil, err
	}

	client := api.New(cfg.API.BaseURL, cfg.API.Timeout, sess)
	cache := query.New(query.WithStaleTime(cfg.Cache.StaleTime), query.WithRefetchTimeout(cfg.API.Timeout))
	notifier := notify.NewConsole(os.Stdout)
	return &app{
		cfg:      cfg,
		blobs:    blobs,
		closer:   closer,
		session:  sess,
		client:   client,
		cache:    cache,
		catalog:  catalog.New(client, cache, sess, notifier),
		notifier: notifier,
	}, nil
}

func (a *app) placer() *checkout.Placer {
	return checkout.ForCatalog(a.catalog, a.notifier)
}

// requireStore returns the active store or explains how to pick one.
func (a *app) requireStore() (int64, error) {
	storeID, ok := a.session.ActiveStoreID()
	if !ok {
		return 0, fmt.Errorf("%s: run 'webtray store use <id>'", catalog.NoStoreMessage)
	}
	return storeID, nil
}

func (a *app) Close() error {
	a.cache.Wait()
	return a.closer.Close()
}

// withApp adapts a command body that needs an app into a cobra RunE.
func withApp(run func(ctx context.Context, a *app, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer func() {
			if err := a.Close(); err != nil {
				logger.Warningf("failed to close: %v", err)
			}
		}()
		return run(ctx, a, args)
	}
}
