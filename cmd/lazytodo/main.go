package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Joseda-hg/lazytodo/internal/config"
	"github.com/Joseda-hg/lazytodo/internal/db"
	"github.com/Joseda-hg/lazytodo/internal/reminder"
	"github.com/Joseda-hg/lazytodo/internal/store"
	"github.com/Joseda-hg/lazytodo/internal/tui"
	"github.com/Joseda-hg/lazytodo/internal/web"
)

var Version = "dev"

type options struct {
	configPath string
	dbPath     string
	storage    string
	web        bool
	webOnly    bool
	port       int
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:           "lazytodo",
		Short:         "Personal task tracker with reminders",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRoot(cmd, opts)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "config file path")
	flags.StringVar(&opts.dbPath, "db", "", "sqlite db path")
	flags.StringVar(&opts.storage, "storage", "", "task storage backend (sqlite or file)")
	cmd.Flags().BoolVar(&opts.web, "web", false, "enable web server")
	cmd.Flags().BoolVar(&opts.webOnly, "web-only", false, "run web server only")
	cmd.Flags().IntVar(&opts.port, "port", 0, "web server port")

	cmd.AddCommand(
		addCmd(opts),
		listCmd(opts),
		editCmd(opts),
		doneCmd(opts),
		rmCmd(opts),
		moveCmd(opts),
		remindCmd(opts),
		statsCmd(opts),
		historyCmd(opts),
	)
	return cmd
}

func runRoot(cmd *cobra.Command, opts *options) error {
	ctx := cmd.Context()
	if opts.webOnly {
		opts.web = true
	}

	var logOut io.Writer = cmd.ErrOrStderr()
	if !opts.webOnly {
		// the TUI owns the terminal
		logOut = nil
	}
	a, err := openApp(ctx, opts, logOut)
	if err != nil {
		return err
	}
	defer a.Close(ctx)

	recorder := reminder.NewRecorder(0)
	sink := reminder.MultiSink{reminder.LogSink{Logger: a.logger}, recorder}
	reminderOpts := []reminder.Option{
		reminder.WithInterval(a.cfg.ReminderInterval),
		reminder.WithHorizon(a.cfg.DueSoonHorizon),
		reminder.WithLogger(a.logger),
	}

	var srv *http.Server
	if a.cfg.WebEnabled {
		srv = &http.Server{
			Addr:              fmt.Sprintf(":%d", a.cfg.WebPort),
			Handler:           web.NewServer(a.store, a.history, recorder, a.logger).Handler(),
			ReadHeaderTimeout: 5 * time.Second,
		}
	}

	if opts.webOnly {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		engine := reminder.New(a.store, sink, reminderOpts...)
		go func() {
			if err := engine.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				a.logger.Error("reminder engine stopped", "error", err)
			}
		}()

		fmt.Fprintf(cmd.OutOrStdout(), "Web server running at http://localhost%s\n", srv.Addr)
		return serve(ctx, srv, a.logger)
	}

	if srv != nil {
		webCtx, stopWeb := context.WithCancel(ctx)
		webDone := make(chan struct{})
		go func() {
			defer close(webDone)
			a.logger.Info("web server listening", "addr", srv.Addr)
			if err := serve(webCtx, srv, a.logger); err != nil {
				a.logger.Error("web server error", "error", err)
			}
		}()
		defer func() {
			stopWeb()
			<-webDone
		}()
	}

	return tui.Run(ctx, tui.Deps{
		Store:        a.store,
		History:      a.history,
		Sink:         sink,
		ReminderOpts: reminderOpts,
		Logger:       a.logger,
	})
}

// serve runs srv until it fails or ctx is done, then shuts it down once.
func serve(ctx context.Context, srv *http.Server, logger *slog.Logger) error {
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdown(srv, logger)
		<-errc
		return nil
	}
}

func shutdown(srv *http.Server, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Warn("web server shutdown", "error", err)
	}
}

type app struct {
	cfg     config.Config
	logger  *slog.Logger
	db      *sql.DB
	store   *store.Store
	history *db.HistoryLog
	closers []func() error
}

// openApp loads configuration and wires storage, history and the task store.
// A nil logOut sends logs to the configured log file.
func openApp(ctx context.Context, opts *options, logOut io.Writer) (*app, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg}
	if logOut == nil {
		if err := config.EnsureDir(cfg.LogPath); err != nil {
			return nil, err
		}
		logFile, err := os.OpenFile(cfg.LogPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		a.closers = append(a.closers, logFile.Close)
		logOut = logFile
	}
	a.logger = config.NewLogger(cfg, logOut)

	if err := config.EnsureDir(cfg.DBPath); err != nil {
		a.closeAll()
		return nil, err
	}
	sqlDB, err := db.Open(cfg.DBPath)
	if err != nil {
		a.closeAll()
		return nil, err
	}
	a.db = sqlDB
	a.closers = append(a.closers, sqlDB.Close)

	var gateway store.Gateway
	switch cfg.Storage {
	case config.StorageFile:
		fileGateway, err := db.NewFileGateway(cfg.FilePath)
		if err != nil {
			a.closeAll()
			return nil, err
		}
		gateway = fileGateway
	default:
		gateway = db.NewSQLiteGateway(sqlDB)
	}

	st, err := store.New(ctx, gateway, store.WithLogger(a.logger))
	if err != nil {
		a.closeAll()
		return nil, err
	}
	a.store = st

	a.history = db.NewHistoryLog(sqlDB, a.logger)
	detach := a.history.Attach(st)
	a.closers = append(a.closers, func() error {
		detach()
		return nil
	})

	a.logger.Debug("storage ready", "storage", cfg.Storage, "db", cfg.DBPath)
	return a, nil
}

// Close flushes unsaved changes and releases resources in reverse order.
func (a *app) Close(ctx context.Context) {
	if a.store != nil && a.store.Dirty() {
		if err := a.store.Flush(ctx); err != nil {
			a.logger.Error("flush unsaved tasks", "error", err)
		}
	}
	a.closeAll()
}

func (a *app) closeAll() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i]()
	}
	a.closers = nil
}

func loadConfig(opts *options) (config.Config, error) {
	cfgPath, err := resolveConfigPath(opts.configPath)
	if err != nil {
		return config.Config{}, err
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return config.Config{}, err
	}

	if opts.dbPath != "" {
		cfg.DBPath = opts.dbPath
	}
	if opts.storage != "" {
		cfg.Storage = opts.storage
	}
	if opts.web {
		cfg.WebEnabled = true
	}
	if opts.port != 0 {
		cfg.WebPort = opts.port
	}
	cfg.Resolve(cfgPath)
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}

	if err := config.Save(cfgPath, cfg); err != nil {
		return config.Config{}, err
	}

	if err := config.ApplyEnv(&cfg); err != nil {
		return config.Config{}, err
	}
	cfg.Resolve(cfgPath)
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func resolveConfigPath(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	return config.DefaultConfigPath()
}
