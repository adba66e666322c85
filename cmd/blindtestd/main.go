package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/vocdoni/arbo/memdb"
	"github.com/vocdoni/blindtest/ballotbox"
	"github.com/vocdoni/blindtest/config"
	"github.com/vocdoni/blindtest/coprocessor"
	"github.com/vocdoni/blindtest/log"
	"github.com/vocdoni/blindtest/service"
	"github.com/vocdoni/blindtest/storage"
	"go.vocdoni.io/dvote/db"
	"go.vocdoni.io/dvote/db/metadb"
)

const programName = "blindtestd"

var (
	configFile string
	flags      = struct {
		dataDir  string
		host     string
		port     int
		logLevel string
		memory   bool
	}{}
)

func main() {
	rootCmd := &cobra.Command{
		Use:          programName,
		Short:        "Encrypted blind comparison ballot box",
		SilenceUsage: true,
		RunE:         serveRun,
	}
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "path to config file")
	rootCmd.PersistentFlags().StringVar(&flags.dataDir, "datadir", "", "data directory")
	rootCmd.PersistentFlags().StringVar(&flags.host, "host", "", "API listen host")
	rootCmd.PersistentFlags().IntVar(&flags.port, "port", 0, "API listen port")
	rootCmd.PersistentFlags().StringVar(&flags.logLevel, "loglevel", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&flags.memory, "memory", false, "keep all state in memory")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the ballot box API server",
		RunE:  serveRun,
	})
	rootCmd.AddCommand(&cobra.Command{
		Use:   "verify",
		Short: "Verify the event log hash chain and aggregate counts of the data directory",
		RunE:  verifyRun,
	})

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig loads the config file and applies the command line overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	fs := cmd.Flags()
	if fs.Changed("datadir") {
		cfg.DataDir = flags.dataDir
	}
	if fs.Changed("host") {
		cfg.Host = flags.host
	}
	if fs.Changed("port") {
		cfg.Port = flags.port
	}
	if fs.Changed("loglevel") {
		cfg.LogLevel = flags.logLevel
	}
	if flags.memory {
		cfg.DBType = config.DBTypeMemory
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log.Init(cfg.LogLevel, cfg.LogOutput, nil)
	return cfg, nil
}

// openDatabase opens the key-value store selected by the configuration.
func openDatabase(cfg *config.Config) (db.Database, error) {
	if cfg.DBType == config.DBTypeMemory {
		log.Warnw("using in-memory database, state is lost on exit")
		return memdb.New(), nil
	}
	dir := filepath.Join(cfg.DataDir, "db")
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return metadb.New(cfg.DBType, dir)
}

func serveRun(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	database, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	stg, err := storage.New(database)
	if err != nil {
		return err
	}
	defer stg.Close()

	cp, err := coprocessor.New(database, storage.CoprocessorPrefix)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	bb := ballotbox.New(stg, cp, &ballotbox.Config{Registerer: registry})

	apiService := service.NewAPI(bb, cfg.Host, cfg.Port)
	apiService.SetMaxDecryptValue(cfg.MaxDecryptValue)
	if cfg.MetricsEnabled {
		apiService.SetMetrics(registry)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	if err := apiService.Start(ctx); err != nil {
		return err
	}
	log.Infow("ballot box ready",
		"address", apiService.Addr().String(),
		"networkKey", coprocessor.PublicKeyHex(cp.PublicKey()),
		"engine", ballotbox.Self.Hex(),
		"dataDir", cfg.DataDir,
		"dbType", cfg.DBType)

	<-ctx.Done()
	log.Infow("shutting down")
	apiService.Stop()
	return nil
}

func verifyRun(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	database, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	stg, err := storage.New(database)
	if err != nil {
		return err
	}
	defer stg.Close()

	count, err := stg.EventCount()
	if err != nil {
		return err
	}
	if err := stg.VerifyEventChain(); err != nil {
		return fmt.Errorf("event log corrupted: %w", err)
	}
	root, err := stg.EventRoot()
	if err != nil {
		return err
	}
	log.Infow("event log verified", "events", count, "root", root.String())
	if err := stg.VerifyAggregates(); err != nil {
		return err
	}
	log.Infow("aggregate counts verified")
	return nil
}
