package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"pwnamap/pkg/api"
	"pwnamap/pkg/config"
	"pwnamap/pkg/ingest"
	"pwnamap/pkg/oui"
	"pwnamap/pkg/store"
	"pwnamap/pkg/wpasec"
)

const (
	appName    = "pwnamap"
	appVersion = "2.0.0"
)

var log = logrus.New()

func main() {
	app := &cli.App{
		Name:    appName,
		Usage:   "Wireless handshake capture map backend",
		Version: appVersion,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Load configuration from `FILE`",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "info",
				Usage:   "Log level (debug, info, warn, error)",
				EnvVars: []string{"PWNAMAP_LOG_LEVEL"},
			},
		},
		Before: func(c *cli.Context) error {
			level, err := logrus.ParseLevel(c.String("log-level"))
			if err != nil {
				level = logrus.InfoLevel
			}
			log.SetLevel(level)
			log.SetFormatter(&logrus.TextFormatter{
				FullTimestamp:   true,
				TimestampFormat: "2006-01-02 15:04:05",
			})
			return nil
		},
		Commands: []*cli.Command{
			commandServe(),
			commandSync(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func loadConfig(c *cli.Context) (config.Config, error) {
	cfg := config.DefaultConfig()
	if path := c.String("config"); path != "" {
		loaded, err := config.LoadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("load config %s: %w", path, err)
		}
		cfg = loaded
	}
	cfg = config.ApplyEnv(cfg)
	if err := cfg.EnsureDirs(); err != nil {
		return cfg, fmt.Errorf("prepare data directories: %w", err)
	}
	return cfg, nil
}

// buildStack wires the shared collaborators behind both commands.
func buildStack(cfg config.Config) (*store.Store, *oui.Resolver, *ingest.Converter, *wpasec.Syncer, error) {
	db, err := store.Open(cfg.DBPath)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	st := store.NewStore(db, log)
	if err := st.Init(context.Background()); err != nil {
		return nil, nil, nil, nil, err
	}

	resolver := oui.NewResolver(cfg.VendorOUICSV, log)
	converter := ingest.NewConverter(cfg.ConverterCommand, cfg.ConverterTimeout, log)
	syncer := wpasec.NewSyncer(cfg.WpaSecURL, cfg.WpaSecKey, st, log)
	return st, resolver, converter, syncer, nil
}

func printBanner() {
	color.Cyan("\n=== pwnamap ===\n")
	color.Cyan("Wireless handshake capture map\n")
}

func commandServe() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the ingestion and map API server",
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			if cfg.AuthToken == "" {
				log.Warn("No auth token configured; uploads will be rejected")
			}

			st, resolver, converter, syncer, err := buildStack(cfg)
			if err != nil {
				return err
			}

			printBanner()
			server := api.NewServer(cfg, st, resolver, converter, syncer, log)
			return server.Start()
		},
	}
}

func commandSync() *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Run one correlation sync against the cracking-results endpoint",
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}

			_, _, _, syncer, err := buildStack(cfg)
			if err != nil {
				return err
			}

			res, err := syncer.Sync(context.Background())
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(res, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}
}
