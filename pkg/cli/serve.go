package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/washp/pkg/service/api"
	"github.com/m-mizutani/washp/pkg/utils/logging"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

// serveConfig is the optional YAML file given by --config. Command line
// flags take precedence over its values.
type serveConfig struct {
	Addr         string       `yaml:"addr"`
	CORSOrigins  []string     `yaml:"cors_origins"`
	ShareBaseURL string       `yaml:"share_base_url"`
	MaxUploadMB  int64        `yaml:"max_upload_mb"`
	Timeouts     api.Timeouts `yaml:"timeouts"`
}

func defaultServeConfig() serveConfig {
	return serveConfig{
		Addr:     ":8080",
		Timeouts: api.DefaultTimeouts(),
	}
}

func loadServeConfig(path string) (serveConfig, error) {
	cfg := defaultServeConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, goerr.Wrap(err, "failed to read server config", goerr.V("path", path))
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, goerr.Wrap(err, "failed to parse server config", goerr.V("path", path))
	}
	return cfg, nil
}

func (sc serveConfig) options() []api.Option {
	var opts []api.Option
	if len(sc.CORSOrigins) > 0 {
		opts = append(opts, api.WithAllowedOrigins(sc.CORSOrigins...))
	}
	if sc.ShareBaseURL != "" {
		opts = append(opts, api.WithShareBaseURL(sc.ShareBaseURL))
	}
	if sc.MaxUploadMB > 0 {
		opts = append(opts, api.WithMaxUploadSize(sc.MaxUploadMB<<20))
	}
	return opts
}

func serveCommand() *cli.Command {
	var (
		cfg          config
		configPath   string
		addr         string
		corsOrigins  []string
		shareBaseURL string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Usage:       "Path to the server YAML config",
			Sources:     cli.EnvVars("WASHP_SERVER_CONFIG"),
			Destination: &configPath,
		},
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "Listen address",
			Sources:     cli.EnvVars("WASHP_ADDR"),
			Destination: &addr,
		},
		&cli.StringSliceFlag{
			Name:        "cors-origin",
			Usage:       "Allowed CORS origin (repeatable)",
			Sources:     cli.EnvVars("WASHP_CORS_ORIGINS"),
			Destination: &corsOrigins,
		},
		&cli.StringFlag{
			Name:        "share-base-url",
			Usage:       "Public URL used in share links",
			Sources:     cli.EnvVars("WASHP_SHARE_BASE_URL"),
			Destination: &shareBaseURL,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)

	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP API",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx, err := cfg.setupLogger(ctx)
			if err != nil {
				return err
			}

			sc, err := loadServeConfig(configPath)
			if err != nil {
				return err
			}
			if addr != "" {
				sc.Addr = addr
			}
			if len(corsOrigins) > 0 {
				sc.CORSOrigins = corsOrigins
			}
			if shareBaseURL != "" {
				sc.ShareBaseURL = shareBaseURL
			}

			a, err := cfg.newApp(ctx, true)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			logging.From(ctx).Info("starting api server",
				"addr", sc.Addr,
				"store", cfg.store,
				"identity", cfg.identity,
				"provider", cfg.provider,
			)

			srv := api.New(a.analysis, a.history, a.account, sc.options()...)
			return srv.ListenAndServe(ctx, sc.Addr, sc.Timeouts)
		},
	}
}
