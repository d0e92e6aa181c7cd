package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/washp/pkg/service/api"
	"github.com/m-mizutani/washp/pkg/service/mcp"
	"github.com/m-mizutani/washp/pkg/usecase/account"
	"github.com/m-mizutani/washp/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func mcpCommand() *cli.Command {
	var (
		cfg       config
		transport string
		addr      string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "transport",
			Aliases:     []string{"t"},
			Usage:       "MCP transport (stdio, http)",
			Value:       "stdio",
			Sources:     cli.EnvVars("WASHP_MCP_TRANSPORT"),
			Destination: &transport,
		},
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "Listen address for the http transport",
			Value:       "127.0.0.1:8090",
			Sources:     cli.EnvVars("WASHP_MCP_ADDR"),
			Destination: &addr,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)

	return &cli.Command{
		Name:  "mcp",
		Usage: "Serve garment analysis as MCP tools",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx, err := cfg.setupLogger(ctx)
			if err != nil {
				return err
			}

			a, err := cfg.newApp(ctx, true)
			if err != nil {
				return err
			}
			defer a.Close()

			opts := []mcp.Option{
				mcp.WithLocale(cfg.getLocale()),
				mcp.WithVersion(c.Root().Version),
			}
			session, err := currentUser(ctx, &cfg, a.account)
			switch {
			case err == nil:
				opts = append(opts, mcp.WithUser(session.UserID))
			case errors.Is(err, account.ErrNoSession):
				logging.From(ctx).Info("no saved session, analyses will not be saved")
			default:
				return err
			}

			srv := mcp.New(a.analysis, a.history, opts...)

			switch transport {
			case "stdio":
				return srv.Run(ctx)

			case "http":
				ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
				defer stop()

				timeouts := api.DefaultTimeouts()
				timeouts.Write = 0 // tool calls stream over SSE
				return srv.ListenAndServe(ctx, addr, timeouts)

			default:
				return goerr.New("unknown mcp transport", goerr.V("transport", transport))
			}
		},
	}
}
