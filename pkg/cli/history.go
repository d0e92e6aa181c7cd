package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/washp/pkg/model"
	"github.com/m-mizutani/washp/pkg/usecase/history"
	"github.com/urfave/cli/v3"
)

func historyCommand() *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Manage saved analyses",
		Commands: []*cli.Command{
			historyListCommand(),
			historyShowCommand(),
			historyDeleteCommand(),
			historyClearCommand(),
		},
	}
}

// withUser runs fn with the app and the signed-in user
func withUser(ctx context.Context, cfg *config, fn func(ctx context.Context, a *app, session *model.Session) error) error {
	ctx, err := cfg.setupLogger(ctx)
	if err != nil {
		return err
	}

	a, err := cfg.newApp(ctx, false)
	if err != nil {
		return err
	}
	defer a.Close()

	session, err := requireUser(ctx, cfg, a)
	if err != nil {
		return err
	}
	return fn(ctx, a, session)
}

func historyListCommand() *cli.Command {
	var (
		cfg   config
		limit int64
	)

	flags := []cli.Flag{
		&cli.IntFlag{
			Name:        "limit",
			Usage:       "Maximum number of items to list",
			Value:       50,
			Sources:     cli.EnvVars("WASHP_HISTORY_LIMIT"),
			Destination: &limit,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:  "list",
		Usage: "List saved analyses, newest first",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			return withUser(ctx, &cfg, func(ctx context.Context, a *app, session *model.Session) error {
				locale := cfg.getLocale()
				out, err := a.history.List(ctx, session.UserID, locale)
				if err != nil {
					return goerr.Wrap(err, "failed to list history")
				}

				w := c.Root().Writer
				if out.Warning != "" {
					fmt.Fprintf(c.Root().ErrWriter, "%s\n", out.Warning)
				}
				for i, item := range out.Items {
					if limit > 0 && int64(i) >= limit {
						break
					}
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
						item.ID,
						history.FormatDate(item.Date, locale),
						item.Name,
						item.Temperature,
						item.Cycle,
					)
				}
				return nil
			})
		},
	}
}

func historyShowCommand() *cli.Command {
	var (
		cfg    config
		asJSON bool
	)

	flags := []cli.Flag{
		&cli.BoolFlag{
			Name:        "json",
			Usage:       "Print the item as JSON",
			Destination: &asJSON,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:      "show",
		Usage:     "Show a saved analysis",
		ArgsUsage: "<history-id>",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			id := c.Args().First()
			if id == "" {
				return goerr.New("history id is required")
			}

			return withUser(ctx, &cfg, func(ctx context.Context, a *app, session *model.Session) error {
				item, err := a.history.Get(ctx, session.UserID, model.HistoryID(id))
				if err != nil {
					return err
				}

				w := c.Root().Writer
				if asJSON {
					enc := json.NewEncoder(w)
					enc.SetIndent("", "  ")
					return enc.Encode(item)
				}

				locale := cfg.getLocale()
				fmt.Fprintf(w, "%s\n\n", history.FormatDate(item.Date, locale))
				renderResult(w, item.AnalysisResult, locale)
				return nil
			})
		},
	}
}

func historyDeleteCommand() *cli.Command {
	var cfg config

	return &cli.Command{
		Name:      "delete",
		Usage:     "Delete a saved analysis",
		ArgsUsage: "<history-id>",
		Flags:     globalFlags(&cfg),
		Action: func(ctx context.Context, c *cli.Command) error {
			id := c.Args().First()
			if id == "" {
				return goerr.New("history id is required")
			}

			return withUser(ctx, &cfg, func(ctx context.Context, a *app, session *model.Session) error {
				if err := a.history.Delete(ctx, session.UserID, model.HistoryID(id)); err != nil {
					return err
				}
				fmt.Fprintf(c.Root().Writer, "deleted: %s\n", id)
				return nil
			})
		},
	}
}

func historyClearCommand() *cli.Command {
	var cfg config

	return &cli.Command{
		Name:  "clear",
		Usage: "Delete every saved analysis",
		Flags: globalFlags(&cfg),
		Action: func(ctx context.Context, c *cli.Command) error {
			return withUser(ctx, &cfg, func(ctx context.Context, a *app, session *model.Session) error {
				n, err := a.history.Clear(ctx, session.UserID)
				if err != nil {
					return err
				}
				fmt.Fprintf(c.Root().Writer, "deleted %d item(s)\n", n)
				return nil
			})
		},
	}
}
