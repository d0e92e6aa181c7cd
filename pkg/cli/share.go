package cli

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/washp/pkg/model"
	"github.com/m-mizutani/washp/pkg/usecase/share"
	"github.com/urfave/cli/v3"
)

func shareCommand() *cli.Command {
	var (
		cfg     config
		baseURL string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "base-url",
			Usage:       "Public URL of the washp web app",
			Sources:     cli.EnvVars("WASHP_SHARE_BASE_URL"),
			Destination: &baseURL,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:      "share",
		Usage:     "Print share text and links for a saved analysis",
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
					return localized(&cfg, err)
				}

				payload, err := share.Build(item, baseURL, cfg.getLocale())
				if err != nil {
					return err
				}

				w := c.Root().Writer
				fmt.Fprintf(w, "%s\n\n", payload.Text)
				for _, p := range share.Platforms {
					fmt.Fprintf(w, "%s\t%s\n", p, payload.Links[p])
				}
				return nil
			})
		},
	}
}
