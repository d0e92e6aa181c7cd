package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/washp/pkg/model"
	"github.com/m-mizutani/washp/pkg/usecase/account"
	"github.com/m-mizutani/washp/pkg/usecase/analysis"
	"github.com/urfave/cli/v3"
)

func analyzeCommand() *cli.Command {
	var (
		cfg    config
		save   bool
		asJSON bool
	)

	flags := []cli.Flag{
		&cli.BoolFlag{
			Name:        "save",
			Aliases:     []string{"s"},
			Usage:       "Save the analysis to history (requires sign-in)",
			Sources:     cli.EnvVars("WASHP_SAVE"),
			Destination: &save,
		},
		&cli.BoolFlag{
			Name:        "json",
			Usage:       "Print the analysis as JSON",
			Destination: &asJSON,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)

	return &cli.Command{
		Name:      "analyze",
		Usage:     "Analyze photographs of a garment",
		ArgsUsage: "<image> [image...]",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx, err := cfg.setupLogger(ctx)
			if err != nil {
				return err
			}

			paths := c.Args().Slice()
			if len(paths) == 0 {
				return analysis.ErrNoImage
			}

			images := make([][]byte, 0, len(paths))
			for _, path := range paths {
				data, err := os.ReadFile(path)
				if err != nil {
					return goerr.Wrap(err, "failed to read image", goerr.V("path", path))
				}
				images = append(images, data)
			}

			a, err := cfg.newApp(ctx, true)
			if err != nil {
				return err
			}
			defer a.Close()

			locale := cfg.getLocale()
			input := analysis.AnalyzeInput{Locale: locale, Images: images, Save: save}
			if save {
				session, err := requireUser(ctx, &cfg, a)
				if err != nil {
					return err
				}
				input.UserID = session.UserID
			}

			sp := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
			sp.Suffix = " analyzing garment..."
			sp.Start()
			out, err := a.analysis.Analyze(ctx, input)
			sp.Stop()

			if err != nil && out == nil {
				return err
			}

			w := c.Root().Writer
			if asJSON {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				if err := enc.Encode(out.Result); err != nil {
					return goerr.Wrap(err, "failed to encode result")
				}
			} else {
				renderResult(w, out.Result, locale)
			}

			if out.Item != nil {
				fmt.Fprintf(c.Root().ErrWriter, "saved: %s\n", out.Item.ID)
			}
			if err != nil {
				fmt.Fprintf(c.Root().ErrWriter, "%s\n", account.Message(err, locale))
			}
			return nil
		},
	}
}

// requireUser loads the signed-in session and reports a localised error
// when there is none.
func requireUser(ctx context.Context, cfg *config, a *app) (*model.Session, error) {
	session, err := currentUser(ctx, cfg, a.account)
	if err != nil {
		return nil, goerr.Wrap(err, account.Message(err, cfg.getLocale()))
	}
	return session, nil
}
