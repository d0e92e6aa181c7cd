package cli

import (
	"context"

	"github.com/urfave/cli/v3"
)

// Version is set at build time with -ldflags
var Version = "dev"

type Error struct {
	Code    int
	Message string
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:    "washp",
		Usage:   "Garment care analysis from clothing photos",
		Version: Version,
		Commands: []*cli.Command{
			analyzeCommand(),
			historyCommand(),
			shareCommand(),
			accountCommand(),
			serveCommand(),
			mcpCommand(),
		},
	}
}

func Run(ctx context.Context, argv []string) *Error {
	if err := newCommand().Run(ctx, argv); err != nil {
		return &Error{
			Code:    1,
			Message: err.Error(),
		}
	}

	return nil
}
