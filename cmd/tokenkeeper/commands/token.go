package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/florianilch/tokenkeeper/internal/app"
	"github.com/florianilch/tokenkeeper/internal/tokenstore"
)

func pathFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  flagPath,
		Usage: "token file path (defaults to <data-dir>/token.json)",
	}
}

func tokenCommand() *cli.Command {
	return &cli.Command{
		Name:  "token",
		Usage: "save, read or remove the stored token",
		Commands: []*cli.Command{
			{
				Name:      "save",
				Usage:     "encrypt and store a token, replacing any existing one",
				ArgsUsage: "[TOKEN]  (read from stdin when omitted; arguments are visible to other processes)",
				Flags:     []cli.Flag{pathFlag()},
				Action:    tokenSaveAction,
			},
			{
				Name:   "get",
				Usage:  "decrypt and print the stored token",
				Flags:  []cli.Flag{pathFlag()},
				Action: tokenGetAction,
			},
			{
				Name:  "remove",
				Usage: "delete the stored token",
				Flags: []cli.Flag{
					pathFlag(),
					&cli.BoolFlag{
						Name:  flagIgnoreMissing,
						Usage: "succeed when there is no token to remove",
					},
				},
				Action: tokenRemoveAction,
			},
			{
				Name:   "path",
				Usage:  "print the default token file path",
				Action: tokenPathAction,
			},
		},
	}
}

func tokenSaveAction(ctx context.Context, cmd *cli.Command) error {
	token, err := readToken(cmd)
	if err != nil {
		return err
	}

	return withApp(ctx, cmd, func(ctx context.Context, a *app.App) error {
		return a.SaveToken(ctx, cmd.String(flagPath), token)
	})
}

func tokenGetAction(ctx context.Context, cmd *cli.Command) error {
	return withApp(ctx, cmd, func(ctx context.Context, a *app.App) error {
		token, err := a.GetToken(ctx, cmd.String(flagPath))
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.Root().Writer, token)
		return err
	})
}

func tokenRemoveAction(ctx context.Context, cmd *cli.Command) error {
	return withApp(ctx, cmd, func(ctx context.Context, a *app.App) error {
		err := a.RemoveToken(ctx, cmd.String(flagPath))
		if errors.Is(err, tokenstore.ErrNotFound) && cmd.Bool(flagIgnoreMissing) {
			return nil
		}
		return err
	})
}

func tokenPathAction(ctx context.Context, cmd *cli.Command) error {
	// Only configuration is needed; no key is read
	cfg, shutdown, err := setup(ctx, cmd)
	if err != nil {
		return err
	}
	defer func() { _ = shutdown(context.Background()) }()

	_, err = fmt.Fprintln(cmd.Root().Writer, cfg.TokenPath())
	return err
}

// readToken returns the token argument, or reads it from stdin. Terminal input
// is not echoed. A single trailing line break is dropped.
func readToken(cmd *cli.Command) (string, error) {
	if cmd.NArg() > 1 {
		return "", fmt.Errorf("expected at most one token argument, got %d", cmd.NArg())
	}
	if cmd.NArg() == 1 {
		return cmd.Args().First(), nil
	}

	root := cmd.Root()
	if f, ok := root.Reader.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		_, _ = fmt.Fprint(root.ErrWriter, "Token: ")
		data, err := term.ReadPassword(int(f.Fd()))
		_, _ = fmt.Fprintln(root.ErrWriter)
		if err != nil {
			return "", fmt.Errorf("reading token from terminal: %w", err)
		}
		return string(data), nil
	}

	data, err := io.ReadAll(root.Reader)
	if err != nil {
		return "", fmt.Errorf("reading token from stdin: %w", err)
	}
	token := strings.TrimSuffix(string(data), "\n")
	return strings.TrimSuffix(token, "\r"), nil
}
