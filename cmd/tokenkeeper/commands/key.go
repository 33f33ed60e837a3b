package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/florianilch/tokenkeeper/internal/app"
	"github.com/florianilch/tokenkeeper/internal/keysource"
)

func keyCommand() *cli.Command {
	return &cli.Command{
		Name:  "key",
		Usage: "manage the encryption key",
		Commands: []*cli.Command{
			{
				Name:  "generate",
				Usage: "generate a new key and store it in the configured key source",
				Description: "For the keyring and file sources the key is written directly. " +
					"For the env source the hex-encoded key is printed for the operator to provision. " +
					"Replacing a key makes previously stored tokens unreadable.",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  flagForce,
						Usage: "replace an existing key",
					},
					&cli.BoolFlag{
						Name:  flagPrint,
						Usage: "print the hex-encoded key instead of storing it",
					},
				},
				Action: keyGenerateAction,
			},
		},
	}
}

func keyGenerateAction(ctx context.Context, cmd *cli.Command) error {
	cfg, shutdown, err := setup(ctx, cmd)
	if err != nil {
		return err
	}
	defer func() { _ = shutdown(context.Background()) }()

	root := cmd.Root()
	if cmd.Bool(flagPrint) {
		key, err := keysource.Generate(nil)
		if err != nil {
			return err
		}
		defer clear(key)
		_, err = fmt.Fprintln(root.Writer, keysource.Encode(key))
		return err
	}

	result, err := app.ProvisionKey(ctx, cfg, cmd.Bool(flagForce))
	if err != nil {
		return err
	}

	if !result.Stored {
		_, _ = fmt.Fprintf(root.ErrWriter, "Provision this key via %s:\n", result.Location)
		_, err = fmt.Fprintln(root.Writer, result.Encoded)
		return err
	}

	_, err = fmt.Fprintf(root.ErrWriter, "Key stored in %s\n", result.Location)
	return err
}
