package main

import (
	"fmt"

	"airbnk-to-mqtt/adapters"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"
)

func loginCommand(logger *zerolog.Logger) *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "obtain airbnk credentials with an email verification code",
		Subcommands: []*cli.Command{
			{
				Name:  "request-code",
				Usage: "send a verification code to the account email",
				Flags: []cli.Flag{FlagEmail},
				Action: func(ctx *cli.Context) error {
					client := newAirbnkClient(ctx, *logger)
					if err := client.RequestVerificationCode(ctx.Context, ctx.String(FlagEmail.Name)); err != nil {
						return fmt.Errorf("verification code request failed: %w", err)
					}

					fmt.Fprintln(ctx.App.Writer, "verification code sent, continue with: login verify --email <email> --code <code>")
					return nil
				},
			},
			{
				Name:  "verify",
				Usage: "exchange the verification code for a token and store it",
				Flags: []cli.Flag{FlagEmail, FlagCode, FlagForce},
				Action: func(ctx *cli.Context) error {
					store := adapters.NewCredentialsFile(ctx.String(FlagCredentialsFile.Name))
					force := ctx.Bool(FlagForce.Name)
					// the code is single use, fail before spending it
					if err := store.CheckWritable(force); err != nil {
						return err
					}

					client := newAirbnkClient(ctx, *logger)
					creds, err := client.RetrieveAccessToken(ctx.Context, ctx.String(FlagEmail.Name), ctx.String(FlagCode.Name))
					if err != nil {
						return fmt.Errorf("token retrieval failed: %w", err)
					}

					if err := store.Save(creds, force); err != nil {
						return err
					}

					logger.Info().Str("user_id", creds.UserID).Str("path", store.Path()).Msg("credentials stored")
					return nil
				},
			},
		},
	}
}
