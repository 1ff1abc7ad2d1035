package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/minisock/onemectl/internal/auth"
	"github.com/minisock/onemectl/internal/config"
	"github.com/minisock/onemectl/internal/logging"
	"github.com/minisock/onemectl/internal/observability"
	"github.com/minisock/onemectl/internal/protocol/session"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfgPath string
	root := &cobra.Command{
		Use:           "onemectl",
		Short:         "Client for the OneMe wire protocol",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", "", "path to client config (TOML)")
	root.AddCommand(newRegisterCmd(&cfgPath))
	return root
}

func newRegisterCmd(cfgPath *string) *cobra.Command {
	var phone, firstName, lastName string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register a phone number interactively",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logging.ConfigureRuntime()
			observability.RegisterMetrics()

			cfg, err := loadConfig(*cfgPath)
			if err != nil {
				log.Error().Err(err).Msg("config")
				return err
			}

			sess := session.New(session.Config{
				Addr: cfg.Addr,
				TLS: session.TLSConfig{
					ServerName:         cfg.TLS.ServerName,
					CAFile:             cfg.TLS.CAFile,
					InsecureSkipVerify: cfg.TLS.InsecureSkipVerify,
				},
			}, log.Logger)

			ctx := cmd.Context()
			if err := sess.Connect(ctx); err != nil {
				log.Error().Err(err).Msg("connect")
				return err
			}
			defer sess.Close()

			flow := auth.NewFlow(sess, cfg.Device)
			if _, err := flow.Handshake(ctx); err != nil {
				log.Error().Err(err).Msg("handshake")
				return err
			}

			tmpToken, err := flow.StartAuth(ctx, phone)
			if err != nil {
				log.Error().Err(err).Str("phone", phone).Msg("start auth")
				return err
			}

			fmt.Fprint(cmd.OutOrStdout(), "Enter verification code: ")
			reader := bufio.NewReader(cmd.InOrStdin())
			line, err := reader.ReadString('\n')
			if err != nil {
				return fmt.Errorf("read verification code: %w", err)
			}
			code := strings.TrimSpace(line)

			regToken, err := flow.VerifyCode(ctx, tmpToken, code)
			if err != nil {
				log.Error().Err(err).Msg("verify code")
				return err
			}

			authToken, err := flow.Register(ctx, regToken, firstName, lastName)
			if err != nil {
				log.Error().Err(err).Msg("register")
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), authToken)
			return nil
		},
	}
	cmd.Flags().StringVar(&phone, "phone", "", "phone number in international form")
	cmd.Flags().StringVar(&firstName, "first-name", "", "first name for the new account")
	cmd.Flags().StringVar(&lastName, "last-name", "", "last name for the new account")
	_ = cmd.MarkFlagRequired("phone")
	return cmd
}

func loadConfig(path string) (config.ClientConfig, error) {
	if path == "" {
		return config.ClientConfig{}, fmt.Errorf("--config is required: the device profile needs instance_id and device_id")
	}
	return config.LoadClientConfig(path)
}
