package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/dmitrymomot/tabula"
	"github.com/dmitrymomot/tabula/pkg/auth"
	"github.com/dmitrymomot/tabula/pkg/logger"
	"github.com/dmitrymomot/tabula/pkg/oauth"
)

// clientEnv is the subset of Config that shapes the client config. It does
// not need a database.
type clientEnv struct {
	Auth   auth.Config
	GitHub oauth.GitHubConfig
	Google oauth.GoogleConfig
}

func newClientConfigCmd(envFile *string) *cobra.Command {
	var indent bool
	cmd := &cobra.Command{
		Use:   "client-config",
		Short: "Print the client config JSON used by typed API clients",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("load %s: %w", *envFile, err)
			}
			ce, err := env.ParseAs[clientEnv]()
			if err != nil {
				return fmt.Errorf("parse config: %w", err)
			}

			client, err := clientConfig(Config{Auth: ce.Auth, GitHub: ce.GitHub, Google: ce.Google})
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			if indent {
				enc.SetIndent("", "  ")
			}
			return enc.Encode(client)
		},
	}
	cmd.Flags().BoolVar(&indent, "indent", true, "pretty-print the JSON")
	return cmd
}

func clientConfig(cfg Config) (*tabula.ClientConfig, error) {
	providers, err := oauthProviders(cfg)
	if err != nil {
		return nil, err
	}
	server, err := newServerConfig(cfg, deps{
		Stores:    auth.NewMemoryStores(),
		Logger:    logger.NewNope(),
		Providers: providers,
	})
	if err != nil {
		return nil, err
	}
	return tabula.ClientConfigOf(server)
}
