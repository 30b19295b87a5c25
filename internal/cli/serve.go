package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/mimic/internal/app"
	"github.com/MrSnakeDoc/mimic/internal/config"
)

type serveOptions struct {
	configFile string
	listen     string
	seedDir    string
}

func newServeCmd() *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the stub server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}

			a, err := app.New(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			return a.Run(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&opts.configFile, "config", "", "YAML configuration file (overrides MIMIC_CONFIG_FILE)")
	cmd.Flags().StringVar(&opts.listen, "listen", "", "listen address, ex: :8080 (overrides MIMIC_LISTEN_ADDR)")
	cmd.Flags().StringVar(&opts.seedDir, "seed-dir", "", "directory of *.svc files loaded at start (overrides MIMIC_SEED_DIR)")
	return cmd
}

// load reads the configuration, flags taking precedence over the environment.
func (o serveOptions) load() (*config.Config, error) {
	if o.configFile != "" {
		if err := os.Setenv(config.EnvPrefix+"CONFIG_FILE", o.configFile); err != nil {
			return nil, err
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if o.listen != "" {
		cfg.ListenAddr = o.listen
	}
	if o.seedDir != "" {
		cfg.SeedDir = o.seedDir
	}
	return cfg, nil
}
