// Package registryctl implements the registry administration CLI.
package registryctl

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/aman-zulfiqar/cardano-adaptive-ui/internal/config"
	"github.com/aman-zulfiqar/cardano-adaptive-ui/internal/database"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Driver string
	DSN    string
	Format string // "json" | "text"
	Logger *logrus.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command. Flag defaults come from the
// environment so the CLI talks to the same registry as the API.
func NewRootCommand(logger *logrus.Logger) *cobra.Command {
	if logger == nil {
		logger = logrus.New()
	}
	env := config.Load()
	opts := &RootOptions{Logger: logger}

	cmd := &cobra.Command{
		Use:   "registryctl",
		Short: "Manage the Cardano dApp registry",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			for _, f := range ValidFormats {
				if f == opts.Format {
					return nil
				}
			}
			return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
		},
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.Driver, "driver", env.RegistryDBDriver, "registry driver (sqlite|mysql|postgres)")
	cmd.PersistentFlags().StringVar(&opts.DSN, "dsn", env.RegistryDBDSN, "registry data source name")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewSeedCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewSchemaCommand(opts))
	cmd.AddCommand(NewStatsCommand(opts))

	return cmd
}

func (o *RootOptions) open(ctx context.Context) (*database.RegistryStore, error) {
	return database.Open(ctx, database.Config{Driver: o.Driver, DSN: o.DSN, Logger: o.Logger})
}

// defaultLockPath puts the seed lock next to the user's cache.
func defaultLockPath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "cardano-adaptive-ui", "registry-seed.lock")
}
