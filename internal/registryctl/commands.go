package registryctl

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"github.com/aman-zulfiqar/cardano-adaptive-ui/internal/models"
	"github.com/aman-zulfiqar/cardano-adaptive-ui/internal/seed"
	"github.com/aman-zulfiqar/cardano-adaptive-ui/internal/storage"
	"github.com/aman-zulfiqar/cardano-adaptive-ui/internal/uischema"
)

// NewSeedCommand loads the bundled fixtures, or a YAML file, into the
// registry. Concurrent seeds on one host are serialised with a file lock.
func NewSeedCommand(opts *RootOptions) *cobra.Command {
	var file, lockPath string
	var wait time.Duration

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Upsert dApps, interfaces and pools from a seed file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := loadSeed(file)
			if err != nil {
				return err
			}

			if err := os.MkdirAll(filepath.Dir(lockPath), 0o755); err != nil {
				return fmt.Errorf("create lock directory: %w", err)
			}
			lock := flock.New(lockPath)
			lockCtx, cancel := context.WithTimeout(cmd.Context(), wait)
			defer cancel()
			locked, err := lock.TryLockContext(lockCtx, 100*time.Millisecond)
			if err != nil && lockCtx.Err() == nil {
				return fmt.Errorf("acquire seed lock: %w", err)
			}
			if !locked {
				return fmt.Errorf("another seed is running (lock %s)", lockPath)
			}
			defer func() { _ = lock.Unlock() }()

			store, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			sum, err := seed.Apply(cmd.Context(), store, data, opts.Logger)
			if err != nil {
				return err
			}
			if opts.Format == "json" {
				return writeJSON(cmd.OutOrStdout(), sum)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "seeded %d dApps, %d interfaces, %d pools\n", sum.DApps, sum.Interfaces, sum.Pools)
			return err
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "seed YAML file (defaults to the bundled fixtures)")
	cmd.Flags().StringVar(&lockPath, "lock", defaultLockPath(), "lock file serialising concurrent seeds")
	cmd.Flags().DurationVar(&wait, "wait", 5*time.Second, "how long to wait for the lock")
	return cmd
}

func loadSeed(file string) (*seed.Data, error) {
	if file == "" {
		return seed.Default()
	}
	raw, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return seed.Parse(raw)
}

// NewListCommand prints registered dApps.
func NewListCommand(opts *RootOptions) *cobra.Command {
	var category string
	var active bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List registered dApps",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := storage.DAppFilter{Category: models.Category(strings.ToLower(category)), ActiveOnly: active}
			if filter.Category != "" && !filter.Category.Valid() {
				return fmt.Errorf("unknown category %q", category)
			}

			store, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			dapps, err := store.ListDApps(cmd.Context(), filter)
			if err != nil {
				return err
			}
			if opts.Format == "json" {
				return writeJSON(cmd.OutOrStdout(), dapps)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tACTIVE\tTVL")
			for _, d := range dapps {
				tvl := "-"
				if d.TVL != nil {
					tvl = fmt.Sprintf("%.0f", *d.TVL)
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%t\t%s\n", d.ID, d.Name, d.Category, d.IsActive, tvl)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "only list this category")
	cmd.Flags().BoolVar(&active, "active", false, "only list active dApps")
	return cmd
}

// NewSchemaCommand prints the compiled form for one dApp action.
func NewSchemaCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "schema <dapp-id> <action-type>",
		Short: "Print the UI schema compiled from a dApp interface",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			dapp, err := store.GetDApp(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("dApp %s: %w", args[0], err)
			}
			action := models.ActionType(strings.ToLower(args[1]))
			iface, err := store.GetInterface(cmd.Context(), dapp.ID, action)
			if err != nil {
				return fmt.Errorf("interface %s/%s: %w", dapp.ID, action, err)
			}
			schema := uischema.Compile(*iface, dapp.Name)
			if opts.Format == "json" {
				return writeJSON(cmd.OutOrStdout(), schema)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s\n", schema.Title)
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "FIELD\tTYPE\tLABEL\tREQUIRED")
			for _, f := range schema.Fields {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%t\n", f.Name, f.Kind, f.Label, f.Required)
			}
			return tw.Flush()
		},
	}
}

// NewStatsCommand prints registry totals.
func NewStatsCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Summarise the registry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			stats, err := store.Stats(cmd.Context())
			if err != nil {
				return err
			}
			if opts.Format == "json" {
				return writeJSON(cmd.OutOrStdout(), stats)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "dApps: %d (%d active)\npools: %d\ntvl: %.2f\nvolume24h: %.2f\n",
				stats.TotalDApps, stats.ActiveDApps, stats.TotalPools, stats.TotalTVL, stats.TotalVolume24h)
			return err
		},
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
