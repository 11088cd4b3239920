package cmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/apet97/worklens/internal/api"
	"github.com/apet97/worklens/internal/auth"
	"github.com/apet97/worklens/internal/config"
	"github.com/apet97/worklens/internal/model"
	"github.com/apet97/worklens/internal/storage"
	"github.com/apet97/worklens/internal/store"
)

var (
	cfgPath string
	cfg     *config.Config
	log     *logrus.Logger
)

var rootCmd = &cobra.Command{
	Use:   "worklens",
	Short: "Overtime and billing analytics for time-tracking workspaces",
	Long: `worklens turns raw time-tracking entries into overtime and billing
analytics: capacity resolution per user and day, tiered overtime, and
earned/cost/profit aggregation grouped by user, project, client, task
or ISO week.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgPath)
		if err != nil {
			return err
		}
		log = cfg.NewLogger()
		return nil
	},
}

// Execute is the entry point called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "Path to config file")
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(overrideCmd)
	rootCmd.AddCommand(statusCmd)
}

// newClient decodes the configured addon token and builds the fetch
// client around a fresh shared status.
func newClient(cmd *cobra.Command) (*api.Client, auth.Token, *model.ApiStatus, error) {
	provider, err := auth.NewStaticProvider(cfg.Token)
	if err != nil {
		return nil, auth.Token{}, nil, fmt.Errorf("addon token (set WORKLENS_TOKEN or token in config): %w", err)
	}
	tok, err := provider.Token(cmd.Context())
	if err != nil {
		return nil, auth.Token{}, nil, err
	}
	status := &model.ApiStatus{}
	client := api.New(provider, status, log)
	client.SetTimeout(cfg.HTTPTimeout)
	return client, tok, status, nil
}

// openStore opens the override store for the workspace.
func openStore(workspaceID string) (*store.Store, *storage.BoltKV, error) {
	path := cfg.DatabasePath
	if path == "" {
		var err error
		path, err = storage.DefaultPath()
		if err != nil {
			return nil, nil, err
		}
	}
	kv, err := storage.Open(path)
	if err != nil {
		return nil, nil, err
	}
	return store.New(kv, workspaceID, log), kv, nil
}
