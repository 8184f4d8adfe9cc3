package cli

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/smartbedding/panel/internal/common"
	"github.com/smartbedding/panel/internal/config"
	"github.com/smartbedding/panel/internal/panel"
)

// Global configuration instance
var cfg *config.Config

// loadConfig loads the configuration based on the --config flag or default locations
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configFile, err := cmd.Flags().GetString("config")

	if err != nil {
		return nil, fmt.Errorf("failed to get config flag: %w", err)
	}

	return config.Load(configFile)
}

func preRunConfigE(cmd *cobra.Command, _ []string) error {
	// Load configuration before any command runs
	var err error
	cfg, err = loadConfig(cmd)

	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// check if verbose flag is set
	verbose, err := cmd.Flags().GetBool("verbose")
	if err == nil && verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}

	// Get the device override from the flag
	device, err := cmd.Flags().GetString("device")
	if err == nil && len(device) > 0 {
		if err := cfg.SetDeviceEndpoint(device); err != nil {
			return fmt.Errorf("failed to set device: %w", err)
		}
	}

	ephemeral, err := cmd.Flags().GetBool("ephemeral")
	if err == nil && ephemeral {
		cfg.Session.Ephemeral = true
	}

	return nil
}

// openPanel wires the panel for the configured device. The caller closes it.
func openPanel() (*panel.App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration not loaded")
	}

	app, err := panel.New(cfg, panel.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to open panel: %w", err)
	}

	return app, nil
}

// withInterrupt returns a context cancelled on Ctrl+C
func withInterrupt(cmd *cobra.Command) (context.Context, func()) {
	return common.WithInterrupt(cmd.Context())
}

var rootCmd = &cobra.Command{
	Use:   "bedctl",
	Short: "SmartBedding control panel",
	Long: `bedctl pairs with a SmartBedding controller on the local network and
shows its live status.

Pair once with 'bedctl login', then run 'bedctl status' to open the panel.
The session is kept per device under ~/.config/smartbedding.`,
	PersistentPreRunE: preRunConfigE,
	SilenceUsage:      true,
	SilenceErrors:     true,
	RunE:              runStatus,
}

func init() {

	// Add global flags
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().String("config", "", "Config file (default is $HOME/.config/smartbedding/config.yaml)")
	rootCmd.PersistentFlags().String("device", "", "Override the device endpoint (e.g., http://192.168.0.112:8080)")
	rootCmd.PersistentFlags().Bool("ephemeral", false, "Keep the session in memory only")

}

func GetCommandOptions() *cobra.Command {
	return rootCmd
}
