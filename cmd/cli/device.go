package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/smartbedding/panel/internal/device"
)

var deviceCmd = &cobra.Command{
	Use:   "device",
	Short: "Tools for working without a physical controller",
}

var deviceServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run a simulated controller",
	Long: `Serves the controller API (auth, verify, connectivity) in the foreground
so the panel can be used without hardware.`,
	RunE: func(cmd *cobra.Command, args []string) error {

		if code, _ := cmd.Flags().GetString("code"); len(code) > 0 {
			cfg.Server.Code = code
		}
		if port, _ := cmd.Flags().GetInt("port"); port > 0 {
			cfg.Server.Port = port
		}

		ctx, stop := withInterrupt(cmd)
		defer stop()

		server := device.NewServer(cfg)
		if err := server.Start(); err != nil {
			return err
		}

		fmt.Printf("Simulated device listening on %s\n", cfg.GetLocalServerUrl())
		fmt.Printf("Pair with: bedctl --device %s login %s\n", cfg.GetLocalServerUrl(), cfg.Server.Code)

		<-ctx.Done()
		fmt.Println("\nShutting down simulated device...")
		server.Stop()

		return nil
	},
}

func init() {
	deviceServeCmd.Flags().String("code", "", "Pairing code accepted by the simulator")
	deviceServeCmd.Flags().Int("port", 0, "Port to listen on")

	deviceCmd.AddCommand(deviceServeCmd)
	rootCmd.AddCommand(deviceCmd)
}
