package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
	"github.com/smartbedding/panel/internal/common"
	"github.com/smartbedding/panel/internal/config/environment"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	// Version needs no config
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("bedctl %s", common.ReadBuildInfo())
		fmt.Printf(" %s/%s\n", environment.DetectOperatingSystem(), runtime.GOARCH)
	},
}

func init() {

	rootCmd.AddCommand(versionCmd)
}
