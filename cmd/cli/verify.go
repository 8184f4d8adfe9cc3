package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/smartbedding/panel/internal/models"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check the session against the device",
	Long: `Asks the device whether the stored token is still valid. A rejected
token is removed locally.`,
	RunE: func(cmd *cobra.Command, args []string) error {

		ctx, cleanup := withInterrupt(cmd)
		defer cleanup()

		app, err := openPanel()
		if err != nil {
			return err
		}
		defer app.Close()

		decision := app.Guard.Evaluate(ctx, models.ViewPanel)

		fmt.Println(labelStyle.Render("Device") + app.Client.Endpoint())
		fmt.Println(labelStyle.Render("Session") + string(decision.State))

		if !decision.Allow {
			fmt.Println(errorStyle.Render("Not authorized: " + decision.Reason))
			return fmt.Errorf("session is not valid")
		}

		fmt.Println(successStyle.Render("Session verified"))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}
