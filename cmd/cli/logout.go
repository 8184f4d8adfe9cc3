package cli

import (
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the session for the device",
	RunE: func(cmd *cobra.Command, args []string) error {

		app, err := openPanel()
		if err != nil {
			return err
		}
		defer app.Close()

		if !app.Session.IsLoggedIn() {
			fmt.Println(infoStyle.Render("No active session."))
			return nil
		}

		force, _ := cmd.Flags().GetBool("yes")
		if !force {
			confirmed := false

			form := huh.NewForm(
				huh.NewGroup(
					huh.NewConfirm().
						Title(fmt.Sprintf("Log out from %s?", app.Client.Endpoint())).
						Description("You will need the device code to pair again").
						Value(&confirmed),
				),
			)

			if err := form.Run(); err != nil {
				return fmt.Errorf("logout prompt cancelled: %w", err)
			}

			if !confirmed {
				fmt.Println("Logout cancelled.")
				return nil
			}
		}

		if err := app.Logout(); err != nil {
			return err
		}

		fmt.Print(renderAlerts(app.Alerts))
		return nil
	},
}

func init() {
	logoutCmd.Flags().BoolP("yes", "y", false, "Do not ask for confirmation")
	rootCmd.AddCommand(logoutCmd)
}
