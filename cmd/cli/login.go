package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"github.com/smartbedding/panel/internal/auth"
)

var loginCmd = &cobra.Command{
	Use:   "login [code]",
	Short: "Pair with the device using its code",
	Long: `Exchanges the numeric code shown by the device for a session token.
The code is prompted for when not given as an argument.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogin,
}

func runLogin(cmd *cobra.Command, args []string) error {

	ctx, cleanup := withInterrupt(cmd)
	defer cleanup()

	var code string
	if len(args) > 0 {
		code = args[0]
	} else {
		prompted, err := promptForCode()
		if err != nil {
			return err
		}
		code = prompted
	}

	app, err := openPanel()
	if err != nil {
		return err
	}
	defer app.Close()

	fmt.Println("Device:", app.Client.Endpoint())

	result, err := app.Login(ctx, code)

	fmt.Print(renderAlerts(app.Alerts))

	if err != nil {
		if errors.Is(err, auth.ErrInvalidCode) {
			return err
		}
		return fmt.Errorf("login failed: %w", err)
	}

	if !result.Accepted {
		return fmt.Errorf("login rejected by device")
	}

	fmt.Println()
	fmt.Println("Run 'bedctl status' to open the panel.")

	return nil
}

// promptForCode asks for the device code without echoing it
func promptForCode() (string, error) {
	fmt.Println(titleStyle.Render("Pair with your SmartBedding"))

	var code string

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Device code").
				Description("The numeric code configured on the controller").
				EchoMode(huh.EchoModePassword).
				Validate(func(s string) error {
					return auth.ValidateCode(s)
				}).
				Value(&code),
		),
	)

	if err := form.Run(); err != nil {
		return "", fmt.Errorf("login prompt cancelled: %w", err)
	}

	return strings.TrimSpace(code), nil
}

func init() {
	// Add the command to the root
	rootCmd.AddCommand(loginCmd)
}
