package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/smartbedding/panel/internal/common"
	"github.com/smartbedding/panel/internal/config"
	"github.com/smartbedding/panel/internal/models"
)

type snapshotMsg struct {
	snapshot models.Snapshot
}

// pollingStoppedMsg is sent once the refresher closes its updates
type pollingStoppedMsg struct{}

type tuiModel struct {
	endpoint  string
	updates   <-chan models.Snapshot
	logs      *config.RecentLogs
	spinner   spinner.Model
	snapshot  models.Snapshot
	answer    *models.ConnectivityAnswer
	decodeErr error
	stopped   bool
	quitting  bool
}

func newTuiModel(endpoint string, initial models.Snapshot, updates <-chan models.Snapshot, logs *config.RecentLogs) tuiModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#3b82f6"))

	m := tuiModel{
		endpoint: endpoint,
		updates:  updates,
		logs:     logs,
		spinner:  s,
	}
	return m.apply(initial)
}

func (m tuiModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.waitForSnapshot)
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case snapshotMsg:
		m = m.apply(msg.snapshot)
		return m, m.waitForSnapshot

	case pollingStoppedMsg:
		// The session ended underneath us
		m.stopped = true
		return m, tea.Quit

	case tea.WindowSizeMsg:
		return m, nil
	}

	return m, nil
}

func (m tuiModel) apply(snapshot models.Snapshot) tuiModel {
	m.snapshot = snapshot
	if snapshot.HasData() {
		m.answer, m.decodeErr = models.DecodeConnectivity(snapshot.Data)
	}
	return m
}

func (m tuiModel) waitForSnapshot() tea.Msg {
	snapshot, ok := <-m.updates
	if !ok {
		return pollingStoppedMsg{}
	}
	return snapshotMsg{snapshot: snapshot}
}

func (m tuiModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("SmartBedding"))
	b.WriteString("\n")
	b.WriteString(labelStyle.Render("Device") + m.endpoint + "\n")

	if m.stopped {
		b.WriteString(errorStyle.Render("Session ended. Run 'bedctl login' to pair again."))
		b.WriteString("\n")
		return b.String()
	}

	if m.snapshot.Loading {
		b.WriteString(fmt.Sprintf("%s Loading device status...\n", m.spinner.View()))
		return b.String()
	}

	b.WriteString(m.renderStatusLine())
	b.WriteString("\n\n")

	switch {
	case m.decodeErr != nil:
		b.WriteString(errorStyle.Render("Unreadable status: " + m.decodeErr.Error()))
		b.WriteString("\n")
	case m.answer != nil:
		b.WriteString(panelStyle.Render(renderConnectivity(m.answer)))
		b.WriteString("\n")
	default:
		b.WriteString(mutedStyle.Render("No data received yet."))
		b.WriteString("\n")
	}

	b.WriteString(m.renderWarnings())
	if m.updates != nil {
		b.WriteString(mutedStyle.Render("Press q to quit"))
		b.WriteString("\n")
	}

	return b.String()
}

func (m tuiModel) renderStatusLine() string {
	var badge string

	cycle := m.snapshot.LastCycle
	switch {
	case cycle == nil:
		badge = statusBadgeStyle.Background(lipgloss.Color("#6b7280")).Render("WAITING")
	case cycle.Succeeded():
		badge = statusBadgeStyle.Background(lipgloss.Color("#10b981")).Render("ONLINE")
	default:
		badge = statusBadgeStyle.Background(lipgloss.Color("#f59e0b")).Render("STALE")
	}

	line := badge
	if !m.snapshot.UpdatedAt.IsZero() {
		line += mutedStyle.Render(fmt.Sprintf("  updated %s", m.snapshot.UpdatedAt.Format(time.TimeOnly)))
	}
	if m.snapshot.Refreshing {
		line += "  " + m.spinner.View()
	}
	if cycle != nil && !cycle.Succeeded() && len(cycle.Message) > 0 {
		line += "\n" + warningStyle.Render(cycle.Message)
	}

	return line
}

func (m tuiModel) renderWarnings() string {
	if m.logs == nil {
		return ""
	}

	entries := m.logs.GetEventsWithFilter(config.LogFilter{
		Levels: []logrus.Level{logrus.WarnLevel, logrus.ErrorLevel},
		Limit:  3,
	})
	if len(entries) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render("Recent warnings"))
	b.WriteString("\n")
	for _, entry := range entries {
		line := fmt.Sprintf("%s %s", entry.Time.Format(time.TimeOnly), entry.Message)
		if msg := entry.ErrorMessage(); len(msg) > 0 {
			line += ": " + msg
		}
		b.WriteString(mutedStyle.Render(line))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	return b.String()
}

func renderConnectivity(answer *models.ConnectivityAnswer) string {
	var b strings.Builder

	b.WriteString(headerStyle.Render("Connectivity"))
	b.WriteString("\n")
	b.WriteString(labelStyle.Render("Access point") + onOff(answer.APMode) + "\n")
	b.WriteString(labelStyle.Render("MQTT broker") + onOff(answer.BrokerMQTT) + "\n")

	ssid := answer.WifiSSID
	if len(ssid) == 0 {
		ssid = mutedStyle.Render("not connected")
	}
	b.WriteString(labelStyle.Render("Wi-Fi") + ssid)

	if len(answer.Networks) > 0 {
		b.WriteString("\n\n")
		b.WriteString(headerStyle.Render("Networks in range"))
		for _, network := range answer.Networks {
			lock := ""
			if network.Secured {
				lock = " (secured)"
			}
			b.WriteString(fmt.Sprintf("\n%s%d dBm%s", labelStyle.Render(network.SSID), network.Signal, lock))
		}
	}

	return b.String()
}

func onOff(on bool) string {
	if on {
		return activeStyle.Render("on")
	}
	return inactiveStyle.Render("off")
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Open the live device panel",
	Long: `Verifies the session with the device and then shows its status,
refreshed every polling interval. Use --once to print a single reading.`,
	RunE: runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {

	ctx, cleanup := withInterrupt(cmd)
	defer cleanup()

	if interval, _ := cmd.Flags().GetString("interval"); len(interval) > 0 {
		parsed, err := common.ParseDuration(interval)
		if err != nil {
			return err
		}
		cfg.Polling.Interval = parsed
	}

	app, err := openPanel()
	if err != nil {
		return err
	}
	defer app.Close()

	refresher, _, err := app.OpenPanel(ctx)
	if err != nil {
		fmt.Print(renderAlerts(app.Alerts))
		return err
	}

	updates, unsubscribe := refresher.Updates()
	defer unsubscribe()

	if once, _ := cmd.Flags().GetBool("once"); once {
		return printOnce(app.Client.Endpoint(), refresher.Snapshot(), updates)
	}

	// Log lines would tear the TUI; the ring buffer still records them
	logrus.SetOutput(io.Discard)
	defer logrus.SetOutput(os.Stderr)

	model := newTuiModel(app.Client.Endpoint(), refresher.Snapshot(), updates, cfg.GetRecentLogs())
	program := tea.NewProgram(model, tea.WithContext(ctx))

	finalModel, err := program.Run()
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	finalTuiModel, ok := finalModel.(tuiModel)
	if ok && finalTuiModel.stopped {
		return fmt.Errorf("session ended")
	}

	return nil
}

// printOnce waits for the first settled poll and prints it
func printOnce(endpoint string, current models.Snapshot, updates <-chan models.Snapshot) error {
	show := func(snapshot models.Snapshot) error {
		if cycle := snapshot.LastCycle; cycle != nil && !cycle.Succeeded() {
			return fmt.Errorf("device gave no status: %s", cycle.Message)
		}
		fmt.Print(newTuiModel(endpoint, snapshot, nil, nil).View())
		return nil
	}

	if !current.Loading {
		return show(current)
	}

	for snapshot := range updates {
		if snapshot.Loading || snapshot.Refreshing {
			continue
		}
		return show(snapshot)
	}

	return fmt.Errorf("session ended")
}

func init() {
	for _, cmd := range []*cobra.Command{rootCmd, statusCmd} {
		cmd.Flags().Bool("once", false, "Print one reading and exit")
		cmd.Flags().String("interval", "", "Polling interval, e.g. 8s or PT8S")
	}
	rootCmd.AddCommand(statusCmd)
}
