package client

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	api "github.com/oshokin/radio-alarm/internal/api/grpc/alarm"
	"github.com/oshokin/radio-alarm/internal/domain/alarm"
)

// nextFireLayout renders fire times in the table.
const nextFireLayout = "Mon 2006-01-02 15:04"

// Styles
//
//nolint:gochecknoglobals // Read-only styles.
var (
	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			Padding(0, 1)

	cellStyle = lipgloss.NewStyle().
			Padding(0, 1)

	disabledStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Padding(0, 1)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("170")).
			Bold(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Width(10)
)

// printViews renders alarms as a table.
func printViews(out io.Writer, views ...api.View) error {
	rows := make([][]string, 0, len(views))
	for _, v := range views {
		rows = append(rows, viewRow(v))
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("241"))).
		StyleFunc(func(row, _ int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case row >= 0 && row < len(views) && !views[row].Alarm.Enabled:
				return disabledStyle
			default:
				return cellStyle
			}
		}).
		Headers("ID", "TIME", "STATION", "ENABLED", "REPEAT", "DAYS", "NEXT").
		Rows(rows...)

	_, err := fmt.Fprintln(out, t.Render())

	return err
}

// viewRow renders one table row.
func viewRow(v api.View) []string {
	a := v.Alarm

	days := "-"
	if a.Repeating {
		days = a.WeekDays.String()
		if days == "" {
			days = "none"
		}
	}

	next := "-"
	if !v.NextFire.IsZero() {
		next = formatNextFire(v.NextFire)
	}

	name := ""
	if a.Station != nil {
		name = a.Station.Name
	}

	return []string{
		strconv.Itoa(a.ID),
		a.Clock(),
		name,
		yesNo(a.Enabled),
		yesNo(a.Repeating),
		days,
		next,
	}
}

// printStation renders station details as label/value lines.
func printStation(out io.Writer, station *alarm.Station) error {
	lines := [][2]string{
		{"Name", station.Name},
		{"URL", station.URL},
		{"Homepage", station.Homepage},
		{"Country", station.Country},
		{"Tags", station.Tags},
		{"UUID", station.UUID},
	}

	if station.Bitrate > 0 {
		lines = append(lines, [2]string{"Bitrate", strconv.Itoa(station.Bitrate) + " kbps"})
	}

	for _, line := range lines {
		if line[1] == "" {
			continue
		}

		if _, err := fmt.Fprintln(out, labelStyle.Render(line[0])+line[1]); err != nil {
			return err
		}
	}

	return nil
}

// printStatus renders a one-line status message.
func printStatus(out io.Writer, message string) error {
	_, err := fmt.Fprintln(out, statusStyle.Render(message))

	return err
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}

	return "no"
}

// formatNextFire renders a fire time in the local zone.
func formatNextFire(t time.Time) string {
	return t.Local().Format(nextFireLayout)
}
