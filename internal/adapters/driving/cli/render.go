package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/rollcall-labs/rollcall/internal/core/domain"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	headerStyle = lipgloss.NewStyle().Bold(true).Underline(true)
	faintStyle  = lipgloss.NewStyle().Faint(true)
	countStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)

// renderAttendance renders one report's attendee table.
func renderAttendance(subject, threadID string, entries []domain.AttendanceEntry) string {
	var b strings.Builder

	title := subject
	if title == "" {
		title = threadID
	}
	b.WriteString(titleStyle.Render(title) + "\n")
	b.WriteString(countStyle.Render(fmt.Sprintf("%d attendee(s)", len(entries))) + "\n\n")

	if len(entries) == 0 {
		b.WriteString(faintStyle.Render("no attendance records") + "\n")
		return b.String()
	}

	nameW, emailW := len("Name"), len("Email")
	for _, e := range entries {
		if len(e.DisplayName) > nameW {
			nameW = len(e.DisplayName)
		}
		if len(e.Email) > emailW {
			emailW = len(e.Email)
		}
	}

	b.WriteString(headerStyle.Render(fmt.Sprintf("%-*s  %-*s  %-8s  %-8s  %s",
		nameW, "Name", emailW, "Email", "Joined", "Left", "Duration")) + "\n")
	for _, e := range entries {
		b.WriteString(fmt.Sprintf("%-*s  %-*s  %-8s  %-8s  %s\n",
			nameW, e.DisplayName, emailW, e.Email,
			clockOrDash(e.JoinedAt), clockOrDash(e.LeftAt), formatDuration(e.Duration)))
	}
	return b.String()
}

// renderReportList renders the archived report index.
func renderReportList(reports []domain.Report) string {
	if len(reports) == 0 {
		return faintStyle.Render("no archived reports; run 'rollcall attendance fetch' first") + "\n"
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("%-36s  %-19s  %s", "ID", "Fetched", "Meeting")) + "\n")
	for _, r := range reports {
		label := r.Subject
		if label == "" {
			label = r.ThreadID
		}
		b.WriteString(fmt.Sprintf("%-36s  %-19s  %s\n",
			r.ID, r.FetchedAt.Local().Format("2006-01-02 15:04:05"), label))
	}
	return b.String()
}

func clockOrDash(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("15:04:05")
}
