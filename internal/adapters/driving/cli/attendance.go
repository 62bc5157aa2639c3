package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/rollcall-labs/rollcall/internal/core/services"
	"github.com/rollcall-labs/rollcall/internal/logger"
)

var (
	fetchInvitePath   string
	fetchThreadID     string
	fetchWait         bool
	fetchPollInterval time.Duration
	fetchOutputDir    string
	fetchNoArchive    bool
)

var attendanceCmd = &cobra.Command{
	Use:   "attendance",
	Short: "Fetch and browse meeting attendance reports",
}

var attendanceFetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch the attendance report for one meeting",
	Long: `Fetch pulls attendance for a finished Teams meeting.

The meeting is identified either by a saved invite email (--invite, an HTML
file; the Teams join link inside is parsed) or directly by its thread ID
(--meeting "19:meeting_...@thread.v2").

Attendance reports appear only after a meeting ends, sometimes minutes
later. With --wait the command polls until one is published.

The result is archived locally and exported as JSON to the output
directory.`,
	RunE: runAttendanceFetch,
}

var attendanceListCmd = &cobra.Command{
	Use:   "list",
	Short: "List archived attendance reports",
	RunE: func(cmd *cobra.Command, _ []string) error {
		reports, err := reportStore.ListReports(cmd.Context())
		if err != nil {
			return fmt.Errorf("listing reports: %w", err)
		}
		cmd.Print(renderReportList(reports))
		return nil
	},
}

var attendanceShowCmd = &cobra.Command{
	Use:   "show <report-id>",
	Short: "Show an archived attendance report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		report, entries, err := reportStore.GetReport(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		cmd.Print(renderAttendance(report.Subject, report.ThreadID, entries))
		return nil
	},
}

func runAttendanceFetch(cmd *cobra.Command, _ []string) error {
	if fetchInvitePath == "" && fetchThreadID == "" {
		return fmt.Errorf("specify the meeting with --invite or --meeting")
	}
	if fetchInvitePath != "" && fetchThreadID != "" {
		return fmt.Errorf("--invite and --meeting are mutually exclusive")
	}

	var inviteHTML string
	if fetchInvitePath != "" {
		body, err := os.ReadFile(fetchInvitePath)
		if err != nil {
			return fmt.Errorf("reading invite: %w", err)
		}
		inviteHTML = string(body)
	}

	creds, err := loadCredentials()
	if err != nil {
		return err
	}
	provider := newTokenProvider(creds)
	client, err := newMeetingsClient(provider)
	if err != nil {
		return err
	}

	outputDir := fetchOutputDir
	if outputDir == "" {
		settings, err := settingsStore.Load()
		if err != nil {
			return fmt.Errorf("loading settings: %w", err)
		}
		outputDir = settings.OutputDir
	}

	store := reportStore
	if fetchNoArchive {
		store = nil
	}
	extractor := services.NewExtractor(client, store, outputDir)

	ctx := cmd.Context()
	if fetchWait {
		// Long waits can outlive the access token several times over. The
		// provider re-reads the credential file on every refresh, so a
		// rotation by another process is picked up; surface it in debug
		// output so stalls are explainable.
		watchCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		if changes, err := credentialStore.Watch(watchCtx); err == nil {
			go func() {
				for range changes {
					logger.Debug("attendance fetch: credential file changed, next refresh uses the new values")
				}
			}()
		} else {
			logger.Debug("attendance fetch: credential watch unavailable: %v", err)
		}
	}

	result, err := extractor.Extract(ctx, services.ExtractOptions{
		InviteHTML:   inviteHTML,
		ThreadID:     fetchThreadID,
		Wait:         fetchWait,
		PollInterval: fetchPollInterval,
	})
	if err != nil {
		return err
	}

	cmd.Print(renderAttendance(result.Subject, result.Meeting.ThreadID, result.Entries))
	if result.ExportPath != "" {
		cmd.Printf("\nExported to %s\n", result.ExportPath)
	}
	if store != nil {
		cmd.Printf("Archived as %s\n", result.Report.ID)
	}
	return nil
}

func init() {
	attendanceFetchCmd.Flags().StringVar(&fetchInvitePath, "invite", "", "path to a saved invite email (HTML)")
	attendanceFetchCmd.Flags().StringVar(&fetchThreadID, "meeting", "", "meeting thread ID (19:meeting_...)")
	attendanceFetchCmd.Flags().BoolVar(&fetchWait, "wait", false, "poll until an attendance report is published")
	attendanceFetchCmd.Flags().DurationVar(&fetchPollInterval, "poll-interval", 0, "how often --wait re-checks (default 1m)")
	attendanceFetchCmd.Flags().StringVar(&fetchOutputDir, "output", "", "override the JSON export directory")
	attendanceFetchCmd.Flags().BoolVar(&fetchNoArchive, "no-archive", false, "skip the local report archive")

	attendanceCmd.AddCommand(attendanceFetchCmd)
	attendanceCmd.AddCommand(attendanceListCmd)
	attendanceCmd.AddCommand(attendanceShowCmd)
	rootCmd.AddCommand(attendanceCmd)
}
