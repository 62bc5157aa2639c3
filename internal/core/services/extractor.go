// Package services contains the use-case orchestration between the CLI
// and the driven adapters.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rollcall-labs/rollcall/internal/connectors/microsoft/meetings"
	"github.com/rollcall-labs/rollcall/internal/core/domain"
	"github.com/rollcall-labs/rollcall/internal/core/ports/driven"
	"github.com/rollcall-labs/rollcall/internal/invite"
	"github.com/rollcall-labs/rollcall/internal/logger"
)

// ErrReportNotReady indicates the meeting has no attendance report yet.
// Reports are published only after a meeting ends.
var ErrReportNotReady = errors.New("attendance report not available yet (has the meeting ended?)")

// defaultPollInterval is how often --wait re-checks for a report.
const defaultPollInterval = time.Minute

// MeetingsClient is the slice of the Graph meetings API the extractor
// needs.
type MeetingsClient interface {
	GetMeeting(ctx context.Context, meetingID string) (*meetings.OnlineMeeting, error)
	GetAttendanceReports(ctx context.Context, meetingID string) ([]meetings.AttendanceReport, error)
	GetAttendanceRecords(ctx context.Context, meetingID, reportID string) ([]meetings.AttendanceRecord, error)
}

// ExtractOptions selects the meeting and controls waiting behaviour.
type ExtractOptions struct {
	// InviteHTML is the raw invite email body; mutually exclusive with
	// ThreadID.
	InviteHTML string
	// ThreadID is an explicit online meeting ID ("19:meeting_...").
	ThreadID string
	// Wait polls until a report appears instead of failing immediately.
	Wait bool
	// PollInterval overrides the wait poll cadence.
	PollInterval time.Duration
}

// ExtractResult is what one extraction run produced.
type ExtractResult struct {
	Meeting    domain.MeetingInfo
	Subject    string
	Report     domain.Report
	Entries    []domain.AttendanceEntry
	NumReports int
	ExportPath string
}

// Extractor runs the full extraction workflow: resolve meeting, fetch
// attendance, archive, export.
type Extractor struct {
	client    MeetingsClient
	store     driven.ReportStore
	outputDir string
}

// NewExtractor creates an extraction service. store may be nil to skip
// archiving; outputDir may be empty to skip JSON export.
func NewExtractor(client MeetingsClient, store driven.ReportStore, outputDir string) *Extractor {
	return &Extractor{
		client:    client,
		store:     store,
		outputDir: outputDir,
	}
}

// Extract runs the workflow for one meeting.
func (e *Extractor) Extract(ctx context.Context, opts ExtractOptions) (*ExtractResult, error) {
	info, err := resolveMeeting(opts)
	if err != nil {
		return nil, err
	}

	result := &ExtractResult{Meeting: info}

	// Subject lookup is best-effort; tenants can restrict meeting reads
	// while still exposing attendance.
	if meeting, err := e.client.GetMeeting(ctx, info.ThreadID); err == nil {
		result.Subject = meeting.Subject
	} else {
		logger.Debug("extract: meeting lookup failed for %s: %v", info.ThreadID, err)
	}

	reports, err := e.awaitReports(ctx, info.ThreadID, opts)
	if err != nil {
		return nil, err
	}
	result.NumReports = len(reports)

	var records []meetings.AttendanceRecord
	for _, report := range reports {
		logger.Debug("extract: fetching records for report %s", report.ID)
		recs, err := e.client.GetAttendanceRecords(ctx, info.ThreadID, report.ID)
		if err != nil {
			return nil, fmt.Errorf("report %s: %w", report.ID, err)
		}
		records = append(records, recs...)
	}

	for i := range records {
		result.Entries = append(result.Entries, records[i].ToEntry())
	}

	raw, err := json.Marshal(struct {
		Reports           []meetings.AttendanceReport `json:"reports"`
		AttendanceRecords []meetings.AttendanceRecord `json:"attendance_records"`
	}{Reports: reports, AttendanceRecords: records})
	if err != nil {
		return nil, fmt.Errorf("encode report payload: %w", err)
	}

	result.Report = domain.Report{
		ID:        uuid.NewString(),
		MeetingID: info.MeetingID,
		ThreadID:  info.ThreadID,
		Subject:   result.Subject,
		FetchedAt: time.Now().UTC(),
		Raw:       raw,
	}

	if e.store != nil {
		if err := e.store.SaveReport(ctx, result.Report, result.Entries); err != nil {
			return nil, fmt.Errorf("archive report: %w", err)
		}
	}

	if e.outputDir != "" {
		path, err := e.export(result)
		if err != nil {
			return nil, err
		}
		result.ExportPath = path
	}

	return result, nil
}

// awaitReports fetches attendance reports, polling when Wait is set.
func (e *Extractor) awaitReports(
	ctx context.Context, threadID string, opts ExtractOptions,
) ([]meetings.AttendanceReport, error) {
	interval := opts.PollInterval
	if interval <= 0 {
		interval = defaultPollInterval
	}

	for {
		reports, err := e.client.GetAttendanceReports(ctx, threadID)
		if err != nil {
			return nil, err
		}
		if len(reports) > 0 {
			return reports, nil
		}
		if !opts.Wait {
			return nil, ErrReportNotReady
		}

		logger.Info("no attendance report yet for %s, retrying in %s", threadID, interval)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(interval):
		}
	}
}

// export writes the report to the output directory as JSON, mirroring the
// archive payload plus the extracted meeting info.
func (e *Extractor) export(result *ExtractResult) (string, error) {
	if err := os.MkdirAll(e.outputDir, 0755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}

	doc := struct {
		MeetingInfo    domain.MeetingInfo `json:"meeting_info"`
		Subject        string             `json:"subject,omitempty"`
		AttendanceData json.RawMessage    `json:"attendance_data"`
		ExtractedAt    time.Time          `json:"extracted_at"`
	}{
		MeetingInfo:    result.Meeting,
		Subject:        result.Subject,
		AttendanceData: result.Report.Raw,
		ExtractedAt:    result.Report.FetchedAt,
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode export: %w", err)
	}

	name := fmt.Sprintf("attendance_%s_%s.json",
		exportNamePart(result), result.Report.FetchedAt.Format("20060102_150405"))
	path := filepath.Join(e.outputDir, name)

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write export: %w", err)
	}
	return path, nil
}

// exportNamePart picks a filesystem-safe identifier for the export name.
func exportNamePart(result *ExtractResult) string {
	id := result.Meeting.MeetingID
	if id == "" {
		id = result.Meeting.ThreadID
	}
	if id == "" {
		id = "unknown"
	}
	replacer := strings.NewReplacer(" ", "_", ":", "_", "@", "_", "/", "_")
	return replacer.Replace(id)
}

// resolveMeeting turns the options into a meeting identity.
func resolveMeeting(opts ExtractOptions) (domain.MeetingInfo, error) {
	switch {
	case opts.ThreadID != "":
		return domain.MeetingInfo{ThreadID: opts.ThreadID}, nil
	case opts.InviteHTML != "":
		info, err := invite.ParseHTML(opts.InviteHTML)
		if err != nil {
			return domain.MeetingInfo{}, err
		}
		if !info.HasThreadID() {
			return domain.MeetingInfo{}, fmt.Errorf(
				"%w: invite has no Teams join link", domain.ErrInvalidInput)
		}
		return info, nil
	default:
		return domain.MeetingInfo{}, fmt.Errorf(
			"%w: either an invite or a meeting ID is required", domain.ErrInvalidInput)
	}
}
