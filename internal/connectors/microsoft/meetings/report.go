package meetings

import (
	"time"

	"github.com/rollcall-labs/rollcall/internal/core/domain"
)

// OnlineMeeting represents an online meeting from Microsoft Graph.
type OnlineMeeting struct {
	ID              string `json:"id"`
	Subject         string `json:"subject"`
	JoinWebURL      string `json:"joinWebUrl"`
	StartDateTime   string `json:"startDateTime"`
	EndDateTime     string `json:"endDateTime"`
	CreationDateTme string `json:"creationDateTime"`
}

// AttendanceReport represents one attendance report for a meeting.
// Meetings that are restarted produce multiple reports.
type AttendanceReport struct {
	ID                    string `json:"id"`
	TotalParticipantCount int    `json:"totalParticipantCount"`
	MeetingStartDateTime  string `json:"meetingStartDateTime"`
	MeetingEndDateTime    string `json:"meetingEndDateTime"`
}

// AttendanceRecord represents one attendee's presence in a report.
type AttendanceRecord struct {
	Identity                 Identity             `json:"identity"`
	EmailAddress             string               `json:"emailAddress"`
	Role                     string               `json:"role"`
	JoinDateTime             string               `json:"joinDateTime"`
	LeaveDateTime            string               `json:"leaveDateTime"`
	TotalAttendanceInSeconds int                  `json:"totalAttendanceInSeconds"`
	AttendanceIntervals      []AttendanceInterval `json:"attendanceIntervals"`
}

// Identity identifies an attendee.
type Identity struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	TenantID    string `json:"tenantId"`
	// EmailAddress is nested for records produced from invited attendees.
	EmailAddress *struct {
		Name    string `json:"name"`
		Address string `json:"address"`
	} `json:"emailAddress"`
}

// AttendanceInterval is one join/leave span within a meeting.
type AttendanceInterval struct {
	JoinDateTime      string `json:"joinDateTime"`
	LeaveDateTime     string `json:"leaveDateTime"`
	DurationInSeconds int    `json:"durationInSeconds"`
}

// Email returns the best available email address for the record.
func (r *AttendanceRecord) Email() string {
	if r.Identity.EmailAddress != nil && r.Identity.EmailAddress.Address != "" {
		return r.Identity.EmailAddress.Address
	}
	return r.EmailAddress
}

// Name returns the best available display name for the record.
func (r *AttendanceRecord) Name() string {
	if r.Identity.DisplayName != "" {
		return r.Identity.DisplayName
	}
	if r.Identity.EmailAddress != nil {
		return r.Identity.EmailAddress.Name
	}
	return ""
}

// ToEntry converts a Graph attendance record to an archive entry.
func (r *AttendanceRecord) ToEntry() domain.AttendanceEntry {
	entry := domain.AttendanceEntry{
		DisplayName: r.Name(),
		Email:       r.Email(),
		Duration:    time.Duration(r.TotalAttendanceInSeconds) * time.Second,
	}

	if t, err := time.Parse(time.RFC3339, r.JoinDateTime); err == nil {
		entry.JoinedAt = t
	}
	if t, err := time.Parse(time.RFC3339, r.LeaveDateTime); err == nil {
		entry.LeftAt = t
	}

	// Some records carry times only on their intervals.
	if entry.JoinedAt.IsZero() && len(r.AttendanceIntervals) > 0 {
		if t, err := time.Parse(time.RFC3339, r.AttendanceIntervals[0].JoinDateTime); err == nil {
			entry.JoinedAt = t
		}
	}
	if entry.LeftAt.IsZero() && len(r.AttendanceIntervals) > 0 {
		last := r.AttendanceIntervals[len(r.AttendanceIntervals)-1]
		if t, err := time.Parse(time.RFC3339, last.LeaveDateTime); err == nil {
			entry.LeftAt = t
		}
	}

	return entry
}
