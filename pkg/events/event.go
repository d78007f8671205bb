package events

import "time"

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "report.submitted").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// Event type codes carried on the bus. Subjects are "events.<type>".
const (
	TypeReportSubmitted = "report.submitted"
	TypeReportSynced    = "report.synced"
	TypeUserLogin       = "user.login"
)

type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// NewReportSubmitted is emitted once a report passes the completeness
// gate and is locked for editing.
func NewReportSubmitted(reportId, ownerId, templateId string) Event {
	return BaseEvent{
		Type: TypeReportSubmitted,
		Data: map[string]interface{}{
			"report_id":   reportId,
			"owner_id":    ownerId,
			"template_id": templateId,
		},
		OccurredAt: time.Now(),
	}
}

// NewReportSynced is emitted after a successful remote save.
func NewReportSynced(reportId, ownerId string) Event {
	return BaseEvent{
		Type: TypeReportSynced,
		Data: map[string]interface{}{
			"report_id": reportId,
			"owner_id":  ownerId,
		},
		OccurredAt: time.Now(),
	}
}
