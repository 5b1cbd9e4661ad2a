package models

import "time"

// NotificationTemplate selects the message sent to a recipient.
type NotificationTemplate string

const (
	TemplateApplied             NotificationTemplate = "applied"
	TemplateAutoShortlisted     NotificationTemplate = "auto_shortlisted"
	TemplateShortlisted         NotificationTemplate = "shortlisted"
	TemplateInProcess           NotificationTemplate = "in_process"
	TemplatePlaced              NotificationTemplate = "placed"
	TemplateRejected            NotificationTemplate = "rejected"
	TemplateEligibleShortlisted NotificationTemplate = "eligible_shortlisted"
	TemplateDriveFinished       NotificationTemplate = "drive_finished"
)

// NotificationEvent is emitted towards the notification collaborator.
type NotificationEvent struct {
	ID          string               `json:"id"`
	RecipientID string               `json:"recipient_id"`
	Template    NotificationTemplate `json:"template"`
	JobID       string               `json:"job_id"`
	Context     map[string]string    `json:"context,omitempty"`
	OccurredAt  time.Time            `json:"occurred_at"`
}
