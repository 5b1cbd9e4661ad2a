package models

import "time"

// Audit actions recorded for staff operations.
const (
	AuditActionJobCreate        = "JOB_CREATE"
	AuditActionJobUpdate        = "JOB_UPDATE"
	AuditActionJobDelete        = "JOB_DELETE"
	AuditActionStatusUpdate     = "APPLICATION_STATUS_UPDATE"
	AuditActionShortlistBatch   = "SHORTLIST_BATCH"
	AuditActionRoundUpdate      = "INTERVIEW_ROUND_UPDATE"
	AuditActionMarkPlaced       = "MARK_PLACED"
	AuditActionFinishDrive      = "FINISH_DRIVE"
	AuditActionEligibilitySweep = "ELIGIBILITY_SWEEP"
	AuditActionReconcile        = "RECONCILE"
	AuditActionStudentPrune     = "STUDENT_PRUNE"
)

// AuditLog represents an audit trail record.
type AuditLog struct {
	ID         string    `db:"id" json:"id"`
	UserID     *string   `db:"user_id" json:"user_id,omitempty"`
	Action     string    `db:"action" json:"action"`
	Resource   string    `db:"resource" json:"resource"`
	ResourceID *string   `db:"resource_id" json:"resource_id,omitempty"`
	Payload    []byte    `db:"payload" json:"payload,omitempty"`
	IPAddress  string    `db:"ip_address" json:"ip_address"`
	UserAgent  string    `db:"user_agent" json:"user_agent"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
