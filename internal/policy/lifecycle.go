package policy

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/noah-isme/campus-placement-api/internal/models"
)

// ErrInvalidTransition is matched by every TransitionError.
var ErrInvalidTransition = errors.New("invalid status transition")

// TransitionError explains why a change was refused.
type TransitionError struct {
	From   models.ApplicationStatus
	To     models.ApplicationStatus
	Reason string
}

func (e *TransitionError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("cannot move application from %s to %s: %s", e.From, e.To, e.Reason)
	}
	return fmt.Sprintf("cannot move application from %s to %s", e.From, e.To)
}

// Is lets errors.Is match ErrInvalidTransition.
func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

// RoundUpdate records the outcome of a named interview round.
type RoundUpdate struct {
	Name    string
	Date    *time.Time
	Status  models.RoundStatus
	Remarks *string
}

// Change is a requested status change plus the fields mirrored to both copies.
type Change struct {
	Status       models.ApplicationStatus
	Round        *RoundUpdate
	CurrentRound *string
	PackageLPA   *float64
	JoiningDate  *time.Time
	OfferLetter  *string
	Remarks      *string
	At           time.Time
}

// Lifecycle is the application state machine.
type Lifecycle struct {
	next map[models.ApplicationStatus][]models.ApplicationStatus
}

// DefaultLifecycle allows applied -> shortlisted -> in-process -> placed, rejection
// from any non-terminal state and placement from any non-terminal state.
func DefaultLifecycle() Lifecycle {
	return Lifecycle{next: map[models.ApplicationStatus][]models.ApplicationStatus{
		models.StatusApplied:     {models.StatusShortlisted, models.StatusRejected, models.StatusPlaced},
		models.StatusShortlisted: {models.StatusInProcess, models.StatusRejected, models.StatusPlaced},
		models.StatusInProcess:   {models.StatusRejected, models.StatusPlaced},
	}}
}

// CanTransition reports whether from may move to a different status to.
func (l Lifecycle) CanTransition(from, to models.ApplicationStatus) bool {
	for _, allowed := range l.next[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Initial returns the creation status for a criteria verdict.
func (l Lifecycle) Initial(verdict CriteriaResult) models.ApplicationStatus {
	if verdict.AutoShortlist {
		return models.StatusShortlisted
	}
	return models.StatusApplied
}

// New builds a fresh application for the verdict.
func (l Lifecycle) New(id, jobID, studentID string, verdict CriteriaResult, at time.Time) models.Application {
	app := models.Application{
		ID:        id,
		JobID:     jobID,
		StudentID: studentID,
		Status:    l.Initial(verdict),
		Rounds:    []models.InterviewRound{},
		AppliedAt: at,
		Version:   1,
		UpdatedAt: at,
	}
	if app.Status == models.StatusShortlisted {
		app.ShortlistedAt = &at
	}
	return app
}

// Apply mutates app according to ch and reports whether anything changed.
// Re-applying a change that is already in effect is a no-op, so retries are safe.
func (l Lifecycle) Apply(app *models.Application, ch Change) (bool, error) {
	if !ch.Status.Valid() {
		return false, &TransitionError{From: app.Status, To: ch.Status, Reason: "unknown status"}
	}
	if ch.At.IsZero() {
		ch.At = time.Now().UTC()
	}
	at := ch.At
	from := app.Status
	changed := false

	if from != ch.Status {
		if !l.CanTransition(from, ch.Status) {
			reason := ""
			if from.Terminal() {
				reason = fmt.Sprintf("%s is final", from)
			}
			return false, &TransitionError{From: from, To: ch.Status, Reason: reason}
		}
		app.Status = ch.Status
		changed = true
		switch ch.Status {
		case models.StatusShortlisted:
			app.ShortlistedAt = &at
		case models.StatusRejected:
			app.RejectedAt = &at
		case models.StatusPlaced:
			app.PlacedAt = &at
			app.IsSelected = true
			app.SelectionDate = &at
		}
	}

	if ch.Round != nil {
		if ch.Status != models.StatusInProcess {
			return false, &TransitionError{From: from, To: ch.Status, Reason: "interview rounds are recorded on in-process applications"}
		}
		roundChanged, err := upsertRound(app, *ch.Round, at)
		if err != nil {
			return false, err
		}
		changed = changed || roundChanged
		if ch.CurrentRound == nil {
			name := ch.Round.Name
			ch.CurrentRound = &name
		}
	}

	changed = setString(&app.CurrentRound, ch.CurrentRound) || changed
	changed = setFloat(&app.PackageLPA, ch.PackageLPA) || changed
	changed = setTime(&app.JoiningDate, ch.JoiningDate) || changed
	changed = setString(&app.OfferLetter, ch.OfferLetter) || changed
	changed = setString(&app.Remarks, ch.Remarks) || changed

	if changed {
		app.UpdatedAt = at
	}
	return changed, nil
}

func upsertRound(app *models.Application, update RoundUpdate, at time.Time) (bool, error) {
	name := strings.TrimSpace(update.Name)
	if name == "" {
		return false, &TransitionError{From: app.Status, To: models.StatusInProcess, Reason: "round name required"}
	}
	if update.Status == "" {
		update.Status = models.RoundScheduled
	}

	existing, _ := app.Round(name)
	if existing == nil {
		app.Rounds = append(app.Rounds, models.InterviewRound{
			ApplicationID: app.ID,
			Name:          name,
			Date:          update.Date,
			Status:        update.Status,
			Remarks:       update.Remarks,
			Position:      len(app.Rounds) + 1,
			UpdatedAt:     at,
		})
		return true, nil
	}

	changed := false
	if existing.Status != update.Status {
		existing.Status = update.Status
		changed = true
	}
	changed = setTime(&existing.Date, update.Date) || changed
	changed = setString(&existing.Remarks, update.Remarks) || changed
	if changed {
		existing.UpdatedAt = at
	}
	return changed, nil
}

func setString(dst **string, v *string) bool {
	if v == nil || (*dst != nil && **dst == *v) {
		return false
	}
	val := *v
	*dst = &val
	return true
}

func setFloat(dst **float64, v *float64) bool {
	if v == nil || (*dst != nil && **dst == *v) {
		return false
	}
	val := *v
	*dst = &val
	return true
}

func setTime(dst **time.Time, v *time.Time) bool {
	if v == nil || (*dst != nil && (*dst).Equal(*v)) {
		return false
	}
	val := *v
	*dst = &val
	return true
}
