package standingsqueue

import (
	"github.com/google/uuid"
	"github.com/riverqueue/river"
)

// QueueRecalculation is the River queue recalculation jobs run on.
const QueueRecalculation = "recalculation"

// PreviewJob builds the preview of a PENDING recalculation.
type PreviewJob struct {
	JobID uuid.UUID `json:"job_id"`
}

// Kind returns the job type identifier for River
func (PreviewJob) Kind() string { return "recalculation_preview" }

// InsertOpts keeps one queued preview per recalculation.
func (PreviewJob) InsertOpts() river.InsertOpts {
	return river.InsertOpts{
		Queue:       QueueRecalculation,
		MaxAttempts: 5,
		UniqueOpts:  river.UniqueOpts{ByArgs: true},
	}
}

// ApplyJob applies a PREVIEW_READY recalculation.
type ApplyJob struct {
	JobID     uuid.UUID `json:"job_id" river:"unique"`
	AppliedBy string    `json:"applied_by"`
}

// Kind returns the job type identifier for River
func (ApplyJob) Kind() string { return "recalculation_apply" }

// InsertOpts keeps one queued apply per recalculation regardless of who
// asked for it.
func (ApplyJob) InsertOpts() river.InsertOpts {
	return river.InsertOpts{
		Queue:       QueueRecalculation,
		MaxAttempts: 3,
		UniqueOpts:  river.UniqueOpts{ByArgs: true},
	}
}
