package submissionqueue

// AutoApprovalSweepJob materializes approvals for submissions left pending
// past the auto-approval window.
type AutoApprovalSweepJob struct {
	BatchSize int `json:"batch_size"`
}

// Kind returns the job type identifier for River
func (AutoApprovalSweepJob) Kind() string { return "submission_auto_approval_sweep" }

// QueueName is the River queue submission jobs run on.
const QueueName = "submission"
