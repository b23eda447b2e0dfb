package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskSerialIntegrity re-checks serial uniqueness across the registry.
	TaskSerialIntegrity = "serial:integrity"
	// TaskTotalsRecheck re-aggregates posted documents and reports drift.
	TaskTotalsRecheck = "docs:totals_recheck"
)

// SerialIntegrityPayload scopes an integrity sweep. A zero ProductID scans
// every serialized product.
type SerialIntegrityPayload struct {
	ProductID int64 `json:"product_id"`
}

// NewSerialIntegrityTask constructs an Asynq task.
func NewSerialIntegrityTask(payload SerialIntegrityPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSerialIntegrity, data, asynq.Queue(QueueDefault)), nil
}

// TotalsRecheckPayload limits the recheck to documents posted on or after
// Since (RFC 3339 date). Empty means all posted documents.
type TotalsRecheckPayload struct {
	Since string `json:"since,omitempty"`
}

// NewTotalsRecheckTask constructs an Asynq task.
func NewTotalsRecheckTask(payload TotalsRecheckPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTotalsRecheck, data, asynq.Queue(QueueDefault)), nil
}
