package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/inventory"
)

type fakeChecker struct {
	conflicts []inventory.SerialConflict
	err       error
}

func (f *fakeChecker) CheckSerialIntegrity(ctx context.Context) ([]inventory.SerialConflict, error) {
	return f.conflicts, f.err
}

func TestSerialIntegrityHandleReportsConflicts(t *testing.T) {
	checker := &fakeChecker{conflicts: []inventory.SerialConflict{
		{ProductID: 1, Serial: "AP001", Count: 2},
		{ProductID: 2, Serial: "SB009", Count: 3},
	}}
	job := &SerialIntegrityJob{Checker: checker, Logger: slog.Default()}

	body, err := json.Marshal(SerialIntegrityPayload{})
	require.NoError(t, err)

	err = job.Handle(context.Background(), asynq.NewTask(TaskSerialIntegrity, body))
	require.NoError(t, err)
}

func TestSerialIntegrityHandleScopesToProduct(t *testing.T) {
	checker := &fakeChecker{conflicts: []inventory.SerialConflict{
		{ProductID: 1, Serial: "AP001", Count: 2},
	}}
	job := &SerialIntegrityJob{Checker: checker, Logger: slog.Default()}

	body, err := json.Marshal(SerialIntegrityPayload{ProductID: 9})
	require.NoError(t, err)

	err = job.Handle(context.Background(), asynq.NewTask(TaskSerialIntegrity, body))
	require.NoError(t, err)
}

func TestSerialIntegrityHandleBadPayloadSkipsRetry(t *testing.T) {
	job := &SerialIntegrityJob{Checker: &fakeChecker{}, Logger: slog.Default()}

	err := job.Handle(context.Background(), asynq.NewTask(TaskSerialIntegrity, []byte("{not json")))
	require.ErrorIs(t, err, asynq.SkipRetry)
}
