package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"
)

func TestTotalsRecheckHandleBadPayloadSkipsRetry(t *testing.T) {
	job := &TotalsRecheckJob{Logger: slog.Default()}

	err := job.Handle(context.Background(), asynq.NewTask(TaskTotalsRecheck, []byte("{not json")))
	require.ErrorIs(t, err, asynq.SkipRetry)
}

func TestTotalsRecheckHandleBadSinceSkipsRetry(t *testing.T) {
	job := &TotalsRecheckJob{Logger: slog.Default()}

	body, err := json.Marshal(TotalsRecheckPayload{Since: "last tuesday"})
	require.NoError(t, err)

	err = job.Handle(context.Background(), asynq.NewTask(TaskTotalsRecheck, body))
	require.ErrorIs(t, err, asynq.SkipRetry)
}
