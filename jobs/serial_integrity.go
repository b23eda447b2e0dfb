package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/meridian-erp/meridian-erp/internal/inventory"
)

// SerialChecker is the slice of the inventory service the integrity sweep
// needs.
type SerialChecker interface {
	CheckSerialIntegrity(ctx context.Context) ([]inventory.SerialConflict, error)
}

// SerialIntegrityJob scans the serial registry for serials registered more
// than once per product and logs every conflict it finds.
type SerialIntegrityJob struct {
	Checker SerialChecker
	Logger  *slog.Logger
}

// Handle processes TaskSerialIntegrity tasks.
func (j *SerialIntegrityJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload SerialIntegrityPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	conflicts, err := j.Checker.CheckSerialIntegrity(ctx)
	if err != nil {
		return fmt.Errorf("serial integrity: %w", err)
	}
	found := 0
	for _, c := range conflicts {
		if payload.ProductID != 0 && c.ProductID != payload.ProductID {
			continue
		}
		found++
		j.Logger.Warn("duplicate serial registration",
			"product_id", c.ProductID,
			"serial", c.Serial,
			"count", c.Count,
		)
	}
	if found == 0 {
		j.Logger.Info("serial registry clean", "product_id", payload.ProductID)
		return nil
	}
	j.Logger.Warn("serial integrity sweep finished", "conflicts", found)
	return nil
}
