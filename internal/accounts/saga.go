package accounts

import (
	"context"

	"github.com/vidtube/backend/internal/logging"
)

// sagaStep pairs a forward action with the action that undoes it. Steps with
// no side effect to revert leave compensate nil.
type sagaStep struct {
	name       string
	run        func(ctx context.Context) error
	compensate func(ctx context.Context) error
}

// runSaga executes steps in order. When a step fails, the compensations of
// every previously succeeded step run in reverse order before the original
// error is returned. A failing compensation is logged and never masks the
// triggering error.
func runSaga(ctx context.Context, steps []sagaStep) error {
	for i, step := range steps {
		err := step.run(ctx)
		if err == nil {
			continue
		}

		logger := logging.FromContext(ctx)
		logger.Warn("workflow step failed, compensating", "step", step.name, "error", err)

		for j := i - 1; j >= 0; j-- {
			if steps[j].compensate == nil {
				continue
			}
			if cerr := steps[j].compensate(ctx); cerr != nil {
				logger.Error("compensation failed", "step", steps[j].name, "error", cerr)
			}
		}

		return err
	}

	return nil
}
