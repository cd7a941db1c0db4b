package user

import (
	"context"
	"log/slog"
)

// rollback is a stack of compensating actions for a multi-step write.
type rollback struct {
	steps []undoStep
}

type undoStep struct {
	name string
	undo func(ctx context.Context) bool
}

func (r *rollback) push(name string, undo func(ctx context.Context) bool) {
	r.steps = append(r.steps, undoStep{name: name, undo: undo})
}

// run executes the actions in reverse order and reports whether all of them
// succeeded. Failures are logged and do not stop the remaining actions.
func (r *rollback) run(ctx context.Context, logger *slog.Logger) bool {
	ok := true
	for i := len(r.steps) - 1; i >= 0; i-- {
		step := r.steps[i]
		if !step.undo(ctx) {
			logger.Error("compensating action failed", "step", step.name)
			ok = false
		}
	}
	r.steps = nil
	return ok
}
