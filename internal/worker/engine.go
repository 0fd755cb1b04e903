package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"pgmq/internal/model"
)

// Engine is the business logic invoked for each claimed message. The
// deadline is carried by ctx; it equals the time remaining on the claim's
// lock when processing starts. An error return means the attempt faulted
// and is mapped to a failed outcome by the worker.
type Engine interface {
	Process(ctx context.Context, payload []byte) (model.Outcome, error)
}

// SimEngine simulates business logic from instructions embedded in the
// payload. The payload must be a non-empty JSON array whose first element
// is the instruction token; unrecognized tokens count as successful no-op
// work. Real deployments swap this for an Engine doing actual work.
type SimEngine struct{}

func (SimEngine) Process(ctx context.Context, payload []byte) (model.Outcome, error) {
	var instructions []any
	if err := json.Unmarshal(payload, &instructions); err != nil {
		return model.Outcome{Result: model.ResultRejected, Details: "invalid message format"}, nil
	}
	if len(instructions) == 0 {
		return model.Outcome{Result: model.ResultRejected, Details: "no message in list"}, nil
	}

	// A non-string first element falls through to the default case.
	instruction, _ := instructions[0].(string)
	switch instruction {
	case "fail":
		return model.Outcome{Result: model.ResultFailed, Details: "explicit fail instruction received"}, nil
	case "reject":
		return model.Outcome{Result: model.ResultRejected, Details: "explicit reject instruction received"}, nil
	case "timeout":
		// Sleep past the deadline while deliberately ignoring ctx. The
		// worker's guard must preempt this; reaching the return below
		// means it did not.
		oversleep := time.Second
		if deadline, ok := ctx.Deadline(); ok {
			oversleep = time.Until(deadline) + time.Second
		}
		time.Sleep(oversleep)
		return model.Outcome{}, errors.New("deadline should have fired, panic!")
	case "raise":
		return model.Outcome{}, errors.New("explicit raise instruction received")
	default:
		return model.Outcome{Result: model.ResultSuccess, Details: "fake work was done"}, nil
	}
}
