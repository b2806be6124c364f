package scoring

import (
	"context"
	"time"

	"resumatcher/internal/types"
)

// RunStream executes the same pipeline as Run but reports progress as a
// sequence of events. The channel carries the stages of a successful run
// in order and closes after the terminal event: either completed with the
// result attached, or a single error event. Nothing follows an error.
func (s *Service) RunStream(ctx context.Context, resumeID, jobID string) <-chan types.ProgressEvent {
	events := make(chan types.ProgressEvent)

	go func() {
		defer close(events)

		send := func(event types.ProgressEvent) {
			select {
			case events <- event:
			case <-ctx.Done():
			}
		}

		emit := func(status, message string) {
			send(types.ProgressEvent{Status: status, Message: message})
			s.pace(ctx)
		}

		result, err := s.run(ctx, resumeID, jobID, emit)
		if err != nil {
			s.logger.LogError(err, "Streaming improvement run failed",
				"resume_id", resumeID, "job_id", jobID)
			send(types.ProgressEvent{
				Status:  types.StageError,
				Message: err.Error(),
			})
			return
		}

		send(types.ProgressEvent{
			Status: types.StageCompleted,
			Data:   result,
		})
	}()

	return events
}

// pace inserts the configured delay between streamed stages so clients
// can render progress. A zero delay streams as fast as the run proceeds.
func (s *Service) pace(ctx context.Context) {
	if s.cfg.StageDelay <= 0 {
		return
	}
	timer := time.NewTimer(s.cfg.StageDelay)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}
