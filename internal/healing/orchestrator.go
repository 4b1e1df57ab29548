package healing

import (
	"context"
	"sync"

	mendErrors "mend/internal/errors"
	"mend/internal/logging"
	"mend/internal/storage"
)

type request struct {
	capture     *storage.IntentCapture
	predictions []*storage.ImpactPrediction
	reply       chan *Response // nil for queued requests; their caller already returned
}

// Orchestrator enforces the single-flight policy: at most one plan executes
// at a time per instance, and requests complete in strict FIFO submission
// order. The policy is carried by a buffered channel drained by one worker
// goroutine, so it holds under true parallelism.
type Orchestrator struct {
	planner  *Planner
	executor *Executor
	queue    chan *request
	logger   *logging.Logger

	mu       sync.Mutex
	inFlight int

	done chan struct{}
	wg   sync.WaitGroup
}

// NewOrchestrator creates an orchestrator and starts its worker.
// queueSize bounds the number of pending requests (0 uses 32).
func NewOrchestrator(planner *Planner, executor *Executor, queueSize int, logger *logging.Logger) *Orchestrator {
	if queueSize <= 0 {
		queueSize = 32
	}

	o := &Orchestrator{
		planner:  planner,
		executor: executor,
		queue:    make(chan *request, queueSize),
		logger:   logger,
		done:     make(chan struct{}),
	}

	o.wg.Add(1)
	go o.worker()

	return o
}

// Close stops the worker after the current request finishes. Queued
// requests are dropped.
func (o *Orchestrator) Close() {
	close(o.done)
	o.wg.Wait()
}

// InitiateHealing generates and executes a plan for the capture's
// predictions. When idle the request runs to completion and the terminal
// response is returned. When a plan is already executing the request joins
// the FIFO queue and a queued response with its position is returned
// immediately; the queued request's results are persisted but its caller
// is not notified.
func (o *Orchestrator) InitiateHealing(ctx context.Context, capture *storage.IntentCapture, predictions []*storage.ImpactPrediction) (*Response, error) {
	o.mu.Lock()
	if o.inFlight > 0 {
		position := o.inFlight
		select {
		case o.queue <- &request{capture: capture, predictions: predictions}:
			o.inFlight++
			o.mu.Unlock()
			o.logger.Info("Healing request queued", map[string]interface{}{
				"capture":  capture.ID,
				"position": position,
			})
			return &Response{Status: StatusQueued, Position: position}, nil
		default:
			o.mu.Unlock()
			return nil, mendErrors.New(mendErrors.QueueFull, "healing queue is full", nil)
		}
	}
	o.inFlight = 1
	req := &request{capture: capture, predictions: predictions, reply: make(chan *Response, 1)}
	// Sent while still holding the lock so a caller admitted after this
	// one cannot slip into the channel first. The queue is empty whenever
	// nothing is in flight, so the send cannot block.
	o.queue <- req
	o.mu.Unlock()

	select {
	case resp := <-req.reply:
		return resp, nil
	case <-ctx.Done():
		// The plan keeps running; only the caller stops waiting.
		return nil, ctx.Err()
	}
}

// Busy reports whether a plan is executing or queued
func (o *Orchestrator) Busy() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.inFlight > 0
}

func (o *Orchestrator) worker() {
	defer o.wg.Done()

	for {
		select {
		case <-o.done:
			return
		case req := <-o.queue:
			resp := o.process(req)
			if req.reply != nil {
				req.reply <- resp
			}
			o.mu.Lock()
			o.inFlight--
			o.mu.Unlock()
		}
	}
}

// process generates and executes one plan. Queued requests carry no caller
// context, so execution always runs under the background context; there is
// no cancellation of an admitted request.
func (o *Orchestrator) process(req *request) *Response {
	plan := o.planner.GeneratePlan(req.capture, req.predictions)

	o.logger.Info("Executing healing plan", map[string]interface{}{
		"capture": req.capture.ID,
		"plan":    plan.ID,
		"actions": len(plan.Actions),
	})

	result, err := o.executor.ExecutePlan(context.Background(), plan)
	if err != nil {
		o.logger.Error("Healing plan aborted", map[string]interface{}{
			"plan":  plan.ID,
			"error": err.Error(),
		})
		return &Response{Status: StatusFailed, Plan: plan}
	}

	status := StatusCompleted
	if result.Failed() {
		status = StatusFailed
	}
	return &Response{Status: status, Plan: plan, Result: result}
}
