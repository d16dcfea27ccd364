// Package orchestrator runs one workflow invocation end to end: validate,
// build, send, normalize.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/manash/bizforge/internal/transport"
	"github.com/manash/bizforge/internal/workflow"
	"github.com/manash/bizforge/pkg/models"
)

type Orchestrator struct {
	transport transport.Transport
	logger    *zap.Logger
	busy      map[models.Kind]*atomic.Bool
}

type Option func(*Orchestrator)

func WithLogger(l *zap.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

func New(t transport.Transport, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		transport: t,
		logger:    zap.NewNop(),
		busy:      make(map[models.Kind]*atomic.Bool, len(models.AllKinds())),
	}
	// The map is fixed after construction; only the flags change.
	for _, k := range models.AllKinds() {
		o.busy[k] = new(atomic.Bool)
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Busy reports whether an invocation of kind is in flight.
func (o *Orchestrator) Busy(kind models.Kind) bool {
	flag, ok := o.busy[kind]
	return ok && flag.Load()
}

// Invoke runs one workflow.
//
// Missing required inputs produce a failure Result together with a
// *models.ValidationError; nothing is sent. A second call for a kind that is
// already in flight returns models.ErrBusy with a failure Result. Every other
// outcome, including transport failures, is reported through the Result
// with a nil error.
func (o *Orchestrator) Invoke(ctx context.Context, kind models.Kind, in models.Inputs) (models.Result, error) {
	flag, ok := o.busy[kind]
	if !ok {
		return models.Result{}, fmt.Errorf("%w: %s", models.ErrUnknownKind, kind)
	}

	if err := in.Validate(kind); err != nil {
		var ve *models.ValidationError
		if errors.As(err, &ve) {
			return models.FailureResult(kind, ve.UserMessage()), err
		}
		return models.Result{}, err
	}

	if !flag.CompareAndSwap(false, true) {
		o.logger.Debug("invocation rejected, workflow busy", zap.String("kind", kind.String()))
		return models.FailureResult(kind, workflow.MsgBusy), models.ErrBusy
	}
	defer flag.Store(false)

	start := time.Now()
	result := o.run(ctx, kind, in)

	o.logger.Info("workflow finished",
		zap.String("kind", kind.String()),
		zap.Bool("success", result.Success),
		zap.Duration("duration", time.Since(start)))
	return result, nil
}

func (o *Orchestrator) run(ctx context.Context, kind models.Kind, in models.Inputs) (result models.Result) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("workflow panicked", zap.String("kind", kind.String()), zap.Any("panic", r))
			result = models.FailureResult(kind, workflow.MsgUnknownError)
		}
	}()

	req, err := workflow.Build(kind, in)
	if err != nil {
		return models.FailureResult(kind, workflow.MsgNotPrepared)
	}
	endpoint, err := transport.EndpointFor(kind)
	if err != nil {
		return models.FailureResult(kind, workflow.MsgNotPrepared)
	}

	resp, err := o.transport.Do(ctx, transport.Call{Endpoint: endpoint, Body: req})
	if err != nil {
		o.logger.Warn("workflow request failed", zap.String("kind", kind.String()), zap.Error(err))
		return workflow.Normalize(kind, nil, err)
	}
	return workflow.Normalize(kind, resp.Body, nil)
}
