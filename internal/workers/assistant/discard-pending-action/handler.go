package discardpendingaction

import (
	"context"
	"fmt"

	"assistant-workers/internal/assistant/mutation"
	"assistant-workers/internal/common/camunda"
	"assistant-workers/internal/common/errors"
	"assistant-workers/internal/common/logger"
	"assistant-workers/internal/common/metrics"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "discard-pending-action"

type Discarder interface {
	Discard(ctx context.Context, owner string) (*mutation.DiscardResult, error)
}

type Handler struct {
	config    *Config
	discarder Discarder
	logger    logger.Logger
	errors    *errors.ErrorHandler
}

type HandlerOptions struct {
	Config    *Config
	Discarder Discarder
	Logger    logger.Logger
}

func NewHandler(opts HandlerOptions) (*Handler, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for %s: %w", TaskType, err)
	}
	if opts.Discarder == nil {
		return nil, fmt.Errorf("%s: discarder is required", TaskType)
	}

	log := opts.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	log = log.With(map[string]interface{}{"taskType": TaskType})

	return &Handler{
		config:    cfg,
		discarder: opts.Discarder,
		logger:    log,
		errors:    errors.NewErrorHandler(log),
	}, nil
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	done := metrics.ObserveJob(TaskType)

	ctx, cancel := camunda.JobContext(h.config.Timeout)
	defer cancel()

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":             job.GetKey(),
		"processInstanceKey": job.GetProcessInstanceKey(),
	})

	input, err := h.parseInput(job)
	if err != nil {
		done(string(errors.Normalize(err).Code))
		h.errors.HandleJobError(ctx, client, job, err)
		return
	}

	output, err := h.Execute(ctx, input)
	if err != nil {
		done(string(errors.Normalize(err).Code))
		h.errors.HandleJobError(ctx, client, job, err)
		return
	}

	if err := camunda.CompleteJob(ctx, client, job, output); err != nil {
		h.logger.WithError(err).Error("failed to complete job", map[string]interface{}{"jobKey": job.GetKey()})
		done(string(errors.ErrCodeInternal))
		return
	}
	done("")
}

func (h *Handler) parseInput(job entities.Job) (*Input, error) {
	variables, err := job.GetVariablesAsMap()
	if err != nil {
		return nil, errors.NewInvalidInputError(fmt.Sprintf("parse variables: %v", err))
	}
	if res := inputSchema.Validate(variables); !res.Valid {
		return nil, errors.NewInvalidInputError(res.Error())
	}

	var input Input
	if err := camunda.DecodeVariables(job, &input); err != nil {
		return nil, errors.NewInvalidInputError(fmt.Sprintf("decode variables: %v", err))
	}
	return &input, nil
}

// Execute empties the owner's slot.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	res, err := h.discarder.Discard(ctx, input.UserID)
	if err != nil {
		return nil, errors.NewPendingStoreFailedError("clear", err)
	}

	h.logger.Info("pending action resolved", map[string]interface{}{
		"userId":  input.UserID,
		"outcome": string(res.Outcome),
	})
	return &Output{
		Discarded: res.Discarded,
		Reply:     res.Message,
		Outcome:   res.Outcome,
	}, nil
}
