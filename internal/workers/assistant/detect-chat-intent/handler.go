package detectchatintent

import (
	"context"
	stderrors "errors"
	"fmt"

	"assistant-workers/internal/assistant/intent"
	"assistant-workers/internal/common/camunda"
	"assistant-workers/internal/common/errors"
	"assistant-workers/internal/common/logger"
	"assistant-workers/internal/common/metrics"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "detect-chat-intent"

type Detector interface {
	Detect(ctx context.Context, message string, role intent.Role) (*intent.Result, error)
}

type PendingChecker interface {
	HasPendingAction(ctx context.Context, owner string) (bool, error)
}

type Handler struct {
	config   *Config
	detector Detector
	pending  PendingChecker
	logger   logger.Logger
	errors   *errors.ErrorHandler
}

type HandlerOptions struct {
	Config   *Config
	Detector Detector
	Pending  PendingChecker
	Logger   logger.Logger
}

func NewHandler(opts HandlerOptions) (*Handler, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for %s: %w", TaskType, err)
	}
	if opts.Detector == nil || opts.Pending == nil {
		return nil, fmt.Errorf("%s: detector and pending checker are required", TaskType)
	}

	log := opts.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	log = log.With(map[string]interface{}{"taskType": TaskType})

	return &Handler{
		config:   cfg,
		detector: opts.Detector,
		pending:  opts.Pending,
		logger:   log,
		errors:   errors.NewErrorHandler(log),
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

// Execute classifies the message and picks the route for the turn.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	detectCtx, cancel := h.detectContext(ctx)
	res, err := h.detector.Detect(detectCtx, input.Message, intent.Role(input.Role))
	cancel()
	if err != nil {
		if stderrors.Is(err, intent.ErrEmptyMessage) {
			return nil, errors.NewEmptyMessageError()
		}
		return nil, err
	}

	hasPending := false
	if input.UserID != "" {
		hasPending, err = h.pending.HasPendingAction(ctx, input.UserID)
		if err != nil {
			return nil, errors.NewPendingStoreFailedError("has", err)
		}
	}

	out := &Output{
		Intents:          res.Detection.Intents,
		PrimaryIntent:    res.Detection.Primary(),
		Entities:         res.Detection.Entities,
		Confidence:       res.Detection.Confidence,
		Source:           res.Source,
		Reply:            res.Reply,
		RequiresContext:  res.RequiresContext,
		HasPendingAction: hasPending,
	}
	out.Route = route(res, hasPending)

	h.logger.Info("intent detected", map[string]interface{}{
		"primaryIntent": string(out.PrimaryIntent),
		"source":        string(out.Source),
		"confidence":    string(out.Confidence),
		"route":         string(out.Route),
	})
	return out, nil
}

// detectContext ends classification CompletionReserve before the job
// deadline, so a hung model still leaves time to answer the job.
func (h *Handler) detectContext(ctx context.Context) (context.Context, context.CancelFunc) {
	deadline, ok := ctx.Deadline()
	if !ok || h.config.CompletionReserve <= 0 {
		return ctx, func() {}
	}
	return context.WithDeadline(ctx, deadline.Add(-h.config.CompletionReserve))
}

// route maps a detection to a process branch. confirm and reject only act
// when something is pending; otherwise the turn is handled as general chat.
func route(res *intent.Result, hasPending bool) Route {
	switch primary := res.Detection.Primary(); {
	case primary == intent.Confirm:
		if hasPending {
			return RouteCommit
		}
		return RouteGeneral
	case primary == intent.Reject:
		if hasPending {
			return RouteDiscard
		}
		return RouteGeneral
	case res.Source == intent.SourcePattern && res.Reply != "":
		return RouteReply
	case intent.IsMutation(primary):
		return RouteMutation
	case res.RequiresContext:
		return RouteContext
	}
	return RouteGeneral
}
