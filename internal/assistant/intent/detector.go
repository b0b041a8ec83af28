package intent

import (
	"context"
	"errors"
	"strings"

	"assistant-workers/internal/common/logger"
)

var ErrEmptyMessage = errors.New("EMPTY_MESSAGE")

// classifier is the slow path Detect falls back to.
type classifier interface {
	Classify(ctx context.Context, message string, role Role) (Detection, error)
}

// Detector is the detection orchestrator: pattern first, classifier second,
// general/low when the classifier fails.
type Detector struct {
	classifier classifier
	logger     logger.Logger
	recorder   Recorder
}

func NewDetector(c classifier, log logger.Logger, rec Recorder) *Detector {
	if rec == nil {
		rec = noopRecorder{}
	}
	return &Detector{classifier: c, logger: log, recorder: rec}
}

// Detect never returns a classifier error; the only error is ErrEmptyMessage.
func (d *Detector) Detect(ctx context.Context, message string, role Role) (*Result, error) {
	msg := strings.TrimSpace(message)
	if msg == "" {
		return nil, ErrEmptyMessage
	}

	if m, ok := MatchPattern(msg); ok {
		d.recorder.RecordDetection(ctx, string(SourcePattern), string(m.Intent))
		return &Result{
			Detection: Detection{
				Intents:    []ID{m.Intent},
				Confidence: High,
			},
			Reply:           m.Reply,
			RequiresContext: false,
			Source:          SourcePattern,
		}, nil
	}

	det, err := d.classifier.Classify(ctx, msg, role)
	source := SourceClassifier
	if err != nil {
		d.logger.Warn("classification degraded to general", map[string]interface{}{
			"role":          string(role),
			"messageLength": len(msg),
			"error":         err.Error(),
		})
		det = fallbackDetection()
		source = SourceFallback
	}
	if len(det.Intents) == 0 {
		det.Intents = []ID{General}
	}

	primary := det.Primary()
	d.recorder.RecordDetection(ctx, string(source), string(primary))

	return &Result{
		Detection:       det,
		RequiresContext: primary != General && primary != Help,
		Source:          source,
	}, nil
}
