package intent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"assistant-workers/internal/common/genai"
	"assistant-workers/internal/common/logger"
	"assistant-workers/internal/common/validation"
)

// FailureKind classifies why the classifier could not produce a detection.
type FailureKind string

const (
	FailureTimeout   FailureKind = "timeout"
	FailureTransport FailureKind = "transport"
	FailureMalformed FailureKind = "malformed"
)

var ErrMalformedOutput = errors.New("CLASSIFIER_OUTPUT_MALFORMED")

// ClassifyError is the recoverable failure of Classify.
type ClassifyError struct {
	Kind FailureKind
	Err  error
}

func (e *ClassifyError) Error() string {
	return fmt.Sprintf("classify %s: %v", e.Kind, e.Err)
}

func (e *ClassifyError) Unwrap() error { return e.Err }

// Recorder receives detection telemetry.
type Recorder interface {
	RecordDetection(ctx context.Context, source, intent string)
	RecordClassifierFailure(ctx context.Context, kind string)
	RecordClassifierDuration(ctx context.Context, d time.Duration, outcome string)
}

type noopRecorder struct{}

func (noopRecorder) RecordDetection(context.Context, string, string)                  {}
func (noopRecorder) RecordClassifierFailure(context.Context, string)                  {}
func (noopRecorder) RecordClassifierDuration(context.Context, time.Duration, string) {}

// ClassifierOptions are the generation settings for classification calls.
type ClassifierOptions struct {
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// Classifier is the language-model adapter. It makes one attempt per message.
type Classifier struct {
	gen      genai.Generator
	catalog  *Catalog
	opts     genai.GenerateOptions
	logger   logger.Logger
	recorder Recorder
}

func NewClassifier(gen genai.Generator, catalog *Catalog, opts ClassifierOptions, log logger.Logger, rec Recorder) *Classifier {
	if rec == nil {
		rec = noopRecorder{}
	}
	return &Classifier{
		gen:     gen,
		catalog: catalog,
		opts: genai.GenerateOptions{
			Temperature: opts.Temperature,
			MaxTokens:   opts.MaxTokens,
			JSONMode:    true,
			Timeout:     opts.Timeout,
		},
		logger:   log,
		recorder: rec,
	}
}

// Classify returns a role-filtered Detection, or a *ClassifyError the caller
// is expected to degrade on.
func (c *Classifier) Classify(ctx context.Context, message string, role Role) (Detection, error) {
	role = c.catalog.ResolveRole(role)
	prompt := BuildPrompt(c.catalog.IntentsForRole(role), message)

	start := time.Now()
	text, err := c.gen.Generate(ctx, prompt, c.opts)
	if err != nil {
		kind := FailureTransport
		if errors.Is(err, genai.ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
			kind = FailureTimeout
		}
		return Detection{}, c.fail(ctx, start, kind, err)
	}

	det, err := ParseOutput(text, role, c.catalog)
	if err != nil {
		return Detection{}, c.fail(ctx, start, FailureMalformed, err)
	}

	c.recorder.RecordClassifierDuration(ctx, time.Since(start), "ok")
	c.logger.Debug("classifier answered", map[string]interface{}{
		"role":       string(role),
		"intents":    det.Intents,
		"confidence": string(det.Confidence),
		"durationMs": time.Since(start).Milliseconds(),
	})
	return det, nil
}

func (c *Classifier) fail(ctx context.Context, start time.Time, kind FailureKind, err error) error {
	c.recorder.RecordClassifierFailure(ctx, string(kind))
	c.recorder.RecordClassifierDuration(ctx, time.Since(start), string(kind))
	c.logger.Warn("classifier failed", map[string]interface{}{
		"kind":       string(kind),
		"error":      err.Error(),
		"durationMs": time.Since(start).Milliseconds(),
	})
	return &ClassifyError{Kind: kind, Err: err}
}

// BuildPrompt embeds the candidate intents, the entity instructions and the
// literal message.
func BuildPrompt(intents []ID, message string) string {
	var b strings.Builder
	b.WriteString("You classify messages sent to an online shop assistant.\n")
	b.WriteString("Pick the intents that match the message, most likely first, using only these ids:\n")
	for _, id := range intents {
		fmt.Fprintf(&b, "- %s: %s\n", id, Describe(id))
	}
	b.WriteString("\nExtract entities when present:\n")
	b.WriteString("- products: array of product names exactly as written by the user\n")
	b.WriteString("- category: product category name\n")
	b.WriteString("- orderNumber: order number or code\n")
	b.WriteString("- quantity: positive integer, only for adding to cart\n")
	b.WriteString("- priceRange: object with optional numeric min and max\n")
	b.WriteString("\nAnswer with one JSON object and nothing else:\n")
	b.WriteString(`{"intents": ["<id>"], "entities": {}, "confidence": "high|medium|low"}`)
	b.WriteString("\n\nMessage: ")
	b.WriteString(strconv.Quote(message))
	b.WriteString("\n")
	return b.String()
}

var outputSchema = validation.MustCompile(`{
  "type": "object",
  "anyOf": [
    {"required": ["intents"]},
    {"required": ["intent"]}
  ],
  "properties": {
    "intents":    {"type": "array", "items": {"type": "string"}},
    "intent":     {"type": "string"},
    "entities":   {"type": ["object", "null"]},
    "confidence": {"type": ["string", "number", "null"]}
  }
}`)

type rawOutput struct {
	Intents    []string               `json:"intents"`
	Intent     string                 `json:"intent"`
	Entities   map[string]interface{} `json:"entities"`
	Confidence interface{}            `json:"confidence"`
}

// ParseOutput is the validation boundary for untrusted model text: strip
// wrappers, extract one JSON object, check its shape, then normalize.
func ParseOutput(text string, role Role, catalog *Catalog) (Detection, error) {
	obj, ok := extractJSONObject(stripWrappers(text))
	if !ok {
		return Detection{}, fmt.Errorf("%w: no JSON object in output", ErrMalformedOutput)
	}

	if res := outputSchema.ValidateJSON(obj); !res.Valid {
		return Detection{}, fmt.Errorf("%w: %s", ErrMalformedOutput, res.Error())
	}

	var raw rawOutput
	dec := json.NewDecoder(strings.NewReader(obj))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return Detection{}, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}

	names := raw.Intents
	if len(names) == 0 && raw.Intent != "" {
		names = []string{raw.Intent}
	}

	return Detection{
		Intents:    filterIntents(names, role, catalog),
		Entities:   normalizeEntities(raw.Entities),
		Confidence: normalizeConfidence(raw.Confidence),
	}, nil
}

// filterIntents keeps allowed ids in order, without duplicates, and falls back
// to General when nothing survives.
func filterIntents(names []string, role Role, catalog *Catalog) []ID {
	seen := make(map[ID]struct{}, len(names))
	var out []ID
	for _, name := range names {
		id := ID(strings.NewReplacer(" ", "_", "-", "_").Replace(strings.ToLower(strings.TrimSpace(name))))
		if !catalog.IsAllowed(id, role) {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	if len(out) == 0 {
		return []ID{General}
	}
	return out
}

func normalizeConfidence(v interface{}) Confidence {
	switch c := v.(type) {
	case string:
		switch Confidence(strings.ToLower(strings.TrimSpace(c))) {
		case High:
			return High
		case Medium:
			return Medium
		}
	case json.Number:
		if f, err := c.Float64(); err == nil {
			return bucketConfidence(f)
		}
	case float64:
		return bucketConfidence(c)
	}
	return Low
}

func bucketConfidence(f float64) Confidence {
	switch {
	case f >= 0.8:
		return High
	case f >= 0.5:
		return Medium
	default:
		return Low
	}
}

func normalizeEntities(raw map[string]interface{}) Entities {
	var e Entities
	if raw == nil {
		return e
	}

	seen := map[string]struct{}{}
	addProduct := func(name string) {
		name = strings.TrimSpace(name)
		key := strings.ToLower(name)
		if name == "" {
			return
		}
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		e.Products = append(e.Products, name)
	}
	for _, key := range []string{"products", "product"} {
		switch v := raw[key].(type) {
		case string:
			addProduct(v)
		case []interface{}:
			for _, item := range v {
				if s, ok := item.(string); ok {
					addProduct(s)
				}
			}
		}
	}

	if s, ok := raw["category"].(string); ok {
		e.Category = strings.TrimSpace(s)
	}

	switch v := raw["orderNumber"].(type) {
	case string:
		e.OrderNumber = strings.TrimSpace(v)
	case json.Number:
		e.OrderNumber = v.String()
	}

	if q, ok := toFloat(raw["quantity"]); ok && q >= 1 && q == float64(int(q)) {
		e.Quantity = int(q)
	}

	if pr, ok := raw["priceRange"].(map[string]interface{}); ok {
		var rng PriceRange
		if v, ok := toFloat(pr["min"]); ok && v >= 0 {
			rng.Min = &v
		}
		if v, ok := toFloat(pr["max"]); ok && v >= 0 {
			rng.Max = &v
		}
		if rng.Min != nil || rng.Max != nil {
			e.PriceRange = &rng
		}
	}
	return e
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case float64:
		return n, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	}
	return 0, false
}

var (
	thinkBlock = regexp.MustCompile(`(?is)<think>.*?</think>`)
	codeFence  = regexp.MustCompile("(?m)^\\s*```[a-zA-Z]*\\s*$")
)

// stripWrappers drops reasoning traces and markdown fences around the JSON.
func stripWrappers(text string) string {
	text = thinkBlock.ReplaceAllString(text, "")
	text = codeFence.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

// extractJSONObject returns the first balanced {...} in text, honoring string
// literals so braces inside values do not end the object early.
func extractJSONObject(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		ch := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}
