package intent

import (
	"context"
	"testing"

	"assistant-workers/internal/common/genai"
	"assistant-workers/internal/common/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDetector(t *testing.T, gen *fakeGenerator, rec *countingRecorder) *Detector {
	t.Helper()
	return NewDetector(newTestClassifier(t, gen, rec), logger.NewTestLogger(t), rec)
}

func TestDetector_EmptyMessage(t *testing.T) {
	gen := &fakeGenerator{}
	d := newTestDetector(t, gen, newCountingRecorder())

	for _, msg := range []string{"", "   ", "\n\t"} {
		res, err := d.Detect(context.Background(), msg, RoleCustomer)
		assert.ErrorIs(t, err, ErrEmptyMessage)
		assert.Nil(t, res)
	}
	assert.Zero(t, gen.calls)
}

func TestDetector_PatternSkipsClassifier(t *testing.T) {
	for _, tt := range []struct {
		message string
		want    ID
	}{
		{"hello", Greeting},
		{"THANKS!", Thanks},
		{"ok.", Confirm},
		{"nope", Reject},
		{"help", Help},
	} {
		t.Run(tt.message, func(t *testing.T) {
			gen := &fakeGenerator{text: `{"intents":["product_search"]}`}
			rec := newCountingRecorder()
			d := newTestDetector(t, gen, rec)

			res, err := d.Detect(context.Background(), tt.message, RoleAdmin)

			require.NoError(t, err)
			assert.Zero(t, gen.calls)
			assert.Equal(t, []ID{tt.want}, res.Detection.Intents)
			assert.Equal(t, High, res.Detection.Confidence)
			assert.NotEmpty(t, res.Reply)
			assert.False(t, res.RequiresContext)
			assert.Equal(t, SourcePattern, res.Source)
			assert.Equal(t, 1, rec.detections["pattern/"+string(tt.want)])
		})
	}
}

func TestDetector_ClassifierPath(t *testing.T) {
	tests := []struct {
		name            string
		output          string
		wantPrimary     ID
		requiresContext bool
	}{
		{"domain intent needs context", `{"intents":["view_cart"],"confidence":"high"}`, ViewCart, true},
		{"general needs none", `{"intents":["general"],"confidence":"low"}`, General, false},
		{"help needs none", `{"intents":["help"],"confidence":"high"}`, Help, false},
		{"forbidden downgraded", `{"intents":["platform_stats"]}`, General, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &fakeGenerator{text: tt.output}
			rec := newCountingRecorder()
			d := newTestDetector(t, gen, rec)

			res, err := d.Detect(context.Background(), "  what is in my basket  ", RoleCustomer)

			require.NoError(t, err)
			assert.Equal(t, 1, gen.calls)
			assert.Contains(t, gen.lastPrompt, `"what is in my basket"`)
			assert.Equal(t, tt.wantPrimary, res.Detection.Primary())
			assert.Equal(t, tt.requiresContext, res.RequiresContext)
			assert.Empty(t, res.Reply)
			assert.Equal(t, SourceClassifier, res.Source)
			assert.Equal(t, 1, rec.detections["classifier/"+string(tt.wantPrimary)])
		})
	}
}

func TestDetector_ClassifierFailureDegrades(t *testing.T) {
	for name, gen := range map[string]*fakeGenerator{
		"timeout":   {err: genai.ErrTimeout},
		"malformed": {text: "not json at all"},
	} {
		t.Run(name, func(t *testing.T) {
			rec := newCountingRecorder()
			d := newTestDetector(t, gen, rec)

			res, err := d.Detect(context.Background(), "add the shirt", RoleCustomer)

			require.NoError(t, err)
			assert.Equal(t, []ID{General}, res.Detection.Intents)
			assert.Equal(t, Low, res.Detection.Confidence)
			assert.False(t, res.RequiresContext)
			assert.Equal(t, SourceFallback, res.Source)
			assert.Equal(t, 1, rec.detections["fallback/general"])
			assert.Equal(t, 1, rec.failures[name])
		})
	}
}

func TestDetector_NeverLeaksForbiddenIntent(t *testing.T) {
	catalog := DefaultCatalog()
	everything := catalog.IntentsForRole(RoleAdmin)

	for _, role := range []Role{RoleCustomer, RoleVendor, RoleAdmin, "guest"} {
		for _, id := range everything {
			gen := &fakeGenerator{text: `{"intents":["` + string(id) + `","platform_stats"]}`}
			d := newTestDetector(t, gen, newCountingRecorder())

			res, err := d.Detect(context.Background(), "tell me something about the shop", role)
			require.NoError(t, err)
			for _, got := range res.Detection.Intents {
				assert.True(t, catalog.IsAllowed(got, role), "role %s got %s", role, got)
			}
		}
	}
}
