package synthesis_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/Aravindh9652/sahaay-ai-hackathon/synthesis"
	"github.com/Aravindh9652/sahaay-ai-hackathon/testutil"
	"github.com/Aravindh9652/sahaay-ai-hackathon/testutil/fixtures"
	"github.com/Aravindh9652/sahaay-ai-hackathon/testutil/mocks"
	"github.com/Aravindh9652/sahaay-ai-hackathon/types"
)

func newCascade(t *testing.T, cfg synthesis.CascadeConfig, lightweight, rich synthesis.Backend) *synthesis.Cascade {
	return synthesis.NewCascade(cfg, nil, zaptest.NewLogger(t), nil, lightweight, rich)
}

func ttsRequest(text, language string) *synthesis.Request {
	return &synthesis.Request{Text: text, Language: language}
}

func TestSynthesize_PrefersLightweight(t *testing.T) {
	ctx := testutil.TestContext(t)

	light := mocks.NewMockSynthesizer("espeak")
	rich := mocks.NewMockSynthesizer("elevenlabs")

	cascade := newCascade(t, synthesis.CascadeConfig{
		PreferLightweight: true,
		EnableRich:        true,
	}, light, rich)

	out, err := cascade.Synthesize(ctx, ttsRequest("नमस्ते", types.LangHindi))
	require.NoError(t, err)
	require.NotNil(t, out)

	assert.Equal(t, 1, light.CallCount())
	assert.Equal(t, 0, rich.CallCount())
}

func TestSynthesize_RichFirstWhenNotPreferringLightweight(t *testing.T) {
	ctx := testutil.TestContext(t)

	light := mocks.NewMockSynthesizer("espeak")
	rich := mocks.NewMockSynthesizer("elevenlabs")

	cascade := newCascade(t, synthesis.CascadeConfig{
		PreferLightweight: false,
		EnableRich:        true,
	}, light, rich)

	_, err := cascade.Synthesize(ctx, ttsRequest("hello", types.LangEnglish))
	require.NoError(t, err)

	assert.Equal(t, 1, rich.CallCount())
	assert.Equal(t, 0, light.CallCount())
}

func TestSynthesize_DegradesWhenPreferredFails(t *testing.T) {
	ctx := testutil.TestContext(t)

	tests := []struct {
		name  string
		light *mocks.MockSynthesizer
	}{
		{name: "preferred unavailable", light: mocks.NewMockSynthesizer("espeak").WithAvailable(false)},
		{name: "preferred errors", light: mocks.NewMockSynthesizer("espeak").WithError(errors.New("synthesis crashed"))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rich := mocks.NewMockSynthesizer("elevenlabs")
			cascade := newCascade(t, synthesis.CascadeConfig{
				PreferLightweight: true,
				EnableRich:        true,
			}, tt.light, rich)

			out, err := cascade.Synthesize(ctx, ttsRequest("hello", types.LangEnglish))
			require.NoError(t, err)
			require.NotNil(t, out)
			assert.Equal(t, 1, rich.CallCount())
		})
	}
}

func TestSynthesize_EmptyTextNeverReachesBackend(t *testing.T) {
	ctx := testutil.TestContext(t)

	light := mocks.NewMockSynthesizer("espeak")
	cascade := newCascade(t, synthesis.CascadeConfig{PreferLightweight: true}, light, nil)

	tests := []string{"", "   ", "<speak></speak>", "<break time=\"1s\"/>"}
	for _, text := range tests {
		_, err := cascade.Synthesize(ctx, ttsRequest(text, types.LangEnglish))
		testutil.AssertErrorCode(t, err, types.ErrEmptyText)
	}

	assert.Equal(t, 0, light.CallCount())
}

func TestSynthesize_UnsupportedLanguage(t *testing.T) {
	ctx := testutil.TestContext(t)

	light := mocks.NewMockSynthesizer("espeak")
	cascade := newCascade(t, synthesis.CascadeConfig{
		PreferLightweight:  true,
		SupportedLanguages: []string{types.LangEnglish, types.LangHindi},
	}, light, nil)

	_, err := cascade.Synthesize(ctx, ttsRequest("bonjour", "fr"))
	testutil.AssertErrorCode(t, err, types.ErrUnsupportedLang)
	assert.Equal(t, 0, light.CallCount())
}

func TestSynthesize_NoEngineForLanguage(t *testing.T) {
	ctx := testutil.TestContext(t)

	// 两个后端都不覆盖泰米尔语
	light := mocks.NewMockSynthesizer("espeak").WithLanguages(types.LangEnglish)
	rich := mocks.NewMockSynthesizer("elevenlabs").WithLanguages(types.LangHindi)

	cascade := newCascade(t, synthesis.CascadeConfig{
		PreferLightweight: true,
		EnableRich:        true,
	}, light, rich)

	_, err := cascade.Synthesize(ctx, ttsRequest("vanakkam", types.LangTamil))
	testutil.AssertErrorCode(t, err, types.ErrNoSynthesisEngine)
}

func TestSynthesize_AllBackendsFail(t *testing.T) {
	ctx := testutil.TestContext(t)

	light := mocks.NewMockSynthesizer("espeak").WithError(errors.New("boom"))
	rich := mocks.NewMockSynthesizer("elevenlabs").WithError(errors.New("boom"))

	cascade := newCascade(t, synthesis.CascadeConfig{
		PreferLightweight: true,
		EnableRich:        true,
	}, light, rich)

	_, err := cascade.Synthesize(ctx, ttsRequest("hello", types.LangEnglish))
	testutil.AssertErrorCode(t, err, types.ErrSynthesisFailed)
	assert.True(t, types.IsRetryable(err))
}

func TestSynthesize_RichDisabled(t *testing.T) {
	ctx := testutil.TestContext(t)

	light := mocks.NewMockSynthesizer("espeak").WithAvailable(false)
	rich := mocks.NewMockSynthesizer("elevenlabs")

	cascade := newCascade(t, synthesis.CascadeConfig{
		PreferLightweight: true,
		EnableRich:        false,
	}, light, rich)

	_, err := cascade.Synthesize(ctx, ttsRequest("hello", types.LangEnglish))
	testutil.AssertErrorCode(t, err, types.ErrNoSynthesisEngine)
	assert.Equal(t, 0, rich.CallCount())
}

func TestStripSSML(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain text untouched", in: "hello world", want: "hello world"},
		{name: "tags removed", in: "<speak>hello <emphasis>world</emphasis></speak>", want: "hello world"},
		{name: "self closing tag", in: "one<break time=\"500ms\"/>two", want: "one two"},
		{name: "whitespace collapsed", in: "  hello \n\t world  ", want: "hello world"},
		{name: "only markup", in: "<speak><break/></speak>", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, synthesis.StripSSML(tt.in))
		})
	}
}

func TestAvailableVoices(t *testing.T) {
	ctx := testutil.TestContext(t)

	light := mocks.NewMockSynthesizer("espeak").WithVoices(fixtures.HindiVoices()...)
	rich := mocks.NewMockSynthesizer("elevenlabs").WithVoices(fixtures.EnglishVoices()...)
	down := mocks.NewMockSynthesizer("espeak").WithVoices(fixtures.HindiVoices()...).WithAvailable(false)

	t.Run("union across backends", func(t *testing.T) {
		cascade := newCascade(t, synthesis.CascadeConfig{
			PreferLightweight: true,
			EnableRich:        true,
		}, light, rich)

		voices := cascade.AvailableVoices(ctx, "")
		assert.Len(t, voices, 3)
	})

	t.Run("language filter", func(t *testing.T) {
		cascade := newCascade(t, synthesis.CascadeConfig{
			PreferLightweight: true,
			EnableRich:        true,
		}, light, rich)

		voices := cascade.AvailableVoices(ctx, types.LangHindi)
		assert.Len(t, voices, 2)
	})

	t.Run("unavailable backend skipped", func(t *testing.T) {
		cascade := newCascade(t, synthesis.CascadeConfig{PreferLightweight: true}, down, nil)
		assert.Empty(t, cascade.AvailableVoices(ctx, types.LangHindi))
	})
}

func TestCompress_DowngradesContainer(t *testing.T) {
	cascade := newCascade(t, synthesis.CascadeConfig{PreferLightweight: true},
		mocks.NewMockSynthesizer("espeak"), nil)

	t.Run("wav becomes opus when compressed", func(t *testing.T) {
		payload := fixtures.AudioPayload(200 * 1024)
		payload.DurationSeconds = 5.0

		out := cascade.Compress(payload, 1)
		require.NotSame(t, payload, out)
		assert.Equal(t, "opus", out.Format)
		assert.Less(t, out.Size(), payload.Size())
	})

	t.Run("container untouched when no compression happened", func(t *testing.T) {
		payload := fixtures.AudioPayload(1024)
		out := cascade.Compress(payload, 10)
		assert.Same(t, payload, out)
		assert.Equal(t, "wav", out.Format)
	})
}
