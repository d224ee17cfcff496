package session

import (
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/Aravindh9652/sahaay-ai-hackathon/types"
)

func TestProperty_HistoryBoundedToLastInteractions(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("history keeps at most the last 10 interactions in order", prop.ForAll(
		func(outcomes []bool) bool {
			now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
			s := newSessionContext("p1", types.LangHindi, types.InputModeVoice, now)

			for i, succeeded := range outcomes {
				now = now.Add(time.Second)
				if succeeded {
					s.recordSuccess(types.InputModeVoice, types.LangHindi, now)
				} else {
					s.recordFailure(types.LangHindi, 1000+i, now)
				}
			}

			snap := s.snapshot()

			want := len(outcomes)
			if want > historyCapacity {
				want = historyCapacity
			}
			if len(snap.History) != want {
				t.Logf("history length %d, want %d", len(snap.History), want)
				return false
			}
			if snap.TotalInteractions != len(outcomes) {
				t.Logf("total interactions %d, want %d", snap.TotalInteractions, len(outcomes))
				return false
			}

			// 保留的是最近的 want 条, 顺序与输入一致
			offset := len(outcomes) - want
			for i, rec := range snap.History {
				if rec.Succeeded != outcomes[offset+i] {
					t.Logf("history[%d] succeeded=%v, want %v", i, rec.Succeeded, outcomes[offset+i])
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.Bool()),
	))

	properties.TestingRun(t)
}

func TestProperty_FailureCounterAndSuggestion(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("consecutive voice failures suggest fallback exactly once at the threshold", prop.ForAll(
		func(failures int, maxFailures int) bool {
			now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
			s := newSessionContext("p2", types.LangEnglish, types.InputModeVoice, now)

			suggestions := 0
			for i := 0; i < failures; i++ {
				now = now.Add(time.Second)
				if sg := s.recordFailure(types.LangEnglish, maxFailures, now); sg != nil {
					suggestions++
					// 建议恰好在计数到达阈值的那次失败上出现
					if sg.FailureCount != maxFailures {
						t.Logf("suggestion at count %d, want %d", sg.FailureCount, maxFailures)
						return false
					}
					if sg.Reason != types.FallbackReasonMultipleFailures {
						t.Logf("unexpected reason %q", sg.Reason)
						return false
					}
				}
			}

			if failures >= maxFailures {
				if suggestions != 1 {
					t.Logf("%d failures with threshold %d produced %d suggestions", failures, maxFailures, suggestions)
					return false
				}
			} else if suggestions != 0 {
				t.Logf("suggestion before threshold: %d failures, threshold %d", failures, maxFailures)
				return false
			}

			return s.snapshot().FailureCount == failures
		},
		gen.IntRange(0, 30),
		gen.IntRange(1, 10),
	))

	properties.TestingRun(t)
}
