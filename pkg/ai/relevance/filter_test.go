package relevance

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"

	"sales-research-be/pkg/llm"
	"sales-research-be/pkg/store"
)

type fakeLLM struct {
	response string
	err      error
	calls    int
}

func (f *fakeLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	f.calls++
	return f.response, f.err
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	f.calls++
	return f.response, f.err
}

type recordingSink struct {
	queries     []string
	confidences []int
}

func (s *recordingSink) RecordRejection(query string, confidence int, reason string) {
	s.queries = append(s.queries, query)
	s.confidences = append(s.confidences, confidence)
}

func discardLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func TestFilterFollowUpSkipsModel(t *testing.T) {
	provider := &fakeLLM{response: `{"is_relevant": false, "confidence": 99, "reason": "should not be called"}`}
	f := NewFilter(provider, DefaultConfig(), nil, discardLogger())

	history := []store.Message{{Role: store.RoleUser, Content: "tell me about CRM pricing"}}
	assessment := f.Filter(context.Background(), "can you clarify that?", history)

	if !assessment.IsRelevant {
		t.Error("follow-up with context must pass")
	}
	if provider.calls != 0 {
		t.Errorf("model calls = %d, want 0 for follow-up", provider.calls)
	}
}

func TestFilterFollowUpWithoutContextGoesToModel(t *testing.T) {
	provider := &fakeLLM{response: `{"is_relevant": true, "confidence": 80, "reason": "fine"}`}
	f := NewFilter(provider, DefaultConfig(), nil, discardLogger())

	f.Filter(context.Background(), "can you clarify that?", nil)

	if provider.calls != 1 {
		t.Errorf("model calls = %d, want 1 when no context exists", provider.calls)
	}
}

func TestFilterFailsOpenOnModelError(t *testing.T) {
	provider := &fakeLLM{err: errors.New("timeout")}
	f := NewFilter(provider, DefaultConfig(), nil, discardLogger())

	assessment := f.Filter(context.Background(), "anything at all", nil)

	if !assessment.IsRelevant {
		t.Error("model failure must fail open")
	}
	if assessment.Confidence >= 50 {
		t.Errorf("fail-open confidence = %d, want low", assessment.Confidence)
	}
}

func TestFilterRecordsHighConfidenceRejections(t *testing.T) {
	tests := []struct {
		name       string
		response   string
		wantLogged bool
	}{
		{
			name:       "high confidence rejection is recorded",
			response:   `{"is_relevant": false, "confidence": 92, "reason": "movie trivia"}`,
			wantLogged: true,
		},
		{
			name:       "low confidence rejection is not",
			response:   `{"is_relevant": false, "confidence": 60, "reason": "unsure"}`,
			wantLogged: false,
		},
		{
			name:       "relevant verdict is not",
			response:   `{"is_relevant": true, "confidence": 95, "reason": "sales question"}`,
			wantLogged: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := &recordingSink{}
			f := NewFilter(&fakeLLM{response: tt.response}, DefaultConfig(), sink, discardLogger())

			f.Filter(context.Background(), "some query", nil)

			if logged := len(sink.queries) > 0; logged != tt.wantLogged {
				t.Errorf("sink logged = %v, want %v", logged, tt.wantLogged)
			}
		})
	}
}

func TestParseAssessmentClampsConfidence(t *testing.T) {
	assessment, err := parseAssessment(`{"is_relevant": false, "confidence": 140, "reason": "x"}`)
	if err != nil {
		t.Fatalf("parseAssessment() error = %v", err)
	}
	if assessment.Confidence != 100 {
		t.Errorf("Confidence = %d, want 100", assessment.Confidence)
	}
}
