package router

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/uit-ai/knowledge-core/internal/interfaces"
)

type stubCompleter struct {
	response string
	err      error
}

func (s *stubCompleter) Complete(ctx context.Context, req interfaces.CompletionRequest) (string, error) {
	return s.response, s.err
}

func TestQueryAllRouter_AlwaysRoutesToEveryCollection(t *testing.T) {
	r := &QueryAllRouter{Collections: []string{"regulation", "curriculum"}}
	decision, err := r.Route(context.Background(), "học phí thế nào")
	require.NoError(t, err)
	assert.Equal(t, []string{"regulation", "curriculum"}, decision.Collections)
	assert.Equal(t, "query_all", decision.Strategy)
}

func TestLLMClassificationRouter_RoutesToNamedCollection(t *testing.T) {
	r := &LLMClassificationRouter{
		Completer:   &stubCompleter{response: "regulation"},
		Collections: []string{"regulation", "curriculum"},
		Logger:      arbor.NewLogger(),
	}
	decision, err := r.Route(context.Background(), "quy định học phí")
	require.NoError(t, err)
	assert.Equal(t, []string{"regulation"}, decision.Collections)
	assert.Equal(t, "llm_classification", decision.Strategy)
}

func TestLLMClassificationRouter_AllResponseRoutesEverywhere(t *testing.T) {
	r := &LLMClassificationRouter{
		Completer:   &stubCompleter{response: "all"},
		Collections: []string{"regulation", "curriculum"},
		Logger:      arbor.NewLogger(),
	}
	decision, err := r.Route(context.Background(), "thông tin chung")
	require.NoError(t, err)
	assert.Equal(t, []string{"regulation", "curriculum"}, decision.Collections)
}

func TestLLMClassificationRouter_UnparseableResponseFallsBack(t *testing.T) {
	r := &LLMClassificationRouter{
		Completer:   &stubCompleter{response: "I don't know"},
		Collections: []string{"regulation", "curriculum"},
		Logger:      arbor.NewLogger(),
	}
	decision, err := r.Route(context.Background(), "???")
	assert.Error(t, err)
	var target *ClassificationUnparseable
	assert.ErrorAs(t, err, &target)
	assert.Equal(t, []string{"regulation", "curriculum"}, decision.Collections)
	assert.Equal(t, "llm_classification_fallback", decision.Strategy)
}

func TestLLMClassificationRouter_CompleterErrorFallsBack(t *testing.T) {
	r := &LLMClassificationRouter{
		Completer:   &stubCompleter{err: assert.AnError},
		Collections: []string{"regulation", "curriculum"},
		Logger:      arbor.NewLogger(),
	}
	decision, err := r.Route(context.Background(), "bất kỳ")
	assert.Error(t, err)
	assert.Equal(t, []string{"regulation", "curriculum"}, decision.Collections)
}
