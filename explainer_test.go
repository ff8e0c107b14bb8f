package quizdrill

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeChatServer answers chat completions with a write_explanation tool
// call carrying the given explanation.
func fakeChatServer(t *testing.T, explanation string, status int) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.URL.Path != "/v1/chat/completions" {
			http.NotFound(w, r)
			return
		}

		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Content string `json:"content"`
			} `json:"messages"`
			ToolChoice struct {
				Function struct {
					Name string `json:"name"`
				} `json:"function"`
			} `json:"tool_choice"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if req.ToolChoice.Function.Name != explainTool || len(req.Messages) != 2 {
			http.Error(w, "unexpected request", http.StatusBadRequest)
			return
		}

		if status != http.StatusOK {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
			return
		}

		args, _ := json.Marshal(map[string]string{"explanation": explanation})
		resp := map[string]interface{}{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1,
			"model":   req.Model,
			"choices": []interface{}{
				map[string]interface{}{
					"index":         0,
					"finish_reason": "tool_calls",
					"message": map[string]interface{}{
						"role": "assistant",
						"tool_calls": []interface{}{
							map[string]interface{}{
								"id":   "call_1",
								"type": "function",
								"function": map[string]interface{}{
									"name":      explainTool,
									"arguments": string(args),
								},
							},
						},
					},
				},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestExplainer_Explain(t *testing.T) {
	srv, _ := fakeChatServer(t, "  B is right because **reasons**.  ", http.StatusOK)
	e := NewExplainer("test-key", srv.URL+"/v1", "")

	got, err := e.Explain(context.Background(), sampleBank()[2])
	require.NoError(t, err)
	assert.Equal(t, "B is right because **reasons**.", got)
}

func TestExplainer_EmptyExplanation(t *testing.T) {
	srv, _ := fakeChatServer(t, "   ", http.StatusOK)
	e := NewExplainer("test-key", srv.URL+"/v1", "")

	_, err := e.Explain(context.Background(), sampleBank()[2])
	assert.Error(t, err)
}

func TestExplainer_APIError(t *testing.T) {
	srv, _ := fakeChatServer(t, "", http.StatusInternalServerError)
	e := NewExplainer("test-key", srv.URL+"/v1", "")

	_, err := e.Explain(context.Background(), sampleBank()[2])
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to explain question")
}

func TestExplainMissing(t *testing.T) {
	srv, calls := fakeChatServer(t, "explained", http.StatusOK)
	e := NewExplainer("test-key", srv.URL+"/v1", "test-model")
	study, _ := newTestStudy(t)

	n, err := ExplainMissing(context.Background(), study, e, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	q, _ := study.Question(1)
	assert.Equal(t, "explained", q.Analysis)
	q, _ = study.Question(2)
	assert.Equal(t, NoAnalysis, q.Analysis, "limit stops after one question")

	n, err = ExplainMissing(context.Background(), study, e, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.EqualValues(t, 2, calls.Load(), "questions with an analysis are skipped")
}

func TestExplainQuestion_NotFound(t *testing.T) {
	srv, calls := fakeChatServer(t, "explained", http.StatusOK)
	e := NewExplainer("test-key", srv.URL+"/v1", "")
	study, _ := newTestStudy(t)

	_, err := ExplainQuestion(context.Background(), study, e, 99)
	assert.ErrorIs(t, err, ErrQuestionNotFound)
	assert.Zero(t, calls.Load())
}

func TestBuildExplainPrompt(t *testing.T) {
	prompt := buildExplainPrompt(sampleBank()[1])
	assert.True(t, strings.HasPrefix(prompt, "Question (多选): Q1"))
	assert.Contains(t, prompt, "Correct Answer: A,C")
}
