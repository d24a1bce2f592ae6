package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(t *testing.T, handler http.Handler) *HTTPClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewHTTPClient(Config{
		BaseURL: srv.URL,
		Token:   "test-token",
		Timeout: 5 * time.Second,
	})
	require.NoError(t, err)
	return c
}

func TestHTTPClient_BearerToken(t *testing.T) {
	var gotAuth string
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{"active_session":false}`))
	}))

	_, err := c.SessionStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer test-token", gotAuth)
}

func TestHTTPClient_StatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		check  func(t *testing.T, err error)
	}{
		{"unauthenticated", http.StatusUnauthorized, func(t *testing.T, err error) {
			assert.True(t, IsUnauthenticated(err))
		}},
		{"not found", http.StatusNotFound, func(t *testing.T, err error) {
			assert.True(t, IsNotFound(err))
		}},
		{"server error", http.StatusInternalServerError, func(t *testing.T, err error) {
			assert.True(t, IsTransient(err))
		}},
		{"rate limited", http.StatusTooManyRequests, func(t *testing.T, err error) {
			assert.True(t, IsTransient(err))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			_, err := c.SessionStatus(context.Background())
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestHTTPClient_NetworkErrorIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	c, err := NewHTTPClient(Config{BaseURL: srv.URL, Token: "t", Timeout: time.Second})
	require.NoError(t, err)

	_, err = c.SessionStatus(context.Background())
	assert.True(t, IsTransient(err))
}

func TestHTTPClient_NextQuestion(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sessions/s1/next", r.URL.Path)
		_, _ = w.Write([]byte(`{
			"session_complete": false,
			"question_number": 3,
			"total_questions": 12,
			"question": {
				"id": "q7",
				"stem": "Which gas is most abundant in Earth's atmosphere?",
				"has_image": false,
				"category": "science",
				"options": [
					{"label": "A", "text": "Oxygen"},
					{"label": "B", "text": "Nitrogen"}
				]
			}
		}`))
	}))

	nq, err := c.NextQuestion(context.Background(), "s1")
	require.NoError(t, err)
	require.NotNil(t, nq.Question)
	assert.Equal(t, "q7", nq.Question.ID)
	assert.Equal(t, 3, nq.QuestionNumber)
	assert.False(t, nq.Question.FreeResponse())
}

func TestHTTPClient_NextQuestion_SchemaRejectsMalformed(t *testing.T) {
	// Question missing required "stem".
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"question": {"id": "q1", "has_image": false, "category": "math"}}`))
	}))

	_, err := c.NextQuestion(context.Background(), "s1")
	require.Error(t, err)
	var inv *ErrInvalidPayload
	assert.ErrorAs(t, err, &inv)
}

func TestHTTPClient_NextQuestion_SchemaEnforcesUnion(t *testing.T) {
	// The payload must carry either a question or session_complete: true.
	cases := []struct {
		name string
		body string
		ok   bool
	}{
		{"neither", `{"question_number": 3, "total_questions": 12}`, false},
		{"complete false without question", `{"session_complete": false}`, false},
		{"completion marker", `{"session_complete": true, "questions_completed": 12, "total_questions": 12}`, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tc.body))
			}))

			nq, err := c.NextQuestion(context.Background(), "s1")
			if tc.ok {
				require.NoError(t, err)
				assert.True(t, nq.SessionComplete)
				return
			}
			require.Error(t, err)
			var inv *ErrInvalidPayload
			assert.ErrorAs(t, err, &inv)
		})
	}
}

func TestHTTPClient_SubmitAnswer(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/sessions/s1/answers", r.URL.Path)
		_, _ = w.Write([]byte(`{
			"correct": true,
			"user_answer": "B",
			"correct_answer": "B",
			"solution_feedback": {
				"approach": "Recall atmospheric composition.",
				"steps": ["Nitrogen is roughly 78% of the atmosphere."],
				"principle": "Nitrogen dominates dry air."
			},
			"question_metadata": {"category": "science"}
		}`))
	}))

	res, err := c.SubmitAnswer(context.Background(), SubmitInput{
		SessionID:  "s1",
		QuestionID: "q7",
		Answer:     "B",
		AttemptID:  "attempt-1",
	})
	require.NoError(t, err)
	assert.True(t, res.Correct)
	assert.Equal(t, "Recall atmospheric composition.", res.Feedback.Approach)
}

func TestHTTPClient_SubmitAnswer_SchemaRejectsMissingFeedback(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"correct": true, "user_answer": "B", "correct_answer": "B"}`))
	}))

	_, err := c.SubmitAnswer(context.Background(), SubmitInput{SessionID: "s1", QuestionID: "q7", Answer: "B"})
	var inv *ErrInvalidPayload
	assert.ErrorAs(t, err, &inv)
}

func TestHTTPClient_ReportBrokenAsset(t *testing.T) {
	var gotPath string
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	}))

	err := c.ReportBrokenAsset(context.Background(), "q9")
	require.NoError(t, err)
	assert.Equal(t, "/questions/q9/broken-asset", gotPath)
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("PREPDECK_API_URL", "https://staging.example.com/v1")
	t.Setenv("PREPDECK_API_TOKEN", "tok")
	t.Setenv("PREPDECK_API_TIMEOUT", "10s")

	cfg := ConfigFromEnv()
	assert.Equal(t, "https://staging.example.com/v1", cfg.BaseURL)
	assert.Equal(t, "tok", cfg.Token)
	assert.Equal(t, 10*time.Second, cfg.Timeout)
	assert.NoError(t, cfg.Validate())
}

func TestConfigValidate_MissingToken(t *testing.T) {
	cfg := DefaultConfig()
	assert.Error(t, cfg.Validate())
}
