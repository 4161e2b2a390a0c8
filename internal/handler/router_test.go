package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kmf-ai/server/internal/agent"
	"github.com/kmf-ai/server/internal/model"
	"github.com/kmf-ai/server/internal/repository"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubRunner struct {
	history []model.Message
	called  bool
}

func (r *stubRunner) Run(_ context.Context, history []model.Message, emit agent.Emitter) (string, error) {
	r.called = true
	r.history = history
	_ = emit.Emit(model.StatusEvent("Searching KCSE database..."))
	_ = emit.Emit(model.ContentEvent("Hi.", true))
	_ = emit.Emit(model.CompleteEvent())
	return "Hi.", nil
}

func newTestRouter(t *testing.T, token string) (*gin.Engine, *stubRunner) {
	t.Helper()
	store, err := repository.LoadMemoryQuestionRepository("../repository/testdata/questions.json", 0)
	require.NoError(t, err)

	runner := &stubRunner{}
	return NewRouter(Deps{Runner: runner, Store: store, APIToken: token, Logger: zerolog.Nop()}), runner
}

func do(g *gin.Engine, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	g.ServeHTTP(rec, req)
	return rec
}

func TestChat_Streams(t *testing.T) {
	g, runner := newTestRouter(t, "")

	rec := do(g, http.MethodPost, "/api/chat", `{"messages":[{"role":"system","content":"be kind"},{"role":"user","content":"hello"}]}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	require.True(t, runner.called)
	assert.Equal(t, []model.Message{
		{Role: model.RoleSystem, Content: "be kind"},
		{Role: model.RoleUser, Content: "hello"},
	}, runner.history)

	body := rec.Body.String()
	assert.True(t, strings.HasPrefix(body, `data: {"type":"status","message":"Searching KCSE database..."}`+"\n\n"))
	assert.Contains(t, body, `data: {"type":"content","content":"Hi.","isComplete":true}`+"\n\n")
	assert.True(t, strings.HasSuffix(body, `data: {"type":"complete"}`+"\n\n"))
}

func TestChat_RejectsMalformedRequests(t *testing.T) {
	g, runner := newTestRouter(t, "")

	for name, body := range map[string]string{
		"bad json":       `{"messages":`,
		"no messages":    `{}`,
		"empty messages": `{"messages":[]}`,
		"bad role":       `{"messages":[{"role":"tool","content":"x"}]}`,
		"missing role":   `{"messages":[{"content":"x"}]}`,
		"empty content":  `{"messages":[{"role":"user","content":""}]}`,
		"no content":     `{"messages":[{"role":"user"}]}`,
		"blank content":  `{"messages":[{"role":"user","content":"hi"},{"role":"assistant","content":"  \n"}]}`,
	} {
		t.Run(name, func(t *testing.T) {
			rec := do(g, http.MethodPost, "/api/chat", body, nil)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")

			var resp map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp["error"])
		})
	}
	assert.False(t, runner.called)
}

func TestSubjects(t *testing.T) {
	g, _ := newTestRouter(t, "")

	rec := do(g, http.MethodGet, "/api/subjects", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Subjects []subjectView `json:"subjects"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []subjectView{
		{Name: "chemistry", DisplayName: "Chemistry"},
		{Name: "english", DisplayName: "English"},
		{Name: "mathematics", DisplayName: "Mathematics"},
	}, resp.Subjects)
}

func TestHealthzAndPage(t *testing.T) {
	g, _ := newTestRouter(t, "secret")

	rec := do(g, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = do(g, http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/api/chat")
}

func TestChatPage_SendsTokenAndChecksCompletion(t *testing.T) {
	g, _ := newTestRouter(t, "secret")

	rec := do(g, http.MethodGet, "/", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	page := rec.Body.String()
	assert.Contains(t, page, `h["Authorization"] = "Bearer " + t`)
	assert.Contains(t, page, `id="token"`)
	assert.Contains(t, page, `outcome = "complete"`)
	assert.Contains(t, page, `if (outcome !== "complete")`)
}

func TestBearerAuth(t *testing.T) {
	g, runner := newTestRouter(t, "secret")
	body := `{"messages":[{"role":"user","content":"hello"}]}`

	rec := do(g, http.MethodPost, "/api/chat", body, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(g, http.MethodPost, "/api/chat", body, map[string]string{"Authorization": "Bearer wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, runner.called)

	rec = do(g, http.MethodPost, "/api/chat", body, map[string]string{"Authorization": "Bearer secret"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, runner.called)
}

func TestCORSPreflight(t *testing.T) {
	g, _ := newTestRouter(t, "secret")

	rec := do(g, http.MethodOptions, "/api/chat", "", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "POST, GET, OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "Content-Type, Authorization", rec.Header().Get("Access-Control-Allow-Headers"))
}
