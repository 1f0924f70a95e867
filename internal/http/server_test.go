package http

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/fyrsmithlabs/jipange/internal/assistant"
	"github.com/fyrsmithlabs/jipange/internal/conversation"
	"github.com/fyrsmithlabs/jipange/internal/events"
	"github.com/fyrsmithlabs/jipange/internal/integrations"
	"github.com/fyrsmithlabs/jipange/internal/llm"
	"github.com/fyrsmithlabs/jipange/internal/logging"
	"github.com/fyrsmithlabs/jipange/internal/pipeline"
	"github.com/fyrsmithlabs/jipange/internal/task"
	"github.com/fyrsmithlabs/jipange/internal/telemetry"
)

type stubClient struct {
	reply     string
	err       error
	available bool
}

func (s *stubClient) Chat(context.Context, []llm.Message, ...llm.CallOption) (string, error) {
	return s.reply, s.err
}

func (s *stubClient) Available() bool { return s.available }

type stubTranscriber struct {
	text string
	err  error
}

func (s *stubTranscriber) Transcribe(context.Context, []byte, string) (string, error) {
	return s.text, s.err
}

func (s *stubTranscriber) Available() bool { return true }

const extractionReply = `{"title": "Call the dentist", "priority": "high", "category": "health", "tags": ["health"]}`

type testServer struct {
	*Server
	tasks       *task.Service
	recorder    *events.Recorder
	chat        *stubClient
	extractor   *stubClient
	transcriber *stubTranscriber
	logs        *logging.TestLogger
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	recorder := &events.Recorder{}
	logs := logging.NewTestLogger()
	convs := conversation.NewMemoryStore()
	tasks := task.NewService(task.NewMemoryStore(), recorder, logs.Logger)

	chat := &stubClient{reply: "Start with the dentist call.", available: true}
	extractor := &stubClient{reply: extractionReply, available: true}
	transcriber := &stubTranscriber{text: "call the dentist tomorrow morning"}

	reg := prometheus.NewRegistry()
	pipe := pipeline.NewService(extractor,
		pipeline.WithTranscriber(transcriber),
		pipeline.WithUserContext(convs),
		pipeline.WithTaskSaver(tasks),
		pipeline.WithMetrics(pipeline.NewMetrics(reg)),
		pipeline.WithLogger(logs.Logger))

	telCfg := telemetry.NewDefaultConfig()
	telCfg.Enabled = false
	tel, err := telemetry.New(context.Background(), telCfg)
	require.NoError(t, err)

	srv, err := NewServer(Services{
		Assistant:    assistant.NewService(convs, chat, assistant.WithLogger(logs.Logger)),
		Pipeline:     pipe,
		Tasks:        tasks,
		Integrations: integrations.NewService(nil, recorder, logs.Logger),
		Gatherer:     reg,
		Telemetry:    tel,
	}, logs.Logger, &Config{Version: "test"})
	require.NoError(t, err)

	return &testServer{
		Server:      srv,
		tasks:       tasks,
		recorder:    recorder,
		chat:        chat,
		extractor:   extractor,
		transcriber: transcriber,
		logs:        logs,
	}
}

func (ts *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var payload string
	switch b := body.(type) {
	case nil:
	case string:
		payload = b
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		payload = string(raw)
	}
	req := httptest.NewRequest(method, path, strings.NewReader(payload))
	if payload != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	ts.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func detail(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[ErrorResponse](t, rec).Detail
}

func audioPayload(n int) string {
	return base64.StdEncoding.EncodeToString(make([]byte, n))
}

func TestNewServer_Validation(t *testing.T) {
	logger := zap.NewNop()
	_, err := NewServer(Services{}, logger, nil)
	assert.Error(t, err)

	ts := newTestServer(t)
	_, err = NewServer(ts.services, nil, nil)
	assert.Error(t, err)

	srv, err := NewServer(ts.services, logger, nil)
	require.NoError(t, err)
	assert.Equal(t, 8000, srv.config.Port)
	assert.Equal(t, []string{"*"}, srv.config.CORSOrigins)
}

func TestRootAndHealth(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	root := decode[RootResponse](t, rec)
	assert.Equal(t, "Jipange AI Backend is running!", root.Message)
	assert.Equal(t, "test", root.Version)

	rec = ts.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	health := decode[HealthResponse](t, rec)
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, "jipange-backend", health.Service)
	require.NotNil(t, health.Telemetry)
	assert.False(t, health.Telemetry.Enabled)
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "jipange_extraction_confidence")
}

func TestAsk(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/ai/ask", assistant.Request{Message: "what should I do today", UserID: "u1"})
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[assistant.Response](t, rec)
	assert.Equal(t, "Start with the dentist call.", resp.Response)
	assert.NotEmpty(t, resp.ConversationID)

	rec = ts.do(t, http.MethodPost, "/api/ai/ask", assistant.Request{UserID: "u1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, detail(t, rec), "message and user_id are required")
}

func TestAsk_ProviderFailureStillAnswers(t *testing.T) {
	ts := newTestServer(t)
	ts.chat.err = errors.New("upstream down")

	rec := ts.do(t, http.MethodPost, "/api/ai/ask", assistant.Request{Message: "help me plan", UserID: "u1"})
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[assistant.Response](t, rec)
	assert.NotEmpty(t, resp.Response)
	assert.Equal(t, "fallback_u1", resp.ConversationID)
}

func TestExtract(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/ai/extract", pipeline.TextRequest{
		Transcript: "call the dentist tomorrow",
		UserID:     "u1",
		Save:       true,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	res := decode[pipeline.Result](t, rec)
	assert.Equal(t, "Call the dentist", res.ExtractedTask.Title)
	assert.False(t, res.Fallback)
	require.NotEmpty(t, res.TaskID)

	saved, err := ts.tasks.Get(context.Background(), res.TaskID)
	require.NoError(t, err)
	assert.Equal(t, "u1", saved.UserID)
	assert.Contains(t, ts.recorder.Types(), events.SubjectTaskCreated)
}

func TestExtract_Errors(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/ai/extract", pipeline.TextRequest{Transcript: "call mom"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, detail(t, rec), "user_id is required")

	rec = ts.do(t, http.MethodPost, "/api/ai/extract", `{"transcript": `)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid request body", detail(t, rec))
}

func TestExtract_ModelUnavailableFallsBack(t *testing.T) {
	ts := newTestServer(t)
	ts.extractor.available = false

	rec := ts.do(t, http.MethodPost, "/api/ai/extract", pipeline.TextRequest{Transcript: "review the quarterly report", UserID: "u1"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[pipeline.Result](t, rec).Fallback)
}

func TestVoiceToTask(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/ai/voice-to-task", pipeline.VoiceRequest{AudioData: audioPayload(2048), UserID: "u1"})
	require.Equal(t, http.StatusOK, rec.Code)
	res := decode[pipeline.Result](t, rec)
	assert.Equal(t, "call the dentist tomorrow morning", res.Transcript)
	assert.Equal(t, "Call the dentist", res.ExtractedTask.Title)
}

func TestVoiceToTask_Errors(t *testing.T) {
	tests := []struct {
		name       string
		req        pipeline.VoiceRequest
		transcript string
		transErr   error
		wantCode   int
		wantDetail string
	}{
		{
			name:       "audio too small",
			req:        pipeline.VoiceRequest{AudioData: audioPayload(10), UserID: "u1"},
			wantCode:   http.StatusBadRequest,
			wantDetail: "Audio data too small",
		},
		{
			name:       "transcript too short",
			req:        pipeline.VoiceRequest{AudioData: audioPayload(2048), UserID: "u1"},
			transcript: "hi",
			wantCode:   http.StatusBadRequest,
			wantDetail: "Audio transcription failed or too short",
		},
		{
			name:       "bad base64",
			req:        pipeline.VoiceRequest{AudioData: "!!not-base64!!", UserID: "u1"},
			wantCode:   http.StatusBadRequest,
			wantDetail: "invalid extraction request",
		},
		{
			name:       "transcription unavailable",
			req:        pipeline.VoiceRequest{AudioData: audioPayload(2048), UserID: "u1"},
			transErr:   llm.ErrUnavailable,
			wantCode:   http.StatusServiceUnavailable,
			wantDetail: "Voice processing failed",
		},
		{
			name:       "transcription error",
			req:        pipeline.VoiceRequest{AudioData: audioPayload(2048), UserID: "u1"},
			transErr:   errors.New("connection reset"),
			wantCode:   http.StatusInternalServerError,
			wantDetail: "Voice processing failed: transcribe audio: connection reset",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t)
			if tt.transcript != "" {
				ts.transcriber.text = tt.transcript
			}
			ts.transcriber.err = tt.transErr

			rec := ts.do(t, http.MethodPost, "/api/ai/voice-to-task", tt.req)
			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Contains(t, detail(t, rec), tt.wantDetail)
		})
	}
}

func TestVoiceToTask_ServerErrorLogged(t *testing.T) {
	ts := newTestServer(t)
	ts.transcriber.err = errors.New("connection reset")

	ts.do(t, http.MethodPost, "/api/ai/voice-to-task", pipeline.VoiceRequest{AudioData: audioPayload(2048), UserID: "u1"})
	ts.logs.AssertLogged(t, zapcore.ErrorLevel, "request failed")
	ts.logs.AssertLogged(t, zapcore.ErrorLevel, "http request")
}

func TestValidate(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/ai/validate", map[string]any{
		"task":       map[string]any{"title": "Call the dentist", "priority": "high"},
		"transcript": "call the dentist tomorrow",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	res := decode[pipeline.CheckResult](t, rec)
	assert.True(t, res.Report.IsValid)
	assert.Equal(t, "Call the dentist", res.Task.Title)
	require.NotNil(t, res.Task.ConfidenceScore)

	rec = ts.do(t, http.MethodPost, "/api/ai/validate", map[string]any{
		"task":       map[string]any{"title": ""},
		"transcript": "call the dentist",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[pipeline.CheckResult](t, rec).Report.IsValid)
}

func TestTaskLifecycle(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/tasks", task.Task{Title: "Write report", UserID: "u1"})
	require.Equal(t, http.StatusOK, rec.Code)
	created := decode[task.Task](t, rec)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, task.StatusTodo, created.Status)
	assert.Equal(t, "medium", created.Priority)

	rec = ts.do(t, http.MethodPost, "/api/tasks/", task.Task{Title: "Other user", UserID: "u2"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/tasks/u1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	listed := decode[[]task.Task](t, rec)
	require.Len(t, listed, 1)
	assert.Equal(t, created.ID, listed[0].ID)

	rec = ts.do(t, http.MethodPut, "/api/tasks/"+created.ID, map[string]any{"status": "completed"})
	require.Equal(t, http.StatusOK, rec.Code)
	updated := decode[task.Task](t, rec)
	assert.Equal(t, task.Status("completed"), updated.Status)
	assert.Equal(t, "Write report", updated.Title)

	rec = ts.do(t, http.MethodDelete, "/api/tasks/"+created.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Task deleted successfully", decode[MessageResponse](t, rec).Message)

	assert.Equal(t, []string{
		events.SubjectTaskCreated,
		events.SubjectTaskCreated,
		events.SubjectTaskUpdated,
		events.SubjectTaskDeleted,
	}, ts.recorder.Types())
}

func TestTaskErrors(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/tasks", task.Task{UserID: "u1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, detail(t, rec), "title is required")

	rec = ts.do(t, http.MethodPut, "/api/tasks/missing", map[string]any{"title": "x"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Task not found", detail(t, rec))

	rec = ts.do(t, http.MethodDelete, "/api/tasks/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/tasks/nobody", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]task.Task](t, rec))
}

func TestGoogleWebhook(t *testing.T) {
	ts := newTestServer(t)

	send := func(state string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/integrations/google/webhook", nil)
		req.Header.Set("X-Goog-Channel-Id", "chan-1")
		req.Header.Set("X-Goog-Resource-State", state)
		rec := httptest.NewRecorder()
		ts.ServeHTTP(rec, req)
		return rec
	}

	rec := send(integrations.ResourceStateSync)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, integrations.StatusSyncAcknowledged, decode[StatusResponse](t, rec).Status)

	rec = send(integrations.ResourceStateExists)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, integrations.StatusProcessed, decode[StatusResponse](t, rec).Status)
	assert.Equal(t, []string{events.SubjectCalendarChanged}, ts.recorder.Types())
}

func TestGoogleCalendar(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/integrations/google/calendar/u1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	view := decode[integrations.CalendarView](t, rec)
	assert.Equal(t, "u1", view.UserID)
	require.Len(t, view.Events, 2)
	assert.Equal(t, "Team Standup", view.Events[0].Title)
}

func TestSlackEvents(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/integrations/slack/events", integrations.SlackPayload{
		Type:      integrations.SlackURLVerification,
		Challenge: "abc123",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "abc123", decode[integrations.SlackReply](t, rec).Challenge)

	rec = ts.do(t, http.MethodPost, "/api/integrations/slack/events", integrations.SlackPayload{
		Type:  integrations.SlackEventCallback,
		Event: map[string]any{"type": "message", "user": "U1", "text": "remind me", "channel": "C1"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, integrations.StatusOK, decode[integrations.SlackReply](t, rec).Status)
	assert.Equal(t, []string{events.SubjectSlackMessage}, ts.recorder.Types())
}

func TestUnknownRoute(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodGet, "/api/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NotEmpty(t, detail(t, rec))
}

func TestRequestIDPropagates(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "req-123")
	rec := httptest.NewRecorder()
	ts.ServeHTTP(rec, req)

	assert.Equal(t, "req-123", rec.Header().Get("X-Request-ID"))
	ts.logs.AssertField(t, "http request", "request.id", "req-123")
	ts.logs.AssertLogged(t, zapcore.InfoLevel, "http request")
}

func TestCORS(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://app.example.com")
	rec := httptest.NewRecorder()
	ts.ServeHTTP(rec, req)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestToHTTPError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
		msg  string
	}{
		{"not found", task.ErrNotFound, http.StatusNotFound, "Task not found"},
		{"wrapped invalid", errors.Join(errors.New("ctx"), task.ErrInvalidInput), http.StatusBadRequest, ""},
		{"unavailable", llm.ErrUnavailable, http.StatusServiceUnavailable, "Request failed: llm: provider not configured"},
		{"unexpected", errors.New("disk full"), http.StatusInternalServerError, "Request failed: disk full"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			he := toHTTPError(tt.err, "Request failed")
			assert.Equal(t, tt.code, he.Code)
			if tt.msg != "" {
				assert.Equal(t, tt.msg, he.Message)
			}
		})
	}
}
