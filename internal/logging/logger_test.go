package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/fyrsmithlabs/jipange/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/log/noop"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func bufferedLogger(t *testing.T, cfg *Config) (*zap.Logger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	logger, err := newLogger(cfg, nil, zapcore.AddSync(&buf))
	require.NoError(t, err)
	return logger, &buf
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		out = append(out, m)
	}
	return out
}

func TestNewLogger_JSONWithConstantFields(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Sampling.Enabled = false
	logger, buf := bufferedLogger(t, cfg)

	logger.Info("task extracted", zap.String("source", "text"), zap.Float64("confidence", 0.8))
	logger.Debug("hidden")

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "task extracted", lines[0]["msg"])
	assert.Equal(t, "jipange", lines[0]["service"])
	assert.Equal(t, "text", lines[0]["source"])
	assert.Equal(t, 0.8, lines[0]["confidence"])
	assert.Contains(t, lines[0], "caller")
}

func TestNewLogger_RedactsFields(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Sampling.Enabled = false
	logger, buf := bufferedLogger(t, cfg)

	logger.With(zap.String("api_key", "gsk_with")).Info("calling provider",
		zap.String("Authorization", "Bearer abc"),
		zap.String("note", "key is sk-proj-abcdefghijklmnopqrstuvwx"),
		Secret("llm_key", config.Secret("12345")),
		zap.String("title", "Call mom"),
	)

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "[REDACTED]", lines[0]["api_key"])
	assert.Equal(t, "[REDACTED]", lines[0]["Authorization"])
	assert.Equal(t, "[REDACTED:pattern]", lines[0]["note"])
	assert.Equal(t, "[REDACTED:5]", lines[0]["llm_key"])
	assert.Equal(t, "Call mom", lines[0]["title"])
	assert.NotContains(t, buf.String(), "gsk_with")
}

func TestNewLogger_Sampling(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Sampling.Initial = 2
	cfg.Sampling.Thereafter = 0
	logger, buf := bufferedLogger(t, cfg)

	for i := 0; i < 5; i++ {
		logger.Info("repeated")
	}
	for i := 0; i < 3; i++ {
		logger.Error("failure")
	}

	var info, errs int
	for _, l := range decodeLines(t, buf) {
		switch l["msg"] {
		case "repeated":
			info++
		case "failure":
			errs++
		}
	}
	assert.Equal(t, 2, info)
	assert.Equal(t, 3, errs, "errors are never sampled")
}

func TestNewLogger_OTELOutput(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Output = OutputConfig{OTEL: true}

	logger, err := NewLogger(cfg, noop.NewLoggerProvider())
	require.NoError(t, err)
	logger.Info("ok")

	// OTEL only without a provider leaves no core.
	_, err = NewLogger(cfg, nil)
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"format", func(c *Config) { c.Format = "xml" }},
		{"no output", func(c *Config) { c.Output = OutputConfig{} }},
		{"tick", func(c *Config) { c.Sampling.Tick = 0 }},
		{"pattern", func(c *Config) { c.Redaction.Patterns = []string{"("} }},
		{"long pattern", func(c *Config) { c.Redaction.Patterns = []string{strings.Repeat("a", 201)} }},
		{"empty field", func(c *Config) { c.Fields[""] = "x" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
	assert.NoError(t, NewDefaultConfig().Validate())
}

func TestFromAppConfig(t *testing.T) {
	app := &config.Config{
		Logging:       config.LoggingConfig{Level: "trace", Format: "console"},
		Observability: config.ObservabilityConfig{EnableTelemetry: true, ServiceName: "jipange-api"},
	}
	cfg, err := FromAppConfig(app)
	require.NoError(t, err)
	assert.Equal(t, TraceLevel, cfg.Level)
	assert.Equal(t, "console", cfg.Format)
	assert.Equal(t, "jipange-api", cfg.Fields["service"])
	assert.True(t, cfg.Output.OTEL)

	app.Logging.Level = "loud"
	_, err = FromAppConfig(app)
	assert.Error(t, err)
}

func TestLevelFromString(t *testing.T) {
	l, err := LevelFromString("trace")
	require.NoError(t, err)
	assert.Equal(t, TraceLevel, l)

	l, err = LevelFromString("warn")
	require.NoError(t, err)
	assert.Equal(t, zapcore.WarnLevel, l)

	_, err = LevelFromString("nope")
	assert.Error(t, err)
}

func TestContextFields(t *testing.T) {
	assert.Empty(t, ContextFields(context.Background()))

	traceID, _ := trace.TraceIDFromHex("0102030405060708090a0b0c0d0e0f10")
	spanID, _ := trace.SpanIDFromHex("0102030405060708")
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID: traceID,
		SpanID:  spanID,
	}))
	ctx = WithRequestID(ctx, "req-1")
	ctx = WithUserID(ctx, "user@example.com")
	ctx = WithConversationID(ctx, "conv_u1_1700000000")

	tl := NewTestLogger()
	For(ctx, tl.Logger).Info("handled")

	tl.AssertField(t, "handled", "trace_id", traceID.String())
	tl.AssertField(t, "handled", "span_id", spanID.String())
	tl.AssertField(t, "handled", "request.id", "req-1")
	tl.AssertField(t, "handled", "user.id", "user@example.com")
	tl.AssertField(t, "handled", "conversation.id", "conv_u1_1700000000")
}

func TestWithID_IgnoresInvalid(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, "", RequestIDFromContext(WithRequestID(ctx, "")))
	assert.Equal(t, "", RequestIDFromContext(WithRequestID(ctx, strings.Repeat("x", maxIDLen+1))))
	assert.Equal(t, "", UserIDFromContext(WithUserID(ctx, "\xff")))
}

func TestTestLogger_Assertions(t *testing.T) {
	tl := NewTestLogger()
	tl.Logger.Warn("fallback used", zap.String("reason", "timeout"))
	tl.Logger.Log(TraceLevel, "prompt", zap.String("text", "hello"))

	tl.AssertLogged(t, zapcore.WarnLevel, "fallback")
	tl.AssertLogged(t, TraceLevel, "prompt")
	tl.AssertNotLogged(t, zapcore.ErrorLevel, "fallback")
	tl.AssertField(t, "fallback used", "reason", "timeout")
	tl.AssertNoSecrets(t)
	assert.Len(t, tl.All(), 2)
	assert.Equal(t, 1, tl.FilterMessage("prompt").Len())
}

func TestSync_IgnoresStdoutErrors(t *testing.T) {
	assert.NoError(t, Sync(zap.NewNop()))
}
