// Package pipeline turns text or recorded speech into a validated task.
//
// A request flows through transcription (voice only), secret scrubbing, LLM
// extraction, normalization, heuristic enhancement and validation. When the
// model is unavailable or replies with something unparseable, a fallback
// task built from the transcript takes its place so the caller always gets
// a reviewable result.
package pipeline

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/jipange/internal/conversation"
	"github.com/fyrsmithlabs/jipange/internal/extraction"
	"github.com/fyrsmithlabs/jipange/internal/llm"
	"github.com/fyrsmithlabs/jipange/internal/logging"
	"github.com/fyrsmithlabs/jipange/internal/secrets"
	"github.com/fyrsmithlabs/jipange/internal/task"
)

const instrumentationName = "github.com/fyrsmithlabs/jipange/internal/pipeline"

const (
	minAudioBytes       = 1000
	minTranscriptLength = 3

	extractionMaxTokens   = 800
	extractionTemperature = 0.1
)

// Input sources.
const (
	SourceText  = "text"
	SourceVoice = "voice"
)

var (
	ErrInvalidInput       = errors.New("invalid extraction request")
	ErrAudioTooSmall      = errors.New("audio data too small")
	ErrTranscriptTooShort = errors.New("audio transcription failed or too short")
)

// TextRequest asks for a task to be extracted from a transcript.
type TextRequest struct {
	Transcript  string                  `json:"transcript"`
	UserID      string                  `json:"user_id"`
	PageContext *extraction.PageContext `json:"page_context,omitempty"`
	Save        bool                    `json:"save,omitempty"`
}

// VoiceRequest carries base64-encoded audio.
type VoiceRequest struct {
	AudioData   string                  `json:"audio_data"`
	Filename    string                  `json:"filename,omitempty"`
	UserID      string                  `json:"user_id"`
	PageContext *extraction.PageContext `json:"page_context,omitempty"`
	Save        bool                    `json:"save,omitempty"`
}

// Result is a finalized task and everything learned while producing it.
type Result struct {
	Transcript       string            `json:"transcript"`
	ExtractedTask    extraction.Task   `json:"extracted_task"`
	ConfidenceScore  float64           `json:"confidence_score"`
	ProcessingTimeMS int64             `json:"processing_time_ms"`
	Suggestions      []string          `json:"suggestions"`
	Warnings         []string          `json:"warnings"`
	Validation       extraction.Report `json:"validation"`
	Fallback         bool              `json:"fallback"`
	TaskID           string            `json:"task_id,omitempty"`
}

// CheckRequest is a task candidate to enhance and validate without a model.
type CheckRequest struct {
	Task        extraction.Task         `json:"task"`
	Transcript  string                  `json:"transcript"`
	PageContext *extraction.PageContext `json:"page_context,omitempty"`
}

// CheckResult is the outcome of Check.
type CheckResult struct {
	Task   extraction.Task   `json:"task"`
	Report extraction.Report `json:"report"`
}

// UserContextSource provides learned user preferences for prompts.
type UserContextSource interface {
	UserContext(ctx context.Context, userID string) (conversation.UserContext, error)
}

// TaskSaver persists finalized tasks.
type TaskSaver interface {
	Create(ctx context.Context, t task.Task) (task.Task, error)
}

// Service runs the extraction pipeline. It is safe for concurrent use.
type Service struct {
	client      llm.Client
	transcriber llm.Transcriber
	scrubber    secrets.Scrubber
	userContext UserContextSource
	saver       TaskSaver
	enhancer    *extraction.Enhancer
	validator   *extraction.Validator
	metrics     *Metrics
	tracer      trace.Tracer
	logger      *zap.Logger
	now         func() time.Time
}

// Option configures a Service.
type Option func(*Service)

func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func WithTranscriber(t llm.Transcriber) Option {
	return func(s *Service) {
		if t != nil {
			s.transcriber = t
		}
	}
}

func WithScrubber(sc secrets.Scrubber) Option {
	return func(s *Service) {
		if sc != nil {
			s.scrubber = sc
		}
	}
}

func WithUserContext(src UserContextSource) Option {
	return func(s *Service) { s.userContext = src }
}

func WithTaskSaver(saver TaskSaver) Option {
	return func(s *Service) { s.saver = saver }
}

func WithTracer(t trace.Tracer) Option {
	return func(s *Service) {
		if t != nil {
			s.tracer = t
		}
	}
}

func WithMetrics(m *Metrics) Option {
	return func(s *Service) {
		if m != nil {
			s.metrics = m
		}
	}
}

// NewService creates a pipeline using client for extraction.
func NewService(client llm.Client, opts ...Option) *Service {
	if client == nil {
		client = llm.NoopClient{}
	}
	s := &Service{
		client:      client,
		transcriber: llm.NoopTranscriber{},
		scrubber:    secrets.NoopScrubber{},
		metrics:     NewMetrics(nil),
		tracer:      otel.Tracer(instrumentationName),
		logger:      zap.NewNop(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.enhancer = extraction.NewEnhancer(extraction.WithClock(s.now))
	s.validator = extraction.NewValidator(extraction.WithClock(s.now), extraction.WithLogger(s.logger))
	return s
}

// ExtractFromText extracts, enhances and validates a task from text.
func (s *Service) ExtractFromText(ctx context.Context, req TextRequest) (*Result, error) {
	start := s.now()
	if req.UserID == "" {
		return nil, fmt.Errorf("%w: user_id is required", ErrInvalidInput)
	}
	transcript := strings.TrimSpace(req.Transcript)
	if len(transcript) < minTranscriptLength {
		return nil, fmt.Errorf("%w: transcript is too short", ErrInvalidInput)
	}
	return s.extract(ctx, SourceText, transcript, req.UserID, req.PageContext, req.Save, start)
}

// ProcessVoice transcribes base64 audio and extracts a task from it.
func (s *Service) ProcessVoice(ctx context.Context, req VoiceRequest) (*Result, error) {
	start := s.now()
	if req.UserID == "" {
		return nil, fmt.Errorf("%w: user_id is required", ErrInvalidInput)
	}

	audio, err := decodeAudio(req.AudioData)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if len(audio) < minAudioBytes {
		return nil, ErrAudioTooSmall
	}

	filename := req.Filename
	if filename == "" {
		filename = "audio.wav"
	}
	tctx, span := s.tracer.Start(ctx, "pipeline.transcribe", trace.WithAttributes(
		attribute.Int("audio.bytes", len(audio)),
		attribute.String("audio.filename", filename),
	))
	transcript, err := s.transcriber.Transcribe(tctx, audio, filename)
	s.metrics.RecordTranscription(err == nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transcription failed")
		span.End()
		return nil, fmt.Errorf("transcribe audio: %w", err)
	}
	span.End()

	transcript = strings.TrimSpace(transcript)
	if len(transcript) < minTranscriptLength {
		return nil, ErrTranscriptTooShort
	}
	return s.extract(ctx, SourceVoice, transcript, req.UserID, req.PageContext, req.Save, start)
}

// Check enhances and validates a candidate without calling a model.
func (s *Service) Check(req CheckRequest) CheckResult {
	enhanced := s.enhancer.Enhance(req.Task, req.Transcript, req.PageContext)
	report, final := s.validator.Validate(enhanced, req.Transcript)
	return CheckResult{Task: final, Report: report}
}

func (s *Service) extract(ctx context.Context, source, transcript, userID string, pc *extraction.PageContext, save bool, start time.Time) (*Result, error) {
	ctx, span := s.tracer.Start(ctx, "pipeline.extract", trace.WithAttributes(attribute.String("source", source)))
	defer span.End()
	log := logging.For(ctx, s.logger)

	if r := s.scrubber.Scrub(transcript); r.HasFindings() {
		span.SetAttributes(attribute.StringSlice("scrubbed_rules", r.RuleIDs()))
		log.Warn("redacted secrets from transcript",
			zap.String("user_id", userID),
			zap.Strings("rules", r.RuleIDs()))
		transcript = r.Scrubbed
	}

	now := s.now()
	cand, err := s.callModel(ctx, transcript, userID, pc, now)
	fallback := err != nil
	if fallback {
		span.AddEvent("fallback", trace.WithAttributes(attribute.String("reason", err.Error())))
		log.Warn("task extraction failed, using fallback task",
			zap.String("user_id", userID),
			zap.String("source", source),
			zap.Error(err))
		cand = fallbackCandidate(transcript)
	} else {
		normalize(&cand, transcript, pc, now)
	}

	enhanced := s.enhancer.Enhance(cand.Task, transcript, pc)
	report, final := s.validator.Validate(enhanced, transcript)

	res := &Result{
		Transcript:      transcript,
		ExtractedTask:   final,
		ConfidenceScore: final.Confidence(),
		Suggestions:     append(append([]string{}, cand.Suggestions...), report.Suggestions...),
		Warnings:        append([]string{}, cand.Warnings...),
		Validation:      report,
		Fallback:        fallback,
	}
	for _, issue := range report.Issues {
		s.metrics.RecordIssue(string(issue.Severity))
		if issue.Severity != extraction.SeverityInfo {
			res.Warnings = append(res.Warnings, issue.Message)
		}
	}

	if save && s.saver != nil {
		saved, err := s.saver.Create(ctx, toStoredTask(final, userID))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "save failed")
			return nil, fmt.Errorf("save task: %w", err)
		}
		res.TaskID = saved.ID
	}

	elapsed := s.now().Sub(start)
	res.ProcessingTimeMS = elapsed.Milliseconds()

	outcome := "llm"
	if fallback {
		outcome = "fallback"
	}
	s.metrics.RecordExtraction(source, outcome, elapsed.Seconds(), res.ConfidenceScore)
	span.SetAttributes(
		attribute.Bool("fallback", fallback),
		attribute.Bool("valid", report.IsValid),
		attribute.Float64("confidence", res.ConfidenceScore),
		attribute.Int("issues", len(report.Issues)),
	)
	log.Info("task extracted",
		zap.String("user_id", userID),
		zap.String("source", source),
		zap.Bool("fallback", fallback),
		zap.Bool("valid", report.IsValid),
		zap.Float64("confidence", res.ConfidenceScore),
		zap.Duration("duration", elapsed))
	return res, nil
}

func (s *Service) callModel(ctx context.Context, transcript, userID string, pc *extraction.PageContext, now time.Time) (candidate, error) {
	if !s.client.Available() {
		return candidate{}, llm.ErrUnavailable
	}

	var uc conversation.UserContext
	if s.userContext != nil {
		var err error
		if uc, err = s.userContext.UserContext(ctx, userID); err != nil {
			logging.For(ctx, s.logger).Warn("failed to load user context", zap.String("user_id", userID), zap.Error(err))
		}
	}

	reply, err := s.client.Chat(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: extractionSystemPrompt},
		{Role: llm.RoleUser, Content: extractionUserPrompt(transcript, now, uc, pc)},
	}, llm.WithMaxTokens(extractionMaxTokens), llm.WithTemperature(extractionTemperature))
	if err != nil {
		return candidate{}, fmt.Errorf("chat completion: %w", err)
	}

	var cand candidate
	if err := llm.DecodeJSON(reply, &cand); err != nil {
		return candidate{}, fmt.Errorf("decode extraction: %w", err)
	}
	return cand, nil
}

func toStoredTask(t extraction.Task, userID string) task.Task {
	out := task.Task{
		Title:       t.Title,
		Description: t.Description,
		Priority:    string(t.Priority),
		DueDate:     t.DueDate,
		Tags:        t.Tags,
		UserID:      userID,
	}
	if t.EstimatedDuration != nil {
		out.EstimatedDuration = extraction.Int(*t.EstimatedDuration)
	}
	return out
}

// decodeAudio accepts plain base64 or a data URL.
func decodeAudio(data string) ([]byte, error) {
	if i := strings.Index(data, ";base64,"); i >= 0 && strings.HasPrefix(data, "data:") {
		data = data[i+len(";base64,"):]
	}
	b, err := base64.StdEncoding.DecodeString(strings.TrimSpace(data))
	if err != nil {
		return nil, fmt.Errorf("decode audio: %w", err)
	}
	return b, nil
}
