package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/pitchlab/pitchlab/internal/jobs"
	"github.com/pitchlab/pitchlab/internal/personas"
	"github.com/pitchlab/pitchlab/internal/shared"
	"github.com/pitchlab/pitchlab/internal/voiceagent"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// KnowledgeIngestJob pushes uploaded documents into the voice-agent
// provider's knowledge base.
type KnowledgeIngestJob struct {
	Personas *personas.Repository
	Voice    *voiceagent.Client
	Logger   *slog.Logger
	Metrics  *jobmetrics.Metrics
}

// NewKnowledgeIngestJob wires dependencies for the ingest handler.
func NewKnowledgeIngestJob(repo *personas.Repository, voice *voiceagent.Client, logger *slog.Logger, metrics *jobmetrics.Metrics) *KnowledgeIngestJob {
	return &KnowledgeIngestJob{Personas: repo, Voice: voice, Logger: logger, Metrics: metrics}
}

// Handle processes TaskKnowledgeIngest tasks.
func (j *KnowledgeIngestJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil {
		return errors.New("knowledge ingest: handler not configured")
	}
	var payload KnowledgeIngestPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	tracker := j.metrics().Track(TaskKnowledgeIngest)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger().With(
		slog.String("tenant_id", payload.TenantID),
		slog.Int64("document_id", payload.DocumentID),
	)

	doc, err := j.Personas.GetDocument(ctx, payload.TenantID, payload.DocumentID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			logger.Warn("document vanished before ingestion")
			return asynq.SkipRetry
		}
		resultErr = err
		return resultErr
	}
	if doc.Status == personas.DocumentIngested {
		return nil
	}

	persona, err := j.Personas.Get(ctx, payload.TenantID, doc.PersonaID)
	if err != nil {
		resultErr = err
		return resultErr
	}
	if persona.VoiceAgentID == nil || *persona.VoiceAgentID == "" {
		// The sync job provisions the agent; retry after it lands.
		logger.Info("persona has no voice agent yet, retrying later")
		resultErr = errors.New("knowledge ingest: persona missing voice agent")
		return resultErr
	}

	content, err := j.Personas.DocumentContent(ctx, payload.TenantID, payload.DocumentID)
	if err != nil {
		resultErr = err
		return resultErr
	}
	text := extractText(content)
	if text == "" {
		logger.Warn("document has no extractable text", slog.String("mime_type", doc.MimeType))
		if err := j.Personas.MarkDocumentStatus(ctx, payload.TenantID, payload.DocumentID, personas.DocumentFailed); err != nil {
			logger.Error("mark document failed", slog.Any("error", err))
		}
		j.metrics().AddIngested(payload.TenantID, personas.DocumentFailed, 1)
		return asynq.SkipRetry
	}

	if _, err := j.Voice.UploadKnowledge(ctx, *persona.VoiceAgentID, doc.Filename, text); err != nil {
		resultErr = err
		logger.Error("upload knowledge", slog.Any("error", err))
		return resultErr
	}

	if err := j.Personas.MarkDocumentStatus(ctx, payload.TenantID, payload.DocumentID, personas.DocumentIngested); err != nil {
		resultErr = err
		return resultErr
	}
	j.metrics().AddIngested(payload.TenantID, personas.DocumentIngested, 1)
	logger.Info("document ingested", slog.String("filename", doc.Filename))
	return resultErr
}

// extractText keeps valid UTF-8 content and drops binary uploads.
// Rich formats get OCR/parsing upstream of the provider.
func extractText(content []byte) string {
	if !utf8.Valid(content) {
		return ""
	}
	return strings.TrimSpace(string(content))
}

func (j *KnowledgeIngestJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskKnowledgeIngest))
	}
	return slog.Default().With(slog.String("job", TaskKnowledgeIngest))
}

func (j *KnowledgeIngestJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}
