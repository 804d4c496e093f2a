package jobs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/pitchlab/pitchlab/internal/jobs"
	"github.com/pitchlab/pitchlab/internal/personas"
)

// KnowledgeSweepJob re-queues documents stuck in pending, covering
// uploads whose initial enqueue was lost.
type KnowledgeSweepJob struct {
	Personas *personas.Repository
	Client   *Client
	Logger   *slog.Logger
	Metrics  *jobmetrics.Metrics

	// MinAge guards against racing a just-finished upload.
	MinAge time.Duration
}

// NewKnowledgeSweepJob wires dependencies for the sweep handler.
func NewKnowledgeSweepJob(repo *personas.Repository, client *Client, logger *slog.Logger, metrics *jobmetrics.Metrics) *KnowledgeSweepJob {
	return &KnowledgeSweepJob{
		Personas: repo,
		Client:   client,
		Logger:   logger,
		Metrics:  metrics,
		MinAge:   10 * time.Minute,
	}
}

// Handle processes TaskKnowledgeSweep tasks.
func (j *KnowledgeSweepJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil {
		return errors.New("knowledge sweep: handler not configured")
	}

	tracker := j.metrics().Track(TaskKnowledgeSweep)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger()
	docs, err := j.Personas.PendingDocuments(ctx, j.MinAge, 100)
	if err != nil {
		resultErr = err
		logger.Error("load pending documents", slog.Any("error", err))
		return resultErr
	}
	if len(docs) == 0 {
		return resultErr
	}

	requeued := 0
	for _, doc := range docs {
		if err := j.Client.EnqueueKnowledgeIngest(ctx, doc.TenantID, doc.ID); err != nil {
			resultErr = err
			logger.Error("requeue document", slog.Int64("document_id", doc.ID), slog.Any("error", err))
			return resultErr
		}
		requeued++
	}
	logger.Info("requeued pending documents", slog.Int("count", requeued))
	return resultErr
}

func (j *KnowledgeSweepJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskKnowledgeSweep))
	}
	return slog.Default().With(slog.String("job", TaskKnowledgeSweep))
}

func (j *KnowledgeSweepJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}
