package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/pitchlab/pitchlab/internal/jobs"
	"github.com/pitchlab/pitchlab/internal/personas"
	"github.com/pitchlab/pitchlab/internal/shared"
	"github.com/pitchlab/pitchlab/internal/voiceagent"
)

// VoiceAgentSyncJob provisions or updates the provider-side agent
// backing a persona.
type VoiceAgentSyncJob struct {
	Personas *personas.Repository
	Voice    *voiceagent.Client
	Logger   *slog.Logger
	Metrics  *jobmetrics.Metrics
}

// NewVoiceAgentSyncJob wires dependencies for the sync handler.
func NewVoiceAgentSyncJob(repo *personas.Repository, voice *voiceagent.Client, logger *slog.Logger, metrics *jobmetrics.Metrics) *VoiceAgentSyncJob {
	return &VoiceAgentSyncJob{Personas: repo, Voice: voice, Logger: logger, Metrics: metrics}
}

// Handle processes TaskVoiceAgentSync tasks.
func (j *VoiceAgentSyncJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil {
		return errors.New("voiceagent sync: handler not configured")
	}
	var payload VoiceAgentSyncPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	tracker := j.metrics().Track(TaskVoiceAgentSync)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger().With(
		slog.String("tenant_id", payload.TenantID),
		slog.Int64("persona_id", payload.PersonaID),
	)

	persona, err := j.Personas.Get(ctx, payload.TenantID, payload.PersonaID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			logger.Warn("persona vanished before sync")
			return asynq.SkipRetry
		}
		resultErr = err
		return resultErr
	}

	spec := voiceagent.AgentSpec{
		Name:        persona.Name,
		Temperament: persona.Temperament,
		Objections:  persona.Objections,
	}

	if persona.VoiceAgentID != nil && *persona.VoiceAgentID != "" {
		if _, err := j.Voice.UpdateAgent(ctx, *persona.VoiceAgentID, spec); err != nil {
			resultErr = err
			logger.Error("update agent", slog.Any("error", err))
			return resultErr
		}
		logger.Info("agent updated", slog.String("agent_id", *persona.VoiceAgentID))
		return resultErr
	}

	agent, err := j.Voice.CreateAgent(ctx, spec)
	if err != nil {
		resultErr = err
		logger.Error("create agent", slog.Any("error", err))
		return resultErr
	}
	if err := j.Personas.SetVoiceAgentID(ctx, payload.TenantID, payload.PersonaID, agent.ID); err != nil {
		resultErr = err
		return resultErr
	}
	logger.Info("agent provisioned", slog.String("agent_id", agent.ID))
	return resultErr
}

func (j *VoiceAgentSyncJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskVoiceAgentSync))
	}
	return slog.Default().With(slog.String("job", TaskVoiceAgentSync))
}

func (j *VoiceAgentSyncJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}
