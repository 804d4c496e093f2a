package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"

	// TaskKnowledgeIngest processes one uploaded knowledge document.
	TaskKnowledgeIngest = "knowledge:ingest"
	// TaskKnowledgeSweep re-queues documents stuck in pending.
	TaskKnowledgeSweep = "knowledge:sweep"
	// TaskVoiceAgentSync provisions or updates a persona's voice agent.
	TaskVoiceAgentSync = "voiceagent:sync"
	// TaskAnalyticsWarmup pre-populates analytics caches per tenant.
	TaskAnalyticsWarmup = "analytics:warmup"
)

// KnowledgeIngestPayload identifies the document to ingest.
type KnowledgeIngestPayload struct {
	TenantID   string `json:"tenant_id"`
	DocumentID int64  `json:"document_id"`
}

// NewKnowledgeIngestTask constructs an Asynq task.
func NewKnowledgeIngestTask(payload KnowledgeIngestPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskKnowledgeIngest, data), nil
}

// VoiceAgentSyncPayload identifies the persona to sync.
type VoiceAgentSyncPayload struct {
	TenantID  string `json:"tenant_id"`
	PersonaID int64  `json:"persona_id"`
}

// NewVoiceAgentSyncTask constructs an Asynq task.
func NewVoiceAgentSyncTask(payload VoiceAgentSyncPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskVoiceAgentSync, data), nil
}

// NewKnowledgeSweepTask constructs the cron sweep task.
func NewKnowledgeSweepTask() *asynq.Task {
	return asynq.NewTask(TaskKnowledgeSweep, nil)
}

// NewAnalyticsWarmupTask constructs the cron warmup task.
func NewAnalyticsWarmupTask() *asynq.Task {
	return asynq.NewTask(TaskAnalyticsWarmup, nil)
}
