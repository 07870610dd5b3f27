package jobqueue

import (
	"encoding/json"
	"time"
)

// JobType defines the type of job
type JobType string

const (
	JobTypeEngagementExpiry JobType = "engagement_expiry"
	JobTypeDocumentCleanup  JobType = "document_cleanup"
)

// JobStatus defines the status of a job
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
	JobStatusRetrying   JobStatus = "retrying"
)

// Job represents a background job
type Job struct {
	ID          string                 `json:"id"`
	Type        JobType                `json:"type"`
	Status      JobStatus              `json:"status"`
	Payload     map[string]interface{} `json:"payload"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
	ProcessedAt *time.Time             `json:"processed_at,omitempty"`
	CompletedAt *time.Time             `json:"completed_at,omitempty"`
	ErrorMsg    string                 `json:"error_msg,omitempty"`
	RetryCount  int                    `json:"retry_count"`
	MaxRetries  int                    `json:"max_retries"`
}

// EngagementExpiryJobPayload contains the payload for engagement expiry sweep jobs
type EngagementExpiryJobPayload struct {
	BatchSize int `json:"batch_size"`
}

// ToMap converts the payload to a map for storage
func (p EngagementExpiryJobPayload) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"batch_size": p.BatchSize,
	}
}

// FromMap creates a payload from a map
func EngagementExpiryJobPayloadFromMap(data map[string]interface{}) (*EngagementExpiryJobPayload, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	var payload EngagementExpiryJobPayload
	err = json.Unmarshal(jsonData, &payload)
	return &payload, err
}

// DocumentCleanupJobPayload contains the payload for removing a replaced
// document object from storage
type DocumentCleanupJobPayload struct {
	OrgID     uint   `json:"org_id"`
	Kind      string `json:"kind"`
	ObjectKey string `json:"object_key"`
}

// ToMap converts the payload to a map for storage
func (p DocumentCleanupJobPayload) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"org_id":     p.OrgID,
		"kind":       p.Kind,
		"object_key": p.ObjectKey,
	}
}

// FromMap creates a payload from a map
func DocumentCleanupJobPayloadFromMap(data map[string]interface{}) (*DocumentCleanupJobPayload, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	var payload DocumentCleanupJobPayload
	err = json.Unmarshal(jsonData, &payload)
	return &payload, err
}

// IsRetryable checks if the job can be retried
func (j *Job) IsRetryable() bool {
	return j.Status == JobStatusFailed && j.RetryCount < j.MaxRetries
}

// MarkAsProcessing updates the job status to processing
func (j *Job) MarkAsProcessing() {
	now := time.Now()
	j.Status = JobStatusProcessing
	j.UpdatedAt = now
	j.ProcessedAt = &now
}

// MarkAsCompleted updates the job status to completed
func (j *Job) MarkAsCompleted() {
	now := time.Now()
	j.Status = JobStatusCompleted
	j.UpdatedAt = now
	j.CompletedAt = &now
	j.ErrorMsg = ""
}

// MarkAsFailed updates the job status to failed
func (j *Job) MarkAsFailed(errorMsg string) {
	j.Status = JobStatusFailed
	j.UpdatedAt = time.Now()
	j.ErrorMsg = errorMsg
	j.RetryCount++
}

// MarkAsRetrying updates the job status to retrying
func (j *Job) MarkAsRetrying() {
	j.Status = JobStatusRetrying
	j.UpdatedAt = time.Now()
}
