package types

import (
	"encoding/json"
	"time"
)

// EntityKind identifies which side of a match a document belongs to.
type EntityKind string

const (
	KindResume EntityKind = "resume"
	KindJob    EntityKind = "job"
)

// ProcessingStatus is the lifecycle state of a document's structured
// extraction. The set is closed; code switching on it must handle every
// member explicitly.
type ProcessingStatus string

const (
	StatusPending    ProcessingStatus = "pending"
	StatusProcessing ProcessingStatus = "processing"
	StatusCompleted  ProcessingStatus = "completed"
	StatusFailed     ProcessingStatus = "failed"
)

// Valid reports whether s is a member of the closed status set.
func (s ProcessingStatus) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// SourceDocument is the raw text a user submitted, before extraction.
type SourceDocument struct {
	ID        string     `json:"id"`
	Kind      EntityKind `json:"kind"`
	Content   string     `json:"content"`
	CreatedAt time.Time  `json:"createdAt"`
}

// ProcessedDocument holds the structured-extraction outcome for a source
// document. Keywords is the raw JSON payload written by the extractor;
// ProcessingError is set only when Status is failed.
type ProcessedDocument struct {
	ID              string           `json:"id"`
	SourceID        string           `json:"sourceId"`
	Kind            EntityKind       `json:"kind"`
	Status          ProcessingStatus `json:"status"`
	Keywords        json.RawMessage  `json:"keywords,omitempty"`
	ProcessingError string           `json:"processingError,omitempty"`
	UpdatedAt       time.Time        `json:"updatedAt"`
}

// KeywordPayload is the structured shape stored in ProcessedDocument.Keywords.
type KeywordPayload struct {
	ExtractedKeywords []string `json:"extracted_keywords"`
}

// ReadyEntity is what the readiness validator hands to downstream stages:
// the raw content plus the usable keyword list.
type ReadyEntity struct {
	ID       string     `json:"id"`
	Kind     EntityKind `json:"kind"`
	Content  string     `json:"content"`
	Keywords []string   `json:"keywords"`
}

// ResumePreview is the schema-constrained structured rendering of an
// improved resume. It is best-effort: a nil preview is a valid outcome.
type ResumePreview struct {
	PersonalData PreviewPersonalData `json:"personalData"`
	Summary      string              `json:"summary,omitempty"`
	Experiences  []PreviewExperience `json:"experiences,omitempty"`
	Projects     []PreviewProject    `json:"projects,omitempty"`
	Skills       []string            `json:"skills,omitempty"`
	Education    []PreviewEducation  `json:"education,omitempty"`
}

type PreviewPersonalData struct {
	Name     string `json:"name"`
	Title    string `json:"title,omitempty"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Location string `json:"location,omitempty"`
	Website  string `json:"website,omitempty"`
}

type PreviewExperience struct {
	Title       string   `json:"title"`
	Company     string   `json:"company"`
	Location    string   `json:"location,omitempty"`
	Years       string   `json:"years,omitempty"`
	Description []string `json:"description,omitempty"`
}

type PreviewProject struct {
	Name        string   `json:"name"`
	Description []string `json:"description,omitempty"`
}

type PreviewEducation struct {
	Institution string `json:"institution"`
	Degree      string `json:"degree,omitempty"`
	Years       string `json:"years,omitempty"`
}

// RewriteResumeInput carries everything the rewriter conditions on. Resume
// text and score refer to the best candidate seen so far, not necessarily
// the stored original.
type RewriteResumeInput struct {
	ResumeText     string   `json:"resumeText"`
	ResumeKeywords []string `json:"resumeKeywords"`
	JobText        string   `json:"jobText"`
	JobKeywords    []string `json:"jobKeywords"`
	CurrentScore   float64  `json:"currentScore"`
}

// RewriteResumeOutput is the schema-constrained rewriter response.
type RewriteResumeOutput struct {
	UpdatedResume string `json:"updatedResume"`
}

// ExtractKeywordsInput identifies the document to run structured
// extraction over.
type ExtractKeywordsInput struct {
	Kind    EntityKind `json:"kind"`
	Content string     `json:"content"`
}

// ImprovementResult is the aggregate returned by a completed run.
type ImprovementResult struct {
	ResumeID       string         `json:"resume_id"`
	JobID          string         `json:"job_id"`
	OriginalScore  float64        `json:"original_score"`
	NewScore       float64        `json:"new_score"`
	Attempts       int            `json:"attempts"`
	UpdatedResume  string         `json:"updated_resume"`
	ResumeHTML     string         `json:"resume_html,omitempty"`
	ResumePreview  *ResumePreview `json:"resume_preview,omitempty"`
	ExecutionTime  time.Duration  `json:"-"`
	ExecutionTimeS float64        `json:"execution_time_seconds"`
}

// Streaming stage names, in emission order for a successful run.
const (
	StageStarting   = "starting"
	StageParsing    = "parsing"
	StageScoring    = "scoring"
	StageImproving  = "improving"
	StageGenerating = "generating"
	StageCompleted  = "completed"
	StageError      = "error"
)

// ProgressEvent is one element of a streaming run's event sequence.
// Data is populated only on the terminal completed event; Message only
// on intermediate and error events.
type ProgressEvent struct {
	Status  string             `json:"status"`
	Message string             `json:"message,omitempty"`
	Data    *ImprovementResult `json:"data,omitempty"`
}
