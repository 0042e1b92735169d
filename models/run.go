package models

import "time"

// RunStatus is the lifecycle state of a pipeline run.
type RunStatus string

const (
	RunQueued    RunStatus = "queued"
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

const (
	DefaultNewsletterTitle = "Weekly Brief"
	DefaultHeroQuery       = "news"
)

// Run is the persisted record of one pipeline execution.
type Run struct {
	ID        string    `bson:"id" json:"id"`
	Status    RunStatus `bson:"status" json:"status"`
	Topics    []string  `bson:"topics,omitempty" json:"topics,omitempty"`
	Message   string    `bson:"message,omitempty" json:"message,omitempty"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"-"`
}

// RunRequest is the body accepted by POST /runs.
type RunRequest struct {
	Topics      []string `json:"topics"`
	Title       string   `json:"title"`
	Subject     string   `json:"subject"`
	Preheader   string   `json:"preheader"`
	HeroQuery   string   `json:"hero_query"`
	RSSFeeds    []string `json:"rss_feeds" binding:"omitempty,dive,url"`
	WindowHours int      `json:"window_hours" binding:"omitempty,min=1"`
}

// RunResponse acknowledges a scheduled run.
type RunResponse struct {
	RunID   string    `json:"run_id"`
	Status  RunStatus `json:"status"`
	Message string    `json:"message,omitempty"`
}

// RunJob is the unit of work handed to a dispatcher. It is serialized
// onto the queue, so it only carries plain data.
type RunJob struct {
	RunID       string   `json:"run_id"`
	Topics      []string `json:"topics"`
	Title       string   `json:"title"`
	Subject     string   `json:"subject"`
	Preheader   string   `json:"preheader"`
	HeroQuery   string   `json:"hero_query"`
	RSSFeeds    []string `json:"rss_feeds,omitempty"`
	WindowHours int      `json:"window_hours,omitempty"`
}

// NewRunJob applies request defaults.
func NewRunJob(runID string, req RunRequest) RunJob {
	job := RunJob{
		RunID:       runID,
		Topics:      req.Topics,
		Title:       req.Title,
		Subject:     req.Subject,
		Preheader:   req.Preheader,
		HeroQuery:   req.HeroQuery,
		RSSFeeds:    req.RSSFeeds,
		WindowHours: req.WindowHours,
	}
	if job.Title == "" {
		job.Title = DefaultNewsletterTitle
	}
	if job.Subject == "" {
		job.Subject = DefaultNewsletterTitle
	}
	if job.HeroQuery == "" {
		job.HeroQuery = DefaultHeroQuery
		if len(req.Topics) > 0 && req.Topics[0] != "" {
			job.HeroQuery = req.Topics[0]
		}
	}
	return job
}

// RunResult is what a completed run produced.
type RunResult struct {
	RunID    string              `json:"run_id"`
	Sections []NewsletterSection `json:"sections"`
	Hero     *ImageAsset         `json:"hero"`
	HTML     string              `json:"html"`
	MJML     string              `json:"mjml"`
	Email    EmailDraft          `json:"email"`
}
