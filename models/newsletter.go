package models

import "time"

// NewsletterSection is one editorial block of a draft.
type NewsletterSection struct {
	Title        string   `bson:"title" json:"title"`
	Hook         string   `bson:"hook" json:"hook"`
	Summary      string   `bson:"summary" json:"summary"`
	CallToAction string   `bson:"call_to_action" json:"call_to_action"`
	Keywords     []string `bson:"keywords" json:"keywords"`
	SourceURL    string   `bson:"source_url" json:"source_url"`
}

// ImageAsset is the hero image attached to a draft.
type ImageAsset struct {
	URL          string `bson:"url" json:"url"`
	ThumbURL     string `bson:"thumb_url" json:"thumb_url"`
	Photographer string `bson:"photographer" json:"photographer"`
	UnsplashLink string `bson:"unsplash_link" json:"unsplash_link"`
	Attribution  string `bson:"attribution" json:"attribution"`
}

// Draft is the rendered newsletter persisted per run.
type Draft struct {
	RunID     string              `bson:"run_id" json:"run_id"`
	Hero      *ImageAsset         `bson:"hero" json:"hero"`
	Sections  []NewsletterSection `bson:"sections" json:"sections"`
	HTML      string              `bson:"html" json:"html"`
	MJML      string              `bson:"mjml,omitempty" json:"-"`
	CreatedAt time.Time           `bson:"created_at" json:"created_at"`
}

// EmailDraft is what the email-campaign provider reports back.
type EmailDraft struct {
	DraftID string `json:"draft_id"`
	Status  string `json:"status"`
}
