package models

import (
	"strings"
	"time"
)

// TopicPreset is a saved set of topics and feeds.
type TopicPreset struct {
	ID        string    `bson:"id" json:"id,omitempty" yaml:"id"`
	Name      string    `bson:"name" json:"name" yaml:"name" binding:"required"`
	Topics    []string  `bson:"topics" json:"topics" yaml:"topics"`
	RSSFeeds  []string  `bson:"rss_feeds,omitempty" json:"rss_feeds,omitempty" yaml:"rss_feeds" binding:"omitempty,dive,url"`
	CreatedAt time.Time `bson:"created_at" json:"created_at,omitempty" yaml:"-"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at,omitempty" yaml:"-"`
}

// Slug derives a stable identifier from the preset name.
func (p TopicPreset) Slug() string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(p.Name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
