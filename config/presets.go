package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"newsletter-backend/models"
)

type presetsFile struct {
	Presets []models.TopicPreset `yaml:"presets"`
}

// LoadTopicPresets reads seed presets from a YAML file of the form
//
//	presets:
//	  - name: AI weekly
//	    topics: [ai, llm]
//	    rss_feeds: [https://example.com/feed.xml]
func LoadTopicPresets(path string) ([]models.TopicPreset, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read presets file: %w", err)
	}
	var f presetsFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse presets file: %w", err)
	}
	for i, p := range f.Presets {
		if p.Name == "" || len(p.Topics) == 0 {
			return nil, fmt.Errorf("%w: preset %d needs a name and at least one topic", models.ErrInvalidArgument, i)
		}
	}
	return f.Presets, nil
}
