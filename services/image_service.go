package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"newsletter-backend/models"
)

// UnsplashSearchURL is the photo search endpoint.
const UnsplashSearchURL = "https://api.unsplash.com/search/photos"

type unsplashResponse struct {
	Results []struct {
		URLs struct {
			Regular string `json:"regular"`
			Thumb   string `json:"thumb"`
			Small   string `json:"small"`
		} `json:"urls"`
		User struct {
			Name string `json:"name"`
		} `json:"user"`
		Links struct {
			HTML string `json:"html"`
			Self string `json:"self"`
		} `json:"links"`
	} `json:"results"`
}

// ImageService looks up a hero image per query. Hits are cached for an
// hour since concurrent runs often share a topic.
type ImageService struct {
	client    *http.Client
	endpoint  string
	accessKey string
	cache     *expirable.LRU[string, models.ImageAsset]
	logger    *slog.Logger
}

func NewImageService(client *http.Client, endpoint, accessKey string, logger *slog.Logger) *ImageService {
	return &ImageService{
		client:    client,
		endpoint:  endpoint,
		accessKey: accessKey,
		cache:     expirable.NewLRU[string, models.ImageAsset](128, nil, time.Hour),
		logger:    logger,
	}
}

// Fetch returns nil without error when the provider is disabled, fails
// or has no match.
func (s *ImageService) Fetch(ctx context.Context, query string) (*models.ImageAsset, error) {
	if s.accessKey == "" {
		s.logger.Warn("image.unsplash.disabled", "reason", disabledReason("missing UNSPLASH_ACCESS_KEY"))
		return nil, nil
	}
	key := strings.ToLower(strings.TrimSpace(query))
	if asset, ok := s.cache.Get(key); ok {
		return &asset, nil
	}

	asset, err := s.search(ctx, query)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("fetch hero image: %w", ctxErr)
		}
		s.logger.Error("image.unsplash.error", "query", query, "error", err)
		return nil, nil
	}
	if asset != nil {
		s.cache.Add(key, *asset)
	}
	return asset, nil
}

func (s *ImageService) search(ctx context.Context, query string) (*models.ImageAsset, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("per_page", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Client-ID "+s.accessKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, &statusError{status: resp.StatusCode, body: readBody(resp)}
	}

	var data unsplashResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("decode unsplash response: %w", err)
	}
	if len(data.Results) == 0 {
		return nil, nil
	}

	photo := data.Results[0]
	thumb := photo.URLs.Thumb
	if thumb == "" {
		thumb = photo.URLs.Small
	}
	link := photo.Links.HTML
	if link == "" {
		link = photo.Links.Self
	}
	photographer := photo.User.Name
	if photographer == "" {
		photographer = "Unknown"
	}
	return &models.ImageAsset{
		URL:          photo.URLs.Regular,
		ThumbURL:     thumb,
		Photographer: photographer,
		UnsplashLink: link,
		Attribution:  fmt.Sprintf("Photo by %s on Unsplash", photographer),
	}, nil
}
