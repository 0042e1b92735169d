package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"newsletter-backend/models"
)

// MailjetConfig holds the campaign-draft settings.
type MailjetConfig struct {
	BaseURL       string
	APIKey        string
	APISecret     string
	SenderName    string
	SenderEmail   string
	ContactListID int64
}

// MailjetService creates campaign drafts. Without credentials it returns
// a mock draft instead of failing.
type MailjetService struct {
	client *http.Client
	cfg    MailjetConfig
	logger *slog.Logger
}

func NewMailjetService(client *http.Client, cfg MailjetConfig, logger *slog.Logger) *MailjetService {
	if cfg.APIKey == "" || cfg.APISecret == "" {
		logger.Warn("mailjet.disabled", "reason", disabledReason("missing credentials"))
	}
	return &MailjetService{client: client, cfg: cfg, logger: logger}
}

func (s *MailjetService) enabled() bool {
	return s.cfg.APIKey != "" && s.cfg.APISecret != ""
}

type mailjetDataResponse struct {
	Data []struct {
		ID int64 `json:"ID"`
	} `json:"Data"`
}

// CreateDraft creates the campaign draft, attaches the content and sends
// a test to the sender address.
func (s *MailjetService) CreateDraft(ctx context.Context, subject, preheader, html, text string) (models.EmailDraft, error) {
	if !s.enabled() {
		s.logger.Info("mailjet.mock_draft", "subject", subject)
		return models.EmailDraft{DraftID: "mock", Status: "saved"}, nil
	}

	draft := map[string]any{
		"Locale":      "en_US",
		"Sender":      s.cfg.SenderName,
		"SenderEmail": s.cfg.SenderEmail,
		"Subject":     subject,
		"Title":       subject,
	}
	if s.cfg.ContactListID > 0 {
		draft["ContactsListID"] = s.cfg.ContactListID
	}

	var created mailjetDataResponse
	if err := s.post(ctx, "/campaigndraft", draft, &created); err != nil {
		return models.EmailDraft{}, fmt.Errorf("create campaign draft: %w", err)
	}
	if len(created.Data) == 0 {
		return models.EmailDraft{}, fmt.Errorf("%w: campaign draft response has no data", models.ErrUpstreamError)
	}
	id := strconv.FormatInt(created.Data[0].ID, 10)

	content := map[string]any{"Html-part": html, "Text-part": text}
	if preheader != "" {
		content["Headers"] = map[string]string{"X-Preheader": preheader}
	}
	if err := s.post(ctx, "/campaigndraft/"+id+"/detailcontent", content, nil); err != nil {
		return models.EmailDraft{}, fmt.Errorf("set draft content: %w", err)
	}

	test := map[string]any{
		"Recipients": []map[string]string{{"Email": s.cfg.SenderEmail, "Name": s.cfg.SenderName}},
	}
	if err := s.post(ctx, "/campaigndraft/"+id+"/test", test, nil); err != nil {
		s.logger.Warn("mailjet.test_send_failed", "draft_id", id, "error", err)
	}

	s.logger.Info("mailjet.draft_ready", "draft_id", id)
	return models.EmailDraft{DraftID: id, Status: "ready"}, nil
}

func (s *MailjetService) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.SetBasicAuth(s.cfg.APIKey, s.cfg.APISecret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", models.ErrUpstreamError, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return &statusError{status: resp.StatusCode, body: readBody(resp)}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Join(models.ErrUpstreamError, fmt.Errorf("decode mailjet response: %w", err))
	}
	return nil
}
