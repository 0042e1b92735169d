package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsletter-backend/logger"
	"newsletter-backend/models"
)

type mailjetCall struct {
	Path string
	Body map[string]any
}

type fakeMailjet struct {
	mu       sync.Mutex
	calls    []mailjetCall
	failPath string
}

func (f *fakeMailjet) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	user, pass, ok := r.BasicAuth()
	if !ok || user != "mj-key" || pass != "mj-secret" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	var body map[string]any
	_ = json.NewDecoder(r.Body).Decode(&body)

	f.mu.Lock()
	f.calls = append(f.calls, mailjetCall{Path: r.URL.Path, Body: body})
	f.mu.Unlock()

	if r.URL.Path == f.failPath {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"ErrorMessage":"nope"}`)
		return
	}
	if r.URL.Path == "/v3/REST/campaigndraft" {
		fmt.Fprint(w, `{"Count":1,"Data":[{"ID":4242}],"Total":1}`)
		return
	}
	fmt.Fprint(w, `{"Count":1,"Data":[],"Total":1}`)
}

func newMailjet(t *testing.T, fake *fakeMailjet) *MailjetService {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	return NewMailjetService(srv.Client(), MailjetConfig{
		BaseURL:       srv.URL + "/v3/REST",
		APIKey:        "mj-key",
		APISecret:     "mj-secret",
		SenderName:    "Newsroom",
		SenderEmail:   "news@example.com",
		ContactListID: 7,
	}, logger.Discard())
}

func TestMailjet_MockWithoutCredentials(t *testing.T) {
	svc := NewMailjetService(http.DefaultClient, MailjetConfig{APIKey: "only-key"}, logger.Discard())

	draft, err := svc.CreateDraft(context.Background(), "Weekly Brief", "", "<p>x</p>", "x")

	require.NoError(t, err)
	assert.Equal(t, models.EmailDraft{DraftID: "mock", Status: "saved"}, draft)
}

func TestMailjet_CreateDraft(t *testing.T) {
	fake := &fakeMailjet{}
	svc := newMailjet(t, fake)

	draft, err := svc.CreateDraft(context.Background(), "Weekly Brief", "Top stories", "<p>html</p>", "text")

	require.NoError(t, err)
	assert.Equal(t, models.EmailDraft{DraftID: "4242", Status: "ready"}, draft)

	require.Len(t, fake.calls, 3)
	assert.Equal(t, "/v3/REST/campaigndraft", fake.calls[0].Path)
	assert.Equal(t, "Weekly Brief", fake.calls[0].Body["Subject"])
	assert.Equal(t, "news@example.com", fake.calls[0].Body["SenderEmail"])
	assert.EqualValues(t, 7, fake.calls[0].Body["ContactsListID"])

	assert.Equal(t, "/v3/REST/campaigndraft/4242/detailcontent", fake.calls[1].Path)
	assert.Equal(t, "<p>html</p>", fake.calls[1].Body["Html-part"])
	assert.Equal(t, "text", fake.calls[1].Body["Text-part"])
	assert.Equal(t, map[string]any{"X-Preheader": "Top stories"}, fake.calls[1].Body["Headers"])

	assert.Equal(t, "/v3/REST/campaigndraft/4242/test", fake.calls[2].Path)
}

func TestMailjet_TestSendFailureIsNotFatal(t *testing.T) {
	fake := &fakeMailjet{failPath: "/v3/REST/campaigndraft/4242/test"}

	draft, err := newMailjet(t, fake).CreateDraft(context.Background(), "s", "", "h", "t")

	require.NoError(t, err)
	assert.Equal(t, "ready", draft.Status)
}

func TestMailjet_CreateFailure(t *testing.T) {
	for _, path := range []string{"/v3/REST/campaigndraft", "/v3/REST/campaigndraft/4242/detailcontent"} {
		t.Run(path, func(t *testing.T) {
			fake := &fakeMailjet{failPath: path}

			_, err := newMailjet(t, fake).CreateDraft(context.Background(), "s", "", "h", "t")

			require.ErrorIs(t, err, models.ErrUpstreamError)
			assert.Contains(t, err.Error(), "status 400")
		})
	}
}
