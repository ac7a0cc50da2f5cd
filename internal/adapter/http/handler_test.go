package httpadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"creator-outreach/internal/adapter/memory"
	"creator-outreach/internal/adapter/usecase"
	"creator-outreach/internal/config/configs"
	"creator-outreach/internal/core/domain"
	"creator-outreach/internal/core/port"
	"creator-outreach/internal/core/port/mocks"
)

type apiFixture struct {
	srv       *httptest.Server
	generator *mocks.MockDraftGenerator
	sender    *mocks.MockSendGateway
}

func newAPIFixture(t *testing.T, opts ...Option) *apiFixture {
	t.Helper()
	store := memory.New()
	f := &apiFixture{
		generator: mocks.NewMockDraftGenerator(t),
		sender:    mocks.NewMockSendGateway(t),
	}
	policy := usecase.Policy{
		FollowUpDelay:   72 * time.Hour,
		Uniqueness:      configs.UniquenessAllow,
		GenerateTimeout: time.Second,
		SendTimeout:     time.Second,
	}
	outreach := usecase.NewOutreachUseCase(store, f.generator, f.sender, policy)
	catalog := usecase.NewCatalogUseCase(store)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	h := NewHandler(outreach, catalog, logger, opts...)
	f.srv = httptest.NewServer(h.Router())
	t.Cleanup(f.srv.Close)
	return f
}

func (f *apiFixture) do(t *testing.T, method, path string, body any) (int, []byte) {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, f.srv.URL+path, rd)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := f.srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, out
}

func decode[T any](t *testing.T, b []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(b, &v), string(b))
	return v
}

// seed creates one influencer, one campaign and a thread linking them.
func (f *apiFixture) seed(t *testing.T) (threadID string) {
	t.Helper()
	status, body := f.do(t, http.MethodPost, "/api/v1/influencers", map[string]any{
		"platform": "Instagram",
		"handle":   "@GlowWithMia",
		"email":    "Mia@Example.com",
	})
	require.Equal(t, http.StatusCreated, status, string(body))
	inf := decode[map[string]any](t, body)
	assert.Equal(t, "glowwithmia", inf["handle"])
	assert.Equal(t, "mia@example.com", inf["email"])

	status, body = f.do(t, http.MethodPost, "/api/v1/campaigns", map[string]any{
		"name":       "Spring launch",
		"offer_type": "gifted",
		"rules":      map[string]any{"brand_context": map[string]any{"brand_name": "Hello To Natural"}},
	})
	require.Equal(t, http.StatusCreated, status, string(body))
	camp := decode[map[string]any](t, body)

	status, body = f.do(t, http.MethodPost, "/api/v1/threads", map[string]any{
		"influencer_id": inf["id"],
		"campaign_id":   camp["id"],
	})
	require.Equal(t, http.StatusCreated, status, string(body))
	th := decode[map[string]any](t, body)
	assert.Equal(t, "new", th["stage"])
	return th["id"].(string)
}

func (f *apiFixture) expectDraft() {
	f.generator.EXPECT().
		Generate(mock.Anything, mock.AnythingOfType("port.DraftContext")).
		Return(port.Draft{Subject: "Collab idea", Body: "Hi Mia", Mode: domain.ModeMock}, nil)
}

func TestOutreachLifecycleOverHTTP(t *testing.T) {
	f := newAPIFixture(t)
	f.expectDraft()
	f.sender.EXPECT().
		Send(mock.Anything, mock.AnythingOfType("port.SendPayload")).
		Return("stub-1", nil)
	threadID := f.seed(t)

	status, body := f.do(t, http.MethodPost, "/api/v1/threads/"+threadID+"/draft", nil)
	require.Equal(t, http.StatusCreated, status, string(body))
	msg := decode[map[string]any](t, body)
	assert.Equal(t, "draft", msg["status"])
	assert.Equal(t, "outbound", msg["direction"])
	msgID := msg["id"].(string)

	status, _ = f.do(t, http.MethodPost, "/api/v1/threads/"+threadID+"/draft", nil)
	assert.Equal(t, http.StatusConflict, status)

	status, _ = f.do(t, http.MethodPost, "/api/v1/messages/"+msgID+"/send", nil)
	assert.Equal(t, http.StatusConflict, status)

	status, body = f.do(t, http.MethodPost, "/api/v1/messages/"+msgID+"/approve", nil)
	require.Equal(t, http.StatusOK, status, string(body))
	assert.Equal(t, "approved", decode[map[string]any](t, body)["status"])

	status, body = f.do(t, http.MethodPost, "/api/v1/messages/"+msgID+"/send", nil)
	require.Equal(t, http.StatusOK, status, string(body))
	sent := decode[map[string]any](t, body)
	assert.Equal(t, "sent", sent["status"])
	assert.Equal(t, "stub-1", sent["provider_message_id"])

	status, body = f.do(t, http.MethodGet, "/api/v1/threads/"+threadID, nil)
	require.Equal(t, http.StatusOK, status)
	th := decode[map[string]any](t, body)
	assert.Equal(t, "waiting", th["stage"])
	assert.NotNil(t, th["next_followup_at"])

	status, body = f.do(t, http.MethodGet, "/api/v1/threads?stage=waiting", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[[]map[string]any](t, body), 1)

	status, body = f.do(t, http.MethodGet, "/api/v1/threads/"+threadID+"/messages", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[[]map[string]any](t, body), 1)
}

func TestSimulateInboundIsGated(t *testing.T) {
	reply := map[string]any{"subject": "Re: Collab idea", "body": "Sounds great"}

	f := newAPIFixture(t)
	threadID := f.seed(t)
	status, _ := f.do(t, http.MethodPost, "/api/v1/threads/"+threadID+"/simulate_inbound", reply)
	assert.Equal(t, http.StatusForbidden, status)

	f = newAPIFixture(t, WithTestEndpoints(true))
	threadID = f.seed(t)
	status, body := f.do(t, http.MethodPost, "/api/v1/threads/"+threadID+"/simulate_inbound", reply)
	require.Equal(t, http.StatusCreated, status, string(body))
	msg := decode[map[string]any](t, body)
	assert.Equal(t, "inbound", msg["direction"])
	assert.Equal(t, "received", msg["status"])

	_, body = f.do(t, http.MethodGet, "/api/v1/threads/"+threadID, nil)
	assert.Equal(t, "replied", decode[map[string]any](t, body)["stage"])

	status, _ = f.do(t, http.MethodPost, "/api/v1/threads/"+threadID+"/simulate_inbound", map[string]any{"body": " "})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestUpstreamFailuresAnswerBadGateway(t *testing.T) {
	f := newAPIFixture(t)
	threadID := f.seed(t)

	f.generator.EXPECT().
		Generate(mock.Anything, mock.AnythingOfType("port.DraftContext")).
		Return(port.Draft{}, errors.New("model overloaded")).Once()
	status, _ := f.do(t, http.MethodPost, "/api/v1/threads/"+threadID+"/draft", nil)
	assert.Equal(t, http.StatusBadGateway, status)

	f.expectDraft()
	status, body := f.do(t, http.MethodPost, "/api/v1/threads/"+threadID+"/draft", nil)
	require.Equal(t, http.StatusCreated, status, string(body))
	msgID := decode[map[string]any](t, body)["id"].(string)
	status, _ = f.do(t, http.MethodPost, "/api/v1/messages/"+msgID+"/approve", nil)
	require.Equal(t, http.StatusOK, status)

	f.sender.EXPECT().
		Send(mock.Anything, mock.AnythingOfType("port.SendPayload")).
		Return("", errors.New("421 service not available"))
	status, _ = f.do(t, http.MethodPost, "/api/v1/messages/"+msgID+"/send", nil)
	assert.Equal(t, http.StatusBadGateway, status)

	_, body = f.do(t, http.MethodGet, "/api/v1/messages/"+msgID, nil)
	assert.Equal(t, "approved", decode[map[string]any](t, body)["status"])
}

func TestRequestValidation(t *testing.T) {
	f := newAPIFixture(t)
	cases := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"bad thread id", http.MethodGet, "/api/v1/threads/not-a-uuid", nil, http.StatusBadRequest},
		{"unknown thread", http.MethodGet, "/api/v1/threads/" + uuid.NewString(), nil, http.StatusNotFound},
		{"unknown message", http.MethodPost, "/api/v1/messages/" + uuid.NewString() + "/approve", nil, http.StatusNotFound},
		{"unknown stage", http.MethodGet, "/api/v1/threads?stage=archived", nil, http.StatusBadRequest},
		{"bad limit", http.MethodGet, "/api/v1/influencers?limit=-1", nil, http.StatusBadRequest},
		{"bad has_email", http.MethodGet, "/api/v1/influencers?has_email=maybe", nil, http.StatusBadRequest},
		{"missing handle", http.MethodPost, "/api/v1/influencers", map[string]any{"platform": "tiktok"}, http.StatusBadRequest},
		{"unknown field", http.MethodPost, "/api/v1/campaigns", map[string]any{"name": "x", "budget": 10}, http.StatusBadRequest},
		{"unknown references", http.MethodPost, "/api/v1/threads", map[string]any{
			"influencer_id": uuid.NewString(), "campaign_id": uuid.NewString(),
		}, http.StatusNotFound},
		{"bulk bad id", http.MethodPost, "/api/v1/threads/bulk", map[string]any{
			"campaign_id": uuid.NewString(), "influencer_ids": []string{"nope"},
		}, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, body := f.do(t, tc.method, tc.path, tc.body)
			assert.Equal(t, tc.want, status, string(body))
			assert.NotEmpty(t, decode[errorResponse](t, body).Error)
		})
	}
}

func TestStatusFor(t *testing.T) {
	id := uuid.New()
	cases := []struct {
		err  error
		want int
	}{
		{&domain.ValidationError{Field: "body", Reason: "empty"}, http.StatusBadRequest},
		{&domain.NotFoundError{Entity: "thread", ID: id}, http.StatusNotFound},
		{fmt.Errorf("load: %w", &domain.NotFoundError{Entity: "thread", ID: id}), http.StatusNotFound},
		{&domain.GuardViolationError{Op: "approve", Entity: "message"}, http.StatusConflict},
		{&domain.DuplicateThreadError{ExistingID: id}, http.StatusConflict},
		{&domain.GenerationError{ThreadID: id, Err: context.DeadlineExceeded}, http.StatusBadGateway},
		{&domain.SendError{MessageID: id, Err: errors.New("smtp")}, http.StatusBadGateway},
		{errors.New("connection reset"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, statusFor(tc.err), tc.err.Error())
	}
}

func TestHealth(t *testing.T) {
	f := newAPIFixture(t, WithHealthCheck("store", func(context.Context) error { return nil }))
	status, body := f.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "healthy", decode[healthResponse](t, body).Dependencies["store"])

	f = newAPIFixture(t, WithHealthCheck("rabbitmq", func(context.Context) error { return errors.New("connection closed") }))
	status, body = f.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, "degraded", decode[healthResponse](t, body).Status)
}

func TestMetricsEndpoint(t *testing.T) {
	f := newAPIFixture(t)
	f.do(t, http.MethodGet, "/health", nil)

	status, body := f.do(t, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), `http_requests_total{method="GET",route="/health",status="200"}`)
}
