package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"privacy-checkout/internal/dto"
	"privacy-checkout/internal/logger"
	"privacy-checkout/internal/model"
	"privacy-checkout/internal/pix"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	mu        sync.Mutex
	createRaw json.RawMessage
	createErr error
	requests  []*dto.CreatePixRequest

	// statuses are answered in order; the last one repeats.
	statuses    []model.PaymentStatus
	statusErr   error
	statusCalls atomic.Int32
	polledIDs   []string
}

func (a *fakeAPI) CreatePix(_ context.Context, req *dto.CreatePixRequest) (json.RawMessage, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.requests = append(a.requests, req)
	return a.createRaw, a.createErr
}

func (a *fakeAPI) CheckPaymentStatus(_ context.Context, id string) (model.PaymentStatus, error) {
	n := int(a.statusCalls.Add(1))

	a.mu.Lock()
	defer a.mu.Unlock()
	a.polledIDs = append(a.polledIDs, id)
	if a.statusErr != nil {
		return "", a.statusErr
	}
	if len(a.statuses) == 0 {
		return model.PaymentStatusWaiting, nil
	}
	if n > len(a.statuses) {
		n = len(a.statuses)
	}
	return a.statuses[n-1], nil
}

func (a *fakeAPI) lastRequest(t *testing.T) *dto.CreatePixRequest {
	t.Helper()
	a.mu.Lock()
	defer a.mu.Unlock()
	require.NotEmpty(t, a.requests)
	return a.requests[len(a.requests)-1]
}

func (a *fakeAPI) requestCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.requests)
}

type countingNavigator struct {
	calls atomic.Int32
	url   atomic.Value
}

func (n *countingNavigator) Navigate(url string) {
	n.url.Store(url)
	n.calls.Add(1)
}

func newTestSession(t *testing.T, api *fakeAPI, nav Navigator, store AttributionStore) *Session {
	t.Helper()
	s := NewSession(Config{
		API:          api,
		Store:        store,
		Navigator:    nav,
		Logger:       logger.Discard(),
		PollInterval: 5 * time.Millisecond,
		Now:          func() time.Time { return time.UnixMilli(1700000000000) },
	})
	t.Cleanup(s.Close)
	return s
}

func TestCheckout_PlanOnlyPaidAfterSecondPoll(t *testing.T) {
	api := &fakeAPI{
		createRaw: json.RawMessage(`{"id":"tx_1","pix":{"payload":"PIXCODE123"}}`),
		statuses:  []model.PaymentStatus{model.PaymentStatusWaiting, model.PaymentStatusPaid},
	}
	nav := &countingNavigator{}
	s := newTestSession(t, api, nav, nil)

	require.NoError(t, s.SelectPlan("1 mês"))
	assert.Equal(t, PlanSelected, s.State())
	require.NoError(t, s.SetEmail("a@b.com"))
	assert.Equal(t, AwaitingEmail, s.State())
	assert.Equal(t, int64(990), s.TotalCents())

	require.NoError(t, s.Submit(context.Background()))

	req := api.lastRequest(t)
	assert.Equal(t, int64(990), req.Amount)
	assert.Equal(t, "Privacy - 1 mês", req.Description)
	assert.Equal(t, "PIX", req.PaymentMethod)
	assert.Equal(t, "a@b.com", req.Customer.Email)
	require.Len(t, req.Items, 1)
	assert.Equal(t, int64(990), req.Items[0].UnitPrice)
	assert.Equal(t, "privacy_main_1700000000000", req.Items[0].ExternalRef)
	assert.Nil(t, req.UTMData)

	assert.Equal(t, "tx_1", s.TransactionID())
	assert.Equal(t, "PIXCODE123", s.PixPayload())
	assert.Equal(t, pix.QRCodeURL("PIXCODE123"), s.QRCodeURL())

	require.Eventually(t, func() bool { return s.State() == Paid }, time.Second, time.Millisecond)
	assert.Equal(t, int32(2), api.statusCalls.Load())

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(2), api.statusCalls.Load(), "polling continued after payment")
	assert.Equal(t, int32(1), nav.calls.Load())
	assert.Equal(t, DefaultThankYouURL, nav.url.Load())

	s.Close()
	assert.Equal(t, Paid, s.State())
	assert.Equal(t, int32(1), nav.calls.Load())
}

func TestCheckout_WithOrderBump(t *testing.T) {
	api := &fakeAPI{createRaw: json.RawMessage(`{"id":"tx_2","pix":{"qrcode":"PIX"}}`)}
	s := newTestSession(t, api, nil, nil)

	require.NoError(t, s.SelectPlan("1 mês"))
	require.NoError(t, s.ToggleBump("thomaz-costa"))
	require.NoError(t, s.SetEmail("a@b.com"))
	require.NoError(t, s.Submit(context.Background()))

	req := api.lastRequest(t)
	assert.Equal(t, int64(1980), req.Amount)
	assert.Equal(t, "Privacy - 1 mês + 1 extras", req.Description)
	require.Len(t, req.Items, 2)
	assert.Equal(t, "Privacy Thomaz Costa", req.Items[1].Title)
	assert.Equal(t, int64(990), req.Items[1].UnitPrice)
	assert.Equal(t, "privacy_bump_thomaz-costa_1700000000000", req.Items[1].ExternalRef)
}

func TestCheckout_TotalFollowsToggles(t *testing.T) {
	s := newTestSession(t, &fakeAPI{}, nil, nil)
	assert.True(t, s.Total().IsZero())

	require.NoError(t, s.SelectPlan("Vitalício"))
	require.NoError(t, s.ToggleBump("leo-santana"))
	require.NoError(t, s.ToggleBump("caio-castro"))
	assert.Equal(t, int64(4970), s.TotalCents())

	require.NoError(t, s.ToggleBump("leo-santana"))
	assert.Equal(t, int64(3980), s.TotalCents())
	require.Len(t, s.SelectedBumps(), 1)
	assert.Equal(t, "caio-castro", s.SelectedBumps()[0].ID)

	assert.ErrorIs(t, s.ToggleBump("nobody"), ErrUnknownBump)
	assert.ErrorIs(t, s.SelectPlan("2 anos"), ErrUnknownPlan)
}

func TestCheckout_EmailValidationBlocksNetwork(t *testing.T) {
	api := &fakeAPI{}
	s := newTestSession(t, api, nil, nil)
	require.NoError(t, s.SelectPlan("3 meses"))

	err := s.Submit(context.Background())
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.ErrorIs(t, err, ErrInvalidEmail)

	for _, bad := range []string{"a@b", "a b@c.com", "@b.com", "ab.com"} {
		assert.ErrorIs(t, s.SetEmail(bad), ErrInvalidEmail, bad)
		assert.ErrorIs(t, s.Submit(context.Background()), ErrInvalidEmail, bad)
	}

	assert.NoError(t, s.SetEmail(""))
	assert.Equal(t, AwaitingEmail, s.State())
	assert.Zero(t, api.requestCount())
}

func TestCheckout_SubmitRequiresPlan(t *testing.T) {
	s := newTestSession(t, &fakeAPI{}, nil, nil)
	assert.ErrorIs(t, s.Submit(context.Background()), ErrInvalidTransition)
	assert.ErrorIs(t, s.SetEmail("a@b.com"), ErrInvalidTransition)
}

func TestCheckout_CreationFailureAndAcknowledge(t *testing.T) {
	api := &fakeAPI{createErr: &APIError{StatusCode: 422, Message: "Sunize API error: 422 - bad"}}
	s := newTestSession(t, api, nil, nil)

	require.NoError(t, s.SelectPlan("1 mês"))
	require.NoError(t, s.ToggleBump("yuri-bonotto"))
	require.NoError(t, s.SetEmail(" a@b.com "))

	err := s.Submit(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, Failed, s.State())
	assert.Equal(t, "a@b.com", api.lastRequest(t).Customer.Email)
	require.ErrorAs(t, s.Err(), &apiErr)
	assert.ErrorIs(t, s.ToggleBump("yuri-bonotto"), ErrInvalidTransition)

	require.NoError(t, s.Acknowledge())
	assert.Equal(t, AwaitingEmail, s.State())
	assert.Equal(t, " a@b.com ", s.Email())
	assert.Len(t, s.SelectedBumps(), 1)
	assert.NoError(t, s.Err())
	assert.ErrorIs(t, s.Acknowledge(), ErrInvalidTransition)

	api.mu.Lock()
	api.createErr = nil
	api.createRaw = json.RawMessage(`{"data":{"id":"tx_3","pix":{"code":"PIX3"}}}`)
	api.mu.Unlock()

	require.NoError(t, s.Submit(context.Background()))
	assert.Equal(t, AwaitingPayment, s.State())
	assert.Equal(t, "tx_3", s.TransactionID())
}

func TestCheckout_PayloadMissingFails(t *testing.T) {
	api := &fakeAPI{createRaw: json.RawMessage(`{"id":"tx_4","status":"pending"}`)}
	s := newTestSession(t, api, nil, nil)

	require.NoError(t, s.SelectPlan("1 mês"))
	require.NoError(t, s.SetEmail("a@b.com"))

	assert.ErrorIs(t, s.Submit(context.Background()), pix.ErrPixPayloadMissing)
	assert.Equal(t, Failed, s.State())
	assert.Empty(t, s.PixPayload())
	assert.Empty(t, s.TransactionID())
	assert.Zero(t, api.statusCalls.Load())
}

func TestCheckout_MissingIDGetsLocalFallback(t *testing.T) {
	api := &fakeAPI{createRaw: json.RawMessage(`{"payload":"PIX5"}`)}
	s := newTestSession(t, api, nil, nil)

	require.NoError(t, s.SelectPlan("1 mês"))
	require.NoError(t, s.SetEmail("a@b.com"))
	require.NoError(t, s.Submit(context.Background()))
	assert.Equal(t, "privacy_1700000000000", s.TransactionID())
}

func TestCheckout_GatewayReportsFailure(t *testing.T) {
	api := &fakeAPI{
		createRaw: json.RawMessage(`{"id":"tx_6","pix":{"payload":"PIX6"}}`),
		statuses:  []model.PaymentStatus{model.PaymentStatusFailed},
	}
	nav := &countingNavigator{}
	s := newTestSession(t, api, nav, nil)

	require.NoError(t, s.SelectPlan("1 mês"))
	require.NoError(t, s.SetEmail("a@b.com"))
	require.NoError(t, s.Submit(context.Background()))

	require.Eventually(t, func() bool { return s.State() == Failed }, time.Second, time.Millisecond)
	assert.ErrorIs(t, s.Err(), ErrPaymentFailed)
	assert.Zero(t, nav.calls.Load())
}

func TestCheckout_PollErrorsKeepPolling(t *testing.T) {
	api := &fakeAPI{
		createRaw: json.RawMessage(`{"id":"tx_7","pix":{"payload":"PIX7"}}`),
		statusErr: errors.New("connection reset"),
	}
	s := newTestSession(t, api, nil, nil)

	require.NoError(t, s.SelectPlan("1 mês"))
	require.NoError(t, s.SetEmail("a@b.com"))
	require.NoError(t, s.Submit(context.Background()))

	require.Eventually(t, func() bool { return api.statusCalls.Load() >= 3 }, time.Second, time.Millisecond)
	assert.Equal(t, AwaitingPayment, s.State())
}

func TestCheckout_CloseStopsPolling(t *testing.T) {
	api := &fakeAPI{createRaw: json.RawMessage(`{"id":"tx_8","pix":{"payload":"PIX8"}}`)}
	nav := &countingNavigator{}
	s := newTestSession(t, api, nav, nil)

	require.NoError(t, s.SelectPlan("1 mês"))
	require.NoError(t, s.SetEmail("a@b.com"))
	require.NoError(t, s.Submit(context.Background()))
	require.Eventually(t, func() bool { return api.statusCalls.Load() >= 2 }, time.Second, time.Millisecond)

	s.Close()
	assert.Equal(t, Idle, s.State())
	assert.Empty(t, s.PixPayload())

	after := api.statusCalls.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, after, api.statusCalls.Load())
	assert.Zero(t, nav.calls.Load())
}

func TestCheckout_SelectPlanRestartsOrder(t *testing.T) {
	api := &fakeAPI{createRaw: json.RawMessage(`{"id":"tx_9","pix":{"payload":"PIX9"}}`)}
	s := newTestSession(t, api, nil, nil)

	require.NoError(t, s.SelectPlan("1 mês"))
	require.NoError(t, s.SetEmail("a@b.com"))
	require.NoError(t, s.Submit(context.Background()))
	require.Eventually(t, func() bool { return api.statusCalls.Load() >= 1 }, time.Second, time.Millisecond)

	require.NoError(t, s.SelectPlan("3 meses"))
	assert.Equal(t, PlanSelected, s.State())
	assert.Empty(t, s.TransactionID())
	assert.Empty(t, s.PixPayload())
	assert.Empty(t, s.Email())

	after := api.statusCalls.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, after, api.statusCalls.Load())
}

func TestCheckout_AttributionFromStoreAndTracker(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	_, err := CaptureAttribution(ctx, store, "https://privacy.example/?utm_source=fb&utm_campaign=launch&fbclid=x")
	require.NoError(t, err)

	api := &fakeAPI{createRaw: json.RawMessage(`{"id":"tx_10","pix":{"payload":"PIX10"}}`)}
	s := newTestSession(t, api, nil, store)

	require.NoError(t, s.SelectPlan("1 mês"))
	require.NoError(t, s.SetEmail("a@b.com"))
	require.NoError(t, s.Submit(ctx))
	assert.Equal(t, map[string]any{"utm_source": "fb", "utm_campaign": "launch"}, api.lastRequest(t).UTMData)

	s.SetTracking(model.UTM{Source: "tiktok"})
	require.NoError(t, s.SelectPlan("1 mês"))
	require.NoError(t, s.SetEmail("a@b.com"))
	require.NoError(t, s.Submit(ctx))
	assert.Equal(t, map[string]any{"utm_source": "tiktok"}, api.lastRequest(t).UTMData)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "awaiting_payment", AwaitingPayment.String())
	assert.Equal(t, "unknown", State(42).String())
}
