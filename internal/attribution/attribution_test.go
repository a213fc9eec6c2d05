package attribution

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"privacy-checkout/internal/config"
	"privacy-checkout/internal/logger"
	"privacy-checkout/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- fakes ---

type recordingClient struct {
	mu     sync.Mutex
	events []*model.AttributionEvent
	err    error
	calls  atomic.Int32
	block  chan struct{}
}

func (c *recordingClient) SendOrder(ctx context.Context, event *model.AttributionEvent) error {
	c.calls.Add(1)
	if c.block != nil {
		<-c.block
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
	return c.err
}

func (c *recordingClient) recorded() []*model.AttributionEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*model.AttributionEvent(nil), c.events...)
}

// --- BuildEvent ---

func TestBuildEvent(t *testing.T) {
	created := time.Date(2026, 3, 9, 22, 5, 7, 0, time.FixedZone("BRT", -3*3600))

	event := BuildEvent("Sunize", false, Order{
		TransactionID: "tx_1",
		ExternalID:    "transaction_1?utm_source=fb",
		Customer:      model.Customer{Name: "Carlos Eduardo Lima", Email: "carlos.lima@email.com", Phone: "+5511965432109", Document: "11122233344"},
		IP:            "203.0.113.9",
		Amount:        decimal.RequireFromString("19.9"),
		UTM:           model.UTM{Source: "fb", Campaign: "launch"},
		CreatedAt:     created,
	})

	assert.Equal(t, "tx_1", event.OrderID)
	assert.Equal(t, "transaction_1?utm_source=fb", event.ExternalID)
	assert.Equal(t, "pix", event.PaymentMethod)
	assert.Equal(t, "waiting_payment", event.Status)
	require.NotNil(t, event.CreatedAt)
	assert.Equal(t, "2026-03-10 01:05:07", *event.CreatedAt)
	assert.Nil(t, event.ApprovedDate)
	assert.Nil(t, event.RefundedAt)
	assert.Equal(t, "BR", event.Customer.Country)
	assert.Equal(t, "203.0.113.9", event.Customer.IP)

	require.Len(t, event.Products, 1)
	assert.Equal(t, int64(1990), event.Products[0].PriceInCents)
	assert.Equal(t, "Assinatura Privacy", event.Products[0].Name)
	assert.Equal(t, int64(1990), event.Commission.TotalPriceInCents)
	assert.Equal(t, int64(0), event.Commission.GatewayFeeInCents)
	assert.Equal(t, int64(1990), event.Commission.UserCommissionInCents)

	tp := event.TrackingParameters
	assert.Equal(t, "fb", tp.UTMSource)
	assert.Equal(t, "fb", tp.Src)
	assert.Equal(t, "launch", tp.UTMCampaign)
	assert.Equal(t, "direct", tp.UTMMedium)
	assert.Equal(t, "direct", tp.UTMContent)
	assert.Equal(t, "direct", tp.UTMTerm)
	assert.Nil(t, tp.Sck)
}

func TestBuildEvent_OrderIDFallsBackToExternalID(t *testing.T) {
	event := BuildEvent("Sunize", true, Order{ExternalID: "transaction_9", Amount: decimal.RequireFromString("9.9")})

	assert.Equal(t, "transaction_9", event.OrderID)
	assert.Equal(t, "transaction_9", event.ExternalID)
	assert.True(t, event.IsTest)
}

func TestBuildEvent_JSONNullDates(t *testing.T) {
	event := BuildEvent("Sunize", false, Order{ExternalID: "x", Amount: decimal.RequireFromString("9.9")})

	b, err := json.Marshal(event)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	assert.Contains(t, m, "approvedDate")
	assert.Nil(t, m["approvedDate"])
	assert.Nil(t, m["refundedAt"])
	assert.Equal(t, float64(990), m["commission"].(map[string]any)["totalPriceInCents"])
}

func TestFormatTimestamp(t *testing.T) {
	assert.Nil(t, FormatTimestamp(nil))

	ts := time.Date(2026, 1, 2, 3, 4, 5, 999, time.UTC)
	assert.Equal(t, "2026-01-02 03:04:05", *FormatTimestamp(&ts))
}

// --- AsyncForwarder ---

func TestForwarder_DeliversInBackground(t *testing.T) {
	c := &recordingClient{}
	f := NewAsyncForwarder(c, logger.Discard(), Options{})
	f.Start()

	f.Send(&model.AttributionEvent{OrderID: "a"})
	f.Send(&model.AttributionEvent{OrderID: "b"})

	require.NoError(t, f.Close(context.Background()))

	events := c.recorded()
	require.Len(t, events, 2)
	assert.Equal(t, "a", events[0].OrderID)
	assert.Equal(t, "b", events[1].OrderID)
}

func TestForwarder_SendDoesNotWaitForDelivery(t *testing.T) {
	c := &recordingClient{block: make(chan struct{})}
	f := NewAsyncForwarder(c, logger.Discard(), Options{QueueSize: 1})
	f.Start()

	done := make(chan struct{})
	go func() {
		for range 10 {
			f.Send(&model.AttributionEvent{OrderID: "x"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Send blocked on a stuck delivery")
	}

	close(c.block)
	require.NoError(t, f.Close(context.Background()))
}

func TestForwarder_FailureIsLoggedOnly(t *testing.T) {
	var buf bytes.Buffer
	l := logger.NewWithOutput(config.Log{Level: "info", Format: "text"}, "test", &buf)

	c := &recordingClient{err: errors.New("connection refused")}
	f := NewAsyncForwarder(c, l, Options{})
	f.Start()

	f.Send(&model.AttributionEvent{OrderID: "tx_err"})
	require.NoError(t, f.Close(context.Background()))

	assert.Contains(t, buf.String(), "delivery failed for order tx_err")
	assert.Contains(t, buf.String(), "connection refused")
}

func TestForwarder_BreakerStopsCallingAfterFailures(t *testing.T) {
	c := &recordingClient{err: errors.New("boom")}
	f := NewAsyncForwarder(c, logger.Discard(), Options{TripAfter: 2, OpenTimeout: time.Hour})
	f.Start()

	for range 6 {
		f.Send(&model.AttributionEvent{OrderID: "x"})
	}
	require.NoError(t, f.Close(context.Background()))

	assert.Equal(t, int32(2), c.calls.Load())
}

func TestForwarder_SendAfterCloseIsDropped(t *testing.T) {
	c := &recordingClient{}
	f := NewAsyncForwarder(c, logger.Discard(), Options{})
	f.Start()
	require.NoError(t, f.Close(context.Background()))

	assert.NotPanics(t, func() {
		f.Send(&model.AttributionEvent{OrderID: "late"})
	})
	assert.Empty(t, c.recorded())
}

func TestForwarder_CloseHonoursDeadline(t *testing.T) {
	c := &recordingClient{block: make(chan struct{})}
	defer close(c.block)

	f := NewAsyncForwarder(c, logger.Discard(), Options{})
	f.Start()
	f.Send(&model.AttributionEvent{OrderID: "stuck"})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, f.Close(ctx), context.DeadlineExceeded)
}

func TestLogOnlyClient(t *testing.T) {
	var buf bytes.Buffer
	l := logger.NewWithOutput(config.Log{Level: "info", Format: "json"}, "test", &buf)

	err := NewLogOnlyClient(l).SendOrder(context.Background(), &model.AttributionEvent{OrderID: "tx_1"})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"order_id":"tx_1"`)
}
