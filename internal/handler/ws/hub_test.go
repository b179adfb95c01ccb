package ws

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockPredict/internal/domain/models"
	"StockPredict/internal/service/feed"
)

func startHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	hub := NewHub(nil)
	e := echo.New()
	hub.RegisterRoutes(e)
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	return hub, srv
}

func subscribe(t *testing.T, ctx context.Context, srv *httptest.Server, symbol string) (<-chan models.PredictionEvent, <-chan error) {
	t.Helper()
	c, err := feed.New(srv.URL, symbol, time.Second)
	require.NoError(t, err)
	require.NoError(t, c.Connect(ctx))
	t.Cleanup(func() { _ = c.Close() })
	return c.Read(ctx)
}

func TestHubBroadcastsFilteredEvents(t *testing.T) {
	hub, srv := startHub(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	aapl, _ := subscribe(t, ctx, srv, "aapl")
	all, _ := subscribe(t, ctx, srv, "")
	require.Eventually(t, func() bool { return hub.Clients() == 2 }, 2*time.Second, 10*time.Millisecond)

	price := models.Price(101.5)
	require.NoError(t, hub.PublishPrediction(ctx, models.PredictionEvent{ID: "1", Symbol: "MSFT"}))
	require.NoError(t, hub.PublishPrediction(ctx, models.PredictionEvent{ID: "2", Symbol: "AAPL", PredictedPrice: &price, Confidence: 12.5}))

	select {
	case ev := <-aapl:
		assert.Equal(t, "2", ev.ID)
		require.NotNil(t, ev.PredictedPrice)
		assert.Equal(t, price, *ev.PredictedPrice)
		assert.Equal(t, models.Percent(12.5), ev.Confidence)
	case <-ctx.Done():
		t.Fatal("no event for filtered subscriber")
	}

	var got []string
	for len(got) < 2 {
		select {
		case ev := <-all:
			got = append(got, ev.ID)
		case <-ctx.Done():
			t.Fatal("missing events for unfiltered subscriber")
		}
	}
	assert.Equal(t, []string{"1", "2"}, got)
}

func TestHubCloseDisconnectsClients(t *testing.T) {
	hub, srv := startHub(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	events, errs := subscribe(t, ctx, srv, "")
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, hub.Close())
	assert.Equal(t, 0, hub.Clients())

	select {
	case _, ok := <-events:
		assert.False(t, ok)
	case <-ctx.Done():
		t.Fatal("client not disconnected")
	}
	assert.NoError(t, <-errs)
	require.NoError(t, hub.Close(), "close is idempotent")
}
