package notification

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/vso023/smartpark-project/internal/geo"
	"github.com/vso023/smartpark-project/internal/model"
	"github.com/vso023/smartpark-project/internal/parking"
	"github.com/vso023/smartpark-project/internal/store"
)

// mockSender records pushes and answers with a scripted status code.
type mockSender struct {
	status int
	sent   []string
}

func (m *mockSender) Send(payload []byte, sub *webpush.Subscription, _ *webpush.Options) (*http.Response, error) {
	m.sent = append(m.sent, sub.Endpoint+": "+string(payload))
	return &http.Response{
		StatusCode: m.status,
		Body:       io.NopCloser(strings.NewReader("")),
	}, nil
}

func newTestStore(t *testing.T) store.Store {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&model.SearchHistory{},
		&model.PushSubscription{},
		&model.FacilityWatch{},
	))
	return store.NewGormStore(db)
}

func testCatalog() *parking.Catalog {
	return parking.NewCatalog([]parking.Facility{
		{ID: 3, Name: "Estacionamiento Premium Elite", Location: geo.Location{Lat: 3.47, Lng: -76.51},
			Available: true, Capacity: 200, AvailableSpaces: 20},
	})
}

func TestNotifyWatchers_SendsToEveryWatcher(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, st.SaveSubscription(ctx,
		model.PushSubscription{Endpoint: "https://push.example/a", P256DH: "k", Auth: "a"}, []int64{3}))
	require.NoError(t, st.SaveSubscription(ctx,
		model.PushSubscription{Endpoint: "https://push.example/b", P256DH: "k", Auth: "a"}, []int64{3}))

	sender := &mockSender{status: http.StatusCreated}
	pool := NewWorkerPool(1, st, testCatalog(), &webpush.Options{})
	pool.SetSender(sender)

	pool.notifyWatchers(ctx, 3)

	require.Len(t, sender.sent, 2)
	for _, msg := range sender.sent {
		assert.Contains(t, msg, "Estacionamiento Premium Elite")
	}
}

func TestNotifyWatchers_NoWatchersNoPush(t *testing.T) {
	st := newTestStore(t)
	sender := &mockSender{status: http.StatusCreated}
	pool := NewWorkerPool(1, st, testCatalog(), &webpush.Options{})
	pool.SetSender(sender)

	pool.notifyWatchers(context.Background(), 3)

	assert.Empty(t, sender.sent)
}

func TestNotifyWatchers_ExpiredSubscriptionIsDeleted(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, st.SaveSubscription(ctx,
		model.PushSubscription{Endpoint: "https://push.example/stale", P256DH: "k", Auth: "a"}, []int64{3}))

	sender := &mockSender{status: http.StatusGone}
	pool := NewWorkerPool(1, st, testCatalog(), &webpush.Options{})
	pool.SetSender(sender)

	pool.notifyWatchers(ctx, 3)

	watchers, err := st.WatchersOf(ctx, 3)
	require.NoError(t, err)
	assert.Empty(t, watchers, "a 410 response must drop the subscription")
}

func TestDispatch_FeedsWorkers(t *testing.T) {
	pool := NewWorkerPool(2, newTestStore(t), testCatalog(), &webpush.Options{})

	done := make(chan int64, 1)
	go func() {
		done <- <-pool.Jobs()
	}()

	pool.Dispatch(3)
	assert.Equal(t, int64(3), <-done)
}
