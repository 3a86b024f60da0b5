package notification

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"

	"github.com/vso023/smartpark-project/internal/model"
	"github.com/vso023/smartpark-project/internal/parking"
	"github.com/vso023/smartpark-project/internal/store"
)

// Sender defines the interface for sending a web push notification.
type Sender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is the real Sender backed by the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// WorkerPool fans freed-facility notifications out to watchers. Jobs are
// facility IDs that just became available.
type WorkerPool struct {
	size    int
	jobs    chan int64
	store   store.Store
	catalog *parking.Catalog
	webpush *webpush.Options
	sender  Sender
}

// NewWorkerPool creates a worker pool of the given size.
func NewWorkerPool(size int, st store.Store, catalog *parking.Catalog, options *webpush.Options) *WorkerPool {
	if size <= 0 {
		size = 1
	}
	return &WorkerPool{
		size:    size,
		jobs:    make(chan int64, size),
		store:   st,
		catalog: catalog,
		webpush: options,
		sender:  &WebPushSender{},
	}
}

// SetSender swaps the push transport, used by tests.
func (wp *WorkerPool) SetSender(s Sender) {
	wp.sender = s
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	log.Printf("notification worker %d started", id)
	for {
		select {
		case facilityID := <-wp.jobs:
			wp.notifyWatchers(ctx, facilityID)
		case <-ctx.Done():
			log.Printf("notification worker %d shutting down", id)
			return
		}
	}
}

// Dispatch queues a freed facility for notification.
func (wp *WorkerPool) Dispatch(facilityID int64) {
	wp.jobs <- facilityID
}

// Jobs exposes the job channel for tests.
func (wp *WorkerPool) Jobs() chan int64 {
	return wp.jobs
}

// notifyWatchers pushes a "facility freed" message to every watcher.
func (wp *WorkerPool) notifyWatchers(ctx context.Context, facilityID int64) {
	watchers, err := wp.store.WatchersOf(ctx, facilityID)
	if err != nil {
		log.Printf("error fetching watchers for facility %d: %v", facilityID, err)
		return
	}
	if len(watchers) == 0 {
		return
	}

	label := fmt.Sprintf("facility %d", facilityID)
	if facility, ok := wp.catalog.Get(facilityID); ok && facility.Name != "" {
		label = facility.Name
	}

	log.Printf("sending %d notifications for facility %d", len(watchers), facilityID)
	message := fmt.Sprintf("Parking available at %s", label)
	for _, sub := range watchers {
		wp.push(ctx, sub, []byte(message))
	}
}

func (wp *WorkerPool) push(ctx context.Context, sub model.PushSubscription, payload []byte) {
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := wp.sender.Send(payload, wpSub, wp.webpush)
	if err != nil {
		log.Printf("error sending notification to %s: %v", sub.Endpoint, err)
		return
	}
	defer resp.Body.Close()

	// A 410 means the browser dropped the subscription.
	if resp.StatusCode == http.StatusGone {
		log.Printf("subscription %s is expired, deleting", sub.Endpoint)
		if err := wp.store.DeleteSubscription(ctx, sub.Endpoint); err != nil {
			log.Printf("failed to delete expired subscription %s: %v", sub.Endpoint, err)
		}
	}
}
