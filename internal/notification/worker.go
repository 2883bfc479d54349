package notification

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"

	"warehouse-reservation-backend/internal/model"
)

// NotificationSender defines the interface for sending a web push notification.
type NotificationSender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is a real implementation of NotificationSender using the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// Subscriptions is the slice of the store the pool needs.
type Subscriptions interface {
	ListSubscriptions(ctx context.Context, userID string) ([]model.PushSubscription, error)
	DeleteSubscription(ctx context.Context, endpoint string) error
}

// Reminder is one message addressed to every browser a user registered.
type Reminder struct {
	UserID string `json:"-"`
	Title  string `json:"title"`
	Body   string `json:"body"`
	// Ref is the borrowing or transportation id the reminder is about.
	Ref string `json:"ref,omitempty"`
}

// WorkerPool manages a pool of workers for sending notifications.
type WorkerPool struct {
	size    int
	jobs    chan Reminder
	subs    Subscriptions
	webpush *webpush.Options
	sender  NotificationSender
	log     *slog.Logger
}

// NewWorkerPool creates a new worker pool.
func NewWorkerPool(size int, subs Subscriptions, webpushOptions *webpush.Options, logger *slog.Logger) *WorkerPool {
	if size <= 0 {
		size = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &WorkerPool{
		size:    size,
		jobs:    make(chan Reminder, size*16),
		subs:    subs,
		webpush: webpushOptions,
		sender:  &WebPushSender{},
		log:     logger.With("component", "notification"),
	}
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	wp.log.Debug("worker started", "worker", id)
	for {
		select {
		case r := <-wp.jobs:
			wp.sendReminder(ctx, r)
		case <-ctx.Done():
			wp.log.Debug("worker shutting down", "worker", id)
			return
		}
	}
}

// Dispatch queues a reminder. It blocks while the queue is full unless ctx ends first.
func (wp *WorkerPool) Dispatch(ctx context.Context, r Reminder) error {
	select {
	case wp.jobs <- r:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Jobs returns the jobs channel for testing.
func (wp *WorkerPool) Jobs() chan Reminder {
	return wp.jobs
}

func (wp *WorkerPool) sendReminder(ctx context.Context, r Reminder) {
	subscriptions, err := wp.subs.ListSubscriptions(ctx, r.UserID)
	if err != nil {
		wp.log.Error("fetching subscriptions failed", "user", r.UserID, "error", err)
		return
	}
	if len(subscriptions) == 0 {
		return
	}

	payload, err := json.Marshal(r)
	if err != nil {
		wp.log.Error("encoding reminder failed", "user", r.UserID, "error", err)
		return
	}

	wp.log.Info("sending reminder", "user", r.UserID, "ref", r.Ref, "subscriptions", len(subscriptions))
	for _, sub := range subscriptions {
		wp.sendNotification(ctx, sub, payload)
	}
}

func (wp *WorkerPool) sendNotification(ctx context.Context, sub model.PushSubscription, payload []byte) {
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := wp.sender.Send(payload, wpSub, wp.webpush)
	if err != nil {
		wp.log.Warn("sending notification failed", "endpoint", sub.Endpoint, "error", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusGone || resp.StatusCode == http.StatusNotFound {
		wp.log.Info("subscription expired, deleting", "endpoint", sub.Endpoint)
		if err := wp.subs.DeleteSubscription(ctx, sub.Endpoint); err != nil {
			wp.log.Error("deleting expired subscription failed", "endpoint", sub.Endpoint, "error", err)
		}
	}
}
