package notification

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"gorm.io/gorm"

	"hydromat-tooling-backend/internal/events"
	"hydromat-tooling-backend/internal/model"
)

// Sender defines the interface for sending a web push notification.
type Sender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is a real implementation of Sender using the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// WorkerPool consumes domain events and pushes notifications to the
// operators subscribed to the affected profile.
type WorkerPool struct {
	size    int
	db      *gorm.DB
	webpush *webpush.Options
	sender  Sender
}

// NewWorkerPool creates a new worker pool.
func NewWorkerPool(size int, db *gorm.DB, webpushOptions *webpush.Options) *WorkerPool {
	return &WorkerPool{
		size:    size,
		db:      db,
		webpush: webpushOptions,
		sender:  &WebPushSender{},
	}
}

// Start launches the worker goroutines reading from the event channel. The
// workers stop when the channel closes or the context is cancelled.
func (wp *WorkerPool) Start(ctx context.Context, ch <-chan events.Event) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i, ch)
	}
}

func (wp *WorkerPool) worker(ctx context.Context, id int, ch <-chan events.Event) {
	log.Printf("notification worker %d started", id)
	for {
		select {
		case e, ok := <-ch:
			if !ok {
				log.Printf("notification worker %d shutting down", id)
				return
			}
			wp.handle(ctx, e)
		case <-ctx.Done():
			log.Printf("notification worker %d shutting down", id)
			return
		}
	}
}

func (wp *WorkerPool) handle(ctx context.Context, e events.Event) {
	scoped, ok := e.(events.ProfileScoped)
	if !ok {
		return
	}
	message := Message(e)
	if message == "" {
		return
	}
	wp.notifyProfileSubscribers(ctx, scoped.ProfileRef(), message)
}

// Message renders the push payload for an event. Events without a
// subscriber-facing message render empty.
func Message(e events.Event) string {
	switch ev := e.(type) {
	case events.ToolCreated:
		return fmt.Sprintf("Tool %s was added", ev.Code)
	case events.ToolUpdated:
		return fmt.Sprintf("Tool %s was updated", ev.Code)
	case events.ToolDeleted:
		return fmt.Sprintf("Tool %s was deleted", ev.Code)
	case events.SetPhotoUpdated:
		return fmt.Sprintf("Photo updated for tool set %s", ev.Prefix)
	case events.ToolAssigned:
		return fmt.Sprintf("Tool %s assigned to head %d", ev.ToolCode, ev.HeadNumber)
	case events.AssignmentCleared:
		return fmt.Sprintf("Head %d assignment cleared", ev.HeadNumber)
	default:
		return ""
	}
}

func (wp *WorkerPool) notifyProfileSubscribers(ctx context.Context, profileID int64, message string) {
	var subscriptions []model.PushSubscription
	err := wp.db.WithContext(ctx).
		Joins("JOIN subscription_profile_mapping spm ON spm.push_subscription_endpoint = push_subscriptions.endpoint").
		Where("spm.profile_id = ?", profileID).
		Find(&subscriptions).Error
	if err != nil {
		log.Printf("error fetching subscriptions for profile %d: %v", profileID, err)
		return
	}

	if len(subscriptions) == 0 {
		return
	}

	log.Printf("sending %d notifications for profile %d", len(subscriptions), profileID)
	for _, sub := range subscriptions {
		wp.sendNotification(ctx, sub, []byte(message))
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
		log.Printf("error sending notification to %s: %v", sub.Endpoint, err)
		return
	}
	defer resp.Body.Close()

	// Expired subscriptions come back as 410
	if resp.StatusCode == http.StatusGone {
		log.Printf("subscription for endpoint %s is expired, deleting", sub.Endpoint)
		if err := wp.db.WithContext(ctx).Delete(&sub).Error; err != nil {
			log.Printf("failed to delete expired subscription %s: %v", sub.Endpoint, err)
		}
	}
}
