package notification

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"hydromat-tooling-backend/internal/events"
	"hydromat-tooling-backend/internal/model"
)

// mockSender is a mock implementation of the Sender interface.
type mockSender struct {
	SendFunc func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

func (m *mockSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return m.SendFunc(payload, sub, options)
}

func newTestDB(t *testing.T) *gorm.DB {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.Profile{}, &model.PushSubscription{}))
	return db
}

func seedSubscription(t *testing.T, db *gorm.DB, endpoint string, profileID int64) {
	profile := model.Profile{ID: profileID, Name: fmt.Sprintf("profile-%d", profileID)}
	require.NoError(t, db.FirstOrCreate(&profile, "id = ?", profileID).Error)

	sub := model.PushSubscription{
		Endpoint: endpoint,
		P256DH:   "test_p256dh",
		Auth:     "test_auth",
		Profiles: []*model.Profile{&profile},
	}
	require.NoError(t, db.Create(&sub).Error)
}

func okResponse() *http.Response {
	return &http.Response{
		StatusCode: http.StatusCreated,
		Body:       io.NopCloser(bytes.NewBufferString("")),
	}
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "Tool 211003 was added", Message(events.ToolCreated{Code: "211003"}))
	assert.Equal(t, "Tool 211003 was deleted", Message(events.ToolDeleted{Code: "211003"}))
	assert.Equal(t, "Photo updated for tool set 21100", Message(events.SetPhotoUpdated{Prefix: "21100"}))
	assert.Equal(t, "Tool 211003 assigned to head 2", Message(events.ToolAssigned{ToolCode: "211003", HeadNumber: 2}))
	assert.Equal(t, "Head 4 assignment cleared", Message(events.AssignmentCleared{HeadNumber: 4}))
	assert.Equal(t, "", Message(events.ModeChanged{Mode: "read_only"}))
}

func TestWorkerPool_SendsToProfileSubscribers(t *testing.T) {
	db := newTestDB(t)
	seedSubscription(t, db, "https://example.com/push", 101)
	seedSubscription(t, db, "https://example.com/other", 202)

	wp := NewWorkerPool(1, db, &webpush.Options{})

	var wg sync.WaitGroup
	wg.Add(1)
	wp.sender = &mockSender{
		SendFunc: func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
			assert.Equal(t, "https://example.com/push", sub.Endpoint)
			assert.Equal(t, "Tool 211003 assigned to head 2", string(payload))
			wg.Done()
			return okResponse(), nil
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dispatcher := events.NewDispatcher()
	defer dispatcher.Close()
	wp.Start(ctx, dispatcher.Subscribe(8))

	dispatcher.Publish(events.ToolAssigned{ProfileID: 101, HeadNumber: 2, ToolID: 1, ToolCode: "211003"})
	wg.Wait()
}

func TestWorkerPool_IgnoresUnscopedEvents(t *testing.T) {
	db := newTestDB(t)
	seedSubscription(t, db, "https://example.com/push", 101)

	wp := NewWorkerPool(1, db, &webpush.Options{})
	wp.sender = &mockSender{
		SendFunc: func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
			t.Errorf("unexpected send: %s", payload)
			return okResponse(), nil
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := make(chan events.Event, 2)
	wp.Start(ctx, ch)

	ch <- events.ModeChanged{Mode: "full_access"}
	ch <- events.ProfileCreated{ProfileID: 101, Name: "p"}
	close(ch)

	time.Sleep(100 * time.Millisecond)
}

func TestWorkerPool_DeletesExpiredSubscription(t *testing.T) {
	db := newTestDB(t)
	seedSubscription(t, db, "https://example.com/expired", 101)

	wp := NewWorkerPool(1, db, &webpush.Options{})
	wp.sender = &mockSender{
		SendFunc: func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
			return &http.Response{
				StatusCode: http.StatusGone,
				Body:       io.NopCloser(bytes.NewBufferString("")),
			}, nil
		},
	}

	wp.handle(context.Background(), events.ToolUpdated{ToolID: 1, ProfileID: 101, Code: "211003"})

	var count int64
	require.NoError(t, db.Model(&model.PushSubscription{}).Count(&count).Error)
	assert.Zero(t, count)
}
