package service

import (
	"sync"

	"github.com/noah-isme/retention-api/internal/dto"
)

// notificationBroker fans notifications out to the SSE subscribers of this replica.
// Slow subscribers drop events rather than block publishers.
type notificationBroker struct {
	mu          sync.RWMutex
	subscribers map[uint]map[chan dto.NotificationResponse]struct{}
}

func newNotificationBroker() *notificationBroker {
	return &notificationBroker{subscribers: make(map[uint]map[chan dto.NotificationResponse]struct{})}
}

func (b *notificationBroker) subscribe(staffID uint, ch chan dto.NotificationResponse) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.subscribers[staffID]; !ok {
		b.subscribers[staffID] = make(map[chan dto.NotificationResponse]struct{})
	}
	b.subscribers[staffID][ch] = struct{}{}
}

func (b *notificationBroker) unsubscribe(staffID uint, ch chan dto.NotificationResponse) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subscribers, ok := b.subscribers[staffID]
	if !ok {
		return
	}
	if _, ok := subscribers[ch]; !ok {
		return
	}
	delete(subscribers, ch)
	close(ch)
	if len(subscribers) == 0 {
		delete(b.subscribers, staffID)
	}
}

// deliver returns how many subscribers received the notification.
func (b *notificationBroker) deliver(notification dto.NotificationResponse) int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	delivered := 0
	for ch := range b.subscribers[notification.StaffID] {
		select {
		case ch <- notification:
			delivered++
		default:
		}
	}
	return delivered
}
