package messaging

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// SystemMessage is a message captured by Recorder.
type SystemMessage struct {
	ConversationID uuid.UUID
	Text           string
}

// Recorder keeps everything it is given. Set Err to make every call fail.
type Recorder struct {
	mu            sync.Mutex
	Err           error
	Messages      []SystemMessage
	Unread        map[uuid.UUID]map[Party]int
	Notifications []Notification
}

func NewRecorder() *Recorder {
	return &Recorder{Unread: make(map[uuid.UUID]map[Party]int)}
}

func (r *Recorder) PostSystemMessage(_ context.Context, conversationID uuid.UUID, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.Messages = append(r.Messages, SystemMessage{ConversationID: conversationID, Text: text})
	return nil
}

func (r *Recorder) BumpUnread(_ context.Context, conversationID uuid.UUID, party Party) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	if r.Unread[conversationID] == nil {
		r.Unread[conversationID] = make(map[Party]int)
	}
	r.Unread[conversationID][party]++
	return nil
}

func (r *Recorder) Notify(_ context.Context, n Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.Notifications = append(r.Notifications, n)
	return nil
}

// NotificationTypes returns the types received so far, in order.
func (r *Recorder) NotificationTypes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.Notifications))
	for i, n := range r.Notifications {
		out[i] = n.Type
	}
	return out
}
