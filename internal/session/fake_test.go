// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jeranaias/olympus-tui/internal/backend"
	"github.com/jeranaias/olympus-tui/internal/model"
)

var errBackendDown = errors.New("backend unreachable")

// fakeBackend is an in-memory backend.Backend. Sends can be held open with
// hold() to observe intermediate state.
type fakeBackend struct {
	mu sync.Mutex

	convs     []model.Conversation
	histories map[string][]*model.Message

	listErr   error
	getErr    error
	sendErr   error
	deleteErr error
	noReply   bool

	sendCalls   int
	deleteCalls int
	lastSend    backend.SendRequest
	nextID      int

	gate    chan struct{} // when non-nil, sends block until closed
	entered chan backend.SendRequest
	delGate chan struct{}
}

func newFakeBackend() *fakeBackend {
	now := time.Now()
	return &fakeBackend{
		convs: []model.Conversation{
			{ID: "conv-a", Title: "Alpha", UpdatedAt: now},
			{ID: "conv-b", Title: "Bravo", UpdatedAt: now.Add(-time.Hour)},
		},
		histories: map[string][]*model.Message{
			"conv-a": {
				{ID: "a-1", ConversationID: "conv-a", Role: model.RoleUser, Content: []model.ContentPart{model.TextPart("hi A")}},
			},
			"conv-b": {
				{ID: "b-1", ConversationID: "conv-b", Role: model.RoleUser, Content: []model.ContentPart{model.TextPart("hi B")}},
				{ID: "b-2", ConversationID: "conv-b", Role: model.RoleAssistant, Content: []model.ContentPart{model.TextPart("hello B")}},
			},
		},
		entered: make(chan backend.SendRequest, 16),
	}
}

// hold makes subsequent sends block until the returned func is called.
func (f *fakeBackend) hold() (release func()) {
	f.mu.Lock()
	gate := make(chan struct{})
	f.gate = gate
	f.mu.Unlock()
	var once sync.Once
	return func() { once.Do(func() { close(gate) }) }
}

func (f *fakeBackend) set(fn func(f *fakeBackend)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

func (f *fakeBackend) calls() (send, del int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sendCalls, f.deleteCalls
}

func (f *fakeBackend) ListConversations(ctx context.Context) ([]model.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]model.Conversation(nil), f.convs...), nil
}

func (f *fakeBackend) GetConversation(ctx context.Context, id string) (model.ConversationWithMessages, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return model.ConversationWithMessages{}, f.getErr
	}
	i := model.IndexOfConversation(f.convs, id)
	if i < 0 {
		return model.ConversationWithMessages{}, backend.ErrNotFound
	}
	return model.ConversationWithMessages{Conversation: f.convs[i], Messages: f.histories[id]}, nil
}

func (f *fakeBackend) CreateConversation(ctx context.Context, title string) (model.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	c := model.Conversation{ID: fmt.Sprintf("conv-new-%d", f.nextID), Title: title, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	f.convs = append([]model.Conversation{c}, f.convs...)
	return c, nil
}

func (f *fakeBackend) DeleteConversation(ctx context.Context, id string) error {
	f.mu.Lock()
	f.deleteCalls++
	gate := f.delGate
	err := f.deleteErr
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	return err
}

func (f *fakeBackend) SendMessage(ctx context.Context, req backend.SendRequest) (backend.SendResponse, error) {
	f.mu.Lock()
	f.sendCalls++
	f.lastSend = req
	gate := f.gate
	f.mu.Unlock()

	f.entered <- req
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return backend.SendResponse{}, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return backend.SendResponse{}, f.sendErr
	}

	f.nextID++
	convID := req.ConversationID
	if convID == "" {
		convID = fmt.Sprintf("conv-new-%d", f.nextID)
	}
	conv := model.Conversation{ID: convID, Title: model.TitleFromContent(req.Content), UpdatedAt: time.Now()}
	user := model.Message{ID: fmt.Sprintf("msg-%d", f.nextID), ConversationID: convID, Role: model.RoleUser, Content: req.Content}
	resp := backend.SendResponse{Message: user, Conversation: conv}
	if !f.noReply {
		resp.Reply = &model.Message{
			ID:             fmt.Sprintf("reply-%d", f.nextID),
			ConversationID: convID,
			Role:           model.RoleAssistant,
			Content:        []model.ContentPart{model.TextPart("It is a cat.")},
		}
	}
	return resp, nil
}
