// File: internal/services/fakes_test.go
package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/agrisaarthi/agrisaarthi/internal/domain"
	"github.com/agrisaarthi/agrisaarthi/internal/repository/chat"
	"github.com/agrisaarthi/agrisaarthi/internal/repository/clientstate"
	"github.com/agrisaarthi/agrisaarthi/internal/repository/user"
)

var errStoreDown = errors.New("store down")

type fakeChatRepo struct {
	mu             sync.Mutex
	chats          map[string]domain.Chat
	fail           bool
	failUpdateLast bool

	lastMessageUpdates int
}

func newFakeChatRepo() *fakeChatRepo {
	return &fakeChatRepo{chats: make(map[string]domain.Chat)}
}

func (f *fakeChatRepo) Create(ctx context.Context, c *domain.Chat) (*domain.Chat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return nil, errStoreDown
	}
	f.chats[c.ID] = *c
	return c, nil
}

func (f *fakeChatRepo) FindByID(ctx context.Context, id string) (*domain.Chat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return nil, errStoreDown
	}
	c, ok := f.chats[id]
	if !ok {
		return nil, chat.ErrChatNotFound
	}
	return &c, nil
}

func (f *fakeChatRepo) FindByParticipant(ctx context.Context, userID string) ([]domain.Chat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return nil, errStoreDown
	}
	var out []domain.Chat
	for _, c := range f.chats {
		if c.HasParticipant(userID) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (f *fakeChatRepo) FindByPair(ctx context.Context, a, b string) (*domain.Chat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return nil, errStoreDown
	}
	for _, c := range f.chats {
		if (c.ParticipantA == a && c.ParticipantB == b) || (c.ParticipantA == b && c.ParticipantB == a) {
			found := c
			return &found, nil
		}
	}
	return nil, chat.ErrChatNotFound
}

func (f *fakeChatRepo) UpdateLastMessage(ctx context.Context, chatID, lastMessage string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail || f.failUpdateLast {
		return errStoreDown
	}
	c, ok := f.chats[chatID]
	if !ok {
		return chat.ErrChatNotFound
	}
	c.LastMessage = lastMessage
	c.UpdatedAt = at
	f.chats[chatID] = c
	f.lastMessageUpdates++
	return nil
}

func (f *fakeChatRepo) ExistsByID(ctx context.Context, chatID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.chats[chatID]
	return ok, nil
}

type fakeMessageRepo struct {
	mu         sync.Mutex
	messages   map[string][]domain.Message
	ids        map[string]struct{}
	failCreate bool
	failFind   bool
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{
		messages: make(map[string][]domain.Message),
		ids:      make(map[string]struct{}),
	}
}

func (f *fakeMessageRepo) Create(ctx context.Context, m *domain.Message) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCreate {
		return false, errStoreDown
	}
	if _, dup := f.ids[m.ID]; dup {
		return false, nil
	}
	f.ids[m.ID] = struct{}{}
	f.messages[m.ChatID] = append(f.messages[m.ChatID], *m)
	return true, nil
}

func (f *fakeMessageRepo) FindByChatID(ctx context.Context, chatID string) ([]domain.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFind {
		return nil, errStoreDown
	}
	msgs := append([]domain.Message(nil), f.messages[chatID]...)
	sort.Slice(msgs, func(i, j int) bool { return msgs[i].CreatedAt.Before(msgs[j].CreatedAt) })
	return msgs, nil
}

func (f *fakeMessageRepo) FindByID(ctx context.Context, messageID string) (*domain.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, msgs := range f.messages {
		for _, m := range msgs {
			if m.ID == messageID {
				found := m
				return &found, nil
			}
		}
	}
	return nil, errors.New("message not found")
}

func (f *fakeMessageRepo) ExistsByID(ctx context.Context, messageID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.ids[messageID]
	return ok, nil
}

func (f *fakeMessageRepo) CountByChatID(ctx context.Context, chatID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.messages[chatID])), nil
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]domain.User
	fail  bool
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]domain.User)}
}

func (f *fakeUserRepo) Create(ctx context.Context, u *domain.User) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return nil, errStoreDown
	}
	for _, existing := range f.users {
		if existing.Email == u.Email {
			return nil, user.ErrDuplicateEmail
		}
	}
	f.users[u.ID] = *u
	return u, nil
}

func (f *fakeUserRepo) FindByID(ctx context.Context, id string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return nil, errStoreDown
	}
	u, ok := f.users[id]
	if !ok {
		return nil, user.ErrUserNotFound
	}
	return &u, nil
}

func (f *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			found := u
			return &found, nil
		}
	}
	return nil, user.ErrUserNotFound
}

func (f *fakeUserRepo) FindByIDs(ctx context.Context, ids []string) ([]domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return nil, errStoreDown
	}
	var out []domain.User
	for _, id := range ids {
		if u, ok := f.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (f *fakeUserRepo) Update(ctx context.Context, u *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errStoreDown
	}
	f.users[u.ID] = *u
	return nil
}

func (f *fakeUserRepo) Search(ctx context.Context, query, excludeID string, limit int) ([]domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.User
	for _, u := range f.users {
		if u.ID == excludeID {
			continue
		}
		out = append(out, u)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeUserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := f.FindByEmail(ctx, email)
	return err == nil, nil
}

type fakeStateRepo struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

func newFakeStateRepo() *fakeStateRepo {
	return &fakeStateRepo{blobs: make(map[string][]byte)}
}

func (f *fakeStateRepo) Get(ctx context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.blobs[key]
	if !ok {
		return nil, clientstate.ErrStateNotFound
	}
	return b, nil
}

func (f *fakeStateRepo) Put(ctx context.Context, key string, value []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.blobs[key] = append([]byte(nil), value...)
	return nil
}

func (f *fakeStateRepo) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.blobs, key)
	return nil
}
