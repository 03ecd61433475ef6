// File: internal/services/session_service_test.go
package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrisaarthi/agrisaarthi/internal/domain"
	"github.com/agrisaarthi/agrisaarthi/internal/realtime"
)

func newSessionFixture() (*SessionService, *fakeChatRepo, *fakeMessageRepo, *fakeUserRepo, *realtime.Broadcaster) {
	chatRepo := newFakeChatRepo()
	messageRepo := newFakeMessageRepo()
	userRepo := newFakeUserRepo()
	broadcaster := realtime.NewBroadcaster()
	session := NewSessionService(chatRepo, messageRepo, userRepo, broadcaster, &NoOpLogger{})
	return session, chatRepo, messageRepo, userRepo, broadcaster
}

func seedChat(chatRepo *fakeChatRepo, id, a, b string, updatedAt time.Time) {
	chatRepo.chats[id] = domain.Chat{
		ID:           id,
		ParticipantA: a,
		ParticipantB: b,
		UpdatedAt:    updatedAt,
	}
}

func TestLoadThreads_EnrichesPeerProfiles(t *testing.T) {
	session, chatRepo, _, userRepo, b := newSessionFixture()
	defer b.Close()

	userRepo.users["farmer-2"] = domain.User{ID: "farmer-2", FullName: "Asha Patil", Email: "asha@example.com", Region: "Nashik"}

	now := time.Now()
	seedChat(chatRepo, "chat-bot", "farmer-1", domain.BotParticipantID, now)
	seedChat(chatRepo, "chat-human", "farmer-1", "farmer-2", now.Add(-time.Hour))
	seedChat(chatRepo, "chat-ghost", "farmer-1", "deleted-user", now.Add(-2*time.Hour))

	threads, err := session.LoadThreads(context.Background(), "farmer-1")
	require.NoError(t, err)
	require.Len(t, threads, 3)

	assert.Equal(t, "chat-bot", threads[0].Chat.ID)
	assert.Equal(t, "AgriSaarthi Bot", threads[0].Peer.FullName)
	assert.Equal(t, "bot@agrisaarthi.com", threads[0].Peer.Email)

	assert.Equal(t, "Asha Patil", threads[1].Peer.FullName)
	assert.Equal(t, "Unknown User", threads[2].Peer.FullName)
}

func TestLoadThreads_FailureKeepsCachedList(t *testing.T) {
	session, chatRepo, _, _, b := newSessionFixture()
	defer b.Close()

	seedChat(chatRepo, "chat-1", "farmer-1", domain.BotParticipantID, time.Now())
	_, err := session.LoadThreads(context.Background(), "farmer-1")
	require.NoError(t, err)

	chatRepo.fail = true
	_, err = session.LoadThreads(context.Background(), "farmer-1")
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.Len(t, session.Threads("farmer-1"), 1, "cached thread list should survive the failure")
}

func TestLoadMessages_FailureLeavesCacheUntouched(t *testing.T) {
	session, _, messageRepo, _, b := newSessionFixture()
	defer b.Close()

	messageRepo.messages["chat-1"] = []domain.Message{
		{ID: "m1", ChatID: "chat-1", Content: "hi", CreatedAt: time.Now()},
	}
	_, err := session.LoadMessages(context.Background(), "chat-1")
	require.NoError(t, err)

	messageRepo.failFind = true
	_, err = session.LoadMessages(context.Background(), "chat-1")
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.Len(t, session.Messages("chat-1"), 1)
}

func TestSelectThread_SwitchesRealtimeSubscription(t *testing.T) {
	session, chatRepo, _, _, b := newSessionFixture()
	defer b.Close()

	seedChat(chatRepo, "chat-1", "farmer-1", "farmer-2", time.Now())
	seedChat(chatRepo, "chat-2", "farmer-1", domain.BotParticipantID, time.Now())

	_, err := session.SelectThread(context.Background(), "farmer-1", "chat-1")
	require.NoError(t, err)
	_, err = session.SelectThread(context.Background(), "farmer-1", "chat-2")
	require.NoError(t, err)

	b.Publish(&domain.Message{ID: "m-new", ChatID: "chat-2", Content: "ping"})
	require.Eventually(t, func() bool {
		return len(session.Messages("chat-2")) == 1
	}, time.Second, 10*time.Millisecond)

	// The old thread's feed is cancelled; its cache stays empty.
	b.Publish(&domain.Message{ID: "m-old", ChatID: "chat-1", Content: "stale"})
	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, session.Messages("chat-1"))
}

func TestSelectThread_SameThreadIsIdempotent(t *testing.T) {
	session, chatRepo, messageRepo, _, b := newSessionFixture()
	defer b.Close()

	seedChat(chatRepo, "chat-1", "farmer-1", "farmer-2", time.Now())
	messageRepo.messages["chat-1"] = []domain.Message{
		{ID: "m1", ChatID: "chat-1", Content: "hi", CreatedAt: time.Now()},
	}

	first, err := session.SelectThread(context.Background(), "farmer-1", "chat-1")
	require.NoError(t, err)
	second, err := session.SelectThread(context.Background(), "farmer-1", "chat-1")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestSelectThread_UnknownThreadReturnsNotFound(t *testing.T) {
	session, _, _, _, b := newSessionFixture()
	defer b.Close()

	_, err := session.SelectThread(context.Background(), "farmer-1", "no-such-chat")
	assert.ErrorIs(t, err, ErrThreadNotFound)
}

func TestSelectThread_NonParticipantIsRejected(t *testing.T) {
	session, chatRepo, messageRepo, _, b := newSessionFixture()
	defer b.Close()

	seedChat(chatRepo, "chat-1", "farmer-1", "farmer-2", time.Now())
	messageRepo.messages["chat-1"] = []domain.Message{
		{ID: "m1", ChatID: "chat-1", Content: "private", CreatedAt: time.Now()},
	}

	_, err := session.SelectThread(context.Background(), "intruder", "chat-1")
	assert.ErrorIs(t, err, ErrNotParticipant)
	assert.Empty(t, session.ActiveThread("intruder"), "rejected select must not activate the thread")
}

func TestSelectThread_UsersKeepIndependentActiveThreads(t *testing.T) {
	session, chatRepo, _, _, b := newSessionFixture()
	defer b.Close()

	seedChat(chatRepo, "chat-1", "farmer-1", "farmer-2", time.Now())
	seedChat(chatRepo, "chat-2", "farmer-2", "farmer-3", time.Now())

	_, err := session.SelectThread(context.Background(), "farmer-1", "chat-1")
	require.NoError(t, err)
	_, err = session.SelectThread(context.Background(), "farmer-2", "chat-2")
	require.NoError(t, err)

	assert.Equal(t, "chat-1", session.ActiveThread("farmer-1"))
	assert.Equal(t, "chat-2", session.ActiveThread("farmer-2"))

	// farmer-1's subscription survives farmer-2's select.
	b.Publish(&domain.Message{ID: "m-1", ChatID: "chat-1", Content: "still here"})
	require.Eventually(t, func() bool {
		return len(session.Messages("chat-1")) == 1
	}, time.Second, 10*time.Millisecond)
}

func TestSelectThread_BothParticipantsActiveAppendOnce(t *testing.T) {
	session, chatRepo, _, _, b := newSessionFixture()
	defer b.Close()

	seedChat(chatRepo, "chat-1", "farmer-1", "farmer-2", time.Now())
	_, err := session.SelectThread(context.Background(), "farmer-1", "chat-1")
	require.NoError(t, err)
	_, err = session.SelectThread(context.Background(), "farmer-2", "chat-1")
	require.NoError(t, err)

	b.Publish(&domain.Message{ID: "m-1", ChatID: "chat-1", Content: "hello both"})
	require.Eventually(t, func() bool {
		return len(session.Messages("chat-1")) == 1
	}, time.Second, 10*time.Millisecond)

	// Two feed goroutines saw the insert; the shared cache holds it once.
	time.Sleep(50 * time.Millisecond)
	assert.Len(t, session.Messages("chat-1"), 1)
}

func TestNotificationMerge_DropsDuplicatesAndOtherThreads(t *testing.T) {
	session, chatRepo, _, _, b := newSessionFixture()
	defer b.Close()

	seedChat(chatRepo, "chat-1", "farmer-1", "farmer-2", time.Now())
	_, err := session.SelectThread(context.Background(), "farmer-1", "chat-1")
	require.NoError(t, err)

	b.Publish(&domain.Message{ID: "m1", ChatID: "chat-1", Content: "first"})
	require.Eventually(t, func() bool {
		return len(session.Messages("chat-1")) == 1
	}, time.Second, 10*time.Millisecond)

	// Duplicate id is dropped.
	b.Publish(&domain.Message{ID: "m1", ChatID: "chat-1", Content: "duplicate"})
	time.Sleep(50 * time.Millisecond)
	assert.Len(t, session.Messages("chat-1"), 1)
}

func TestAppendLocalAndRemoveLocal(t *testing.T) {
	session, _, _, _, b := newSessionFixture()
	defer b.Close()

	msg := domain.Message{ID: "m1", ChatID: "chat-1", Content: "optimistic"}
	session.AppendLocal(msg)
	session.AppendLocal(msg)
	assert.Len(t, session.Messages("chat-1"), 1, "duplicate optimistic append is dropped")

	session.RemoveLocal("chat-1", "m1")
	assert.Empty(t, session.Messages("chat-1"))
}

func TestStartThread_ReusesExistingPair(t *testing.T) {
	session, chatRepo, _, userRepo, b := newSessionFixture()
	defer b.Close()

	userRepo.users["farmer-2"] = domain.User{ID: "farmer-2", FullName: "Asha Patil"}
	seedChat(chatRepo, "chat-1", "farmer-2", "farmer-1", time.Now())

	view, err := session.StartThread(context.Background(), "farmer-1", "farmer-2")
	require.NoError(t, err)
	assert.Equal(t, "chat-1", view.Chat.ID, "reversed orientation pair should be reused")
	assert.Len(t, chatRepo.chats, 1)
}

func TestStartThread_BotChatSeedsWelcomeMessage(t *testing.T) {
	session, chatRepo, messageRepo, _, b := newSessionFixture()
	defer b.Close()

	view, err := session.StartThread(context.Background(), "farmer-1", domain.BotParticipantID)
	require.NoError(t, err)
	assert.Equal(t, "Chat started with AgriSaarthi Bot", view.Chat.LastMessage)
	assert.Len(t, chatRepo.chats, 1)

	msgs, err := messageRepo.FindByChatID(context.Background(), view.Chat.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, domain.BotParticipantID, msgs[0].SenderID)
	assert.Contains(t, msgs[0].Content, "AgriSaarthi Bot")
}
