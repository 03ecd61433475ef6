// File: internal/services/dispatch_service_test.go
package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrisaarthi/agrisaarthi/internal/domain"
	"github.com/agrisaarthi/agrisaarthi/internal/realtime"
	"github.com/agrisaarthi/agrisaarthi/internal/services/bot"
)

type stubResponder struct {
	reply string
	err   error
	panic bool
}

func (s *stubResponder) Reply(ctx context.Context, req bot.Request) (string, error) {
	if s.panic {
		panic("responder exploded")
	}
	return s.reply, s.err
}

type dispatchFixture struct {
	session     *SessionService
	dispatch    *DispatchService
	chatRepo    *fakeChatRepo
	messageRepo *fakeMessageRepo
	userRepo    *fakeUserRepo
	broadcaster *realtime.Broadcaster
}

func newDispatchFixture(responder bot.Responder) *dispatchFixture {
	chatRepo := newFakeChatRepo()
	messageRepo := newFakeMessageRepo()
	userRepo := newFakeUserRepo()
	broadcaster := realtime.NewBroadcaster()
	logger := &NoOpLogger{}

	session := NewSessionService(chatRepo, messageRepo, userRepo, broadcaster, logger)
	botService := NewBotServiceWithResponder(responder, logger)
	dispatch := NewDispatchService(session, chatRepo, messageRepo, userRepo, broadcaster, botService, logger)

	return &dispatchFixture{
		session:     session,
		dispatch:    dispatch,
		chatRepo:    chatRepo,
		messageRepo: messageRepo,
		userRepo:    userRepo,
		broadcaster: broadcaster,
	}
}

func (f *dispatchFixture) close() {
	f.broadcaster.Close()
}

func TestSend_ValidationErrors(t *testing.T) {
	f := newDispatchFixture(&stubResponder{reply: "ok"})
	defer f.close()

	seedChat(f.chatRepo, "chat-1", "farmer-1", "farmer-2", time.Now())

	_, err := f.dispatch.Send(context.Background(), "chat-1", "farmer-1", "", domain.MessageTypeText, "")
	assert.ErrorIs(t, err, ErrEmptyMessage)

	_, err = f.dispatch.Send(context.Background(), "chat-1", "farmer-1", "pic", domain.MessageTypeImage, "")
	assert.ErrorIs(t, err, ErrMissingMedia)

	_, err = f.dispatch.Send(context.Background(), "chat-1", "farmer-1", "hi", domain.MessageType("sticker"), "")
	assert.ErrorIs(t, err, domain.ErrInvalidMessageType)

	_, err = f.dispatch.Send(context.Background(), "missing", "farmer-1", "hi", domain.MessageTypeText, "")
	assert.ErrorIs(t, err, ErrThreadNotFound)

	_, err = f.dispatch.Send(context.Background(), "chat-1", "intruder", "hi", domain.MessageTypeText, "")
	assert.ErrorIs(t, err, ErrNotParticipant)

	count, _ := f.messageRepo.CountByChatID(context.Background(), "chat-1")
	assert.Zero(t, count, "no validation failure should reach the store")
}

func TestSend_PersistsUpdatesMetadataAndPublishes(t *testing.T) {
	f := newDispatchFixture(&stubResponder{reply: "ok"})
	defer f.close()

	seedChat(f.chatRepo, "chat-1", "farmer-1", "farmer-2", time.Now().Add(-time.Hour))
	feed, _ := f.broadcaster.Subscribe(context.Background(), "chat-1")

	msg, err := f.dispatch.Send(context.Background(), "chat-1", "farmer-1", "hello there", domain.MessageTypeText, "")
	require.NoError(t, err)
	require.NotEmpty(t, msg.ID)

	count, _ := f.messageRepo.CountByChatID(context.Background(), "chat-1")
	assert.EqualValues(t, 1, count)

	thread, err := f.chatRepo.FindByID(context.Background(), "chat-1")
	require.NoError(t, err)
	assert.Equal(t, "hello there", thread.LastMessage)

	select {
	case published := <-feed:
		assert.Equal(t, msg.ID, published.ID)
	case <-time.After(time.Second):
		t.Fatal("message was not published to the realtime feed")
	}

	cached := f.session.Messages("chat-1")
	require.Len(t, cached, 1)
	assert.Equal(t, msg.ID, cached[0].ID)
}

func TestSend_PersistFailureRollsBackOptimisticEntry(t *testing.T) {
	f := newDispatchFixture(&stubResponder{reply: "ok"})
	defer f.close()

	seedChat(f.chatRepo, "chat-1", "farmer-1", "farmer-2", time.Now())
	f.messageRepo.failCreate = true

	_, err := f.dispatch.Send(context.Background(), "chat-1", "farmer-1", "hello", domain.MessageTypeText, "")
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.Empty(t, f.session.Messages("chat-1"), "optimistic entry must be rolled back")
}

func TestDeliver_SameMessageIDInsertsOnce(t *testing.T) {
	f := newDispatchFixture(&stubResponder{reply: "ok"})
	defer f.close()

	seedChat(f.chatRepo, "chat-1", "farmer-1", "farmer-2", time.Now())
	feed, _ := f.broadcaster.Subscribe(context.Background(), "chat-1")

	msg := domain.Message{
		ID:        "msg-retry",
		ChatID:    "chat-1",
		SenderID:  "farmer-1",
		Content:   "hello",
		Type:      domain.MessageTypeText,
		CreatedAt: time.Now(),
	}

	require.NoError(t, f.dispatch.deliver(context.Background(), &msg))
	require.NoError(t, f.dispatch.deliver(context.Background(), &msg), "redelivery of the same id must be a no-op")

	count, _ := f.messageRepo.CountByChatID(context.Background(), "chat-1")
	assert.EqualValues(t, 1, count, "duplicate id must not produce a second row")

	select {
	case published := <-feed:
		assert.Equal(t, "msg-retry", published.ID)
	case <-time.After(time.Second):
		t.Fatal("first delivery was not published")
	}
	select {
	case <-feed:
		t.Fatal("duplicate delivery must not be published")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSend_MetadataFailureIsNotFatal(t *testing.T) {
	f := newDispatchFixture(&stubResponder{reply: "ok"})
	defer f.close()

	seedChat(f.chatRepo, "chat-1", "farmer-1", "farmer-2", time.Now())
	f.chatRepo.failUpdateLast = true

	msg, err := f.dispatch.Send(context.Background(), "chat-1", "farmer-1", "hello", domain.MessageTypeText, "")
	require.NoError(t, err, "metadata update failure must not fail the send")
	require.NotNil(t, msg)

	count, _ := f.messageRepo.CountByChatID(context.Background(), "chat-1")
	assert.EqualValues(t, 1, count)
}

func TestBotReply_DeliveredThroughSamePath(t *testing.T) {
	f := newDispatchFixture(&stubResponder{reply: "Rice needs standing water."})
	defer f.close()

	f.userRepo.users["farmer-1"] = domain.User{ID: "farmer-1", FullName: "Farmer", Language: "en"}
	seedChat(f.chatRepo, "chat-bot", "farmer-1", domain.BotParticipantID, time.Now())

	f.dispatch.Start()
	defer f.dispatch.Stop()

	_, err := f.dispatch.Send(context.Background(), "chat-bot", "farmer-1", "tell me about rice", domain.MessageTypeText, "")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		count, _ := f.messageRepo.CountByChatID(context.Background(), "chat-bot")
		return count == 2
	}, 2*time.Second, 20*time.Millisecond, "bot reply should be persisted")

	msgs, err := f.messageRepo.FindByChatID(context.Background(), "chat-bot")
	require.NoError(t, err)
	botMsg := msgs[1]
	assert.Equal(t, domain.BotParticipantID, botMsg.SenderID)
	assert.Equal(t, "Rice needs standing water.", botMsg.Content)

	thread, _ := f.chatRepo.FindByID(context.Background(), "chat-bot")
	assert.Equal(t, botMsg.Content, thread.LastMessage)
}

func TestBotReply_ResponderFailureUsesFallbackTemplate(t *testing.T) {
	f := newDispatchFixture(&stubResponder{err: errors.New("bot service down")})
	defer f.close()

	seedChat(f.chatRepo, "chat-bot", "farmer-1", domain.BotParticipantID, time.Now())

	f.dispatch.Start()
	defer f.dispatch.Stop()

	_, err := f.dispatch.Send(context.Background(), "chat-bot", "farmer-1", "pest attack on cotton", domain.MessageTypeText, "")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		count, _ := f.messageRepo.CountByChatID(context.Background(), "chat-bot")
		return count == 2
	}, 2*time.Second, 20*time.Millisecond)

	msgs, _ := f.messageRepo.FindByChatID(context.Background(), "chat-bot")
	assert.Contains(t, msgs[1].Content, `asking about "pest attack on cotton"`)
}

func TestBotReply_ResponderPanicIsContained(t *testing.T) {
	f := newDispatchFixture(&stubResponder{panic: true})
	defer f.close()

	seedChat(f.chatRepo, "chat-bot", "farmer-1", domain.BotParticipantID, time.Now())

	f.dispatch.Start()
	defer f.dispatch.Stop()

	_, err := f.dispatch.Send(context.Background(), "chat-bot", "farmer-1", "hello", domain.MessageTypeText, "")
	require.NoError(t, err)

	// Give the worker time to process; the panic must not crash the test
	// process or block later sends.
	time.Sleep(100 * time.Millisecond)
	_, err = f.dispatch.Send(context.Background(), "chat-bot", "farmer-1", "still alive?", domain.MessageTypeText, "")
	assert.NoError(t, err)
}

func TestBotReply_NotTriggeredForHumanThreadsOrNonText(t *testing.T) {
	f := newDispatchFixture(&stubResponder{reply: "should not appear"})
	defer f.close()

	seedChat(f.chatRepo, "chat-human", "farmer-1", "farmer-2", time.Now())
	seedChat(f.chatRepo, "chat-bot", "farmer-1", domain.BotParticipantID, time.Now())

	f.dispatch.Start()
	defer f.dispatch.Stop()

	_, err := f.dispatch.Send(context.Background(), "chat-human", "farmer-1", "hello", domain.MessageTypeText, "")
	require.NoError(t, err)

	_, err = f.dispatch.Send(context.Background(), "chat-bot", "farmer-1", "voice note", domain.MessageTypeVoice, "")
	require.NoError(t, err)

	time.Sleep(150 * time.Millisecond)
	humanCount, _ := f.messageRepo.CountByChatID(context.Background(), "chat-human")
	botCount, _ := f.messageRepo.CountByChatID(context.Background(), "chat-bot")
	assert.EqualValues(t, 1, humanCount)
	assert.EqualValues(t, 1, botCount)
}

func TestFallbackReply_IncludesOriginalContent(t *testing.T) {
	reply := FallbackReply("wheat rust")
	assert.True(t, strings.Contains(reply, `"wheat rust"`))
}
