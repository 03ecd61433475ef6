// File: internal/services/dispatch_service.go
package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/agrisaarthi/agrisaarthi/internal/domain"
	"github.com/agrisaarthi/agrisaarthi/internal/realtime"
	"github.com/agrisaarthi/agrisaarthi/internal/repository/chat"
	"github.com/agrisaarthi/agrisaarthi/internal/repository/message"
	"github.com/agrisaarthi/agrisaarthi/internal/repository/user"
)

const (
	botReplyQueueSize = 128
	botReplyTimeout   = 15 * time.Second
)

type botReplyJob struct {
	messageID string
	threadID  string
	userID    string
	content   string
}

// DispatchService sends messages: validate, optimistic cache append, durable
// insert, thread metadata update, realtime publish. Messages into a bot
// thread additionally enqueue a background reply job.
type DispatchService struct {
	session     *SessionService
	chatRepo    chat.ChatRepository
	messageRepo message.MessageRepository
	userRepo    user.UserRepository
	broadcaster *realtime.Broadcaster
	botService  *BotService
	logger      Logger

	queue   chan botReplyJob
	pending map[string]struct{}
	mu      sync.Mutex
	wg      sync.WaitGroup
	done    chan struct{}
}

func NewDispatchService(
	session *SessionService,
	chatRepo chat.ChatRepository,
	messageRepo message.MessageRepository,
	userRepo user.UserRepository,
	broadcaster *realtime.Broadcaster,
	botService *BotService,
	logger Logger,
) *DispatchService {
	return &DispatchService{
		session:     session,
		chatRepo:    chatRepo,
		messageRepo: messageRepo,
		userRepo:    userRepo,
		broadcaster: broadcaster,
		botService:  botService,
		logger:      logger,
		queue:       make(chan botReplyJob, botReplyQueueSize),
		pending:     make(map[string]struct{}),
		done:        make(chan struct{}),
	}
}

// Start launches the bot reply worker.
func (s *DispatchService) Start() {
	s.wg.Add(1)
	go s.replyWorker()
}

// Stop drains the reply worker. Enqueued jobs already in flight finish.
func (s *DispatchService) Stop() {
	close(s.done)
	s.wg.Wait()
}

// Send delivers one message from senderID into threadID and returns the
// persisted message. Validation failures surface as the dispatch sentinels;
// store failures roll back the optimistic cache entry.
func (s *DispatchService) Send(ctx context.Context, threadID, senderID, content string, msgType domain.MessageType, mediaURL string) (*domain.Message, error) {
	if content == "" {
		return nil, ErrEmptyMessage
	}
	if !msgType.Valid() {
		return nil, domain.ErrInvalidMessageType
	}
	if msgType.RequiresMedia() && mediaURL == "" {
		return nil, ErrMissingMedia
	}

	thread, err := s.chatRepo.FindByID(ctx, threadID)
	if err != nil {
		if errors.Is(err, chat.ErrChatNotFound) {
			return nil, ErrThreadNotFound
		}
		return nil, ErrStoreUnavailable
	}
	if !thread.HasParticipant(senderID) {
		return nil, ErrNotParticipant
	}

	msg := domain.Message{
		ID:        uuid.NewString(),
		ChatID:    threadID,
		SenderID:  senderID,
		Content:   content,
		Type:      msgType,
		MediaURL:  mediaURL,
		CreatedAt: time.Now().UTC(),
	}

	s.session.AppendLocal(msg)

	if err := s.deliver(ctx, &msg); err != nil {
		s.session.RemoveLocal(threadID, msg.ID)
		return nil, err
	}

	if thread.Peer(senderID) == domain.BotParticipantID && msgType == domain.MessageTypeText {
		s.enqueueBotReply(msg)
	}
	return &msg, nil
}

// deliver persists msg, updates the thread's denormalized last-message fields
// and publishes the insert. The metadata update is best effort; the thread
// list refresh is authoritative.
func (s *DispatchService) deliver(ctx context.Context, msg *domain.Message) error {
	inserted, err := s.messageRepo.Create(ctx, msg)
	if err != nil {
		s.logger.Error("Failed to persist message",
			"message_id", msg.ID, "thread_id", msg.ChatID, "error", err)
		return ErrStoreUnavailable
	}
	if !inserted {
		// Duplicate id means this delivery already happened.
		s.logger.Debug("Skipping duplicate message insert", "message_id", msg.ID)
		return nil
	}

	if err := s.chatRepo.UpdateLastMessage(ctx, msg.ChatID, msg.Content, msg.CreatedAt); err != nil {
		s.logger.Warn("Failed to update thread metadata",
			"thread_id", msg.ChatID, "error", err)
	}

	s.broadcaster.Publish(msg)
	return nil
}

// enqueueBotReply schedules a reply keyed by the triggering message id, so a
// retried send never produces two bot answers.
func (s *DispatchService) enqueueBotReply(msg domain.Message) {
	s.mu.Lock()
	if _, exists := s.pending[msg.ID]; exists {
		s.mu.Unlock()
		return
	}
	s.pending[msg.ID] = struct{}{}
	s.mu.Unlock()

	job := botReplyJob{
		messageID: msg.ID,
		threadID:  msg.ChatID,
		userID:    msg.SenderID,
		content:   msg.Content,
	}
	select {
	case s.queue <- job:
	default:
		s.clearPending(msg.ID)
		s.logger.Warn("Bot reply queue full, dropping job", "message_id", msg.ID)
	}
}

func (s *DispatchService) clearPending(messageID string) {
	s.mu.Lock()
	delete(s.pending, messageID)
	s.mu.Unlock()
}

func (s *DispatchService) replyWorker() {
	defer s.wg.Done()
	for {
		select {
		case <-s.done:
			return
		case job := <-s.queue:
			s.processReply(job)
			s.clearPending(job.messageID)
		}
	}
}

// processReply generates and delivers one bot answer. Panics and responder
// failures are contained here; the thread always gets a reply.
func (s *DispatchService) processReply(job botReplyJob) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Recovered panic in bot reply worker",
				"message_id", job.messageID, "panic", r)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), botReplyTimeout)
	defer cancel()

	language := "en"
	if u, err := s.userRepo.FindByID(ctx, job.userID); err == nil && u.Language != "" {
		language = u.Language
	}

	reply := s.botService.GenerateReply(ctx, job.threadID, job.content, job.userID, language)

	botMsg := domain.Message{
		ID:        uuid.NewString(),
		ChatID:    job.threadID,
		SenderID:  domain.BotParticipantID,
		Content:   reply,
		Type:      domain.MessageTypeText,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.deliver(ctx, &botMsg); err != nil {
		s.logger.Error("Failed to deliver bot reply",
			"thread_id", job.threadID, "error", err)
	}
}
