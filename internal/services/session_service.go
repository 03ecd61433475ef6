// File: internal/services/session_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/agrisaarthi/agrisaarthi/internal/domain"
	"github.com/agrisaarthi/agrisaarthi/internal/realtime"
	"github.com/agrisaarthi/agrisaarthi/internal/repository/chat"
	"github.com/agrisaarthi/agrisaarthi/internal/repository/message"
	"github.com/agrisaarthi/agrisaarthi/internal/repository/user"
)

// ThreadView is one conversation enriched with the peer's display profile.
type ThreadView struct {
	Chat domain.Chat    `json:"chat"`
	Peer domain.Profile `json:"peer"`
}

// userSession is one user's view: their thread list, their active thread and
// the cancel handle for its realtime subscription.
type userSession struct {
	threads        []ThreadView
	activeThreadID string
	cancelFeed     context.CancelFunc
}

// SessionService owns conversation state keyed by user: each user gets their
// own thread list and active-thread subscription, while the per-thread
// message caches are shared because history is the same for both
// participants. All cache access is mutex guarded so HTTP handlers, feed
// goroutines and the dispatch path can share one instance.
type SessionService struct {
	chatRepo    chat.ChatRepository
	messageRepo message.MessageRepository
	userRepo    user.UserRepository
	broadcaster *realtime.Broadcaster
	logger      Logger

	mu       sync.Mutex
	sessions map[string]*userSession
	messages map[string][]domain.Message
}

func NewSessionService(
	chatRepo chat.ChatRepository,
	messageRepo message.MessageRepository,
	userRepo user.UserRepository,
	broadcaster *realtime.Broadcaster,
	logger Logger,
) *SessionService {
	return &SessionService{
		chatRepo:    chatRepo,
		messageRepo: messageRepo,
		userRepo:    userRepo,
		broadcaster: broadcaster,
		logger:      logger,
		sessions:    make(map[string]*userSession),
		messages:    make(map[string][]domain.Message),
	}
}

// session returns userID's state, creating it on first touch. Callers hold
// s.mu.
func (s *SessionService) session(userID string) *userSession {
	sess, ok := s.sessions[userID]
	if !ok {
		sess = &userSession{}
		s.sessions[userID] = sess
	}
	return sess
}

// LoadThreads refreshes the thread list for userID, most recently updated
// first, each entry carrying the peer's profile. On store failure the
// previously cached list stays intact and ErrStoreUnavailable is returned.
func (s *SessionService) LoadThreads(ctx context.Context, userID string) ([]ThreadView, error) {
	chats, err := s.chatRepo.FindByParticipant(ctx, userID)
	if err != nil {
		s.logger.Error("Failed to load threads", "user_id", userID, "error", err)
		return nil, ErrStoreUnavailable
	}

	profiles := s.resolvePeerProfiles(ctx, userID, chats)

	views := make([]ThreadView, 0, len(chats))
	for _, c := range chats {
		views = append(views, ThreadView{Chat: c, Peer: profiles[c.Peer(userID)]})
	}

	s.mu.Lock()
	s.session(userID).threads = views
	s.mu.Unlock()

	return append([]ThreadView(nil), views...), nil
}

// resolvePeerProfiles maps every peer id in chats to a display profile. The
// reserved bot id gets the fixed bot profile and ids the store no longer
// knows get a placeholder, so one missing account never hides a thread.
func (s *SessionService) resolvePeerProfiles(ctx context.Context, userID string, chats []domain.Chat) map[string]domain.Profile {
	profiles := make(map[string]domain.Profile)
	var lookup []string
	for _, c := range chats {
		peerID := c.Peer(userID)
		if _, seen := profiles[peerID]; seen {
			continue
		}
		if peerID == domain.BotParticipantID {
			profiles[peerID] = domain.BotProfile
			continue
		}
		profiles[peerID] = domain.Profile{ID: peerID, FullName: "Unknown User"}
		lookup = append(lookup, peerID)
	}

	if len(lookup) > 0 {
		users, err := s.userRepo.FindByIDs(ctx, lookup)
		if err != nil {
			s.logger.Warn("Peer profile lookup failed, using placeholders", "error", err)
		} else {
			for _, u := range users {
				profiles[u.ID] = u.Profile()
			}
		}
	}
	return profiles
}

const botWelcomeMessage = "Hello! I am AgriSaarthi Bot. How can I help you with your farming needs today?"

// StartThread opens a conversation between userID and peerID, reusing an
// existing pair in either orientation. New bot threads are seeded with the
// bot's welcome message.
func (s *SessionService) StartThread(ctx context.Context, userID, peerID string) (*ThreadView, error) {
	peer, err := s.peerProfile(ctx, peerID)
	if err != nil {
		return nil, err
	}

	existing, err := s.chatRepo.FindByPair(ctx, userID, peerID)
	if err == nil {
		return &ThreadView{Chat: *existing, Peer: peer}, nil
	}
	if !errors.Is(err, chat.ErrChatNotFound) {
		s.logger.Error("Failed to look up thread pair", "error", err)
		return nil, ErrStoreUnavailable
	}

	now := time.Now().UTC()
	thread := domain.Chat{
		ID:           uuid.NewString(),
		ParticipantA: userID,
		ParticipantB: peerID,
		LastMessage:  fmt.Sprintf("Chat started with %s", peer.FullName),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if _, err := s.chatRepo.Create(ctx, &thread); err != nil {
		s.logger.Error("Failed to create thread", "error", err)
		return nil, ErrStoreUnavailable
	}

	if peerID == domain.BotParticipantID {
		welcome := domain.Message{
			ID:        uuid.NewString(),
			ChatID:    thread.ID,
			SenderID:  domain.BotParticipantID,
			Content:   botWelcomeMessage,
			Type:      domain.MessageTypeText,
			CreatedAt: now,
		}
		if _, err := s.messageRepo.Create(ctx, &welcome); err != nil {
			s.logger.Warn("Failed to seed welcome message", "thread_id", thread.ID, "error", err)
		}
	}

	view := ThreadView{Chat: thread, Peer: peer}
	s.mu.Lock()
	if sess, ok := s.sessions[userID]; ok {
		sess.threads = append([]ThreadView{view}, sess.threads...)
	}
	s.mu.Unlock()
	return &view, nil
}

func (s *SessionService) peerProfile(ctx context.Context, peerID string) (domain.Profile, error) {
	if peerID == domain.BotParticipantID {
		return domain.BotProfile, nil
	}
	u, err := s.userRepo.FindByID(ctx, peerID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return domain.Profile{}, err
		}
		return domain.Profile{}, ErrStoreUnavailable
	}
	return u.Profile(), nil
}

// Threads returns userID's cached thread list.
func (s *SessionService) Threads(userID string) []ThreadView {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[userID]
	if !ok {
		return nil
	}
	return append([]ThreadView(nil), sess.threads...)
}

// LoadMessages fetches threadID's history oldest first and replaces only that
// thread's cache. On failure every cache is left untouched.
func (s *SessionService) LoadMessages(ctx context.Context, threadID string) ([]domain.Message, error) {
	msgs, err := s.messageRepo.FindByChatID(ctx, threadID)
	if err != nil {
		s.logger.Error("Failed to load messages", "thread_id", threadID, "error", err)
		return nil, ErrStoreUnavailable
	}

	s.mu.Lock()
	s.messages[threadID] = msgs
	cached := append([]domain.Message(nil), msgs...)
	s.mu.Unlock()

	return cached, nil
}

// Messages returns the cached history for threadID.
func (s *SessionService) Messages(threadID string) []domain.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Message(nil), s.messages[threadID]...)
}

// ActiveThread returns userID's currently selected thread id, or "".
func (s *SessionService) ActiveThread(userID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[userID]
	if !ok {
		return ""
	}
	return sess.activeThreadID
}

// SelectThread makes threadID userID's active conversation: the user's
// previous subscription is cancelled, a new one is opened, and the history is
// loaded. The thread must exist and userID must be one of its participants.
// Selecting the already active thread is a no-op.
func (s *SessionService) SelectThread(ctx context.Context, userID, threadID string) ([]domain.Message, error) {
	thread, err := s.chatRepo.FindByID(ctx, threadID)
	if err != nil {
		if errors.Is(err, chat.ErrChatNotFound) {
			return nil, ErrThreadNotFound
		}
		s.logger.Error("Failed to look up thread", "thread_id", threadID, "error", err)
		return nil, ErrStoreUnavailable
	}
	if !thread.HasParticipant(userID) {
		return nil, ErrNotParticipant
	}

	s.mu.Lock()
	sess := s.session(userID)
	if sess.activeThreadID == threadID {
		cached := append([]domain.Message(nil), s.messages[threadID]...)
		s.mu.Unlock()
		return cached, nil
	}

	if sess.cancelFeed != nil {
		sess.cancelFeed()
		sess.cancelFeed = nil
	}

	feedCtx, cancel := context.WithCancel(context.Background())
	feed, _ := s.broadcaster.Subscribe(feedCtx, threadID)
	sess.cancelFeed = cancel
	sess.activeThreadID = threadID
	s.mu.Unlock()

	go s.consumeFeed(userID, feed)

	return s.LoadMessages(ctx, threadID)
}

func (s *SessionService) consumeFeed(userID string, feed <-chan *domain.Message) {
	for msg := range feed {
		s.applyNotification(userID, msg)
	}
}

// applyNotification reconciles one insert notification into the shared
// thread cache. Notifications for a thread the user is no longer viewing and
// duplicate ids are dropped; the id check also keeps two participants'
// feeds from double-appending the same message.
func (s *SessionService) applyNotification(userID string, msg *domain.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[userID]
	if !ok || msg.ChatID != sess.activeThreadID {
		return
	}
	for _, existing := range s.messages[msg.ChatID] {
		if existing.ID == msg.ID {
			return
		}
	}
	s.messages[msg.ChatID] = append(s.messages[msg.ChatID], *msg)
}

// AppendLocal adds an optimistic entry to a thread's cache before the store
// has confirmed it. Duplicate ids are dropped, matching notification merge.
func (s *SessionService) AppendLocal(msg domain.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.messages[msg.ChatID] {
		if existing.ID == msg.ID {
			return
		}
	}
	s.messages[msg.ChatID] = append(s.messages[msg.ChatID], msg)
}

// RemoveLocal rolls an optimistic entry back out of a thread's cache.
func (s *SessionService) RemoveLocal(threadID, messageID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cached := s.messages[threadID]
	for i, existing := range cached {
		if existing.ID == messageID {
			s.messages[threadID] = append(cached[:i:i], cached[i+1:]...)
			return
		}
	}
}

// Close cancels every user's realtime subscription.
func (s *SessionService) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sess := range s.sessions {
		if sess.cancelFeed != nil {
			sess.cancelFeed()
			sess.cancelFeed = nil
		}
		sess.activeThreadID = ""
	}
}
