package convo

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/solemarket/solechat/internal/bus"
	"github.com/solemarket/solechat/internal/model"
	"github.com/solemarket/solechat/internal/poll"
	"github.com/solemarket/solechat/internal/rest"
)

// MessagesAPI is the slice of the message service the store depends on.
type MessagesAPI interface {
	Partners(ctx context.Context) ([]model.Partner, error)
	Conversation(ctx context.Context, partnerID int64) ([]model.Message, error)
	UnreadCount(ctx context.Context) (int, error)
}

// UsersAPI is the slice of the user service the store depends on.
type UsersAPI interface {
	Get(ctx context.Context, id int64) (*model.User, error)
	SearchByUsername(ctx context.Context, username string) (*model.User, error)
}

const (
	partnerRetries = 2

	searchMinLen = 2
	searchMaxLen = 50
)

// Store owns the partner cache and the active thread for one signed-in
// session. Two pollers drive it: the partner poller for the whole mount,
// the thread poller only while a partner is selected. Every poll callback
// re-checks liveness (generation plus active partner) before applying, so
// responses landing after a selection change or teardown are dropped.
//
// The thread is tagged state: a confirmed list replaced wholesale on every
// fetch plus at most one pending optimistic entry appended after a send.
// A successful replace is authoritative and clears the pending entry; the
// design accepts up to one poll interval of visible duplication instead of
// de-duplicating across differently shaped records.
type Store struct {
	msgs   MessagesAPI
	users  UsersAPI
	self   model.User
	bus    *bus.Bus
	logger *zap.Logger

	mu         sync.RWMutex
	partners   []model.Partner
	active     *model.Partner
	thread     []model.Message
	pending    *model.Message
	generation uint64
	unread     int

	partnerPoll *poll.Task
	threadPoll  *poll.Task

	retryDelay     time.Duration
	reconcileDelay time.Duration

	readSync func(ctx context.Context, partnerID int64)
}

// Option tweaks store timing, used by tests.
type Option func(*Store)

// WithRetryDelay overrides the partner-list retry backoff.
func WithRetryDelay(d time.Duration) Option {
	return func(s *Store) { s.retryDelay = d }
}

// WithReconcileDelay overrides the post-send refetch delay.
func WithReconcileDelay(d time.Duration) Option {
	return func(s *Store) { s.reconcileDelay = d }
}

// NewStore creates a conversation store for the signed-in user. The pollers
// are created here but only run between Start/Stop and partner selection.
func NewStore(msgs MessagesAPI, users UsersAPI, self model.User, b *bus.Bus, logger *zap.Logger,
	partnerInterval, threadInterval time.Duration, opts ...Option) *Store {

	s := &Store{
		msgs:           msgs,
		users:          users,
		self:           self,
		bus:            b,
		logger:         logger,
		retryDelay:     time.Second,
		reconcileDelay: 500 * time.Millisecond,
	}
	for _, o := range opts {
		o(s)
	}

	s.partnerPoll = poll.NewTask(partnerInterval, s.partnerTick)
	s.threadPoll = poll.NewTask(threadInterval, s.threadTick)
	return s
}

// SetReadSync installs the read-state hook invoked exactly once per partner
// selection. Must be set before Start.
func (s *Store) SetReadSync(fn func(ctx context.Context, partnerID int64)) {
	s.readSync = fn
}

// Self returns the signed-in user the store is bound to.
func (s *Store) Self() model.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.self
}

// SetSelf rebinds the store to a newly signed-in user and resets all cached
// state from the previous one. Called before Start after a fresh login.
func (s *Store) SetSelf(u model.User) {
	s.mu.Lock()
	s.self = u
	s.partners = nil
	s.active = nil
	s.thread = nil
	s.pending = nil
	s.unread = 0
	s.generation++
	s.mu.Unlock()
}

// Start begins the partner-list poller. It runs until Stop for the whole
// time the feature is mounted, independent of partner selection.
func (s *Store) Start(ctx context.Context) {
	s.partnerPoll.Start(ctx)
}

// Stop tears the store down: both pollers halt and late responses are
// fenced off by the generation bump. Idempotent.
func (s *Store) Stop() {
	s.partnerPoll.Stop()
	s.threadPoll.Stop()
	s.mu.Lock()
	s.generation++
	s.mu.Unlock()
}

// partnerTick is one partner-poller beat: refresh the partner list and the
// navigation badge. Failures here are background noise, never surfaced.
func (s *Store) partnerTick(ctx context.Context) {
	if err := s.LoadPartners(ctx); err != nil {
		if s.logger != nil && !errors.Is(err, rest.ErrSessionExpired) {
			s.logger.Warn("partner poll failed", zap.Error(err))
		}
		return
	}
	if n, err := s.msgs.UnreadCount(ctx); err == nil {
		s.mu.Lock()
		changed := n != s.unread
		s.unread = n
		s.mu.Unlock()
		if changed {
			s.publish(bus.TopicUnreadChanged, n)
		}
	}
}

// LoadPartners replaces the cache with the server's partner list. Network
// failures are retried twice with a fixed backoff before giving up; the
// last known cache stands when all attempts fail. Locally synthesized
// partners not yet in the server list survive the replace (merged back at
// the front), so a partner found via search or deep link never vanishes
// mid-session.
func (s *Store) LoadPartners(ctx context.Context) error {
	var fetched []model.Partner
	var err error
	for attempt := 0; ; attempt++ {
		fetched, err = s.msgs.Partners(ctx)
		if err == nil {
			break
		}
		if !rest.IsNetwork(err) || attempt >= partnerRetries {
			return err
		}
		select {
		case <-time.After(s.retryDelay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	s.mu.Lock()
	seen := make(map[int64]bool, len(fetched))
	for _, p := range fetched {
		seen[p.ID] = true
	}
	merged := make([]model.Partner, 0, len(fetched)+2)
	for _, p := range s.partners {
		if !seen[p.ID] {
			merged = append(merged, p)
		}
	}
	merged = append(merged, fetched...)
	s.partners = merged
	s.mu.Unlock()

	s.publish(bus.TopicPartnersUpdated, len(merged))
	return nil
}

// ResolvePartnerByID selects the partner with the given id, fetching it
// from the user directory when the cache misses (deep-link path). The merge
// is first-write-wins: an existing cache entry for that id is kept as-is.
// NotFound and session expiry clear the current selection.
func (s *Store) ResolvePartnerByID(ctx context.Context, id int64) (*model.Partner, error) {
	if id <= 0 {
		return nil, rest.Validation("invalid user id")
	}

	s.mu.RLock()
	cached := s.findPartnerLocked(id)
	s.mu.RUnlock()
	if cached != nil {
		p := *cached
		s.SelectPartner(ctx, p)
		return &p, nil
	}

	u, err := s.users.Get(ctx, id)
	if err != nil {
		if errors.Is(err, rest.ErrNotFound) || errors.Is(err, rest.ErrSessionExpired) {
			s.ClearSelection()
		}
		return nil, err
	}

	p := s.mergePartner(*u)
	s.SelectPartner(ctx, p)
	return &p, nil
}

// SearchPartnerByUsername validates the query, finds the user and selects
// them as the active partner. All validation happens before any network
// call; messaging yourself is rejected here.
func (s *Store) SearchPartnerByUsername(ctx context.Context, username string) (*model.Partner, error) {
	username = strings.TrimSpace(username)
	switch {
	case username == "":
		return nil, rest.Validation("please enter a username")
	case utf8.RuneCountInString(username) < searchMinLen:
		return nil, rest.Validation("username must be at least %d characters", searchMinLen)
	case utf8.RuneCountInString(username) > searchMaxLen:
		return nil, rest.Validation("username must be at most %d characters", searchMaxLen)
	case strings.EqualFold(username, s.Self().Username):
		return nil, rest.Validation("you cannot message yourself")
	}

	u, err := s.users.SearchByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	p := s.mergePartner(*u)
	s.SelectPartner(ctx, p)
	return &p, nil
}

// SelectPartner makes p the active partner: the thread loads immediately,
// the thread poller restarts for the new selection, and read state syncs
// exactly once. Selecting the same partner again restarts its poller and
// re-syncs, matching a fresh view of the thread.
func (s *Store) SelectPartner(ctx context.Context, p model.Partner) {
	s.mu.Lock()
	active := p
	s.active = &active
	s.thread = nil
	s.pending = nil
	s.generation++
	s.mu.Unlock()

	s.publish(bus.TopicSelectionChanged, p.ID)

	// Immediate first tick is the initial thread load.
	s.threadPoll.Start(ctx)

	if s.readSync != nil {
		go s.readSync(ctx, p.ID)
	}
}

// ClearSelection drops the active partner and thread and stops the thread
// poller. The partner poller keeps running.
func (s *Store) ClearSelection() {
	s.threadPoll.Stop()
	s.mu.Lock()
	s.active = nil
	s.thread = nil
	s.pending = nil
	s.generation++
	s.mu.Unlock()
	s.publish(bus.TopicSelectionChanged, int64(0))
}

// threadTick is one thread-poller beat: fetch the active thread and replace
// it wholesale if this selection is still live when the response lands.
func (s *Store) threadTick(ctx context.Context) {
	s.mu.RLock()
	if s.active == nil {
		s.mu.RUnlock()
		return
	}
	partnerID := s.active.ID
	gen := s.generation
	s.mu.RUnlock()

	msgs, err := s.msgs.Conversation(ctx, partnerID)
	if err != nil {
		// Background refresh: swallow everything. Session expiry already ran
		// its side effects inside the transport.
		if s.logger != nil && !errors.Is(err, rest.ErrSessionExpired) {
			s.logger.Warn("thread poll failed", zap.Int64("partner", partnerID), zap.Error(err))
		}
		return
	}

	s.mu.Lock()
	if s.generation != gen || s.active == nil || s.active.ID != partnerID {
		// Stale response after a selection change or teardown.
		s.mu.Unlock()
		return
	}
	s.thread = msgs
	s.pending = nil // the authoritative replace supersedes any optimistic tail
	s.mu.Unlock()

	s.publish(bus.TopicThreadUpdated, partnerID)
}

// RefreshThread forces one immediate thread fetch outside the poller beat.
func (s *Store) RefreshThread(ctx context.Context) {
	s.threadTick(ctx)
}

// AppendConfirmed appends a server-confirmed send as the thread's pending
// tail and makes sure the active partner exists in the cache, inserted at
// the front with zero unread when messaging someone for the first time.
func (s *Store) AppendConfirmed(msg *model.Message) {
	s.mu.Lock()
	if s.active == nil {
		s.mu.Unlock()
		return
	}
	m := *msg
	s.pending = &m
	partner := *s.active
	if s.findPartnerLocked(partner.ID) == nil {
		partner.UnreadCount = 0
		s.partners = append([]model.Partner{partner}, s.partners...)
	}
	s.mu.Unlock()

	s.publish(bus.TopicThreadUpdated, partner.ID)
	s.publish(bus.TopicPartnersUpdated, 0)
}

// ReconcileAfterSend schedules the short-delay refetch of thread and
// partner list that follows a successful send.
func (s *Store) ReconcileAfterSend(ctx context.Context) {
	go func() {
		select {
		case <-time.After(s.reconcileDelay):
		case <-ctx.Done():
			return
		}
		s.RefreshThread(ctx)
		if err := s.LoadPartners(ctx); err != nil && s.logger != nil {
			s.logger.Warn("post-send partner refresh failed", zap.Error(err))
		}
	}()
}

// MarkThreadRead flips isRead on inbound messages from partnerID and zeroes
// that partner's unread badge. Called by the read-state synchronizer only
// after the server accepted the mark-read call.
func (s *Store) MarkThreadRead(partnerID int64) {
	s.mu.Lock()
	for i := range s.thread {
		m := &s.thread[i]
		if m.ReceiverID == s.self.ID && m.SenderID == partnerID {
			m.IsRead = true
		}
	}
	for i := range s.partners {
		if s.partners[i].ID == partnerID {
			s.partners[i].UnreadCount = 0
		}
	}
	s.mu.Unlock()

	s.publish(bus.TopicThreadUpdated, partnerID)
	s.publish(bus.TopicPartnersUpdated, 0)
}

// Partners returns a snapshot of the partner cache.
func (s *Store) Partners() []model.Partner {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Partner, len(s.partners))
	copy(out, s.partners)
	return out
}

// ActivePartner returns the selected partner, or nil.
func (s *Store) ActivePartner() *model.Partner {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.active == nil {
		return nil
	}
	p := *s.active
	return &p
}

// Thread returns the visible thread: the confirmed list plus the pending
// optimistic entry, if any, at the tail.
func (s *Store) Thread() []model.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Message, 0, len(s.thread)+1)
	out = append(out, s.thread...)
	if s.pending != nil {
		out = append(out, *s.pending)
	}
	return out
}

// UnreadTotal returns the last polled total unread count.
func (s *Store) UnreadTotal() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.unread
}

// mergePartner inserts u as a zero-unread partner unless an entry with the
// same id already exists, in which case the existing entry wins.
func (s *Store) mergePartner(u model.User) model.Partner {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing := s.findPartnerLocked(u.ID); existing != nil {
		return *existing
	}
	p := model.Partner{User: u, UnreadCount: 0}
	s.partners = append([]model.Partner{p}, s.partners...)
	return p
}

func (s *Store) findPartnerLocked(id int64) *model.Partner {
	for i := range s.partners {
		if s.partners[i].ID == id {
			return &s.partners[i]
		}
	}
	return nil
}

func (s *Store) publish(topic string, data any) {
	if s.bus != nil {
		s.bus.Publish(bus.Event{Topic: topic, Data: data})
	}
}
