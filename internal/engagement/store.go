// Package engagement owns all wall state: messages, likes and reports.
// Every mutation runs under a single lock, so like toggles are atomic per
// (message, identity) and a report's append-count-hide sequence is atomic per
// message. Secondary indices are maintained incrementally on every mutation.
package engagement

import (
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"lennonwall/backend/internal/config"
	"lennonwall/backend/internal/events"
	"lennonwall/backend/internal/models"
	"lennonwall/backend/internal/moderation"

	"github.com/google/uuid"
)

// NoLimit makes ListVisible return every visible message after offset.
const NoLimit = -1

// NewMessage is the caller-facing input for Create. Empty optional fields are
// stored as absent.
type NewMessage struct {
	Content    string
	AuthorName string
	Location   string
}

// LikeResult is the outcome of ToggleLike.
type LikeResult struct {
	Liked    bool `json:"liked"`
	NewCount int  `json:"newCount"`
}

// Stats is a point-in-time summary of the store.
type Stats struct {
	Messages int `json:"messages"`
	Visible  int `json:"visible"`
	Hidden   int `json:"hidden"`
	Likes    int `json:"likes"`
	Reports  int `json:"reports"`
}

type likeKey struct {
	messageID string
	token     models.IdentityToken
}

type Store struct {
	mu sync.RWMutex

	messages map[string]*models.Message
	// order holds every message sorted by (CreatedAt, Seq) ascending.
	order   []*models.Message
	likes   map[likeKey]models.Like
	reports map[string][]models.Report
	visible int
	seq     uint64

	policy   moderation.Policy
	journal  Journal
	observer Observer
	now      func() time.Time
}

type Option func(*Store)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithPolicy(p moderation.Policy) Option {
	return func(s *Store) { s.policy = p }
}

func WithJournal(j Journal) Option {
	return func(s *Store) { s.journal = j }
}

func WithObserver(o Observer) Option {
	return func(s *Store) { s.observer = o }
}

// NewStore creates an empty store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		messages: make(map[string]*models.Message),
		likes:    make(map[likeKey]models.Like),
		reports:  make(map[string][]models.Report),
		policy:   moderation.DefaultPolicy,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create validates the input and stores a new visible message.
func (s *Store) Create(in NewMessage) (models.Message, error) {
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return models.Message{}, &ValidationError{Field: "content", Reason: "must not be empty"}
	}
	if utf8.RuneCountInString(content) > config.MaxContentLength {
		return models.Message{}, &ValidationError{Field: "content", Reason: fmt.Sprintf("must be at most %d characters", config.MaxContentLength)}
	}
	authorName, err := optionalText("authorName", in.AuthorName, config.MaxAuthorNameLength)
	if err != nil {
		return models.Message{}, err
	}
	location, err := optionalText("location", in.Location, config.MaxLocationLength)
	if err != nil {
		return models.Message{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	m := &models.Message{
		ID:         uuid.New().String(),
		Seq:        s.seq + 1,
		Content:    content,
		AuthorName: authorName,
		Location:   location,
		CreatedAt:  s.now(),
	}

	if s.journal != nil {
		if err := s.journal.MessageCreated(*m); err != nil {
			return models.Message{}, &InternalError{Op: "create message", Err: err}
		}
	}

	s.seq = m.Seq
	s.messages[m.ID] = m
	s.insertOrdered(m)
	s.visible++
	s.emit(events.MessageCreated, m, nil)

	return *m, nil
}

// ToggleLike likes the message for token, or removes the existing like.
func (s *Store) ToggleLike(messageID string, token models.IdentityToken) (LikeResult, error) {
	if err := token.Validate(); err != nil {
		return LikeResult{}, &ValidationError{Field: "identityToken", Reason: err.Error()}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.messages[messageID]
	if !ok {
		return LikeResult{}, &NotFoundError{MessageID: messageID}
	}

	key := likeKey{messageID: messageID, token: token}
	if existing, liked := s.likes[key]; liked {
		newCount := m.LikeCount - 1
		if newCount < 0 {
			newCount = 0
		}
		if s.journal != nil {
			if err := s.journal.LikeRemoved(existing, newCount); err != nil {
				return LikeResult{}, &InternalError{Op: "remove like", Err: err}
			}
		}
		delete(s.likes, key)
		m.LikeCount = newCount
		s.emit(events.MessageUnliked, m, nil)
		return LikeResult{Liked: false, NewCount: newCount}, nil
	}

	like := models.Like{
		ID:            uuid.New().String(),
		MessageID:     messageID,
		IdentityToken: string(token),
		CreatedAt:     s.now(),
	}
	newCount := m.LikeCount + 1
	if s.journal != nil {
		if err := s.journal.LikeAdded(like, newCount); err != nil {
			return LikeResult{}, &InternalError{Op: "add like", Err: err}
		}
	}
	s.likes[key] = like
	m.LikeCount = newCount
	s.emit(events.MessageLiked, m, nil)
	return LikeResult{Liked: true, NewCount: newCount}, nil
}

// IncrementView counts a view. Unknown ids are ignored.
func (s *Store) IncrementView(messageID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.messages[messageID]
	if !ok {
		return nil
	}
	if s.journal != nil {
		if err := s.journal.ViewCounted(messageID); err != nil {
			return &InternalError{Op: "count view", Err: err}
		}
	}
	m.ViewCount++
	s.emit(events.MessageViewed, m, nil)
	return nil
}

// Report files an abuse report and hides the message once the moderation
// policy says so. Reports from the same identity are all counted.
func (s *Store) Report(messageID string, reason models.ReportReason, token models.IdentityToken, details string) error {
	if !reason.Valid() {
		return &ValidationError{Field: "reason", Reason: "must be one of spam, inappropriate, harassment, other"}
	}
	if err := token.Validate(); err != nil {
		return &ValidationError{Field: "identityToken", Reason: err.Error()}
	}
	detailsText, err := optionalText("details", details, config.MaxReportDetailsLength)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.messages[messageID]
	if !ok {
		return &NotFoundError{MessageID: messageID}
	}

	report := models.Report{
		ID:            uuid.New().String(),
		MessageID:     messageID,
		Reason:        reason,
		Details:       detailsText,
		IdentityToken: string(token),
		CreatedAt:     s.now(),
	}
	count := len(s.reports[messageID]) + 1
	hide := !m.Hidden && s.policy.Decide(count) == moderation.Hide

	if s.journal != nil {
		if err := s.journal.ReportFiled(report, hide); err != nil {
			return &InternalError{Op: "file report", Err: err}
		}
	}

	s.reports[messageID] = append(s.reports[messageID], report)
	s.emit(events.MessageReported, m, &report)
	if hide {
		m.Hidden = true
		s.visible--
		s.emit(events.MessageHidden, m, &report)
		log.Printf("INFO: message %s hidden after %d reports", messageID, count)
	}
	return nil
}

// Get returns a copy of the message, hidden or not.
func (s *Store) Get(messageID string) (models.Message, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.messages[messageID]
	if !ok {
		return models.Message{}, false
	}
	return *m, true
}

// HasLiked reports whether token currently likes the message.
func (s *Store) HasLiked(messageID string, token models.IdentityToken) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.likes[likeKey{messageID: messageID, token: token}]
	return ok
}

// ListVisible returns visible messages newest first, sliced to
// [offset, offset+limit). Out of range offsets yield an empty slice.
func (s *Store) ListVisible(limit, offset int) []models.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.listVisible(limit, offset)
}

// CountVisible returns the number of messages that are not hidden.
func (s *Store) CountVisible() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.visible
}

// VisiblePage returns a page and the visible total from the same snapshot.
func (s *Store) VisiblePage(limit, offset int) ([]models.Message, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.listVisible(limit, offset), s.visible
}

// Stats summarises the store contents.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Stats{
		Messages: len(s.messages),
		Visible:  s.visible,
		Hidden:   len(s.messages) - s.visible,
		Likes:    len(s.likes),
	}
	for _, r := range s.reports {
		st.Reports += len(r)
	}
	return st
}

// Restore replaces the store contents with persisted rows. Like counts are
// rebuilt from the like rows and hidden flags are re-derived from the report
// counts. Messages hidden by the re-derivation are written back through the
// journal first, so a later restart with a higher threshold keeps them hidden.
// On journal failure the store is left unchanged.
func (s *Store) Restore(messages []models.Message, likes []models.Like, reports []models.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	byID := make(map[string]*models.Message, len(messages))
	order := make([]*models.Message, 0, len(messages))
	likeIdx := make(map[likeKey]models.Like, len(likes))
	reportIdx := make(map[string][]models.Report)
	var seq uint64

	for i := range messages {
		m := messages[i]
		m.LikeCount = 0
		byID[m.ID] = &m
		order = append(order, &m)
		if m.Seq > seq {
			seq = m.Seq
		}
	}
	sort.SliceStable(order, func(i, j int) bool {
		return before(order[i], order[j])
	})
	for _, m := range order {
		if m.Seq == 0 {
			seq++
			m.Seq = seq
		}
	}

	for _, l := range likes {
		m, ok := byID[l.MessageID]
		if !ok {
			log.Printf("WARNING: dropping like %s for unknown message %s", l.ID, l.MessageID)
			continue
		}
		key := likeKey{messageID: l.MessageID, token: models.IdentityToken(l.IdentityToken)}
		if _, dup := likeIdx[key]; dup {
			log.Printf("WARNING: dropping duplicate like %s on message %s", l.ID, l.MessageID)
			continue
		}
		likeIdx[key] = l
		m.LikeCount++
	}

	for _, r := range reports {
		if _, ok := byID[r.MessageID]; !ok {
			log.Printf("WARNING: dropping report %s for unknown message %s", r.ID, r.MessageID)
			continue
		}
		reportIdx[r.MessageID] = append(reportIdx[r.MessageID], r)
	}

	var newlyHidden []string
	visible := 0
	for _, m := range order {
		if !m.Hidden && s.policy.Decide(len(reportIdx[m.ID])) == moderation.Hide {
			m.Hidden = true
			newlyHidden = append(newlyHidden, m.ID)
		}
		if !m.Hidden {
			visible++
		}
	}

	if len(newlyHidden) > 0 && s.journal != nil {
		if err := s.journal.MessagesHidden(newlyHidden); err != nil {
			return &InternalError{Op: "restore", Err: err}
		}
		log.Printf("INFO: hid %d messages that reached the report threshold", len(newlyHidden))
	}

	s.messages = byID
	s.order = order
	s.likes = likeIdx
	s.reports = reportIdx
	s.visible = visible
	s.seq = seq

	log.Printf("INFO: restored %d messages (%d visible), %d likes, %d reports",
		len(s.messages), s.visible, len(s.likes), len(reports))
	return nil
}

func (s *Store) listVisible(limit, offset int) []models.Message {
	out := make([]models.Message, 0)
	if limit == 0 {
		return out
	}
	if offset < 0 {
		offset = 0
	}

	skipped := 0
	for i := len(s.order) - 1; i >= 0; i-- {
		m := s.order[i]
		if m.Hidden {
			continue
		}
		if skipped < offset {
			skipped++
			continue
		}
		out = append(out, *m)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

func (s *Store) insertOrdered(m *models.Message) {
	n := len(s.order)
	if n == 0 || before(s.order[n-1], m) {
		s.order = append(s.order, m)
		return
	}
	// The clock went backwards; keep the slice sorted.
	i := sort.Search(n, func(i int) bool { return before(m, s.order[i]) })
	s.order = append(s.order, nil)
	copy(s.order[i+1:], s.order[i:])
	s.order[i] = m
}

func (s *Store) emit(t events.Type, m *models.Message, r *models.Report) {
	if s.observer == nil {
		return
	}
	e := events.Event{
		Type:      t,
		MessageID: m.ID,
		Message:   *m,
		At:        s.now(),
	}
	if r != nil {
		e.Reason = r.Reason
		e.ReportCount = len(s.reports[m.ID])
	}
	s.observer.Observe(e)
}

// before orders by creation time, then by sequence number.
func before(a, b *models.Message) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.Seq < b.Seq
}

func optionalText(field, value string, max int) (*string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	if utf8.RuneCountInString(value) > max {
		return nil, &ValidationError{Field: field, Reason: fmt.Sprintf("must be at most %d characters", max)}
	}
	return &value, nil
}
