package conversation

import (
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/pharmaciedusoleil/portal/internal/core/assistant"
	"github.com/pharmaciedusoleil/portal/internal/core/timeline"
	"github.com/pharmaciedusoleil/portal/internal/models"
)

const maxRecentSearches = 10

// DelayFunc returns how long the assistant "types" before replying.
type DelayFunc func() time.Duration

// RandomDelay draws uniformly from [min, max].
func RandomDelay(min, max time.Duration) DelayFunc {
	return func() time.Duration {
		if max <= min {
			return min
		}
		return min + rand.N(max-min+1)
	}
}

// FixedDelay always returns d.
func FixedDelay(d time.Duration) DelayFunc {
	return func() time.Duration { return d }
}

// Observer is told about every appended message.
type Observer interface {
	MessageAppended(origin models.Origin)
	IntentMatched(intent string)
}

type nopObserver struct{}

func (nopObserver) MessageAppended(models.Origin) {}
func (nopObserver) IntentMatched(string)          {}

// Session is an append-only conversation with the assistant.
// Every method must be called on the loop (from a loop task or inside
// Loop.Do).
type Session struct {
	key       string
	loop      *timeline.Loop
	assistant *assistant.Assistant
	delay     DelayFunc
	observer  Observer
	log       *logrus.Entry

	messages  []models.Message
	context   models.UserContext
	pending   int
	lastReply time.Time
	closed    bool
}

type Options struct {
	Key      string // timeline key for this session's reply timers
	Delay    DelayFunc
	Observer Observer
	Log      *logrus.Entry
}

func NewSession(loop *timeline.Loop, a *assistant.Assistant, opts Options) *Session {
	if opts.Delay == nil {
		opts.Delay = RandomDelay(time.Second, 2*time.Second)
	}
	if opts.Observer == nil {
		opts.Observer = nopObserver{}
	}
	if opts.Log == nil {
		opts.Log = logrus.NewEntry(logrus.StandardLogger())
	}
	if opts.Key == "" {
		opts.Key = "chat/" + uuid.NewString()
	}

	s := &Session{
		key:       opts.Key,
		loop:      loop,
		assistant: a,
		delay:     opts.Delay,
		observer:  opts.Observer,
		log:       opts.Log,
		context: models.UserContext{
			CurrentPath: "/",
			Visited:     map[string]bool{"/": true},
			Language:    "fr",
		},
	}
	s.append(models.Message{Text: a.Welcome(), Origin: models.OriginAssistant, Timestamp: loop.Now()})
	return s
}

func (s *Session) append(m models.Message) models.Message {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	m.ID = id.String()
	s.messages = append(s.messages, m)
	s.observer.MessageAppended(m.Origin)
	return m
}

// Send appends the user's message and schedules the assistant's reply.
// Blank input, or any input after Close, is ignored and reports false.
func (s *Session) Send(text string) (models.Message, bool) {
	if s.closed || strings.TrimSpace(text) == "" {
		return models.Message{}, false
	}

	now := s.loop.Now()
	msg := s.append(models.Message{Text: text, Origin: models.OriginUser, Timestamp: now})

	// Replies never overtake an earlier one, whatever delay was drawn.
	due := now.Add(s.delay())
	if due.Before(s.lastReply) {
		due = s.lastReply
	}
	s.lastReply = due
	s.pending++

	snapshot := s.context.Clone()
	s.loop.At(s.key, due, func(at time.Time) {
		if s.closed {
			return
		}
		intent, reply := s.assistant.Answer(text, snapshot, at)
		s.observer.IntentMatched(intent.Label())
		s.append(models.Message{
			Text:         reply.Text,
			Origin:       models.OriginAssistant,
			Timestamp:    at,
			QuickActions: reply.QuickActions,
			Suggestions:  reply.Suggestions,
		})
		if s.pending > 0 {
			s.pending--
		}
		s.log.WithField("intent", intent.Label()).Debug("assistant replied")
	})
	return msg, true
}

// Messages returns a copy of the conversation in order.
func (s *Session) Messages() []models.Message {
	out := make([]models.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Typing reports whether a reply is still outstanding.
func (s *Session) Typing() bool {
	return s.pending > 0
}

// Context returns a copy of the visitor's navigation context.
func (s *Session) Context() models.UserContext {
	return s.context.Clone()
}

// Navigate records the page the visitor is on.
func (s *Session) Navigate(path string) {
	if path == "" {
		return
	}
	s.context.CurrentPath = path
	s.context.Visited[path] = true
}

// RecordSearch keeps the last ten non-blank searches, newest last.
func (s *Session) RecordSearch(query string) {
	query = strings.TrimSpace(query)
	if query == "" {
		return
	}
	s.context.RecentSearches = append(s.context.RecentSearches, query)
	if n := len(s.context.RecentSearches); n > maxRecentSearches {
		s.context.RecentSearches = append([]string(nil), s.context.RecentSearches[n-maxRecentSearches:]...)
	}
}

func (s *Session) SetLanguage(lang string) {
	if lang != "" {
		s.context.Language = lang
	}
}

// Close cancels replies that have not been delivered yet. A closed session
// accepts no further messages.
func (s *Session) Close() {
	s.closed = true
	if n := s.loop.Cancel(s.key); n > 0 {
		s.log.WithField("dropped", n).Debug("conversation closed with pending replies")
	}
	s.pending = 0
}
