package services

import (
	"context"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"

	"github.com/pharmaciedusoleil/portal/internal/core/assistant"
	"github.com/pharmaciedusoleil/portal/internal/core/contact"
	"github.com/pharmaciedusoleil/portal/internal/core/conversation"
	objectclient "github.com/pharmaciedusoleil/portal/internal/core/object-client"
	"github.com/pharmaciedusoleil/portal/internal/core/prescriptions"
	"github.com/pharmaciedusoleil/portal/internal/core/reminders"
	"github.com/pharmaciedusoleil/portal/internal/core/timeline"
	"github.com/pharmaciedusoleil/portal/internal/metrics"
)

// Workspace is everything one visitor interacts with. Session and Reminders
// must be used inside Loop.Do; Prescriptions synchronizes itself.
type Workspace struct {
	VisitorID     string
	Session       *conversation.Session
	Reminders     *reminders.Book
	Prescriptions *prescriptions.Pipeline
}

type WorkspaceOptions struct {
	MaxWorkspaces   int
	ReplyDelay      conversation.DelayFunc
	ReminderTick    time.Duration
	SnoozeDelay     time.Duration
	ValidatingAfter time.Duration
	ApprovedAfter   time.Duration
	SeedReminders   bool
	Storage         objectclient.ObjectClient
	Links           contact.Links
	Metrics         *metrics.Metrics
	Log             *logrus.Entry
}

// WorkspaceService hands out per-visitor workspaces, keeping at most
// MaxWorkspaces in memory. The least recently used one is closed when the
// limit is reached.
type WorkspaceService struct {
	loop      *timeline.Loop
	assistant *assistant.Assistant
	opts      WorkspaceOptions

	mu    sync.Mutex
	cache *lru.Cache[string, *Workspace]
}

func NewWorkspaceService(loop *timeline.Loop, a *assistant.Assistant, opts WorkspaceOptions) (*WorkspaceService, error) {
	if opts.MaxWorkspaces <= 0 {
		opts.MaxWorkspaces = 1024
	}
	if opts.Storage == nil {
		opts.Storage = objectclient.NewMemoryClient()
	}
	if opts.Log == nil {
		opts.Log = logrus.NewEntry(logrus.StandardLogger())
	}

	s := &WorkspaceService{loop: loop, assistant: a, opts: opts}
	cache, err := lru.NewWithEvict(opts.MaxWorkspaces, s.evicted)
	if err != nil {
		return nil, err
	}
	s.cache = cache
	return s, nil
}

func (s *WorkspaceService) evicted(visitorID string, ws *Workspace) {
	s.opts.Log.WithField("visitor", visitorID).Debug("closing workspace")
	s.closeWorkspace(ws)
}

func (s *WorkspaceService) closeWorkspace(ws *Workspace) {
	s.loop.Do(func() {
		ws.Session.Close()
		ws.Reminders.Close()
	})
	ws.Prescriptions.Close(context.Background())
	if s.opts.Metrics != nil {
		s.opts.Metrics.WorkspaceClosed()
	}
}

// Get returns the visitor's workspace, creating it on first use.
// It must not be called from a loop task.
func (s *WorkspaceService) Get(visitorID string) *Workspace {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ws, ok := s.cache.Get(visitorID); ok {
		return ws
	}
	ws := s.newWorkspace(visitorID)
	s.cache.Add(visitorID, ws)
	return ws
}

// Peek returns an existing workspace without creating one.
func (s *WorkspaceService) Peek(visitorID string) (*Workspace, bool) {
	return s.cache.Peek(visitorID)
}

func (s *WorkspaceService) Len() int {
	return s.cache.Len()
}

// Close closes every workspace.
func (s *WorkspaceService) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache.Purge()
}

func (s *WorkspaceService) newWorkspace(visitorID string) *Workspace {
	log := s.opts.Log.WithField("visitor", visitorID)

	sessionOpts := conversation.Options{Key: "chat/" + visitorID, Delay: s.opts.ReplyDelay, Log: log}
	bookCfg := reminders.Config{Key: "reminders/" + visitorID, Tick: s.opts.ReminderTick, Snooze: s.opts.SnoozeDelay, Log: log}
	pipelineCfg := prescriptions.Config{
		Key:             "prescriptions/" + visitorID,
		ObjectPrefix:    "visitors/" + visitorID + "/prescriptions",
		ValidatingAfter: s.opts.ValidatingAfter,
		ApprovedAfter:   s.opts.ApprovedAfter,
		Storage:         s.opts.Storage,
		Links:           s.opts.Links,
		Log:             log,
	}
	if m := s.opts.Metrics; m != nil {
		sessionOpts.Observer = m
		bookCfg.Observer = m
		pipelineCfg.Observer = m
		m.WorkspaceOpened()
	}

	ws := &Workspace{VisitorID: visitorID, Prescriptions: prescriptions.NewPipeline(s.loop, pipelineCfg)}
	s.loop.Do(func() {
		ws.Session = conversation.NewSession(s.loop, s.assistant, sessionOpts)
		ws.Reminders = reminders.NewBook(s.loop, bookCfg)
		if s.opts.SeedReminders {
			ws.Reminders.Seed(s.loop.Now())
		}
		ws.Reminders.Start()
	})
	log.Debug("workspace opened")
	return ws
}
