// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package assistant

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/pdiddy/research-assistant/pkg/types"
)

// Session is one conversation: its provider and research mode, the
// transcript, and the video under discussion. Only one Chat call may be in
// flight per session.
type Session struct {
	inflight *semaphore.Weighted

	mu         sync.Mutex
	id         string
	provider   types.ProviderID
	mode       types.ResearchMode
	transcript []types.ChatTurn
	video      *types.VideoContext
	created    time.Time
	updated    time.Time
}

// NewSession starts an empty conversation.
func NewSession(provider types.ProviderID, mode types.ResearchMode, now time.Time) *Session {
	return &Session{
		inflight: semaphore.NewWeighted(1),
		id:       uuid.NewString(),
		provider: provider,
		mode:     mode,
		created:  now,
		updated:  now,
	}
}

// RestoreSession resumes a saved conversation.
func RestoreSession(c types.Conversation) *Session {
	s := &Session{
		inflight:   semaphore.NewWeighted(1),
		id:         c.ID,
		provider:   c.Provider,
		mode:       c.Mode,
		transcript: append([]types.ChatTurn(nil), c.Turns...),
		created:    c.Created,
		updated:    c.Updated,
	}
	if s.id == "" {
		s.id = uuid.NewString()
	}
	if c.Video != nil && c.Mode == types.ModeVideo {
		v := *c.Video
		s.video = &v
	}
	return s
}

// ID returns the conversation id.
func (s *Session) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

func (s *Session) Provider() types.ProviderID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.provider
}

func (s *Session) Mode() types.ResearchMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// SetProvider changes the provider for later turns.
func (s *Session) SetProvider(p types.ProviderID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.provider = p
}

// SetMode changes the research mode. Leaving video analysis clears the
// active video.
func (s *Session) SetMode(m types.ResearchMode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode == types.ModeVideo && m != types.ModeVideo {
		s.video = nil
	}
	s.mode = m
}

// Video returns a copy of the active video, or nil.
func (s *Session) Video() *types.VideoContext {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.video == nil {
		return nil
	}
	v := *s.video
	return &v
}

// Transcript returns a copy of the turns so far.
func (s *Session) Transcript() []types.ChatTurn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]types.ChatTurn(nil), s.transcript...)
}

// Reset starts a new conversation with a fresh id, keeping the provider and
// mode.
func (s *Session) Reset(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.id = uuid.NewString()
	s.transcript = nil
	s.video = nil
	s.created = now
	s.updated = now
}

// Conversation returns a snapshot for saving.
func (s *Session) Conversation() types.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := types.Conversation{
		ID:       s.id,
		Provider: s.provider,
		Mode:     s.mode,
		Turns:    append([]types.ChatTurn(nil), s.transcript...),
		Created:  s.created,
		Updated:  s.updated,
	}
	c.Title = c.FirstQuery()
	if s.video != nil {
		v := *s.video
		c.Video = &v
	}
	return c
}

func (s *Session) append(t types.ChatTurn, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transcript = append(s.transcript, t)
	s.updated = now
}

func (s *Session) setVideo(v *types.VideoContext) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.video = v
}
