// Package audio plays scene music and one-shot sound effects on behalf of
// the story engine. Playback is best effort: failures are logged and never
// reach the story.
package audio

import (
	"log/slog"
	"sync"
)

// Player is what the engine and the presenter need from an audio system.
type Player interface {
	// PlayLooping switches the background track. An empty ref stops it.
	PlayLooping(ref string)
	// PlayOnce plays a sound effect over the current track.
	PlayOnce(ref string)
}

// Track is a looping track that is currently playing.
type Track interface {
	Stop()
}

// Backend produces sound. Implementations may block while loading a ref.
type Backend interface {
	Loop(ref string) (Track, error)
	Once(ref string) error
}

// Controller implements Player over a Backend. It keeps at most one
// looping track and does not restart it when the same ref is requested
// again, so moving between scenes that share music is seamless.
type Controller struct {
	backend Backend
	logger  *slog.Logger

	mu      sync.Mutex
	current string
	track   Track
}

// NewController returns a Controller. A nil logger discards log output.
func NewController(backend Backend, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Controller{backend: backend, logger: logger}
}

func (c *Controller) PlayLooping(ref string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ref == c.current && c.track != nil {
		return
	}
	c.stopLocked()
	if ref == "" {
		return
	}

	track, err := c.backend.Loop(ref)
	if err != nil {
		c.logger.Warn("Failed to play background track", "ref", ref, "error", err)
		return
	}
	c.current = ref
	c.track = track
}

func (c *Controller) PlayOnce(ref string) {
	if ref == "" {
		return
	}
	if err := c.backend.Once(ref); err != nil {
		c.logger.Warn("Failed to play sound effect", "ref", ref, "error", err)
	}
}

// Current returns the ref of the looping track, or "" when silent.
func (c *Controller) Current() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Stop silences the looping track. Call it when a session ends.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
}

func (c *Controller) stopLocked() {
	if c.track != nil {
		c.track.Stop()
	}
	c.track = nil
	c.current = ""
}

// LogBackend records playback requests instead of producing sound. The
// API server and the terminal player have no speakers to drive, but the
// requests are still useful when following a session in the logs.
type LogBackend struct {
	Logger *slog.Logger
}

func (b LogBackend) Loop(ref string) (Track, error) {
	b.logger().Debug("Playing background track", "ref", ref)
	return logTrack{ref: ref, logger: b.logger()}, nil
}

func (b LogBackend) Once(ref string) error {
	b.logger().Debug("Playing sound effect", "ref", ref)
	return nil
}

func (b LogBackend) logger() *slog.Logger {
	if b.Logger == nil {
		return slog.Default()
	}
	return b.Logger
}

type logTrack struct {
	ref    string
	logger *slog.Logger
}

func (t logTrack) Stop() {
	t.logger.Debug("Stopped background track", "ref", t.ref)
}

// Nop is a Player that ignores every request.
type Nop struct{}

func (Nop) PlayLooping(string) {}
func (Nop) PlayOnce(string)    {}
