package audio

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type recordingBackend struct {
	calls   []string
	failFor map[string]bool
}

type recordingTrack struct {
	ref     string
	backend *recordingBackend
}

func (t *recordingTrack) Stop() {
	t.backend.calls = append(t.backend.calls, "stop "+t.ref)
}

func (b *recordingBackend) Loop(ref string) (Track, error) {
	if b.failFor[ref] {
		return nil, errors.New("unsupported format")
	}
	b.calls = append(b.calls, "loop "+ref)
	return &recordingTrack{ref: ref, backend: b}, nil
}

func (b *recordingBackend) Once(ref string) error {
	if b.failFor[ref] {
		return errors.New("unsupported format")
	}
	b.calls = append(b.calls, "once "+ref)
	return nil
}

func TestController_PlayLooping(t *testing.T) {
	tests := []struct {
		name     string
		refs     []string
		expected []string
		current  string
	}{
		{
			name:     "same track keeps playing",
			refs:     []string{"hall.mp3", "hall.mp3"},
			expected: []string{"loop hall.mp3"},
			current:  "hall.mp3",
		},
		{
			name:     "new track replaces old",
			refs:     []string{"hall.mp3", "cave.mp3"},
			expected: []string{"loop hall.mp3", "stop hall.mp3", "loop cave.mp3"},
			current:  "cave.mp3",
		},
		{
			name:     "empty ref stops",
			refs:     []string{"hall.mp3", ""},
			expected: []string{"loop hall.mp3", "stop hall.mp3"},
			current:  "",
		},
		{
			name:     "empty ref while silent",
			refs:     []string{""},
			expected: nil,
			current:  "",
		},
		{
			name:     "failed track leaves silence",
			refs:     []string{"hall.mp3", "broken.mp3"},
			expected: []string{"loop hall.mp3", "stop hall.mp3"},
			current:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := &recordingBackend{failFor: map[string]bool{"broken.mp3": true}}
			c := NewController(backend, nil)
			for _, ref := range tt.refs {
				c.PlayLooping(ref)
			}
			assert.Equal(t, tt.expected, backend.calls)
			assert.Equal(t, tt.current, c.Current())
		})
	}
}

func TestController_PlayOnce(t *testing.T) {
	backend := &recordingBackend{failFor: map[string]bool{"broken.wav": true}}
	c := NewController(backend, nil)

	c.PlayOnce("")
	c.PlayOnce("broken.wav")
	c.PlayOnce("coin.wav")
	c.PlayOnce("coin.wav")

	assert.Equal(t, []string{"once coin.wav", "once coin.wav"}, backend.calls)
}

func TestController_Stop(t *testing.T) {
	backend := &recordingBackend{}
	c := NewController(backend, nil)

	c.PlayLooping("hall.mp3")
	c.Stop()
	c.Stop()
	c.PlayLooping("hall.mp3")

	assert.Equal(t, []string{"loop hall.mp3", "stop hall.mp3", "loop hall.mp3"}, backend.calls)
}

func TestPlayersSatisfyInterface(t *testing.T) {
	var _ Player = (*Controller)(nil)
	var _ Player = Nop{}
	var _ Backend = LogBackend{}

	c := NewController(LogBackend{}, nil)
	c.PlayLooping("hall.mp3")
	c.PlayOnce("coin.wav")
	c.Stop()
	assert.Empty(t, c.Current())
}
