package video

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// FrameFunc receives each frame shown during playback. It runs on the
// playback goroutine and must not call Pause or Stop.
type FrameFunc func(index int, img image.Image)

// Player advances an Editor at the video frame rate, skipping cut frames
type Player struct {
	editor  *Editor
	onFrame FrameFunc

	mu      sync.Mutex
	playing bool
	cancel  context.CancelFunc
	done    chan struct{}
	// rate scales the playback speed, 1 is real time
	rate float64
}

// NewPlayer creates a player for editor. onFrame may be nil.
func NewPlayer(editor *Editor, onFrame FrameFunc) *Player {
	return &Player{editor: editor, onFrame: onFrame, rate: 1}
}

// SetRate changes the playback speed for the next Play call
func (p *Player) SetRate(rate float64) {
	if rate <= 0 {
		return
	}
	p.mu.Lock()
	p.rate = rate
	p.mu.Unlock()
}

// IsPlaying reports whether playback is running
func (p *Player) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}

// Play starts playback from the current frame, which is shown first.
// Playing from the last kept frame rewinds to the first one. Playback ends at the last kept frame,
// on Pause or Stop, or when ctx is cancelled.
func (p *Player) Play(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.playing {
		return nil
	}
	info := p.editor.Info()
	if !p.editor.IsOpen() {
		return ErrNotOpen
	}
	if info.FPS <= 0 {
		return fmt.Errorf("cannot play at %g fps", info.FPS)
	}

	cuts := p.editor.CutList()
	if cuts.NextKept(p.editor.CurrentFrame()+1, info.FrameCount) < 0 {
		if _, err := p.editor.GoToFrame(0); err != nil {
			return err
		}
	}

	interval := time.Duration(float64(time.Second) / (info.FPS * p.rate))
	if interval <= 0 {
		interval = time.Millisecond
	}

	if p.cancel != nil {
		p.cancel()
	}
	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	p.playing = true
	p.cancel = cancel
	p.done = done

	log := p.editor.log.WithField("session", uuid.NewString())
	go p.run(runCtx, interval, done, log)
	return nil
}

func (p *Player) run(ctx context.Context, interval time.Duration, done chan struct{}, log logrus.FieldLogger) {
	defer close(done)
	defer func() {
		p.mu.Lock()
		p.playing = false
		p.mu.Unlock()
	}()

	log.WithFields(logrus.Fields{
		"from":     p.editor.CurrentFrame(),
		"interval": interval,
	}).Debug("Playback started")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// the first tick shows the frame playback starts on
	first := true
	for {
		select {
		case <-ctx.Done():
			log.WithField("frame", p.editor.CurrentFrame()).Debug("Playback paused")
			return
		case <-ticker.C:
		}

		var index int
		if first {
			first = false
			index = p.editor.CurrentFrame()
		} else {
			var err error
			index, err = p.editor.NextFrame()
			if errors.Is(err, ErrEndOfVideo) {
				log.WithField("frame", index).Debug("Playback reached the end")
				return
			}
			if err != nil {
				log.WithError(err).Warn("Playback stopped")
				return
			}
		}

		img, err := p.editor.FrameImage(ctx, index)
		if err != nil {
			if ctx.Err() == nil {
				log.WithError(err).WithField("frame", index).Warn("Playback stopped")
			}
			return
		}
		if ctx.Err() != nil {
			return
		}
		if p.onFrame != nil {
			p.onFrame(index, img)
		}
	}
}

// Pause stops playback and keeps the current frame
func (p *Player) Pause() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Stop stops playback and rewinds to the first kept frame
func (p *Player) Stop() error {
	p.Pause()
	_, err := p.editor.GoToFrame(0)
	return err
}

// Wait blocks until playback ends on its own or is paused
func (p *Player) Wait() {
	p.mu.Lock()
	done := p.done
	p.mu.Unlock()

	if done != nil {
		<-done
	}
}
