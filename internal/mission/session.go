// internal/mission/session.go
//
// One Session per activity: the per-mission state machine. It tracks the
// prep/guide sub-mode, step completion, step images as they arrive,
// material substitutions, exclusive narration, and the optional completion
// photo. The TUI owns a Session per card and destroys it with the card;
// results that arrive after Close are discarded.

package mission

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kindred-labs/hearthside/internal/content"
	"github.com/kindred-labs/hearthside/internal/gateway"
	"github.com/kindred-labs/hearthside/internal/journal"
)

var (
	// ErrNarrationBusy rejects a narration request while another step is
	// playing. No queueing, no interruption.
	ErrNarrationBusy = errors.New("mission: narration already playing")

	// ErrStepsRemaining rejects completion while any step is unchecked.
	ErrStepsRemaining = errors.New("mission: steps remaining")

	// ErrAlternativePending rejects a duplicate lookup for an item whose
	// suggestion is still in flight.
	ErrAlternativePending = errors.New("mission: alternative lookup pending")

	// ErrClosed rejects operations on a disposed session.
	ErrClosed = errors.New("mission: session closed")
)

// Mode is the session sub-mode.
type Mode int

const (
	// ModePrep shows the handbook: objective, materials, parent primer.
	ModePrep Mode = iota
	// ModeGuide walks the instruction steps one by one.
	ModeGuide
)

// AudioPlayer plays a WAV clip and blocks until playback ends.
type AudioPlayer interface {
	Play(ctx context.Context, wav []byte) error
}

// Clock supplies the completion timestamp; injectable for tests.
type Clock func() time.Time

// Option customizes Session construction.
type Option func(*Session)

// WithClock overrides the timestamp source.
func WithClock(clock Clock) Option {
	return func(s *Session) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithLang sets the initial display language.
func WithLang(lang content.Lang) Option {
	return func(s *Session) { s.lang = lang }
}

// WithPlayer sets the narration playback device.
func WithPlayer(player AudioPlayer) Option {
	return func(s *Session) { s.player = player }
}

// Session is the runtime state for one activity. Methods are safe to call
// from tea.Cmd goroutines; the state lock is never held across a gateway
// call.
type Session struct {
	activity content.Activity
	gw       gateway.Gateway
	player   AudioPlayer
	clock    Clock
	lang     content.Lang

	st sessionState
}

// NewSession creates a session in prep mode with every step unchecked.
func NewSession(activity content.Activity, gw gateway.Gateway, opts ...Option) *Session {
	s := &Session{
		activity: activity,
		gw:       gw,
		clock:    time.Now,
		lang:     content.LangOriginal,
	}
	s.st.init(activity)
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Activity returns the underlying activity content.
func (s *Session) Activity() content.Activity { return s.activity }

// Lang returns the current display language.
func (s *Session) Lang() content.Lang {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	return s.lang
}

// SetLang switches the display language; all runtime state is preserved.
func (s *Session) SetLang(lang content.Lang) {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	s.lang = lang
}

// Mode returns the current sub-mode.
func (s *Session) Mode() Mode {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	return s.st.mode
}

// Steps returns a copy of the per-step completion flags.
func (s *Session) Steps() []bool {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	out := make([]bool, len(s.st.steps))
	copy(out, s.st.steps)
	return out
}

// ToggleStep flips the completion flag at index. Steps may be completed in
// any order; toggling twice restores the prior state.
func (s *Session) ToggleStep(index int) error {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	if s.st.closed {
		return ErrClosed
	}
	if index < 0 || index >= len(s.st.steps) {
		return fmt.Errorf("mission: step %d out of range [0,%d)", index, len(s.st.steps))
	}
	s.st.steps[index] = !s.st.steps[index]
	return nil
}

// AllDone reports whether the mission can be completed: a non-empty step
// list with every step checked. An activity with zero instructions is
// never done.
func (s *Session) AllDone() bool {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	return s.st.allDone()
}

// Begin switches prep to guide. One-directional and idempotent: re-entering
// guide never restarts image generation.
func (s *Session) Begin() {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	if s.st.closed {
		return
	}
	s.st.mode = ModeGuide
}

// ReturnToPrep goes back to the handbook; all runtime state is preserved.
func (s *Session) ReturnToPrep() {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	if s.st.closed {
		return
	}
	s.st.mode = ModePrep
}

// Images returns a copy of the step images generated so far. Entries may
// be the empty placeholder for failed generations.
func (s *Session) Images() []content.StepImage {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	out := make([]content.StepImage, len(s.st.images))
	copy(out, s.st.images)
	return out
}

// FetchImages requests one image per prompt, strictly in order, publishing
// the growing partial result after each item so the list fills in as
// images arrive. A failed item becomes a placeholder and the sequence
// continues. Started at most once per session, even while the first call
// is still in flight; publishes after Close are discarded.
func (s *Session) FetchImages(ctx context.Context, publish func([]content.StepImage)) {
	s.st.mu.Lock()
	if s.st.closed || s.st.imagesStarted {
		s.st.mu.Unlock()
		return
	}
	s.st.imagesStarted = true
	s.st.mu.Unlock()

	plan := s.activity.ImagePlan()
	images := make([]content.StepImage, 0, len(plan))
	for _, prompt := range plan {
		img, err := s.gw.GenerateStepImage(ctx, prompt)
		if err != nil {
			img = content.StepImage{}
		}
		images = append(images, img)
		if !s.storeImages(images) {
			return
		}
		if publish != nil {
			publish(s.Images())
		}
	}
}

func (s *Session) storeImages(images []content.StepImage) bool {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	if s.st.closed {
		return false
	}
	s.st.images = make([]content.StepImage, len(images))
	copy(s.st.images, images)
	return true
}

// Alternative returns the cached substitution for an item, if any.
func (s *Session) Alternative(item string) (string, bool) {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	suggestion, ok := s.st.alternatives[item]
	return suggestion, ok
}

// AlternativePending reports whether a lookup for the item is in flight.
func (s *Session) AlternativePending(item string) bool {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	return s.st.altPending[item]
}

// MaterialAlternative suggests a household substitute for a material.
// Memoized per distinct item: a repeated request returns the cached
// suggestion without a gateway call. Lookups for different items may
// overlap; a duplicate request for an in-flight item is rejected.
func (s *Session) MaterialAlternative(ctx context.Context, item string) (string, error) {
	s.st.mu.Lock()
	if s.st.closed {
		s.st.mu.Unlock()
		return "", ErrClosed
	}
	if cached, ok := s.st.alternatives[item]; ok {
		s.st.mu.Unlock()
		return cached, nil
	}
	if s.st.altPending[item] {
		s.st.mu.Unlock()
		return "", ErrAlternativePending
	}
	s.st.altPending[item] = true
	s.st.mu.Unlock()

	suggestion, err := s.gw.SuggestAlternative(ctx, item, s.alternativeContext())

	s.st.mu.Lock()
	delete(s.st.altPending, item)
	if err == nil && !s.st.closed {
		s.st.alternatives[item] = suggestion
	}
	s.st.mu.Unlock()
	return suggestion, err
}

func (s *Session) alternativeContext() string {
	title := s.activity.Title.In(content.LangEnglish)
	objective := s.activity.Objective.In(content.LangEnglish)
	return fmt.Sprintf("%s — %s", title, objective)
}

// Narrating returns the index of the step currently being read aloud, or
// -1 when none.
func (s *Session) Narrating() int {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	return s.st.narrating
}

// Narrate reads the instruction step aloud. Exclusive per session: while
// one step is playing, another request is rejected with ErrNarrationBusy —
// no queueing, no interruption, no audio request. The narrating marker
// clears on playback completion and on failure alike.
func (s *Session) Narrate(ctx context.Context, index int) error {
	s.st.mu.Lock()
	if s.st.closed {
		s.st.mu.Unlock()
		return ErrClosed
	}
	if s.st.narrating >= 0 {
		s.st.mu.Unlock()
		return ErrNarrationBusy
	}
	steps := s.activity.Instructions.In(s.lang)
	if index < 0 || index >= len(steps) {
		s.st.mu.Unlock()
		return fmt.Errorf("mission: step %d out of range [0,%d)", index, len(steps))
	}
	s.st.narrating = index
	text := steps[index]
	s.st.mu.Unlock()

	err := s.speak(ctx, text)

	s.st.mu.Lock()
	s.st.narrating = -1
	s.st.mu.Unlock()
	return err
}

func (s *Session) speak(ctx context.Context, text string) error {
	wav, err := s.gw.SynthesizeSpeech(ctx, text)
	if err != nil {
		return err
	}
	if s.player == nil {
		return gateway.ErrNoAudio
	}
	return s.player.Play(ctx, wav)
}

// Photo returns the attached completion photo path, empty when none.
func (s *Session) Photo() string {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	return s.st.photoPath
}

// AttachPhoto records the captured completion photo.
func (s *Session) AttachPhoto(path string) {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	if s.st.closed {
		return
	}
	s.st.photoPath = path
}

// RetakePhoto discards the attached photo.
func (s *Session) RetakePhoto() {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	s.st.photoPath = ""
}

// Complete produces the mission's impact record. Rejected while any step
// is unchecked, regardless of photo presence. Title, topic, and duration
// come from the currently displayed language.
func (s *Session) Complete() (journal.ImpactRecord, error) {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	if s.st.closed {
		return journal.ImpactRecord{}, ErrClosed
	}
	if !s.st.allDone() {
		return journal.ImpactRecord{}, ErrStepsRemaining
	}
	return journal.ImpactRecord{
		ID:              uuid.NewString(),
		ActivityTitle:   s.activity.Title.In(s.lang),
		Topic:           s.activity.Topic.In(s.lang),
		PhotoPath:       s.st.photoPath,
		Timestamp:       s.clock().UnixMilli(),
		DurationMinutes: ParseDurationMinutes(s.activity.Duration.In(s.lang)),
	}, nil
}

// Close marks the session disposed. Late async results are discarded and
// further operations are rejected.
func (s *Session) Close() {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	s.st.closed = true
}
