package mission

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/kindred-labs/hearthside/internal/content"
	"github.com/kindred-labs/hearthside/internal/journal"
)

// fakeGateway is a scriptable stand-in for the generation service.
type fakeGateway struct {
	mu          sync.Mutex
	imageCalls  []string
	failPrompts map[string]bool
	imageGate   chan struct{} // when set, GenerateStepImage waits per call

	speechCalls int
	speechGate  chan struct{} // when set, SynthesizeSpeech waits
	speechErr   error

	altCalls map[string]int
	altGate  chan struct{} // when set, SuggestAlternative waits
}

func (f *fakeGateway) GenerateActivities(context.Context, content.Document, string) (*content.ActivityGenerationResult, error) {
	return nil, errors.New("not scripted")
}

func (f *fakeGateway) FetchStudyMaterials(context.Context, []string) (*content.StudySession, error) {
	return &content.StudySession{}, nil
}

func (f *fakeGateway) GenerateStepImage(_ context.Context, prompt string) (content.StepImage, error) {
	f.mu.Lock()
	f.imageCalls = append(f.imageCalls, prompt)
	gate := f.imageGate
	fail := f.failPrompts[prompt]
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	if fail {
		return content.StepImage{}, errors.New("render failed")
	}
	return content.StepImage{MIME: "image/png", Data: []byte(prompt)}, nil
}

func (f *fakeGateway) SynthesizeSpeech(context.Context, string) ([]byte, error) {
	f.mu.Lock()
	f.speechCalls++
	gate := f.speechGate
	err := f.speechErr
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	if err != nil {
		return nil, err
	}
	return []byte("wav"), nil
}

func (f *fakeGateway) SuggestAlternative(_ context.Context, item, _ string) (string, error) {
	f.mu.Lock()
	if f.altCalls == nil {
		f.altCalls = map[string]int{}
	}
	f.altCalls[item]++
	gate := f.altGate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	return "use a spoon instead of " + item, nil
}

func (f *fakeGateway) imageCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.imageCalls)
}

// donePlayer finishes playback immediately.
type donePlayer struct{}

func (donePlayer) Play(context.Context, []byte) error { return nil }

func sampleActivity() content.Activity {
	return content.Activity{
		Title:     content.LocalizedText{Original: "Жапырақ аулау", English: "Leaf hunt"},
		Topic:     content.LocalizedText{Original: "Ботаника", English: "Botany"},
		Objective: content.LocalizedText{Original: "Таны", English: "Identify leaf shapes"},
		Instructions: content.LocalizedList{
			Original: []string{"бір", "екі", "үш"},
			English:  []string{"step one", "step two", "step three"},
		},
		Materials:        content.LocalizedList{Original: []string{"қағаз"}, English: []string{"paper"}},
		Duration:         content.LocalizedText{Original: "Шамамен 15-20 минут", English: "About 15-20 minutes"},
		StepImagePrompts: []string{"p1", "p2", "p3"},
	}
}

func TestToggleStepSelfInverse(t *testing.T) {
	s := NewSession(sampleActivity(), &fakeGateway{})
	before := s.Steps()
	if err := s.ToggleStep(1); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if !s.Steps()[1] {
		t.Fatalf("step 1 should be checked")
	}
	if err := s.ToggleStep(1); err != nil {
		t.Fatalf("toggle back: %v", err)
	}
	after := s.Steps()
	for i := range before {
		if before[i] != after[i] {
			t.Fatalf("double toggle must restore state at %d", i)
		}
	}
	if err := s.ToggleStep(3); err == nil {
		t.Fatalf("out-of-range toggle must fail")
	}
	if err := s.ToggleStep(-1); err == nil {
		t.Fatalf("negative toggle must fail")
	}
}

func TestAllDoneSemantics(t *testing.T) {
	s := NewSession(sampleActivity(), &fakeGateway{})
	if s.AllDone() {
		t.Fatalf("fresh session cannot be done")
	}
	for i := 0; i < 3; i++ {
		if err := s.ToggleStep(i); err != nil {
			t.Fatalf("toggle %d: %v", i, err)
		}
	}
	if !s.AllDone() {
		t.Fatalf("all steps checked should be done")
	}

	empty := NewSession(content.Activity{}, &fakeGateway{})
	if empty.AllDone() {
		t.Fatalf("zero-instruction activity must never be done")
	}
}

func TestParseDurationMinutes(t *testing.T) {
	cases := []struct {
		text string
		want int
	}{
		{"About 15-20 minutes", 15},
		{"Quick activity", 15},
		{"45 mins", 45},
		{"", 15},
		{"1h 30m", 1},
		{"Шамамен 20 минут", 20},
	}
	for _, tc := range cases {
		if got := ParseDurationMinutes(tc.text); got != tc.want {
			t.Fatalf("parse %q: got %d want %d", tc.text, got, tc.want)
		}
	}
}

func TestCompleteRequiresAllDone(t *testing.T) {
	s := NewSession(sampleActivity(), &fakeGateway{})
	s.AttachPhoto("/tmp/photo.jpg")
	if _, err := s.Complete(); !errors.Is(err, ErrStepsRemaining) {
		t.Fatalf("expected ErrStepsRemaining, got %v", err)
	}

	for i := 0; i < 3; i++ {
		if err := s.ToggleStep(i); err != nil {
			t.Fatalf("toggle %d: %v", i, err)
		}
	}
	record, err := s.Complete()
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if record.ID == "" {
		t.Fatalf("record must get an id at creation")
	}
	if record.ActivityTitle != "Жапырақ аулау" || record.Topic != "Ботаника" {
		t.Fatalf("record must copy displayed localization, got %q/%q", record.ActivityTitle, record.Topic)
	}
	if record.DurationMinutes != 15 {
		t.Fatalf("duration parse: got %d", record.DurationMinutes)
	}
	if record.PhotoPath != "/tmp/photo.jpg" {
		t.Fatalf("photo path: got %q", record.PhotoPath)
	}
}

func TestCompleteUsesInjectedClockAndLanguage(t *testing.T) {
	fixed := time.UnixMilli(1700000000000)
	s := NewSession(sampleActivity(), &fakeGateway{},
		WithClock(func() time.Time { return fixed }),
		WithLang(content.LangEnglish))
	for i := 0; i < 3; i++ {
		if err := s.ToggleStep(i); err != nil {
			t.Fatalf("toggle %d: %v", i, err)
		}
	}
	record, err := s.Complete()
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if record.Timestamp != 1700000000000 {
		t.Fatalf("timestamp: got %d", record.Timestamp)
	}
	if record.ActivityTitle != "Leaf hunt" {
		t.Fatalf("english title expected, got %q", record.ActivityTitle)
	}
	var zero journal.ImpactRecord
	if record == zero {
		t.Fatalf("record must be populated")
	}
}

func TestFetchImagesSequentialBestEffort(t *testing.T) {
	gw := &fakeGateway{failPrompts: map[string]bool{"p2": true}}
	s := NewSession(sampleActivity(), gw)
	s.Begin()

	var publishes [][]content.StepImage
	s.FetchImages(context.Background(), func(images []content.StepImage) {
		publishes = append(publishes, images)
	})

	images := s.Images()
	if len(images) != 3 {
		t.Fatalf("expected 3 slots, got %d", len(images))
	}
	if images[0].Empty() || !images[1].Empty() || images[2].Empty() {
		t.Fatalf("middle failure must become a placeholder: %v %v %v",
			images[0].Empty(), images[1].Empty(), images[2].Empty())
	}
	if got := gw.imageCallCount(); got != 3 {
		t.Fatalf("expected exactly 3 generation calls, got %d", got)
	}
	if len(publishes) != 3 {
		t.Fatalf("expected a publish per step, got %d", len(publishes))
	}
	for i, batch := range publishes {
		if len(batch) != i+1 {
			t.Fatalf("publish %d should carry %d images, got %d", i, i+1, len(batch))
		}
	}
	if gw.imageCalls[0] != "p1" || gw.imageCalls[1] != "p2" || gw.imageCalls[2] != "p3" {
		t.Fatalf("images must be requested in order: %v", gw.imageCalls)
	}
}

func TestFetchImagesStartsAtMostOnce(t *testing.T) {
	gate := make(chan struct{})
	gw := &fakeGateway{imageGate: gate}
	s := NewSession(sampleActivity(), gw)
	s.Begin()

	done := make(chan struct{})
	go func() {
		s.FetchImages(context.Background(), nil)
		close(done)
	}()
	waitFor(t, func() bool { return gw.imageCallCount() == 1 })

	// Second invocation while the first is still in flight must be a no-op.
	s.FetchImages(context.Background(), nil)
	if got := gw.imageCallCount(); got != 1 {
		t.Fatalf("duplicate fetch must not issue calls, got %d", got)
	}
	close(gate)
	<-done
	if got := gw.imageCallCount(); got != 3 {
		t.Fatalf("first fetch should finish its sequence, got %d calls", got)
	}
}

func TestFetchImagesClampsToInstructionCount(t *testing.T) {
	activity := sampleActivity()
	activity.StepImagePrompts = []string{"p1", "p2", "p3", "extra"}
	gw := &fakeGateway{}
	s := NewSession(activity, gw)
	s.Begin()
	s.FetchImages(context.Background(), nil)
	if got := gw.imageCallCount(); got != 3 {
		t.Fatalf("prompts beyond the instruction count must be ignored, got %d calls", got)
	}
}

func TestNarrationExclusive(t *testing.T) {
	gate := make(chan struct{})
	gw := &fakeGateway{speechGate: gate}
	s := NewSession(sampleActivity(), gw, WithPlayer(donePlayer{}))

	done := make(chan error, 1)
	go func() { done <- s.Narrate(context.Background(), 0) }()
	waitFor(t, func() bool { return s.Narrating() == 0 })

	if err := s.Narrate(context.Background(), 2); !errors.Is(err, ErrNarrationBusy) {
		t.Fatalf("expected ErrNarrationBusy, got %v", err)
	}
	if got := s.Narrating(); got != 0 {
		t.Fatalf("active narration index must be unchanged, got %d", got)
	}
	gw.mu.Lock()
	calls := gw.speechCalls
	gw.mu.Unlock()
	if calls != 1 {
		t.Fatalf("rejected narration must not request audio, got %d calls", calls)
	}

	close(gate)
	if err := <-done; err != nil {
		t.Fatalf("first narration: %v", err)
	}
	if got := s.Narrating(); got != -1 {
		t.Fatalf("marker must clear after playback, got %d", got)
	}
}

func TestNarrationFailureClearsMarker(t *testing.T) {
	gw := &fakeGateway{speechErr: errors.New("no audio")}
	s := NewSession(sampleActivity(), gw, WithPlayer(donePlayer{}))
	if err := s.Narrate(context.Background(), 1); err == nil {
		t.Fatalf("expected synthesis failure")
	}
	if got := s.Narrating(); got != -1 {
		t.Fatalf("marker must clear on failure, got %d", got)
	}
}

func TestMaterialAlternativeMemoized(t *testing.T) {
	gw := &fakeGateway{}
	s := NewSession(sampleActivity(), gw)

	first, err := s.MaterialAlternative(context.Background(), "glue")
	if err != nil {
		t.Fatalf("first lookup: %v", err)
	}
	second, err := s.MaterialAlternative(context.Background(), "glue")
	if err != nil {
		t.Fatalf("cached lookup: %v", err)
	}
	if first != second {
		t.Fatalf("cached suggestion must match: %q vs %q", first, second)
	}
	if gw.altCalls["glue"] != 1 {
		t.Fatalf("memoized item must hit the gateway once, got %d", gw.altCalls["glue"])
	}
}

func TestMaterialAlternativeInFlightGate(t *testing.T) {
	gate := make(chan struct{})
	gw := &fakeGateway{altGate: gate}
	s := NewSession(sampleActivity(), gw)

	done := make(chan error, 1)
	go func() {
		_, err := s.MaterialAlternative(context.Background(), "scissors")
		done <- err
	}()
	waitFor(t, func() bool { return s.AlternativePending("scissors") })

	if _, err := s.MaterialAlternative(context.Background(), "scissors"); !errors.Is(err, ErrAlternativePending) {
		t.Fatalf("duplicate in-flight lookup must be rejected, got %v", err)
	}

	// A different item is allowed to start while the first is pending.
	other := make(chan error, 1)
	go func() {
		_, err := s.MaterialAlternative(context.Background(), "tape")
		other <- err
	}()
	waitFor(t, func() bool { return s.AlternativePending("tape") })

	close(gate)
	if err := <-done; err != nil {
		t.Fatalf("first lookup: %v", err)
	}
	if err := <-other; err != nil {
		t.Fatalf("overlapping lookup: %v", err)
	}
}

func TestCloseDiscardsLateResults(t *testing.T) {
	gate := make(chan struct{})
	gw := &fakeGateway{imageGate: gate}
	s := NewSession(sampleActivity(), gw)
	s.Begin()

	published := 0
	done := make(chan struct{})
	go func() {
		s.FetchImages(context.Background(), func([]content.StepImage) { published++ })
		close(done)
	}()
	waitFor(t, func() bool { return gw.imageCallCount() == 1 })

	s.Close()
	close(gate)
	<-done

	if published != 0 {
		t.Fatalf("publishes after close must be discarded, got %d", published)
	}
	if len(s.Images()) != 0 {
		t.Fatalf("closed session must not accept image results")
	}
	if err := s.ToggleStep(0); !errors.Is(err, ErrClosed) {
		t.Fatalf("closed session must reject operations, got %v", err)
	}
}

func TestBeginIdempotentAndPrepReturnPreservesState(t *testing.T) {
	gw := &fakeGateway{}
	s := NewSession(sampleActivity(), gw)
	s.Begin()
	s.FetchImages(context.Background(), nil)
	calls := gw.imageCallCount()

	s.ReturnToPrep()
	if s.Mode() != ModePrep {
		t.Fatalf("expected prep mode")
	}
	if err := s.ToggleStep(0); err != nil {
		t.Fatalf("toggle in prep: %v", err)
	}
	s.Begin()
	s.FetchImages(context.Background(), nil)
	if gw.imageCallCount() != calls {
		t.Fatalf("re-entering guide must not restart image generation")
	}
	if !s.Steps()[0] {
		t.Fatalf("step state must survive mode changes")
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not reached in time")
}
