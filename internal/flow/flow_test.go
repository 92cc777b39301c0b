package flow

import (
	"errors"
	"testing"

	"github.com/kindred-labs/hearthside/internal/content"
)

func sampleResult() *content.ActivityGenerationResult {
	return &content.ActivityGenerationResult{
		Activities:    []content.Activity{{Title: content.LocalizedText{Original: "Leaf hunt", English: "Leaf hunt"}}},
		OverallTopics: []string{"botany"},
	}
}

func TestHappyPathToMissions(t *testing.T) {
	c := NewController()
	if c.Screen() != ScreenWelcome {
		t.Fatalf("initial screen %s", c.Screen())
	}
	if err := c.ChoosePath("outdoor science"); err != nil {
		t.Fatalf("choose path: %v", err)
	}
	if got := c.FocusLabel(); got != "outdoor science" {
		t.Fatalf("focus label %q", got)
	}
	if err := c.BeginProcessing(); err != nil {
		t.Fatalf("begin processing: %v", err)
	}
	if !c.Pending() || c.Stage() != 0 {
		t.Fatalf("processing entry must set pending and reset stage, pending=%v stage=%d", c.Pending(), c.Stage())
	}
	if err := c.GenerationSucceeded(sampleResult()); err != nil {
		t.Fatalf("generation succeeded: %v", err)
	}
	if c.Pending() {
		t.Fatalf("pending must clear on success")
	}
	if err := c.SelectMissions(); err != nil {
		t.Fatalf("select missions: %v", err)
	}
	if c.Screen() != ScreenResults {
		t.Fatalf("expected results, got %s", c.Screen())
	}
	if err := c.MissionCompleted(); err != nil {
		t.Fatalf("mission completed: %v", err)
	}
	if c.Screen() != ScreenJournal {
		t.Fatalf("expected journal, got %s", c.Screen())
	}
}

func TestFailedGenerationReturnsToWelcomeWithBanner(t *testing.T) {
	c := NewController()
	if err := c.ChoosePath("math"); err != nil {
		t.Fatalf("choose path: %v", err)
	}
	if err := c.BeginProcessing(); err != nil {
		t.Fatalf("begin processing: %v", err)
	}
	if err := c.GenerationFailed(errors.New("service unreachable")); err != nil {
		t.Fatalf("generation failed transition: %v", err)
	}
	if c.Screen() != ScreenWelcome {
		t.Fatalf("expected welcome after failure, got %s", c.Screen())
	}
	if c.Banner() == "" {
		t.Fatalf("expected a non-empty error banner")
	}
	c.DismissBanner()
	if c.Banner() != "" {
		t.Fatalf("banner should clear on dismiss")
	}
}

func TestStudySessionIsLazyAndCached(t *testing.T) {
	c := NewController()
	mustReachChoice(t, c)

	fetch, err := c.SelectPrep()
	if err != nil {
		t.Fatalf("select prep: %v", err)
	}
	if !fetch {
		t.Fatalf("first prep visit must request a fetch")
	}
	c.InstallStudySession(&content.StudySession{Summary: []string{"point"}})
	if err := c.BackToChoice(); err != nil {
		t.Fatalf("back to choice: %v", err)
	}
	fetch, err = c.SelectPrep()
	if err != nil {
		t.Fatalf("second select prep: %v", err)
	}
	if fetch {
		t.Fatalf("cached session must not be refetched")
	}
	c.InstallStudySession(&content.StudySession{Summary: []string{"other"}})
	if c.Study().Summary[0] != "point" {
		t.Fatalf("late install must not replace the cached session")
	}
}

func TestStudyMaterialsFailureStaysOnScreen(t *testing.T) {
	c := NewController()
	mustReachChoice(t, c)
	if _, err := c.SelectPrep(); err != nil {
		t.Fatalf("select prep: %v", err)
	}
	c.StudyMaterialsFailed(errors.New("offline"))
	if c.Screen() != ScreenStudy {
		t.Fatalf("failure must not change screen, got %s", c.Screen())
	}
	if c.Banner() == "" {
		t.Fatalf("expected banner")
	}
}

func TestIllegalTransitionsRejected(t *testing.T) {
	c := NewController()
	if err := c.BeginProcessing(); err == nil {
		t.Fatalf("processing from welcome must be rejected")
	}
	if err := c.GenerationSucceeded(sampleResult()); err == nil {
		t.Fatalf("success outside processing must be rejected")
	}
	if err := c.MissionCompleted(); err == nil {
		t.Fatalf("mission completion outside results must be rejected")
	}
	if c.Screen() != ScreenWelcome {
		t.Fatalf("rejected transitions must not move the screen")
	}
}

func TestDuplicateGenerationRequestRejected(t *testing.T) {
	c := NewController()
	if err := c.ChoosePath("reading"); err != nil {
		t.Fatalf("choose path: %v", err)
	}
	if err := c.BeginProcessing(); err != nil {
		t.Fatalf("begin processing: %v", err)
	}
	if err := c.BeginProcessing(); err == nil {
		t.Fatalf("second outstanding request must be rejected")
	}
}

func TestNavAffordancesAlwaysReachable(t *testing.T) {
	c := NewController()
	mustReachChoice(t, c)
	if err := c.ShowJournal(); err != nil {
		t.Fatalf("journal from choice: %v", err)
	}
	if err := c.ShowWelcome(); err != nil {
		t.Fatalf("welcome from journal: %v", err)
	}
	if c.Result() == nil {
		t.Fatalf("nav home must keep session state")
	}
	c.Reset()
	if c.Result() != nil || c.Study() != nil || c.FocusLabel() != "" {
		t.Fatalf("reset must clear in-memory state")
	}
	if c.Screen() != ScreenWelcome {
		t.Fatalf("reset lands on welcome, got %s", c.Screen())
	}
}

func TestStageCycles(t *testing.T) {
	c := NewController()
	if err := c.ChoosePath("art"); err != nil {
		t.Fatalf("choose path: %v", err)
	}
	if err := c.BeginProcessing(); err != nil {
		t.Fatalf("begin processing: %v", err)
	}
	for i := 0; i < 5; i++ {
		c.AdvanceStage()
	}
	if got := c.Stage(); got != 1 {
		t.Fatalf("stage should wrap over 4 captions, got %d", got)
	}
}

func mustReachChoice(t *testing.T, c *Controller) {
	t.Helper()
	if err := c.ChoosePath("science"); err != nil {
		t.Fatalf("choose path: %v", err)
	}
	if err := c.BeginProcessing(); err != nil {
		t.Fatalf("begin processing: %v", err)
	}
	if err := c.GenerationSucceeded(sampleResult()); err != nil {
		t.Fatalf("generation succeeded: %v", err)
	}
}
