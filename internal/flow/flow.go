// internal/flow/flow.go
//
// The screen flow controller is the top-level state machine: which screen
// is visible and the data carried between screens. The TUI renders and
// forwards events; every transition goes through the table below so an
// illegal jump is an error instead of a silent mode change.

package flow

import (
	"errors"
	"fmt"

	"github.com/kindred-labs/hearthside/internal/content"
)

// ErrUploadRead wraps failures reading the selected curriculum file.
var ErrUploadRead = errors.New("flow: could not read the selected file")

// Screen identifies a top-level screen.
type Screen int

const (
	ScreenWelcome Screen = iota
	ScreenUpload
	ScreenProcessing
	ScreenChoice
	ScreenStudy
	ScreenResults
	ScreenJournal
)

func (s Screen) String() string {
	switch s {
	case ScreenWelcome:
		return "welcome"
	case ScreenUpload:
		return "upload"
	case ScreenProcessing:
		return "processing"
	case ScreenChoice:
		return "choice"
	case ScreenStudy:
		return "study"
	case ScreenResults:
		return "results"
	case ScreenJournal:
		return "journal"
	default:
		return fmt.Sprintf("screen(%d)", int(s))
	}
}

// stageCount is the number of cosmetic processing captions the TUI cycles
// through while generation is in flight.
const stageCount = 4

// transitions lists the legal targets from each screen. Welcome and
// Journal appear everywhere: both are reachable from the persistent nav
// affordance at all times.
var transitions = map[Screen][]Screen{
	ScreenWelcome:    {ScreenUpload, ScreenJournal, ScreenWelcome},
	ScreenUpload:     {ScreenProcessing, ScreenWelcome, ScreenJournal},
	ScreenProcessing: {ScreenChoice, ScreenWelcome, ScreenJournal},
	ScreenChoice:     {ScreenStudy, ScreenResults, ScreenWelcome, ScreenJournal},
	ScreenStudy:      {ScreenChoice, ScreenResults, ScreenWelcome, ScreenJournal},
	ScreenResults:    {ScreenChoice, ScreenStudy, ScreenJournal, ScreenWelcome},
	ScreenJournal:    {ScreenWelcome, ScreenResults, ScreenJournal},
}

// Controller owns the live activity set and study session and decides
// which screen is shown. It is pure state; all I/O happens in the TUI and
// gateway.
type Controller struct {
	screen     Screen
	focusLabel string
	result     *content.ActivityGenerationResult
	study      *content.StudySession
	banner     string
	stage      int
	pending    bool
}

// NewController starts on the welcome screen.
func NewController() *Controller {
	return &Controller{screen: ScreenWelcome}
}

// Screen returns the current screen.
func (c *Controller) Screen() Screen { return c.screen }

// FocusLabel returns the free-text path the parent chose on the welcome
// screen. Opaque to the core; it only steers generation emphasis.
func (c *Controller) FocusLabel() string { return c.focusLabel }

// Result returns the live activity set, nil before a successful upload.
func (c *Controller) Result() *content.ActivityGenerationResult { return c.result }

// Study returns the cached study session, nil until fetched.
func (c *Controller) Study() *content.StudySession { return c.study }

// Banner returns the dismissible error banner, empty when none.
func (c *Controller) Banner() string { return c.banner }

// DismissBanner clears the error banner.
func (c *Controller) DismissBanner() { c.banner = "" }

// Pending reports whether a generation request is outstanding.
func (c *Controller) Pending() bool { return c.pending }

// Stage returns the cosmetic processing caption index.
func (c *Controller) Stage() int { return c.stage }

// AdvanceStage cycles the processing caption. Purely cosmetic; the TUI
// ticks it on a fixed interval while generation runs.
func (c *Controller) AdvanceStage() {
	c.stage = (c.stage + 1) % stageCount
}

// ChoosePath records the chosen focus label and moves to the upload
// screen.
func (c *Controller) ChoosePath(label string) error {
	if c.screen != ScreenWelcome {
		return c.illegal(ScreenUpload)
	}
	if err := c.to(ScreenUpload); err != nil {
		return err
	}
	c.focusLabel = label
	c.banner = ""
	return nil
}

// BeginProcessing marks the generation request as outstanding and enters
// the processing screen, resetting the caption counter. Only one request
// may be in flight per upload.
func (c *Controller) BeginProcessing() error {
	if c.screen != ScreenUpload {
		return c.illegal(ScreenProcessing)
	}
	if c.pending {
		return fmt.Errorf("flow: generation already in progress")
	}
	if err := c.to(ScreenProcessing); err != nil {
		return err
	}
	c.pending = true
	c.stage = 0
	return nil
}

// GenerationSucceeded installs the new activity set and moves to the
// choice screen. Any previous result is replaced wholesale.
func (c *Controller) GenerationSucceeded(result *content.ActivityGenerationResult) error {
	if c.screen != ScreenProcessing {
		return c.illegal(ScreenChoice)
	}
	if err := c.to(ScreenChoice); err != nil {
		return err
	}
	c.pending = false
	c.result = result
	c.study = nil
	return nil
}

// GenerationFailed aborts the in-progress transition: back to welcome
// with a dismissible banner.
func (c *Controller) GenerationFailed(err error) error {
	if c.screen != ScreenProcessing {
		return c.illegal(ScreenWelcome)
	}
	if terr := c.to(ScreenWelcome); terr != nil {
		return terr
	}
	c.pending = false
	c.banner = err.Error()
	return nil
}

// UploadFailed handles a file that could not be read: back to welcome
// with a banner, same policy as a failed generation.
func (c *Controller) UploadFailed(err error) error {
	if c.screen != ScreenUpload {
		return c.illegal(ScreenWelcome)
	}
	if terr := c.to(ScreenWelcome); terr != nil {
		return terr
	}
	c.banner = fmt.Errorf("%w: %v", ErrUploadRead, err).Error()
	return nil
}

// SelectPrep enters the study screen. The returned flag tells the caller
// to fetch the study session; it is created lazily once per app session
// and cached.
func (c *Controller) SelectPrep() (fetch bool, err error) {
	if c.screen != ScreenChoice && c.screen != ScreenResults {
		return false, c.illegal(ScreenStudy)
	}
	if err := c.to(ScreenStudy); err != nil {
		return false, err
	}
	return c.study == nil, nil
}

// InstallStudySession caches the fetched session. Later fetch results are
// ignored once one is installed.
func (c *Controller) InstallStudySession(session *content.StudySession) {
	if c.study == nil {
		c.study = session
	}
}

// StudyMaterialsFailed surfaces a banner without changing screen.
func (c *Controller) StudyMaterialsFailed(err error) {
	c.banner = err.Error()
}

// SelectMissions enters the results screen.
func (c *Controller) SelectMissions() error {
	if c.screen != ScreenChoice && c.screen != ScreenStudy {
		return c.illegal(ScreenResults)
	}
	return c.to(ScreenResults)
}

// MissionCompleted moves to the journal after a mission's record has been
// persisted by the caller.
func (c *Controller) MissionCompleted() error {
	if c.screen != ScreenResults {
		return c.illegal(ScreenJournal)
	}
	return c.to(ScreenJournal)
}

// ShowJournal jumps to the journal from the persistent nav.
func (c *Controller) ShowJournal() error {
	return c.to(ScreenJournal)
}

// ShowWelcome jumps home from the persistent nav, keeping in-memory
// session state so the parent can navigate back.
func (c *Controller) ShowWelcome() error {
	return c.to(ScreenWelcome)
}

// BackToChoice returns from study or results to the choice screen.
func (c *Controller) BackToChoice() error {
	if c.screen != ScreenStudy && c.screen != ScreenResults {
		return c.illegal(ScreenChoice)
	}
	return c.to(ScreenChoice)
}

// Reset clears all in-memory activity and session state and returns to
// welcome. The persisted journal is untouched.
func (c *Controller) Reset() {
	c.screen = ScreenWelcome
	c.focusLabel = ""
	c.result = nil
	c.study = nil
	c.banner = ""
	c.stage = 0
	c.pending = false
}

func (c *Controller) to(next Screen) error {
	for _, allowed := range transitions[c.screen] {
		if allowed == next {
			c.screen = next
			if next == ScreenProcessing {
				c.stage = 0
			}
			return nil
		}
	}
	return c.illegal(next)
}

func (c *Controller) illegal(next Screen) error {
	return fmt.Errorf("flow: illegal transition %s -> %s", c.screen, next)
}
