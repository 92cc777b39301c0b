// internal/tui/mission_view.go
//
// The per-mission card: a sub-view owned by App with its own Init/Update/
// View, the prep handbook on one side of the Begin key and the guided
// step list on the other. All gateway work runs in tea.Cmd goroutines
// against the mission session; the view only reads session snapshots.

package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kindred-labs/hearthside/internal/mission"
)

// imageRefreshInterval paces the step-image redraw while the prefetch is
// still filling in.
const imageRefreshInterval = time.Second

var (
	stepDoneStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50"))
	stepPendingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#CCCCCC"))
	stepCursorStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	primerStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#A0AEC0"))
)

type missionView struct {
	app     *App
	index   int
	session *mission.Session

	selection int
	status    string
	fetching  bool
}

type imagesSettledMsg struct {
	view *missionView
}

type imageRefreshMsg struct {
	view *missionView
}

type narrationDoneMsg struct {
	view *missionView
	err  error
}

type alternativeMsg struct {
	view       *missionView
	item       string
	suggestion string
	err        error
}

type photoMsg struct {
	view *missionView
	path string
	err  error
}

func newMissionView(app *App, index int, session *mission.Session) *missionView {
	return &missionView{app: app, index: index, session: session}
}

func (v *missionView) Init() tea.Cmd {
	return nil
}

func (v *missionView) Update(msg tea.Msg) tea.Cmd {
	switch m := msg.(type) {
	case imagesSettledMsg:
		if m.view != v {
			return nil
		}
		v.fetching = false
		return nil
	case imageRefreshMsg:
		if m.view != v || !v.fetching {
			return nil
		}
		return v.scheduleImageRefresh()
	case narrationDoneMsg:
		if m.view != v {
			return nil
		}
		if m.err != nil && !errors.Is(m.err, mission.ErrNarrationBusy) {
			v.status = "Narration is unavailable right now"
			v.app.logWarn("Narration failed: %v", m.err)
		}
		return nil
	case alternativeMsg:
		if m.view != v {
			return nil
		}
		if m.err != nil {
			v.status = "No substitution suggestion came back"
			v.app.logWarn("Alternative lookup for %q failed: %v", m.item, m.err)
			return nil
		}
		v.status = fmt.Sprintf("%s → %s", m.item, m.suggestion)
		return nil
	case photoMsg:
		if m.view != v {
			return nil
		}
		if m.err != nil {
			v.status = "No photo captured"
			return nil
		}
		v.session.AttachPhoto(m.path)
		v.status = "Photo attached"
		return nil
	case tea.KeyMsg:
		return v.handleKey(m)
	default:
		return nil
	}
}

func (v *missionView) handleKey(msg tea.KeyMsg) tea.Cmd {
	if v.session.Mode() == mission.ModePrep {
		return v.handlePrepKey(msg)
	}
	return v.handleGuideKey(msg)
}

func (v *missionView) handlePrepKey(msg tea.KeyMsg) tea.Cmd {
	materials := v.materials()
	switch msg.String() {
	case "up", "k":
		if v.selection > 0 {
			v.selection--
		}
	case "down", "j":
		if v.selection < len(materials)-1 {
			v.selection++
		}
	case "a":
		if len(materials) == 0 {
			return nil
		}
		return v.requestAlternative(materials[v.selection])
	case "b", "enter":
		v.session.Begin()
		v.selection = 0
		v.status = ""
		return v.startImageFetch()
	}
	return nil
}

func (v *missionView) handleGuideKey(msg tea.KeyMsg) tea.Cmd {
	steps := v.steps()
	switch msg.String() {
	case "up", "k":
		if v.selection > 0 {
			v.selection--
		}
	case "down", "j":
		if v.selection < len(steps)-1 {
			v.selection++
		}
	case " ", "enter":
		if err := v.session.ToggleStep(v.selection); err != nil {
			v.app.logWarn("%v", err)
		}
	case "n":
		return v.requestNarration(v.selection)
	case "p":
		v.session.ReturnToPrep()
		v.selection = 0
	case "c":
		return v.requestPhoto()
	case "x":
		v.session.RetakePhoto()
		v.status = "Photo discarded"
	case "f":
		return v.finish()
	}
	return nil
}

// startImageFetch launches the sequential prefetch once per session and a
// redraw tick that runs while images are still arriving.
func (v *missionView) startImageFetch() tea.Cmd {
	if v.fetching {
		return nil
	}
	v.fetching = true
	fetch := func() tea.Msg {
		v.session.FetchImages(context.Background(), nil)
		return imagesSettledMsg{view: v}
	}
	return tea.Batch(fetch, v.scheduleImageRefresh())
}

func (v *missionView) scheduleImageRefresh() tea.Cmd {
	return tea.Tick(imageRefreshInterval, func(time.Time) tea.Msg {
		return imageRefreshMsg{view: v}
	})
}

func (v *missionView) requestNarration(index int) tea.Cmd {
	if v.session.Narrating() >= 0 {
		v.status = "Already reading a step aloud"
		return nil
	}
	return func() tea.Msg {
		err := v.session.Narrate(context.Background(), index)
		return narrationDoneMsg{view: v, err: err}
	}
}

func (v *missionView) requestAlternative(item string) tea.Cmd {
	if cached, ok := v.session.Alternative(item); ok {
		v.status = fmt.Sprintf("%s → %s", item, cached)
		return nil
	}
	if v.session.AlternativePending(item) {
		v.status = "Still looking for a substitute…"
		return nil
	}
	v.status = fmt.Sprintf("Looking for a substitute for %s…", item)
	return func() tea.Msg {
		suggestion, err := v.session.MaterialAlternative(context.Background(), item)
		return alternativeMsg{view: v, item: item, suggestion: suggestion, err: err}
	}
}

func (v *missionView) requestPhoto() tea.Cmd {
	if v.app.camera == nil {
		v.status = "No camera on this system"
		return nil
	}
	v.status = "Say cheese…"
	return func() tea.Msg {
		path, err := v.app.camera.Capture(context.Background())
		return photoMsg{view: v, path: path, err: err}
	}
}

func (v *missionView) finish() tea.Cmd {
	record, err := v.session.Complete()
	if err != nil {
		if errors.Is(err, mission.ErrStepsRemaining) {
			v.status = "Finish every step first"
		} else {
			v.status = "Could not complete the mission"
			v.app.logError("Completion failed: %v", err)
		}
		return nil
	}
	return v.app.finishMission(record)
}

func (v *missionView) materials() []string {
	return v.session.Activity().Materials.In(v.app.lang)
}

func (v *missionView) steps() []string {
	return v.session.Activity().Instructions.In(v.app.lang)
}

func (v *missionView) View() string {
	if v.session.Mode() == mission.ModePrep {
		return v.viewPrep()
	}
	return v.viewGuide()
}

func (v *missionView) viewPrep() string {
	activity := v.session.Activity()
	lang := v.app.lang
	lines := []string{
		lipgloss.NewStyle().Bold(true).Render(activity.Title.In(lang)),
		fmt.Sprintf("%s · %s · ages %s", activity.Topic.In(lang), activity.Duration.In(lang), activity.AgeRange.In(lang)),
		"",
		"Goal: " + activity.Objective.In(lang),
	}
	if primer := activity.ParentPrimer.In(lang); primer != "" {
		lines = append(lines, "", primerStyle.Render(primer))
	}
	lines = append(lines, "", lipgloss.NewStyle().Bold(true).Render("Materials"))
	for i, item := range v.materials() {
		cursor := " "
		line := item
		if alt, ok := v.session.Alternative(item); ok {
			line += fmt.Sprintf("  (or: %s)", alt)
		}
		if i == v.selection {
			cursor = ">"
			line = stepCursorStyle.Render(line)
		}
		lines = append(lines, fmt.Sprintf(" %s %s", cursor, line))
	}
	if v.status != "" {
		lines = append(lines, "", v.status)
	}
	lines = append(lines, "", "b → begin mission    a → suggest substitute    esc → back")
	return strings.Join(lines, "\n")
}

func (v *missionView) viewGuide() string {
	activity := v.session.Activity()
	steps := v.steps()
	done := v.session.Steps()
	images := v.session.Images()
	narrating := v.session.Narrating()

	lines := []string{lipgloss.NewStyle().Bold(true).Render(activity.Title.In(v.app.lang)), ""}
	for i, step := range steps {
		mark := "[ ]"
		style := stepPendingStyle
		if i < len(done) && done[i] {
			mark = "[x]"
			style = stepDoneStyle
		}
		suffix := ""
		if i < len(images) {
			if images[i].Empty() {
				suffix = " · no picture"
			} else {
				suffix = " · 🖼"
			}
		} else if v.fetching {
			suffix = " · drawing…"
		}
		if i == narrating {
			suffix += " · ♪"
		}
		line := fmt.Sprintf("%s %d. %s%s", mark, i+1, step, suffix)
		if i == v.selection {
			line = stepCursorStyle.Render("> " + line)
		} else {
			line = "  " + style.Render(line)
		}
		lines = append(lines, line)
	}
	if photo := v.session.Photo(); photo != "" {
		lines = append(lines, "", fmt.Sprintf("Photo: %s  (x to retake)", photo))
	}
	if v.status != "" {
		lines = append(lines, "", v.status)
	}
	finishHint := "f → finish"
	if !v.session.AllDone() {
		finishHint = "finish unlocks when every step is checked"
	}
	lines = append(lines, "",
		fmt.Sprintf("space → check step    n → read aloud    c → photo    p → handbook    %s", finishHint))
	return strings.Join(lines, "\n")
}
