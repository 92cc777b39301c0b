// internal/tui/app.go
//
// This is the main TUI (Terminal User Interface) for Hearthside.
// It uses bubbletea, which follows The Elm Architecture:
//
// 1. Model: Your application state
// 2. Update: A function that updates state based on messages
// 3. View: A function that renders state to a string
//
// The flow is: User Input -> Message -> Update -> New Model -> View -> Screen
//
// Which screen is visible is decided by the flow controller; this file
// renders screens and translates key presses and async results into
// controller transitions.

package tui

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kindred-labs/hearthside/internal/camera"
	"github.com/kindred-labs/hearthside/internal/config"
	"github.com/kindred-labs/hearthside/internal/content"
	"github.com/kindred-labs/hearthside/internal/flow"
	"github.com/kindred-labs/hearthside/internal/gateway"
	"github.com/kindred-labs/hearthside/internal/journal"
	"github.com/kindred-labs/hearthside/internal/logbook"
	"github.com/kindred-labs/hearthside/internal/mission"
	"github.com/kindred-labs/hearthside/internal/narration"
)

// captionInterval is how often the processing screen rotates its caption.
const captionInterval = 3500 * time.Millisecond

// processingCaptions cycle on the processing screen while generation runs.
// Purely cosmetic; generation finishes whenever it finishes.
var processingCaptions = [...]string{
	"Reading the curriculum…",
	"Sketching mission ideas…",
	"Gathering everyday materials…",
	"Polishing the details…",
}

// focusPaths are the emphasis choices offered on the welcome screen. The
// label is free text passed through to generation.
var focusPaths = []menuItem{
	{title: "Hands-on science", desc: "Experiments and observation at home"},
	{title: "Arts & making", desc: "Crafts, drawing, and building"},
	{title: "Outdoor exploration", desc: "Missions that leave the house"},
	{title: "Stories & language", desc: "Reading, telling, and word play"},
	{title: "Surprise us", desc: "Let the missions pick their own angle"},
}

// PhotoCapturer takes a completion photo and returns its path.
type PhotoCapturer interface {
	Capture(ctx context.Context) (string, error)
}

// AppOption customizes App construction for tests and alternate runtimes.
type AppOption func(*App)

// WithGateway overrides the generation gateway.
func WithGateway(gw gateway.Gateway) AppOption {
	return func(a *App) {
		if gw != nil {
			a.gw = gw
		}
	}
}

// WithJournalStore overrides the journal persistence adapter.
func WithJournalStore(store journal.Store) AppOption {
	return func(a *App) {
		if store != nil {
			a.store = store
		}
	}
}

// WithPlayer overrides the narration playback device.
func WithPlayer(player mission.AudioPlayer) AppOption {
	return func(a *App) { a.player = player }
}

// WithCamera overrides the completion photo capturer.
func WithCamera(cam PhotoCapturer) AppOption {
	return func(a *App) { a.camera = cam }
}

type generationDoneMsg struct {
	seq    int
	result *content.ActivityGenerationResult
	err    error
}

type captionTickMsg struct {
	seq int
}

type studyFetchedMsg struct {
	session *content.StudySession
	err     error
}

type recordSavedMsg struct {
	records []journal.ImpactRecord
	err     error
}

// App is the main application model. In bubbletea, this holds ALL your state.
type App struct {
	config  *config.Config
	logbook *logbook.Logbook
	gw      gateway.Gateway
	store   journal.Store
	flow    *flow.Controller
	lang    content.Lang

	player mission.AudioPlayer
	camera PhotoCapturer

	// UI components
	welcomeMenu list.Model
	choiceMenu  list.Model
	picker      filepicker.Model
	spin        spinner.Model

	missionView *missionView
	missionSel  int

	records   []journal.ImpactRecord
	genSeq    int
	statusMsg string

	width  int
	height int
}

// menuItem implements list.Item interface for our menu items
type menuItem struct {
	title string
	desc  string
}

func (i menuItem) Title() string       { return i.title }
func (i menuItem) Description() string { return i.desc }
func (i menuItem) FilterValue() string { return i.title }

// NewApp creates a new App instance rooted at the data directory.
func NewApp(dataDir string, opts ...AppOption) (*App, error) {
	cfg, err := config.New(dataDir)
	if err != nil {
		return nil, err
	}
	lb, err := logbook.Open(cfg.LogPath())
	if err != nil {
		lb = nil
	}

	welcomeMenu := list.New(buildWelcomeMenu(), list.NewDefaultDelegate(), 0, 0)
	welcomeMenu.Title = "⌂ HEARTHSIDE"
	welcomeMenu.SetShowStatusBar(false)
	welcomeMenu.SetFilteringEnabled(false)
	choiceMenu := list.New(buildChoiceMenu(), list.NewDefaultDelegate(), 0, 0)
	choiceMenu.Title = "Missions are ready"
	choiceMenu.SetShowStatusBar(false)
	choiceMenu.SetFilteringEnabled(false)

	picker := filepicker.New()
	picker.AllowedTypes = []string{".pdf", ".txt", ".md", ".png", ".jpg", ".jpeg"}
	if home, herr := os.UserHomeDir(); herr == nil {
		picker.CurrentDirectory = home
	}

	spin := spinner.New()
	spin.Spinner = spinner.Dot

	app := &App{
		config:      cfg,
		logbook:     lb,
		store:       journal.NewFileStore(cfg.JournalPath(), lb),
		flow:        flow.NewController(),
		lang:        content.Lang(cfg.Language()),
		welcomeMenu: welcomeMenu,
		choiceMenu:  choiceMenu,
		picker:      picker,
		spin:        spin,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(app)
		}
	}
	if app.gw == nil {
		gw, gerr := gateway.NewGeminiGateway(context.Background(), cfg.APIKey, gateway.Models{
			Text:  cfg.File.Models.Text,
			Image: cfg.File.Models.Image,
			TTS:   cfg.File.Models.TTS,
		}, cfg.File.Narration.Voice)
		if gerr != nil {
			return nil, gerr
		}
		app.gw = gw
	}
	if app.player == nil {
		if player, perr := narration.NewExecPlayer(cfg.File.Narration.Player, cfg.AudioDir(), lb); perr == nil {
			app.player = player
		} else {
			app.logWarn("narration disabled: %v", perr)
		}
	}
	if app.camera == nil {
		if cam, cerr := camera.New(cfg.File.Camera.Command, cfg.PhotosDir(), lb); cerr == nil {
			app.camera = cam
		} else {
			app.logInfo("camera capture unavailable")
		}
	}
	if records, lerr := app.store.Load(); lerr == nil {
		app.records = records
	}
	app.logInfo("Session opened · %d journal record(s)", len(app.records))
	return app, nil
}

func buildWelcomeMenu() []list.Item {
	items := make([]list.Item, 0, len(focusPaths)+2)
	for _, path := range focusPaths {
		items = append(items, path)
	}
	items = append(items,
		menuItem{title: "Journal", desc: "Look back at completed missions"},
		menuItem{title: "Exit", desc: "Quit Hearthside"},
	)
	return items
}

func buildChoiceMenu() []list.Item {
	return []list.Item{
		menuItem{title: "Study up first", desc: "A short parent briefing before you start"},
		menuItem{title: "Straight to missions", desc: "Jump right into the activity list"},
	}
}

func (a *App) logInfo(format string, args ...any) {
	a.logbook.Info(format, args...)
}

func (a *App) logWarn(format string, args ...any) {
	a.logbook.Warn(format, args...)
}

func (a *App) logError(format string, args ...any) {
	a.logbook.Error(format, args...)
}

// Init is called once when the program starts.
func (a *App) Init() tea.Cmd {
	return a.spin.Tick
}

// Update is called when a message is received.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.welcomeMenu.SetSize(max(0, msg.Width-6), max(0, msg.Height-12))
		a.choiceMenu.SetSize(max(0, msg.Width-6), max(0, msg.Height-12))
		return a, nil

	case generationDoneMsg:
		return a.handleGenerationDone(msg)

	case captionTickMsg:
		if msg.seq != a.genSeq || a.flow.Screen() != flow.ScreenProcessing {
			return a, nil
		}
		a.flow.AdvanceStage()
		return a, a.scheduleCaptionTick(msg.seq)

	case studyFetchedMsg:
		if msg.err != nil {
			a.flow.StudyMaterialsFailed(msg.err)
			a.logError("Study briefing failed: %v", msg.err)
			return a, nil
		}
		a.flow.InstallStudySession(msg.session)
		return a, nil

	case recordSavedMsg:
		if msg.err != nil {
			a.statusMsg = fmt.Sprintf("Could not save the journal: %v", msg.err)
			a.logError("Journal save failed: %v", msg.err)
			return a, nil
		}
		a.records = msg.records
		return a, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spin, cmd = a.spin.Update(msg)
		return a, cmd

	case tea.KeyMsg:
		if model, cmd, handled := a.handleGlobalKey(msg); handled {
			return model, cmd
		}
	}

	if a.flow.Screen() == flow.ScreenResults && a.missionView != nil {
		return a, a.missionView.Update(msg)
	}

	var cmds []tea.Cmd
	switch a.flow.Screen() {
	case flow.ScreenWelcome:
		if key, ok := msg.(tea.KeyMsg); ok && key.String() == "enter" {
			return a.handleWelcomeSelection()
		}
		var cmd tea.Cmd
		a.welcomeMenu, cmd = a.welcomeMenu.Update(msg)
		if cmd != nil {
			cmds = append(cmds, cmd)
		}
	case flow.ScreenUpload:
		return a.updateUpload(msg)
	case flow.ScreenChoice:
		if key, ok := msg.(tea.KeyMsg); ok && key.String() == "enter" {
			return a.handleChoiceSelection()
		}
		var cmd tea.Cmd
		a.choiceMenu, cmd = a.choiceMenu.Update(msg)
		if cmd != nil {
			cmds = append(cmds, cmd)
		}
	case flow.ScreenStudy:
		if key, ok := msg.(tea.KeyMsg); ok && key.String() == "m" {
			if err := a.flow.SelectMissions(); err != nil {
				a.logError("%v", err)
			}
		}
	case flow.ScreenResults:
		return a.updateResultsList(msg)
	}

	return a, tea.Batch(cmds...)
}

// handleGlobalKey processes keys that work on every screen.
func (a *App) handleGlobalKey(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	switch msg.String() {
	case "ctrl+c":
		return a, tea.Quit, true
	case "q":
		if a.flow.Screen() == flow.ScreenWelcome {
			return a, tea.Quit, true
		}
	case "J":
		if a.missionView == nil {
			if err := a.flow.ShowJournal(); err == nil {
				return a, nil, true
			}
		}
	case "H":
		if a.missionView == nil {
			if err := a.flow.ShowWelcome(); err == nil {
				return a, nil, true
			}
		}
	case "t":
		a.toggleLanguage()
		return a, nil, true
	case "d":
		if a.flow.Banner() != "" {
			a.flow.DismissBanner()
			return a, nil, true
		}
	case "esc":
		return a.handleEscape()
	}
	return a, nil, false
}

func (a *App) handleEscape() (tea.Model, tea.Cmd, bool) {
	switch a.flow.Screen() {
	case flow.ScreenUpload:
		if err := a.flow.ShowWelcome(); err == nil {
			return a, nil, true
		}
	case flow.ScreenStudy:
		if err := a.flow.BackToChoice(); err == nil {
			return a, nil, true
		}
	case flow.ScreenResults:
		if a.missionView != nil {
			a.closeMissionView()
			return a, nil, true
		}
		if err := a.flow.BackToChoice(); err == nil {
			return a, nil, true
		}
	case flow.ScreenJournal:
		if err := a.flow.ShowWelcome(); err == nil {
			return a, nil, true
		}
	}
	return a, nil, false
}

// toggleLanguage flips the displayed side of the bilingual content for the
// whole app, missions included, and persists the choice.
func (a *App) toggleLanguage() {
	if a.lang == content.LangEnglish {
		a.lang = content.LangOriginal
	} else {
		a.lang = content.LangEnglish
	}
	if err := a.config.SetLanguage(string(a.lang)); err != nil {
		a.logWarn("Language preference not saved: %v", err)
	}
	if a.missionView != nil {
		a.missionView.session.SetLang(a.lang)
	}
}

func (a *App) handleWelcomeSelection() (tea.Model, tea.Cmd) {
	item, ok := a.welcomeMenu.SelectedItem().(menuItem)
	if !ok {
		return a, nil
	}
	switch item.title {
	case "Journal":
		if err := a.flow.ShowJournal(); err != nil {
			a.logError("%v", err)
		}
		return a, nil
	case "Exit":
		a.logInfo("Menu · Exit selected")
		return a, tea.Quit
	default:
		if err := a.flow.ChoosePath(item.title); err != nil {
			a.logError("%v", err)
			return a, nil
		}
		a.logInfo("Focus path · %s", item.title)
		return a, a.picker.Init()
	}
}

func (a *App) updateUpload(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	a.picker, cmd = a.picker.Update(msg)
	if ok, path := a.picker.DidSelectFile(msg); ok {
		return a.startGeneration(path)
	}
	return a, cmd
}

// startGeneration reads the chosen document and kicks off activity
// generation plus the caption rotation.
func (a *App) startGeneration(path string) (tea.Model, tea.Cmd) {
	data, err := os.ReadFile(path)
	if err != nil {
		if ferr := a.flow.UploadFailed(err); ferr != nil {
			a.logError("%v", ferr)
		}
		a.logError("Upload failed: %v", err)
		return a, nil
	}
	doc := content.Document{
		Name: filepath.Base(path),
		MIME: documentMIME(path),
		Data: data,
	}
	if err := a.flow.BeginProcessing(); err != nil {
		a.logError("%v", err)
		return a, nil
	}
	a.genSeq++
	seq := a.genSeq
	focus := a.flow.FocusLabel()
	a.logInfo("Generating missions from %s (%d bytes)", doc.Name, len(doc.Data))
	generate := func() tea.Msg {
		result, gerr := a.gw.GenerateActivities(context.Background(), doc, focus)
		return generationDoneMsg{seq: seq, result: result, err: gerr}
	}
	return a, tea.Batch(generate, a.scheduleCaptionTick(seq), a.spin.Tick)
}

func (a *App) scheduleCaptionTick(seq int) tea.Cmd {
	return tea.Tick(captionInterval, func(time.Time) tea.Msg {
		return captionTickMsg{seq: seq}
	})
}

func (a *App) handleGenerationDone(msg generationDoneMsg) (tea.Model, tea.Cmd) {
	if msg.seq != a.genSeq || a.flow.Screen() != flow.ScreenProcessing {
		return a, nil
	}
	if msg.err != nil {
		if err := a.flow.GenerationFailed(msg.err); err != nil {
			a.logError("%v", err)
		}
		a.logError("Generation failed: %v", msg.err)
		return a, nil
	}
	if err := a.flow.GenerationSucceeded(msg.result); err != nil {
		a.logError("%v", err)
		return a, nil
	}
	a.missionSel = 0
	a.logInfo("Generated %d mission(s)", len(msg.result.Activities))
	return a, nil
}

func (a *App) handleChoiceSelection() (tea.Model, tea.Cmd) {
	item, ok := a.choiceMenu.SelectedItem().(menuItem)
	if !ok {
		return a, nil
	}
	switch item.title {
	case "Study up first":
		fetch, err := a.flow.SelectPrep()
		if err != nil {
			a.logError("%v", err)
			return a, nil
		}
		if !fetch {
			return a, nil
		}
		topics := []string{}
		if result := a.flow.Result(); result != nil {
			topics = result.OverallTopics
		}
		return a, func() tea.Msg {
			session, ferr := a.gw.FetchStudyMaterials(context.Background(), topics)
			return studyFetchedMsg{session: session, err: ferr}
		}
	case "Straight to missions":
		if err := a.flow.SelectMissions(); err != nil {
			a.logError("%v", err)
		}
		return a, nil
	}
	return a, nil
}

func (a *App) updateResultsList(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return a, nil
	}
	result := a.flow.Result()
	if result == nil || len(result.Activities) == 0 {
		return a, nil
	}
	switch key.String() {
	case "up", "k":
		if a.missionSel > 0 {
			a.missionSel--
		}
	case "down", "j":
		if a.missionSel < len(result.Activities)-1 {
			a.missionSel++
		}
	case "s":
		if _, err := a.flow.SelectPrep(); err == nil {
			return a, nil
		}
	case "enter":
		return a.openMissionView(a.missionSel)
	}
	return a, nil
}

// openMissionView creates the per-mission session card and starts its
// image prefetch.
func (a *App) openMissionView(index int) (tea.Model, tea.Cmd) {
	result := a.flow.Result()
	if result == nil || index < 0 || index >= len(result.Activities) {
		return a, nil
	}
	activity := result.Activities[index]
	opts := []mission.Option{mission.WithLang(a.lang)}
	if a.player != nil {
		opts = append(opts, mission.WithPlayer(a.player))
	}
	a.missionView = newMissionView(a, index, mission.NewSession(activity, a.gw, opts...))
	a.logInfo("Mission opened · %s", activity.Title.In(a.lang))
	return a, a.missionView.Init()
}

// closeMissionView disposes the session; late async results are dropped.
func (a *App) closeMissionView() {
	if a.missionView == nil {
		return
	}
	a.missionView.session.Close()
	a.missionView = nil
}

// finishMission persists the impact record and moves to the journal.
func (a *App) finishMission(record journal.ImpactRecord) tea.Cmd {
	a.closeMissionView()
	if err := a.flow.MissionCompleted(); err != nil {
		a.logError("%v", err)
	}
	a.logInfo("Mission completed · %s (%d min)", record.ActivityTitle, record.DurationMinutes)
	records := journal.Prepend(a.records, record)
	return func() tea.Msg {
		if err := a.store.Save(records); err != nil {
			return recordSavedMsg{err: err}
		}
		return recordSavedMsg{records: records}
	}
}

// View renders the current state to a string.
func (a *App) View() string {
	var body string
	switch a.flow.Screen() {
	case flow.ScreenWelcome:
		body = a.viewWelcome()
	case flow.ScreenUpload:
		body = a.viewUpload()
	case flow.ScreenProcessing:
		body = a.viewProcessing()
	case flow.ScreenChoice:
		body = a.choiceMenu.View()
	case flow.ScreenStudy:
		body = a.viewStudy()
	case flow.ScreenResults:
		body = a.viewResults()
	case flow.ScreenJournal:
		body = a.viewJournal()
	}
	sections := []string{a.renderHeader(), body}
	if logPanel := a.renderLogPanel(); logPanel != "" {
		sections = append(sections, logPanel)
	}
	sections = append(sections, a.renderFooter())
	return strings.Join(sections, "\n")
}

func (a *App) renderHeader() string {
	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#E8A87C")).
		Render("⌂ HEARTHSIDE")
	lang := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#888888")).
		Render(fmt.Sprintf("  language: %s", a.lang))
	header := title + lang
	if banner := a.flow.Banner(); banner != "" {
		warn := lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B")).
			Render(fmt.Sprintf("⚠ %s  (d to dismiss)", banner))
		header += "\n" + warn
	}
	return header
}

func (a *App) renderFooter() string {
	hints := "H home · J journal · t translate · q quit"
	if a.statusMsg != "" {
		hints = a.statusMsg + "    " + hints
	}
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color("#888888")).
		MarginTop(1).
		Render(hints)
}

func (a *App) renderLogPanel() string {
	if a.logbook == nil {
		return ""
	}
	lines := a.logbook.Tail(6)
	if len(lines) == 0 {
		return ""
	}
	head := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#5B8DEF")).
		Render("LOG")
	body := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#AAAAAA")).
		Render(strings.Join(lines, "\n"))
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#444444")).
		Padding(0, 1).
		Render(fmt.Sprintf("%s\n%s", head, body))
}

func (a *App) viewWelcome() string {
	return a.welcomeMenu.View()
}

func (a *App) viewUpload() string {
	hint := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#AAAAAA")).
		Render(fmt.Sprintf("Pick the curriculum file for \"%s\"    Esc → back", a.flow.FocusLabel()))
	return lipgloss.JoinVertical(lipgloss.Left, hint, a.picker.View())
}

func (a *App) viewProcessing() string {
	caption := processingCaptions[a.flow.Stage()%len(processingCaptions)]
	return fmt.Sprintf("%s %s", a.spin.View(), caption)
}

func (a *App) viewStudy() string {
	session := a.flow.Study()
	if session == nil {
		return fmt.Sprintf("%s Building your briefing…", a.spin.View())
	}
	lines := []string{lipgloss.NewStyle().Bold(true).Render("Parent briefing")}
	for _, point := range session.Summary {
		lines = append(lines, "  • "+point)
	}
	if len(session.Resources) > 0 {
		lines = append(lines, "", lipgloss.NewStyle().Bold(true).Render("Go deeper"))
		for _, res := range session.Resources {
			icon := "▶"
			if res.Kind == content.ResourceAudio {
				icon = "♪"
			}
			lines = append(lines, fmt.Sprintf("  %s %s\n     %s", icon, res.Title, res.URL))
		}
	}
	lines = append(lines, "", "Esc → back    m → missions")
	return strings.Join(lines, "\n")
}

func (a *App) viewResults() string {
	if a.missionView != nil {
		return a.missionView.View()
	}
	result := a.flow.Result()
	if result == nil || len(result.Activities) == 0 {
		return "No missions yet. Upload a curriculum to get started."
	}
	lines := []string{lipgloss.NewStyle().Bold(true).Render("Your missions")}
	for i, activity := range result.Activities {
		indicator := " "
		if i == a.missionSel {
			indicator = ">"
		}
		line := fmt.Sprintf("%s %s · %s · %s",
			indicator,
			activity.Title.In(a.lang),
			activity.Topic.In(a.lang),
			activity.Duration.In(a.lang),
		)
		if i == a.missionSel {
			line = lipgloss.NewStyle().Bold(true).Render(line)
		}
		lines = append(lines, line)
	}
	lines = append(lines, "", "enter → open mission    s → study up    esc → back")
	return strings.Join(lines, "\n")
}

func (a *App) viewJournal() string {
	if len(a.records) == 0 {
		return "The journal is empty. Completed missions land here."
	}
	lines := []string{lipgloss.NewStyle().Bold(true).Render(fmt.Sprintf("Journal · %d mission(s)", len(a.records)))}
	for _, record := range a.records {
		when := time.UnixMilli(record.Timestamp).Format("Jan 2 15:04")
		line := fmt.Sprintf("  %s · %s · %s · %d min", when, record.ActivityTitle, record.Topic, record.DurationMinutes)
		if record.PhotoPath != "" {
			line += " · 📷"
		}
		lines = append(lines, line)
	}
	lines = append(lines, "", "Esc → home")
	return strings.Join(lines, "\n")
}

func documentMIME(path string) string {
	if mimeType := mime.TypeByExtension(filepath.Ext(path)); mimeType != "" {
		return mimeType
	}
	return "application/octet-stream"
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
