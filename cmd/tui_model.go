package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/rmharte/rxq/internal/api"
	"github.com/rmharte/rxq/internal/display"
	"github.com/rmharte/rxq/internal/results"
	"github.com/rmharte/rxq/internal/session"
)

const (
	minTUIWidth  = 88
	minTUIHeight = 22
)

var (
	tuiHeaderStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	tuiMetaStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	tuiHintStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	tuiTitleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229"))
	tuiGenericStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	tuiBrandStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	tuiScheduleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	tuiValueStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229"))
	tuiSectionStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("81"))
	tuiMutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	tuiErrorStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
)

type tuiConfig struct {
	client       *api.Client
	log          *zap.Logger
	maxResults   int
	initialQuery string
}

type tuiFocus int

const (
	tuiFocusInput tuiFocus = iota
	tuiFocusList
	tuiFocusDetail
)

// searchDoneMsg delivers a finished search back to the event loop. The
// controller decides whether it is still the current one.
type searchDoneMsg struct {
	outcome session.Outcome
}

func runSearchCmd(p *session.Pending) tea.Cmd {
	return func() tea.Msg {
		return searchDoneMsg{outcome: p.Run()}
	}
}

type tuiGroupRow struct {
	group    results.DrugGroup
	ordinal  int
	expanded bool
}

func (g tuiGroupRow) FilterValue() string { return strings.ToLower(g.group.Title) }

func (g tuiGroupRow) Title() string {
	marker := "▸"
	if g.expanded {
		marker = "▾"
	}
	return fmt.Sprintf("%s %d. %s", marker, g.ordinal, g.group.Title)
}

func (g tuiGroupRow) Description() string {
	parts := []string{g.group.MatchLabel()}
	if count := g.group.VariantCount(); count == 1 {
		parts = append(parts, "1 variant")
	} else {
		parts = append(parts, fmt.Sprintf("%d variants", count))
	}
	if g.group.IsGeneric {
		parts = append(parts, "generic")
	} else {
		parts = append(parts, "brand")
	}
	if score := display.FormatScore(g.group.BestSimilarity); score != "" {
		parts = append(parts, score)
	}
	return strings.Join(parts, " • ")
}

type tuiManufacturerRow struct {
	key      session.ManufacturerKey
	name     string
	count    int
	expanded bool
}

func (m tuiManufacturerRow) FilterValue() string { return strings.ToLower(m.name) }

func (m tuiManufacturerRow) Title() string {
	marker := "▸"
	if m.expanded {
		marker = "▾"
	}
	return fmt.Sprintf("  %s %s", marker, m.name)
}

func (m tuiManufacturerRow) Description() string {
	if m.count == 1 {
		return "    1 variant"
	}
	return fmt.Sprintf("    %d variants", m.count)
}

type tuiVariantRow struct {
	groupID string
	variant results.Variant
}

func (v tuiVariantRow) FilterValue() string { return strings.ToLower(v.variant.Label) }

func (v tuiVariantRow) Title() string {
	label := strings.TrimSpace(v.variant.Label)
	if label == "" {
		label = "Unlabeled variant"
	}
	if strength := strings.TrimSpace(v.variant.Strength); strength != "" {
		label += "  " + strength
	}
	return "    • " + label
}

func (v tuiVariantRow) Description() string {
	parts := []string{}
	if form := strings.TrimSpace(v.variant.DosageForm); form != "" {
		parts = append(parts, form)
	}
	if ndc := strings.TrimSpace(v.variant.NDC); ndc != "" {
		parts = append(parts, "NDC "+ndc)
	}
	if v.variant.DEASchedule != "" {
		parts = append(parts, "DEA "+v.variant.DEASchedule)
	}
	if score := display.FormatScore(v.variant.Similarity); score != "" {
		parts = append(parts, score)
	}
	if len(parts) == 0 {
		return "      (no details)"
	}
	return "      " + strings.Join(parts, " • ")
}

type searchTUIModel struct {
	cfg   tuiConfig
	ctrl  *session.Controller
	state *session.State

	input   textinput.Model
	spinner spinner.Model
	list    list.Model
	detail  viewport.Model

	// searchCmd carries the initial query's request into Init.
	searchCmd tea.Cmd

	focus      tuiFocus
	showHelp   bool
	selectedID string

	groupStarts []int

	width, height   int
	bodyHeight      int
	listPaneWidth   int
	detailPaneWidth int
	tooSmall        bool
}

func newSearchTUIModel(cfg tuiConfig) searchTUIModel {
	input := textinput.New()
	input.Placeholder = "drug name, symptom, or indication"
	input.Prompt = "search> "
	input.CharLimit = 120
	input.Focus()

	delegate := list.NewDefaultDelegate()
	delegate.SetHeight(2)
	delegate.SetSpacing(1)

	lst := list.New([]list.Item{}, delegate, 0, 0)
	lst.Title = "Results"
	lst.SetStatusBarItemName("row", "rows")
	lst.SetShowStatusBar(true)
	lst.SetFilteringEnabled(false)
	lst.SetShowHelp(false)
	lst.SetShowPagination(true)
	lst.DisableQuitKeybindings()

	detail := viewport.New(0, 0)
	detail.KeyMap.PageDown.SetKeys("f", "pgdown")
	detail.KeyMap.PageUp.SetKeys("b", "pgup")
	detail.KeyMap.HalfPageDown.SetKeys("d")
	detail.KeyMap.HalfPageUp.SetKeys("u")

	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))

	model := searchTUIModel{
		cfg:     cfg,
		ctrl:    session.NewController(cfg.client, cfg.maxResults, cfg.log),
		state:   session.NewState(),
		input:   input,
		spinner: spin,
		list:    lst,
		detail:  detail,
		focus:   tuiFocusInput,
	}

	if cfg.initialQuery != "" {
		if pending, ok := model.ctrl.Submit(cfg.initialQuery, model.state); ok {
			model.input.SetValue(cfg.initialQuery)
			model.searchCmd = runSearchCmd(pending)
		}
	}

	return model
}

func (m searchTUIModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick, m.searchCmd)
}

func (m searchTUIModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil

	case searchDoneMsg:
		if m.ctrl.Resolve(msg.outcome, m.state, time.Now()) {
			m.rebuildRows(true)
		}
		return m, nil

	case spinner.TickMsg:
		if m.state.Loading {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	keyMsg, isKey := msg.(tea.KeyMsg)
	if !isKey {
		return m, nil
	}

	key := keyMsg.String()
	if key == "ctrl+c" {
		m.ctrl.CancelActive()
		return m, tea.Quit
	}

	switch m.focus {
	case tuiFocusInput:
		return m.updateInputFocus(keyMsg)
	case tuiFocusList:
		return m.updateListFocus(keyMsg)
	default:
		return m.updateDetailFocus(keyMsg)
	}
}

func (m searchTUIModel) updateInputFocus(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		return m.submitQuery(m.input.Value())
	case "tab", "esc", "down":
		if len(m.list.Items()) > 0 {
			m.setFocus(tuiFocusList)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m searchTUIModel) updateListFocus(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key := msg.String(); key {
	case "q":
		m.ctrl.CancelActive()
		return m, tea.Quit
	case "/", "i":
		return m, m.setFocus(tuiFocusInput)
	case "esc":
		return m, m.setFocus(tuiFocusInput)
	case "tab":
		m.setFocus(tuiFocusDetail)
		return m, nil
	case "?":
		m.showHelp = !m.showHelp
		m.resize()
		return m, nil
	case "r":
		if m.state.Query != "" {
			return m.submitQuery(m.state.Query)
		}
		return m, nil
	case "enter", " ":
		m.toggleSelected()
		return m, nil
	case "]":
		m.jumpGroup(1)
		return m, nil
	case "[":
		m.jumpGroup(-1)
		return m, nil
	default:
		if len(key) == 1 && key[0] >= '1' && key[0] <= '9' {
			m.jumpToGroup(int(key[0] - '1'))
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	m.refreshDetail(false)
	return m, cmd
}

func (m searchTUIModel) updateDetailFocus(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		m.ctrl.CancelActive()
		return m, tea.Quit
	case "esc":
		m.setFocus(tuiFocusList)
		return m, nil
	case "tab":
		return m, m.setFocus(tuiFocusInput)
	case "?":
		m.showHelp = !m.showHelp
		m.resize()
		return m, nil
	}

	var cmd tea.Cmd
	m.detail, cmd = m.detail.Update(msg)
	return m, cmd
}

func (m *searchTUIModel) submitQuery(raw string) (tea.Model, tea.Cmd) {
	pending, ok := m.ctrl.Submit(raw, m.state)
	if !ok {
		return *m, nil
	}
	m.input.SetValue(m.state.Query)
	m.rebuildRows(true)
	return *m, tea.Batch(m.spinner.Tick, runSearchCmd(pending))
}

func (m *searchTUIModel) setFocus(next tuiFocus) tea.Cmd {
	m.focus = next
	if next == tuiFocusInput {
		return m.input.Focus()
	}
	m.input.Blur()
	return nil
}

func (m *searchTUIModel) toggleSelected() {
	switch row := m.list.SelectedItem().(type) {
	case tuiGroupRow:
		m.state.ToggleGroup(row.group.ID)
		m.rebuildRows(false)
	case tuiManufacturerRow:
		m.state.ToggleManufacturer(row.key)
		m.rebuildRows(false)
	case tuiVariantRow:
		m.setFocus(tuiFocusDetail)
	}
}

// rebuildRows reflattens the session tree into list rows. Selection is
// preserved by stable row ID so toggling never teleports the cursor.
func (m *searchTUIModel) rebuildRows(resetSelection bool) {
	currentID := m.selectedID
	items, starts := buildResultRows(m.state)
	m.groupStarts = starts

	if m.state.Query == "" {
		m.list.Title = "Results"
	} else {
		m.list.Title = fmt.Sprintf("Results • %q", m.state.Query)
	}
	m.list.SetItems(items)

	target := -1
	if !resetSelection && currentID != "" {
		target = findRowIndexByID(items, currentID)
	}
	if target < 0 && len(items) > 0 {
		target = 0
	}
	if target >= 0 {
		m.list.Select(target)
	}

	m.refreshDetail(true)
}

func buildResultRows(state *session.State) (items []list.Item, starts []int) {
	if len(state.Groups) == 0 {
		return nil, nil
	}

	items = make([]list.Item, 0, len(state.Groups))
	starts = make([]int, 0, len(state.Groups))

	for i, group := range state.Groups {
		starts = append(starts, len(items))
		expanded := state.GroupExpanded(group.ID)
		items = append(items, tuiGroupRow{group: group, ordinal: i + 1, expanded: expanded})
		if !expanded {
			continue
		}

		if group.Grouped() {
			for _, mg := range group.Manufacturers {
				key := session.ManufacturerKey{GroupID: group.ID, Manufacturer: mg.Manufacturer}
				open := state.ManufacturerExpanded(key)
				items = append(items, tuiManufacturerRow{
					key:      key,
					name:     display.ManufacturerName(mg.Manufacturer),
					count:    len(mg.Variants),
					expanded: open,
				})
				if !open {
					continue
				}
				for _, variant := range mg.Variants {
					items = append(items, tuiVariantRow{groupID: group.ID, variant: variant})
				}
			}
			continue
		}

		for _, variant := range group.Variants {
			items = append(items, tuiVariantRow{groupID: group.ID, variant: variant})
		}
	}

	return items, starts
}

func (m *searchTUIModel) refreshDetail(resetScroll bool) {
	var content string
	nextID := ""

	if selected := m.list.SelectedItem(); selected != nil {
		switch row := selected.(type) {
		case tuiGroupRow:
			content = renderGroupDetailContent(row.group, m.detail.Width)
			nextID = stableIDForRow(row)
		case tuiManufacturerRow:
			content = renderManufacturerDetailContent(row)
			nextID = stableIDForRow(row)
		case tuiVariantRow:
			content = renderVariantDetailContent(row.variant, m.detail.Width)
			nextID = stableIDForRow(row)
		}
	}
	if content == "" {
		content = m.emptyDetailContent()
	}

	if resetScroll || nextID != m.selectedID {
		m.detail.GotoTop()
	}
	m.selectedID = nextID
	m.detail.SetContent(content)
}

func (m searchTUIModel) emptyDetailContent() string {
	if m.state.Loading {
		return tuiMetaStyle.Render(fmt.Sprintf("Searching for %q...", m.state.Query))
	}
	if m.state.ErrorMessage != "" {
		return tuiErrorStyle.Render(m.state.ErrorMessage)
	}
	if m.state.EmptyMessage != "" {
		return m.state.EmptyMessage + "\n\n" + tuiHintStyle.Render("Try a broader name or the generic spelling.")
	}
	return tuiMetaStyle.Render("Type a query and press Enter to search.\n\nExamples:\n• lipitor\n• blood pressure\n• insulin glargine")
}

func renderGroupDetailContent(group results.DrugGroup, width int) string {
	maxWidth := maxInt(24, width)

	lines := []string{
		tuiTitleStyle.Render(wrapText(group.Title, maxWidth)),
		display.MatchTag(group.MatchLabel()),
	}

	if group.IsGeneric {
		lines = append(lines, tuiGenericStyle.Render("GENERIC"))
	} else {
		lines = append(lines, tuiBrandStyle.Render("BRAND"))
	}

	lines = append(lines, "")
	if group.DrugClass != "" {
		lines = append(lines, fmt.Sprintf("%s %s", tuiMetaStyle.Render("Class:"), group.DrugClass))
	}
	if len(group.DosageForms) > 0 {
		lines = append(lines, fmt.Sprintf("%s %s", tuiMetaStyle.Render("Forms:"), strings.Join(group.DosageForms, ", ")))
	}
	if score := display.FormatScore(group.BestSimilarity); score != "" {
		lines = append(lines, fmt.Sprintf("%s %s", tuiMetaStyle.Render("Best match:"), tuiValueStyle.Render(score)))
	}
	if group.GCNSeqno != "" {
		lines = append(lines, fmt.Sprintf("%s %s", tuiMetaStyle.Render("GCN:"), group.GCNSeqno))
	}

	if group.Indication != "" {
		lines = append(lines, "")
		lines = append(lines, tuiMetaStyle.Render("Used for:"))
		lines = append(lines, wrapText(group.Indication, maxWidth))
	}
	if group.MatchReason != "" {
		lines = append(lines, "")
		lines = append(lines, tuiMetaStyle.Render("Why it matched:"))
		lines = append(lines, wrapText(group.MatchReason, maxWidth))
	}

	lines = append(lines, "")
	if count := group.VariantCount(); count == 1 {
		lines = append(lines, tuiMetaStyle.Render("1 variant."))
	} else {
		lines = append(lines, tuiMetaStyle.Render(fmt.Sprintf("%d variants.", count)))
	}
	lines = append(lines, tuiHintStyle.Render("Press Enter to expand or collapse this group."))

	return strings.Join(lines, "\n")
}

func renderManufacturerDetailContent(row tuiManufacturerRow) string {
	action := "expand"
	if row.expanded {
		action = "collapse"
	}
	lines := []string{
		tuiSectionStyle.Render(row.name),
	}
	if row.count == 1 {
		lines = append(lines, tuiMetaStyle.Render("1 variant from this manufacturer"))
	} else {
		lines = append(lines, tuiMetaStyle.Render(fmt.Sprintf("%d variants from this manufacturer", row.count)))
	}
	lines = append(lines, "")
	lines = append(lines, tuiHintStyle.Render(fmt.Sprintf("Press Enter to %s this section.", action)))
	return strings.Join(lines, "\n")
}

func renderVariantDetailContent(variant results.Variant, width int) string {
	maxWidth := maxInt(24, width)

	label := strings.TrimSpace(variant.Label)
	if label == "" {
		label = "Unlabeled variant"
	}

	lines := []string{
		tuiTitleStyle.Render(wrapText(label, maxWidth)),
	}
	if variant.IsGeneric {
		lines = append(lines, tuiGenericStyle.Render("GENERIC"))
	}
	if variant.DEASchedule != "" {
		lines = append(lines, tuiScheduleStyle.Render("DEA Schedule "+variant.DEASchedule))
	}

	lines = append(lines, "")
	if variant.Strength != "" {
		lines = append(lines, fmt.Sprintf("%s %s", tuiMetaStyle.Render("Strength:"), tuiValueStyle.Render(variant.Strength)))
	}
	if variant.DosageForm != "" {
		lines = append(lines, fmt.Sprintf("%s %s", tuiMetaStyle.Render("Form:"), variant.DosageForm))
	}
	if variant.Manufacturer != "" {
		lines = append(lines, fmt.Sprintf("%s %s", tuiMetaStyle.Render("Manufacturer:"), variant.Manufacturer))
	}
	if variant.NDC != "" {
		lines = append(lines, fmt.Sprintf("%s %s", tuiMetaStyle.Render("NDC:"), tuiValueStyle.Render(variant.NDC)))
	}
	if score := display.FormatScore(variant.Similarity); score != "" {
		lines = append(lines, fmt.Sprintf("%s %s", tuiMetaStyle.Render("Match:"), score))
	}

	if variant.NDC != "" {
		lines = append(lines, "")
		lines = append(lines, tuiMutedStyle.Render(fmt.Sprintf("Full record: rxq detail %s", variant.NDC)))
		lines = append(lines, tuiMutedStyle.Render(fmt.Sprintf("Substitutes:  rxq alternatives %s", variant.NDC)))
	}

	return strings.Join(lines, "\n")
}

func (m *searchTUIModel) jumpToGroup(index int) {
	if index < 0 || index >= len(m.groupStarts) {
		return
	}
	m.list.Select(m.groupStarts[index])
	m.refreshDetail(true)
}

func (m *searchTUIModel) jumpGroup(delta int) {
	if len(m.groupStarts) == 0 {
		return
	}

	current := m.currentGroupIndex()
	if current < 0 {
		current = 0
	}
	next := current + delta
	if next < 0 {
		next = len(m.groupStarts) - 1
	}
	if next >= len(m.groupStarts) {
		next = 0
	}
	m.jumpToGroup(next)
}

func (m searchTUIModel) currentGroupIndex() int {
	if len(m.groupStarts) == 0 {
		return -1
	}
	cursor := m.list.GlobalIndex()
	current := 0
	for i, start := range m.groupStarts {
		if start <= cursor {
			current = i
			continue
		}
		break
	}
	return current
}

func findRowIndexByID(items []list.Item, stableID string) int {
	for i, item := range items {
		if stableIDForRow(item) == stableID {
			return i
		}
	}
	return -1
}

func stableIDForRow(item list.Item) string {
	switch row := item.(type) {
	case tuiGroupRow:
		return "group:" + row.group.ID
	case tuiManufacturerRow:
		return "mfr:" + row.key.GroupID + "|" + strings.ToLower(row.key.Manufacturer)
	case tuiVariantRow:
		if row.variant.NDC != "" {
			return "variant:" + row.groupID + "|" + row.variant.NDC
		}
		return "variant:" + row.groupID + "|" + strings.ToLower(row.variant.Label+"|"+row.variant.Strength)
	default:
		return ""
	}
}

func (m searchTUIModel) View() string {
	if m.width == 0 || m.height == 0 {
		return tuiMetaStyle.Render("Loading interface...")
	}
	if m.tooSmall {
		return lipgloss.NewStyle().
			Padding(1, 2).
			Render(
				fmt.Sprintf(
					"Terminal too small (%dx%d).\nResize to at least %dx%d for the two-pane drug explorer.",
					m.width, m.height, minTUIWidth, minTUIHeight,
				),
			)
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.headerView(),
		m.bodyView(),
		m.statusView(),
		m.footerView(),
	)
}

func (m searchTUIModel) headerView() string {
	focus := "input"
	switch m.focus {
	case tuiFocusList:
		focus = "results"
	case tuiFocusDetail:
		focus = "detail"
	}

	top := fmt.Sprintf("rxq tui  |  groups: %d  |  focus: %s", len(m.state.Groups), focus)

	return lipgloss.NewStyle().
		Width(m.width).
		Padding(0, 1).
		Render(tuiHeaderStyle.Render(top) + "\n" + m.input.View())
}

func (m searchTUIModel) bodyView() string {
	listBorder := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("241")).
		Padding(0, 1)
	detailBorder := listBorder

	switch m.focus {
	case tuiFocusList:
		listBorder = listBorder.BorderForeground(lipgloss.Color("86"))
	case tuiFocusDetail:
		detailBorder = detailBorder.BorderForeground(lipgloss.Color("86"))
	}

	left := listBorder.
		Width(m.listPaneWidth).
		Height(m.bodyHeight).
		Render(m.list.View())
	right := detailBorder.
		Width(m.detailPaneWidth).
		Height(m.bodyHeight).
		Render(m.detail.View())

	return lipgloss.JoinHorizontal(lipgloss.Top, left, " ", right)
}

func (m searchTUIModel) statusView() string {
	var status string
	switch {
	case m.state.Loading:
		status = fmt.Sprintf("%s Searching for %q...", m.spinner.View(), m.state.Query)
	case m.state.ErrorMessage != "":
		status = tuiErrorStyle.Render(m.state.ErrorMessage)
	case m.state.EmptyMessage != "":
		status = tuiMetaStyle.Render(m.state.EmptyMessage)
	case len(m.state.Groups) > 0:
		status = tuiMetaStyle.Render(m.resultSummary())
	default:
		status = tuiHintStyle.Render("Enter a query to begin.")
	}

	return lipgloss.NewStyle().Width(m.width).Padding(0, 1).Render(status)
}

func (m searchTUIModel) resultSummary() string {
	parts := []string{fmt.Sprintf("%d groups for %q", len(m.state.Groups), m.state.Query)}
	if metrics := m.state.Metrics; metrics != nil && metrics.TotalLatencyMS > 0 {
		parts = append(parts, fmt.Sprintf("%.0fms", metrics.TotalLatencyMS))
	}
	if info := m.state.QueryInfo; info != nil {
		if info.Expanded != "" && info.Expanded != info.Original {
			parts = append(parts, "interpreted as "+info.Expanded)
		}
		if len(info.Corrections) > 0 {
			parts = append(parts, "corrected: "+strings.Join(info.Corrections, ", "))
		}
	}
	return strings.Join(parts, "  |  ")
}

func (m searchTUIModel) footerView() string {
	base := "Enter search/toggle • Tab switch pane • [/] group jump • 1-9 jump to group • r re-run • ? help • q quit"
	if m.focus == tuiFocusDetail {
		base = "Detail: j/k or ↑/↓ scroll • u/d half-page • b/f page • esc results • q quit"
	}

	if !m.showHelp {
		return lipgloss.NewStyle().Padding(0, 1).Render(tuiHintStyle.Render(base))
	}

	lines := []string{
		"Key Help",
		"input: type a query • Enter search • Tab/esc/↓ to results",
		"results: ↑/↓ or j/k move • Enter/space expand or collapse • one group opens at a time",
		"group jumps: ] next group • [ previous group • 1..9 jump to numbered group",
		"detail pane: j/k or ↑/↓ scroll • u/d half-page • b/f page up/down",
		"global: tab cycle panes • r re-run current query • ? toggle help • q quit • ctrl+c force quit",
	}
	return lipgloss.NewStyle().
		Padding(0, 1).
		Render(tuiHintStyle.Render(strings.Join(lines, "\n")))
}

func (m *searchTUIModel) resize() {
	if m.width == 0 || m.height == 0 {
		return
	}

	m.tooSmall = m.width < minTUIWidth || m.height < minTUIHeight
	if m.tooSmall {
		return
	}

	headerH := 3
	statusH := 1
	footerH := 2
	if m.showHelp {
		footerH = 8
	}
	m.bodyHeight = maxInt(8, m.height-headerH-statusH-footerH-1)

	listWidth := maxInt(40, int(float64(m.width)*0.45))
	if listWidth > m.width-42 {
		listWidth = m.width / 2
	}
	detailWidth := m.width - listWidth - 1
	if detailWidth < 36 {
		detailWidth = 36
		listWidth = m.width - detailWidth - 1
	}

	m.listPaneWidth = listWidth
	m.detailPaneWidth = detailWidth

	listInnerWidth := maxInt(24, listWidth-4)
	detailInnerWidth := maxInt(24, detailWidth-4)
	panelInnerHeight := maxInt(6, m.bodyHeight-2)

	m.input.Width = maxInt(24, m.width-14)
	m.list.SetSize(listInnerWidth, panelInnerHeight)
	m.detail.Width = detailInnerWidth
	m.detail.Height = panelInnerHeight
	m.refreshDetail(false)
}

func wrapText(text string, width int) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}
	if width < 12 {
		width = 12
	}

	line := words[0]
	lines := make([]string, 0, len(words)/6+1)
	for _, w := range words[1:] {
		if len(line)+1+len(w) > width {
			lines = append(lines, line)
			line = w
			continue
		}
		line += " " + w
	}
	lines = append(lines, line)
	return strings.Join(lines, "\n")
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
