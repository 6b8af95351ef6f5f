package ui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/comptaflow/compta/internal/formatter"
	"github.com/comptaflow/compta/internal/models"
	"github.com/comptaflow/compta/internal/services"
	"github.com/comptaflow/compta/internal/session"
	"github.com/comptaflow/compta/internal/shared"
	"github.com/comptaflow/compta/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	LoginView ViewState = iota
	GuestView
	DashboardView
	UploadingView
	ResultView
	ErrorView
)

// dashboardFocus tracks which control receives keystrokes on the dashboard.
type dashboardFocus int

const (
	focusFile dashboardFocus = iota
	focusReady
	focusList
)

// Model represents the TUI application state.
type Model struct {
	ctx         context.Context
	view        ViewState
	store       *session.Store
	backend     services.Backend
	workflow    *tasks.Workflow
	gate        *tasks.EligibilityGate
	downloadDir string

	width  int
	height int

	// login form
	email        textinput.Model
	password     textinput.Model
	fullName     textinput.Model
	registerMode bool
	loginFocus   int
	authErr      string

	// guest trial
	guestInput textinput.Model
	guestFile  string
	guestSaved string
	guestErr   string

	// dashboard
	fileInput   textinput.Model
	focus       dashboardFocus
	historyList list.Model
	listReady   bool
	usage       *models.Usage
	notice      string

	// upload outcome
	result    *services.UploadOutcome
	activeErr *models.UploadError

	// problem report
	reportInput textinput.Model
	reporting   bool
	reportErr   string

	spinner spinner.Model
	help    help.Model
	keys    keyMap
}

// NewModel creates a new TUI model with the provided dependencies. The gate
// may be nil when no local store is available; the server stays authoritative.
func NewModel(ctx context.Context, store *session.Store, backend services.Backend, workflow *tasks.Workflow, gate *tasks.EligibilityGate, downloadDir string) *Model {
	email := textinput.New()
	email.Placeholder = "email"
	email.Focus()

	password := textinput.New()
	password.Placeholder = "password"
	password.EchoMode = textinput.EchoPassword

	fullName := textinput.New()
	fullName.Placeholder = "full name"

	fileInput := textinput.New()
	fileInput.Placeholder = "path to a PDF statement (max 10 MB)"

	guestInput := textinput.New()
	guestInput.Placeholder = "path to a PDF statement (max 10 MB)"

	reportInput := textinput.New()
	reportInput.Placeholder = "describe the problem (bank, period, anything helpful)"

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	view := LoginView
	if store.State().Authenticated() {
		view = DashboardView
		fileInput.Focus()
	}

	return &Model{
		ctx:         ctx,
		view:        view,
		store:       store,
		backend:     backend,
		workflow:    workflow,
		gate:        gate,
		downloadDir: downloadDir,
		email:       email,
		password:    password,
		fullName:    fullName,
		guestInput:  guestInput,
		fileInput:   fileInput,
		reportInput: reportInput,
		spinner:     sp,
		help:        help.New(),
		keys:        newKeyMap(),
	}
}

// Init starts the initial data fetches for an authenticated session.
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink}
	if m.view == DashboardView {
		cmds = append(cmds, m.fetchHistory(), m.fetchUsage())
	}
	return tea.Batch(cmds...)
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.listReady {
			m.historyList.SetSize(msg.Width-4, msg.Height-14)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case LoginView:
			return m.handleLoginKeys(msg)
		case GuestView:
			return m.handleGuestKeys(msg)
		case DashboardView:
			return m.handleDashboardKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		case ErrorView:
			return m.handleErrorKeys(msg)
		case UploadingView:
			if key.Matches(msg, m.keys.quit) {
				return m, tea.Quit
			}
			return m, nil
		}

	case loginDoneMsg:
		if !msg.result.Ok {
			m.authErr = msg.result.Message
			return m, nil
		}
		m.authErr = ""
		m.view = DashboardView
		m.focus = focusFile
		m.fileInput.Focus()
		return m, tea.Batch(m.fetchHistory(), m.fetchUsage())

	case historyFetchedMsg:
		if msg.err != nil {
			return m.afterBackendError(msg.err, "Impossible de charger l'historique.")
		}
		items := make([]list.Item, len(msg.records))
		for i, record := range msg.records {
			items[i] = uploadItem{record: record}
		}
		m.historyList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.historyList.Title = "Conversions"
		m.historyList.SetSize(m.width-4, m.height-14)
		m.listReady = true
		return m, nil

	case usageFetchedMsg:
		if msg.err == nil {
			m.usage = msg.usage
		}
		return m, nil

	case uploadDoneMsg:
		if msg.err != nil {
			// Transport failure: generic retryable notice, no structured error.
			return m.afterBackendError(msg.err, "Erreur de conversion. Réessayez.")
		}
		if msg.result.Failure != nil {
			m.activeErr = msg.result.Failure
			m.reporting = false
			m.reportErr = ""
			m.view = ErrorView
			return m, nil
		}
		m.result = msg.result.Outcome
		m.activeErr = nil
		m.fileInput.SetValue("")
		m.view = ResultView
		return m, tea.Batch(m.fetchHistory(), m.fetchUsage())

	case guestDoneMsg:
		if msg.exhausted {
			if m.gate != nil {
				m.gate.RecordExhausted()
			}
			m.guestFile = ""
			m.guestErr = "Essai gratuit déjà utilisé. Créez un compte gratuit (5 conversions/mois)."
			m.view = GuestView
			return m, nil
		}
		if msg.err != nil {
			m.guestFile = ""
			m.guestErr = "Erreur de conversion. Réessayez."
			m.view = GuestView
			return m, nil
		}
		if msg.trialUsed && m.gate != nil {
			m.gate.RecordExhausted()
		}
		m.guestErr = ""
		m.guestSaved = msg.savedPath
		m.view = ResultView
		return m, nil

	case reportDoneMsg:
		if msg.err != nil {
			m.reportErr = "Envoi du signalement impossible. Réessayez."
			return m, nil
		}
		m.activeErr = nil
		m.reporting = false
		m.notice = "Signalement envoyé. Merci !"
		m.backToDashboard()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m.updateFocused(msg)
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case LoginView:
		return m.renderLogin()
	case GuestView:
		return m.renderGuest()
	case DashboardView:
		return m.renderDashboard()
	case UploadingView:
		return m.renderUploading()
	case ResultView:
		return m.renderResult()
	case ErrorView:
		return m.renderError()
	default:
		return ""
	}
}

func (m *Model) handleLoginKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "ctrl+n":
		m.registerMode = !m.registerMode
		m.authErr = ""
		return m, nil
	case "ctrl+g":
		m.view = GuestView
		m.guestErr = ""
		m.guestInput.Focus()
		return m, nil
	case "tab", "shift+tab":
		fields := 2
		if m.registerMode {
			fields = 3
		}
		if msg.String() == "tab" {
			m.loginFocus = (m.loginFocus + 1) % fields
		} else {
			m.loginFocus = (m.loginFocus + fields - 1) % fields
		}
		m.syncLoginFocus()
		return m, nil
	case "enter":
		return m, m.submitAuth()
	}

	var cmd tea.Cmd
	switch m.loginFocus {
	case 0:
		m.email, cmd = m.email.Update(msg)
	case 1:
		m.password, cmd = m.password.Update(msg)
	case 2:
		m.fullName, cmd = m.fullName.Update(msg)
	}
	return m, cmd
}

func (m *Model) syncLoginFocus() {
	inputs := []*textinput.Model{&m.email, &m.password, &m.fullName}
	for i, input := range inputs {
		if i == m.loginFocus {
			input.Focus()
		} else {
			input.Blur()
		}
	}
}

func (m *Model) submitAuth() tea.Cmd {
	email := strings.TrimSpace(m.email.Value())
	password := m.password.Value()
	fullName := strings.TrimSpace(m.fullName.Value())

	if email == "" || password == "" {
		m.authErr = "Email et mot de passe requis."
		return nil
	}
	if m.registerMode && fullName == "" {
		m.authErr = "Nom complet requis."
		return nil
	}

	register := m.registerMode
	return func() tea.Msg {
		if register {
			return loginDoneMsg{result: m.store.Register(m.ctx, email, password, fullName)}
		}
		return loginDoneMsg{result: m.store.Login(m.ctx, email, password)}
	}
}

func (m *Model) handleGuestKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.view = LoginView
		m.guestErr = ""
		m.syncLoginFocus()
		return m, nil
	case "enter":
		return m.startGuestUpload()
	}

	var cmd tea.Cmd
	m.guestInput, cmd = m.guestInput.Update(msg)
	return m, cmd
}

// startGuestUpload validates the file locally, consults the eligibility gate
// and submits the trial conversion. The saved spreadsheet lands in the
// configured download directory.
func (m *Model) startGuestUpload() (tea.Model, tea.Cmd) {
	path := strings.TrimSpace(m.guestInput.Value())
	if path == "" {
		m.guestErr = "Choisissez un fichier PDF."
		return m, nil
	}

	data, err := shared.VerifyAndReadFile(path)
	if err == nil {
		err = shared.ValidatePDF(path, data)
	}
	if err != nil {
		m.guestErr = err.Error()
		return m, nil
	}

	if m.gate != nil && !m.gate.Check(m.ctx) {
		m.guestErr = "Essai gratuit déjà utilisé. Créez un compte gratuit (5 conversions/mois)."
		return m, nil
	}

	m.guestErr = ""
	m.guestFile = path
	m.view = UploadingView
	return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
		conversion, err := m.backend.UploadGuest(m.ctx, filepath.Base(path), data)
		if err != nil {
			return guestDoneMsg{err: err, exhausted: errors.Is(err, shared.ErrTrialExhausted)}
		}

		dir := m.downloadDir
		if dir == "" {
			dir = "."
		}
		dest := filepath.Join(dir, conversion.Filename)
		if err := os.MkdirAll(dir, 0755); err == nil {
			err = os.WriteFile(dest, conversion.Data, 0644)
		}
		if err != nil {
			return guestDoneMsg{err: err}
		}
		return guestDoneMsg{savedPath: dest, trialUsed: conversion.TrialUsed}
	})
}

func (m *Model) handleDashboardKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "ctrl+r":
		return m, tea.Batch(m.fetchHistory(), m.fetchUsage())
	case "tab":
		m.cycleDashboardFocus()
		return m, nil
	}

	switch m.focus {
	case focusFile:
		if msg.String() == "enter" {
			return m.selectFile()
		}
		var cmd tea.Cmd
		m.fileInput, cmd = m.fileInput.Update(msg)
		return m, cmd

	case focusReady:
		switch msg.String() {
		case "enter", "u":
			return m.startUpload()
		case "esc":
			m.focus = focusFile
			m.fileInput.Focus()
			return m, nil
		case "q":
			return m, tea.Quit
		}

	case focusList:
		if msg.String() == "q" && !m.historyList.SettingFilter() {
			return m, tea.Quit
		}
		var cmd tea.Cmd
		m.historyList, cmd = m.historyList.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *Model) cycleDashboardFocus() {
	switch m.focus {
	case focusFile:
		m.fileInput.Blur()
		if m.listReady {
			m.focus = focusList
		}
	case focusReady:
		m.focus = focusFile
		m.fileInput.Focus()
	case focusList:
		m.focus = focusFile
		m.fileInput.Focus()
	}
}

// selectFile validates and attaches the typed path. Rejections surface as a
// notice without changing the workflow state.
func (m *Model) selectFile() (tea.Model, tea.Cmd) {
	path := strings.TrimSpace(m.fileInput.Value())
	if path == "" {
		m.notice = "Choisissez un fichier PDF."
		return m, nil
	}

	if err := m.workflow.Select(path); err != nil {
		m.notice = err.Error()
		return m, nil
	}

	m.notice = ""
	m.fileInput.Blur()
	m.focus = focusReady
	return m, nil
}

func (m *Model) startUpload() (tea.Model, tea.Cmd) {
	m.view = UploadingView
	return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
		result, err := m.workflow.Submit(m.ctx)
		return uploadDoneMsg{result: result, err: err}
	})
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "enter", "esc":
		m.result = nil
		m.guestFile = ""
		m.guestSaved = ""
		m.backToDashboard()
		return m, nil
	}
	return m, nil
}

func (m *Model) handleErrorKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.reporting {
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "esc":
			m.reporting = false
			m.reportErr = ""
			return m, nil
		case "enter":
			comment := strings.TrimSpace(m.reportInput.Value())
			if comment == "" {
				m.reportErr = "Décrivez le problème avant d'envoyer."
				return m, nil
			}
			return m, func() tea.Msg {
				return reportDoneMsg{err: m.workflow.Report(m.ctx, "", comment)}
			}
		}
		var cmd tea.Cmd
		m.reportInput, cmd = m.reportInput.Update(msg)
		return m, cmd
	}

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "r":
		if m.activeErr != nil && m.activeErr.CanReport {
			m.reporting = true
			m.reportInput.SetValue("")
			m.reportInput.Focus()
		}
		return m, nil
	case "enter":
		// Same file, fresh attempt.
		return m.startUpload()
	case "esc":
		m.backToDashboard()
		return m, nil
	}
	return m, nil
}

// backToDashboard returns to the dashboard, re-focusing the file input.
// Protected views require a live session; a cleared store falls back to login.
func (m *Model) backToDashboard() {
	if !m.store.State().Authenticated() {
		m.view = LoginView
		m.loginFocus = 0
		m.syncLoginFocus()
		return
	}
	m.view = DashboardView
	m.focus = focusFile
	m.fileInput.Focus()
}

// afterBackendError routes a failed call: an expired session jumps to the
// login view (unless already there), anything else shows a retryable notice.
func (m *Model) afterBackendError(err error, notice string) (tea.Model, tea.Cmd) {
	if !m.store.State().Authenticated() {
		if m.view != LoginView {
			m.view = LoginView
			m.authErr = "Session expirée. Reconnectez-vous."
			m.loginFocus = 0
			m.syncLoginFocus()
		}
		return m, nil
	}
	m.notice = notice
	m.backToDashboard()
	return m, nil
}

func (m *Model) updateFocused(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	if m.view == DashboardView && m.focus == focusList && m.listReady {
		m.historyList, cmd = m.historyList.Update(msg)
	}
	return m, cmd
}

func (m *Model) fetchHistory() tea.Cmd {
	return func() tea.Msg {
		records, err := m.backend.History(m.ctx)
		return historyFetchedMsg{records: records, err: err}
	}
}

func (m *Model) fetchUsage() tea.Cmd {
	return func() tea.Msg {
		usage, err := m.backend.Usage(m.ctx)
		return usageFetchedMsg{usage: usage, err: err}
	}
}

func (m *Model) renderLogin() string {
	mode := "Connexion"
	if m.registerMode {
		mode = "Créer un compte"
	}
	title := styles.title.Render(mode)

	var b strings.Builder
	b.WriteString(title + "\n\n")
	b.WriteString(m.email.View() + "\n")
	b.WriteString(m.password.View() + "\n")
	if m.registerMode {
		b.WriteString(m.fullName.View() + "\n")
	}
	if m.authErr != "" {
		b.WriteString("\n" + styles.err.Render(m.authErr) + "\n")
	}
	b.WriteString("\n" + styles.help.Render("tab: next field • enter: submit • ctrl+n: toggle register • ctrl+g: essai gratuit • ctrl+c: quit"))
	return b.String()
}

func (m *Model) renderGuest() string {
	var b strings.Builder
	b.WriteString(styles.title.Render("Essai gratuit — une conversion sans compte") + "\n\n")
	b.WriteString(m.guestInput.View() + "\n")
	if m.guestErr != "" {
		b.WriteString("\n" + styles.err.Render(m.guestErr) + "\n")
	}
	b.WriteString("\n" + styles.help.Render("enter: convertir • esc: retour • ctrl+c: quit"))
	return b.String()
}

func (m *Model) renderDashboard() string {
	var b strings.Builder
	b.WriteString(styles.title.Render("ComptaFlow — PDF vers Excel") + "\n")

	if state := m.store.State(); state.User != nil {
		line := fmt.Sprintf("%s (%s)", state.User.Email, state.User.SubscriptionTier)
		if m.usage != nil && m.usage.Limit != nil {
			line = fmt.Sprintf("%s — %d/%d conversions ce mois", line, m.usage.UploadsCount, *m.usage.Limit)
		}
		b.WriteString(line + "\n\n")
	}

	b.WriteString(m.fileInput.View() + "\n")
	if m.focus == focusReady {
		path, _ := m.workflow.SelectedFile()
		b.WriteString(styles.ok.Render(fmt.Sprintf("✓ %s prêt", path)) + "\n")
		b.WriteString(styles.help.Render("enter: convertir • esc: changer de fichier") + "\n")
	}
	if m.notice != "" {
		b.WriteString(styles.warn.Render(m.notice) + "\n")
	}
	b.WriteString("\n")

	if m.listReady {
		b.WriteString(m.historyList.View() + "\n")
	}

	b.WriteString("\n" + m.help.View(m.keys))
	return b.String()
}

func (m *Model) renderUploading() string {
	path := m.guestFile
	if path == "" {
		path, _ = m.workflow.SelectedFile()
	}
	return fmt.Sprintf("\n %s Conversion de %s en cours…\n", m.spinner.View(), path)
}

func (m *Model) renderResult() string {
	var b strings.Builder
	b.WriteString(styles.title.Render("Conversion réussie") + "\n")
	if m.guestSaved != "" {
		b.WriteString(styles.ok.Render(fmt.Sprintf("✓ Fichier enregistré: %s", m.guestSaved)) + "\n")
		b.WriteString("C'était votre conversion d'essai. Créez un compte gratuit pour 5 conversions par mois.\n")
		b.WriteString("\n" + styles.help.Render("enter: retour • q: quitter"))
		return b.String()
	}
	if m.result != nil {
		b.WriteString(styles.ok.Render(fmt.Sprintf("✓ %d transactions extraites", m.result.TransactionsCount)) + "\n")
		if m.result.BankDetected != "" {
			b.WriteString(fmt.Sprintf("Banque détectée : %s\n", m.result.BankDetected))
		}
		if m.result.Message != "" {
			b.WriteString(m.result.Message + "\n")
		}
	}
	b.WriteString("\n" + styles.help.Render("enter: retour • q: quitter"))
	return b.String()
}

func (m *Model) renderError() string {
	if m.activeErr == nil {
		return ""
	}

	var b strings.Builder
	b.WriteString(styles.banner.Render(m.activeErr.Kind.Title()) + "\n\n")
	if m.activeErr.Message != "" {
		b.WriteString(m.activeErr.Message + "\n")
	}
	if m.activeErr.BankDetected != "" {
		b.WriteString(fmt.Sprintf("Banque détectée : %s\n", m.activeErr.BankDetected))
	}

	if m.activeErr.Kind == models.ErrorBankNotSupported && len(m.activeErr.SupportedBanks) > 0 {
		b.WriteString("\nBanques supportées :\n")
		b.WriteString(formatter.RenderBanks(m.activeErr.SupportedBanks))
	}

	if m.reporting {
		b.WriteString("\n" + m.reportInput.View() + "\n")
		if m.reportErr != "" {
			b.WriteString(styles.err.Render(m.reportErr) + "\n")
		}
		b.WriteString(styles.help.Render("enter: envoyer • esc: annuler"))
		return b.String()
	}

	keys := []string{"enter: réessayer", "esc: retour", "q: quitter"}
	if m.activeErr.CanReport {
		keys = append([]string{"r: signaler ce relevé"}, keys...)
	}
	b.WriteString("\n" + styles.help.Render(strings.Join(keys, " • ")))
	return b.String()
}
