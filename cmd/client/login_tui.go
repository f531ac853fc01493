package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

var errLoginCancelled = errors.New("login cancelled")

type viewState int

const (
	emailView viewState = iota
	secretView
	doneView
)

const (
	txtEmailPlaceholder = "your@email.com"
	txtEmailPrompt      = "Enter your email address"
	txtSubmitting       = "Signing in..."
	txtInvalidEmail     = "Invalid email"
	txtHelp             = "Press 'Enter' to submit. 'Esc' to go back/quit. 'Ctrl+C' to quit."
)

var (
	focusedStyle     = green
	helpStyle        = gray
	errorTextStyle   = red
	errorHeaderStyle = red.Bold(true)
	spinnerStyle     = cyan
	placeholderStyle = gray
	titleStyle       = cyan.Bold(true)
)

// SecretStep describes the second prompt, a password or a one time code.
type SecretStep struct {
	Prompt      string // may contain %s for the email
	Info        string
	Placeholder string
	Invalid     string
	Masked      bool
	CharLimit   int
	Validator   func(secret string) bool
}

type LoginTUIOpts struct {
	Email      string
	ServerURL  string
	ConfigPath string
	Note       string
	Secret     SecretStep

	// EmailSubmitHandler runs when the email is accepted. It may be nil.
	EmailSubmitHandler func(email string) error
	SecretSubmitHandler func(email, secret string) error
	EmailValidator      func(email string) bool
}

type loginModel struct {
	opts *LoginTUIOpts

	emailInput  textinput.Model
	secretInput textinput.Model
	spinner     spinner.Model

	currentView viewState

	isLoading    bool
	errorMessage string
	message      string

	submittedEmail string
}

type emailProcessedMsg struct{ err error }
type secretProcessedMsg struct{ err error }

func newLoginModel(opts *LoginTUIOpts) loginModel {
	email := textinput.New()
	email.Placeholder = txtEmailPlaceholder
	email.CharLimit = 64
	email.Width = 64
	email.PromptStyle = focusedStyle
	email.TextStyle = focusedStyle
	email.PlaceholderStyle = placeholderStyle
	email.SetValue(opts.Email)

	secret := textinput.New()
	secret.Placeholder = opts.Secret.Placeholder
	secret.CharLimit = opts.Secret.CharLimit
	secret.Width = max(opts.Secret.CharLimit, 8)
	secret.PromptStyle = focusedStyle
	secret.TextStyle = focusedStyle
	secret.PlaceholderStyle = placeholderStyle
	if opts.Secret.Masked {
		secret.EchoMode = textinput.EchoPassword
		secret.EchoCharacter = '•'
	}

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = spinnerStyle

	m := loginModel{
		opts:        opts,
		currentView: emailView,
		emailInput:  email,
		secretInput: secret,
		spinner:     s,
	}

	// a known email skips straight to the second prompt
	if opts.Email != "" && opts.EmailValidator(opts.Email) {
		m.submittedEmail = opts.Email
		m.currentView = secretView
		m.secretInput.Focus()
	} else {
		m.emailInput.Focus()
	}
	return m
}

func (m loginModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

func (m loginModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			return m, tea.Quit
		case tea.KeyEsc:
			return m.handleEscapeKey()
		case tea.KeyEnter:
			if m.isLoading {
				return m, nil
			}
			switch m.currentView {
			case emailView:
				return m.submitEmail()
			case secretView:
				return m.submitSecret()
			}
		}

		m.errorMessage = ""
		if m.emailInput.Focused() {
			m.emailInput, cmd = m.emailInput.Update(msg)
			cmds = append(cmds, cmd)
		} else if m.secretInput.Focused() {
			m.secretInput, cmd = m.secretInput.Update(msg)
			cmds = append(cmds, cmd)
		}

	case spinner.TickMsg:
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case emailProcessedMsg:
		return m.handleEmailMsg(msg)

	case secretProcessedMsg:
		return m.handleSecretMsg(msg)
	}

	return m, tea.Batch(cmds...)
}

func (m loginModel) handleEscapeKey() (tea.Model, tea.Cmd) {
	if m.currentView == secretView {
		m.currentView = emailView
		m.secretInput.Reset()
		m.secretInput.Blur()
		m.emailInput.Focus()
		m.errorMessage = ""
		return m, textinput.Blink
	}
	return m, tea.Quit
}

func (m loginModel) submitEmail() (tea.Model, tea.Cmd) {
	emailVal := strings.TrimSpace(m.emailInput.Value())
	if !m.opts.EmailValidator(emailVal) {
		m.errorMessage = txtInvalidEmail
		return m, nil
	}

	m.errorMessage = ""
	m.submittedEmail = emailVal
	m.emailInput.Blur()

	if m.opts.EmailSubmitHandler == nil {
		return m.handleEmailMsg(emailProcessedMsg{})
	}

	m.isLoading = true
	m.message = "Checking..."
	email := m.submittedEmail
	handler := m.opts.EmailSubmitHandler
	return m, func() tea.Msg {
		return emailProcessedMsg{err: handler(email)}
	}
}

func (m loginModel) submitSecret() (tea.Model, tea.Cmd) {
	secretVal := strings.TrimSpace(m.secretInput.Value())
	if !m.opts.Secret.Validator(secretVal) {
		m.errorMessage = m.opts.Secret.Invalid
		return m, nil
	}

	m.errorMessage = ""
	m.isLoading = true
	m.message = txtSubmitting
	m.secretInput.Blur()

	email := m.submittedEmail
	handler := m.opts.SecretSubmitHandler
	return m, func() tea.Msg {
		return secretProcessedMsg{err: handler(email, secretVal)}
	}
}

func (m loginModel) handleEmailMsg(msg emailProcessedMsg) (tea.Model, tea.Cmd) {
	m.isLoading = false

	if msg.err != nil {
		m.errorMessage = fmt.Sprintf("%s %s", errorHeaderStyle.Render("ERROR:"), msg.err.Error())
		m.emailInput.Focus()
		return m, textinput.Blink
	}

	m.currentView = secretView
	m.message = ""
	m.secretInput.Focus()
	return m, textinput.Blink
}

func (m loginModel) handleSecretMsg(msg secretProcessedMsg) (tea.Model, tea.Cmd) {
	m.isLoading = false

	if msg.err != nil {
		m.errorMessage = fmt.Sprintf("%s %s", errorHeaderStyle.Render("ERROR:"), msg.err.Error())
		m.secretInput.Reset()
		m.secretInput.Focus()
		return m, textinput.Blink
	}

	m.currentView = doneView
	return m, tea.Quit
}

func (m loginModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(strings.TrimPrefix(headerArt, "\n")))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("%s%s\n", gray.Render("Server  "), green.Render(m.opts.ServerURL)))
	b.WriteString(fmt.Sprintf("%s%s\n", gray.Render("Config  "), green.Render(m.opts.ConfigPath)))
	if m.opts.Note != "" {
		b.WriteString(fmt.Sprintf("\n%s\n", yellow.Render(m.opts.Note)))
	}
	b.WriteString("\n")

	switch m.currentView {
	case emailView:
		b.WriteString(txtEmailPrompt)
		b.WriteString("\n\n")
		b.WriteString(m.emailInput.View())
	case secretView:
		prompt := m.opts.Secret.Prompt
		if strings.Contains(prompt, "%s") {
			prompt = fmt.Sprintf(prompt, green.Render(m.submittedEmail))
		}
		b.WriteString(prompt)
		b.WriteString("\n")
		if m.opts.Secret.Info != "" {
			b.WriteString(helpStyle.Render(m.opts.Secret.Info))
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(m.secretInput.View())
	}

	if m.isLoading {
		b.WriteString(fmt.Sprintf("\n\n%s %s", m.spinner.View(), m.message))
	}
	if m.errorMessage != "" {
		b.WriteString("\n\n")
		b.WriteString(errorTextStyle.Render(m.errorMessage))
	}
	b.WriteString("\n\n")
	b.WriteString(helpStyle.Render(txtHelp))
	b.WriteString("\n")
	return b.String()
}

// RunLoginTUI runs the two step prompt and returns once the secret handler
// succeeded or the user quit.
func RunLoginTUI(opts LoginTUIOpts) error {
	model, err := tea.NewProgram(newLoginModel(&opts), tea.WithAltScreen()).Run()
	if err != nil {
		return fmt.Errorf("login prompt: %w", err)
	}

	if fm, ok := model.(loginModel); ok && fm.currentView != doneView {
		return errLoginCancelled
	}
	return nil
}
