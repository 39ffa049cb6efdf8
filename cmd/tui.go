package cmd

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"

	"github.com/blacktop/vidgen/internal/session"
)

var (
	accentColor  = lipgloss.Color("205")
	buttonStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	selectedBtn  = buttonStyle.Background(lipgloss.Color("7"))
	disabledBtn  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	labelStyle   = lipgloss.NewStyle().Bold(true)
	statusStyles = map[session.StatusKind]lipgloss.Style{
		session.StatusDefault: lipgloss.NewStyle(),
		session.StatusLoading: lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		session.StatusSuccess: lipgloss.NewStyle().Foreground(lipgloss.Color("86")),
		session.StatusError:   lipgloss.NewStyle().Foreground(lipgloss.Color("204")),
	}
	quotaStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("204")).
			Foreground(lipgloss.Color("204")).
			Padding(0, 1)
)

type tuiConfig struct {
	DisplayProtocol string
	OutputFolder    string
}

type model struct {
	ctx        context.Context
	session    *session.Session
	config     *tuiConfig
	logger     *log.Logger
	promptIn   textinput.Model
	imageIn    textinput.Model
	spinner    spinner.Model
	focus      focus
	buttonMode button
	width      int
	height     int
	generating bool
	saved      string
	notice     string
}

func newModel(ctx context.Context, s *session.Session, c *tuiConfig, logger *log.Logger) model {
	pi := textinput.New()
	pi.Placeholder = "Describe the video you want"
	pi.Prompt = "> "
	pi.SetValue(s.Snapshot().Prompt)
	pi.Focus()

	ii := textinput.New()
	ii.Placeholder = "Path to a starting image (optional)"
	ii.Prompt = "> "
	if img := s.Image(); img != nil {
		ii.SetValue(img.Name)
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(accentColor)

	return model{
		ctx:      ctx,
		session:  s,
		config:   c,
		logger:   logger,
		promptIn: pi,
		imageIn:  ii,
		spinner:  sp,
		focus:    focusPrompt,
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.promptIn.Width = int(float64(m.width)*0.4) - 6
		m.imageIn.Width = m.promptIn.Width
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "esc":
			if m.focus == focusButtons || m.generating {
				return m, tea.Quit
			}
			m.setFocus(focusButtons)
			return m, nil
		case "tab", "shift+tab":
			if m.generating {
				return m, nil
			}
			m.cycleFocus(msg.String() == "shift+tab")
			return m, nil
		case "ctrl+x":
			if !m.generating {
				m.session.ClearImage()
				m.imageIn.Reset()
				m.notice = "Image cleared"
			}
			return m, nil
		case "enter":
			if m.generating {
				return m, nil
			}
			switch m.focus {
			case focusPrompt:
				return m, m.generate()
			case focusImage:
				path := strings.TrimSpace(m.imageIn.Value())
				if path == "" {
					m.session.ClearImage()
					return m, nil
				}
				return m, selectImage(m.session, path)
			case focusButtons:
				return m.press()
			}
		case "left", "right", "q":
			if m.focus == focusButtons {
				switch msg.String() {
				case "q":
					return m, tea.Quit
				case "left":
					m.buttonMode = (m.buttonMode + buttonCount - 1) % buttonCount
				case "right":
					m.buttonMode = (m.buttonMode + 1) % buttonCount
				}
				return m, nil
			}
		}
	case generatedMsg:
		m.generating = false
		m.setFocus(focusButtons)
		if msg.err == nil {
			m.buttonMode = buttonPlay
		} else {
			m.buttonMode = buttonRegenerate
		}
		return m, nil
	case imageMsg:
		if msg.err != nil {
			m.notice = fmt.Sprintf("Could not load image: %v", msg.err)
		} else {
			m.notice = "Image selected"
			m.setFocus(focusPrompt)
		}
		return m, nil
	case savedMsg:
		if msg.err != nil {
			m.notice = fmt.Sprintf("Could not save video: %v", msg.err)
		} else {
			m.saved = msg.path
			m.notice = "Video saved: " + msg.path
		}
		return m, nil
	case playedMsg:
		if msg.err != nil {
			m.notice = fmt.Sprintf("Could not open player: %v", msg.err)
		}
		return m, nil
	}

	var cmd tea.Cmd
	if !m.generating {
		switch m.focus {
		case focusPrompt:
			m.promptIn, cmd = m.promptIn.Update(msg)
			cmds = append(cmds, cmd)
			m.session.SetPrompt(m.promptIn.Value())
		case focusImage:
			m.imageIn, cmd = m.imageIn.Update(msg)
			cmds = append(cmds, cmd)
		}
	}
	m.spinner, cmd = m.spinner.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m *model) setFocus(f focus) {
	m.focus = f
	m.promptIn.Blur()
	m.imageIn.Blur()
	switch f {
	case focusPrompt:
		m.promptIn.Focus()
	case focusImage:
		m.imageIn.Focus()
	}
}

func (m *model) cycleFocus(reverse bool) {
	stops := []focus{focusPrompt, focusImage}
	if m.session.Result() != nil || m.session.Snapshot().Failure != nil {
		stops = append(stops, focusButtons)
	}
	i := 0
	for n, f := range stops {
		if f == m.focus {
			i = n
		}
	}
	if reverse {
		i = (i + len(stops) - 1) % len(stops)
	} else {
		i = (i + 1) % len(stops)
	}
	m.setFocus(stops[i])
}

func (m *model) generate() tea.Cmd {
	m.session.SetPrompt(m.promptIn.Value())
	m.generating = true
	m.saved = ""
	m.notice = ""
	m.setFocus(focusButtons)
	m.logger.Debug("Generating video", "prompt", m.promptIn.Value())
	return tea.Batch(generateVideo(m.ctx, m.session), m.spinner.Tick)
}

func (m model) press() (tea.Model, tea.Cmd) {
	hasResult := m.session.Result() != nil
	switch m.buttonMode {
	case buttonPlay:
		if hasResult {
			return m, playVideo(m.session)
		}
	case buttonDownload:
		if hasResult {
			m.logger.Debug("Downloading video", "folder", m.config.OutputFolder)
			return m, saveVideo(m.session, m.config.OutputFolder)
		}
	case buttonRegenerate:
		m.logger.Debug("Regenerating video", "prompt", m.promptIn.Value())
		return m, m.generate()
	}
	return m, nil
}

func (m model) View() string {
	if m.width == 0 {
		return "Initializing..."
	}

	leftWidth := int(float64(m.width) * 0.4)
	rightWidth := m.width - leftWidth

	mainView := lipgloss.JoinHorizontal(lipgloss.Top, m.leftPanelView(leftWidth), m.rightPanelView(rightWidth))

	if m.generating {
		return lipgloss.NewStyle().MaxWidth(m.width).MaxHeight(m.height).Render(
			lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, m.spinnerPopup(),
				lipgloss.WithWhitespaceChars("  "),
				lipgloss.WithWhitespaceForeground(lipgloss.Color("0"))),
		)
	}

	return mainView
}

func (m model) spinnerPopup() string {
	style := lipgloss.NewStyle().
		Width(44).
		Height(3).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(accentColor).
		Align(lipgloss.Center, lipgloss.Center)

	msg := m.session.Snapshot().Status.Message
	if msg == "" {
		msg = "Generating video..."
	}
	return style.Render(fmt.Sprintf("%s %s", m.spinner.View(), msg))
}

func (m model) leftPanelView(width int) string {
	style := lipgloss.NewStyle().
		Width(width).
		Height(m.height).
		Padding(0, 1).
		BorderStyle(lipgloss.NormalBorder()).
		BorderRight(true)

	snap := m.session.Snapshot()

	var b strings.Builder
	b.WriteString(labelStyle.Render("Prompt") + "\n")
	b.WriteString(m.promptIn.View() + "\n\n")
	b.WriteString(labelStyle.Render("Image") + "\n")
	b.WriteString(m.imageIn.View() + "\n")
	if snap.Image != nil {
		b.WriteString(mutedStyle.Render(fmt.Sprintf("%s (%s, %s) ctrl+x to clear",
			snap.Image.Name, snap.Image.MIMEType, humanize.Bytes(uint64(snap.Image.Size())))) + "\n")
	}
	b.WriteString("\n")

	if snap.Result != nil || snap.Failure != nil {
		b.WriteString(m.buttonsView(snap.Result != nil) + "\n\n")
	}
	if snap.Status.Message != "" {
		b.WriteString(statusStyles[snap.Status.Kind].Render(snap.Status.Message) + "\n")
	}
	if snap.Failure != nil && snap.Failure.Quota() {
		b.WriteString(quotaStyle.Width(width-4).Render(
			"You have exceeded the API quota. Check your plan and billing details, then try again later.") + "\n")
	}
	if m.notice != "" {
		b.WriteString(mutedStyle.Render(m.notice) + "\n")
	}
	b.WriteString("\n" + mutedStyle.Render("enter: submit • tab: switch • esc/q: quit"))

	return style.Render(b.String())
}

func (m model) buttonsView(hasResult bool) string {
	var btns []string
	for b := button(0); b < buttonCount; b++ {
		st := buttonStyle
		switch {
		case b != buttonRegenerate && !hasResult:
			st = disabledBtn
		case m.focus == focusButtons && b == m.buttonMode:
			st = selectedBtn
		}
		btns = append(btns, st.Render("[ "+b.String()+" ]"))
	}
	return strings.Join(btns, " ")
}

func (m model) rightPanelView(width int) string {
	placeholder := lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")).
		Align(lipgloss.Center, lipgloss.Center).
		Width(width).
		Height(m.height)

	snap := m.session.Snapshot()
	if snap.Result != nil {
		info := fmt.Sprintf("Video ready (%s, %s)\n%s", snap.Result.MIMEType, humanize.Bytes(uint64(snap.Result.Size)), snap.Result.Path())
		if m.saved != "" {
			info += "\nSaved: " + m.saved
		}
		return placeholder.Foreground(lipgloss.Color("86")).Render(info)
	}
	if snap.Image != nil {
		if preview := displayImage(m.config.DisplayProtocol, snap.Image.MIMEType, snap.Image.Bytes); preview != "" {
			return lipgloss.NewStyle().Width(width).Height(m.height).Render(preview)
		}
		return placeholder.Render("Image selected: " + snap.Image.Name)
	}
	return placeholder.Render("Video will be available here")
}

func displayImage(protocol, mimeType string, image []byte) string {
	switch protocol {
	case "kitty":
		// f=100 only covers PNG
		if mimeType != "image/png" {
			return ""
		}
		return displayKittyImage(image)
	case "iterm":
		return displayITermImage(image)
	default:
		return ""
	}
}

func displayKittyImage(image []byte) string {
	encoded := base64.StdEncoding.EncodeToString(image)
	return fmt.Sprintf("\033_Ga=T,f=100;%s\033\\", encoded)
}

func displayITermImage(image []byte) string {
	encoded := base64.StdEncoding.EncodeToString(image)
	return fmt.Sprintf("\033]1337;File=inline=1;size=%d;width=auto;height=auto:%s\a\n", len(image), encoded)
}

func generateVideo(ctx context.Context, s *session.Session) tea.Cmd {
	return func() tea.Msg {
		return generatedMsg{err: s.Generate(ctx)}
	}
}

func selectImage(s *session.Session, path string) tea.Cmd {
	return func() tea.Msg {
		return imageMsg{path: path, err: s.SelectImage(path)}
	}
}

func saveVideo(s *session.Session, folder string) tea.Cmd {
	return func() tea.Msg {
		path, err := s.Download(folder)
		return savedMsg{path: path, err: err}
	}
}

func playVideo(s *session.Session) tea.Cmd {
	return func() tea.Msg {
		return playedMsg{err: s.Play()}
	}
}
