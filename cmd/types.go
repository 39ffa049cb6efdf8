package cmd

import (
	"os"
	"strings"
)

// generatedMsg is sent when a generation finishes, successfully or not.
type generatedMsg struct {
	err error
}

// savedMsg is sent after the video was written to the output folder.
type savedMsg struct {
	path string
	err  error
}

// playedMsg is sent after the system player was launched.
type playedMsg struct {
	err error
}

// imageMsg is sent after an image path was loaded.
type imageMsg struct {
	path string
	err  error
}

type focus int

const (
	focusPrompt focus = iota
	focusImage
	focusButtons
)

type button int

const (
	buttonPlay button = iota
	buttonDownload
	buttonRegenerate
	buttonCount
)

func (b button) String() string {
	switch b {
	case buttonPlay:
		return "Play"
	case buttonDownload:
		return "Download"
	default:
		return "Regenerate"
	}
}

var validDisplayProtocols = []string{
	"auto",
	"kitty",
	"iterm",
	"none",
}

// detectDisplayProtocol picks the inline image protocol for "auto".
func detectDisplayProtocol(protocol string) string {
	if protocol != "auto" {
		return protocol
	}
	switch {
	case os.Getenv("KITTY_WINDOW_ID") != "" || strings.Contains(os.Getenv("TERM"), "kitty"):
		return "kitty"
	case os.Getenv("TERM_PROGRAM") == "iTerm.app" || os.Getenv("TERM_PROGRAM") == "WezTerm":
		return "iterm"
	default:
		return "none"
	}
}
