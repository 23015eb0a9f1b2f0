// internal/app/app.go
package app

import (
	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/llehouerou/vplay/internal/config"
	"github.com/llehouerou/vplay/internal/engine"
	"github.com/llehouerou/vplay/internal/keymap"
	"github.com/llehouerou/vplay/internal/playback"
	"github.com/llehouerou/vplay/internal/ui/playerview"
)

// Player is the part of *playback.Controller the UI drives.
type Player interface {
	State() playback.State
	Duration() float64
	Source() string
	RequestStart() error
	RequestStop() error
	RequestToggle() error
	RequestSeek(fraction float64) error
	NotifyTargetAvailable(s engine.Surface) error
	NotifyTargetLost() error
}

var _ Player = (*playback.Controller)(nil)

// terminalSurface is the render target backed by the terminal window.
type terminalSurface struct {
	id string
}

func (s terminalSurface) SurfaceID() string { return s.id }

// Model is the root application model.
type Model struct {
	Player    Player
	Sub       *playback.Subscription
	Keys      *keymap.Resolver
	Help      help.Model
	SeekStep  float64
	AutoStart bool // start playback once the terminal surface is attached
	Banner    string

	Display  playerview.State
	ShowHelp bool
	Width    int
	Height   int

	surface    terminalSurface
	attached   bool
	detached   bool // detached by the user, not re-attached on resize
	started    bool
	errVersion int
}

// Options configures New.
type Options struct {
	Source    string // shown until the controller reports its own
	Label     string // tag title, "" to show the file name
	SeekStep  float64
	AutoStart bool
	Banner    string
}

// New creates the UI model over p. sub must be a subscription on the same
// controller; the model consumes it until it ends.
func New(p Player, sub *playback.Subscription, opts Options) Model {
	step := opts.SeekStep
	if step <= 0 || step > 1 {
		step = config.DefaultSeekStep
	}
	source := p.Source()
	if source == "" {
		source = opts.Source
	}
	return Model{
		Player:    p,
		Sub:       sub,
		Keys:      keymap.Default(),
		Help:      playerview.NewHelp(),
		SeekStep:  step,
		AutoStart: opts.AutoStart,
		Banner:    opts.Banner,
		Display:   playerview.State{Player: p.State(), Source: source, Label: opts.Label},
		surface:   terminalSurface{id: "tty-" + uuid.NewString()},
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return m.WatchEvents()
}
