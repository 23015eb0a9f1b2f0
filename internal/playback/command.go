package playback

import (
	"fmt"

	"github.com/llehouerou/vplay/internal/engine"
)

// CommandKind tags a Command.
type CommandKind int

const (
	CmdStart CommandKind = iota
	CmdSetPause
	CmdStop
	CmdSeek
	CmdSetSurface
	CmdSetSource
)

func (k CommandKind) String() string {
	switch k {
	case CmdStart:
		return "start"
	case CmdSetPause:
		return "set_pause"
	case CmdStop:
		return "stop"
	case CmdSeek:
		return "seek"
	case CmdSetSurface:
		return "set_surface"
	case CmdSetSource:
		return "set_source"
	default:
		return "unknown"
	}
}

// Command is an immutable request executed by the controller's worker.
// Only the field matching Kind is meaningful.
type Command struct {
	Kind     CommandKind
	Pause    bool
	Position float64 // seconds
	Surface  engine.Surface
	URI      string
}

func Start() Command               { return Command{Kind: CmdStart} }
func SetPause(paused bool) Command { return Command{Kind: CmdSetPause, Pause: paused} }
func Stop() Command                { return Command{Kind: CmdStop} }
func Seek(seconds float64) Command { return Command{Kind: CmdSeek, Position: seconds} }
func SetSource(uri string) Command { return Command{Kind: CmdSetSource, URI: uri} }
func SetSurface(s engine.Surface) Command {
	return Command{Kind: CmdSetSurface, Surface: s}
}

func (c Command) String() string {
	switch c.Kind {
	case CmdSetPause:
		return fmt.Sprintf("set_pause(%t)", c.Pause)
	case CmdSeek:
		return fmt.Sprintf("seek(%.3f)", c.Position)
	case CmdSetSurface:
		if c.Surface == nil {
			return "set_surface(nil)"
		}
		return "set_surface(" + c.Surface.SurfaceID() + ")"
	case CmdSetSource:
		return fmt.Sprintf("set_source(%q)", c.URI)
	default:
		return c.Kind.String()
	}
}
