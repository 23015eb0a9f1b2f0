package playerview

import (
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"

	"github.com/llehouerou/vplay/internal/keymap"
)

// shortHelp lists the actions shown in the footer, in order.
var shortHelp = []keymap.Action{
	keymap.ActionPlayPause,
	keymap.ActionStop,
	keymap.ActionSeekBack,
	keymap.ActionSeekForward,
	keymap.ActionSeekPercent,
	keymap.ActionToggleSurface,
	keymap.ActionQuit,
}

// helpBindings builds bubbles key bindings for the footer. Controls that the
// current state does not allow are disabled, which hides them.
func helpBindings(r *keymap.Resolver, c Controls, attached bool) []key.Binding {
	out := make([]key.Binding, 0, len(shortHelp))
	for _, a := range shortHelp {
		desc := describe(a, c, attached)
		helpKey := r.HelpKey(a)
		if a == keymap.ActionSeekPercent {
			helpKey = "0-9"
		}
		b := key.NewBinding(
			key.WithKeys(r.KeysFor(a)...),
			key.WithHelp(helpKey, desc),
		)
		b.SetEnabled(enabled(a, c))
		out = append(out, b)
	}
	return out
}

func describe(a keymap.Action, c Controls, attached bool) string {
	switch a {
	case keymap.ActionPlayPause:
		return strings.ToLower(c.PlayPauseLabel)
	case keymap.ActionStop:
		return "stop"
	case keymap.ActionSeekBack:
		return "back"
	case keymap.ActionSeekForward:
		return "fwd"
	case keymap.ActionSeekPercent:
		return "jump"
	case keymap.ActionToggleSurface:
		if attached {
			return "detach"
		}
		return "attach"
	case keymap.ActionQuit:
		return "quit"
	default:
		return string(a)
	}
}

func enabled(a keymap.Action, c Controls) bool {
	switch a {
	case keymap.ActionPlayPause:
		return c.PlayPause
	case keymap.ActionStop:
		return c.Stop
	case keymap.ActionSeekBack, keymap.ActionSeekForward, keymap.ActionSeekPercent:
		return c.Seek
	default:
		return true
	}
}

// NewHelp returns a help model styled for the footer.
func NewHelp() help.Model {
	h := help.New()
	h.ShortSeparator = " · "
	return h
}
