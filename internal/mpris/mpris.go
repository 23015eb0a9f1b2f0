//go:build linux

package mpris

import (
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/quarckster/go-mpris-server/pkg/server"
	"github.com/rs/zerolog"

	"github.com/llehouerou/vplay/internal/engine"
	vlog "github.com/llehouerou/vplay/internal/log"
)

// Adapter exposes a Player on the session bus as org.mpris.MediaPlayer2.vplay.
type Adapter struct {
	server *server.Server
	log    zerolog.Logger
}

// New creates and starts a new MPRIS adapter. tags describe the session's
// source; an embedded cover is exported under the XDG cache dir.
func New(p Player, tags engine.Tags) (*Adapter, error) {
	pa := &playerAdapter{
		player:   p,
		tags:     tags,
		coverDir: filepath.Join(xdg.CacheHome, "vplay", "covers"),
	}
	a := &Adapter{
		server: server.NewServer("vplay", &rootAdapter{}, pa),
		log:    vlog.WithComponent("mpris"),
	}

	// Start the server in background
	go func() {
		if err := a.server.Listen(); err != nil {
			a.log.Warn().Err(err).Msg("mpris server stopped")
		}
	}()

	return a, nil
}

// Close stops the adapter and releases D-Bus resources.
func (a *Adapter) Close() error {
	return a.server.Stop()
}
