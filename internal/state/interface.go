// internal/state/interface.go
package state

// Interface defines the history store contract for dependency injection and testing.
type Interface interface {
	SavePosition(e Entry)
	Get(source string) (*Entry, error)
	Recent(limit int) ([]Entry, error)
	Forget(source string) error
	Flush() error
	Close() error
}

// Verify Manager implements Interface at compile time.
var _ Interface = (*Manager)(nil)
