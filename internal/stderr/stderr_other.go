//go:build !unix

package stderr

import "os"

// Capture is a no-op outside unix: no native backend writes to fd 2 there.
type Capture struct{}

// Start is a no-op.
func Start(func(line string)) (*Capture, error) {
	return &Capture{}, nil
}

// WriteOriginal writes to stderr.
func (c *Capture) WriteOriginal(msg string) {
	_, _ = os.Stderr.WriteString(msg)
}

// Stop is a no-op.
func (c *Capture) Stop() {}
