package engine

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"
)

// Tags is the embedded metadata of a media file.
type Tags struct {
	Title     string
	Artist    string
	Album     string
	Genre     string
	Year      int
	Track     int
	Cover     []byte
	CoverMIME string
}

// DisplayTitle returns the tag title, or the file name when it is empty.
func (t Tags) DisplayTitle(uri string) string {
	if t.Title != "" {
		return t.Title
	}
	if uri == "" {
		return ""
	}
	path, err := ResolvePath(uri)
	if err != nil {
		path = uri
	}
	return filepath.Base(path)
}

// Label joins artist and title for one-line display.
func (t Tags) Label(uri string) string {
	title := t.DisplayTitle(uri)
	if t.Artist == "" || t.Title == "" {
		return title
	}
	return t.Artist + " - " + title
}

// ReadTags reads ID3, Vorbis comment or MP4 tags from the source.
func ReadTags(uri string) (Tags, error) {
	path, err := ResolvePath(uri)
	if err != nil {
		return Tags{}, err
	}
	f, err := os.Open(path)
	if err != nil {
		return Tags{}, err
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		return Tags{}, err
	}
	track, _ := m.Track()
	t := Tags{
		Title:  strings.TrimSpace(m.Title()),
		Artist: strings.TrimSpace(m.Artist()),
		Album:  strings.TrimSpace(m.Album()),
		Genre:  m.Genre(),
		Year:   m.Year(),
		Track:  track,
	}
	if t.Artist == "" {
		t.Artist = strings.TrimSpace(m.AlbumArtist())
	}
	if pic := m.Picture(); pic != nil {
		t.Cover = pic.Data
		t.CoverMIME = pic.MIMEType
	}
	return t, nil
}
