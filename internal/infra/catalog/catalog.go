// Package catalog reads and writes catalog files.
package catalog

import (
	"bytes"
	"io"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/osa030/trackdeck/internal/domain/playlist"
	"github.com/osa030/trackdeck/internal/domain/track"
)

// ErrEmptyFile is returned when a catalog file has no YAML document.
var ErrEmptyFile = errors.New("catalog file is empty")

// File is the on-disk catalog layout.
type File struct {
	Name   string       `yaml:"name"`
	Tracks []TrackEntry `yaml:"tracks" validate:"dive"`
}

// TrackEntry is a single track as written in a catalog file.
type TrackEntry struct {
	ID       string `yaml:"id" validate:"required"`
	Title    string `yaml:"title" validate:"required"`
	Artist   string `yaml:"artist,omitempty"`
	Album    string `yaml:"album,omitempty"`
	Duration string `yaml:"duration" validate:"required"`
	URL      string `yaml:"url,omitempty"`
	Cover    string `yaml:"cover,omitempty"`
}

// Load reads a catalog file.
func Load(path string) (*playlist.Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read catalog file")
	}

	c, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "catalog %s", path)
	}
	return c, nil
}

// Parse decodes catalog YAML. Unknown keys and malformed durations are errors.
func Parse(data []byte) (*playlist.Catalog, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyFile
		}
		return nil, errors.Wrap(err, "failed to parse catalog")
	}

	return f.Catalog()
}

// Catalog converts the file into a validated domain catalog.
func (f *File) Catalog() (*playlist.Catalog, error) {
	if err := validator.New().Struct(f); err != nil {
		return nil, errors.Wrap(err, "catalog validation failed")
	}

	tracks := make([]track.Track, 0, len(f.Tracks))
	for i, e := range f.Tracks {
		d, err := track.ParseDuration(e.Duration)
		if err != nil {
			return nil, errors.Wrapf(err, "track %d (%s)", i+1, e.ID)
		}
		tracks = append(tracks, track.Track{
			ID:       e.ID,
			Title:    e.Title,
			Artist:   e.Artist,
			Album:    e.Album,
			Duration: d,
			URL:      e.URL,
			CoverURL: e.Cover,
		})
	}

	c := playlist.NewCatalog(f.Name, tracks)
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// FromCatalog builds the file representation of c.
func FromCatalog(c *playlist.Catalog) *File {
	f := &File{Name: c.Name()}
	for _, t := range c.Tracks() {
		f.Tracks = append(f.Tracks, TrackEntry{
			ID:       t.ID,
			Title:    t.Title,
			Artist:   t.Artist,
			Album:    t.Album,
			Duration: t.DurationLabel(),
			URL:      t.URL,
			Cover:    t.CoverURL,
		})
	}
	return f
}

// Marshal encodes c as catalog YAML.
func Marshal(c *playlist.Catalog) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(FromCatalog(c)); err != nil {
		return nil, errors.Wrap(err, "failed to encode catalog")
	}
	if err := enc.Close(); err != nil {
		return nil, errors.Wrap(err, "failed to encode catalog")
	}
	return buf.Bytes(), nil
}

// Write writes c to path.
func Write(path string, c *playlist.Catalog) error {
	data, err := Marshal(c)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(err, "failed to write catalog file")
	}
	return nil
}

// Resolve loads the catalog at path, or returns the built-in catalog when path is empty.
func Resolve(path string) (*playlist.Catalog, error) {
	if path == "" {
		return Builtin(), nil
	}
	return Load(path)
}
