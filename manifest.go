// manifest.go — packard.yml project manifest.
//
// A project directory may carry a packard.yml describing the script to
// run and where the evaluation trace goes, so `packard run` works with
// no arguments:
//
//	name: adventure
//	entry: scenes/intro.psl
//	trace: out/eval_trace.log
//	debug: true
package packard

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ManifestName is the file looked up in the project directory.
const ManifestName = "packard.yml"

// DefaultTracePath is used when the manifest (or CLI) names no trace
// destination.
const DefaultTracePath = "eval_trace.log"

// Manifest is a decoded packard.yml.
type Manifest struct {
	Name  string `yaml:"name"`
	Entry string `yaml:"entry"`
	Trace string `yaml:"trace"`
	Debug bool   `yaml:"debug"`

	dir string
}

// ErrNoManifest reports that the directory holds no packard.yml.
var ErrNoManifest = errors.New("no " + ManifestName + " found")

// LoadManifest reads and validates dir/packard.yml.
func LoadManifest(dir string) (*Manifest, error) {
	path := filepath.Join(dir, ManifestName)
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", dir, ErrNoManifest)
		}
		return nil, fmt.Errorf("manifest: open %s: %w", path, err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)

	var m Manifest
	if err := decoder.Decode(&m); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("manifest: %s is empty", path)
		}
		return nil, fmt.Errorf("manifest: parse %s: %w", path, err)
	}

	if m.Entry == "" {
		return nil, fmt.Errorf("manifest: %s: entry must be provided", path)
	}
	if m.Trace == "" {
		m.Trace = DefaultTracePath
	}
	m.dir = dir
	return &m, nil
}

// EntryPath resolves the entry script relative to the manifest's
// directory.
func (m *Manifest) EntryPath() string { return m.resolve(m.Entry) }

// TracePath resolves the trace destination relative to the manifest's
// directory.
func (m *Manifest) TracePath() string { return m.resolve(m.Trace) }

func (m *Manifest) resolve(p string) string {
	if filepath.IsAbs(p) || m.dir == "" {
		return p
	}
	return filepath.Join(m.dir, p)
}
