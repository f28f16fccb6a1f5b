// Package state persists the quantizer's tuning and mode selection as JSON.
package state

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"

	"github.com/icco/xenqnt/internal/mapper"
	"github.com/icco/xenqnt/internal/tuning"
)

// DefaultName is the tuning name used when none has been loaded.
const DefaultName = "12-TET"

// Document is the persisted form of a quantizer session.
type Document struct {
	Scale          []Step      `json:"scale"`
	ScalaDirectory string      `json:"scalaDir"`
	TuningName     string      `json:"tuningName"`
	InputMode      mapper.Mode `json:"inputMappingMode"`
	CVMode         mapper.Mode `json:"cvMappingMode"`
}

// Step is a persisted scale step. Older documents store a bare cents value,
// which decodes as an enabled step.
type Step tuning.ScaleStep

func (s *Step) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] != '{' {
		var cents float64
		if err := json.Unmarshal(data, &cents); err != nil {
			return err
		}
		*s = Step{Cents: cents, Enabled: true}
		return nil
	}
	var step tuning.ScaleStep
	if err := json.Unmarshal(data, &step); err != nil {
		return err
	}
	*s = Step(step)
	return nil
}

// Default is 12-TET with every step enabled and proximity mapping on both inputs.
func Default() Document {
	return Document{
		Scale:      FromScale(tuning.DefaultScale()),
		TuningName: DefaultName,
	}
}

func FromScale(s tuning.Scale) []Step {
	steps := make([]Step, len(s))
	for i, st := range s {
		steps[i] = Step(st)
	}
	return steps
}

// Tuning returns the document's scale sorted by cents.
func (d Document) Tuning() tuning.Scale {
	s := make(tuning.Scale, len(d.Scale))
	for i, st := range d.Scale {
		s[i] = tuning.ScaleStep(st)
	}
	s.Sort()
	return s
}

// savedMode decodes a mapping mode leniently. An unknown name falls back to
// proximity instead of discarding the rest of the document.
type savedMode mapper.Mode

func (m *savedMode) UnmarshalText(text []byte) error {
	mode, err := mapper.ParseMode(string(text))
	if err != nil {
		mode = mapper.ModeProximity
	}
	*m = savedMode(mode)
	return nil
}

// Decode reads a document. Missing fields take their defaults, as do mapping
// modes this version does not know.
func Decode(r io.Reader) (Document, error) {
	var raw struct {
		Document
		InputMode savedMode `json:"inputMappingMode"`
		CVMode    savedMode `json:"cvMappingMode"`
	}
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return Default(), fault.Wrap(err, fmsg.WithDesc("decode state", "The saved state is not valid JSON"))
	}
	d := raw.Document
	d.InputMode = mapper.Mode(raw.InputMode)
	d.CVMode = mapper.Mode(raw.CVMode)
	if len(d.Scale) == 0 {
		d.Scale = FromScale(tuning.DefaultScale())
		if d.TuningName == "" {
			d.TuningName = DefaultName
		}
	}
	return d, nil
}

func Encode(w io.Writer, d Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(d); err != nil {
		return fault.Wrap(err, fmsg.With("encode state"))
	}
	return nil
}

// Load reads the document at path. A missing file yields the default document.
func Load(path string) (Document, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return Default(), fault.Wrap(err, fmsg.With("open state"))
	}
	defer f.Close()
	return Decode(f)
}

// Save writes the document atomically by renaming a temporary file over path.
func Save(path string, d Document) error {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fault.Wrap(err, fmsg.With("create state directory"))
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".state-*.json")
	if err != nil {
		return fault.Wrap(err, fmsg.With("create state file"))
	}
	defer os.Remove(tmp.Name())

	if err := Encode(tmp, d); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fault.Wrap(err, fmsg.With("write state"))
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fault.Wrap(err, fmsg.With(fmt.Sprintf("save state to %s", path)))
	}
	return nil
}

// DefaultPath is the state file under the user's configuration directory.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "xenqnt", "state.json")
}
