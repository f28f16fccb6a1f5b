// Package quantizer drives the tuning lattice from two actors: an audio-rate
// actor that calls Process once per sample and a control actor (UI, file
// loading, persistence) that stages changes for it.
//
// The audio actor is the only writer of the authoritative scale and the only
// caller of the lattice builder. Control operations never block it: scale
// replacements are staged in a single pending slot (last writer wins), step
// toggles and mode changes are atomic flags consumed on the next sample.
package quantizer

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"

	"github.com/icco/xenqnt/internal/mapper"
	"github.com/icco/xenqnt/internal/scala"
	"github.com/icco/xenqnt/internal/state"
	"github.com/icco/xenqnt/internal/tuning"
)

const (
	MatrixSize  = 36 // step buttons and lights
	MaxChannels = 16 // polyphony of each input

	cvScanPeriod = 1.0 / 1000
	lightPeriod  = 1.0 / 60
)

var ErrMalformedSource = errors.New("malformed scale source")

// Path identifies one of the two inputs with its own mapping mode.
type Path int

const (
	PitchPath Path = iota
	CVPath
)

// ScaleSource supplies pitch-class offsets in cents from a named resource.
type ScaleSource interface {
	Name() string
	Load() ([]float64, error)
}

// Inputs is one sample of polyphonic input voltages.
type Inputs struct {
	Pitch       []float64
	CV          []float64
	CVConnected bool
}

// Snapshot is an immutable view of the last rebuild. While CV selects the
// degrees, Scale is the CV selection and Backup the scale restored on
// disconnect; otherwise the two are equal.
type Snapshot struct {
	Scale   tuning.Scale
	Backup  tuning.Scale
	Lattice *tuning.Lattice
	Version uint64
}

type light struct {
	enabled  atomic.Uint32
	selected atomic.Uint32
}

type Option func(*Controller)

func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = l
	}
}

// Controller owns the authoritative scale and its lattice.
type Controller struct {
	logger *slog.Logger

	// written by the control actor, consumed by Process
	pending      atomic.Pointer[tuning.Scale]
	triggers     [MatrixSize]atomic.Int32
	triggered    atomic.Bool
	modes        [2]atomic.Int32
	modesChanged atomic.Bool
	loadFailed   atomic.Bool

	// written by Process, read by anyone
	published atomic.Pointer[Snapshot]
	lights    [MatrixSize]light
	state     atomic.Int32

	// control actor bookkeeping
	name     atomic.Pointer[string]
	scalaDir atomic.Pointer[string]

	// owned by the audio actor
	scale       tuning.Scale
	backup      tuning.Scale
	lattice     *tuning.Lattice
	version     uint64
	rebuild     bool
	pitchMap    mapper.Func
	cvMap       mapper.Func
	cvConnected bool
	prevCV      [MaxChannels]float64
	prevCVLen   int
	prevCVValid bool
	cvTimer     float64
	lightTimer  float64
	blink       blinker
	selected    [MaxChannels]int
	selectedLen int
}

// New returns a controller tuned to 12-TET with every step enabled.
func New(opts ...Option) *Controller {
	c := &Controller{logger: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}
	c.scale = tuning.DefaultScale()
	c.backup = c.scale.Clone()
	c.setName(state.DefaultName)
	c.setScalaDir("")
	c.rebuildLattice()
	c.publishLights()
	return c
}

// Process is the per-sample entry point of the audio actor. It writes one
// quantized voltage per pitch channel into out and returns the channel count.
func (c *Controller) Process(sampleTime float64, in Inputs, out []float64) int {
	if p := c.pending.Swap(nil); p != nil {
		c.adopt(*p)
	}
	if c.triggered.Swap(false) {
		c.applyTriggers()
	}
	modesChanged := c.modesChanged.Swap(false)
	if c.rebuild {
		c.rebuild = false
		c.rebuildLattice()
	} else if modesChanged {
		c.resolve()
	}

	c.trackCV(sampleTime, in)

	if c.loadFailed.Swap(false) {
		c.blink.start()
	}

	n := c.quantize(in.Pitch, out)
	c.tickLights(sampleTime)
	c.state.Store(int32(c.currentState()))
	return n
}

func (c *Controller) applyTriggers() {
	for i := range c.triggers {
		if c.triggers[i].Swap(0)%2 == 0 || i >= len(c.scale) {
			continue
		}
		c.scale[i].Enabled = !c.scale[i].Enabled
		c.rebuild = true
	}
}

// adopt makes a staged scale authoritative. The staged value itself is never
// written to, so the control actor may keep reading it.
func (c *Controller) adopt(s tuning.Scale) {
	c.scale = append(c.scale[:0], s...)
	c.backup = append(c.backup[:0], s...)
	c.prevCVValid = false
	c.rebuild = true
}

// rebuildLattice swaps in a freshly built lattice. On failure the previous
// lattice stays in place.
func (c *Controller) rebuildLattice() {
	l, err := tuning.Build(c.scale)
	if err != nil {
		return
	}
	c.lattice = l
	c.version++
	c.resolve()
	backup := c.scale
	if c.cvConnected {
		backup = c.backup
	}
	c.published.Store(&Snapshot{
		Scale:   c.scale.Clone(),
		Backup:  backup.Clone(),
		Lattice: l,
		Version: c.version,
	})
}

func (c *Controller) resolve() {
	c.pitchMap = mapper.Resolve(mapper.Mode(c.modes[PitchPath].Load()), c.lattice, true)
	c.cvMap = mapper.Resolve(mapper.Mode(c.modes[CVPath].Load()), c.lattice, false)
}

func (c *Controller) trackCV(dt float64, in Inputs) {
	switch {
	case in.CVConnected && !c.cvConnected:
		c.backup = append(c.backup[:0], c.scale...)
		c.prevCVValid = false
	case !in.CVConnected && c.cvConnected:
		c.scale = append(c.scale[:0], c.backup...)
		c.rebuild = true
		c.cvTimer = 0
	}
	c.cvConnected = in.CVConnected
	if !in.CVConnected {
		return
	}

	c.cvTimer += dt
	if c.cvTimer < cvScanPeriod {
		return
	}
	c.cvTimer = math.Mod(c.cvTimer, cvScanPeriod)
	c.scanCV(in.CV)
}

// scanCV enables exactly the degrees nearest to the CV voltages.
func (c *Controller) scanCV(cv []float64) {
	n := min(len(cv), MaxChannels)
	if c.prevCVValid && n == c.prevCVLen && equalVolts(c.prevCV[:n], cv[:n]) {
		return
	}
	for i := range c.scale {
		c.scale[i].Enabled = false
	}
	for _, v := range cv[:n] {
		if idx := c.cvMap(v).ScaleIndex; idx >= 0 && idx < len(c.scale) {
			c.scale[idx].Enabled = true
		}
	}
	c.rebuild = true
	copy(c.prevCV[:], cv[:n])
	c.prevCVLen = n
	c.prevCVValid = true
}

func (c *Controller) quantize(pitch, out []float64) int {
	n := min(len(pitch), len(out), MaxChannels)
	for i := 0; i < n; i++ {
		st := c.pitchMap(pitch[i])
		out[i] = st.Voltage
		c.selected[i] = st.ScaleIndex
	}
	c.selectedLen = n
	return n
}

func (c *Controller) tickLights(dt float64) {
	c.lightTimer += dt
	if c.lightTimer < lightPeriod {
		return
	}
	c.blink.advance(c.lightTimer)
	c.lightTimer = 0
	c.publishLights()
}

func (c *Controller) publishLights() {
	for i := range c.lights {
		var enabled, selected float32
		if i < len(c.scale) {
			switch {
			case c.blink.active():
				if c.blink.lit() {
					enabled = 1
				}
			case c.scale[i].Enabled:
				enabled = 1
			}
			for _, idx := range c.selected[:c.selectedLen] {
				if idx == i {
					selected = 1
					break
				}
			}
		}
		c.lights[i].enabled.Store(math.Float32bits(enabled))
		c.lights[i].selected.Store(math.Float32bits(selected))
	}
}

func (c *Controller) currentState() State {
	switch {
	case c.blink.active():
		return ErrorBlink
	case c.rebuild || c.pending.Load() != nil:
		return RebuildPending
	case c.cvConnected:
		return CvEngaged
	}
	return Idle
}

func equalVolts(a, b []float64) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Snapshot returns the scale and lattice of the most recent rebuild.
func (c *Controller) Snapshot() *Snapshot {
	return c.published.Load()
}

// Lights returns the brightness of the enabled and selected lights of step i.
func (c *Controller) Lights(i int) (enabled, selected float32) {
	if i < 0 || i >= MatrixSize {
		return 0, 0
	}
	return math.Float32frombits(c.lights[i].enabled.Load()), math.Float32frombits(c.lights[i].selected.Load())
}

func (c *Controller) State() State {
	return State(c.state.Load())
}

func (c *Controller) Name() string {
	return *c.name.Load()
}

func (c *Controller) ScalaDir() string {
	return *c.scalaDir.Load()
}

func (c *Controller) setName(name string) {
	c.name.Store(&name)
}

func (c *Controller) setScalaDir(dir string) {
	c.scalaDir.Store(&dir)
}

func (c *Controller) MappingMode(p Path) mapper.Mode {
	if p < 0 || int(p) >= len(c.modes) {
		return mapper.ModeProximity
	}
	return mapper.Mode(c.modes[p].Load())
}

// SetMappingMode changes the mode of one input. The lattice is kept; only the
// resolved mapping is replaced on the next sample.
func (c *Controller) SetMappingMode(p Path, m mapper.Mode) {
	if p < 0 || int(p) >= len(c.modes) {
		return
	}
	c.modes[p].Store(int32(m))
	c.modesChanged.Store(true)
}

// ToggleStep flips step i on the next sample.
func (c *Controller) ToggleStep(i int) {
	if i < 0 || i >= MatrixSize {
		return
	}
	c.triggers[i].Add(1)
	c.triggered.Store(true)
}

func (c *Controller) SetEnabledAll(enabled bool) {
	s := c.stagingBase()
	for i := range s {
		s[i].Enabled = enabled
	}
	c.stage(s)
}

func (c *Controller) RandomizeEnabled() {
	s := c.stagingBase()
	for i := range s {
		s[i].Enabled = rand.IntN(2) == 0
	}
	c.stage(s)
}

// Reset returns to 12-TET with proximity mapping on both inputs.
func (c *Controller) Reset() {
	c.stage(tuning.DefaultScale())
	c.setName(state.DefaultName)
	c.SetMappingMode(PitchPath, mapper.ModeProximity)
	c.SetMappingMode(CVPath, mapper.ModeProximity)
	c.logger.Info("tuning reset", "name", state.DefaultName)
}

// LoadScale replaces the tuning with the one read from src. On failure the
// current tuning and name are kept and the error feedback starts.
func (c *Controller) LoadScale(src ScaleSource) error {
	cents, err := src.Load()
	var s tuning.Scale
	if err == nil {
		s = tuning.FromCents(cents)
		err = s.Validate()
	}
	if err != nil {
		c.loadFailed.Store(true)
		c.logger.Warn("scale rejected", "source", src.Name(), "keeping", c.Name(), "err", err)
		return fault.Wrap(fmt.Errorf("%w: %w", ErrMalformedSource, err),
			fmsg.WithDesc("load "+src.Name(), fmt.Sprintf("Could not load %s, keeping %s", src.Name(), c.Name())))
	}

	c.stage(s)
	c.setName(src.Name())
	c.logger.Info("scale loaded", "name", src.Name(), "steps", len(s), "period", s.Period())
	return nil
}

// LoadScaleFile loads a .scl file and remembers its directory for the next browse.
func (c *Controller) LoadScaleFile(path string) error {
	if dir := filepath.Dir(path); isDir(dir) {
		c.setScalaDir(dir)
	}
	return c.LoadScale(scala.File(path))
}

// Document captures the persisted state.
func (c *Controller) Document() state.Document {
	return state.Document{
		Scale:          state.FromScale(c.stagingBase()),
		ScalaDirectory: c.ScalaDir(),
		TuningName:     c.Name(),
		InputMode:      c.MappingMode(PitchPath),
		CVMode:         c.MappingMode(CVPath),
	}
}

// Restore stages a persisted state. An invalid scale leaves the tuning as is.
func (c *Controller) Restore(d state.Document) error {
	s := d.Tuning()
	if err := s.Validate(); err != nil {
		return fault.Wrap(err, fmsg.WithDesc("restore state", "The saved scale is invalid, keeping the current tuning"))
	}
	c.stage(s)
	c.setName(d.TuningName)
	c.setScalaDir(d.ScalaDirectory)
	c.SetMappingMode(PitchPath, d.InputMode)
	c.SetMappingMode(CVPath, d.CVMode)
	c.logger.Debug("state restored", "name", d.TuningName, "steps", len(s))
	return nil
}

func (c *Controller) stage(s tuning.Scale) {
	c.pending.Store(&s)
}

// stagingBase is the newest user scale the control actor knows of: the pending
// one if the audio actor has not taken it yet, otherwise the last published
// backup. A CV selection is never staged or persisted.
func (c *Controller) stagingBase() tuning.Scale {
	if p := c.pending.Load(); p != nil {
		return p.Clone()
	}
	return c.published.Load().Backup.Clone()
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
