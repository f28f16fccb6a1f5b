// Package audio hosts the quantizer on an audio output stream. The stream's
// Read callback is the audio-rate actor: every sample it gathers the held input
// voltages, runs them through the quantizer and renders one oscillator per
// quantized output channel.
package audio

import (
	"fmt"
	"math"
	"strings"
	"sync/atomic"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
	"github.com/ebitengine/oto/v3"

	"github.com/icco/xenqnt/internal/quantizer"
)

const (
	SampleRate   = 44100
	channelCount = 2 // stereo
	bitDepth     = 2 // 16-bit

	// MiddleC is the frequency of 0 V.
	MiddleC = 261.6256
)

// WaveType represents different oscillator wave shapes
type WaveType int

const (
	WaveSine WaveType = iota
	WaveSquare
	WaveSawtooth
	WaveTriangle
)

var waveNames = []string{"sine", "square", "saw", "triangle"}

func (w WaveType) String() string {
	if w < 0 || int(w) >= len(waveNames) {
		return "sine"
	}
	return waveNames[w]
}

// ParseWave accepts the names printed by WaveType.String.
func ParseWave(s string) (WaveType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range waveNames {
		if s == name {
			return WaveType(i), nil
		}
	}
	if s == "sawtooth" {
		return WaveSawtooth, nil
	}
	return WaveSine, fault.New(fmt.Sprintf("unknown wave %q", s), ftag.With(ftag.InvalidArgument))
}

// Processor turns one sample of input voltages into quantized output voltages.
type Processor interface {
	Process(sampleTime float64, in quantizer.Inputs, out []float64) int
}

// voice follows one pitch slot
type voice struct {
	frequency float64
	phase     float64
	envelope  float64 // 0-1
	velocity  float64
	active    bool
}

// Synth renders the quantized pitch channels. Pitch and CV are the input banks
// written by the MIDI listener.
type Synth struct {
	Pitch *Bank
	CV    *Bank

	proc   Processor
	wave   atomic.Int32
	volume atomic.Uint64

	// owned by the audio callback
	voices [Channels]voice
	pitch  [Channels]float64
	cv     [Channels]float64
	out    [Channels]float64
	slots  [Channels]int
	held   [Channels]bool

	otoCtx *oto.Context
	player *oto.Player
}

func newSynth(p Processor) *Synth {
	s := &Synth{
		Pitch: NewBank(),
		CV:    NewBank(),
		proc:  p,
	}
	s.SetVolume(0.3)
	return s
}

// NewSynth opens the default audio device and starts driving p.
func NewSynth(p Processor) (*Synth, error) {
	op := &oto.NewContextOptions{
		SampleRate:   SampleRate,
		ChannelCount: channelCount,
		Format:       oto.FormatSignedInt16LE,
	}

	otoCtx, readyChan, err := oto.NewContext(op)
	if err != nil {
		return nil, fault.Wrap(err, fmsg.WithDesc("open audio", "Could not open the audio device"))
	}
	<-readyChan

	s := newSynth(p)
	s.otoCtx = otoCtx
	s.player = otoCtx.NewPlayer(&synthReader{synth: s})
	s.player.Play()

	return s, nil
}

// synthReader implements io.Reader for continuous audio generation
type synthReader struct {
	synth *Synth
}

func (r *synthReader) Read(buf []byte) (int, error) {
	s := r.synth
	numSamples := len(buf) / (channelCount * bitDepth)
	wave := WaveType(s.wave.Load())
	volume := math.Float64frombits(s.volume.Load())

	for i := 0; i < numSamples; i++ {
		sample := s.step(wave) * volume
		if sample > 1.0 {
			sample = 1.0
		} else if sample < -1.0 {
			sample = -1.0
		}

		sampleInt := int16(sample * 32767)

		idx := i * channelCount * bitDepth
		buf[idx] = byte(sampleInt)
		buf[idx+1] = byte(sampleInt >> 8)
		buf[idx+2] = byte(sampleInt)
		buf[idx+3] = byte(sampleInt >> 8)
	}

	return numSamples * channelCount * bitDepth, nil
}

// step advances the quantizer and every voice by one sample and returns the mix.
func (s *Synth) step(wave WaveType) float64 {
	np := s.Pitch.Gather(s.pitch[:], s.slots[:])
	nc := s.CV.Gather(s.cv[:], nil)
	in := quantizer.Inputs{
		Pitch:       s.pitch[:np],
		CV:          s.cv[:nc],
		CVConnected: nc > 0,
	}
	n := s.proc.Process(1.0/SampleRate, in, s.out[:])

	s.held = [Channels]bool{}
	for k := 0; k < n; k++ {
		j := s.slots[k]
		v := &s.voices[j]
		v.frequency = VoltsToFreq(s.out[k])
		v.velocity = s.Pitch.velocity(j)
		if !v.active {
			v.active = true
			v.phase = 0
			v.envelope = 0
		}
		s.held[j] = true
	}

	var sample float64
	for j := range s.voices {
		v := &s.voices[j]
		if !v.active {
			continue
		}
		sample += generateWave(wave, v.phase) * v.velocity * v.envelope * 0.2

		v.phase += v.frequency / SampleRate
		if v.phase >= 1.0 {
			v.phase -= math.Floor(v.phase)
		}

		if !s.held[j] {
			v.envelope *= 0.9995
			if v.envelope < 0.001 {
				v.active = false
			}
		} else if v.envelope < 1.0 {
			v.envelope += 0.001
			if v.envelope > 1.0 {
				v.envelope = 1.0
			}
		}
	}
	return sample
}

func generateWave(waveType WaveType, phase float64) float64 {
	switch waveType {
	case WaveSquare:
		if phase < 0.5 {
			return 0.8
		}
		return -0.8
	case WaveSawtooth:
		return 2*phase - 1
	case WaveTriangle:
		if phase < 0.5 {
			return 4*phase - 1
		}
		return 3 - 4*phase
	default:
		return math.Sin(2 * math.Pi * phase)
	}
}

func (s *Synth) SetWave(w WaveType) {
	s.wave.Store(int32(w))
}

// SetVolume sets the master volume (0.0 - 1.0)
func (s *Synth) SetVolume(vol float64) {
	vol = max(0, min(1, vol))
	s.volume.Store(math.Float64bits(vol))
}

// AllNotesOff releases every held input.
func (s *Synth) AllNotesOff() {
	s.Pitch.ReleaseAll()
	s.CV.ReleaseAll()
}

// Close releases all notes and stops the stream.
func (s *Synth) Close() error {
	s.AllNotesOff()
	if s.player != nil {
		s.player.Pause()
	}
	return nil
}

// VoltsToFreq converts 1 V/octave to Hz with 0 V at middle C.
func VoltsToFreq(v float64) float64 {
	return MiddleC * math.Exp2(v)
}
