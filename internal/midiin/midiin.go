// Package midiin feeds the synth's input banks from a MIDI input port. Notes on
// the CV channel hold CV voltages; every other channel plays the pitch input.
package midiin

import (
	"log/slog"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"github.com/icco/xenqnt/internal/audio"
)

const allNotesOff = 123

// NoCVChannel routes every channel to the pitch input.
const NoCVChannel = -1

// Event is a routed note or reset, reported for display.
type Event struct {
	Channel uint8
	Key     uint8
	On      bool
	CV      bool
	Reset   bool
}

// Router turns MIDI messages into held voltages. Handle must be called from a
// single goroutine.
type Router struct {
	Pitch     *audio.Bank
	CV        *audio.Bank
	CVChannel int
	Logger    *slog.Logger
	OnEvent   func(Event)
}

func (r *Router) Handle(msg midi.Message) {
	var ch, key, vel, cc, val uint8
	switch {
	case msg.GetNoteStart(&ch, &key, &vel):
		r.bank(ch).Press(key, vel)
		r.emit(Event{Channel: ch, Key: key, On: true, CV: r.isCV(ch)})
	case msg.GetNoteEnd(&ch, &key):
		r.bank(ch).Release(key)
		r.emit(Event{Channel: ch, Key: key, CV: r.isCV(ch)})
	case msg.GetControlChange(&ch, &cc, &val):
		if cc != allNotesOff {
			return
		}
		r.Pitch.ReleaseAll()
		r.CV.ReleaseAll()
		r.emit(Event{Channel: ch, Reset: true})
	default:
		if r.Logger != nil {
			r.Logger.Debug("unhandled MIDI message", "msg", msg.String())
		}
	}
}

func (r *Router) isCV(ch uint8) bool {
	return r.CVChannel >= 0 && int(ch) == r.CVChannel
}

func (r *Router) bank(ch uint8) *audio.Bank {
	if r.isCV(ch) {
		return r.CV
	}
	return r.Pitch
}

func (r *Router) emit(e Event) {
	if r.OnEvent != nil {
		r.OnEvent(e)
	}
}

// Conn is an open, listening input port.
type Conn struct {
	Port   string
	stop   func()
	in     drivers.In
	driver *rtmididrv.Driver
}

// OpenVirtual creates a virtual input port other applications can send to.
func OpenVirtual(name string, r *Router) (*Conn, error) {
	driver, err := rtmididrv.New()
	if err != nil {
		return nil, fault.Wrap(err, fmsg.WithDesc("midi driver", "Could not initialize the MIDI driver"))
	}
	in, err := driver.OpenVirtualIn(name)
	if err != nil {
		_ = driver.Close()
		return nil, fault.Wrap(err, fmsg.WithDesc("virtual port", "Could not create the virtual MIDI port"))
	}
	c, err := listen(in, r)
	if err != nil {
		_ = driver.Close()
		return nil, err
	}
	c.driver = driver
	return c, nil
}

// Open connects to an existing input port by name.
func Open(name string, r *Router) (*Conn, error) {
	in, err := midi.FindInPort(name)
	if err != nil {
		return nil, fault.Wrap(err, fmsg.WithDesc("find port", "MIDI input "+name+" not found"))
	}
	return listen(in, r)
}

// Ports lists the available input port names.
func Ports() []string {
	var names []string
	for _, in := range midi.GetInPorts() {
		names = append(names, in.String())
	}
	return names
}

func listen(in drivers.In, r *Router) (*Conn, error) {
	stop, err := midi.ListenTo(in, func(msg midi.Message, timestampms int32) {
		r.Handle(msg)
	}, midi.HandleError(func(err error) {
		if r.Logger != nil {
			r.Logger.Warn("MIDI listener error", "port", in.String(), "err", err)
		}
	}))
	if err != nil {
		_ = in.Close()
		return nil, fault.Wrap(err, fmsg.WithDesc("listen", "Could not listen on "+in.String()))
	}
	return &Conn{Port: in.String(), stop: stop, in: in}, nil
}

// Close stops listening and closes the port.
func (c *Conn) Close() error {
	c.stop()
	err := c.in.Close()
	if c.driver != nil {
		if derr := c.driver.Close(); err == nil {
			err = derr
		}
	}
	return err
}
