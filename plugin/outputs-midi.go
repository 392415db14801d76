//go:build !nomidi

package plugin

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	Ot "github.com/maroda/ostinato/types"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
)

// MIDIOutput sonifies a render snapshot: one note per event,
// pitch from where the event sits on the cycle, an accented
// velocity for wraparound events. The cycle becomes a phrase.
type MIDIOutput struct {
	Port    drivers.Out
	Send    func(msg midi.Message) error
	Channel uint8
	Root    uint8   // MIDI note of scale degree zero
	Scale   []uint8 // intervals in semitones, walked cumulatively
	ScNotes []uint8 // realized scale notes from Root
	ArpMS   int     // gap between notes of one snapshot
	WG      sync.WaitGroup
}

func NewMIDIOutput(port int, arpMS int, root uint8, scale []uint8) (*MIDIOutput, error) {
	out, err := midi.OutPort(port)
	if err != nil {
		slog.Error("Error opening MIDI port", slog.Int("port", port))
		return nil, fmt.Errorf("error opening MIDI port: %q", err)
	}

	send, err := midi.SendTo(out)
	if err != nil {
		slog.Error("Error sending to MIDI port", slog.Int("port", port))
		return nil, fmt.Errorf("error sending to MIDI port: %q", err)
	}

	if len(scale) == 0 {
		scale = []uint8{0, 2, 2, 1, 2, 2, 2, 1} // major
	}

	return &MIDIOutput{
		Port:    out,
		Send:    send,
		Root:    root,
		Scale:   scale,
		ScNotes: RealizeScale(root, scale, 3),
		ArpMS:   arpMS,
	}, nil
}

// RealizeScale walks the interval list cumulatively from the root
// across the given number of octaves
func RealizeScale(root uint8, intervals []uint8, octaves int) []uint8 {
	var notes []uint8
	note := int(root)
	for o := 0; o < octaves; o++ {
		for _, iv := range intervals {
			note += int(iv)
			if note > 127 {
				return notes
			}
			notes = append(notes, uint8(note))
		}
	}
	return notes
}

// NoteForSegment picks a scale note from where the event's earlier
// endpoint sits in the cycle window
func NoteForSegment(seg Ot.RenderSegment, window Ot.CycleWindow, notes []uint8) uint8 {
	if len(notes) == 0 {
		return 60
	}
	span := window.End.Sub(window.Start)
	if span <= 0 {
		return notes[0]
	}
	frac := float64(seg.X[1].Sub(window.Start)) / float64(span)
	idx := int(frac * float64(len(notes)))
	if idx < 0 {
		idx = 0
	}
	if idx >= len(notes) {
		idx = len(notes) - 1
	}
	return notes[idx]
}

// VelocityForSegment accents wraparound events
func VelocityForSegment(seg Ot.RenderSegment) uint8 {
	if seg.Wrapped {
		return 120
	}
	return 90
}

// NoteLength compresses the event duration into a playable gate,
// clamped to [50ms, 2s]
func NoteLength(seg Ot.RenderSegment, window Ot.CycleWindow) time.Duration {
	span := window.End.Sub(window.Start)
	if span <= 0 {
		return 50 * time.Millisecond
	}
	frac := float64(seg.X[3].Sub(seg.X[1])) / float64(span)
	gate := time.Duration(frac * float64(2*time.Second))
	if gate < 50*time.Millisecond {
		gate = 50 * time.Millisecond
	}
	if gate > 2*time.Second {
		gate = 2 * time.Second
	}
	return gate
}

func (mo *MIDIOutput) SendNoteOnMIDI(midic, midin, midiv uint8) error {
	return mo.Send(midi.NoteOn(midic, midin, midiv))
}

func (mo *MIDIOutput) SendNoteOffMIDI(midic, midin uint8) error {
	return mo.Send(midi.NoteOff(midic, midin))
}

// WriteSnapshot arpeggiates the snapshot, one goroutine per pass
func (mo *MIDIOutput) WriteSnapshot(s *Ot.RenderSnapshot) error {
	mo.WG.Add(1)
	go func() {
		defer mo.WG.Done()
		for _, seg := range s.Segments {
			note := NoteForSegment(seg, s.Window, mo.ScNotes)
			vel := VelocityForSegment(seg)

			if err := mo.SendNoteOnMIDI(mo.Channel, note, vel); err != nil {
				slog.Error("NoteOn event failed")
				continue
			}
			time.Sleep(NoteLength(seg, s.Window))
			if err := mo.SendNoteOffMIDI(mo.Channel, note); err != nil {
				slog.Error("NoteOff event failed, attempting Flush")
				mo.Flush()
			}
			time.Sleep(time.Duration(mo.ArpMS) * time.Millisecond)
		}
	}()

	return nil
}

func (mo *MIDIOutput) WriteBatch(snaps []*Ot.RenderSnapshot) error {
	for _, s := range snaps {
		if err := mo.WriteSnapshot(s); err != nil {
			return err
		}
	}
	return nil
}

// QueryRange is not meaningful for a sound device
func (mo *MIDIOutput) QueryRange(start, end time.Time) ([]*Ot.RenderSnapshot, error) {
	return nil, fmt.Errorf("MIDI output cannot be queried")
}

func (mo *MIDIOutput) Flush() error {
	return mo.Send(midi.ControlChange(mo.Channel, midi.AllNotesOff, midi.Off))
}

func (mo *MIDIOutput) Close() error {
	mo.WG.Wait()

	if mo.Port != nil {
		mo.Port.Close()
		midi.CloseDriver()
	}
	return nil
}

func (mo *MIDIOutput) Type() string { return "MIDI" }
