//go:build nomidi

package plugin

import (
	"fmt"
	"time"

	Ot "github.com/maroda/ostinato/types"
)

type MIDIOutput struct{}

func (m *MIDIOutput) WriteSnapshot(s *Ot.RenderSnapshot) error {
	return fmt.Errorf("MIDI support not compiled in this build")
}

func (m *MIDIOutput) WriteBatch(snaps []*Ot.RenderSnapshot) error {
	return fmt.Errorf("MIDI support not compiled in this build")
}

func (m *MIDIOutput) QueryRange(start, end time.Time) ([]*Ot.RenderSnapshot, error) {
	return nil, fmt.Errorf("MIDI support not compiled in this build")
}

func (m *MIDIOutput) Flush() error { return nil }
func (m *MIDIOutput) Close() error { return nil }
func (m *MIDIOutput) Type() string { return "midi-disabled" }
