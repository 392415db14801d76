//go:build nomidi

package ostinato

import (
	"fmt"
	"log/slog"
)

func InitMIDIOutput(view *CycleView, outputLocation string) error {
	slog.Warn("MIDI support not compiled in this build")
	return fmt.Errorf("MIDI support not available")
}
