//go:build !nomidi

package ostinato

import (
	"log/slog"
	"strconv"
	"strings"

	Oe "github.com/maroda/ostinato/engine"
	Op "github.com/maroda/ostinato/plugin"
)

func InitMIDIOutput(view *CycleView, outputLocation string) error {
	midiPort := Oe.FillEnvVarInt("OSTINATO_PLUGIN_MIDI_PORT", 0)
	midiRoot := uint8(Oe.FillEnvVarInt("OSTINATO_PLUGIN_MIDI_ROOT", 60))
	midiArpD := Oe.FillEnvVarInt("OSTINATO_PLUGIN_MIDI_ARP_DELAY", 300)
	midiScale := Oe.FillEnvVar("OSTINATO_PLUGIN_MIDI_SCALE")

	slog.Info("Configuration found:",
		slog.Int("Port", midiPort),
		slog.Any("Root", midiRoot),
		slog.Int("ArpDelay", midiArpD),
		slog.String("Scale", midiScale),
	)

	var scaleI []uint8
	var scaleS []string
	scaleS = strings.Split(midiScale, ",")
	for _, v := range scaleS {
		interval, err := strconv.Atoi(v)
		if err != nil {
			slog.Error("Could not read MIDI_SCALE value, using default", slog.Any("error", err), slog.String("value", v))
			scaleI = []uint8{0, 2, 2, 1, 2, 2, 2, 1}
			break
		}
		scaleI = append(scaleI, uint8(interval))
	}

	output, err := Op.NewMIDIOutput(midiPort, midiArpD, midiRoot, scaleI)
	if err != nil {
		slog.Error("Failed to create adapter",
			slog.String("output", outputLocation),
			slog.Any("error", err))
		return err
	}
	view.Set.Output = output
	slog.Info("MIDI Adapter Enabled", slog.String("output", outputLocation))
	return nil
}
