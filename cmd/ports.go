package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gitlab.com/gomidi/midi/v2"

	"github.com/icco/modmetro/internal/midiout"

	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
)

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "List MIDI output ports",
	Long: `List the MIDI output ports pulses can be mirrored to. Pass one of the names
as MODMETRO_MIDI_PORT or midi_port in a preset.`,
	Run: runPorts,
}

func init() {
	rootCmd.AddCommand(portsCmd)
}

func runPorts(cmd *cobra.Command, args []string) {
	defer midi.CloseDriver()

	names := midiout.Ports()
	if len(names) == 0 {
		fmt.Println("No MIDI output ports found.")
		return
	}
	for i, name := range names {
		fmt.Printf("%2d  %s\n", i, name)
	}
}
