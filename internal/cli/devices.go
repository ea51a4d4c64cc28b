package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"meet-notes-recorder/internal/capture"
	"meet-notes-recorder/internal/config"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List available audio capture devices",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg := config.Load()
		src := capture.NewMalgoSource(
			cfg.Recording.AudioSampleRate,
			cfg.Recording.AudioChannels,
			cfg.Recording.AudioChunkFrames,
		)
		defer src.Close()

		devices, err := src.Devices()
		if err != nil {
			return err
		}
		if len(devices) == 0 {
			fmt.Println("no capture devices found")
			return nil
		}
		for i, d := range devices {
			fmt.Printf("%2d  %s\n", i, d.Name())
		}
		return nil
	},
}
