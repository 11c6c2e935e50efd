package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"fpp-ws/internal/discovery"
	"fpp-ws/internal/fpp"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(
		statusCmd,
		mediaCmd,
		playCmd,
		simpleCmd("stop", "Stop playback", (*fpp.Client).Stop),
		simpleCmd("pause", "Pause the running playlist", (*fpp.Client).Pause),
		simpleCmd("resume", "Resume a paused playlist", (*fpp.Client).Resume),
		simpleCmd("next", "Skip to the next playlist item", (*fpp.Client).Next),
		simpleCmd("prev", "Skip to the previous playlist item", (*fpp.Client).Previous),
		volumeCmd,
		brightnessCmd,
		powerCmd,
		discoverCmd,
	)

	playCmd.Flags().BoolVar(&playSequence, "sequence", false, "treat NAME as a sequence instead of a playlist")
	brightnessCmd.Flags().IntVar(&brightnessFade, "fade", 0, "fade duration in seconds")
	discoverCmd.Flags().DurationVar(&discoverWait, "wait", 5*time.Second, "how long to browse for devices")
}

// simpleCmd wraps a no-argument client call into a cobra command.
func simpleCmd(use, short string, fn func(*fpp.Client, context.Context) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			return fn(client, cmd.Context())
		},
	}
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the device's current player status",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		status, err := client.Refresh(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("State:    %s\n", status.State)
		fmt.Printf("Volume:   %d\n", status.Volume)
		if status.State == fpp.StatePlaying {
			fmt.Printf("Playing:  %s\n", status.Title())
			if status.Playlist != "" {
				fmt.Printf("Playlist: %s\n", status.Playlist)
			}
			fmt.Printf("Position: %d/%d seconds\n", status.Elapsed, status.Duration())
		}
		return nil
	},
}

var mediaCmd = &cobra.Command{
	Use:   "media",
	Short: "List playable playlists and sequences",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		items, err := client.ListMedia(cmd.Context())
		if err != nil && items == nil {
			return err
		}
		if err != nil {
			fmt.Printf("Warning: listing incomplete: %v\n", err)
		}
		for _, item := range items {
			fmt.Printf("%-10s %s\n", item.Type, item.Name)
		}
		return nil
	},
}

var playSequence bool

var playCmd = &cobra.Command{
	Use:   "play NAME",
	Short: "Start a playlist or sequence",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		item := fpp.MediaItem{Name: args[0], Type: fpp.MediaPlaylist}
		if playSequence {
			item.Type = fpp.MediaSequence
		}
		return client.Play(cmd.Context(), item)
	},
}

var volumeCmd = &cobra.Command{
	Use:   "volume LEVEL",
	Short: "Set the volume (0-100), or step it with +N / -N",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		arg := args[0]
		level, err := strconv.Atoi(strings.TrimPrefix(arg, "+"))
		if err != nil {
			return fmt.Errorf("invalid volume %q", arg)
		}
		if strings.HasPrefix(arg, "+") || strings.HasPrefix(arg, "-") {
			// Stepping needs a current volume to step from.
			if _, err := client.Refresh(cmd.Context()); err != nil {
				return err
			}
			return client.StepVolume(cmd.Context(), level)
		}
		return client.SetVolume(cmd.Context(), level)
	},
}

var brightnessFade int

var brightnessCmd = &cobra.Command{
	Use:   "brightness LEVEL",
	Short: "Set the output brightness (0-255, needs the fpp-brightness plugin)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		level, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid brightness %q", args[0])
		}
		// Refresh the plugin list so an absent plugin is reported
		// instead of a failing device command.
		if _, err := client.RefreshPlugins(cmd.Context()); err != nil {
			return err
		}
		return client.FadeBrightness(cmd.Context(), level, brightnessFade)
	},
}

var powerCmd = &cobra.Command{
	Use:       "power on|off",
	Short:     "Start or stop the player daemon (fppd)",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"on", "off"},
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		switch args[0] {
		case "on":
			return client.StartFPPD(cmd.Context())
		case "off":
			return client.StopFPPD(cmd.Context())
		default:
			return fmt.Errorf("invalid power state %q, want on or off", args[0])
		}
	},
}

var discoverWait time.Duration

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Find FPP devices on the local network via mDNS",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), discoverWait)
		defer cancel()

		found := 0
		err := discovery.Browse(ctx, func(d discovery.Device) {
			found++
			fmt.Printf("%s\t%s:%d\n", d.Name, d.Host, d.Port)
		})
		if err != nil {
			return err
		}
		if found == 0 {
			fmt.Println("No FPP devices found")
		}
		return nil
	},
}
