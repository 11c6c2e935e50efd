// fppctl is a command-line remote control for a Falcon Pi Player device.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"fpp-ws/internal/fpp"

	"github.com/spf13/cobra"
)

var (
	flagHost     string
	flagPort     int
	flagUsername string
	flagPassword string
	flagTimeout  time.Duration
)

var rootCmd = &cobra.Command{
	Use:           "fppctl",
	Short:         "Control a Falcon Pi Player over its HTTP API",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagHost, "host", "", "FPP device hostname or IP (required for all commands except discover)")
	rootCmd.PersistentFlags().IntVar(&flagPort, "port", fpp.DefaultPort, "FPP API port")
	rootCmd.PersistentFlags().StringVar(&flagUsername, "username", "", "HTTP basic auth username")
	rootCmd.PersistentFlags().StringVar(&flagPassword, "password", "", "HTTP basic auth password")
	rootCmd.PersistentFlags().DurationVar(&flagTimeout, "timeout", fpp.DefaultTimeout, "per-request timeout")
}

// newClient builds a client from the persistent flags.
func newClient() (*fpp.Client, error) {
	if flagHost == "" {
		return nil, fmt.Errorf("--host is required")
	}
	return fpp.NewClient(fpp.Config{
		Host:     flagHost,
		Port:     flagPort,
		Username: flagUsername,
		Password: flagPassword,
		Timeout:  flagTimeout,
	}), nil
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
