package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	httpcmd "github.com/calmora/calmora_backend/cmd/http"
	systemcmd "github.com/calmora/calmora_backend/cmd/system"
)

var (
	cfgFile string
)

var rootCmd = &cobra.Command{
	Use:   "calmora",
	Short: "Calmora online therapy platform backend.",
	Long: `Calmora is the backend for an online therapy marketplace. It manages the
full lifecycle of a booked session, from payment and intake through the
time-gated waiting room to the live call and post-session feedback, plus
the daily mood-check-in prompt throttle.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global config flag, available for all commands.
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.yaml", "config file path")

	// Attach top-level command trees.
	rootCmd.AddCommand(systemcmd.NewSystemCommand())
	rootCmd.AddCommand(httpcmd.NewHTTPCommand())
}
