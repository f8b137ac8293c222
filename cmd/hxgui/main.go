package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "hxgui",
		Short: "HTML-over-the-wire rendering gateway for the OVOS GUI",
		Long: `hxgui connects to an OpenVoiceOS GUI message bus, maintains the
assistant's page catalog as a live HTML document, and streams HTML
fragments to browsers over server-sent events.

Browsers load a single page; everything after that arrives as SSE
fragments swapped in by htmx.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		serveCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
