package main

import (
	"os"
	"os/exec"
	"runtime"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"kenall/config"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var verbose bool

	rootCmd := &cobra.Command{
		Use:           "kenall",
		Short:         "日本郵便 KEN_ALL.CSV のパーサーと取込ツール",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
			zerolog.SetGlobalLevel(zerolog.InfoLevel)
			if verbose {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			}

			if _, err := config.LoadConfig(); err != nil {
				log.Warn().Err(err).Msg("Failed to load config file. Using defaults.")
			}
			return nil
		},
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "デバッグログを出力する")

	rootCmd.AddCommand(loadCmd())
	rootCmd.AddCommand(dumpCmd())
	rootCmd.AddCommand(lookupCmd())
	rootCmd.AddCommand(runsCmd())
	rootCmd.AddCommand(downloadCmd())
	rootCmd.AddCommand(serveCmd())

	return rootCmd
}

func openBrowser(url string) {
	var err error
	switch runtime.GOOS {
	case "windows":
		err = exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	case "darwin":
		err = exec.Command("open", url).Start()
	default:
		err = exec.Command("xdg-open", url).Start()
	}
	if err != nil {
		log.Warn().Err(err).Str("url", url).Msg("Failed to open browser")
	}
}
