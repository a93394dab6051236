package cmd

import (
	"os"

	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"github.com/fakeyudi/reflecto/internal/tui"
)

var flagPlain bool

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start a reflection session and follow its event stream",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}

		if flagPlain || !term.IsTerminal(os.Stdout.Fd()) {
			return runPlain(client, GetConfig(), "", cmd.OutOrStdout())
		}
		return tui.Run(client, GetConfig(), true, "")
	},
}

func init() {
	startCmd.Flags().BoolVar(&flagPlain, "plain", false, "line-oriented output instead of the full-screen UI")
	rootCmd.AddCommand(startCmd)
}
