package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"github.com/fakeyudi/reflecto/internal/tui"
)

var flagTranscript bool

var replayCmd = &cobra.Command{
	Use:   "replay <session-id>",
	Short: "Re-subscribe to a session's event stream",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		sessionID := args[0]

		// Transcript mode fetches the journaled record instead of streaming.
		if flagTranscript {
			transcript, err := client.FetchReplay(context.Background(), sessionID)
			if err != nil {
				return fmt.Errorf("fetching transcript: %w", err)
			}
			var pretty bytes.Buffer
			if err := json.Indent(&pretty, transcript, "", "  "); err != nil {
				pretty.Write(transcript)
			}
			fmt.Fprintln(cmd.OutOrStdout(), pretty.String())
			return nil
		}

		if flagPlain || !term.IsTerminal(os.Stdout.Fd()) {
			return runPlain(client, GetConfig(), sessionID, cmd.OutOrStdout())
		}
		return tui.Run(client, GetConfig(), false, sessionID)
	},
}

func init() {
	replayCmd.Flags().BoolVar(&flagTranscript, "transcript", false, "print the recorded transcript instead of streaming")
	replayCmd.Flags().BoolVar(&flagPlain, "plain", false, "line-oriented output instead of the full-screen UI")
	rootCmd.AddCommand(replayCmd)
}
