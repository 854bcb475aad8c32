package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/harun/sessionhooks/pkg/naming"
)

var errNoTitle = errors.New("no title pattern matched")

var nameCmd = &cobra.Command{
	Use:   "name [text]",
	Short: "Print the pattern-based title for a message",
	Long: `Print the session title the auto-session-name plugin would pick for a
message. The message is read from the arguments, or from stdin when none are
given. Exits non-zero when no pattern matches.`,
	RunE: runName,
}

func init() {
	rootCmd.AddCommand(nameCmd)
}

func runName(cmd *cobra.Command, args []string) error {
	message, err := readMessage(cmd, args)
	if err != nil {
		return err
	}

	title, ok := naming.Generate(message)
	if !ok {
		return errNoTitle
	}

	fmt.Fprintln(cmd.OutOrStdout(), title)
	return nil
}

// readMessage joins the arguments, or reads stdin when there are none
func readMessage(cmd *cobra.Command, args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}

	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("failed to read stdin: %w", err)
	}

	message := strings.TrimSpace(string(data))
	if message == "" {
		return "", errors.New("no message given")
	}
	return message, nil
}
