package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kovyrin/pdfish/internal/channel"
	"github.com/kovyrin/pdfish/internal/workflow"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Serve intents and channel calls read from standard input",
	Long: `Session keeps one ingestion host alive and reads commands line by line:

  view <mime-type> <uri>   deliver a view intent
  call <method>            invoke a channel method

Every command prints one line: "ok <value>", "ok null" or "error <message>".
Blank lines and lines starting with # are skipped.`,
	Args: cobra.NoArgs,
	RunE: runSession,
}

func init() {
	RootCmd.AddCommand(sessionCmd)
}

func runSession(cmd *cobra.Command, _ []string) error {
	// Standard input carries commands here, so "-" never opens.
	h, err := newHost(nil)
	if err != nil {
		return err
	}
	defer h.close()

	return serveSession(h.ingestor, cmd.InOrStdin(), cmd.OutOrStdout())
}

// serveSession runs the line protocol until in is exhausted.
func serveSession(ingestor *workflow.Ingestor, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fmt.Fprintln(out, sessionReply(ingestor, line))
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read session input: %w", err)
	}
	return nil
}

func sessionReply(ingestor *workflow.Ingestor, line string) string {
	fields := strings.Fields(line)
	switch fields[0] {
	case "view":
		if len(fields) != 3 {
			return "error usage: view <mime-type> <uri>"
		}
		updated := ingestor.HandleIntent(workflow.Intent{Action: workflow.ActionView, Type: fields[1], Data: fields[2]})
		return fmt.Sprintf("ok %t", updated)

	case "call":
		if len(fields) != 2 {
			return "error usage: call <method>"
		}
		result, err := ingestor.Channel().Invoke(channel.MethodCall{Method: fields[1]})
		if errors.Is(err, channel.ErrNotImplemented) {
			return "error not implemented"
		}
		if err != nil {
			return "error " + err.Error()
		}
		if result == nil {
			return "ok null"
		}
		return fmt.Sprintf("ok %v", result)

	default:
		return fmt.Sprintf("error unknown command %q", fields[0])
	}
}
