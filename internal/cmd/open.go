package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kovyrin/pdfish/internal/channel"
	"github.com/kovyrin/pdfish/internal/workflow"
)

var (
	openType   string
	openAction string
)

var openCmd = &cobra.Command{
	Use:   "open <uri>...",
	Short: "Deliver view intents and print the last ingested path",
	Long: `Open delivers one "view" intent per URI, in order, as if the documents had
been opened with pdfish one after another. Each PDF is copied into the cache
directory; afterwards the path of the last successful copy is printed.

URIs may be local paths, file:// URLs, git+<repo>#<ref>:<path> references,
or "-" to read the document from standard input.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runOpen,
}

func init() {
	RootCmd.AddCommand(openCmd)

	openCmd.Flags().StringVar(&openType, "type", workflow.PDFMimeType, "Content type declared by the intent")
	openCmd.Flags().StringVar(&openAction, "action", workflow.ActionView, "Intent action")
}

func runOpen(cmd *cobra.Command, args []string) error {
	h, err := newHost(cmd.InOrStdin())
	if err != nil {
		return err
	}
	defer h.close()

	for _, uri := range args {
		h.ingestor.HandleIntent(workflow.Intent{Action: openAction, Type: openType, Data: uri})
	}

	result, err := h.ingestor.Channel().Invoke(channel.MethodCall{Method: workflow.MethodInitialFilePath})
	if err != nil {
		return err
	}
	if result == nil {
		fmt.Fprintln(cmd.OutOrStdout(), "no document")
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), result)
	return nil
}
