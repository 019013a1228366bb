package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/raphaelgruber/docdesk/internal/service"
	"github.com/spf13/cobra"
)

var extractQuiet bool

var extractCmd = &cobra.Command{
	Use:   "extract <file>",
	Short: "Extract the text of a document",
	Long: `Send a document to the gateway and print its extracted text.

Images are read with the vision model; HTML, Markdown and plain text are
converted on the gateway.

Examples:
  docdesk extract scan.png
  docdesk extract notes.md > notes.txt`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().BoolVarP(&extractQuiet, "quiet", "q", false, "no progress display")
}

func runExtract(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)

	session, err := loadDocument(args[0])
	if err != nil {
		return fail(cmd.ErrOrStderr(), service.ActionIngest, err)
	}

	ingest := service.NewIngestService(gateway, logger)
	text, err := ingestDocument(ctx, cmd, ingest, session)
	if err != nil {
		return fail(cmd.ErrOrStderr(), service.ActionIngest, err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), text)
	return nil
}

// loadDocument reads path into a fresh session as its selected document.
func loadDocument(path string) (*service.Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &service.ValidationError{Field: "file", Message: fmt.Sprintf("Cannot read %s", path)}
	}
	session := service.NewSession()
	session.SelectFile(filepath.Base(path), data)
	return session, nil
}

// ingestDocument processes the selected document, with a progress bar on interactive terminals.
func ingestDocument(ctx context.Context, cmd *cobra.Command, ingest *service.IngestService, session *service.Session) (string, error) {
	if !extractQuiet && isTerminal(cmd.OutOrStdout()) {
		return RunIngestProgress(ctx, ingest, session)
	}
	return ingest.Ingest(ctx, session)
}
