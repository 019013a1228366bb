package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/raphaelgruber/docdesk/internal/models"
	"github.com/raphaelgruber/docdesk/internal/service"
	"github.com/spf13/cobra"
)

var (
	chatQuestions  []string
	chatOutputFile string
)

var chatCmd = &cobra.Command{
	Use:   "chat <file>",
	Short: "Hold a conversation about a document",
	Long: `Process a document and ask questions about it.

Every question is answered from the full document text. Without --question
an interactive prompt is started; type /help for its commands.

Examples:
  docdesk chat lecture.pdf
  docdesk chat notes.md -q "Who wrote this?" -q "When?"
  docdesk chat notes.md -q "Summarize it" -o transcript.json`,
	Args: cobra.ExactArgs(1),
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringArrayVarP(&chatQuestions, "question", "q", nil, "ask a question and exit (repeatable)")
	chatCmd.Flags().StringVarP(&chatOutputFile, "output", "o", "", "write the transcript as JSON to file")
}

// chatREPL is an interactive conversation about one document at a time.
type chatREPL struct {
	ctx          context.Context
	cmd          *cobra.Command
	session      *service.Session
	ingest       *service.IngestService
	conversation *service.ConversationService
	out          io.Writer
	errOut       io.Writer
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)

	r := &chatREPL{
		ctx:          ctx,
		cmd:          cmd,
		ingest:       service.NewIngestService(gateway, logger),
		conversation: service.NewConversationService(gateway, logger),
		out:          cmd.OutOrStdout(),
		errOut:       cmd.ErrOrStderr(),
	}

	if err := r.open(args[0]); err != nil {
		return &reportedError{err: err}
	}

	if len(chatQuestions) > 0 {
		for _, q := range chatQuestions {
			if err := r.ask(q); err != nil {
				return &reportedError{err: err}
			}
		}
		return r.writeTranscript()
	}

	if err := r.loop(cmd.InOrStdin()); err != nil {
		return err
	}
	return r.writeTranscript()
}

// open selects and processes a new document, discarding the previous conversation.
func (r *chatREPL) open(path string) error {
	session, err := loadDocument(path)
	if err != nil {
		notifyFailure(r.errOut, service.ActionIngest, err)
		return err
	}
	r.session = session

	if _, err := ingestDocument(r.ctx, r.cmd, r.ingest, r.session); err != nil {
		notifyFailure(r.errOut, service.ActionIngest, err)
		return err
	}
	fmt.Fprintf(r.errOut, "Document %s is ready for questions.\n", r.session.Document().Filename)
	return nil
}

func (r *chatREPL) ask(question string) error {
	answer, err := r.conversation.Ask(r.ctx, r.session, question)
	if err != nil {
		notifyFailure(r.errOut, service.ActionAsk, err)
		return err
	}
	fmt.Fprintln(r.out, answer)
	return nil
}

func (r *chatREPL) loop(in io.Reader) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	interactive := isTerminal(r.out)

	for {
		if interactive {
			fmt.Fprint(r.out, defaultTheme.statusStyle().Render("> "))
		}
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())

		switch {
		case line == "":
			continue
		case line == "/quit" || line == "/exit":
			return nil
		case line == "/help":
			fmt.Fprintln(r.out, "Commands: /open <file>, /transcript, /quit")
		case line == "/transcript":
			r.printTranscript()
		case strings.HasPrefix(line, "/open"):
			path := strings.TrimSpace(strings.TrimPrefix(line, "/open"))
			if path == "" {
				notifyFailure(r.errOut, service.ActionIngest,
					&service.ValidationError{Field: "file", Message: "Please select a file first"})
				continue
			}
			_ = r.open(path)
		default:
			_ = r.ask(line)
		}
	}
}

func (r *chatREPL) printTranscript() {
	turns := r.session.Transcript().Turns()
	if len(turns) == 0 {
		fmt.Fprintln(r.out, "No questions asked yet.")
		return
	}
	styled := isTerminal(r.out)
	for _, t := range turns {
		speaker := "You"
		if t.Role == models.RoleAssistant {
			speaker = "Assistant"
		}
		if styled {
			speaker = defaultTheme.speakerStyle().Render(speaker)
		}
		fmt.Fprintf(r.out, "%s: %s\n", speaker, t.Content)
	}
}

func (r *chatREPL) writeTranscript() error {
	if chatOutputFile == "" {
		return nil
	}
	doc := r.session.Document()
	out := struct {
		Document string        `json:"document"`
		Turns    []models.Turn `json:"turns"`
	}{
		Document: doc.Filename,
		Turns:    r.session.Transcript().Turns(),
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("encode transcript: %w", err)
	}
	if err := os.WriteFile(chatOutputFile, data, 0o644); err != nil {
		return fmt.Errorf("write transcript: %w", err)
	}
	fmt.Fprintf(r.errOut, "Transcript written to %s\n", chatOutputFile)
	return nil
}
