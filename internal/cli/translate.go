package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/raphaelgruber/docdesk/internal/models"
	"github.com/raphaelgruber/docdesk/internal/service"
	"github.com/spf13/cobra"
)

var (
	translateFrom      string
	translateTo        string
	translateNoHistory bool
)

var translateCmd = &cobra.Command{
	Use:   "translate [text...]",
	Short: "Translate text between supported languages",
	Long: `Translate text and record the result in history.

Text is taken from the arguments, or from stdin when none are given.
Run 'docdesk languages' for the supported language codes.

Examples:
  docdesk translate "Good morning" --to ta
  echo "नमस्ते" | docdesk translate --from hi --to en`,
	RunE: runTranslate,
}

var languagesCmd = &cobra.Command{
	Use:   "languages",
	Short: "List supported translation languages",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		for _, l := range service.Languages {
			marker := ""
			switch l.Code {
			case service.DefaultSourceLanguage:
				marker = " (default source)"
			case service.DefaultTargetLanguage:
				marker = " (default target)"
			}
			fmt.Fprintf(out, "  %-4s %s%s\n", l.Code, l.Name, marker)
		}
		return nil
	},
}

func init() {
	translateCmd.Flags().StringVarP(&translateFrom, "from", "f", service.DefaultSourceLanguage, "source language code")
	translateCmd.Flags().StringVarP(&translateTo, "to", "t", service.DefaultTargetLanguage, "target language code")
	translateCmd.Flags().BoolVar(&translateNoHistory, "no-history", false, "do not record the translation")
}

func runTranslate(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)

	text := strings.Join(args, " ")
	if len(args) == 0 {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		text = strings.TrimRight(string(data), "\n")
	}

	for _, code := range []string{translateFrom, translateTo} {
		if _, ok := service.LookupLanguage(code); !ok {
			logger.Warn("unsupported language code, using fallback name", "code", code)
		}
	}

	var svc *service.TranslationService
	if translateNoHistory {
		svc = service.NewTranslationService(gateway, nil, logger)
	} else {
		store, closeStore, err := openHistory(ctx)
		if err != nil {
			return err
		}
		defer closeStore()
		svc = service.NewTranslationService(gateway, store, logger)
	}
	// History appends run in the background; let them land before the store closes.
	defer svc.Wait()

	translated, err := svc.Translate(ctx, service.NewTranslationSession(), models.TranslationRequest{
		SourceText:         text,
		SourceLanguageCode: translateFrom,
		TargetLanguageCode: translateTo,
	})
	if err != nil {
		return fail(cmd.ErrOrStderr(), service.ActionTranslate, err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), translated)
	return nil
}
