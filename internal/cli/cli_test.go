package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/raphaelgruber/docdesk/internal/history"
	"github.com/raphaelgruber/docdesk/internal/metrics"
	"github.com/raphaelgruber/docdesk/internal/models"
	"github.com/raphaelgruber/docdesk/internal/parser"
	"github.com/raphaelgruber/docdesk/internal/server"
	"github.com/raphaelgruber/docdesk/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeModel struct {
	mu         sync.Mutex
	err        error
	lastDoc    string
	lastSource string
	lastTarget string
}

func (f *fakeModel) AnswerQuestion(ctx context.Context, question, documentText string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastDoc = documentText
	if f.err != nil {
		return "", f.err
	}
	return "Answer to: " + question, nil
}

func (f *fakeModel) Translate(ctx context.Context, text, sourceLanguage, targetLanguage string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastSource, f.lastTarget = sourceLanguage, targetLanguage
	if f.err != nil {
		return "", f.err
	}
	return "नमस्ते दुनिया", nil
}

type gatewayFixture struct {
	model *fakeModel
	store *history.MemoryStore
	dir   string
}

// newGateway starts a gateway backed by fakes and points the CLI at it.
func newGateway(t *testing.T) *gatewayFixture {
	t.Helper()
	model := &fakeModel{}
	store := history.NewMemoryStore()
	srv := server.New(server.Deps{
		Extractor:  parser.NewExtractor(nil),
		Translator: model,
		Answerer:   model,
		History:    store,
		Metrics:    metrics.NewCollector(),
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	dir := t.TempDir()
	t.Setenv("DOCDESK_CONFIG", "")
	t.Setenv("DOCDESK_SERVER_URL", ts.URL)
	t.Setenv("DOCDESK_HISTORY_BACKEND", "remote")
	t.Setenv("DOCDESK_LOG_FILE", filepath.Join(dir, "docdesk.log"))
	t.Setenv("DOCDESK_LOG_LEVEL", "ERROR")

	return &gatewayFixture{model: model, store: store, dir: dir}
}

func (g *gatewayFixture) writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(g.dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func resetFlags() {
	verbose = false
	extractQuiet = false
	chatQuestions = nil
	chatOutputFile = ""
	translateFrom = service.DefaultSourceLanguage
	translateTo = service.DefaultTargetLanguage
	translateNoHistory = false
	historyLimit = history.DefaultListLimit
	historyJSON = false
	historyForce = false
}

// runCLI executes the root command with args and stdin, returning stdout and stderr.
func runCLI(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	resetFlags()

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetIn(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestExtract(t *testing.T) {
	g := newGateway(t)
	path := g.writeFile(t, "notes.txt", "Hello world")

	stdout, _, err := runCLI(t, "", "extract", path)
	require.NoError(t, err)
	assert.Equal(t, "Hello world\n", stdout)
}

func TestExtract_Failure(t *testing.T) {
	g := newGateway(t)
	path := g.writeFile(t, "scan.png", "\x89PNG\r\n\x1a\n")

	stdout, stderr, err := runCLI(t, "", "extract", path)
	require.Error(t, err)
	assert.True(t, IsReported(err))
	assert.Empty(t, stdout)
	assert.Equal(t, "Processing failed: Failed to process document\n", stderr)
}

func TestExtract_MissingFile(t *testing.T) {
	g := newGateway(t)

	_, stderr, err := runCLI(t, "", "extract", filepath.Join(g.dir, "missing.txt"))
	require.Error(t, err)
	assert.True(t, IsReported(err))
	assert.Contains(t, stderr, "No file selected")
}

func TestChat_Questions(t *testing.T) {
	g := newGateway(t)
	path := g.writeFile(t, "notes.txt", "Hello world")
	out := filepath.Join(g.dir, "transcript.json")

	stdout, stderr, err := runCLI(t, "", "chat", path, "-q", "What does it say?", "-q", "Who wrote it?", "-o", out)
	require.NoError(t, err)
	assert.Equal(t, "Answer to: What does it say?\nAnswer to: Who wrote it?\n", stdout)
	assert.Contains(t, stderr, "Document notes.txt is ready for questions.")
	assert.Equal(t, "Hello world", g.model.lastDoc)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	var transcript struct {
		Document string        `json:"document"`
		Turns    []models.Turn `json:"turns"`
	}
	require.NoError(t, json.Unmarshal(data, &transcript))
	assert.Equal(t, "notes.txt", transcript.Document)
	assert.Equal(t, []models.Turn{
		{Role: models.RoleUser, Content: "What does it say?"},
		{Role: models.RoleAssistant, Content: "Answer to: What does it say?"},
		{Role: models.RoleUser, Content: "Who wrote it?"},
		{Role: models.RoleAssistant, Content: "Answer to: Who wrote it?"},
	}, transcript.Turns)
}

func TestChat_REPL(t *testing.T) {
	g := newGateway(t)
	path := g.writeFile(t, "notes.txt", "Hello world")
	other := g.writeFile(t, "other.txt", "Second document")

	stdin := strings.Join([]string{
		"What does it say?",
		"/transcript",
		"/open " + other,
		"/transcript",
		"Summarize",
		"/quit",
		"ignored after quit",
	}, "\n")

	stdout, _, err := runCLI(t, stdin, "chat", path)
	require.NoError(t, err)
	assert.Equal(t, strings.Join([]string{
		"Answer to: What does it say?",
		"You: What does it say?",
		"Assistant: Answer to: What does it say?",
		"No questions asked yet.",
		"Answer to: Summarize",
		"",
	}, "\n"), stdout)
	assert.Equal(t, "Second document", g.model.lastDoc)
}

func TestChat_FailureKeepsREPLRunning(t *testing.T) {
	g := newGateway(t)
	path := g.writeFile(t, "notes.txt", "Hello world")
	g.model.err = errors.New("model down")

	stdout, stderr, err := runCLI(t, "First?\n/transcript\n", "chat", path)
	require.NoError(t, err)
	assert.Contains(t, stderr, "Failed to get answer: Internal server error")
	assert.Equal(t, "No questions asked yet.\n", stdout)
}

func TestChat_QuestionFailure(t *testing.T) {
	g := newGateway(t)
	path := g.writeFile(t, "notes.txt", "Hello world")
	g.model.err = errors.New("model down")

	_, _, err := runCLI(t, "", "chat", path, "-q", "First?")
	require.Error(t, err)
	assert.True(t, IsReported(err))
}

func TestTranslate_RecordsHistory(t *testing.T) {
	g := newGateway(t)

	stdout, _, err := runCLI(t, "", "translate", "Hello", "world", "--to", "hi")
	require.NoError(t, err)
	assert.Equal(t, "नमस्ते दुनिया\n", stdout)
	assert.Equal(t, "English", g.model.lastSource)
	assert.Equal(t, "Hindi (हिंदी)", g.model.lastTarget)

	records, err := g.store.List(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Hello world", records[0].SourceText)
	assert.Equal(t, "नमस्ते दुनिया", records[0].TranslatedText)
	assert.Equal(t, "en", records[0].SourceLanguageCode)
	assert.Equal(t, "hi", records[0].TargetLanguageCode)
}

func TestTranslate_Stdin(t *testing.T) {
	g := newGateway(t)

	stdout, _, err := runCLI(t, "வணக்கம்\n", "translate", "--from", "ta", "--to", "en", "--no-history")
	require.NoError(t, err)
	assert.Equal(t, "नमस्ते दुनिया\n", stdout)
	assert.Equal(t, "Tamil (தமிழ்)", g.model.lastSource)
	assert.Equal(t, "English", g.model.lastTarget)

	records, err := g.store.List(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestTranslate_Blank(t *testing.T) {
	newGateway(t)

	_, stderr, err := runCLI(t, "   \n", "translate")
	require.Error(t, err)
	assert.Equal(t, "No text to translate: Please enter some text first\n", stderr)
}

func TestTranslate_Failure(t *testing.T) {
	g := newGateway(t)
	g.model.err = errors.New("model down")

	stdout, stderr, err := runCLI(t, "", "translate", "Hello")
	require.Error(t, err)
	assert.Empty(t, stdout)
	assert.Equal(t, "Translation failed: Internal server error\n", stderr)

	records, err := g.store.List(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestLanguages(t *testing.T) {
	newGateway(t)

	stdout, _, err := runCLI(t, "", "languages")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.Len(t, lines, len(service.Languages))
	assert.Contains(t, lines[0], "en   English (default source)")
	assert.Contains(t, lines[1], "hi   Hindi (हिंदी) (default target)")
	assert.Contains(t, lines[7], "kn   Kannada (ಕನ್ನಡ)")
}

func TestHistory_ListAndDelete(t *testing.T) {
	g := newGateway(t)
	ctx := context.Background()

	long := strings.Repeat("a", 200)
	rec, err := g.store.Append(ctx, models.TranslationRecord{
		SourceText: long, TranslatedText: "short", SourceLanguageCode: "en", TargetLanguageCode: "ta",
	})
	require.NoError(t, err)

	stdout, _, err := runCLI(t, "", "history")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Translations (1):")
	assert.Contains(t, stdout, "English → Tamil (தமிழ்)")
	assert.Contains(t, stdout, "["+rec.ID+"]")
	assert.Contains(t, stdout, strings.Repeat("a", 150)+"...")
	assert.NotContains(t, stdout, strings.Repeat("a", 151))

	stdout, _, err = runCLI(t, "", "history", "list", "--json")
	require.NoError(t, err)
	var listed []models.TranslationRecord
	require.NoError(t, json.Unmarshal([]byte(stdout), &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, long, listed[0].SourceText)

	stdout, _, err = runCLI(t, "n\n", "history", "delete", rec.ID)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Cancelled.")

	stdout, _, err = runCLI(t, "", "history", "delete", rec.ID, "--force")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Deleted: "+rec.ID)

	stdout, _, err = runCLI(t, "", "history")
	require.NoError(t, err)
	assert.Equal(t, "No translation history yet.\n", stdout)
}

func TestHistory_UnknownLanguageCodesShownRaw(t *testing.T) {
	g := newGateway(t)

	_, err := g.store.Append(context.Background(), models.TranslationRecord{
		SourceText: "bonjour", TranslatedText: "hallo", SourceLanguageCode: "fr", TargetLanguageCode: "de",
	})
	require.NoError(t, err)

	stdout, _, err := runCLI(t, "", "history")
	require.NoError(t, err)
	assert.Contains(t, stdout, "fr → de")
	assert.NotContains(t, stdout, "English")
	assert.NotContains(t, stdout, "Hindi")
}

func TestHistory_DeleteMissing(t *testing.T) {
	newGateway(t)

	_, stderr, err := runCLI(t, "y\n", "history", "delete", "missing")
	require.Error(t, err)
	assert.Contains(t, stderr, "Delete failed: Translation is no longer in history")
}

func TestHistory_LocalBackend(t *testing.T) {
	g := newGateway(t)
	t.Setenv("DOCDESK_HISTORY_BACKEND", "sqlite")
	t.Setenv("DOCDESK_SQLITE_PATH", filepath.Join(g.dir, "history.db"))

	_, _, err := runCLI(t, "", "translate", "Hello")
	require.NoError(t, err)

	stdout, _, err := runCLI(t, "", "history", "list", "--json")
	require.NoError(t, err)
	var listed []models.TranslationRecord
	require.NoError(t, json.Unmarshal([]byte(stdout), &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, "Hello", listed[0].SourceText)

	gatewayRecords, err := g.store.List(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, gatewayRecords)
}

func TestHistory_UnknownBackend(t *testing.T) {
	newGateway(t)
	t.Setenv("DOCDESK_HISTORY_BACKEND", "floppy")

	_, _, err := runCLI(t, "", "history")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown history backend: floppy")
}

func TestStats(t *testing.T) {
	g := newGateway(t)
	path := g.writeFile(t, "notes.txt", "Hello world")

	_, _, err := runCLI(t, "", "extract", path)
	require.NoError(t, err)

	stdout, _, err := runCLI(t, "", "stats")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Gateway Statistics")
	assert.Contains(t, stdout, "OPERATION")
	assert.Contains(t, stdout, metrics.OpExtract)
}
