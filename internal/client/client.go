// Package client provides an HTTP client for the docdesk capability gateway.
package client

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/gorilla/websocket"
	"github.com/raphaelgruber/docdesk/internal/history"
	"github.com/raphaelgruber/docdesk/internal/metrics"
	"github.com/raphaelgruber/docdesk/internal/models"
)

// Gateway paths.
const (
	PathExtract       = "/ocr"
	PathTranslate     = "/translate"
	PathAnswer        = "/rag-qa"
	PathHistory       = "/history"
	PathHistoryEvents = "/history/events"
	PathStats         = "/stats"
)

// Client talks to the capability gateway. It keeps no session state between calls.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// New creates a gateway client for endpoint (e.g. "http://localhost:8000").
// Timeouts are enforced by the transport and surface as TransportError.
func New(endpoint string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Client{
		endpoint:   strings.TrimSuffix(endpoint, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Endpoint returns the gateway base URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// do sends one request and decodes a JSON success body into result.
// Any failure is returned as *TransportError or *RemoteRejection.
func (c *Client) do(ctx context.Context, op, method, path string, payload, result any) error {
	var body io.Reader
	if payload != nil {
		reqBody, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(reqBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Op: op, Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		reason := GenericMessage(op)
		var errResp models.ErrorResponse
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error != "" {
			reason = errResp.Error
		}
		return &RemoteRejection{Op: op, Status: resp.StatusCode, Reason: reason}
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return &TransportError{Op: op, Err: fmt.Errorf("unmarshal response: %w", err)}
		}
	}
	return nil
}

// =============================================================================
// CAPABILITIES
// =============================================================================

// ExtractText uploads a file and returns its extracted plain text.
// The file travels as a base64 data URL.
func (c *Client) ExtractText(ctx context.Context, filename string, data []byte) (string, error) {
	var result models.ExtractResponse
	req := models.ExtractRequest{ImageBase64: EncodeDataURL(filename, data)}
	if err := c.do(ctx, OpExtract, http.MethodPost, PathExtract, req, &result); err != nil {
		return "", err
	}
	return result.Text, nil
}

// Translate translates text between two languages given by display name.
func (c *Client) Translate(ctx context.Context, text, sourceLanguage, targetLanguage string) (string, error) {
	var result models.TranslateResponse
	req := models.TranslateRequest{
		Text:           text,
		SourceLanguage: sourceLanguage,
		TargetLanguage: targetLanguage,
	}
	if err := c.do(ctx, OpTranslate, http.MethodPost, PathTranslate, req, &result); err != nil {
		return "", err
	}
	return result.TranslatedText, nil
}

// AnswerQuestion answers question against the full documentText.
func (c *Client) AnswerQuestion(ctx context.Context, question, documentText string) (string, error) {
	var result models.AnswerResponse
	req := models.AnswerRequest{Question: question, DocumentText: documentText}
	if err := c.do(ctx, OpAnswer, http.MethodPost, PathAnswer, req, &result); err != nil {
		return "", err
	}
	return result.Answer, nil
}

// EncodeDataURL encodes data as "data:<mime>;base64,<payload>".
// The MIME type comes from the filename extension, falling back to content sniffing.
func EncodeDataURL(filename string, data []byte) string {
	mimeType := mime.TypeByExtension(strings.ToLower(filepath.Ext(filename)))
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// Stats returns the gateway's runtime statistics.
func (c *Client) Stats(ctx context.Context) (metrics.Snapshot, error) {
	var snap metrics.Snapshot
	if err := c.do(ctx, OpStats, http.MethodGet, PathStats, nil, &snap); err != nil {
		return metrics.Snapshot{}, err
	}
	return snap, nil
}

// =============================================================================
// HISTORY
// =============================================================================

// HistoryStore is a history.Store backed by the gateway's /history collection.
type HistoryStore struct {
	c *Client
}

// History returns the remote history store.
func (c *Client) History() *HistoryStore {
	return &HistoryStore{c: c}
}

func (h *HistoryStore) Append(ctx context.Context, rec models.TranslationRecord) (models.TranslationRecord, error) {
	var saved models.TranslationRecord
	if err := h.c.do(ctx, OpHistory, http.MethodPost, PathHistory, rec, &saved); err != nil {
		var rr *RemoteRejection
		if errors.As(err, &rr) && rr.Status == http.StatusConflict {
			return models.TranslationRecord{}, fmt.Errorf("%w: %s", history.ErrDuplicateID, rec.ID)
		}
		return models.TranslationRecord{}, err
	}
	return saved, nil
}

func (h *HistoryStore) List(ctx context.Context, limit int) ([]models.TranslationRecord, error) {
	path := PathHistory + "?limit=" + strconv.Itoa(history.EffectiveLimit(limit))
	var result models.HistoryListResponse
	if err := h.c.do(ctx, OpHistory, http.MethodGet, path, nil, &result); err != nil {
		return nil, err
	}
	if result.Records == nil {
		return []models.TranslationRecord{}, nil
	}
	return result.Records, nil
}

func (h *HistoryStore) Delete(ctx context.Context, id string) error {
	err := h.c.do(ctx, OpHistory, http.MethodDelete, PathHistory+"/"+url.PathEscape(id), nil, nil)
	var rr *RemoteRejection
	if errors.As(err, &rr) && rr.Status == http.StatusNotFound {
		return fmt.Errorf("%w: %s", history.ErrNotFound, id)
	}
	return err
}

// WatchHistory streams history change events until ctx is cancelled or the server closes.
// onEvent is invoked for each event; return an error from onEvent to stop watching.
func (c *Client) WatchHistory(ctx context.Context, onEvent func(models.HistoryEvent) error) error {
	wsEndpoint := c.endpoint + PathHistoryEvents
	wsEndpoint = strings.Replace(wsEndpoint, "http://", "ws://", 1)
	wsEndpoint = strings.Replace(wsEndpoint, "https://", "wss://", 1)

	u, err := url.Parse(wsEndpoint)
	if err != nil {
		return fmt.Errorf("parse endpoint: %w", err)
	}

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return &TransportError{Op: OpHistory, Err: fmt.Errorf("websocket connect: %w", err)}
	}

	var mu sync.Mutex
	closed := false
	closeConn := func() {
		mu.Lock()
		defer mu.Unlock()
		if !closed {
			closed = true
			conn.Close()
		}
	}
	defer closeConn()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			closeConn()
		case <-done:
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return &TransportError{Op: OpHistory, Err: fmt.Errorf("read message: %w", err)}
		}

		ev, err := DecodeHistoryEvent(data)
		if err != nil {
			return err
		}
		if err := onEvent(ev); err != nil {
			return err
		}
	}
}

// DecodeHistoryEvent parses a JSON-encoded CloudEvent from the history stream.
func DecodeHistoryEvent(data []byte) (models.HistoryEvent, error) {
	var ce cloudevents.Event
	if err := json.Unmarshal(data, &ce); err != nil {
		return models.HistoryEvent{}, fmt.Errorf("decode cloudevent: %w", err)
	}

	ev := models.HistoryEvent{ID: ce.ID(), Type: ce.Type()}
	if err := ce.DataAs(&ev.Record); err != nil {
		return models.HistoryEvent{}, fmt.Errorf("decode event data: %w", err)
	}
	return ev, nil
}
