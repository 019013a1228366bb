package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/raphaelgruber/docdesk/internal/client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIngestSuccess(t *testing.T) {
	gw := &fakeGateway{extractText: "Hello world"}
	svc := NewIngestService(gw, nil)
	session := NewSession()
	session.SelectFile("scan.png", []byte("png-bytes"))

	text, err := svc.Ingest(context.Background(), session)
	require.NoError(t, err)

	assert.Equal(t, "Hello world", text)
	assert.True(t, session.Document().Ready())
	assert.Equal(t, "Hello world", session.Document().Text())
	assert.False(t, session.Ingesting())

	extract, _, _ := gw.calls()
	assert.Equal(t, 1, extract, "exactly one network call per ingestion")
}

func TestIngestFailureLeavesDocumentNotReady(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"transport", &client.TransportError{Op: client.OpExtract, Err: errors.New("connection refused")}},
		{"rejection", &client.RemoteRejection{Op: client.OpExtract, Status: 422, Reason: "unsupported file"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := &fakeGateway{extractErr: tt.err}
			svc := NewIngestService(gw, nil)
			session := NewSession()
			session.SelectFile("scan.png", []byte("png-bytes"))

			_, err := svc.Ingest(context.Background(), session)
			require.Error(t, err)

			var ie *IngestionError
			require.ErrorAs(t, err, &ie)
			assert.Equal(t, "scan.png", ie.Filename)
			assert.ErrorIs(t, err, tt.err, "cause stays distinguishable")
			assert.Equal(t, "Failed to process document", UserMessage(err))
			assert.Equal(t, "Processing failed", FailureTitle(ActionIngest, err))

			assert.False(t, session.Document().Ready())
			assert.Nil(t, session.Document().ExtractedText)
			assert.False(t, session.Ingesting())
		})
	}
}

func TestIngestRetryAfterFailure(t *testing.T) {
	gw := &fakeGateway{extractErr: &client.TransportError{Op: client.OpExtract, Err: errors.New("timeout")}}
	svc := NewIngestService(gw, nil)
	session := NewSession()
	session.SelectFile("scan.png", []byte("png-bytes"))

	_, err := svc.Ingest(context.Background(), session)
	require.Error(t, err)

	gw.mu.Lock()
	gw.extractErr = nil
	gw.extractText = "second attempt"
	gw.mu.Unlock()

	text, err := svc.Ingest(context.Background(), session)
	require.NoError(t, err)
	assert.Equal(t, "second attempt", text)
	assert.Equal(t, "second attempt", session.Document().Text())
}

func TestIngestValidation(t *testing.T) {
	gw := &fakeGateway{extractText: "x"}
	svc := NewIngestService(gw, nil)
	ctx := context.Background()

	t.Run("no document", func(t *testing.T) {
		_, err := svc.Ingest(ctx, NewSession())
		assert.True(t, IsValidation(err))
	})

	t.Run("empty file", func(t *testing.T) {
		session := NewSession()
		session.SelectFile("empty.pdf", nil)
		_, err := svc.Ingest(ctx, session)
		assert.True(t, IsValidation(err))
	})

	t.Run("already ingested", func(t *testing.T) {
		session := NewSession()
		session.SelectFile("a.txt", []byte("a"))
		_, err := svc.Ingest(ctx, session)
		require.NoError(t, err)

		before, _, _ := gw.calls()
		_, err = svc.Ingest(ctx, session)
		assert.True(t, IsValidation(err))
		after, _, _ := gw.calls()
		assert.Equal(t, before, after)
	})

	extract, _, _ := gw.calls()
	assert.Equal(t, 1, extract, "only the successful ingestion reached the gateway")
}

func TestIngestRejectsConcurrentIngestion(t *testing.T) {
	gw := &fakeGateway{extractText: "text", block: make(chan struct{}), started: make(chan struct{}, 1)}
	svc := NewIngestService(gw, nil)
	session := NewSession()
	session.SelectFile("a.png", []byte("a"))

	done := make(chan error, 1)
	go func() {
		_, err := svc.Ingest(context.Background(), session)
		done <- err
	}()
	<-gw.started

	_, err := svc.Ingest(context.Background(), session)
	assert.ErrorIs(t, err, ErrIngestInFlight)

	close(gw.block)
	require.NoError(t, <-done)
}

func TestIngestStaleResultIsDiscarded(t *testing.T) {
	gw := &fakeGateway{extractText: "old file text", block: make(chan struct{}), started: make(chan struct{}, 1)}
	svc := NewIngestService(gw, nil)
	session := NewSession()
	session.SelectFile("old.png", []byte("old"))

	done := make(chan error, 1)
	go func() {
		_, err := svc.Ingest(context.Background(), session)
		done <- err
	}()
	<-gw.started

	// User picks another file while the first is still processing
	newDoc := session.SelectFile("new.png", []byte("new"))
	close(gw.block)

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrStaleDocument)
	case <-time.After(5 * time.Second):
		t.Fatal("ingestion did not finish")
	}

	assert.Same(t, newDoc, session.Document())
	assert.False(t, newDoc.Ready(), "stale result must not land on the new document")
	assert.False(t, session.Ingesting())
}
