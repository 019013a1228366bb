package service

import (
	"context"
	"sync"
)

// fakeGateway is a scripted capability gateway that records every call.
type fakeGateway struct {
	mu sync.Mutex

	extractText  string
	extractErr   error
	answer       string
	answerErr    error
	translated   string
	translateErr error

	// block, when set, holds each call until it is closed.
	block chan struct{}
	// started receives once per call after it has been counted.
	started chan struct{}

	extractCalls   int
	answerCalls    int
	translateCalls int

	lastQuestion     string
	lastDocumentText string
	lastSourceName   string
	lastTargetName   string
}

func (f *fakeGateway) wait(ctx context.Context) error {
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.block == nil {
		return nil
	}
	select {
	case <-f.block:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *fakeGateway) ExtractText(ctx context.Context, filename string, data []byte) (string, error) {
	f.mu.Lock()
	f.extractCalls++
	text, err := f.extractText, f.extractErr
	f.mu.Unlock()

	if werr := f.wait(ctx); werr != nil {
		return "", werr
	}
	return text, err
}

func (f *fakeGateway) AnswerQuestion(ctx context.Context, question, documentText string) (string, error) {
	f.mu.Lock()
	f.answerCalls++
	f.lastQuestion = question
	f.lastDocumentText = documentText
	answer, err := f.answer, f.answerErr
	f.mu.Unlock()

	if werr := f.wait(ctx); werr != nil {
		return "", werr
	}
	return answer, err
}

func (f *fakeGateway) Translate(ctx context.Context, text, sourceLanguage, targetLanguage string) (string, error) {
	f.mu.Lock()
	f.translateCalls++
	f.lastSourceName = sourceLanguage
	f.lastTargetName = targetLanguage
	out, err := f.translated, f.translateErr
	f.mu.Unlock()

	if werr := f.wait(ctx); werr != nil {
		return "", werr
	}
	return out, err
}

func (f *fakeGateway) calls() (extract, answer, translate int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.extractCalls, f.answerCalls, f.translateCalls
}
