package model

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// scriptedGenerator replays canned responses in order, repeating the last
// one once the script runs out.
type scriptedGenerator struct {
	responses []string
	errs      []error
	calls     int
}

func (s *scriptedGenerator) Generate(_ context.Context, _ Request) (string, error) {
	i := s.calls
	s.calls++
	if i >= len(s.responses) {
		i = len(s.responses) - 1
	}
	var err error
	if i < len(s.errs) {
		err = s.errs[i]
	}
	return s.responses[i], err
}

func fastPolicy() RetryPolicy {
	return RetryPolicy{
		InitialInterval: time.Millisecond,
		Multiplier:      1,
		MaxInterval:     time.Millisecond,
		MaxElapsedTime:  time.Second,
	}
}

func TestGenerateTextEmptyContext(t *testing.T) {
	g := &scriptedGenerator{responses: []string{"should not be called"}}
	got, err := GenerateText(context.Background(), g, Request{Context: ""})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "" {
		t.Errorf("empty context should produce empty output, got %q", got)
	}
	if g.calls != 0 {
		t.Errorf("provider should not be called on empty context, got %d calls", g.calls)
	}
}

func TestGenerateTextArrayRetriesUntilParse(t *testing.T) {
	g := &scriptedGenerator{responses: []string{
		"not json at all",
		"```json\n[\"first\", \"second\"]\n```",
	}}
	got, err := GenerateTextArray(context.Background(), g, zerolog.Nop(), fastPolicy(), "pick some")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0] != "first" {
		t.Errorf("unexpected result: %v", got)
	}
	if g.calls != 2 {
		t.Errorf("expected 2 calls, got %d", g.calls)
	}
}

func TestGenerateTextArrayBoundedFailure(t *testing.T) {
	g := &scriptedGenerator{responses: []string{"never parses"}}
	_, err := GenerateTextArray(context.Background(), g, zerolog.Nop(), fastPolicy(), "pick some")
	if err == nil {
		t.Fatal("expected failure once the retry budget is exhausted")
	}
}

func TestGenerateTrueOrFalse(t *testing.T) {
	g := &scriptedGenerator{responses: []string{"hmm", "YES"}}
	got, err := GenerateTrueOrFalse(context.Background(), g, zerolog.Nop(), fastPolicy(), "is it?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got {
		t.Error("expected true")
	}
}

func TestGenerateMessageResponse(t *testing.T) {
	g := &scriptedGenerator{responses: []string{
		"```json\n{\"text\": \"\", \"action\": \"NONE\"}\n```",
		"```json\n{\"text\": \"hello there\", \"action\": \"WAVE\"}\n```",
	}}
	got, err := GenerateMessageResponse(context.Background(), g, zerolog.Nop(), fastPolicy(), "say hi", "large")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Text != "hello there" || got.Action != "WAVE" {
		t.Errorf("unexpected content: %+v", got)
	}
	if g.calls != 2 {
		t.Errorf("empty text should retry; got %d calls", g.calls)
	}
}

func TestTrimContextKeepsTail(t *testing.T) {
	if got := TrimContext("short", 100); got != "short" {
		t.Errorf("short input should pass through, got %q", got)
	}
	got := TrimContext("aaaa tail", 4)
	if got != "tail" {
		t.Errorf("expected tail retained, got %q", got)
	}
}

func TestSplitChunks(t *testing.T) {
	if got := SplitChunks("", 512, 20); got != nil {
		t.Errorf("empty content should yield no chunks, got %v", got)
	}

	small := SplitChunks("one small paragraph", 512, 20)
	if len(small) != 1 || small[0] != "one small paragraph" {
		t.Errorf("content under the budget should be a single chunk: %v", small)
	}

	var b strings.Builder
	for i := 0; i < 40; i++ {
		b.WriteString("the quick brown fox jumps over the lazy dog. ")
	}
	chunks := SplitChunks(b.String(), 200, 20)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if len(c) > 220 {
			t.Errorf("chunk %d exceeds budget plus bleed: %d chars", i, len(c))
		}
	}
}
