package model

import (
	"testing"
)

func TestParseJSONArrayFromText(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want []string
	}{
		{
			name: "fenced json block",
			in:   "Here you go:\n```json\n[\"a\", \"b\"]\n```\nthanks",
			want: []string{"a", "b"},
		},
		{
			name: "fenced without language",
			in:   "```\n[\"one\"]\n```",
			want: []string{"one"},
		},
		{
			name: "bare array",
			in:   "the answer is [\"x\", \"y\"] as requested",
			want: []string{"x", "y"},
		},
		{
			name: "single-quoted fenced block",
			in:   "```json\n[\n  'track_facts',\n  'update_goal'\n]\n```",
			want: []string{"track_facts", "update_goal"},
		},
		{
			name: "single-quoted bare array",
			in:   "run ['reflect'] next",
			want: []string{"reflect"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ParseJSONArrayFromText(tc.in)
			if got == nil {
				t.Fatalf("expected parse to succeed for %q", tc.in)
			}
			if len(got) != len(tc.want) {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Errorf("index %d: got %q, want %q", i, got[i], tc.want[i])
				}
			}
		})
	}

	if got := ParseJSONArrayFromText("no array here"); got != nil {
		t.Errorf("expected nil on text without an array, got %v", got)
	}
}

func TestParseJSONObjectFromText(t *testing.T) {
	got := ParseJSONObjectFromText("```json\n{\"text\": \"hi\", \"action\": \"NONE\"}\n```")
	if got == nil {
		t.Fatal("expected parse to succeed")
	}
	if got["text"] != "hi" || got["action"] != "NONE" {
		t.Errorf("unexpected object: %v", got)
	}

	got = ParseJSONObjectFromText("prefix {\"text\": \"bare\"} suffix")
	if got == nil || got["text"] != "bare" {
		t.Errorf("bare object parse failed: %v", got)
	}

	if got := ParseJSONObjectFromText("nothing structured"); got != nil {
		t.Errorf("expected nil on unstructured text, got %v", got)
	}
}

func TestParseBooleanFromText(t *testing.T) {
	truthy := []string{"YES", "yes", "Y", "TRUE", "T", "1", "ON", "ENABLE"}
	for _, s := range truthy {
		v, ok := ParseBooleanFromText(s)
		if !ok || !v {
			t.Errorf("%q should parse as true", s)
		}
	}
	falsy := []string{"NO", "n", "FALSE", "f", "0", "OFF", "DISABLE"}
	for _, s := range falsy {
		v, ok := ParseBooleanFromText(s)
		if !ok || v {
			t.Errorf("%q should parse as false", s)
		}
	}
	if _, ok := ParseBooleanFromText("maybe"); ok {
		t.Error("ambiguous text should not parse")
	}
}
