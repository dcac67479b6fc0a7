package scoring_test

import (
	"testing"

	"github.com/MrWong99/enunciate/pkg/scoring"
)

func TestSimilarity(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		expected string
		actual   string
		want     float64
	}{
		{"identical word", "pronunciation", "pronunciation", 1.0},
		{"unrelated word", "cat", "dog", 0.0},
		{"both empty", "", "", 1.0},
		{"empty actual", "cat", "", 0.0},
		{"one edit per token", "hello world", "hello word", 1.0},
		{"half the phrase", "good morning", "good", 0.5},
		{"repeated tokens cap at one", "ab ab", "ab ab", 1.0},
		{"over-count below the cap stands", "hello world there", "hello hello mars", 2.0 / 3.0},
		{"extra whitespace ignored", "  thank   you ", "thank you", 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := scoring.Similarity(tt.expected, tt.actual); got != tt.want {
				t.Errorf("Similarity(%q, %q) = %v, want %v", tt.expected, tt.actual, got, tt.want)
			}
		})
	}
}

func TestSimilarity_Range(t *testing.T) {
	t.Parallel()

	inputs := []string{"", "a", "a a a", "cat bat hat", "pronunciation", "nice to meet you", "you you you you"}
	for _, e := range inputs {
		for _, a := range inputs {
			got := scoring.Similarity(e, a)
			if got < 0 || got > 1 {
				t.Errorf("Similarity(%q, %q) = %v, want within [0, 1]", e, a, got)
			}
		}
	}
}

func TestIsRelated(t *testing.T) {
	t.Parallel()

	tests := []struct {
		expected string
		actual   string
		want     bool
	}{
		{"pronunciation", "pro", true},
		{"cat", "cats", true},
		{"beautiful", "beauty", true},
		{"Hello", "HELLO there", true},
		{"cat", "dog", false},
		{"abc", "abd", false},
		{"library", "", false},
	}

	for _, tt := range tests {
		if got := scoring.IsRelated(tt.expected, tt.actual); got != tt.want {
			t.Errorf("IsRelated(%q, %q) = %v, want %v", tt.expected, tt.actual, got, tt.want)
		}
	}
}

func TestScoreTranscript(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		expected   string
		recognized string
		wantScore  int
	}{
		{"exact phrase", "hello world", "hello world", 100},
		{"case and whitespace", "Hello World ", "  hello WORLD", 100},
		{"half match", "Thank you", "thank", 50},
		{"unrelated low score is capped", "cat dog pig hen cow yak emu", "bat fog xxxxx yyyyy zzzzz qqqqq wwwww", 25},
		{"related low score kept", "cat dog pig hen cow yak emu", "cat fog xxxxx yyyyy zzzzz qqqqq wwwww", 29},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := scoring.ScoreTranscript(tt.expected, tt.recognized)
			if got.Score != tt.wantScore {
				t.Errorf("ScoreTranscript(%q, %q).Score = %d, want %d", tt.expected, tt.recognized, got.Score, tt.wantScore)
			}
		})
	}
}

func TestScoreTranscript_Unrelated(t *testing.T) {
	t.Parallel()

	got := scoring.ScoreTranscript("pronunciation", "banana")
	if got.Score > 25 {
		t.Errorf("ScoreTranscript(pronunciation, banana).Score = %d, want <= 25", got.Score)
	}
}

func TestScoreTranscript_ExactSimilarity(t *testing.T) {
	t.Parallel()

	got := scoring.ScoreTranscript("hello world", "hello world")
	if got.Similarity != 1.0 {
		t.Errorf("Similarity = %v, want 1.0", got.Similarity)
	}
}

func TestRecognize(t *testing.T) {
	t.Parallel()

	r := scoring.Recognize("Hello", " hello ", 0.9)
	if r.RecognizedText != "hello" {
		t.Errorf("RecognizedText = %q, want %q", r.RecognizedText, "hello")
	}
	if r.ExpectedText != "Hello" {
		t.Errorf("ExpectedText = %q, want %q", r.ExpectedText, "Hello")
	}
	if r.Score != 100 {
		t.Errorf("Score = %d, want 100", r.Score)
	}
	if r.Confidence != 0.9 {
		t.Errorf("Confidence = %v, want 0.9", r.Confidence)
	}
}
