package scoring_test

import (
	"testing"

	"github.com/MrWong99/enunciate/pkg/scoring"
	"github.com/MrWong99/enunciate/pkg/types"
)

func TestWordComplexity(t *testing.T) {
	t.Parallel()

	tests := []struct {
		text     string
		phonetic string
		want     scoring.Complexity
	}{
		{"cat", "/kæt/", scoring.Complex},
		{"dog", "/dɔɡ/", scoring.Complex},
		{"cat", "", scoring.Simple},
		{"hello", "/həˈloʊ/", scoring.Simple},
		{"ring", "/rɪŋ/", scoring.Complex},
		{"library", "/ˈlaɪbrɛri/", scoring.Medium},
		{"beautiful", "/ˈbjuːtɪfəl/", scoring.Complex},
		{"pronunciation", "", scoring.Complex},
		{"think", "/θɪŋk/", scoring.Complex},
		{"chair", "/tʃɛr/", scoring.Complex},
	}
	for _, tt := range tests {
		it := types.PracticeItem{Text: tt.text, Phonetic: tt.phonetic}
		if got := scoring.WordComplexity(it); got != tt.want {
			t.Errorf("WordComplexity(%q, %q) = %s, want %s", tt.text, tt.phonetic, got, tt.want)
		}
	}
}

func TestAudioQualityFactor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		m    types.RecordingMetadata
		want int
	}{
		{meta(0.4, 5000), -15},
		{meta(2, 900), -15},
		{meta(0.8, 5000), -5},
		{meta(2, 2500), -5},
		{meta(1.5, 5000), 0},
	}
	for _, tt := range tests {
		if got := scoring.AudioQualityFactor(tt.m); got != tt.want {
			t.Errorf("AudioQualityFactor(%+v) = %d, want %d", tt.m, got, tt.want)
		}
	}
}

func TestScorePhonetic(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		it   types.PracticeItem
		m    types.RecordingMetadata
		want int
	}{
		{
			name: "simple beginner word",
			it:   types.PracticeItem{Text: "hello", Phonetic: "/həˈloʊ/", Difficulty: types.Beginner},
			m:    meta(1.5, 5000),
			want: 75,
		},
		{
			name: "plain t in the transcription marks complexity",
			it:   types.PracticeItem{Text: "cat", Phonetic: "/kæt/", Difficulty: types.Beginner},
			m:    meta(1.5, 5000),
			want: 60,
		},
		{
			name: "complex advanced word on a poor recording clamps low",
			it:   types.PracticeItem{Text: "pronunciation", Phonetic: "/prəˌnʌnsiˈeɪʃən/", Difficulty: types.Advanced},
			m:    meta(0.2, 500),
			want: 20,
		},
		{
			name: "hard symbol marks complexity",
			it:   types.PracticeItem{Text: "think", Phonetic: "/θɪŋk/", Difficulty: types.Intermediate},
			m:    meta(0.8, 2500),
			want: 40,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := scoring.ScorePhonetic(tt.it, tt.m)
			if err != nil {
				t.Fatalf("ScorePhonetic: unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ScorePhonetic(%q, %+v) = %d, want %d", tt.it.Text, tt.m, got, tt.want)
			}
		})
	}
}

func TestScorePhonetic_IgnoresTranscript(t *testing.T) {
	t.Parallel()

	// The baseline only depends on the item and the recording, so two
	// attempts with identical metadata score the same.
	it := types.PracticeItem{Text: "hello", Difficulty: types.Beginner}
	a, _ := scoring.ScorePhonetic(it, meta(1, 4000))
	b, _ := scoring.ScorePhonetic(it, meta(1, 4000))
	if a != b {
		t.Errorf("ScorePhonetic not deterministic: %d != %d", a, b)
	}
}
