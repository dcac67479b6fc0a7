package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MrWong99/enunciate/internal/catalog"
	"github.com/MrWong99/enunciate/internal/practice"
	"github.com/MrWong99/enunciate/pkg/scoring"
	"github.com/MrWong99/enunciate/pkg/types"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score a single attempt",
	Long: "Score a single attempt at a catalog item (--item) or at free text (--text). " +
		"Without --transcript the attempt is scored from its duration and size only.",
	Example: `  enunciate score --item 1 --duration 1.4 --size 44800 --transcript pronunciation
  enunciate score --text "thank you" --difficulty beginner --duration 1 --size 32000 --json`,
	RunE: runScore,
}

func init() {
	f := scoreCmd.Flags()
	f.Int("item", 0, "catalog item ID")
	f.String("text", "", "free text to score instead of a catalog item")
	f.String("difficulty", string(types.Beginner), "difficulty of --text")
	f.Float64("duration", 0, "recording duration in seconds")
	f.Int64("size", 0, "recording size in bytes")
	f.String("transcript", "", "what the recognizer heard")
	f.Float64("confidence", 0, "recognizer confidence (0-1)")
	f.Bool("json", false, "print the result as JSON")
}

// scoreOutput is printed by the score command.
type scoreOutput struct {
	Item        types.PracticeItem       `json:"item"`
	Recognition *types.RecognitionResult `json:"recognition,omitempty"`
	Breakdown   types.ScoreBreakdown     `json:"breakdown"`
	Feedback    practice.Feedback        `json:"feedback"`
}

func runScore(cmd *cobra.Command, _ []string) error {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	var level slog.LevelVar
	level.Set(slog.LevelWarn)
	slog.SetDefault(newLogger(&level))

	f := cmd.Flags()
	item, err := scoreItem(cmd, cfg.Catalog.Path)
	if err != nil {
		return err
	}
	duration, _ := f.GetFloat64("duration")
	size, _ := f.GetInt64("size")
	transcript, _ := f.GetString("transcript")
	confidence, _ := f.GetFloat64("confidence")
	asJSON, _ := f.GetBool("json")

	engine, err := scoring.New(cfg.Scoring.EngineOptions()...)
	if err != nil {
		return fmt.Errorf("scoring config: %w", err)
	}

	in := scoring.Input{
		Item:      item,
		Recording: types.RecordingMetadata{DurationSeconds: duration, SizeBytes: size}.Sanitized(),
	}
	if strings.TrimSpace(transcript) != "" {
		rec := scoring.Recognize(item.Text, transcript, confidence)
		in.Recognition = &rec
	}
	b := engine.Score(cmd.Context(), in)

	tips := cfg.Practice.Tips
	fb := practice.Compose(b, engine.Thresholds(), cfg.Practice.Messages, func() string {
		if len(tips) == 0 {
			return ""
		}
		return tips[rand.IntN(len(tips))]
	})

	out := scoreOutput{Item: item, Recognition: in.Recognition, Breakdown: b, Feedback: fb}
	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}
	printScore(cmd.OutOrStdout(), out)
	return nil
}

// scoreItem builds an item from --text, or resolves --item from the
// catalog when no text is given.
func scoreItem(cmd *cobra.Command, catalogPath string) (types.PracticeItem, error) {
	f := cmd.Flags()
	if text, _ := f.GetString("text"); strings.TrimSpace(text) != "" {
		diff, _ := f.GetString("difficulty")
		item := types.PracticeItem{
			Text:       strings.TrimSpace(text),
			Kind:       types.KindWord,
			Difficulty: types.Difficulty(diff),
		}
		if strings.Contains(item.Text, " ") {
			item.Kind = types.KindPhrase
		}
		if err := catalog.ValidateContent(item); err != nil {
			return item, fmt.Errorf("invalid --text item: %w", err)
		}
		return item, nil
	}

	id, _ := f.GetInt("item")
	if id == 0 {
		return types.PracticeItem{}, errors.New("either --item or --text is required")
	}
	store, err := catalog.Open(cmd.Context(), catalogPath)
	if err != nil {
		return types.PracticeItem{}, err
	}
	item, err := store.Get(cmd.Context(), id)
	if errors.Is(err, catalog.ErrNotFound) {
		return item, fmt.Errorf("no catalog item with ID %d; see 'enunciate items'", id)
	}
	return item, err
}

func printScore(w io.Writer, out scoreOutput) {
	fmt.Fprintf(w, "%s (%s, %s)\n", out.Item.Text, out.Item.Kind, out.Item.Difficulty)
	if out.Recognition != nil {
		fmt.Fprintf(w, "  heard:     %q (similarity %.2f)\n", out.Recognition.RecognizedText, out.Recognition.Similarity)
		if out.Recognition.SoundsAlike {
			fmt.Fprintln(w, "             sounds the same as the expected text")
		}
	}
	b := out.Breakdown
	fmt.Fprintf(w, "  speech:    %3d (%s)\n", b.SpeechRecognition, b.SpeechSource)
	fmt.Fprintf(w, "  audio:     %3d\n", b.AudioAnalysis)
	fmt.Fprintf(w, "  phonetic:  %3d\n", b.Phonetic)
	fmt.Fprintf(w, "  final:     %3d  %s\n", b.FinalAccuracy, b.Tier)
	fmt.Fprintf(w, "\n%s\n", out.Feedback.Message)
	if out.Feedback.Tip != "" {
		fmt.Fprintf(w, "Tip: %s\n", out.Feedback.Tip)
	}
}
