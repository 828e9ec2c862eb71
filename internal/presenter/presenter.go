package presenter

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/raysh454/commentlens/internal/model"
	"github.com/raysh454/commentlens/internal/normalize"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Element ids of the rendered widget.
const (
	ContainerID     = "analyser-container"
	HeaderID        = "analysis-header"
	BodyID          = "analysis-body"
	SentimentID     = "analysis-sentiment-display"
	EmotionID       = "analysis-emotion-display"
	EmotionTextID   = "analysis-emotion-text"
	EmotionBarsID   = "analysis-emotion-bars"
	SarcasmID       = "analysis-sarcasm-display"
	SarcasmHeaderID = "analysis-sarcasm-header"
	SarcasmTextID   = "analysis-sarcasm-text"
	MessageID       = "analysis-message"
)

const (
	HeaderText     = "Comment Analysis:"
	DominantLabel  = "Strongest Emotion:"
	SarcasmHeader  = "Irony Analysis 😏"
	NoDominantText = "None"

	RingRadius        = 40.0
	RingCircumference = 2 * math.Pi * RingRadius
)

// Status lines shown instead of the widget.
const (
	MessageLoading    = "Loading..."
	MessageNotAVideo  = "Please visit a YouTube video"
	MessageNoComments = "No comment data available for this video"
	MessageTimeout    = "The analysis server timed out, try again later"
	MessageExhausted  = "Analysis is taking too long, try again later"
	MessageError      = "Error sending request to server..."
)

var ringColors = map[string]string{
	model.SentimentPositive: ColorGreen,
	model.SentimentNeutral:  ColorYellow,
	model.SentimentNegative: ColorRed,
}

var emotionEmoji = map[string]string{
	"surprise": "😲",
	"joy":      "😂",
	"anger":    "😡",
	"sadness":  "😢",
	"disgust":  "🤢",
	"fear":     "😨",
}

// Capitalize upper-cases the first letter of name and leaves the rest alone.
func Capitalize(name string) string {
	_, size := utf8.DecodeRuneInString(name)
	if size == 0 {
		return name
	}
	return cases.Upper(language.Und).String(name[:size]) + name[size:]
}

// Emoji returns the emoji for an emotion category, or "".
func Emoji(category string) string {
	return emotionEmoji[category]
}

// DashOffset is the stroke offset that leaves pct percent of the ring drawn.
func DashOffset(pct int) float64 {
	return float64(100-pct) / 100 * RingCircumference
}

// Present builds the widget tree for a normalized result.
func Present(r *normalize.Result) *RenderTree {
	return &RenderTree{Root: &Node{
		Kind: KindContainer,
		ID:   ContainerID,
		Children: []*Node{
			{Kind: KindText, ID: HeaderID, Label: HeaderText},
			{Kind: KindContainer, ID: BodyID, Children: []*Node{
				sentimentDisplay(r),
				emotionDisplay(r),
				sarcasmDisplay(r),
			}},
		},
	}}
}

func sentimentDisplay(r *normalize.Result) *Node {
	display := &Node{Kind: KindContainer, ID: SentimentID}
	for _, s := range r.Sentiment {
		name := Capitalize(s.Category)
		display.Children = append(display.Children, &Node{
			Kind:       KindRing,
			ID:         "analysis-ring-" + s.Category,
			Label:      fmt.Sprintf("%d%%", s.Percentage),
			Title:      name + " sentiment",
			Caption:    fmt.Sprintf("%s Comments : %d%% Confidence", name, s.Confidence),
			Percentage: s.Percentage,
			Color:      ringColors[s.Category],
			DashOffset: DashOffset(s.Percentage),
		})
	}
	return display
}

func emotionDisplay(r *normalize.Result) *Node {
	text := DominantLabel + " " + NoDominantText
	pct := 0
	if r.Dominant != nil {
		text = strings.TrimSpace(DominantLabel + " " + Capitalize(r.Dominant.Category) + " " + Emoji(r.Dominant.Category))
		pct = r.Dominant.Percentage
	}

	bars := &Node{Kind: KindContainer, ID: EmotionBarsID}
	for _, e := range r.Emotions {
		bars.Children = append(bars.Children, &Node{
			Kind:       KindBar,
			ID:         "analysis-emotion-" + e.Category,
			Label:      fmt.Sprintf("%s: %d%%", e.Category, e.Confidence),
			Percentage: e.Confidence,
		})
	}

	return &Node{Kind: KindContainer, ID: EmotionID, Children: []*Node{
		{Kind: KindText, ID: EmotionTextID, Label: text, Percentage: pct},
		bars,
	}}
}

func sarcasmDisplay(r *normalize.Result) *Node {
	return &Node{Kind: KindContainer, ID: SarcasmID, Children: []*Node{
		{Kind: KindText, ID: SarcasmHeaderID, Label: SarcasmHeader},
		{
			Kind:       KindProgress,
			ID:         SarcasmTextID,
			Label:      fmt.Sprintf("%d%% Sarcasm Detection", r.SarcasmPercentage),
			Percentage: r.SarcasmPercentage,
		},
	}}
}

// PresentMessage builds a tree holding a single status line.
func PresentMessage(msg string) *RenderTree {
	return &RenderTree{
		Message: msg,
		Root: &Node{Kind: KindContainer, ID: ContainerID, Children: []*Node{
			{Kind: KindText, ID: MessageID, Label: msg},
		}},
	}
}

// MessageFor picks the status line for a failure.
func MessageFor(err error) string {
	switch {
	case errors.Is(err, model.ErrNotAVideoPage):
		return MessageNotAVideo
	case errors.Is(err, model.ErrNoComments):
		return MessageNoComments
	case errors.Is(err, model.ErrServerTimeout):
		return MessageTimeout
	case errors.Is(err, model.ErrPollExhausted):
		return MessageExhausted
	default:
		return MessageError
	}
}

// PresentError replaces the widget with the status line for err.
func PresentError(err error) *RenderTree {
	return PresentMessage(MessageFor(err))
}

// PresentOutcome normalizes and presents a Ready outcome, shows the loading
// line while pending and the matching status line on failure.
func PresentOutcome(o model.Outcome) *RenderTree {
	switch o.Status {
	case model.StatusPending:
		return PresentMessage(MessageLoading)
	case model.StatusFailed:
		return PresentError(o.Err)
	}
	res, err := normalize.Normalize(o.Payload)
	if err != nil {
		return PresentError(err)
	}
	return Present(res)
}
