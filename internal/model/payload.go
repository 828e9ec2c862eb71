package model

import (
	"bytes"
	"fmt"
	"math"
	"strconv"

	json "github.com/goccy/go-json"
	"github.com/tidwall/gjson"
)

// Wire field names of the analysis document.
const (
	FieldSentiment = "sentiment_analysis"
	FieldEmotion   = "emotion_analysis"
	FieldSarcasm   = "sarcasm_analysis"
)

// Sentiment categories, in display order.
const (
	SentimentPositive = "positive"
	SentimentNeutral  = "neutral"
	SentimentNegative = "negative"
)

// EmotionNeutral never wins the dominant emotion.
const EmotionNeutral = "neutral"

// MaxCount bounds a single category count and the sentiment total.
const MaxCount = math.MaxInt32

// Score is the [confidence, count] pair the server reports per category.
type Score struct {
	Confidence float64 `json:"confidence"`
	Count      int     `json:"count"`
}

// CategoryScore is a Score tagged with its category name.
type CategoryScore struct {
	Category string `json:"category"`
	Score
}

// Payload is a decoded analysis document. Categories keep the order in
// which the server listed them. A Payload is never mutated after decoding.
type Payload struct {
	sentiment []CategoryScore
	emotion   []CategoryScore
	sarcasm   float64
	raw       []byte
}

// NewPayload builds a Payload from already-validated parts. The slices are
// copied.
func NewPayload(sentiment, emotion []CategoryScore, sarcasm float64) *Payload {
	return &Payload{
		sentiment: append([]CategoryScore(nil), sentiment...),
		emotion:   append([]CategoryScore(nil), emotion...),
		sarcasm:   sarcasm,
	}
}

// Sentiment returns a copy of the sentiment categories in document order.
func (p *Payload) Sentiment() []CategoryScore {
	return append([]CategoryScore(nil), p.sentiment...)
}

// Emotion returns a copy of the emotion categories in document order.
func (p *Payload) Emotion() []CategoryScore {
	return append([]CategoryScore(nil), p.emotion...)
}

// Sarcasm is the fraction of comments flagged as sarcastic, in [0, 1].
func (p *Payload) Sarcasm() float64 { return p.sarcasm }

// SentimentScore looks up one sentiment category.
func (p *Payload) SentimentScore(category string) (Score, bool) {
	return lookup(p.sentiment, category)
}

func lookup(scores []CategoryScore, category string) (Score, bool) {
	for _, s := range scores {
		if s.Category == category {
			return s.Score, true
		}
	}
	return Score{}, false
}

// MarshalJSON writes the wire form. Decoded payloads are returned byte for
// byte; constructed ones keep category order.
func (p *Payload) MarshalJSON() ([]byte, error) {
	if len(p.raw) > 0 {
		return append([]byte(nil), p.raw...), nil
	}
	var buf bytes.Buffer
	buf.WriteString(`{"` + FieldSentiment + `":`)
	if err := writeScores(&buf, p.sentiment); err != nil {
		return nil, err
	}
	buf.WriteString(`,"` + FieldEmotion + `":`)
	if err := writeScores(&buf, p.emotion); err != nil {
		return nil, err
	}
	buf.WriteString(`,"` + FieldSarcasm + `":`)
	buf.WriteString(strconv.FormatFloat(p.sarcasm, 'g', -1, 64))
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeScores(buf *bytes.Buffer, scores []CategoryScore) error {
	buf.WriteByte('{')
	for i, s := range scores {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(s.Category)
		if err != nil {
			return err
		}
		buf.Write(key)
		fmt.Fprintf(buf, ":[%s,%d]", strconv.FormatFloat(s.Confidence, 'g', -1, 64), s.Count)
	}
	buf.WriteByte('}')
	return nil
}

// ParsePayload decodes and validates an analysis document. Every rejection
// wraps ErrMalformedPayload.
func ParsePayload(body []byte) (*Payload, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: body is not valid JSON", ErrMalformedPayload)
	}
	root := gjson.ParseBytes(body)
	if !root.IsObject() {
		return nil, fmt.Errorf("%w: expected a JSON object", ErrMalformedPayload)
	}

	sentiment, err := parseScores(root.Get(FieldSentiment), FieldSentiment)
	if err != nil {
		return nil, err
	}
	emotion, err := parseScores(root.Get(FieldEmotion), FieldEmotion)
	if err != nil {
		return nil, err
	}

	sarcasm := root.Get(FieldSarcasm)
	if !sarcasm.Exists() {
		return nil, fmt.Errorf("%w: missing %s", ErrMalformedPayload, FieldSarcasm)
	}
	if sarcasm.Type != gjson.Number {
		return nil, fmt.Errorf("%w: %s is not a number", ErrMalformedPayload, FieldSarcasm)
	}
	fraction := sarcasm.Float()
	if fraction < 0 || fraction > 1 || math.IsNaN(fraction) {
		return nil, fmt.Errorf("%w: %s %v outside [0,1]", ErrMalformedPayload, FieldSarcasm, fraction)
	}

	return &Payload{
		sentiment: sentiment,
		emotion:   emotion,
		sarcasm:   fraction,
		raw:       append([]byte(nil), body...),
	}, nil
}

func parseScores(v gjson.Result, field string) ([]CategoryScore, error) {
	if !v.Exists() {
		return nil, fmt.Errorf("%w: missing %s", ErrMalformedPayload, field)
	}
	if !v.IsObject() {
		return nil, fmt.Errorf("%w: %s is not an object", ErrMalformedPayload, field)
	}

	var (
		out     []CategoryScore
		walkErr error
	)
	v.ForEach(func(key, value gjson.Result) bool {
		score, err := parseScore(value)
		if err != nil {
			walkErr = fmt.Errorf("%w: %s.%s: %v", ErrMalformedPayload, field, key.String(), err)
			return false
		}
		out = append(out, CategoryScore{Category: key.String(), Score: score})
		return true
	})
	if walkErr != nil {
		return nil, walkErr
	}
	return out, nil
}

func parseScore(v gjson.Result) (Score, error) {
	if !v.IsArray() {
		return Score{}, fmt.Errorf("expected [confidence, count]")
	}
	pair := v.Array()
	if len(pair) != 2 || pair[0].Type != gjson.Number || pair[1].Type != gjson.Number {
		return Score{}, fmt.Errorf("expected [confidence, count]")
	}
	confidence := pair[0].Float()
	if confidence < 0 || confidence > 1 {
		return Score{}, fmt.Errorf("confidence %v outside [0,1]", confidence)
	}
	count := pair[1].Float()
	if count < 0 || count != math.Trunc(count) {
		return Score{}, fmt.Errorf("count %v is not a non-negative integer", count)
	}
	if count > MaxCount {
		return Score{}, fmt.Errorf("count %v exceeds %d", count, MaxCount)
	}
	return Score{Confidence: confidence, Count: int(count)}, nil
}
