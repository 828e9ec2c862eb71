// Package normalize turns a raw analysis payload into whole-number
// percentages ready for display.
package normalize

import (
	"fmt"
	"math"

	"github.com/raysh454/commentlens/internal/model"
)

// SentimentOrder is the fixed display order of sentiment categories.
var SentimentOrder = []string{model.SentimentPositive, model.SentimentNeutral, model.SentimentNegative}

// Share is one category expressed against the comment total.
type Share struct {
	Category string `json:"category"`
	// Percentage is count / total, rounded.
	Percentage int `json:"percentage"`
	// Confidence is the model's mean confidence, rounded to a percentage.
	Confidence int `json:"confidence"`
	Count      int `json:"count"`
}

// Dominant is the strongest non-neutral emotion.
type Dominant struct {
	Category   string `json:"category"`
	Percentage int    `json:"percentage"`
}

// Result is the normalized view of one payload.
type Result struct {
	TotalComments     int       `json:"total_comments"`
	Sentiment         []Share   `json:"sentiment"`
	Emotions          []Share   `json:"emotions"`
	Dominant          *Dominant `json:"dominant,omitempty"`
	SarcasmPercentage int       `json:"sarcasm_percentage"`
}

// Percent rounds part/total*100 half away from zero.
func Percent(part, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(total) * 100))
}

func fractionToPercent(f float64) int {
	return int(math.Round(f * 100))
}

// Normalize converts p. It fails with model.ErrNoComments when the sentiment
// counts sum to zero and with model.ErrMalformedPayload when a sentiment
// category is missing or the counts exceed model.MaxCount.
func Normalize(p *model.Payload) (*Result, error) {
	if p == nil {
		return nil, fmt.Errorf("%w: nil payload", model.ErrMalformedPayload)
	}

	scores := make([]model.Score, len(SentimentOrder))
	total := 0
	for i, category := range SentimentOrder {
		s, ok := p.SentimentScore(category)
		if !ok {
			return nil, fmt.Errorf("%w: missing sentiment category %q", model.ErrMalformedPayload, category)
		}
		if s.Count < 0 || s.Count > model.MaxCount-total {
			return nil, fmt.Errorf("%w: sentiment counts exceed %d", model.ErrMalformedPayload, model.MaxCount)
		}
		scores[i] = s
		total += s.Count
	}
	if total == 0 {
		return nil, model.ErrNoComments
	}

	res := &Result{
		TotalComments:     total,
		Sentiment:         make([]Share, len(SentimentOrder)),
		SarcasmPercentage: fractionToPercent(p.Sarcasm()),
	}
	for i, category := range SentimentOrder {
		res.Sentiment[i] = Share{
			Category:   category,
			Percentage: Percent(scores[i].Count, total),
			Confidence: fractionToPercent(scores[i].Confidence),
			Count:      scores[i].Count,
		}
	}

	var best *model.CategoryScore
	emotions := p.Emotion()
	for i := range emotions {
		e := emotions[i]
		if e.Count < 0 || e.Count > model.MaxCount {
			return nil, fmt.Errorf("%w: emotion %q count out of range", model.ErrMalformedPayload, e.Category)
		}
		res.Emotions = append(res.Emotions, Share{
			Category:   e.Category,
			Percentage: Percent(e.Count, total),
			Confidence: fractionToPercent(e.Confidence),
			Count:      e.Count,
		})
		if e.Category == model.EmotionNeutral || e.Count <= 0 {
			continue
		}
		// strictly greater keeps the earliest category on ties
		if best == nil || e.Count > best.Count {
			best = &emotions[i]
		}
	}
	if best != nil {
		res.Dominant = &Dominant{Category: best.Category, Percentage: Percent(best.Count, total)}
	}
	return res, nil
}

// SentimentPercentage returns the rounded share for category, or 0.
func (r *Result) SentimentPercentage(category string) int {
	for _, s := range r.Sentiment {
		if s.Category == category {
			return s.Percentage
		}
	}
	return 0
}
