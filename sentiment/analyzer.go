package sentiment

import (
	"math"
	"regexp"
	"strings"

	"github.com/jonreiter/govader"
)

// Label is the three-way classification of a compound score.
type Label string

const (
	LabelPositive Label = "Positive"
	LabelNegative Label = "Negative"
	LabelNeutral  Label = "Neutral"
)

// Bucket is the five-level breakdown used by distribution charts.
type Bucket string

const (
	BucketVeryPositive Bucket = "Very Positive"
	BucketPositive     Bucket = "Positive"
	BucketNeutral      Bucket = "Neutral"
	BucketNegative     Bucket = "Negative"
	BucketVeryNegative Bucket = "Very Negative"
)

// Label thresholds are fixed; the very-positive/very-negative bucket cutoffs
// are configurable.
const (
	positiveThreshold = 0.05
	negativeThreshold = -0.05
)

// Result holds the VADER scores for one text.
type Result struct {
	Positive   float64
	Neutral    float64
	Negative   float64
	Compound   float64 // in [-1, 1]
	Label      Label
	Bucket     Bucket
	TextLength int
}

// Analyzer scores text with the VADER lexicon. It is stateless: the same
// text always yields the same result.
type Analyzer struct {
	vader         *govader.SentimentIntensityAnalyzer
	minTextLength int
	veryPositive  float64
	veryNegative  float64
}

// NewAnalyzer builds an analyzer with the configured minimum text length
// and bucket thresholds.
func NewAnalyzer(minTextLength int, veryPositive, veryNegative float64) *Analyzer {
	return &Analyzer{
		vader:         govader.NewSentimentIntensityAnalyzer(),
		minTextLength: minTextLength,
		veryPositive:  veryPositive,
		veryNegative:  veryNegative,
	}
}

// Eligible reports whether text is long enough to be scored and stored.
func (a *Analyzer) Eligible(text string) bool {
	return len(text) >= a.minTextLength
}

// Analyze scores one text. Empty input yields the neutral zero result.
func (a *Analyzer) Analyze(text string) Result {
	if strings.TrimSpace(text) == "" {
		return Result{Neutral: 1, Label: LabelNeutral, Bucket: BucketNeutral}
	}

	scores := a.vader.PolarityScores(cleanText(text))
	compound := round3(scores.Compound)

	return Result{
		Positive:   round3(scores.Positive),
		Neutral:    round3(scores.Neutral),
		Negative:   round3(scores.Negative),
		Compound:   compound,
		Label:      LabelFor(compound),
		Bucket:     a.bucketFor(compound),
		TextLength: len(text),
	}
}

// LabelFor classifies a compound score with the fixed thresholds:
// >= 0.05 Positive, <= -0.05 Negative, Neutral in between.
func LabelFor(compound float64) Label {
	switch {
	case compound >= positiveThreshold:
		return LabelPositive
	case compound <= negativeThreshold:
		return LabelNegative
	default:
		return LabelNeutral
	}
}

func (a *Analyzer) bucketFor(compound float64) Bucket {
	switch {
	case compound >= a.veryPositive:
		return BucketVeryPositive
	case compound >= positiveThreshold:
		return BucketPositive
	case compound <= a.veryNegative:
		return BucketVeryNegative
	case compound <= negativeThreshold:
		return BucketNegative
	default:
		return BucketNeutral
	}
}

var (
	urlPattern   = regexp.MustCompile(`https?://\S+|www\.\S+`)
	spacePattern = regexp.MustCompile(`\s+`)
)

// cleanText strips URLs and collapses whitespace before scoring.
func cleanText(text string) string {
	text = urlPattern.ReplaceAllString(text, "")
	text = spacePattern.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
