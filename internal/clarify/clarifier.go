package clarify

import (
	"strings"

	"github.com/your-org/moments/internal/models"
)

// MaxQuestions caps how many questions a moment gets.
const MaxQuestions = 2

// Input carries the signals scanned for ambiguity.
type Input struct {
	Caption   string
	Labels    []string
	FaceCount int
	Place     *models.Place
}

// Clarifier asks follow-up questions about moments that came in without a
// usable caption.
type Clarifier struct {
	profile models.Profile
}

func New(profile models.Profile) *Clarifier {
	return &Clarifier{profile: profile}
}

type cue struct {
	matches  func(c *Clarifier, in Input) bool
	question func(in Input) string
}

// cues are scanned in order; the first MaxQuestions matches win.
var cues = []cue{
	{
		matches: func(_ *Clarifier, in Input) bool {
			return hasAny(in.Labels, "suit", "tie", "tuxedo", "formal wear", "gown", "evening dress")
		},
		question: fixed("What was the occasion that called for dressing up?"),
	},
	{
		matches:  func(_ *Clarifier, in Input) bool { return hasAny(in.Labels, "cake") && hasAny(in.Labels, "candle") },
		question: fixed("Whose birthday was it?"),
	},
	{
		matches:  func(_ *Clarifier, in Input) bool { return hasAny(in.Labels, "stage", "crowd") },
		question: fixed("Who was performing, and what was the show?"),
	},
	{
		matches: func(c *Clarifier, in Input) bool { return c.profile.IsAway(in.Place) },
		question: func(in Input) string {
			return "What brought you to " + in.Place.City + "?"
		},
	},
	{
		matches:  func(_ *Clarifier, in Input) bool { return in.FaceCount == 2 },
		question: fixed("Who were you with?"),
	},
	{
		matches:  func(_ *Clarifier, in Input) bool { return in.FaceCount > 2 },
		question: fixed("What brought everyone together?"),
	},
	{
		matches: func(c *Clarifier, in Input) bool {
			return hasAny(in.Labels, "cooking", "food preparation") && c.profile.HasInterest("cooking")
		},
		question: fixed("What were you cooking?"),
	},
	{
		matches: func(c *Clarifier, in Input) bool {
			return hasAny(in.Labels, "hiking", "trail") && c.profile.HasInterest("hiking")
		},
		question: fixed("Which trail were you on?"),
	},
}

// Questions returns at most MaxQuestions questions, or an empty slice when
// the caption is meaningful or nothing looks ambiguous.
func (c *Clarifier) Questions(in Input) []string {
	out := []string{}
	if models.MeaningfulCaption(in.Caption) {
		return out
	}
	for _, cu := range cues {
		if !cu.matches(c, in) {
			continue
		}
		out = append(out, cu.question(in))
		if len(out) == MaxQuestions {
			break
		}
	}
	return out
}

func fixed(q string) func(Input) string {
	return func(Input) string { return q }
}

func hasAny(labels []string, want ...string) bool {
	for _, l := range labels {
		l = strings.TrimSpace(l)
		for _, w := range want {
			if strings.EqualFold(l, w) {
				return true
			}
		}
	}
	return false
}
