package narrative

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/your-org/moments/internal/models"
	"github.com/your-org/moments/internal/observability"
)

// ImageDescriber writes free text about an image given a prompt.
type ImageDescriber interface {
	DescribeImage(ctx context.Context, img []byte, prompt string) (string, error)
}

// Input is everything a narrative may draw on.
type Input struct {
	Image     []byte
	Caption   string
	TakenAt   time.Time
	Place     *models.Place
	Labels    []string
	FaceCount int
}

// Synthesizer produces the one-line story of a moment in third person.
type Synthesizer struct {
	llm     ImageDescriber
	profile models.Profile
	rng     Chooser
}

// New wires a synthesizer. llm may be nil; rng nil means a time-seeded
// chooser.
func New(llm ImageDescriber, profile models.Profile, rng Chooser) *Synthesizer {
	if rng == nil {
		rng = defaultChooser()
	}
	if strings.TrimSpace(profile.Name) == "" {
		profile.Name = "They"
	}
	return &Synthesizer{llm: llm, profile: profile, rng: rng}
}

// Synthesize picks the strategy by whether image bytes are available. It
// never fails.
func (s *Synthesizer) Synthesize(ctx context.Context, momentID uuid.UUID, in Input) string {
	if len(in.Image) == 0 {
		return s.Template(in)
	}

	if s.llm == nil {
		observability.Fallback("narrative", "unconfigured")
		return s.Generic()
	}

	start := time.Now()
	out, err := s.llm.DescribeImage(ctx, in.Image, s.Prompt(in))
	observability.StepDuration.WithLabelValues("narrative").Observe(time.Since(start).Seconds())
	if err != nil {
		observability.Fallback("narrative", "error")
		slog.Warn("narrative generation failed", "record_id", momentID, "step", "narrative", "error", err)
		return s.Generic()
	}
	if out = strings.TrimSpace(out); out == "" {
		observability.Fallback("narrative", "empty")
		return s.Generic()
	}
	return out
}

// Generic is the fixed sentence used when the image path degrades.
func (s *Synthesizer) Generic() string {
	return s.profile.Name + " captured a moment worth keeping."
}

// Prompt renders the image-understanding request.
func (s *Synthesizer) Prompt(in Input) string {
	p := s.profile
	tc := NewTimeContext(in.TakenAt)

	var b strings.Builder
	fmt.Fprintf(&b, "Write one or two sentences, in the third person, describing this photo as a moment in %s's life.\n\n", p.Name)
	fmt.Fprintf(&b, "About %s: ", p.Name)
	var about []string
	if p.Age > 0 {
		about = append(about, fmt.Sprintf("%d years old", p.Age))
	}
	if p.Occupation != "" {
		about = append(about, "works as "+p.Occupation)
	}
	if p.HomeCity != "" {
		about = append(about, "lives in "+p.HomeCity)
	}
	if len(p.Interests) > 0 {
		about = append(about, "enjoys "+strings.Join(p.Interests, ", "))
	}
	if len(about) == 0 {
		about = append(about, "no details known")
	}
	b.WriteString(strings.Join(about, "; "))
	b.WriteString(".\n")

	fmt.Fprintf(&b, "When: %s (%s), during %s.\n", tc.Weekday, tc.DayKind(), tc.Bucket)

	switch {
	case in.Place == nil || in.Place.City == "":
		b.WriteString("Where: unknown.\n")
	case p.IsHome(in.Place):
		fmt.Fprintf(&b, "Where: %s, locally in the home city.\n", placeName(in.Place))
	default:
		fmt.Fprintf(&b, "Where: %s, away from home.\n", placeName(in.Place))
	}

	if c := strings.TrimSpace(in.Caption); c != "" {
		fmt.Fprintf(&b, "Caption from %s: %q\n", p.Name, c)
	}
	fmt.Fprintf(&b, "\nRefer to %s by name. Reply with the sentences only.", p.Name)
	return b.String()
}

func placeName(pl *models.Place) string {
	if pl.Country == "" {
		return pl.City
	}
	return pl.City + ", " + pl.Country
}
