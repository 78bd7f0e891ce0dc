package classify

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

// MaxLabels bounds how many label names go into the prompt.
const MaxLabels = 15

// Completer answers a single text prompt.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Classifier maps vision signals and the caption onto one category.
type Classifier struct {
	llm Completer
}

// New accepts a nil completer; every call then yields personal.
func New(llm Completer) *Classifier {
	return &Classifier{llm: llm}
}

// Input is the context a moment is classified from.
type Input struct {
	Labels  []string
	Text    string
	Caption string
}

// Classify always returns a member of the closed category set.
func (c *Classifier) Classify(ctx context.Context, momentID uuid.UUID, in Input) models.CategoryResult {
	fallback := models.CategoryResult{Origin: models.OriginDegraded, Category: models.CategoryPersonal}
	if c == nil || c.llm == nil {
		observability.Fallback("classify", "unconfigured")
		return fallback
	}

	start := time.Now()
	reply, err := c.llm.Complete(ctx, BuildPrompt(in))
	observability.StepDuration.WithLabelValues("classify").Observe(time.Since(start).Seconds())
	if err != nil {
		observability.Fallback("classify", "error")
		slog.Warn("classification failed", "record_id", momentID, "step", "classify", "error", err)
		return fallback
	}

	cat, ok := models.ParseCategory(strings.ToLower(strings.TrimSpace(reply)))
	if !ok {
		observability.Fallback("classify", "invalid")
		slog.Warn("classification outside closed set", "record_id", momentID, "step", "classify", "reply", reply)
		return fallback
	}
	return models.CategoryResult{Origin: models.OriginDetected, Category: cat}
}

var descriptions = map[models.Category]string{
	models.CategoryFamily:      "relatives, children, parents, home life, family meals",
	models.CategoryTravel:      "trips, landmarks, hotels, airports, sightseeing",
	models.CategoryFood:        "restaurants, cooking, meals, dining out",
	models.CategoryWork:        "office, meetings, conferences, professional events",
	models.CategoryCelebration: "birthdays, weddings, parties, holidays, anniversaries",
	models.CategoryNature:      "outdoors, hiking, beaches, parks, wildlife, camping",
	models.CategorySports:      "exercise, games, athletics, fitness",
	models.CategoryEducation:   "school, classes, books, graduation",
	models.CategorySocial:      "friends, gatherings, nightlife, community events",
	models.CategoryHobby:       "crafts, collections, creative projects",
	models.CategoryPersonal:    "daily life, self-care, routine, quiet moments alone",
}

// BuildPrompt renders the classification prompt. The caption is weighted
// above visual evidence and the reply must be a bare category token.
func BuildPrompt(in Input) string {
	labels := in.Labels
	if len(labels) > MaxLabels {
		labels = labels[:MaxLabels]
	}
	visual := "none detected"
	if len(labels) > 0 {
		visual = strings.Join(labels, ", ")
	}
	text := "(no text found)"
	if t := strings.TrimSpace(in.Text); t != "" {
		text = fmt.Sprintf("%q", t)
	}

	var b strings.Builder
	b.WriteString("Classify this personal life moment into exactly one category.\n\n")
	fmt.Fprintf(&b, "Caption written by the user: %q\n", strings.TrimSpace(in.Caption))
	fmt.Fprintf(&b, "Things visible in the photo: %s\n", visual)
	fmt.Fprintf(&b, "Text visible in the photo: %s\n\n", text)
	b.WriteString("Categories:\n")
	for _, cat := range models.Categories {
		fmt.Fprintf(&b, "- %s: %s\n", cat, descriptions[cat])
	}
	b.WriteString("\nRules:\n")
	b.WriteString("1. The caption reflects the user's intent and outweighs everything else.\n")
	b.WriteString("2. Use the visible things and text only as supporting evidence.\n")
	b.WriteString("3. Pick a single category, the most specific one that fits.\n")
	b.WriteString("4. Reply with the category name only, lowercase, with no explanation.\n\n")
	b.WriteString("Category:")
	return b.String()
}
