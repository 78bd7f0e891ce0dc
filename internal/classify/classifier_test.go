package classify

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/your-org/moments/internal/models"
)

type fakeCompleter struct {
	reply  string
	err    error
	calls  int
	prompt string
}

func (f *fakeCompleter) Complete(_ context.Context, prompt string) (string, error) {
	f.calls++
	f.prompt = prompt
	return f.reply, f.err
}

func TestClassifyReplies(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		reply  string
		err    error
		want   models.Category
		origin models.Origin
	}{
		{"exact", "food", nil, models.CategoryFood, models.OriginDetected},
		{"padded uppercase", "  Travel\n", nil, models.CategoryTravel, models.OriginDetected},
		{"explanation", "celebration, because of the cake", nil, models.CategoryPersonal, models.OriginDegraded},
		{"trailing period", "nature.", nil, models.CategoryPersonal, models.OriginDegraded},
		{"unknown", "shopping", nil, models.CategoryPersonal, models.OriginDegraded},
		{"empty", "", nil, models.CategoryPersonal, models.OriginDegraded},
		{"provider error", "", errors.New("timeout"), models.CategoryPersonal, models.OriginDegraded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := New(&fakeCompleter{reply: tt.reply, err: tt.err})
			got := c.Classify(context.Background(), uuid.New(), Input{})
			if got.Category != tt.want || got.Origin != tt.origin {
				t.Fatalf("got %+v, want %s/%s", got, tt.want, tt.origin)
			}
		})
	}
}

func TestClassifyUnconfiguredNeverCalls(t *testing.T) {
	t.Parallel()

	got := New(nil).Classify(context.Background(), uuid.New(), Input{Caption: "Dinner with Sam"})
	if got.Category != models.CategoryPersonal {
		t.Fatalf("got %s, want personal", got.Category)
	}
}

func TestClassifyAlwaysInClosedSet(t *testing.T) {
	t.Parallel()

	replies := []string{"", " ", "FAMILY", "sports!", "work\nwork", "hobby", "Personal", "🎉", "education "}
	for _, r := range replies {
		got := New(&fakeCompleter{reply: r}).Classify(context.Background(), uuid.New(), Input{})
		if _, ok := models.ParseCategory(string(got.Category)); !ok {
			t.Fatalf("reply %q produced %q outside the closed set", r, got.Category)
		}
	}
}

func TestBuildPrompt(t *testing.T) {
	t.Parallel()

	labels := make([]string, 20)
	for i := range labels {
		labels[i] = "L" + string(rune('a'+i))
	}
	p := BuildPrompt(Input{Labels: labels, Text: "HAPPY BIRTHDAY", Caption: " Maya turns 5 "})

	if !strings.Contains(p, `"Maya turns 5"`) || !strings.Contains(p, `"HAPPY BIRTHDAY"`) {
		t.Fatalf("prompt missing caption or text:\n%s", p)
	}
	if !strings.Contains(p, "Lo") || strings.Contains(p, "Lp") {
		t.Fatalf("prompt should carry exactly the first 15 labels:\n%s", p)
	}
	for _, cat := range models.Categories {
		if !strings.Contains(p, "- "+string(cat)+":") {
			t.Fatalf("prompt missing category %s", cat)
		}
	}

	empty := BuildPrompt(Input{})
	if !strings.Contains(empty, "none detected") || !strings.Contains(empty, "(no text found)") {
		t.Fatalf("empty prompt:\n%s", empty)
	}
}
