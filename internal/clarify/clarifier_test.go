package clarify

import (
	"reflect"
	"testing"

	"github.com/your-org/moments/internal/models"
)

var profile = models.Profile{Name: "Alex", HomeCity: "Portland", Interests: []string{"cooking"}}

func TestQuestions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   Input
		want []string
	}{
		{
			name: "beach without faces",
			in:   Input{Labels: []string{"Beach"}},
			want: []string{},
		},
		{
			name: "meaningful caption",
			in:   Input{Caption: "Sam's birthday", Labels: []string{"Cake", "Candle"}, FaceCount: 2},
			want: []string{},
		},
		{
			name: "birthday and pair",
			in:   Input{Caption: " ok ", Labels: []string{"Cake", "Candle"}, FaceCount: 2},
			want: []string{"Whose birthday was it?", "Who were you with?"},
		},
		{
			name: "first two win",
			in:   Input{Labels: []string{"Suit", "Stage"}, FaceCount: 6, Place: &models.Place{City: "Austin"}},
			want: []string{"What was the occasion that called for dressing up?", "Who was performing, and what was the show?"},
		},
		{
			name: "away then group",
			in:   Input{Caption: "wow", FaceCount: 3, Place: &models.Place{City: "Austin"}},
			want: []string{"What brought you to Austin?", "What brought everyone together?"},
		},
		{
			name: "home is not away",
			in:   Input{FaceCount: 3, Place: &models.Place{City: "Portland"}},
			want: []string{"What brought everyone together?"},
		},
		{
			name: "cake alone is not a birthday",
			in:   Input{Labels: []string{"Cake"}},
			want: []string{},
		},
		{
			name: "cooking matches interest",
			in:   Input{Labels: []string{"Cooking"}},
			want: []string{"What were you cooking?"},
		},
		{
			name: "hiking without interest",
			in:   Input{Labels: []string{"Hiking"}},
			want: []string{},
		},
	}

	c := New(profile)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.Questions(tt.in); !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestQuestionsOnlyForShortCaptions(t *testing.T) {
	t.Parallel()

	c := New(profile)
	in := Input{FaceCount: 2}
	for _, caption := range []string{"", " ", "a", "abc", "  abc  ", "日本語"} {
		in.Caption = caption
		if len(c.Questions(in)) == 0 {
			t.Fatalf("caption %q should be clarified", caption)
		}
	}
	for _, caption := range []string{"abcd", " Dinner ", "日本語です"} {
		in.Caption = caption
		if len(c.Questions(in)) != 0 {
			t.Fatalf("caption %q should not be clarified", caption)
		}
	}
}
