package vision

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/google/uuid"

	"github.com/your-org/moments/internal/models"
)

type fakeProvider struct {
	faces      []models.Face
	labels     []models.Label
	lines      []string
	faceErr    error
	labelErr   error
	textErr    error
	calls      int
	gotMax     int
	gotMinConf float32
}

func (f *fakeProvider) DetectFaces(context.Context, []byte) ([]models.Face, error) {
	f.calls++
	return f.faces, f.faceErr
}

func (f *fakeProvider) DetectLabels(_ context.Context, _ []byte, max int, minConf float32) ([]models.Label, error) {
	f.calls++
	f.gotMax, f.gotMinConf = max, minConf
	return f.labels, f.labelErr
}

func (f *fakeProvider) DetectText(context.Context, []byte) ([]string, error) {
	f.calls++
	return f.lines, f.textErr
}

var img = []byte{0xFF, 0xD8, 0xFF, 0xD9}

func TestEnrichUnconfiguredUsesPlaceholders(t *testing.T) {
	t.Parallel()

	res := NewEnricher(nil).Enrich(context.Background(), uuid.New(), img)

	if res.Faces.Origin != models.OriginDegraded || !reflect.DeepEqual(res.Faces.Faces, PlaceholderFaces()) {
		t.Fatalf("faces = %+v, want placeholder set", res.Faces)
	}
	if res.Labels.Origin != models.OriginDegraded || !reflect.DeepEqual(res.Labels.Labels, PlaceholderLabels()) {
		t.Fatalf("labels = %+v, want placeholder set", res.Labels)
	}
	if res.Text.Text != "" {
		t.Fatalf("text = %q, want empty", res.Text.Text)
	}
}

func TestEnrichMissingImageSkipsProvider(t *testing.T) {
	t.Parallel()

	p := &fakeProvider{}
	res := NewEnricher(p).Enrich(context.Background(), uuid.New(), nil)
	if p.calls != 0 {
		t.Fatalf("provider called %d times without image bytes", p.calls)
	}
	if res.Faces.Origin != models.OriginDegraded {
		t.Fatalf("expected degraded faces, got %s", res.Faces.Origin)
	}
}

func TestEnrichProviderFailures(t *testing.T) {
	t.Parallel()

	boom := errors.New("throttled")
	p := &fakeProvider{faceErr: boom, labelErr: boom, textErr: boom}
	res := NewEnricher(p).Enrich(context.Background(), uuid.New(), img)

	if !reflect.DeepEqual(res.Faces.Faces, PlaceholderFaces()) {
		t.Fatalf("faces = %+v, want placeholder set", res.Faces.Faces)
	}
	if !reflect.DeepEqual(res.Labels.Labels, PlaceholderLabels()) {
		t.Fatalf("labels = %+v, want placeholder set", res.Labels.Labels)
	}
	if res.Text.Origin != models.OriginDegraded || res.Text.Text != "" {
		t.Fatalf("text = %+v, want empty degraded", res.Text)
	}
}

func TestEnrichFiltersProviderOutput(t *testing.T) {
	t.Parallel()

	var labels []models.Label
	labels = append(labels, models.Label{Name: "Blurry", Confidence: 79.9})
	for i := 0; i < 20; i++ {
		labels = append(labels, models.Label{Name: "L", Confidence: 80 + float32(i)/2})
	}

	p := &fakeProvider{
		faces: []models.Face{{
			Gender: "Female",
			Emotions: []models.Emotion{
				{Type: "HAPPY", Confidence: 97},
				{Type: "CONFUSED", Confidence: 50},
				{Type: "CALM", Confidence: 50.5},
			},
		}},
		labels: labels,
		lines:  []string{"HAPPY", "BIRTHDAY", "MAYA"},
	}
	res := NewEnricher(p).Enrich(context.Background(), uuid.New(), img)

	if p.gotMax != 15 || p.gotMinConf != 80 {
		t.Fatalf("provider asked for max=%d min=%v", p.gotMax, p.gotMinConf)
	}
	if got := res.Faces.Faces[0].Emotions; len(got) != 2 || got[0].Type != "HAPPY" || got[1].Type != "CALM" {
		t.Fatalf("emotions = %+v", got)
	}
	if len(res.Labels.Labels) != 15 || res.Labels.Labels[0].Confidence != 80 {
		t.Fatalf("labels = %+v", res.Labels.Labels)
	}
	if res.Text.Text != "HAPPY BIRTHDAY MAYA" {
		t.Fatalf("text = %q", res.Text.Text)
	}
}

func TestEnrichNoFacesIsNotDegraded(t *testing.T) {
	t.Parallel()

	res := NewEnricher(&fakeProvider{}).Enrich(context.Background(), uuid.New(), img)
	if res.Faces.Origin != models.OriginDetected || len(res.Faces.Faces) != 0 {
		t.Fatalf("faces = %+v, want detected empty", res.Faces)
	}
}
