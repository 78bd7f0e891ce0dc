package pipeline

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/jpeg"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/your-org/moments/internal/clarify"
	"github.com/your-org/moments/internal/classify"
	"github.com/your-org/moments/internal/models"
	"github.com/your-org/moments/internal/narrative"
	"github.com/your-org/moments/internal/storage"
	"github.com/your-org/moments/internal/vision"
)

type fakeRecords struct {
	mu         sync.Mutex
	moments    map[uuid.UUID]*models.Moment
	getErr     error
	finishErrs []error
	finishes   []models.Outcome
}

func (f *fakeRecords) GetMoment(_ context.Context, id uuid.UUID) (*models.Moment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	m, ok := f.moments[id]
	if !ok {
		return nil, nil
	}
	cp := *m
	return &cp, nil
}

func (f *fakeRecords) FinishMoment(_ context.Context, id uuid.UUID, out models.Outcome) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.finishes = append(f.finishes, out)
	if len(f.finishErrs) > 0 {
		err := f.finishErrs[0]
		f.finishErrs = f.finishErrs[1:]
		if err != nil {
			return err
		}
	}
	m := f.moments[id]
	if m.Status != models.MomentStatusPending {
		return storage.ErrNotPending
	}
	m.Status, m.Summary, m.Labels, m.Enrichment = out.Status, out.Summary, out.Labels, out.Enrichment
	return nil
}

type fakeObjects struct {
	data  map[string][]byte
	panic bool
}

func (f *fakeObjects) GetObject(_ context.Context, key string) ([]byte, error) {
	if f.panic {
		panic("object store exploded")
	}
	d, ok := f.data[key]
	if !ok {
		return nil, errors.New("no such key")
	}
	return d, nil
}

type recordingEvents struct {
	events []models.MomentEvent
}

func (r *recordingEvents) PublishMoment(_ context.Context, ev models.MomentEvent) error {
	r.events = append(r.events, ev)
	return nil
}

type fakeProvider struct{}

func (fakeProvider) DetectFaces(context.Context, []byte) ([]models.Face, error) {
	return []models.Face{{Gender: "Male"}, {Gender: "Female"}}, nil
}

func (fakeProvider) DetectLabels(context.Context, []byte, int, float32) ([]models.Label, error) {
	return []models.Label{
		{Name: "Restaurant", Confidence: 95}, {Name: "Food", Confidence: 93}, {Name: "Table", Confidence: 90},
		{Name: "Chair", Confidence: 88}, {Name: "Person", Confidence: 87}, {Name: "Wine", Confidence: 85},
	}, nil
}

func (fakeProvider) DetectText(context.Context, []byte) ([]string, error) {
	return []string{"MENU"}, nil
}

type staticCompleter string

func (s staticCompleter) Complete(context.Context, string) (string, error) { return string(s), nil }

type staticDescriber string

func (s staticDescriber) DescribeImage(context.Context, []byte, string) (string, error) {
	return string(s), nil
}

var profile = models.Profile{Name: "Alex", HomeCity: "Portland"}

func testJPEG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, image.NewGray(image.Rect(0, 0, 6, 4)), nil); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func pending(caption string) *models.Moment {
	id := uuid.New()
	return &models.Moment{
		ID:           id,
		SessionID:    "s1",
		Kind:         models.MomentKindImage,
		Source:       storage.ImageKey(id.String()),
		SourceFormat: models.SourceFormatGeneric,
		Caption:      caption,
		Status:       models.MomentStatusPending,
		Summary:      models.PendingSummary,
		CreatedAt:    time.Date(2024, 6, 15, 19, 30, 0, 0, time.UTC),
	}
}

func setup(t *testing.T, m *models.Moment, img []byte) (*fakeRecords, *fakeObjects, *recordingEvents) {
	t.Helper()
	records := &fakeRecords{moments: map[uuid.UUID]*models.Moment{m.ID: m}}
	objects := &fakeObjects{data: map[string][]byte{}}
	if img != nil {
		objects.data[m.Source] = img
	}
	return records, objects, &recordingEvents{}
}

func TestRunUnconfiguredCompletesWithPlaceholders(t *testing.T) {
	t.Parallel()

	m := pending("")
	records, objects, events := setup(t, m, testJPEG(t))
	o := New(Deps{Records: records, Objects: objects, Events: events,
		Narrator: narrative.New(nil, profile, nil), Clarifier: clarify.New(profile)})

	if err := o.Run(context.Background(), models.PipelineTask{MomentID: m.ID}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(records.finishes) != 1 {
		t.Fatalf("want exactly one commit, got %d", len(records.finishes))
	}
	out := records.finishes[0]
	if out.Status != models.MomentStatusCompleted {
		t.Fatalf("status = %s", out.Status)
	}
	e := out.Enrichment
	if e.Faces.Origin != models.OriginDegraded || len(e.Faces.Faces) != 2 || e.Labels.Origin != models.OriginDegraded {
		t.Fatalf("expected placeholders, got %+v", e)
	}
	if e.Category.Category != models.CategoryPersonal {
		t.Fatalf("category = %s, want personal", e.Category.Category)
	}
	if e.Location.Origin != models.OriginAbsent || e.Location.Place != nil {
		t.Fatalf("location = %+v, want absent", e.Location)
	}
	if out.Summary != "Alex captured a moment worth keeping." {
		t.Fatalf("summary = %q, want generic sentence", out.Summary)
	}
	if out.Labels != "Person,Smile,Indoors" {
		t.Fatalf("labels = %q", out.Labels)
	}
	if out.RichMetadata != nil {
		t.Fatalf("generic source persisted rich metadata")
	}
	if want := []string{"Who were you with?"}; len(e.Questions) != 1 || e.Questions[0] != want[0] {
		t.Fatalf("questions = %q, want %q", e.Questions, want)
	}
	if len(events.events) != 1 || events.events[0].Status != models.MomentStatusCompleted || events.events[0].SessionID != "s1" {
		t.Fatalf("events = %+v", events.events)
	}
}

func TestRunConfiguredProviders(t *testing.T) {
	t.Parallel()

	m := pending("Dinner with Sam")
	records, objects, events := setup(t, m, testJPEG(t))
	o := New(Deps{
		Records:    records,
		Objects:    objects,
		Events:     events,
		Vision:     vision.NewEnricher(fakeProvider{}),
		Classifier: classify.New(staticCompleter("food")),
		Narrator:   narrative.New(staticDescriber("Alex shares dinner with Sam."), profile, nil),
		Clarifier:  clarify.New(profile),
	})

	if err := o.Run(context.Background(), models.PipelineTask{MomentID: m.ID}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	out := records.finishes[0]
	if out.Summary != "Alex shares dinner with Sam." || out.Enrichment.Category.Category != models.CategoryFood {
		t.Fatalf("unexpected outcome %+v", out)
	}
	if out.Labels != "Restaurant,Food,Table,Chair,Person" {
		t.Fatalf("labels = %q, want top five", out.Labels)
	}
	if out.Enrichment.Text.Text != "MENU" || len(out.Enrichment.Questions) != 0 {
		t.Fatalf("enrichment = %+v", out.Enrichment)
	}
}

func TestRunWithoutImageUsesTemplate(t *testing.T) {
	t.Parallel()

	m := pending("Dinner with Sam")
	records, objects, events := setup(t, m, nil)
	o := New(Deps{Records: records, Objects: objects, Events: events,
		Narrator: narrative.New(staticDescriber("never used"), profile, nil)})

	if err := o.Run(context.Background(), models.PipelineTask{MomentID: m.ID}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	out := records.finishes[0]
	if out.Status != models.MomentStatusCompleted {
		t.Fatalf("status = %s", out.Status)
	}
	// placeholder faces count as two people
	if out.Summary != "Dinner with Sam with a friend." {
		t.Fatalf("summary = %q", out.Summary)
	}
}

func TestRunCommitFailureMarksFailed(t *testing.T) {
	t.Parallel()

	m := pending("")
	records, objects, events := setup(t, m, testJPEG(t))
	records.finishErrs = []error{errors.New("connection reset"), nil}
	o := New(Deps{Records: records, Objects: objects, Events: events})

	if err := o.Run(context.Background(), models.PipelineTask{MomentID: m.ID}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(records.finishes) != 2 {
		t.Fatalf("want completed attempt then failed commit, got %d", len(records.finishes))
	}
	failed := records.finishes[1]
	if failed.Status != models.MomentStatusFailed || failed.Summary != models.FailedSummary {
		t.Fatalf("second commit = %+v", failed)
	}
	if e := failed.Enrichment; e == nil || !strings.Contains(e.Error, "connection reset") ||
		e.Faces.Faces != nil || e.Labels.Labels != nil || e.Questions != nil {
		t.Fatalf("failed bundle must carry only the error: %+v", e)
	}
	if failed.RichMetadata != nil || failed.TakenAt != nil {
		t.Fatalf("failed commit wrote partial metadata")
	}
	if len(events.events) != 1 || events.events[0].Status != models.MomentStatusFailed {
		t.Fatalf("events = %+v", events.events)
	}
}

func TestRunCommitFailureTwiceIsReturned(t *testing.T) {
	t.Parallel()

	m := pending("")
	records, objects, events := setup(t, m, testJPEG(t))
	records.finishErrs = []error{errors.New("down"), errors.New("still down")}
	o := New(Deps{Records: records, Objects: objects, Events: events})

	if err := o.Run(context.Background(), models.PipelineTask{MomentID: m.ID}); err == nil {
		t.Fatalf("expected error for redelivery")
	}
	if len(events.events) != 0 {
		t.Fatalf("event published without a commit")
	}
}

func TestRunPanicMarksFailed(t *testing.T) {
	t.Parallel()

	m := pending("")
	records, objects, events := setup(t, m, nil)
	objects.panic = true
	o := New(Deps{Records: records, Objects: objects, Events: events})

	if err := o.Run(context.Background(), models.PipelineTask{MomentID: m.ID}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	out := records.finishes[0]
	if out.Status != models.MomentStatusFailed || !strings.Contains(out.Enrichment.Error, "object store exploded") {
		t.Fatalf("outcome = %+v", out)
	}
}

func TestRunSkipsFinishedAndUnknown(t *testing.T) {
	t.Parallel()

	m := pending("")
	m.Status = models.MomentStatusCompleted
	records, objects, events := setup(t, m, testJPEG(t))
	o := New(Deps{Records: records, Objects: objects, Events: events})

	if err := o.Run(context.Background(), models.PipelineTask{MomentID: m.ID}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if err := o.Run(context.Background(), models.PipelineTask{MomentID: uuid.New()}); err != nil {
		t.Fatalf("Run unknown: %v", err)
	}
	if len(records.finishes) != 0 || len(events.events) != 0 {
		t.Fatalf("finished record was touched")
	}
}

func TestRunLoadErrorIsReturned(t *testing.T) {
	t.Parallel()

	m := pending("")
	records, objects, events := setup(t, m, nil)
	records.getErr = errors.New("db down")
	o := New(Deps{Records: records, Objects: objects, Events: events})

	if err := o.Run(context.Background(), models.PipelineTask{MomentID: m.ID}); err == nil {
		t.Fatalf("expected load error")
	}
}

type fakeResolver struct {
	place *models.Place
	err   error
}

func (f fakeResolver) Resolve(context.Context, float64, float64) (*models.Place, error) {
	return f.place, f.err
}

func TestLocate(t *testing.T) {
	t.Parallel()

	lat, lon := 45.5, -122.6
	withCoords := &models.Metadata{Latitude: &lat, Longitude: &lon}
	paris := &models.Place{City: "Paris", Country: "France"}

	tests := []struct {
		name   string
		o      *Orchestrator
		md     *models.Metadata
		origin models.Origin
		place  *models.Place
	}{
		{"no coordinates", New(Deps{Geo: fakeResolver{place: paris}}), &models.Metadata{}, models.OriginAbsent, nil},
		{"unconfigured", New(Deps{}), withCoords, models.OriginAbsent, nil},
		{"error", New(Deps{Geo: fakeResolver{err: errors.New("quota")}}), withCoords, models.OriginDegraded, nil},
		{"no match", New(Deps{Geo: fakeResolver{}}), withCoords, models.OriginAbsent, nil},
		{"resolved", New(Deps{Geo: fakeResolver{place: paris}}), withCoords, models.OriginDetected, paris},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.o.locate(context.Background(), uuid.New(), tt.md)
			if got.Origin != tt.origin || got.Place != tt.place {
				t.Fatalf("got %+v, want %s %v", got, tt.origin, tt.place)
			}
		})
	}
}

type promptRecorder struct {
	prompts []string
}

func (p *promptRecorder) DescribeImage(_ context.Context, _ []byte, prompt string) (string, error) {
	p.prompts = append(p.prompts, prompt)
	return "Alex winds down.", nil
}

func TestRunFramesUploadTimeInProfileZone(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		zone *time.Location
		want string
	}{
		{"utc", nil, "Saturday (weekend), during late night"},
		{"pacific", time.FixedZone("PDT", -7*3600), "Friday (weekday), during evening"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := pending("")
			// no EXIF in the fixture, so the upload time is used
			m.CreatedAt = time.Date(2024, 6, 15, 3, 30, 0, 0, time.UTC)
			records, objects, events := setup(t, m, testJPEG(t))
			rec := &promptRecorder{}
			o := New(Deps{Records: records, Objects: objects, Events: events,
				Narrator: narrative.New(rec, profile, nil), Zone: tt.zone})

			if err := o.Run(context.Background(), models.PipelineTask{MomentID: m.ID}); err != nil {
				t.Fatalf("Run: %v", err)
			}
			if len(rec.prompts) != 1 || !strings.Contains(rec.prompts[0], tt.want) {
				t.Fatalf("prompt %q does not contain %q", rec.prompts, tt.want)
			}
		})
	}
}
