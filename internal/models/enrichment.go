package models

// Origin tells downstream code where an enrichment value came from. The
// fallback policy depends on telling a degraded placeholder apart from a
// genuinely empty detection and from a step that never produced anything.
type Origin string

const (
	OriginDetected Origin = "detected"
	OriginDegraded Origin = "degraded"
	OriginAbsent   Origin = "absent"
)

type AgeRange struct {
	Low  int `json:"low"`
	High int `json:"high"`
}

type Emotion struct {
	Type       string  `json:"type"`
	Confidence float32 `json:"confidence"`
}

type Face struct {
	AgeRange AgeRange  `json:"age_range"`
	Gender   string    `json:"gender"`
	Emotions []Emotion `json:"emotions"`
}

type Label struct {
	Name       string  `json:"name"`
	Confidence float32 `json:"confidence"`
}

// Place is a best-effort reverse-geocoding result.
type Place struct {
	Address string `json:"address"`
	City    string `json:"city"`
	Country string `json:"country"`
}

type FaceResult struct {
	Origin Origin `json:"origin"`
	Faces  []Face `json:"faces"`
}

type LabelResult struct {
	Origin Origin  `json:"origin"`
	Labels []Label `json:"labels"`
}

type TextResult struct {
	Origin Origin `json:"origin"`
	Text   string `json:"text"`
}

type LocationResult struct {
	Origin Origin `json:"origin"`
	Place  *Place `json:"place,omitempty"`
}

type CategoryResult struct {
	Origin   Origin   `json:"origin"`
	Category Category `json:"category"`
}

// Enrichment is the bundle of derived signals attached to a moment. Each
// dimension is independently optional. Error is set only on the failed path,
// in which case every other dimension is left zero.
type Enrichment struct {
	Faces     FaceResult     `json:"faces"`
	Labels    LabelResult    `json:"labels"`
	Text      TextResult     `json:"ocr_text"`
	Location  LocationResult `json:"location"`
	Category  CategoryResult `json:"event_type"`
	Questions []string       `json:"clarification_questions,omitempty"`
	Error     string         `json:"error,omitempty"`
}

// FaceCount is the number of faces in the bundle regardless of origin.
func (e *Enrichment) FaceCount() int {
	if e == nil {
		return 0
	}
	return len(e.Faces.Faces)
}

// Names returns at most n label names in detection order; n <= 0 means all.
func (r LabelResult) Names(n int) []string {
	names := make([]string, 0, len(r.Labels))
	for i, l := range r.Labels {
		if n > 0 && i >= n {
			break
		}
		names = append(names, l.Name)
	}
	return names
}
