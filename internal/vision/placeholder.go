package vision

import "github.com/your-org/moments/internal/models"

// PlaceholderFaces is substituted when face detection is unavailable. A fresh
// slice is returned on every call.
func PlaceholderFaces() []models.Face {
	return []models.Face{
		{
			AgeRange: models.AgeRange{Low: 25, High: 35},
			Gender:   "Female",
			Emotions: []models.Emotion{{Type: "HAPPY", Confidence: 95}},
		},
		{
			AgeRange: models.AgeRange{Low: 30, High: 40},
			Gender:   "Male",
			Emotions: []models.Emotion{{Type: "CALM", Confidence: 88}},
		},
	}
}

// PlaceholderLabels is substituted when label detection is unavailable.
func PlaceholderLabels() []models.Label {
	return []models.Label{
		{Name: "Person", Confidence: 99},
		{Name: "Smile", Confidence: 90},
		{Name: "Indoors", Confidence: 85},
	}
}
