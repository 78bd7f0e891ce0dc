package vision

import (
	"context"

	"github.com/your-org/moments/internal/models"
)

const (
	MaxLabels            = 15
	MinLabelConfidence   = 80
	MinEmotionConfidence = 50
)

// Provider is the face/label/text capability set. Implementations receive
// the normalized JPEG bytes of a moment.
type Provider interface {
	DetectFaces(ctx context.Context, img []byte) ([]models.Face, error)
	DetectLabels(ctx context.Context, img []byte, max int, minConfidence float32) ([]models.Label, error)
	DetectText(ctx context.Context, img []byte) ([]string, error)
}
