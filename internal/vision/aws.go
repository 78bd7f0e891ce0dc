package vision

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	rektypes "github.com/aws/aws-sdk-go-v2/service/rekognition/types"
	"github.com/aws/aws-sdk-go-v2/service/textract"
	txttypes "github.com/aws/aws-sdk-go-v2/service/textract/types"

	"github.com/your-org/moments/internal/config"
	"github.com/your-org/moments/internal/models"
)

// AWSProvider runs faces and labels on Rekognition and text on Textract.
type AWSProvider struct {
	rek     *rekognition.Client
	txt     *textract.Client
	timeout time.Duration
}

var _ Provider = (*AWSProvider)(nil)

// NewAWSProvider returns nil, nil when credentials are not configured so the
// caller can fall back to placeholders.
func NewAWSProvider(ctx context.Context, cfg config.AWSConfig) (*AWSProvider, error) {
	if !cfg.Configured() {
		return nil, nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		),
		// one attempt per call; failures degrade instead of retrying
		awsconfig.WithRetryMaxAttempts(1),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return &AWSProvider{
		rek:     rekognition.NewFromConfig(awsCfg),
		txt:     textract.NewFromConfig(awsCfg),
		timeout: cfg.Timeout,
	}, nil
}

func (p *AWSProvider) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, p.timeout)
}

func (p *AWSProvider) DetectFaces(ctx context.Context, img []byte) ([]models.Face, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	out, err := p.rek.DetectFaces(ctx, &rekognition.DetectFacesInput{
		Image:      &rektypes.Image{Bytes: img},
		Attributes: []rektypes.Attribute{rektypes.AttributeAll},
	})
	if err != nil {
		return nil, fmt.Errorf("detect faces: %w", err)
	}

	faces := make([]models.Face, 0, len(out.FaceDetails))
	for _, fd := range out.FaceDetails {
		var face models.Face
		if fd.AgeRange != nil {
			face.AgeRange = models.AgeRange{
				Low:  int(aws.ToInt32(fd.AgeRange.Low)),
				High: int(aws.ToInt32(fd.AgeRange.High)),
			}
		}
		if fd.Gender != nil {
			face.Gender = string(fd.Gender.Value)
		}
		for _, e := range fd.Emotions {
			face.Emotions = append(face.Emotions, models.Emotion{
				Type:       string(e.Type),
				Confidence: aws.ToFloat32(e.Confidence),
			})
		}
		faces = append(faces, face)
	}
	return faces, nil
}

func (p *AWSProvider) DetectLabels(ctx context.Context, img []byte, max int, minConfidence float32) ([]models.Label, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	out, err := p.rek.DetectLabels(ctx, &rekognition.DetectLabelsInput{
		Image:         &rektypes.Image{Bytes: img},
		MaxLabels:     aws.Int32(int32(max)),
		MinConfidence: aws.Float32(minConfidence),
	})
	if err != nil {
		return nil, fmt.Errorf("detect labels: %w", err)
	}

	labels := make([]models.Label, 0, len(out.Labels))
	for _, l := range out.Labels {
		labels = append(labels, models.Label{
			Name:       aws.ToString(l.Name),
			Confidence: aws.ToFloat32(l.Confidence),
		})
	}
	return labels, nil
}

func (p *AWSProvider) DetectText(ctx context.Context, img []byte) ([]string, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	out, err := p.txt.DetectDocumentText(ctx, &textract.DetectDocumentTextInput{
		Document: &txttypes.Document{Bytes: img},
	})
	if err != nil {
		return nil, fmt.Errorf("detect text: %w", err)
	}

	var lines []string
	for _, b := range out.Blocks {
		if b.BlockType == txttypes.BlockTypeLine {
			lines = append(lines, aws.ToString(b.Text))
		}
	}
	return lines, nil
}
