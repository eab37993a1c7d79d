package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"
	"github.com/rs/zerolog/log"

	"github.com/gazemetrics/gazemetrics-api/internal/analysis"
	cfg "github.com/gazemetrics/gazemetrics-api/internal/config"
	"github.com/gazemetrics/gazemetrics-api/internal/models"
)

// RekognitionDetector runs the human and facial gates with AWS Rekognition
// over the video's thumbnail frame, behind the same DetectionResult contract
// as the simulated detector. Posture and speech have no Rekognition
// equivalent here and fall through to the simulation.
type RekognitionDetector struct {
	client    *rekognition.Client
	s3Svc     *S3Service
	simulated *analysis.SimulatedDetector
}

// NewRekognitionDetector creates the real-inference detector. Credentials
// are loaded from the environment by the SDK.
func NewRekognitionDetector(apiCfg *cfg.Config, s3Svc *S3Service) (*RekognitionDetector, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(context.TODO(),
		awsconfig.WithRegion(apiCfg.AWS.RekognitionRegion),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS SDK config: %w", err)
	}

	return &RekognitionDetector{
		client:    rekognition.NewFromConfig(awsCfg),
		s3Svc:     s3Svc,
		simulated: analysis.NewSimulatedDetector(),
	}, nil
}

// thumbnailKey derives the frame object key from the stored video path.
func thumbnailKey(videoPath string) string {
	if i := strings.LastIndex(videoPath, "/"); i >= 0 {
		return videoPath[:i] + "/thumbnail.jpg"
	}
	return videoPath + "/thumbnail.jpg"
}

// DetectHuman looks for a Person label in the thumbnail frame.
func (d *RekognitionDetector) DetectHuman(ctx context.Context, sub *models.VideoSubmission) (analysis.DetectionResult, error) {
	frame, err := d.s3Svc.GetObject(ctx, thumbnailKey(sub.VideoPath))
	if err != nil {
		log.Warn().Err(err).Str("videoPath", sub.VideoPath).Msg("Thumbnail fetch failed, falling back to simulated detection")
		return d.simulated.DetectHuman(ctx, sub)
	}

	out, err := d.client.DetectLabels(ctx, &rekognition.DetectLabelsInput{
		Image:         &types.Image{Bytes: frame},
		MaxLabels:     aws.Int32(20),
		MinConfidence: aws.Float32(50),
	})
	if err != nil {
		log.Error().Err(err).Msg("AWS DetectLabels failed")
		return analysis.DetectionResult{}, fmt.Errorf("provider error: %w", err)
	}

	for _, label := range out.Labels {
		if label.Name != nil && *label.Name == "Person" && label.Confidence != nil {
			conf := float64(*label.Confidence) / 100
			return analysis.DetectionResult{Detected: conf >= 0.85, Confidence: conf}, nil
		}
	}
	return analysis.DetectionResult{Detected: false, Confidence: 0.2}, nil
}

// DetectFacialFeatures checks for a sufficiently confident face in the
// thumbnail frame.
func (d *RekognitionDetector) DetectFacialFeatures(ctx context.Context, sub *models.VideoSubmission) (analysis.DetectionResult, error) {
	frame, err := d.s3Svc.GetObject(ctx, thumbnailKey(sub.VideoPath))
	if err != nil {
		log.Warn().Err(err).Str("videoPath", sub.VideoPath).Msg("Thumbnail fetch failed, falling back to simulated detection")
		return d.simulated.DetectFacialFeatures(ctx, sub)
	}

	out, err := d.client.DetectFaces(ctx, &rekognition.DetectFacesInput{
		Image: &types.Image{Bytes: frame},
	})
	if err != nil {
		log.Error().Err(err).Msg("AWS DetectFaces failed")
		return analysis.DetectionResult{}, fmt.Errorf("provider error: %w", err)
	}

	if len(out.FaceDetails) == 0 {
		return analysis.DetectionResult{Detected: false, Confidence: 0.2}, nil
	}

	best := 0.0
	for _, face := range out.FaceDetails {
		if face.Confidence != nil && float64(*face.Confidence)/100 > best {
			best = float64(*face.Confidence) / 100
		}
	}
	return analysis.DetectionResult{Detected: best >= 0.80, Confidence: best}, nil
}

// DetectPosture has no direct Rekognition analogue; the simulation applies.
func (d *RekognitionDetector) DetectPosture(ctx context.Context, sub *models.VideoSubmission) (analysis.DetectionResult, error) {
	return d.simulated.DetectPosture(ctx, sub)
}

// DetectSpeech is audio-based; the simulation applies.
func (d *RekognitionDetector) DetectSpeech(ctx context.Context, sub *models.VideoSubmission) (analysis.DetectionResult, error) {
	return d.simulated.DetectSpeech(ctx, sub)
}
