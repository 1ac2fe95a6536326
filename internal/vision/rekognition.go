package vision

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"

	"github.com/wastenot/wastenot-backend/internal/apperrors"
	"github.com/wastenot/wastenot-backend/internal/config"
	"github.com/wastenot/wastenot-backend/pkg/logger"
)

// RekognitionAnalyzer uses AWS Rekognition label detection. Waste is derived
// from the plate area covered by food labels, so it is a rougher signal than
// the Gemini judgement but needs no prompt round-trips.
type RekognitionAnalyzer struct {
	client        *rekognition.Client
	minConfidence float32
	log           *logger.Logger
}

// NewRekognitionAnalyzer creates a Rekognition-backed analyzer.
func NewRekognitionAnalyzer(ctx context.Context, cfg *config.RekognitionConfig, log *logger.Logger) (*RekognitionAnalyzer, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	minConfidence := cfg.MinConfidence
	if minConfidence <= 0 {
		minConfidence = 75
	}
	return &RekognitionAnalyzer{
		client:        rekognition.NewFromConfig(awsCfg),
		minConfidence: minConfidence,
		log:           log,
	}, nil
}

// ContainsFood reports whether any food-related label is detected.
// Provider failures fail closed.
func (r *RekognitionAnalyzer) ContainsFood(ctx context.Context, image []byte) (bool, error) {
	labels, err := r.detectLabels(ctx, image)
	if err != nil {
		r.log.Warn().Err(err).Msg("Food presence check failed")
		return false, fmt.Errorf("food check: %w", apperrors.ErrEstimatorUnavailable)
	}
	return len(foodInstances(labels)) > 0, nil
}

// EstimateConsumption compares the plate area covered by food before and
// after; the shrinkage is the percent eaten.
func (r *RekognitionAnalyzer) EstimateConsumption(ctx context.Context, before, after []byte) (int, error) {
	beforeArea, err := r.foodArea(ctx, before)
	if err != nil {
		return 0, fmt.Errorf("consumption estimate: %w: %v", apperrors.ErrEstimatorUnavailable, err)
	}
	afterArea, err := r.foodArea(ctx, after)
	if err != nil {
		return 0, fmt.Errorf("consumption estimate: %w: %v", apperrors.ErrEstimatorUnavailable, err)
	}
	if beforeArea <= 0 {
		return 0, fmt.Errorf("no food detected in before photo: %w", apperrors.ErrEstimatorUnavailable)
	}

	eaten := int(math.Round((1 - afterArea/beforeArea) * 100))
	return clampPercent(eaten), nil
}

// EstimateWaste derives waste from the after photo alone: the more of the
// frame still covered by food, the more waste. An empty plate (no food
// labels) counts as zero waste.
func (r *RekognitionAnalyzer) EstimateWaste(ctx context.Context, after []byte) (int, error) {
	labels, err := r.detectLabels(ctx, after)
	if err != nil {
		return 0, fmt.Errorf("waste estimate: %w: %v", apperrors.ErrEstimatorUnavailable, err)
	}

	instances := foodInstances(labels)
	if len(instances) == 0 {
		r.log.Debug().Msg("No food detected in after photo, treating as clean plate")
		return 0, nil
	}

	var area float64
	for _, inst := range instances {
		area += boxArea(inst.BoundingBox)
	}
	return clampPercent(int(math.Round(area * 100))), nil
}

func (r *RekognitionAnalyzer) foodArea(ctx context.Context, image []byte) (float64, error) {
	labels, err := r.detectLabels(ctx, image)
	if err != nil {
		return 0, err
	}
	var area float64
	for _, inst := range foodInstances(labels) {
		area += boxArea(inst.BoundingBox)
	}
	return area, nil
}

func (r *RekognitionAnalyzer) detectLabels(ctx context.Context, image []byte) ([]types.Label, error) {
	out, err := r.client.DetectLabels(ctx, &rekognition.DetectLabelsInput{
		Image:         &types.Image{Bytes: image},
		MaxLabels:     aws.Int32(20),
		MinConfidence: aws.Float32(r.minConfidence),
	})
	if err != nil {
		return nil, err
	}
	return out.Labels, nil
}

// foodInstances collects bounding-box instances of food-related labels.
func foodInstances(labels []types.Label) []types.Instance {
	var instances []types.Instance
	for _, label := range labels {
		if label.Name == nil {
			continue
		}
		name := strings.ToLower(*label.Name)
		if !strings.Contains(name, "food") &&
			!strings.Contains(name, "plate") &&
			!strings.Contains(name, "dish") &&
			!strings.Contains(name, "meal") {
			continue
		}
		instances = append(instances, label.Instances...)
	}
	return instances
}

func boxArea(box *types.BoundingBox) float64 {
	if box == nil || box.Width == nil || box.Height == nil {
		return 0
	}
	return float64(*box.Width) * float64(*box.Height)
}
