package analyzer

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperrors "go-face-palette/internal/errors"
	"go-face-palette/internal/logger"
	"go-face-palette/internal/observer"
	"go-face-palette/internal/strategy"
	"go-face-palette/pkg/models"

	"github.com/sirupsen/logrus"
)

const (
	confidenceBase   = 0.85
	confidenceSpread = 0.15
)

// ImageInput is one image of a batch in any of its accepted forms. Err marks
// an image whose source could not be resolved; it is treated like an
// undecodable image.
type ImageInput struct {
	Payload string
	Data    []byte
	Err     error
}

// Pipeline decodes a batch of images, analyzes each one in input order and
// merges the results into one palette. A Pipeline holds no per-call state.
type Pipeline struct {
	decoder    ImageDecoder
	analyzer   ImageAnalyzer
	aggregator *Aggregator
	publisher  observer.Subject
	maxImages  int
}

// NewPipeline wires the default decoder, k-means extractor and region masks
// around the given detector
func NewPipeline(detector LandmarkDetector, opts AnalysisOptions) (*Pipeline, error) {
	opts = opts.normalized()

	consensus, err := strategy.New(opts.Consensus)
	if err != nil {
		return nil, err
	}

	extractor := NewDominantColorExtractor(NewKMeans(opts), opts)
	return &Pipeline{
		decoder:    NewImageDecoder(),
		analyzer:   NewFaceAnalyzer(detector, NewRegionMaskBuilder(), extractor),
		aggregator: NewAggregator(consensus, opts.Fallbacks),
		maxImages:  opts.MaxImages,
	}, nil
}

// WithPublisher attaches an event publisher
func (p *Pipeline) WithPublisher(publisher observer.Subject) *Pipeline {
	p.publisher = publisher
	return p
}

// Analyze runs the pipeline over base64 or data URI payloads
func (p *Pipeline) Analyze(ctx context.Context, images []string) (models.AnalysisOutcome, error) {
	inputs := make([]ImageInput, len(images))
	for i, img := range images {
		inputs[i] = ImageInput{Payload: img}
	}
	return p.AnalyzeInputs(ctx, inputs)
}

// AnalyzeInputs runs the pipeline over mixed inputs. The only errors returned
// are precondition violations on the batch size; everything about image
// content is reported through the outcome.
func (p *Pipeline) AnalyzeInputs(ctx context.Context, inputs []ImageInput) (models.AnalysisOutcome, error) {
	if err := p.checkBatch(len(inputs)); err != nil {
		return models.AnalysisOutcome{}, err
	}

	start := time.Now()
	total := len(inputs)
	p.notify(ctx, observer.AnalysisEvent{EventType: observer.AnalysisStarted, TotalImages: total})

	results := make([]models.SingleImageResult, total)
	for i, in := range inputs {
		results[i] = p.analyzeOne(ctx, i, total, in)
	}

	return p.finish(ctx, results, total, start), nil
}

// AnalyzeBuffers runs the pipeline over already decoded images
func (p *Pipeline) AnalyzeBuffers(ctx context.Context, bufs []*PixelBuffer) (models.AnalysisOutcome, error) {
	if err := p.checkBatch(len(bufs)); err != nil {
		return models.AnalysisOutcome{}, err
	}

	start := time.Now()
	total := len(bufs)
	p.notify(ctx, observer.AnalysisEvent{EventType: observer.AnalysisStarted, TotalImages: total})

	results := make([]models.SingleImageResult, total)
	for i, buf := range bufs {
		imgStart := time.Now()
		if buf == nil {
			results[i] = models.SingleImageResult{Error: "Invalid image data: empty buffer"}
		} else {
			results[i] = p.analyzer.AnalyzeImage(ctx, buf)
		}
		p.notifyImage(ctx, i, total, results[i], time.Since(imgStart))
	}

	return p.finish(ctx, results, total, start), nil
}

func (p *Pipeline) checkBatch(n int) error {
	if n == 0 {
		return apperrors.NewPreconditionError("At least one image is required", ErrEmptyBatch)
	}
	if n > p.maxImages {
		return apperrors.NewPreconditionError(
			fmt.Sprintf("At most %d images are allowed, got %d", p.maxImages, n),
			ErrTooManyImages,
		)
	}
	return nil
}

func (p *Pipeline) analyzeOne(ctx context.Context, index, total int, in ImageInput) models.SingleImageResult {
	start := time.Now()
	result := func() models.SingleImageResult {
		if in.Err != nil {
			return models.SingleImageResult{Error: "Invalid image data: " + describeError(in.Err)}
		}

		buf, err := p.decode(in)
		if err != nil {
			logger.WithFields(logrus.Fields{
				"image_index": index,
				"error":       err.Error(),
			}).Debug("Image could not be decoded")
			return models.SingleImageResult{Error: decodeMessage(err)}
		}
		return p.analyzer.AnalyzeImage(ctx, buf)
	}()

	p.notifyImage(ctx, index, total, result, time.Since(start))
	return result
}

// decode turns a panicking codec into a decode error for this image only
func (p *Pipeline) decode(in ImageInput) (buf *PixelBuffer, err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.WithField("panic", fmt.Sprint(r)).Error("Image decoding panicked")
			buf = nil
			err = apperrors.NewDecodeError("Invalid image data: could not decode", nil)
		}
	}()

	if in.Data != nil {
		return p.decoder.DecodeBytes(in.Data)
	}
	return p.decoder.Decode(in.Payload)
}

func (p *Pipeline) finish(ctx context.Context, results []models.SingleImageResult, total int, start time.Time) models.AnalysisOutcome {
	outcome := p.aggregator.Aggregate(results, total)

	event := observer.AnalysisEvent{
		EventType:      observer.AnalysisCompleted,
		TotalImages:    total,
		ImagesAnalyzed: outcome.ImagesAnalyzed,
		ProcessingTime: time.Since(start),
		Success:        outcome.Success,
	}
	if !outcome.Success {
		event.EventType = observer.AnalysisFailed
		event.ErrorMessage = outcome.Error
	}
	p.notify(ctx, event)
	return outcome
}

func (p *Pipeline) notifyImage(ctx context.Context, index, total int, result models.SingleImageResult, elapsed time.Duration) {
	event := observer.AnalysisEvent{
		EventType:      observer.ImageAnalyzed,
		ImageIndex:     index,
		TotalImages:    total,
		ProcessingTime: elapsed,
		Success:        result.FaceDetected,
	}
	if !result.FaceDetected {
		event.EventType = observer.ImageRejected
		event.ErrorMessage = result.Error
	}
	p.notify(ctx, event)
}

func (p *Pipeline) notify(ctx context.Context, event observer.AnalysisEvent) {
	if p.publisher == nil {
		return
	}
	p.publisher.NotifyObservers(ctx, event)
}

// decodeMessage renders a decode failure without the error type prefix
func decodeMessage(err error) string {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		return fmt.Sprintf("Invalid image data: %v", err)
	}
	return describeError(err)
}

func describeError(err error) string {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		return err.Error()
	}
	if appErr.Cause != nil {
		return fmt.Sprintf("%s: %v", appErr.Message, appErr.Cause)
	}
	return appErr.Message
}

// ConfidenceScore rates an outcome by the share of images that yielded a face
func ConfidenceScore(analyzed, total int) float64 {
	if total <= 0 {
		return 0
	}
	return confidenceBase + float64(analyzed)/float64(total)*confidenceSpread
}
