package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"go-face-palette/internal/analyzer"
	"go-face-palette/internal/landmark"
	"go-face-palette/pkg/models"

	"github.com/spf13/cobra"
)

type analyzeOptions struct {
	DetectorURL   string
	LandmarksFile string
	Timeout       time.Duration
	Clusters      int
	Consensus     string
	Pretty        bool
}

var analyzeOpts analyzeOptions

var analyzeCmd = &cobra.Command{
	Use:   "analyze <image>...",
	Short: "Analyze one to three images of the same face and print the palette as JSON",
	Args:  cobra.RangeArgs(1, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		return runAnalyze(cmd.Context(), cmd.OutOrStdout(), args, analyzeOpts)
	},
}

func init() {
	defaultURL := os.Getenv("DETECTOR_URL")
	if defaultURL == "" {
		defaultURL = "http://localhost:8501"
	}

	analyzeCmd.Flags().StringVar(&analyzeOpts.DetectorURL, "detector-url", defaultURL, "Face mesh sidecar base URL")
	analyzeCmd.Flags().StringVarP(&analyzeOpts.LandmarksFile, "landmarks", "l", "", "Replay a saved detector response instead of calling the sidecar")
	analyzeCmd.Flags().DurationVar(&analyzeOpts.Timeout, "timeout", 30*time.Second, "Overall analysis timeout")
	analyzeCmd.Flags().IntVarP(&analyzeOpts.Clusters, "clusters", "k", 3, "K-means cluster count per region")
	analyzeCmd.Flags().StringVar(&analyzeOpts.Consensus, "consensus", "first", "Consensus strategy (first, nearest)")
	analyzeCmd.Flags().BoolVar(&analyzeOpts.Pretty, "pretty", false, "Indent JSON output")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(ctx context.Context, out io.Writer, paths []string, opts analyzeOptions) error {
	detector, err := newDetector(opts)
	if err != nil {
		return err
	}
	defer detector.Close()

	pipeline, err := analyzer.NewPipeline(detector, analyzer.DefaultOptions().
		WithClusters(opts.Clusters).
		WithConsensus(opts.Consensus))
	if err != nil {
		return err
	}

	// unreadable files degrade like undecodable images
	inputs := make([]analyzer.ImageInput, len(paths))
	for i, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			inputs[i] = analyzer.ImageInput{Err: err}
			continue
		}
		inputs[i] = analyzer.ImageInput{Data: data}
	}

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	outcome, err := pipeline.AnalyzeInputs(ctx, inputs)
	if err != nil {
		return err
	}
	return writeOutcome(out, outcome, opts.Pretty)
}

func newDetector(opts analyzeOptions) (analyzer.LandmarkDetector, error) {
	if opts.LandmarksFile != "" {
		data, err := os.ReadFile(opts.LandmarksFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read landmarks file: %w", err)
		}
		d, err := landmark.ParseStaticDetector(data)
		if err != nil {
			return nil, err
		}
		return d, nil
	}

	d, err := landmark.NewHTTPDetector(landmark.HTTPDetectorConfig{
		BaseURL:                opts.DetectorURL,
		MinDetectionConfidence: 0.5,
		MinTrackingConfidence:  0.5,
	})
	if err != nil {
		return nil, err
	}
	return d, nil
}

func writeOutcome(out io.Writer, outcome models.AnalysisOutcome, pretty bool) error {
	enc := json.NewEncoder(out)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(outcome)
}
