package reporting

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/arjale/netpath/internal/domain"
	"github.com/arjale/netpath/internal/logging"
)

const metricNamespace = "NetPath/VPCTests"

// Reporter publishes run summaries to CloudWatch and S3. Every publish
// is best effort; a reporting failure never fails the run.
type Reporter struct {
	cwClient *cloudwatch.Client
	s3Client *s3.Client
	bucket   string
}

func NewReporter(ctx context.Context, region, bucket string) (*Reporter, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &Reporter{
		cwClient: cloudwatch.NewFromConfig(cfg),
		s3Client: s3.NewFromConfig(cfg),
		bucket:   bucket,
	}, nil
}

// PublishMetrics pushes the summary counters as custom metrics with the
// phase as a dimension.
func (r *Reporter) PublishMetrics(ctx context.Context, summary *domain.TestSummary) {
	dims := []cwtypes.Dimension{
		{Name: aws.String("Phase"), Value: aws.String(string(summary.Phase))},
	}
	datum := func(name string, value float64, unit cwtypes.StandardUnit) cwtypes.MetricDatum {
		return cwtypes.MetricDatum{
			MetricName: aws.String(name),
			Value:      aws.Float64(value),
			Unit:       unit,
			Dimensions: dims,
		}
	}

	_, err := r.cwClient.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace: aws.String(metricNamespace),
		MetricData: []cwtypes.MetricDatum{
			datum("TestsPassed", float64(summary.Passed), cwtypes.StandardUnitCount),
			datum("TestsFailed", float64(summary.Failed), cwtypes.StandardUnitCount),
			datum("TestsWarnings", float64(summary.Warnings), cwtypes.StandardUnitCount),
			datum("TestsSkipped", float64(summary.Skipped), cwtypes.StandardUnitCount),
			datum("TotalTests", float64(summary.TotalTests), cwtypes.StandardUnitCount),
			datum("TestDuration", summary.DurationSeconds, cwtypes.StandardUnitSeconds),
		},
	})
	if err != nil {
		logging.Warn("failed to publish metrics", "namespace", metricNamespace, "error", err)
		return
	}
	logging.Info("published metrics", "namespace", metricNamespace, "phase", summary.Phase)
}

// UploadResults stores the full summary JSON under the phase prefix.
func (r *Reporter) UploadResults(ctx context.Context, summary *domain.TestSummary) {
	if r.bucket == "" {
		return
	}

	body, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		logging.Warn("failed to marshal results", "error", err)
		return
	}

	key := fmt.Sprintf("vpc-tests/%s/%s.json", summary.Phase, summary.StartTime)
	_, err = r.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(r.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		logging.Warn("failed to upload results", "bucket", r.bucket, "key", key, "error", err)
		return
	}
	logging.Info("uploaded results", "bucket", r.bucket, "key", key)
}

// PrintSummary renders the run outcome for the console.
func PrintSummary(w io.Writer, summary *domain.TestSummary) {
	sep := strings.Repeat("=", 80)

	fmt.Fprintln(w, sep)
	fmt.Fprintf(w, "Test Summary (%s)\n", summary.Phase)
	fmt.Fprintln(w, sep)
	fmt.Fprintf(w, "Total:    %d\n", summary.TotalTests)
	fmt.Fprintf(w, "Passed:   %d\n", summary.Passed)
	fmt.Fprintf(w, "Failed:   %d\n", summary.Failed)
	fmt.Fprintf(w, "Warnings: %d\n", summary.Warnings)
	fmt.Fprintf(w, "Skipped:  %d\n", summary.Skipped)
	fmt.Fprintf(w, "Duration: %.1fs\n", summary.DurationSeconds)

	if summary.Failed > 0 {
		fmt.Fprintln(w, sep)
		fmt.Fprintln(w, "Failures:")
		for _, tc := range summary.Results {
			if tc.Status == domain.StatusFail {
				fmt.Fprintf(w, "  %s: %s\n", tc.Name, tc.Message)
			}
		}
	}
	fmt.Fprintln(w, sep)
}
