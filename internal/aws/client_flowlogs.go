package aws

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	logtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs/types"

	"github.com/arjale/netpath/internal/domain"
)

const flowLogPollInterval = 2 * time.Second

// flowLogQuery aggregates accepted traffic toward private address space,
// largest flows first.
const flowLogQuery = `fields @timestamp, srcAddr, dstAddr, dstPort, protocol, bytes, action
| filter action = "ACCEPT"
| filter dstAddr like /^10\./ or dstAddr like /^172\.(1[6-9]|2[0-9]|3[0-1])\./ or dstAddr like /^192\.168\./
| stats count(*) as packet_count, sum(bytes) as total_bytes by srcAddr, dstAddr, dstPort, protocol
| sort total_bytes desc
| limit 100`

// QueryFlowLogs runs a Logs Insights query over the given log group and
// returns the aggregated flow rows. A missing log group yields an empty
// result since flow logs are optional per VPC.
func (c *Client) QueryFlowLogs(ctx context.Context, logGroup string, lookback time.Duration) ([]domain.FlowRecord, error) {
	now := time.Now()
	start, err := c.logClient.StartQuery(ctx, &cloudwatchlogs.StartQueryInput{
		LogGroupName: aws.String(logGroup),
		StartTime:    aws.Int64(now.Add(-lookback).Unix()),
		EndTime:      aws.Int64(now.Unix()),
		QueryString:  aws.String(flowLogQuery),
	})
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("start flow log query on %s: %w", logGroup, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(flowLogPollInterval):
		}

		out, err := c.logClient.GetQueryResults(ctx, &cloudwatchlogs.GetQueryResultsInput{
			QueryId: start.QueryId,
		})
		if err != nil {
			return nil, fmt.Errorf("get flow log query results: %w", err)
		}

		switch out.Status {
		case logtypes.QueryStatusRunning, logtypes.QueryStatusScheduled:
			continue
		case logtypes.QueryStatusComplete:
			return parseFlowResults(out.Results), nil
		default:
			return nil, fmt.Errorf("flow log query on %s finished with status %s", logGroup, out.Status)
		}
	}
}

func parseFlowResults(results [][]logtypes.ResultField) []domain.FlowRecord {
	records := make([]domain.FlowRecord, 0, len(results))
	for _, row := range results {
		var rec domain.FlowRecord
		for _, field := range row {
			value := derefString(field.Value)
			switch derefString(field.Field) {
			case "srcAddr":
				rec.SrcAddr = value
			case "dstAddr":
				rec.DstAddr = value
			case "dstPort":
				rec.DstPort, _ = strconv.Atoi(value)
			case "protocol":
				rec.Protocol = value
			case "packet_count":
				rec.Packets, _ = strconv.ParseInt(value, 10, 64)
			}
		}
		if rec.SrcAddr != "" && rec.DstAddr != "" {
			records = append(records, rec)
		}
	}
	return records
}
