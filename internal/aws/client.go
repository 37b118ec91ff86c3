package aws

import (
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/ratelimit"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go-v2/service/directconnect"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
)

// Client wraps the per-account service clients behind the
// domain.CloudClient surface. Describe results are cached with a short
// TTL so repeated lookups within one phase stay cheap.
type Client struct {
	ec2Client *ec2.Client
	logClient *cloudwatchlogs.Client
	dxClient  *directconnect.Client
	accountID string
	region    string
	cache     *ttlCache
}

func newRetryer() aws.Retryer {
	return retry.NewStandard(func(o *retry.StandardOptions) {
		o.MaxAttempts = 5
		o.MaxBackoff = 30 * time.Second
		o.Backoff = retry.NewExponentialJitterBackoff(o.MaxBackoff)
		o.RateLimiter = ratelimit.None
	})
}

func NewClient(cfg aws.Config, accountID, region string) *Client {
	retryer := newRetryer()
	return &Client{
		ec2Client: ec2.NewFromConfig(cfg, func(o *ec2.Options) { o.Retryer = retryer }),
		logClient: cloudwatchlogs.NewFromConfig(cfg, func(o *cloudwatchlogs.Options) { o.Retryer = retryer }),
		dxClient:  directconnect.NewFromConfig(cfg, func(o *directconnect.Options) { o.Retryer = retryer }),
		accountID: accountID,
		region:    region,
		cache:     newTTLCache(5*time.Minute, 2000),
	}
}

func (c *Client) AccountID() string { return c.accountID }

func (c *Client) Region() string { return c.region }

func (c *Client) cacheKey(parts ...string) string {
	return strings.Join(parts, ":")
}
