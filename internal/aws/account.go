package aws

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sts"

	"github.com/arjale/netpath/internal/domain"
	"github.com/arjale/netpath/internal/logging"
)

// DefaultRoleName is the cross-account role assumed when none is given.
const DefaultRoleName = "AWSAFTExecution"

// sessionLifetime is how long a cached client stays usable. Assumed-role
// sessions last an hour, so clients are rebuilt well before expiry.
const sessionLifetime = 50 * time.Minute

// SessionOptions selects how per-account credentials are obtained. A
// profile or profile pattern switches the provider to local named
// profiles; otherwise it assumes RoleName in each target account.
type SessionOptions struct {
	Region         string
	Profile        string
	ProfilePattern string
	RoleName       string

	// HubAccountID anchors profile-pattern and hub-client resolution.
	// When empty the first account requested becomes the hub.
	HubAccountID string
}

type sessionEntry struct {
	client  *Client
	expires time.Time
}

// SessionFactory implements domain.SessionProvider on top of STS role
// assumption or shared-config profiles.
type SessionFactory struct {
	opts SessionOptions

	baseConfig aws.Config
	stsClient  *sts.Client

	mu       sync.Mutex
	sessions map[string]sessionEntry
	hubID    string
}

func NewSessionFactory(ctx context.Context, opts SessionOptions) (*SessionFactory, error) {
	if opts.RoleName == "" {
		opts.RoleName = DefaultRoleName
	}

	loadOpts := []func(*config.LoadOptions) error{
		config.WithRegion(opts.Region),
	}
	if opts.Profile != "" {
		loadOpts = append(loadOpts, config.WithSharedConfigProfile(opts.Profile))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return &SessionFactory{
		opts:       opts,
		baseConfig: cfg,
		stsClient:  sts.NewFromConfig(cfg),
		sessions:   make(map[string]sessionEntry),
		hubID:      opts.HubAccountID,
	}, nil
}

// GetClient returns a client scoped to accountID, building one when the
// cached session is absent or near expiry.
func (f *SessionFactory) GetClient(ctx context.Context, accountID string) (domain.CloudClient, error) {
	f.mu.Lock()
	if f.hubID == "" {
		f.hubID = accountID
	}
	entry, ok := f.sessions[accountID]
	f.mu.Unlock()

	if ok && time.Now().Before(entry.expires) {
		return entry.client, nil
	}

	client, err := f.buildClient(ctx, accountID)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	f.sessions[accountID] = sessionEntry{client: client, expires: time.Now().Add(sessionLifetime)}
	f.mu.Unlock()

	return client, nil
}

// GetHubClient returns a client for the hub account, the account whose
// credentials anchor cross-account discovery.
func (f *SessionFactory) GetHubClient(ctx context.Context) (domain.CloudClient, error) {
	f.mu.Lock()
	hub := f.hubID
	f.mu.Unlock()

	if hub == "" {
		// Resolve the hub from the base credentials.
		out, err := f.stsClient.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
		if err != nil {
			return nil, fmt.Errorf("get caller identity: %w", err)
		}
		hub = derefString(out.Account)
		f.mu.Lock()
		f.hubID = hub
		f.mu.Unlock()
	}
	return f.GetClient(ctx, hub)
}

// Invalidate drops the cached session for accountID so the next GetClient
// call builds a fresh one. Used after credential expiry mid-run.
func (f *SessionFactory) Invalidate(accountID string) {
	f.mu.Lock()
	delete(f.sessions, accountID)
	f.mu.Unlock()
	logging.Debug("invalidated cached session", "account_id", accountID)
}

func (f *SessionFactory) buildClient(ctx context.Context, accountID string) (*Client, error) {
	switch {
	case f.opts.ProfilePattern != "":
		profile := strings.ReplaceAll(f.opts.ProfilePattern, "{account_id}", accountID)
		cfg, err := config.LoadDefaultConfig(ctx,
			config.WithRegion(f.opts.Region),
			config.WithSharedConfigProfile(profile),
		)
		if err != nil {
			return nil, fmt.Errorf("load profile %s: %w", profile, err)
		}
		return NewClient(cfg, accountID, f.opts.Region), nil

	case f.opts.Profile != "":
		// A single profile serves every account it can see.
		return NewClient(f.baseConfig, accountID, f.opts.Region), nil

	default:
		creds, err := f.assumeRole(ctx, accountID)
		if err != nil {
			return nil, err
		}
		cfg := f.baseConfig.Copy()
		cfg.Credentials = credentials.NewStaticCredentialsProvider(
			creds.AccessKeyID,
			creds.SecretAccessKey,
			creds.SessionToken,
		)
		return NewClient(cfg, accountID, f.opts.Region), nil
	}
}

func (f *SessionFactory) assumeRole(ctx context.Context, accountID string) (domain.AWSCredentials, error) {
	roleARN := fmt.Sprintf("arn:aws:iam::%s:role/%s", accountID, f.opts.RoleName)
	sessionName := fmt.Sprintf("aft-test-%d", time.Now().Unix())

	out, err := f.stsClient.AssumeRole(ctx, &sts.AssumeRoleInput{
		RoleArn:         aws.String(roleARN),
		RoleSessionName: aws.String(sessionName),
		DurationSeconds: aws.Int32(3600),
	})
	if err != nil {
		return domain.AWSCredentials{}, fmt.Errorf("assume role %s: %w", roleARN, err)
	}

	return domain.AWSCredentials{
		AccessKeyID:     derefString(out.Credentials.AccessKeyId),
		SecretAccessKey: derefString(out.Credentials.SecretAccessKey),
		SessionToken:    derefString(out.Credentials.SessionToken),
		Expiration:      *out.Credentials.Expiration,
	}, nil
}
