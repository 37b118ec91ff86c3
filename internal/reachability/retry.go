package reachability

import (
	"context"
	"time"

	"github.com/arjale/netpath/internal/aws"
	"github.com/arjale/netpath/internal/domain"
	"github.com/arjale/netpath/internal/logging"
)

const (
	maxAPIAttempts         = 5
	maxCredentialRefreshes = 3
)

var (
	throttleBaseDelay      = 5 * time.Second
	unavailableBaseDelay   = 10 * time.Second
	credentialRefreshDelay = 2 * time.Second
)

// callWithRetry runs fn against the account's client, retrying on the
// error classes that resolve themselves. Throttles back off 5s doubling
// per attempt, service outages back off linearly from 10s, and expired
// credentials rebuild the client on a counter of their own so a refresh
// never eats a throttle attempt.
func (t *Tester) callWithRetry(ctx context.Context, accountID string, fn func(domain.CloudClient) error) error {
	attempts := 0
	refreshes := 0

	for {
		client, err := t.provider.GetClient(ctx, accountID)
		if err != nil {
			return err
		}

		err = fn(client)
		if err == nil {
			return nil
		}

		var delay time.Duration
		switch aws.Classify(err) {
		case aws.ErrThrottled:
			attempts++
			if attempts >= maxAPIAttempts {
				return err
			}
			delay = throttleBaseDelay << (attempts - 1)
			logging.Debug("throttled, backing off",
				"account_id", accountID, "attempt", attempts, "delay", delay)

		case aws.ErrServiceUnavailable:
			attempts++
			if attempts >= maxAPIAttempts {
				return err
			}
			delay = unavailableBaseDelay * time.Duration(attempts)
			logging.Debug("service unavailable, backing off",
				"account_id", accountID, "attempt", attempts, "delay", delay)

		case aws.ErrExpiredCredentials:
			refreshes++
			if refreshes > maxCredentialRefreshes {
				return err
			}
			t.provider.Invalidate(accountID)
			delay = credentialRefreshDelay
			logging.Info("credentials expired, rebuilding session",
				"account_id", accountID, "refresh", refreshes)

		default:
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
}
