package reachability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/arjale/netpath/internal/domain"
)

func shortenRetryDelays(t *testing.T) {
	t.Helper()
	origThrottle := throttleBaseDelay
	origUnavailable := unavailableBaseDelay
	origRefresh := credentialRefreshDelay
	throttleBaseDelay = time.Millisecond
	unavailableBaseDelay = time.Millisecond
	credentialRefreshDelay = time.Millisecond
	t.Cleanup(func() {
		throttleBaseDelay = origThrottle
		unavailableBaseDelay = origUnavailable
		credentialRefreshDelay = origRefresh
	})
}

func TestCallWithRetry_ThrottledThenSucceeds(t *testing.T) {
	shortenRetryDelays(t)
	tester := NewTester(&mockProvider{client: &mockClient{}})

	calls := 0
	err := tester.callWithRetry(context.Background(), "111111111111", func(domain.CloudClient) error {
		calls++
		if calls < 3 {
			return errors.New("Rate exceeded")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestCallWithRetry_ThrottleExhaustsAttempts(t *testing.T) {
	shortenRetryDelays(t)
	tester := NewTester(&mockProvider{client: &mockClient{}})

	calls := 0
	throttled := errors.New("request was throttled")
	err := tester.callWithRetry(context.Background(), "111111111111", func(domain.CloudClient) error {
		calls++
		return throttled
	})
	if !errors.Is(err, throttled) {
		t.Fatalf("expected throttle error back, got %v", err)
	}
	if calls != maxAPIAttempts {
		t.Errorf("expected %d calls, got %d", maxAPIAttempts, calls)
	}
}

func TestCallWithRetry_ServiceUnavailableRetries(t *testing.T) {
	shortenRetryDelays(t)
	tester := NewTester(&mockProvider{client: &mockClient{}})

	calls := 0
	err := tester.callWithRetry(context.Background(), "111111111111", func(domain.CloudClient) error {
		calls++
		if calls == 1 {
			return errors.New("service unavailable, try again")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 2 {
		t.Errorf("expected 2 calls, got %d", calls)
	}
}

func TestCallWithRetry_ExpiredCredentialsRebuildSession(t *testing.T) {
	shortenRetryDelays(t)
	provider := &mockProvider{client: &mockClient{}}
	tester := NewTester(provider)

	calls := 0
	err := tester.callWithRetry(context.Background(), "111111111111", func(domain.CloudClient) error {
		calls++
		if calls == 1 {
			return errors.New("ExpiredToken: the security token included in the request is expired")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(provider.invalidated) != 1 || provider.invalidated[0] != "111111111111" {
		t.Errorf("expected one session invalidation, got %v", provider.invalidated)
	}
}

func TestCallWithRetry_CredentialRefreshesCapped(t *testing.T) {
	shortenRetryDelays(t)
	provider := &mockProvider{client: &mockClient{}}
	tester := NewTester(provider)

	calls := 0
	expired := errors.New("token has expired")
	err := tester.callWithRetry(context.Background(), "111111111111", func(domain.CloudClient) error {
		calls++
		return expired
	})
	if !errors.Is(err, expired) {
		t.Fatalf("expected expiry error back, got %v", err)
	}
	if calls != maxCredentialRefreshes+1 {
		t.Errorf("expected %d calls, got %d", maxCredentialRefreshes+1, calls)
	}
	if len(provider.invalidated) != maxCredentialRefreshes {
		t.Errorf("expected %d invalidations, got %d", maxCredentialRefreshes, len(provider.invalidated))
	}
}

func TestCallWithRetry_UnclassifiedErrorPropagates(t *testing.T) {
	shortenRetryDelays(t)
	provider := &mockProvider{client: &mockClient{}}
	tester := NewTester(provider)

	calls := 0
	boom := errors.New("UnauthorizedOperation: not allowed")
	err := tester.callWithRetry(context.Background(), "111111111111", func(domain.CloudClient) error {
		calls++
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected error back, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected a single call, got %d", calls)
	}
	if len(provider.invalidated) != 0 {
		t.Errorf("unexpected invalidations %v", provider.invalidated)
	}
}
