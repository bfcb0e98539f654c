package acme_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitrinehq/vitrine/core/onboarding"
	"github.com/vitrinehq/vitrine/integration/acme"
)

// fakeIssuer blocks until released so tests can observe pending attempts;
// started signals that the issuance goroutine has entered Issue.
type fakeIssuer struct {
	calls   atomic.Int64
	started chan struct{}
	release chan struct{}
	err     error
}

func newFakeIssuer() *fakeIssuer {
	return &fakeIssuer{
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
}

func (f *fakeIssuer) Issue(ctx context.Context, domain string) (*acme.Certificate, error) {
	f.calls.Add(1)
	select {
	case f.started <- struct{}{}:
	default:
	}
	select {
	case <-f.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if f.err != nil {
		return nil, f.err
	}
	return &acme.Certificate{
		CertificatePath: "/tmp/certs/" + domain + ".crt",
		PrivateKeyPath:  "/tmp/certs/" + domain + ".key",
	}, nil
}

func waitForStatus(t *testing.T, p *acme.Provisioner, attemptID string, want onboarding.CertStatus) onboarding.IssuanceStatus {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		status, err := p.PollStatus(context.Background(), attemptID)
		require.NoError(t, err)
		if status.Status == want {
			return status
		}
		select {
		case <-deadline:
			t.Fatalf("attempt %s never reached %s (last: %s)", attemptID, want, status.Status)
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestRequestIssuanceLifecycle(t *testing.T) {
	t.Parallel()

	issuer := newFakeIssuer()
	p := acme.NewProvisioner(issuer)

	id, err := p.RequestIssuance(context.Background(), "shop.example.com")
	require.NoError(t, err)
	require.NotEmpty(t, id)

	status, err := p.PollStatus(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, onboarding.CertPending, status.Status)

	close(issuer.release)
	waitForStatus(t, p, id, onboarding.CertIssued)
	p.Wait()
}

func TestRequestIssuanceIdempotentWhilePending(t *testing.T) {
	t.Parallel()

	issuer := newFakeIssuer()
	p := acme.NewProvisioner(issuer)

	id1, err := p.RequestIssuance(context.Background(), "shop.example.com")
	require.NoError(t, err)

	// Issue runs on a spawned goroutine; wait for it to enter before
	// counting calls.
	<-issuer.started

	id2, err := p.RequestIssuance(context.Background(), "shop.example.com")
	require.NoError(t, err)

	assert.Equal(t, id1, id2)
	assert.Equal(t, int64(1), issuer.calls.Load())

	close(issuer.release)
	p.Wait()
}

func TestRequestIssuanceFreshAttemptAfterFailure(t *testing.T) {
	t.Parallel()

	issuer := newFakeIssuer()
	issuer.err = errors.New("acme: order invalid")
	close(issuer.release)

	p := acme.NewProvisioner(issuer)

	id1, err := p.RequestIssuance(context.Background(), "shop.example.com")
	require.NoError(t, err)

	status := waitForStatus(t, p, id1, onboarding.CertError)
	assert.Contains(t, status.Detail, "order invalid")

	id2, err := p.RequestIssuance(context.Background(), "shop.example.com")
	require.NoError(t, err)
	assert.NotEqual(t, id1, id2)
	p.Wait()
}

func TestPollStatusUnknownAttempt(t *testing.T) {
	t.Parallel()

	p := acme.NewProvisioner(newFakeIssuer())
	_, err := p.PollStatus(context.Background(), "nope")
	assert.ErrorIs(t, err, acme.ErrUnknownAttempt)
}

func TestIssueTimeoutFailsAttempt(t *testing.T) {
	t.Parallel()

	issuer := newFakeIssuer() // never released; only the timeout ends it
	p := acme.NewProvisioner(issuer, acme.WithIssueTimeout(20*time.Millisecond))

	id, err := p.RequestIssuance(context.Background(), "slow.example.com")
	require.NoError(t, err)

	waitForStatus(t, p, id, onboarding.CertError)
	p.Wait()
}

func TestNewLegoIssuerValidation(t *testing.T) {
	t.Parallel()

	_, err := acme.NewLegoIssuer("", "/tmp/certs")
	assert.Error(t, err)

	_, err = acme.NewLegoIssuer("ops@example.com", "")
	assert.Error(t, err)

	issuer, err := acme.NewLegoIssuer("ops@example.com", "/tmp/certs")
	require.NoError(t, err)
	assert.NotNil(t, issuer)
}
