package dnschallenge_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/certsmith/core/dnschallenge"
)

// stubProvider records calls and fails on demand, keyed by payload so
// concurrent provisioning stays deterministic.
type stubProvider struct {
	mu sync.Mutex

	zones       map[string]string // domain -> zone ID
	failCreate  map[string]error  // payload -> error
	failDelete  map[string]error  // record ID -> error
	resolveErr  error
	created     []string // record IDs in creation order
	deleted     []string // record IDs in deletion order
	nextID      int
	createNames []string
}

func newStubProvider() *stubProvider {
	return &stubProvider{
		zones:      map[string]string{},
		failCreate: map[string]error{},
		failDelete: map[string]error{},
	}
}

func (p *stubProvider) ResolveZone(_ context.Context, domain string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.resolveErr != nil {
		return "", p.resolveErr
	}
	zone, ok := p.zones[domain]
	if !ok {
		return "", errors.New("zone not found for " + domain)
	}
	return zone, nil
}

func (p *stubProvider) CreateTXTRecord(_ context.Context, zoneID, name, content string, ttl int) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err, ok := p.failCreate[content]; ok {
		return "", err
	}
	p.nextID++
	id := fmt.Sprintf("rec-%d", p.nextID)
	p.created = append(p.created, id)
	p.createNames = append(p.createNames, name)
	return id, nil
}

func (p *stubProvider) DeleteRecord(_ context.Context, zoneID, recordID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err, ok := p.failDelete[recordID]; ok {
		return err
	}
	p.deleted = append(p.deleted, recordID)
	return nil
}

func TestProvision(t *testing.T) {
	t.Run("creates one record per authorization", func(t *testing.T) {
		provider := newStubProvider()
		provider.zones["test.dev"] = "zone-1"

		coord := dnschallenge.NewCoordinator(provider)
		set, err := coord.Provision(context.Background(), []dnschallenge.Authorization{
			{Domain: "test.dev", Payload: "payload-wildcard"},
			{Domain: "test.dev", Payload: "payload-root"},
		})
		require.NoError(t, err)
		assert.Equal(t, 2, set.Len())

		for _, name := range provider.createNames {
			assert.Equal(t, "_acme-challenge.test.dev", name)
		}
	})

	t.Run("zone lookup failure yields an empty set", func(t *testing.T) {
		provider := newStubProvider()
		provider.resolveErr = errors.New("no zone")

		coord := dnschallenge.NewCoordinator(provider)
		set, err := coord.Provision(context.Background(), []dnschallenge.Authorization{
			{Domain: "missing.dev", Payload: "p"},
		})
		require.ErrorIs(t, err, dnschallenge.ErrProvisionFailed)
		assert.Equal(t, 0, set.Len())
	})

	t.Run("partial failure retains created records", func(t *testing.T) {
		provider := newStubProvider()
		provider.zones["test.dev"] = "zone-1"
		provider.failCreate["payload-root"] = errors.New("quota exceeded")

		coord := dnschallenge.NewCoordinator(provider, dnschallenge.WithMaxParallel(1))
		set, err := coord.Provision(context.Background(), []dnschallenge.Authorization{
			{Domain: "test.dev", Payload: "payload-wildcard"},
			{Domain: "test.dev", Payload: "payload-root"},
		})
		require.ErrorIs(t, err, dnschallenge.ErrProvisionFailed)
		assert.Contains(t, err.Error(), "quota exceeded")
		assert.Equal(t, 1, set.Len())
	})

	t.Run("empty input", func(t *testing.T) {
		coord := dnschallenge.NewCoordinator(newStubProvider())
		set, err := coord.Provision(context.Background(), nil)
		assert.ErrorIs(t, err, dnschallenge.ErrNoAuthorizations)
		assert.Equal(t, 0, set.Len())
	})
}

func TestTearDown(t *testing.T) {
	t.Run("deletes every created record", func(t *testing.T) {
		provider := newStubProvider()
		provider.zones["test.dev"] = "zone-1"

		coord := dnschallenge.NewCoordinator(provider)
		set, err := coord.Provision(context.Background(), []dnschallenge.Authorization{
			{Domain: "test.dev", Payload: "a"},
			{Domain: "test.dev", Payload: "b"},
		})
		require.NoError(t, err)

		coord.TearDown(context.Background(), set)
		assert.ElementsMatch(t, provider.created, provider.deleted)
	})

	t.Run("continues past a failing deletion", func(t *testing.T) {
		provider := newStubProvider()
		provider.zones["test.dev"] = "zone-1"

		coord := dnschallenge.NewCoordinator(provider, dnschallenge.WithMaxParallel(1))
		set, err := coord.Provision(context.Background(), []dnschallenge.Authorization{
			{Domain: "test.dev", Payload: "a"},
			{Domain: "test.dev", Payload: "b"},
		})
		require.NoError(t, err)

		records := set.Records()
		require.Len(t, records, 2)
		provider.failDelete[records[0].RecordID] = errors.New("api down")

		coord.TearDown(context.Background(), set)
		assert.Equal(t, []string{records[1].RecordID}, provider.deleted)
	})

	t.Run("idempotent and nil-safe", func(t *testing.T) {
		provider := newStubProvider()
		provider.zones["test.dev"] = "zone-1"

		coord := dnschallenge.NewCoordinator(provider)
		set, err := coord.Provision(context.Background(), []dnschallenge.Authorization{
			{Domain: "test.dev", Payload: "a"},
		})
		require.NoError(t, err)

		coord.TearDown(context.Background(), set)
		coord.TearDown(context.Background(), set) // drained, no second delete
		assert.Len(t, provider.deleted, 1)

		coord.TearDown(context.Background(), nil)
		coord.TearDown(context.Background(), &dnschallenge.Set{})
	})
}
