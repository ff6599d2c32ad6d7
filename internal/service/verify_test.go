package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/ShageeshanT/kalyanijewellers/internal/domain/auth"
	mockauth "github.com/ShageeshanT/kalyanijewellers/internal/mocks/auth"
)

func TestNewSharedVerifier_Nil(t *testing.T) {
	assert.Nil(t, NewSharedVerifier(nil))
}

func TestSharedVerifier_CollapsesConcurrentCalls(t *testing.T) {
	fb := mockauth.NewFakeBackend()
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	fb.VerifyFunc = func(_ context.Context, token string) (domainauth.UserProfile, error) {
		select {
		case started <- struct{}{}:
		default:
		}
		<-release
		p := customerProfile
		p.Email = token + "@example.com"
		return p, nil
	}
	v := NewSharedVerifier(fb)

	first := make(chan domainauth.UserProfile, 1)
	go func() {
		p, err := v.Verify(context.Background(), `"shared"`)
		assert.NoError(t, err)
		first <- p
	}()
	<-started

	const waiters = 4
	var wg sync.WaitGroup
	results := make([]domainauth.UserProfile, waiters)
	for i := range waiters {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p, err := v.Verify(context.Background(), "shared")
			assert.NoError(t, err)
			results[i] = p
		}()
	}
	close(release)
	wg.Wait()

	require.Equal(t, "shared@example.com", (<-first).Email)
	for _, p := range results {
		assert.Equal(t, "shared@example.com", p.Email)
	}
	assert.LessOrEqual(t, fb.VerifyCalls(), 1+waiters)
	assert.GreaterOrEqual(t, fb.VerifyCalls(), 1)
}

func TestSharedVerifier_PropagatesErrors(t *testing.T) {
	fb := mockauth.NewFakeBackend()
	v := NewSharedVerifier(fb)
	_, err := v.Verify(context.Background(), "never-issued")
	require.ErrorIs(t, err, mockauth.ErrUnknownToken)
}
