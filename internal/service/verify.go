package service

import (
	"context"

	"golang.org/x/sync/singleflight"

	domainauth "github.com/ShageeshanT/kalyanijewellers/internal/domain/auth"
	"github.com/ShageeshanT/kalyanijewellers/internal/ports"
)

// SharedVerifier collapses concurrent verifications of the same token into
// one upstream call.
type SharedVerifier struct {
	next  ports.IdentityVerifier
	group singleflight.Group
}

// NewSharedVerifier wraps next. A nil next yields nil.
func NewSharedVerifier(next ports.IdentityVerifier) *SharedVerifier {
	if next == nil {
		return nil
	}
	return &SharedVerifier{next: next}
}

func (v *SharedVerifier) Verify(ctx context.Context, token string) (domainauth.UserProfile, error) {
	key := domainauth.NormalizeToken(token)
	res, err, _ := v.group.Do(key, func() (any, error) {
		// Detached so one caller's cancellation does not fail the others.
		return v.next.Verify(context.WithoutCancel(ctx), key)
	})
	if err != nil {
		return domainauth.UserProfile{}, err
	}
	return res.(domainauth.UserProfile), nil
}
