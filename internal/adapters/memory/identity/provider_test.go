package identity

import (
	"context"
	"errors"
	"testing"

	"github.com/fieldcrew/crew-tracker-api/internal/adapters/contracttest"
	"github.com/fieldcrew/crew-tracker-api/internal/domain"
	identityport "github.com/fieldcrew/crew-tracker-api/internal/ports/out/identity"
)

func TestContract_IdentityProvider(t *testing.T) {
	contracttest.RunIdentityProvider(t, func(t *testing.T) (identityport.Provider, func()) {
		t.Helper()
		return NewProvider(), nil
	})
}

func TestProvider_FailureInjection(t *testing.T) {
	ctx := context.Background()
	p := NewProvider()
	p.Put(domain.Identity{ID: "u-1", Email: "a@example.com"})

	boom := errors.New("boom")
	p.FailFindByEmail(boom)
	if _, _, err := p.FindByEmail(ctx, "a@example.com"); !errors.Is(err, boom) {
		t.Fatalf("expected injected find error, got %v", err)
	}
	p.FailFindByEmail(nil)

	p.FailDelete(identityport.ErrForbidden)
	if err := p.Delete(ctx, "u-1"); !errors.Is(err, identityport.ErrForbidden) {
		t.Fatalf("expected injected delete error, got %v", err)
	}
	if _, err := p.GetByID(ctx, "u-1"); err != nil {
		t.Fatalf("identity should survive failed delete: %v", err)
	}

	p.FailInvite(boom)
	if _, err := p.Invite(ctx, identityport.Invitation{Email: "b@example.com"}); !errors.Is(err, boom) {
		t.Fatalf("expected injected invite error, got %v", err)
	}
	if len(p.Invitations()) != 0 {
		t.Fatalf("failed invite must not be recorded")
	}
}
