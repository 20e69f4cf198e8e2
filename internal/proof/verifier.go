package proof

import (
	"context"

	"github.com/geocoder89/civicchain/internal/domain/identity"
)

type Verifier interface {
	Verify(ctx context.Context, p identity.Proof) (bool, error)
}

// Asserted accepts every proof. It is used when validity has already been
// established by the external prover before the request reaches us.
type Asserted struct{}

func (Asserted) Verify(context.Context, identity.Proof) (bool, error) {
	return true, nil
}

// Func adapts a plain function to Verifier.
type Func func(ctx context.Context, p identity.Proof) (bool, error)

func (f Func) Verify(ctx context.Context, p identity.Proof) (bool, error) {
	return f(ctx, p)
}
