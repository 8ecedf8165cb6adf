package deposit

import (
	"context"

	"kobopay/internal/gateway/paystack"
)

// Gateway is the payment-gateway surface the deposit engine needs. The
// production implementation is *paystack.Client; tests substitute a stub.
type Gateway interface {
	InitializeSession(ctx context.Context, email string, amountKobo int64, reference string) (*paystack.Session, error)
	VerifySession(ctx context.Context, reference string) (*paystack.Verification, error)
	VerifySignature(payload []byte, signature string) bool
}
