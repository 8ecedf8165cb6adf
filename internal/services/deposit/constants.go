package deposit

import "time"

const (
	// DefaultMinAmountKobo is the smallest accepted deposit (₦1).
	DefaultMinAmountKobo = 100

	// dedupWindow is how far back Initiate looks for an equivalent pending
	// deposit before opening a new gateway session.
	dedupWindow = 10 * time.Minute

	// gatewayTimeout bounds each outbound gateway call.
	gatewayTimeout = 30 * time.Second
)
