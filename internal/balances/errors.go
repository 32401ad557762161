package balances

import (
	"errors"
	"fmt"

	"wallet-risk-scorer/internal/domain"
)

// ErrorKind classifies a fetch failure for retry decisions.
type ErrorKind string

const (
	// KindTransient covers rate limits, timeouts, 5xx and transport
	// errors. Transient failures are retried inside the client.
	KindTransient ErrorKind = "transient"
	// KindPermanent covers invalid addresses, auth failures and other
	// 4xx responses. Permanent failures abort the chain immediately.
	KindPermanent ErrorKind = "permanent"
)

// FetchError is the terminal error for one chain query, returned after the
// retry budget is exhausted or on the first permanent failure.
type FetchError struct {
	Kind       ErrorKind
	Chain      domain.ChainID
	Wallet     domain.WalletAddress
	StatusCode int // last HTTP status, 0 for transport errors
	Attempts   int // attempts actually made
	Err        error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch balances chain=%d wallet=%s kind=%s attempts=%d: %v",
		e.Chain, e.Wallet, e.Kind, e.Attempts, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Retryable reports whether the underlying failure was transient.
func (e *FetchError) Retryable() bool {
	return e.Kind == KindTransient
}

// IsPermanent reports whether err is a permanent fetch error.
func IsPermanent(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe) && fe.Kind == KindPermanent
}
