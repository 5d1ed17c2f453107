package collector

import "fmt"

// ProviderError wraps a failed call to the market-data provider:
// transport failure, timeout, non-OK status, or an undecodable body.
// A successful response without rows is not an error.
type ProviderError struct {
	Provider string
	Op       string
	Ticker   string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s %s %s: %v", e.Provider, e.Op, e.Ticker, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }
