package gateway

import "strings"

// retryableSignatures mark exchange errors worth retrying with backoff.
// Authentication and validation errors never match and are surfaced at once.
var retryableSignatures = []string{
	"Rate limit",
	"Unavailable",
}

// Retryable reports whether any exchange error message carries a transient
// signature.
func Retryable(errs []string) bool {
	for _, e := range errs {
		for _, sig := range retryableSignatures {
			if strings.Contains(e, sig) {
				return true
			}
		}
	}
	return false
}

// minSizeSignatures identify order rejections caused by a volume below the
// venue's minimum. Callers translate these into a clearer user-facing
// message instead of echoing the raw exchange string.
var minSizeSignatures = []string{
	"Order minimum not met",
	"volume minimum not met",
	"Invalid arguments:volume",
}

// IsMinSizeRejection reports whether an order was rejected for being below
// the exchange minimum size.
func IsMinSizeRejection(errs []string) bool {
	for _, e := range errs {
		for _, sig := range minSizeSignatures {
			if strings.Contains(e, sig) {
				return true
			}
		}
	}
	return false
}
