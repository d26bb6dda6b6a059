package reconcile

import "errors"

var (
	ErrInvoiceNotFound          = errors.New("invoice not found")
	ErrInvalidAmount            = errors.New("invalid amount")
	ErrQuantityExceedsAvailable = errors.New("returned quantity exceeds quantity on invoice")
	ErrNoItemsSelected          = errors.New("no items selected")
	ErrLedgerEntryNotFound      = errors.New("ledger entry not found")
	ErrBookNotFound             = errors.New("book not found")
	ErrCustomerNotFound         = errors.New("customer not found")
	ErrInsufficientStock        = errors.New("insufficient stock remaining")

	// ErrPartialWriteFailure wraps any storage error of the atomic write.
	// Nothing was committed, so the caller may retry the same request.
	ErrPartialWriteFailure = errors.New("write rejected, nothing was changed")

	// ErrConcurrentUpdate means a version check lost against another writer.
	ErrConcurrentUpdate = errors.New("record was changed by another operation")
)

// IsValidation reports whether err is caused by bad input rather than state or storage.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrQuantityExceedsAvailable) ||
		errors.Is(err, ErrNoItemsSelected) ||
		errors.Is(err, ErrInsufficientStock)
}

// IsNotFound reports whether err is one of the lookup failures.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrInvoiceNotFound) ||
		errors.Is(err, ErrLedgerEntryNotFound) ||
		errors.Is(err, ErrBookNotFound) ||
		errors.Is(err, ErrCustomerNotFound)
}
