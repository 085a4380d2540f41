package cart

import "errors"

// Domain failures callers are expected to handle. Anything else that comes
// out of an operation is an infrastructure error and is returned as-is.
var (
	ErrCartSessionMissing = errors.New("cart session not found")
	ErrProductNotFound    = errors.New("product not found")
	ErrNotEnoughStock     = errors.New("not enough stock")
	ErrCartNotFound       = errors.New("cart not found")
	ErrItemNotFound       = errors.New("item not found")
	ErrValidation         = errors.New("cart items failed validation")
)

// Result is the structured outcome of a mutation. Domain failures are
// reported here with Success=false rather than as returned errors, so the
// calling layer can show Message verbatim. Err carries the sentinel for
// status mapping and is not serialized.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func ok(message string) Result {
	return Result{Success: true, Message: message}
}

func fail(err error, message string) Result {
	return Result{Success: false, Message: message, Err: err}
}
