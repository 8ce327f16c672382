package engine

// Result is the outcome of a validation or authorization check.
// Err is set exactly when OK is false.
type Result struct {
	OK  bool
	Err *PolicyError
}

// Allowed is the passing Result.
func Allowed() Result {
	return Result{OK: true}
}

// Denied wraps a rejection.
func Denied(err *PolicyError) Result {
	return Result{Err: err}
}

// Error returns the rejection as an error, or nil if the check passed.
func (r Result) Error() error {
	if r.Err == nil {
		return nil
	}
	return r.Err
}

// Unpack converts the result to the boolean/error convention.
// With raise set a rejection is returned as an error; otherwise it is
// reported only as false.
func (r Result) Unpack(raise bool) (bool, error) {
	if r.OK {
		return true, nil
	}
	if raise {
		return false, r.Error()
	}
	return false, nil
}

// Outcome is the metrics and log label for the result.
func (r Result) Outcome() string {
	if r.OK {
		return "allowed"
	}
	if r.Err == nil {
		return "denied"
	}
	return r.Err.Kind.String()
}
