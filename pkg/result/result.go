// Package result provides the generic success/failure vocabulary shared by
// account operations. A Result is either fully succeeded (no errors) or failed
// with one or more errors; merging never overwrites earlier errors, it
// concatenates.
package result

// Error is a structured, user-presentable failure record.
type Error struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// Result aggregates the outcome of one logical operation.
type Result struct {
	Succeeded bool    `json:"succeeded"`
	Errors    []Error `json:"errors,omitempty"`
}

// Success returns a succeeded result with no errors.
func Success() Result {
	return Result{Succeeded: true}
}

// Failed returns a failed result carrying the given errors.
func Failed(errs ...Error) Result {
	return Result{Errors: errs}
}

// Merge folds the outcome of a sub-step into r. A succeeded sub-step leaves r
// unchanged; a failed one appends its errors after any already recorded, so
// callers see every failing aspect in step order.
func (r Result) Merge(other Result) Result {
	if other.Succeeded {
		return r
	}
	if r.Succeeded {
		return Failed(other.Errors...)
	}
	errs := make([]Error, 0, len(r.Errors)+len(other.Errors))
	errs = append(errs, r.Errors...)
	errs = append(errs, other.Errors...)
	return Result{Errors: errs}
}

// HasCode reports whether any recorded error carries the given code.
func (r Result) HasCode(code string) bool {
	for _, e := range r.Errors {
		if e.Code == code {
			return true
		}
	}
	return false
}
