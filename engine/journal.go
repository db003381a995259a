package engine

// journal is the per-invocation undo log. Every state mutation and every
// executed transfer records an inverse; when a later step fails, unwind
// applies the inverses in reverse order so the invocation leaves no trace.
type journal struct {
	undos []func() error
}

// record appends one undo step.
func (j *journal) record(undo func() error) {
	j.undos = append(j.undos, undo)
}

// unwind runs all undo steps last-to-first. It keeps going past failures
// and returns the first error encountered.
func (j *journal) unwind() error {
	var first error
	for i := len(j.undos) - 1; i >= 0; i-- {
		if err := j.undos[i](); err != nil && first == nil {
			first = err
		}
	}
	j.undos = nil
	return first
}
