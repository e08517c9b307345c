package trafficos

// Close tears the system down: flushes and closes the decision trace and
// releases any file-backed locks' descriptors. Call it once, after every
// client has stopped issuing acquire/release calls; ledger state is simply
// discarded. Close is idempotent.
func (s *System) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}

	var firstErr error
	if s.trace != nil {
		if err := s.trace.Close(); err != nil {
			firstErr = err
		}
	}
	for _, c := range s.closers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	s.closers = nil

	s.logger.Info("allocation engine closed")
	return firstErr
}
