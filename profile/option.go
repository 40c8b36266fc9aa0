package profile

import "go.uber.org/zap"

// Option configures the Store.
type Option func(*Store)

// WithLogger sets the logger used for storage warnings and errors.
// If not provided, logging is disabled.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		s.log = l
	}
}
