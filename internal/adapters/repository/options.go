// Package repository loads the candidate composition pool.
package repository

import "github.com/okian/comprank/pkg/logger"

// Option applies a configuration option to the FileSource.
type Option func(*FileSource)

// WithLogger sets a custom logger for the source.
func WithLogger(l logger.Logger) Option {
	return func(s *FileSource) {
		if l != nil {
			s.logger = l
		}
	}
}
