// Package middleware provides common HTTP middleware for ragserve.
//
// This package includes:
//   - Recovery: Panic recovery with JSON error response
//   - RequestID: Adds unique request ID to each request
//   - Logger: Structured request logging
//   - CORS: Cross-Origin Resource Sharing support
//   - Timeout: Request timeout handling
package middleware
