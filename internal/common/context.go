package common

import (
	"context"
)

// Context keys for storing values in context
type contextKey string

const (
	ContextKeyRequestID   contextKey = "request_id"
	ContextKeyContentHash contextKey = "content_hash"
	ContextKeySourcePath  contextKey = "source_path"
)

// WithRequestID adds a request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// RequestIDFromContext extracts the request ID from context
func RequestIDFromContext(ctx context.Context) string {
	if requestID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return requestID
	}
	return ""
}

// WithContentHash stores the hex-encoded content hash of the file being processed.
func WithContentHash(ctx context.Context, hash string) context.Context {
	return context.WithValue(ctx, ContextKeyContentHash, hash)
}

// ContentHashFromContext extracts the content hash from context
func ContentHashFromContext(ctx context.Context) string {
	if hash, ok := ctx.Value(ContextKeyContentHash).(string); ok {
		return hash
	}
	return ""
}

// WithSourcePath stores the path of the file being processed.
func WithSourcePath(ctx context.Context, path string) context.Context {
	return context.WithValue(ctx, ContextKeySourcePath, path)
}

// SourcePathFromContext extracts the source path from context
func SourcePathFromContext(ctx context.Context) string {
	if path, ok := ctx.Value(ContextKeySourcePath).(string); ok {
		return path
	}
	return ""
}
