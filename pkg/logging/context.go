package logging

import (
	"context"
)

type contextKey string

const (
	RequestIDKey    = "request_id"
	SubmissionIDKey = "submission_id"
	ServiceNameKey  = "service_name"
)

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, contextKey(RequestIDKey), requestID)
}

func WithSubmissionID(ctx context.Context, submissionID string) context.Context {
	return context.WithValue(ctx, contextKey(SubmissionIDKey), submissionID)
}

func WithServiceName(ctx context.Context, serviceName string) context.Context {
	return context.WithValue(ctx, contextKey(ServiceNameKey), serviceName)
}

func GetRequestID(ctx context.Context) string {
	return stringValue(ctx, RequestIDKey)
}

func GetSubmissionID(ctx context.Context) string {
	return stringValue(ctx, SubmissionIDKey)
}

func GetServiceName(ctx context.Context) string {
	return stringValue(ctx, ServiceNameKey)
}

func stringValue(ctx context.Context, key string) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(contextKey(key)).(string); ok {
		return v
	}
	return ""
}

// GetLogFields returns the correlation fields stored in ctx as a flat
// key/value list suitable for zap's sugared *w methods.
func GetLogFields(ctx context.Context) []interface{} {
	fields := make([]interface{}, 0, 6)

	if requestID := GetRequestID(ctx); requestID != "" {
		fields = append(fields, RequestIDKey, requestID)
	}

	if submissionID := GetSubmissionID(ctx); submissionID != "" {
		fields = append(fields, SubmissionIDKey, submissionID)
	}

	if serviceName := GetServiceName(ctx); serviceName != "" {
		fields = append(fields, ServiceNameKey, serviceName)
	}

	return fields
}
