package service

import "context"

// AvatarLookup derives an avatar image URL from an email address. The lookup
// is best-effort enrichment: callers treat any error as "no avatar" and move
// on.
type AvatarLookup interface {
	URL(ctx context.Context, email string) (string, error)
}

// Notifier delivers account emails. Deliveries are fire-and-forget: callers
// schedule them off the request path and never surface failures.
type Notifier interface {
	SendConfirmation(ctx context.Context, email, username, token string) error
	SendPasswordReset(ctx context.Context, email, username, newPassword, token string) error
}
