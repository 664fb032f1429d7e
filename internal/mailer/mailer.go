// Package mailer sends account emails. Delivery is best-effort from the
// caller's point of view: registration and reset requests succeed even
// when the mail server is down, and failures are logged upstream.
package mailer

import "context"

// Sender delivers account lifecycle emails carrying a purpose-typed token.
type Sender interface {
	SendVerification(ctx context.Context, to, username, token string) error
	SendPasswordReset(ctx context.Context, to, username, token string) error
}
