package ports

import "context"

// MailGateway sends the two emailed account actions. Implementations must
// bound their own network timeouts; callers decide whether a failure is
// surfaced (reset) or merely logged (verification).
type MailGateway interface {
	SendVerification(ctx context.Context, to, link string) error
	SendPasswordReset(ctx context.Context, to, link string) error
}

// MailDispatcher enqueues best-effort verification mail for asynchronous
// delivery so the signup response never waits on the mail provider.
type MailDispatcher interface {
	EnqueueVerification(to, link string)
}
