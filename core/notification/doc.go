// Package notification delivers issuance outcome emails.
//
// The package defines the consumed Notifier capability and a retrying
// decorator around it. Delivery providers live under integration/email and
// implement Notifier; the core issuance flow only ever sees this package.
//
// Outcome notifications are best-effort: a failed delivery never fails the
// issuance attempt it reports on. RetryNotifier retries transient delivery
// failures with a fixed delay and gives up immediately on authentication
// errors, since retrying bad credentials only burns provider quota.
package notification
