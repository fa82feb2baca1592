// Package postmark implements notification.Notifier over Postmark's
// transactional email API.
//
// Outcome notifications are sent with open and HTML link tracking enabled
// and Reply-To pointed at the configured support address. Postmark API
// errors that indicate rejected credentials map to
// notification.ErrAuthFailed so the retrying decorator gives up
// immediately; everything else maps to notification.ErrSendFailed and is
// retried.
package postmark
