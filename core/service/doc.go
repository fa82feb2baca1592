// Package service composes issuance, persistence, and notification into the
// application-facing certificate workflow.
//
// IssueCertificate runs one issuance attempt, writes exactly one terminal
// record regardless of outcome, and sends a best-effort outcome email. The
// notification is fire-and-forget on a detached context; its failure never
// changes the result of the attempt.
package service
