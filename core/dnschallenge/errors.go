package dnschallenge

import "errors"

var (
	// ErrNoAuthorizations is returned when Provision is called with nothing to provision.
	ErrNoAuthorizations = errors.New("no authorizations to provision")

	// ErrProvisionFailed is returned when any record creation fails. The
	// returned set still holds the records that were created.
	ErrProvisionFailed = errors.New("dns challenge provisioning failed")
)
