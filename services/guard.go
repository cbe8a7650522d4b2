package services

// Owned is implemented by records that belong to a single user
type Owned interface {
	OwnerID() string
}

// Authorize lets caller act on record only when it exists and is theirs.
// Checks run in a fixed order: missing caller, missing record, owner mismatch.
func Authorize[T Owned](caller string, record *T, notFoundMsg string) error {
	if caller == "" {
		return Validation(MsgOwnerRequired)
	}
	if record == nil {
		return NotFound(notFoundMsg)
	}
	if (*record).OwnerID() != caller {
		return Forbidden(MsgForbidden)
	}
	return nil
}

func requireOwner(owner string) error {
	if owner == "" {
		return Validation(MsgOwnerRequired)
	}
	return nil
}
