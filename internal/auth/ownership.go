package auth

import "errors"

var (
	// ErrNotFound covers both "absent" and "owned by someone else" so that
	// other users' records cannot be enumerated.
	ErrNotFound  = errors.New("resource not found")
	ErrForbidden = errors.New("forbidden")
)

type Owned interface {
	OwnerID() string
}

func AuthorizeOwnership(actorID string, record Owned) error {
	if record == nil || actorID == "" || record.OwnerID() != actorID {
		return ErrNotFound
	}
	return nil
}

// AuthorizeSelf guards actions whose subject is the actor's own account.
func AuthorizeSelf(actorID, targetID string) error {
	if actorID == "" || actorID != targetID {
		return ErrForbidden
	}
	return nil
}
