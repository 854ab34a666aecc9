package realtime

import (
	"context"

	"github.com/google/uuid"
)

// MembershipCheck answers whether userID belongs to the entity keyed by roomID.
type MembershipCheck func(ctx context.Context, userID, roomID uuid.UUID) (bool, error)

// MembershipAuthorizer allows a join when any check passes.
type MembershipAuthorizer struct {
	checks []MembershipCheck
}

func NewMembershipAuthorizer(checks ...MembershipCheck) *MembershipAuthorizer {
	return &MembershipAuthorizer{checks: checks}
}

func (a *MembershipAuthorizer) CanJoin(ctx context.Context, userID, roomID uuid.UUID) (bool, error) {
	if userID == roomID {
		return true, nil
	}
	for _, check := range a.checks {
		ok, err := check(ctx, userID, roomID)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}
