package enums

import (
	"fmt"
	"strings"
)

// GroupVisibility controls whether a group shows up in public discovery.
type GroupVisibility string

const (
	GroupVisibilityPublic  GroupVisibility = "public"
	GroupVisibilityPrivate GroupVisibility = "private"
)

func (v GroupVisibility) String() string {
	return string(v)
}

func (v GroupVisibility) IsValid() bool {
	return v == GroupVisibilityPublic || v == GroupVisibilityPrivate
}

// ParseGroupVisibility accepts case-insensitive input; empty input means public.
func ParseGroupVisibility(value string) (GroupVisibility, error) {
	normalized := GroupVisibility(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return GroupVisibilityPublic, nil
	}
	if !normalized.IsValid() {
		return "", fmt.Errorf("invalid group visibility %q", value)
	}
	return normalized, nil
}

// GroupRole is a member's role inside a group. Exactly one leader exists per group.
type GroupRole string

const (
	GroupRoleLeader GroupRole = "leader"
	GroupRoleMember GroupRole = "member"
)

func (r GroupRole) String() string {
	return string(r)
}

func (r GroupRole) IsValid() bool {
	return r == GroupRoleLeader || r == GroupRoleMember
}

// InviteStatus tracks a group invitation.
type InviteStatus string

const (
	InviteStatusPending  InviteStatus = "pending"
	InviteStatusAccepted InviteStatus = "accepted"
	InviteStatusDeclined InviteStatus = "declined"
)

func (s InviteStatus) IsValid() bool {
	switch s {
	case InviteStatusPending, InviteStatusAccepted, InviteStatusDeclined:
		return true
	}
	return false
}
