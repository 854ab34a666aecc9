package enums

import "fmt"

// FriendStatus tracks one direction of a friendship row.
type FriendStatus string

const (
	FriendStatusPending  FriendStatus = "pending"
	FriendStatusAccepted FriendStatus = "accepted"
)

var validFriendStatuses = []FriendStatus{
	FriendStatusPending,
	FriendStatusAccepted,
}

// String implements fmt.Stringer.
func (s FriendStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known FriendStatus.
func (s FriendStatus) IsValid() bool {
	for _, candidate := range validFriendStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseFriendStatus converts raw input into a FriendStatus.
func ParseFriendStatus(value string) (FriendStatus, error) {
	for _, candidate := range validFriendStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid friend status %q", value)
}
