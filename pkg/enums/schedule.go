package enums

import (
	"fmt"
	"strings"
)

// ScheduleType separates personal calendars from group plans.
type ScheduleType string

const (
	ScheduleTypePersonal ScheduleType = "personal"
	ScheduleTypeGroup    ScheduleType = "group"
)

func (t ScheduleType) String() string {
	return string(t)
}

func (t ScheduleType) IsValid() bool {
	return t == ScheduleTypePersonal || t == ScheduleTypeGroup
}

// ParseScheduleType defaults empty input to personal.
func ParseScheduleType(value string) (ScheduleType, error) {
	normalized := ScheduleType(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return ScheduleTypePersonal, nil
	}
	if !normalized.IsValid() {
		return "", fmt.Errorf("invalid schedule type %q", value)
	}
	return normalized, nil
}

// ChatRoomType distinguishes direct messages, group rooms and per-schedule rooms.
type ChatRoomType string

const (
	ChatRoomTypeDM       ChatRoomType = "dm"
	ChatRoomTypeGroup    ChatRoomType = "group"
	ChatRoomTypeSchedule ChatRoomType = "schedule"
)

func (t ChatRoomType) String() string {
	return string(t)
}

func (t ChatRoomType) IsValid() bool {
	switch t {
	case ChatRoomTypeDM, ChatRoomTypeGroup, ChatRoomTypeSchedule:
		return true
	}
	return false
}
