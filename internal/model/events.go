package model

import "strconv"

// WatchHandle identifies which kernel watch produced a RawEvent.
type WatchHandle int32

// Action is the kind of directory change carried by a RawEvent.
type Action uint8

const (
	ActionUnknown Action = iota
	ActionCreated
	ActionDeleted
)

func (a Action) String() string {
	switch a {
	case ActionCreated:
		return "created"
	case ActionDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// RawEvent 目录监控原始事件
type RawEvent struct {
	Watch  WatchHandle
	Name   []byte // raw entry name, empty for events about the watched dir itself
	Action Action
	Mask   uint32 // backend specific bits, kept for diagnostics
}

func (e RawEvent) HasName() bool { return len(e.Name) > 0 }

func (e RawEvent) String() string {
	return "wd=" + strconv.Itoa(int(e.Watch)) + " name=" + strconv.Quote(string(e.Name)) + " action=" + e.Action.String()
}

// MountEntry is one line of the live mount table.
type MountEntry struct {
	Device    string // e.g., /dev/sdb1
	MountPath string // e.g., /run/media/user/USB
}
