package mounttable

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/b3nj5m1n/pfui/internal/model"
	"github.com/godbus/dbus/v5"
)

const (
	udisks2Service        = "org.freedesktop.UDisks2"
	udisks2Path           = "/org/freedesktop/UDisks2"
	udisks2BlockInterface = "org.freedesktop.UDisks2.Block"
	udisks2FSInterface    = "org.freedesktop.UDisks2.Filesystem"
	dbusObjectManager     = "org.freedesktop.DBus.ObjectManager"
)

type managedObjects = map[dbus.ObjectPath]map[string]map[string]dbus.Variant

// UDisks2 asks the UDisks2 daemon which block devices are mounted where. It sees the same
// mounts as the kernel table but only for devices udisks manages.
type UDisks2 struct {
	connect func() (*dbus.Conn, error)
}

func NewUDisks2() *UDisks2 {
	return &UDisks2{connect: dbus.SystemBus}
}

func (u *UDisks2) Entries(ctx context.Context) ([]model.MountEntry, error) {
	// shared connection, owned by godbus; must not be closed here
	conn, err := u.connect()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to system D-Bus: %w", err)
	}

	var objects managedObjects
	obj := conn.Object(udisks2Service, udisks2Path)
	if err := obj.CallWithContext(ctx, dbusObjectManager+".GetManagedObjects", 0).Store(&objects); err != nil {
		return nil, fmt.Errorf("udisks2 GetManagedObjects: %w", err)
	}
	return entriesFromObjects(objects), nil
}

// entriesFromObjects flattens managed objects that carry both the Block and Filesystem
// interfaces into one entry per mount point, ordered by mount path.
func entriesFromObjects(objects managedObjects) []model.MountEntry {
	var entries []model.MountEntry
	for _, interfaces := range objects {
		blockProps, hasBlock := interfaces[udisks2BlockInterface]
		fsProps, hasFS := interfaces[udisks2FSInterface]
		if !hasBlock || !hasFS {
			continue
		}

		device := byteString(blockProps["Device"])
		if device == "" {
			continue
		}

		v, ok := fsProps["MountPoints"]
		if !ok {
			continue
		}
		mountPoints, ok := v.Value().([][]byte)
		if !ok {
			continue
		}
		for _, mp := range mountPoints {
			path := strings.TrimRight(string(mp), "\x00")
			if path == "" {
				continue
			}
			entries = append(entries, model.MountEntry{Device: device, MountPath: path})
		}
	}

	slices.SortFunc(entries, func(a, b model.MountEntry) int {
		return strings.Compare(a.MountPath, b.MountPath)
	})
	return entries
}

// byteString decodes a NUL terminated "ay" property.
func byteString(v dbus.Variant) string {
	raw, ok := v.Value().([]byte)
	if !ok {
		return ""
	}
	return strings.TrimRight(string(raw), "\x00")
}
