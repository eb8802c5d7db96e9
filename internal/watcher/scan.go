package watcher

import (
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/multierr"
)

const (
	sysfsRoot = "/sys"
	// USB device roots sit a handful of levels above the block device in sysfs
	maxUSBRootDepth = 10
)

// partitionName extracts the device-node name of a block partition from uevent variables.
// Udev 事件环境变量示例: SUBSYSTEM=block, DEVTYPE=partition, DEVNAME=sdb1
func partitionName(env map[string]string) (string, bool) {
	if env["SUBSYSTEM"] != "block" || env["DEVTYPE"] != "partition" {
		return "", false
	}
	name := filepath.Base(env["DEVNAME"])
	if name == "" || name == "." || name == "/" {
		return "", false
	}
	return name, true
}

// removablePartition is partitionName restricted to partitions of removable media: the
// parent disk reports removable=1 or the device hangs off a USB device.
func removablePartition(fsys afero.Fs, kobj string, env map[string]string) (string, bool) {
	name, ok := partitionName(env)
	if !ok {
		return "", false
	}
	dir := kobj
	if !strings.HasPrefix(dir, sysfsRoot+"/") {
		dir = filepath.Join(sysfsRoot, dir)
	}

	if b, err := afero.ReadFile(fsys, filepath.Join(filepath.Dir(dir), "removable")); err == nil &&
		strings.TrimSpace(string(b)) == "1" {
		return name, true
	}
	if _, ok := findUSBRoot(fsys, dir); ok {
		return name, true
	}
	return "", false
}

// findUSBRoot 向上查找包含 idVendor 的目录（即 USB Device 根目录）
func findUSBRoot(fsys afero.Fs, path string) (string, bool) {
	dir := path
	for i := 0; i < maxUSBRootDepth; i++ {
		dir = filepath.Dir(dir)
		if dir == sysfsRoot || dir == "/" || dir == "." {
			break
		}
		if _, err := fsys.Stat(filepath.Join(dir, "idVendor")); err == nil {
			return dir, true
		}
	}
	return "", false
}

// drainErrors appends every error already queued on errs without blocking.
func drainErrors(errs <-chan error, err error) error {
	for {
		select {
		case e := <-errs:
			err = multierr.Append(err, e)
		default:
			return err
		}
	}
}
