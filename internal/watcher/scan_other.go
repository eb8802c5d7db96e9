//go:build !linux

package watcher

import (
	"context"
	"errors"
)

func ScanPartitions(context.Context) ([]string, error) {
	return nil, errors.New("partition scan is only available on linux")
}
