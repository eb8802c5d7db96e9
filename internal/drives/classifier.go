package drives

import (
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
)

const partitionPrefix = "sd"

// IsPartitionName reports whether a device-node name looks like a SCSI/SATA partition
// (sda1, sdb2). Whole disks (sda) and other node families (sr0, nvme0n1) are rejected.
func IsPartitionName(name string) bool {
	if !strings.HasPrefix(name, partitionPrefix) {
		return false
	}
	last := name[len(name)-1]
	return last >= '0' && last <= '9'
}

// Classifier decides which device nodes are tracked in the Registry.
type Classifier struct {
	ignore map[string]struct{}
	log    *zap.Logger
}

// NewClassifier returns a classifier that additionally refuses every key in ignore.
func NewClassifier(ignore []string, log *zap.Logger) *Classifier {
	if log == nil {
		log = zap.NewNop()
	}
	set := make(map[string]struct{}, len(ignore))
	for _, name := range ignore {
		set[name] = struct{}{}
	}
	return &Classifier{ignore: set, log: log}
}

// Classify decodes a raw directory entry name and returns its registry key if it names a
// candidate partition. Names that are not valid UTF-8 are rejected with a diagnostic.
func (c *Classifier) Classify(raw []byte) (string, bool) {
	if !utf8.Valid(raw) {
		c.log.Warn("Rejecting device name that is not valid text", zap.ByteString("name", raw))
		return "", false
	}
	name := string(raw)
	if !c.IsCandidate(name) {
		return "", false
	}
	return Key(name), true
}

func (c *Classifier) IsCandidate(name string) bool {
	if !IsPartitionName(name) {
		return false
	}
	if _, ignored := c.ignore[name]; ignored {
		return false
	}
	return true
}

// Key is the registry key for a device node: the node's leaf name.
func Key(name string) string { return name }
