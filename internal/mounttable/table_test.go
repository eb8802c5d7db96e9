package mounttable

import (
	"context"
	"testing"

	"github.com/b3nj5m1n/pfui/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Parallel()

	r, err := New(KindProc)
	require.NoError(t, err)
	assert.IsType(t, &Proc{}, r)

	r, err = New("")
	require.NoError(t, err)
	assert.IsType(t, &Proc{}, r)

	r, err = New(KindUDisks2)
	require.NoError(t, err)
	assert.IsType(t, &UDisks2{}, r)

	_, err = New("fstab")
	require.Error(t, err)
}

func TestStatic_ReturnsCopy(t *testing.T) {
	t.Parallel()

	table := Static{{Device: "/dev/sdb1", MountPath: "/run/media/me/A"}}

	entries, err := table.Entries(context.Background())
	require.NoError(t, err)
	entries[0].MountPath = "changed"

	again, err := table.Entries(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []model.MountEntry{{Device: "/dev/sdb1", MountPath: "/run/media/me/A"}}, again)
}
