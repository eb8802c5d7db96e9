package emit

import (
	"bytes"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrinter_Emit(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	p := New(&buf)

	mounted := "/run/media/me/USB"
	require.NoError(t, p.Emit(map[string]*string{"sdc1": nil, "sdb1": &mounted}))

	assert.Equal(t, `{"ok":1,"data":{"sdb1":"/run/media/me/USB","sdc1":null}}`+"\n", buf.String())
}

func TestPrinter_EmitAbsent(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, New(&buf).EmitAbsent())

	assert.Equal(t, `{"ok":0,"data":null}`+"\n", buf.String())
}

func TestPrinter_EncodeError(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	err := New(&buf).Emit(func() {})
	require.Error(t, err)
	assert.Empty(t, buf.String(), "nothing is written when encoding fails")
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("broken pipe") }

func TestPrinter_WriteError(t *testing.T) {
	t.Parallel()

	err := New(failingWriter{}).EmitAbsent()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken pipe")
}

func TestPrinter_ConcurrentLinesDoNotInterleave(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	p := New(&buf)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = p.Emit(map[string]string{"volume": "42"})
		}()
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 50)
	for _, line := range lines {
		assert.Equal(t, `{"ok":1,"data":{"volume":"42"}}`, line)
	}
}
