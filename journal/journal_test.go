package journal

import (
	"errors"
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJournalRoundTrip(t *testing.T) {
	dir := t.TempDir()

	j, err := Open(dir)
	require.NoError(t, err)
	invocation := j.Invocation()
	assert.NotEmpty(t, invocation)

	require.NoError(t, j.Append(EntryObserved, "domain", "d-1", map[string]string{"path": "ROOT/sales"}))
	require.NoError(t, j.Append(EntryDecided, "domain", "d-1", map[string]string{"action": "update"}))
	require.NoError(t, j.AppendError(EntryFailed, "domain", "d-1", nil, errors.New("job failed")))
	require.NoError(t, j.Close())

	files, err := filepath.Glob(filepath.Join(dir, "cskeeper-*.journal"))
	require.NoError(t, err)
	require.Len(t, files, 1)

	r, err := NewReader(files[0])
	require.NoError(t, err)
	defer func() { _ = r.Close() }()

	first, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, EntryObserved, first.Type)
	assert.Equal(t, invocation, first.Invocation)
	assert.Equal(t, int64(1), first.Sequence)
	assert.Equal(t, "d-1", first.ResourceID)
	assert.JSONEq(t, `{"path":"ROOT/sales"}`, string(first.Data))

	second, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, EntryDecided, second.Type)
	assert.Equal(t, int64(2), second.Sequence)

	third, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, EntryFailed, third.Type)
	assert.Equal(t, "job failed", third.Error)

	_, err = r.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestJournalEntriesShareInvocation(t *testing.T) {
	dir := t.TempDir()

	j, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, j.Append(EntryObserved, "iso", "i-1", nil))
	require.NoError(t, j.Append(EntrySkipped, "iso", "i-1", nil))
	require.NoError(t, j.Close())

	files, err := filepath.Glob(filepath.Join(dir, "*.journal"))
	require.NoError(t, err)
	require.Len(t, files, 1)

	r, err := NewReader(files[0])
	require.NoError(t, err)
	defer func() { _ = r.Close() }()

	var invocations []string
	for {
		entry, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		invocations = append(invocations, entry.Invocation)
	}

	require.Len(t, invocations, 2)
	assert.Equal(t, invocations[0], invocations[1])
}
