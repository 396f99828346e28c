package memory

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greenmaskio/schemashift/internal/storages"
)

func TestPutAndGetObject(t *testing.T) {
	st := New("/")

	content := []byte("hello world")
	err := st.PutObject(context.Background(), "test.txt", bytes.NewReader(content))
	require.NoError(t, err)

	reader, err := st.GetObject(context.Background(), "test.txt")
	require.NoError(t, err)

	data, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, content, data)

	_, err = st.GetObject(context.Background(), "missing.txt")
	require.ErrorIs(t, err, storages.ErrFileNotFound)
}

func TestExistsAndDelete(t *testing.T) {
	st := New("/")

	ok, err := st.Exists(context.Background(), "test.txt")
	require.NoError(t, err)
	assert.False(t, ok)

	err = st.PutObject(context.Background(), "test.txt", bytes.NewReader([]byte("data")))
	require.NoError(t, err)

	ok, err = st.Exists(context.Background(), "test.txt")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, st.Delete(context.Background(), "test.txt"))
	ok, err = st.Exists(context.Background(), "test.txt")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSubStorage(t *testing.T) {
	st := New("/base")
	sub := st.SubStorage("schema", true)
	require.Equal(t, "/base/schema", sub.GetCwd())

	require.NoError(t, sub.PutObject(context.Background(), "app.sql", bytes.NewReader([]byte("1"))))

	ok, err := st.Exists(context.Background(), "schema/app.sql")
	require.NoError(t, err)
	assert.True(t, ok)

	stat, err := st.Stat(context.Background(), "schema/app.sql")
	require.NoError(t, err)
	assert.True(t, stat.Exist)
	assert.EqualValues(t, 1, stat.Size)
	assert.Equal(t, "/base/schema/app.sql", stat.Name)
}
