package storage

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_PutGetListDelete(t *testing.T) {
	ctx := context.Background()
	m := NewMemory("packs")

	key, err := m.Put(ctx, "templates/temp1.zip", []byte("abc"), "application/zip")
	require.NoError(t, err)
	assert.Equal(t, "templates/temp1.zip", key)
	_, err = m.Put(ctx, "plugins/plug1.zip", []byte("defg"), "application/zip")
	require.NoError(t, err)

	got, err := m.Get(ctx, "templates/temp1.zip")
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), got)

	list, err := m.List(ctx, "templates/")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, int64(3), list[0].Size)

	ok, err := m.Exists(ctx, "plugins/plug1.zip")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, m.Delete(ctx, "plugins/plug1.zip"))
	_, err = m.Get(ctx, "plugins/plug1.zip")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 2, m.Puts())
}

func TestMemory_SignedURLIsFreshEachCall(t *testing.T) {
	ctx := context.Background()
	m := NewMemory("packs")
	_, err := m.Put(ctx, "packs/a.zip", []byte("x"), "")
	require.NoError(t, err)

	u1, err := m.SignedURL(ctx, "packs/a.zip", time.Minute)
	require.NoError(t, err)
	u2, err := m.SignedURL(ctx, "packs/a.zip", time.Minute)
	require.NoError(t, err)
	assert.NotEqual(t, u1, u2)
	assert.True(t, strings.HasPrefix(u1, "memory://packs/packs/a.zip?"))

	_, err = m.SignedURL(ctx, "packs/missing.zip", time.Minute)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemory_FailPut(t *testing.T) {
	m := NewMemory("packs")
	m.FailPut = errors.New("quota exceeded")
	_, err := m.Put(context.Background(), "k", []byte("x"), "")
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.Equal(t, 0, m.Puts())
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "application/zip", ContentType("bundle.ZIP", nil))
	assert.Equal(t, "application/pdf", ContentType("guide.pdf", nil))
	assert.Equal(t, "audio/mpeg", ContentType("track.mp3", nil))
	assert.Equal(t, "application/octet-stream", ContentType("blob.bin", nil))
	assert.Equal(t, "image/png", ContentType("noext", []byte("\x89PNG\r\n\x1a\n0000")))
}

func TestSplitEndpoint(t *testing.T) {
	for _, tc := range []struct {
		in     string
		host   string
		secure bool
	}{
		{"eu2.contabostorage.com", "eu2.contabostorage.com", true},
		{"https://eu2.contabostorage.com", "eu2.contabostorage.com", true},
		{"http://localhost:9000", "localhost:9000", false},
	} {
		host, secure, err := splitEndpoint(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.host, host)
		assert.Equal(t, tc.secure, secure)
	}
	_, _, err := splitEndpoint("")
	assert.Error(t, err)
}

func TestOpen(t *testing.T) {
	s, err := Open("memory", S3Config{Bucket: "packs"})
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, s)

	_, err = Open("ftp", S3Config{})
	assert.Error(t, err)
}
