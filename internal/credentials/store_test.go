package credentials

import (
	"context"
	"encoding/base64"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_EmptyBlobIsNotPopulated(t *testing.T) {
	s := Load(afero.NewMemMapFs(), "/creds", "")
	assert.False(t, s.IsPopulated())
}

func TestLoad_InvalidEncodingIsNotPopulated(t *testing.T) {
	s := Load(afero.NewMemMapFs(), "/creds", "not-valid-base64!!")
	assert.False(t, s.IsPopulated())
}

func TestLoad_ValidBlobIsPopulated(t *testing.T) {
	blob := base64.StdEncoding.EncodeToString([]byte("cookie-jar-contents"))
	s := Load(afero.NewMemMapFs(), "/creds", blob)
	assert.True(t, s.IsPopulated())
}

func TestAcquire_FailsWhenStoreEmpty(t *testing.T) {
	s := Load(afero.NewMemMapFs(), "/creds", "")
	_, err := s.Acquire(context.Background())
	require.Error(t, err)
}

func TestAcquireRelease_RoundTrip(t *testing.T) {
	fs := afero.NewMemMapFs()
	blob := base64.StdEncoding.EncodeToString([]byte("cookie-jar-contents"))
	s := Load(fs, "/creds", blob)

	handle, err := s.Acquire(context.Background())
	require.NoError(t, err)

	data, err := afero.ReadFile(fs, handle.Path)
	require.NoError(t, err)
	assert.Equal(t, "cookie-jar-contents", string(data))

	handle.Release(context.Background())

	exists, err := afero.Exists(fs, handle.Path)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestAcquire_EachCallGetsIndependentCopy(t *testing.T) {
	fs := afero.NewMemMapFs()
	blob := base64.StdEncoding.EncodeToString([]byte("cookie-jar-contents"))
	s := Load(fs, "/creds", blob)

	h1, err := s.Acquire(context.Background())
	require.NoError(t, err)
	h2, err := s.Acquire(context.Background())
	require.NoError(t, err)

	assert.NotEqual(t, h1.Path, h2.Path)
}
