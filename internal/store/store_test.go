package store

import (
	"context"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_RegisterAndGet(t *testing.T) {
	fs := afero.NewMemMapFs()
	s := New(fs, "/downloads", time.Hour)

	require.NoError(t, afero.WriteFile(fs, "/downloads/a.mp4", []byte("data"), 0o644))
	e := s.Register("job1", "/downloads/a.mp4", 4)

	got, ok := s.Get("job1")
	require.True(t, ok)
	assert.Equal(t, e.Path, got.Path)
}

func TestStore_DeleteRemovesFileAndTracking(t *testing.T) {
	fs := afero.NewMemMapFs()
	s := New(fs, "/downloads", time.Hour)

	require.NoError(t, afero.WriteFile(fs, "/downloads/a.mp4", []byte("data"), 0o644))
	s.Register("job1", "/downloads/a.mp4", 4)

	require.NoError(t, s.Delete(context.Background(), "job1"))

	_, ok := s.Get("job1")
	assert.False(t, ok)

	exists, err := afero.Exists(fs, "/downloads/a.mp4")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestStore_Expired(t *testing.T) {
	fs := afero.NewMemMapFs()
	s := New(fs, "/downloads", -time.Second) // already expired on registration

	require.NoError(t, afero.WriteFile(fs, "/downloads/a.mp4", []byte("data"), 0o644))
	s.Register("job1", "/downloads/a.mp4", 4)

	expired := s.Expired(time.Now())
	require.Len(t, expired, 1)
	assert.Equal(t, "job1", expired[0].ID)
}

func TestScheduleEagerDelete_RemovesEntryAfterDelay(t *testing.T) {
	fs := afero.NewMemMapFs()
	s := New(fs, "/downloads", time.Hour)

	require.NoError(t, afero.WriteFile(fs, "/downloads/a.mp4", []byte("data"), 0o644))
	s.Register("job1", "/downloads/a.mp4", 4)

	s.ScheduleEagerDelete("job1", 10*time.Millisecond)

	assert.Eventually(t, func() bool {
		_, ok := s.Get("job1")
		return !ok
	}, time.Second, 5*time.Millisecond)

	exists, err := afero.Exists(fs, "/downloads/a.mp4")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestScheduleEagerDelete_NoopIfAlreadyDeleted(t *testing.T) {
	fs := afero.NewMemMapFs()
	s := New(fs, "/downloads", time.Hour)

	require.NoError(t, afero.WriteFile(fs, "/downloads/a.mp4", []byte("data"), 0o644))
	s.Register("job1", "/downloads/a.mp4", 4)
	require.NoError(t, s.Delete(context.Background(), "job1"))

	s.ScheduleEagerDelete("job1", 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
}

func TestPrefix_IsStableAndFilenameSafe(t *testing.T) {
	p1 := Prefix("job-abc")
	p2 := Prefix("job-abc")
	assert.Equal(t, p1, p2)
	assert.Len(t, p1, 16)
}
