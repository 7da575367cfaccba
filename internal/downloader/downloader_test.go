package downloader

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"faceharvest/pkg/config"
	"faceharvest/pkg/errors"
	"faceharvest/pkg/logger"
)

type countingProgress struct {
	n int32
}

func (p *countingProgress) Add(n int) error {
	atomic.AddInt32(&p.n, int32(n))
	return nil
}

// newImageServer serves "data:<path>" for every path except /broken/*
func newImageServer(t *testing.T, hits *int32) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			atomic.AddInt32(hits, 1)
		}
		if filepath.Dir(r.URL.Path) == "/broken" {
			http.Error(w, "gone", http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte("data:" + r.URL.Path))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestSave(t *testing.T) {
	server := newImageServer(t, nil)
	d := New(server.Client(), logger.NewNopLogger())

	dest := filepath.Join(t.TempDir(), "a.jpg")
	require.NoError(t, os.WriteFile(dest, []byte("old contents"), 0644))

	require.NoError(t, d.Save(context.Background(), server.URL+"/img/a.jpg", dest))

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "data:/img/a.jpg", string(data))
}

func TestSaveErrors(t *testing.T) {
	server := newImageServer(t, nil)
	d := New(server.Client(), logger.NewNopLogger())
	dir := t.TempDir()

	t.Run("non-success status", func(t *testing.T) {
		err := d.Save(context.Background(), server.URL+"/broken/a.jpg", filepath.Join(dir, "a.jpg"))
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrorTypeDownload))
		assert.Contains(t, err.Error(), "code 404")
		assert.NoFileExists(t, filepath.Join(dir, "a.jpg"))
	})

	t.Run("unreachable host", func(t *testing.T) {
		err := d.Save(context.Background(), "http://127.0.0.1:1/a.jpg", filepath.Join(dir, "b.jpg"))
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrorTypeDownload))
	})

	t.Run("unwritable destination", func(t *testing.T) {
		err := d.Save(context.Background(), server.URL+"/img/c.jpg", filepath.Join(dir, "missing", "c.jpg"))
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrorTypeDownload))
	})

	t.Run("redirect loop", func(t *testing.T) {
		loop := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, r.URL.Path, http.StatusFound)
		}))
		defer loop.Close()

		err := New(loop.Client(), logger.NewNopLogger()).
			Save(context.Background(), loop.URL+"/spin.jpg", filepath.Join(dir, "spin.jpg"))
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrorTypeDownload))
	})
}

func TestSaveAllIsolatesFailures(t *testing.T) {
	server := newImageServer(t, nil)
	log := logger.NewTestLogger()
	progress := &countingProgress{}
	d := New(server.Client(), log, WithProgress(progress))

	dir := t.TempDir()
	urls := []string{
		server.URL + "/img/one.jpg",
		server.URL + "/broken/two.jpg",
		server.URL + "/img/three.png?w=200",
	}

	outcomes, err := d.SaveAll(context.Background(), urls, dir)
	require.NoError(t, err)
	require.Len(t, outcomes, 3)

	assert.True(t, outcomes[0].Succeeded)
	assert.False(t, outcomes[1].Succeeded)
	assert.True(t, errors.IsType(outcomes[1].Err, errors.ErrorTypeDownload))
	assert.True(t, outcomes[2].Succeeded)
	assert.Equal(t, filepath.Join(dir, "three.png"), outcomes[2].Path)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{"one.jpg", "three.png"}, names)

	warnings := log.GetMessagesByLevel("WARN")
	require.Len(t, warnings, 1)
	assert.Equal(t, urls[1], warnings[0].Fields["url"])
	assert.Equal(t, int32(3), progress.n)
}

func TestSaveAllFailFast(t *testing.T) {
	var hits int32
	server := newImageServer(t, &hits)
	log := logger.NewTestLogger()
	d := New(server.Client(), log, WithPolicy(config.PolicyFailFast))

	dir := t.TempDir()
	urls := []string{
		server.URL + "/img/one.jpg",
		server.URL + "/broken/two.jpg",
		server.URL + "/img/three.jpg",
	}

	outcomes, err := d.SaveAll(context.Background(), urls, dir)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeDownload))
	assert.Len(t, outcomes, 2)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))

	assert.FileExists(t, filepath.Join(dir, "one.jpg"))
	assert.NoFileExists(t, filepath.Join(dir, "three.jpg"))
	assert.Empty(t, log.GetMessagesByLevel("WARN"))
}

func TestSaveAllDuplicateURLsOverwrite(t *testing.T) {
	var hits int32
	server := newImageServer(t, &hits)
	d := New(server.Client(), logger.NewNopLogger())

	dir := t.TempDir()
	u := server.URL + "/img/same.jpg"

	outcomes, err := d.SaveAll(context.Background(), []string{u, u}, dir)
	require.NoError(t, err)
	assert.Len(t, outcomes, 2)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
	assert.FileExists(t, filepath.Join(dir, "same.jpg"))
}

func TestSaveAllCreatesDirectory(t *testing.T) {
	server := newImageServer(t, nil)
	d := New(server.Client(), logger.NewNopLogger())

	dir := filepath.Join(t.TempDir(), "nested", "raw")
	_, err := d.SaveAll(context.Background(), []string{server.URL + "/img/a.jpg"}, dir)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "a.jpg"))
}

func TestSaveAllStopsOnCancel(t *testing.T) {
	var hits int32
	server := newImageServer(t, &hits)
	d := New(server.Client(), logger.NewNopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcomes, err := d.SaveAll(ctx, []string{server.URL + "/img/a.jpg"}, t.TempDir())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, outcomes)
	assert.Zero(t, atomic.LoadInt32(&hits))
}

func TestFileName(t *testing.T) {
	tests := []struct {
		url     string
		want    string
		wantErr bool
	}{
		{url: "http://img.example/a/b/photo.jpg", want: "photo.jpg"},
		{url: "http://img.example/photo.jpg?size=large#top", want: "photo.jpg"},
		{url: "http://img.example/dir/", want: "dir"},
		{url: "http://img.example/", wantErr: true},
		{url: "http://img.example", wantErr: true},
		{url: "://bad", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			got, err := FileName(tt.url)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.IsType(err, errors.ErrorTypeDownload))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
