package catalog

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"faceharvest/pkg/faces"
	"faceharvest/pkg/harvest"
)

func openTest(t *testing.T) *Catalog {
	t.Helper()
	c, err := Open(filepath.Join(t.TempDir(), "db", "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestRecordAndList(t *testing.T) {
	c := openTest(t)
	ctx := context.Background()

	a0 := faces.FaceArtifact{Source: "raw/a.jpg", Index: 0, Path: "out/a_0.jpg", Box: faces.Detection{X: 1, Y: 2, Width: 30, Height: 30}}
	a1 := faces.FaceArtifact{Source: "raw/a.jpg", Index: 1, Path: "out/a_1.jpg", Box: faces.Detection{X: 40, Y: 2, Width: 20, Height: 20}}
	b0 := faces.FaceArtifact{Source: "raw/b.jpg", Index: 0, Path: "out/b_0.jpg"}

	for _, a := range []faces.FaceArtifact{a0, a1, b0} {
		require.NoError(t, c.Record(ctx, "run-1", a))
	}

	got, err := c.ListBySource(ctx, "raw/a.jpg")
	require.NoError(t, err)
	assert.Equal(t, []faces.FaceArtifact{a0, a1}, got)

	n, err := c.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	none, err := c.ListBySource(ctx, "raw/missing.jpg")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestRecordReplacesSameIndex(t *testing.T) {
	c := openTest(t)
	ctx := context.Background()

	a := faces.FaceArtifact{Source: "raw/a.jpg", Index: 0, Path: "out/a_0.jpg"}
	require.NoError(t, c.Record(ctx, "run-1", a))
	a.Box.Width = 12
	require.NoError(t, c.Record(ctx, "run-1", a))
	require.NoError(t, c.Record(ctx, "run-2", a))

	n, err := c.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestRecordHarvest(t *testing.T) {
	c := openTest(t)
	ctx := context.Background()

	report := harvest.Report{
		RunID:      "2f1c",
		Query:      "nogizaka46",
		Directory:  "data/raw",
		Discovered: 10,
		Saved:      9,
		Failed:     1,
		Duration:   1500 * time.Millisecond,
	}
	require.NoError(t, c.RecordHarvest(ctx, report))

	got, err := c.Harvests(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, report, got[0])
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.db")
	ctx := context.Background()

	c, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, c.Record(ctx, "run", faces.FaceArtifact{Source: "s", Path: "p"}))
	require.NoError(t, c.Close())

	c, err = Open(path)
	require.NoError(t, err)
	defer c.Close()

	n, err := c.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, path, c.Path())
}

func TestCatalogSatisfiesRecorder(t *testing.T) {
	var _ faces.ArtifactRecorder = (*Catalog)(nil)
}
