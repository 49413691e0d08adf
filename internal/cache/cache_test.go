package cache

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/funvibe/regionck/internal/config"
	"github.com/funvibe/regionck/internal/report"
)

func sample(msg string) *report.Report {
	return &report.Report{
		File: "a.rgn",
		Records: []report.Record{{
			Severity: report.SeverityError,
			Message:  msg,
			File:     "a.rgn",
			Line:     3,
			Column:   5,
		}},
	}
}

func TestKeyDependsOnEverything(t *testing.T) {
	base := Key("a.rgn", "fn f();", report.Options{})
	assert.Equal(t, base, Key("a.rgn", "fn f();", report.Options{}))
	assert.NotEqual(t, base, Key("b.rgn", "fn f();", report.Options{}))
	assert.NotEqual(t, base, Key("a.rgn", "fn g();", report.Options{}))
	assert.NotEqual(t, base, Key("a.rgn", "fn f();", report.Options{Verbose: true}))
	assert.NotEqual(t, base, Key("a.rgn", "fn f();", report.Options{AnnotatedOnly: true}))
	assert.NotEqual(t, Key("ab", "c", report.Options{}), Key("a", "bc", report.Options{}))

	saved := config.Version
	t.Cleanup(func() { config.Version = saved })
	config.Version = saved + "-next"
	assert.NotEqual(t, base, Key("a.rgn", "fn f();", report.Options{}), "reports of another version are not reused")
}

func TestMemoryOnly(t *testing.T) {
	ctx := context.Background()
	c, err := Open(ctx, "", 2)
	require.NoError(t, err)
	defer c.Close()

	_, ok := c.Get(ctx, "k1")
	assert.False(t, ok)

	require.NoError(t, c.Put(ctx, "k1", uuid.New(), sample("one")))
	require.NoError(t, c.Put(ctx, "k2", uuid.New(), sample("two")))
	require.NoError(t, c.Put(ctx, "k3", uuid.New(), sample("three")))

	assert.Equal(t, 2, c.Len())
	_, ok = c.Get(ctx, "k1")
	assert.False(t, ok, "least recently used entry is evicted")

	r, ok := c.Get(ctx, "k3")
	require.True(t, ok)
	assert.Equal(t, "three", r.Records[0].Message)

	n, err := c.Prune(ctx, time.Hour)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestPersistentStore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cache.db")

	c, err := Open(ctx, path, 4)
	require.NoError(t, err)
	require.NoError(t, c.Put(ctx, "k", uuid.New(), sample("stored")))
	require.NoError(t, c.Close())

	reopened, err := Open(ctx, path, 4)
	require.NoError(t, err)
	defer reopened.Close()

	assert.Zero(t, reopened.Len())
	r, ok := reopened.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, sample("stored"), r)
	assert.Equal(t, 1, reopened.Len(), "a disk hit is promoted to memory")

	n, err := reopened.Prune(ctx, time.Hour)
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = reopened.Prune(ctx, -time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestOpenRejectsBadSize(t *testing.T) {
	_, err := Open(context.Background(), "", 0)
	assert.Error(t, err)
}
