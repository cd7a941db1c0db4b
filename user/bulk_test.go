package user

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateMany(t *testing.T) {
	ctx := context.Background()
	m := newModel(t, newAccessor(t))

	creds := make([]Credentials, 20)
	for i := range creds {
		creds[i] = Credentials{
			Username: fmt.Sprintf("user%02d", i),
			Password: "pw",
			Email:    fmt.Sprintf("user%02d@x.com", i),
		}
	}
	// invalid entry fails on its own
	creds[7].Password = ""

	var progress bytes.Buffer
	result, err := m.CreateMany(ctx, creds, &BulkOptions{Workers: 4, Progress: &progress, ReportInterval: 5})
	require.NoError(t, err)

	require.Len(t, result.Items, len(creds))
	assert.Equal(t, 19, result.Created)
	assert.Equal(t, 1, result.Failed)

	for i, item := range result.Items {
		assert.Equal(t, i, item.Index)
		assert.Equal(t, creds[i].Username, item.Username)
		if i == 7 {
			assert.False(t, item.OK)
			assert.Nil(t, item.User)
			continue
		}
		require.True(t, item.OK, "item %d", i)
		assert.Equal(t, creds[i].Username, item.User.Username)

		got, ok := m.LookupByIdentity(ctx, creds[i].Username)
		require.True(t, ok)
		assert.Equal(t, item.User.ID, got.ID)
	}

	assert.Contains(t, progress.String(), "Progress: 20/20")
	assert.Contains(t, progress.String(), "1 failed")
}

func TestCreateMany_CanceledContext(t *testing.T) {
	m := newModel(t, newAccessor(t))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := m.CreateMany(ctx, []Credentials{{Username: "a", Password: "pw"}, {Username: "b", Password: "pw"}}, nil)
	require.NoError(t, err)
	assert.Zero(t, result.Created)
	assert.Equal(t, 2, result.Failed)
}

func TestCreateMany_Empty(t *testing.T) {
	m := newModel(t, newAccessor(t))
	result, err := m.CreateMany(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Empty(t, result.Items)
	assert.Zero(t, result.Created)
}

func TestProgressTracker(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgressTracker(&buf, 4, 2)

	p.Record(true) // ignored before Start
	assert.Empty(t, buf.String())
	assert.Zero(t, p.Elapsed())

	p.Start()
	p.Record(true)
	assert.Empty(t, buf.String())
	p.Record(false)
	assert.Contains(t, buf.String(), "Progress: 2/4 (50.0%), 1 failed")

	p.Record(true)
	p.Record(true)
	p.Record(true) // capped at total
	p.Finish()
	assert.Contains(t, buf.String(), "Progress: 4/4 (100.0%), 1 failed")
	assert.True(t, p.Elapsed() > 0)
}
