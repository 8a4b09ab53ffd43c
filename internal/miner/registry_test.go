package miner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"samlib/internal/page"
	"samlib/internal/storage"
)

var testAuthor = storage.Author{ID: 1, Name: "Седрик", URL: "/s/sedrik/"}

func storedWork(id int64, link string, size, groupID int64) storage.Work {
	return storage.Work{ID: id, Link: link, Size: size, GroupID: groupID, AuthorID: testAuthor.ID, Date: 111}
}

func TestWorkRegistryClassifiers(t *testing.T) {
	registry := NewWorkRegistry(testAuthor, []storage.Work{
		storedWork(10, "s/sedrik/one", 10, 100),
		storedWork(11, "s/sedrik/two", 5, 100),
	})

	t.Run("unknown link is new", func(t *testing.T) {
		assert.True(t, registry.IsNew(page.Work{URL: "three"}))
	})

	t.Run("known link is not new", func(t *testing.T) {
		assert.False(t, registry.IsNew(page.Work{URL: "one"}))
	})

	t.Run("size change means updated", func(t *testing.T) {
		assert.True(t, registry.IsUpdated(page.Work{URL: "one", Size: 12}))
		assert.False(t, registry.IsUpdated(page.Work{URL: "one", Size: 10}))
	})

	t.Run("group change means moved", func(t *testing.T) {
		assert.True(t, registry.IsMoved(page.Work{URL: "two"}, storage.Group{ID: 200}))
		assert.False(t, registry.IsMoved(page.Work{URL: "two"}, storage.Group{ID: 100}))
	})

	t.Run("classified works are not abandoned", func(t *testing.T) {
		assert.Empty(t, registry.Abandoned())
	})
}

func TestWorkRegistryAbandoned(t *testing.T) {
	registry := NewWorkRegistry(testAuthor, []storage.Work{
		storedWork(10, "s/sedrik/one", 10, 100),
		storedWork(11, "s/sedrik/two", 5, 100),
	})

	registry.IsUpdated(page.Work{URL: "one", Size: 10})

	abandoned := registry.Abandoned()
	require.Len(t, abandoned, 1)
	assert.EqualValues(t, 11, abandoned[0].ID)
}

func TestGroupRegistry(t *testing.T) {
	registry := NewGroupRegistry([]storage.Group{
		{ID: 100, Name: " Рассказы: "},
		{ID: 101, Name: "Стихи"},
	})

	t.Run("stored names are trimmed for matching", func(t *testing.T) {
		assert.False(t, registry.IsNew(page.Group{Name: "Рассказы"}))
	})

	t.Run("unknown name is new", func(t *testing.T) {
		assert.True(t, registry.IsNew(page.Group{Name: "Переводы"}))
	})

	t.Run("unmatched groups are abandoned", func(t *testing.T) {
		abandoned := registry.Abandoned()
		require.Len(t, abandoned, 1)
		assert.EqualValues(t, 101, abandoned[0].ID)
	})
}

func TestGroupBuilder(t *testing.T) {
	registry := NewGroupRegistry([]storage.Group{{ID: 100, Name: "Рассказы", AuthorID: testAuthor.ID}})
	builder := NewGroupBuilder(testAuthor, registry)

	t.Run("new groups get descending tentative ids", func(t *testing.T) {
		first := builder.Build(page.Group{Name: "Переводы"})
		second := builder.Build(page.Group{Name: "Эссе"})

		assert.EqualValues(t, -1, first.ID)
		assert.EqualValues(t, -2, second.ID)
		assert.Equal(t, "Переводы", first.Name)
		assert.Equal(t, "Переводы", first.DisplayName)
		assert.Equal(t, testAuthor.ID, first.AuthorID)
		assert.Zero(t, first.NewNumber)
	})

	t.Run("known groups keep their stored id", func(t *testing.T) {
		known := builder.Build(page.Group{Name: "Рассказы"})
		assert.EqualValues(t, 100, known.ID)
	})
}

func TestWorkBuilder(t *testing.T) {
	stored := storedWork(10, "s/sedrik/one", 10, 100)
	registry := NewWorkRegistry(testAuthor, []storage.Work{stored})
	builder := NewWorkBuilder(testAuthor, registry)

	group := storage.Group{ID: -1, AuthorID: testAuthor.ID, Name: "Переводы"}

	t.Run("build new", func(t *testing.T) {
		row := builder.BuildNew(page.Work{URL: "two", Title: "Вторая", Size: 7, Genre: "Проза"}, &group)

		assert.Equal(t, "s/sedrik/two", row.Link)
		assert.Equal(t, testAuthor.Name, row.Author)
		assert.EqualValues(t, 7, row.Size)
		assert.EqualValues(t, 7, row.DeltaSize)
		assert.True(t, row.IsNew)
		assert.Equal(t, group.ID, row.GroupID)
		assert.Equal(t, row.Date, row.MTime)
		assert.Positive(t, row.Date)
		assert.EqualValues(t, 1, group.NewNumber)
	})

	t.Run("build updated keeps id and date", func(t *testing.T) {
		row := builder.BuildUpdated(page.Work{URL: "one", Title: "Первая", Size: 12}, &group)

		assert.Equal(t, stored.ID, row.ID)
		assert.Equal(t, stored.Date, row.Date)
		assert.EqualValues(t, 2, row.DeltaSize)
		assert.True(t, row.IsNew)
		assert.GreaterOrEqual(t, row.MTime, stored.Date)
		assert.EqualValues(t, 2, group.NewNumber)
	})

	t.Run("shrinking work still yields positive delta", func(t *testing.T) {
		shrunk := builder.BuildUpdated(page.Work{URL: "one", Size: 4}, &group)
		assert.EqualValues(t, 6, shrunk.DeltaSize)
	})
}
