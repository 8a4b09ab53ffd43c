package miner

import (
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"samlib/internal/storage"
)

// fakeSite stubs the HTTP collaborator: pages by full URL, optional
// failures to simulate the network going away.
type fakeSite struct {
	pages map[string]string
	fails map[string]error
}

func newFakeSite() *fakeSite {
	return &fakeSite{pages: make(map[string]string), fails: make(map[string]error)}
}

func (f *fakeSite) Page(url string) (string, error) {
	if err, ok := f.fails[url]; ok {
		return "", err
	}
	return f.pages[url], nil
}

func workLine(url, title string, size int) string {
	return fmt.Sprintf(
		`<DL><DT><li><A HREF=%s.shtml><b>%s</b></A> &nbsp; <b>%dk</b> &nbsp; <small>Проза</small></DL>`,
		url, title, size,
	)
}

func plainGroup(idx int, name string, workLines ...string) string {
	return fmt.Sprintf("<a name=gr%d>%s:<gr%d>\n%s\n</small><p><font size=2>\n",
		idx, name, idx, strings.Join(workLines, "\n"))
}

func extendedGroup(idx int, name, url string) string {
	return fmt.Sprintf("<a name=gr%d><a href=%s.shtml><font color=#393939>%s</font></a><gr%d>\n</small><p><font size=2>\n",
		idx, url, name, idx)
}

func buildPage(groups ...string) string {
	return "<html><body>\n<h3>Седрик<br>\n <font size=-1>автор</font></h3>\n" +
		strings.Join(groups, "") + "</body></html>"
}

type syncFixture struct {
	store  *storage.Store
	site   *fakeSite
	miner  *Miner
	author storage.Author
}

func setupSync(t *testing.T) *syncFixture {
	t.Helper()

	store, err := storage.Open(filepath.Join(t.TempDir(), "test.db"), time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	require.NoError(t, store.InitSchema())

	author, err := storage.Authors(store).Add(storage.Author{Name: "Седрик", URL: "/s/sedrik/"})
	require.NoError(t, err)

	site := newFakeSite()
	return &syncFixture{
		store:  store,
		site:   site,
		miner:  New(store, site, "http", "samlib.ru"),
		author: author,
	}
}

const authorPageURL = "http://samlib.ru/s/sedrik/"

// firstSyncPage is the S3 state: two groups, three works.
func firstSyncPage() string {
	return buildPage(
		plainGroup(1, "Романы", workLine("one", "Первая", 10), workLine("two", "Вторая", 5)),
		plainGroup(2, "Рассказы", workLine("three", "Третья", 7)),
	)
}

func (f *syncFixture) mustSync(t *testing.T) {
	t.Helper()
	require.NoError(t, f.miner.Sync(&f.author))
}

func TestFirstSync(t *testing.T) {
	f := setupSync(t)
	f.site.pages[authorPageURL] = firstSyncPage()

	f.mustSync(t)

	groups, err := storage.Groups(f.store).Retrieve(storage.AuthorIs(f.author))
	require.NoError(t, err)
	require.Len(t, groups, 2)

	works, err := storage.Works(f.store).Retrieve(storage.AuthorIs(f.author))
	require.NoError(t, err)
	require.Len(t, works, 3)

	byName := map[string]storage.Group{}
	for _, g := range groups {
		byName[g.Name] = g
	}
	assert.EqualValues(t, 2, byName["Романы"].NewNumber)
	assert.EqualValues(t, 1, byName["Рассказы"].NewNumber)

	for _, w := range works {
		assert.True(t, w.IsNew)
		assert.Equal(t, w.Size, w.DeltaSize)
		assert.Positive(t, w.GroupID)
		assert.Equal(t, f.author.ID, w.AuthorID)
	}

	stored, err := storage.Authors(f.store).GetByID(f.author.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsNew)
	assert.Positive(t, stored.MTime)
}

func TestSecondSyncWithoutChangesIsEmpty(t *testing.T) {
	f := setupSync(t)
	f.site.pages[authorPageURL] = firstSyncPage()
	f.mustSync(t)

	diff, err := f.miner.GetUpdates(f.author)
	require.NoError(t, err)
	assert.True(t, diff.Empty())
}

func TestGrownWork(t *testing.T) {
	f := setupSync(t)
	f.site.pages[authorPageURL] = firstSyncPage()
	f.mustSync(t)

	// every work read, then W1 grows from 10k to 12k
	require.NoError(t, storage.Works(f.store).UpdateFields(
		storage.AuthorIs(f.author), storage.Set("ISNEW", 0), storage.Set("DELTA_SIZE", 0)))
	require.NoError(t, storage.Groups(f.store).UpdateFields(
		storage.AuthorIs(f.author), storage.Set("NEW_NUMBER", 0)))

	before, err := storage.Works(f.store).Get(storage.LinkIs("s/sedrik/one"))
	require.NoError(t, err)

	f.site.pages[authorPageURL] = buildPage(
		plainGroup(1, "Романы", workLine("one", "Первая", 12), workLine("two", "Вторая", 5)),
		plainGroup(2, "Рассказы", workLine("three", "Третья", 7)),
	)

	diff, err := f.miner.GetUpdates(f.author)
	require.NoError(t, err)

	require.Len(t, diff.Updated.Works, 1)
	updated := diff.Updated.Works[0]
	assert.EqualValues(t, 12, updated.Size)
	assert.EqualValues(t, 2, updated.DeltaSize)
	assert.True(t, updated.IsNew)
	assert.Equal(t, before.Date, updated.Date)
	assert.GreaterOrEqual(t, updated.MTime, before.MTime)

	require.Len(t, diff.Updated.Groups, 1)
	assert.Equal(t, "Романы", diff.Updated.Groups[0].Name)
	assert.EqualValues(t, 1, diff.Updated.Groups[0].NewNumber)

	assert.Empty(t, diff.Added.Works)
	assert.Empty(t, diff.Removed.Works)

	require.NoError(t, f.miner.Apply(diff, &f.author))

	untouched, err := storage.Works(f.store).Get(storage.LinkIs("s/sedrik/two"))
	require.NoError(t, err)
	assert.False(t, untouched.IsNew)
}

func TestGroupDisappears(t *testing.T) {
	f := setupSync(t)
	f.site.pages[authorPageURL] = firstSyncPage()
	f.mustSync(t)

	f.site.pages[authorPageURL] = buildPage(
		plainGroup(1, "Романы", workLine("one", "Первая", 10), workLine("two", "Вторая", 5)),
	)

	diff, err := f.miner.GetUpdates(f.author)
	require.NoError(t, err)
	require.Len(t, diff.Removed.Groups, 1)
	assert.Equal(t, "Рассказы", diff.Removed.Groups[0].Name)
	require.Len(t, diff.Removed.Works, 1)
	assert.Equal(t, "s/sedrik/three", diff.Removed.Works[0].Link)

	mtimeBefore := f.author.MTime
	require.NoError(t, f.miner.Apply(diff, &f.author))

	n, err := storage.Groups(f.store).Count(storage.AuthorIs(f.author))
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	gone, err := storage.Works(f.store).Exists(storage.LinkIs("s/sedrik/three"))
	require.NoError(t, err)
	assert.False(t, gone)

	stored, err := storage.Authors(f.store).GetByID(f.author.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsNew)
	assert.GreaterOrEqual(t, stored.MTime, mtimeBefore)
}

func TestPageRemoved(t *testing.T) {
	f := setupSync(t)
	f.site.pages[authorPageURL] = firstSyncPage()
	f.mustSync(t)

	delete(f.site.pages, authorPageURL)

	diff, err := f.miner.GetUpdates(f.author)
	require.NoError(t, err)
	assert.True(t, diff.PageRemoved)
	assert.True(t, diff.Added.Empty() && diff.Updated.Empty() && diff.Removed.Empty())

	require.NoError(t, f.miner.Apply(diff, &f.author))

	for name, count := range map[string]func() (int64, error){
		"authors": func() (int64, error) { return storage.Authors(f.store).Count(storage.Any) },
		"groups":  func() (int64, error) { return storage.Groups(f.store).Count(storage.Any) },
		"works":   func() (int64, error) { return storage.Works(f.store).Count(storage.Any) },
	} {
		n, err := count()
		require.NoError(t, err)
		assert.Zero(t, n, "expected no %s left", name)
	}
}

func TestExtendedGroup(t *testing.T) {
	f := setupSync(t)
	f.site.pages[authorPageURL] = buildPage(extendedGroup(1, "Романы", "novels"))
	f.site.pages["http://samlib.ru/s/sedrik/novels.shtml"] = workLine("novels/one", "Первая", 10)

	f.mustSync(t)

	works, err := storage.Works(f.store).Retrieve(storage.AuthorIs(f.author))
	require.NoError(t, err)
	require.Len(t, works, 1)
	assert.Equal(t, "s/sedrik/novels/one", works[0].Link)
}

func TestExtendedGroupFetchFailureIsTolerated(t *testing.T) {
	f := setupSync(t)
	f.site.pages[authorPageURL] = buildPage(
		extendedGroup(1, "Романы", "novels"),
		plainGroup(2, "Рассказы", workLine("three", "Третья", 7)),
	)
	f.site.fails["http://samlib.ru/s/sedrik/novels.shtml"] = fmt.Errorf("connection refused")

	f.mustSync(t)

	n, err := storage.Works(f.store).Count(storage.AuthorIs(f.author))
	require.NoError(t, err)
	assert.EqualValues(t, 1, n, "the plain group still syncs")
}

func TestAuthorPageNetworkErrorAborts(t *testing.T) {
	f := setupSync(t)
	f.site.fails[authorPageURL] = fmt.Errorf("connection reset")

	err := f.miner.Sync(&f.author)
	require.Error(t, err)

	// nothing was touched
	stored, err := storage.Authors(f.store).GetByID(f.author.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsNew)
	assert.Zero(t, stored.MTime)
}

func TestMovedWork(t *testing.T) {
	f := setupSync(t)
	f.site.pages[authorPageURL] = firstSyncPage()
	f.mustSync(t)

	require.NoError(t, storage.Works(f.store).UpdateFields(
		storage.AuthorIs(f.author), storage.Set("ISNEW", 0), storage.Set("DELTA_SIZE", 0)))
	require.NoError(t, storage.Groups(f.store).UpdateFields(
		storage.AuthorIs(f.author), storage.Set("NEW_NUMBER", 0)))

	// W3 moves from "Рассказы" into "Романы" without changing size
	f.site.pages[authorPageURL] = buildPage(
		plainGroup(1, "Романы",
			workLine("one", "Первая", 10), workLine("two", "Вторая", 5), workLine("three", "Третья", 7)),
		plainGroup(2, "Рассказы"),
	)

	diff, err := f.miner.GetUpdates(f.author)
	require.NoError(t, err)

	require.Len(t, diff.Updated.Works, 1)
	moved := diff.Updated.Works[0]
	assert.Equal(t, "s/sedrik/three", moved.Link)
	assert.Zero(t, moved.DeltaSize)
	assert.Empty(t, diff.Removed.Works)

	require.NoError(t, f.miner.Apply(diff, &f.author))

	novels, err := storage.Groups(f.store).Get(
		storage.AuthorIs(f.author).And(storage.GroupIsNew()))
	require.NoError(t, err)
	assert.Equal(t, "Романы", novels.Name)

	stored, err := storage.Works(f.store).Get(storage.LinkIs("s/sedrik/three"))
	require.NoError(t, err)
	assert.Equal(t, novels.ID, stored.GroupID)
}

func TestSyncAllContinuesAfterFailure(t *testing.T) {
	f := setupSync(t)

	second, err := storage.Authors(f.store).Add(storage.Author{Name: "Другой", URL: "/d/drugoj/"})
	require.NoError(t, err)

	f.site.fails[authorPageURL] = fmt.Errorf("connection reset")
	f.site.pages["http://samlib.ru/d/drugoj/"] = buildPage(
		plainGroup(1, "Эссе", workLine("essay", "Эссе", 3)),
	)

	var seen []int64
	require.NoError(t, f.miner.SyncAll(func(a storage.Author, current, total int) {
		seen = append(seen, a.ID)
		assert.Equal(t, 2, total)
	}))

	assert.Equal(t, []int64{f.author.ID, second.ID}, seen)

	n, err := storage.Works(f.store).Count(storage.ByAuthorID(second.ID))
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestAuthorFromURL(t *testing.T) {
	f := setupSync(t)
	f.site.pages["http://samlib.ru/s/sedrik"] = buildPage()

	t.Run("builds a row from the page header", func(t *testing.T) {
		author, err := f.miner.AuthorFromURL("sedrik")
		require.NoError(t, err)

		assert.Equal(t, "Седрик", author.Name)
		assert.Equal(t, "/s/sedrik", author.URL)
		assert.True(t, author.IsNew)
		assert.Positive(t, author.MTime)
	})

	t.Run("invalid URL is surfaced", func(t *testing.T) {
		_, err := f.miner.AuthorFromURL("not a url")
		assert.ErrorIs(t, err, ErrInvalidURL)
	})

	t.Run("missing page is surfaced", func(t *testing.T) {
		_, err := f.miner.AuthorFromURL("nosuchauthor")
		assert.ErrorIs(t, err, ErrAuthorNotFound)
	})
}
