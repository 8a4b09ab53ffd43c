// Package agent aggregates the store, the miner and the book storage
// behind the operations the CLI calls.
package agent

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"samlib/internal/bookfs"
	"samlib/internal/config"
	"samlib/internal/debuglog"
	"samlib/internal/fetch"
	"samlib/internal/miner"
	"samlib/internal/storage"
)

// Agent exclusively owns the store; the miner borrows it per sync.
type Agent struct {
	cfg     *config.Config
	store   *storage.Store
	authors storage.Table[storage.Author]
	groups  storage.Table[storage.Group]
	works   storage.Table[storage.Work]
	client  *fetch.Client
	miner   *miner.Miner
	books   *bookfs.Storage
}

func New(cfg *config.Config) (*Agent, error) {
	for _, dir := range []string{filepath.Dir(cfg.Database.Path), cfg.Storage.Path} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory %s: %w", dir, err)
		}
	}

	store, err := storage.Open(cfg.Database.Path, cfg.Database.Timeout)
	if err != nil {
		return nil, err
	}
	if err := store.InitSchema(); err != nil {
		store.Close()
		return nil, err
	}

	books, err := bookfs.New(cfg.Storage.Path)
	if err != nil {
		store.Close()
		return nil, err
	}

	client := fetch.NewClient(cfg.HTTP.Timeout, cfg.HTTP.UserAgent)
	return &Agent{
		cfg:     cfg,
		store:   store,
		authors: storage.Authors(store),
		groups:  storage.Groups(store),
		works:   storage.Works(store),
		client:  client,
		miner:   miner.New(store, client, cfg.Site.Protocol, cfg.Site.Domain),
		books:   books,
	}, nil
}

func (a *Agent) Close() error {
	return a.store.Close()
}

// CheckUpdates syncs every tracked author sequentially. Per-author
// failures are warnings; the loop finishes.
func (a *Agent) CheckUpdates(progress func(author storage.Author, current, total int)) error {
	return a.miner.SyncAll(progress)
}

// AddAuthor canonicalises the URL, fetches the author's page and starts
// tracking them. A URL already tracked just re-syncs the stored author.
// miner.ErrInvalidURL and miner.ErrAuthorNotFound come back to the caller.
func (a *Agent) AddAuthor(rawURL string) (storage.Author, error) {
	author, err := a.miner.AuthorFromURL(rawURL)
	if err != nil {
		return storage.Author{}, err
	}

	stored, err := a.authors.Get(storage.URLIs(author.URL))
	switch {
	case err == nil:
		debuglog.Warnf("author %q is already tracked", stored.Name)
		author = stored
	case errors.Is(err, storage.ErrNotFound):
		if author, err = a.authors.Add(author); err != nil {
			return storage.Author{}, err
		}
	default:
		return storage.Author{}, err
	}

	if err := a.miner.Sync(&author); err != nil {
		return author, err
	}
	return author, nil
}

// RemoveAuthor drops the author and every descendant row atomically.
func (a *Agent) RemoveAuthor(id int64) error {
	byAuthor := storage.ByAuthorID(id)
	err := a.store.WithTx(func() error {
		if err := a.works.RemoveAll(byAuthor); err != nil {
			return err
		}
		if err := a.groups.RemoveAll(byAuthor); err != nil {
			return err
		}
		return a.authors.RemoveAll(storage.Me(id))
	})
	if err != nil {
		debuglog.Errorf("cannot remove author #%d: %v", id, err)
		return err
	}
	debuglog.Debugf("author #%d and all their data removed", id)
	return nil
}

func (a *Agent) GetAuthors(updatesOnly bool) ([]storage.Author, error) {
	p := storage.Any
	if updatesOnly {
		p = storage.AuthorIsNew()
	}
	return a.authors.Retrieve(p)
}

func (a *Agent) GetAuthor(id int64) (storage.Author, error) {
	return a.authors.GetByID(id)
}

func (a *Agent) GetGroups(authorID int64, updatesOnly bool) ([]storage.Group, error) {
	p := storage.ByAuthorID(authorID)
	if updatesOnly {
		p = p.And(storage.GroupIsNew())
	}
	return a.groups.Retrieve(p)
}

func (a *Agent) GetGroup(id int64) (storage.Group, error) {
	return a.groups.GetByID(id)
}

func (a *Agent) GetAuthorWorks(authorID int64, updatesOnly bool) ([]storage.Work, error) {
	p := storage.ByAuthorID(authorID)
	if updatesOnly {
		p = p.And(storage.WorkIsNew())
	}
	return a.works.Retrieve(p)
}

func (a *Agent) GetGroupWorks(groupID int64, updatesOnly bool) ([]storage.Work, error) {
	p := storage.ByGroupID(groupID)
	if updatesOnly {
		p = p.And(storage.WorkIsNew())
	}
	return a.works.Retrieve(p)
}

func (a *Agent) GetWork(id int64) (storage.Work, error) {
	return a.works.GetByID(id)
}

func (a *Agent) CountAuthorWorks(authorID int64, updatesOnly bool) (int64, error) {
	p := storage.ByAuthorID(authorID)
	if updatesOnly {
		p = p.And(storage.WorkIsNew())
	}
	return a.works.Count(p)
}

func (a *Agent) CountGroupWorks(groupID int64, updatesOnly bool) (int64, error) {
	p := storage.ByGroupID(groupID)
	if updatesOnly {
		p = p.And(storage.WorkIsNew())
	}
	return a.works.Count(p)
}

func (a *Agent) CountGroups(authorID int64, updatesOnly bool) (int64, error) {
	p := storage.ByAuthorID(authorID)
	if updatesOnly {
		p = p.And(storage.GroupIsNew())
	}
	return a.groups.Count(p)
}

// refreshAuthorIsNew recomputes the author's unread flag from the works
// still flagged unread. Must run inside the caller's transaction.
func (a *Agent) refreshAuthorIsNew(authorID int64) error {
	n, err := a.works.Count(storage.ByAuthorID(authorID).And(storage.WorkIsNew()))
	if err != nil {
		return err
	}
	return a.authors.UpdateFields(storage.Me(authorID), storage.Set("ISNEW", n > 0))
}

// refreshGroupNewNumber recomputes a group's unread counter. Must run
// inside the caller's transaction.
func (a *Agent) refreshGroupNewNumber(groupID int64) error {
	n, err := a.works.Count(storage.ByGroupID(groupID).And(storage.WorkIsNew()))
	if err != nil {
		return err
	}
	return a.groups.UpdateFields(storage.Me(groupID), storage.Set("NEW_NUMBER", n))
}

// MarkAuthorRead clears the unread marks of the author and every
// descendant atomically.
func (a *Agent) MarkAuthorRead(id int64) error {
	return a.store.WithTx(func() error {
		byAuthor := storage.ByAuthorID(id)
		if err := a.works.UpdateFields(byAuthor, storage.Set("ISNEW", 0), storage.Set("DELTA_SIZE", 0)); err != nil {
			return err
		}
		if err := a.groups.UpdateFields(byAuthor, storage.Set("NEW_NUMBER", 0)); err != nil {
			return err
		}
		return a.authors.UpdateFields(storage.Me(id), storage.Set("ISNEW", 0))
	})
}

// MarkGroupRead clears the unread marks of every work in the group and
// recomputes the parent author's flag.
func (a *Agent) MarkGroupRead(id int64) error {
	return a.store.WithTx(func() error {
		group, err := a.groups.GetByID(id)
		if err != nil {
			return err
		}
		if err := a.works.UpdateFields(storage.ByGroupID(id),
			storage.Set("ISNEW", 0), storage.Set("DELTA_SIZE", 0)); err != nil {
			return err
		}
		if err := a.groups.UpdateFields(storage.Me(id), storage.Set("NEW_NUMBER", 0)); err != nil {
			return err
		}
		return a.refreshAuthorIsNew(group.AuthorID)
	})
}

// MarkWorkRead clears one work's unread mark and recomputes the parent
// group counter and author flag.
func (a *Agent) MarkWorkRead(id int64) error {
	return a.store.WithTx(func() error {
		work, err := a.works.GetByID(id)
		if err != nil {
			return err
		}
		if err := a.works.UpdateFields(storage.Me(id),
			storage.Set("ISNEW", 0), storage.Set("DELTA_SIZE", 0)); err != nil {
			return err
		}
		// some authors keep works outside any group
		if work.GroupID > 0 {
			if err := a.refreshGroupNewNumber(work.GroupID); err != nil {
				return err
			}
		}
		return a.refreshAuthorIsNew(work.AuthorID)
	})
}

// MarkWorkUnread flags one work unread again, restoring its delta to the
// full size. Only works support un-reading.
func (a *Agent) MarkWorkUnread(id int64) error {
	return a.store.WithTx(func() error {
		work, err := a.works.GetByID(id)
		if err != nil {
			return err
		}
		if err := a.works.UpdateFields(storage.Me(id),
			storage.Set("ISNEW", 1), storage.Set("DELTA_SIZE", work.Size)); err != nil {
			return err
		}
		if work.GroupID > 0 {
			if err := a.refreshGroupNewNumber(work.GroupID); err != nil {
				return err
			}
		}
		return a.authors.UpdateFields(storage.Me(work.AuthorID), storage.Set("ISNEW", 1))
	})
}

// PathToWork resolves where a downloaded work lives on disk.
func (a *Agent) PathToWork(work storage.Work, format bookfs.Format) (string, error) {
	return a.books.Path(work.Link, format)
}

func (a *Agent) workURL(work storage.Work, format bookfs.Format) string {
	if format == bookfs.FB2 {
		converter := fetch.ToURL(a.cfg.Site.Protocol, a.cfg.Site.Domain, "/cgi-bin/areader")
		return converter + "?q=fb2zip&link=" + url.QueryEscape(work.Link)
	}
	return fetch.ToURL(a.cfg.Site.Protocol, a.cfg.Site.Domain, work.Link, ".shtml")
}

// FetchWork downloads the body of a work into the books directory and
// returns the stored path. When the site cannot produce FB2 the work is
// stored as HTML instead.
func (a *Agent) FetchWork(id int64, format bookfs.Format) (string, error) {
	work, err := a.works.GetByID(id)
	if err != nil {
		return "", err
	}

	path, err := a.books.EnsurePath(work.Link, format)
	if err != nil {
		return "", err
	}

	if err := a.client.ToFile(a.workURL(work, format), path); err != nil {
		if format == bookfs.FB2 {
			debuglog.Warnf("FB2 of work %q is unavailable, falling back to HTML: %v", work.Title, err)
			return a.FetchWork(id, bookfs.HTML)
		}
		return "", err
	}

	debuglog.Infof("work %q stored at %s", work.Title, path)
	return path, nil
}
