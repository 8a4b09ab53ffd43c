// Package miner is the synchronisation engine: it scans remote author
// pages, diffs them against the stored state and applies the result.
package miner

import (
	"fmt"
	"time"

	"samlib/internal/debuglog"
	"samlib/internal/fetch"
	"samlib/internal/page"
	"samlib/internal/storage"
)

// PageFetcher is the slice of the HTTP collaborator the miner needs: one
// blocking page fetch, empty result meaning "not found".
type PageFetcher interface {
	Page(url string) (string, error)
}

// Miner borrows the store for the duration of a sync; it keeps no state of
// its own between calls.
type Miner struct {
	store     *storage.Store
	authors   storage.Table[storage.Author]
	groups    storage.Table[storage.Group]
	works     storage.Table[storage.Work]
	fetcher   PageFetcher
	extractor *page.Extractor
	protocol  string
	domain    string
}

func New(store *storage.Store, fetcher PageFetcher, protocol, domain string) *Miner {
	return &Miner{
		store:     store,
		authors:   storage.Authors(store),
		groups:    storage.Groups(store),
		works:     storage.Works(store),
		fetcher:   fetcher,
		extractor: page.New(),
		protocol:  protocol,
		domain:    domain,
	}
}

// Sync runs one scan-and-apply cycle for the author. The author row is
// updated in place with the new timestamp and unread flag.
func (m *Miner) Sync(author *storage.Author) error {
	debuglog.Infof("checking updates for author %q", author.Name)
	diff, err := m.GetUpdates(*author)
	if err != nil {
		return err
	}
	return m.Apply(diff, author)
}

// SyncAll syncs every stored author sequentially, reporting progress after
// each one. A failing author is logged and skipped; the loop goes on.
func (m *Miner) SyncAll(progress func(author storage.Author, current, total int)) error {
	authors, err := m.authors.Retrieve(storage.Any)
	if err != nil {
		return err
	}

	for i, author := range authors {
		if err := m.Sync(&author); err != nil {
			debuglog.Warnf("sync of author %q failed: %v", author.URL, err)
		}
		if progress != nil {
			progress(author, i+1, len(authors))
		}
	}
	return nil
}

// AuthorFromURL canonicalises a user-supplied URL, fetches the page behind
// it and shapes an author row ready for insert. ErrInvalidURL and
// ErrAuthorNotFound tell the caller what went wrong.
func (m *Miner) AuthorFromURL(url string) (storage.Author, error) {
	var author storage.Author

	canonical, err := CanonicalAuthorURL(m.protocol, m.domain, url)
	if err != nil {
		return author, err
	}

	debuglog.Debugf("fetching author page %q", canonical)
	pageText, err := m.fetcher.Page(canonical)
	if err != nil {
		return author, err
	}
	if pageText == "" {
		return author, fmt.Errorf("%w: %q", ErrAuthorNotFound, canonical)
	}

	header := m.extractor.Author(pageText)
	author.Name = header.Name
	author.URL = fetch.StripDomain(canonical, m.domain)
	author.IsNew = true
	author.MTime = time.Now().UnixMilli()
	return author, nil
}
