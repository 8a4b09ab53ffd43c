package miner

import (
	"time"

	"samlib/internal/page"
	"samlib/internal/storage"
)

// dbLink derives the stored link of a parsed work: the author URL without
// its leading slash, concatenated with the work's page-relative URL.
func dbLink(author storage.Author, w page.Work) string {
	return author.URL[1:] + w.URL
}

// WorkRegistry indexes the author's stored works by link and remembers
// which of them were seen during a scan, so the leftovers can be reported
// as abandoned.
type WorkRegistry struct {
	author storage.Author
	stored []storage.Work
	byLink map[string]*storage.Work
	seen   map[int64]struct{}
}

func NewWorkRegistry(author storage.Author, stored []storage.Work) *WorkRegistry {
	r := &WorkRegistry{
		author: author,
		stored: stored,
		byLink: make(map[string]*storage.Work, len(stored)),
		seen:   make(map[int64]struct{}),
	}
	for i := range stored {
		r.byLink[stored[i].Link] = &stored[i]
	}
	return r
}

// IsNew reports whether the parsed work has no stored counterpart.
func (r *WorkRegistry) IsNew(w page.Work) bool {
	_, ok := r.byLink[dbLink(r.author, w)]
	return !ok
}

// Stored returns the stored counterpart of a parsed work. Callers must
// check IsNew first.
func (r *WorkRegistry) Stored(w page.Work) storage.Work {
	return *r.byLink[dbLink(r.author, w)]
}

// IsUpdated marks the stored counterpart as seen and reports whether its
// size changed.
func (r *WorkRegistry) IsUpdated(w page.Work) bool {
	stored := r.byLink[dbLink(r.author, w)]
	r.seen[stored.ID] = struct{}{}
	return stored.Size != w.Size
}

// IsMoved marks the stored counterpart as seen and reports whether it now
// sits in a different group.
func (r *WorkRegistry) IsMoved(w page.Work, maybeNewGroup storage.Group) bool {
	stored := r.byLink[dbLink(r.author, w)]
	r.seen[stored.ID] = struct{}{}
	return stored.GroupID != maybeNewGroup.ID
}

// Abandoned returns every stored work not seen during the scan, in store
// order. Call it once, after all parsed works were classified.
func (r *WorkRegistry) Abandoned() []storage.Work {
	var abandoned []storage.Work
	for _, w := range r.stored {
		if _, ok := r.seen[w.ID]; !ok {
			abandoned = append(abandoned, w)
		}
	}
	return abandoned
}

// GroupRegistry mirrors WorkRegistry for groups, keyed by trimmed name.
type GroupRegistry struct {
	stored []storage.Group
	byName map[string]*storage.Group
	seen   map[int64]struct{}
}

func NewGroupRegistry(stored []storage.Group) *GroupRegistry {
	r := &GroupRegistry{
		stored: stored,
		byName: make(map[string]*storage.Group, len(stored)),
		seen:   make(map[int64]struct{}),
	}
	for i := range stored {
		r.byName[page.TrimNoisy(stored[i].Name)] = &stored[i]
	}
	return r
}

// IsNew reports whether the parsed group has no stored counterpart; on a
// match the counterpart is marked seen.
func (r *GroupRegistry) IsNew(g page.Group) bool {
	stored, ok := r.byName[g.Name]
	if !ok {
		return true
	}
	r.seen[stored.ID] = struct{}{}
	return false
}

// Stored returns the stored counterpart of a parsed group. Callers must
// check IsNew first.
func (r *GroupRegistry) Stored(g page.Group) storage.Group {
	return *r.byName[g.Name]
}

// Abandoned returns every stored group not seen during the scan.
func (r *GroupRegistry) Abandoned() []storage.Group {
	var abandoned []storage.Group
	for _, g := range r.stored {
		if _, ok := r.seen[g.ID]; !ok {
			abandoned = append(abandoned, g)
		}
	}
	return abandoned
}

// GroupBuilder shapes parsed groups into rows. New groups get a negative
// tentative id; the schema forbids negative ids for real rows, so the
// applier can tell the two apart and resolve tentative ids after the
// batch insert.
type GroupBuilder struct {
	author   storage.Author
	registry *GroupRegistry
	counter  int64
}

func NewGroupBuilder(author storage.Author, registry *GroupRegistry) *GroupBuilder {
	return &GroupBuilder{author: author, registry: registry}
}

func (b *GroupBuilder) Build(g page.Group) storage.Group {
	b.counter++

	row := storage.Group{
		AuthorID:    b.author.ID,
		Name:        g.Name,
		DisplayName: g.Name,
	}
	if b.registry.IsNew(g) {
		row.ID = -b.counter
	} else {
		row.ID = b.registry.Stored(g).ID
	}
	return row
}

// WorkBuilder shapes parsed works into rows for insert or update. The
// timestamp is captured once at construction so every row of one sync
// carries the same moment.
type WorkBuilder struct {
	author   storage.Author
	registry *WorkRegistry
	now      int64
}

func NewWorkBuilder(author storage.Author, registry *WorkRegistry) *WorkBuilder {
	return &WorkBuilder{author: author, registry: registry, now: time.Now().UnixMilli()}
}

func (b *WorkBuilder) row(w page.Work, group storage.Group) storage.Work {
	return storage.Work{
		Link:        dbLink(b.author, w),
		Author:      b.author.Name,
		Title:       w.Title,
		Form:        w.Genre,
		Size:        w.Size,
		GroupID:     group.ID,
		Description: w.Description,
		AuthorID:    b.author.ID,
	}
}

// BuildNew shapes a fresh row for an unseen work and counts it against the
// group's unread number.
func (b *WorkBuilder) BuildNew(w page.Work, group *storage.Group) storage.Work {
	row := b.row(w, *group)
	row.Date = b.now
	row.MTime = b.now
	row.DeltaSize = w.Size
	row.IsNew = true

	group.NewNumber++
	return row
}

// BuildUpdated shapes a replacement row for a known work, keeping its id
// and creation date, and counts it against the group's unread number.
func (b *WorkBuilder) BuildUpdated(w page.Work, group *storage.Group) storage.Work {
	stored := b.registry.Stored(w)

	row := b.row(w, *group)
	row.ID = stored.ID
	row.Date = stored.Date
	row.MTime = b.now
	row.IsNew = true
	if delta := stored.Size - w.Size; delta < 0 {
		row.DeltaSize = -delta
	} else {
		row.DeltaSize = delta
	}

	group.NewNumber++
	return row
}
