package miner

import (
	"time"

	"samlib/internal/debuglog"
	"samlib/internal/storage"
)

// resolveGroupIDs swaps tentative (negative) group ids in work rows for the
// persisted ones. Added works carry tentative ids when their group is new;
// so does an updated work that moved into a new group, which is why updated
// works are resolved too.
func resolveGroupIDs(works []storage.Work, added map[int64]storage.Group) {
	for i := range works {
		if works[i].GroupID < 0 {
			works[i].GroupID = added[works[i].GroupID].ID
		}
	}
}

// Apply commits a difference to the store in one transaction. Groups land
// before the works referencing them; the author row is stamped last. On a
// removed page the author and every descendant go away atomically.
func (m *Miner) Apply(diff Difference, author *storage.Author) error {
	if diff.Empty() {
		debuglog.Debugf("no changes to apply for author %q", author.Name)
		return nil
	}

	if diff.PageRemoved {
		byAuthor := storage.AuthorIs(*author)
		err := m.store.WithTx(func() error {
			if err := m.works.RemoveAll(byAuthor); err != nil {
				return err
			}
			if err := m.groups.RemoveAll(byAuthor); err != nil {
				return err
			}
			return m.authors.RemoveAll(storage.Me(author.ID))
		})
		if err != nil {
			debuglog.Errorf("cannot remove data of author %q: %v", author.Name, err)
			return err
		}
		debuglog.Infof("author %q and all their works were removed", author.Name)
		return nil
	}

	return m.store.WithTx(func() error {
		if !diff.Added.Empty() {
			addedGroups, err := m.groups.AddBatch(diff.Added.Groups)
			if err != nil {
				return err
			}
			resolveGroupIDs(diff.Added.Works, addedGroups)
			resolveGroupIDs(diff.Updated.Works, addedGroups)
			if _, err := m.works.AddBatch(diff.Added.Works); err != nil {
				return err
			}
		}

		if !diff.Updated.Empty() {
			if err := m.groups.UpdateBatch(diff.Updated.Groups); err != nil {
				return err
			}
			if err := m.works.UpdateBatch(diff.Updated.Works); err != nil {
				return err
			}
		}

		if !diff.Removed.Empty() {
			if err := m.groups.RemoveBatch(diff.Removed.Groups); err != nil {
				return err
			}
			if err := m.works.RemoveBatch(diff.Removed.Works); err != nil {
				return err
			}
		}

		author.IsNew = true
		author.MTime = time.Now().UnixMilli()
		return m.authors.Update(*author)
	})
}
