package miner

import (
	"fmt"
	"strings"

	"samlib/internal/debuglog"
	"samlib/internal/fetch"
	"samlib/internal/storage"
)

// Changes is one bucket of a Difference.
type Changes struct {
	Works  []storage.Work
	Groups []storage.Group
}

func (c Changes) Empty() bool { return len(c.Works) == 0 && len(c.Groups) == 0 }

// Difference is the change set one scan of an author page produced,
// relative to the stored state. PageRemoved set means the page itself is
// gone and the author should be dropped.
type Difference struct {
	Added       Changes
	Updated     Changes
	Removed     Changes
	PageRemoved bool
}

func (d Difference) Empty() bool {
	return d.Added.Empty() && d.Updated.Empty() && d.Removed.Empty() && !d.PageRemoved
}

// Summary renders the human-readable one-liner the sync log prints.
func (d Difference) Summary() string {
	if d.Empty() {
		return "no changes"
	}
	if d.PageRemoved {
		return "page removed"
	}
	var parts []string
	add := func(n int, what string) {
		if n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, what))
		}
	}
	add(len(d.Added.Works), "new work(s)")
	add(len(d.Added.Groups), "new group(s)")
	add(len(d.Updated.Works), "work(s) updated")
	add(len(d.Updated.Groups), "group(s) updated")
	add(len(d.Removed.Works), "work(s) removed")
	add(len(d.Removed.Groups), "group(s) removed")
	return strings.Join(parts, ", ")
}

// GetUpdates scans the author's page and classifies everything on it
// against the stored state. Network failures on the author page itself
// propagate; a missing page yields Difference{PageRemoved: true}.
func (m *Miner) GetUpdates(author storage.Author) (Difference, error) {
	var diff Difference

	debuglog.Debugf("fetching author page %q", author.URL)
	pageText, err := m.fetcher.Page(fetch.ToURL(m.protocol, m.domain, author.URL))
	if err != nil {
		return diff, fmt.Errorf("author %q: %w", author.URL, err)
	}
	if pageText == "" {
		debuglog.Warnf("page of author %q (%s) cannot be found", author.Name, author.URL)
		diff.PageRemoved = true
		return diff, nil
	}

	byAuthor := storage.AuthorIs(author)
	storedWorks, err := m.works.Retrieve(byAuthor)
	if err != nil {
		return diff, err
	}
	storedGroups, err := m.groups.Retrieve(byAuthor)
	if err != nil {
		return diff, err
	}
	debuglog.Debugf("author %q has %d stored work(s) in %d group(s)",
		author.Name, len(storedWorks), len(storedGroups))

	workRegistry := NewWorkRegistry(author, storedWorks)
	groupRegistry := NewGroupRegistry(storedGroups)
	groupBuilder := NewGroupBuilder(author, groupRegistry)
	workBuilder := NewWorkBuilder(author, workRegistry)

	webGroups := m.extractor.Groups(pageText)
	debuglog.Debugf("extractor found %d group(s) on the page of %q", len(webGroups), author.Name)

	for _, webGroup := range webGroups {
		if webGroup.URL != "" {
			subURL := fetch.ToURL(m.protocol, m.domain, author.URL, webGroup.URL, ".shtml")
			debuglog.Debugf("group %q is extended, fetching %s", webGroup.Name, subURL)
			subText, err := m.fetcher.Page(subURL)
			if err != nil || subText == "" {
				debuglog.Warnf("cannot get content of the extended group %q, skipping", webGroup.Name)
			} else {
				webGroup.Works = append(webGroup.Works, m.extractor.Works(subText)...)
			}
		}

		group := groupBuilder.Build(webGroup)

		for _, webWork := range webGroup.Works {
			switch {
			case workRegistry.IsNew(webWork):
				diff.Added.Works = append(diff.Added.Works, workBuilder.BuildNew(webWork, &group))
			case workRegistry.IsUpdated(webWork) || workRegistry.IsMoved(webWork, group):
				diff.Updated.Works = append(diff.Updated.Works, workBuilder.BuildUpdated(webWork, &group))
			}
		}

		switch {
		case groupRegistry.IsNew(webGroup):
			diff.Added.Groups = append(diff.Added.Groups, group)
		case group.NewNumber > 0:
			diff.Updated.Groups = append(diff.Updated.Groups, group)
		}
	}

	diff.Removed.Works = workRegistry.Abandoned()
	diff.Removed.Groups = groupRegistry.Abandoned()

	debuglog.Infof("author %q: %s", author.Name, diff.Summary())
	return diff, nil
}
