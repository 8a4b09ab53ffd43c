// Package page turns the site's not-quite-HTML author pages into structured
// values. Extraction is regex-driven and never fails: markup the patterns do
// not recognise simply yields empty results.
package page

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// The listing markup is stable enough that a handful of anchored patterns
// cover it. Capture groups, by index:
//   work:   (1) url without the .shtml suffix, (2) title, (3) size in kb,
//           (4) genre, (5) description
//   group:  (1) subpage url or empty, (2) group name, (3) inner fragment
//   author: (1) name, (2) description
const (
	DefaultWorkPattern = `(?mi)^<DL><DT><li>` +
		`(?:(?:<font.*?</font>)|(?:\s*<b>.*</b>\s*))?` + // update / co-author markers
		`<A\s+HREF=([^<>]+)\.shtml><b>` +
		`(.*?)` +
		`</b></A>\s+&nbsp;\s+<b>` +
		`(\d+)` +
		`k</b>\s+&nbsp;\s+<small>` +
		`(?:.*?</b>\s+&nbsp;)?\s*` + // score block
		`([^<>]+)?` +
		`\s*(?:<A\s+HREF="/comment.*?<DD>)?` + // comment block
		`(?:<font\s+color="#555555">` +
		`([^<>]+)` +
		`</font>)?` +
		`.*</DL>$`

	DefaultGroupPattern = `<a\s+name=gr\d+>` +
		`(?:<a\s+href=([^<>]+)\.shtml><font\s+color=#393939>)?` +
		`([^<>]+)` +
		`(?:</font></a>)?` +
		`(?:<gr\d+>)?` +
		`([\S\s]*?)` +
		`(?:(?:</small><p><font.*?)|(?:</dl>))`

	DefaultAuthorPattern = `(?mi)^<h3>` +
		`([^<>]*)<br>` +
		`(?:\s+<font[^<>]+>` +
		`([^<>]+)` +
		`</font>)?</h3>$`
)

// GroupType distinguishes plain page sections from extended groups whose
// works live on a separate subpage.
type GroupType int

const (
	GroupPlain GroupType = iota
	GroupExternal
)

// Work is one listing entry as it appears on the page. URL carries no
// .shtml suffix and is relative to the author page.
type Work struct {
	URL         string
	Title       string
	Size        int64
	Genre       string
	Description string
}

// Group is one section of the author page together with its works. For
// extended groups URL holds the subpage path, relative to the author page.
type Group struct {
	Type  GroupType
	URL   string
	Name  string
	Works []Work
}

// Author is the page header: display name plus the free-text tag line.
type Author struct {
	Name        string
	Description string
}

// Extractor holds the compiled patterns. The zero patterns are the
// defaults; New never fails for them.
type Extractor struct {
	work   *regexp.Regexp
	group  *regexp.Regexp
	author *regexp.Regexp
}

// New returns an extractor using the default patterns.
func New() *Extractor {
	e, _ := NewWithPatterns(DefaultWorkPattern, DefaultGroupPattern, DefaultAuthorPattern)
	return e
}

// NewWithPatterns compiles caller-supplied patterns; empty strings fall
// back to the defaults.
func NewWithPatterns(work, group, author string) (*Extractor, error) {
	if work == "" {
		work = DefaultWorkPattern
	}
	if group == "" {
		group = DefaultGroupPattern
	}
	if author == "" {
		author = DefaultAuthorPattern
	}

	e := &Extractor{}
	var err error
	if e.work, err = regexp.Compile(work); err != nil {
		return nil, fmt.Errorf("compiling work pattern: %w", err)
	}
	if e.group, err = regexp.Compile(group); err != nil {
		return nil, fmt.Errorf("compiling group pattern: %w", err)
	}
	if e.author, err = regexp.Compile(author); err != nil {
		return nil, fmt.Errorf("compiling author pattern: %w", err)
	}
	return e, nil
}

// Works extracts every recognisable listing entry from a page or group
// fragment, in document order.
func (e *Extractor) Works(fragment string) []Work {
	var works []Work
	for _, m := range e.work.FindAllStringSubmatch(fragment, -1) {
		size, _ := strconv.ParseInt(m[3], 10, 64)
		works = append(works, Work{
			URL:         m[1],
			Title:       TrimNoisy(m[2]),
			Size:        size,
			Genre:       TrimNoisy(m[4]),
			Description: cleanText(m[5]),
		})
	}
	return works
}

// Groups extracts the page's sections in document order, each with the
// works found inside its fragment. Subpage URLs pointing at the site-wide
// /type catalogue do not belong to the author and are dropped.
func (e *Extractor) Groups(pageText string) []Group {
	var groups []Group
	for _, m := range e.group.FindAllStringSubmatch(pageText, -1) {
		url := m[1]
		g := Group{
			Type:  GroupPlain,
			Name:  TrimNoisy(m[2]),
			Works: e.Works(m[3]),
		}
		if url != "" && !strings.HasPrefix(url, "/type") {
			g.Type = GroupExternal
			g.URL = url
		}
		groups = append(groups, g)
	}
	return groups
}

// Author extracts the page header. An unrecognised header yields the zero
// Author.
func (e *Extractor) Author(pageText string) Author {
	m := e.author.FindStringSubmatch(pageText)
	if m == nil {
		return Author{}
	}
	return Author{
		Name:        TrimNoisy(m[1]),
		Description: TrimNoisy(m[2]),
	}
}
