package storage

import (
	"fmt"
	"strings"
)

// Predicate is an opaque WHERE-clause fragment. Zero value matches
// everything and composes as identity under And/Or. String literals that end
// up inside a predicate must go through Quote.
type Predicate struct {
	clause string
}

// Any matches every row.
var Any = Predicate{}

func where(format string, args ...any) Predicate {
	return Predicate{clause: fmt.Sprintf(format, args...)}
}

func (p Predicate) Empty() bool { return p.clause == "" }

func (p Predicate) String() string { return p.clause }

func (p Predicate) And(other Predicate) Predicate {
	switch {
	case p.Empty():
		return other
	case other.Empty():
		return p
	}
	return Predicate{clause: "(" + p.clause + ") AND (" + other.clause + ")"}
}

func (p Predicate) Or(other Predicate) Predicate {
	switch {
	case p.Empty():
		return other
	case other.Empty():
		return p
	}
	return Predicate{clause: "(" + p.clause + ") OR (" + other.clause + ")"}
}

func (p Predicate) Not() Predicate {
	if p.Empty() {
		return p
	}
	if negated, ok := strings.CutPrefix(p.clause, "NOT ("); ok && strings.HasSuffix(negated, ")") {
		return Predicate{clause: strings.TrimSuffix(negated, ")")}
	}
	return Predicate{clause: "NOT (" + p.clause + ")"}
}

// Quote escapes a string literal the way sqlite's %Q formatter does: the
// value is wrapped in single quotes and embedded quotes are doubled.
func Quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// Me matches a row by primary key.
func Me(id int64) Predicate { return where("_id = %d", id) }

// ByAuthorID matches Group or Work rows belonging to an author.
func ByAuthorID(id int64) Predicate { return where("AUTHOR_ID = %d", id) }

// ByGroupID matches Work rows belonging to a group.
func ByGroupID(id int64) Predicate { return where("GROUP_ID = %d", id) }

func AuthorIs(a Author) Predicate { return ByAuthorID(a.ID) }

func GroupIs(g Group) Predicate { return ByGroupID(g.ID) }

func WorkIs(w Work) Predicate { return Me(w.ID) }

// URLIs matches an Author row by its site-relative URL.
func URLIs(url string) Predicate { return where("URL = %s", Quote(url)) }

// LinkIs matches a Work row by its link.
func LinkIs(link string) Predicate { return where("LINK = %s", Quote(link)) }

// AuthorIsNew and WorkIsNew match unread rows; GroupIsNew matches groups
// that still contain unread works.
func AuthorIsNew() Predicate { return where("ISNEW = 1") }

func WorkIsNew() Predicate { return where("ISNEW = 1") }

func GroupIsNew() Predicate { return where("NEW_NUMBER > 0") }
