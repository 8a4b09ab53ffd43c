package storage

// Author is one tracked samlib author page. URL is site-relative, starts
// with "/" and never changes after insert. MTime is the moment of the last
// sync that applied changes to the author (or of its creation), in
// milliseconds since the Unix epoch; a sync that finds no changes leaves it
// as it is.
type Author struct {
	ID          int64  `db:"_id"`
	Name        string `db:"NAME"`
	URL         string `db:"URL"`
	IsNew       bool   `db:"ISNEW"`
	MTime       int64  `db:"MTIME"`
	AllTagsName string `db:"ALL_TAGS_NAME"`
}

// Group is a section on an author's page. NewNumber counts the unread works
// inside the group. Name is the diff key within one author.
type Group struct {
	ID          int64  `db:"_id"`
	AuthorID    int64  `db:"AUTHOR_ID"`
	Name        string `db:"NAME"`
	DisplayName string `db:"DISPLAY_NAME"`
	NewNumber   int64  `db:"NEW_NUMBER"`
	IsHidden    bool   `db:"IS_HIDDEN"`
}

// Work is a single writing listed on an author's page. Link is unique per
// author and site-relative without the leading slash of the author URL
// duplicated. DeltaSize holds the absolute size change that last flagged the
// work unread; for a freshly inserted work it equals Size.
type Work struct {
	ID          int64  `db:"_id"`
	Link        string `db:"LINK"`
	Author      string `db:"AUTHOR"`
	Title       string `db:"TITLE"`
	Form        string `db:"FORM"`
	Size        int64  `db:"SIZE"`
	GroupID     int64  `db:"GROUP_ID"`
	Date        int64  `db:"DATE"`
	Description string `db:"DESCRIPTION"`
	AuthorID    int64  `db:"AUTHOR_ID"`
	MTime       int64  `db:"MTIME"`
	IsNew       bool   `db:"ISNEW"`
	Opts        int64  `db:"OPTS"`
	DeltaSize   int64  `db:"DELTA_SIZE"`
}
