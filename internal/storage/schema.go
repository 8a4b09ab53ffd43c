package storage

// Physical table names match the layout of the legacy SamLibInfo database so
// an exported DB file keeps working.
const (
	authorTable = "Author"
	groupTable  = "GroupBook"
	workTable   = "Book"
)

const authorSchema = `
CREATE TABLE IF NOT EXISTS ` + authorTable + ` (
    _id           INTEGER PRIMARY KEY AUTOINCREMENT CHECK (_id >= 0),
    NAME          TEXT,
    URL           TEXT NOT NULL UNIQUE,
    ISNEW         BOOLEAN NOT NULL DEFAULT 0,
    MTIME         INTEGER,
    ALL_TAGS_NAME TEXT
);
CREATE INDEX IF NOT EXISTS idx_author_url ON ` + authorTable + ` (URL);
CREATE INDEX IF NOT EXISTS idx_author_mtime ON ` + authorTable + ` (MTIME);`

const groupSchema = `
CREATE TABLE IF NOT EXISTS ` + groupTable + ` (
    _id          INTEGER PRIMARY KEY AUTOINCREMENT CHECK (_id >= 0),
    AUTHOR_ID    INTEGER NOT NULL CHECK (AUTHOR_ID >= 0)
                 REFERENCES ` + authorTable + `(_id) ON DELETE CASCADE,
    NAME         VARCHAR,
    DISPLAY_NAME VARCHAR,
    NEW_NUMBER   INTEGER NOT NULL CHECK (NEW_NUMBER >= 0),
    IS_HIDDEN    SMALLINT
);
CREATE INDEX IF NOT EXISTS idx_group_author ON ` + groupTable + ` (NAME, AUTHOR_ID);`

const workSchema = `
CREATE TABLE IF NOT EXISTS ` + workTable + ` (
    _id         INTEGER PRIMARY KEY AUTOINCREMENT CHECK (_id >= 0),
    LINK        TEXT,
    AUTHOR      TEXT,
    TITLE       TEXT,
    FORM        TEXT,
    SIZE        INTEGER,
    GROUP_ID    INTEGER NOT NULL CHECK (GROUP_ID >= 0)
                REFERENCES ` + groupTable + `(_id) ON DELETE CASCADE,
    DATE        INTEGER,
    DESCRIPTION TEXT,
    AUTHOR_ID   INTEGER NOT NULL CHECK (AUTHOR_ID >= 0)
                REFERENCES ` + authorTable + `(_id) ON DELETE CASCADE,
    MTIME       INTEGER,
    ISNEW       BOOLEAN NOT NULL DEFAULT 0,
    OPTS        INTEGER,
    DELTA_SIZE  INTEGER
);
CREATE INDEX IF NOT EXISTS idx_book_author ON ` + workTable + ` (AUTHOR_ID);
CREATE INDEX IF NOT EXISTS idx_book_mtime ON ` + workTable + ` (MTIME);`
