package storage

import (
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

// Table is the generic CRUD surface over one of the three entity tables.
// All operations run on the store's shared connection and join the open
// transaction when there is one.
type Table[T any] struct {
	store *Store
	name  string
	cols  []string
	id    func(*T) int64
	setID func(*T, int64)
}

// Authors, Groups and Works bind the table abstraction to the entities.

func Authors(s *Store) Table[Author] {
	return Table[Author]{
		store: s,
		name:  authorTable,
		cols:  []string{"NAME", "URL", "ISNEW", "MTIME", "ALL_TAGS_NAME"},
		id:    func(a *Author) int64 { return a.ID },
		setID: func(a *Author, id int64) { a.ID = id },
	}
}

func Groups(s *Store) Table[Group] {
	return Table[Group]{
		store: s,
		name:  groupTable,
		cols:  []string{"AUTHOR_ID", "NAME", "DISPLAY_NAME", "NEW_NUMBER", "IS_HIDDEN"},
		id:    func(g *Group) int64 { return g.ID },
		setID: func(g *Group, id int64) { g.ID = id },
	}
}

func Works(s *Store) Table[Work] {
	return Table[Work]{
		store: s,
		name:  workTable,
		cols: []string{
			"LINK", "AUTHOR", "TITLE", "FORM", "SIZE", "GROUP_ID", "DATE",
			"DESCRIPTION", "AUTHOR_ID", "MTIME", "ISNEW", "OPTS", "DELTA_SIZE",
		},
		id:    func(w *Work) int64 { return w.ID },
		setID: func(w *Work, id int64) { w.ID = id },
	}
}

func (t Table[T]) selectSQL(p Predicate, limit, offset int) string {
	var b strings.Builder
	b.WriteString("SELECT * FROM " + t.name)
	if !p.Empty() {
		b.WriteString(" WHERE " + p.String())
	}
	if limit > 0 {
		fmt.Fprintf(&b, " LIMIT %d", limit)
	}
	if offset > 0 {
		fmt.Fprintf(&b, " OFFSET %d", offset)
	}
	return b.String()
}

// Retrieve returns every row matching the predicate, fully materialised.
func (t Table[T]) Retrieve(p Predicate) ([]T, error) {
	return t.RetrievePage(p, 0, 0)
}

// RetrievePage is Retrieve with LIMIT/OFFSET applied when positive.
func (t Table[T]) RetrievePage(p Predicate, limit, offset int) ([]T, error) {
	var rows []T
	if err := sqlx.Select(t.store.ext(), &rows, t.selectSQL(p, limit, offset)); err != nil {
		return nil, fmt.Errorf("%w: retrieve from %s: %v", ErrQuery, t.name, err)
	}
	return rows, nil
}

// Get returns the first row matching the predicate, or ErrNotFound.
func (t Table[T]) Get(p Predicate) (T, error) {
	var zero T
	rows, err := t.RetrievePage(p, 1, 0)
	if err != nil {
		return zero, err
	}
	if len(rows) == 0 {
		return zero, fmt.Errorf("%w: no %s row for given criteria", ErrNotFound, t.name)
	}
	return rows[0], nil
}

// GetByID returns the row with the given primary key, or ErrNotFound.
func (t Table[T]) GetByID(id int64) (T, error) {
	var zero T
	row, err := t.Get(Me(id))
	if err != nil {
		return zero, fmt.Errorf("record #%d of %s: %w", id, t.name, err)
	}
	return row, nil
}

// Add inserts the row and returns a copy carrying the assigned id.
func (t Table[T]) Add(row T) (T, error) {
	query := "INSERT INTO " + t.name +
		" (" + strings.Join(t.cols, ", ") + ") VALUES (:" + strings.Join(t.cols, ", :") + ")"
	res, err := sqlx.NamedExec(t.store.ext(), query, row)
	if err != nil {
		return row, fmt.Errorf("%w: insert into %s: %v", ErrQuery, t.name, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return row, fmt.Errorf("%w: insert into %s: %v", ErrQuery, t.name, err)
	}
	t.setID(&row, id)
	return row, nil
}

// AddBatch inserts the rows in one transaction and maps each row's previous
// id (for groups that is the tentative one) to the persisted row.
func (t Table[T]) AddBatch(rows []T) (map[int64]T, error) {
	added := make(map[int64]T, len(rows))
	if len(rows) == 0 {
		return added, nil
	}
	err := t.store.WithTx(func() error {
		for _, row := range rows {
			oldID := t.id(&row)
			inserted, err := t.Add(row)
			if err != nil {
				return err
			}
			added[oldID] = inserted
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return added, nil
}

// Update rewrites every column of the row identified by its primary key.
func (t Table[T]) Update(row T) error {
	assignments := make([]string, len(t.cols))
	for i, col := range t.cols {
		assignments[i] = col + " = :" + col
	}
	query := fmt.Sprintf(
		"UPDATE %s SET %s WHERE _id = %d",
		t.name, strings.Join(assignments, ", "), t.id(&row),
	)
	if _, err := sqlx.NamedExec(t.store.ext(), query, row); err != nil {
		return fmt.Errorf("%w: update %s: %v", ErrQuery, t.name, err)
	}
	return nil
}

// UpdateBatch updates the rows in one transaction, rolling back on the
// first failure.
func (t Table[T]) UpdateBatch(rows []T) error {
	if len(rows) == 0 {
		return nil
	}
	return t.store.WithTx(func() error {
		for _, row := range rows {
			if err := t.Update(row); err != nil {
				return err
			}
		}
		return nil
	})
}

// Field is a single column assignment for UpdateFields.
type Field struct {
	Column string
	Value  any
}

func Set(column string, value any) Field { return Field{Column: column, Value: value} }

// UpdateFields assigns the given columns on every row matching the
// predicate.
func (t Table[T]) UpdateFields(p Predicate, fields ...Field) error {
	if len(fields) == 0 {
		return nil
	}
	assignments := make([]string, len(fields))
	args := make([]any, len(fields))
	for i, f := range fields {
		assignments[i] = f.Column + " = ?"
		args[i] = f.Value
	}
	query := "UPDATE " + t.name + " SET " + strings.Join(assignments, ", ")
	if !p.Empty() {
		query += " WHERE " + p.String()
	}
	if _, err := t.store.ext().Exec(query, args...); err != nil {
		return fmt.Errorf("%w: update %s: %v", ErrQuery, t.name, err)
	}
	return nil
}

// Remove deletes the row by primary key.
func (t Table[T]) Remove(row T) error {
	return t.RemoveAll(Me(t.id(&row)))
}

// RemoveBatch deletes the rows by primary key in one statement.
func (t Table[T]) RemoveBatch(rows []T) error {
	if len(rows) == 0 {
		return nil
	}
	ids := make([]string, len(rows))
	for i, row := range rows {
		ids[i] = fmt.Sprintf("%d", t.id(&row))
	}
	query := "DELETE FROM " + t.name + " WHERE _id IN (" + strings.Join(ids, ",") + ")"
	if _, err := t.store.ext().Exec(query); err != nil {
		return fmt.Errorf("%w: delete from %s: %v", ErrQuery, t.name, err)
	}
	return nil
}

// RemoveAll deletes every row matching the predicate. An empty predicate is
// rejected so a missing criterion cannot wipe a table.
func (t Table[T]) RemoveAll(p Predicate) error {
	if p.Empty() {
		return fmt.Errorf("%w: refusing to delete %s without criteria", ErrQuery, t.name)
	}
	query := "DELETE FROM " + t.name + " WHERE " + p.String()
	if _, err := t.store.ext().Exec(query); err != nil {
		return fmt.Errorf("%w: delete from %s: %v", ErrQuery, t.name, err)
	}
	return nil
}

// Count returns the number of rows matching the predicate.
func (t Table[T]) Count(p Predicate) (int64, error) {
	query := "SELECT COUNT(*) FROM " + t.name
	if !p.Empty() {
		query += " WHERE " + p.String()
	}
	var n int64
	if err := sqlx.Get(t.store.ext(), &n, query); err != nil {
		return 0, fmt.Errorf("%w: count %s: %v", ErrQuery, t.name, err)
	}
	return n, nil
}

// Exists reports whether at least one row matches the predicate. The empty
// predicate (Any) is not queried and always reports false.
func (t Table[T]) Exists(p Predicate) (bool, error) {
	if p.Empty() {
		return false, nil
	}
	var found bool
	query := "SELECT EXISTS(SELECT 1 FROM " + t.name + " WHERE " + p.String() + ")"
	if err := sqlx.Get(t.store.ext(), &found, query); err != nil {
		return false, fmt.Errorf("%w: exists %s: %v", ErrQuery, t.name, err)
	}
	return found, nil
}
