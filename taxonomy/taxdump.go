// Copyright ©2024 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package taxonomy

import (
	"bufio"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	_ "modernc.org/sqlite" // pure go sqlite driver
)

// maxDepth bounds lineage walks in a malformed database.
const maxDepth = 1000

const schema = `
CREATE TABLE IF NOT EXISTS nodes (
	taxid  INTEGER PRIMARY KEY,
	parent INTEGER NOT NULL,
	rank   TEXT NOT NULL,
	name   TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS merged (
	old INTEGER PRIMARY KEY,
	new INTEGER NOT NULL
);`

// Taxdump is an Authority backed by a SQLite database built from the
// NCBI taxdump files. It holds a single connection for its lifetime.
type Taxdump struct {
	db *sql.DB
}

// OpenTaxdump opens the database at path read-only.
func OpenTaxdump(path string) (*Taxdump, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("taxdump: %w", err)
	}
	db, err := sql.Open("sqlite", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	return &Taxdump{db: db}, nil
}

// Close closes the underlying database.
func (t *Taxdump) Close() error { return t.db.Close() }

// BuildTaxdump creates the database at path from the contents of the
// taxdump nodes.dmp and names.dmp files. If merged is not nil it is read
// as merged.dmp so that retired identifiers resolve to their replacement.
// Only scientific names are kept.
func BuildTaxdump(path string, nodes, names, merged io.Reader) (err error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("open sqlite: %w", err)
	}
	defer func() {
		if cerr := db.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err = db.Exec(schema); err != nil {
		return fmt.Errorf("create tables: %w", err)
	}
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	err = load(tx, `INSERT OR REPLACE INTO nodes (taxid, parent, rank) VALUES (?, ?, ?)`, nodes, 3,
		func(f []string) ([]interface{}, bool, error) {
			id, err := strconv.Atoi(f[0])
			if err != nil {
				return nil, false, err
			}
			parent, err := strconv.Atoi(f[1])
			if err != nil {
				return nil, false, err
			}
			return []interface{}{id, parent, f[2]}, true, nil
		})
	if err != nil {
		return fmt.Errorf("nodes: %w", err)
	}
	err = load(tx, `UPDATE nodes SET name = ? WHERE taxid = ?`, names, 4,
		func(f []string) ([]interface{}, bool, error) {
			if f[3] != "scientific name" {
				return nil, false, nil
			}
			id, err := strconv.Atoi(f[0])
			if err != nil {
				return nil, false, err
			}
			return []interface{}{f[1], id}, true, nil
		})
	if err != nil {
		return fmt.Errorf("names: %w", err)
	}
	if merged != nil {
		err = load(tx, `INSERT OR REPLACE INTO merged (old, new) VALUES (?, ?)`, merged, 2,
			func(f []string) ([]interface{}, bool, error) {
				old, err := strconv.Atoi(f[0])
				if err != nil {
					return nil, false, err
				}
				cur, err := strconv.Atoi(f[1])
				if err != nil {
					return nil, false, err
				}
				return []interface{}{old, cur}, true, nil
			})
		if err != nil {
			return fmt.Errorf("merged: %w", err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// load executes query for each line of a taxdump file with the arguments
// returned by args. Lines with fewer than min fields are an error.
func load(tx *sql.Tx, query string, r io.Reader, min int, args func([]string) ([]interface{}, bool, error)) error {
	stmt, err := tx.Prepare(query)
	if err != nil {
		return err
	}
	defer stmt.Close()

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64<<10), 1<<20)
	for line := 1; sc.Scan(); line++ {
		f := splitDump(sc.Text())
		if f == nil {
			continue
		}
		if len(f) < min {
			return fmt.Errorf("line %d: want at least %d fields, got %d", line, min, len(f))
		}
		a, ok, err := args(f)
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		if !ok {
			continue
		}
		if _, err := stmt.Exec(a...); err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
	}
	return sc.Err()
}

// splitDump splits a taxdump line of the form "a\t|\tb\t|\n".
func splitDump(line string) []string {
	line = strings.TrimSuffix(strings.TrimRight(line, "\r"), "\t|")
	if strings.TrimSpace(line) == "" {
		return nil
	}
	f := strings.Split(line, "\t|\t")
	for i := range f {
		f[i] = strings.TrimSpace(f[i])
	}
	return f
}

// current maps a retired identifier to its replacement.
func (t *Taxdump) current(id TaxID) (TaxID, error) {
	var n int
	err := t.db.QueryRow(`SELECT COUNT(*) FROM nodes WHERE taxid = ?`, int(id)).Scan(&n)
	if err != nil {
		return 0, err
	}
	if n != 0 {
		return id, nil
	}
	var cur int
	err = t.db.QueryRow(`SELECT new FROM merged WHERE old = ?`, int(id)).Scan(&cur)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("taxid %d: %w", id, ErrUnknownTaxon)
	}
	if err != nil {
		return 0, err
	}
	return TaxID(cur), nil
}

// Lineage returns the ancestor chain ending at id, starting at the root.
func (t *Taxdump) Lineage(id TaxID) (Lineage, error) {
	cur, err := t.current(id)
	if err != nil {
		return nil, err
	}
	rows, err := t.db.Query(`
WITH RECURSIVE up(taxid, parent, depth) AS (
	SELECT taxid, parent, 0 FROM nodes WHERE taxid = ?
	UNION ALL
	SELECT n.taxid, n.parent, up.depth + 1 FROM nodes n JOIN up ON n.taxid = up.parent
	WHERE up.taxid != up.parent AND up.depth < ?
)
SELECT taxid FROM up ORDER BY depth DESC`, int(cur), maxDepth)
	if err != nil {
		return nil, fmt.Errorf("lineage %d: %w", id, err)
	}
	defer rows.Close()
	var l Lineage
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("lineage %d: %w", id, err)
		}
		l = append(l, TaxID(v))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("lineage %d: %w", id, err)
	}
	if len(l) == 0 {
		return nil, fmt.Errorf("taxid %d: %w", id, ErrUnknownTaxon)
	}
	return l, nil
}

// Ranks returns the NCBI rank of each id.
func (t *Taxdump) Ranks(ids []TaxID) (map[TaxID]string, error) {
	return t.column(`SELECT rank FROM nodes WHERE taxid = ?`, ids)
}

// Names returns the scientific name of each id.
func (t *Taxdump) Names(ids []TaxID) (map[TaxID]string, error) {
	return t.column(`SELECT name FROM nodes WHERE taxid = ?`, ids)
}

func (t *Taxdump) column(query string, ids []TaxID) (map[TaxID]string, error) {
	m := make(map[TaxID]string, len(ids))
	if len(ids) == 0 {
		return m, nil
	}
	stmt, err := t.db.Prepare(query)
	if err != nil {
		return nil, err
	}
	defer stmt.Close()
	for _, id := range ids {
		cur, err := t.current(id)
		if err != nil {
			return nil, err
		}
		var v string
		err = stmt.QueryRow(int(cur)).Scan(&v)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("taxid %d: %w", id, ErrUnknownTaxon)
		}
		if err != nil {
			return nil, err
		}
		m[id] = v
	}
	return m, nil
}
