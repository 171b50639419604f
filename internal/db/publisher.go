package db

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/lib/pq"
)

// Publisher loads the enriched output CSV into Postgres for the dashboard
// and ad hoc queries.
type Publisher struct {
	conn *Connection
}

// NewPublisher creates a publisher over an open connection.
func NewPublisher(conn *Connection) *Publisher {
	return &Publisher{conn: conn}
}

// Publish replaces the target table's contents with the CSV. Every column is
// loaded as text: the CSV is the source of truth and typing is left to views.
func (p *Publisher) Publish(csvPath, table string) (int, error) {
	file, err := os.Open(csvPath)
	if err != nil {
		return 0, fmt.Errorf("failed to open %s: %w", csvPath, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return 0, fmt.Errorf("failed to read CSV header: %w", err)
	}

	if err := p.ensureTable(table, header); err != nil {
		return 0, err
	}

	tx, err := p.conn.DB.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(fmt.Sprintf("TRUNCATE TABLE %s", pq.QuoteIdentifier(table))); err != nil {
		return 0, fmt.Errorf("failed to truncate %s: %w", table, err)
	}

	stmt, err := tx.Prepare(insertSQL(table, header))
	if err != nil {
		return 0, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	loaded := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}

		args := make([]interface{}, len(header))
		for i := range header {
			if i < len(row) {
				args[i] = row[i]
			} else {
				args[i] = ""
			}
		}
		if _, err := stmt.Exec(args...); err != nil {
			return 0, fmt.Errorf("failed to insert row %d: %w", loaded+1, err)
		}

		loaded++
		if loaded%1000 == 0 {
			fmt.Printf("Loaded %d rows...\n", loaded)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit: %w", err)
	}
	return loaded, nil
}

// ensureTable creates the target table with one text column per CSV column.
func (p *Publisher) ensureTable(table string, header []string) error {
	cols := make([]string, len(header))
	for i, name := range header {
		cols[i] = pq.QuoteIdentifier(name) + " TEXT"
	}
	ddl := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)",
		pq.QuoteIdentifier(table), strings.Join(cols, ", "))
	if _, err := p.conn.DB.Exec(ddl); err != nil {
		return fmt.Errorf("failed to create table %s: %w", table, err)
	}
	return nil
}

func insertSQL(table string, header []string) string {
	cols := make([]string, len(header))
	params := make([]string, len(header))
	for i, name := range header {
		cols[i] = pq.QuoteIdentifier(name)
		params[i] = fmt.Sprintf("$%d", i+1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		pq.QuoteIdentifier(table), strings.Join(cols, ", "), strings.Join(params, ", "))
}
