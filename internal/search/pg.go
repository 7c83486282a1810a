package search

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// PgSearch implements Searcher with a plain ILIKE scan as a fallback.
type PgSearch struct {
	db *sql.DB
}

// NewPgSearch creates a PostgreSQL-backed searcher.
func NewPgSearch(db *sql.DB) *PgSearch {
	return &PgSearch{db: db}
}

// Healthy always returns true — if Postgres is down, the whole app is down.
func (p *PgSearch) Healthy() bool {
	return true
}

// Search matches the query text against title, description and project name.
func (p *PgSearch) Search(q Query) ([]Result, int, error) {
	if strings.TrimSpace(q.Text) == "" {
		return nil, 0, nil
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}

	rows, err := p.db.QueryContext(context.Background(), `
		SELECT a.id, a.titulo, COALESCE(a.descricao, ''), COALESCE(p.nome, ''),
			COALESCE(s.sigla, ''), a.status_id
		FROM atividades a
		LEFT JOIN projetos p ON p.id = a.projeto_id
		LEFT JOIN setores s ON s.id = a.setor_id
		WHERE (a.titulo ILIKE '%' || $1 || '%'
			OR a.descricao ILIKE '%' || $1 || '%'
			OR p.nome ILIKE '%' || $1 || '%')
			AND ($2 = '' OR s.sigla = $2)
		ORDER BY a.id DESC
		LIMIT $3
	`, escapeLike(q.Text), q.SectorCode, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("search activities: %w", err)
	}
	defer rows.Close()

	results := make([]Result, 0)
	for rows.Next() {
		var item Result
		if err := rows.Scan(
			&item.ID,
			&item.Title,
			&item.Snippet,
			&item.ProjectName,
			&item.SectorCode,
			&item.StatusID,
		); err != nil {
			return nil, 0, fmt.Errorf("scan search result: %w", err)
		}
		results = append(results, item)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate search results: %w", err)
	}
	return results, len(results), nil
}

// escapeLike neutralizes LIKE metacharacters so user text matches
// literally inside the ILIKE pattern.
func escapeLike(text string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(text)
}

// LoadAllRecords reads every activity for a full reindex into Meilisearch.
func (p *PgSearch) LoadAllRecords(ctx context.Context) ([]ActivityRecord, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT a.id, a.titulo, COALESCE(a.descricao, ''), COALESCE(p.nome, ''),
			COALESCE(s.sigla, ''), a.status_id
		FROM atividades a
		LEFT JOIN projetos p ON p.id = a.projeto_id
		LEFT JOIN setores s ON s.id = a.setor_id
	`)
	if err != nil {
		return nil, fmt.Errorf("load activity records: %w", err)
	}
	defer rows.Close()

	records := make([]ActivityRecord, 0)
	for rows.Next() {
		var record ActivityRecord
		if err := rows.Scan(
			&record.ID,
			&record.Title,
			&record.Description,
			&record.ProjectName,
			&record.SectorCode,
			&record.StatusID,
		); err != nil {
			return nil, fmt.Errorf("scan activity record: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate activity records: %w", err)
	}
	return records, nil
}
