package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

const activityColumns = `
	a.id, a.titulo, COALESCE(a.descricao, ''), COALESCE(a.projeto_id, 0), COALESCE(p.nome, ''),
	a.setor_id, COALESCE(s.sigla, ''), a.status_id, a.prioridade_id,
	COALESCE(a.estimativa_horas, 0), a.id_release, a.posicao,
	COALESCE(to_char(a.data_inicio, 'YYYY-MM-DD'), ''),
	COALESCE(to_char(a.data_fim, 'YYYY-MM-DD'), ''),
	to_char(a.data_criacao, 'YYYY-MM-DD'), a.atualizado_em
`

func scanActivity(row interface{ Scan(...any) error }) (Activity, error) {
	var item Activity
	err := row.Scan(
		&item.ID,
		&item.Title,
		&item.Description,
		&item.ProjectID,
		&item.ProjectName,
		&item.SectorID,
		&item.SectorCode,
		&item.StatusID,
		&item.PriorityID,
		&item.EstimateHours,
		&item.ReleaseID,
		&item.Position,
		&item.StartDate,
		&item.EndDate,
		&item.CreatedDate,
		&item.UpdatedAt,
	)
	return item, err
}

// ListActivities returns activities joined to project and sector, newest id
// first. An empty sectorCode returns every activity.
func (s *PostgresStore) ListActivities(ctx context.Context, sectorCode string) ([]Activity, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+activityColumns+`
		FROM atividades a
		LEFT JOIN projetos p ON p.id = a.projeto_id
		LEFT JOIN setores s ON s.id = a.setor_id
		WHERE ($1 = '' OR s.sigla = $1)
		ORDER BY a.id DESC
	`, sectorCode)
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	defer rows.Close()

	items := make([]Activity, 0)
	for rows.Next() {
		item, err := scanActivity(rows)
		if err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate activities: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) GetActivity(ctx context.Context, activityID int64) (Activity, error) {
	item, err := scanActivity(s.db.QueryRowContext(ctx, `
		SELECT `+activityColumns+`
		FROM atividades a
		LEFT JOIN projetos p ON p.id = a.projeto_id
		LEFT JOIN setores s ON s.id = a.setor_id
		WHERE a.id = $1
	`, activityID))
	if err != nil {
		return Activity{}, err
	}
	return item, nil
}

// InsertActivity shifts every sibling card in the target status column down
// by one and inserts the new card at position 0, in a single transaction.
func (s *PostgresStore) InsertActivity(ctx context.Context, item NewActivity) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin insert activity: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		UPDATE atividades SET posicao = posicao + 1 WHERE status_id = $1
	`, item.StatusID); err != nil {
		return 0, fmt.Errorf("shift column positions: %w", err)
	}

	var activityID int64
	err = tx.QueryRowContext(ctx, `
		INSERT INTO atividades
			(titulo, descricao, projeto_id, setor_id, status_id, prioridade_id,
			 estimativa_horas, id_release, posicao, data_inicio, data_fim, data_criacao)
		VALUES
			($1, $2, $3, $4, $5, $6, $7, $8, 0,
			 $9::date, NULLIF($10, '')::date,
			 COALESCE(NULLIF($11, '')::timestamptz, NOW()))
		RETURNING id
	`,
		item.Title, item.Description, item.ProjectID, item.SectorID,
		item.StatusID, item.PriorityID, item.EstimateHours, item.ReleaseID,
		item.StartDate, item.EndDate, item.CreatedDate,
	).Scan(&activityID)
	if err != nil {
		return 0, fmt.Errorf("insert activity: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit insert activity: %w", err)
	}
	return activityID, nil
}

// UpdateActivity applies a full edit. Status and position are owned by the
// position fast path and are not touched here.
func (s *PostgresStore) UpdateActivity(ctx context.Context, activityID int64, item NewActivity) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE atividades
		SET titulo = $2, descricao = $3, projeto_id = $4,
			prioridade_id = $5, estimativa_horas = $6, id_release = $7,
			data_inicio = $8::date, data_fim = NULLIF($9, '')::date,
			atualizado_em = NOW()
		WHERE id = $1
	`, activityID, item.Title, item.Description, item.ProjectID,
		item.PriorityID, item.EstimateHours, item.ReleaseID,
		item.StartDate, item.EndDate)
	if err != nil {
		return fmt.Errorf("update activity: %w", err)
	}
	return nil
}

// UpdateActivityPosition writes the caller-supplied column and position
// verbatim. Siblings are not renormalized; the read path orders by id.
func (s *PostgresStore) UpdateActivityPosition(ctx context.Context, activityID int64, statusID, position int) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE atividades
		SET status_id = $2, posicao = $3, atualizado_em = NOW()
		WHERE id = $1
	`, activityID, statusID, position)
	if err != nil {
		return fmt.Errorf("update activity position: %w", err)
	}
	return nil
}

// DeleteActivity hard-deletes the row. Deleting an unknown id is a no-op.
func (s *PostgresStore) DeleteActivity(ctx context.Context, activityID int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM atividades WHERE id = $1`, activityID)
	if err != nil {
		return fmt.Errorf("delete activity: %w", err)
	}
	return nil
}

// ListResponsibles returns the responsible parties for a set of activities,
// grouped by activity id.
func (s *PostgresStore) ListResponsibles(ctx context.Context, activityIDs []int64) (map[int64][]Responsible, error) {
	grouped := make(map[int64][]Responsible)
	if len(activityIDs) == 0 {
		return grouped, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT ar.atividade_id, r.id, r.email
		FROM atividade_responsaveis ar
		JOIN responsaveis r ON r.id = ar.responsavel_id
		WHERE ar.atividade_id = ANY($1)
		ORDER BY ar.atividade_id, r.id
	`, activityIDs)
	if err != nil {
		return nil, fmt.Errorf("list responsibles: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var activityID int64
		var item Responsible
		if err := rows.Scan(&activityID, &item.ID, &item.Email); err != nil {
			return nil, fmt.Errorf("scan responsible: %w", err)
		}
		grouped[activityID] = append(grouped[activityID], item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate responsibles: %w", err)
	}
	return grouped, nil
}

func (s *PostgresStore) ListResponsibleEmails(ctx context.Context, activityID int64) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.email
		FROM atividade_responsaveis ar
		JOIN responsaveis r ON r.id = ar.responsavel_id
		WHERE ar.atividade_id = $1
		ORDER BY r.id
	`, activityID)
	if err != nil {
		return nil, fmt.Errorf("list responsible emails: %w", err)
	}
	defer rows.Close()

	emails := make([]string, 0)
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, fmt.Errorf("scan responsible email: %w", err)
		}
		emails = append(emails, email)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate responsible emails: %w", err)
	}
	return emails, nil
}

// ReplaceResponsibles swaps the full responsible set of an activity inside
// one transaction: delete the links, lazily create missing responsible rows
// by exact email, relink, and mirror the first entry into the legacy
// responsavel_id column. Any failure rolls the whole swap back.
func (s *PostgresStore) ReplaceResponsibles(ctx context.Context, activityID int64, emails []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace responsibles: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM atividade_responsaveis WHERE atividade_id = $1
	`, activityID); err != nil {
		return fmt.Errorf("clear responsibles: %w", err)
	}

	var firstID *int64
	for _, email := range emails {
		var responsibleID int64
		err := tx.QueryRowContext(ctx, `SELECT id FROM responsaveis WHERE email = $1`, email).Scan(&responsibleID)
		if errors.Is(err, sql.ErrNoRows) {
			err = tx.QueryRowContext(ctx, `
				INSERT INTO responsaveis (email) VALUES ($1)
				ON CONFLICT (email) DO UPDATE SET email = EXCLUDED.email
				RETURNING id
			`, email).Scan(&responsibleID)
		}
		if err != nil {
			return fmt.Errorf("ensure responsible %s: %w", email, err)
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO atividade_responsaveis (atividade_id, responsavel_id)
			VALUES ($1, $2)
			ON CONFLICT DO NOTHING
		`, activityID, responsibleID); err != nil {
			return fmt.Errorf("link responsible %s: %w", email, err)
		}

		if firstID == nil {
			id := responsibleID
			firstID = &id
		}
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE atividades SET responsavel_id = $2, atualizado_em = NOW() WHERE id = $1
	`, activityID, firstID); err != nil {
		return fmt.Errorf("update legacy responsible: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace responsibles: %w", err)
	}
	return nil
}

const collaboratorColumns = `
	email, COALESCE(nome, ''), COALESCE(cargo, ''),
	COALESCE(departamento, ''), COALESCE(divisao, ''),
	COALESCE(assessoria, ''), COALESCE(secao, '')
`

// GetCollaborator looks up one directory record by exact email match.
// A miss propagates sql.ErrNoRows.
func (s *PostgresStore) GetCollaborator(ctx context.Context, email string) (Collaborator, error) {
	var item Collaborator
	err := s.db.QueryRowContext(ctx, `
		SELECT `+collaboratorColumns+`
		FROM vw_colaboradores
		WHERE email = $1
	`, email).Scan(
		&item.Email,
		&item.Name,
		&item.JobTitle,
		&item.Department,
		&item.Division,
		&item.Advisory,
		&item.Section,
	)
	if err != nil {
		return Collaborator{}, err
	}
	return item, nil
}

// ListCollaboratorsByEmail batch-resolves directory records. Unknown emails
// are simply absent from the result.
func (s *PostgresStore) ListCollaboratorsByEmail(ctx context.Context, emails []string) ([]Collaborator, error) {
	if len(emails) == 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+collaboratorColumns+`
		FROM vw_colaboradores
		WHERE email = ANY($1)
	`, emails)
	if err != nil {
		return nil, fmt.Errorf("list collaborators: %w", err)
	}
	defer rows.Close()

	items := make([]Collaborator, 0, len(emails))
	for rows.Next() {
		var item Collaborator
		if err := rows.Scan(
			&item.Email,
			&item.Name,
			&item.JobTitle,
			&item.Department,
			&item.Division,
			&item.Advisory,
			&item.Section,
		); err != nil {
			return nil, fmt.Errorf("scan collaborator: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate collaborators: %w", err)
	}
	return items, nil
}

// HasCapability checks a named capability grant, independent of hierarchy.
func (s *PostgresStore) HasCapability(ctx context.Context, email, capability string) (bool, error) {
	var granted bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM permissoes WHERE email = $1 AND capacidade = $2)
	`, email, capability).Scan(&granted)
	if err != nil {
		return false, fmt.Errorf("check capability: %w", err)
	}
	return granted, nil
}

func (s *PostgresStore) ListProjects(ctx context.Context) ([]Project, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, nome FROM projetos ORDER BY nome ASC`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	items := make([]Project, 0)
	for rows.Next() {
		var item Project
		if err := rows.Scan(&item.ID, &item.Name); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate projects: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) ListSectors(ctx context.Context) ([]Sector, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, sigla, nome FROM setores ORDER BY sigla ASC`)
	if err != nil {
		return nil, fmt.Errorf("list sectors: %w", err)
	}
	defer rows.Close()

	items := make([]Sector, 0)
	for rows.Next() {
		var item Sector
		if err := rows.Scan(&item.ID, &item.Code, &item.Name); err != nil {
			return nil, fmt.Errorf("scan sector: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sectors: %w", err)
	}
	return items, nil
}

// GetSectorByCode returns the sector with the given sigla. A raw
// sql.ErrNoRows is returned when no such sector exists.
func (s *PostgresStore) GetSectorByCode(ctx context.Context, code string) (Sector, error) {
	var item Sector
	err := s.db.QueryRowContext(ctx,
		`SELECT id, sigla, nome FROM setores WHERE sigla = $1`, code,
	).Scan(&item.ID, &item.Code, &item.Name)
	if err != nil {
		return Sector{}, err
	}
	return item, nil
}

// Ping verifies the database connection is alive
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
