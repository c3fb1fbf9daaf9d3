package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/ogurasousui/onboarding-checklist/internal/core/template"
	pgdb "github.com/ogurasousui/onboarding-checklist/internal/platform/db/postgres"
)

const templateColumns = `
        t.id, t.tenant, t.organization_number, t.name, t.display_name, t.version,
        t.role_type, t.state, t.last_saved_by, t.created_at, t.updated_at`

// TemplateRepository は PostgreSQL を利用したテンプレート永続化の実装です。
type TemplateRepository struct {
	pool pgdb.Querier
}

// NewTemplateRepository は TemplateRepository を生成します。
func NewTemplateRepository(pool pgdb.Querier) *TemplateRepository {
	return &TemplateRepository{pool: pool}
}

// Create はテンプレートをフェーズ・タスクごと新規作成します。
func (r *TemplateRepository) Create(ctx context.Context, tpl *template.Template) (*template.Template, error) {
	exec := pgdb.QuerierFromContext(ctx, r.pool)

	row := exec.QueryRow(ctx, `
        INSERT INTO templates (tenant, organization_number, name, display_name, version, role_type, state, last_saved_by, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
        RETURNING id
    `,
		tpl.Tenant, tpl.OrganizationNumber, tpl.Name, tpl.DisplayName, tpl.Version,
		string(tpl.RoleType), string(tpl.State), tpl.LastSavedBy, tpl.CreatedAt, tpl.UpdatedAt,
	)

	var id string
	if err := row.Scan(&id); err != nil {
		return nil, translateTemplatePgError(err)
	}
	tpl.ID = id

	if err := r.insertPhases(ctx, exec, tpl); err != nil {
		return nil, translateTemplatePgError(err)
	}

	return r.FindByID(ctx, id)
}

// Update はテンプレート本体を更新し、フェーズ・タスクを入れ替えます。
func (r *TemplateRepository) Update(ctx context.Context, tpl *template.Template) (*template.Template, error) {
	exec := pgdb.QuerierFromContext(ctx, r.pool)

	tag, err := exec.Exec(ctx, `
        UPDATE templates
           SET display_name = $1,
               state = $2,
               last_saved_by = $3,
               updated_at = $4
         WHERE id = $5
    `, tpl.DisplayName, string(tpl.State), tpl.LastSavedBy, tpl.UpdatedAt, tpl.ID)
	if err != nil {
		return nil, translateTemplatePgError(err)
	}
	if tag.RowsAffected() == 0 {
		return nil, template.ErrTemplateNotFound
	}

	if _, err := exec.Exec(ctx, `DELETE FROM template_phases WHERE template_id = $1`, tpl.ID); err != nil {
		return nil, translateTemplatePgError(err)
	}
	if err := r.insertPhases(ctx, exec, tpl); err != nil {
		return nil, translateTemplatePgError(err)
	}

	return r.FindByID(ctx, tpl.ID)
}

// FindByID は ID でテンプレートをフェーズ・タスクごと取得します。
func (r *TemplateRepository) FindByID(ctx context.Context, id string) (*template.Template, error) {
	exec := pgdb.QuerierFromContext(ctx, r.pool)

	row := exec.QueryRow(ctx, `SELECT`+templateColumns+` FROM templates t WHERE t.id = $1 LIMIT 1`, id)
	tpl, err := scanTemplate(row)
	if err != nil {
		return nil, translateTemplatePgError(err)
	}

	if err := r.loadPhases(ctx, exec, tpl); err != nil {
		return nil, translateTemplatePgError(err)
	}
	return tpl, nil
}

// FindActive は組織と役割に対する ACTIVE なテンプレートを取得します。
func (r *TemplateRepository) FindActive(ctx context.Context, tenant string, organizationNumber int, role template.RoleType) (*template.Template, error) {
	exec := pgdb.QuerierFromContext(ctx, r.pool)

	row := exec.QueryRow(ctx, `
        SELECT`+templateColumns+`
          FROM templates t
         WHERE t.tenant = $1 AND t.organization_number = $2 AND t.role_type = $3 AND t.state = $4
         LIMIT 1
    `, tenant, organizationNumber, string(role), string(template.StateActive))

	tpl, err := scanTemplate(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, template.ErrNoActiveTemplate
		}
		return nil, translateTemplatePgError(err)
	}

	if err := r.loadPhases(ctx, exec, tpl); err != nil {
		return nil, translateTemplatePgError(err)
	}
	return tpl, nil
}

// FindVersions は同一名の全バージョンを新しい順に返します。フェーズは含みません。
func (r *TemplateRepository) FindVersions(ctx context.Context, tenant, name string) ([]*template.Template, error) {
	return r.queryTemplates(ctx, `
        SELECT`+templateColumns+`
          FROM templates t
         WHERE t.tenant = $1 AND t.name = $2
         ORDER BY t.version DESC
    `, tenant, name)
}

// List はテナント内の全テンプレートを返します。フェーズは含みません。
func (r *TemplateRepository) List(ctx context.Context, tenant string) ([]*template.Template, error) {
	return r.queryTemplates(ctx, `
        SELECT`+templateColumns+`
          FROM templates t
         WHERE t.tenant = $1
         ORDER BY t.name ASC, t.version DESC
    `, tenant)
}

func (r *TemplateRepository) queryTemplates(ctx context.Context, query string, args ...any) ([]*template.Template, error) {
	exec := pgdb.QuerierFromContext(ctx, r.pool)

	rows, err := exec.Query(ctx, query, args...)
	if err != nil {
		return nil, translateTemplatePgError(err)
	}
	defer rows.Close()

	var templates []*template.Template
	for rows.Next() {
		tpl, err := scanTemplate(rows)
		if err != nil {
			return nil, translateTemplatePgError(err)
		}
		templates = append(templates, tpl)
	}
	if err := rows.Err(); err != nil {
		return nil, translateTemplatePgError(err)
	}

	return templates, nil
}

func (r *TemplateRepository) insertPhases(ctx context.Context, exec pgdb.Querier, tpl *template.Template) error {
	for _, p := range tpl.Phases {
		if p.ID == "" {
			p.ID = uuid.NewString()
		}
		if _, err := exec.Exec(ctx, `
            INSERT INTO template_phases (id, template_id, name, body_text, time_to_complete, permission, sort_order)
            VALUES ($1,$2,$3,$4,$5,$6,$7)
        `, p.ID, tpl.ID, p.Name, p.BodyText, p.TimeToComplete, string(p.Permission), p.SortOrder); err != nil {
			return err
		}

		for _, task := range p.Tasks {
			if task.ID == "" {
				task.ID = uuid.NewString()
			}
			if _, err := exec.Exec(ctx, `
                INSERT INTO template_tasks (id, phase_id, heading, heading_ref, text, question_type, role_type, permission, sort_order)
                VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
            `, task.ID, p.ID, task.Heading, task.HeadingRef, task.Text, string(task.QuestionType), string(task.RoleType), string(task.Permission), task.SortOrder); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *TemplateRepository) loadPhases(ctx context.Context, exec pgdb.Querier, tpl *template.Template) error {
	rows, err := exec.Query(ctx, `
        SELECT id, name, body_text, time_to_complete, permission, sort_order
          FROM template_phases
         WHERE template_id = $1
         ORDER BY sort_order ASC
    `, tpl.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	phases := map[string]*template.Phase{}
	for rows.Next() {
		var p template.Phase
		var permission string
		if err := rows.Scan(&p.ID, &p.Name, &p.BodyText, &p.TimeToComplete, &permission, &p.SortOrder); err != nil {
			return err
		}
		p.Permission = template.Permission(permission)
		tpl.Phases = append(tpl.Phases, &p)
		phases[p.ID] = &p
	}
	if err := rows.Err(); err != nil {
		return err
	}
	rows.Close()

	taskRows, err := exec.Query(ctx, `
        SELECT tk.id, tk.phase_id, tk.heading, tk.heading_ref, tk.text, tk.question_type, tk.role_type, tk.permission, tk.sort_order
          FROM template_tasks tk
          JOIN template_phases ph ON ph.id = tk.phase_id
         WHERE ph.template_id = $1
         ORDER BY tk.sort_order ASC
    `, tpl.ID)
	if err != nil {
		return err
	}
	defer taskRows.Close()

	for taskRows.Next() {
		var task template.Task
		var phaseID, questionType, roleType, permission string
		if err := taskRows.Scan(&task.ID, &phaseID, &task.Heading, &task.HeadingRef, &task.Text, &questionType, &roleType, &permission, &task.SortOrder); err != nil {
			return err
		}
		task.QuestionType = template.QuestionType(questionType)
		task.RoleType = template.RoleType(roleType)
		task.Permission = template.Permission(permission)
		if phase, ok := phases[phaseID]; ok {
			phase.Tasks = append(phase.Tasks, &task)
		}
	}
	return taskRows.Err()
}

// scanTemplate はテンプレート本体 1 行を読み取ります。
func scanTemplate(row rowScanner) (*template.Template, error) {
	var tpl template.Template
	var roleType, state string

	err := row.Scan(
		&tpl.ID, &tpl.Tenant, &tpl.OrganizationNumber, &tpl.Name, &tpl.DisplayName, &tpl.Version,
		&roleType, &state, &tpl.LastSavedBy, &tpl.CreatedAt, &tpl.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	tpl.RoleType = template.RoleType(roleType)
	tpl.State = template.LifecycleState(state)
	return &tpl, nil
}

func translateTemplatePgError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return template.ErrTemplateNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
		if strings.Contains(pgErr.ConstraintName, "sort_order") {
			return template.ErrDuplicateSortOrder
		}
		return template.ErrActiveVersionExists
	}

	return err
}
