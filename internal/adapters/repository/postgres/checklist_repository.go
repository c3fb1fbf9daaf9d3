package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/ogurasousui/onboarding-checklist/internal/core/checklist"
	"github.com/ogurasousui/onboarding-checklist/internal/core/template"
	pgdb "github.com/ogurasousui/onboarding-checklist/internal/platform/db/postgres"
)

const uniqueViolationCode = "23505"

const checklistColumns = `
        c.id, c.tenant, c.template_id, c.template_version, c.organization_number, c.role_type,
        c.employee_person_id, c.employee_username, c.employee_first_name, c.employee_last_name, c.employee_email, c.employee_title,
        c.manager_person_id, c.manager_username, c.manager_first_name, c.manager_last_name, c.manager_email,
        c.start_date, c.end_date, c.expiration_date, c.locked,
        c.mentor_user_id, c.mentor_name,
        c.corr_status, c.corr_channel, c.corr_recipient, c.corr_attempts, c.corr_message_id, c.corr_sent_at, c.corr_modified_at,
        c.created_at, c.updated_at`

// ChecklistRepository は PostgreSQL を利用したチェックリスト永続化の実装です。
type ChecklistRepository struct {
	pool pgdb.Querier
}

// NewChecklistRepository は ChecklistRepository を生成します。
func NewChecklistRepository(pool pgdb.Querier) *ChecklistRepository {
	return &ChecklistRepository{pool: pool}
}

// Create はチェックリストを子要素ごと新規作成します。
func (r *ChecklistRepository) Create(ctx context.Context, rec *checklist.Checklist) (*checklist.Checklist, error) {
	exec := pgdb.QuerierFromContext(ctx, r.pool)

	row := exec.QueryRow(ctx, `
        INSERT INTO checklists (
            tenant, template_id, template_version, organization_number, role_type,
            employee_person_id, employee_username, employee_first_name, employee_last_name, employee_email, employee_title,
            manager_person_id, manager_username, manager_first_name, manager_last_name, manager_email,
            start_date, end_date, expiration_date, locked,
            created_at, updated_at
        ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22)
        RETURNING id
    `,
		rec.Tenant, rec.TemplateID, rec.TemplateVersion, rec.OrganizationNumber, string(rec.RoleType),
		rec.Employee.PersonID, rec.Employee.Username, rec.Employee.FirstName, rec.Employee.LastName, rec.Employee.Email, rec.Employee.Title,
		managerField(rec.Manager, func(m *checklist.ManagerRef) string { return m.PersonID }),
		managerField(rec.Manager, func(m *checklist.ManagerRef) string { return m.Username }),
		managerField(rec.Manager, func(m *checklist.ManagerRef) string { return m.FirstName }),
		managerField(rec.Manager, func(m *checklist.ManagerRef) string { return m.LastName }),
		managerField(rec.Manager, func(m *checklist.ManagerRef) string { return m.Email }),
		nullableTime(rec.StartDate), nullableTime(rec.EndDate), nullableTime(rec.ExpirationDate), rec.Locked,
		rec.CreatedAt, rec.UpdatedAt,
	)

	var id string
	if err := row.Scan(&id); err != nil {
		return nil, translateChecklistPgError(err)
	}
	rec.ID = id

	if err := r.insertFulfilments(ctx, exec, rec); err != nil {
		return nil, translateChecklistPgError(err)
	}

	return r.FindByID(ctx, id)
}

// Update はチェックリスト本体と子要素を書き戻します。
func (r *ChecklistRepository) Update(ctx context.Context, rec *checklist.Checklist) (*checklist.Checklist, error) {
	exec := pgdb.QuerierFromContext(ctx, r.pool)

	tag, err := exec.Exec(ctx, `
        UPDATE checklists
           SET manager_person_id = $1,
               manager_username = $2,
               manager_first_name = $3,
               manager_last_name = $4,
               manager_email = $5,
               locked = $6,
               mentor_user_id = $7,
               mentor_name = $8,
               updated_at = $9
         WHERE id = $10
    `,
		managerField(rec.Manager, func(m *checklist.ManagerRef) string { return m.PersonID }),
		managerField(rec.Manager, func(m *checklist.ManagerRef) string { return m.Username }),
		managerField(rec.Manager, func(m *checklist.ManagerRef) string { return m.FirstName }),
		managerField(rec.Manager, func(m *checklist.ManagerRef) string { return m.LastName }),
		managerField(rec.Manager, func(m *checklist.ManagerRef) string { return m.Email }),
		rec.Locked,
		mentorField(rec.Mentor, func(m *checklist.Mentor) string { return m.UserID }),
		mentorField(rec.Mentor, func(m *checklist.Mentor) string { return m.Name }),
		rec.UpdatedAt,
		rec.ID,
	)
	if err != nil {
		return nil, translateChecklistPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return nil, checklist.ErrChecklistNotFound
	}

	if err := r.upsertFulfilments(ctx, exec, rec); err != nil {
		return nil, translateChecklistPgError(err)
	}
	if err := r.replaceCustomTasks(ctx, exec, rec); err != nil {
		return nil, translateChecklistPgError(err)
	}
	if err := r.replaceDelegates(ctx, exec, rec); err != nil {
		return nil, translateChecklistPgError(err)
	}

	return r.FindByID(ctx, rec.ID)
}

// FindByID は ID でチェックリストを子要素ごと取得します。
func (r *ChecklistRepository) FindByID(ctx context.Context, id string) (*checklist.Checklist, error) {
	exec := pgdb.QuerierFromContext(ctx, r.pool)

	row := exec.QueryRow(ctx, `SELECT`+checklistColumns+` FROM checklists c WHERE c.id = $1 LIMIT 1`, id)
	rec, err := scanChecklist(row)
	if err != nil {
		return nil, translateChecklistPgError(err)
	}

	if err := r.loadChildren(ctx, exec, rec); err != nil {
		return nil, translateChecklistPgError(err)
	}
	return rec, nil
}

// FindByEmployee はテナントと従業員 ID でチェックリストを取得します。
func (r *ChecklistRepository) FindByEmployee(ctx context.Context, tenant, personID string) (*checklist.Checklist, error) {
	exec := pgdb.QuerierFromContext(ctx, r.pool)

	row := exec.QueryRow(ctx, `SELECT`+checklistColumns+` FROM checklists c WHERE c.tenant = $1 AND c.employee_person_id = $2 LIMIT 1`, tenant, personID)
	rec, err := scanChecklist(row)
	if err != nil {
		return nil, translateChecklistPgError(err)
	}

	if err := r.loadChildren(ctx, exec, rec); err != nil {
		return nil, translateChecklistPgError(err)
	}
	return rec, nil
}

// List はフィルタに一致するチェックリストを取得します。子要素は含みません。
func (r *ChecklistRepository) List(ctx context.Context, filter checklist.ListFilter) ([]*checklist.Checklist, error) {
	conditions := Filter{Eq("c.tenant", filter.Tenant)}
	if filter.ManagerPersonID != "" {
		conditions = append(conditions, Eq("c.manager_person_id", filter.ManagerPersonID))
	}
	if filter.Locked != nil {
		conditions = append(conditions, Eq("c.locked", *filter.Locked))
	}

	where, args := conditions.Where(1)
	query := `SELECT` + checklistColumns + ` FROM checklists c` + where + ` ORDER BY c.created_at DESC, c.id DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ` + placeholder(len(args)+1)
		args = append(args, filter.Limit)
		if filter.Offset > 0 {
			query += ` OFFSET ` + placeholder(len(args)+1)
			args = append(args, filter.Offset)
		}
	}

	return r.queryChecklists(ctx, query, args...)
}

// FindDueForLocking は未ロックかつ失効日が asOf より過去のレコードを返します。
func (r *ChecklistRepository) FindDueForLocking(ctx context.Context, tenant string, asOf time.Time) ([]*checklist.Checklist, error) {
	conditions := Filter{
		Eq("c.tenant", tenant),
		Eq("c.locked", false),
		{Field: "c.expiration_date", Op: OpIsNotNull},
		{Field: "c.expiration_date", Op: OpLess, Value: asOf},
	}
	where, args := conditions.Where(1)

	return r.queryChecklists(ctx, `SELECT`+checklistColumns+` FROM checklists c`+where+` ORDER BY c.expiration_date ASC`, args...)
}

// FindPendingNotification は correspondence が無いか NOT_SENT のレコードを返します。
func (r *ChecklistRepository) FindPendingNotification(ctx context.Context, tenant string) ([]*checklist.Checklist, error) {
	return r.queryChecklists(ctx, `
        SELECT`+checklistColumns+`
          FROM checklists c
         WHERE c.tenant = $1
           AND (c.corr_status IS NULL OR c.corr_status = $2)
         ORDER BY c.created_at ASC
    `, tenant, string(checklist.CorrespondenceNotSent))
}

// SaveCorrespondence は通知試行結果の列のみを書き戻します。
func (r *ChecklistRepository) SaveCorrespondence(ctx context.Context, checklistID string, c *checklist.Correspondence) error {
	exec := pgdb.QuerierFromContext(ctx, r.pool)

	tag, err := exec.Exec(ctx, `
        UPDATE checklists
           SET corr_status = $1,
               corr_channel = $2,
               corr_recipient = $3,
               corr_attempts = $4,
               corr_message_id = $5,
               corr_sent_at = $6,
               corr_modified_at = $7,
               updated_at = $7
         WHERE id = $8
    `,
		string(c.Status), string(c.Channel), c.Recipient, c.Attempts, c.MessageID,
		nullableTime(c.SentAt), c.ModifiedAt, checklistID,
	)
	if err != nil {
		return translateChecklistPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return checklist.ErrChecklistNotFound
	}
	return nil
}

func (r *ChecklistRepository) queryChecklists(ctx context.Context, query string, args ...any) ([]*checklist.Checklist, error) {
	exec := pgdb.QuerierFromContext(ctx, r.pool)

	rows, err := exec.Query(ctx, query, args...)
	if err != nil {
		return nil, translateChecklistPgError(err)
	}
	defer rows.Close()

	var records []*checklist.Checklist
	for rows.Next() {
		rec, err := scanChecklist(rows)
		if err != nil {
			return nil, translateChecklistPgError(err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, translateChecklistPgError(err)
	}

	return records, nil
}

func (r *ChecklistRepository) insertFulfilments(ctx context.Context, exec pgdb.Querier, rec *checklist.Checklist) error {
	for _, f := range rec.Fulfilments {
		if _, err := exec.Exec(ctx, `
            INSERT INTO checklist_fulfilments (checklist_id, task_id, completed, response_text, last_saved_by, updated_at)
            VALUES ($1,$2,$3,$4,$5,$6)
        `, rec.ID, f.TaskID, string(f.Completed), f.ResponseText, f.LastSavedBy, f.UpdatedAt); err != nil {
			return err
		}
	}
	return nil
}

func (r *ChecklistRepository) upsertFulfilments(ctx context.Context, exec pgdb.Querier, rec *checklist.Checklist) error {
	for _, f := range rec.Fulfilments {
		if _, err := exec.Exec(ctx, `
            INSERT INTO checklist_fulfilments (checklist_id, task_id, completed, response_text, last_saved_by, updated_at)
            VALUES ($1,$2,$3,$4,$5,$6)
            ON CONFLICT (checklist_id, task_id)
            DO UPDATE SET completed = EXCLUDED.completed,
                          response_text = EXCLUDED.response_text,
                          last_saved_by = EXCLUDED.last_saved_by,
                          updated_at = EXCLUDED.updated_at
        `, rec.ID, f.TaskID, string(f.Completed), f.ResponseText, f.LastSavedBy, f.UpdatedAt); err != nil {
			return err
		}
	}
	return nil
}

func (r *ChecklistRepository) replaceCustomTasks(ctx context.Context, exec pgdb.Querier, rec *checklist.Checklist) error {
	if _, err := exec.Exec(ctx, `DELETE FROM checklist_custom_tasks WHERE checklist_id = $1`, rec.ID); err != nil {
		return err
	}
	for _, t := range rec.CustomTasks {
		if t.ID == "" {
			t.ID = uuid.NewString()
		}
		if _, err := exec.Exec(ctx, `
            INSERT INTO checklist_custom_tasks (id, checklist_id, phase_id, heading, text, question_type, sort_order, completed, response_text, last_saved_by, created_at, updated_at)
            VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
        `, t.ID, rec.ID, t.PhaseID, t.Heading, t.Text, string(t.QuestionType), t.SortOrder, string(t.Completed), t.ResponseText, t.LastSavedBy, t.CreatedAt, t.UpdatedAt); err != nil {
			return err
		}
	}
	return nil
}

func (r *ChecklistRepository) replaceDelegates(ctx context.Context, exec pgdb.Querier, rec *checklist.Checklist) error {
	if _, err := exec.Exec(ctx, `DELETE FROM checklist_delegates WHERE checklist_id = $1`, rec.ID); err != nil {
		return err
	}
	for _, d := range rec.Delegates {
		if _, err := exec.Exec(ctx, `
            INSERT INTO checklist_delegates (checklist_id, party_id, email, first_name, last_name)
            VALUES ($1,$2,$3,$4,$5)
        `, rec.ID, d.PartyID, d.Email, d.FirstName, d.LastName); err != nil {
			return err
		}
	}
	return nil
}

func (r *ChecklistRepository) loadChildren(ctx context.Context, exec pgdb.Querier, rec *checklist.Checklist) error {
	rows, err := exec.Query(ctx, `
        SELECT task_id, completed, response_text, last_saved_by, updated_at
          FROM checklist_fulfilments
         WHERE checklist_id = $1
    `, rec.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var f checklist.Fulfilment
		var completed string
		if err := rows.Scan(&f.TaskID, &completed, &f.ResponseText, &f.LastSavedBy, &f.UpdatedAt); err != nil {
			return err
		}
		f.Completed = checklist.FulfilmentStatus(completed)
		rec.Fulfilments = append(rec.Fulfilments, &f)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	rows.Close()

	rows, err = exec.Query(ctx, `
        SELECT id, phase_id, heading, text, question_type, sort_order, completed, response_text, last_saved_by, created_at, updated_at
          FROM checklist_custom_tasks
         WHERE checklist_id = $1
         ORDER BY sort_order ASC
    `, rec.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var t checklist.CustomTask
		var questionType, completed string
		if err := rows.Scan(&t.ID, &t.PhaseID, &t.Heading, &t.Text, &questionType, &t.SortOrder, &completed, &t.ResponseText, &t.LastSavedBy, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return err
		}
		t.QuestionType = template.QuestionType(questionType)
		t.Completed = checklist.FulfilmentStatus(completed)
		rec.CustomTasks = append(rec.CustomTasks, &t)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	rows.Close()

	rows, err = exec.Query(ctx, `
        SELECT party_id, email, first_name, last_name
          FROM checklist_delegates
         WHERE checklist_id = $1
    `, rec.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var d checklist.Delegate
		if err := rows.Scan(&d.PartyID, &d.Email, &d.FirstName, &d.LastName); err != nil {
			return err
		}
		rec.Delegates = append(rec.Delegates, d)
	}
	return rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanChecklist はチェックリスト本体 1 行を読み取ります。
func scanChecklist(row rowScanner) (*checklist.Checklist, error) {
	var (
		rec            checklist.Checklist
		roleType       string
		mgrPersonID    sql.NullString
		mgrUsername    sql.NullString
		mgrFirstName   sql.NullString
		mgrLastName    sql.NullString
		mgrEmail       sql.NullString
		startDate      sql.NullTime
		endDate        sql.NullTime
		expirationDate sql.NullTime
		mentorUserID   sql.NullString
		mentorName     sql.NullString
		corrStatus     sql.NullString
		corrChannel    sql.NullString
		corrRecipient  sql.NullString
		corrAttempts   sql.NullInt32
		corrMessageID  sql.NullString
		corrSentAt     sql.NullTime
		corrModifiedAt sql.NullTime
	)

	err := row.Scan(
		&rec.ID, &rec.Tenant, &rec.TemplateID, &rec.TemplateVersion, &rec.OrganizationNumber, &roleType,
		&rec.Employee.PersonID, &rec.Employee.Username, &rec.Employee.FirstName, &rec.Employee.LastName, &rec.Employee.Email, &rec.Employee.Title,
		&mgrPersonID, &mgrUsername, &mgrFirstName, &mgrLastName, &mgrEmail,
		&startDate, &endDate, &expirationDate, &rec.Locked,
		&mentorUserID, &mentorName,
		&corrStatus, &corrChannel, &corrRecipient, &corrAttempts, &corrMessageID, &corrSentAt, &corrModifiedAt,
		&rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	rec.RoleType = template.RoleType(roleType)

	if mgrPersonID.Valid {
		rec.Manager = &checklist.ManagerRef{
			PersonID:  mgrPersonID.String,
			Username:  mgrUsername.String,
			FirstName: mgrFirstName.String,
			LastName:  mgrLastName.String,
			Email:     mgrEmail.String,
		}
	}

	rec.StartDate = timePtr(startDate)
	rec.EndDate = timePtr(endDate)
	rec.ExpirationDate = timePtr(expirationDate)

	if mentorUserID.Valid {
		rec.Mentor = &checklist.Mentor{UserID: mentorUserID.String, Name: mentorName.String}
	}

	if corrStatus.Valid {
		rec.Correspondence = &checklist.Correspondence{
			Status:    checklist.CorrespondenceStatus(corrStatus.String),
			Channel:   checklist.CommunicationChannel(corrChannel.String),
			Recipient: corrRecipient.String,
			Attempts:  int(corrAttempts.Int32),
			MessageID: corrMessageID.String,
			SentAt:    timePtr(corrSentAt),
		}
		if corrModifiedAt.Valid {
			rec.Correspondence.ModifiedAt = corrModifiedAt.Time
		}
	}

	return &rec, nil
}

func translateChecklistPgError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return checklist.ErrChecklistNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
		return checklist.ErrChecklistExists
	}

	return err
}

func managerField(m *checklist.ManagerRef, get func(*checklist.ManagerRef) string) any {
	if m == nil {
		return nil
	}
	return get(m)
}

func mentorField(m *checklist.Mentor, get func(*checklist.Mentor) string) any {
	if m == nil {
		return nil
	}
	return get(m)
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	value := t.Time
	return &value
}

func placeholder(n int) string {
	return "$" + strconv.Itoa(n)
}
