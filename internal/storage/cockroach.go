package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/maneeshanif/todo-realtime-core/pkg/models"
)

// NewCockroachStoresFromDSN creates Cockroach-backed stores using a DSN.
func NewCockroachStoresFromDSN(dsn string, config *CockroachConfig) (StoreSet, error) {
	if strings.TrimSpace(dsn) == "" {
		return StoreSet{}, fmt.Errorf("dsn is required")
	}
	if config == nil {
		config = DefaultCockroachConfig()
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return StoreSet{}, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)
	db.SetConnMaxLifetime(config.ConnMaxLifetime)
	db.SetConnMaxIdleTime(config.ConnMaxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), config.ConnectTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return StoreSet{}, fmt.Errorf("ping database: %w", err)
	}

	stores := StoreSet{
		Tasks:         &cockroachTaskStore{db: db},
		Tags:          &cockroachTagStore{db: db},
		Reminders:     &cockroachReminderStore{db: db},
		Conversations: &cockroachConversationStore{db: db},
		Messages:      &cockroachMessageStore{db: db},
		AuditLogs:     &cockroachAuditLogStore{db: db},
		closer:        db.Close,
	}
	return stores, nil
}

type cockroachTaskStore struct {
	db *sql.DB
}

func (s *cockroachTaskStore) Create(ctx context.Context, task *models.Task) error {
	if task == nil || task.Title == "" {
		return fmt.Errorf("task title is required")
	}
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO tasks (owner_id, title, description, completed, priority, due_date,
			is_recurring, recurrence_pattern, recurrence_every, next_occurrence,
			tag_ids, category_ids, created_at, updated_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
		 RETURNING id`,
		task.OwnerID,
		task.Title,
		task.Description,
		task.Completed,
		string(task.Priority),
		task.DueDate,
		task.IsRecurring,
		string(task.RecurrencePattern),
		task.RecurrenceEvery,
		task.NextOccurrence,
		pq.Array(task.TagIDs),
		pq.Array(task.CategoryIDs),
		task.CreatedAt,
		task.UpdatedAt,
	).Scan(&task.ID)
	if err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

func (s *cockroachTaskStore) Get(ctx context.Context, ownerID string, id int64) (*models.Task, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, owner_id, title, description, completed, priority, due_date,
			is_recurring, recurrence_pattern, recurrence_every, next_occurrence,
			tag_ids, category_ids, created_at, updated_at
		 FROM tasks WHERE owner_id = $1 AND id = $2`, ownerID, id)
	return scanTask(row)
}

func (s *cockroachTaskStore) List(ctx context.Context, ownerID string, filter TaskFilter) ([]*models.Task, error) {
	args := []any{ownerID}
	var where strings.Builder
	where.WriteString("WHERE owner_id = $1")

	switch filter.Status {
	case "pending":
		where.WriteString(" AND completed = false")
	case "completed":
		where.WriteString(" AND completed = true")
	}
	if filter.Priority != "" {
		args = append(args, string(filter.Priority))
		where.WriteString(fmt.Sprintf(" AND priority = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		where.WriteString(fmt.Sprintf(" AND (title ILIKE $%d OR description ILIKE $%d)", len(args), len(args)))
	}
	if len(filter.TagIDs) > 0 {
		args = append(args, pq.Array(filter.TagIDs))
		where.WriteString(fmt.Sprintf(" AND tag_ids && $%d", len(args)))
	}

	orderCol := "created_at"
	switch filter.SortBy {
	case "due_date", "priority", "created_at", "title", "updated_at":
		orderCol = filter.SortBy
	}
	orderDir := "ASC"
	if strings.EqualFold(filter.SortOrder, "desc") {
		orderDir = "DESC"
	}

	query := fmt.Sprintf(
		`SELECT id, owner_id, title, description, completed, priority, due_date,
			is_recurring, recurrence_pattern, recurrence_every, next_occurrence,
			tag_ids, category_ids, created_at, updated_at
		 FROM tasks %s ORDER BY %s %s`, where.String(), orderCol, orderDir)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	tasks := []*models.Task{}
	for rows.Next() {
		task, err := scanTaskRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

func (s *cockroachTaskStore) ListRecurring(ctx context.Context, ownerID string) ([]*models.Task, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, owner_id, title, description, completed, priority, due_date,
			is_recurring, recurrence_pattern, recurrence_every, next_occurrence,
			tag_ids, category_ids, created_at, updated_at
		 FROM tasks WHERE owner_id = $1 AND is_recurring = true`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list recurring tasks: %w", err)
	}
	defer rows.Close()

	tasks := []*models.Task{}
	for rows.Next() {
		task, err := scanTaskRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

func (s *cockroachTaskStore) Update(ctx context.Context, task *models.Task) error {
	if task == nil || task.ID == 0 {
		return fmt.Errorf("task id is required")
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET title = $1, description = $2, completed = $3, priority = $4, due_date = $5,
			is_recurring = $6, recurrence_pattern = $7, recurrence_every = $8, next_occurrence = $9,
			tag_ids = $10, category_ids = $11, updated_at = $12
		 WHERE owner_id = $13 AND id = $14`,
		task.Title,
		task.Description,
		task.Completed,
		string(task.Priority),
		task.DueDate,
		task.IsRecurring,
		string(task.RecurrencePattern),
		task.RecurrenceEvery,
		task.NextOccurrence,
		pq.Array(task.TagIDs),
		pq.Array(task.CategoryIDs),
		task.UpdatedAt,
		task.OwnerID,
		task.ID,
	)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	return requireRowsAffected(res)
}

func (s *cockroachTaskStore) Delete(ctx context.Context, ownerID string, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE owner_id = $1 AND id = $2`, ownerID, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return requireRowsAffected(res)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*models.Task, error) {
	var task models.Task
	var priority, pattern string
	if err := row.Scan(
		&task.ID,
		&task.OwnerID,
		&task.Title,
		&task.Description,
		&task.Completed,
		&priority,
		&task.DueDate,
		&task.IsRecurring,
		&pattern,
		&task.RecurrenceEvery,
		&task.NextOccurrence,
		pq.Array(&task.TagIDs),
		pq.Array(&task.CategoryIDs),
		&task.CreatedAt,
		&task.UpdatedAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get task: %w", err)
	}
	task.Priority = models.Priority(priority)
	task.RecurrencePattern = models.RecurrencePattern(pattern)
	return &task, nil
}

func scanTaskRow(rows *sql.Rows) (*models.Task, error) {
	return scanTask(rows)
}

type cockroachTagStore struct {
	db *sql.DB
}

func (s *cockroachTagStore) Create(ctx context.Context, tag *models.Tag) error {
	if tag == nil || tag.Name == "" {
		return fmt.Errorf("tag name is required")
	}
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO tags (owner_id, name, color, created_at) VALUES ($1,$2,$3,$4) RETURNING id`,
		tag.OwnerID, tag.Name, tag.Color, tag.CreatedAt,
	).Scan(&tag.ID)
	if err != nil {
		if strings.Contains(err.Error(), "duplicate") {
			return ErrAlreadyExists
		}
		return fmt.Errorf("create tag: %w", err)
	}
	return nil
}

func (s *cockroachTagStore) Get(ctx context.Context, ownerID string, id int64) (*models.Tag, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, owner_id, name, color, created_at FROM tags WHERE owner_id = $1 AND id = $2`, ownerID, id)
	var tag models.Tag
	if err := row.Scan(&tag.ID, &tag.OwnerID, &tag.Name, &tag.Color, &tag.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get tag: %w", err)
	}
	return &tag, nil
}

func (s *cockroachTagStore) List(ctx context.Context, ownerID string) ([]*models.Tag, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, owner_id, name, color, created_at FROM tags WHERE owner_id = $1 ORDER BY name ASC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	defer rows.Close()

	tags := []*models.Tag{}
	for rows.Next() {
		var tag models.Tag
		if err := rows.Scan(&tag.ID, &tag.OwnerID, &tag.Name, &tag.Color, &tag.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		tags = append(tags, &tag)
	}
	return tags, rows.Err()
}

func (s *cockroachTagStore) Delete(ctx context.Context, ownerID string, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tags WHERE owner_id = $1 AND id = $2`, ownerID, id)
	if err != nil {
		return fmt.Errorf("delete tag: %w", err)
	}
	return requireRowsAffected(res)
}

func (s *cockroachTagStore) TagTask(ctx context.Context, ownerID string, taskID, tagID int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET tag_ids = array_append(tag_ids, $1) WHERE owner_id = $2 AND id = $3 AND NOT ($1 = ANY(tag_ids))`,
		tagID, ownerID, taskID)
	if err != nil {
		return fmt.Errorf("tag task: %w", err)
	}
	return nil
}

func (s *cockroachTagStore) UntagTask(ctx context.Context, ownerID string, taskID, tagID int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET tag_ids = array_remove(tag_ids, $1) WHERE owner_id = $2 AND id = $3`,
		tagID, ownerID, taskID)
	if err != nil {
		return fmt.Errorf("untag task: %w", err)
	}
	return nil
}

func (s *cockroachTagStore) TagsForTask(ctx context.Context, ownerID string, taskID int64) ([]*models.Tag, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT t.id, t.owner_id, t.name, t.color, t.created_at
		 FROM tags t JOIN tasks k ON t.id = ANY(k.tag_ids)
		 WHERE k.owner_id = $1 AND k.id = $2`, ownerID, taskID)
	if err != nil {
		return nil, fmt.Errorf("tags for task: %w", err)
	}
	defer rows.Close()

	tags := []*models.Tag{}
	for rows.Next() {
		var tag models.Tag
		if err := rows.Scan(&tag.ID, &tag.OwnerID, &tag.Name, &tag.Color, &tag.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		tags = append(tags, &tag)
	}
	return tags, rows.Err()
}

type cockroachReminderStore struct {
	db *sql.DB
}

func (s *cockroachReminderStore) Create(ctx context.Context, reminder *models.Reminder) error {
	if reminder == nil || reminder.TaskID == 0 {
		return fmt.Errorf("reminder task id is required")
	}
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO reminders (task_id, owner_id, remind_at, status, sent_at, dapr_job_name, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7) RETURNING id`,
		reminder.TaskID, reminder.OwnerID, reminder.RemindAt, string(reminder.Status),
		reminder.SentAt, reminder.DaprJobName, reminder.CreatedAt,
	).Scan(&reminder.ID)
	if err != nil {
		return fmt.Errorf("create reminder: %w", err)
	}
	return nil
}

func (s *cockroachReminderStore) Get(ctx context.Context, id int64) (*models.Reminder, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, task_id, owner_id, remind_at, status, sent_at, dapr_job_name, created_at
		 FROM reminders WHERE id = $1`, id)
	return scanReminder(row)
}

func (s *cockroachReminderStore) GetPendingForTask(ctx context.Context, taskID int64) (*models.Reminder, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, task_id, owner_id, remind_at, status, sent_at, dapr_job_name, created_at
		 FROM reminders WHERE task_id = $1 AND status = $2`, taskID, string(models.ReminderPending))
	return scanReminder(row)
}

func (s *cockroachReminderStore) List(ctx context.Context, ownerID string, taskID int64) ([]*models.Reminder, error) {
	var rows *sql.Rows
	var err error
	if taskID != 0 {
		rows, err = s.db.QueryContext(ctx,
			`SELECT id, task_id, owner_id, remind_at, status, sent_at, dapr_job_name, created_at
			 FROM reminders WHERE owner_id = $1 AND task_id = $2 ORDER BY remind_at ASC`, ownerID, taskID)
	} else {
		rows, err = s.db.QueryContext(ctx,
			`SELECT id, task_id, owner_id, remind_at, status, sent_at, dapr_job_name, created_at
			 FROM reminders WHERE owner_id = $1 ORDER BY remind_at ASC`, ownerID)
	}
	if err != nil {
		return nil, fmt.Errorf("list reminders: %w", err)
	}
	defer rows.Close()
	return scanReminderRows(rows)
}

func (s *cockroachReminderStore) ListUpcoming(ctx context.Context, ownerID string, hours int) ([]*models.Reminder, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, task_id, owner_id, remind_at, status, sent_at, dapr_job_name, created_at
		 FROM reminders
		 WHERE owner_id = $1 AND status = $2 AND remind_at <= now() + ($3 * interval '1 hour')
		 ORDER BY remind_at ASC`,
		ownerID, string(models.ReminderPending), hours)
	if err != nil {
		return nil, fmt.Errorf("list upcoming reminders: %w", err)
	}
	defer rows.Close()
	return scanReminderRows(rows)
}

func (s *cockroachReminderStore) Update(ctx context.Context, reminder *models.Reminder) error {
	if reminder == nil || reminder.ID == 0 {
		return fmt.Errorf("reminder id is required")
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE reminders SET remind_at = $1, status = $2, sent_at = $3, dapr_job_name = $4
		 WHERE id = $5`,
		reminder.RemindAt, string(reminder.Status), reminder.SentAt, reminder.DaprJobName, reminder.ID)
	if err != nil {
		return fmt.Errorf("update reminder: %w", err)
	}
	return requireRowsAffected(res)
}

func (s *cockroachReminderStore) Delete(ctx context.Context, ownerID string, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM reminders WHERE owner_id = $1 AND id = $2`, ownerID, id)
	if err != nil {
		return fmt.Errorf("delete reminder: %w", err)
	}
	return requireRowsAffected(res)
}

func scanReminder(row rowScanner) (*models.Reminder, error) {
	var reminder models.Reminder
	var status string
	if err := row.Scan(
		&reminder.ID, &reminder.TaskID, &reminder.OwnerID, &reminder.RemindAt,
		&status, &reminder.SentAt, &reminder.DaprJobName, &reminder.CreatedAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get reminder: %w", err)
	}
	reminder.Status = models.ReminderStatus(status)
	return &reminder, nil
}

func scanReminderRows(rows *sql.Rows) ([]*models.Reminder, error) {
	reminders := []*models.Reminder{}
	for rows.Next() {
		reminder, err := scanReminder(rows)
		if err != nil {
			return nil, err
		}
		reminders = append(reminders, reminder)
	}
	return reminders, rows.Err()
}

type cockroachConversationStore struct {
	db *sql.DB
}

func (s *cockroachConversationStore) Create(ctx context.Context, conv *models.Conversation) error {
	if conv == nil || conv.ID == "" {
		return fmt.Errorf("conversation id is required")
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO conversations (id, owner_id, title, created_at, updated_at) VALUES ($1,$2,$3,$4,$5)`,
		conv.ID, conv.OwnerID, conv.Title, conv.CreatedAt, conv.UpdatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "duplicate") {
			return ErrAlreadyExists
		}
		return fmt.Errorf("create conversation: %w", err)
	}
	return nil
}

func (s *cockroachConversationStore) Get(ctx context.Context, ownerID, id string) (*models.Conversation, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, owner_id, title, created_at, updated_at FROM conversations WHERE owner_id = $1 AND id = $2`,
		ownerID, id)
	var conv models.Conversation
	if err := row.Scan(&conv.ID, &conv.OwnerID, &conv.Title, &conv.CreatedAt, &conv.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get conversation: %w", err)
	}
	return &conv, nil
}

func (s *cockroachConversationStore) List(ctx context.Context, ownerID string, limit, offset int) ([]*models.Conversation, error) {
	args := []any{ownerID}
	query := `SELECT id, owner_id, title, created_at, updated_at FROM conversations WHERE owner_id = $1 ORDER BY updated_at DESC`
	if limit > 0 {
		args = append(args, limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if offset > 0 {
		args = append(args, offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()

	convs := []*models.Conversation{}
	for rows.Next() {
		var conv models.Conversation
		if err := rows.Scan(&conv.ID, &conv.OwnerID, &conv.Title, &conv.CreatedAt, &conv.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		convs = append(convs, &conv)
	}
	return convs, rows.Err()
}

func (s *cockroachConversationStore) Update(ctx context.Context, conv *models.Conversation) error {
	if conv == nil || conv.ID == "" {
		return fmt.Errorf("conversation id is required")
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE conversations SET title = $1, updated_at = $2 WHERE owner_id = $3 AND id = $4`,
		conv.Title, conv.UpdatedAt, conv.OwnerID, conv.ID)
	if err != nil {
		return fmt.Errorf("update conversation: %w", err)
	}
	return requireRowsAffected(res)
}

type cockroachMessageStore struct {
	db *sql.DB
}

func (s *cockroachMessageStore) Create(ctx context.Context, msg *models.Message) error {
	if msg == nil || msg.ID == "" {
		return fmt.Errorf("message id is required")
	}
	toolCalls, err := json.Marshal(msg.ToolCalls)
	if err != nil {
		return fmt.Errorf("marshal tool calls: %w", err)
	}
	toolResults, err := json.Marshal(msg.ToolResults)
	if err != nil {
		return fmt.Errorf("marshal tool results: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO messages (id, session_id, role, content, tool_calls, tool_results, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		msg.ID, msg.SessionID, string(msg.Role), msg.Content, toolCalls, toolResults, msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("create message: %w", err)
	}
	return nil
}

func (s *cockroachMessageStore) ListByConversation(ctx context.Context, conversationID string) ([]*models.Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, role, content, tool_calls, tool_results, created_at
		 FROM messages WHERE session_id = $1 ORDER BY created_at ASC, id ASC`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	messages := []*models.Message{}
	for rows.Next() {
		var msg models.Message
		var role string
		var toolCalls, toolResults []byte
		if err := rows.Scan(&msg.ID, &msg.SessionID, &role, &msg.Content, &toolCalls, &toolResults, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		msg.Role = models.Role(role)
		if len(toolCalls) > 0 {
			if err := json.Unmarshal(toolCalls, &msg.ToolCalls); err != nil {
				return nil, fmt.Errorf("unmarshal tool calls: %w", err)
			}
		}
		if len(toolResults) > 0 {
			if err := json.Unmarshal(toolResults, &msg.ToolResults); err != nil {
				return nil, fmt.Errorf("unmarshal tool results: %w", err)
			}
		}
		messages = append(messages, &msg)
	}
	return messages, rows.Err()
}

type cockroachAuditLogStore struct {
	db *sql.DB
}

func (s *cockroachAuditLogStore) Create(ctx context.Context, entry *models.AuditLog) error {
	if entry == nil || entry.Action == "" {
		return fmt.Errorf("audit action is required")
	}
	details, err := json.Marshal(entry.Details)
	if err != nil {
		return fmt.Errorf("marshal audit details: %w", err)
	}
	err = s.db.QueryRowContext(ctx,
		`INSERT INTO audit_logs (actor, action, resource_type, resource_id, request_id, client_ip, user_agent,
			details, status, error_message, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11) RETURNING id`,
		entry.Actor, entry.Action, entry.ResourceType, entry.ResourceID, entry.RequestID,
		entry.ClientIP, entry.UserAgent, details, entry.Status, entry.ErrorMessage, entry.CreatedAt,
	).Scan(&entry.ID)
	if err != nil {
		return fmt.Errorf("create audit log: %w", err)
	}
	return nil
}

func (s *cockroachAuditLogStore) List(ctx context.Context, actor string, limit, offset int) ([]*models.AuditLog, error) {
	args := []any{}
	query := `SELECT id, actor, action, resource_type, resource_id, request_id, client_ip, user_agent,
		details, status, error_message, created_at FROM audit_logs`
	if actor != "" {
		args = append(args, actor)
		query += fmt.Sprintf(" WHERE actor = $%d", len(args))
	}
	query += " ORDER BY created_at DESC"
	if limit > 0 {
		args = append(args, limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if offset > 0 {
		args = append(args, offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}
	defer rows.Close()

	entries := []*models.AuditLog{}
	for rows.Next() {
		var entry models.AuditLog
		var details []byte
		if err := rows.Scan(
			&entry.ID, &entry.Actor, &entry.Action, &entry.ResourceType, &entry.ResourceID,
			&entry.RequestID, &entry.ClientIP, &entry.UserAgent, &details, &entry.Status,
			&entry.ErrorMessage, &entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan audit log: %w", err)
		}
		if len(details) > 0 {
			if err := json.Unmarshal(details, &entry.Details); err != nil {
				return nil, fmt.Errorf("unmarshal audit details: %w", err)
			}
		}
		entries = append(entries, &entry)
	}
	return entries, rows.Err()
}

func requireRowsAffected(res sql.Result) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}
