package storage

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/maneeshanif/todo-realtime-core/pkg/models"
)

// MemoryTaskStore provides an in-memory TaskStore, useful for tests and
// local development without a Postgres-class database.
type MemoryTaskStore struct {
	mu     sync.RWMutex
	tasks  map[int64]*models.Task
	nextID int64
}

// NewMemoryTaskStore creates an in-memory task store.
func NewMemoryTaskStore() *MemoryTaskStore {
	return &MemoryTaskStore{tasks: make(map[int64]*models.Task)}
}

func (s *MemoryTaskStore) Create(ctx context.Context, task *models.Task) error {
	if task == nil || task.Title == "" {
		return fmt.Errorf("task title is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	task.ID = s.nextID
	s.tasks[task.ID] = task
	return nil
}

func (s *MemoryTaskStore) Get(ctx context.Context, ownerID string, id int64) (*models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	task, ok := s.tasks[id]
	if !ok || task.OwnerID != ownerID {
		return nil, ErrNotFound
	}
	return task, nil
}

func (s *MemoryTaskStore) List(ctx context.Context, ownerID string, filter TaskFilter) ([]*models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	matches := make([]*models.Task, 0, len(s.tasks))
	for _, task := range s.tasks {
		if task.OwnerID != ownerID {
			continue
		}
		if !matchesFilter(task, filter) {
			continue
		}
		matches = append(matches, task)
	}
	sortTasks(matches, filter.SortBy, filter.SortOrder)
	return matches, nil
}

func matchesFilter(task *models.Task, filter TaskFilter) bool {
	switch filter.Status {
	case "pending":
		if task.Completed {
			return false
		}
	case "completed":
		if !task.Completed {
			return false
		}
	}
	if filter.Priority != "" && task.Priority != filter.Priority {
		return false
	}
	if filter.Search != "" {
		needle := strings.ToLower(filter.Search)
		if !strings.Contains(strings.ToLower(task.Title), needle) &&
			!strings.Contains(strings.ToLower(task.Description), needle) {
			return false
		}
	}
	if len(filter.TagIDs) > 0 {
		found := false
		for _, want := range filter.TagIDs {
			for _, have := range task.TagIDs {
				if want == have {
					found = true
				}
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func sortTasks(tasks []*models.Task, sortBy, sortOrder string) {
	desc := strings.EqualFold(sortOrder, "desc")
	less := func(i, j int) bool {
		switch sortBy {
		case "title":
			return tasks[i].Title < tasks[j].Title
		case "priority":
			return tasks[i].Priority < tasks[j].Priority
		case "updated_at":
			return tasks[i].UpdatedAt.Before(tasks[j].UpdatedAt)
		case "due_date":
			return taskDueDate(tasks[i]).Before(taskDueDate(tasks[j]))
		default:
			return tasks[i].CreatedAt.Before(tasks[j].CreatedAt)
		}
	}
	sort.Slice(tasks, func(i, j int) bool {
		if desc {
			return less(j, i)
		}
		return less(i, j)
	})
}

func taskDueDate(task *models.Task) time.Time {
	if task.DueDate == nil {
		return time.Time{}
	}
	return *task.DueDate
}

func (s *MemoryTaskStore) ListRecurring(ctx context.Context, ownerID string) ([]*models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	matches := []*models.Task{}
	for _, task := range s.tasks {
		if task.OwnerID == ownerID && task.IsRecurring {
			matches = append(matches, task)
		}
	}
	return matches, nil
}

func (s *MemoryTaskStore) Update(ctx context.Context, task *models.Task) error {
	if task == nil || task.ID == 0 {
		return fmt.Errorf("task id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.tasks[task.ID]
	if !ok || existing.OwnerID != task.OwnerID {
		return ErrNotFound
	}
	s.tasks[task.ID] = task
	return nil
}

func (s *MemoryTaskStore) Delete(ctx context.Context, ownerID string, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.tasks[id]
	if !ok || existing.OwnerID != ownerID {
		return ErrNotFound
	}
	delete(s.tasks, id)
	return nil
}

// MemoryTagStore provides an in-memory TagStore.
type MemoryTagStore struct {
	mu     sync.RWMutex
	tags   map[int64]*models.Tag
	nextID int64
	tasks  *MemoryTaskStore
}

// NewMemoryTagStore creates an in-memory tag store. tasks is used to resolve
// TagsForTask/TagTask/UntagTask against a task's TagIDs.
func NewMemoryTagStore(tasks *MemoryTaskStore) *MemoryTagStore {
	return &MemoryTagStore{tags: make(map[int64]*models.Tag), tasks: tasks}
}

func (s *MemoryTagStore) Create(ctx context.Context, tag *models.Tag) error {
	if tag == nil || tag.Name == "" {
		return fmt.Errorf("tag name is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.tags {
		if existing.OwnerID == tag.OwnerID && strings.EqualFold(existing.Name, tag.Name) {
			return ErrAlreadyExists
		}
	}
	s.nextID++
	tag.ID = s.nextID
	s.tags[tag.ID] = tag
	return nil
}

func (s *MemoryTagStore) Get(ctx context.Context, ownerID string, id int64) (*models.Tag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tag, ok := s.tags[id]
	if !ok || tag.OwnerID != ownerID {
		return nil, ErrNotFound
	}
	return tag, nil
}

func (s *MemoryTagStore) List(ctx context.Context, ownerID string) ([]*models.Tag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tags := []*models.Tag{}
	for _, tag := range s.tags {
		if tag.OwnerID == ownerID {
			tags = append(tags, tag)
		}
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i].Name < tags[j].Name })
	return tags, nil
}

func (s *MemoryTagStore) Delete(ctx context.Context, ownerID string, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tag, ok := s.tags[id]
	if !ok || tag.OwnerID != ownerID {
		return ErrNotFound
	}
	delete(s.tags, id)
	return nil
}

func (s *MemoryTagStore) TagTask(ctx context.Context, ownerID string, taskID, tagID int64) error {
	task, err := s.tasks.Get(ctx, ownerID, taskID)
	if err != nil {
		return err
	}
	for _, existing := range task.TagIDs {
		if existing == tagID {
			return nil
		}
	}
	task.TagIDs = append(task.TagIDs, tagID)
	return nil
}

func (s *MemoryTagStore) UntagTask(ctx context.Context, ownerID string, taskID, tagID int64) error {
	task, err := s.tasks.Get(ctx, ownerID, taskID)
	if err != nil {
		return err
	}
	filtered := task.TagIDs[:0]
	for _, existing := range task.TagIDs {
		if existing != tagID {
			filtered = append(filtered, existing)
		}
	}
	task.TagIDs = filtered
	return nil
}

func (s *MemoryTagStore) TagsForTask(ctx context.Context, ownerID string, taskID int64) ([]*models.Tag, error) {
	task, err := s.tasks.Get(ctx, ownerID, taskID)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	tags := []*models.Tag{}
	for _, tagID := range task.TagIDs {
		if tag, ok := s.tags[tagID]; ok {
			tags = append(tags, tag)
		}
	}
	return tags, nil
}

// MemoryReminderStore provides an in-memory ReminderStore.
type MemoryReminderStore struct {
	mu        sync.RWMutex
	reminders map[int64]*models.Reminder
	nextID    int64
}

// NewMemoryReminderStore creates an in-memory reminder store.
func NewMemoryReminderStore() *MemoryReminderStore {
	return &MemoryReminderStore{reminders: make(map[int64]*models.Reminder)}
}

func (s *MemoryReminderStore) Create(ctx context.Context, reminder *models.Reminder) error {
	if reminder == nil || reminder.TaskID == 0 {
		return fmt.Errorf("reminder task id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	reminder.ID = s.nextID
	s.reminders[reminder.ID] = reminder
	return nil
}

func (s *MemoryReminderStore) Get(ctx context.Context, id int64) (*models.Reminder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	reminder, ok := s.reminders[id]
	if !ok {
		return nil, ErrNotFound
	}
	return reminder, nil
}

func (s *MemoryReminderStore) GetPendingForTask(ctx context.Context, taskID int64) (*models.Reminder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, reminder := range s.reminders {
		if reminder.TaskID == taskID && reminder.Status == models.ReminderPending {
			return reminder, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryReminderStore) List(ctx context.Context, ownerID string, taskID int64) ([]*models.Reminder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	reminders := []*models.Reminder{}
	for _, reminder := range s.reminders {
		if reminder.OwnerID != ownerID {
			continue
		}
		if taskID != 0 && reminder.TaskID != taskID {
			continue
		}
		reminders = append(reminders, reminder)
	}
	sort.Slice(reminders, func(i, j int) bool { return reminders[i].RemindAt.Before(reminders[j].RemindAt) })
	return reminders, nil
}

func (s *MemoryReminderStore) ListUpcoming(ctx context.Context, ownerID string, hours int) ([]*models.Reminder, error) {
	cutoff := time.Now().Add(time.Duration(hours) * time.Hour)
	s.mu.RLock()
	defer s.mu.RUnlock()
	reminders := []*models.Reminder{}
	for _, reminder := range s.reminders {
		if reminder.OwnerID != ownerID || reminder.Status != models.ReminderPending {
			continue
		}
		if reminder.RemindAt.After(cutoff) {
			continue
		}
		reminders = append(reminders, reminder)
	}
	sort.Slice(reminders, func(i, j int) bool { return reminders[i].RemindAt.Before(reminders[j].RemindAt) })
	return reminders, nil
}

func (s *MemoryReminderStore) Update(ctx context.Context, reminder *models.Reminder) error {
	if reminder == nil || reminder.ID == 0 {
		return fmt.Errorf("reminder id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.reminders[reminder.ID]; !ok {
		return ErrNotFound
	}
	s.reminders[reminder.ID] = reminder
	return nil
}

func (s *MemoryReminderStore) Delete(ctx context.Context, ownerID string, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	reminder, ok := s.reminders[id]
	if !ok || reminder.OwnerID != ownerID {
		return ErrNotFound
	}
	delete(s.reminders, id)
	return nil
}

// MemoryConversationStore provides an in-memory ConversationStore.
type MemoryConversationStore struct {
	mu            sync.RWMutex
	conversations map[string]*models.Conversation
}

// NewMemoryConversationStore creates an in-memory conversation store.
func NewMemoryConversationStore() *MemoryConversationStore {
	return &MemoryConversationStore{conversations: make(map[string]*models.Conversation)}
}

func (s *MemoryConversationStore) Create(ctx context.Context, conv *models.Conversation) error {
	if conv == nil || conv.ID == "" {
		return fmt.Errorf("conversation id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.conversations[conv.ID]; exists {
		return ErrAlreadyExists
	}
	s.conversations[conv.ID] = conv
	return nil
}

func (s *MemoryConversationStore) Get(ctx context.Context, ownerID, id string) (*models.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	conv, ok := s.conversations[id]
	if !ok || conv.OwnerID != ownerID {
		return nil, ErrNotFound
	}
	return conv, nil
}

func (s *MemoryConversationStore) List(ctx context.Context, ownerID string, limit, offset int) ([]*models.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	convs := []*models.Conversation{}
	for _, conv := range s.conversations {
		if conv.OwnerID == ownerID {
			convs = append(convs, conv)
		}
	}
	sort.Slice(convs, func(i, j int) bool { return convs[i].UpdatedAt.After(convs[j].UpdatedAt) })
	return paginateConversations(convs, limit, offset), nil
}

func paginateConversations(convs []*models.Conversation, limit, offset int) []*models.Conversation {
	if offset < 0 {
		offset = 0
	}
	if offset > len(convs) {
		offset = len(convs)
	}
	end := len(convs)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return convs[offset:end]
}

func (s *MemoryConversationStore) Update(ctx context.Context, conv *models.Conversation) error {
	if conv == nil || conv.ID == "" {
		return fmt.Errorf("conversation id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.conversations[conv.ID]; !exists {
		return ErrNotFound
	}
	s.conversations[conv.ID] = conv
	return nil
}

// MemoryMessageStore provides an in-memory MessageStore.
type MemoryMessageStore struct {
	mu       sync.RWMutex
	messages map[string][]*models.Message
}

// NewMemoryMessageStore creates an in-memory message store.
func NewMemoryMessageStore() *MemoryMessageStore {
	return &MemoryMessageStore{messages: make(map[string][]*models.Message)}
}

func (s *MemoryMessageStore) Create(ctx context.Context, msg *models.Message) error {
	if msg == nil || msg.ID == "" {
		return fmt.Errorf("message id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages[msg.SessionID] = append(s.messages[msg.SessionID], msg)
	return nil
}

func (s *MemoryMessageStore) ListByConversation(ctx context.Context, conversationID string) ([]*models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	messages := s.messages[conversationID]
	out := make([]*models.Message, len(messages))
	copy(out, messages)
	return out, nil
}

// MemoryAuditLogStore provides an in-memory AuditLogStore.
type MemoryAuditLogStore struct {
	mu      sync.RWMutex
	entries []*models.AuditLog
	nextID  int64
}

// NewMemoryAuditLogStore creates an in-memory audit log store.
func NewMemoryAuditLogStore() *MemoryAuditLogStore {
	return &MemoryAuditLogStore{}
}

func (s *MemoryAuditLogStore) Create(ctx context.Context, entry *models.AuditLog) error {
	if entry == nil || entry.Action == "" {
		return fmt.Errorf("audit action is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	entry.ID = s.nextID
	s.entries = append(s.entries, entry)
	return nil
}

func (s *MemoryAuditLogStore) List(ctx context.Context, actor string, limit, offset int) ([]*models.AuditLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	matches := []*models.AuditLog{}
	for i := len(s.entries) - 1; i >= 0; i-- {
		entry := s.entries[i]
		if actor != "" && entry.Actor != actor {
			continue
		}
		matches = append(matches, entry)
	}
	if offset < 0 {
		offset = 0
	}
	if offset > len(matches) {
		offset = len(matches)
	}
	end := len(matches)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return matches[offset:end], nil
}

// NewMemoryStores constructs a StoreSet backed entirely by memory, for tests
// and local development.
func NewMemoryStores() StoreSet {
	tasks := NewMemoryTaskStore()
	return StoreSet{
		Tasks:         tasks,
		Tags:          NewMemoryTagStore(tasks),
		Reminders:     NewMemoryReminderStore(),
		Conversations: NewMemoryConversationStore(),
		Messages:      NewMemoryMessageStore(),
		AuditLogs:     NewMemoryAuditLogStore(),
	}
}
