package service

import (
	"context"
	"strings"
	"sync"

	"github.com/haierkeys/fast-note-service/internal/domain"
	"github.com/haierkeys/fast-note-service/internal/dto"

	"gorm.io/gorm"
)

// mockNoteRepo in-memory RevisionedNoteRepository
type mockNoteRepo struct {
	mu       sync.Mutex
	notes    map[int64]*domain.Note
	nextID   int64
	nextHist int64
	saves    int
}

func newMockNoteRepo() *mockNoteRepo {
	return &mockNoteRepo{notes: make(map[int64]*domain.Note)}
}

func cloneNote(n *domain.Note) *domain.Note {
	c := *n
	c.History = append([]domain.HistoryEntry(nil), n.History...)
	c.TagIDs = append([]int64(nil), n.TagIDs...)
	return &c
}

func (m *mockNoteRepo) FindOwnedByID(ctx context.Context, id, uid int64) (*domain.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.notes[id]
	if !ok || n.UID != uid {
		return nil, gorm.ErrRecordNotFound
	}
	return cloneNote(n), nil
}

func (m *mockNoteRepo) FindAllOwned(ctx context.Context, uid int64, filter domain.NoteFilter) ([]*domain.Note, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	term := strings.ToLower(filter.Search)
	var out []*domain.Note
	for id := int64(1); id <= m.nextID; id++ {
		n, ok := m.notes[id]
		if !ok || n.UID != uid {
			continue
		}
		if term != "" && !strings.Contains(strings.ToLower(n.Title), term) && !strings.Contains(strings.ToLower(n.Content), term) {
			continue
		}
		c := cloneNote(n)
		c.History = nil
		out = append(out, c)
	}
	return out, int64(len(out)), nil
}

func (m *mockNoteRepo) Save(ctx context.Context, note *domain.Note) (*domain.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.save(note), nil
}

func (m *mockNoteRepo) save(note *domain.Note) *domain.Note {
	m.saves++
	c := cloneNote(note)
	if c.ID == 0 {
		m.nextID++
		c.ID = m.nextID
		c.Revision = 1
	} else {
		c.Revision = m.notes[c.ID].Revision + 1
	}
	for i := range c.History {
		if c.History[i].ID == 0 {
			m.nextHist++
			c.History[i].ID = m.nextHist
			c.History[i].NoteID = c.ID
		}
	}
	m.notes[c.ID] = c
	return cloneNote(c)
}

func (m *mockNoteRepo) SaveIfRevision(ctx context.Context, note *domain.Note, expected int64) (*domain.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.notes[note.ID]
	if !ok || cur.UID != note.UID {
		return nil, gorm.ErrRecordNotFound
	}
	if cur.Revision != expected {
		return nil, domain.ErrRevisionConflict
	}
	return m.save(note), nil
}

func (m *mockNoteRepo) DeleteOwnedByID(ctx context.Context, id, uid int64) (*domain.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.notes[id]
	if !ok || n.UID != uid {
		return nil, gorm.ErrRecordNotFound
	}
	delete(m.notes, id)
	return n, nil
}

// plainNoteRepo hides SaveIfRevision
type plainNoteRepo struct {
	domain.NoteRepository
}

type mockFolderRepo struct {
	domain.FolderRepository
	folders map[int64]*domain.Folder
	deleted []int64
}

func (m *mockFolderRepo) GetByID(ctx context.Context, id int64) (*domain.Folder, error) {
	f, ok := m.folders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	c := *f
	return &c, nil
}

func (m *mockFolderRepo) Update(ctx context.Context, folder *domain.Folder) (*domain.Folder, error) {
	c := *folder
	m.folders[folder.ID] = &c
	return folder, nil
}

func (m *mockFolderRepo) Delete(ctx context.Context, id int64) error {
	delete(m.folders, id)
	m.deleted = append(m.deleted, id)
	return nil
}

type mockTagRepo struct {
	domain.TagRepository
	tags   map[int64]*domain.Tag
	nextID int64
}

func newMockTagRepo(names ...string) *mockTagRepo {
	m := &mockTagRepo{tags: make(map[int64]*domain.Tag)}
	for _, name := range names {
		m.nextID++
		m.tags[m.nextID] = &domain.Tag{ID: m.nextID, Name: name}
	}
	return m
}

func (m *mockTagRepo) GetByID(ctx context.Context, id int64) (*domain.Tag, error) {
	t, ok := m.tags[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	c := *t
	return &c, nil
}

func (m *mockTagRepo) GetByName(ctx context.Context, name string) (*domain.Tag, error) {
	for _, t := range m.tags {
		if t.Name == name {
			c := *t
			return &c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockTagRepo) CountByIDs(ctx context.Context, ids []int64) (int64, error) {
	var n int64
	for _, id := range ids {
		if _, ok := m.tags[id]; ok {
			n++
		}
	}
	return n, nil
}

func (m *mockTagRepo) Create(ctx context.Context, tag *domain.Tag) (*domain.Tag, error) {
	m.nextID++
	c := *tag
	c.ID = m.nextID
	m.tags[c.ID] = &c
	return &c, nil
}

func (m *mockTagRepo) Update(ctx context.Context, tag *domain.Tag) (*domain.Tag, error) {
	c := *tag
	m.tags[tag.ID] = &c
	return tag, nil
}

type mockUserRepo struct {
	domain.UserRepository
	mu     sync.Mutex
	users  map[int64]*domain.User
	nextID int64
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[int64]*domain.User)}
}

func (m *mockUserRepo) GetByUID(ctx context.Context, uid int64) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[uid]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	c := *u
	c.Password = ""
	return &c, nil
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == user.Email {
			return nil, gorm.ErrDuplicatedKey
		}
	}
	m.nextID++
	c := *user
	c.UID = m.nextID
	m.users[c.UID] = &c
	out := c
	return &out, nil
}

type publishedEvent struct {
	kind domain.NoteEventKind
	note *dto.NoteDTO
}

// recordingNotifier collects events synchronously
type recordingNotifier struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (r *recordingNotifier) Publish(ctx context.Context, kind domain.NoteEventKind, note *dto.NoteDTO) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, publishedEvent{kind: kind, note: note})
}

func (r *recordingNotifier) count(kind domain.NoteEventKind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.kind == kind {
			n++
		}
	}
	return n
}
