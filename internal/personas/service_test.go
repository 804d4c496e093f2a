package personas

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pitchlab/pitchlab/internal/shared"
)

type mockRepository struct {
	personas  map[int64]*Persona
	documents map[int64]*KnowledgeDocument
	contents  map[int64][]byte
	nextID    int64
	nextDocID int64

	createDocError error
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		personas:  make(map[int64]*Persona),
		documents: make(map[int64]*KnowledgeDocument),
		contents:  make(map[int64][]byte),
		nextID:    1,
		nextDocID: 1,
	}
}

func (m *mockRepository) List(ctx context.Context, tenantID string, filters ListFilters) ([]Persona, int, error) {
	var out []Persona
	for _, p := range m.personas {
		if p.TenantID == tenantID {
			out = append(out, *p)
		}
	}
	return out, len(out), nil
}

func (m *mockRepository) Get(ctx context.Context, tenantID string, id int64) (*Persona, error) {
	p, ok := m.personas[id]
	if !ok || p.TenantID != tenantID {
		return nil, shared.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *mockRepository) Create(ctx context.Context, p Persona) (*Persona, error) {
	p.ID = m.nextID
	m.nextID++
	m.personas[p.ID] = &p
	cp := p
	return &cp, nil
}

func (m *mockRepository) Update(ctx context.Context, p Persona) (*Persona, error) {
	existing, ok := m.personas[p.ID]
	if !ok || existing.TenantID != p.TenantID {
		return nil, shared.ErrNotFound
	}
	m.personas[p.ID] = &p
	cp := p
	return &cp, nil
}

func (m *mockRepository) Delete(ctx context.Context, tenantID string, id int64) error {
	p, ok := m.personas[id]
	if !ok || p.TenantID != tenantID {
		return shared.ErrNotFound
	}
	delete(m.personas, id)
	return nil
}

func (m *mockRepository) CreateDocument(ctx context.Context, d KnowledgeDocument, content []byte) (*KnowledgeDocument, error) {
	if m.createDocError != nil {
		return nil, m.createDocError
	}
	d.ID = m.nextDocID
	m.nextDocID++
	m.documents[d.ID] = &d
	m.contents[d.ID] = content
	cp := d
	return &cp, nil
}

func (m *mockRepository) GetDocument(ctx context.Context, tenantID string, id int64) (*KnowledgeDocument, error) {
	d, ok := m.documents[id]
	if !ok || d.TenantID != tenantID {
		return nil, shared.ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (m *mockRepository) ListDocuments(ctx context.Context, tenantID string, personaID int64) ([]KnowledgeDocument, error) {
	var out []KnowledgeDocument
	for _, d := range m.documents {
		if d.TenantID == tenantID && d.PersonaID == personaID {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (m *mockRepository) MarkDocumentStatus(ctx context.Context, tenantID string, id int64, status string) error {
	d, ok := m.documents[id]
	if !ok || d.TenantID != tenantID {
		return shared.ErrNotFound
	}
	d.Status = status
	return nil
}

type mockQueue struct {
	enqueued []int64
	err      error
}

func (m *mockQueue) EnqueueKnowledgeIngest(ctx context.Context, tenantID string, documentID int64) error {
	if m.err != nil {
		return m.err
	}
	m.enqueued = append(m.enqueued, documentID)
	return nil
}

func TestCreatePersonaDefaults(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, nil, nil)

	created, err := svc.Create(context.Background(), 1, Persona{TenantID: "T1", Name: " VP of Procurement "})
	require.NoError(t, err)
	assert.Equal(t, "VP of Procurement", created.Name)
	assert.Equal(t, TemperamentFriendly, created.Temperament)
	assert.Equal(t, StatusDraft, created.Status)
	assert.NotNil(t, created.Objections)
}

func TestCreatePersonaValidation(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, nil, nil)

	_, err := svc.Create(context.Background(), 1, Persona{TenantID: "T1", Name: ""})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Create(context.Background(), 1, Persona{TenantID: "T1", Name: "x", Temperament: "furious"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestUpdatePersonaArchivedStaysArchived(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, nil, nil)

	created, err := svc.Create(context.Background(), 1, Persona{TenantID: "T1", Name: "CFO", Status: StatusArchived})
	require.NoError(t, err)

	created.Status = StatusActive
	_, err = svc.Update(context.Background(), 1, *created)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestUploadDocumentEnqueuesIngestion(t *testing.T) {
	repo := newMockRepository()
	queue := &mockQueue{}
	svc := NewService(repo, queue, nil)

	persona, err := svc.Create(context.Background(), 1, Persona{TenantID: "T1", Name: "CFO"})
	require.NoError(t, err)

	doc, err := svc.UploadDocument(context.Background(), 9, KnowledgeDocument{
		PersonaID: persona.ID,
		TenantID:  "T1",
		Filename:  "pricing-guide.pdf",
		MimeType:  "application/pdf",
	}, []byte("%PDF-1.7 ..."))
	require.NoError(t, err)

	assert.Equal(t, DocumentPending, doc.Status)
	assert.Equal(t, int64(9), doc.UploadedBy)
	assert.Equal(t, int64(12), doc.SizeBytes)
	assert.Equal(t, []int64{doc.ID}, queue.enqueued)
}

func TestUploadDocumentValidation(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, &mockQueue{}, nil)

	persona, err := svc.Create(context.Background(), 1, Persona{TenantID: "T1", Name: "CFO"})
	require.NoError(t, err)

	_, err = svc.UploadDocument(context.Background(), 1, KnowledgeDocument{
		PersonaID: persona.ID, TenantID: "T1", Filename: "a.pdf",
	}, nil)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.UploadDocument(context.Background(), 1, KnowledgeDocument{
		PersonaID: persona.ID, TenantID: "T1", Filename: "a.pdf",
	}, bytes.Repeat([]byte("x"), MaxDocumentBytes+1))
	assert.ErrorIs(t, err, ErrValidation)

	// Unknown persona rejects the upload outright.
	_, err = svc.UploadDocument(context.Background(), 1, KnowledgeDocument{
		PersonaID: 999, TenantID: "T1", Filename: "a.pdf",
	}, []byte("hello"))
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestUploadDocumentSurvivesEnqueueFailure(t *testing.T) {
	repo := newMockRepository()
	queue := &mockQueue{err: errors.New("redis down")}
	svc := NewService(repo, queue, nil)

	persona, err := svc.Create(context.Background(), 1, Persona{TenantID: "T1", Name: "CFO"})
	require.NoError(t, err)

	doc, err := svc.UploadDocument(context.Background(), 1, KnowledgeDocument{
		PersonaID: persona.ID, TenantID: "T1", Filename: "a.txt",
	}, []byte("notes"))
	require.NoError(t, err)
	assert.Equal(t, DocumentPending, doc.Status)
	assert.Empty(t, queue.enqueued)
}
