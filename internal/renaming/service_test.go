package renaming

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/advflow/advflow/constants"
	"github.com/advflow/advflow/internal/common"
	"github.com/advflow/advflow/internal/entity"
	"github.com/advflow/advflow/internal/llm"
	"github.com/advflow/advflow/internal/naming"
	"github.com/advflow/advflow/internal/repository"
)

// fakeDocs is an in-memory DocumentRepository good enough for rename flows.
type fakeDocs struct {
	mu   sync.Mutex
	docs map[uuid.UUID]*entity.Document
}

func newFakeDocs() *fakeDocs {
	return &fakeDocs{docs: make(map[uuid.UUID]*entity.Document)}
}

func (f *fakeDocs) add(d *entity.Document) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	f.docs[d.ID] = d
}

func (f *fakeDocs) Create(_ context.Context, d *entity.Document) error {
	f.add(d)
	return nil
}

func (f *fakeDocs) GetByID(_ context.Context, id uuid.UUID) (*entity.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.docs[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (f *fakeDocs) List(context.Context, repository.DocumentFilter) ([]*entity.Document, error) {
	return nil, nil
}

func (f *fakeDocs) Search(context.Context, string, repository.DocumentFilter) ([]*entity.Document, error) {
	return nil, nil
}

func (f *fakeDocs) UpdateName(_ context.Context, id uuid.UUID, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.docs[id]
	if !ok {
		return common.ErrNotFound
	}
	d.Name = name
	return nil
}

func (f *fakeDocs) SetExtractedText(_ context.Context, id uuid.UUID, text string, ocrOrigin bool) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.docs[id]
	if !ok {
		return false, common.ErrNotFound
	}
	if !ocrOrigin && d.ExtractedText != nil && *d.ExtractedText != "" {
		return false, nil
	}
	d.ExtractedText = &text
	d.OCROrigin = d.OCROrigin || ocrOrigin
	return true, nil
}

func (f *fakeDocs) LastRenamed(_ context.Context, clientID uuid.UUID) (*entity.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var best *entity.Document
	bestSeq := 0
	for _, d := range f.docs {
		if d.ClientID == nil || *d.ClientID != clientID {
			continue
		}
		if n, ok := naming.Parse(d.Name); ok && n.Seq > bestSeq {
			bestSeq = n.Seq
			cp := *d
			best = &cp
		}
	}
	return best, nil
}

func (f *fakeDocs) CountContext(_ context.Context, clientID uuid.UUID) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, d := range f.docs {
		if d.ClientID != nil && *d.ClientID == clientID && d.Category == constants.CategoryContext {
			n++
		}
	}
	return n, nil
}

func (f *fakeDocs) Delete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.docs, id)
	return nil
}

type fakeClients struct {
	clients map[uuid.UUID]*entity.Client
}

func (f *fakeClients) Create(_ context.Context, c *entity.Client) error { return nil }
func (f *fakeClients) GetByID(_ context.Context, id uuid.UUID) (*entity.Client, error) {
	c, ok := f.clients[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return c, nil
}
func (f *fakeClients) List(context.Context) ([]*entity.Client, error)           { return nil, nil }
func (f *fakeClients) Rename(context.Context, uuid.UUID, string) error          { return nil }
func (f *fakeClients) Delete(context.Context, uuid.UUID) error                  { return nil }

// fakeRenamer replies from a function, recording call order.
type fakeRenamer struct {
	mu    sync.Mutex
	calls []llm.RenameRequest
	reply func(req llm.RenameRequest) (string, error)
}

func (f *fakeRenamer) SuggestName(_ context.Context, req llm.RenameRequest) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	f.mu.Unlock()
	return f.reply(req)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func seedClient(name string) (*fakeClients, uuid.UUID) {
	id := uuid.New()
	return &fakeClients{clients: map[uuid.UUID]*entity.Client{
		id: {ID: id, Name: name},
	}}, id
}

func textPtr(s string) *string { return &s }

func TestRenameFirstDocumentGets001(t *testing.T) {
	docs := newFakeDocs()
	clients, clientID := seedClient("João Silva")
	doc := &entity.Document{
		Name:          "rg.pdf",
		OriginalName:  "rg.pdf",
		ClientID:      &clientID,
		MimeType:      "application/pdf",
		ExtractedText: textPtr("REGISTRO GERAL"),
	}
	docs.add(doc)

	renamer := &fakeRenamer{reply: func(req llm.RenameRequest) (string, error) {
		require.Nil(t, req.LastDocument)
		return "DOC n. 001 + JOAO_SILVA + RG + 2024-03-15", nil
	}}
	svc := NewService(docs, clients, nil, renamer, discardLogger())

	name, err := svc.RenameDocument(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "DOC n. 001 + JOAO_SILVA + RG + 2024-03-15", name)

	got, _ := docs.GetByID(context.Background(), doc.ID)
	assert.Equal(t, name, got.Name)
}

func TestRenameSecondDocumentGetsNextSeq(t *testing.T) {
	docs := newFakeDocs()
	clients, clientID := seedClient("João Silva")
	docs.add(&entity.Document{
		Name:     "DOC n. 001 + JOAO_SILVA + CPF + 2024-03-14",
		ClientID: &clientID,
	})
	doc := &entity.Document{
		Name:          "contrato.pdf",
		OriginalName:  "contrato.pdf",
		ClientID:      &clientID,
		ExtractedText: textPtr("CONTRATO DE TRABALHO"),
	}
	docs.add(doc)

	renamer := &fakeRenamer{reply: func(req llm.RenameRequest) (string, error) {
		require.NotNil(t, req.LastDocument)
		assert.Equal(t, 1, req.LastDocument.Number)
		return "DOC n. 002 + JOAO_SILVA + CONTRATO_TRABALHO + 2024-03-15", nil
	}}
	svc := NewService(docs, clients, nil, renamer, discardLogger())

	name, err := svc.RenameDocument(context.Background(), doc.ID)
	require.NoError(t, err)
	parsed, ok := naming.Parse(name)
	require.True(t, ok)
	assert.Equal(t, 2, parsed.Seq)
}

func TestRenameForcesExpectedSeqWhenModelDisagrees(t *testing.T) {
	docs := newFakeDocs()
	clients, clientID := seedClient("Ana")
	docs.add(&entity.Document{
		Name:     "DOC n. 004 + ANA + RG + 2024-03-10",
		ClientID: &clientID,
	})
	doc := &entity.Document{Name: "x.pdf", OriginalName: "x.pdf", ClientID: &clientID}
	docs.add(doc)

	renamer := &fakeRenamer{reply: func(llm.RenameRequest) (string, error) {
		return "DOC n. 001 + ANA + RECIBO + 2024-03-15", nil
	}}
	svc := NewService(docs, clients, nil, renamer, discardLogger())

	name, err := svc.RenameDocument(context.Background(), doc.ID)
	require.NoError(t, err)
	parsed, _ := naming.Parse(name)
	assert.Equal(t, 5, parsed.Seq)
}

func TestRenameSalvagesMalformedReply(t *testing.T) {
	docs := newFakeDocs()
	clients, clientID := seedClient("João Silva")
	doc := &entity.Document{Name: "a.pdf", OriginalName: "a.pdf", ClientID: &clientID}
	docs.add(doc)

	renamer := &fakeRenamer{reply: func(llm.RenameRequest) (string, error) {
		return "Claro! O nome sugerido é: contrato de trabalho, data 2024-03-15.", nil
	}}
	svc := NewService(docs, clients, nil, renamer, discardLogger())

	name, err := svc.RenameDocument(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.True(t, naming.IsCanonical(name))
	parsed, _ := naming.Parse(name)
	assert.Equal(t, 1, parsed.Seq)
	assert.Equal(t, "JOAO_SILVA", parsed.Client)
	assert.Equal(t, "CONTRATO_TRABALHO", parsed.Type)
}

func TestRenameSkipsContextDocuments(t *testing.T) {
	docs := newFakeDocs()
	clients, clientID := seedClient("Ana")
	doc := &entity.Document{
		Name:     "Contexto n. 001",
		ClientID: &clientID,
		Category: constants.CategoryContext,
	}
	docs.add(doc)

	renamer := &fakeRenamer{reply: func(llm.RenameRequest) (string, error) {
		t.Fatal("model must not be called for context documents")
		return "", nil
	}}
	svc := NewService(docs, clients, nil, renamer, discardLogger())

	name, err := svc.RenameDocument(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "Contexto n. 001", name)
}

func TestRenameSkipsAlreadyCanonicalName(t *testing.T) {
	docs := newFakeDocs()
	clients, clientID := seedClient("Ana")
	doc := &entity.Document{
		Name:     "DOC n. 003 + ANA + RG + 2024-01-01",
		ClientID: &clientID,
	}
	docs.add(doc)

	renamer := &fakeRenamer{reply: func(llm.RenameRequest) (string, error) {
		t.Fatal("model must not be called for already renamed documents")
		return "", nil
	}}
	svc := NewService(docs, clients, nil, renamer, discardLogger())

	name, err := svc.RenameDocument(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, doc.Name, name)
}

func TestRenameKeepsOriginalNameOnModelError(t *testing.T) {
	docs := newFakeDocs()
	clients, clientID := seedClient("Ana")
	doc := &entity.Document{Name: "a.pdf", OriginalName: "a.pdf", ClientID: &clientID}
	docs.add(doc)

	renamer := &fakeRenamer{reply: func(llm.RenameRequest) (string, error) {
		return "", errors.New("openai status 500")
	}}
	svc := NewService(docs, clients, nil, renamer, discardLogger())

	_, err := svc.RenameDocument(context.Background(), doc.ID)
	require.Error(t, err)

	got, _ := docs.GetByID(context.Background(), doc.ID)
	assert.Equal(t, "a.pdf", got.Name)
}

func TestRenameSequenceAcrossConsecutiveRuns(t *testing.T) {
	docs := newFakeDocs()
	clients, clientID := seedClient("Maria das Dores")
	svc := NewService(docs, clients, nil, &fakeRenamer{reply: func(req llm.RenameRequest) (string, error) {
		// Behave like a cooperative model: respect the announced number.
		next := 1
		if req.LastDocument != nil {
			next = req.LastDocument.Number + 1
		}
		return naming.DocName{
			Seq: next, Client: "MARIA_DAS_DORES", Type: "RECIBO", Date: "2024-05-01",
		}.Format(), nil
	}}, discardLogger())

	for want := 1; want <= 3; want++ {
		doc := &entity.Document{Name: "r.pdf", OriginalName: "r.pdf", ClientID: &clientID}
		docs.add(doc)
		name, err := svc.RenameDocument(context.Background(), doc.ID)
		require.NoError(t, err)
		parsed, _ := naming.Parse(name)
		assert.Equal(t, want, parsed.Seq)
	}
}
