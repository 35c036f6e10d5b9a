package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/advflow/advflow/constants"
	"github.com/advflow/advflow/internal/common"
	"github.com/advflow/advflow/internal/drafting"
	"github.com/advflow/advflow/internal/entity"
	"github.com/advflow/advflow/internal/export"
	"github.com/advflow/advflow/internal/repository"
	"github.com/advflow/advflow/internal/storage"
	"github.com/advflow/advflow/internal/tasks"
	"github.com/advflow/advflow/internal/upload"
)

type stubUploader struct {
	res          *upload.Result
	err          error
	got          []upload.Request
	reprocessID  uuid.UUID
	reprocessErr error
}

func (s *stubUploader) Upload(_ context.Context, req upload.Request) (*upload.Result, error) {
	s.got = append(s.got, req)
	if s.err != nil {
		return nil, s.err
	}
	return s.res, nil
}

func (s *stubUploader) Reprocess(_ context.Context, _ uuid.UUID) (uuid.UUID, error) {
	if s.reprocessErr != nil {
		return uuid.Nil, s.reprocessErr
	}
	return s.reprocessID, nil
}

type stubDrafts struct {
	petition *entity.Petition
	err      error
	got      []drafting.Request
}

func (s *stubDrafts) Generate(_ context.Context, req drafting.Request) (*entity.Petition, error) {
	s.got = append(s.got, req)
	if s.err != nil {
		return nil, s.err
	}
	return s.petition, nil
}

type stubExports struct {
	art *export.Artifact
	err error
}

func (s *stubExports) ExportDocx(context.Context, string, string, string) (*export.Artifact, error) {
	return s.art, s.err
}

func (s *stubExports) ExportPdf(context.Context, string, string, string) (*export.Artifact, error) {
	return s.art, s.err
}

func (s *stubExports) ExportInventoryXLSX(context.Context, uuid.UUID) (*export.Artifact, error) {
	return s.art, s.err
}

type stubDocs struct {
	repository.DocumentRepository
	byID map[uuid.UUID]*entity.Document
}

func (s *stubDocs) GetByID(_ context.Context, id uuid.UUID) (*entity.Document, error) {
	d, ok := s.byID[id]
	if !ok {
		return nil, common.WrapError(common.ErrNotFound, "document not found")
	}
	return d, nil
}

func (s *stubDocs) List(context.Context, repository.DocumentFilter) ([]*entity.Document, error) {
	var out []*entity.Document
	for _, d := range s.byID {
		out = append(out, d)
	}
	return out, nil
}

func (s *stubDocs) UpdateName(_ context.Context, id uuid.UUID, name string) error {
	d, ok := s.byID[id]
	if !ok {
		return common.ErrNotFound
	}
	d.Name = name
	return nil
}

func (s *stubDocs) Delete(_ context.Context, id uuid.UUID) error {
	delete(s.byID, id)
	return nil
}

type stubClients struct {
	repository.ClientRepository
	byID map[uuid.UUID]*entity.Client
}

func (s *stubClients) Create(_ context.Context, c *entity.Client) error {
	if strings.TrimSpace(c.Name) == "" {
		return common.WrapError(common.ErrValidation, "client name is required")
	}
	c.ID = uuid.New()
	s.byID[c.ID] = c
	return nil
}

func (s *stubClients) List(context.Context) ([]*entity.Client, error) {
	var out []*entity.Client
	for _, c := range s.byID {
		out = append(out, c)
	}
	return out, nil
}

func (s *stubClients) GetByID(_ context.Context, id uuid.UUID) (*entity.Client, error) {
	c, ok := s.byID[id]
	if !ok {
		return nil, common.WrapError(common.ErrNotFound, "client not found")
	}
	return c, nil
}

type stubPetitions struct {
	repository.PetitionRepository
	byID map[uuid.UUID]*entity.Petition
}

func (s *stubPetitions) GetByID(_ context.Context, id uuid.UUID) (*entity.Petition, error) {
	p, ok := s.byID[id]
	if !ok {
		return nil, common.WrapError(common.ErrNotFound, "petition not found")
	}
	return p, nil
}

type stubPrefs struct {
	saved map[string]*entity.UserPrefs
}

func (s *stubPrefs) Get(_ context.Context, userID string) (*entity.UserPrefs, error) {
	if p, ok := s.saved[userID]; ok {
		return p, nil
	}
	return &entity.UserPrefs{UserID: userID, Font: entity.DefaultFontPrefs()}, nil
}

func (s *stubPrefs) Save(_ context.Context, p *entity.UserPrefs) error {
	s.saved[p.UserID] = p
	return nil
}

type testEnv struct {
	srv       *httptest.Server
	uploader  *stubUploader
	drafts    *stubDrafts
	exports   *stubExports
	docs      *stubDocs
	clients   *stubClients
	petitions *stubPetitions
	prefs     *stubPrefs
	registry  *tasks.Registry
	store     *storage.MemStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	e := &testEnv{
		uploader:  &stubUploader{},
		drafts:    &stubDrafts{},
		exports:   &stubExports{},
		docs:      &stubDocs{byID: map[uuid.UUID]*entity.Document{}},
		clients:   &stubClients{byID: map[uuid.UUID]*entity.Client{}},
		petitions: &stubPetitions{byID: map[uuid.UUID]*entity.Petition{}},
		prefs:     &stubPrefs{saved: map[string]*entity.UserPrefs{}},
		registry:  tasks.NewRegistry(nil),
		store:     storage.NewMemStore(),
	}
	s := New(common.ServerConfig{MaxUploadBytes: 10 << 20, MaxUploads: 4}, Deps{
		Uploads:   e.uploader,
		Drafts:    e.drafts,
		Exports:   e.exports,
		Docs:      e.docs,
		Clients:   e.clients,
		Petitions: e.petitions,
		Prefs:     e.prefs,
		Store:     e.store,
		Registry:  e.registry,
	}, nil)
	e.srv = httptest.NewServer(s.Handler())
	t.Cleanup(e.srv.Close)
	return e
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestHealth(t *testing.T) {
	e := newTestEnv(t)
	resp, err := http.Get(e.srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func multipartUpload(t *testing.T, url string, fields map[string]string, fileName string, file []byte) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	fw, err := mw.CreateFormFile("file", fileName)
	require.NoError(t, err)
	_, err = fw.Write(file)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	resp, err := http.Post(url+"/v1/documents", mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	return resp
}

func TestUpload(t *testing.T) {
	e := newTestEnv(t)
	clientID := uuid.New()
	taskID := uuid.New()
	e.uploader.res = &upload.Result{
		Document:         &entity.Document{ID: uuid.New(), Name: "doc.pdf", ClientID: &clientID},
		ExtractionTaskID: &taskID,
	}

	resp := multipartUpload(t, e.srv.URL, map[string]string{
		"client_id": clientID.String(),
		"context":   "true",
	}, "doc.pdf", []byte("%PDF-1.4 fake"))

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	var body map[string]any
	decodeBody(t, resp, &body)
	assert.NotNil(t, body["document"])

	require.Len(t, e.uploader.got, 1)
	got := e.uploader.got[0]
	assert.Equal(t, "doc.pdf", got.FileName)
	assert.Equal(t, clientID, got.ClientID)
	assert.True(t, got.Context)
}

func TestUploadValidationError(t *testing.T) {
	e := newTestEnv(t)
	e.uploader.err = common.WrapError(common.ErrValidation, "empty file")

	resp := multipartUpload(t, e.srv.URL, map[string]string{
		"client_id": uuid.New().String(),
	}, "doc.pdf", []byte{1})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUploadRequiresClientID(t *testing.T) {
	e := newTestEnv(t)
	resp := multipartUpload(t, e.srv.URL, nil, "doc.pdf", []byte{1})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreateAndListClients(t *testing.T) {
	e := newTestEnv(t)

	resp, err := http.Post(e.srv.URL+"/v1/clients", "application/json",
		strings.NewReader(`{"name":"João Silva"}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	var created entity.Client
	decodeBody(t, resp, &created)
	assert.NotEqual(t, uuid.Nil, created.ID)

	resp, err = http.Get(e.srv.URL + "/v1/clients")
	require.NoError(t, err)
	var list struct {
		Clients []*entity.Client `json:"clients"`
	}
	decodeBody(t, resp, &list)
	require.Len(t, list.Clients, 1)
	assert.Equal(t, "João Silva", list.Clients[0].Name)
}

func TestCreateClientEmptyName(t *testing.T) {
	e := newTestEnv(t)
	resp, err := http.Post(e.srv.URL+"/v1/clients", "application/json",
		strings.NewReader(`{"name":""}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetDocumentNotFound(t *testing.T) {
	e := newTestEnv(t)
	resp, err := http.Get(e.srv.URL + "/v1/documents/" + uuid.New().String())
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGetDocumentBadID(t *testing.T) {
	e := newTestEnv(t)
	resp, err := http.Get(e.srv.URL + "/v1/documents/not-a-uuid")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestReprocess(t *testing.T) {
	e := newTestEnv(t)
	e.uploader.reprocessID = uuid.New()

	resp, err := http.Post(e.srv.URL+"/v1/documents/"+uuid.New().String()+"/reprocess", "", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	var body struct {
		TaskID uuid.UUID `json:"task_id"`
	}
	decodeBody(t, resp, &body)
	assert.Equal(t, e.uploader.reprocessID, body.TaskID)
}

func TestDownloadURL(t *testing.T) {
	e := newTestEnv(t)
	docID := uuid.New()
	e.docs.byID[docID] = &entity.Document{ID: docID, StoragePath: "c/doc.pdf"}
	require.NoError(t, e.store.Upload(context.Background(), "c/doc.pdf", "application/pdf",
		bytes.NewReader([]byte("x")), 1))

	resp, err := http.Get(e.srv.URL + "/v1/documents/" + docID.String() + "/download-url")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body struct {
		URL string `json:"url"`
	}
	decodeBody(t, resp, &body)
	assert.NotEmpty(t, body.URL)
}

func TestRenameDocument(t *testing.T) {
	e := newTestEnv(t)
	docID := uuid.New()
	e.docs.byID[docID] = &entity.Document{ID: docID, Name: "upload.pdf"}

	req, err := http.NewRequest(http.MethodPatch, e.srv.URL+"/v1/documents/"+docID.String(),
		strings.NewReader(`{"name":"DOC n. 001 + JOAO SILVA + RG + 2026-08-30"}`))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "DOC n. 001 + JOAO SILVA + RG + 2026-08-30", e.docs.byID[docID].Name)
}

func TestRenameDocumentEmptyName(t *testing.T) {
	e := newTestEnv(t)
	docID := uuid.New()
	e.docs.byID[docID] = &entity.Document{ID: docID, Name: "upload.pdf"}

	req, err := http.NewRequest(http.MethodPatch, e.srv.URL+"/v1/documents/"+docID.String(),
		strings.NewReader(`{"name":"  "}`))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "upload.pdf", e.docs.byID[docID].Name)
}

func TestDeleteDocumentRemovesBlob(t *testing.T) {
	e := newTestEnv(t)
	docID := uuid.New()
	e.docs.byID[docID] = &entity.Document{ID: docID, StoragePath: "c/doc.pdf"}
	require.NoError(t, e.store.Upload(context.Background(), "c/doc.pdf", "application/pdf",
		bytes.NewReader([]byte("x")), 1))

	req, err := http.NewRequest(http.MethodDelete, e.srv.URL+"/v1/documents/"+docID.String(), nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.False(t, e.store.Has("c/doc.pdf"))
}

func TestDraft(t *testing.T) {
	e := newTestEnv(t)
	clientID := uuid.New()
	e.drafts.petition = &entity.Petition{ID: uuid.New(), ClientID: clientID, Mode: "fatos", Content: "texto"}

	resp, err := http.Post(e.srv.URL+"/v1/drafts", "application/json",
		strings.NewReader(`{"client_id":"`+clientID.String()+`","mode":"fatos","document_ids":[]}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	var p entity.Petition
	decodeBody(t, resp, &p)
	assert.Equal(t, "texto", p.Content)

	require.Len(t, e.drafts.got, 1)
	assert.Equal(t, clientID, e.drafts.got[0].ClientID)
}

func TestDraftInvalidMode(t *testing.T) {
	e := newTestEnv(t)
	e.drafts.err = common.WrapError(common.ErrValidation, `unknown drafting mode "x"`)

	resp, err := http.Post(e.srv.URL+"/v1/drafts", "application/json",
		strings.NewReader(`{"client_id":"`+uuid.New().String()+`","mode":"x","document_ids":[]}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestExportDocxServesAttachment(t *testing.T) {
	e := newTestEnv(t)
	petID := uuid.New()
	e.petitions.byID[petID] = &entity.Petition{ID: petID, Title: "Procuração", Content: "corpo"}
	e.exports.art = &export.Artifact{
		FileName:    "procuracao-2026-08-30.docx",
		ContentType: "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		Data:        []byte("PK fake"),
	}

	resp, err := http.Get(e.srv.URL + "/v1/petitions/" + petID.String() + "/export.docx")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "procuracao-2026-08-30.docx")
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, []byte("PK fake"), body)
}

func TestTaskLookup(t *testing.T) {
	e := newTestEnv(t)
	docID := uuid.New()
	taskID := e.registry.Start(docID, constants.TaskKindExtraction)

	resp, err := http.Get(e.srv.URL + "/v1/tasks/" + taskID.String())
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var task tasks.Task
	decodeBody(t, resp, &task)
	assert.Equal(t, constants.TaskStatusQueued, task.Status)

	resp, err = http.Get(e.srv.URL + "/v1/tasks/" + uuid.New().String())
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestPrefsRoundTrip(t *testing.T) {
	e := newTestEnv(t)

	req, err := http.NewRequest(http.MethodPut, e.srv.URL+"/v1/prefs/ana",
		strings.NewReader(`{"font":{"family":"Arial","size_pt":11,"line_spacing":1}}`))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp, err = http.Get(e.srv.URL + "/v1/prefs/ana")
	require.NoError(t, err)
	var p entity.UserPrefs
	decodeBody(t, resp, &p)
	assert.Equal(t, "ana", p.UserID)
	assert.Equal(t, "Arial", p.Font.Family)
}
