package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"digithesis/internal/auth"
	"digithesis/internal/checker"
	"digithesis/internal/config"
	apperrors "digithesis/internal/errors"
	"digithesis/internal/handler"
	"digithesis/internal/model"
	"digithesis/internal/repository"
	"digithesis/internal/router"
	"digithesis/internal/service"
	"digithesis/internal/storage"
)

const samplePDF = "%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n<< /Root 1 0 R >>\n%%EOF\n"

// stubThesisRepo serves a fixed set of theses and records creations. Methods
// it does not override panic through the nil embedded interface.
type stubThesisRepo struct {
	repository.ThesisRepository
	theses  map[uuid.UUID]*model.Thesis
	created []*model.Thesis
}

func (r *stubThesisRepo) Create(ctx context.Context, thesis *model.Thesis) error {
	r.created = append(r.created, thesis)
	return nil
}

func (r *stubThesisRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Thesis, error) {
	if th, ok := r.theses[id]; ok {
		return th, nil
	}
	return nil, gorm.ErrRecordNotFound
}

// stubUserRepo reports every lookup as missing and accepts creations.
type stubUserRepo struct {
	repository.UserRepository
}

func (stubUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return nil, gorm.ErrRecordNotFound
}

func (stubUserRepo) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	return nil, gorm.ErrRecordNotFound
}

func (stubUserRepo) Create(ctx context.Context, user *model.User) error {
	return nil
}

type testServer struct {
	e         *echo.Echo
	jwt       *auth.JWTService
	uploadDir string
	theses    *stubThesisRepo
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	dir := t.TempDir()
	store, err := storage.NewLocalStore(dir)
	require.NoError(t, err)

	cfg := &config.Config{
		JWTSecret:      "test-secret",
		AllowedOrigins: []string{"*"},
		Storage:        config.StorageConfig{Backend: config.StorageLocal, UploadDir: dir, MaxUploadMB: 1},
	}
	jwtService := auth.NewJWTService(cfg.JWTSecret, time.Hour)
	tokens := auth.NewTokenStore(nil)
	theses := &stubThesisRepo{theses: map[uuid.UUID]*model.Thesis{}}
	users := stubUserRepo{}

	e := echo.New()
	router.Register(e, cfg, jwtService, tokens, router.Handlers{
		Auth:   handler.NewAuthHandler(service.NewAuthService(users, jwtService, tokens)),
		User:   handler.NewUserHandler(service.NewUserService(users, nil, tokens, jwtService.AccessTTL())),
		Thesis: handler.NewThesisHandler(service.NewThesisService(theses, store, checker.NewSimulated(), cfg.Storage.MaxUploadBytes())),
	})

	return &testServer{e: e, jwt: jwtService, uploadDir: dir, theses: theses}
}

func (s *testServer) token(t *testing.T, user *model.User) string {
	t.Helper()
	token, _, err := s.jwt.Issue(user)
	require.NoError(t, err)
	return token
}

func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) apperrors.ErrorResponse {
	t.Helper()
	var body apperrors.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func uploadRequest(t *testing.T, fields map[string]string, fileName, contentType, content string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if fileName != "" {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, fileName))
		h.Set("Content-Type", contentType)
		part, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/theses/upload", &buf)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	return req
}

func validFields() map[string]string {
	return map[string]string{
		"title":          "T",
		"abstract":       "A",
		"authorName":     "N",
		"department":     "D",
		"submissionYear": "2023",
		"keywords":       "graphs, , access control",
	}
}

func dirEntries(t *testing.T, dir string) int {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	return len(entries)
}

func TestGetThesis_PendingIsHiddenFromAnonymous(t *testing.T) {
	s := newTestServer(t)
	owner := &model.User{ID: uuid.New(), Username: "owner", Role: model.RoleStudent}
	thesis := &model.Thesis{ID: uuid.New(), OwnerID: owner.ID, Title: "T", Status: model.ThesisStatusPending, IsPublic: true}
	s.theses.theses[thesis.ID] = thesis

	rec := s.do(httptest.NewRequest(http.MethodGet, "/api/theses/"+thesis.ID.String(), nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "FORBIDDEN", decodeError(t, rec).Code)
	assert.NotContains(t, rec.Body.String(), `"title"`)

	req := httptest.NewRequest(http.MethodGet, "/api/theses/"+thesis.ID.String(), nil)
	req.Header.Set(auth.TokenHeader, s.token(t, owner))
	rec = s.do(req)
	assert.Equal(t, http.StatusOK, rec.Code)

	thesis.Status = model.ThesisStatusApproved
	rec = s.do(httptest.NewRequest(http.MethodGet, "/api/theses/"+thesis.ID.String(), nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGetThesis_BadAndUnknownIDs(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(httptest.NewRequest(http.MethodGet, "/api/theses/not-a-uuid", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_ID", decodeError(t, rec).Code)

	rec = s.do(httptest.NewRequest(http.MethodGet, "/api/theses/"+uuid.NewString(), nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "THESIS_NOT_FOUND", decodeError(t, rec).Code)
}

func TestGetThesis_InvalidTokenIsRejected(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/theses/"+uuid.NewString(), nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer garbage")

	rec := s.do(req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUpload_RequiresToken(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(uploadRequest(t, validFields(), "valid.pdf", "application/pdf", samplePDF))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, s.theses.created)
	assert.Zero(t, dirEntries(t, s.uploadDir))
}

func TestUpload_ValidPDF(t *testing.T) {
	s := newTestServer(t)
	owner := &model.User{ID: uuid.New(), Username: "owner", Role: model.RoleStudent}

	req := uploadRequest(t, validFields(), "valid.pdf", "application/pdf", samplePDF)
	req.Header.Set(auth.TokenHeader, s.token(t, owner))
	rec := s.do(req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var got model.Thesis
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, model.ThesisStatusPending, got.Status)
	assert.Equal(t, model.NotChecked, got.PlagiarismResult)
	assert.Equal(t, owner.ID, got.OwnerID)
	assert.Equal(t, 2023, got.SubmissionYear)
	assert.True(t, got.IsPublic)
	assert.Equal(t, []string{"graphs", "access control"}, got.KeywordList())

	require.Len(t, s.theses.created, 1)
	assert.Equal(t, 1, dirEntries(t, s.uploadDir))
}

func TestUpload_NonPDFWritesNothing(t *testing.T) {
	s := newTestServer(t)
	owner := &model.User{ID: uuid.New(), Username: "owner", Role: model.RoleStudent}

	tests := []struct {
		name        string
		contentType string
		content     string
	}{
		{"declared text", "text/plain", "just some notes"},
		{"declared pdf but not one", "application/pdf", "just some notes"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := uploadRequest(t, validFields(), "notes.txt", tt.contentType, tt.content)
			req.Header.Set(auth.TokenHeader, s.token(t, owner))
			rec := s.do(req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "INVALID_FILE", decodeError(t, rec).Code)
			assert.Empty(t, s.theses.created)
			assert.Zero(t, dirEntries(t, s.uploadDir))
		})
	}
}

func TestUpload_FieldValidation(t *testing.T) {
	s := newTestServer(t)
	owner := &model.User{ID: uuid.New(), Username: "owner", Role: model.RoleStudent}

	tests := []struct {
		name   string
		edit   func(map[string]string)
		fields []string
	}{
		{"missing title and short year", func(f map[string]string) {
			delete(f, "title")
			f["submissionYear"] = "23"
		}, []string{"title", "submissionYear"}},
		{"decimal year", func(f map[string]string) { f["submissionYear"] = "20.1" }, []string{"submissionYear"}},
		{"negative year", func(f map[string]string) { f["submissionYear"] = "-202" }, []string{"submissionYear"}},
		{"signed year", func(f map[string]string) { f["submissionYear"] = "+202" }, []string{"submissionYear"}},
		{"blank text fields", func(f map[string]string) {
			f["title"] = "   "
			f["abstract"] = "\t"
			f["authorName"] = " "
			f["department"] = "  "
		}, []string{"title", "abstract", "authorName", "department"}},
		{"bad visibility flag", func(f map[string]string) { f["isPublic"] = "maybe" }, []string{"isPublic"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := validFields()
			tt.edit(fields)

			req := uploadRequest(t, fields, "valid.pdf", "application/pdf", samplePDF)
			req.Header.Set(auth.TokenHeader, s.token(t, owner))
			rec := s.do(req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			body := decodeError(t, rec)
			assert.Equal(t, "VALIDATION_ERROR", body.Code)
			for _, f := range tt.fields {
				assert.Contains(t, body.Fields, f)
			}
			assert.Empty(t, s.theses.created)
			assert.Zero(t, dirEntries(t, s.uploadDir))
		})
	}
}

func TestUpload_MissingFile(t *testing.T) {
	s := newTestServer(t)
	owner := &model.User{ID: uuid.New(), Username: "owner", Role: model.RoleStudent}

	req := uploadRequest(t, validFields(), "", "", "")
	req.Header.Set(auth.TokenHeader, s.token(t, owner))
	rec := s.do(req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeError(t, rec).Fields, "file")
}

func TestPending_StudentIsForbidden(t *testing.T) {
	s := newTestServer(t)
	student := &model.User{ID: uuid.New(), Username: "s", Role: model.RoleStudent}

	req := httptest.NewRequest(http.MethodGet, "/api/theses/pending", nil)
	req.Header.Set(auth.TokenHeader, s.token(t, student))
	rec := s.do(req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(httptest.NewRequest(http.MethodGet, "/api/theses/pending", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
