package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"digithesis/internal/access"
	"digithesis/internal/checker"
	apperrors "digithesis/internal/errors"
	"digithesis/internal/model"
	"digithesis/internal/pagination"
	"digithesis/internal/repository"
	"digithesis/internal/storage"
)

const (
	pdfMIME     = "application/pdf"
	sniffBytes  = 3072
	searchLimit = 50
)

// UploadInput is a validated upload request. File is read once.
type UploadInput struct {
	Title          string
	Abstract       string
	AuthorName     string
	Department     string
	SubmissionYear int
	Keywords       []string
	IsPublic       bool

	FileName    string
	FileSize    int64
	ContentType string
	File        io.Reader
}

// ThesisService exposes thesis operations, each gated by the access policy.
type ThesisService interface {
	Upload(ctx context.Context, requester *access.Requester, input UploadInput) (*model.Thesis, error)
	Get(ctx context.Context, requester *access.Requester, id uuid.UUID) (*model.Thesis, error)
	OpenFile(ctx context.Context, requester *access.Requester, id uuid.UUID) (*model.Thesis, io.ReadCloser, error)
	ListPublic(ctx context.Context, page pagination.Params) ([]model.Thesis, int64, error)
	ListOwn(ctx context.Context, requester *access.Requester) ([]model.Thesis, error)
	ListPending(ctx context.Context, requester *access.Requester) ([]model.Thesis, error)
	Search(ctx context.Context, requester *access.Requester, query string) ([]model.Thesis, error)
	Approve(ctx context.Context, requester *access.Requester, id uuid.UUID) (*model.Thesis, error)
	Reject(ctx context.Context, requester *access.Requester, id uuid.UUID) (*model.Thesis, error)
	RunCheck(ctx context.Context, requester *access.Requester, id uuid.UUID, kind repository.CheckKind) (*model.Thesis, error)
	Delete(ctx context.Context, requester *access.Requester, id uuid.UUID) error
}

type thesisService struct {
	repo           repository.ThesisRepository
	store          storage.Store
	analyzer       checker.Analyzer
	maxUploadBytes int64
}

// NewThesisService creates a new thesis service.
func NewThesisService(repo repository.ThesisRepository, store storage.Store, analyzer checker.Analyzer, maxUploadBytes int64) ThesisService {
	return &thesisService{
		repo:           repo,
		store:          store,
		analyzer:       analyzer,
		maxUploadBytes: maxUploadBytes,
	}
}

// Upload checks the file, stores it and records a pending thesis owned by
// the requester. Nothing is written unless the file is an acceptable PDF.
func (s *thesisService) Upload(ctx context.Context, requester *access.Requester, input UploadInput) (*model.Thesis, error) {
	if requester == nil {
		return nil, apperrors.ErrUnauthenticated
	}
	if input.File == nil {
		return nil, apperrors.NewValidationError("file", "a PDF file is required")
	}
	if s.maxUploadBytes > 0 && input.FileSize > s.maxUploadBytes {
		return nil, apperrors.ErrFileTooLarge
	}
	if !strings.EqualFold(strings.TrimSpace(input.ContentType), pdfMIME) {
		return nil, apperrors.ErrInvalidFile
	}

	head := make([]byte, sniffBytes)
	n, err := io.ReadFull(input.File, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	head = head[:n]
	if n == 0 || !mimetype.Detect(head).Is(pdfMIME) {
		return nil, apperrors.ErrInvalidFile
	}

	location, err := s.store.Save(ctx, storage.NewKey(), io.MultiReader(bytes.NewReader(head), input.File))
	if err != nil {
		return nil, fmt.Errorf("store file: %w", err)
	}

	thesis := &model.Thesis{
		ID:               uuid.New(),
		OwnerID:          requester.ID,
		Title:            strings.TrimSpace(input.Title),
		Abstract:         strings.TrimSpace(input.Abstract),
		AuthorName:       strings.TrimSpace(input.AuthorName),
		Department:       strings.TrimSpace(input.Department),
		SubmissionYear:   input.SubmissionYear,
		FileLocation:     location,
		FileName:         input.FileName,
		FileSizeBytes:    input.FileSize,
		UploadDate:       time.Now().UTC(),
		Status:           model.ThesisStatusPending,
		IsPublic:         input.IsPublic,
		PlagiarismResult: model.NotChecked,
		GrammarResult:    model.NotChecked,
	}
	thesis.SetKeywords(input.Keywords)

	if err := s.repo.Create(ctx, thesis); err != nil {
		if delErr := s.store.Delete(ctx, location); delErr != nil {
			log.Printf("upload cleanup: failed to remove %s: %v", location, delErr)
		}
		return nil, fmt.Errorf("create thesis: %w", err)
	}
	return thesis, nil
}

// Get returns a thesis the requester may view.
func (s *thesisService) Get(ctx context.Context, requester *access.Requester, id uuid.UUID) (*model.Thesis, error) {
	thesis, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorize(requester, access.ActionView, access.ThesisTarget(thesis)); err != nil {
		return nil, err
	}
	return thesis, nil
}

// OpenFile streams the stored PDF of a thesis the requester may view.
func (s *thesisService) OpenFile(ctx context.Context, requester *access.Requester, id uuid.UUID) (*model.Thesis, io.ReadCloser, error) {
	thesis, err := s.Get(ctx, requester, id)
	if err != nil {
		return nil, nil, err
	}
	rc, err := s.store.Open(ctx, thesis.FileLocation)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil, apperrors.ErrThesisNotFound
		}
		return nil, nil, fmt.Errorf("open file: %w", err)
	}
	return thesis, rc, nil
}

// ListPublic returns one page of approved public theses. No authentication.
func (s *thesisService) ListPublic(ctx context.Context, page pagination.Params) ([]model.Thesis, int64, error) {
	theses, total, err := s.repo.ListPublic(ctx, page.Offset, page.Limit)
	if err != nil {
		return nil, 0, fmt.Errorf("list public theses: %w", err)
	}
	return theses, total, nil
}

// ListOwn returns every thesis owned by the requester, in any state.
func (s *thesisService) ListOwn(ctx context.Context, requester *access.Requester) ([]model.Thesis, error) {
	if requester == nil {
		return nil, apperrors.ErrUnauthenticated
	}
	theses, err := s.repo.ListByOwner(ctx, requester.ID)
	if err != nil {
		return nil, fmt.Errorf("list own theses: %w", err)
	}
	return theses, nil
}

// ListPending returns the review queue.
func (s *thesisService) ListPending(ctx context.Context, requester *access.Requester) ([]model.Thesis, error) {
	if err := authorize(requester, access.ActionListPending, access.Target{}); err != nil {
		return nil, err
	}
	theses, err := s.repo.ListByStatus(ctx, model.ThesisStatusPending)
	if err != nil {
		return nil, fmt.Errorf("list pending theses: %w", err)
	}
	return theses, nil
}

// Search matches query against descriptive fields within the requester's
// visible set.
func (s *thesisService) Search(ctx context.Context, requester *access.Requester, query string) ([]model.Thesis, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperrors.NewValidationError("q", "search query is required")
	}
	theses, err := s.repo.Search(ctx, query, access.SearchScope(requester), searchLimit)
	if err != nil {
		return nil, fmt.Errorf("search theses: %w", err)
	}
	return theses, nil
}

// Approve marks a thesis approved regardless of its current state.
func (s *thesisService) Approve(ctx context.Context, requester *access.Requester, id uuid.UUID) (*model.Thesis, error) {
	return s.review(ctx, requester, id, access.ActionApprove, model.ThesisStatusApproved)
}

// Reject marks a thesis rejected regardless of its current state.
func (s *thesisService) Reject(ctx context.Context, requester *access.Requester, id uuid.UUID) (*model.Thesis, error) {
	return s.review(ctx, requester, id, access.ActionReject, model.ThesisStatusRejected)
}

func (s *thesisService) review(ctx context.Context, requester *access.Requester, id uuid.UUID, action access.Action, status model.ThesisStatus) (*model.Thesis, error) {
	if err := authorize(requester, action, access.Target{}); err != nil {
		return nil, err
	}
	thesis, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateStatus(ctx, thesis.ID, status); err != nil {
		return nil, fmt.Errorf("update status: %w", err)
	}
	thesis.Status = status
	return thesis, nil
}

// RunCheck runs one analysis and stores its result on the thesis.
func (s *thesisService) RunCheck(ctx context.Context, requester *access.Requester, id uuid.UUID, kind repository.CheckKind) (*model.Thesis, error) {
	thesis, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorize(requester, access.ActionRunCheck, access.ThesisTarget(thesis)); err != nil {
		return nil, err
	}

	var result string
	switch kind {
	case repository.CheckPlagiarism:
		result, err = s.analyzer.CheckPlagiarism(ctx, thesis)
	case repository.CheckGrammar:
		result, err = s.analyzer.CheckGrammar(ctx, thesis)
	default:
		return nil, fmt.Errorf("unknown check %q", kind)
	}
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", kind, err)
	}

	if err := s.repo.UpdateCheckResult(ctx, thesis.ID, kind, result); err != nil {
		return nil, fmt.Errorf("store %s: %w", kind, err)
	}
	if kind == repository.CheckPlagiarism {
		thesis.PlagiarismResult = result
	} else {
		thesis.GrammarResult = result
	}
	return thesis, nil
}

// Delete removes the record and then its stored file. A file that cannot be
// removed is logged and left behind.
func (s *thesisService) Delete(ctx context.Context, requester *access.Requester, id uuid.UUID) error {
	thesis, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := authorize(requester, access.ActionDelete, access.ThesisTarget(thesis)); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, thesis.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrThesisNotFound
		}
		return fmt.Errorf("delete thesis: %w", err)
	}
	if err := s.store.Delete(ctx, thesis.FileLocation); err != nil {
		log.Printf("delete thesis %s: failed to remove file %s: %v", thesis.ID, thesis.FileLocation, err)
	}
	return nil
}

func (s *thesisService) load(ctx context.Context, id uuid.UUID) (*model.Thesis, error) {
	thesis, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrThesisNotFound
		}
		return nil, fmt.Errorf("find thesis: %w", err)
	}
	return thesis, nil
}
