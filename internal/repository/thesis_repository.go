package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"digithesis/internal/access"
	"digithesis/internal/model"
)

// CheckKind names a stored analysis result column.
type CheckKind string

const (
	CheckPlagiarism CheckKind = "plagiarism_result"
	CheckGrammar    CheckKind = "grammar_result"
)

// ThesisRepository defines thesis persistence operations.
type ThesisRepository interface {
	Create(ctx context.Context, thesis *model.Thesis) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Thesis, error)
	Delete(ctx context.Context, id uuid.UUID) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.ThesisStatus) error
	UpdateCheckResult(ctx context.Context, id uuid.UUID, kind CheckKind, result string) error
	ListPublic(ctx context.Context, offset, limit int) ([]model.Thesis, int64, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]model.Thesis, error)
	ListByStatus(ctx context.Context, status model.ThesisStatus) ([]model.Thesis, error)
	Search(ctx context.Context, query string, scope access.Scope, limit int) ([]model.Thesis, error)
}

type thesisRepository struct {
	db *gorm.DB
}

// NewThesisRepository creates a new thesis repository.
func NewThesisRepository(db *gorm.DB) ThesisRepository {
	return &thesisRepository{db: db}
}

// Create creates a new thesis record.
func (r *thesisRepository) Create(ctx context.Context, thesis *model.Thesis) error {
	return r.db.WithContext(ctx).Create(thesis).Error
}

// FindByID finds a thesis by ID together with its owner.
func (r *thesisRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Thesis, error) {
	var thesis model.Thesis
	if err := r.db.WithContext(ctx).Preload("Owner").Where("id = ?", id).First(&thesis).Error; err != nil {
		return nil, err
	}
	return &thesis, nil
}

// Delete removes a thesis record.
func (r *thesisRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Thesis{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// UpdateStatus overwrites the review status.
func (r *thesisRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.ThesisStatus) error {
	return r.db.WithContext(ctx).Model(&model.Thesis{}).
		Where("id = ?", id).
		Update("status", status).Error
}

// UpdateCheckResult overwrites one analysis result.
func (r *thesisRepository) UpdateCheckResult(ctx context.Context, id uuid.UUID, kind CheckKind, result string) error {
	return r.db.WithContext(ctx).Model(&model.Thesis{}).
		Where("id = ?", id).
		Update(string(kind), result).Error
}

// ListPublic returns one page of approved public theses, newest first.
func (r *thesisRepository) ListPublic(ctx context.Context, offset, limit int) ([]model.Thesis, int64, error) {
	var (
		theses []model.Thesis
		total  int64
	)
	if err := r.db.WithContext(ctx).Model(&model.Thesis{}).Scopes(publicOnly).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := r.db.WithContext(ctx).Scopes(publicOnly).Preload("Owner").
		Order("upload_date DESC").Offset(offset).Limit(limit).Find(&theses).Error; err != nil {
		return nil, 0, err
	}
	return theses, total, nil
}

// ListByOwner returns every thesis of a user, newest first.
func (r *thesisRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]model.Thesis, error) {
	var theses []model.Thesis
	if err := r.db.WithContext(ctx).Where("owner_id = ?", ownerID).
		Order("upload_date DESC").Find(&theses).Error; err != nil {
		return nil, err
	}
	return theses, nil
}

// ListByStatus returns theses in the given review state, oldest first.
func (r *thesisRepository) ListByStatus(ctx context.Context, status model.ThesisStatus) ([]model.Thesis, error) {
	var theses []model.Thesis
	if err := r.db.WithContext(ctx).Preload("Owner").Where("status = ?", status).
		Order("upload_date ASC").Find(&theses).Error; err != nil {
		return nil, err
	}
	return theses, nil
}

// Search matches query case-insensitively against the descriptive fields,
// restricted to what scope admits.
func (r *thesisRepository) Search(ctx context.Context, query string, scope access.Scope, limit int) ([]model.Thesis, error) {
	like := "%" + escapeLike(strings.ToLower(query)) + "%"

	var theses []model.Thesis
	if err := r.db.WithContext(ctx).Preload("Owner").
		Where("(LOWER(title) LIKE ? OR LOWER(abstract) LIKE ? OR LOWER(author_name) LIKE ? OR LOWER(department) LIKE ? OR LOWER(CAST(keywords AS CHAR)) LIKE ?)",
			like, like, like, like, like).
		Scopes(visibleIn(scope)).
		Order("upload_date DESC").Limit(limit).Find(&theses).Error; err != nil {
		return nil, err
	}
	return theses, nil
}

// publicOnly admits approved theses their owners made public.
func publicOnly(db *gorm.DB) *gorm.DB {
	return db.Where("status = ? AND is_public = ?", model.ThesisStatusApproved, true)
}

// visibleIn narrows a query to the theses scope admits.
func visibleIn(scope access.Scope) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		switch {
		case scope.All:
			return db
		case scope.IncludesOwner():
			return db.Where("((status = ? AND is_public = ?) OR owner_id = ?)", model.ThesisStatusApproved, true, scope.OwnerID)
		default:
			return publicOnly(db)
		}
	}
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
