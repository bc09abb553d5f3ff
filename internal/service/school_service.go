package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/schoolhub/school-directory-service/internal/domain"
	"github.com/schoolhub/school-directory-service/internal/observability"
	"github.com/schoolhub/school-directory-service/internal/repository"
)

var (
	ErrSchoolNotFound    = errors.New("school not found")
	ErrInvalidSchoolData = errors.New("invalid school data")
)

var contactRe = regexp.MustCompile(`^[0-9+][0-9 -]{6,14}$`)

// SchoolInput is the full payload for creating a school listing.
type SchoolInput struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	City    string `json:"city"`
	State   string `json:"state"`
	Contact string `json:"contact"`
	EmailID string `json:"email_id"`
}

// SchoolPatch carries partial updates; nil fields are left untouched.
type SchoolPatch struct {
	Name    *string `json:"name"`
	Address *string `json:"address"`
	City    *string `json:"city"`
	State   *string `json:"state"`
	Contact *string `json:"contact"`
	EmailID *string `json:"email_id"`
}

// SchoolView is the outward shape of a school. The raw object key stays
// internal; readers get a short-lived presigned URL instead.
type SchoolView struct {
	domain.School
	ImageURL string `json:"image_url,omitempty"`
}

type SchoolPage struct {
	Items      []SchoolView `json:"items"`
	Total      int64        `json:"total"`
	Page       int          `json:"page"`
	PageSize   int          `json:"page_size"`
	TotalPages int          `json:"total_pages"`
}

type SchoolService struct {
	repo    repository.SchoolRepository
	storage StorageService
	logger  *slog.Logger
}

func NewSchoolService(repo repository.SchoolRepository, storage StorageService, logger *slog.Logger) *SchoolService {
	return &SchoolService{repo: repo, storage: storage, logger: logger}
}

// Create inserts a new listing. Every listing carries an image from the
// start; only updates may omit one to keep the current picture.
func (s *SchoolService) Create(ctx context.Context, in SchoolInput, image *ImageUpload) (*SchoolView, error) {
	in = trimSchoolInput(in)
	if err := validateSchoolInput(in, image != nil); err != nil {
		observability.RecordSchoolMutation(ctx, "create", "invalid")
		return nil, err
	}

	imageKey, err := s.storage.UploadSchoolImage(ctx, image.Reader, image.Size)
	if err != nil {
		observability.RecordSchoolMutation(ctx, "create", "image_error")
		return nil, err
	}

	school := &domain.School{
		Name:     in.Name,
		Address:  in.Address,
		City:     in.City,
		State:    in.State,
		Contact:  in.Contact,
		EmailID:  in.EmailID,
		ImageKey: imageKey,
	}
	if err := s.repo.Create(ctx, school); err != nil {
		// The row failed but the object is already in the bucket.
		if delErr := s.storage.DeleteSchoolImage(ctx, imageKey); delErr != nil {
			s.logger.WarnContext(ctx, "orphaned school image after failed create", "key", imageKey, "error", delErr)
		}
		observability.RecordSchoolMutation(ctx, "create", "error")
		return nil, err
	}

	observability.RecordSchoolMutation(ctx, "create", "success")
	return s.view(ctx, school), nil
}

func (s *SchoolService) Get(ctx context.Context, id uint) (*SchoolView, error) {
	school, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrSchoolNotFound) {
			return nil, ErrSchoolNotFound
		}
		return nil, err
	}
	return s.view(ctx, school), nil
}

func (s *SchoolService) List(ctx context.Context, page repository.PageRequest) (*SchoolPage, error) {
	result, err := s.repo.ListPaged(ctx, page)
	if err != nil {
		return nil, err
	}

	items := make([]SchoolView, 0, len(result.Items))
	for i := range result.Items {
		items = append(items, *s.view(ctx, &result.Items[i]))
	}
	observability.RecordSchoolListPageSize(ctx, result.PageSize)
	return &SchoolPage{
		Items:      items,
		Total:      result.Total,
		Page:       result.Page,
		PageSize:   result.PageSize,
		TotalPages: result.TotalPages,
	}, nil
}

func (s *SchoolService) Update(ctx context.Context, id uint, in SchoolPatch, image *ImageUpload) (*SchoolView, error) {
	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrSchoolNotFound) {
			return nil, ErrSchoolNotFound
		}
		return nil, err
	}

	updates, err := schoolPatchUpdates(in)
	if err != nil {
		observability.RecordSchoolMutation(ctx, "update", "invalid")
		return nil, err
	}

	oldImageKey := ""
	if image != nil {
		key, upErr := s.storage.UploadSchoolImage(ctx, image.Reader, image.Size)
		if upErr != nil {
			observability.RecordSchoolMutation(ctx, "update", "image_error")
			return nil, upErr
		}
		updates["image_key"] = key
		oldImageKey = current.ImageKey
	}

	if len(updates) == 0 {
		return s.view(ctx, current), nil
	}

	if err := s.repo.Update(ctx, id, updates); err != nil {
		if errors.Is(err, repository.ErrSchoolNotFound) {
			return nil, ErrSchoolNotFound
		}
		observability.RecordSchoolMutation(ctx, "update", "error")
		return nil, err
	}

	if oldImageKey != "" {
		if delErr := s.storage.DeleteSchoolImage(ctx, oldImageKey); delErr != nil {
			s.logger.WarnContext(ctx, "stale school image left behind", "key", oldImageKey, "error", delErr)
		}
	}

	updated, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	observability.RecordSchoolMutation(ctx, "update", "success")
	return s.view(ctx, updated), nil
}

func (s *SchoolService) Delete(ctx context.Context, id uint) error {
	school, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrSchoolNotFound) {
			return ErrSchoolNotFound
		}
		return err
	}

	if err := s.repo.DeleteByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrSchoolNotFound) {
			return ErrSchoolNotFound
		}
		observability.RecordSchoolMutation(ctx, "delete", "error")
		return err
	}

	if school.ImageKey != "" {
		if delErr := s.storage.DeleteSchoolImage(ctx, school.ImageKey); delErr != nil {
			s.logger.WarnContext(ctx, "orphaned image after school delete", "key", school.ImageKey, "error", delErr)
		}
	}
	observability.RecordSchoolMutation(ctx, "delete", "success")
	return nil
}

func (s *SchoolService) view(ctx context.Context, school *domain.School) *SchoolView {
	v := &SchoolView{School: *school}
	if school.ImageKey != "" {
		url, err := s.storage.GenerateImageURL(ctx, school.ImageKey)
		if err != nil {
			s.logger.WarnContext(ctx, "presign school image", "key", school.ImageKey, "error", err)
		} else {
			v.ImageURL = url
		}
	}
	return v
}

func trimSchoolInput(in SchoolInput) SchoolInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Address = strings.TrimSpace(in.Address)
	in.City = strings.TrimSpace(in.City)
	in.State = strings.TrimSpace(in.State)
	in.Contact = strings.TrimSpace(in.Contact)
	in.EmailID = strings.TrimSpace(strings.ToLower(in.EmailID))
	return in
}

func validateSchoolInput(in SchoolInput, hasImage bool) error {
	var problems []string
	if in.Name == "" {
		problems = append(problems, "name is required")
	}
	if in.Address == "" {
		problems = append(problems, "address is required")
	}
	if in.City == "" {
		problems = append(problems, "city is required")
	}
	if in.State == "" {
		problems = append(problems, "state is required")
	}
	if !contactRe.MatchString(in.Contact) {
		problems = append(problems, "contact must be a valid phone number")
	}
	if _, err := normalizeEmail(in.EmailID); err != nil {
		problems = append(problems, "email_id must be a valid email address")
	}
	if !hasImage {
		problems = append(problems, "image is required")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidSchoolData, strings.Join(problems, "; "))
	}
	return nil
}

func schoolPatchUpdates(in SchoolPatch) (map[string]any, error) {
	updates := map[string]any{}
	var problems []string

	setTrimmed := func(column string, v *string, required string) {
		if v == nil {
			return
		}
		trimmed := strings.TrimSpace(*v)
		if trimmed == "" {
			problems = append(problems, required)
			return
		}
		updates[column] = trimmed
	}

	setTrimmed("name", in.Name, "name must not be empty")
	setTrimmed("address", in.Address, "address must not be empty")
	setTrimmed("city", in.City, "city must not be empty")
	setTrimmed("state", in.State, "state must not be empty")

	if in.Contact != nil {
		trimmed := strings.TrimSpace(*in.Contact)
		if !contactRe.MatchString(trimmed) {
			problems = append(problems, "contact must be a valid phone number")
		} else {
			updates["contact"] = trimmed
		}
	}
	if in.EmailID != nil {
		email, err := normalizeEmail(*in.EmailID)
		if err != nil {
			problems = append(problems, "email_id must be a valid email address")
		} else {
			updates["email_id"] = email
		}
	}

	if len(problems) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidSchoolData, strings.Join(problems, "; "))
	}
	return updates, nil
}
