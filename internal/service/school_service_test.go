package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/schoolhub/school-directory-service/internal/domain"
	"github.com/schoolhub/school-directory-service/internal/repository"
)

type stubSchoolRepo struct {
	mu      sync.Mutex
	nextID  uint
	schools map[uint]*domain.School

	createErr error
}

func newStubSchoolRepo() *stubSchoolRepo {
	return &stubSchoolRepo{schools: map[uint]*domain.School{}}
}

func (s *stubSchoolRepo) Create(_ context.Context, school *domain.School) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	school.ID = s.nextID
	school.CreatedAt = time.Now().UTC()
	s.schools[school.ID] = school
	return nil
}

func (s *stubSchoolRepo) FindByID(_ context.Context, id uint) (*domain.School, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if school, ok := s.schools[id]; ok {
		copied := *school
		return &copied, nil
	}
	return nil, repository.ErrSchoolNotFound
}

func (s *stubSchoolRepo) ListPaged(_ context.Context, page repository.PageRequest) (repository.PageResult[domain.School], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]domain.School, 0, len(s.schools))
	for _, school := range s.schools {
		items = append(items, *school)
	}
	return repository.PageResult[domain.School]{
		Items:      items,
		Total:      int64(len(items)),
		Page:       1,
		PageSize:   len(items),
		TotalPages: 1,
	}, nil
}

func (s *stubSchoolRepo) Update(_ context.Context, id uint, updates map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	school, ok := s.schools[id]
	if !ok {
		return repository.ErrSchoolNotFound
	}
	for column, value := range updates {
		str, _ := value.(string)
		switch column {
		case "name":
			school.Name = str
		case "address":
			school.Address = str
		case "city":
			school.City = str
		case "state":
			school.State = str
		case "contact":
			school.Contact = str
		case "email_id":
			school.EmailID = str
		case "image_key":
			school.ImageKey = str
		}
	}
	return nil
}

func (s *stubSchoolRepo) DeleteByID(_ context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.schools[id]; !ok {
		return repository.ErrSchoolNotFound
	}
	delete(s.schools, id)
	return nil
}

type stubStorage struct {
	mu       sync.Mutex
	uploads  int
	deleted  []string
	objects  map[string]bool
	uploadFn func() (string, error)
}

func newStubStorage() *stubStorage {
	return &stubStorage{objects: map[string]bool{}}
}

func (s *stubStorage) UploadSchoolImage(_ context.Context, _ io.Reader, _ int64) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.uploadFn != nil {
		return s.uploadFn()
	}
	s.uploads++
	key := "schools/test-object-" + strings.Repeat("a", s.uploads) + ".png"
	s.objects[key] = true
	return key, nil
}

func (s *stubStorage) DeleteSchoolImage(_ context.Context, objectKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, objectKey)
	delete(s.objects, objectKey)
	return nil
}

func (s *stubStorage) GenerateImageURL(_ context.Context, objectKey string) (string, error) {
	return "https://storage.local/" + objectKey + "?signed=1", nil
}

func newSchoolServiceForTest(t *testing.T) (*SchoolService, *stubSchoolRepo, *stubStorage) {
	t.Helper()
	repo := newStubSchoolRepo()
	storage := newStubStorage()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewSchoolService(repo, storage, logger), repo, storage
}

func testImageUpload() *ImageUpload {
	return &ImageUpload{Reader: strings.NewReader("png-bytes"), Size: 9}
}

func validSchoolInput() SchoolInput {
	return SchoolInput{
		Name:    "Green Valley High",
		Address: "12 Hill Road",
		City:    "Pune",
		State:   "Maharashtra",
		Contact: "9876543210",
		EmailID: "office@greenvalley.example",
	}
}

func TestSchoolCreateWithImage(t *testing.T) {
	svc, repo, storage := newSchoolServiceForTest(t)
	ctx := context.Background()

	view, err := svc.Create(ctx, validSchoolInput(), &ImageUpload{Reader: strings.NewReader("png-bytes"), Size: 9})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if view.ID == 0 {
		t.Fatal("expected assigned id")
	}
	if view.ImageURL == "" || !strings.Contains(view.ImageURL, "schools/") {
		t.Fatalf("expected presigned image url, got %q", view.ImageURL)
	}

	stored, err := repo.FindByID(ctx, view.ID)
	if err != nil {
		t.Fatalf("find stored: %v", err)
	}
	if stored.ImageKey == "" || !storage.objects[stored.ImageKey] {
		t.Fatalf("expected stored image key backed by an object, got %q", stored.ImageKey)
	}
}

func TestSchoolCreateValidation(t *testing.T) {
	svc, _, _ := newSchoolServiceForTest(t)
	ctx := context.Background()

	cases := map[string]func(*SchoolInput){
		"missing name":  func(in *SchoolInput) { in.Name = "  " },
		"missing city":  func(in *SchoolInput) { in.City = "" },
		"bad contact":   func(in *SchoolInput) { in.Contact = "abc" },
		"bad email":     func(in *SchoolInput) { in.EmailID = "not-an-email" },
		"missing state": func(in *SchoolInput) { in.State = "" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			in := validSchoolInput()
			mutate(&in)
			if _, err := svc.Create(ctx, in, testImageUpload()); !errors.Is(err, ErrInvalidSchoolData) {
				t.Fatalf("expected ErrInvalidSchoolData, got %v", err)
			}
		})
	}
}

func TestSchoolCreateRequiresImage(t *testing.T) {
	svc, repo, storage := newSchoolServiceForTest(t)

	_, err := svc.Create(context.Background(), validSchoolInput(), nil)
	if !errors.Is(err, ErrInvalidSchoolData) {
		t.Fatalf("expected ErrInvalidSchoolData without an image, got %v", err)
	}
	if len(repo.schools) != 0 {
		t.Fatal("rejected create must not insert a row")
	}
	if storage.uploads != 0 {
		t.Fatal("rejected create must not upload anything")
	}
}

func TestSchoolCreateCleansUpImageOnRepoFailure(t *testing.T) {
	svc, repo, storage := newSchoolServiceForTest(t)
	repo.createErr = errors.New("db down")

	_, err := svc.Create(context.Background(), validSchoolInput(), &ImageUpload{Reader: strings.NewReader("x"), Size: 1})
	if err == nil {
		t.Fatal("expected create error")
	}
	if len(storage.deleted) != 1 {
		t.Fatalf("expected uploaded object removed after failed insert, deleted=%v", storage.deleted)
	}
}

func TestSchoolUpdateReplacesImage(t *testing.T) {
	svc, repo, storage := newSchoolServiceForTest(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, validSchoolInput(), &ImageUpload{Reader: strings.NewReader("old"), Size: 3})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	oldKey := mustImageKey(t, repo, created.ID)

	name := "Renamed School"
	view, err := svc.Update(ctx, created.ID, SchoolPatch{Name: &name}, &ImageUpload{Reader: strings.NewReader("new"), Size: 3})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if view.Name != "Renamed School" {
		t.Fatalf("expected renamed school, got %q", view.Name)
	}
	newKey := mustImageKey(t, repo, created.ID)
	if newKey == oldKey {
		t.Fatal("expected replaced image key")
	}
	if len(storage.deleted) != 1 || storage.deleted[0] != oldKey {
		t.Fatalf("expected old object deleted, got %v", storage.deleted)
	}
}

func TestSchoolUpdatePatchValidation(t *testing.T) {
	svc, _, _ := newSchoolServiceForTest(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, validSchoolInput(), testImageUpload())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	empty := "   "
	if _, err := svc.Update(ctx, created.ID, SchoolPatch{Name: &empty}, nil); !errors.Is(err, ErrInvalidSchoolData) {
		t.Fatalf("expected ErrInvalidSchoolData for blank name, got %v", err)
	}

	badContact := "letters"
	if _, err := svc.Update(ctx, created.ID, SchoolPatch{Contact: &badContact}, nil); !errors.Is(err, ErrInvalidSchoolData) {
		t.Fatalf("expected ErrInvalidSchoolData for bad contact, got %v", err)
	}
}

func TestSchoolDeleteRemovesImage(t *testing.T) {
	svc, _, storage := newSchoolServiceForTest(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, validSchoolInput(), &ImageUpload{Reader: strings.NewReader("img"), Size: 3})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := svc.Delete(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(storage.objects) != 0 {
		t.Fatalf("expected image object removed, still have %v", storage.objects)
	}
	if _, err := svc.Get(ctx, created.ID); !errors.Is(err, ErrSchoolNotFound) {
		t.Fatalf("expected ErrSchoolNotFound, got %v", err)
	}
}

func TestSchoolNotFoundMapping(t *testing.T) {
	svc, _, _ := newSchoolServiceForTest(t)
	ctx := context.Background()

	if _, err := svc.Get(ctx, 404); !errors.Is(err, ErrSchoolNotFound) {
		t.Fatalf("get: expected ErrSchoolNotFound, got %v", err)
	}
	name := "x"
	if _, err := svc.Update(ctx, 404, SchoolPatch{Name: &name}, nil); !errors.Is(err, ErrSchoolNotFound) {
		t.Fatalf("update: expected ErrSchoolNotFound, got %v", err)
	}
	if err := svc.Delete(ctx, 404); !errors.Is(err, ErrSchoolNotFound) {
		t.Fatalf("delete: expected ErrSchoolNotFound, got %v", err)
	}
}

func mustImageKey(t *testing.T, repo *stubSchoolRepo, id uint) string {
	t.Helper()
	school, err := repo.FindByID(context.Background(), id)
	if err != nil {
		t.Fatalf("find school %d: %v", id, err)
	}
	return school.ImageKey
}
