package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/schoolhub/school-directory-service/internal/domain"
)

func newSchoolRepoForTest(t *testing.T) SchoolRepository {
	t.Helper()
	db := newRepositoryDBForTest(t)
	if err := db.AutoMigrate(&domain.School{}); err != nil {
		t.Fatalf("migrate schools: %v", err)
	}
	return NewSchoolRepository(db)
}

func TestSchoolRepositoryCRUDAndPagination(t *testing.T) {
	repo := newSchoolRepoForTest(t)
	ctx := context.Background()

	created := make([]*domain.School, 0, 3)
	for i := 0; i < 3; i++ {
		s := &domain.School{
			Name:    fmt.Sprintf("School %c", 'A'+i),
			Address: "1 Main St",
			City:    "Pune",
			State:   "MH",
			Contact: "9876543210",
			EmailID: fmt.Sprintf("school%d@x.com", i),
		}
		if err := repo.Create(ctx, s); err != nil {
			t.Fatalf("create school %d: %v", i, err)
		}
		created = append(created, s)
	}

	page, err := repo.ListPaged(ctx, PageRequest{Page: 1, PageSize: 2})
	if err != nil {
		t.Fatalf("list paged: %v", err)
	}
	if page.Total != 3 || page.TotalPages != 2 || len(page.Items) != 2 {
		t.Fatalf("unexpected page result: %+v", page)
	}
	if page.Items[0].ID != created[2].ID {
		t.Fatalf("expected newest school first, got id=%d want=%d", page.Items[0].ID, created[2].ID)
	}

	loaded, err := repo.FindByID(ctx, created[0].ID)
	if err != nil {
		t.Fatalf("find by id: %v", err)
	}
	if loaded.Name != created[0].Name {
		t.Fatalf("name mismatch: got %q want %q", loaded.Name, created[0].Name)
	}

	if err := repo.Update(ctx, created[0].ID, map[string]any{"name": "Renamed", "city": "Mumbai"}); err != nil {
		t.Fatalf("update: %v", err)
	}
	updated, err := repo.FindByID(ctx, created[0].ID)
	if err != nil {
		t.Fatalf("find updated: %v", err)
	}
	if updated.Name != "Renamed" || updated.City != "Mumbai" {
		t.Fatalf("unexpected updated school: %+v", updated)
	}

	if err := repo.DeleteByID(ctx, created[1].ID); err != nil {
		t.Fatalf("delete by id: %v", err)
	}
	if _, err := repo.FindByID(ctx, created[1].ID); !errors.Is(err, ErrSchoolNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func TestSchoolRepositoryNotFoundCases(t *testing.T) {
	repo := newSchoolRepoForTest(t)
	ctx := context.Background()

	if _, err := repo.FindByID(ctx, 999); !errors.Is(err, ErrSchoolNotFound) {
		t.Fatalf("expected ErrSchoolNotFound, got %v", err)
	}
	if err := repo.Update(ctx, 999, map[string]any{"name": "x"}); !errors.Is(err, ErrSchoolNotFound) {
		t.Fatalf("expected ErrSchoolNotFound on update, got %v", err)
	}
	if err := repo.DeleteByID(ctx, 999); !errors.Is(err, ErrSchoolNotFound) {
		t.Fatalf("expected ErrSchoolNotFound on delete, got %v", err)
	}
}

func TestSchoolRepositoryPageNormalization(t *testing.T) {
	repo := newSchoolRepoForTest(t)

	page, err := repo.ListPaged(context.Background(), PageRequest{Page: -3, PageSize: 10_000})
	if err != nil {
		t.Fatalf("list paged: %v", err)
	}
	if page.Page != DefaultPage || page.PageSize != MaxPageSize {
		t.Fatalf("expected normalized page request, got %+v", page)
	}
}
