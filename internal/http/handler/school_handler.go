package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/schoolhub/school-directory-service/internal/http/response"
	"github.com/schoolhub/school-directory-service/internal/observability"
	"github.com/schoolhub/school-directory-service/internal/repository"
	"github.com/schoolhub/school-directory-service/internal/service"
)

// maxMultipartMemory bounds how much of a multipart body stays in memory
// before spilling to temp files.
const maxMultipartMemory = 8 << 20

type SchoolHandler struct {
	svc service.SchoolServiceInterface
}

func NewSchoolHandler(svc service.SchoolServiceInterface) *SchoolHandler {
	return &SchoolHandler{svc: svc}
}

func (h *SchoolHandler) Create(w http.ResponseWriter, r *http.Request) {
	in, image, cleanup, err := decodeSchoolInput(r)
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}
	defer cleanup()

	created, err := h.svc.Create(r.Context(), in, image)
	if err != nil {
		writeSchoolError(w, r, err, "failed to create school")
		return
	}

	observability.Audit(r, "school.create",
		"school_id", created.ID,
		"name", created.Name,
	)
	response.JSON(w, r, http.StatusCreated, created)
}

func (h *SchoolHandler) List(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := "success"
	defer func() {
		observability.RecordSchoolListRequestDuration(r.Context(), status, time.Since(start))
	}()

	pageReq, err := parsePageRequest(r)
	if err != nil {
		status = "failure"
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}

	page, err := h.svc.List(r.Context(), pageReq)
	if err != nil {
		status = "failure"
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "failed to list schools", nil)
		return
	}
	response.JSON(w, r, http.StatusOK, page)
}

func (h *SchoolHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := parsePathID(chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid school id", nil)
		return
	}

	school, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeSchoolError(w, r, err, "failed to load school")
		return
	}
	response.JSON(w, r, http.StatusOK, school)
}

func (h *SchoolHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parsePathID(chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid school id", nil)
		return
	}

	patch, image, cleanup, err := decodeSchoolPatch(r)
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}
	defer cleanup()

	updated, err := h.svc.Update(r.Context(), id, patch, image)
	if err != nil {
		writeSchoolError(w, r, err, "failed to update school")
		return
	}

	observability.Audit(r, "school.update", "school_id", updated.ID)
	response.JSON(w, r, http.StatusOK, updated)
}

func (h *SchoolHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parsePathID(chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid school id", nil)
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		writeSchoolError(w, r, err, "failed to delete school")
		return
	}

	observability.Audit(r, "school.delete", "school_id", id)
	response.JSON(w, r, http.StatusOK, map[string]string{"status": "deleted"})
}

// decodeSchoolInput accepts either a JSON body or a multipart form with an
// "image" part. The service rejects creation without one; decoding stays
// lenient so the caller gets a field-level validation message. The cleanup
// func closes any open file handle.
func decodeSchoolInput(r *http.Request) (service.SchoolInput, *service.ImageUpload, func(), error) {
	noop := func() {}
	if !isMultipart(r) {
		var in service.SchoolInput
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			return service.SchoolInput{}, nil, noop, errors.New("invalid payload")
		}
		return in, nil, noop, nil
	}

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		return service.SchoolInput{}, nil, noop, errors.New("invalid multipart payload")
	}
	in := service.SchoolInput{
		Name:    r.FormValue("name"),
		Address: r.FormValue("address"),
		City:    r.FormValue("city"),
		State:   r.FormValue("state"),
		Contact: r.FormValue("contact"),
		EmailID: r.FormValue("email_id"),
	}
	image, cleanup, err := formImage(r)
	if err != nil {
		return service.SchoolInput{}, nil, noop, err
	}
	return in, image, cleanup, nil
}

func decodeSchoolPatch(r *http.Request) (service.SchoolPatch, *service.ImageUpload, func(), error) {
	noop := func() {}
	if !isMultipart(r) {
		var patch service.SchoolPatch
		if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
			return service.SchoolPatch{}, nil, noop, errors.New("invalid payload")
		}
		return patch, nil, noop, nil
	}

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		return service.SchoolPatch{}, nil, noop, errors.New("invalid multipart payload")
	}
	var patch service.SchoolPatch
	assign := func(dst **string, field string) {
		if vals, ok := r.MultipartForm.Value[field]; ok && len(vals) > 0 {
			v := vals[0]
			*dst = &v
		}
	}
	assign(&patch.Name, "name")
	assign(&patch.Address, "address")
	assign(&patch.City, "city")
	assign(&patch.State, "state")
	assign(&patch.Contact, "contact")
	assign(&patch.EmailID, "email_id")

	image, cleanup, err := formImage(r)
	if err != nil {
		return service.SchoolPatch{}, nil, noop, err
	}
	return patch, image, cleanup, nil
}

func formImage(r *http.Request) (*service.ImageUpload, func(), error) {
	file, header, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, func() {}, nil
	}
	if err != nil {
		return nil, func() {}, errors.New("invalid image upload")
	}
	return &service.ImageUpload{Reader: file, Size: header.Size}, func() { _ = file.Close() }, nil
}

func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data")
}

func writeSchoolError(w http.ResponseWriter, r *http.Request, err error, internalMsg string) {
	switch {
	case errors.Is(err, service.ErrSchoolNotFound):
		response.Error(w, r, http.StatusNotFound, "NOT_FOUND", "school not found", nil)
	case errors.Is(err, service.ErrInvalidSchoolData):
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
	case errors.Is(err, service.ErrFileTooBig):
		response.Error(w, r, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "image exceeds size limit", nil)
	case errors.Is(err, service.ErrInvalidFileType):
		response.Error(w, r, http.StatusUnsupportedMediaType, "UNSUPPORTED_MEDIA_TYPE", "image must be JPEG or PNG", nil)
	default:
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", internalMsg, nil)
	}
}

func parsePathID(input string) (uint, error) {
	id64, err := strconv.ParseUint(strings.TrimSpace(input), 10, 64)
	if err != nil || id64 == 0 {
		return 0, errors.New("invalid id")
	}
	return uint(id64), nil
}

func parsePageRequest(r *http.Request) (repository.PageRequest, error) {
	page := repository.DefaultPage
	pageSize := repository.DefaultPageSize
	if raw := strings.TrimSpace(r.URL.Query().Get("page")); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			return repository.PageRequest{}, errors.New("page must be a positive integer")
		}
		page = v
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("page_size")); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			return repository.PageRequest{}, errors.New("page_size must be a positive integer")
		}
		if v > repository.MaxPageSize {
			return repository.PageRequest{}, fmt.Errorf("page_size must be <= %d", repository.MaxPageSize)
		}
		pageSize = v
	}
	return repository.PageRequest{Page: page, PageSize: pageSize}, nil
}
