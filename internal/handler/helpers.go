package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/schoolink-dev/schoolink/internal/domain"
	mw "github.com/schoolink-dev/schoolink/internal/middleware"
)

const defaultPage int = 1

func parseIntParam(value, name string) (int, error) {
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed < 1 {
		return 0, fmt.Errorf("invalid %s parameter", name)
	}
	return parsed, nil
}

// pagination reads page and page_size query params, applying the configured
// default and hard cap.
func (h *Handler) pagination(r *http.Request) (page, pageSize int, err error) {
	page = defaultPage
	if pageQuery := r.URL.Query().Get("page"); pageQuery != "" {
		if page, err = parseIntParam(pageQuery, "page"); err != nil {
			return 0, 0, err
		}
	}

	pageSize = h.cfg.Public.PageSize
	if sizeQuery := r.URL.Query().Get("page_size"); sizeQuery != "" {
		if pageSize, err = parseIntParam(sizeQuery, "page_size"); err != nil {
			return 0, 0, err
		}
	}
	if pageSize > h.cfg.Public.MaxPageSize {
		pageSize = h.cfg.Public.MaxPageSize
	}
	return page, pageSize, nil
}

func messageIdParam(r *http.Request) (domain.MessageId, error) {
	id, err := uuid.Parse(chi.URLParam(r, "message"))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid message id")
	}
	return id, nil
}

// requester pulls the authenticated caller out of the request context. The
// auth middleware guarantees it is present on protected routes; a nil here
// means a wiring mistake, answered with 401.
func requester(w http.ResponseWriter, r *http.Request) (domain.Requester, bool) {
	req := mw.GetRequesterFromContext(r)
	if req == nil {
		http.Error(w, "Not authorized", http.StatusUnauthorized)
		return domain.Requester{}, false
	}
	return *req, true
}
