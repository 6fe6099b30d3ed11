package handlers

import (
	"net/http"
	"time"

	"taskflow/internal/handlers/dto"
	"taskflow/internal/logger"
	"taskflow/internal/models/section"

	"github.com/google/uuid"
)

func sectionPath(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	subscriptionID, ok := parseID(w, r, "subscriptionID")
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	sectionID, ok := parseID(w, r, "sectionID")
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	return subscriptionID, sectionID, true
}

func (h *Handler) respondSection(w http.ResponseWriter, r *http.Request, op string, start time.Time, s *section.Section, err error) {
	if err != nil {
		serviceError(w, r, op, err)
		return
	}
	logOut(op, start, http.StatusOK)
	responseWithJSON(w, http.StatusOK, toPayload("section", dto.FromSection(s)))
}

func (h *Handler) ListSections(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	subscriptionID, ok := parseID(w, r, "subscriptionID")
	if !ok {
		return
	}
	sections, err := h.Sections.List(r.Context(), subscriptionID)
	if err != nil {
		serviceError(w, r, "list sections", err)
		return
	}
	out := make([]dto.SectionResponse, len(sections))
	for i, s := range sections {
		out[i] = dto.FromSection(s)
	}
	logOut("Sections listed", start, http.StatusOK)
	responseWithJSON(w, http.StatusOK, toPayload("sections", out))
}

func (h *Handler) CreateSection(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	subscriptionID, ok := parseID(w, r, "subscriptionID")
	if !ok {
		return
	}
	var req dto.CreateSectionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	rule := section.DefaultRule()
	if req.Rule != nil {
		rule = req.Rule.ToRule()
	}

	s, err := h.Sections.Create(r.Context(), subscriptionID, req.Name, rule)
	if err != nil {
		serviceError(w, r, "create section", err)
		return
	}
	logOut("Section created", start, http.StatusCreated)
	responseWithJSON(w, http.StatusCreated, toPayload("section", dto.FromSection(s)))
}

func (h *Handler) GetSection(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	subscriptionID, id, ok := sectionPath(w, r)
	if !ok {
		return
	}
	s, err := h.Sections.Get(r.Context(), subscriptionID, id)
	h.respondSection(w, r, "get section", start, s, err)
}

func (h *Handler) RenameSection(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	subscriptionID, id, ok := sectionPath(w, r)
	if !ok {
		return
	}
	var req dto.RenameSectionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	s, err := h.Sections.Rename(r.Context(), subscriptionID, id, req.Name)
	h.respondSection(w, r, "rename section", start, s, err)
}

func (h *Handler) UpdateSectionRule(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	subscriptionID, id, ok := sectionPath(w, r)
	if !ok {
		return
	}
	var req dto.RuleDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	s, err := h.Sections.UpdateRule(r.Context(), subscriptionID, id, req.ToRule())
	h.respondSection(w, r, "update section rule", start, s, err)
}

func (h *Handler) IncludeSectionTask(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	subscriptionID, id, ok := sectionPath(w, r)
	if !ok {
		return
	}
	taskID, ok := parseID(w, r, "taskID")
	if !ok {
		return
	}
	s, err := h.Sections.IncludeTask(r.Context(), subscriptionID, id, taskID)
	h.respondSection(w, r, "include section task", start, s, err)
}

func (h *Handler) RemoveSectionTask(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	subscriptionID, id, ok := sectionPath(w, r)
	if !ok {
		return
	}
	taskID, ok := parseID(w, r, "taskID")
	if !ok {
		return
	}
	s, err := h.Sections.RemoveTask(r.Context(), subscriptionID, id, taskID)
	h.respondSection(w, r, "remove section task", start, s, err)
}

func (h *Handler) DeleteSection(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	subscriptionID, id, ok := sectionPath(w, r)
	if !ok {
		return
	}
	if err := h.Sections.Delete(r.Context(), subscriptionID, id); err != nil {
		serviceError(w, r, "delete section", err)
		return
	}
	logOut("Section deleted", start, http.StatusNoContent)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ResolveSection(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	subscriptionID, id, ok := sectionPath(w, r)
	if !ok {
		return
	}
	tasks, err := h.Sections.Resolve(r.Context(), subscriptionID, id)
	if err != nil {
		serviceError(w, r, "resolve section", err)
		return
	}
	logOut("Section resolved", start, http.StatusOK)
	responseWithJSON(w, http.StatusOK,
		toPayload("tasks", dto.FromTaskList(tasks)),
		toPayload("count", len(tasks)))
}

// ViewSections answers every section of the subscription with its tasks,
// all evaluated against the same instant.
func (h *Handler) ViewSections(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	subscriptionID, ok := parseID(w, r, "subscriptionID")
	if !ok {
		return
	}
	views, err := h.Sections.View(r.Context(), subscriptionID)
	if err != nil {
		serviceError(w, r, "view sections", err)
		return
	}
	out := make([]dto.SectionResponse, len(views))
	for i, v := range views {
		out[i] = dto.FromSection(v.Section)
		out[i].Tasks = dto.FromTaskList(v.Tasks)
	}
	logOut("Sections viewed", start, http.StatusOK)
	responseWithJSON(w, http.StatusOK, toPayload("sections", out))
}
