package handlers

import (
	"net/http"
	"time"

	"taskflow/internal/handlers/dto"
	"taskflow/internal/logger"
)

func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	subscriptionID, ok := parseID(w, r, "subscriptionID")
	if !ok {
		return
	}
	projects, err := h.Projects.List(r.Context(), subscriptionID)
	if err != nil {
		serviceError(w, r, "list projects", err)
		return
	}
	logOut("Projects listed", start, http.StatusOK)
	responseWithJSON(w, http.StatusOK, toPayload("projects", projects))
}

func (h *Handler) CreateProject(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	subscriptionID, ok := parseID(w, r, "subscriptionID")
	if !ok {
		return
	}
	var req dto.CreateProjectRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	p, err := h.Projects.Create(r.Context(), subscriptionID, req.Name)
	if err != nil {
		serviceError(w, r, "create project", err)
		return
	}
	logOut("Project created", start, http.StatusCreated)
	responseWithJSON(w, http.StatusCreated, toPayload("project", p))
}

func (h *Handler) GetProject(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	subscriptionID, ok := parseID(w, r, "subscriptionID")
	if !ok {
		return
	}
	id, ok := parseID(w, r, "projectID")
	if !ok {
		return
	}
	p, err := h.Projects.Get(r.Context(), subscriptionID, id)
	if err != nil {
		serviceError(w, r, "get project", err)
		return
	}
	logOut("Project found", start, http.StatusOK)
	responseWithJSON(w, http.StatusOK, toPayload("project", p))
}

// DeleteProject removes the project; its tasks move back to the inbox.
func (h *Handler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	subscriptionID, ok := parseID(w, r, "subscriptionID")
	if !ok {
		return
	}
	id, ok := parseID(w, r, "projectID")
	if !ok {
		return
	}
	if err := h.Projects.Delete(r.Context(), subscriptionID, id); err != nil {
		serviceError(w, r, "delete project", err)
		return
	}
	logOut("Project deleted", start, http.StatusNoContent)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ReorderProject(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP_IN:")

	subscriptionID, ok := parseID(w, r, "subscriptionID")
	if !ok {
		return
	}
	id, ok := parseID(w, r, "projectID")
	if !ok {
		return
	}
	h.reorder(w, r, "reorder project", subscriptionID, id, h.Tasks.ReorderProject)
}
