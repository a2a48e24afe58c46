package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/tendant/simple-account/pkg/account"
	"github.com/tendant/simple-account/pkg/accountstore"
	"github.com/tendant/simple-account/pkg/result"
)

// Handler translates HTTP requests into account manager calls and maps
// results back to transport-level responses. Callers are assumed to be
// authenticated administrators; auth middleware is mounted by the server.
type Handler struct {
	manager   *account.Manager
	describer *account.ErrorDescriber
}

// NewHandler creates a new account handler.
func NewHandler(manager *account.Manager, describer *account.ErrorDescriber) *Handler {
	return &Handler{
		manager:   manager,
		describer: describer,
	}
}

// RegisterRoutes registers the account management routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/accounts", func(r chi.Router) {
		r.Get("/", h.SearchAccounts)
		r.Post("/", h.CreateAccount)
		r.Get("/roles", h.SearchRoles)
		r.Get("/{id}", h.GetAccount)
		r.Put("/{id}", h.UpdateAccount)
		r.Delete("/{id}", h.DeleteAccount)
	})
}

// SearchAccounts handles the request to list accounts. Filter criteria are
// accepted but not applied yet; see account.Manager.Search.
func (h *Handler) SearchAccounts(w http.ResponseWriter, r *http.Request) {
	descriptor := account.SearchDescriptor{
		Search:    r.URL.Query().Get("search"),
		SortBy:    r.URL.Query().Get("sort_by"),
		SortOrder: r.URL.Query().Get("sort_order"),
	}

	queryResult, err := h.manager.Search(r.Context(), descriptor)
	if err != nil {
		h.renderFault(w, r, err, "Failed to search accounts")
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, queryResult)
}

// CreateAccount handles account creation.
func (h *Handler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var view account.AccountView
	if err := render.DecodeJSON(r.Body, &view); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, map[string]string{"error": "invalid request body"})
		return
	}

	res, err := h.manager.Create(r.Context(), view)
	if err != nil {
		h.renderFault(w, r, err, "Failed to create account")
		return
	}
	if !res.Succeeded {
		render.Status(r, statusForResult(res))
		render.JSON(w, r, res)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, res)
}

// GetAccount handles retrieving a single account by id.
func (h *Handler) GetAccount(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	view, err := h.manager.FindByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, accountstore.ErrUserNotFound) {
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, result.Failed(h.describer.AccountNotFound(id)))
			return
		}
		h.renderFault(w, r, err, "Failed to find account")
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, view)
}

// UpdateAccount handles the multi-field account update.
func (h *Handler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	var view account.AccountView
	if err := render.DecodeJSON(r.Body, &view); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, map[string]string{"error": "invalid request body"})
		return
	}
	view.ID = chi.URLParam(r, "id")

	res, err := h.manager.Update(r.Context(), view)
	if err != nil {
		h.renderFault(w, r, err, "Failed to update account")
		return
	}
	if !res.Succeeded {
		render.Status(r, statusForResult(res))
		render.JSON(w, r, res)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, res)
}

// DeleteAccount handles account deletion.
func (h *Handler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	view := account.AccountView{ID: chi.URLParam(r, "id")}

	res, err := h.manager.Delete(r.Context(), view)
	if err != nil {
		h.renderFault(w, r, err, "Failed to delete account")
		return
	}
	if !res.Succeeded {
		render.Status(r, statusForResult(res))
		render.JSON(w, r, res)
		return
	}

	render.NoContent(w, r)
}

// SearchRoles handles the role name substring search.
func (h *Handler) SearchRoles(w http.ResponseWriter, r *http.Request) {
	names, err := h.manager.SearchRoles(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		h.renderFault(w, r, err, "Failed to search roles")
		return
	}
	if names == nil {
		names = []string{}
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, map[string][]string{"roles": names})
}

func (h *Handler) renderFault(w http.ResponseWriter, r *http.Request, err error, msg string) {
	if errors.Is(err, account.ErrManagerClosed) {
		slog.Error("Operation on closed account manager", "err", err)
		render.Status(r, http.StatusServiceUnavailable)
		render.JSON(w, r, map[string]string{"error": "account manager is shut down"})
		return
	}
	slog.Error(msg, "err", err)
	render.Status(r, http.StatusInternalServerError)
	render.JSON(w, r, map[string]string{"error": msg})
}

// statusForResult maps a failed result to an HTTP status. A not-found error
// anywhere in the result takes precedence.
func statusForResult(res result.Result) int {
	if res.HasCode(account.CodeAccountNotFound) {
		return http.StatusNotFound
	}
	return http.StatusBadRequest
}
