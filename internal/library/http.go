package library

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/qdes/aldex/internal/platform/middleware"
	requestutil "github.com/qdes/aldex/internal/platform/request"
	"github.com/qdes/aldex/internal/platform/respond"
	"github.com/qdes/aldex/pkg/convert"
	"github.com/qdes/aldex/pkg/pagination"
)

// Handler implements the HTTP layer for the user's album library.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns a [chi.Router] configured with the library endpoints.
//
// # Routing Strategy
//
//   - GET / is reachable without credentials and renders an empty shelf,
//     so a fresh client can paint before login completes.
//   - Everything mutative requires authentication.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/", handler.listAlbums)

	router.Group(func(authed chi.Router) {
		authed.Use(middleware.RequireAuth)

		authed.Post("/", handler.createAlbum)

		// Bulk endpoints sit on a static segment so they never collide
		// with the {id} routes below.
		authed.Patch("/batch", handler.updateBatch)
		authed.Post("/batch/delete", handler.deleteBatch)

		authed.Get("/{id}", handler.getAlbum)
		authed.Patch("/{id}", handler.updateAlbum)
		authed.Delete("/{id}", handler.deleteAlbum)
	})

	return router
}

/*
GET /api/v1/albums.

Description: Retrieves a paginated page of the caller's library, newest
first. Without credentials it returns an empty page rather than 401.

Request:
  - acquisition: string (wishlist, library)
  - progress: string (backlog, active, completed)
  - archived: bool (include archived entries)
  - limit, page: int

Response:
  - 200: []View: Paginated library entries
*/
func (handler *Handler) listAlbums(writer http.ResponseWriter, request *http.Request) {
	paginationParams := pagination.FromRequest(request)
	queryParams := request.URL.Query()

	filter := Filter{
		IncludeArchived: convert.ToBool(queryParams.Get("archived")),
	}
	if raw := queryParams.Get("acquisition"); raw != "" {
		if a := Acquisition(raw); a.Valid() {
			filter.Acquisition = &a
		}
	}
	if raw := queryParams.Get("progress"); raw != "" {
		if p := Progress(raw); p.Valid() {
			filter.Progress = &p
		}
	}

	userID := ""
	if claims := requestutil.Claims(request); claims != nil {
		userID = claims.UserID
	}

	views, total, err := handler.service.List(request.Context(),
		userID, filter, paginationParams.Limit, paginationParams.Offset(),
	)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, views, pagination.NewMeta(paginationParams.Page, paginationParams.Limit, total))
}

/*
POST /api/v1/albums.

Description: Adds an album to the caller's library. The submission is
resolved against the shared catalogue before a new album record is created.

Response:
  - 201: View: The created entry
  - 400: Validation failure
  - 409: The album is already in the caller's library
*/
func (handler *Handler) createAlbum(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input CreateInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	view, err := handler.service.Create(request.Context(), claims.UserID, input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, view)
}

/*
GET /api/v1/albums/{id}.

Response:
  - 200: View
  - 404: Unknown entry, or an entry belonging to another user
*/
func (handler *Handler) getAlbum(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	view, err := handler.service.Get(request.Context(), claims.UserID, requestutil.ID(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, view)
}

/*
PATCH /api/v1/albums/{id}.

Description: Partially updates an entry. rating, progress, personal_link,
and notes accept null as an explicit clear.

Response:
  - 200: View: The updated entry
  - 404: Unknown entry, or an entry belonging to another user
*/
func (handler *Handler) updateAlbum(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input UpdateInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	view, err := handler.service.Update(request.Context(), claims.UserID, requestutil.ID(request, "id"), input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, view)
}

/*
DELETE /api/v1/albums/{id}.

Response:
  - 204: Entry removed
  - 404: Unknown entry, or an entry belonging to another user
*/
func (handler *Handler) deleteAlbum(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.Delete(request.Context(), claims.UserID, requestutil.ID(request, "id")); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

/*
PATCH /api/v1/albums/batch.

Description: Applies the same patch to many entries atomically. If any
named entry is missing or not the caller's, nothing is changed.

Response:
  - 204: All entries updated
  - 404: At least one entry unknown or foreign
*/
func (handler *Handler) updateBatch(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input BatchInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.UpdateBatch(request.Context(), claims.UserID, input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

/*
POST /api/v1/albums/batch/delete.

Description: Removes many entries atomically, with the same all-or-nothing
ownership rule as the batch update.

Response:
  - 204: All entries removed
  - 404: At least one entry unknown or foreign
*/
func (handler *Handler) deleteBatch(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input BatchInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.DeleteBatch(request.Context(), claims.UserID, input.IDs); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}
