package catalog

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/qdes/aldex/internal/platform/middleware"
	requestutil "github.com/qdes/aldex/internal/platform/request"
	"github.com/qdes/aldex/internal/platform/respond"
	"github.com/qdes/aldex/internal/platform/sec"
	"github.com/qdes/aldex/pkg/pagination"
)

// Handler exposes the shared catalogue for curation.
//
// Regular users never talk to this surface; their albums are reached
// through the library routes. These endpoints exist for admins inspecting
// dedup behavior and cleaning up bad records.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns a [chi.Router] with the admin catalogue endpoints.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.RequireRole(sec.RoleAdmin))

	router.Get("/", handler.listAlbums)
	router.Get("/{id}", handler.getAlbum)

	return router
}

/*
GET /api/v1/catalog.

Description: Pages through the shared album catalogue.

Request:
  - q: string (Substring match against title and artist)
  - limit, page: int

Response:
  - 200: []Album
  - 403: Caller is not an admin
*/
func (handler *Handler) listAlbums(writer http.ResponseWriter, request *http.Request) {
	paginationParams := pagination.FromRequest(request)
	filter := Filter{Query: request.URL.Query().Get("q")}

	albums, total, err := handler.service.List(request.Context(),
		filter, paginationParams.Limit, paginationParams.Offset(),
	)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, albums, pagination.NewMeta(paginationParams.Page, paginationParams.Limit, total))
}

/*
GET /api/v1/catalog/{id}.

Response:
  - 200: Album
  - 404: Unknown album
*/
func (handler *Handler) getAlbum(writer http.ResponseWriter, request *http.Request) {
	album, err := handler.service.Get(request.Context(), requestutil.ID(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, album)
}
