package blob

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	requestutil "github.com/qdes/aldex/internal/platform/request"
	"github.com/qdes/aldex/internal/platform/respond"
)

// Handler serves stored cover images over HTTP.
type Handler struct {
	store Store
}

func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

// Routes returns a [chi.Router] for the cover asset endpoints.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Get("/{ref}", handler.getCover)
	return router
}

/*
GET /api/v1/covers/{ref}.

Description: Streams a stored cover image. References are content-addressed
UUIDs, so responses are served with an immutable cache policy.

Response:
  - 200: The raw image bytes with the stored Content-Type
  - 404: Unknown reference
*/
func (handler *Handler) getCover(writer http.ResponseWriter, request *http.Request) {
	ref := requestutil.ID(request, "ref")

	stored, err := handler.store.Fetch(request.Context(), ref)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	writer.Header().Set("Content-Type", stored.ContentType)
	writer.Header().Set("Content-Length", fmt.Sprintf("%d", stored.ByteSize))
	writer.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	writer.WriteHeader(http.StatusOK)
	_, _ = writer.Write(stored.Content)
}
