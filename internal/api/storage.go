package api

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/JaimeStill/augur/internal/pipeline"
	"github.com/JaimeStill/augur/pkg/handlers"
	"github.com/JaimeStill/augur/pkg/routes"
	"github.com/JaimeStill/augur/pkg/storage"
)

// archiveHandler serves exports previously archived to blob storage. Only
// keys under pipeline.ArchivePrefix are reachable.
type archiveHandler struct {
	store  storage.System
	logger *slog.Logger
}

func newArchiveHandler(store storage.System, logger *slog.Logger) *archiveHandler {
	return &archiveHandler{
		store:  store,
		logger: logger.With("handler", "archive"),
	}
}

func (h *archiveHandler) routes() routes.Group {
	return routes.Group{
		Prefix: "/exports/archive",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "/{key...}", Handler: h.download},
		},
	}
}

func (h *archiveHandler) download(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	if !strings.HasPrefix(key, pipeline.ArchivePrefix+"/") {
		handlers.RespondError(w, h.logger, http.StatusNotFound, storage.ErrNotFound)
		return
	}

	blob, err := h.store.Download(r.Context(), key)
	if err != nil {
		handlers.RespondError(
			w, h.logger,
			storage.MapHTTPStatus(err), err,
		)
		return
	}
	defer blob.Body.Close()

	w.Header().Set("Content-Type", blob.ContentType)
	if blob.ContentLength > 0 {
		w.Header().Set(
			"Content-Length",
			strconv.FormatInt(blob.ContentLength, 10),
		)
	}
	w.Header().Set(
		"Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", path.Base(key)),
	)
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, blob.Body); err != nil {
		h.logger.Warn("archive stream interrupted", "key", key, "error", err)
	}
}
