package api

import (
	"net/http"

	"github.com/JaimeStill/augur/internal/config"
	"github.com/JaimeStill/augur/pkg/routes"
)

func registerRoutes(
	mux *http.ServeMux,
	domain *Domain,
	cfg *config.Config,
	runtime *Runtime,
) {
	groups := []routes.Group{
		domain.Pipeline.Handler(cfg.API.MaxUploadSizeBytes()).Routes(),
	}

	if runtime.Storage != nil {
		archive := newArchiveHandler(runtime.Storage, runtime.Logger)
		groups = append(groups, archive.routes())
	}

	n := routes.Register(mux, groups...)
	runtime.Logger.Debug("api routes registered", "count", n)
}
