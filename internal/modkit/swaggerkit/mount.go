// Package swaggerkit serves the openapi document built from the operations modules describe
package swaggerkit

import (
	"net/http"

	phttp "pimms/internal/platform/net/http"

	httpSwagger "github.com/swaggo/http-swagger"
)

const docsPath = "/api/docs"

// Mount serves the swagger ui at /api/docs/ and the document at /api/docs/doc.json
// nothing is mounted when disabled
func Mount(r phttp.Router, enabled bool) {
	if !enabled {
		return
	}
	r.Get(docsPath, func(w http.ResponseWriter, req *http.Request) {
		http.Redirect(w, req, docsPath+"/", http.StatusPermanentRedirect)
	})
	r.Get(docsPath+"/doc.json", serveDocJSON())
	r.Handle(docsPath+"/*", httpSwagger.Handler(
		httpSwagger.InstanceName("pimms"),
		httpSwagger.URL(docsPath+"/doc.json"),
	))
}
