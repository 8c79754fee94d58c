package api

import (
	"net/http"

	"github.com/user/tenant-gateway/internal/adapter/api/respond"
)

// Operation describes one registered route for the machine-readable
// catalog served to client and documentation tooling.
type Operation struct {
	ID      string
	Method  string
	Path    string
	Summary string
	Secured bool
}

// operationTable is the single source of truth for what the gateway
// exposes; the router registers exactly these routes and the catalog
// endpoint renders them.
var operationTable = []Operation{
	{ID: "demo_create", Method: http.MethodPost, Path: "/api/demos", Summary: "Create a demo entity", Secured: true},
	{ID: "demo_list", Method: http.MethodGet, Path: "/api/demos", Summary: "List demo entities", Secured: true},
	{ID: "demo_get", Method: http.MethodGet, Path: "/api/demos/{id}", Summary: "Get a demo entity by id", Secured: true},
	{ID: "demo_update", Method: http.MethodPut, Path: "/api/demos/{id}", Summary: "Update a demo entity", Secured: true},
	{ID: "demo_delete", Method: http.MethodDelete, Path: "/api/demos/{id}", Summary: "Soft-delete a demo entity", Secured: true},
	{ID: "schema", Method: http.MethodGet, Path: "/swagger/v1/swagger.json", Summary: "This operation catalog"},
	{ID: "health", Method: http.MethodGet, Path: "/health", Summary: "Liveness probe"},
}

// SchemaConfig parameterizes the rendered catalog.
type SchemaConfig struct {
	Title            string
	Version          string
	PathBase         string
	Issuer           string
	TokenURL         string
	AuthorizationURL string
	RequiredScope    string
}

// SchemaHandler serves the operation catalog as an OpenAPI 3 document:
// paths, verbs, and the OAuth2 client-credentials security scheme with
// the scope gating the resource set.
type SchemaHandler struct {
	cfg SchemaConfig
	rw  *respond.Writer
}

func NewSchemaHandler(cfg SchemaConfig, rw *respond.Writer) *SchemaHandler {
	return &SchemaHandler{cfg: cfg, rw: rw}
}

func (h *SchemaHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.rw.JSON(w, http.StatusOK, h.document())
}

func (h *SchemaHandler) document() map[string]interface{} {
	paths := make(map[string]interface{})
	for _, op := range operationTable {
		entry, _ := paths[op.Path].(map[string]interface{})
		if entry == nil {
			entry = make(map[string]interface{})
			paths[op.Path] = entry
		}

		detail := map[string]interface{}{
			"operationId": op.ID,
			"summary":     op.Summary,
			"responses": map[string]interface{}{
				"default": map[string]interface{}{"description": ""},
			},
		}
		if op.Secured {
			detail["security"] = []map[string][]string{
				{"oauth2": {h.cfg.RequiredScope}},
			}
		}
		entry[lowerMethod(op.Method)] = detail
	}

	tokenURL := h.cfg.TokenURL
	if tokenURL == "" {
		tokenURL = h.cfg.Issuer + "/connect/token"
	}
	authURL := h.cfg.AuthorizationURL
	if authURL == "" {
		authURL = h.cfg.Issuer
	}

	return map[string]interface{}{
		"openapi": "3.0.1",
		"info": map[string]interface{}{
			"title":   h.cfg.Title,
			"version": h.cfg.Version,
		},
		"servers": []map[string]interface{}{
			{"url": h.cfg.PathBase},
		},
		"paths": paths,
		"components": map[string]interface{}{
			"securitySchemes": map[string]interface{}{
				"oauth2": map[string]interface{}{
					"type": "oauth2",
					"flows": map[string]interface{}{
						"clientCredentials": map[string]interface{}{
							"authorizationUrl": authURL,
							"tokenUrl":         tokenURL,
							"scopes": map[string]string{
								h.cfg.RequiredScope: h.cfg.Title,
							},
						},
					},
				},
			},
		},
	}
}

func lowerMethod(method string) string {
	switch method {
	case http.MethodGet:
		return "get"
	case http.MethodPost:
		return "post"
	case http.MethodPut:
		return "put"
	case http.MethodDelete:
		return "delete"
	case http.MethodPatch:
		return "patch"
	default:
		return method
	}
}
