package swaggerkit

import (
	"encoding/json"
	"net/http"
	"regexp"
	"sort"
	"strings"
	"sync"

	"pimms/internal/core/version"
	"pimms/internal/platform/config"
)

// Operation describes one mounted route for the served spec
// Path is relative to /api/v1 and uses chi style {params}
type Operation struct {
	Method  string
	Path    string
	Summary string
	Tag     string
}

// SpecMutator lets modules tweak the built swagger spec before it is served
type SpecMutator func(map[string]any)

var (
	mu        sync.Mutex
	mutators  []SpecMutator
	operation = map[string]Operation{}
)

// Register adds a spec mutator for swagger JSON
func Register(m SpecMutator) {
	if m == nil {
		return
	}
	mu.Lock()
	defer mu.Unlock()
	mutators = append(mutators, m)
}

// Describe records operations, the same method and path twice is kept once
func Describe(ops ...Operation) {
	mu.Lock()
	defer mu.Unlock()
	for _, op := range ops {
		m := strings.ToLower(op.Method)
		if m == "" || op.Path == "" {
			continue
		}
		op.Method = m
		operation[m+" "+op.Path] = op
	}
}

// docReader is a seam so tests can inspect the raw spec
var docReader = func() string {
	b, _ := json.Marshal(buildSpec())
	return string(b)
}

var pathParam = regexp.MustCompile(`\{([^}/]+)\}`)

func buildSpec() map[string]any {
	mu.Lock()
	ops := make([]Operation, 0, len(operation))
	for _, op := range operation {
		ops = append(ops, op)
	}
	mu.Unlock()
	sort.Slice(ops, func(i, j int) bool {
		if ops[i].Path != ops[j].Path {
			return ops[i].Path < ops[j].Path
		}
		return ops[i].Method < ops[j].Method
	})

	paths := map[string]any{}
	for _, op := range ops {
		node, ok := paths[op.Path].(map[string]any)
		if !ok {
			node = map[string]any{}
			paths[op.Path] = node
		}
		var params []any
		for _, m := range pathParam.FindAllStringSubmatch(op.Path, -1) {
			params = append(params, map[string]any{
				"name":     m[1],
				"in":       "path",
				"required": true,
				"schema":   map[string]any{"type": "string"},
			})
		}
		entry := map[string]any{
			"summary": op.Summary,
			"responses": map[string]any{
				"200": map[string]any{"description": "OK"},
			},
		}
		if op.Tag != "" {
			entry["tags"] = []any{op.Tag}
		}
		if len(params) > 0 {
			entry["parameters"] = params
		}
		node[op.Method] = entry
	}

	return map[string]any{
		"openapi": "3.0.3",
		"info": map[string]any{
			"title":   "Pimms API",
			"version": version.Info("pimms-api").Version,
		},
		"paths": paths,
	}
}

// serveDocJSON serves swagger JSON and lets modules adjust details
func serveDocJSON() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := docReader()

		var spec map[string]any
		if err := json.Unmarshal([]byte(raw), &spec); err != nil {
			http.Error(w, "spec parse error", http.StatusInternalServerError)
			return
		}

		ensureServers(spec, "/api/v1")

		cfg := config.New().Prefix("CORE_API_")
		if v := cfg.MayString("DOCS_TITLE_SUFFIX", ""); v != "" {
			if info, ok := spec["info"].(map[string]any); ok {
				if title, ok := info["title"].(string); ok {
					info["title"] = title + " " + v
				}
			}
		}

		ensureErrorResponseDefinition(spec)
		addDefaultResponse(spec, "500", 500, "Internal Server Error", 1, "panic recovered")
		addDefaultResponse(spec, "400", 400, "Bad Request", 8, "workspace id is required")

		mu.Lock()
		ms := append([]SpecMutator(nil), mutators...)
		mu.Unlock()
		for _, m := range ms {
			m(spec)
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		_ = json.NewEncoder(w).Encode(spec)
	}
}

// ensureServers makes sure the spec has a servers array
func ensureServers(spec map[string]any, url string) {
	if _, ok := spec["servers"]; !ok {
		spec["servers"] = []any{
			map[string]any{"url": url},
		}
	}
}

// ensureErrorResponseDefinition creates the error envelope model if missing
// kept minimal so it does not drift from the runtime wire
func ensureErrorResponseDefinition(spec map[string]any) {
	comps, ok := spec["components"].(map[string]any)
	if !ok {
		comps = map[string]any{}
		spec["components"] = comps
	}
	schemas, ok := comps["schemas"].(map[string]any)
	if !ok {
		schemas = map[string]any{}
		comps["schemas"] = schemas
	}
	if _, ok := schemas["ErrorResponse"]; ok {
		return
	}
	schemas["ErrorResponse"] = map[string]any{
		"type":        "object",
		"description": "Standard error response",
		"properties": map[string]any{
			"status_code": map[string]any{"type": "integer", "format": "int32"},
			"status":      map[string]any{"type": "string"},
			"code":        map[string]any{"type": "integer", "format": "int32"},
			"error":       map[string]any{"type": "string"},
			"request_id":  map[string]any{"type": "string"},
		},
		"required": []any{"status_code", "status"},
	}
}

// addDefaultResponse injects an error response under key on every operation lacking one
func addDefaultResponse(spec map[string]any, key string, status int, text string, code int, msg string) {
	paths, ok := spec["paths"].(map[string]any)
	if !ok {
		return
	}
	resp := map[string]any{
		"description": text,
		"content": map[string]any{
			"application/json": map[string]any{
				"schema": map[string]any{"$ref": "#/components/schemas/ErrorResponse"},
				"example": map[string]any{
					"status_code": status,
					"status":      text,
					"code":        code,
					"error":       msg,
					"request_id":  "579f33bf50b1/abc-000001",
				},
			},
		},
	}
	for _, p := range paths {
		node, ok := p.(map[string]any)
		if !ok {
			continue
		}
		for _, opAny := range node {
			op, ok := opAny.(map[string]any)
			if !ok {
				continue
			}
			responses, ok := op["responses"].(map[string]any)
			if !ok {
				responses = map[string]any{}
				op["responses"] = responses
			}
			if _, exists := responses[key]; !exists {
				responses[key] = resp
			}
		}
	}
}
