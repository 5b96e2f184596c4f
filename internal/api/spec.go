package api

//go:generate go tool oapi-codegen -config oapi-codegen.yaml openapi.yaml

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
)

//go:embed openapi.yaml
var rawSpec []byte

// Document is the loaded and validated OpenAPI description.
type Document struct {
	doc  *openapi3.T
	json []byte
}

func LoadDocument(ctx context.Context) (*Document, error) {
	loader := openapi3.NewLoader()
	loader.Context = ctx

	doc, err := loader.LoadFromData(rawSpec)
	if err != nil {
		return nil, fmt.Errorf("load openapi document: %w", err)
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("invalid openapi document: %w", err)
	}

	encoded, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode openapi document: %w", err)
	}
	return &Document{doc: doc, json: encoded}, nil
}

// ValidateBody checks a JSON request body against the named component schema.
func (d *Document) ValidateBody(schema string, body []byte) error {
	ref, ok := d.doc.Components.Schemas[schema]
	if !ok || ref.Value == nil {
		return fmt.Errorf("unknown schema %q", schema)
	}

	var value interface{}
	if err := json.Unmarshal(body, &value); err != nil {
		return fmt.Errorf("request body is not valid JSON: %w", err)
	}
	return ref.Value.VisitJSON(value, openapi3.MultiErrors())
}

// ServeHTTP serves the document as JSON.
func (d *Document) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(d.json)
}
