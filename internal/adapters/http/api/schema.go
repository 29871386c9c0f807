package api

import (
	"embed"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

// Request body schema names.
const (
	SchemaQuantiles = "quantiles"
	SchemaNormalize = "normalize"
)

//go:embed schemas/*.json
var schemaFS embed.FS

var (
	schemaOnce  sync.Once
	schemaCache map[string]*gojsonschema.Schema
	schemaErr   error
)

func loadSchemas() {
	schemaCache = make(map[string]*gojsonschema.Schema)
	for _, name := range []string{SchemaQuantiles, SchemaNormalize} {
		b, err := schemaFS.ReadFile("schemas/" + name + ".json")
		if err != nil {
			schemaErr = fmt.Errorf("read schema %s: %w", name, err)
			return
		}
		s, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(b))
		if err != nil {
			schemaErr = fmt.Errorf("compile schema %s: %w", name, err)
			return
		}
		schemaCache[name] = s
	}
}

// validateBody checks body against the named schema. A body that fails
// validation yields ErrInvalidBody listing every violation.
func validateBody(name string, body []byte) error {
	schemaOnce.Do(loadSchemas)
	if schemaErr != nil {
		return schemaErr
	}
	s, ok := schemaCache[name]
	if !ok {
		return fmt.Errorf("unknown schema %q", name)
	}

	result, err := s.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		// The document is not JSON at all.
		return fmt.Errorf("%w: %w", ErrInvalidBody, err)
	}
	if result.Valid() {
		return nil
	}
	errs := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		errs = append(errs, desc.String())
	}
	return fmt.Errorf("%w: %s", ErrInvalidBody, strings.Join(errs, "; "))
}
