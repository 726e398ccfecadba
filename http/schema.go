package httpapi

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schema/comparables_request.json
var comparablesRequestSchema []byte

const comparablesSchemaURL = "comparables_request.json"

var requestSchema = mustCompile(comparablesSchemaURL, comparablesRequestSchema)

func mustCompile(url string, raw []byte) *jsonschema.Schema {
	c := jsonschema.NewCompiler()
	if err := c.AddResource(url, bytes.NewReader(raw)); err != nil {
		panic(fmt.Sprintf("add schema %s: %v", url, err))
	}
	return c.MustCompile(url)
}

// errInvalidJSON wraps body decode failures so they map to invalid_json.
type errInvalidJSON struct{ err error }

func (e errInvalidJSON) Error() string { return e.err.Error() }
func (e errInvalidJSON) Unwrap() error { return e.err }

// validateBody checks raw JSON against the request schema.
func validateBody(body []byte) error {
	var v interface{}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return errInvalidJSON{err}
	}
	if dec.More() {
		return errInvalidJSON{fmt.Errorf("unexpected data after JSON body")}
	}
	if err := requestSchema.Validate(v); err != nil {
		return err
	}
	return nil
}
