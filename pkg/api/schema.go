package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/astromechza/ordered-todos/pkg/todo"
)

const maxBodyBytes = 1 << 20

var (
	createSchema = jsonschema.MustCompileString("create.json", `{
		"type": "object",
		"required": ["title"],
		"properties": {
			"title": {"type": "string"},
			"order": {"type": ["integer", "null"]}
		}
	}`)
	updateSchema = jsonschema.MustCompileString("update.json", `{
		"type": "object",
		"properties": {
			"title": {"type": ["string", "null"]},
			"completed": {"type": ["boolean", "null"]},
			"order": {"type": ["integer", "null"]},
			"version": {"type": ["string", "null"]}
		}
	}`)
	reorderSchema = jsonschema.MustCompileString("reorder.json", `{
		"type": "object",
		"required": ["items"],
		"properties": {
			"items": {
				"type": "array",
				"items": {
					"type": "object",
					"required": ["id", "order"],
					"properties": {
						"id": {"type": "string", "minLength": 1},
						"order": {"type": "integer"}
					}
				}
			}
		}
	}`)
)

// decodeBody reads a JSON body, checks it against schema and decodes it into out.
func decodeBody(request *http.Request, schema *jsonschema.Schema, out any) error {
	raw, err := io.ReadAll(io.LimitReader(request.Body, maxBodyBytes+1))
	if err != nil {
		return fmt.Errorf("%w: failed to read body: %v", todo.ErrValidation, err)
	}
	if len(raw) > maxBodyBytes {
		return fmt.Errorf("%w: body exceeds %d bytes", todo.ErrValidation, maxBodyBytes)
	}

	var doc any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("%w: failed to decode body: %v", todo.ErrValidation, err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("%w: %s", todo.ErrValidation, schemaMessage(err))
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: failed to decode body: %v", todo.ErrValidation, err)
	}
	return nil
}

func schemaMessage(err error) string {
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return err.Error()
	}
	var parts []string
	collectSchemaErrors(ve, &parts)
	return strings.Join(parts, "; ")
}

func collectSchemaErrors(err *jsonschema.ValidationError, parts *[]string) {
	if len(err.Causes) == 0 {
		loc := err.InstanceLocation
		if loc == "" {
			loc = "/"
		}
		*parts = append(*parts, fmt.Sprintf("%s: %s", loc, err.Message))
		return
	}
	for _, cause := range err.Causes {
		collectSchemaErrors(cause, parts)
	}
}
