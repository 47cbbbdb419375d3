// Package ingest is the validation boundary between the loosely-typed fact
// sheets produced by upstream scraping/valuation services and the engine's
// strongly-typed model. Structural problems are rejected here with a schema
// error; the engine itself never re-validates shape.
package ingest

import (
	"bytes"
	_ "embed"
	"encoding/json"

	"github.com/rotisserie/eris"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schema.json
var schemaJSON []byte

var factSheetSchema = mustCompile()

func mustCompile() *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("factsheet.json", bytes.NewReader(schemaJSON)); err != nil {
		panic(err)
	}
	return compiler.MustCompile("factsheet.json")
}

// Validate checks raw fact-sheet JSON against the embedded schema.
func Validate(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return eris.Wrap(err, "ingest: decode json")
	}
	if err := factSheetSchema.Validate(v); err != nil {
		return eris.Wrap(err, "ingest: fact sheet failed schema validation")
	}
	return nil
}
