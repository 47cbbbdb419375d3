package ingest

import (
	"encoding/json"

	"github.com/rotisserie/eris"

	"github.com/lienwise/bidengine/internal/model"
)

// Decode validates and unmarshals one fact sheet.
func Decode(data []byte) (*model.ParcelFactSheet, error) {
	if err := Validate(data); err != nil {
		return nil, err
	}
	var sheet model.ParcelFactSheet
	if err := json.Unmarshal(data, &sheet); err != nil {
		return nil, eris.Wrap(err, "ingest: decode fact sheet")
	}
	return &sheet, nil
}
