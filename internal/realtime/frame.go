package realtime

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schema/frame_v1.schema.json
var frameSchemaJSON []byte

var frameSchema = mustCompileFrameSchema()

var ErrInvalidFrame = errors.New("invalid_frame")

// Frame is one event pushed by the server: {"event": "...", "args": [...]}.
type Frame struct {
	Event string            `json:"event"`
	Args  []json.RawMessage `json:"args"`
}

func mustCompileFrameSchema() *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("frame_v1.schema.json", bytes.NewReader(frameSchemaJSON)); err != nil {
		panic(fmt.Sprintf("add frame schema: %v", err))
	}
	schema, err := compiler.Compile("frame_v1.schema.json")
	if err != nil {
		panic(fmt.Sprintf("compile frame schema: %v", err))
	}
	return schema
}

// DecodeFrame parses and validates a text frame.
func DecodeFrame(data []byte) (Frame, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return Frame{}, fmt.Errorf("%w: %v", ErrInvalidFrame, err)
	}
	if err := frameSchema.Validate(v); err != nil {
		return Frame{}, fmt.Errorf("%w: %v", ErrInvalidFrame, err)
	}
	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		return Frame{}, fmt.Errorf("%w: %v", ErrInvalidFrame, err)
	}
	return f, nil
}
