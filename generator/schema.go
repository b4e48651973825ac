package generator

import (
	"encoding/json"
	"sync"

	"github.com/invopop/jsonschema"
)

const (
	draftToolName    = "AnswerQuestion"
	revisionToolName = "ReviseAnswer"
)

// ToolSpec describes the function the model is forced to call.
type ToolSpec struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

var (
	schemaOnce sync.Once
	draftTool  ToolSpec
	reviseTool ToolSpec
)

// ToolFor returns the forced tool for the given shape.
func ToolFor(shape Shape) ToolSpec {
	schemaOnce.Do(func() {
		draftTool = ToolSpec{
			Name:        draftToolName,
			Description: "Answer the question.",
			Parameters:  reflectParameters(&Draft{}),
		}
		reviseTool = ToolSpec{
			Name:        revisionToolName,
			Description: "Revise your original answer to your question.",
			Parameters:  reflectParameters(&Revision{}),
		}
	})
	if shape == ShapeRevision {
		return reviseTool
	}
	return draftTool
}

// shapeForTool maps a tool name back to its shape.
func shapeForTool(name string) (Shape, bool) {
	switch name {
	case draftToolName:
		return ShapeDraft, true
	case revisionToolName:
		return ShapeRevision, true
	}
	return 0, false
}

func reflectParameters(v any) map[string]any {
	reflector := &jsonschema.Reflector{ExpandedStruct: true, DoNotReference: true}
	schema := reflector.Reflect(v)
	b, err := json.Marshal(schema)
	if err != nil {
		panic(err) // static types, cannot fail
	}
	var result map[string]any
	if err := json.Unmarshal(b, &result); err != nil {
		panic(err)
	}
	delete(result, "$schema")
	delete(result, "$id")
	return result
}
