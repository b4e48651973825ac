package generator

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/tidwall/gjson"
)

// MissingAnswer replaces the answer when a drifted call carries none.
const MissingAnswer = "[missing answer]"

var validate = validator.New()

// Parsed is a typed entity recovered from a structured call. Exactly one of
// Draft and Revision is set, matching Shape.
type Parsed struct {
	Shape    Shape
	Call     ToolCall
	Draft    *Draft
	Revision *Revision
	// Drift is non-nil when the entity came from the fallback path.
	Drift *SchemaDriftError
}

func (p Parsed) Answer() string {
	if p.Revision != nil {
		return p.Revision.Answer
	}
	if p.Draft != nil {
		return p.Draft.Answer
	}
	return ""
}

func (p Parsed) Reflection() Reflection {
	if p.Revision != nil {
		return p.Revision.Reflection
	}
	if p.Draft != nil {
		return p.Draft.Reflection
	}
	return Reflection{}
}

func (p Parsed) SearchQueries() []string {
	if p.Revision != nil {
		return p.Revision.SearchQueries
	}
	if p.Draft != nil {
		return p.Draft.SearchQueries
	}
	return nil
}

// strict wire form; pointers let "present but empty" pass required.
type reflectionPayload struct {
	Missing     *string `json:"missing" validate:"required"`
	Superfluous *string `json:"superfluous" validate:"required"`
}

type callPayload struct {
	Answer        string             `json:"answer" validate:"required"`
	Reflection    *reflectionPayload `json:"reflection" validate:"required"`
	SearchQueries []string           `json:"search_queries" validate:"required,min=1,dive,required"`
	Reference     []string           `json:"reference"`
}

// Parse turns a raw generation into the expected shape. A response with no
// tool call is fatal (ErrUnparsableResponse). A call that does not match the
// shape is recovered field by field and flagged through Parsed.Drift.
func Parse(raw RawResponse, shape Shape) (Parsed, error) {
	if len(raw.ToolCalls) == 0 {
		return Parsed{}, ErrUnparsableResponse
	}
	call := pickCall(raw.ToolCalls, shape)

	p, err := parseStrict(call, shape)
	if err != nil {
		p = parseFallback(call, shape)
		p.Drift = &SchemaDriftError{Shape: shape, Cause: err}
	}
	p.Call = normalizeCall(call, p)
	return p, nil
}

func pickCall(calls []ToolCall, shape Shape) ToolCall {
	want := ToolFor(shape).Name
	for _, c := range calls {
		if c.Name == want {
			return c
		}
	}
	return calls[0]
}

func parseStrict(call ToolCall, shape Shape) (Parsed, error) {
	if got, ok := shapeForTool(call.Name); !ok || got != shape {
		return Parsed{}, fmt.Errorf("called %q, want %q", call.Name, ToolFor(shape).Name)
	}
	var payload callPayload
	if err := json.Unmarshal([]byte(call.Arguments), &payload); err != nil {
		return Parsed{}, fmt.Errorf("decode arguments: %w", err)
	}
	if err := validate.Struct(payload); err != nil {
		return Parsed{}, err
	}
	refl := Reflection{Missing: *payload.Reflection.Missing, Superfluous: *payload.Reflection.Superfluous}
	queries := capQueries(payload.SearchQueries)

	if shape == ShapeRevision {
		refs := payload.Reference
		if refs == nil {
			refs = []string{}
		}
		return Parsed{Shape: shape, Revision: &Revision{
			Answer:        payload.Answer,
			Reflection:    refl,
			SearchQueries: queries,
			Reference:     refs,
		}}, nil
	}
	return Parsed{Shape: shape, Draft: &Draft{
		Answer:        payload.Answer,
		Reflection:    refl,
		SearchQueries: queries,
	}}, nil
}

func parseFallback(call ToolCall, shape Shape) Parsed {
	args := call.Arguments
	answer := strings.TrimSpace(gjson.Get(args, "answer").String())
	if answer == "" {
		answer = MissingAnswer
	}
	refl := Reflection{
		Missing:     gjson.Get(args, "reflection.missing").String(),
		Superfluous: gjson.Get(args, "reflection.superfluous").String(),
	}
	queries := capQueries(stringsAt(args, "search_queries"))

	if shape == ShapeRevision {
		var refs []string
		for _, path := range []string{"reference", "references", "citations"} {
			if refs = stringsAt(args, path); len(refs) > 0 {
				break
			}
		}
		if refs == nil {
			refs = []string{}
		}
		return Parsed{Shape: shape, Revision: &Revision{
			Answer:        answer,
			Reflection:    refl,
			SearchQueries: queries,
			Reference:     refs,
		}}
	}
	return Parsed{Shape: shape, Draft: &Draft{
		Answer:        answer,
		Reflection:    refl,
		SearchQueries: queries,
	}}
}

// stringsAt reads a string or array of strings, dropping blanks.
func stringsAt(args, path string) []string {
	res := gjson.Get(args, path)
	var out []string
	switch {
	case res.IsArray():
		res.ForEach(func(_, v gjson.Result) bool {
			if s := strings.TrimSpace(v.String()); s != "" {
				out = append(out, s)
			}
			return true
		})
	case res.Type == gjson.String:
		if s := strings.TrimSpace(res.String()); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func capQueries(q []string) []string {
	if len(q) > MaxSearchQueries {
		return q[:MaxSearchQueries]
	}
	return q
}

// normalizeCall re-encodes the recovered entity so history always carries
// well-formed arguments under the expected tool name.
func normalizeCall(call ToolCall, p Parsed) ToolCall {
	id := call.ID
	if id == "" {
		id = "call_" + uuid.NewString()
	}
	var entity any = p.Draft
	if p.Revision != nil {
		entity = p.Revision
	}
	args, err := json.Marshal(entity)
	if err != nil {
		args = []byte(call.Arguments)
	}
	return ToolCall{ID: id, Name: ToolFor(p.Shape).Name, Arguments: string(args)}
}
