package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

var (
	compiledMu sync.Mutex
	compiled   = map[string]*jsonschema.Schema{}
)

// decodeStructured checks that raw is a JSON document matching schema and
// returns it with any markdown fence removed. A nil schema accepts anything.
func decodeStructured(schema *Schema, raw string) (json.RawMessage, error) {
	body := stripFence(raw)
	if schema == nil {
		return json.RawMessage(body), nil
	}
	if body == "" {
		return nil, &ErrInvalidResponse{Err: fmt.Errorf("%s: empty body", schema.Name)}
	}

	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(body))
	if err != nil {
		return nil, &ErrInvalidResponse{Content: json.RawMessage(body), Err: fmt.Errorf("%s: not JSON: %w", schema.Name, err)}
	}

	sch, err := compileSchema(schema)
	if err != nil {
		return nil, &ErrInvalidResponse{Content: json.RawMessage(body), Err: err}
	}
	if err := sch.Validate(doc); err != nil {
		return nil, &ErrInvalidResponse{Content: json.RawMessage(body), Err: fmt.Errorf("%s: %w", schema.Name, err)}
	}
	return json.RawMessage(body), nil
}

// stripFence removes a ```json ... ``` wrapper some models put around
// structured output even when asked not to.
func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// compileSchema compiles a schema once per name. Schemas are package-level
// values in content, so the name identifies the definition.
func compileSchema(schema *Schema) (*jsonschema.Schema, error) {
	compiledMu.Lock()
	defer compiledMu.Unlock()

	if sch, ok := compiled[schema.Name]; ok {
		return sch, nil
	}

	def, err := json.Marshal(schema.Definition)
	if err != nil {
		return nil, fmt.Errorf("encode schema %s: %w", schema.Name, err)
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(def))
	if err != nil {
		return nil, fmt.Errorf("decode schema %s: %w", schema.Name, err)
	}

	url := "mem://scholarly/" + schema.Name + ".json"
	c := jsonschema.NewCompiler()
	if err := c.AddResource(url, doc); err != nil {
		return nil, fmt.Errorf("load schema %s: %w", schema.Name, err)
	}
	sch, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile schema %s: %w", schema.Name, err)
	}
	compiled[schema.Name] = sch
	return sch, nil
}
