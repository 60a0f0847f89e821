package utils

import (
	"encoding/json"
	"fmt"

	"github.com/sysmcp/mcp-server-go/pkg/protocol"
)

// ValidateArguments checks tool-call arguments against the tool's
// declared input schema. It enforces the shape constraints the
// dispatcher can verify without a full JSON Schema engine: arguments
// must decode to an object when present, and every required property
// must be set.
func ValidateArguments(schema protocol.ToolInputSchema, args json.RawMessage) error {
	if len(args) == 0 {
		if len(schema.Required) > 0 {
			return fmt.Errorf("missing required argument %q", schema.Required[0])
		}
		return nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(args, &fields); err != nil {
		return fmt.Errorf("arguments must be a JSON object: %w", err)
	}
	for _, name := range schema.Required {
		if _, ok := fields[name]; !ok {
			return fmt.Errorf("missing required argument %q", name)
		}
	}
	return nil
}

// DecodeArguments unmarshals tool arguments into target with the
// offending payload included in the error message.
func DecodeArguments(args json.RawMessage, target interface{}) error {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}
	if err := json.Unmarshal(args, target); err != nil {
		return fmt.Errorf("failed to decode arguments: %w (payload: %s)", err, string(args))
	}
	return nil
}
