package tool

import (
	"testing"

	"github.com/kestrel-ai/toolbridge/pkg/provider/types"
	"github.com/kestrel-ai/toolbridge/pkg/schema"
)

func TestToJSONSchema_IncludesParametersFromInputSchema(t *testing.T) {
	tool := types.ToolDefinition{
		Name:        "get_weather",
		Description: "looks up the weather for a city",
		InputSchema: schema.New(map[string]interface{}{
			"type":       "object",
			"properties": map[string]interface{}{"city": map[string]interface{}{"type": "string"}},
		}),
	}

	got := ToJSONSchema(tool)

	fn, ok := got["function"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected 'function' key with map value, got %T", got["function"])
	}
	if fn["name"] != "get_weather" {
		t.Errorf("name = %v, want get_weather", fn["name"])
	}
	if _, ok := fn["parameters"]; !ok {
		t.Errorf("expected 'parameters' key when InputSchema is set")
	}
}

func TestToJSONSchema_OmitsParametersWhenNoInputSchema(t *testing.T) {
	tool := types.ToolDefinition{Name: "ping", Description: "no-op"}

	got := ToJSONSchema(tool)

	fn := got["function"].(map[string]interface{})
	if _, ok := fn["parameters"]; ok {
		t.Errorf("parameters should not be present when InputSchema is nil")
	}
}

func TestToOpenAIFormat(t *testing.T) {
	tools := []types.ToolDefinition{
		{Name: "tool_a", Description: "first"},
		{Name: "tool_b", Description: "second"},
	}

	formatted := ToOpenAIFormat(tools)
	if len(formatted) != 2 {
		t.Fatalf("expected 2 formatted tools, got %d", len(formatted))
	}
	fn0 := formatted[0]["function"].(map[string]interface{})
	if fn0["name"] != "tool_a" {
		t.Errorf("formatted[0] name = %v, want tool_a", fn0["name"])
	}
}

func TestToAnthropicFormat(t *testing.T) {
	tools := []types.ToolDefinition{
		{Name: "tool_a", Description: "first", InputSchema: schema.New(map[string]interface{}{"type": "object"})},
	}

	formatted := ToAnthropicFormat(tools)
	if formatted[0]["name"] != "tool_a" {
		t.Errorf("name = %v, want tool_a", formatted[0]["name"])
	}
	if _, ok := formatted[0]["input_schema"]; !ok {
		t.Errorf("expected 'input_schema' key")
	}
}

func TestToGoogleFormat(t *testing.T) {
	tools := []types.ToolDefinition{{Name: "tool_a", Description: "first"}}

	formatted := ToGoogleFormat(tools)
	if formatted[0]["name"] != "tool_a" {
		t.Errorf("name = %v, want tool_a", formatted[0]["name"])
	}
}

func TestParseToolCallArguments(t *testing.T) {
	tests := []struct {
		name    string
		args    interface{}
		wantErr bool
	}{
		{name: "map", args: map[string]interface{}{"city": "NYC"}},
		{name: "json string", args: `{"city":"NYC"}`},
		{name: "json bytes", args: []byte(`{"city":"NYC"}`)},
		{name: "invalid json string", args: `not json`, wantErr: true},
		{name: "unsupported type", args: 42, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ParseToolCallArguments(tt.args)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected an error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result["city"] != "NYC" {
				t.Errorf("city = %v, want NYC", result["city"])
			}
		})
	}
}

func TestValidateToolCall(t *testing.T) {
	tools := []types.ToolDefinition{{Name: "get_weather"}}

	if err := ValidateToolCall(types.ToolCall{ToolName: "get_weather"}, tools); err != nil {
		t.Errorf("unexpected error for known tool: %v", err)
	}
	if err := ValidateToolCall(types.ToolCall{ToolName: "unknown"}, tools); err == nil {
		t.Error("expected an error for unknown tool")
	}
}

func TestFindTool(t *testing.T) {
	tools := []types.ToolDefinition{{Name: "get_weather", Description: "weather lookup"}}

	found, err := FindTool("get_weather", tools)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found.Description != "weather lookup" {
		t.Errorf("description = %q, want %q", found.Description, "weather lookup")
	}

	if _, err := FindTool("missing", tools); err == nil {
		t.Error("expected an error for a tool that doesn't exist")
	}
}

func TestConvertToolChoiceToOpenAI(t *testing.T) {
	tests := []struct {
		name   string
		choice types.ToolChoice
		want   interface{}
	}{
		{name: "auto", choice: types.AutoToolChoice(), want: "auto"},
		{name: "none", choice: types.NoneToolChoice(), want: "none"},
		{name: "required", choice: types.RequiredToolChoice(), want: "required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ConvertToolChoiceToOpenAI(tt.choice); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}

	specific := ConvertToolChoiceToOpenAI(types.SpecificToolChoice("get_weather"))
	m, ok := specific.(map[string]interface{})
	if !ok {
		t.Fatalf("expected a map, got %T", specific)
	}
	fn := m["function"].(map[string]interface{})
	if fn["name"] != "get_weather" {
		t.Errorf("function name = %v, want get_weather", fn["name"])
	}
}

func TestConvertToolChoiceToAnthropic(t *testing.T) {
	if ConvertToolChoiceToAnthropic(types.NoneToolChoice()) != nil {
		t.Error("expected nil for ToolChoiceNone (Anthropic has no explicit none)")
	}

	specific := ConvertToolChoiceToAnthropic(types.SpecificToolChoice("get_weather"))
	m := specific.(map[string]interface{})
	if m["name"] != "get_weather" {
		t.Errorf("name = %v, want get_weather", m["name"])
	}
}

func TestConvertToolChoiceToGoogle(t *testing.T) {
	if got := ConvertToolChoiceToGoogle(types.RequiredToolChoice()); got != "ANY" {
		t.Errorf("got %v, want ANY", got)
	}
}
