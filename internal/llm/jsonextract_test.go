package llm

import "testing"

func TestDecodeObject_BareJSON(t *testing.T) {
	var parsed struct {
		Summary string `json:"summary"`
	}

	if !DecodeObject(`{"summary":"A budget bill"}`, &parsed) {
		t.Fatal("Expected decode to succeed")
	}
	if parsed.Summary != "A budget bill" {
		t.Errorf("Expected %q, got %q", "A budget bill", parsed.Summary)
	}
}

func TestDecodeObject_FencedJSON(t *testing.T) {
	content := "Here is the analysis you asked for:\n```json\n{\"summary\":\"A budget bill\"}\n```\nLet me know if you need more."

	var parsed struct {
		Summary string `json:"summary"`
	}

	if !DecodeObject(content, &parsed) {
		t.Fatal("Expected decode to succeed on fenced output")
	}
	if parsed.Summary != "A budget bill" {
		t.Errorf("Expected %q, got %q", "A budget bill", parsed.Summary)
	}
}

func TestDecodeObject_NoObject(t *testing.T) {
	var parsed struct {
		Summary string `json:"summary"`
	}

	if DecodeObject("I could not produce JSON for this request.", &parsed) {
		t.Fatal("Expected decode to fail when no object is present")
	}
}

func TestExtractJSONObject_NestedBraces(t *testing.T) {
	input := `prefix {"outer":{"inner":1},"k":"v"} suffix`
	expected := `{"outer":{"inner":1},"k":"v"}`

	obj, ok := ExtractJSONObject(input)
	if !ok {
		t.Fatal("Expected extraction to succeed")
	}
	if obj != expected {
		t.Errorf("Expected %q, got %q", expected, obj)
	}
}

func TestExtractJSONObject_BracesInsideStrings(t *testing.T) {
	input := `{"note":"uses { and } freely","done":true}`

	obj, ok := ExtractJSONObject(input)
	if !ok {
		t.Fatal("Expected extraction to succeed")
	}
	if obj != input {
		t.Errorf("Expected %q, got %q", input, obj)
	}
}

func TestExtractJSONObject_Unbalanced(t *testing.T) {
	if _, ok := ExtractJSONObject(`{"summary":"never closed`); ok {
		t.Fatal("Expected extraction to fail on unbalanced braces")
	}
}

func TestExtractField_FromProse(t *testing.T) {
	content := `The model replied with "impactLevel": "high" followed by commentary.`

	value, ok := ExtractField(content, "impactLevel")
	if !ok {
		t.Fatal("Expected field extraction to succeed")
	}
	if value != "high" {
		t.Errorf("Expected %q, got %q", "high", value)
	}
}

func TestExtractField_UnescapesValue(t *testing.T) {
	content := `{"summary": "Line one\nLine two"}`

	value, ok := ExtractField(content, "summary")
	if !ok {
		t.Fatal("Expected field extraction to succeed")
	}
	if value != "Line one\nLine two" {
		t.Errorf("Expected unescaped newline, got %q", value)
	}
}

func TestExtractField_CaseInsensitiveKey(t *testing.T) {
	value, ok := ExtractField(`{"Impact_Level": "low"}`, "impact_level")
	if !ok {
		t.Fatal("Expected field extraction to succeed")
	}
	if value != "low" {
		t.Errorf("Expected %q, got %q", "low", value)
	}
}

func TestExtractField_Missing(t *testing.T) {
	if _, ok := ExtractField(`{"summary":"x"}`, "details"); ok {
		t.Fatal("Expected extraction of missing field to fail")
	}
}
