package odata

import "testing"

func TestFilterParser_ParseComparison(t *testing.T) {
	parser := NewFilterParser()

	tests := []struct {
		name     string
		filter   string
		expected *FilterExpression
	}{
		{
			name:   "equals operator",
			filter: "title eq 'AI'",
			expected: &FilterExpression{
				Operator: "eq",
				Field:    "title",
				Value:    "AI",
			},
		},
		{
			name:   "not equals operator",
			filter: "source ne 'Reuters Business'",
			expected: &FilterExpression{
				Operator: "ne",
				Field:    "source",
				Value:    "Reuters Business",
			},
		},
		{
			name:   "greater than operator",
			filter: "published gt '2023-01-01T00:00:00Z'",
			expected: &FilterExpression{
				Operator: "gt",
				Field:    "published",
				Value:    "2023-01-01T00:00:00Z",
			},
		},
		{
			name:   "operator inside quoted value",
			filter: "title eq 'mergers and acquisitions'",
			expected: &FilterExpression{
				Operator: "eq",
				Field:    "title",
				Value:    "mergers and acquisitions",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := parser.Parse(tt.filter)
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}

			if result.Operator != tt.expected.Operator {
				t.Errorf("Operator = %v, want %v", result.Operator, tt.expected.Operator)
			}
			if result.Field != tt.expected.Field {
				t.Errorf("Field = %v, want %v", result.Field, tt.expected.Field)
			}
			if result.Value != tt.expected.Value {
				t.Errorf("Value = %v, want %v", result.Value, tt.expected.Value)
			}
		})
	}
}

func TestFilterParser_ParseFunctions(t *testing.T) {
	parser := NewFilterParser()

	tests := []struct {
		name     string
		filter   string
		expected *FilterExpression
	}{
		{
			name:   "startswith function",
			filter: "startswith(title, 'AI')",
			expected: &FilterExpression{
				Function: "startswith",
				Field:    "title",
				Value:    "AI",
			},
		},
		{
			name:   "endswith function",
			filter: "endswith(title, 'News')",
			expected: &FilterExpression{
				Function: "endswith",
				Field:    "title",
				Value:    "News",
			},
		},
		{
			name:   "contains function",
			filter: "contains(text, 'interest rates')",
			expected: &FilterExpression{
				Function: "contains",
				Field:    "text",
				Value:    "interest rates",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := parser.Parse(tt.filter)
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}

			if result.Function != tt.expected.Function {
				t.Errorf("Function = %v, want %v", result.Function, tt.expected.Function)
			}
			if result.Field != tt.expected.Field {
				t.Errorf("Field = %v, want %v", result.Field, tt.expected.Field)
			}
			if result.Value != tt.expected.Value {
				t.Errorf("Value = %v, want %v", result.Value, tt.expected.Value)
			}
		})
	}
}

func TestFilterParser_ParseLogicalOperators(t *testing.T) {
	parser := NewFilterParser()

	filter := "title eq 'AI' and source eq 'CNBC'"
	result, err := parser.Parse(filter)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if result.Operator != "and" {
		t.Errorf("Operator = %v, want 'and'", result.Operator)
	}

	if result.Left == nil || result.Right == nil {
		t.Error("Expected left and right expressions to be parsed")
	}

	if result.Left.Operator != "eq" || result.Left.Field != "title" {
		t.Error("Left expression not parsed correctly")
	}

	if result.Right.Operator != "eq" || result.Right.Field != "source" {
		t.Error("Right expression not parsed correctly")
	}
}

func TestFilterParser_OrBindsLooserThanAnd(t *testing.T) {
	parser := NewFilterParser()

	result, err := parser.Parse("source eq 'CNBC' and word_count gt 10 or collection_method eq 'feed'")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if result.Operator != "or" {
		t.Fatalf("Operator = %v, want 'or'", result.Operator)
	}
	if result.Left.Operator != "and" {
		t.Errorf("Left operator = %v, want 'and'", result.Left.Operator)
	}
}

func TestFilterParser_ParseErrors(t *testing.T) {
	parser := NewFilterParser()

	for _, filter := range []string{"title", "startswith(title)", "title eq"} {
		if _, err := parser.Parse(filter); err == nil {
			t.Errorf("Expected error for %q", filter)
		}
	}
}

func TestFilterParser_Evaluate(t *testing.T) {
	parser := NewFilterParser()

	row := Row{
		"title":               "Fed Holds Rates Steady",
		"description":         "Policy makers kept the benchmark unchanged",
		"text":                "The central bank said inflation remains elevated",
		"source":              "Reuters Business",
		"collection_method":   "feed",
		"published":           "2023-06-15T10:00:00Z",
		"word_count":          "12.0",
		"has_financial_terms": "True",
	}

	tests := []struct {
		name     string
		filter   string
		expected bool
	}{
		{"equals match", "title eq 'Fed Holds Rates Steady'", true},
		{"equals no match", "title eq 'Wrong Title'", false},
		{"startswith match", "startswith(title, 'fed')", true},
		{"startswith no match", "startswith(title, 'Wrong')", false},
		{"contains match", "contains(text, 'Inflation')", true},
		{"endswith match", "endswith(source, 'business')", true},
		{"numeric equality", "word_count eq 12", true},
		{"numeric greater", "word_count gt 9", true},
		{"numeric not lexical", "word_count lt 100", true},
		{"boolean spelling", "has_financial_terms eq true", true},
		{"date comparison", "published ge '2023-06-01T00:00:00Z'", true},
		{"case-insensitive column", "Source eq 'Reuters Business'", true},
		{"unknown column", "author eq 'x'", false},
		{"and both true", "source eq 'Reuters Business' and collection_method eq 'feed'", true},
		{"and one false", "source eq 'Reuters Business' and collection_method eq 'api'", false},
		{"or one true", "title eq 'Wrong' or collection_method eq 'feed'", true},
		{"or both false", "title eq 'Wrong' or collection_method eq 'api'", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expr, err := parser.Parse(tt.filter)
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}

			result, err := parser.Evaluate(expr, row)
			if err != nil {
				t.Fatalf("Evaluate() error = %v", err)
			}

			if result != tt.expected {
				t.Errorf("Evaluate() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestFilterParser_EvaluateNil(t *testing.T) {
	parser := NewFilterParser()

	expr, err := parser.Parse("")
	if err != nil || expr != nil {
		t.Fatalf("Expected nil expression for empty filter, got %v, %v", expr, err)
	}
	if ok, _ := parser.Evaluate(nil, Row{}); !ok {
		t.Error("Expected nil expression to match everything")
	}
}
