package odata

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"newsharvest/internal/models"
)

// Row is one dataset record keyed by column name
type Row map[string]string

type FilterParser struct{}

type FilterExpression struct {
	Operator  string
	Field     string
	Value     string
	Left      *FilterExpression
	Right     *FilterExpression
	Function  string
	Arguments []string
}

var comparisonOperators = []string{"eq", "ne", "gt", "ge", "lt", "le"}

var functions = []string{"startswith", "endswith", "contains"}

// timeLayouts are tried in order when both sides of a comparison look like times
var timeLayouts = []string{
	time.RFC3339,
	models.CollectedAtLayout,
	time.RFC1123,
	time.RFC1123Z,
	"2006-01-02",
}

func NewFilterParser() *FilterParser {
	return &FilterParser{}
}

func (p *FilterParser) Parse(filter string) (*FilterExpression, error) {
	if filter == "" {
		return nil, nil
	}

	filter = strings.TrimSpace(filter)

	return p.parseExpression(filter)
}

func (p *FilterParser) parseExpression(expr string) (*FilterExpression, error) {
	expr = strings.TrimSpace(expr)

	// "or" binds looser than "and", so it is split first
	for _, op := range []string{"or", "and"} {
		if indexOutsideQuotes(expr, " "+op+" ") >= 0 {
			return p.parseLogicalOperator(expr, op)
		}
	}

	for _, op := range comparisonOperators {
		if indexOutsideQuotes(expr, " "+op+" ") >= 0 {
			return p.parseComparison(expr, op)
		}
	}

	lower := strings.ToLower(expr)
	for _, fn := range functions {
		if strings.HasPrefix(lower, fn+"(") {
			return p.parseFunction(expr, fn)
		}
	}

	return nil, fmt.Errorf("unable to parse expression: %s", expr)
}

// indexOutsideQuotes finds token case-insensitively, ignoring quoted literals
func indexOutsideQuotes(expr, token string) int {
	lower := strings.ToLower(expr)
	var quote byte
	for i := 0; i < len(lower); i++ {
		c := lower[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"':
			quote = c
		case strings.HasPrefix(lower[i:], token):
			return i
		}
	}
	return -1
}

func (p *FilterParser) parseLogicalOperator(expr string, op string) (*FilterExpression, error) {
	token := " " + op + " "
	opIndex := indexOutsideQuotes(expr, token)
	if opIndex == -1 {
		return nil, fmt.Errorf("invalid logical expression: %s", expr)
	}

	left, err := p.parseExpression(expr[:opIndex])
	if err != nil {
		return nil, err
	}

	right, err := p.parseExpression(expr[opIndex+len(token):])
	if err != nil {
		return nil, err
	}

	return &FilterExpression{
		Operator: op,
		Left:     left,
		Right:    right,
	}, nil
}

func (p *FilterParser) parseComparison(expr string, op string) (*FilterExpression, error) {
	token := " " + op + " "
	opIndex := indexOutsideQuotes(expr, token)
	if opIndex == -1 {
		return nil, fmt.Errorf("invalid comparison expression: %s", expr)
	}

	field := strings.TrimSpace(expr[:opIndex])
	value := strings.TrimSpace(expr[opIndex+len(token):])
	if field == "" || value == "" {
		return nil, fmt.Errorf("invalid comparison expression: %s", expr)
	}

	return &FilterExpression{
		Operator: op,
		Field:    field,
		Value:    strings.Trim(value, "'\""),
	}, nil
}

func (p *FilterParser) parseFunction(expr string, funcName string) (*FilterExpression, error) {
	// startswith(title, 'AI') -> title, 'AI'
	argsStart := strings.Index(expr, "(")
	argsEnd := strings.LastIndex(expr, ")")

	if argsStart == -1 || argsEnd == -1 || argsEnd < argsStart {
		return nil, fmt.Errorf("invalid function call: %s", expr)
	}

	args := p.parseFunctionArguments(expr[argsStart+1 : argsEnd])

	if len(args) != 2 {
		return nil, fmt.Errorf("function %s expects 2 arguments, got %d", funcName, len(args))
	}

	return &FilterExpression{
		Function:  funcName,
		Field:     strings.TrimSpace(args[0]),
		Value:     strings.Trim(args[1], "'\""),
		Arguments: args,
	}, nil
}

func (p *FilterParser) parseFunctionArguments(argsStr string) []string {
	var args []string
	var currentArg strings.Builder
	var inQuotes bool
	var quoteChar byte

	for i := 0; i < len(argsStr); i++ {
		char := argsStr[i]

		if !inQuotes && (char == '\'' || char == '"') {
			inQuotes = true
			quoteChar = char
			continue
		}

		if inQuotes && char == quoteChar {
			inQuotes = false
			continue
		}

		if !inQuotes && char == ',' {
			args = append(args, strings.TrimSpace(currentArg.String()))
			currentArg.Reset()
			continue
		}

		currentArg.WriteByte(char)
	}

	if currentArg.Len() > 0 {
		args = append(args, strings.TrimSpace(currentArg.String()))
	}

	return args
}

func (p *FilterParser) Evaluate(expr *FilterExpression, row Row) (bool, error) {
	if expr == nil {
		return true, nil
	}

	switch expr.Operator {
	case "and":
		left, err := p.Evaluate(expr.Left, row)
		if err != nil || !left {
			return false, err
		}
		return p.Evaluate(expr.Right, row)
	case "or":
		left, err := p.Evaluate(expr.Left, row)
		if err != nil {
			return false, err
		}
		if left {
			return true, nil
		}
		return p.Evaluate(expr.Right, row)
	}

	if expr.Operator != "" && expr.Field != "" {
		return p.evaluateComparison(expr, row)
	}

	if expr.Function != "" {
		return p.evaluateFunction(expr, row)
	}

	return false, fmt.Errorf("invalid filter expression")
}

func (p *FilterParser) evaluateComparison(expr *FilterExpression, row Row) (bool, error) {
	fieldValue := p.getFieldValue(expr.Field, row)

	switch expr.Operator {
	case "eq":
		return p.equalValues(fieldValue, expr.Value), nil
	case "ne":
		return !p.equalValues(fieldValue, expr.Value), nil
	case "gt":
		return p.compareValues(fieldValue, expr.Value) > 0, nil
	case "ge":
		return p.compareValues(fieldValue, expr.Value) >= 0, nil
	case "lt":
		return p.compareValues(fieldValue, expr.Value) < 0, nil
	case "le":
		return p.compareValues(fieldValue, expr.Value) <= 0, nil
	default:
		return false, fmt.Errorf("unsupported comparison operator: %s", expr.Operator)
	}
}

func (p *FilterParser) evaluateFunction(expr *FilterExpression, row Row) (bool, error) {
	fieldValue := strings.ToLower(p.getFieldValue(expr.Field, row))
	searchValue := strings.ToLower(expr.Value)

	switch expr.Function {
	case "startswith":
		return strings.HasPrefix(fieldValue, searchValue), nil
	case "endswith":
		return strings.HasSuffix(fieldValue, searchValue), nil
	case "contains":
		return strings.Contains(fieldValue, searchValue), nil
	default:
		return false, fmt.Errorf("unsupported function: %s", expr.Function)
	}
}

// getFieldValue looks the column up exactly, then case-insensitively.
// Unknown columns read as "".
func (p *FilterParser) getFieldValue(field string, row Row) string {
	if value, ok := row[field]; ok {
		return value
	}
	for column, value := range row {
		if strings.EqualFold(column, field) {
			return value
		}
	}
	return ""
}

// equalValues treats "12" and "12.0", or "True" and "true", as equal
func (p *FilterParser) equalValues(a, b string) bool {
	if fa, errA := strconv.ParseFloat(a, 64); errA == nil {
		if fb, errB := strconv.ParseFloat(b, 64); errB == nil {
			return fa == fb
		}
	}
	if ba, errA := strconv.ParseBool(a); errA == nil {
		if bb, errB := strconv.ParseBool(b); errB == nil {
			return ba == bb
		}
	}
	return a == b
}

func (p *FilterParser) compareValues(a, b string) int {
	fa, errA := strconv.ParseFloat(a, 64)
	fb, errB := strconv.ParseFloat(b, 64)
	if errA == nil && errB == nil {
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		}
		return 0
	}

	for _, layout := range timeLayouts {
		timeA, errA := time.Parse(layout, a)
		timeB, errB := time.Parse(layout, b)
		if errA == nil && errB == nil {
			return timeA.Compare(timeB)
		}
	}

	return strings.Compare(strings.ToLower(a), strings.ToLower(b))
}
