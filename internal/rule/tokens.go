package rule

import (
	"fmt"
	"strings"

	"github.com/loaneye/internal/models"
)

// Operators offered between a variable and its value.
var Operators = []string{
	"", ">", "<", ">=", "<=", "==", "+", "-", "*", "/",
	"is.in", "not_is.in", "AND", "OR", "ON", "WHERE", "CONTAINS", "MAX OF", "SELECT",
}

// PreOperators may prefix a clause.
var PreOperators = []string{"", "MAX", "MIN", "-", "SUM", "COUNT", "COUNT UNIQUE"}

// Joins connect a clause to the text before it.
var Joins = []string{"", "AND", "OR"}

// Piece is one rule-builder selection.
type Piece struct {
	PreOperator string `json:"pre_operator"`
	Variable    string `json:"variable"`
	Operator    string `json:"operator"`
	Value       string `json:"value"`
	Join        string `json:"join"`
}

// quotedOperators render their value as a string literal or a list of them.
var quotedOperators = map[string]bool{
	"==":        true,
	"is.in":     true,
	"not_is.in": true,
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// Validate checks that every token comes from its option list.
func (p Piece) Validate() error {
	if strings.TrimSpace(p.Variable) == "" {
		return models.NewValidationError("variable", "a variable must be selected")
	}
	if !contains(Operators, p.Operator) {
		return models.NewValidationError("operator", fmt.Sprintf("unknown operator %q", p.Operator))
	}
	if !contains(PreOperators, p.PreOperator) {
		return models.NewValidationError("pre_operator", fmt.Sprintf("unknown pre-operator %q", p.PreOperator))
	}
	if !contains(Joins, p.Join) {
		return models.NewValidationError("join", fmt.Sprintf("unknown join operator %q", p.Join))
	}
	return nil
}

// FormatValue renders the raw input for operator. Equality and membership
// operators quote the value, splitting on commas into a list; every other
// operator passes the input through verbatim.
func FormatValue(operator, input string) string {
	if !quotedOperators[operator] {
		return input
	}
	if !strings.Contains(input, ",") {
		return "'" + input + "'"
	}
	parts := strings.Split(input, ",")
	quoted := make([]string, len(parts))
	for i, p := range parts {
		quoted[i] = "'" + strings.TrimSpace(p) + "'"
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

// Clause renders the piece without its join.
func (p Piece) Clause() string {
	clause := p.Variable
	if p.Operator != "" {
		clause = fmt.Sprintf("%s %s %s", p.Variable, p.Operator, FormatValue(p.Operator, p.Value))
	}
	if p.PreOperator != "" {
		clause = p.PreOperator + " " + clause
	}
	return clause
}
