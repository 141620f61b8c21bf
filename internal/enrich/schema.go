package enrich

import (
	"strconv"
	"strings"

	"newsharvest/internal/storage"
)

// Derived column names
const (
	ColumnCleanedText        = "cleaned_text"
	ColumnWordCount          = "word_count"
	ColumnCharCount          = "char_count"
	ColumnHasFinancialTerms  = "has_financial_terms"
	ColumnMoneyMentions      = "money_mentions"
	ColumnPercentageMentions = "percentage_mentions"
	ColumnProcessingDate     = "processing_date"
	ColumnProcessedVersion   = "processed_version"
)

// SourceTextColumns are tried in order for the text to clean
var SourceTextColumns = []string{"text", "content", "description", "summary"}

// DateLayout is the persisted processing_date format
const DateLayout = "2006-01-02"

// MigrationContext carries the per-run values some defaults depend on
type MigrationContext struct {
	Today   string
	Version string
}

// Column is a derived column and how to fill it in rows that predate it
type Column struct {
	Name    string
	Default func(MigrationContext) string
}

// Migration is one additive schema step. Migrations never drop or
// rename columns.
type Migration struct {
	Version string
	Columns []Column
}

func constant(v string) func(MigrationContext) string {
	return func(MigrationContext) string { return v }
}

// Migrations lists every schema step in application order
var Migrations = []Migration{
	{
		Version: "1.0",
		Columns: []Column{
			{Name: ColumnCleanedText, Default: constant("")},
			{Name: ColumnWordCount, Default: constant("0")},
			{Name: ColumnCharCount, Default: constant("0")},
			{Name: ColumnHasFinancialTerms, Default: constant(FormatBool(false))},
			{Name: ColumnMoneyMentions, Default: constant("0")},
			{Name: ColumnPercentageMentions, Default: constant("0")},
			{Name: ColumnProcessingDate, Default: func(c MigrationContext) string { return c.Today }},
			{Name: ColumnProcessedVersion, Default: func(c MigrationContext) string { return c.Version }},
		},
	},
}

// Migrate adds every missing derived column with its default and returns
// the names it added, in order
func Migrate(table *storage.Table, ctx MigrationContext) []string {
	var added []string
	for _, migration := range Migrations {
		for _, column := range migration.Columns {
			if table.AddColumn(column.Name, column.Default(ctx)) {
				added = append(added, column.Name)
			}
		}
	}
	return added
}

// FormatBool writes booleans the way legacy datasets spell them
func FormatBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

// sameInt compares a stored cell with a computed count, accepting legacy
// spellings such as "12.0"
func sameInt(stored string, value int) bool {
	stored = strings.TrimSpace(stored)
	if n, err := strconv.Atoi(stored); err == nil {
		return n == value
	}
	if f, err := strconv.ParseFloat(stored, 64); err == nil {
		return f == float64(value)
	}
	return false
}

func sameBool(stored string, value bool) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(stored))
	return err == nil && b == value
}
