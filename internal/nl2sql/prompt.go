package nl2sql

import (
	"fmt"
	"strings"
)

const translateTemplate = `
# Context:
You are an expert SQL assistant translating English to SQLite for the '%[1]s' table.

# Schema:
- Table: %[1]s
- Columns: employee_name (text), employee_role (text), employee_salary (float)

# Constraints:
- Use only SQLite syntax.
- Do NOT use backticks (` + "`" + `), triple quotes (` + "```" + `), or semicolons.
- Return ONLY the SQL query string.

# Examples:
Q: Who earns the highest salary?
A: SELECT * FROM %[1]s ORDER BY employee_salary DESC LIMIT 1

Q: Average salary of Data Engineers?
A: SELECT AVG(employee_salary) FROM %[1]s WHERE employee_role = 'Data Engineer'

Now generate the SQL query for:
`

const explainTemplate = "Explain this SQL query step-by-step in simple terms:\n%s"

// TranslatePrompt is the instruction sent ahead of every question.
func TranslatePrompt(table string) string {
	return fmt.Sprintf(translateTemplate, table)
}

func ExplainPrompt(sql string) string {
	return fmt.Sprintf(explainTemplate, sql)
}

// CleanSQL strips code fences and statement terminators from model output.
// Removal repeats until none remain, so the result never contains "```" or
// ";". Nothing else about the statement is checked.
func CleanSQL(value string) string {
	cleaned := value
	for strings.Contains(cleaned, "```") || strings.Contains(cleaned, ";") {
		cleaned = strings.ReplaceAll(cleaned, "```sql", "")
		cleaned = strings.ReplaceAll(cleaned, "```", "")
		cleaned = strings.ReplaceAll(cleaned, ";", "")
	}
	return strings.TrimSpace(cleaned)
}
