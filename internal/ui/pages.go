package ui

import (
	"fmt"
	"strconv"

	gomponents "maragu.dev/gomponents"
	html "maragu.dev/gomponents/html"

	"github.com/askdb/askdb/internal/assist"
	"github.com/askdb/askdb/internal/employee"
)

const missingKeyMessage = "API Key not found. Please check your .env file."

// chrome is the state shown on every page.
type chrome struct {
	CredentialLoaded bool
	DatabaseID       string
}

type askView struct {
	Question string
	Warning  string
	Failure  string
	Outcome  *assist.Outcome
}

func layout(title string, c chrome, body ...gomponents.Node) gomponents.Node {
	status := html.P(html.Class("status ok"), gomponents.Text("API Key Loaded"))
	if !c.CredentialLoaded {
		status = html.P(html.Class("status missing"), gomponents.Text("API Key Missing"))
	}

	return html.Doctype(
		html.HTML(
			html.Lang("en"),
			html.Head(
				html.Meta(html.Charset("utf-8")),
				html.Meta(html.Name("viewport"), html.Content("width=device-width, initial-scale=1")),
				html.TitleEl(gomponents.Text(title)),
				html.StyleEl(gomponents.Raw(stylesheet)),
			),
			html.Body(
				html.Aside(
					html.Class("sidebar"),
					status,
					html.P(html.Class("info"), gomponents.Text("Database: "+c.DatabaseID)),
					html.Nav(
						html.A(html.Href("/"), gomponents.Text("Ask")),
						html.A(html.Href("/employees"), gomponents.Text("Employee Records")),
					),
				),
				html.Main(
					html.Class("content"),
					gomponents.If(!c.CredentialLoaded, banner("error", missingKeyMessage)),
					gomponents.Group(body),
				),
			),
		),
	)
}

func banner(kind, message string) gomponents.Node {
	return html.Div(html.Class("banner "+kind), gomponents.Attr("role", "alert"), gomponents.Text(message))
}

func askPage(c chrome, view askView) gomponents.Node {
	var results gomponents.Node
	if view.Outcome != nil {
		results = outcomeColumns(*view.Outcome)
	}
	return layout("LLM SQL Assistant", c,
		html.H1(gomponents.Text("Gemini SQL App")),
		html.P(gomponents.Text("Interact with your Employee Database using Natural Language.")),
		html.Form(
			html.Method("post"),
			html.Action("/ask"),
			html.Label(html.For("question"), gomponents.Text("Enter your question:")),
			html.Input(
				html.Type("text"),
				html.ID("question"),
				html.Name("question"),
				html.Value(view.Question),
				html.Placeholder("e.g., Show me the top 3 highest paid employees"),
			),
			html.Button(html.Type("submit"), gomponents.Text("Generate & Run")),
		),
		gomponents.If(view.Warning != "", banner("warning", view.Warning)),
		gomponents.If(view.Failure != "", banner("error", view.Failure)),
		results,
	)
}

func outcomeColumns(outcome assist.Outcome) gomponents.Node {
	var resultNode gomponents.Node
	if execErr, ok := outcome.ExecutionError(); ok {
		resultNode = banner("error", "Execution Error: "+execErr.Message)
	} else if outcome.ExecErr != nil {
		resultNode = banner("error", "Execution Error: "+outcome.ExecErr.Error())
	} else {
		resultNode = resultTable(outcome.Result.Columns, outcome.Result.Rows)
	}

	explanation := outcome.Explanation
	if outcome.ExplainErr != nil {
		explanation = "Could not generate explanation: " + outcome.ExplainErr.Error()
	}

	return html.Div(
		html.Class("columns"),
		html.Section(
			html.H2(gomponents.Text("Generated SQL")),
			html.Pre(html.Code(html.Class("language-sql"), gomponents.Text(outcome.Translation.SQL))),
			html.H2(gomponents.Text("Query Result")),
			resultNode,
		),
		html.Section(
			html.H2(gomponents.Text("Query Explanation")),
			html.Div(html.Class("banner info explanation"), gomponents.Text(explanation)),
		),
	)
}

func resultTable(columns []string, rows [][]any) gomponents.Node {
	headerCols := make([]gomponents.Node, 0, len(columns))
	for _, column := range columns {
		headerCols = append(headerCols, html.Th(gomponents.Text(column)))
	}

	bodyRows := make([]gomponents.Node, 0, len(rows))
	for _, row := range rows {
		cells := make([]gomponents.Node, 0, len(row))
		for _, value := range row {
			cells = append(cells, html.Td(gomponents.Text(cellString(value))))
		}
		bodyRows = append(bodyRows, html.Tr(gomponents.Group(cells)))
	}

	return html.Div(
		html.Class("table-wrap"),
		html.Table(
			html.THead(html.Tr(gomponents.Group(headerCols))),
			html.TBody(gomponents.Group(bodyRows)),
		),
		html.P(html.Class("muted"), gomponents.Text(fmt.Sprintf("%d row(s)", len(rows)))),
	)
}

func employeesPage(c chrome, records []employee.Record, failure string) gomponents.Node {
	var listing gomponents.Node
	switch {
	case failure != "":
		listing = banner("error", failure)
	case len(records) == 0:
		listing = banner("warning", "No records found.")
	default:
		items := make([]gomponents.Node, 0, len(records))
		for _, record := range records {
			items = append(items, html.Li(
				html.Strong(gomponents.Text("Name")), gomponents.Text(": "+record.Name+" | "),
				html.Strong(gomponents.Text("Role")), gomponents.Text(": "+record.Role+" | "),
				html.Strong(gomponents.Text("Salary")), gomponents.Text(": "+employee.FormatSalary(record.Salary)),
			))
		}
		listing = html.Ul(html.Class("records"), gomponents.Group(items))
	}

	return layout("Employee DB Viewer", c,
		html.H1(gomponents.Text("Naresh IT Employee Database")),
		html.H2(gomponents.Text("Employee Records")),
		listing,
	)
}

func cellString(value any) string {
	switch v := value.(type) {
	case nil:
		return "NULL"
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

const stylesheet = `
body{margin:0;display:flex;font-family:system-ui,sans-serif;color:#1f2328}
.sidebar{width:16rem;min-height:100vh;padding:1.5rem;background:#f0f2f6}
.sidebar nav{display:flex;flex-direction:column;gap:.5rem;margin-top:1rem}
.content{flex:1;padding:2rem 3rem}
.status,.info,.banner{padding:.75rem 1rem;border-radius:.5rem}
.status.ok{background:#dff3e4}
.status.missing,.banner.error{background:#fde2e1}
.info,.banner.info{background:#e1effe}
.banner.warning{background:#fff4d6}
.banner{margin:1rem 0;white-space:pre-wrap}
form{display:flex;flex-direction:column;gap:.5rem;max-width:40rem}
input[type=text]{padding:.5rem;font-size:1rem}
button{width:max-content;padding:.5rem 1rem}
.columns{display:grid;grid-template-columns:1fr 1fr;gap:2rem}
pre{background:#f6f8fa;padding:1rem;overflow-x:auto}
table{border-collapse:collapse;width:100%}
th,td{border:1px solid #d0d7de;padding:.4rem .6rem;text-align:left}
.muted{color:#656d76}
`
