package askdbctl

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
)

type rowsBody struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

type askBody struct {
	SQL            string   `json:"sql"`
	Columns        []string `json:"columns"`
	Rows           [][]any  `json:"rows"`
	ExecutionError *struct {
		Message string `json:"message"`
	} `json:"execution_error"`
	Explanation      string `json:"explanation"`
	ExplanationError string `json:"explanation_error"`
}

func renderRows(w io.Writer, raw []byte) error {
	var body rowsBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return err
	}
	writeTable(w, body.Columns, body.Rows)
	return nil
}

func renderAsk(w io.Writer, raw []byte) error {
	var body askBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(w, "Generated SQL:\n%s\n\n", body.SQL)
	if body.ExecutionError != nil {
		_, _ = fmt.Fprintf(w, "Execution Error: %s\n\n", body.ExecutionError.Message)
	} else {
		writeTable(w, body.Columns, body.Rows)
		_, _ = fmt.Fprintln(w)
	}
	if body.ExplanationError != "" {
		_, _ = fmt.Fprintf(w, "Could not generate explanation: %s\n", body.ExplanationError)
		return nil
	}
	_, _ = fmt.Fprintf(w, "Explanation:\n%s\n", body.Explanation)
	return nil
}

func renderEmployees(w io.Writer, raw []byte) error {
	var body struct {
		Employees []struct {
			Name          string `json:"name"`
			Role          string `json:"role"`
			SalaryDisplay string `json:"salary_display"`
		} `json:"employees"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return err
	}
	if len(body.Employees) == 0 {
		_, _ = fmt.Fprintln(w, "No records found.")
		return nil
	}
	table := newTable(w, []string{"name", "role", "salary"})
	for _, e := range body.Employees {
		table.Append([]string{e.Name, e.Role, e.SalaryDisplay})
	}
	table.Render()
	return nil
}

func renderHistory(w io.Writer, raw []byte) error {
	var body struct {
		Entries []struct {
			ID        int64  `json:"id"`
			Question  string `json:"question"`
			Status    string `json:"status"`
			RowCount  int    `json:"row_count"`
			CreatedAt string `json:"created_at"`
		} `json:"entries"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return err
	}
	table := newTable(w, []string{"id", "created_at", "status", "rows", "question"})
	for _, e := range body.Entries {
		table.Append([]string{
			strconv.FormatInt(e.ID, 10),
			e.CreatedAt,
			e.Status,
			strconv.Itoa(e.RowCount),
			e.Question,
		})
	}
	table.Render()
	return nil
}

func renderArchives(w io.Writer, raw []byte) error {
	var body struct {
		Archives []struct {
			Key          string            `json:"key"`
			Size         int64             `json:"size"`
			LastModified string            `json:"last_modified"`
			Metadata     map[string]string `json:"metadata"`
		} `json:"archives"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return err
	}
	table := newTable(w, []string{"key", "entries", "size", "last_modified"})
	for _, a := range body.Archives {
		table.Append([]string{a.Key, a.Metadata["entries"], strconv.FormatInt(a.Size, 10), a.LastModified})
	}
	table.Render()
	return nil
}

func writeTable(w io.Writer, columns []string, rows [][]any) {
	table := newTable(w, columns)
	for _, row := range rows {
		cells := make([]string, 0, len(row))
		for _, value := range row {
			cells = append(cells, cellString(value))
		}
		table.Append(cells)
	}
	table.Render()
}

func newTable(w io.Writer, header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	return table
}

func cellString(value any) string {
	switch v := value.(type) {
	case nil:
		return "NULL"
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}
