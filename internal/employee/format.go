package employee

import "github.com/dustin/go-humanize"

// FormatSalary renders a salary the way the record listings show it, e.g.
// "₹75,000.00".
func FormatSalary(salary float64) string {
	return "₹" + humanize.FormatFloat("#,###.##", salary)
}
