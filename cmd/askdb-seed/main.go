package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/askdb/askdb/internal/config"
	"github.com/askdb/askdb/internal/embedded"
	"github.com/askdb/askdb/internal/employee"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "dotenv error: %v\n", err)
		os.Exit(1)
	}
	cfg, err := config.LoadFromEnv("askdb-seed")
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := embedded.Open(ctx, embedded.Config{Driver: cfg.Store.Driver, Path: cfg.Store.Path})
	if err != nil {
		fmt.Fprintf(os.Stderr, "database open error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	store := employee.NewStore(db, cfg.Store.Driver, cfg.Store.Table)
	inserted, err := store.Initialize(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "seed failed: %v\n", err)
		os.Exit(1)
	}
	if inserted > 0 {
		fmt.Printf("inserted %d employee(s) into %s\n", inserted, store.Table())
	} else {
		fmt.Printf("%s already has rows; nothing inserted\n", store.Table())
	}

	records, err := store.List(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "list failed: %v\n", err)
		os.Exit(1)
	}
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"employee_name", "employee_role", "employee_salary"})
	table.SetAutoFormatHeaders(false)
	for _, record := range records {
		table.Append([]string{record.Name, record.Role, employee.FormatSalary(record.Salary)})
	}
	table.Render()
}
