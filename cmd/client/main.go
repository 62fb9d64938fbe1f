// Command client runs a fixed create/read/update/filter/delete sequence
// against a running card stats API and prints every response.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pefman/cardstats/internal/api"
	"github.com/pefman/cardstats/internal/dataset"
)

func main() {
	base := flag.String("base", "http://127.0.0.1:8080", "API base URL")
	top := flag.Int("top", 3, "record count for the top-N step")
	flag.Parse()

	if err := exercise(context.Background(), api.NewClient(*base), *top, os.Stdout); err != nil {
		fmt.Fprintf(os.Stdout, "\n[FATAL] %v\n", err)
		os.Exit(1)
	}
}

// testRecord is the row inserted, updated and finally deleted by the sequence.
var testRecord = map[string]any{
	"Card":                     "Poste Teste",
	"Card Level (Spawn Level)": nil,
	"Cost":                     5.0,
	"Count":                    "1",
	"Crown Tower Damage":       nil,
	"Damage":                   "211",
	"Damage per second":        "140",
	"Death Damage":             0.0,
	"Health (+Shield)":         "3,344",
	"Hit Speed":                "1.5",
	"Level":                    7.0,
	"Maximum Spawned":          nil,
	"Radius":                   nil,
	"Range":                    "0",
	"Spawn DPS":                nil,
	"Spawn Damage":             nil,
	"Spawn Health":             nil,
	"Spawn Speed":              nil,
	"Spawner Health":           nil,
	"Troop Spawned":            nil,
	"Type":                     "Troops and Defenses",
}

func newRecord() (dataset.Fields, error) {
	return dataset.FieldsFrom(testRecord)
}

func printResponse(w io.Writer, title string, resp *api.Response) {
	rule := strings.Repeat("=", 50)
	fmt.Fprintf(w, "\n%s\n[%s - Status: %d]\n%s\n%s\n", rule, title, resp.StatusCode, resp.Pretty(), rule)
}

// exercise stops at the first transport error; a failed insert aborts the rest.
func exercise(ctx context.Context, c *api.Client, n int, w io.Writer) error {
	rec, err := newRecord()
	if err != nil {
		return fmt.Errorf("build test record: %w", err)
	}
	filter, err := dataset.FieldsFrom(map[string]any{"Type": "Troops and Defenses", "Cost": 5.0})
	if err != nil {
		return fmt.Errorf("build filter: %w", err)
	}

	fmt.Fprintln(w, "--- 1. INSERT (POST) ---")
	resp, id, err := c.Insert(ctx, rec)
	if resp != nil {
		printResponse(w, "POST - NEW RECORD", resp)
	}
	if err != nil {
		return fmt.Errorf("could not obtain an id for the test record (is the API running?): %w", err)
	}
	fmt.Fprintf(w, "\n[OK] test record id: %d\n", id)

	steps := []struct {
		header string
		title  string
		call   func() (*api.Response, error)
	}{
		{"--- 2. LIST (GET) ---", "GET - ALL", func() (*api.Response, error) {
			return c.List(ctx)
		}},
		{fmt.Sprintf("--- 3. TOP %d (GET) ---", n), fmt.Sprintf("GET - TOP %d", n), func() (*api.Response, error) {
			return c.Top(ctx, n)
		}},
		{fmt.Sprintf("--- 4. UPDATE (PUT) - ID: %d ---", id), fmt.Sprintf("PUT - ID %d", id), func() (*api.Response, error) {
			return c.Update(ctx, id, dataset.Fields{
				"Damage": dataset.String("9999"),
				"Card":   dataset.String("Poste Teste - ATUALIZADO"),
			})
		}},
		{"--- 5. MULTI-FIELD FILTER (POST) ---", "POST - FILTER", func() (*api.Response, error) {
			return c.Filter(ctx, filter)
		}},
		{fmt.Sprintf("--- 6. DELETE - ID: %d ---", id), fmt.Sprintf("DELETE - ID %d", id), func() (*api.Response, error) {
			return c.Delete(ctx, id)
		}},
	}
	for _, s := range steps {
		fmt.Fprintln(w, s.header)
		resp, err := s.call()
		if err != nil {
			return fmt.Errorf("%s: %w", s.title, err)
		}
		printResponse(w, s.title, resp)
	}

	fmt.Fprintln(w, "\n[DONE] all consumer checks finished.")
	return nil
}
