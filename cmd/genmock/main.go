// Command genmock captures live catalog pages into a JSON fixture for the
// offline integration tests. The fixture is an array of page bodies exactly
// as the API returned them, indexed by page number.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -pages 2 -page-size 3 \
//	  -out internal/integration/testdata/catalog_pages.json
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/couchcryptid/opendata-catalog-etl/internal/adapter/catalog"
	"github.com/couchcryptid/opendata-catalog-etl/internal/config"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	baseURL := flag.String("base-url", config.DefaultCatalogBaseURL, "catalog endpoint")
	pages := flag.Int("pages", 2, "number of pages to capture")
	pageSize := flag.Int("page-size", 5, "items per page")
	sort := flag.String("sort", "-modified", "sort parameter sent to the API")
	out := flag.String("out", "", "output path for the JSON fixture")
	flag.Parse()

	if *out == "" || *pages < 1 || *pageSize < 1 {
		flag.Usage()
		return fmt.Errorf("missing or invalid flags: -out, -pages, -page-size")
	}

	client := catalog.NewClient(catalog.Options{
		BaseURL:  *baseURL,
		PageSize: *pageSize,
		Sort:     *sort,
		Timeout:  60 * time.Second,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	ctx := context.Background()
	bodies := make([]json.RawMessage, 0, *pages)
	for page := range *pages {
		body, err := client.FetchRaw(ctx, page)
		if err != nil {
			return err
		}
		items, err := catalog.DecodePage(body)
		if err != nil {
			return fmt.Errorf("page %d: %w", page, err)
		}
		log.Printf("page %d: %d items", page, len(items))
		if len(items) == 0 {
			break
		}
		bodies = append(bodies, body)
	}

	data, err := json.Marshal(bodies)
	if err != nil {
		return fmt.Errorf("marshal fixture: %w", err)
	}
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, data, "", "  "); err != nil {
		return fmt.Errorf("indent fixture: %w", err)
	}
	pretty.WriteByte('\n')

	if err := os.WriteFile(*out, pretty.Bytes(), 0o600); err != nil {
		return fmt.Errorf("write %s: %w", *out, err)
	}
	log.Printf("wrote %d pages to %s", len(bodies), *out)
	return nil
}
