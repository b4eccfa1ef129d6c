package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"mer-review-engine/internal/core"
)

func main() {
	_ = godotenv.Load()

	format := flag.String("format", "json", "catalog output format: json or yaml")
	flag.Parse()

	registry := core.NewRegistry()
	core.RegisterBuiltinRules(registry)
	entries := core.BuildCatalog(registry)

	var (
		out []byte
		err error
	)
	switch *format {
	case "yaml":
		out, err = core.MarshalCatalogYAML(entries)
	case "json":
		out, err = core.MarshalCatalogJSON(entries)
	default:
		fmt.Fprintf(os.Stderr, "unknown -format %q (want json or yaml)\n", *format)
		os.Exit(2)
	}
	if err != nil {
		log.Fatalf("Failed to render catalog: %v", err)
	}
	os.Stdout.Write(out)
	fmt.Println()
}
