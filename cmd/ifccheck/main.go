package main

import (
	"os"
	"strconv"
	"strings"

	"github.com/ifc-community/ifcxml-checker/internal/config"
	"github.com/ifc-community/ifcxml-checker/internal/document"
	"github.com/ifc-community/ifcxml-checker/internal/logger"
	"github.com/ifc-community/ifcxml-checker/internal/report"
	"github.com/ifc-community/ifcxml-checker/internal/schema"
	"github.com/ifc-community/ifcxml-checker/internal/validator"
)

func main() {
	if len(os.Args) < 2 {
		logger.Println("Usage: ifccheck <command> [arguments]")
		logger.Println("Commands: check, dict")
		logger.Println("  check [-o output_file] [-d max_depth] <input.ifcxml>")
		logger.Println("  dict [-o dictionary.json] <entity_table.csv> <type_table.csv>")
		os.Exit(1)
	}

	command := os.Args[1]
	switch command {
	case "check":
		runCheck(os.Args[2:])
	case "dict":
		runDict(os.Args[2:])
	default:
		logger.Printf("Unknown command: %s\n", command)
		os.Exit(1)
	}
}

func runCheck(args []string) {
	var outputFilePath string
	var maxDepth int
	var inputFile string

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "-o":
			if i+1 >= len(args) {
				logger.Println("Error: -o requires a file path")
				os.Exit(1)
			}
			outputFilePath = args[i+1]
			i++
		case "-d":
			if i+1 >= len(args) {
				logger.Println("Error: -d requires a number")
				os.Exit(1)
			}
			d, err := strconv.Atoi(args[i+1])
			if err != nil || d < 1 {
				logger.Println("Error: -d requires a positive number")
				os.Exit(1)
			}
			maxDepth = d
			i++
		default:
			inputFile = args[i]
		}
	}

	if inputFile == "" {
		logger.Println("Usage: ifccheck check [-o output_file] [-d max_depth] <input.ifcxml>")
		os.Exit(1)
	}
	if !strings.HasSuffix(inputFile, ".ifcxml") {
		logger.Println("Input file cannot be read. Please specify an .ifcxml file with IFC4 version as input.")
		os.Exit(1)
	}

	cfg, err := config.Load(".")
	if err != nil {
		logger.Fatalf("Error loading configuration: %v", err)
	}
	if outputFilePath == "" {
		outputFilePath = cfg.Validation.Output
	}
	if maxDepth == 0 {
		maxDepth = cfg.Validation.MaxDepth
	}

	dict, err := loadDictionary(cfg)
	if err != nil {
		logger.Fatalf("Error loading dictionary: %v", err)
	}

	f, err := os.Open(inputFile)
	if err != nil {
		logger.Fatalf("Error reading %s: %v", inputFile, err)
	}
	doc, err := document.Parse(f)
	f.Close()
	if err != nil {
		logger.Fatalf("Error parsing %s: %v", inputFile, err)
	}

	v := validator.New(doc, dict)
	if maxDepth > 0 {
		v.SetMaxDepth(maxDepth)
	}
	findings := suppress(v.Run(), cfg.Validation.Suppress)

	written, err := report.Save(outputFilePath, findings)
	if err != nil {
		logger.Fatalf("Error writing report: %v", err)
	}
	if written {
		logger.Println("Errors have been found in the .ifcxml file and have been saved to: " + outputFilePath)
		os.Exit(1)
	}
	logger.Println("File validated successfully. No errors have been detected.")
}

func runDict(args []string) {
	var jsonOutput string
	var tables []string

	for i := 0; i < len(args); i++ {
		if args[i] == "-o" {
			if i+1 >= len(args) {
				logger.Println("Error: -o requires a file path")
				os.Exit(1)
			}
			jsonOutput = args[i+1]
			i++
		} else {
			tables = append(tables, args[i])
		}
	}

	if len(tables) != 2 {
		logger.Println("Usage: ifccheck dict [-o dictionary.json] <entity_table.csv> <type_table.csv>")
		os.Exit(1)
	}

	dict, err := schema.BuildFromCSV(tables[0], tables[1])
	if err != nil {
		logger.Fatalf("Error building dictionary: %v", err)
	}

	problems := schema.Lint(dict)
	for _, p := range problems {
		logger.Printf("dictionary: %s\n", p)
	}
	if len(problems) > 0 {
		logger.Fatalf("Dictionary has %d problems.", len(problems))
	}

	cfg, err := config.Load(".")
	if err != nil {
		logger.Fatalf("Error loading configuration: %v", err)
	}
	if cfg.Dictionary.Cache != "" {
		cache, err := schema.OpenCache(cfg.Dictionary.Cache)
		if err != nil {
			logger.Fatalf("Error opening dictionary cache: %v", err)
		}
		if err := cache.Store(dict); err != nil {
			cache.Close()
			logger.Fatalf("Error storing dictionary: %v", err)
		}
		cache.Close()
		logger.Printf("Dictionary stored in %s\n", cfg.Dictionary.Cache)
	}
	if jsonOutput != "" {
		if err := schema.SaveJSON(jsonOutput, dict); err != nil {
			logger.Fatalf("Error writing %s: %v", jsonOutput, err)
		}
		logger.Printf("Dictionary exported to %s\n", jsonOutput)
	}
}

// suppress drops findings whose kind is listed in the configuration.
func suppress(findings []validator.Finding, kinds []string) []validator.Finding {
	if len(kinds) == 0 {
		return findings
	}
	suppressed := make(map[string]bool, len(kinds))
	for _, k := range kinds {
		suppressed[k] = true
	}
	kept := findings[:0]
	for _, f := range findings {
		if !suppressed[f.Kind] {
			kept = append(kept, f)
		}
	}
	return kept
}

// loadDictionary prefers the cache, falls back to the rule tables and
// layers any configured extension dictionaries on top.
func loadDictionary(cfg *config.Config) (*schema.Dict, error) {
	var dict *schema.Dict

	if cfg.Dictionary.Cache != "" {
		if _, err := os.Stat(cfg.Dictionary.Cache); err == nil {
			cache, err := schema.OpenCache(cfg.Dictionary.Cache)
			if err != nil {
				return nil, err
			}
			dict, err = cache.Load()
			cache.Close()
			if err != nil {
				return nil, err
			}
		}
	}

	if dict == nil || len(dict.Entities) == 0 {
		d, err := schema.BuildFromCSV(cfg.Dictionary.EntityTable, cfg.Dictionary.TypeTable)
		if err != nil {
			return nil, err
		}
		dict = d
		if cfg.Dictionary.Cache != "" {
			if cache, err := schema.OpenCache(cfg.Dictionary.Cache); err == nil {
				if err := cache.Store(dict); err != nil {
					logger.Printf("Warning: could not cache dictionary: %v\n", err)
				}
				cache.Close()
			}
		}
	}

	for _, ext := range cfg.Dictionary.Extensions {
		extra, err := schema.LoadJSON(ext)
		if err != nil {
			return nil, err
		}
		dict.Merge(extra)
	}
	return dict, nil
}
