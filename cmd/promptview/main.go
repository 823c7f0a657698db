package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/kennelworks/kennel/promptdump"
)

const version = "v0.1.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "list":
		handleList()
	case "show":
		handleShow()
	case "usage":
		handleUsage()
	case "version":
		handleVersion()
	case "help":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Printf("promptview - inspect prompt call transcripts %s\n\n", version)
	fmt.Println("Usage:")
	fmt.Println("  promptview list [--dir prompt_logs]            List run artifacts with call and token counts")
	fmt.Println("  promptview show [--dir prompt_logs] [--last] [file]  Print a run's records (newest run by default)")
	fmt.Println("  promptview usage [--dir prompt_logs]           Aggregate token usage per model across runs")
	fmt.Println("  promptview version                             Show version information")
	fmt.Println("  promptview help                                Show this help message")
}

func handleList() {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	dir := fs.String("dir", promptdump.DefaultDir, "Artifact directory")
	fs.Parse(os.Args[2:])

	files, err := runFiles(*dir)
	if err != nil {
		fmt.Printf("Error listing artifacts: %v\n", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Printf("No run artifacts in %s\n", *dir)
		return
	}

	for _, f := range files {
		records, err := promptdump.ParseFile(f)
		if err != nil {
			fmt.Printf("%s  (unreadable: %v)\n", filepath.Base(f), err)
			continue
		}
		total := 0
		for _, r := range records {
			total += r.Usage.TotalTokens
		}
		fmt.Printf("%s  %d calls  %d tokens\n", filepath.Base(f), len(records), total)
	}
}

func handleShow() {
	fs := flag.NewFlagSet("show", flag.ExitOnError)
	dir := fs.String("dir", promptdump.DefaultDir, "Artifact directory")
	last := fs.Bool("last", false, "Print only the final record")
	fs.Parse(os.Args[2:])

	path := ""
	if fs.NArg() > 0 {
		path = fs.Arg(0)
		if !strings.ContainsRune(path, os.PathSeparator) {
			path = filepath.Join(*dir, path)
		}
	} else {
		files, err := runFiles(*dir)
		if err != nil || len(files) == 0 {
			fmt.Printf("No run artifacts in %s\n", *dir)
			os.Exit(1)
		}
		path = files[len(files)-1]
	}

	records, err := promptdump.ParseFile(path)
	if err != nil {
		fmt.Printf("Error reading %s: %v\n", path, err)
		os.Exit(1)
	}
	if len(records) == 0 {
		fmt.Printf("No records in %s\n", path)
		return
	}

	if *last {
		records = records[len(records)-1:]
	}
	for _, r := range records {
		fmt.Print(r.Raw)
		fmt.Println()
	}
}

func handleUsage() {
	fs := flag.NewFlagSet("usage", flag.ExitOnError)
	dir := fs.String("dir", promptdump.DefaultDir, "Artifact directory")
	fs.Parse(os.Args[2:])

	files, err := runFiles(*dir)
	if err != nil {
		fmt.Printf("Error listing artifacts: %v\n", err)
		os.Exit(1)
	}

	var all []promptdump.ParsedRecord
	for _, f := range files {
		records, err := promptdump.ParseFile(f)
		if err != nil {
			continue
		}
		all = append(all, records...)
	}

	fmt.Print(usageReport(all))
}

// usageReport aggregates token counts per model, models sorted by name.
func usageReport(records []promptdump.ParsedRecord) string {
	type tally struct {
		calls      int
		prompt     int
		completion int
		total      int
	}
	byModel := map[string]*tally{}
	for _, r := range records {
		model := r.Model
		if model == "" {
			model = "(unknown)"
		}
		t := byModel[model]
		if t == nil {
			t = &tally{}
			byModel[model] = t
		}
		t.calls++
		t.prompt += r.Usage.PromptTokens
		t.completion += r.Usage.CompletionTokens
		t.total += r.Usage.TotalTokens
	}

	models := make([]string, 0, len(byModel))
	for m := range byModel {
		models = append(models, m)
	}
	sort.Strings(models)

	var b strings.Builder
	if len(models) == 0 {
		b.WriteString("No recorded calls\n")
		return b.String()
	}
	for _, m := range models {
		t := byModel[m]
		fmt.Fprintf(&b, "%s: %d calls, %d prompt + %d completion = %d tokens\n",
			m, t.calls, t.prompt, t.completion, t.total)
	}
	return b.String()
}

// runFiles returns the run artifacts in dir sorted by name, which for the
// run_<timestamp>_<id>.log convention is oldest first.
func runFiles(dir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "run_*.log"))
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)
	return matches, nil
}

func handleVersion() {
	fmt.Printf("promptview version %s\n", version)
}
