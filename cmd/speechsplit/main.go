// Command speechsplit splits one text argument into sentences and prints
// them, one per line.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dshills/speechsplit/internal/config"
	"github.com/dshills/speechsplit/internal/segmenter"
	"github.com/dshills/speechsplit/internal/storage"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

const usage = `usage: speechsplit [--json] <text>

Splits <text> into sentences and prints one per line.
Segmenter rules come from $SPEECHSPLIT_CONFIG when set.`

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) > 0 && args[0] == "--version" {
		fmt.Printf("speechsplit\n")
		fmt.Printf("Version: %s\n", version)
		fmt.Printf("Build Time: %s\n", buildTime)
		fmt.Printf("Build Mode: %s\n", storage.BuildMode)
		return 0
	}

	asJSON := false
	if len(args) > 0 && args[0] == "--json" {
		asJSON = true
		args = args[1:]
	}

	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, usage)
		return 1
	}

	cfg, err := config.NewLoader().Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "speechsplit: %v\n", err)
		return 1
	}
	rules, err := cfg.Segmenter.Rules()
	if err != nil {
		fmt.Fprintf(os.Stderr, "speechsplit: %v\n", err)
		return 1
	}

	sentences := segmenter.SplitWithRules(args[0], rules)

	if asJSON {
		if sentences == nil {
			sentences = []string{}
		}
		out, err := json.MarshalIndent(sentences, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "speechsplit: %v\n", err)
			return 1
		}
		fmt.Println(string(out))
		return 0
	}

	for _, s := range sentences {
		fmt.Println(s)
	}
	return 0
}
