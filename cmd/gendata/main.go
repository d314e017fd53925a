// Command gendata writes the default bazaar configuration files into a
// target directory, for bootstrapping a deployment or inspecting the
// defaults without running the daemon. Existing files are left alone unless
// -force is given.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/edenforge/bazaar/internal/config"
)

func main() {
	dir := flag.String("dir", "data", "directory to write configuration files into")
	force := flag.Bool("force", false, "overwrite files that already exist")
	flag.Parse()

	if err := run(*dir, *force); err != nil {
		fmt.Fprintln(os.Stderr, "gendata:", err)
		os.Exit(1)
	}
}

func run(dir string, force bool) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}

	for name, content := range config.DefaultFiles {
		path := filepath.Join(dir, name)
		if !force {
			if _, err := os.Stat(path); err == nil {
				fmt.Println("skip", path, "(exists)")
				continue
			}
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
		fmt.Println("wrote", path)
	}
	return nil
}
