package main

import (
	"context"
	"fmt"
)

// runGUI is the default subcommand. The desktop GUI shell is a
// capability-providing peripheral outside this module's core, so this only
// validates flags and reports that running it requires the packaged
// desktop build.
func runGUI(ctx context.Context, args []string) error {
	fs := newFlagSet("gui")
	if err := fs.Parse(args); err != nil {
		return newConfigError(err)
	}
	fmt.Println("syng gui: no desktop shell bundled with this build; use `syng client` or `syng server`.")
	return nil
}
