package cli

import (
	"errors"
	"fmt"

	"spritesheets/internal/pipeline"
)

func Run(args []string) error {
	if len(args) == 0 {
		printRootUsage()
		return nil
	}

	switch args[0] {
	case "render":
		return runRender(args[1:])
	case "init":
		return runInit(args[1:])
	case "doctor":
		return runDoctor(args[1:])
	case "inspect":
		return runInspect(args[1:])
	case "help", "-h", "--help":
		printRootUsage()
		return nil
	default:
		printRootUsage()
		return fmt.Errorf("unknown command %q", args[0])
	}
}

// ExitCode maps a command error to the process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, pipeline.ErrCanceled):
		return 130
	case errors.Is(err, pipeline.ErrConfiguration):
		return 2
	default:
		return 1
	}
}

func printRootUsage() {
	fmt.Println("spritesheets: render animation actions into packed sprite sheets")
	fmt.Println()
	fmt.Println("Quick Start:")
	fmt.Println("  spritesheets init")
	fmt.Println("  spritesheets doctor")
	fmt.Println("  spritesheets render")
	fmt.Println("  spritesheets inspect sprites/hero.bss")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  init      write a starter spritesheets.yaml job file")
	fmt.Println("  doctor    check the assembler, renderer and output directory")
	fmt.Println("  render    render every action, pack sheets and write manifests")
	fmt.Println("  inspect   print the animations of a .bss manifest")
	fmt.Println()
	fmt.Println("Notes:")
	fmt.Println("  - Use --json on commands for machine-readable output")
	fmt.Println("  - --auto-rotate <deg> renders one sheet per rotation step")
}
