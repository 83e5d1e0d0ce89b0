package cli

import (
	"errors"
	"flag"
	"fmt"
	"strings"

	"spritesheets/internal/jobconfig"
)

type initResult struct {
	JobPath string                 `json:"job_path"`
	Created bool                   `json:"created"`
	Doctor  jobconfig.DoctorResult `json:"doctor"`
}

func runInit(args []string) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	jobPath := fs.String("job", jobconfig.DefaultJobPath, "job file path")
	force := fs.Bool("force", false, "overwrite an existing job file")
	jsonOut := fs.Bool("json", false, "print JSON output")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}

	path, created, err := jobconfig.Init(strings.TrimSpace(*jobPath), *force)
	if err != nil {
		return err
	}
	jf, err := jobconfig.Load(path)
	if err != nil {
		return err
	}
	res := initResult{
		JobPath: path,
		Created: created,
		Doctor:  jobconfig.Doctor(jobconfig.Resolve(path, jf, jobconfig.Overrides{})),
	}
	if *jsonOut {
		return printJSON(res)
	}

	fmt.Println("job file ready")
	fmt.Printf("job: %s\n", res.JobPath)
	fmt.Printf("created: %t\n", res.Created)
	fmt.Println("checks:")
	printChecks("  ", res.Doctor)
	if !res.Doctor.OK {
		return errors.New("doctor checks failed")
	}
	fmt.Println("next: edit the actions, then run `spritesheets render`")
	return nil
}

func runDoctor(args []string) error {
	fs := flag.NewFlagSet("doctor", flag.ContinueOnError)
	jobPath := fs.String("job", jobconfig.DefaultJobPath, "job file path")
	bin := fs.String("bin", "", "assembler binary or directory override")
	output := fs.String("output", "", "output directory override")
	jsonOut := fs.Bool("json", false, "print JSON output")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}

	jf, err := jobconfig.Load(*jobPath)
	if err != nil {
		return err
	}
	res := jobconfig.Doctor(jobconfig.Resolve(*jobPath, jf, jobconfig.Overrides{
		BinPath:    strings.TrimSpace(*bin),
		OutputPath: strings.TrimSpace(*output),
	}))
	if *jsonOut {
		if err := printJSON(res); err != nil {
			return err
		}
	} else {
		printChecks("", res)
	}
	if !res.OK {
		return errors.New("doctor checks failed")
	}
	if !*jsonOut {
		fmt.Println("doctor: all checks passed")
	}
	return nil
}

func printChecks(indent string, res jobconfig.DoctorResult) {
	for _, c := range res.Checks {
		status := "ok"
		if !c.OK {
			status = "fail"
		}
		fmt.Printf("%s%s: %s (%s)\n", indent, c.Name, status, c.Message)
	}
}
