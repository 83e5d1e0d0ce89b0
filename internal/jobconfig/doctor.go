package jobconfig

import (
	"os"
	"strings"

	"spritesheets/internal/assembler"
	"spritesheets/internal/runstore"
	"spritesheets/internal/toolexec"
)

type DoctorResult struct {
	OK     bool          `json:"ok"`
	Checks []DoctorCheck `json:"checks"`
}

type DoctorCheck struct {
	Name    string `json:"name"`
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

// Doctor checks the external dependencies and directories a job needs.
func Doctor(s Settings) DoctorResult {
	checks := make([]DoctorCheck, 0, 5)

	checks = append(checks, DoctorCheck{
		Name:    "config",
		OK:      Validate(s) == nil,
		Message: validationMessage(s),
	})

	dep := assembler.DependencyStatus(s.BinPath)
	checks = append(checks, DoctorCheck{
		Name:    "dependency:assembler",
		OK:      dep.AssemblerFound || strings.TrimSpace(s.BinPath) == "",
		Message: dep.Message,
	})

	if s.Renderer == RendererCommand && len(s.RenderCommand) > 0 {
		name := s.RenderCommand[0]
		path, err := toolexec.LookPath(name)
		checks = append(checks, DoctorCheck{
			Name:    "dependency:renderer",
			OK:      err == nil,
			Message: dependencyMessage(err == nil, path, name),
		})
	}

	outOK, outMessage := ensureWritableDir(s.OutputPath)
	checks = append(checks, DoctorCheck{
		Name:    "directory:output",
		OK:      outOK,
		Message: outMessage,
	})

	ok := true
	for _, c := range checks {
		if !c.OK {
			ok = false
			break
		}
	}
	return DoctorResult{OK: ok, Checks: checks}
}

func validationMessage(s Settings) string {
	if err := Validate(s); err != nil {
		return err.Error()
	}
	return "valid"
}

func dependencyMessage(ok bool, path, name string) string {
	if ok {
		return name + " found at " + path
	}
	return name + " not found on PATH"
}

func ensureWritableDir(path string) (bool, string) {
	if strings.TrimSpace(path) == "" {
		return false, "empty path"
	}
	if err := runstore.Mkdir(path); err != nil {
		return false, err.Error()
	}
	f, err := os.CreateTemp(path, "spritesheets-check-*.tmp")
	if err != nil {
		return false, err.Error()
	}
	_ = f.Close()
	_ = os.Remove(f.Name())
	return true, "writable"
}
