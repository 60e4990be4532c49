package protoc

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

var pluginNameRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_-]*$`)

// BuildCommand builds the protoc argv for req. scripts maps each plugin name
// to the executable protoc should run for it.
func BuildCommand(req *Request, scripts map[string]string) []string {
	cmd := []string{"protoc"}

	for _, p := range req.Plugins {
		cmd = append(cmd, fmt.Sprintf("--plugin=protoc-gen-%s=%s", p.Name, scripts[p.Name]))
	}

	for _, path := range req.ProtoPaths {
		cmd = append(cmd, "--proto_path="+path)
	}

	for _, p := range req.Plugins {
		outDir := p.OutputDir
		if outDir == "" {
			outDir = req.OutputDir
		}
		cmd = append(cmd, fmt.Sprintf("--%s_out=%s", p.Name, outDir))

		if len(p.Options) > 0 {
			keys := make([]string, 0, len(p.Options))
			for key := range p.Options {
				keys = append(keys, key)
			}
			sort.Strings(keys)

			opts := make([]string, 0, len(keys))
			for _, key := range keys {
				if value := p.Options[key]; value == "" {
					opts = append(opts, key)
				} else {
					opts = append(opts, fmt.Sprintf("%s=%s", key, value))
				}
			}
			cmd = append(cmd, fmt.Sprintf("--%s_opt=%s", p.Name, strings.Join(opts, ",")))
		}
	}

	cmd = append(cmd, req.Files...)

	return cmd
}

func validateRequest(req *Request) error {
	if req == nil {
		return fmt.Errorf("%w: request is nil", ErrInvalidRequest)
	}
	if len(req.Files) == 0 {
		return fmt.Errorf("%w: no proto files", ErrInvalidRequest)
	}
	if len(req.Plugins) == 0 {
		return fmt.Errorf("%w: no plugins", ErrInvalidRequest)
	}

	seen := make(map[string]bool, len(req.Plugins))
	for _, p := range req.Plugins {
		if !pluginNameRegex.MatchString(p.Name) {
			return fmt.Errorf("%w: plugin name %q", ErrInvalidRequest, p.Name)
		}
		if seen[p.Name] {
			return fmt.Errorf("%w: duplicate plugin %q", ErrInvalidRequest, p.Name)
		}
		seen[p.Name] = true

		if p.Generator == nil {
			return fmt.Errorf("%w: plugin %q has no generator", ErrInvalidRequest, p.Name)
		}
		if p.OutputDir == "" && req.OutputDir == "" {
			return fmt.Errorf("%w: plugin %q has no output directory", ErrInvalidRequest, p.Name)
		}
	}

	return nil
}
