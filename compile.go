package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/nstehr/abilityc/model"
	"github.com/nstehr/abilityc/script"
)

var (
	compileInput      string
	compileOutput     string
	compileProvenance string
	compileJSON       bool
)

var compileCmd = &cobra.Command{
	Use:   "compile",
	Short: "Compile one character input into a script",
	Long: `Reads a character input (JSON, or YAML by file extension) and writes the
calculation script. Diagnostics go to the log; the command only fails when
the input cannot be read or no script could be produced.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		rt, err := setup(cmd.Context())
		if err != nil {
			return err
		}
		defer rt.close()

		in, err := readInput(compileInput, cmd.InOrStdin())
		if err != nil {
			return err
		}
		res := rt.compiler.Compile(cmd.Context(), in, compileProvenance)
		if res.Error != "" {
			rt.logger.Warn("compile diagnostic", zap.String("name", in.Name), zap.String("error", res.Error))
		}
		if res.Script == "" {
			return fmt.Errorf("no script produced: %s", res.Error)
		}

		out := res.Script
		if compileJSON {
			raw, err := json.MarshalIndent(res, "", "  ")
			if err != nil {
				return err
			}
			out = string(raw) + "\n"
		}
		return writeOutput(compileOutput, out, cmd.OutOrStdout())
	},
}

func init() {
	compileCmd.Flags().StringVarP(&compileInput, "input", "i", "-", "input file, - for stdin")
	compileCmd.Flags().StringVarP(&compileOutput, "output", "o", "-", "output file, - for stdout")
	compileCmd.Flags().StringVar(&compileProvenance, "provenance", script.CreatedByModel, "tag for model-assisted scripts")
	compileCmd.Flags().BoolVar(&compileJSON, "json", false, "print the full result as JSON")
}

func readInput(path string, stdin io.Reader) (model.PlanInput, error) {
	var (
		raw []byte
		err error
	)
	if path == "-" {
		raw, err = io.ReadAll(stdin)
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return model.PlanInput{}, fmt.Errorf("read input: %w", err)
	}
	return decodeInput(path, raw)
}

func decodeInput(path string, raw []byte) (model.PlanInput, error) {
	var in model.PlanInput
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(raw, &in); err != nil {
			return in, fmt.Errorf("decode %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(raw, &in); err != nil {
			return in, fmt.Errorf("decode %s: %w", path, err)
		}
	}
	return in, nil
}

func writeOutput(path, text string, stdout io.Writer) error {
	if path == "-" {
		_, err := io.WriteString(stdout, text)
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(text), 0o644)
}
