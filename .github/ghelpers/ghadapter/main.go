// ghadapter runs a command that prints a JSON object, such as bin/compare, and
// exposes the object's fields as GitHub Actions step outputs. The command's
// exit status is preserved after the outputs are written.
package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: ghadapter command [args...]")
		os.Exit(2)
	}

	cmd := exec.Command(os.Args[1], os.Args[2:]...)
	cmd.Stdin = os.Stdin
	cmd.Stderr = os.Stderr

	output, runErr := cmd.Output()
	_, _ = os.Stdout.Write(output)

	if githubOutput := os.Getenv("GITHUB_OUTPUT"); githubOutput != "" {
		f, err := os.OpenFile(githubOutput, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to open %s: %v\n", githubOutput, err)
			os.Exit(1)
		}
		if err := writeOutputs(f, output); err != nil {
			fmt.Fprintf(os.Stderr, "failed to write outputs: %v\n", err)
		}
		f.Close()
	}

	var exitErr *exec.ExitError
	if errors.As(runErr, &exitErr) {
		os.Exit(exitErr.ExitCode())
	}
	if runErr != nil {
		fmt.Fprintln(os.Stderr, runErr)
		os.Exit(1)
	}
}

// writeOutputs writes one key=value line per field of the last JSON object in
// output. Nested values are written as compact JSON.
func writeOutputs(w io.Writer, output []byte) error {
	lines := bytes.Split(bytes.TrimSpace(output), []byte("\n"))

	var result map[string]json.RawMessage
	if err := json.Unmarshal(lines[len(lines)-1], &result); err != nil {
		return err
	}

	keys := make([]string, 0, len(result))
	for key := range result {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		var s string
		if err := json.Unmarshal(result[key], &s); err != nil {
			var compact bytes.Buffer
			if err := json.Compact(&compact, result[key]); err != nil {
				return err
			}
			s = compact.String()
		}
		if _, err := fmt.Fprintf(w, "%s=%s\n", key, s); err != nil {
			return err
		}
	}
	return nil
}
