package docking

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"testing"
	"time"
)

// fakeExec makes execCommand start this test binary as TestHelperProcess with
// the given behaviour.
func fakeExec(t *testing.T, behaviour string) {
	t.Helper()
	orig := execCommand
	execCommand = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		cs := append([]string{"-test.run=TestHelperProcess", "--", name}, args...)
		cmd := exec.CommandContext(ctx, os.Args[0], cs...)
		cmd.Env = append(os.Environ(), "GO_WANT_HELPER_PROCESS=1", "HELPER_BEHAVIOUR="+behaviour)
		return cmd
	}
	t.Cleanup(func() { execCommand = orig })
}

func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	args := os.Args
	for len(args) > 0 && args[0] != "--" {
		args = args[1:]
	}
	if len(args) < 2 {
		fmt.Fprintln(os.Stderr, "no command")
		os.Exit(2)
	}
	name, rest := args[1], args[2:]
	flags := parseFlags(rest)

	switch os.Getenv("HELPER_BEHAVIOUR") {
	case "vina_score":
		for _, f := range []string{"--receptor", "--ligand"} {
			if _, err := os.Stat(flags[f]); err != nil {
				fmt.Fprintf(os.Stderr, "missing %s: %v\n", f, err)
				os.Exit(3)
			}
		}
		if _, ok := flags["--score_only"]; !ok {
			fmt.Fprintln(os.Stderr, "expected --score_only")
			os.Exit(4)
		}
		fmt.Printf("AutoDock Vina v1.2.5\nAffinity: %s (kcal/mol)\n", center(flags))
	case "vina_dock":
		if err := os.WriteFile(flags["--out"], []byte("MODEL 1\nENDMDL\n"), 0o600); err != nil {
			os.Exit(5)
		}
		fmt.Println("mode |   affinity | dist from best mode")
		fmt.Println("     | (kcal/mol) | rmsd l.b.| rmsd u.b.")
		fmt.Println("-----+------------+----------+----------")
		fmt.Println("   1       -9.1      0.000      0.000")
		fmt.Println("   2       -8.4      1.912      2.873")
	case "garbage":
		fmt.Println("nothing useful here")
	case "fail":
		fmt.Fprintln(os.Stderr, "ERROR: could not open receptor")
		os.Exit(1)
	case "sleep":
		time.Sleep(30 * time.Second)
	case "env":
		switch name {
		case "vina":
			fmt.Println("Input:\n  --receptor arg")
		case "conda":
			fmt.Println("# conda environments:\n#\nbase                  *  /opt/conda\nopendock                 /opt/conda/envs/opendock")
		}
	case "opendock":
		script := flags["-c"]
		if !strings.Contains(script, "dock_ligand") || flags["-n"] != "opendock" {
			fmt.Fprintln(os.Stderr, "unexpected invocation")
			os.Exit(6)
		}
		fmt.Println("conda banner line")
		fmt.Println(`{"score": -8.75, "poses": "pose-sdf"}`)
	}
	os.Exit(0)
}

// parseFlags maps "--flag value" pairs; flags without a value map to "".
func parseFlags(args []string) map[string]string {
	out := make(map[string]string)
	for i := 0; i < len(args); i++ {
		if !strings.HasPrefix(args[i], "-") {
			continue
		}
		if i+1 < len(args) && !strings.HasPrefix(args[i+1], "--") {
			out[args[i]] = args[i+1]
			i++
			continue
		}
		out[args[i]] = ""
	}
	return out
}

// center echoes the box centre x so tests can tell concurrent runs apart.
func center(flags map[string]string) string {
	if v, ok := flags["--center_x"]; ok {
		return v
	}
	return "0"
}
