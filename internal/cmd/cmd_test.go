package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Iron-Ham/resumer/internal/checkpoint"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// executeCommand runs a cobra command with args and returns captured output
func executeCommand(t *testing.T, root *cobra.Command, args ...string) (string, error) {
	t.Helper()
	resetState(t)

	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

// resetState restores flags and viper between runs and isolates the test
// from any user configuration.
func resetState(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	for _, c := range append([]*cobra.Command{rootCmd}, rootCmd.Commands()...) {
		for _, fs := range []*pflag.FlagSet{c.PersistentFlags(), c.Flags()} {
			fs.VisitAll(func(f *pflag.Flag) {
				if sv, ok := f.Value.(pflag.SliceValue); ok {
					_ = sv.Replace(nil)
				} else {
					_ = f.Value.Set(f.DefValue)
				}
				f.Changed = false
			})
		}
	}
}

func writeStates(t *testing.T, dir, suffix string, kinds ...checkpoint.Kind) {
	t.Helper()
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	for _, k := range kinds {
		if err := os.WriteFile(filepath.Join(dir, checkpoint.FileName(k, suffix)), nil, 0644); err != nil {
			t.Fatal(err)
		}
	}
}

func setupRunDir(t *testing.T) string {
	t.Helper()
	base := t.TempDir()
	all := checkpoint.AllKinds()
	writeStates(t, base, "state_pretrain_epoch_1.th", all...)
	writeStates(t, base, "state_pretrain_epoch_2.th", all...)
	writeStates(t, base, "state_pretrain_epoch_3.best.th", all...)
	writeStates(t, filepath.Join(base, "mrpc"), "state_target_train_epoch_1.best.th", all...)
	writeStates(t, filepath.Join(base, "mrpc"), "state_target_train_epoch_2.th", all...)
	writeStates(t, filepath.Join(base, "sst"), "state_target_train_epoch_1.best.th", checkpoint.KindModel, checkpoint.KindTask)
	return base
}

func TestRootCommand(t *testing.T) {
	if rootCmd.Use != "resumer" {
		t.Errorf("rootCmd.Use = %q, want %q", rootCmd.Use, "resumer")
	}

	expectedCmds := []string{"resolve", "last", "list", "best", "config"}
	cmdMap := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		cmdMap[c.Name()] = true
	}
	for _, expected := range expectedCmds {
		if !cmdMap[expected] {
			t.Errorf("expected subcommand %q not found", expected)
		}
	}
}

func TestResolveCommand(t *testing.T) {
	base := setupRunDir(t)

	t.Run("pretrain", func(t *testing.T) {
		out, err := executeCommand(t, rootCmd, "resolve", "--dir", base, "--color=false")
		if err != nil {
			t.Fatalf("resolve failed: %v\n%s", err, out)
		}
		if !strings.Contains(out, "state_pretrain_epoch_3.best.th") {
			t.Errorf("output missing pretrain suffix:\n%s", out)
		}
	})

	t.Run("target_train as json", func(t *testing.T) {
		out, err := executeCommand(t, rootCmd, "resolve", "--dir", base,
			"--phase", "target_train", "-t", "mrpc", "-t", "sst", "-o", "json")
		if err != nil {
			t.Fatalf("resolve failed: %v\n%s", err, out)
		}
		var got struct {
			Found  bool   `json:"found"`
			Task   string `json:"task"`
			Epoch  int    `json:"epoch"`
			Suffix string `json:"suffix"`
		}
		if err := json.Unmarshal([]byte(out), &got); err != nil {
			t.Fatalf("output is not JSON: %v\n%s", err, out)
		}
		if !got.Found || got.Task != "mrpc" || got.Epoch != 2 || got.Suffix != "state_target_train_epoch_2.th" {
			t.Errorf("resolve = %+v", got)
		}
	})

	t.Run("load model disabled", func(t *testing.T) {
		out, err := executeCommand(t, rootCmd, "resolve", "--dir", base, "--load-model=false", "--color=false")
		if err != nil {
			t.Fatalf("resolve failed: %v", err)
		}
		if !strings.Contains(out, "No checkpoint found") {
			t.Errorf("output = %q, want no checkpoint", out)
		}
	})

	t.Run("strict refuses to overwrite", func(t *testing.T) {
		_, err := executeCommand(t, rootCmd, "resolve", "--dir", base, "--load-model=false", "--strict")
		if !errors.Is(err, checkpoint.ErrExistingCheckpoints) {
			t.Errorf("error = %v, want ErrExistingCheckpoints", err)
		}
	})

	t.Run("missing run directory flag", func(t *testing.T) {
		_, err := executeCommand(t, rootCmd, "resolve")
		if !errors.Is(err, errNoRunDir) {
			t.Errorf("error = %v, want errNoRunDir", err)
		}
	})

	t.Run("invalid phase", func(t *testing.T) {
		_, err := executeCommand(t, rootCmd, "resolve", "--dir", base, "--phase", "eval")
		if err == nil || !strings.Contains(err.Error(), "run.phase") {
			t.Errorf("error = %v, want run.phase validation error", err)
		}
	})

	t.Run("run directory from environment", func(t *testing.T) {
		t.Setenv("RESUMER_RUN_DIR", base)
		out, err := executeCommand(t, rootCmd, "resolve", "-o", "yaml")
		if err != nil {
			t.Fatalf("resolve failed: %v", err)
		}
		if !strings.Contains(out, "suffix: state_pretrain_epoch_3.best.th") {
			t.Errorf("output:\n%s", out)
		}
	})
}

func TestResolveCommandConfigFile(t *testing.T) {
	base := setupRunDir(t)
	cfgPath := filepath.Join(t.TempDir(), "resumer.yaml")
	content := "run:\n  dir: " + base + "\n  phase: target_train\n  tasks: [sst, mrpc]\noutput:\n  format: json\n"
	if err := os.WriteFile(cfgPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	out, err := executeCommand(t, rootCmd, "resolve", "--config", cfgPath)
	if err != nil {
		t.Fatalf("resolve failed: %v\n%s", err, out)
	}
	// mrpc is last in training order and complete, so it wins over sst
	if !strings.Contains(out, `"task": "mrpc"`) {
		t.Errorf("output:\n%s", out)
	}
}

func TestLastCommand(t *testing.T) {
	base := setupRunDir(t)

	out, err := executeCommand(t, rootCmd, "last", "mrpc", "--dir", base, "--phase", "target_train", "-o", "json")
	if err != nil {
		t.Fatalf("last failed: %v", err)
	}
	if !strings.Contains(out, `"suffix": "state_target_train_epoch_2.th"`) {
		t.Errorf("output:\n%s", out)
	}

	out, err = executeCommand(t, rootCmd, "last", "sst", "--dir", base, "--phase", "target_train", "-o", "json")
	if err != nil {
		t.Fatalf("last failed: %v", err)
	}
	if !strings.Contains(out, `"epoch": -1`) || !strings.Contains(out, `"found": false`) {
		t.Errorf("output:\n%s", out)
	}
}

func TestListCommand(t *testing.T) {
	base := setupRunDir(t)

	out, err := executeCommand(t, rootCmd, "list", "--dir", base, "--color=false")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	for _, want := range []string{"state_pretrain_epoch_1.th", "state_pretrain_epoch_3.best.th", "3 complete checkpoint(s)"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestBestCommand(t *testing.T) {
	base := setupRunDir(t)

	out, err := executeCommand(t, rootCmd, "best", "--dir", base)
	if err != nil {
		t.Fatalf("best failed: %v", err)
	}
	if got, want := strings.TrimSpace(out), filepath.Join(base, "model_state_pretrain_epoch_3.best.th"); got != want {
		t.Errorf("best = %q, want %q", got, want)
	}

	// sst has a best model file even though its checkpoint is incomplete
	out, err = executeCommand(t, rootCmd, "best", "sst", "--dir", base, "--phase", "target_train")
	if err != nil {
		t.Fatalf("best failed: %v", err)
	}
	if !strings.HasSuffix(strings.TrimSpace(out), filepath.Join("sst", "model_state_target_train_epoch_1.best.th")) {
		t.Errorf("best = %q", out)
	}

	_, err = executeCommand(t, rootCmd, "best", "rte", "--dir", base, "--phase", "target_train")
	if !errors.Is(err, checkpoint.ErrNoBestCheckpoint) {
		t.Errorf("error = %v, want ErrNoBestCheckpoint", err)
	}
}

func TestConfigShowCommand(t *testing.T) {
	out, err := executeCommand(t, rootCmd, "config", "show", "--dir", "/runs/exp1", "-t", "mrpc")
	if err != nil {
		t.Fatalf("config show failed: %v", err)
	}
	for _, want := range []string{"dir: /runs/exp1", "phase: pretrain", "- mrpc", "format: text"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestLoggingFlags(t *testing.T) {
	base := setupRunDir(t)
	logDir := t.TempDir()

	_, err := executeCommand(t, rootCmd, "resolve", "--dir", base, "--phase", "target_train",
		"-t", "mrpc", "-t", "sst", "--log", "--log-level", "debug", "--log-dir", logDir)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}

	content, err := os.ReadFile(filepath.Join(logDir, "resumer.log"))
	if err != nil {
		t.Fatalf("failed to read log: %v", err)
	}
	for _, want := range []string{"skipping incomplete checkpoint", "found checkpoint", `"command":"resolve"`} {
		if !strings.Contains(string(content), want) {
			t.Errorf("log missing %q:\n%s", want, content)
		}
	}
}
