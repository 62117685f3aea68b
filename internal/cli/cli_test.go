package cli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/felixgeelhaar/covgate/internal/application"
	"github.com/felixgeelhaar/covgate/internal/domain"
	"github.com/felixgeelhaar/covgate/internal/infrastructure/history"
)

var errSentinel = errors.New("sentinel")

type fakeService struct {
	checkOutcome domain.Outcome
	checkErr     error
	checkOpts    application.CheckOptions
	detectCfg    application.Config
	detectErr    error
	watchErr     error
}

func (f *fakeService) Check(_ context.Context, opts application.CheckOptions) (domain.Outcome, error) {
	f.checkOpts = opts
	return f.checkOutcome, f.checkErr
}

func (f *fakeService) Detect(_ context.Context, _ application.DetectOptions) (application.Config, error) {
	if f.detectErr != nil {
		return application.Config{}, f.detectErr
	}
	return f.detectCfg, nil
}

func (f *fakeService) Watch(_ context.Context, _ application.WatchOptions, _ application.FileWatcher, _ application.WatchCallback) error {
	return f.watchErr
}

func minimalConfig() application.Config {
	return application.Config{
		Version: 1,
		Gate: domain.Gate{
			Sources:     []string{"httpx", "tests"},
			FailUnder:   100,
			ShowMissing: true,
			SkipCovered: true,
		},
		Tool: application.ToolConfig{Name: "coverage", VenvDirs: []string{"venv", ".venv"}},
	}
}

func TestRunUsage(t *testing.T) {
	var out bytes.Buffer
	code := Run([]string{"covgate"}, &out, &out, &fakeService{})
	if code != 2 {
		t.Fatalf("expected exit 2, got %d", code)
	}
}

func TestRunUnknown(t *testing.T) {
	var out bytes.Buffer
	code := Run([]string{"covgate", "nope"}, &out, &out, &fakeService{})
	if code != 2 {
		t.Fatalf("expected exit 2, got %d", code)
	}
}

func TestRunCheckPropagatesExitCode(t *testing.T) {
	for _, exit := range []int{0, 1, 2} {
		var out bytes.Buffer
		svc := &fakeService{checkOutcome: domain.NewOutcome(nil, exit)}
		code := Run([]string{"covgate", "check"}, &out, &out, svc)
		if code != exit {
			t.Fatalf("expected exit %d, got %d", exit, code)
		}
	}
}

func TestRunCheckServiceError(t *testing.T) {
	var out bytes.Buffer
	code := Run([]string{"covgate", "check"}, &out, &out, &fakeService{checkErr: errSentinel})
	if code != 3 {
		t.Fatalf("expected exit 3, got %d", code)
	}
	if !strings.Contains(out.String(), "sentinel") {
		t.Fatalf("expected error on stderr, got %q", out.String())
	}
}

func TestRunCheckFailUnderOverride(t *testing.T) {
	var out bytes.Buffer
	svc := &fakeService{}
	code := Run([]string{"covgate", "check", "--fail-under", "85"}, &out, &out, svc)
	if code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	if svc.checkOpts.FailUnder == nil || *svc.checkOpts.FailUnder != 85 {
		t.Fatalf("expected override passed through, got %v", svc.checkOpts.FailUnder)
	}

	svc = &fakeService{}
	_ = Run([]string{"covgate", "check"}, &out, &out, svc)
	if svc.checkOpts.FailUnder != nil {
		t.Fatal("no flag means no override")
	}
}

func TestRunCheckRecord(t *testing.T) {
	var out bytes.Buffer
	svc := &fakeService{}
	path := filepath.Join(t.TempDir(), "history.json")
	code := Run([]string{"covgate", "check", "--record", "--history", path}, &out, &out, svc)
	if code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	store, ok := svc.checkOpts.HistoryStore.(*history.FileStore)
	if !ok {
		t.Fatalf("expected a file store, got %T", svc.checkOpts.HistoryStore)
	}
	if store.Path != path {
		t.Fatalf("expected history path %q, got %q", path, store.Path)
	}
}

func TestRunDetectStdout(t *testing.T) {
	var out bytes.Buffer
	code := Run([]string{"covgate", "detect"}, &out, &out, &fakeService{detectCfg: minimalConfig()})
	if code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	if !strings.Contains(out.String(), "sources:") {
		t.Fatalf("expected config output, got %q", out.String())
	}
}

func TestRunDetectWriteConfig(t *testing.T) {
	var out bytes.Buffer
	path := filepath.Join(t.TempDir(), ".covgate.yaml")
	code := Run([]string{"covgate", "detect", "--write-config", "--config", path}, &out, &out, &fakeService{detectCfg: minimalConfig()})
	if code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected config file: %v", err)
	}
}

func TestRunDetectError(t *testing.T) {
	var out bytes.Buffer
	code := Run([]string{"covgate", "detect"}, &out, &out, &fakeService{detectErr: errSentinel})
	if code != 3 {
		t.Fatalf("expected exit 3, got %d", code)
	}
}

func TestRunInitCreatesFile(t *testing.T) {
	var out bytes.Buffer
	path := filepath.Join(t.TempDir(), ".covgate.yaml")
	code := Run([]string{"covgate", "init", "--config", path, "--no-interactive"}, &out, &out, &fakeService{detectCfg: minimalConfig()})
	if code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected config file: %v", err)
	}
}

func TestRunInitRefusesOverwrite(t *testing.T) {
	var out bytes.Buffer
	path := filepath.Join(t.TempDir(), ".covgate.yaml")
	if err := os.WriteFile(path, []byte("sources: [pkg]\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	code := Run([]string{"covgate", "init", "--config", path, "--no-interactive"}, &out, &out, &fakeService{detectCfg: minimalConfig()})
	if code != 2 {
		t.Fatalf("expected exit 2 without --force, got %d", code)
	}
}

func TestRunInitInteractiveBranch(t *testing.T) {
	old := initWizard
	defer func() { initWizard = old }()
	called := false
	initWizard = func(cfg application.Config, stdout io.Writer, stdin io.Reader) (application.Config, bool, error) {
		called = true
		return cfg, true, nil
	}
	var out bytes.Buffer
	path := filepath.Join(t.TempDir(), ".covgate.yaml")
	code := Run([]string{"covgate", "init", "--config", path}, &out, &out, &fakeService{detectCfg: minimalConfig()})
	if code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	if !called {
		t.Fatal("expected interactive wizard to run")
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected config file: %v", err)
	}
}

func TestRunInitInteractiveCancelled(t *testing.T) {
	old := initWizard
	defer func() { initWizard = old }()
	initWizard = func(cfg application.Config, stdout io.Writer, stdin io.Reader) (application.Config, bool, error) {
		return cfg, false, nil
	}
	var out bytes.Buffer
	path := filepath.Join(t.TempDir(), ".covgate.yaml")
	code := Run([]string{"covgate", "init", "--config", path}, &out, &out, &fakeService{detectCfg: minimalConfig()})
	if code != 0 {
		t.Fatalf("expected exit 0 when wizard cancels, got %d", code)
	}
	if _, err := os.Stat(path); err == nil {
		t.Fatal("config should not exist when wizard cancels")
	}
	if !strings.Contains(out.String(), "Init cancelled") {
		t.Fatalf("expected cancellation message: %s", out.String())
	}
}

func TestRunHistoryEmpty(t *testing.T) {
	var out bytes.Buffer
	path := filepath.Join(t.TempDir(), "history.json")
	code := Run([]string{"covgate", "history", "--history", path}, &out, &out, &fakeService{})
	if code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	if !strings.Contains(out.String(), "No gate runs recorded") {
		t.Fatalf("expected empty-history message, got %q", out.String())
	}
}

func TestRunHistoryPrintsEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	store := history.FileStore{Path: path}
	if err := store.Append(domain.GateEntry{ExitCode: 2, FailUnder: 100}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := store.Append(domain.GateEntry{ExitCode: 0, Passed: true, FailUnder: 100}); err != nil {
		t.Fatalf("append: %v", err)
	}

	var out bytes.Buffer
	code := Run([]string{"covgate", "history", "--history", path}, &out, &out, &fakeService{})
	if code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	got := out.String()
	if !strings.Contains(got, "PASS") || !strings.Contains(got, "FAIL") {
		t.Fatalf("expected both results listed, got %q", got)
	}
	if !strings.Contains(got, "pass streak 1") {
		t.Fatalf("expected streak summary, got %q", got)
	}
}

func TestRunVersion(t *testing.T) {
	var out bytes.Buffer
	code := Run([]string{"covgate", "version"}, &out, &out, &fakeService{})
	if code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	if !strings.Contains(out.String(), "covgate") {
		t.Fatalf("expected version line, got %q", out.String())
	}
}

func TestOutputValueSet(t *testing.T) {
	val := outputValue(application.OutputText)
	if err := val.Set("json"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if string(val) != "json" {
		t.Fatal("expected json")
	}
	if err := val.Set("brief"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := val.Set("bad"); err == nil {
		t.Fatal("expected error")
	}
}

func TestOutputValueString(t *testing.T) {
	val := outputValue("text")
	if val.String() != "text" {
		t.Fatal("expected string value")
	}
}

func TestWriteConfigFileStdout(t *testing.T) {
	var out bytes.Buffer
	if err := writeConfigFile("-", minimalConfig(), &out, false); err != nil {
		t.Fatalf("write to stdout: %v", err)
	}
	if !strings.Contains(out.String(), "sources:") {
		t.Fatal("expected config output")
	}
}

func TestBuildService(t *testing.T) {
	svc := BuildService(os.Stdout)
	if svc.ConfigLoader == nil || svc.Autodetector == nil || svc.PrefixResolver == nil || svc.GateRunner == nil || svc.Reporter == nil {
		t.Fatal("expected all ports wired")
	}
}
