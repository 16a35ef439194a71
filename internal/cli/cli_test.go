package cli

import (
	"bytes"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"rtk/kernel"
)

func examplePath(name string) string {
	return filepath.Join("..", "..", "examples", name)
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Cleanup(func() { kernel.SetHaltHandler(nil) })

	var out, errOut bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestRunVirtual(t *testing.T) {
	pngPath := filepath.Join(t.TempDir(), "chart.png")
	out, err := execute(t, "run", "-f", examplePath("pingpong.yaml"),
		"--virtual", "--ticks", "50", "--cols", "25",
		"--width", "200", "--height", "100", "--png", pngPath,
		"--log-level", "error")
	if err != nil {
		t.Fatalf("run error = %v\n%s", err, out)
	}

	if n := strings.Count(out, "got token"); n != 7 {
		t.Fatalf("consumer lines = %d, want 7:\n%s", n, out)
	}
	for _, want := range []string{"consumer", "producer", "background", "idle"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}

	f, err := os.Open(pngPath)
	if err != nil {
		t.Fatalf("open png: %v", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 200 || b.Dy() != 100 {
		t.Fatalf("png bounds = %v, want 200x100", b)
	}
}

func TestRunVirtualNeedsTicks(t *testing.T) {
	_, err := execute(t, "run", "-f", examplePath("roundrobin.yaml"), "--virtual", "--ticks", "0")
	if err == nil || !strings.Contains(err.Error(), "tick limit") {
		t.Fatalf("run error = %v, want tick limit error", err)
	}
}

func TestRunMissingFile(t *testing.T) {
	_, err := execute(t, "run", "-f", filepath.Join(t.TempDir(), "none.yaml"))
	if err == nil {
		t.Fatal("run error = nil, want missing file error")
	}
	if _, err := execute(t, "run"); err == nil {
		t.Fatal("run without -f error = nil")
	}
}

func TestValidate(t *testing.T) {
	out, err := execute(t, "validate", "-f", examplePath("roundrobin.yaml"))
	if err != nil {
		t.Fatalf("validate error = %v", err)
	}
	if !strings.Contains(out, "3 tasks, 0 semaphores") {
		t.Fatalf("validate output = %q", out)
	}

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(bad, []byte("tasks:\n  - {name: a, program: [yield]}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := execute(t, "validate", "-f", bad); err == nil {
		t.Fatal("validate(bad) error = nil")
	}
}

func TestExamplesValidate(t *testing.T) {
	for _, name := range []string{"roundrobin.yaml", "pingpong.yaml", "mailbox.yaml"} {
		if _, err := execute(t, "validate", "-f", examplePath(name)); err != nil {
			t.Fatalf("validate %s error = %v", name, err)
		}
	}
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatalf("version error = %v", err)
	}
	if !strings.HasPrefix(out, "rtksim ") {
		t.Fatalf("version output = %q", out)
	}
}
