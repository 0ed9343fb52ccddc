package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTestFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

const shellSource = `public class Shell {
    private static final String TOOL = "ls";

    public Shell() {
    }

    public void fixed() {
        Runtime.getRuntime().exec("ls -la");
    }

    public void run(String cmd) throws Exception {
        Runtime.getRuntime().exec(cmd);
    }

    public void mixed(String userHost) throws Exception {
        String base = "ping ";
        Runtime.getRuntime().exec(base + userHost);
    }

    public void quiet() {
        // Runtime.getRuntime().exec("rm");
    }
}
`

const shellGrep = `./src/Shell.java:8:        Runtime.getRuntime().exec("ls -la");
./src/Shell.java:12:        Runtime.getRuntime().exec(cmd);
./src/Shell.java:17:        Runtime.getRuntime().exec(base + userHost);
./src/Shell.java:21:        // Runtime.getRuntime().exec("rm");
`

func createSampleRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeTestFile(t, dir, "src/Shell.java", shellSource)
	return dir
}

func runWith(t *testing.T, stdin io.Reader, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), args, stdin, &stdout, &stderr)
	return stdout.String(), stderr.String(), err
}

func TestRunGrepStdin(t *testing.T) {
	t.Parallel()
	dir := createSampleRepo(t)

	out, stderr, err := runWith(t, strings.NewReader(shellGrep), "-p", dir)
	if err != nil {
		t.Fatalf("run: %v\nstderr: %s", err, stderr)
	}

	for _, want := range []string{
		"4 candidates given, 1 omitted for being commented or lacking Runtime\n",
		"Out of 3 uses: 1 hardcoded, 2 from function input, 0 other\n",
		"0/1 file paths contain \"test\"\n",
		"\nExec Input Table\n",
		"String literal       | 1       | 1         | 0      \n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Uses:") {
		t.Errorf("listings should be off by default:\n%s", out)
	}
}

func TestRunListings(t *testing.T) {
	t.Parallel()
	dir := createSampleRepo(t)

	out, stderr, err := runWith(t, strings.NewReader(shellGrep), "-p", dir, "-hi")
	if err != nil {
		t.Fatalf("run: %v\nstderr: %s", err, stderr)
	}

	if !strings.Contains(out, "\nHardcoded Uses:\nsrc/Shell.java: 8:\nRuntime.getRuntime().exec(\"ls -la\");\n") {
		t.Errorf("missing hardcoded listing:\n%s", out)
	}
	if !strings.Contains(out, "\nInput Uses:\nsrc/Shell.java: 12:\nRuntime.getRuntime().exec(cmd);\nsrc/Shell.java: 17:\n") {
		t.Errorf("missing input listing:\n%s", out)
	}
	if strings.Contains(out, "Other Uses:") {
		t.Error("other listing should be off")
	}
}

func TestRunGrepFile(t *testing.T) {
	t.Parallel()
	dir := createSampleRepo(t)
	grepFile := filepath.Join(t.TempDir(), "grep.txt")
	writeTestFile(t, filepath.Dir(grepFile), "grep.txt", shellGrep)

	out, stderr, err := runWith(t, strings.NewReader(""), "--path", dir, "--grep", grepFile)
	if err != nil {
		t.Fatalf("run: %v\nstderr: %s", err, stderr)
	}
	if !strings.HasPrefix(out, "4 candidates given") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestRunMissingGrepFile(t *testing.T) {
	t.Parallel()
	dir := createSampleRepo(t)

	_, _, err := runWith(t, strings.NewReader(""), "-p", dir, "-g", filepath.Join(dir, "nope.txt"))
	if err == nil || !strings.Contains(err.Error(), "opening grep file") {
		t.Errorf("err = %v, want opening grep file error", err)
	}
}

func TestRunMalformedRecords(t *testing.T) {
	t.Parallel()
	dir := createSampleRepo(t)

	input := "garbage\n" + shellGrep + "./src/Shell.java:x:oops\n"
	out, stderr, err := runWith(t, strings.NewReader(input), "-p", dir)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.HasPrefix(out, "4 candidates given") {
		t.Errorf("malformed records should be skipped:\n%s", out)
	}
	if strings.Count(stderr, "skipping malformed record") != 2 {
		t.Errorf("expected two warnings, got:\n%s", stderr)
	}
}

func TestRunScan(t *testing.T) {
	t.Parallel()
	dir := createSampleRepo(t)

	out, stderr, err := runWith(t, strings.NewReader(""), "-p", dir, "--scan")
	if err != nil {
		t.Fatalf("run: %v\nstderr: %s", err, stderr)
	}
	if !strings.Contains(out, "3 candidates given, 0 omitted") {
		t.Errorf("unexpected output:\n%s", out)
	}
	if !strings.Contains(out, "Out of 3 uses: 1 hardcoded, 2 from function input, 0 other") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestRunToon(t *testing.T) {
	t.Parallel()
	dir := createSampleRepo(t)

	out, stderr, err := runWith(t, strings.NewReader(shellGrep), "-p", dir, "-f", "toon")
	if err != nil {
		t.Fatalf("run: %v\nstderr: %s", err, stderr)
	}
	if !strings.HasPrefix(out, "root: "+filepath.Base(dir)+"\n") {
		t.Errorf("missing root header:\n%s", out)
	}
	if !strings.Contains(out, "sites[4]{path,line,method,verdict,excluded,statement}:") {
		t.Errorf("missing sites table:\n%s", out)
	}
	if !strings.Contains(out, "  src/Shell.java,12,cmd,String,false,true\n") {
		t.Errorf("missing leaf row:\n%s", out)
	}
}

func TestRunUnknownFormat(t *testing.T) {
	t.Parallel()
	dir := createSampleRepo(t)

	_, _, err := runWith(t, strings.NewReader(""), "-p", dir, "-f", "json")
	if err == nil || !strings.Contains(err.Error(), `unsupported format "json"`) {
		t.Errorf("err = %v, want unsupported format", err)
	}
}

func TestRunVersion(t *testing.T) {
	t.Parallel()

	out, _, err := runWith(t, strings.NewReader(""), "--version")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out, "execscan version "+version) {
		t.Errorf("version output = %q", out)
	}
}

func TestRunHelp(t *testing.T) {
	t.Parallel()

	out, _, err := runWith(t, strings.NewReader(""), "-?")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	for _, flag := range []string{"--hardcoded", "--input", "--other", "--grep", "--scan"} {
		if !strings.Contains(out, flag) {
			t.Errorf("help missing %s:\n%s", flag, out)
		}
	}
}

func TestRunNotADirectory(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeTestFile(t, dir, "file.txt", "x")

	_, _, err := runWith(t, strings.NewReader(""), "-p", filepath.Join(dir, "file.txt"))
	if err == nil || !strings.Contains(err.Error(), "not a directory") {
		t.Errorf("err = %v, want not a directory", err)
	}
}

func TestRunMissingRoot(t *testing.T) {
	t.Parallel()

	_, _, err := runWith(t, strings.NewReader(""), "-p", filepath.Join(t.TempDir(), "gone"))
	if err == nil || !strings.Contains(err.Error(), "root path") {
		t.Errorf("err = %v, want root path error", err)
	}
}

func TestRunUnexpectedArgument(t *testing.T) {
	t.Parallel()
	dir := createSampleRepo(t)

	_, _, err := runWith(t, strings.NewReader(""), "-p", dir, "extra")
	if err == nil || !strings.Contains(err.Error(), `unexpected argument "extra"`) {
		t.Errorf("err = %v, want unexpected argument", err)
	}
}

func TestRunConfig(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeTestFile(t, dir, "src/Spawner.java", `public class Spawner {
    public void go(String arg) {
        Launcher.spawn(arg);
    }
}
`)
	writeTestFile(t, dir, ".execscan.yaml", `call: spawn
markers:
  - "Launcher.spawn("
`)

	out, stderr, err := runWith(t, strings.NewReader(""), "-p", dir, "--scan", "-i")
	if err != nil {
		t.Fatalf("run: %v\nstderr: %s", err, stderr)
	}
	if !strings.Contains(out, "Out of 1 uses: 0 hardcoded, 1 from function input, 0 other") {
		t.Errorf("config under root not applied:\n%s", out)
	}
	if !strings.Contains(out, "src/Spawner.java: 3:\nLauncher.spawn(arg);") {
		t.Errorf("missing input listing:\n%s", out)
	}
}

func TestRunExplicitConfig(t *testing.T) {
	t.Parallel()
	dir := createSampleRepo(t)
	cfg := filepath.Join(t.TempDir(), "custom.yaml")
	writeTestFile(t, filepath.Dir(cfg), "custom.yaml", "exclude:\n  - \"src/**\"\n")

	out, stderr, err := runWith(t, strings.NewReader(shellGrep), "-p", dir, "-c", cfg)
	if err != nil {
		t.Fatalf("run: %v\nstderr: %s", err, stderr)
	}
	if !strings.HasPrefix(out, "0 candidates given") {
		t.Errorf("excluded files should be dropped:\n%s", out)
	}
}

func TestRunBadConfig(t *testing.T) {
	t.Parallel()
	dir := createSampleRepo(t)
	writeTestFile(t, dir, ".execscan.yaml", "log-level: loud\n")

	_, _, err := runWith(t, strings.NewReader(shellGrep), "-p", dir)
	if err == nil || !strings.Contains(err.Error(), "log-level") {
		t.Errorf("err = %v, want log-level error", err)
	}
}

func TestRunVerbose(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeTestFile(t, dir, "Loop.java", `public class Loop {
    public void loop() {
        String a = b;
        String b = a;
        Runtime.getRuntime().exec(a);
    }
}
`)
	input := "Loop.java:5:Runtime.getRuntime().exec(a);\n"

	_, quiet, err := runWith(t, strings.NewReader(input), "-p", dir)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if quiet != "" {
		t.Errorf("expected no diagnostics without -v, got:\n%s", quiet)
	}

	_, loud, err := runWith(t, strings.NewReader(input), "-p", dir, "-v")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(loud, "level=DEBUG") {
		t.Errorf("expected debug diagnostics with -v, got:\n%s", loud)
	}
}

func TestRunProgress(t *testing.T) {
	t.Parallel()
	dir := createSampleRepo(t)

	_, stderr, err := runWith(t, strings.NewReader(shellGrep), "-p", dir, "--progress")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(stderr, "\rCurrent Progress: File 1/1\n") {
		t.Errorf("stderr = %q", stderr)
	}
}

func TestRunCache(t *testing.T) {
	t.Parallel()
	dir := createSampleRepo(t)
	cachePath := filepath.Join(t.TempDir(), "execscan.cache")

	first, stderr, err := runWith(t, strings.NewReader(shellGrep), "-p", dir, "--cache", cachePath)
	if err != nil {
		t.Fatalf("first run: %v\nstderr: %s", err, stderr)
	}
	if _, err := os.Stat(cachePath); err != nil {
		t.Fatalf("cache file not created: %v", err)
	}

	second, _, err := runWith(t, strings.NewReader(shellGrep), "-p", dir, "--cache", cachePath)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if first != second {
		t.Errorf("cached output differs:\nfirst:\n%s\nsecond:\n%s", first, second)
	}

	// Changing a source file invalidates the entry.
	writeTestFile(t, dir, "src/Shell.java", strings.Replace(shellSource, `exec("ls -la")`, `exec(TOOL)`, 1))
	third, _, err := runWith(t, strings.NewReader(shellGrep), "-p", dir, "--cache", cachePath, "-h")
	if err != nil {
		t.Fatalf("third run: %v", err)
	}
	if !strings.Contains(third, "exec(TOOL);") {
		t.Errorf("stale cache served after source change:\n%s", third)
	}
}
