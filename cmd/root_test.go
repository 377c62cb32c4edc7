package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/spf13/pflag"

	"github.com/nodewee/image-to-jp2/pkg/utils"
)

// execute runs the root command with args against an isolated HOME
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return executeIn(t, t.TempDir(), args...)
}

// executeIn runs the root command with args and HOME set to home
func executeIn(t *testing.T, home string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("HOME", home)
	for _, env := range []string{"KAKADU_PATH", "OPENJPEG_PATH", "JPYLYZER_PATH", "IMAGE_TO_JP2_BINARY_PATH", "IMAGE_TO_JP2_WORKERS"} {
		t.Setenv(env, "")
	}

	resetFlags(rootCmd.Flags())
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func resetFlags(flags *pflag.FlagSet) {
	flags.VisitAll(func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	})
}

func fakeEncoderDir(t *testing.T, name string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script fakes require a POSIX shell")
	}
	dir := t.TempDir()
	script := "#!/bin/sh\ntouch \"$4\"\n"
	if err := os.WriteFile(filepath.Join(dir, name), []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
	return dir
}

func inputDirWith(t *testing.T, names ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("img"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestRoot_ConvertsDirectory(t *testing.T) {
	bin := fakeEncoderDir(t, "kdu_compress")
	in := inputDirWith(t, "a.tif", "c.png", "Thumbs.db")
	out := filepath.Join(t.TempDir(), "jp2")

	stdout, err := execute(t, "-i", in, "-o", out, "-b", bin)
	if err != nil {
		t.Fatalf("execute: %v\n%s", err, stdout)
	}

	for _, want := range []string{
		"# Input directory:\t " + in,
		"# Output directory:\t " + out,
		"# Kakadu encoder will be used (default), from " + bin,
		"-----------------------\n# 2 images have been converted successfully to JP2\n",
	} {
		if !strings.Contains(stdout, want) {
			t.Errorf("output missing %q:\n%s", want, stdout)
		}
	}
	if strings.Contains(stdout, "not valid JP2") {
		t.Errorf("invalid section printed without validation:\n%s", stdout)
	}
	for _, name := range []string{"a.jp2", "c.jp2"} {
		if _, err := os.Stat(filepath.Join(out, name)); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}
}

func TestRoot_OpenJPEGSelected(t *testing.T) {
	bin := fakeEncoderDir(t, "opj_compress")
	in := inputDirWith(t, "a.tif")
	out := t.TempDir()

	stdout, err := execute(t, "-i", in, "-o", out, "-b", bin, "--with-openjpeg")
	if err != nil {
		t.Fatalf("execute: %v\n%s", err, stdout)
	}
	if !strings.Contains(stdout, "# OpenJPEG encoder will be used, from "+bin) {
		t.Errorf("unexpected summary:\n%s", stdout)
	}
}

func TestRoot_KakaduWinsOverOpenJPEG(t *testing.T) {
	bin := fakeEncoderDir(t, "kdu_compress")
	in := inputDirWith(t, "a.tif")

	stdout, err := execute(t, "-i", in, "-o", t.TempDir(), "-b", bin, "--with-openjpeg", "--with-kakadu")
	if err != nil {
		t.Fatalf("execute: %v\n%s", err, stdout)
	}
	if !strings.Contains(stdout, "# Kakadu encoder will be used") {
		t.Errorf("Kakadu not selected:\n%s", stdout)
	}
}

func TestRoot_MissingEncoderStillCompletes(t *testing.T) {
	in := inputDirWith(t, "a.tif", "b.png")
	out := t.TempDir()

	stdout, err := execute(t, "-i", in, "-o", out, "-b", t.TempDir(), "--validate-jp2")
	if err != nil {
		t.Fatalf("per-file failures must not fail the run: %v", err)
	}
	for _, want := range []string{
		"# 2 images have been converted successfully to JP2",
		"# These images are not valid JP2:",
		"[WARN] 2 images failed (encoding: 2)",
		filepath.Join(out, "a.jp2"),
		filepath.Join(out, "b.jp2"),
	} {
		if !strings.Contains(stdout, want) {
			t.Errorf("output missing %q:\n%s", want, stdout)
		}
	}
}

func TestRoot_SetupErrorIsReturned(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing")
	_, err := execute(t, "-i", missing, "-o", t.TempDir())
	if !utils.IsErrorType(err, utils.ErrorTypeSetup) {
		t.Fatalf("err = %v, want setup error", err)
	}
	if msg := formatError(err); !strings.HasPrefix(msg, "Error (setup):") {
		t.Errorf("formatError = %q", msg)
	}
}

func TestRoot_InvalidWorkers(t *testing.T) {
	_, err := execute(t, "-i", t.TempDir(), "-o", t.TempDir(), "--workers", "0")
	if !utils.IsErrorType(err, utils.ErrorTypeValidation) {
		t.Errorf("err = %v, want validation error", err)
	}
}

func TestRoot_RequiresDirectories(t *testing.T) {
	for _, args := range [][]string{
		nil,
		{"-i", t.TempDir()},
		{"-o", t.TempDir()},
	} {
		_, err := execute(t, args...)
		if err == nil || !strings.Contains(err.Error(), "required flag") {
			t.Errorf("%v: err = %v, want required flag error", args, err)
		}
	}
}

func TestRoot_RunLeavesHomeUntouched(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script fakes require a POSIX shell")
	}
	marker := filepath.Join(t.TempDir(), "invoked")
	pathBin := t.TempDir()
	script := "#!/bin/sh\ntouch \"" + marker + "\"\n"
	if err := os.WriteFile(filepath.Join(pathBin, "kdu_compress"), []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PATH", pathBin+string(os.PathListSeparator)+os.Getenv("PATH"))

	home := t.TempDir()
	stdout, err := executeIn(t, home, "-i", inputDirWith(t, "a.tif"), "-o", t.TempDir())
	if err != nil {
		t.Fatalf("execute: %v\n%s", err, stdout)
	}

	if entries, _ := os.ReadDir(home); len(entries) != 0 {
		t.Errorf("conversion run wrote into HOME: %v", entries)
	}
	if !strings.Contains(stdout, "# Kakadu encoder will be used (default), from /usr/local/bin") {
		t.Errorf("unexpected summary:\n%s", stdout)
	}
	if _, err := os.Stat(marker); err == nil {
		t.Error("encoder found on PATH was run instead of the one under the base path")
	}
}

func TestRoot_SummaryShowsConfiguredEncoder(t *testing.T) {
	bin := fakeEncoderDir(t, "kdu_compress")
	home := t.TempDir()
	if _, err := executeIn(t, home, "config", "set", "kakadu_path", filepath.Join(bin, "kdu_compress")); err != nil {
		t.Fatal(err)
	}

	in := inputDirWith(t, "a.tif")
	out := t.TempDir()
	stdout, err := executeIn(t, home, "-i", in, "-o", out)
	if err != nil {
		t.Fatalf("execute: %v\n%s", err, stdout)
	}
	if !strings.Contains(stdout, "# Kakadu encoder will be used (default), from "+bin) {
		t.Errorf("summary does not name the configured encoder:\n%s", stdout)
	}
	if _, err := os.Stat(filepath.Join(out, "a.jp2")); err != nil {
		t.Errorf("configured encoder not used: %v", err)
	}
}

func TestRoot_Version(t *testing.T) {
	stdout, err := execute(t, "-V")
	if err != nil {
		t.Fatal(err)
	}
	if stdout != "image-to-jp2 "+version+"\n" {
		t.Errorf("version output = %q", stdout)
	}
}

func TestConfigCommands(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	run := func(args ...string) string {
		t.Helper()
		var out bytes.Buffer
		rootCmd.SetOut(&out)
		rootCmd.SetArgs(args)
		if err := rootCmd.Execute(); err != nil {
			t.Fatalf("%v: %v", args, err)
		}
		return out.String()
	}

	run("config", "set", "kakadu_path", "/opt/kakadu/kdu_compress")
	if got := run("config", "get", "kakadu_path"); got != "kakadu_path = /opt/kakadu/kdu_compress\n" {
		t.Errorf("config get = %q", got)
	}
	list := run("config", "list")
	if !strings.Contains(list, filepath.Join(home, ".image-to-jp2", "config.json")) {
		t.Errorf("config list missing file location:\n%s", list)
	}
	if !strings.Contains(list, "/opt/kakadu/kdu_compress") {
		t.Errorf("config list missing value:\n%s", list)
	}

	rootCmd.SetArgs([]string{"config", "get", "unknown_path"})
	if err := rootCmd.Execute(); !utils.IsErrorType(err, utils.ErrorTypeValidation) {
		t.Errorf("unknown key err = %v", err)
	}
}
