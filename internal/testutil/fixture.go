// Package testutil provides Java fixtures, scratch working trees and text
// diffs for tests.
package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

// ReadFixture returns the content of testdata/fixtures/java/<name>.
func ReadFixture(t *testing.T, name string) string {
	t.Helper()

	path := filepath.Join(getFixturesRoot(t), "java", name)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read fixture %s: %v", name, err)
	}
	return string(data)
}

// getFixturesRoot returns the absolute path to testdata/fixtures/.
func getFixturesRoot(t *testing.T) string {
	t.Helper()

	// Get the directory of this source file
	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("Failed to get caller information")
	}

	// Navigate from internal/testutil to project root
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(thisFile)))
	fixturesRoot := filepath.Join(projectRoot, "testdata", "fixtures")

	if _, err := os.Stat(fixturesRoot); os.IsNotExist(err) {
		t.Fatalf("Fixtures root not found: %s", fixturesRoot)
	}

	return fixturesRoot
}

// JavaClass generates a compilable-looking class with the given number of
// methods, each with bodyLines statements. Useful for crossing size
// thresholds without checking in large files.
func JavaClass(name string, methods, bodyLines int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "public class %s {\n", name)
	fmt.Fprintf(&b, "    private int total;\n\n")
	for m := 0; m < methods; m++ {
		fmt.Fprintf(&b, "    public int method%d(int x) {\n", m)
		for l := 0; l < bodyLines; l++ {
			fmt.Fprintf(&b, "        total += x * %d; // \"step\" {%d}\n", l, l)
		}
		fmt.Fprintf(&b, "        return total;\n")
		fmt.Fprintf(&b, "    }\n\n")
	}
	b.WriteString("}\n")
	return b.String()
}

// JavaFile prefixes one or more generated class bodies with a package and
// import header.
func JavaFile(pkg string, classes ...string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "package %s;\n\nimport java.util.List;\nimport java.util.Map;\n\n", pkg)
	b.WriteString(strings.Join(classes, "\n"))
	return b.String()
}

// WriteTree creates a scratch working tree containing files (path relative
// to the root, forward slashes) and returns its root.
func WriteTree(t *testing.T, files map[string]string) string {
	t.Helper()

	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("Failed to create %s: %v", filepath.Dir(path), err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("Failed to write %s: %v", rel, err)
		}
	}
	return root
}

// WriteScript writes an executable shell script into dir and returns its
// path. Tests use it as a stand-in build or test tool.
func WriteScript(t *testing.T, dir, name, body string) string {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not supported on windows")
	}
	path := filepath.Join(dir, name)
	script := "#!/bin/sh\n" + body + "\n"
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("Failed to write script %s: %v", name, err)
	}
	return path
}

// ReadFile returns a file's content, failing the test on error.
func ReadFile(t *testing.T, path string) string {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read %s: %v", path, err)
	}
	return string(data)
}
