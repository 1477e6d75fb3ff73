package gate

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// testNamePatterns are the test class naming conventions, with %s standing
// for the simple type name.
var testNamePatterns = []string{"%sTest", "%sTests", "Test%s", "%sIT"}

// relatedTests finds test classes for typeName under the test roots of a
// working tree. typeName may be qualified; only its simple name is used.
// Results are simple class names, sorted and unique.
func relatedTests(root string, testRoots []string, typeName string) []string {
	simple := typeName
	if i := strings.LastIndexAny(simple, ".$"); i >= 0 {
		simple = simple[i+1:]
	}
	if simple == "" {
		return nil
	}

	want := make(map[string]bool, len(testNamePatterns))
	for _, p := range testNamePatterns {
		want[strings.ReplaceAll(p, "%s", simple)] = true
	}

	found := make(map[string]bool)
	for _, tr := range testRoots {
		dir := tr
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(root, filepath.FromSlash(tr))
		}
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			continue
		}
		_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if d != nil && d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				return nil
			}
			name, ok := strings.CutSuffix(d.Name(), ".java")
			if ok && want[name] {
				found[name] = true
			}
			return nil
		})
	}

	tests := make([]string, 0, len(found))
	for name := range found {
		tests = append(tests, name)
	}
	sort.Strings(tests)
	return tests
}

// testCommand appends the selection argument to argv when tests were
// selected. {tests} in selectArg is replaced with the comma-joined names.
func testCommand(argv []string, selectArg string, tests []string) []string {
	out := append([]string(nil), argv...)
	if len(tests) == 0 || strings.TrimSpace(selectArg) == "" {
		return out
	}
	arg := strings.ReplaceAll(selectArg, "{tests}", strings.Join(tests, ","))
	return append(out, strings.Fields(arg)...)
}
