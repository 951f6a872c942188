//go:build governance

package meta_test

import (
	"strings"
	"testing"

	"golang.org/x/tools/go/packages"
)

const modulePath = "github.com/metalake-labs/dremiometa"

// TestGovernance_LeafPackagesImportOnlyStdlib verifies that the exported
// entity model and the SQL parser stay dependency-free. Both are imported
// by external consumers; a third-party dependency here becomes theirs too.
func TestGovernance_LeafPackagesImportOnlyStdlib(t *testing.T) {
	leaves := []string{
		modulePath + "/pkg/meta",
		modulePath + "/pkg/sqlparse",
	}

	cfg := &packages.Config{
		Mode: packages.NeedName | packages.NeedImports,
	}
	pkgs, err := packages.Load(cfg, leaves...)
	if err != nil {
		t.Fatalf("Failed to load packages: %v", err)
	}
	if len(pkgs) != len(leaves) {
		t.Fatalf("Expected %d packages, loaded %d", len(leaves), len(pkgs))
	}

	for _, p := range pkgs {
		for importPath := range p.Imports {
			// Standard library import paths have no dot in their first
			// segment; everything else is an external module.
			first := importPath
			if i := strings.IndexByte(first, '/'); i >= 0 {
				first = first[:i]
			}
			if strings.Contains(first, ".") {
				t.Errorf("PURITY VIOLATION: %s imports %s.\n"+
					"   Fix: keep %s on the standard library.",
					strings.TrimPrefix(p.PkgPath, modulePath+"/"), importPath,
					strings.TrimPrefix(p.PkgPath, modulePath+"/"))
			}
		}
	}
}
