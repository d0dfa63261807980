// Package rules holds the performance rules. Each rule registers itself with
// the lint registry from init, so importing the package for side effects is
// enough to enable them:
//
//	import _ "github.com/leapstack-labs/querylint/pkg/lint/rules"
//
// PF02 and PF03 need table metadata and are skipped when no schema is
// configured. PF01 and PF05 still report without one but offer no fix.
package rules
