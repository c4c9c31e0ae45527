package codegen

import "strings"

// knownDependencies is scanned in order, so results are stable.
var knownDependencies = []struct {
	marker string
	pkg    string
}{
	{"from 'react'", "react"},
	{"useForm", "react-hook-form"},
	{"zodResolver", "@hookform/resolvers"},
	{"from 'zod'", "zod"},
	{"from 'lucide-react'", "lucide-react"},
}

// ScanDependencies returns the packages the rendered code actually references.
func ScanDependencies(code string) []string {
	deps := make([]string, 0, len(knownDependencies))
	for _, d := range knownDependencies {
		if strings.Contains(code, d.marker) {
			deps = append(deps, d.pkg)
		}
	}
	return deps
}
