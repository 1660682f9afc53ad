package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// expandPath expands environment references and a leading ~. $VAR and
// ${VAR} work everywhere; %VAR% also works on Windows.
func expandPath(p string) string {
	if p == "" {
		return p
	}
	p = os.ExpandEnv(p)
	if runtime.GOOS == "windows" {
		p = expandPercentVars(p)
	}
	return expandHome(p)
}

// resolvePath expands p and anchors a relative result at root.
func resolvePath(p, root string) string {
	p = expandPath(p)
	if p == "" || root == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}

func expandHome(p string) string {
	home := p == "~" || strings.HasPrefix(p, "~/") ||
		(runtime.GOOS == "windows" && strings.HasPrefix(p, `~\`))
	if !home {
		return p
	}
	dir, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(dir, p[1:])
}

// expandPercentVars replaces %NAME% with the variable's value. Unknown or
// empty names are kept verbatim.
func expandPercentVars(p string) string {
	var b strings.Builder
	for {
		start := strings.IndexByte(p, '%')
		if start < 0 {
			break
		}
		end := strings.IndexByte(p[start+1:], '%')
		if end < 0 {
			break
		}
		end += start + 1

		b.WriteString(p[:start])
		name := p[start+1 : end]
		if val, ok := os.LookupEnv(name); ok && name != "" {
			b.WriteString(val)
		} else {
			b.WriteString(p[start : end+1])
		}
		p = p[end+1:]
	}
	b.WriteString(p)
	return b.String()
}
