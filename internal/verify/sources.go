package verify

import (
	"go.uber.org/zap"
	"os"
	"path/filepath"
)

// LoadSources reads <dir>/<name>.sol for every contract name. Contracts
// without a source file are left out.
func LoadSources(dir string, names ...string) map[string]string {
	sources := make(map[string]string, len(names))
	for _, name := range names {
		b, err := os.ReadFile(filepath.Join(dir, name+".sol"))
		if err != nil {
			zap.L().With(zap.String("contract", name), zap.Error(err)).Warn("Verify: No contract source")
			continue
		}
		sources[name] = string(b)
	}

	return sources
}
