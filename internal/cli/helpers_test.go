package cli_test

import (
	"os"
	"path/filepath"

	"zendo/internal/config"
)

func writeSettings(dir, content string) error {
	return os.WriteFile(filepath.Join(dir, config.SettingsFile), []byte(content), 0600)
}
