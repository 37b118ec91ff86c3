package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/arjale/netpath/internal/domain"
	"github.com/arjale/netpath/internal/logging"
)

// LoadAccounts reads the account inventory. An absent file or an empty
// accounts list is ErrNoAccounts.
func LoadAccounts(path string) ([]domain.AccountConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", path, domain.ErrNoAccounts)
		}
		return nil, fmt.Errorf("read accounts file: %w", err)
	}

	var file domain.AccountsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse accounts file %s: %w", path, err)
	}
	if len(file.Accounts) == 0 {
		return nil, fmt.Errorf("%s: %w", path, domain.ErrNoAccounts)
	}
	return file.Accounts, nil
}

func LoadGoldenPath(path string) (*domain.GoldenPath, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", path, domain.ErrNoGoldenPath)
		}
		return nil, fmt.Errorf("read golden path: %w", err)
	}

	var gp domain.GoldenPath
	if err := yaml.Unmarshal(data, &gp); err != nil {
		return nil, fmt.Errorf("parse golden path %s: %w", path, err)
	}
	return &gp, nil
}

func LoadTestPlan(path string) (*domain.TestPlan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", path, domain.ErrNoTestPlan)
		}
		return nil, fmt.Errorf("read test plan: %w", err)
	}

	var plan domain.TestPlan
	if err := yaml.Unmarshal(data, &plan); err != nil {
		return nil, fmt.Errorf("parse test plan %s: %w", path, err)
	}
	return &plan, nil
}

// SaveGoldenPath writes the golden path in both YAML and JSON next to
// each other, replacing the YAML extension for the JSON twin.
func SaveGoldenPath(path string, gp *domain.GoldenPath) error {
	if err := SaveYAML(path, gp); err != nil {
		return err
	}
	jsonPath := strings.TrimSuffix(path, filepath.Ext(path)) + ".json"
	return SaveJSON(jsonPath, gp)
}

// ExportBaselines writes one JSON file per account baseline into dir,
// named baseline_<account name>_<account id>.json.
func ExportBaselines(dir string, baselines []*domain.AccountBaseline) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create baseline dir %s: %w", dir, err)
	}
	for _, b := range baselines {
		name := fmt.Sprintf("baseline_%s_%s.json", sanitizeName(b.AccountName), b.AccountID)
		if err := SaveJSON(filepath.Join(dir, name), b); err != nil {
			return err
		}
	}
	return nil
}

func SaveYAML(path string, v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func SaveJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// BackupIfExists renames an existing file aside with a timestamp suffix
// before it is overwritten. Returns the backup path, or empty when there
// was nothing to back up.
func BackupIfExists(path string) (string, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("stat %s: %w", path, err)
	}

	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	backup := fmt.Sprintf("%s_%s%s", base, time.Now().Format("20060102_150405"), ext)
	if err := os.Rename(path, backup); err != nil {
		return "", fmt.Errorf("back up %s: %w", path, err)
	}
	logging.Info("backed up existing file", "path", path, "backup", backup)
	return backup, nil
}

func sanitizeName(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '-'
	}, name)
}
