package repository

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// IdentityRepository maps GitHub user node ids to Discord user ids.
type IdentityRepository interface {
	DiscordID(githubNodeID string) (string, bool, error)
}

// yamlIdentityRepository re-reads the mapping file on every lookup so edits
// take effect without a restart.
type yamlIdentityRepository struct {
	path string
}

// NewYAMLIdentityRepository reads mappings from a flat YAML document
// ("<github node id>: <discord user id>").
func NewYAMLIdentityRepository(path string) IdentityRepository {
	return &yamlIdentityRepository{path: path}
}

func (r *yamlIdentityRepository) DiscordID(githubNodeID string) (string, bool, error) {
	content, err := os.ReadFile(r.path)
	if err != nil {
		return "", false, fmt.Errorf("read identity mapping: %w", err)
	}

	var mapping map[string]any
	if err := yaml.Unmarshal(content, &mapping); err != nil {
		return "", false, fmt.Errorf("parse identity mapping: %w", err)
	}

	raw, ok := mapping[githubNodeID]
	if !ok || raw == nil {
		return "", false, nil
	}
	switch v := raw.(type) {
	case string:
		return v, v != "", nil
	case int:
		return strconv.Itoa(v), true, nil
	case int64:
		return strconv.FormatInt(v, 10), true, nil
	case uint64:
		return strconv.FormatUint(v, 10), true, nil
	default:
		return "", false, fmt.Errorf("identity mapping for %s has unsupported type %T", githubNodeID, raw)
	}
}
