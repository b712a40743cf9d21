package contacts

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v2"
)

// ArmorPrefix marks a shareable contact string. The rest of the string
// is base64-encoded YAML holding one or more contact cards.
const ArmorPrefix = "nahan://id/"

var ErrNotArmor = errors.New("contacts: not a contact share string")

// Armor packs contacts into a share string that survives chat apps and
// clipboards.
func Armor(list ...Contact) (string, error) {
	if len(list) == 0 {
		return "", errors.New("contacts: nothing to armor")
	}
	raw, err := yaml.Marshal(list)
	if err != nil {
		return "", fmt.Errorf("marshal contacts: %w", err)
	}
	return ArmorPrefix + base64.RawURLEncoding.EncodeToString(raw), nil
}

// IsArmor reports whether s looks like a contact share string.
func IsArmor(s string) bool {
	return strings.HasPrefix(strings.TrimSpace(s), ArmorPrefix)
}

// Unarmor unpacks a share string back into contact cards.
func Unarmor(s string) ([]Contact, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, ArmorPrefix) {
		return nil, ErrNotArmor
	}
	raw, err := base64.RawURLEncoding.DecodeString(s[len(ArmorPrefix):])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotArmor, err)
	}
	var list []Contact
	if err := yaml.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotArmor, err)
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("%w: empty card list", ErrNotArmor)
	}
	for _, c := range list {
		if c.Fingerprint == "" || c.BoxKey == "" || c.SignKey == "" {
			return nil, fmt.Errorf("%w: incomplete card", ErrBadRecord)
		}
		if _, _, err := c.Keys(); err != nil {
			return nil, err
		}
	}
	return list, nil
}
