// Package recipients decodes the --email.to list shared by Drive and SendGrid.
package recipients

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"apkdrop/internal/structures"
)

// DefaultRole is the Drive permission role used when an entry names none.
const DefaultRole = "reader"

// Recipients only ever get read access to the shared artifact.
var validRoles = map[string]bool{
	"reader":    true,
	"commenter": true,
}

// Parse decodes a JSON array of {"email": ..., "role": ...} objects.
// Every entry needs a syntactically valid address; duplicates are dropped.
func Parse(raw string) ([]structures.Recipient, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, errors.New("recipient list is empty")
	}

	var list []structures.Recipient
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return nil, fmt.Errorf("decode recipient list: %w", err)
	}
	if len(list) == 0 {
		return nil, errors.New("recipient list is empty")
	}

	seen := make(map[string]bool, len(list))
	out := make([]structures.Recipient, 0, len(list))
	for i, r := range list {
		r.Email = strings.TrimSpace(r.Email)
		if r.Email == "" {
			return nil, fmt.Errorf("recipient %d: missing email", i)
		}
		addr, err := mail.ParseAddress(r.Email)
		if err != nil {
			return nil, fmt.Errorf("recipient %d: invalid email %q: %w", i, r.Email, err)
		}
		r.Email = addr.Address

		r.Role = strings.ToLower(strings.TrimSpace(r.Role))
		if r.Role == "" {
			r.Role = DefaultRole
		}
		if !validRoles[r.Role] {
			return nil, fmt.Errorf("recipient %d: unsupported role %q", i, r.Role)
		}

		key := strings.ToLower(r.Email)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, r)
	}
	return out, nil
}

// Emails returns the addresses in list order.
func Emails(list []structures.Recipient) []string {
	out := make([]string, len(list))
	for i, r := range list {
		out[i] = r.Email
	}
	return out
}
