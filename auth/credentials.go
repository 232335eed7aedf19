package auth

import (
	"fmt"
)

// Credential is the canonical stored form of a user: a bcrypt hash
// plus the permission flags.
type Credential struct {
	PasswordHash string
	Perms        PermissionSet
}

// CredentialStore is a read-only username -> credential mapping built
// once from configuration at process start.
type CredentialStore struct {
	users map[string]Credential
}

// NewCredentialStore normalizes the raw users mapping from the config
// file. Two entry shapes are accepted:
//
//	alice: "$2a$..."                     # legacy: bare hash string
//	bob:                                 # structured record
//	  password_hash: "$2a$..."
//	  can_upload: true
//	  ...
//
// A legacy string entry widens into a full-permission record on read;
// nothing is written back. A structured record with a missing flag
// reads as false.
func NewCredentialStore(raw map[string]interface{}) (*CredentialStore, error) {
	users := make(map[string]Credential, len(raw))

	for username, value := range raw {
		if username == "" {
			return nil, fmt.Errorf("users: empty username")
		}

		switch v := value.(type) {
		case string:
			if v == "" {
				return nil, fmt.Errorf("users: %s has an empty password hash", username)
			}
			users[username] = Credential{
				PasswordHash: v,
				Perms:        AllPermissions(),
			}

		case map[string]interface{}:
			hash, _ := v["password_hash"].(string)
			if hash == "" {
				return nil, fmt.Errorf("users: %s is missing password_hash", username)
			}
			users[username] = Credential{
				PasswordHash: hash,
				Perms: PermissionSet{
					CanUpload:     boolField(v, "can_upload"),
					CanDownload:   boolField(v, "can_download"),
					CanSeePreview: boolField(v, "can_see_preview"),
					CanDelete:     boolField(v, "can_delete"),
				},
			}

		default:
			return nil, fmt.Errorf("users: %s has an unsupported entry type %T", username, value)
		}
	}

	return &CredentialStore{users: users}, nil
}

// Lookup returns the credential for a username.
func (s *CredentialStore) Lookup(username string) (Credential, bool) {
	cred, ok := s.users[username]
	return cred, ok
}

// Len returns the number of configured users.
func (s *CredentialStore) Len() int {
	return len(s.users)
}

func boolField(m map[string]interface{}, key string) bool {
	b, _ := m[key].(bool)
	return b
}
