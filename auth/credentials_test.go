package auth

import (
	"testing"
)

func TestCredentialStoreMigrationOnRead(t *testing.T) {
	store, err := NewCredentialStore(map[string]interface{}{
		"legacy": "$2a$10$somebcryptvaluehere1234567890123456789012345",
	})
	if err != nil {
		t.Fatalf("NewCredentialStore: %v", err)
	}

	cred, ok := store.Lookup("legacy")
	if !ok {
		t.Fatal("legacy user not found")
	}
	if cred.Perms != AllPermissions() {
		t.Errorf("legacy string entry must widen to all permissions, got %+v", cred.Perms)
	}
}

func TestCredentialStoreStructuredEntry(t *testing.T) {
	store, err := NewCredentialStore(map[string]interface{}{
		"bob": map[string]interface{}{
			"password_hash":   "$2a$10$somebcryptvaluehere1234567890123456789012345",
			"can_upload":      true,
			"can_download":    false,
			"can_see_preview": true,
			// can_delete omitted: reads as false
		},
	})
	if err != nil {
		t.Fatalf("NewCredentialStore: %v", err)
	}

	cred, _ := store.Lookup("bob")
	want := PermissionSet{CanUpload: true, CanSeePreview: true}
	if cred.Perms != want {
		t.Errorf("perms = %+v, want %+v", cred.Perms, want)
	}
}

func TestCredentialStoreRejectsBadEntries(t *testing.T) {
	cases := []struct {
		name string
		raw  map[string]interface{}
	}{
		{"empty hash string", map[string]interface{}{"u": ""}},
		{"missing password_hash", map[string]interface{}{"u": map[string]interface{}{"can_upload": true}}},
		{"wrong type", map[string]interface{}{"u": 42}},
		{"empty username", map[string]interface{}{"": "$2a$10$x"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewCredentialStore(tc.raw); err == nil {
				t.Error("expected error, got none")
			}
		})
	}
}

func TestCredentialStoreUnknownUser(t *testing.T) {
	store, err := NewCredentialStore(map[string]interface{}{})
	if err != nil {
		t.Fatalf("NewCredentialStore: %v", err)
	}
	if _, ok := store.Lookup("ghost"); ok {
		t.Error("unknown user must not resolve")
	}
	if store.Len() != 0 {
		t.Errorf("Len = %d, want 0", store.Len())
	}
}
