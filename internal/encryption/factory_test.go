package encryption

import (
	"testing"

	"folio/internal/config"
)

func TestNewEncryptorFromConfig(t *testing.T) {
	tests := []struct {
		name     string
		typ      string
		wantType string
		wantErr  bool
	}{
		{name: "default is age", typ: "", wantType: "age"},
		{name: "age", typ: "age", wantType: "age"},
		{name: "none", typ: "none", wantType: "plain"},
		{name: "unknown", typ: "rot13", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enc, err := NewEncryptorFromConfig(config.EncryptionConfig{Type: tt.typ})
			if tt.wantErr {
				if err == nil {
					t.Fatal("NewEncryptorFromConfig() expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewEncryptorFromConfig() error = %v", err)
			}

			var got string
			switch enc.(type) {
			case *AgeEncryptor:
				got = "age"
			case *PlainEncryptor:
				got = "plain"
			}
			if got != tt.wantType {
				t.Errorf("encryptor type = %s, want %s", got, tt.wantType)
			}
		})
	}
}
