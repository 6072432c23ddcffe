package cloudinit

import (
	"bytes"
	"io"
	"testing"

	"github.com/kdomanski/iso9660"
)

func TestGenerateISO(t *testing.T) {
	t.Run("nil seed", func(t *testing.T) {
		if _, err := GenerateISO(nil); err == nil {
			t.Error("Expected error for nil seed")
		}
	})

	t.Run("invalid seed", func(t *testing.T) {
		s := testSeed()
		s.Hostname = ""
		if _, err := GenerateISO(s); err == nil {
			t.Error("Expected error for seed without hostname")
		}
	})

	seed := testSeed()
	isoBytes, err := GenerateISO(seed)
	if err != nil {
		t.Fatalf("GenerateISO() error = %v", err)
	}
	if len(isoBytes) == 0 {
		t.Fatal("GenerateISO() returned empty byte slice")
	}

	img, err := iso9660.OpenImage(bytes.NewReader(isoBytes))
	if err != nil {
		t.Fatalf("failed to open ISO image: %v", err)
	}

	label, err := img.Label()
	if err != nil {
		t.Fatalf("failed to get volume label: %v", err)
	}
	if label != VolumeLabel {
		t.Errorf("volume label = %q, want %q", label, VolumeLabel)
	}

	rootDir, err := img.RootDir()
	if err != nil {
		t.Fatalf("failed to get root directory: %v", err)
	}
	children, err := rootDir.GetChildren()
	if err != nil {
		t.Fatalf("failed to get children: %v", err)
	}
	if len(children) != 3 {
		t.Errorf("ISO contains %d files, want 3", len(children))
	}

	generators := map[string]func(*Seed) (string, error){
		"user-data":      GenerateUserData,
		"meta-data":      GenerateMetaData,
		"network-config": GenerateNetworkConfig,
	}
	for _, child := range children {
		gen, ok := generators[child.Name()]
		if !ok {
			t.Errorf("unexpected file in ISO: %q", child.Name())
			continue
		}
		delete(generators, child.Name())

		content, err := io.ReadAll(child.Reader())
		if err != nil {
			t.Errorf("failed to read %s: %v", child.Name(), err)
			continue
		}
		want, err := gen(seed)
		if err != nil {
			t.Fatalf("failed to generate %s: %v", child.Name(), err)
		}
		if string(content) != want {
			t.Errorf("%s content mismatch:\ngot:\n%s\n\nwant:\n%s", child.Name(), content, want)
		}
	}
	for name := range generators {
		t.Errorf("required file %q not found in ISO", name)
	}
}
