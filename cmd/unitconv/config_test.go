package main

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"unitconv"

	"golang.org/x/text/language"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name    string
		content string
		want    Config
		wantErr bool
	}{
		{
			"empty uses defaults",
			"",
			DefaultConfig(),
			false,
		},
		{
			"overrides",
			"db: /tmp/h.db\nlisten: 0.0.0.0:9000\nnetwork: tcp\nlocale: de\ncatalogs: [extra.yaml, /abs/other.yaml]\n",
			Config{
				DB:        "/tmp/h.db",
				Listen:    "0.0.0.0:9000",
				Network:   "tcp",
				Precision: 4,
				Locale:    "de",
				Catalogs:  []string{filepath.Join(dir, "extra.yaml"), "/abs/other.yaml"},
			},
			false,
		},
		{
			"precision",
			"precision: 2\n",
			Config{Listen: "127.0.0.1:2001", Network: "udp", Precision: 2, Locale: "en"},
			false,
		},
		{
			"zero precision",
			"precision: 0\n",
			Config{Listen: "127.0.0.1:2001", Network: "udp", Precision: 0, Locale: "en"},
			false,
		},
		{"precision too large", "precision: 7\n", Config{}, true},
		{"negative precision", "precision: -1\n", Config{}, true},
		{"bad network", "network: quic\n", Config{}, true},
		{"bad locale", "locale: \"!!\"\n", Config{}, true},
		{"unknown key", "port: 1\n", Config{}, true},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, dir, "config"+string(rune('a'+i))+".yaml", tt.content)
			got, err := LoadConfig(path)
			if (err != nil) != tt.wantErr {
				t.Fatalf("LoadConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if got.DB != tt.want.DB || got.Listen != tt.want.Listen || got.Network != tt.want.Network ||
				got.Precision != tt.want.Precision || got.Locale != tt.want.Locale {
				t.Errorf("LoadConfig() = %+v, want %+v", got, tt.want)
			}
			if len(got.Catalogs) != len(tt.want.Catalogs) {
				t.Fatalf("Catalogs = %v, want %v", got.Catalogs, tt.want.Catalogs)
			}
			for j := range got.Catalogs {
				if got.Catalogs[j] != tt.want.Catalogs[j] {
					t.Errorf("Catalogs[%d] = %q, want %q", j, got.Catalogs[j], tt.want.Catalogs[j])
				}
			}
		})
	}
}

func TestLoadConfig_Missing(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("LoadConfig() error = nil for missing file")
	}
}

func TestConfig_Language(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Language() != language.English {
		t.Errorf("Language() = %v, want en", cfg.Language())
	}
	cfg.Locale = "!!"
	if cfg.Language() != language.English {
		t.Errorf("Language() fallback = %v, want en", cfg.Language())
	}
}

func TestConfig_Format(t *testing.T) {
	cfg := DefaultConfig()
	d := unitconv.NewDecimalFromFloat(math.Pi)
	if got := cfg.Format(d); got != "3.1416" {
		t.Errorf("Format() = %q, want 3.1416", got)
	}
	cfg.Precision = 2
	if got := cfg.Format(d); got != "3.14" {
		t.Errorf("Format() with precision 2 = %q, want 3.14", got)
	}
}

func TestConfigFlag(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "typo.yaml", "categories:\n  - name: Typography\n    base: Point\n    units: [{name: Pica, factor: 12}]\n")
	cfg := writeFile(t, dir, "unitconv.yaml", "locale: de\ncatalogs: [typo.yaml]\n")

	out, err := run(t, "--config", cfg, "convert", "Typography", "1000", "Pica", "Point")
	if err != nil {
		t.Fatalf("convert error = %v", err)
	}
	if out != "1000 Pica = 12.000 Point\n" {
		t.Errorf("output = %q", out)
	}
}

func TestConfigFlag_Precision(t *testing.T) {
	dir := t.TempDir()
	cfg := writeFile(t, dir, "unitconv.yaml", "precision: 2\n")

	out, err := run(t, "--config", cfg, "convert", "Plane Angle", "180", "Degree", "Radian")
	if err != nil {
		t.Fatalf("convert error = %v", err)
	}
	if out != "180 Degree = 3.14 Radian\n" {
		t.Errorf("output = %q", out)
	}

	out, err = run(t, "--config", cfg, "--precision", "0", "convert", "Plane Angle", "180", "Degree", "Radian")
	if err != nil {
		t.Fatalf("convert error = %v", err)
	}
	if out != "180 Degree = 3 Radian\n" {
		t.Errorf("output with --precision 0 = %q", out)
	}

	if _, err := run(t, "--precision", "5", "categories"); err == nil {
		t.Error("--precision 5 error = nil")
	}
}
