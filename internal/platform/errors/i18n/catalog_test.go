package i18n

import (
	"strings"
	"testing"
)

func TestGetCatalogFallback(t *testing.T) {
	base := GetCatalog("en-US")
	if base == nil {
		t.Fatal("expected base catalog")
	}
	fallback := GetCatalog("missing-locale")
	if fallback != base {
		t.Fatal("expected fallback to en-US catalog")
	}
}

func TestGetCatalogPortuguese(t *testing.T) {
	cat := GetCatalog("pt-BR")
	if cat.Locale() != "pt-BR" {
		t.Fatalf("locale = %q, want pt-BR", cat.Locale())
	}
	msg := cat.Format("RANGE_TARGET_OUT_OF_RANGE", map[string]string{"Target": "25", "Min": "6", "Max": "21"})
	if !strings.Contains(msg, "25") || !strings.Contains(msg, "6") {
		t.Fatalf("unexpected pt-BR message %q", msg)
	}
}

func TestFormatTargetOutOfRange(t *testing.T) {
	msg := GetCatalog("en-US").Format("RANGE_TARGET_OUT_OF_RANGE", map[string]string{
		"Field":  "target",
		"Target": "25",
		"Min":    "6",
		"Max":    "21",
	})
	want := "target 25 is impossible for this die and modifier; achievable range is 6–21"
	if msg != want {
		t.Fatalf("message = %q, want %q", msg, want)
	}
}

func TestFormatFallbacks(t *testing.T) {
	cat := NewCatalog("test", map[Code]string{
		"code": "hello {{.Name}}",
	})

	if cat.Format("unknown", nil) != "unknown" {
		t.Fatal("expected code fallback when template missing")
	}
	if cat.Format("code", nil) != "hello <no value>" {
		t.Fatal("expected template to render missing metadata")
	}
}

func TestFormatTemplateErrorFallback(t *testing.T) {
	cat := NewCatalog("test", map[Code]string{
		"code": "{{ if .Name }}",
	})
	if cat.Format("code", map[string]string{"Name": "X"}) != "{{ if .Name }}" {
		t.Fatal("expected template fallback on parse error")
	}
}

func TestRegisterCatalog(t *testing.T) {
	custom := NewCatalog("custom", map[Code]string{"code": "ok"})
	RegisterCatalog("custom", custom)
	if got := GetCatalog("custom"); got != custom {
		t.Fatal("expected registered catalog")
	}
}
