package appconfig

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"pimms/internal/core/payload"
	perr "pimms/internal/platform/errors"
)

func TestResolve_KnownAndCaseInsensitive(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"tally", "TALLY", " Tally "} {
		c, ok := Resolve(name)
		if !ok || c.Name != "tally" {
			t.Fatalf("Resolve(%q) = %q,%v", name, c.Name, ok)
		}
	}
}

func TestResolve_FallsBackToDefault(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"", "unknown-app", "default", "DEFAULT"} {
		c, ok := Resolve(name)
		if ok {
			t.Fatalf("Resolve(%q) should report fallback", name)
		}
		if c.Name != DefaultName || len(c.TokenFields) == 0 {
			t.Fatalf("Resolve(%q) returned %+v", name, c)
		}
	}
}

func TestBuiltin_EveryEntryHasTokenFields(t *testing.T) {
	t.Parallel()

	for name, c := range Builtin() {
		if len(c.TokenFields) == 0 {
			t.Fatalf("%s has no token fields", name)
		}
		if c.Name != name {
			t.Fatalf("%s carries name %q", name, c.Name)
		}
		if c.AmountUnit == "" {
			t.Fatalf("%s has no amount unit", name)
		}
	}
	if Builtin()["make"].Name != "make" {
		t.Fatalf("alias entries must carry their own name")
	}
}

func TestBuiltin_TokenLookupAgainstSamples(t *testing.T) {
	t.Parallel()

	samples := map[string]string{
		"tally":    `{"eventType":"FORM_RESPONSE","data":{"fields":[{"key":"q1","label":"pimms_id","value":"tok"}]}}`,
		"typeform": `{"event_type":"form_response","form_response":{"hidden":{"pimms_id":"tok"}}}`,
		"webflow":  `{"triggerType":"form_submission","payload":{"data":{"pimms_id":"tok","Email":"a@b.co"}}}`,
		"default":  `{"custom_fields":{"pimms_id":"tok"}}`,
	}
	for app, body := range samples {
		c, _ := Resolve(app)
		p, err := payload.Parse([]byte(body), "application/json", c.Format)
		if err != nil {
			t.Fatalf("%s: parse: %v", app, err)
		}
		if v, _, ok := p.First(c.TokenFields); !ok || v != "tok" {
			t.Fatalf("%s: token=%q ok=%v keys=%v", app, v, ok, p.Keys())
		}
	}
}

func TestOverlay_MergesAndAdds(t *testing.T) {
	t.Parallel()

	y := `
apps:
  Tally:
    signature_header: X-Custom-Sig
  mycrm:
    format: form
    token_fields: [lead.pimms_id]
    amount_unit: major
`
	tbl, err := Overlay(Builtin(), strings.NewReader(y))
	if err != nil {
		t.Fatalf("Overlay: %v", err)
	}

	tally, _ := tbl.Resolve("tally")
	if tally.SignatureHeader != "X-Custom-Sig" {
		t.Fatalf("header not overridden: %q", tally.SignatureHeader)
	}
	if len(tally.TokenFields) == 0 || tally.TokenFields[0] != "data.fields.pimms_id" {
		t.Fatalf("unset fields should keep built-in values: %v", tally.TokenFields)
	}

	crm, ok := tbl.Resolve("mycrm")
	if !ok || crm.Format != payload.FormatForm || crm.AmountUnit != UnitMajor {
		t.Fatalf("mycrm = %+v ok=%v", crm, ok)
	}
	if len(crm.EmailFields) == 0 {
		t.Fatalf("new app should inherit default email fields")
	}

	if _, ok := Builtin()["mycrm"]; ok {
		t.Fatalf("overlay must not mutate the built-in table")
	}
}

func TestOverlay_RejectsUnknownKeysAndValues(t *testing.T) {
	t.Parallel()

	bad := []string{
		"apps:\n  x:\n    tokn_fields: [a]\n",
		"apps:\n  x:\n    format: xml\n",
		"apps:\n  x:\n    amount_unit: dozens\n",
	}
	for _, y := range bad {
		if _, err := Overlay(Builtin(), strings.NewReader(y)); !perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
			t.Fatalf("overlay %q: want invalid argument, got %v", y, err)
		}
	}
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	tbl, err := LoadFile("")
	if err != nil || len(tbl) != len(Builtin()) {
		t.Fatalf("empty path should return builtins, err=%v", err)
	}

	path := filepath.Join(t.TempDir(), "apps.yaml")
	if err := os.WriteFile(path, []byte("apps:\n  acme:\n    token_fields: [ref]\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	tbl, err = LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if c, ok := tbl.Resolve("acme"); !ok || c.TokenFields[0] != "ref" {
		t.Fatalf("acme = %+v", c)
	}

	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("missing file should error")
	}
}
