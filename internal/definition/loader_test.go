package definition

import (
	"testing"
	"testing/fstest"
)

func TestLoader_LoadFile(t *testing.T) {
	l := NewLoader()
	def, err := l.LoadFile("testdata/ops/definition.yaml")
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}

	if def.Domain != "ops" {
		t.Errorf("Domain = %q, want ops", def.Domain)
	}
	if def.Version != "2.1.0" {
		t.Errorf("Version = %q, want 2.1.0", def.Version)
	}
	if len(def.Resources) != 2 {
		t.Fatalf("Resources = %d, want 2", len(def.Resources))
	}
	fx := def.Resources[0]
	if fx.ID != "fixtures" || fx.Paging != "server" || fx.TotalPath != "meta.total" {
		t.Errorf("Resources[0] = %+v", fx)
	}
	if len(fx.Columns) != 2 || fx.Columns[1].Vocabulary != "fixture" {
		t.Errorf("Columns = %+v", fx.Columns)
	}
	if len(def.Content) != 1 || def.Content[0].ID != "about" {
		t.Errorf("Content = %+v", def.Content)
	}
	if def.Checksum == "" {
		t.Error("Checksum should not be empty")
	}
	if def.SourceFile != "testdata/ops/definition.yaml" {
		t.Errorf("SourceFile = %q", def.SourceFile)
	}
}

func TestLoader_LoadFile_not_found(t *testing.T) {
	l := NewLoader()
	_, err := l.LoadFile("testdata/nonexistent.yaml")
	if err == nil {
		t.Fatal("LoadFile() with missing file should return error")
	}
}

func TestLoader_LoadFile_invalid_yaml(t *testing.T) {
	l := NewLoader()
	_, err := l.LoadFile("testdata/invalid/bad.yaml")
	if err == nil {
		t.Fatal("LoadFile() with invalid YAML should return error")
	}
}

func TestLoader_LoadAll(t *testing.T) {
	l := NewLoader()
	defs, err := l.LoadAll([]string{"testdata/ops"})
	if err != nil {
		t.Fatalf("LoadAll() error = %v", err)
	}
	if len(defs) != 1 {
		t.Fatalf("LoadAll() returned %d definitions, want 1", len(defs))
	}
}

func TestLoader_LoadAll_propagatesParseErrors(t *testing.T) {
	l := NewLoader()
	if _, err := l.LoadAll([]string{"testdata"}); err == nil {
		t.Fatal("LoadAll() over a directory with bad YAML should fail")
	}
}

func TestLoader_LoadAll_missingDirectory(t *testing.T) {
	l := NewLoader()
	if _, err := l.LoadAll([]string{"testdata/nope"}); err == nil {
		t.Fatal("LoadAll() with missing directory should fail")
	}
}

func TestLoader_LoadFS(t *testing.T) {
	fsys := fstest.MapFS{
		"defs/a.yaml":    {Data: []byte("domain: a\nversion: \"1\"\n")},
		"defs/b.yml":     {Data: []byte("domain: b\nversion: \"1\"\n")},
		"defs/readme.md": {Data: []byte("# ignored")},
	}
	defs, err := NewLoader().LoadFS(fsys, "defs")
	if err != nil {
		t.Fatalf("LoadFS() error = %v", err)
	}
	if len(defs) != 2 {
		t.Fatalf("LoadFS() returned %d definitions, want 2", len(defs))
	}
	if defs[0].SourceFile != "defs/a.yaml" {
		t.Errorf("SourceFile = %q", defs[0].SourceFile)
	}
}

func TestLoader_LoadBuiltin(t *testing.T) {
	defs, err := NewLoader().LoadBuiltin()
	if err != nil {
		t.Fatalf("LoadBuiltin() error = %v", err)
	}
	if len(defs) != 4 {
		t.Fatalf("LoadBuiltin() returned %d definitions, want 4", len(defs))
	}
	if errs := NewValidator().Validate(defs); len(errs) > 0 {
		for _, e := range errs {
			t.Errorf("builtin definition invalid: %v", e)
		}
	}

	reg := NewRegistry(defs)
	for _, id := range []string{"fixtures", "leagues", "polls", "predictions", "leaderboard", "notifications", "referrals", "rewards", "cmds"} {
		if _, ok := reg.GetResource(id); !ok {
			t.Errorf("builtin resource %q missing", id)
		}
	}
	for _, id := range []string{"faqs", "game-rules", "app-features", "terms", "privacy"} {
		if _, ok := reg.GetContent(id); !ok {
			t.Errorf("builtin content %q missing", id)
		}
	}
}

func TestLoader_LoadBuiltin_confirmPrompts(t *testing.T) {
	defs, err := NewLoader().LoadBuiltin()
	if err != nil {
		t.Fatalf("LoadBuiltin() error = %v", err)
	}
	reg := NewRegistry(defs)

	want := map[string]map[string]string{
		"polls":         {"delete": "Delete this poll?"},
		"notifications": {"send": "Send this notification to its audience?", "delete": "Delete this notification?"},
		"rewards":       {"reject": "Reject this reward?"},
		"fixtures":      {"delete": "Delete this fixture?"},
		"leagues":       {"delete": "Delete this league?"},
	}
	for resourceID, actions := range want {
		res, ok := reg.GetResource(resourceID)
		if !ok {
			t.Errorf("resource %q missing", resourceID)
			continue
		}
		for actionID, prompt := range actions {
			var got string
			var danger bool
			for _, a := range res.Actions {
				if a.ID == actionID {
					got, danger = a.Confirm, a.Danger
				}
			}
			if got != prompt {
				t.Errorf("%s/%s confirm = %q, want %q", resourceID, actionID, got, prompt)
			}
			if actionID == "delete" && !danger {
				t.Errorf("%s/%s should be marked danger", resourceID, actionID)
			}
		}
	}
}

func TestLoader_LoadConfigured(t *testing.T) {
	l := NewLoader()

	defs, err := l.LoadConfigured(true, []string{"testdata/ops"})
	if err != nil {
		t.Fatalf("LoadConfigured() error = %v", err)
	}
	if len(defs) != 5 || defs[4].Domain != "ops" {
		t.Fatalf("LoadConfigured() = %d definitions, last should be ops", len(defs))
	}

	defs, err = l.LoadConfigured(false, nil)
	if err != nil || len(defs) != 0 {
		t.Errorf("LoadConfigured(false, nil) = %d, %v", len(defs), err)
	}
}
