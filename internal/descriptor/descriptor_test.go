package descriptor

import (
	"errors"
	"strings"
	"testing"
)

const sampleXML = `<?xml version="1.0"?>
<BioBeamerHosts>
  <host name="alpha" version="v1.0.0"/>
  <host name="beta" version="main" branch="true"/>
  <group>
    <host name="nested" version="v2.1.0"/>
  </group>
</BioBeamerHosts>`

func TestSelectHost_DirectChild(t *testing.T) {
	h, err := SelectHost(strings.NewReader(sampleXML), "alpha")
	if err != nil {
		t.Fatalf("SelectHost returned error: %v", err)
	}
	if h.Name != "alpha" || h.Version != "v1.0.0" || h.IsBranch {
		t.Errorf("unexpected host: %+v", h)
	}
}

func TestSelectHost_BranchAttribute(t *testing.T) {
	h, err := SelectHost(strings.NewReader(sampleXML), "beta")
	if err != nil {
		t.Fatalf("SelectHost returned error: %v", err)
	}
	if !h.IsBranch {
		t.Error("IsBranch = false, want true")
	}
	if h.Version != "main" {
		t.Errorf("Version = %q", h.Version)
	}
}

func TestSelectHost_Nested(t *testing.T) {
	h, err := SelectHost(strings.NewReader(sampleXML), "nested")
	if err != nil {
		t.Fatalf("SelectHost returned error: %v", err)
	}
	if h.Version != "v2.1.0" {
		t.Errorf("Version = %q", h.Version)
	}
}

func TestSelectHost_DirectChildWinsOverNested(t *testing.T) {
	xml := `<hosts>
  <host name="dup" version="direct"/>
  <group><host name="dup" version="nested"/></group>
</hosts>`
	h, err := SelectHost(strings.NewReader(xml), "dup")
	if err != nil {
		t.Fatalf("SelectHost returned error: %v", err)
	}
	if h.Version != "direct" {
		t.Errorf("Version = %q, want the direct child's entry", h.Version)
	}
}

func TestSelectHost_NotFound(t *testing.T) {
	_, err := SelectHost(strings.NewReader(sampleXML), "missing")
	if !errors.Is(err, ErrHostNotConfigured) {
		t.Fatalf("err = %v, want ErrHostNotConfigured", err)
	}
	// The message lists the available hosts so a typo in host_name is
	// obvious from the error alone.
	for _, name := range []string{"alpha", "beta", "nested"} {
		if !strings.Contains(err.Error(), name) {
			t.Errorf("error %q does not list host %q", err, name)
		}
	}
}

func TestSelectHost_MissingVersionAttribute(t *testing.T) {
	xml := `<hosts><host name="noversion"/></hosts>`
	_, err := SelectHost(strings.NewReader(xml), "noversion")
	if err == nil {
		t.Fatal("expected error for entry without version attribute")
	}
	if errors.Is(err, ErrHostNotConfigured) {
		t.Fatalf("err = %v; a present entry without version is not a missing host", err)
	}
}

func TestSelectHost_MalformedXML(t *testing.T) {
	_, err := SelectHost(strings.NewReader("<hosts><host"), "x")
	if err == nil {
		t.Fatal("expected parse error")
	}
}
