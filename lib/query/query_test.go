package query

import "testing"

func TestNamespace(t *testing.T) {
	tests := []struct {
		name    string
		ns      Namespace
		wantErr bool
	}{
		{"complete", NewNamespace("maps", "users"), false},
		{"default type", NewDefaultNamespace("users"), false},
		{"empty type falls back to default", NewNamespace("", "users"), false},
		{"empty bucket", NewNamespace("maps", ""), true},
		{"zero value", Namespace{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ns.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	if ns := NewNamespace("", "b"); ns.BucketType != DefaultBucketType {
		t.Errorf("BucketType = %q, want %q", ns.BucketType, DefaultBucketType)
	}
	if NewNamespace("a", "b") != NewNamespace("a", "b") {
		t.Errorf("equal namespaces should compare equal")
	}
}

func TestLocation(t *testing.T) {
	ns := NewNamespace("counters", "page_views")

	if err := NewLocation(ns, "home").Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
	if err := NewLocation(ns, "").Validate(); err == nil {
		t.Errorf("Validate() should fail for an empty key")
	}
	if err := NewLocation(Namespace{}, "home").Validate(); err == nil {
		t.Errorf("Validate() should fail for an empty namespace")
	}
	if !(Location{}).IsZero() {
		t.Errorf("zero Location should report IsZero()")
	}
}
