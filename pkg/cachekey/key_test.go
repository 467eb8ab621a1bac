package cachekey

import "testing"

func TestBuild(t *testing.T) {
	tests := []struct {
		name   string
		entity string
		params map[string]string
		want   string
	}{
		{"no params", "meetings", nil, "meetings"},
		{"empty params", "meetings", map[string]string{}, "meetings"},
		{"single param", "laps", map[string]string{"session_key": "9158"}, "laps?session_key=9158"},
		{"sorted keys", "meetings", map[string]string{"year": "2024", "foo": "bar"}, "meetings?foo=bar&year=2024"},
		{"numeric-ish values kept as strings", "laps", map[string]string{"driver_number": "1", "session_key": "9158"}, "laps?driver_number=1&session_key=9158"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Build(tt.entity, tt.params); got != tt.want {
				t.Errorf("Build() = %q, want %q", got, tt.want)
			}
		})
	}
}

// Identical parameter sets must produce identical keys no matter how the
// map was populated.
func TestBuildDeterminism(t *testing.T) {
	p1 := map[string]string{}
	p1["year"] = "2024"
	p1["foo"] = "bar"
	p1["meeting_key"] = "1219"

	p2 := map[string]string{}
	p2["meeting_key"] = "1219"
	p2["foo"] = "bar"
	p2["year"] = "2024"

	k1 := Build("meetings", p1)
	k2 := Build("meetings", p2)
	if k1 != k2 {
		t.Errorf("keys differ: %q vs %q", k1, k2)
	}
}
