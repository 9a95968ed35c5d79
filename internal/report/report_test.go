package report

import "testing"

func TestSetGetRoundTrip(t *testing.T) {
	var s Sections
	for _, key := range SectionOrder {
		s.Set(key, "content for "+key)
	}
	for _, key := range SectionOrder {
		if got := s.Get(key); got != "content for "+key {
			t.Errorf("Get(%q) = %q", key, got)
		}
	}
}

func TestUnknownKeyIgnored(t *testing.T) {
	var s Sections
	s.Set("bogus", "text")
	if got := s.Get("bogus"); got != "" {
		t.Errorf("Get of unknown key = %q, want empty", got)
	}
}

func TestEverySectionHasTitle(t *testing.T) {
	for _, key := range SectionOrder {
		if Titles[key] == "" {
			t.Errorf("section %q has no title", key)
		}
	}
}
