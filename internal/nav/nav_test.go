package nav

import (
	"net/url"
	"testing"
)

func TestBuildActive(t *testing.T) {
	items := Build("/pages/about")
	if items[0].Active {
		t.Fatalf("home should not be active on /pages/about")
	}
	if !items[1].Active {
		t.Fatalf("about should be active")
	}
	if !Build("")[0].Active {
		t.Fatalf("empty path means home")
	}
}

func TestLanguageSwitcherKeepsQuery(t *testing.T) {
	u, _ := url.Parse("https://family.example.ch/profile?person=stefan&lang=de")
	opts := LanguageSwitcher(u, []string{"de", "en", "th"}, "de")
	if len(opts) != 3 {
		t.Fatalf("expected 3 options, got %d", len(opts))
	}
	if !opts[0].Active || opts[1].Active {
		t.Fatalf("unexpected active flags %+v", opts)
	}
	if got := opts[2].Href; got != "/profile?lang=th&person=stefan" {
		t.Fatalf("unexpected href %q", got)
	}
	if opts[2].Label != "ไทย" {
		t.Fatalf("unexpected label %q", opts[2].Label)
	}
}

func TestBreadcrumbs(t *testing.T) {
	crumbs := Breadcrumbs("/p/stefan", "Stefan Müller")
	if len(crumbs) != 2 {
		t.Fatalf("expected 2 crumbs, got %d", len(crumbs))
	}
	if crumbs[0].LabelKey != "back_to_overview" || crumbs[0].Active {
		t.Fatalf("unexpected first crumb %+v", crumbs[0])
	}
	if crumbs[1].Label != "Stefan Müller" || !crumbs[1].Active {
		t.Fatalf("unexpected leaf %+v", crumbs[1])
	}
	if got := Breadcrumbs("/pages/family-recipes", "")[1].Label; got != "Family recipes" {
		t.Fatalf("unexpected prettified label %q", got)
	}
	if got := Breadcrumbs("/", ""); len(got) != 1 || !got[0].Active {
		t.Fatalf("home should be a single active crumb")
	}
}
