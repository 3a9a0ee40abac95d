package rules

import "strings"

// Exclude drops Drop whenever If is present.
type Exclude struct {
	If   string
	Drop string
}

func (r Exclude) Name() string { return "exclude:" + r.If + ">" + r.Drop }

func (r Exclude) Stage() Stage { return StageExclusion }

func (r Exclude) Evaluate(s Set) Verdict {
	if s.Has(r.If) && s.Has(r.Drop) {
		return Verdict{Remove: []string{r.Drop}}
	}
	return Verdict{}
}

// DerivedSkin adds the generic skin tag once when a color_<X> tag co-occurs
// with <X>_skin. The first qualifying color tag in list order wins.
type DerivedSkin struct {
	ColorPrefix string
	SkinSuffix  string
	Skin        string
}

func (r DerivedSkin) Name() string { return "derived:" + r.Skin }

func (r DerivedSkin) Stage() Stage { return StageDerived }

func (r DerivedSkin) Evaluate(s Set) Verdict {
	if s.Has(r.Skin) {
		return Verdict{}
	}
	for _, tag := range s.Tags() {
		base, ok := strings.CutPrefix(tag, r.ColorPrefix)
		if !ok || base == "" {
			continue
		}
		if s.Has(base + r.SkinSuffix) {
			return Verdict{Add: []string{r.Skin}}
		}
	}
	return Verdict{}
}

// RequireAll warns when Tag is present without every one of Expected.
type RequireAll struct {
	Label    string
	Tag      string
	Expected []string
}

func (r RequireAll) Name() string { return r.Label }

func (r RequireAll) Stage() Stage { return StageAdvisory }

func (r RequireAll) Evaluate(s Set) Verdict {
	if !s.Has(r.Tag) {
		return Verdict{}
	}
	missing := s.Missing(r.Expected)
	if len(missing) == 0 {
		return Verdict{}
	}
	return Verdict{Warnings: []Warning{{
		Rule:    r.Label,
		Message: r.Tag + " without expected parts",
		Tags:    missing,
	}}}
}

// RequireAny warns when Tag is present but none of Options is.
type RequireAny struct {
	Label   string
	Tag     string
	Options []string
}

func (r RequireAny) Name() string { return r.Label }

func (r RequireAny) Stage() Stage { return StageAdvisory }

func (r RequireAny) Evaluate(s Set) Verdict {
	if !s.Has(r.Tag) || len(s.Present(r.Options)) > 0 {
		return Verdict{}
	}
	return Verdict{Warnings: []Warning{{
		Rule:    r.Label,
		Message: r.Tag + " without any of",
		Tags:    r.Options,
	}}}
}

// Conflict warns when Tag co-occurs with any of With.
type Conflict struct {
	Label string
	Tag   string
	With  []string
}

func (r Conflict) Name() string { return r.Label }

func (r Conflict) Stage() Stage { return StageAdvisory }

func (r Conflict) Evaluate(s Set) Verdict {
	if !s.Has(r.Tag) {
		return Verdict{}
	}
	present := s.Present(r.With)
	if len(present) == 0 {
		return Verdict{}
	}
	return Verdict{Warnings: []Warning{{
		Rule:    r.Label,
		Message: r.Tag + " conflicts with",
		Tags:    present,
	}}}
}

// Default returns the built-in rule battery.
func Default() []Rule {
	return []Rule{
		Exclude{If: "no_humans", Drop: "solo"},
		Exclude{If: "head_out_of_frame", Drop: "solo"},
		DerivedSkin{ColorPrefix: "color_", SkinSuffix: "_skin", Skin: "skin"},
		RequireAll{Label: "composite", Tag: "school_uniform", Expected: []string{"shirt", "skirt"}},
		Conflict{Label: "presence", Tag: "no_humans", With: []string{"smile", "open_mouth", "colored_tongue", "earrings", "jewelry"}},
		Conflict{Label: "compound", Tag: "black_jacket", With: []string{"jacket"}},
		Conflict{Label: "hierarchy", Tag: "school_uniform", With: []string{"skirt"}},
		RequireAny{Label: "subcomponents", Tag: "school_uniform", Options: []string{"blazer", "ribbon", "tie"}},
		Conflict{Label: "entangled", Tag: "no_humans", With: []string{"cleavage", "profanity"}},
	}
}
