package rotation

import (
	"errors"
	"testing"

	"rotabot/internal/week"
)

func wk(t *testing.T, s string) week.ID {
	t.Helper()
	w, err := week.Parse(s)
	if err != nil {
		t.Fatalf("bad test week %q: %v", s, err)
	}
	return w
}

func baseDoc(t *testing.T) *Document {
	t.Helper()
	return &Document{
		Roster:     []string{"Ana", "Bruno", "Carla"},
		AnchorWeek: wk(t, "2025-W31"),
	}
}

func TestResolveRotationCycles(t *testing.T) {
	t.Parallel()
	doc := baseDoc(t)
	want := []string{"Ana", "Bruno", "Carla", "Ana", "Bruno", "Carla"}
	for i, name := range want {
		w := week.ID{Year: 2025, Week: 31 + i}
		a, err := Resolve(doc, w)
		if err != nil {
			t.Fatalf("Resolve(%s) error: %v", w, err)
		}
		if a.Member != name {
			t.Fatalf("Resolve(%s).Member = %q, want %q", w, a.Member, name)
		}
	}
}

func TestResolveDeterministic(t *testing.T) {
	t.Parallel()
	doc := baseDoc(t)
	doc.Vacations = map[string][]week.ID{"Bruno": {wk(t, "2025-W32")}}
	w := wk(t, "2025-W32")

	first, err := Resolve(doc, w)
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := Resolve(doc, w)
		if err != nil {
			t.Fatalf("Resolve error on repeat: %v", err)
		}
		if again != first {
			t.Fatalf("Resolve not deterministic: %+v vs %+v", again, first)
		}
	}
}

func TestResolveOverridePrecedence(t *testing.T) {
	t.Parallel()
	doc := baseDoc(t)
	doc.Overrides = map[week.ID]string{wk(t, "2025-W32"): "Carla"}

	a, err := Resolve(doc, wk(t, "2025-W32"))
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if a.Member != "Carla" {
		t.Fatalf("override ignored: got %q, want Carla", a.Member)
	}
}

func TestResolveOverrideNamesOutsider(t *testing.T) {
	t.Parallel()
	doc := baseDoc(t)
	doc.Overrides = map[week.ID]string{wk(t, "2025-W33"): "Visitante"}

	a, err := Resolve(doc, wk(t, "2025-W33"))
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if a.Member != "Visitante" {
		t.Fatalf("got %q, want verbatim override Visitante", a.Member)
	}
}

func TestResolveVacationBeatsOverride(t *testing.T) {
	t.Parallel()
	doc := baseDoc(t)
	doc.Vacations = map[string][]week.ID{"Ana": {wk(t, "2025-W31")}}
	doc.Overrides = map[week.ID]string{wk(t, "2025-W31"): "Ana"}

	a, err := Resolve(doc, wk(t, "2025-W31"))
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if a.Member != "Bruno" {
		t.Fatalf("got %q, want Bruno (next available covers, override loses)", a.Member)
	}
}

func TestResolveVacationCascade(t *testing.T) {
	t.Parallel()
	doc := baseDoc(t)
	w := wk(t, "2025-W31")
	doc.Vacations = map[string][]week.ID{
		"Ana":   {w},
		"Bruno": {w},
	}

	a, err := Resolve(doc, w)
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if a.Member != "Carla" {
		t.Fatalf("got %q, want Carla (skips Bruno, also out)", a.Member)
	}
}

func TestResolveVacationWraps(t *testing.T) {
	t.Parallel()
	doc := baseDoc(t)
	w := wk(t, "2025-W31")
	// Carla's slot would cover, but she's out; coverage wraps past the
	// end of the roster back to Bruno.
	doc.Vacations = map[string][]week.ID{
		"Carla": {w},
	}
	doc.Overrides = map[week.ID]string{w: "Carla"}

	a, err := Resolve(doc, w)
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if a.Member != "Ana" {
		t.Fatalf("got %q, want Ana (next after Carla, wrapping)", a.Member)
	}
}

func TestResolveNoCoverage(t *testing.T) {
	t.Parallel()
	doc := baseDoc(t)
	w := wk(t, "2025-W31")
	doc.Vacations = map[string][]week.ID{
		"Ana":   {w},
		"Bruno": {w},
		"Carla": {w},
	}

	_, err := Resolve(doc, w)
	if !errors.Is(err, ErrNoCoverage) {
		t.Fatalf("err = %v, want ErrNoCoverage", err)
	}
}

func TestResolveEmptyRoster(t *testing.T) {
	t.Parallel()
	doc := &Document{AnchorWeek: week.ID{Year: 2025, Week: 31}}
	_, err := Resolve(doc, week.ID{Year: 2025, Week: 31})
	if !errors.Is(err, ErrEmptyRoster) {
		t.Fatalf("err = %v, want ErrEmptyRoster", err)
	}
}

func TestResolveBeforeAnchorWraps(t *testing.T) {
	t.Parallel()
	doc := baseDoc(t)
	// One week before the anchor: offset -1 with len 3 maps to index 2.
	a, err := Resolve(doc, wk(t, "2025-W30"))
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if a.Member != "Carla" {
		t.Fatalf("got %q, want Carla (index 2 via non-negative modulo)", a.Member)
	}

	// Much earlier, across a year boundary.
	a, err = Resolve(doc, wk(t, "2024-W52"))
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if a.Member == "" {
		t.Fatal("expected a roster member for a pre-anchor week")
	}
}

func TestResolveSpecialMessageIndependence(t *testing.T) {
	t.Parallel()
	w := wk(t, "2025-W31")
	tpl := "Semana {week}: le toca a {name}!"

	cases := []struct {
		name string
		doc  func(t *testing.T) *Document
		want string
	}{
		{
			name: "via rotation",
			doc:  func(t *testing.T) *Document { return baseDoc(t) },
			want: "Ana",
		},
		{
			name: "via override",
			doc: func(t *testing.T) *Document {
				d := baseDoc(t)
				d.Overrides = map[week.ID]string{w: "Carla"}
				return d
			},
			want: "Carla",
		},
		{
			name: "via vacation coverage",
			doc: func(t *testing.T) *Document {
				d := baseDoc(t)
				d.Vacations = map[string][]week.ID{"Ana": {w}}
				return d
			},
			want: "Bruno",
		},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			doc := tc.doc(t)
			doc.SpecialMessages = map[week.ID]string{w: tpl}
			a, err := Resolve(doc, w)
			if err != nil {
				t.Fatalf("Resolve error: %v", err)
			}
			if a.Member != tc.want {
				t.Fatalf("Member = %q, want %q", a.Member, tc.want)
			}
			if a.MessageTemplate != tpl {
				t.Fatalf("MessageTemplate = %q, want the special message", a.MessageTemplate)
			}
		})
	}
}

func TestResolveDoesNotMutateDocument(t *testing.T) {
	t.Parallel()
	doc := baseDoc(t)
	doc.Vacations = map[string][]week.ID{"Ana": {wk(t, "2025-W31")}}
	doc.Overrides = map[week.ID]string{wk(t, "2025-W40"): "Bruno"}

	if _, err := Resolve(doc, wk(t, "2025-W31")); err != nil {
		t.Fatalf("Resolve error: %v", err)
	}

	if len(doc.Roster) != 3 || len(doc.Vacations["Ana"]) != 1 || len(doc.Overrides) != 1 {
		t.Fatalf("document mutated: %+v", doc)
	}
}
