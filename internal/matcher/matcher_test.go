package matcher

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/desertthunder/scsync/internal/models"
	"github.com/desertthunder/scsync/internal/shared"
)

func TestTokenize(t *testing.T) {
	tt := []struct {
		name  string
		input string
		want  []string
	}{
		{name: "empty", input: "", want: []string{}},
		{name: "only separators", input: " - (!) ", want: []string{}},
		{name: "punctuation splits", input: "daft punk ft. someone", want: []string{"daft", "ft", "punk", "someone"}},
		{name: "parentheses", input: "one more time (edit)", want: []string{"edit", "more", "one", "time"}},
		{name: "duplicates collapse", input: "Time time TIME", want: []string{"time"}},
		{name: "digits kept", input: "Blink-182", want: []string{"182", "blink"}},
		{name: "unicode letters", input: "Sigur Rós", want: []string{"rós", "sigur"}},
		{name: "decomposed accent composes", input: "Beyonce\u0301 - Halo", want: []string{"beyoncé", "halo"}},
		{name: "full case folding", input: "STRASSE Straße", want: []string{"strasse"}},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			got := Tokenize(tc.input).Sorted()
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("Tokenize(%q) = %v, want %v", tc.input, got, tc.want)
			}
		})
	}

	t.Run("case insensitive", func(t *testing.T) {
		inputs := []string{"Harder, Better, Faster, Stronger", "Straße Nummer 1", "Sigur Rós"}
		for _, in := range inputs {
			base := Tokenize(in)
			if !reflect.DeepEqual(base, Tokenize(strings.ToUpper(in))) {
				t.Errorf("upper-case tokens differ for %q", in)
			}
			if !reflect.DeepEqual(base, Tokenize(strings.ToLower(in))) {
				t.Errorf("lower-case tokens differ for %q", in)
			}
		}
	})
}

func TestSimilarityKey(t *testing.T) {
	tests := []struct {
		name          string
		artist, title string
		want          string
	}{
		{name: "separators collapse", artist: " Daft  Punk ", title: "One-More Time", want: "daft punk one more time"},
		{name: "full case folding", artist: "STRASSE", title: "Straße", want: "strasse strasse"},
		{name: "decomposed accent composes", artist: "Beyonce\u0301", title: "Halo", want: "beyoncé halo"},
		{name: "blank", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := similarityKey(tt.artist, tt.title); got != tt.want {
				t.Errorf("similarityKey(%q, %q) = %q, want %q", tt.artist, tt.title, got, tt.want)
			}
		})
	}
}

func TestTokenSet(t *testing.T) {
	a := Tokenize("one more time")
	b := Tokenize("time after time")

	if !a.Intersects(b) || !b.Intersects(a) {
		t.Error("expected sets sharing 'time' to intersect")
	}
	if a.Intersects(Tokenize("harder better")) {
		t.Error("expected disjoint sets not to intersect")
	}
	if a.Intersects(Tokenize("")) || Tokenize("").Intersects(Tokenize("")) {
		t.Error("empty sets must never intersect")
	}
	if !a.Contains("more") || a.Contains("MORE") {
		t.Error("Contains should look up folded tokens only")
	}
}

func TestFindMatch(t *testing.T) {
	t.Run("strict AND semantics", func(t *testing.T) {
		remote := models.RemoteTrack{Artist: "Daft Punk", Title: "One More Time", URL: "https://soundcloud.com/dp/omt"}
		catalog := []models.LocalTrack{{Artist: "Daft Punk", Title: "Harder Better Faster", FilePath: "/m/hbf.mp3"}}

		res := FindMatch(remote, catalog)
		if res.Kind != models.MatchNone || res.Local != nil {
			t.Errorf("expected NONE with nil local, got %s %+v", res.Kind, res.Local)
		}
	})

	t.Run("overlap sufficiency", func(t *testing.T) {
		remote := models.RemoteTrack{Artist: "Daft Punk", Title: "One More Time", URL: "https://soundcloud.com/dp/omt"}
		catalog := []models.LocalTrack{{Artist: "daft punk ft. someone", Title: "one more time (edit)", FilePath: "/m/omt.mp3"}}

		res := FindMatch(remote, catalog)
		if res.Kind != models.MatchTokenOverlap {
			t.Fatalf("expected TOKEN_OVERLAP, got %s", res.Kind)
		}
		if res.Local == nil || res.Local.FilePath != "/m/omt.mp3" {
			t.Errorf("unexpected local %+v", res.Local)
		}
	})

	t.Run("decomposed and precomposed accents overlap", func(t *testing.T) {
		remote := models.RemoteTrack{Artist: "Beyonce\u0301", Title: "Halo", URL: "https://soundcloud.com/b/halo"}
		catalog := []models.LocalTrack{{Artist: "Beyoncé", Title: "Halo", FilePath: "/m/halo.mp3"}}

		if res := FindMatch(remote, catalog); res.Kind != models.MatchTokenOverlap {
			t.Errorf("expected TOKEN_OVERLAP, got %s", res.Kind)
		}
	})

	t.Run("URL fallback with empty tags", func(t *testing.T) {
		remote := models.RemoteTrack{URL: "https://soundcloud.com/x/track-1"}
		catalog := []models.LocalTrack{{Comment: "source: https://soundcloud.com/x/track-1", FilePath: "/m/t1.mp3"}}

		res := FindMatch(remote, catalog)
		if res.Kind != models.MatchURLFallback {
			t.Errorf("expected URL_FALLBACK, got %s", res.Kind)
		}
	})

	t.Run("URL fallback takes precedence over earlier token match", func(t *testing.T) {
		remote := models.RemoteTrack{Artist: "Daft Punk", Title: "Aerodynamic", URL: "https://soundcloud.com/dp/aero"}
		catalog := []models.LocalTrack{
			{Artist: "Daft Punk", Title: "Aerodynamic", FilePath: "/m/a.mp3"},
			{Artist: "", Title: "", Comment: "https://soundcloud.com/dp/aero", FilePath: "/m/b.mp3"},
		}

		res := FindMatch(remote, catalog)
		if res.Kind != models.MatchURLFallback || res.Local.FilePath != "/m/b.mp3" {
			t.Errorf("expected URL_FALLBACK on /m/b.mp3, got %s %+v", res.Kind, res.Local)
		}
	})

	t.Run("URL match is case sensitive", func(t *testing.T) {
		remote := models.RemoteTrack{URL: "https://soundcloud.com/X/Track"}
		catalog := []models.LocalTrack{{Comment: "https://soundcloud.com/x/track", FilePath: "/m/a.mp3"}}

		if res := FindMatch(remote, catalog); res.Kind != models.MatchNone {
			t.Errorf("expected NONE, got %s", res.Kind)
		}
	})

	t.Run("empty remote artist cannot token match", func(t *testing.T) {
		remote := models.RemoteTrack{Artist: "", Title: "One More Time", URL: "u1"}
		catalog := []models.LocalTrack{{Artist: "", Title: "One More Time", FilePath: "/m/a.mp3"}}

		if res := FindMatch(remote, catalog); res.Kind != models.MatchNone {
			t.Errorf("expected NONE, got %s", res.Kind)
		}
	})

	t.Run("empty remote title cannot token match", func(t *testing.T) {
		remote := models.RemoteTrack{Artist: "Daft Punk", Title: "", URL: "u1"}
		catalog := []models.LocalTrack{{Artist: "Daft Punk", Title: "Daft Punk", FilePath: "/m/a.mp3"}}

		if res := FindMatch(remote, catalog); res.Kind != models.MatchNone {
			t.Errorf("expected NONE, got %s", res.Kind)
		}
	})

	t.Run("empty remote URL never matches a blank comment", func(t *testing.T) {
		remote := models.RemoteTrack{Title: "x"}
		catalog := []models.LocalTrack{{FilePath: "/m/a.mp3"}}

		if res := FindMatch(remote, catalog); res.Kind != models.MatchNone {
			t.Errorf("expected NONE, got %s", res.Kind)
		}
	})

	t.Run("empty catalog", func(t *testing.T) {
		remote := models.RemoteTrack{Artist: "a", Title: "b", URL: "u"}
		if res := FindMatch(remote, nil); res.Kind != models.MatchNone {
			t.Errorf("expected NONE, got %s", res.Kind)
		}
	})

	t.Run("first catalog entry wins", func(t *testing.T) {
		remote := models.RemoteTrack{Artist: "Daft Punk", Title: "One More Time", URL: "u"}
		catalog := []models.LocalTrack{
			{Artist: "Daft Punk", Title: "One More Time", FilePath: "/m/first.mp3"},
			{Artist: "Daft Punk", Title: "One More Time", FilePath: "/m/second.mp3"},
		}

		res := FindMatch(remote, catalog)
		if res.Local == nil || res.Local.FilePath != "/m/first.mp3" {
			t.Errorf("expected first entry, got %+v", res.Local)
		}
	})

	t.Run("artist token matching a title token is not enough", func(t *testing.T) {
		remote := models.RemoteTrack{Artist: "Time", Title: "Punk", URL: "u"}
		catalog := []models.LocalTrack{{Artist: "Punk", Title: "Time", FilePath: "/m/a.mp3"}}

		if res := FindMatch(remote, catalog); res.Kind != models.MatchNone {
			t.Errorf("expected NONE, got %s", res.Kind)
		}
	})
}

func TestIndex(t *testing.T) {
	catalog := []models.LocalTrack{
		{Artist: "Justice", Title: "Genesis", FilePath: "/m/genesis.mp3"},
		{Artist: "", Title: "", Comment: "dl from https://soundcloud.com/j/phantom", FilePath: "/m/phantom.mp3"},
	}
	ix := NewIndex(catalog)

	if ix.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", ix.Len())
	}

	remotes := []models.RemoteTrack{
		{Artist: "JUSTICE", Title: "genesis", URL: "https://soundcloud.com/j/genesis"},
		{Artist: "Justice", Title: "Phantom", URL: "https://soundcloud.com/j/phantom"},
		{Artist: "Justice", Title: "Stress", URL: "https://soundcloud.com/j/stress"},
	}
	for _, r := range remotes {
		if got, want := ix.FindMatch(r), FindMatch(r, catalog); !reflect.DeepEqual(got, want) {
			t.Errorf("index and direct match differ for %s: %+v vs %+v", r.Display(), got, want)
		}
	}

	res := ix.FindMatch(remotes[0])
	res.Local.Title = "mutated"
	if again := ix.FindMatch(remotes[0]); again.Local.Title != "Genesis" {
		t.Error("mutating a result must not alter the index")
	}
}

func TestReconcile(t *testing.T) {
	catalog := []models.LocalTrack{
		{Artist: "Daft Punk", Title: "One More Time", FilePath: "/m/omt.mp3"},
		{Artist: "", Title: "", Comment: "https://soundcloud.com/x/track-1", FilePath: "/m/t1.mp3"},
		{Artist: "Justice", Title: "D.A.N.C.E. / Dance", FilePath: "/m/dance.mp3"},
	}
	remote := []models.RemoteTrack{
		{Artist: "Daft Punk", Title: "Harder Better Faster", URL: "https://soundcloud.com/dp/hbfs"},
		{Artist: "Daft Punk", Title: "One More Time", URL: "https://soundcloud.com/dp/omt"},
		{Artist: "Unknown", Title: "Mystery", URL: "https://soundcloud.com/x/track-1"},
		{Artist: "Justice", Title: "Genesis", URL: "https://soundcloud.com/j/genesis"},
		{Artist: "justice", Title: "dance", URL: "https://soundcloud.com/j/dance"},
	}

	t.Run("partition and order", func(t *testing.T) {
		rec, err := Reconcile(remote, catalog, ReconcileOpts{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(rec.Joined)+len(rec.Missing) != len(remote) {
			t.Fatalf("partition incomplete: %d joined + %d missing != %d", len(rec.Joined), len(rec.Missing), len(remote))
		}

		seen := make(map[string]int)
		for _, j := range rec.Joined {
			seen[j.Remote.URL]++
		}
		for _, m := range rec.Missing {
			seen[m.URL]++
		}
		for _, r := range remote {
			if seen[r.URL] != 1 {
				t.Errorf("url %s appears %d times", r.URL, seen[r.URL])
			}
		}

		wantJoined := []string{"https://soundcloud.com/dp/omt", "https://soundcloud.com/x/track-1", "https://soundcloud.com/j/dance"}
		var gotJoined []string
		for _, j := range rec.Joined {
			gotJoined = append(gotJoined, j.Remote.URL)
		}
		if !reflect.DeepEqual(gotJoined, wantJoined) {
			t.Errorf("joined order = %v, want %v", gotJoined, wantJoined)
		}

		wantMissing := []string{"https://soundcloud.com/dp/hbfs", "https://soundcloud.com/j/genesis"}
		var gotMissing []string
		for _, m := range rec.Missing {
			gotMissing = append(gotMissing, m.URL)
		}
		if !reflect.DeepEqual(gotMissing, wantMissing) {
			t.Errorf("missing order = %v, want %v", gotMissing, wantMissing)
		}

		if rec.Joined[1].Kind != models.MatchURLFallback {
			t.Errorf("expected URL fallback for track-1, got %s", rec.Joined[1].Kind)
		}
		for _, j := range rec.Joined {
			if j.Kind == models.MatchNone || j.Local == nil {
				t.Errorf("joined result without local: %+v", j)
			}
		}
	})

	t.Run("parallel matches sequential", func(t *testing.T) {
		big := make([]models.RemoteTrack, 0, 200)
		for i := range 200 {
			switch i % 3 {
			case 0:
				big = append(big, models.RemoteTrack{Artist: "Daft Punk", Title: "One More Time", URL: fmt.Sprintf("https://soundcloud.com/a/%d", i)})
			case 1:
				big = append(big, models.RemoteTrack{Artist: "Nobody", Title: fmt.Sprintf("Song %d", i), URL: fmt.Sprintf("https://soundcloud.com/b/%d", i)})
			default:
				big = append(big, models.RemoteTrack{Title: "x", URL: "https://soundcloud.com/x/track-1" + strings.Repeat("?", i)})
			}
		}

		seq, err := Reconcile(big, catalog, ReconcileOpts{Workers: 1})
		if err != nil {
			t.Fatalf("sequential: %v", err)
		}
		par, err := Reconcile(big, catalog, ReconcileOpts{Workers: 8})
		if err != nil {
			t.Fatalf("parallel: %v", err)
		}

		if !reflect.DeepEqual(seq, par) {
			t.Error("parallel reconciliation differs from sequential")
		}
	})

	t.Run("empty inputs", func(t *testing.T) {
		rec, err := Reconcile(nil, nil, ReconcileOpts{Workers: 4})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(rec.Joined) != 0 || len(rec.Missing) != 0 {
			t.Errorf("expected empty reconciliation, got %+v", rec)
		}
	})

	t.Run("empty catalog routes everything to missing", func(t *testing.T) {
		rec, err := Reconcile(remote, nil, ReconcileOpts{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(rec.Missing) != len(remote) {
			t.Errorf("expected all %d missing, got %d", len(remote), len(rec.Missing))
		}
	})
}

func TestReconcileMalformedInput(t *testing.T) {
	good := []models.LocalTrack{{FilePath: "/m/a.mp3"}}

	tt := []struct {
		name    string
		remote  []models.RemoteTrack
		catalog []models.LocalTrack
		index   string
	}{
		{
			name:    "remote without url",
			remote:  []models.RemoteTrack{{Title: "a", URL: "u1"}, {Title: "b"}},
			catalog: good,
			index:   "remote[1]",
		},
		{
			name:    "duplicate remote url",
			remote:  []models.RemoteTrack{{Title: "a", URL: "u1"}, {Title: "b", URL: "u1"}},
			catalog: good,
			index:   "remote[1]",
		},
		{
			name:    "local without path",
			remote:  []models.RemoteTrack{{Title: "a", URL: "u1"}},
			catalog: []models.LocalTrack{{FilePath: "/m/a.mp3"}, {Title: "orphan"}},
			index:   "local[1]",
		},
		{
			name:    "duplicate local path",
			remote:  []models.RemoteTrack{{Title: "a", URL: "u1"}},
			catalog: []models.LocalTrack{{FilePath: "/m/a.mp3"}, {FilePath: "/m/b.mp3"}, {FilePath: "/m/a.mp3"}},
			index:   "local[2]",
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			rec, err := Reconcile(tc.remote, tc.catalog, ReconcileOpts{})
			if !errors.Is(err, shared.ErrMalformedInput) {
				t.Fatalf("expected ErrMalformedInput, got %v", err)
			}
			if rec != nil {
				t.Error("expected nil reconciliation on error")
			}
			if !strings.Contains(err.Error(), tc.index) {
				t.Errorf("error %q should name %s", err, tc.index)
			}
		})
	}
}

func TestReconciliationStats(t *testing.T) {
	catalog := []models.LocalTrack{
		{Artist: "Daft Punk", Title: "One More Time", FilePath: "/m/omt.mp3"},
		{Comment: "https://soundcloud.com/x/1", FilePath: "/m/1.mp3"},
	}
	remote := []models.RemoteTrack{
		{Artist: "Daft Punk", Title: "One More Time", URL: "https://soundcloud.com/dp/omt"},
		{Artist: "Daft Punk", Title: "One More Time (Live)", URL: "https://soundcloud.com/dp/omt-live"},
		{Title: "Untitled", URL: "https://soundcloud.com/x/1"},
		{Artist: "Someone", Title: "Else", URL: "https://soundcloud.com/s/e"},
	}

	rec, err := Reconcile(remote, catalog, ReconcileOpts{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := Stats{Total: 4, Joined: 3, Missing: 1, TokenOverlap: 2, URLFallback: 1}
	if got := rec.Stats(); got != want {
		t.Errorf("Stats() = %+v, want %+v", got, want)
	}

	groups := rec.SharedLocals()
	if len(groups) != 1 {
		t.Fatalf("expected one shared local, got %+v", groups)
	}
	if groups[0].FilePath != "/m/omt.mp3" || len(groups[0].Remotes) != 2 {
		t.Errorf("unexpected shared local %+v", groups[0])
	}
	if groups[0].Remotes[0].URL != "https://soundcloud.com/dp/omt" {
		t.Errorf("shared remotes should keep input order, got %+v", groups[0].Remotes)
	}
}

func TestSuggest(t *testing.T) {
	catalog := []models.LocalTrack{
		{Artist: "Metallica", Title: "One", FilePath: "/m/one.mp3"},
		{Artist: "Daft Punk", Title: "One More Time (Radio Edit)", FilePath: "/m/omt.mp3"},
		{FilePath: "/m/untagged.mp3"},
	}

	t.Run("nearest candidate", func(t *testing.T) {
		remote := models.RemoteTrack{Artist: "Daftpunk", Title: "One More Time", URL: "u"}

		s, ok := Suggest(remote, catalog, 0.5)
		if !ok {
			t.Fatal("expected a suggestion")
		}
		if s.Local.FilePath != "/m/omt.mp3" {
			t.Errorf("expected /m/omt.mp3, got %s (score %.2f)", s.Local.FilePath, s.Score)
		}
		if s.Score <= 0 || s.Score > 1 {
			t.Errorf("score out of range: %f", s.Score)
		}
	})

	t.Run("normalization forms score as equal", func(t *testing.T) {
		local := []models.LocalTrack{{Artist: "BEYONCÉ", Title: "Halo", FilePath: "/m/halo.mp3"}}
		remote := models.RemoteTrack{Artist: "Beyonce\u0301", Title: "Halo", URL: "u"}

		s, ok := Suggest(remote, local, 0.99)
		if !ok {
			t.Fatal("expected a suggestion")
		}
		if s.Score != 1 {
			t.Errorf("expected an exact score, got %f", s.Score)
		}
	})

	t.Run("threshold filters", func(t *testing.T) {
		remote := models.RemoteTrack{Artist: "Aphex Twin", Title: "Xtal", URL: "u"}
		if _, ok := Suggest(remote, catalog, 0.99); ok {
			t.Error("expected no suggestion above 0.99")
		}
	})

	t.Run("blank remote", func(t *testing.T) {
		if _, ok := Suggest(models.RemoteTrack{URL: "u"}, catalog, 0); ok {
			t.Error("expected no suggestion for untagged remote")
		}
	})

	t.Run("SuggestMissing keeps order", func(t *testing.T) {
		missing := []models.RemoteTrack{
			{Artist: "Metalica", Title: "One", URL: "a"},
			{URL: "b"},
			{Artist: "Daft Punk", Title: "One More Time", URL: "c"},
		}

		got := SuggestMissing(missing, catalog, 0.8)
		if len(got) != 2 {
			t.Fatalf("expected 2 suggestions, got %+v", got)
		}
		if got[0].Remote.URL != "a" || got[1].Remote.URL != "c" {
			t.Errorf("unexpected order: %s, %s", got[0].Remote.URL, got[1].Remote.URL)
		}
	})
}
