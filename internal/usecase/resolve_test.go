package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/mkrogh/ttsync/internal/domain/alias"
	"github.com/mkrogh/ttsync/internal/domain/record"
)

func fixedLookups(byExternal map[string]candidate, byKey map[string][]candidate) lookups {
	return lookups{
		byExternalID: func(_ context.Context, externalID string) (*candidate, error) {
			if c, ok := byExternal[externalID]; ok {
				return &c, nil
			}
			return nil, nil
		},
		byNameKey: func(_ context.Context, nameKey string) ([]candidate, error) {
			return byKey[nameKey], nil
		},
	}
}

func TestResolveCanonical_ExternalIDWinsOverNameKey(t *testing.T) {
	t.Parallel()

	l := fixedLookups(
		map[string]candidate{"1234": {ID: 7, ExternalID: "1234"}},
		map[string][]candidate{"bronshoj btk": {{ID: 99}}},
	)

	res, err := resolveCanonical(context.Background(), "1234", "Brønshøj BTK", "bronshoj btk", l, alias.NewSet(nil))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !res.Matched || res.ID != 7 || res.Via != viaExternalID {
		t.Fatalf("unexpected resolution: %+v", res)
	}
}

func TestResolveCanonical_FallsBackToNameKey(t *testing.T) {
	t.Parallel()

	l := fixedLookups(nil, map[string][]candidate{"bronshoj btk": {{ID: 42}}})

	res, err := resolveCanonical(context.Background(), "", "Brønshøj BTK", "bronshoj btk", l, alias.NewSet(nil))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !res.Matched || res.ID != 42 || res.Via != viaNameKey || res.Ambiguous {
		t.Fatalf("unexpected resolution: %+v", res)
	}
}

func TestResolveCanonical_AliasAfterKeyMiss(t *testing.T) {
	t.Parallel()

	aliases := alias.NewSet([]alias.Alias{
		{Kind: alias.KindClub, RawName: "BTK Brønshøj af 1944", CanonicalID: 11},
	})
	l := fixedLookups(nil, nil)

	res, err := resolveCanonical(context.Background(), "", "BTK Brønshøj af 1944", "btk bronshoj af 1944", l, aliases)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !res.Matched || res.ID != 11 || res.Via != viaAlias {
		t.Fatalf("unexpected resolution: %+v", res)
	}
}

func TestResolveCanonical_AliasNormalizedKeyFallback(t *testing.T) {
	t.Parallel()

	aliases := alias.NewSet([]alias.Alias{
		{Kind: alias.KindClub, RawName: "BTK Brønshøj af 1944", CanonicalID: 11},
	})

	// Differently spelled raw name, same normalized key as the curated entry.
	res, err := resolveCanonical(context.Background(), "", "btk bronshoj AF 1944", "btk bronshoj af 1944", fixedLookups(nil, nil), aliases)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !res.Matched || res.ID != 11 {
		t.Fatalf("unexpected resolution: %+v", res)
	}
}

func TestResolveCanonical_NoMatch(t *testing.T) {
	t.Parallel()

	res, err := resolveCanonical(context.Background(), "", "Ukendt Klub", "ukendt klub", fixedLookups(nil, nil), alias.NewSet(nil))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if res.Matched {
		t.Fatalf("expected no match, got %+v", res)
	}
}

func TestResolveCanonical_LookupErrorPropagates(t *testing.T) {
	t.Parallel()

	wantErr := errors.New("db gone")
	l := lookups{
		byExternalID: func(context.Context, string) (*candidate, error) { return nil, wantErr },
	}

	if _, err := resolveCanonical(context.Background(), "1", "", "", l, alias.NewSet(nil)); !errors.Is(err, wantErr) {
		t.Fatalf("expected lookup error, got %v", err)
	}
}

func TestPickCandidate(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name          string
		cands         []candidate
		wantID        int64
		wantAmbiguous bool
	}{
		{
			name:   "single candidate is clean",
			cands:  []candidate{{ID: 1}},
			wantID: 1,
		},
		{
			name:   "one external-id holder wins outright",
			cands:  []candidate{{ID: 1}, {ID: 2, ExternalID: "77"}, {ID: 3}},
			wantID: 2,
		},
		{
			name:          "several holders pick earliest and flag",
			cands:         []candidate{{ID: 1, ExternalID: "a"}, {ID: 2, ExternalID: "b"}},
			wantID:        1,
			wantAmbiguous: true,
		},
		{
			name:          "no holders pick earliest and flag",
			cands:         []candidate{{ID: 4}, {ID: 9}},
			wantID:        4,
			wantAmbiguous: true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			picked, ambiguous := pickCandidate(tc.cands)
			if picked.ID != tc.wantID {
				t.Fatalf("picked id %d, want %d", picked.ID, tc.wantID)
			}
			if ambiguous != tc.wantAmbiguous {
				t.Fatalf("ambiguous = %t, want %t", ambiguous, tc.wantAmbiguous)
			}
		})
	}
}

type testRow struct {
	ext  string
	meta record.Meta
}

func TestDedupeByExternalID_SourcePriorityWins(t *testing.T) {
	t.Parallel()

	rows := []testRow{
		{ext: "12345", meta: record.Meta{Source: record.SourceRanking, RowNum: 0}},
		{ext: "12345", meta: record.Meta{Source: record.SourceLicenses, RowNum: 3}},
		{ext: "67890", meta: record.Meta{Source: record.SourceTournament, RowNum: 1}},
		{ext: "", meta: record.Meta{Source: record.SourceTournament, RowNum: 2}},
		{ext: "", meta: record.Meta{Source: record.SourceTournament, RowNum: 4}},
	}

	kept := dedupeByExternalID(rows,
		func(r testRow) string { return r.ext },
		func(r testRow) record.Meta { return r.meta },
	)

	if len(kept) != 4 {
		t.Fatalf("expected 4 rows, got %d", len(kept))
	}
	// The license-register row replaced the ranking row in place.
	if kept[0].ext != "12345" || kept[0].meta.Source != record.SourceLicenses {
		t.Fatalf("license row should win for 12345: %+v", kept[0])
	}
	// Id-less rows pass through untouched.
	if kept[2].ext != "" || kept[3].ext != "" {
		t.Fatalf("id-less rows must be kept: %+v", kept)
	}
}

func TestDedupeByExternalID_TieKeepsFirstArrival(t *testing.T) {
	t.Parallel()

	rows := []testRow{
		{ext: "1", meta: record.Meta{Source: record.SourceLicenses, RowNum: 0}},
		{ext: "1", meta: record.Meta{Source: record.SourceLicenses, RowNum: 5}},
	}

	kept := dedupeByExternalID(rows,
		func(r testRow) string { return r.ext },
		func(r testRow) record.Meta { return r.meta },
	)

	if len(kept) != 1 || kept[0].meta.RowNum != 0 {
		t.Fatalf("equal priority should keep the first arrival: %+v", kept)
	}
}

func TestParseDate(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"2025-09-14", "14-09-2025", "14.09.2025", "14/09/2025"} {
		parsed, err := parseDate(raw)
		if err != nil {
			t.Fatalf("parse %q: %v", raw, err)
		}
		if parsed == nil || parsed.Year() != 2025 || int(parsed.Month()) != 9 || parsed.Day() != 14 {
			t.Fatalf("parse %q: got %v", raw, parsed)
		}
	}

	if parsed, err := parseDate("  "); err != nil || parsed != nil {
		t.Fatalf("blank date should parse to nil: %v %v", parsed, err)
	}

	if _, err := parseDate("14th of September"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestParseBirthYear(t *testing.T) {
	t.Parallel()

	if year, err := parseBirthYear("1987"); err != nil || year != 1987 {
		t.Fatalf("plain year: %d %v", year, err)
	}
	if year, err := parseBirthYear("14-09-1987"); err != nil || year != 1987 {
		t.Fatalf("full date spelling: %d %v", year, err)
	}
	if _, err := parseBirthYear("1850"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("out-of-range year must be rejected, got %v", err)
	}
	if _, err := parseBirthYear("abc"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("garbage must be rejected, got %v", err)
	}
}

func TestParseSeed(t *testing.T) {
	t.Parallel()

	if got := parseSeed(" 3 "); got != 3 {
		t.Fatalf("parseSeed(3) = %d", got)
	}
	if got := parseSeed(""); got != 0 {
		t.Fatalf("empty seed should be 0, got %d", got)
	}
	if got := parseSeed("-1"); got != 0 {
		t.Fatalf("negative seed should be 0, got %d", got)
	}
}

func TestSplitName(t *testing.T) {
	t.Parallel()

	cases := []struct {
		full  string
		first string
		last  string
	}{
		{"Mads Kruse Jensen", "Mads", "Kruse Jensen"},
		{"Madonna", "Madonna", ""},
		{"  Lise  Holm ", "Lise", "Holm"},
	}

	for _, tc := range cases {
		first, last := splitName(tc.full)
		if first != tc.first || last != tc.last {
			t.Fatalf("splitName(%q) = %q, %q; want %q, %q", tc.full, first, last, tc.first, tc.last)
		}
	}
}
