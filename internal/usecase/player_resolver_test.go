package usecase

import (
	"context"
	"sort"
	"testing"

	"github.com/mkrogh/ttsync/internal/domain/alias"
	"github.com/mkrogh/ttsync/internal/domain/player"
	"github.com/mkrogh/ttsync/internal/domain/record"
)

type playerRepoStub struct {
	byID    map[int64]player.Player
	nextID  int64
	inserts int
	updates int
	upserts int
}

func newPlayerRepoStub(seed ...player.Player) *playerRepoStub {
	s := &playerRepoStub{byID: make(map[int64]player.Player)}
	for _, p := range seed {
		s.byID[p.ID] = p
		if p.ID > s.nextID {
			s.nextID = p.ID
		}
	}
	return s
}

func (s *playerRepoStub) FindByExternalID(_ context.Context, externalID string) (*player.Player, error) {
	for _, p := range s.byID {
		if p.ExternalID == externalID {
			found := p
			return &found, nil
		}
	}
	return nil, nil
}

func (s *playerRepoStub) FindByNameKey(_ context.Context, nameKey string) ([]player.Player, error) {
	var out []player.Player
	for _, p := range s.byID {
		if p.NameKey == nameKey {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *playerRepoStub) Upsert(_ context.Context, p player.Player) (record.Upserted, error) {
	s.upserts++
	for id, existing := range s.byID {
		if existing.ExternalID == p.ExternalID {
			p.ID = id
			s.byID[id] = p
			return record.Upserted{ID: id}, nil
		}
	}
	s.nextID++
	p.ID = s.nextID
	s.byID[p.ID] = p
	return record.Upserted{ID: p.ID, Inserted: true}, nil
}

func (s *playerRepoStub) Insert(_ context.Context, p player.Player) (int64, error) {
	s.inserts++
	s.nextID++
	p.ID = s.nextID
	p.ExternalID = ""
	s.byID[p.ID] = p
	return p.ID, nil
}

func (s *playerRepoStub) Update(_ context.Context, p player.Player) error {
	s.updates++
	existing := s.byID[p.ID]
	if p.ExternalID != "" {
		existing.ExternalID = p.ExternalID
	}
	if p.FirstName != "" {
		existing.FirstName = p.FirstName
	}
	if p.LastName != "" {
		existing.LastName = p.LastName
	}
	if p.BirthYear > 0 {
		existing.BirthYear = p.BirthYear
	}
	if p.ClubID > 0 {
		existing.ClubID = p.ClubID
	}
	if p.NameKey != "" {
		existing.NameKey = p.NameKey
	}
	s.byID[p.ID] = existing
	return nil
}

func TestPlayerResolver_BackfillsExternalIDOntoNameMatch(t *testing.T) {
	t.Parallel()

	// A bare sign-up row created before the register knew the player.
	repo := newPlayerRepoStub(player.Player{ID: 3, FirstName: "Ole", LastName: "Madsen", NameKey: "ole madsen"})
	r := newPlayerResolver(repo, alias.NewSet(nil))

	id, err := r.Resolve(context.Background(), playerIdentity{
		ExternalID: "999",
		FirstName:  "Ole",
		LastName:   "Madsen",
		BirthYear:  1990,
		ClubID:     4,
		Meta:       record.Meta{Source: record.SourceLicenses},
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	if id != 3 {
		t.Fatalf("expected the existing row to be claimed, got id %d", id)
	}
	if len(repo.byID) != 1 {
		t.Fatalf("a sibling row was created: %d rows", len(repo.byID))
	}
	got := repo.byID[3]
	if got.ExternalID != "999" || got.BirthYear != 1990 || got.ClubID != 4 {
		t.Fatalf("identity not backfilled: %+v", got)
	}
}

func TestPlayerResolver_RequiresExternalID(t *testing.T) {
	t.Parallel()

	r := newPlayerResolver(newPlayerRepoStub(), alias.NewSet(nil))
	if _, err := r.Resolve(context.Background(), playerIdentity{FirstName: "Ole"}); err == nil {
		t.Fatalf("expected error for identity without external id")
	}
}

func TestPlayerResolver_ResolveByNameNeverTouchesIdentity(t *testing.T) {
	t.Parallel()

	repo := newPlayerRepoStub(player.Player{
		ID: 5, ExternalID: "12345", FirstName: "Mads", LastName: "Kruse",
		BirthYear: 1987, ClubID: 2, NameKey: "mads kruse",
	})
	r := newPlayerResolver(repo, alias.NewSet(nil))

	id, err := r.ResolveByName(context.Background(), "Mads Kruse", 9)
	if err != nil {
		t.Fatalf("resolve by name: %v", err)
	}
	if id != 5 {
		t.Fatalf("expected match on id 5, got %d", id)
	}
	if repo.updates != 0 || repo.upserts != 0 || repo.inserts != 0 {
		t.Fatalf("a name-only match must not write: %+v", repo)
	}
}

func TestPlayerResolver_ResolveByNameInsertsBareRow(t *testing.T) {
	t.Parallel()

	repo := newPlayerRepoStub()
	r := newPlayerResolver(repo, alias.NewSet(nil))

	id, err := r.ResolveByName(context.Background(), "Ole Madsen", 7)
	if err != nil {
		t.Fatalf("resolve by name: %v", err)
	}

	got := repo.byID[id]
	if got.FirstName != "Ole" || got.LastName != "Madsen" || got.ClubID != 7 {
		t.Fatalf("unexpected inserted row: %+v", got)
	}
	if got.ExternalID != "" {
		t.Fatalf("name-only insert must not fabricate an external id: %q", got.ExternalID)
	}

	// The repeat hits the memo.
	again, err := r.ResolveByName(context.Background(), "OLE MADSEN", 7)
	if err != nil {
		t.Fatalf("repeat: %v", err)
	}
	if again != id || repo.inserts != 1 {
		t.Fatalf("repeat should reuse the inserted row: id %d vs %d, inserts %d", again, id, repo.inserts)
	}
}

func TestPlayerResolver_IDByExternalID(t *testing.T) {
	t.Parallel()

	repo := newPlayerRepoStub(player.Player{ID: 8, ExternalID: "42", NameKey: "a b"})
	r := newPlayerResolver(repo, alias.NewSet(nil))

	id, found, err := r.IDByExternalID(context.Background(), "42")
	if err != nil || !found || id != 8 {
		t.Fatalf("lookup: id=%d found=%t err=%v", id, found, err)
	}

	_, found, err = r.IDByExternalID(context.Background(), "nope")
	if err != nil || found {
		t.Fatalf("unknown id must report not found: found=%t err=%v", found, err)
	}

	if _, found, _ := r.IDByExternalID(context.Background(), ""); found {
		t.Fatalf("empty external id can never match")
	}
}
