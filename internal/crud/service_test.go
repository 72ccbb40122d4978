package crud

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"testing"

	"judolog/internal/apperr"
	"judolog/internal/cache"
)

type note struct {
	ID     int    `json:"id"`
	UserID int    `json:"user_id"`
	Text   string `json:"text"`
}

func (n *note) SetID(id int)        { n.ID = id }
func (n *note) SetOwner(userID int) { n.UserID = userID }
func (n *note) Validate() error {
	if n.Text == "" {
		return apperr.Invalid("text", "required")
	}
	return nil
}

type fakeStore struct {
	rows   map[int]note
	nextID int
	lists  int
	writes int
	fail   error
}

func newFakeStore() *fakeStore { return &fakeStore{rows: map[int]note{}} }

func (f *fakeStore) List(_ context.Context, userID int) ([]note, error) {
	f.lists++
	out := []note{}
	for _, n := range f.rows {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) Get(_ context.Context, userID, id int) (note, error) {
	n, ok := f.rows[id]
	if !ok || n.UserID != userID {
		return note{}, apperr.ErrNotFound
	}
	return n, nil
}

func (f *fakeStore) Create(_ context.Context, userID int, v *note) error {
	f.writes++
	if f.fail != nil {
		return f.fail
	}
	f.nextID++
	v.ID, v.UserID = f.nextID, userID
	f.rows[v.ID] = *v
	return nil
}

func (f *fakeStore) Update(_ context.Context, userID, id int, v *note) error {
	f.writes++
	if f.fail != nil {
		return f.fail
	}
	if n, ok := f.rows[id]; !ok || n.UserID != userID {
		return apperr.ErrNotFound
	}
	v.ID, v.UserID = id, userID
	f.rows[id] = *v
	return nil
}

func (f *fakeStore) Delete(_ context.Context, userID, id int) error {
	f.writes++
	if f.fail != nil {
		return f.fail
	}
	if n, ok := f.rows[id]; !ok || n.UserID != userID {
		return apperr.ErrNotFound
	}
	delete(f.rows, id)
	return nil
}

func newNoteService(store *fakeStore, c cache.Cache) *Service[note, *note] {
	return NewService[note, *note]("notes", store, c, nil, WithDependents("attachments"))
}

func TestListIsCachedPerUser(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	svc := newNoteService(store, cache.NewMemory())

	if err := svc.Create(ctx, 1, &note{Text: "a"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	for i := 0; i < 3; i++ {
		items, err := svc.List(ctx, 1)
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if len(items) != 1 {
			t.Fatalf("items: want=1 got=%d", len(items))
		}
	}
	if store.lists != 1 {
		t.Fatalf("store lists: want=1 got=%d", store.lists)
	}
	if _, err := svc.List(ctx, 2); err != nil {
		t.Fatalf("List user 2: %v", err)
	}
	if store.lists != 2 {
		t.Fatalf("store lists after second user: want=2 got=%d", store.lists)
	}
}

func TestMutationsInvalidateOwnAndDependentKeys(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	mem := cache.NewMemory()
	svc := newNoteService(store, mem)

	n := note{Text: "a"}
	if err := svc.Create(ctx, 1, &n); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.List(ctx, 1); err != nil {
		t.Fatalf("List: %v", err)
	}
	if _, err := svc.List(ctx, 2); err != nil {
		t.Fatalf("List: %v", err)
	}
	_ = mem.Set(ctx, CacheKey("attachments", 1), []int{1}, 0)
	_ = mem.Set(ctx, CacheKey("attachments", 2), []int{1}, 0)

	if err := svc.Delete(ctx, 1, n.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if mem.Has(CacheKey("notes", 1)) || mem.Has(CacheKey("attachments", 1)) {
		t.Fatalf("expected user 1 keys to be invalidated")
	}
	if !mem.Has(CacheKey("notes", 2)) || !mem.Has(CacheKey("attachments", 2)) {
		t.Fatalf("user 2 keys must survive")
	}

	items, err := svc.List(ctx, 1)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("items after delete: want=0 got=%d", len(items))
	}
}

func TestFailedMutationKeepsCache(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	mem := cache.NewMemory()
	svc := newNoteService(store, mem)

	if _, err := svc.List(ctx, 1); err != nil {
		t.Fatalf("List: %v", err)
	}
	store.fail = errors.New("connection reset")

	if err := svc.Create(ctx, 1, &note{Text: "b"}); err == nil {
		t.Fatalf("Create: expected error")
	}
	if err := svc.Update(ctx, 1, 1, &note{Text: "b"}); err == nil {
		t.Fatalf("Update: expected error")
	}
	if err := svc.Delete(ctx, 1, 1); err == nil {
		t.Fatalf("Delete: expected error")
	}
	if !mem.Has(CacheKey("notes", 1)) {
		t.Fatalf("failed mutations must not invalidate")
	}
}

func TestValidationRejectedBeforeStore(t *testing.T) {
	store := newFakeStore()
	svc := newNoteService(store, nil)

	err := svc.Create(context.Background(), 1, &note{})
	if !apperr.IsValidation(err) {
		t.Fatalf("expected ValidationError, got=%v", err)
	}
	if store.writes != 0 {
		t.Fatalf("store writes: want=0 got=%d", store.writes)
	}
}

func TestUpdateAndGetAreOwnerScoped(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	svc := newNoteService(store, cache.NewMemory())

	n := note{Text: "mine"}
	if err := svc.Create(ctx, 1, &n); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.Get(ctx, 2, n.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("Get other user: want ErrNotFound got=%v", err)
	}
	if err := svc.Update(ctx, 2, n.ID, &note{Text: "stolen"}); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("Update other user: want ErrNotFound got=%v", err)
	}
	got, err := svc.Get(ctx, 1, n.ID)
	if err != nil || got.Text != "mine" {
		t.Fatalf("Get: got=%+v err=%v", got, err)
	}
}

// sealedStore keeps note text behind a "sealed:" prefix, standing in for field encryption.
type sealedStore struct {
	*fakeStore
	opened int
}

func (s *sealedStore) ListSealed(ctx context.Context, userID int) ([]note, error) {
	return s.fakeStore.List(ctx, userID)
}

func (s *sealedStore) List(ctx context.Context, userID int) ([]note, error) {
	out, err := s.ListSealed(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range out {
		if err := s.Open(&out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *sealedStore) Open(n *note) error {
	text, ok := strings.CutPrefix(n.Text, "sealed:")
	if !ok {
		return errors.New("note is not sealed")
	}
	s.opened++
	n.Text = text
	return nil
}

func TestListCachesSealedRows(t *testing.T) {
	ctx := context.Background()
	store := &sealedStore{fakeStore: newFakeStore()}
	store.rows[1] = note{ID: 1, UserID: 1, Text: "sealed:osoto-gari setup"}
	mem := cache.NewMemory()
	svc := NewService[note, *note]("notes", store, mem, nil)

	for i := 0; i < 2; i++ {
		items, err := svc.List(ctx, 1)
		if err != nil {
			t.Fatalf("List #%d: %v", i, err)
		}
		if len(items) != 1 || items[0].Text != "osoto-gari setup" {
			t.Fatalf("List #%d: got=%+v", i, items)
		}
	}
	if store.lists != 1 {
		t.Fatalf("store lists: want=1 got=%d", store.lists)
	}
	if store.opened != 2 {
		t.Fatalf("opened: want=2 got=%d", store.opened)
	}

	var raw json.RawMessage
	if ok, err := mem.Get(ctx, CacheKey("notes", 1), &raw); err != nil || !ok {
		t.Fatalf("cached entry: ok=%v err=%v", ok, err)
	}
	if !strings.Contains(string(raw), "sealed:") || strings.Contains(string(raw), `"osoto-gari setup"`) {
		t.Fatalf("cache must hold the stored form: %s", raw)
	}
}
