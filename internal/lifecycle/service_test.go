package lifecycle

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"smart-international-shipping/internal/account"
	"smart-international-shipping/internal/aggregate"
	"smart-international-shipping/internal/domain"
	"smart-international-shipping/internal/notify"
	"smart-international-shipping/internal/store/memstore"
	"smart-international-shipping/shared/pkg/models"
)

type recordingSink struct {
	mu     sync.Mutex
	events []models.Event[models.LifecyclePayload]
	err    error
}

func (r *recordingSink) Emit(_ context.Context, evt models.Event[models.LifecyclePayload]) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
	return r.err
}

func (r *recordingSink) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

func (r *recordingSink) last() models.Event[models.LifecyclePayload] {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.events[len(r.events)-1]
}

type harness struct {
	store *memstore.Store
	sink  *recordingSink
	svc   *Service
}

func newHarness() *harness {
	store := memstore.New()
	sink := &recordingSink{}
	return &harness{
		store: store,
		sink:  sink,
		svc: &Service{
			Store:    store,
			Engine:   &aggregate.Engine{Store: store},
			Notifier: &notify.Bridge{Store: store, Log: zerolog.Nop()},
			Events:   sink,
			Log:      zerolog.Nop(),
			BaseURL:  "http://localhost:3000",
		},
	}
}

type fixedTokens struct{}

func (fixedTokens) Generate(u *domain.User) (string, error) { return "token-" + u.ID, nil }

func (h *harness) user(t *testing.T, name string, role domain.Role) *domain.User {
	t.Helper()
	u := &domain.User{Name: name, Email: name + "@example.com", Role: role}
	require.NoError(t, h.store.CreateUser(context.Background(), u))
	return u
}

func (h *harness) group(t *testing.T, manager *domain.User) *domain.GroupOrder {
	t.Helper()
	g, err := h.svc.Create(context.Background(), manager.ID, CreateInput{Name: "Tokyo run", Country: "JP"})
	require.NoError(t, err)
	return g
}

func (h *harness) join(t *testing.T, u *domain.User, g *domain.GroupOrder) {
	t.Helper()
	_, err := h.svc.AddMember(context.Background(), u.ID, g.ID)
	require.NoError(t, err)
}

func (h *harness) submit(t *testing.T, u *domain.User, g *domain.GroupOrder, name string) *domain.Order {
	t.Helper()
	o, err := h.svc.SubmitOrder(context.Background(), u.ID, g.ID, OrderInput{Name: name, Weight: 2, Price: 10})
	require.NoError(t, err)
	return o
}

func (h *harness) advance(t *testing.T, manager *domain.User, g *domain.GroupOrder, to ...domain.GroupStatus) {
	t.Helper()
	for _, st := range to {
		st := st
		_, err := h.svc.Update(context.Background(), manager.ID, g.ID, domain.GroupOrderPatch{Status: &st})
		require.NoError(t, err)
	}
}

func requireErrorType[T error](t *testing.T, err error) {
	t.Helper()
	var target T
	require.ErrorAs(t, err, &target)
}

func TestCreate(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	mgr := h.user(t, "mgr", domain.RoleManager)

	g, err := h.svc.Create(ctx, mgr.ID, CreateInput{Name: "  Tokyo run ", Country: "JP"})
	require.NoError(t, err)
	assert.Equal(t, domain.GroupOpen, g.Status)
	assert.Equal(t, "Tokyo run", g.Name)
	assert.Empty(t, g.UserIDs)
	assert.Equal(t, []string{models.EventGroupCreated}, h.sink.types())

	_, err = h.svc.Create(ctx, mgr.ID, CreateInput{Name: "ab", Country: ""})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Len(t, verr.Issues, 2)
	assert.Equal(t, "name", verr.Issues[0].Field)
	assert.Equal(t, "country", verr.Issues[1].Field)

	_, err = h.svc.Create(ctx, "ghost", CreateInput{Name: "Tokyo run", Country: "JP"})
	requireErrorType[*domain.NotFoundError](t, err)
}

func TestCreateThenDetailRoundTrip(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	mgr := h.user(t, "mgr", domain.RoleManager)

	g, err := h.svc.Create(ctx, mgr.ID, CreateInput{Name: "Bulk Buy", Country: "US"})
	require.NoError(t, err)

	d, err := h.svc.Detail(ctx, domain.Principal{UserID: mgr.ID, Role: mgr.Role}, g.ID)
	require.NoError(t, err)
	assert.Equal(t, "Bulk Buy", d.Name)
	assert.Equal(t, "US", d.Country)
	assert.Equal(t, domain.GroupOpen, d.Status)
	assert.NotNil(t, d.Orders)
	assert.Empty(t, d.Orders)
	assert.NotNil(t, d.Users)
	assert.Empty(t, d.Users)
	assert.Equal(t, domain.ManagerView{ID: mgr.ID, Name: "mgr", Email: "mgr@example.com"}, d.Manager)
}

func TestInvite(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	mgr := h.user(t, "mgr", domain.RoleManager)
	member := h.user(t, "member", domain.RoleJoiner)
	invitee := h.user(t, "invitee", domain.RoleJoiner)
	stranger := h.user(t, "stranger", domain.RoleJoiner)
	g := h.group(t, mgr)
	h.join(t, member, g)

	n, err := h.svc.Invite(ctx, mgr.ID, g.ID, invitee.Email)
	require.NoError(t, err)
	assert.Equal(t, invitee.ID, n.ReceiverID)
	assert.Equal(t, "mgr invited you to join the group: Tokyo run\nhttp://localhost:3000/admin/groupOrder/"+g.ID, n.Message)

	stored, err := h.svc.Notifications(ctx, invitee.ID)
	require.NoError(t, err)
	require.Len(t, stored, 1)

	_, err = h.svc.Invite(ctx, member.ID, g.ID, stranger.Email)
	require.NoError(t, err, "members may invite too")

	_, err = h.svc.Invite(ctx, stranger.ID, g.ID, invitee.Email)
	requireErrorType[*domain.AccessDeniedError](t, err)

	_, err = h.svc.Invite(ctx, mgr.ID, g.ID, "nobody@example.com")
	requireErrorType[*domain.NotFoundError](t, err)

	_, err = h.svc.Invite(ctx, mgr.ID, "missing", invitee.Email)
	requireErrorType[*domain.NotFoundError](t, err)

	got, err := h.store.GetGroupOrder(ctx, g.ID)
	require.NoError(t, err)
	assert.False(t, got.IsMember(invitee.ID), "invitation must not grant membership")

	t.Run("email lookup ignores case", func(t *testing.T) {
		accounts := &account.Service{Users: h.store, Tokens: fixedTokens{}, Log: zerolog.Nop(), HashCost: bcrypt.MinCost}
		reg, err := accounts.Register(ctx, domain.LocalCredential{Name: "Bob", Email: "Bob@Example.com", Password: "long enough"})
		require.NoError(t, err)

		n, err := h.svc.Invite(ctx, mgr.ID, g.ID, " Bob@Example.com ")
		require.NoError(t, err)
		assert.Equal(t, reg.User.ID, n.ReceiverID)
	})
}

func TestAddMember(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	mgr := h.user(t, "mgr", domain.RoleManager)
	alice := h.user(t, "alice", domain.RoleJoiner)
	g := h.group(t, mgr)

	t.Run("idempotent", func(t *testing.T) {
		_, err := h.svc.AddMember(ctx, alice.ID, g.ID)
		require.NoError(t, err)
		got, err := h.svc.AddMember(ctx, alice.ID, g.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{alice.ID}, got.UserIDs)
	})

	t.Run("manager cannot join own group", func(t *testing.T) {
		_, err := h.svc.AddMember(ctx, mgr.ID, g.ID)
		requireErrorType[*domain.ConflictError](t, err)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := h.svc.AddMember(ctx, "ghost", g.ID)
		requireErrorType[*domain.NotFoundError](t, err)
	})

	t.Run("unknown group", func(t *testing.T) {
		_, err := h.svc.AddMember(ctx, alice.ID, "missing")
		requireErrorType[*domain.NotFoundError](t, err)
	})

	t.Run("closed group refuses new members", func(t *testing.T) {
		g2 := h.group(t, mgr)
		h.advance(t, mgr, g2, domain.GroupClosed)
		_, err := h.svc.AddMember(ctx, alice.ID, g2.ID)
		requireErrorType[*domain.ConflictError](t, err)
	})

	t.Run("concurrent joins stay unique", func(t *testing.T) {
		g3 := h.group(t, mgr)
		bob := h.user(t, "bob", domain.RoleJoiner)
		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := h.svc.AddMember(ctx, bob.ID, g3.ID)
				assert.NoError(t, err)
			}()
		}
		wg.Wait()
		got, err := h.store.GetGroupOrder(ctx, g3.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{bob.ID}, got.UserIDs)
	})
}

func TestRemoveMember(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	mgr := h.user(t, "mgr", domain.RoleManager)
	alice := h.user(t, "alice", domain.RoleJoiner)
	bob := h.user(t, "bob", domain.RoleJoiner)
	g := h.group(t, mgr)
	h.join(t, alice, g)
	h.join(t, bob, g)
	order := h.submit(t, alice, g, "matcha")

	_, err := h.svc.RemoveMember(ctx, bob.ID, g.ID, alice.ID)
	requireErrorType[*domain.AccessDeniedError](t, err)

	_, err = h.svc.RemoveMember(ctx, mgr.ID, g.ID, "ghost")
	requireErrorType[*domain.NotFoundError](t, err)

	got, err := h.svc.RemoveMember(ctx, mgr.ID, g.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{bob.ID}, got.UserIDs)
	assert.Equal(t, []string{alice.ID}, h.sink.last().Payload.Recipients)

	d, err := h.svc.Detail(ctx, domain.Principal{UserID: mgr.ID, Role: domain.RoleManager}, g.ID)
	require.NoError(t, err)
	require.Len(t, d.Orders, 1, "removed member's orders are retained")
	assert.Equal(t, order.ID, d.Orders[0].ID)
	require.Len(t, d.Orders[0].User, 1)
	assert.Equal(t, alice.ID, d.Orders[0].User[0].ID)
	assert.False(t, d.HasMember(alice.ID))
}

func TestApproveAndCancel(t *testing.T) {
	ctx := context.Background()

	t.Run("manager only", func(t *testing.T) {
		h := newHarness()
		mgr := h.user(t, "mgr", domain.RoleManager)
		alice := h.user(t, "alice", domain.RoleJoiner)
		g := h.group(t, mgr)
		h.join(t, alice, g)
		o := h.submit(t, alice, g, "matcha")

		_, err := h.svc.ApproveOrder(ctx, alice.ID, o.ID)
		requireErrorType[*domain.AccessDeniedError](t, err)
		_, err = h.svc.CancelOrder(ctx, alice.ID, o.ID)
		requireErrorType[*domain.AccessDeniedError](t, err)
	})

	t.Run("decisions are final", func(t *testing.T) {
		h := newHarness()
		mgr := h.user(t, "mgr", domain.RoleManager)
		alice := h.user(t, "alice", domain.RoleJoiner)
		g := h.group(t, mgr)
		h.join(t, alice, g)
		o := h.submit(t, alice, g, "matcha")

		got, err := h.svc.ApproveOrder(ctx, mgr.ID, o.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.OrderApproved, got.Status)
		assert.Equal(t, []string{alice.ID}, h.sink.last().Payload.Recipients)

		_, err = h.svc.ApproveOrder(ctx, mgr.ID, o.ID)
		requireErrorType[*domain.ConflictError](t, err)
		_, err = h.svc.CancelOrder(ctx, mgr.ID, o.ID)
		requireErrorType[*domain.ConflictError](t, err)

		o2 := h.submit(t, alice, g, "pocky")
		got, err = h.svc.CancelOrder(ctx, mgr.ID, o2.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.OrderCanceled, got.Status)
		_, err = h.svc.ApproveOrder(ctx, mgr.ID, o2.ID)
		requireErrorType[*domain.ConflictError](t, err)
	})

	t.Run("allowed while closed, refused once ordered", func(t *testing.T) {
		h := newHarness()
		mgr := h.user(t, "mgr", domain.RoleManager)
		g := h.group(t, mgr)
		o1 := h.submit(t, mgr, g, "first")
		o2 := h.submit(t, mgr, g, "second")

		h.advance(t, mgr, g, domain.GroupClosed)
		_, err := h.svc.ApproveOrder(ctx, mgr.ID, o1.ID)
		require.NoError(t, err)

		h.advance(t, mgr, g, domain.GroupOrdered)
		_, err = h.svc.ApproveOrder(ctx, mgr.ID, o2.ID)
		requireErrorType[*domain.ConflictError](t, err)
	})

	t.Run("unknown order", func(t *testing.T) {
		h := newHarness()
		mgr := h.user(t, "mgr", domain.RoleManager)
		_, err := h.svc.ApproveOrder(ctx, mgr.ID, "missing")
		requireErrorType[*domain.NotFoundError](t, err)
	})

	t.Run("concurrent approvals have one winner", func(t *testing.T) {
		h := newHarness()
		mgr := h.user(t, "mgr", domain.RoleManager)
		g := h.group(t, mgr)
		o := h.submit(t, mgr, g, "matcha")

		const n = 16
		var wg sync.WaitGroup
		errs := make([]error, n)
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				if i%2 == 0 {
					_, errs[i] = h.svc.ApproveOrder(ctx, mgr.ID, o.ID)
				} else {
					_, errs[i] = h.svc.CancelOrder(ctx, mgr.ID, o.ID)
				}
			}(i)
		}
		wg.Wait()

		wins := 0
		for _, err := range errs {
			if err == nil {
				wins++
				continue
			}
			requireErrorType[*domain.ConflictError](t, err)
		}
		assert.Equal(t, 1, wins)
	})
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	mgr := h.user(t, "mgr", domain.RoleManager)
	alice := h.user(t, "alice", domain.RoleJoiner)
	g := h.group(t, mgr)
	h.join(t, alice, g)

	stranger := h.user(t, "stranger", domain.RoleJoiner)

	name := "Kyoto run"
	_, err := h.svc.Update(ctx, alice.ID, g.ID, domain.GroupOrderPatch{Name: &name})
	requireErrorType[*domain.AccessDeniedError](t, err)

	short := "no"
	_, err = h.svc.Update(ctx, stranger.ID, g.ID, domain.GroupOrderPatch{Name: &short})
	requireErrorType[*domain.AccessDeniedError](t, err)
	_, err = h.svc.Update(ctx, alice.ID, g.ID, domain.GroupOrderPatch{Name: &short})
	requireErrorType[*domain.AccessDeniedError](t, err)

	got, err := h.svc.Update(ctx, mgr.ID, g.ID, domain.GroupOrderPatch{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Kyoto run", got.Name)
	assert.Empty(t, h.sink.last().Payload.Recipients, "plain edits notify nobody")

	skip := domain.GroupOrdered
	_, err = h.svc.Update(ctx, mgr.ID, g.ID, domain.GroupOrderPatch{Status: &skip})
	requireErrorType[*domain.ConflictError](t, err)

	disbanded := domain.GroupDisbanded
	_, err = h.svc.Update(ctx, mgr.ID, g.ID, domain.GroupOrderPatch{Status: &disbanded})
	requireErrorType[*domain.ValidationError](t, err)

	_, err = h.svc.Update(ctx, mgr.ID, g.ID, domain.GroupOrderPatch{Name: &short})
	requireErrorType[*domain.ValidationError](t, err)

	closed := domain.GroupClosed
	got, err = h.svc.Update(ctx, mgr.ID, g.ID, domain.GroupOrderPatch{Status: &closed, Name: &name})
	require.NoError(t, err)
	assert.Equal(t, domain.GroupClosed, got.Status)
	assert.Equal(t, []string{alice.ID}, h.sink.last().Payload.Recipients)

	open := domain.GroupOpen
	_, err = h.svc.Update(ctx, mgr.ID, g.ID, domain.GroupOrderPatch{Status: &open})
	requireErrorType[*domain.ConflictError](t, err)

	t.Run("disbanded group rejects invalid patch as conflict", func(t *testing.T) {
		g := h.group(t, mgr)
		_, err := h.svc.Disband(ctx, mgr.ID, g.ID)
		require.NoError(t, err)

		_, err = h.svc.Update(ctx, mgr.ID, g.ID, domain.GroupOrderPatch{Name: &short})
		requireErrorType[*domain.ConflictError](t, err)
	})
}

func TestDisband(t *testing.T) {
	ctx := context.Background()

	t.Run("blocks later lifecycle operations", func(t *testing.T) {
		h := newHarness()
		mgr := h.user(t, "mgr", domain.RoleManager)
		alice := h.user(t, "alice", domain.RoleJoiner)
		bob := h.user(t, "bob", domain.RoleJoiner)
		g := h.group(t, mgr)
		h.join(t, alice, g)
		o := h.submit(t, alice, g, "matcha")

		_, err := h.svc.Disband(ctx, alice.ID, g.ID)
		requireErrorType[*domain.AccessDeniedError](t, err)

		got, err := h.svc.Disband(ctx, mgr.ID, g.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.GroupDisbanded, got.Status)
		assert.Equal(t, models.EventGroupDisbanded, h.sink.last().Type)

		_, err = h.svc.AddMember(ctx, bob.ID, g.ID)
		requireErrorType[*domain.ConflictError](t, err)
		_, err = h.svc.Invite(ctx, mgr.ID, g.ID, bob.Email)
		requireErrorType[*domain.ConflictError](t, err)
		_, err = h.svc.RemoveMember(ctx, mgr.ID, g.ID, alice.ID)
		requireErrorType[*domain.ConflictError](t, err)
		_, err = h.svc.ApproveOrder(ctx, mgr.ID, o.ID)
		requireErrorType[*domain.ConflictError](t, err)
		name := "Revived"
		_, err = h.svc.Update(ctx, mgr.ID, g.ID, domain.GroupOrderPatch{Name: &name})
		requireErrorType[*domain.ConflictError](t, err)
		_, err = h.svc.Disband(ctx, mgr.ID, g.ID)
		requireErrorType[*domain.ConflictError](t, err)
		_, err = h.svc.SubmitOrder(ctx, alice.ID, g.ID, OrderInput{Name: "late", Weight: 1, Price: 1})
		requireErrorType[*domain.ConflictError](t, err)
	})

	t.Run("not after ordering", func(t *testing.T) {
		h := newHarness()
		mgr := h.user(t, "mgr", domain.RoleManager)
		g := h.group(t, mgr)
		h.advance(t, mgr, g, domain.GroupClosed, domain.GroupOrdered)

		_, err := h.svc.Disband(ctx, mgr.ID, g.ID)
		requireErrorType[*domain.ConflictError](t, err)
	})
}

func TestSubmitAndEditOrder(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	mgr := h.user(t, "mgr", domain.RoleManager)
	alice := h.user(t, "alice", domain.RoleJoiner)
	stranger := h.user(t, "stranger", domain.RoleJoiner)
	g := h.group(t, mgr)
	h.join(t, alice, g)

	_, err := h.svc.SubmitOrder(ctx, alice.ID, g.ID, OrderInput{Name: "ok", Weight: 0, Price: -1})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Issues, 3)

	_, err = h.svc.SubmitOrder(ctx, stranger.ID, g.ID, OrderInput{Name: "matcha", Weight: 1, Price: 1})
	requireErrorType[*domain.AccessDeniedError](t, err)
	_, err = h.svc.SubmitOrder(ctx, stranger.ID, g.ID, OrderInput{Name: "", Weight: 0, Price: 0})
	requireErrorType[*domain.AccessDeniedError](t, err)

	o := h.submit(t, alice, g, "matcha")
	assert.Equal(t, domain.OrderPending, o.Status)
	assert.Equal(t, []string{mgr.ID}, h.sink.last().Payload.Recipients)

	weight := 5
	_, err = h.svc.EditOrder(ctx, mgr.ID, o.ID, domain.OrderPatch{Weight: &weight})
	requireErrorType[*domain.AccessDeniedError](t, err)
	zero := 0
	_, err = h.svc.EditOrder(ctx, mgr.ID, o.ID, domain.OrderPatch{Price: &zero})
	requireErrorType[*domain.AccessDeniedError](t, err)

	got, err := h.svc.EditOrder(ctx, alice.ID, o.ID, domain.OrderPatch{Weight: &weight})
	require.NoError(t, err)
	assert.Equal(t, 5, got.Weight)
	assert.Equal(t, "matcha", got.Name)

	bad := 0
	_, err = h.svc.EditOrder(ctx, alice.ID, o.ID, domain.OrderPatch{Price: &bad})
	requireErrorType[*domain.ValidationError](t, err)

	_, err = h.svc.ApproveOrder(ctx, mgr.ID, o.ID)
	require.NoError(t, err)
	_, err = h.svc.EditOrder(ctx, alice.ID, o.ID, domain.OrderPatch{Weight: &weight})
	requireErrorType[*domain.ConflictError](t, err)

	h.advance(t, mgr, g, domain.GroupClosed)
	_, err = h.svc.SubmitOrder(ctx, alice.ID, g.ID, OrderInput{Name: "late", Weight: 1, Price: 1})
	requireErrorType[*domain.ConflictError](t, err)
	_, err = h.svc.SubmitOrder(ctx, alice.ID, g.ID, OrderInput{Name: "", Weight: 0, Price: 0})
	requireErrorType[*domain.ConflictError](t, err)
}

func TestShipment(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	mgr := h.user(t, "mgr", domain.RoleManager)
	alice := h.user(t, "alice", domain.RoleJoiner)
	ship1 := h.user(t, "ship1", domain.RoleShipper)
	ship2 := h.user(t, "ship2", domain.RoleShipper)
	p1 := domain.Principal{UserID: ship1.ID, Role: domain.RoleShipper}
	p2 := domain.Principal{UserID: ship2.ID, Role: domain.RoleShipper}
	g := h.group(t, mgr)
	h.join(t, alice, g)

	_, err := h.svc.AcceptShipment(ctx, p1, g.ID)
	requireErrorType[*domain.ConflictError](t, err)

	h.advance(t, mgr, g, domain.GroupClosed, domain.GroupOrdered)

	_, err = h.svc.AcceptShipment(ctx, domain.Principal{UserID: alice.ID, Role: domain.RoleJoiner}, g.ID)
	requireErrorType[*domain.AccessDeniedError](t, err)

	d, err := h.svc.Detail(ctx, p2, g.ID)
	require.NoError(t, err, "shippers preview groups awaiting a shipper")
	assert.Nil(t, d.ShipperID)

	got, err := h.svc.AcceptShipment(ctx, p1, g.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ShipperID)
	assert.Equal(t, ship1.ID, *got.ShipperID)

	_, err = h.svc.AcceptShipment(ctx, p2, g.ID)
	requireErrorType[*domain.ConflictError](t, err)
	_, err = h.svc.Detail(ctx, p2, g.ID)
	requireErrorType[*domain.AccessDeniedError](t, err)

	_, err = h.svc.CompleteShipment(ctx, p2, g.ID)
	requireErrorType[*domain.AccessDeniedError](t, err)

	got, err = h.svc.CompleteShipment(ctx, p1, g.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.GroupShipped, got.Status)
	assert.ElementsMatch(t, []string{mgr.ID, alice.ID}, h.sink.last().Payload.Recipients)

	_, err = h.svc.CompleteShipment(ctx, p1, g.ID)
	requireErrorType[*domain.ConflictError](t, err)
}

func TestDetailAuthorization(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	mgr := h.user(t, "mgr", domain.RoleManager)
	alice := h.user(t, "alice", domain.RoleJoiner)
	stranger := h.user(t, "stranger", domain.RoleJoiner)
	g := h.group(t, mgr)
	h.join(t, alice, g)

	_, err := h.svc.Detail(ctx, domain.Principal{UserID: stranger.ID, Role: domain.RoleJoiner}, g.ID)
	requireErrorType[*domain.AccessDeniedError](t, err)

	_, err = h.svc.Detail(ctx, domain.Principal{UserID: stranger.ID, Role: domain.RoleShipper}, g.ID)
	requireErrorType[*domain.AccessDeniedError](t, err)

	d, err := h.svc.Detail(ctx, domain.Principal{UserID: alice.ID, Role: domain.RoleJoiner}, g.ID)
	require.NoError(t, err)
	assert.Equal(t, mgr.ID, d.Manager.ID)

	_, err = h.svc.Detail(ctx, domain.Principal{UserID: mgr.ID}, "missing")
	requireErrorType[*domain.NotFoundError](t, err)
}

func TestList(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	mgr := h.user(t, "mgr", domain.RoleManager)
	alice := h.user(t, "alice", domain.RoleJoiner)
	shipper := h.user(t, "ship", domain.RoleShipper)
	g1 := h.group(t, mgr)
	g2 := h.group(t, mgr)
	h.join(t, alice, g1)

	l, err := h.svc.List(ctx, domain.Principal{UserID: alice.ID, Role: domain.RoleJoiner})
	require.NoError(t, err)
	require.NotNil(t, l.Relevant)
	assert.Empty(t, l.Relevant.Managed)
	require.Len(t, l.Relevant.Joined, 1)
	assert.Equal(t, g1.ID, l.Relevant.Joined[0].ID)

	l, err = h.svc.List(ctx, domain.Principal{UserID: shipper.ID, Role: domain.RoleShipper})
	require.NoError(t, err)
	assert.Nil(t, l.Relevant)
	assert.Len(t, l.All, 2)

	b, err := l.MarshalJSON()
	require.NoError(t, err)
	assert.Contains(t, string(b), g2.ID)
}

func TestEventSinkFailureDoesNotFailMutation(t *testing.T) {
	h := newHarness()
	h.sink.err = errors.New("outbox unavailable")
	mgr := h.user(t, "mgr", domain.RoleManager)

	g, err := h.svc.Create(context.Background(), mgr.ID, CreateInput{Name: "Tokyo run", Country: "JP"})
	require.NoError(t, err)
	assert.NotEmpty(t, g.ID)
}

// Create, invite, join, submit, approve, then read back the assembled view.
func TestApprovalScenario(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	mgr := h.user(t, "mgr", domain.RoleManager)
	joiner := h.user(t, "joiner", domain.RoleJoiner)

	g := h.group(t, mgr)
	_, err := h.svc.Invite(ctx, mgr.ID, g.ID, joiner.Email)
	require.NoError(t, err)
	h.join(t, joiner, g)
	o := h.submit(t, joiner, g, "matcha")

	_, err = h.svc.ApproveOrder(ctx, mgr.ID, o.ID)
	require.NoError(t, err)

	d, err := h.svc.Detail(ctx, domain.Principal{UserID: joiner.ID, Role: domain.RoleJoiner}, g.ID)
	require.NoError(t, err)
	require.Len(t, d.Users, 1)
	assert.Equal(t, joiner.ID, d.Users[0].ID)
	require.Len(t, d.Orders, 1)
	assert.Equal(t, domain.OrderApproved, d.Orders[0].Status)
	require.Len(t, d.Orders[0].User, 1)
	assert.Equal(t, "joiner", d.Orders[0].User[0].Name)

	assert.Equal(t, []string{
		models.EventGroupCreated,
		models.EventMemberInvited,
		models.EventMemberJoined,
		models.EventOrderSubmitted,
		models.EventOrderApproved,
	}, h.sink.types())
}
