package service

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sangkips/recibo-api/internal/domain/entity"
	"github.com/sangkips/recibo-api/internal/domain/enum"
	domainRepo "github.com/sangkips/recibo-api/internal/domain/repository"
	"github.com/sangkips/recibo-api/internal/infrastructure/memory"
	"github.com/sangkips/recibo-api/internal/logger"
	"github.com/sangkips/recibo-api/internal/telemetry"
	"github.com/sangkips/recibo-api/pkg/apperror"
	"github.com/sangkips/recibo-api/pkg/callnumber"
	"github.com/sangkips/recibo-api/pkg/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []notify.Event
	err    error
}

func (n *recordingNotifier) Publish(ctx context.Context, event notify.Event) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.events = append(n.events, event)
	return nil
}

func (n *recordingNotifier) Close() error { return nil }

func (n *recordingNotifier) names() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.events))
	for i, e := range n.events {
		out[i] = e.Name
	}
	return out
}

// fullStore hands every build a live set holding all call numbers
type fullStore struct {
	*memory.ReceiptStore
}

func (s fullStore) Create(ctx context.Context, build domainRepo.BuildFunc) (*entity.Receipt, error) {
	live := callnumber.NewSet()
	for i := 0; i < callnumber.Space; i++ {
		live.Add(callnumber.Format(i))
	}
	return build(live)
}

type orderFixture struct {
	svc      *OrderService
	store    *memory.ReceiptStore
	notifier *recordingNotifier
	metrics  *telemetry.ReceiptMetrics
}

func newOrderFixture(t *testing.T, source callnumber.Source) *orderFixture {
	t.Helper()

	store := memory.NewReceiptStore()
	notifier := &recordingNotifier{}
	metrics := telemetry.NewReceiptMetrics(prometheus.NewRegistry(), "test")
	builder := NewReceiptBuilder(callnumber.NewAllocator(source), func() time.Time { return fixedNow })

	return &orderFixture{
		svc:      NewOrderService(store, builder, notifier, metrics, logger.Discard()),
		store:    store,
		notifier: notifier,
		metrics:  metrics,
	}
}

func burgerAndSoda() []entity.CartLine {
	return []entity.CartLine{
		{Name: "Burger", Quantity: 2, UnitPrice: 1500},
		{Name: "Soda", Quantity: 3, UnitPrice: 500},
	}
}

func TestOrderService_CreateOrder(t *testing.T) {
	f := newOrderFixture(t, &seqSource{draws: []int{42}})
	ctx := context.Background()

	r, err := f.svc.CreateOrder(ctx, &CreateOrderInput{
		Lines:         burgerAndSoda(),
		Notes:         " sem cebola ",
		PaymentMethod: "PIX",
	})
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, r.ID)
	assert.Equal(t, "0042", r.CallNumber)
	assert.Equal(t, int64(4500), r.Total)
	assert.Equal(t, "sem cebola", r.Notes)
	assert.Equal(t, enum.ServiceTypeNormal, r.ServiceType)
	assert.True(t, r.CreatedAt.Equal(fixedNow))
	assert.Len(t, r.Lines, 2)

	got, err := f.svc.GetOrderByCallNumber(ctx, "0042")
	require.NoError(t, err)
	assert.Equal(t, r.ID, got.ID)

	byID, err := f.svc.GetOrder(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, r.CallNumber, byID.CallNumber)

	assert.Equal(t, []string{notify.EventReceiptCreated}, f.notifier.names())
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.ReceiptsCreated.WithLabelValues("NORMAL")))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.ReceiptsLive))
}

func TestOrderService_CreateOrder_EmptyCart(t *testing.T) {
	f := newOrderFixture(t, nil)
	ctx := context.Background()

	_, err := f.svc.CreateOrder(ctx, &CreateOrderInput{PaymentMethod: "PIX"})
	assert.ErrorIs(t, err, apperror.ErrEmptyCart)
	assert.Equal(t, 0, f.store.Len())
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.CreateFailures.WithLabelValues("empty_cart")))

	r, err := f.svc.CreateOrder(ctx, &CreateOrderInput{ServiceType: "preferencial"})
	require.NoError(t, err)
	assert.Equal(t, enum.ServiceTypePreferential, r.ServiceType)
	assert.NotNil(t, r.Lines)
	assert.Empty(t, r.Lines)
	assert.Equal(t, int64(0), r.Total)
}

func TestOrderService_CreateOrder_Validation(t *testing.T) {
	f := newOrderFixture(t, nil)
	ctx := context.Background()

	tests := []struct {
		name   string
		input  CreateOrderInput
		fields []string
	}{
		{
			name:   "unknown service type",
			input:  CreateOrderInput{Lines: burgerAndSoda(), ServiceType: "VIP"},
			fields: []string{"tipoAtendimento"},
		},
		{
			name:   "blank name",
			input:  CreateOrderInput{Lines: []entity.CartLine{{Name: "  ", Quantity: 1, UnitPrice: 100}}},
			fields: []string{"itens[0].nome"},
		},
		{
			name: "bad quantity and price",
			input: CreateOrderInput{Lines: []entity.CartLine{
				{Name: "Burger", Quantity: 1, UnitPrice: 100},
				{Name: "Soda", Quantity: 0, UnitPrice: -5},
			}},
			fields: []string{"itens[1].quantidade", "itens[1].preco"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := tt.input
			_, err := f.svc.CreateOrder(ctx, &input)
			require.Error(t, err)

			appErr := apperror.GetAppError(err)
			assert.Equal(t, http.StatusUnprocessableEntity, appErr.Code)
			var fields []string
			for _, fe := range appErr.Errors {
				fields = append(fields, fe.Field)
			}
			assert.Equal(t, tt.fields, fields)
		})
	}
	assert.Equal(t, 0, f.store.Len())
}

func TestOrderService_CreateOrder_Exhausted(t *testing.T) {
	store := fullStore{memory.NewReceiptStore()}
	metrics := telemetry.NewReceiptMetrics(prometheus.NewRegistry(), "test")
	svc := NewOrderService(store, NewReceiptBuilder(nil, nil), nil, metrics, logger.Discard())

	_, err := svc.CreateOrder(context.Background(), &CreateOrderInput{Lines: burgerAndSoda()})
	assert.ErrorIs(t, err, apperror.ErrCallNumbersExhausted)
	assert.Equal(t, http.StatusServiceUnavailable, apperror.GetAppError(err).Code)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.CreateFailures.WithLabelValues("exhausted")))
}

func TestOrderService_CreateOrder_CollisionRetry(t *testing.T) {
	f := newOrderFixture(t, &seqSource{draws: []int{7, 7, 7, 8}})
	ctx := context.Background()

	first, err := f.svc.CreateOrder(ctx, &CreateOrderInput{Lines: burgerAndSoda()})
	require.NoError(t, err)
	second, err := f.svc.CreateOrder(ctx, &CreateOrderInput{Lines: burgerAndSoda()})
	require.NoError(t, err)

	assert.Equal(t, "0007", first.CallNumber)
	assert.Equal(t, "0008", second.CallNumber)
}

func TestOrderService_NotifierFailureIsNotReturned(t *testing.T) {
	f := newOrderFixture(t, nil)
	f.notifier.err = errors.New("nats down")

	_, err := f.svc.CreateOrder(context.Background(), &CreateOrderInput{Lines: burgerAndSoda()})
	require.NoError(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.NotificationsFailed))
}

func TestOrderService_RequestPreferentialService(t *testing.T) {
	f := newOrderFixture(t, nil)
	ctx := context.Background()

	_, err := f.svc.CreateOrder(ctx, &CreateOrderInput{Lines: burgerAndSoda()})
	require.NoError(t, err)
	pref, err := f.svc.RequestPreferentialService(ctx, "cadeirante")
	require.NoError(t, err)
	_, err = f.svc.CreateOrder(ctx, &CreateOrderInput{Lines: burgerAndSoda(), ServiceType: "PREFERENCIAL"})
	require.NoError(t, err)

	assert.Equal(t, enum.PaymentPreferentialOnly, pref.PaymentMethod)
	assert.Equal(t, "cadeirante", pref.Notes)

	pending, err := f.svc.ListPendingPreferential(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, pref.ID, pending[0].ID)

	all, err := f.svc.ListOrders(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
	assert.Equal(t, pref.ID, all[1].ID)
}

func TestOrderService_NotFound(t *testing.T) {
	f := newOrderFixture(t, nil)
	ctx := context.Background()

	_, err := f.svc.GetOrder(ctx, uuid.New())
	assert.True(t, apperror.IsNotFound(err))

	for _, code := range []string{"0000", "12", "abcd", "12345", ""} {
		_, err := f.svc.GetOrderByCallNumber(ctx, code)
		assert.True(t, apperror.IsNotFound(err), "code %q", code)
	}

	notes := "x"
	_, err = f.svc.UpdateOrder(ctx, uuid.New(), &UpdateOrderInput{Notes: &notes})
	assert.True(t, apperror.IsNotFound(err))
}

func TestOrderService_UpdateOrder(t *testing.T) {
	f := newOrderFixture(t, &seqSource{draws: []int{1234}})
	ctx := context.Background()

	r, err := f.svc.CreateOrder(ctx, &CreateOrderInput{Lines: burgerAndSoda(), PaymentMethod: "PIX"})
	require.NoError(t, err)

	notes := "para viagem"
	lines := []entity.CartLine{{Name: "Burger", Quantity: 1, UnitPrice: 1500}}
	updated, err := f.svc.UpdateOrder(ctx, r.ID, &UpdateOrderInput{Notes: &notes, Lines: &lines})
	require.NoError(t, err)

	assert.Equal(t, "1234", updated.CallNumber)
	assert.Equal(t, r.ID, updated.ID)
	assert.Equal(t, int64(1500), updated.Total)
	assert.Equal(t, "para viagem", updated.Notes)
	assert.Equal(t, "PIX", updated.PaymentMethod)
	assert.True(t, updated.CreatedAt.Equal(r.CreatedAt))

	stored, err := f.svc.GetOrderByCallNumber(ctx, "1234")
	require.NoError(t, err)
	assert.Equal(t, int64(1500), stored.Total)
	require.Len(t, stored.Lines, 1)

	empty := []entity.CartLine{}
	_, err = f.svc.UpdateOrder(ctx, r.ID, &UpdateOrderInput{Lines: &empty})
	assert.ErrorIs(t, err, apperror.ErrEmptyCart)

	assert.Equal(t, []string{notify.EventReceiptCreated, notify.EventReceiptUpdated}, f.notifier.names())
}

// barrierStore holds every Update until all expected callers have arrived
type barrierStore struct {
	*memory.ReceiptStore
	arrived *sync.WaitGroup
}

func (s barrierStore) Update(ctx context.Context, id uuid.UUID, mutate domainRepo.MutateFunc) (*entity.Receipt, error) {
	s.arrived.Done()
	s.arrived.Wait()
	return s.ReceiptStore.Update(ctx, id, mutate)
}

func TestOrderService_ConcurrentPartialUpdates(t *testing.T) {
	store := memory.NewReceiptStore()
	arrived := &sync.WaitGroup{}
	arrived.Add(2)
	builder := NewReceiptBuilder(callnumber.NewAllocator(&seqSource{draws: []int{7}}), func() time.Time { return fixedNow })
	svc := NewOrderService(barrierStore{store, arrived}, builder, nil, nil, logger.Discard())
	ctx := context.Background()

	r, err := svc.CreateOrder(ctx, &CreateOrderInput{Lines: burgerAndSoda(), PaymentMethod: "PIX"})
	require.NoError(t, err)

	notes := "sem cebola"
	payment := "CARTAO"
	inputs := []*UpdateOrderInput{{Notes: &notes}, {PaymentMethod: &payment}}

	var wg sync.WaitGroup
	for _, in := range inputs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.UpdateOrder(ctx, r.ID, in)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := svc.GetOrder(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, "sem cebola", got.Notes)
	assert.Equal(t, "CARTAO", got.PaymentMethod)
	assert.Equal(t, int64(4500), got.Total)
	assert.Len(t, got.Lines, 2)
}

func TestOrderService_UpdateOrder_RejectedLeavesReceipt(t *testing.T) {
	f := newOrderFixture(t, &seqSource{draws: []int{55}})
	ctx := context.Background()

	r, err := f.svc.CreateOrder(ctx, &CreateOrderInput{Lines: burgerAndSoda(), Notes: "antes"})
	require.NoError(t, err)

	notes := "depois"
	empty := []entity.CartLine{}
	_, err = f.svc.UpdateOrder(ctx, r.ID, &UpdateOrderInput{Notes: &notes, Lines: &empty})
	assert.ErrorIs(t, err, apperror.ErrEmptyCart)

	got, err := f.svc.GetOrder(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, "antes", got.Notes)
	assert.Equal(t, int64(4500), got.Total)
}

func TestOrderService_ClearAllOrders(t *testing.T) {
	f := newOrderFixture(t, &seqSource{draws: []int{5}})
	ctx := context.Background()

	r, err := f.svc.CreateOrder(ctx, &CreateOrderInput{Lines: burgerAndSoda()})
	require.NoError(t, err)

	require.NoError(t, f.svc.ClearAllOrders(ctx))

	all, err := f.svc.ListOrders(ctx)
	require.NoError(t, err)
	assert.NotNil(t, all)
	assert.Empty(t, all)

	_, err = f.svc.GetOrder(ctx, r.ID)
	assert.True(t, apperror.IsNotFound(err))

	again, err := f.svc.CreateOrder(ctx, &CreateOrderInput{Lines: burgerAndSoda()})
	require.NoError(t, err)
	assert.Equal(t, "0005", again.CallNumber)

	assert.Contains(t, f.notifier.names(), notify.EventReceiptsCleared)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.ReceiptsCleared))
}

func TestOrderService_ConcurrentCreate(t *testing.T) {
	f := newOrderFixture(t, nil)
	ctx := context.Background()

	const n = 50
	var wg sync.WaitGroup
	codes := make([]string, n)
	errs := make([]error, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r, err := f.svc.CreateOrder(ctx, &CreateOrderInput{Lines: burgerAndSoda()})
			errs[i] = err
			if err == nil {
				codes[i] = r.CallNumber
			}
		}(i)
	}
	wg.Wait()

	seen := make(map[string]struct{}, n)
	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		seen[codes[i]] = struct{}{}

		got, err := f.svc.GetOrderByCallNumber(ctx, codes[i])
		require.NoError(t, err)
		assert.Equal(t, codes[i], got.CallNumber)
	}
	assert.Len(t, seen, n)
	assert.Equal(t, n, f.store.Len())
}

func TestOrderService_AutoPrint(t *testing.T) {
	f := newOrderFixture(t, &seqSource{draws: []int{99, 100}})
	p := &recordingPrinter{}
	f.svc.EnableAutoPrint(NewPrinterService(p, f.store, "Lanchonete", 32, nil, logger.Discard()))

	_, err := f.svc.CreateOrder(context.Background(), &CreateOrderInput{Lines: burgerAndSoda()})
	require.NoError(t, err)
	require.Len(t, p.jobs, 1)

	p.err = errors.New("offline")
	_, err = f.svc.CreateOrder(context.Background(), &CreateOrderInput{Lines: burgerAndSoda()})
	assert.NoError(t, err)
}
