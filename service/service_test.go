package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"golang.org/x/crypto/bcrypt"

	"taxiapp/pkg/apperrors"
	"taxiapp/pkg/events"
	"taxiapp/pkg/filter"
	"taxiapp/pkg/logger"
	"taxiapp/pkg/models"
	"taxiapp/storage/memory"
)

const driverID = "a@x.com"

func init() {
	passwordCost = bcrypt.MinCost
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) names() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, e := range p.events {
		out = append(out, e.Name)
	}
	return out
}

func setup(t *testing.T, opts ...memory.Option) (IServiceManager, *recordingPublisher) {
	t.Helper()
	pub := &recordingPublisher{}
	svc := New(memory.New(opts...), pub, logger.NewNop(), time.Second)
	_, err := svc.Driver().Register(context.Background(), &models.DriverCreate{
		Email: driverID, Name: "Ann", LastName: "Lee", Password: "secret1",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	return svc, pub
}

func ptr[T any](v T) *T { return &v }

// Events are delivered concurrently, so their order is not fixed.
var sortStrings = cmpopts.SortSlices(func(a, b string) bool { return a < b })

func flush(t *testing.T, svc IServiceManager) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := svc.Flush(ctx); err != nil {
		t.Fatalf("Flush: %v", err)
	}
}

func TestGetWithoutCarIsNotFound(t *testing.T) {
	svc, _ := setup(t)
	_, err := svc.DriverCar().Get(context.Background(), driverID, nil)
	if !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("Get() error = %v, want not found", err)
	}
}

func TestCreateThenGet(t *testing.T) {
	svc, pub := setup(t)
	ctx := context.Background()
	payload := &models.CarCreate{Make: "Chevrolet", Model: "Cobalt", Plate: "01A123BC", Color: "white", Year: ptr(2021)}

	created, err := svc.DriverCar().Create(ctx, driverID, payload)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	got, err := svc.DriverCar().Get(ctx, driverID, nil)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}

	want := &models.Car{
		ID: created.ID, Make: "Chevrolet", Model: "Cobalt", Plate: "01A123BC", Color: "white",
		Year: ptr(2021), DriverEmail: driverID,
	}
	if diff := cmp.Diff(want, got, cmpopts.IgnoreFields(models.Car{}, "CreatedAt", "UpdatedAt")); diff != "" {
		t.Errorf("Get mismatch (-want +got):\n%s", diff)
	}
	flush(t, svc)
	if diff := cmp.Diff([]string{events.CarCreated}, pub.names()); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestCreateRejectsInvalidPayload(t *testing.T) {
	svc, pub := setup(t)
	_, err := svc.DriverCar().Create(context.Background(), driverID, &models.CarCreate{Year: ptr(3000)})
	var verr *apperrors.ValidationError
	if !errors.As(err, &verr) || len(verr.Details) != 2 {
		t.Fatalf("Create() error = %v, want validation error on plate and year", err)
	}
	flush(t, svc)
	if len(pub.names()) != 0 {
		t.Errorf("events published for a rejected create: %v", pub.names())
	}
}

func TestSecondCreateConflicts(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()
	if _, err := svc.DriverCar().Create(ctx, driverID, &models.CarCreate{Plate: "A1"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	_, err := svc.DriverCar().Create(ctx, driverID, &models.CarCreate{Plate: "B2"})
	if !errors.Is(err, apperrors.ErrConflict) {
		t.Fatalf("second Create error = %v, want conflict", err)
	}
	got, _ := svc.DriverCar().Get(ctx, driverID, nil)
	if got.Plate != "A1" {
		t.Errorf("plate = %q, first car was overwritten", got.Plate)
	}
}

func TestCreateForUnknownDriver(t *testing.T) {
	svc, _ := setup(t)
	_, err := svc.DriverCar().Create(context.Background(), "ghost@x.com", &models.CarCreate{Plate: "A1"})
	if !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("Create() error = %v, want not found", err)
	}
}

func TestPatchChangesOnlyGivenFields(t *testing.T) {
	svc, pub := setup(t)
	ctx := context.Background()
	if _, err := svc.DriverCar().Create(ctx, driverID, &models.CarCreate{Make: "Kia", Plate: "ABC123", Year: ptr(2015)}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	n, err := svc.DriverCar().Patch(ctx, driverID, &models.CarPatch{Plate: ptr("XYZ999")}, nil)
	if err != nil || n.Count != 1 {
		t.Fatalf("Patch = %v, %v; want count 1", n, err)
	}
	got, err := svc.DriverCar().Get(ctx, driverID, nil)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Plate != "XYZ999" || got.Make != "Kia" || *got.Year != 2015 {
		t.Errorf("after patch got %+v", got)
	}
	flush(t, svc)
	if diff := cmp.Diff([]string{events.CarCreated, events.CarUpdated}, pub.names(), sortStrings); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestPatchRejects(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()
	if _, err := svc.DriverCar().Create(ctx, driverID, &models.CarCreate{Plate: "ABC123"}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	cases := map[string]*models.CarPatch{
		"driver_email": {DriverEmail: ptr("b@x.com"), Plate: ptr("X")},
		"id":           {ID: ptr("other")},
		"empty":        {},
		"year range":   {Year: ptr(1200)},
	}
	for name, patch := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.DriverCar().Patch(ctx, driverID, patch, nil)
			if !errors.Is(err, apperrors.ErrValidation) {
				t.Fatalf("Patch() error = %v, want validation error", err)
			}
		})
	}

	got, _ := svc.DriverCar().Get(ctx, driverID, nil)
	if got.DriverEmail != driverID || got.Plate != "ABC123" {
		t.Errorf("rejected patches changed the car: %+v", got)
	}
}

func TestPatchWhereMismatch(t *testing.T) {
	svc, pub := setup(t)
	ctx := context.Background()
	if _, err := svc.DriverCar().Create(ctx, driverID, &models.CarCreate{Plate: "ABC123"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	w, err := filter.ParseWhere(`{"plate": "OTHER"}`, models.CarSchema)
	if err != nil {
		t.Fatalf("ParseWhere: %v", err)
	}

	n, err := svc.DriverCar().Patch(ctx, driverID, &models.CarPatch{Color: ptr("red")}, w)
	if err != nil || n.Count != 0 {
		t.Fatalf("Patch = %v, %v; want count 0", n, err)
	}
	flush(t, svc)
	if diff := cmp.Diff([]string{events.CarCreated}, pub.names()); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestDelete(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()
	if _, err := svc.DriverCar().Create(ctx, driverID, &models.CarCreate{Plate: "ABC123"}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	n, err := svc.DriverCar().Delete(ctx, driverID, nil)
	if err != nil || n.Count != 1 {
		t.Fatalf("Delete = %v, %v; want count 1", n, err)
	}
	if _, err := svc.DriverCar().Get(ctx, driverID, nil); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("Get after delete error = %v, want not found", err)
	}
	n, err = svc.DriverCar().Delete(ctx, driverID, nil)
	if err != nil || n.Count != 0 {
		t.Fatalf("Delete without car = %v, %v; want count 0", n, err)
	}
}

func TestConcurrentCreates(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, plate := range []string{"P1", "P2"} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = svc.DriverCar().Create(ctx, driverID, &models.CarCreate{Plate: plate})
		}()
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case !errors.Is(err, apperrors.ErrConflict):
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if succeeded != 1 {
		t.Fatalf("%d creates succeeded, want exactly 1", succeeded)
	}
}

func TestTimeout(t *testing.T) {
	pub := &recordingPublisher{}
	store := memory.New(memory.WithLatency(200 * time.Millisecond))
	svc := New(store, pub, logger.NewNop(), 20*time.Millisecond)

	_, err := svc.DriverCar().Get(context.Background(), driverID, nil)
	if !errors.Is(err, apperrors.ErrTimeout) {
		t.Fatalf("Get() error = %v, want timeout", err)
	}
}

func TestPublishFailureDoesNotFailWrite(t *testing.T) {
	svc, pub := setup(t)
	pub.err = errors.New("broker down")

	if _, err := svc.DriverCar().Create(context.Background(), driverID, &models.CarCreate{Plate: "A1"}); err != nil {
		t.Fatalf("Create() error = %v, want nil", err)
	}
	flush(t, svc)
	if diff := cmp.Diff([]string{events.CarCreated}, pub.names()); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
}

// blockingPublisher holds every event until release is closed or the
// publish context ends.
type blockingPublisher struct {
	recordingPublisher
	release chan struct{}
}

func (p *blockingPublisher) Publish(ctx context.Context, e events.Event) error {
	select {
	case <-p.release:
	case <-ctx.Done():
		return ctx.Err()
	}
	return p.recordingPublisher.Publish(ctx, e)
}

func TestSlowPublisherDoesNotBlockWrites(t *testing.T) {
	pub := &blockingPublisher{release: make(chan struct{})}
	svc := New(memory.New(), pub, logger.NewNop(), 50*time.Millisecond)
	ctx := context.Background()
	_, err := svc.Driver().Register(ctx, &models.DriverCreate{
		Email: driverID, Name: "Ann", LastName: "Lee", Password: "secret1",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	start := time.Now()
	if _, err := svc.DriverCar().Create(ctx, driverID, &models.CarCreate{Plate: "A1"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.DriverCar().Delete(ctx, driverID, nil); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("writes took %v while the publisher was stalled", elapsed)
	}

	short, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	if err := svc.Flush(short); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Flush with stalled publisher = %v, want deadline exceeded", err)
	}

	close(pub.release)
	flush(t, svc)
	got := pub.names()
	want := []string{events.CarCreated, events.CarDeleted}
	if diff := cmp.Diff(want, got, sortStrings); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestRegisterHashesPassword(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	d, err := svc.Driver().Get(ctx, driverID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if d.PasswordHash == "secret1" {
		t.Fatal("password stored in clear text")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(d.PasswordHash), []byte("secret1")); err != nil {
		t.Errorf("hash does not match password: %v", err)
	}

	_, err = svc.Driver().Register(ctx, &models.DriverCreate{Email: driverID, Name: "A", LastName: "B", Password: "secret1"})
	if !errors.Is(err, apperrors.ErrConflict) {
		t.Errorf("duplicate Register error = %v, want conflict", err)
	}
	_, err = svc.Driver().Register(ctx, &models.DriverCreate{Email: "not-an-email", Name: "A", LastName: "B", Password: "secret1"})
	if !errors.Is(err, apperrors.ErrValidation) {
		t.Errorf("Register with bad email error = %v, want validation", err)
	}
}

func TestEmptyDriverID(t *testing.T) {
	svc, _ := setup(t)
	_, err := svc.DriverCar().Get(context.Background(), " ", nil)
	if !errors.Is(err, apperrors.ErrValidation) {
		t.Fatalf("Get() error = %v, want validation", err)
	}
}
