package grpc

import (
	"context"
	"net"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"easyapt/backend/internal/domain"
	"easyapt/backend/internal/service/booking"
	"easyapt/backend/internal/store/memory"
)

func startTestServer(t *testing.T) *BookingServiceClient {
	t.Helper()

	clock := domain.NewFixedClock(time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC))
	st := memory.NewStore(clock)
	svc := booking.NewService(st, st, booking.WithClock(clock), booking.WithLogger(quietLogger()))

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer(grpc.UnaryInterceptor(RequestTimeoutInterceptor(5 * time.Second)))
	RegisterBookingServiceServer(srv, NewBookingServer(svc, quietLogger()))
	go func() {
		_ = srv.Serve(lis)
	}()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient(
		"passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("NewClient error: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return NewBookingServiceClient(conn)
}

func TestBookingService_RoundTrip(t *testing.T) {
	client := startTestServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	created, err := client.CreateProvider(ctx, &CreateProviderRequest{
		Name:       "Dr. Alice Carter",
		Specialty:  "Family Medicine",
		TimeZone:   "America/Chicago",
		ClinicName: "Downtown Health",
	})
	if err != nil {
		t.Fatalf("CreateProvider error: %v", err)
	}
	slug := created.Provider.Slug

	var hours []HoursRule
	for wd := 0; wd < 5; wd++ {
		hours = append(hours, HoursRule{Weekday: wd, Start: "09:00", End: "17:00"})
	}
	if _, err := client.SetWeeklyHours(ctx, &SetWeeklyHoursRequest{ProviderSlug: slug, Hours: hours}); err != nil {
		t.Fatalf("SetWeeklyHours error: %v", err)
	}

	from := time.Date(2026, 10, 19, 5, 0, 0, 0, time.UTC)
	to := from.Add(24 * time.Hour)
	avail, err := client.GetAvailability(ctx, &GetAvailabilityRequest{ProviderSlug: slug, From: &from, To: &to})
	if err != nil {
		t.Fatalf("GetAvailability error: %v", err)
	}
	if len(avail.Days) != 1 || len(avail.Days[0].Slots) != 16 || avail.Days[0].Slots[0].LocalStart != "09:00" {
		t.Fatalf("availability = %+v", avail.Days)
	}

	keyed := metadata.AppendToOutgoingContext(ctx, "idempotency-key", "req-1")
	req := &BookAppointmentRequest{ProviderSlug: slug, PatientEmail: "pat@example.com", SlotStart: "2026-10-19T09:00"}
	first, err := client.BookAppointment(keyed, req)
	if err != nil {
		t.Fatalf("BookAppointment error: %v", err)
	}
	again, err := client.BookAppointment(keyed, req)
	if err != nil {
		t.Fatalf("BookAppointment replay error: %v", err)
	}
	if again.Appointment.ID != first.Appointment.ID {
		t.Fatalf("replay id = %s, want %s", again.Appointment.ID, first.Appointment.ID)
	}

	_, err = client.BookAppointment(ctx, req)
	if status.Code(err) != codes.FailedPrecondition {
		t.Fatalf("double booking code = %s, want %s", status.Code(err), codes.FailedPrecondition)
	}

	_, err = client.BookAppointment(ctx, &BookAppointmentRequest{ProviderSlug: slug, PatientEmail: "pat@example.com", SlotStart: "2026-10-17T12:30:00Z"})
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("too soon code = %s, want %s", status.Code(err), codes.InvalidArgument)
	}

	canceled, err := client.CancelAppointment(ctx, &CancelAppointmentRequest{AppointmentID: first.Appointment.ID})
	if err != nil {
		t.Fatalf("CancelAppointment error: %v", err)
	}
	if !canceled.Changed || canceled.Appointment.Status != "canceled" || canceled.Appointment.CanceledAt == nil {
		t.Fatalf("cancel = %+v", canceled)
	}

	zone, err := client.DescribeTimeZone(ctx, &DescribeTimeZoneRequest{TimeZone: "America/Chicago"})
	if err != nil {
		t.Fatalf("DescribeTimeZone error: %v", err)
	}
	if zone.Offset != "UTC-05:00" || !zone.DST {
		t.Fatalf("zone = %+v", zone)
	}

	_, err = client.GetProvider(ctx, &GetProviderRequest{Slug: "nobody"})
	if status.Code(err) != codes.NotFound {
		t.Fatalf("missing provider code = %s, want %s", status.Code(err), codes.NotFound)
	}
}
