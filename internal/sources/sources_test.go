package sources

import (
	"errors"
	"strings"
	"testing"

	"github.com/arturmamedov/react-cloudbeds-api-analytics-dashboard-sub001/internal/models"
	"github.com/arturmamedov/react-cloudbeds-api-analytics-dashboard-sub001/internal/normalize"
)

func TestCanonicalHeader(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"Reservation Number", models.FieldExternalID},
		{"reservationID", models.FieldExternalID},
		{"Booking Date", models.FieldBookedAt},
		{"Check-in", models.FieldCheckin},
		{"Arrival", models.FieldCheckin},
		{"Departure", models.FieldCheckout},
		{"Grand Total", models.FieldPrice},
		{"Source", models.FieldChannel},
		{" STATUS ", models.FieldStatus},
		{"Guest Name", ""},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			if got := CanonicalHeader(tt.header); got != tt.want {
				t.Errorf("CanonicalHeader(%q) = %q, want %q", tt.header, got, tt.want)
			}
		})
	}
}

func TestParseCSV(t *testing.T) {
	in := "\xef\xbb\xbfReport: January\n" +
		"Reservation Number,Guest Name,Booking Date,Arrival,Departure,Grand Total,Status,Source\n" +
		"R1,Ana,2025-01-06 10:00:00,2025-01-10,2025-01-12,\"1,200.00\",Confirmed,Website\n" +
		",,,,,,,\n" +
		"R2,Ben,2025-01-07,2025-01-07,2025-01-08,,Cancelled,Hostelworld\n"

	recs, err := ParseCSV(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ParseCSV: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("records = %d, want 2", len(recs))
	}
	if recs[0][models.FieldExternalID] != "R1" || recs[0][models.FieldPrice] != "1,200.00" {
		t.Errorf("first record = %v", recs[0])
	}
	if _, ok := recs[1].Get(models.FieldPrice); ok {
		t.Errorf("blank price should be absent, got %v", recs[1][models.FieldPrice])
	}

	bookings, skipped := normalize.NormalizeAll(recs, normalize.Source{PropertyID: "p1", Origin: models.OriginSpreadsheet}, nil)
	if len(skipped) != 0 || len(bookings) != 2 {
		t.Fatalf("normalized %d, skipped %v", len(bookings), skipped)
	}
	if bookings[0].Nights != 2 || bookings[0].Price.String() != "1200" {
		t.Errorf("booking = %+v", bookings[0])
	}
}

func TestParseCSVSemicolon(t *testing.T) {
	in := "Booking ID;Check-in;Check-out;Booked On;Price\nB7;10/01/2025;12/01/2025;01/01/2025;99,50\n"

	recs, err := ParseCSV(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ParseCSV: %v", err)
	}
	if len(recs) != 1 || recs[0][models.FieldPrice] != "99,50" {
		t.Fatalf("records = %v", recs)
	}
}

func TestParseCSVNoHeader(t *testing.T) {
	_, err := ParseCSV(strings.NewReader("a,b,c\n1,2,3\n"))
	if !errors.Is(err, ErrNoHeader) {
		t.Fatalf("err = %v, want ErrNoHeader", err)
	}
}

func TestParsePasteTabs(t *testing.T) {
	in := "Reservation\tArrival\tDeparture\tBooking Date\tTotal\n" +
		"R1\t2025-01-10\t2025-01-12\t2025-01-06\t80\n" +
		"\n" +
		"R2\t2025-01-11\t2025-01-13\t2025-01-06\t90\n"

	recs, err := ParsePaste(in)
	if err != nil {
		t.Fatalf("ParsePaste: %v", err)
	}
	if len(recs) != 2 || recs[1][models.FieldExternalID] != "R2" {
		t.Fatalf("records = %v", recs)
	}
}

func TestParsePasteHTML(t *testing.T) {
	in := `<p>copied</p>
<table><tr><td>nothing useful</td></tr></table>
<table>
  <thead><tr><th>Reservation Number</th><th>Check In</th><th>Check Out</th><th>Booking Date</th><th>Grand Total</th></tr></thead>
  <tbody>
    <tr><td> R9 </td><td>2025-02-03</td><td>2025-02-10</td><td>2025-01-20</td><td>€ 350.00</td></tr>
  </tbody>
</table>`

	recs, err := ParsePaste(in)
	if err != nil {
		t.Fatalf("ParsePaste: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("records = %d, want 1", len(recs))
	}
	if recs[0][models.FieldExternalID] != "R9" || recs[0][models.FieldCheckout] != "2025-02-10" {
		t.Errorf("record = %v", recs[0])
	}
}

func TestValuesToRecords(t *testing.T) {
	values := [][]any{
		{"Reservation ID", "Check-in", "Check-out", "Booking Date", "Total"},
		{"R1", float64(45667), float64(45670), float64(45659), float64(120)},
		{},
	}

	recs, err := ValuesToRecords(values)
	if err != nil {
		t.Fatalf("ValuesToRecords: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("records = %d", len(recs))
	}
	if _, ok := recs[0][models.FieldCheckin].(float64); !ok {
		t.Errorf("numeric cell lost its type: %#v", recs[0][models.FieldCheckin])
	}

	b, err := normalize.Normalize(recs[0], normalize.Source{PropertyID: "p1", Origin: models.OriginSpreadsheet})
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if b.Nights != 3 || b.LeadTime != 8 {
		t.Errorf("nights=%d lead=%d, want 3/8", b.Nights, b.LeadTime)
	}
}
