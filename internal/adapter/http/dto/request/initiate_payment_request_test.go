package request

import (
	"errors"
	"testing"
)

func TestInitiatePaymentRequest_ResolvePhone(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"0712345678", "254712345678"},
		{"0112345678", "254112345678"},
		{"+254712345678", "254712345678"},
		{"254712345678", "254712345678"},
		{" 0712 345 678 ", "254712345678"},
	}
	for _, c := range cases {
		got, err := InitiatePaymentRequest{PhoneNumber: c.in}.ResolvePhone()
		if err != nil {
			t.Fatalf("%q: unexpected error: %v", c.in, err)
		}
		if got != c.want {
			t.Fatalf("%q: expected %q, got %q", c.in, c.want, got)
		}
	}

	for _, bad := range []string{"", "12345", "07123456789", "25471234567a", "441234567890"} {
		if _, err := (InitiatePaymentRequest{PhoneNumber: bad}).ResolvePhone(); !errors.Is(err, ErrInvalidPhoneFormat) {
			t.Fatalf("%q: expected ErrInvalidPhoneFormat, got %v", bad, err)
		}
	}
}
