package common

import (
	"testing"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestTwoDecimalPlaces(t *testing.T) {
	cases := []struct {
		value string
		want  bool
	}{
		{"0", true},
		{"10", true},
		{"10.5", true},
		{"10.50", true},
		{"10.555", false},
		{"0.001", false},
		{"-3.25", true},
		{"99.990", true}, // trailing zero, still two significant places
	}
	for _, tc := range cases {
		if got := TwoDecimalPlaces(d(tc.value)); got != tc.want {
			t.Errorf("TwoDecimalPlaces(%s) = %v, want %v", tc.value, got, tc.want)
		}
	}
}

func TestValidPrice(t *testing.T) {
	cases := []struct {
		value string
		want  bool
	}{
		{"100.00", true},
		{"0.01", true},
		{"0", false},
		{"-5.00", false},
		{"9.999", false},
	}
	for _, tc := range cases {
		if got := ValidPrice(d(tc.value)); got != tc.want {
			t.Errorf("ValidPrice(%s) = %v, want %v", tc.value, got, tc.want)
		}
	}
}

func TestValidRatio(t *testing.T) {
	cases := []struct {
		value string
		want  bool
	}{
		{"0.00", true},
		{"0.50", true},
		{"9.99", true},
		{"10.00", false},
		{"-0.01", false},
		{"0.125", false},
	}
	for _, tc := range cases {
		if got := ValidRatio(d(tc.value)); got != tc.want {
			t.Errorf("ValidRatio(%s) = %v, want %v", tc.value, got, tc.want)
		}
	}
}
