package main

import (
	"errors"
	"testing"

	"github.com/phonghmnguyen/atm/ledger"
)

func TestParseSeed(t *testing.T) {
	testCases := []struct {
		desc          string
		list          string
		expected      map[string]string
		expectedError error
	}{
		{
			desc: "Default demo accounts",
			list: defaultSeed,
			expected: map[string]string{
				"123456789": "1000.00",
				"987654321": "2500.00",
				"555555555": "500.00",
			},
		},
		{
			desc:     "Empty list",
			list:     "",
			expected: map[string]string{},
		},
		{
			desc:     "Spaces and trailing comma",
			list:     " A1 = 10.5 , B2=0,",
			expected: map[string]string{"A1": "10.50", "B2": "0.00"},
		},
		{
			desc:     "Later entry wins",
			list:     "A1=1,A1=2",
			expected: map[string]string{"A1": "2.00"},
		},
		{
			desc:          "Negative balance",
			list:          "A1=-1",
			expectedError: ledger.ErrInvalidAmount,
		},
		{
			desc:          "Too many decimals",
			list:          "A1=1.001",
			expectedError: ledger.ErrInvalidAmount,
		},
		{
			desc:          "Blank id",
			list:          " =5",
			expectedError: ledger.ErrInvalidAccount,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			seed, err := parseSeed(tc.list)
			if tc.expectedError != nil {
				if !errors.Is(err, tc.expectedError) {
					t.Fatalf("Expected error %v, got %v", tc.expectedError, err)
				}
				return
			}

			if err != nil {
				t.Fatalf("Unexpected error %v", err)
			}

			if len(seed) != len(tc.expected) {
				t.Fatalf("Expected %d accounts, got %d", len(tc.expected), len(seed))
			}

			for id, balance := range tc.expected {
				if got := ledger.FormatAmount(seed[id]); got != balance {
					t.Errorf("Expected %s to hold %s, got %s", id, balance, got)
				}
			}
		})
	}

	if _, err := parseSeed("A1"); err == nil {
		t.Errorf("Expected an entry without '=' to be rejected")
	}
}
