package pharmacy

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestStockStatus(t *testing.T) {
	cases := []struct {
		qty  int
		want string
	}{
		{0, StockOut},
		{1, StockLow},
		{9, StockLow},
		{10, StockIn},
		{11, StockIn},
		{500, StockIn},
	}
	for _, tc := range cases {
		m := Medicine{StockQuantity: tc.qty}
		if got := m.StockStatus(); got != tc.want {
			t.Errorf("StockStatus(qty=%d) = %q, want %q", tc.qty, got, tc.want)
		}
	}
}

func TestMedicineJSON_CarriesDerivedStatus(t *testing.T) {
	m := &Medicine{Name: "Paracetamol", StockQuantity: 3}

	b, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(b), `"stock_status":"Low Stock"`) {
		t.Errorf("payload missing derived stock_status: %s", b)
	}
}
