package quote

import "testing"

func TestClassify(t *testing.T) {
	if Classify(-0.0001) != TrendLoss {
		t.Error("negative change should classify as loss")
	}
	if Classify(0) != TrendSame {
		t.Error("zero change should classify as same")
	}
	if Classify(0.0001) != TrendGain {
		t.Error("positive change should classify as gain")
	}
}

func TestConvert(t *testing.T) {
	t.Run("USD Decimals Scale With Magnitude", func(t *testing.T) {
		cases := []struct {
			price float64
			want  int
		}{
			{42000, 2},
			{1, 2},
			{0.5, 3},
			{0.01, 3},
			{0.0042, 4},
		}
		for _, tc := range cases {
			got := Convert(tc.price, "USD", 1, "$")
			if got.Decimals != tc.want {
				t.Errorf("price %v: expected %d decimals, got %d", tc.price, tc.want, got.Decimals)
			}
			if got.Value != tc.price {
				t.Errorf("price %v: USD conversion must pass through, got %v", tc.price, got.Value)
			}
			if got.Prefix != "$" {
				t.Errorf("expected $ prefix, got %q", got.Prefix)
			}
		}
	})

	t.Run("Cross Quote Uses Eight Decimals", func(t *testing.T) {
		got := Convert(150, "BTC", 45000, "₿")
		if got.Decimals != 8 {
			t.Errorf("expected 8 decimals, got %d", got.Decimals)
		}
		if got.Value != 0.00333333 {
			t.Errorf("expected 0.00333333, got %v", got.Value)
		}
	})

	t.Run("Zero Quote Price Converts To Zero", func(t *testing.T) {
		got := Convert(150, "ETH", 0, "Ξ")
		if got.Value != 0 {
			t.Errorf("expected 0, got %v", got.Value)
		}
	})

	t.Run("Repeated Conversion Is Stable", func(t *testing.T) {
		first := Convert(63421.55512, "BTC", 63999.123, "₿")
		for i := 0; i < 10000; i++ {
			again := Convert(63421.55512, "BTC", 63999.123, "₿")
			if again.Value != first.Value {
				t.Fatalf("conversion drifted after %d rounds: %v != %v", i, again.Value, first.Value)
			}
		}
	})
}

func TestRound8(t *testing.T) {
	if got := Round8(0.123456785); got != 0.12345679 {
		t.Errorf("expected round half up at 8 decimals, got %v", got)
	}
	if got := Round8(2); got != 2 {
		t.Errorf("integers should survive rounding, got %v", got)
	}
}

func TestChange(t *testing.T) {
	change, percent, trend := Change(100, 105)
	if change != 5 || percent != 5 || trend != TrendGain {
		t.Errorf("unexpected change calc: %v %v %v", change, percent, trend)
	}
	change, percent, trend = Change(0, 50)
	if percent != 0 || trend != TrendGain || change != 50 {
		t.Errorf("zero open must not divide: %v %v %v", change, percent, trend)
	}
}

func TestTable(t *testing.T) {
	tbl := NewTable()

	t.Run("Defaults To Dollar", func(t *testing.T) {
		q := tbl.Selected()
		if q.Symbol != "USD" || q.USDPrice != 1 {
			t.Errorf("unexpected default quote: %+v", q)
		}
	})

	t.Run("Tracks Registered Quotes Only", func(t *testing.T) {
		tbl.UpdatePrice("bitcoin", 64000)
		tbl.UpdatePrice("dogecoin", 0.1)
		tbl.UpdatePrice("dollar", 2) // base is pinned at 1

		found := false
		for _, q := range tbl.List() {
			switch q.Uniq {
			case "bitcoin":
				found = true
				if q.USDPrice != 64000 {
					t.Errorf("expected bitcoin price cached, got %v", q.USDPrice)
				}
			case "dollar":
				if q.USDPrice != 1 {
					t.Errorf("dollar price must stay 1, got %v", q.USDPrice)
				}
			}
		}
		if !found {
			t.Error("bitcoin quote missing from list")
		}
	})

	t.Run("Select", func(t *testing.T) {
		if tbl.Select("dogecoin") {
			t.Error("unknown quote should be rejected")
		}
		if !tbl.Select("bitcoin") {
			t.Fatal("bitcoin quote should be selectable")
		}
		if q := tbl.Selected(); q.Symbol != "BTC" || q.Prefix != "₿" {
			t.Errorf("unexpected selected quote: %+v", q)
		}
	})
}
