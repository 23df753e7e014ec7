package limits

import "testing"

func TestCheck_WithinLimits(t *testing.T) {
	l := NewSpendLimiter(100000, 500000)
	if err := l.Check(50000, 100000); err != nil {
		t.Errorf("expected bet within limits, got %v", err)
	}
}

func TestCheck_PerBetCap(t *testing.T) {
	l := NewSpendLimiter(100000, 500000)
	if err := l.Check(100001, 0); err != ErrBetTooLarge {
		t.Errorf("expected ErrBetTooLarge, got %v", err)
	}
	// Exactly at the cap is allowed.
	if err := l.Check(100000, 0); err != nil {
		t.Errorf("bet at the cap should pass, got %v", err)
	}
}

func TestCheck_PerMarketCap(t *testing.T) {
	l := NewSpendLimiter(100000, 500000)
	if err := l.Check(100000, 450000); err != ErrMarketExposureExceeded {
		t.Errorf("expected ErrMarketExposureExceeded, got %v", err)
	}
	if err := l.Check(50000, 450000); err != nil {
		t.Errorf("spend reaching the cap exactly should pass, got %v", err)
	}
}

func TestCheck_ZeroCapDisables(t *testing.T) {
	l := NewSpendLimiter(0, 0)
	if err := l.Check(1<<40, 1<<40); err != nil {
		t.Errorf("zero caps should disable checks, got %v", err)
	}
}

func TestCheck_NilLimiter(t *testing.T) {
	var l *SpendLimiter
	if err := l.Check(100, 100); err != nil {
		t.Errorf("nil limiter should allow everything, got %v", err)
	}
}
