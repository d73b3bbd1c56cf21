package signals

import "testing"

func TestTable_OneHandlerPerKind(t *testing.T) {
	tbl := NewTable()
	var first, second int
	tbl.Handle(Online, func() { first++ })
	tbl.Handle(Online, func() { second++ })

	if !tbl.Dispatch(Online) {
		t.Fatalf("Dispatch(Online) = false, want true")
	}
	if first != 0 || second != 1 {
		t.Fatalf("first=%d second=%d, want replaced handler only", first, second)
	}
}

func TestTable_DispatchWithoutHandler(t *testing.T) {
	tbl := NewTable()
	if tbl.Dispatch(Blur) {
		t.Fatalf("Dispatch(Blur) = true with no handler")
	}
	tbl.Handle(Blur, func() {})
	tbl.Handle(Blur, nil)
	if tbl.Dispatch(Blur) {
		t.Fatalf("Dispatch(Blur) = true after handler removed")
	}
}

func TestParse_RoundTripsNames(t *testing.T) {
	for k := Online; k <= AppSwitch; k++ {
		got, err := Parse(k.String())
		if err != nil {
			t.Fatalf("Parse(%q) returned error: %v", k.String(), err)
		}
		if got != k {
			t.Fatalf("Parse(%q) = %v, want %v", k.String(), got, k)
		}
	}
	if _, err := Parse("sideways"); err == nil {
		t.Fatalf("Parse(sideways) returned nil error")
	}
}
