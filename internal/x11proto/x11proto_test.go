package x11proto

import (
	"testing"

	"github.com/emacs-exwm/xelb"
	"github.com/emacs-exwm/xelb/wire"
	"github.com/google/go-cmp/cmp"
)

// TestCreateWindowRoundTrip exercises a request: opcode preamble and a
// fieldref-sized list. The descriptor has no pad-align field, so the
// request-length compensation is not exercised here.
func TestCreateWindowRoundTrip(t *testing.T) {
	s := xelb.New(CreateWindowDescriptor)
	s.Set("depth", uint64(24))
	s.Set("wid", uint64(0x00200001))
	s.Set("parent", uint64(0x00000001))
	s.Set("x", int64(0))
	s.Set("y", int64(0))
	s.Set("width", uint64(640))
	s.Set("height", uint64(480))
	s.Set("border-width", uint64(0))
	s.Set("class", uint64(0))
	s.Set("visual", uint64(0))
	s.Set("value-mask", uint64(0x00000002))
	s.Set("value-list-len", int64(1))
	s.Set("value-list", []any{uint64(1)})

	out, err := xelb.Marshal(s, nil, nil)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if out[0] != 1 {
		t.Fatalf("opcode = %d, want 1", out[0])
	}

	decoded := xelb.New(CreateWindowDescriptor)
	decoded.Set("value-list-len", int64(1))
	n, err := xelb.Unmarshal(decoded, out, nil, 0)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if n != len(out) {
		t.Fatalf("consumed %d bytes, want %d", n, len(out))
	}
	for _, name := range []string{"wid", "parent", "width", "height", "value-mask"} {
		got, _ := decoded.Get(name)
		want, _ := s.Get(name)
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("field %q mismatch (-want +got):\n%s", name, diff)
		}
	}
}

// TestConfigureNotifyZeroPadded checks that a 23-byte event body (27
// bytes with the 4-byte preamble) is padded out to the 32-byte event
// minimum.
func TestConfigureNotifyZeroPadded(t *testing.T) {
	s := xelb.New(ConfigureNotifyDescriptor, xelb.WithByteOrder(wire.BigEndian))
	s.Set("_code", uint64(22))
	s.Set("sequence", uint64(7))
	s.Set("event", uint64(1))
	s.Set("window", uint64(1))
	s.Set("above-sibling", uint64(0))
	s.Set("x", int64(10))
	s.Set("y", int64(20))
	s.Set("width", uint64(300))
	s.Set("height", uint64(200))
	s.Set("border-width", uint64(0))
	s.Set("override-redirect", uint64(0))

	out, err := xelb.Marshal(s, nil, nil)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if len(out) != xelb.EventMinimumBytes {
		t.Fatalf("len(out) = %d, want %d", len(out), xelb.EventMinimumBytes)
	}
	if out[0] != 22 {
		t.Fatalf("code = %d, want 22", out[0])
	}
}

// TestWindowErrorRoundTrip exercises the error class's 0-marker, code,
// and sequence preamble.
func TestWindowErrorRoundTrip(t *testing.T) {
	s := xelb.New(WindowErrorDescriptor)
	s.Set("code", uint64(3))
	s.Set("sequence", uint64(42))
	s.Set("bad-resource-id", uint64(0xdeadbeef))
	s.Set("minor-opcode", uint64(0))
	s.Set("major-opcode", uint64(1))

	out, err := xelb.Marshal(s, nil, nil)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if out[0] != xelb.ErrorMarker {
		t.Fatalf("marker = %d, want %d", out[0], xelb.ErrorMarker)
	}
	if out[1] != 3 {
		t.Fatalf("code = %d, want 3", out[1])
	}

	decoded := xelb.New(WindowErrorDescriptor)
	if _, err := xelb.Unmarshal(decoded, out, nil, 0); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	got, _ := decoded.Get("bad-resource-id")
	if got.(uint64) != 0xdeadbeef {
		t.Fatalf("bad-resource-id = %#x, want 0xdeadbeef", got)
	}
}

// TestConfigureWindowValuesSwitch checks switch emission/decoding order
// against a mask that matches two non-adjacent cases: per Members
// declaration order, x then height, not the case-declaration order.
func TestConfigureWindowValuesSwitch(t *testing.T) {
	s := xelb.New(ConfigureWindowValuesDescriptor)
	s.Set("stacking-mode", uint64(0))
	s.Set("value-mask", uint64(0x09)) // bits 0x01 (x) and 0x08 (height)
	s.Set("x", int64(5))
	s.Set("height", uint64(9))

	out, err := xelb.Marshal(s, nil, nil)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	// stacking-mode (1) + pad-align to 4 (3) + x (2) + height (2)
	if len(out) != 8 {
		t.Fatalf("len(out) = %d, want 8", len(out))
	}

	decoded := xelb.New(ConfigureWindowValuesDescriptor)
	decoded.Set("value-mask", uint64(0x09))
	n, err := xelb.Unmarshal(decoded, out, nil, 0)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if n != len(out) {
		t.Fatalf("consumed %d, want %d", n, len(out))
	}
	gotX, _ := decoded.Get("x")
	gotH, _ := decoded.Get("height")
	if gotX.(int64) != 5 || gotH.(uint64) != 9 {
		t.Fatalf("x=%v height=%v, want 5, 9", gotX, gotH)
	}
	if _, ok := decoded.Get("y"); ok {
		t.Fatalf("y should not have been decoded, value-mask did not set its bit")
	}
}

// TestXkbStateNotifyGenericEvent exercises the generic-event class,
// where an EventNumberFunc supplies the extension id and evtype.
func TestXkbStateNotifyGenericEvent(t *testing.T) {
	resolve := func(conn any, class string) (xelb.EventNumber, error) {
		return xelb.EventNumber{Generic: true, ExtensionID: 2, EvType: 4}, nil
	}
	s := xelb.New(XkbStateNotifyDescriptor)
	s.Set("sequence", uint64(1))
	s.Set("xkbType", uint64(2))
	s.Set("deviceID", uint64(0))

	out, err := xelb.Marshal(s, nil, resolve)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if out[0] != xelb.GenericEventCode {
		t.Fatalf("code = %d, want %d", out[0], xelb.GenericEventCode)
	}
	if len(out) != xelb.EventMinimumBytes {
		t.Fatalf("len(out) = %d, want %d", len(out), xelb.EventMinimumBytes)
	}
}

// TestClientMessageDataUnion exercises the union's longest-bound-member
// selection and same-bytes reinterpretation on unmarshal.
func TestClientMessageDataUnion(t *testing.T) {
	s := xelb.New(ClientMessageDataDescriptor)
	s.Set("data32", []any{uint64(1), uint64(2), uint64(3), uint64(4), uint64(5)})

	out, err := xelb.Marshal(s, nil, nil)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if len(out) != 20 {
		t.Fatalf("len(out) = %d, want 20", len(out))
	}

	decoded := xelb.New(ClientMessageDataDescriptor)
	n, err := xelb.Unmarshal(decoded, out, nil, 0)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if n != 20 {
		t.Fatalf("consumed %d bytes, want 20", n)
	}
	data32, _ := decoded.Get("data32")
	data8, _ := decoded.Get("data8")
	if data32 == nil || data8 == nil {
		t.Fatalf("expected every union slot to decode, got data32=%v data8=%v", data32, data8)
	}
}

// TestClientMessageNestedUnion exercises ClientMessageData as a nested
// field inside a real event, not through xelb.Marshal/Unmarshal's
// top-level union dispatch: the data field must still pick the longest
// bound member and zero-pad to its declared size, and unmarshal must
// still decode every slot from the same 20-byte window.
func TestClientMessageNestedUnion(t *testing.T) {
	s := xelb.New(ClientMessageDescriptor)
	s.Set("format", uint64(32))
	s.Set("window", uint64(0x00200001))
	data := xelb.New(ClientMessageDataDescriptor)
	data.Set("data32", []any{uint64(1), uint64(2), uint64(3), uint64(4), uint64(5)})
	s.Set("data", data)

	out, err := xelb.Marshal(s, nil, nil)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	// code+unused(2) + sequence(2) + format(1) + window(4) + data(20) = 29,
	// zero-padded to the 32-byte event minimum.
	if len(out) != xelb.EventMinimumBytes {
		t.Fatalf("len(out) = %d, want %d", len(out), xelb.EventMinimumBytes)
	}

	decoded := xelb.New(ClientMessageDescriptor)
	n, err := xelb.Unmarshal(decoded, out, nil, 0)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if n != len(out) {
		t.Fatalf("consumed %d, want %d", n, len(out))
	}
	gotWindow, _ := decoded.Get("window")
	if gotWindow.(uint64) != 0x00200001 {
		t.Fatalf("window = %#x, want 0x00200001", gotWindow)
	}
	gotData, ok := decoded.Get("data")
	if !ok {
		t.Fatal("data not decoded")
	}
	child, ok := gotData.(*xelb.Struct)
	if !ok {
		t.Fatalf("data = %#v (%T), want *xelb.Struct", gotData, gotData)
	}
	data32Decoded, ok := child.Get("data32")
	if !ok {
		t.Fatal("data.data32 not decoded")
	}
	data8Decoded, ok := child.Get("data8")
	if !ok {
		t.Fatal("data.data8 not decoded")
	}
	if data32Decoded == nil || data8Decoded == nil {
		t.Fatalf("expected every union slot to decode under the nested data field, got data32=%v data8=%v", data32Decoded, data8Decoded)
	}
}
