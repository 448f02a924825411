package registry

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func TestFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	req := Request{Type: "REGISTER", ServiceName: "svc-a", Host: "127.0.0.1", Port: 9000}
	if err := WriteFrame(&buf, req); err != nil {
		t.Fatalf("write: %v", err)
	}
	// prefix is a 4-byte big-endian body length
	if n := binary.BigEndian.Uint32(buf.Bytes()[:4]); int(n) != buf.Len()-4 {
		t.Fatalf("length prefix %d does not match body %d", n, buf.Len()-4)
	}

	var got Request
	if err := ReadFrame(&buf, &got); err != nil {
		t.Fatalf("read: %v", err)
	}
	if got != req {
		t.Fatalf("round trip changed request: %+v", got)
	}
}

func TestReadFrameRejectsBadFrames(t *testing.T) {
	var req Request
	if err := ReadFrame(bytes.NewReader([]byte{0, 0}), &req); err == nil {
		t.Fatalf("short prefix must fail")
	}

	var oversize [4]byte
	binary.BigEndian.PutUint32(oversize[:], maxFrame+1)
	if err := ReadFrame(bytes.NewReader(oversize[:]), &req); err == nil {
		t.Fatalf("oversized frame must be rejected before reading the body")
	}

	var buf bytes.Buffer
	body := []byte("{not json")
	var hdr [4]byte
	binary.BigEndian.PutUint32(hdr[:], uint32(len(body)))
	buf.Write(hdr[:])
	buf.Write(body)
	if err := ReadFrame(&buf, &req); err == nil {
		t.Fatalf("invalid JSON must fail")
	}
}

func TestParseOp(t *testing.T) {
	if ParseOp("REGISTER") != OpRegister || ParseOp("DISCOVER") != OpDiscover || ParseOp("DEREGISTER") != OpDeregister {
		t.Fatalf("known ops misparsed")
	}
	if ParseOp("register") != OpUnknown || ParseOp("") != OpUnknown {
		t.Fatalf("unknown ops must map to OpUnknown")
	}
}

func TestRequestLegacyNameField(t *testing.T) {
	r := Request{Name: "old-client"}
	if r.Service() != "old-client" {
		t.Fatalf("legacy name ignored")
	}
	r.ServiceName = "new"
	if r.Service() != "new" {
		t.Fatalf("service_name must win over legacy name")
	}
}
