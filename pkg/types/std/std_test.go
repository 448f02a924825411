package std

import (
	"testing"

	"github.com/Eigen-Robotics/Eigen-Robotics/pkg/schema"
)

func TestAllTypesFingerprint(t *testing.T) {
	if len(All) == 0 {
		t.Fatalf("no registered types")
	}
	seen := make(map[uint64]string)
	for _, typ := range All {
		fp, err := typ.Fingerprint()
		if err != nil {
			t.Fatalf("%s: fingerprint: %v", typ.Qualified(), err)
		}
		if prev, dup := seen[fp]; dup {
			t.Fatalf("fingerprint collision between %s and %s", prev, typ.Qualified())
		}
		seen[fp] = typ.Qualified()
	}
}

func TestNetworkInfoRoundTrip(t *testing.T) {
	mkNode := func(name, host string, port int32) *schema.Message {
		n := NodeInfoT.New()
		n.MustSet("node_name", name)
		n.MustSet("host", host)
		n.MustSet("port", port)
		return n
	}
	m := NetworkInfoT.New()
	m.MustSet("n_nodes", 2)
	m.MustSet("nodes", []*schema.Message{
		mkNode("lidar", "10.0.0.5", 9101),
		mkNode("camera", "10.0.0.6", 9102),
	})

	data, err := m.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := NetworkInfoT.Decode(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	nodes, err := got.Msgs("nodes")
	if err != nil || len(nodes) != 2 {
		t.Fatalf("nodes = %v (%v)", nodes, err)
	}
	if name, _ := nodes[1].Str("node_name"); name != "camera" {
		t.Fatalf("node name = %q", name)
	}
}

func TestExampleConstant(t *testing.T) {
	if ExampleTRevision != 1 {
		t.Fatalf("REVISION = %d", ExampleTRevision)
	}
	def := ExampleT.Def()
	if len(def.Constants) != 1 || def.Constants[0].Name != "REVISION" {
		t.Fatalf("constants lost: %+v", def.Constants)
	}
}
