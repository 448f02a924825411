// eigen-ctl inspects a running fabric through the registry: it can resolve
// individual services and query the aggregated network info.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/Eigen-Robotics/Eigen-Robotics/pkg/comm"
	"github.com/Eigen-Robotics/Eigen-Robotics/pkg/registry"
	"github.com/Eigen-Robotics/Eigen-Robotics/pkg/registry/server"
	"github.com/Eigen-Robotics/Eigen-Robotics/pkg/types/std"
)

func main() {
	host := flag.String("host", "127.0.0.1", "registry host")
	port := flag.Int("port", 1234, "registry port")
	discover := flag.String("discover", "", "resolve one service name and exit")
	timeout := flag.Duration("timeout", 5*time.Second, "registry exchange timeout")
	flag.Parse()

	if *discover != "" {
		c := registry.NewClient(*host, *port)
		c.Timeout = *timeout
		svcHost, svcPort, err := c.Discover(*discover)
		if err != nil {
			fatalf("discover %q: %v", *discover, err)
		}
		fmt.Printf("%s -> %s:%d\n", *discover, svcHost, svcPort)
		return
	}

	req := std.FlagT.New()
	req.MustSet("flag", true)
	resp, err := comm.SendServiceRequest(*host, *port, server.NetworkInfoService, req, std.NetworkInfoT)
	if err != nil {
		fatalf("network info: %v", err)
	}

	n, _ := resp.Int("n_nodes")
	fmt.Printf("Nodes: %d\n", n)
	nodes, err := resp.Msgs("nodes")
	if err != nil {
		fatalf("network info: %v", err)
	}
	for _, node := range nodes {
		name, _ := node.Str("node_name")
		nodeHost, _ := node.Str("host")
		nodePort, _ := node.Int("port")
		fmt.Printf("- %s %s:%d\n", name, nodeHost, nodePort)
	}
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
