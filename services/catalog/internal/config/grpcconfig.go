package config

import (
	"os"
	"strings"
)

type GRPCConfig struct {
	Addr string
	// Reflection registers the reflection service so grpcurl can list methods.
	Reflection bool
}

func LoadGRPC() GRPCConfig {
	addr := strings.TrimSpace(os.Getenv("GRPC_ADDR"))
	if addr == "" {
		addr = ":9092"
	}
	reflection := true
	if v := strings.TrimSpace(os.Getenv("GRPC_REFLECTION")); v != "" {
		reflection = v != "0" && !strings.EqualFold(v, "false")
	}
	return GRPCConfig{Addr: addr, Reflection: reflection}
}
