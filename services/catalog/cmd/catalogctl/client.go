package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	"github.com/example/game-store/services/catalog/internal/grpcapi"
)

// clientFromCmd dials the catalog gRPC address from the persistent flags. The
// caller closes the returned connection.
func clientFromCmd(cmd *cobra.Command) (*grpcapi.Client, *grpc.ClientConn, error) {
	addr, _ := cmd.Flags().GetString("addr")
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	return grpcapi.NewClient(conn), conn, nil
}

// rpcError flattens a gRPC status into "code: message" plus field violations.
func rpcError(err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	msg := fmt.Sprintf("%s: %s", st.Code(), st.Message())
	for _, v := range grpcapi.FieldViolations(st) {
		msg += fmt.Sprintf("\n  %s: %s", v[0], v[1])
	}
	return errors.New(msg)
}
