package main

import (
	"github.com/spf13/cobra"

	"github.com/example/game-store/services/catalog/internal/grpcapi"
)

func newResolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <game|genre|publisher|platform> <ref>",
		Short: "Resolve a reference to its primary id, copying legacy documents on first use",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, conn, err := clientFromCmd(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = conn.Close() }()

			resp, err := client.ResolveReference(cmd.Context(), &grpcapi.ResolveReferenceRequest{
				Entity:    args[0],
				Reference: args[1],
			})
			if err != nil {
				return rpcError(err)
			}

			p := printerFromCmd(cmd)
			if p.isJSON() {
				return p.json(resp)
			}
			p.kv([][2]string{
				{"Entity", args[0]},
				{"Reference", args[1]},
				{"ID", resp.ID},
			})
			return nil
		},
	}
}
