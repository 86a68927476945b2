package main

import (
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/game-store/services/catalog/internal/grpcapi"
)

func newGamesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "games",
		Short: "List one page of the unified catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req, err := gamesRequest(cmd)
			if err != nil {
				return err
			}
			client, conn, err := clientFromCmd(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = conn.Close() }()

			resp, err := client.ListGames(cmd.Context(), req)
			if err != nil {
				return rpcError(err)
			}

			p := printerFromCmd(cmd)
			if p.isJSON() {
				return p.json(resp)
			}
			rows := make([][]string, 0, len(resp.Items))
			for _, it := range resp.Items {
				rows = append(rows, []string{
					it.ID.String(),
					string(it.Origin),
					it.Name,
					strconv.FormatFloat(it.Price, 'f', 2, 64),
					it.PublisherName,
					it.CreatedAt.Format(time.DateOnly),
				})
			}
			p.table([]string{"ID", "ORIGIN", "NAME", "PRICE", "PUBLISHER", "ADDED"}, rows)
			_, _ = cmd.OutOrStdout().Write([]byte("page " + strconv.Itoa(resp.CurrentPage) + " of " + strconv.Itoa(resp.TotalPages) + "\n"))
			return nil
		},
	}

	f := cmd.Flags()
	f.StringSlice("genre", nil, "genre id or legacy category id (repeatable)")
	f.StringSlice("platform", nil, "platform id (repeatable)")
	f.StringSlice("publisher", nil, "publisher name (repeatable)")
	f.String("name", "", "name substring, at least 3 characters")
	f.String("date", "", "publishing date bucket, e.g. \"last month\"")
	f.Float64("min-price", 0, "minimum price")
	f.Float64("max-price", 0, "maximum price")
	f.String("sort", "Newest", "MostPopular, MostCommented, PriceAsc, PriceDesc or Newest")
	f.Int("page", 1, "page number")
	f.String("page-count", "10", "page size: 10, 20, 50, 100 or all")
	f.Bool("include-deleted", false, "include soft-deleted games")
	return cmd
}

func gamesRequest(cmd *cobra.Command) (*grpcapi.ListGamesRequest, error) {
	f := cmd.Flags()
	req := &grpcapi.ListGamesRequest{}
	req.Genres, _ = f.GetStringSlice("genre")
	req.Platforms, _ = f.GetStringSlice("platform")
	req.Publishers, _ = f.GetStringSlice("publisher")
	req.Name, _ = f.GetString("name")
	req.DatePublishing, _ = f.GetString("date")
	req.Sort, _ = f.GetString("sort")
	req.Page, _ = f.GetInt("page")
	req.PageCount, _ = f.GetString("page-count")
	req.IncludeDeleted, _ = f.GetBool("include-deleted")
	if f.Changed("min-price") {
		v, err := f.GetFloat64("min-price")
		if err != nil {
			return nil, err
		}
		req.MinPrice = &v
	}
	if f.Changed("max-price") {
		v, err := f.GetFloat64("max-price")
		if err != nil {
			return nil, err
		}
		req.MaxPrice = &v
	}
	return req, nil
}
