package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/banksean/snowland/internal/controlclient"
	"github.com/banksean/snowland/internal/ipc"
)

type DisplaysCmd struct {
	Ls DisplaysLsCmd `cmd:"" default:"1" help:"list displays"`
}

type DisplaysLsCmd struct{}

func (c *DisplaysLsCmd) Run(cctx *Context) error {
	ctx := context.Background()

	client, err := dialInstance(ctx, cctx)
	if err != nil {
		return err
	}
	defer client.Close()

	reply, err := client.Request(ctx, ipc.QueryDisplays{})
	if err != nil {
		return err
	}

	update, ok := reply.(ipc.UpdateDisplays)
	if !ok {
		return fmt.Errorf("snowlandctl: unexpected reply type %T to QueryDisplays", reply)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tPRIMARY\tX\tY\tWIDTH\tHEIGHT")
	for _, d := range update.Displays {
		fmt.Fprintf(w, "%s\t%s\t%v\t%d\t%d\t%d\t%d\n", d.ID, d.Name, d.Primary, d.X, d.Y, d.Width, d.Height)
	}
	return w.Flush()
}

func dialInstance(ctx context.Context, cctx *Context) (*controlclient.Client, error) {
	if cctx.Instance != 0 {
		return controlclient.DialInstance(ctx, cctx.Instance)
	}
	return controlclient.Dial(ctx)
}
