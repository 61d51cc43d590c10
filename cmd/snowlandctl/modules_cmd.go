package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/banksean/snowland/internal/controlclient"
	"github.com/banksean/snowland/internal/ipc"
)

type ModulesCmd struct {
	Ls  ModulesLsCmd  `cmd:"" default:"1" help:"list installed modules in render order"`
	Add ModulesAddCmd `cmd:"" help:"append a module of the given registered type"`
	Rm  ModulesRmCmd  `cmd:"" help:"remove the module at the given index"`
	Mv  ModulesMvCmd  `cmd:"" help:"move the module at old-index to new-index"`
}

func queryModules(ctx context.Context, client *controlclient.Client) ([]ipc.InstalledModule, error) {
	reply, err := client.Request(ctx, ipc.QueryConfiguration{})
	if err != nil {
		return nil, err
	}
	update, ok := reply.(ipc.UpdateConfiguration)
	if !ok {
		return nil, fmt.Errorf("snowlandctl: unexpected reply type %T to QueryConfiguration", reply)
	}
	return update.Configuration.Modules, nil
}

func printModulesTable(modules []ipc.InstalledModule) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "INDEX\tTYPE\tCONFIGURATION")
	for i, m := range modules {
		raw, err := json.Marshal(m.Configuration)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%d\t%s\t%s\n", i, m.TypeName, string(raw))
	}
	return w.Flush()
}

type ModulesLsCmd struct{}

func (c *ModulesLsCmd) Run(cctx *Context) error {
	ctx := context.Background()

	client, err := dialInstance(ctx, cctx)
	if err != nil {
		return err
	}
	defer client.Close()

	modules, err := queryModules(ctx, client)
	if err != nil {
		return err
	}
	return printModulesTable(modules)
}

type ModulesAddCmd struct {
	Type string `arg:"" help:"registered module type name, e.g. Snow, Text, Clear, Image, Countdown"`
}

func (c *ModulesAddCmd) Run(cctx *Context) error {
	ctx := context.Background()

	client, err := dialInstance(ctx, cctx)
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.Send(ipc.AddModule{TypeName: c.Type}); err != nil {
		return err
	}

	modules, err := queryModules(ctx, client)
	if err != nil {
		return err
	}
	return printModulesTable(modules)
}

type ModulesRmCmd struct {
	Index int `arg:"" help:"index of the module to remove"`
}

func (c *ModulesRmCmd) Run(cctx *Context) error {
	ctx := context.Background()

	client, err := dialInstance(ctx, cctx)
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.Send(ipc.RemoveModule{Index: c.Index}); err != nil {
		return err
	}

	modules, err := queryModules(ctx, client)
	if err != nil {
		return err
	}
	return printModulesTable(modules)
}

type ModulesMvCmd struct {
	OldIndex int `arg:"" help:"current index of the module to move"`
	NewIndex int `arg:"" help:"index to move it to"`
}

func (c *ModulesMvCmd) Run(cctx *Context) error {
	ctx := context.Background()

	client, err := dialInstance(ctx, cctx)
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.Send(ipc.ReorderModules{OldIndex: c.OldIndex, NewIndex: c.NewIndex}); err != nil {
		return err
	}

	modules, err := queryModules(ctx, client)
	if err != nil {
		return err
	}
	return printModulesTable(modules)
}
