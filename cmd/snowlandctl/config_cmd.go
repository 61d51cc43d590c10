package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/banksean/snowland/internal/ipc"
)

type ConfigCmd struct {
	Get ConfigGetCmd `cmd:"" help:"print one module's configuration as JSON"`
	Set ConfigSetCmd `cmd:"" help:"replace one module's configuration from JSON"`
}

type ConfigGetCmd struct {
	Index int `arg:"" help:"index of the module whose configuration to print"`
}

func (c *ConfigGetCmd) Run(cctx *Context) error {
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
	if c.Index < 0 || c.Index >= len(modules) {
		return fmt.Errorf("snowlandctl: index %d out of range (have %d modules)", c.Index, len(modules))
	}

	raw, err := json.MarshalIndent(modules[c.Index].Configuration, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(raw))
	return nil
}

type ConfigSetCmd struct {
	Index int    `arg:"" help:"index of the module to reconfigure"`
	JSON  string `arg:"" help:"new configuration as a JSON object"`
}

func (c *ConfigSetCmd) Run(cctx *Context) error {
	ctx := context.Background()

	var structure ipc.Structure
	if err := json.Unmarshal([]byte(c.JSON), &structure); err != nil {
		return fmt.Errorf("snowlandctl: invalid configuration JSON: %w", err)
	}

	client, err := dialInstance(ctx, cctx)
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.Send(ipc.ChangeConfiguration{ModuleIndex: c.Index, NewConfiguration: structure}); err != nil {
		return err
	}

	modules, err := queryModules(ctx, client)
	if err != nil {
		return err
	}
	return printModulesTable(modules)
}
